// Package codec encodes disclosure plans as deterministic CBOR, the form in which
// plans are committed to and exchanged with provers.
package codec

import (
	"io"
	"reflect"

	"github.com/fxamacker/cbor/v2"

	"github.com/praetorian-inc/disclose/pkg/plan"
)

// encMode uses Core Deterministic Encoding (RFC 8949 §4.2): sorted map keys, smallest
// integer encoding, no indefinite-length items. Equal plans encode to equal bytes.
var encMode cbor.EncMode

var decMode cbor.DecMode

func init() {
	var err error

	encOptions := cbor.CoreDetEncOptions()
	// Nanosecond timestamps survive a round trip.
	encOptions.Time = cbor.TimeRFC3339Nano
	encMode, err = encOptions.EncMode()
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("codec: CBOR decoder initialization failed: " + err.Error())
	}
}

// Marshal encodes v to CBOR using Core Deterministic Encoding.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes CBOR data into v.
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}

// EncodePlan encodes a plan.
func EncodePlan(p *plan.Plan) ([]byte, error) {
	return Marshal(p)
}

// DecodePlan decodes a plan produced by EncodePlan.
func DecodePlan(data []byte) (*plan.Plan, error) {
	var p plan.Plan
	if err := Unmarshal(data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// NewEncoder returns a deterministic CBOR stream encoder writing to w.
func NewEncoder(w io.Writer) *cbor.Encoder {
	return encMode.NewEncoder(w)
}

// NewDecoder returns a CBOR stream decoder reading from r.
func NewDecoder(r io.Reader) *cbor.Decoder {
	return decMode.NewDecoder(r)
}

// Diagnose returns the CBOR diagnostic notation (RFC 8949 §8) of data.
func Diagnose(data []byte) (string, error) {
	return cbor.Diagnose(data)
}
