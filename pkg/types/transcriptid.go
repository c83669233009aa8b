package types

import (
	"crypto/sha1"
	"database/sql/driver"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// TranscriptID is a SHA-1 content hash over both directions of a transcript.
type TranscriptID [20]byte

// ComputeTranscriptID hashes "transcript {len(sent)} {len(received)}\0" followed by
// the sent and received bytes.
func ComputeTranscriptID(sent, received []byte) TranscriptID {
	h := sha1.New()
	fmt.Fprintf(h, "transcript %d %d\x00", len(sent), len(received))
	h.Write(sent)
	h.Write(received)

	var id TranscriptID
	copy(id[:], h.Sum(nil))
	return id
}

// Hex returns the 40-character hex form.
func (id TranscriptID) Hex() string {
	return hex.EncodeToString(id[:])
}

func (id TranscriptID) String() string {
	return id.Hex()
}

// ParseTranscriptID parses a 40-character hex string.
func ParseTranscriptID(s string) (TranscriptID, error) {
	var id TranscriptID
	if len(s) != 2*len(id) {
		return id, fmt.Errorf("invalid transcript ID length: expected %d, got %d", 2*len(id), len(s))
	}
	if _, err := hex.Decode(id[:], []byte(s)); err != nil {
		return id, fmt.Errorf("invalid hex string: %w", err)
	}
	return id, nil
}

// MarshalJSON implements json.Marshaler.
func (id TranscriptID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.Hex())
}

// UnmarshalJSON implements json.Unmarshaler.
func (id *TranscriptID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseTranscriptID(s)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// Value implements driver.Valuer.
func (id TranscriptID) Value() (driver.Value, error) {
	return id.Hex(), nil
}

// Scan implements sql.Scanner.
func (id *TranscriptID) Scan(value interface{}) error {
	var s string
	switch v := value.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	case nil:
		return fmt.Errorf("cannot scan nil into TranscriptID")
	default:
		return fmt.Errorf("cannot scan type %T into TranscriptID", value)
	}
	parsed, err := ParseTranscriptID(s)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
