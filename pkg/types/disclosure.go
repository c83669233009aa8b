package types

import (
	"crypto/sha1"
	"encoding/hex"
	"strconv"
)

// Direction identifies one half of a transcript.
type Direction string

const (
	DirectionSent     Direction = "sent"
	DirectionReceived Direction = "received"
)

// DisclosureKind says why a span is disclosed.
type DisclosureKind string

const (
	KindKeypath     DisclosureKind = "keypath"
	KindHeader      DisclosureKind = "header"
	KindRequestLine DisclosureKind = "request_line"
	KindQueryParam  DisclosureKind = "query_param"
	KindFallback    DisclosureKind = "fallback"
	KindAdditional  DisclosureKind = "additional"
)

// Disclosure is one labelled span to reveal or commit.
type Disclosure struct {
	ID          string         `json:"id"` // SHA-1(direction + '\0' + kind + '\0' + field + '\0' + start + '\0' + end)
	Direction   Direction      `json:"direction"`
	Kind        DisclosureKind `json:"kind"`
	Field       string         `json:"field"` // keypath, header name or query parameter
	Location    Location       `json:"location"`
	Fingerprint string         `json:"fingerprint,omitempty"` // BLAKE3-256 of the disclosed bytes
}

// ComputeID computes the content-addressed disclosure ID.
func (d *Disclosure) ComputeID() string {
	h := sha1.New()
	h.Write([]byte(d.Direction))
	h.Write([]byte{0})
	h.Write([]byte(d.Kind))
	h.Write([]byte{0})
	h.Write([]byte(d.Field))
	h.Write([]byte{0})
	h.Write([]byte(strconv.FormatInt(d.Location.Offset.Start, 10)))
	h.Write([]byte{0})
	h.Write([]byte(strconv.FormatInt(d.Location.Offset.End, 10)))
	return hex.EncodeToString(h.Sum(nil))
}
