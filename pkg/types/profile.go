package types

import (
	"crypto/sha1"
	"encoding/hex"
	"sort"
	"strings"
)

// Selection lists what to disclose from one direction of a transcript.
type Selection struct {
	Keypaths []string `json:"keypaths,omitempty"`
	Headers  []string `json:"headers,omitempty"`
	Query    []string `json:"query,omitempty"` // request only
}

// IsEmpty reports whether nothing is selected.
func (s Selection) IsEmpty() bool {
	return len(s.Keypaths) == 0 && len(s.Headers) == 0 && len(s.Query) == 0
}

// Profile is a named disclosure policy for a class of transcripts.
type Profile struct {
	ID           string        `json:"id"`   // e.g., "binance.avgprice"
	Name         string        `json:"name"` // human-readable name
	Description  string        `json:"description,omitempty"`
	Sent         Selection     `json:"sent"`
	Received     Selection     `json:"received"`
	Fallback     bool          `json:"fallback,omitempty"` // locate received keys textually when the grammar rejects the response
	Extract      []ExtractRule `json:"extract,omitempty"`  // applied to redacted transcripts
	StructuralID string        `json:"structural_id"`      // SHA-1 of the normalized selections (computed)
}

// ExtractRule pulls a field out of a redacted transcript. The first capture group of
// Pattern is the value.
type ExtractRule struct {
	Field     string    `json:"field"`
	Direction Direction `json:"direction"`
	Pattern   string    `json:"pattern"`
	Required  bool      `json:"required,omitempty"`
}

// ComputeStructuralID hashes the selections so that profiles disclosing the same
// fields share an ID regardless of list order.
func (p *Profile) ComputeStructuralID() string {
	h := sha1.New()
	for _, part := range []struct {
		tag  string
		list []string
	}{
		{"sent.keypaths", p.Sent.Keypaths},
		{"sent.headers", p.Sent.Headers},
		{"sent.query", p.Sent.Query},
		{"received.keypaths", p.Received.Keypaths},
		{"received.headers", p.Received.Headers},
	} {
		sorted := append([]string(nil), part.list...)
		sort.Strings(sorted)
		h.Write([]byte(part.tag))
		h.Write([]byte{0})
		h.Write([]byte(strings.Join(sorted, "\x00")))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Selection returns the selection for a direction.
func (p *Profile) Selection(dir Direction) Selection {
	if dir == DirectionSent {
		return p.Sent
	}
	return p.Received
}
