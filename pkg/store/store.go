// Package store persists transcripts and disclosure plans.
package store

import (
	"errors"

	"github.com/praetorian-inc/disclose/pkg/plan"
	"github.com/praetorian-inc/disclose/pkg/search"
	"github.com/praetorian-inc/disclose/pkg/transcript"
	"github.com/praetorian-inc/disclose/pkg/types"
)

// ErrNotFound is returned when a requested plan does not exist.
var ErrNotFound = errors.New("not found")

// Store provides persistence for extraction results.
// This interface abstracts the underlying storage implementation,
// allowing for different backends.
type Store interface {
	// AddTranscript stores a transcript record. Transcript bytes are not stored.
	AddTranscript(t *transcript.Transcript) error

	// TranscriptExists checks if a transcript has already been recorded.
	TranscriptExists(id types.TranscriptID) (bool, error)

	// AddPlan stores a plan and its disclosures. Adding a plan twice is a no-op.
	AddPlan(p *plan.Plan) error

	// GetPlan retrieves one plan by ID.
	GetPlan(id string) (*plan.Plan, error)

	// GetPlans retrieves all plans, oldest first.
	GetPlans() ([]*plan.Plan, error)

	// GetPlansForTranscript retrieves the plans built for one transcript, oldest first.
	GetPlansForTranscript(id types.TranscriptID) ([]*plan.Plan, error)

	// Close closes the database connection.
	Close() error
}

// Config for store initialization.
type Config struct {
	// Path is the database file path.
	// Use ":memory:" for a process-local store (useful for testing).
	Path string
}

// finishSide rebuilds the canonical ranges of a loaded side from its disclosures.
func finishSide(s *plan.Side) {
	spans := make([]types.OffsetSpan, len(s.Disclosures))
	for i, d := range s.Disclosures {
		spans[i] = d.Location.Offset
	}
	s.Ranges = search.Canonicalize(spans)
}
