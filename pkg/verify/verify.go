// Package verify re-checks disclosure plans against their transcripts and extracts
// fields from redacted transcripts.
package verify

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/praetorian-inc/disclose/pkg/plan"
	"github.com/praetorian-inc/disclose/pkg/transcript"
	"github.com/praetorian-inc/disclose/pkg/types"
)

// ErrTranscriptMismatch is returned when a plan was built for a different transcript.
var ErrTranscriptMismatch = errors.New("plan does not belong to transcript")

// Checker checks that a disclosed slice still means what its disclosure says.
type Checker interface {
	// Name returns a human-readable name for this checker.
	Name() string

	// CanCheck returns true if this checker handles the given kind.
	CanCheck(kind types.DisclosureKind) bool

	// Check inspects the disclosed bytes of d.
	Check(slice []byte, d *types.Disclosure) *types.VerificationResult
}

// Engine runs checkers over every disclosure of a plan.
type Engine struct {
	checkers []Checker
	workers  int
}

// NewEngine creates an engine. With no checkers the default set is used.
func NewEngine(workers int, checkers ...Checker) *Engine {
	if workers <= 0 {
		workers = 4
	}
	if len(checkers) == 0 {
		checkers = DefaultCheckers()
	}
	return &Engine{checkers: checkers, workers: workers}
}

// DefaultCheckers returns checkers for every disclosure kind the plan builder emits.
func DefaultCheckers() []Checker {
	return []Checker{
		KeypathChecker{},
		HeaderChecker{},
		QueryParamChecker{},
		RequestLineChecker{},
	}
}

// Plan checks every disclosure of p against t. Results are in p.Disclosures() order.
func (e *Engine) Plan(ctx context.Context, t *transcript.Transcript, p *plan.Plan) ([]*types.VerificationResult, error) {
	if t.ID != p.TranscriptID {
		return nil, fmt.Errorf("transcript %s, plan %s: %w", t.ID, p.TranscriptID, ErrTranscriptMismatch)
	}

	disclosures := p.Disclosures()
	results := make([]*types.VerificationResult, len(disclosures))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, d := range disclosures {
		i, d := i, d
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = e.check(t.Data(d.Direction), d)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (e *Engine) check(data []byte, d *types.Disclosure) *types.VerificationResult {
	span := d.Location.Offset
	if !span.Valid(len(data)) {
		return types.NewVerificationResult(d, types.StatusMismatch,
			fmt.Sprintf("span %s outside %d-byte transcript", span, len(data)))
	}
	slice := span.Slice(data)

	if d.Fingerprint != "" && d.Fingerprint != plan.Fingerprint(slice) {
		return types.NewVerificationResult(d, types.StatusMismatch, "fingerprint differs from disclosed bytes")
	}

	for _, c := range e.checkers {
		if c.CanCheck(d.Kind) {
			return c.Check(slice, d)
		}
	}
	return types.NewVerificationResult(d, types.StatusUndetermined, "no checker for "+string(d.Kind))
}

// Plan checks p against t with the default checkers.
func Plan(ctx context.Context, t *transcript.Transcript, p *plan.Plan) ([]*types.VerificationResult, error) {
	return NewEngine(0).Plan(ctx, t, p)
}

// Summary counts results by status.
func Summary(results []*types.VerificationResult) map[types.VerificationStatus]int {
	out := make(map[types.VerificationStatus]int)
	for _, r := range results {
		out[r.Status]++
	}
	return out
}
