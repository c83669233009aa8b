// Package plan turns a transcript and a profile into the labelled byte ranges to
// reveal for each direction.
package plan

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/zeebo/blake3"
	"golang.org/x/sync/errgroup"

	"github.com/praetorian-inc/disclose/pkg/ast"
	"github.com/praetorian-inc/disclose/pkg/log"
	"github.com/praetorian-inc/disclose/pkg/message"
	"github.com/praetorian-inc/disclose/pkg/metrics"
	"github.com/praetorian-inc/disclose/pkg/prefilter"
	"github.com/praetorian-inc/disclose/pkg/search"
	"github.com/praetorian-inc/disclose/pkg/transcript"
	"github.com/praetorian-inc/disclose/pkg/types"
)

// Plan is the disclosure plan for one transcript under one profile.
type Plan struct {
	ID           string             `json:"id"`
	TranscriptID types.TranscriptID `json:"transcript_id"`
	ProfileID    string             `json:"profile_id"`
	CreatedAt    time.Time          `json:"created_at"`
	Sent         Side               `json:"sent"`
	Received     Side               `json:"received"`
}

// Side is the plan for one direction.
type Side struct {
	Direction types.Direction `json:"direction"`
	// Disclosures are sorted by offset, then kind and field.
	Disclosures []*types.Disclosure `json:"disclosures"`
	// Ranges are the sorted, merged spans to reveal.
	Ranges []types.OffsetSpan `json:"ranges"`
	// Fallback is set when the received ranges were located without the grammar.
	Fallback bool `json:"fallback,omitempty"`
	// Error is the grammar error for this direction, if it could not be parsed.
	Error string `json:"error,omitempty"`
}

// Side returns the side for dir.
func (p *Plan) Side(dir types.Direction) *Side {
	if dir == types.DirectionSent {
		return &p.Sent
	}
	return &p.Received
}

// Disclosures returns both sides' disclosures, sent first.
func (p *Plan) Disclosures() []*types.Disclosure {
	out := make([]*types.Disclosure, 0, len(p.Sent.Disclosures)+len(p.Received.Disclosures))
	out = append(out, p.Sent.Disclosures...)
	return append(out, p.Received.Disclosures...)
}

// Options configures Build.
type Options struct {
	Logger logrus.FieldLogger
	Limits transcript.Limits
}

// Build parses both directions concurrently and locates the profile's selections.
//
// A direction the grammar rejects is reported in its Side.Error; the received side
// falls back to textual location when the profile allows it. Grammar contract
// violations fail the whole build.
func Build(ctx context.Context, t *transcript.Transcript, p *types.Profile, opts Options) (*Plan, error) {
	start := time.Now()
	logger := log.OrDiscard(opts.Logger).WithFields(logrus.Fields{
		"transcript": t.ID.Hex(),
		"profile":    p.ID,
	})

	if err := opts.Limits.Check(t); err != nil {
		return nil, err
	}

	plan := &Plan{
		ID:           uuid.NewString(),
		TranscriptID: t.ID,
		ProfileID:    p.ID,
		CreatedAt:    time.Now().UTC(),
		Sent:         Side{Direction: types.DirectionSent},
		Received:     Side{Direction: types.DirectionReceived},
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return buildSent(ctx, &plan.Sent, t.Sent, p.Sent, logger)
	})
	g.Go(func() error {
		return buildReceived(ctx, &plan.Received, t.Received, p.Received, p.Fallback, logger)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	metrics.PlanBuildSeconds.Observe(time.Since(start).Seconds())
	logger.WithFields(logrus.Fields{
		"sent_ranges":     len(plan.Sent.Ranges),
		"received_ranges": len(plan.Received.Ranges),
	}).Debug("plan built")

	return plan, nil
}

func buildSent(ctx context.Context, side *Side, data []byte, sel types.Selection, logger logrus.FieldLogger) error {
	if len(data) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	req, err := message.ParseRequest(data)
	if err != nil {
		return side.fail(err, logger)
	}

	matches := search.MatchesForKeypaths(req, sel.Keypaths, sel.Headers)
	matches = append(matches, req.QueryMatches(sel.Query)...)
	side.fill(data, matches)
	metrics.TranscriptsParsedTotal.WithLabelValues(string(side.Direction), metrics.OutcomeOK).Inc()
	return nil
}

func buildReceived(ctx context.Context, side *Side, data []byte, sel types.Selection, fallback bool, logger logrus.FieldLogger) error {
	if len(data) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	resp, err := message.ParseResponse(data)
	if err != nil {
		if failErr := side.fail(err, logger); failErr != nil || !fallback {
			return failErr
		}
		side.Fallback = true
		side.fill(data, prefilter.Locate(data, sel.Keypaths))
		metrics.FallbackTotal.Inc()
		metrics.TranscriptsParsedTotal.WithLabelValues(string(side.Direction), metrics.OutcomeFallback).Inc()
		logger.WithField("ranges", len(side.Ranges)).Warn("response rejected by grammar, located keys textually")
		return nil
	}

	side.fill(data, search.MatchesForKeypaths(resp, sel.Keypaths, sel.Headers))
	metrics.TranscriptsParsedTotal.WithLabelValues(string(side.Direction), metrics.OutcomeOK).Inc()
	return nil
}

// fail records a parse error. Contract violations are returned instead.
func (s *Side) fail(err error, logger logrus.FieldLogger) error {
	dir := string(s.Direction)
	if errors.Is(err, ast.ErrContractViolation) {
		metrics.ContractViolationsTotal.WithLabelValues(dir).Inc()
		return fmt.Errorf("%s: %w", dir, err)
	}
	s.Error = err.Error()
	metrics.TranscriptsParsedTotal.WithLabelValues(dir, metrics.OutcomeError).Inc()
	logger.WithError(err).WithField("direction", dir).Warn("transcript rejected by grammar")
	return nil
}

// fill turns matches into deduplicated disclosures and canonical ranges.
func (s *Side) fill(data []byte, matches []search.Match) {
	seen := make(map[string]bool, len(matches))
	spans := make([]types.OffsetSpan, 0, len(matches))

	for _, m := range matches {
		d := &types.Disclosure{
			Direction:   s.Direction,
			Kind:        m.Kind,
			Field:       m.Field,
			Location:    types.LocationOf(data, m.Span),
			Fingerprint: Fingerprint(m.Span.Slice(data)),
		}
		d.ID = d.ComputeID()
		if seen[d.ID] {
			continue
		}
		seen[d.ID] = true

		s.Disclosures = append(s.Disclosures, d)
		spans = append(spans, m.Span)
		metrics.RangesTotal.WithLabelValues(string(s.Direction), string(m.Kind)).Inc()
	}

	sort.SliceStable(s.Disclosures, func(i, j int) bool {
		a, b := s.Disclosures[i], s.Disclosures[j]
		if a.Location.Offset.Start != b.Location.Offset.Start {
			return a.Location.Offset.Start < b.Location.Offset.Start
		}
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		return a.Field < b.Field
	})
	s.Ranges = search.Canonicalize(spans)
}

// Fingerprint is the hex BLAKE3-256 of disclosed bytes.
func Fingerprint(b []byte) string {
	sum := blake3.Sum256(b)
	return hex.EncodeToString(sum[:])
}
