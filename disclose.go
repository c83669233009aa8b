// Package disclose finds the byte ranges of an HTTP transcript that a prover should
// reveal, and labels each range with the field it discloses.
//
// A transcript is the raw request sent and the raw response received in one session.
// Both directions are parsed with range-preserving grammars, so every header and every
// JSON value keeps its exact position in the original bytes. A profile names the
// keypaths, headers and query parameters to reveal; everything else stays hidden.
//
// # Basic Usage
//
// Create an extractor with the builtin profiles and build plans for a transcript:
//
//	ex, err := disclose.NewExtractor()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer ex.Close()
//
//	result, err := ex.Extract(ctx, sent, received)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for _, p := range result.Plans {
//	    for _, d := range p.Disclosures() {
//	        fmt.Printf("%s %s %s at %s\n", p.ProfileID, d.Direction, d.Field, d.Location.Offset)
//	    }
//	}
//
// # Ranges Only
//
// Callers that already know what to reveal can skip profiles:
//
//	ranges, err := disclose.ResponseRanges(received, []string{"price"}, nil)
package disclose

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/praetorian-inc/disclose/pkg/extract"
	"github.com/praetorian-inc/disclose/pkg/message"
	"github.com/praetorian-inc/disclose/pkg/plan"
	"github.com/praetorian-inc/disclose/pkg/profile"
	"github.com/praetorian-inc/disclose/pkg/search"
	"github.com/praetorian-inc/disclose/pkg/store"
	"github.com/praetorian-inc/disclose/pkg/transcript"
	"github.com/praetorian-inc/disclose/pkg/types"
	"github.com/praetorian-inc/disclose/pkg/verify"
)

// Re-export commonly used types for convenience.
// Users can import just "github.com/praetorian-inc/disclose" without subpackages.
type (
	// Transcript is the sent and received bytes of one session.
	Transcript = transcript.Transcript

	// Limits caps the size of each transcript direction.
	Limits = transcript.Limits

	// Profile names what to disclose for a class of transcripts.
	Profile = types.Profile

	// Plan is the disclosure plan for one transcript under one profile.
	Plan = plan.Plan

	// Disclosure is one labelled span to reveal.
	Disclosure = types.Disclosure

	// OffsetSpan is a half-open byte range.
	OffsetSpan = types.OffsetSpan

	// Location pairs a byte range with its line:column positions.
	Location = types.Location

	// Result holds the plans built for one transcript.
	Result = extract.Result

	// VerificationResult records whether a disclosed span still means what its label says.
	VerificationResult = types.VerificationResult

	// VerificationStatus is verified, mismatch or undetermined.
	VerificationStatus = types.VerificationStatus
)

// Re-export verification status constants.
const (
	StatusVerified     = types.StatusVerified
	StatusMismatch     = types.StatusMismatch
	StatusUndetermined = types.StatusUndetermined
)

// DefaultLimits are the session limits applied when WithLimits is not used.
var DefaultLimits = transcript.DefaultLimits

// Extractor builds disclosure plans for transcripts.
type Extractor struct {
	core   *extract.Core
	engine *verify.Engine
	config *extractorConfig
	mu     sync.RWMutex
	closed bool
}

// extractorConfig holds extractor configuration.
type extractorConfig struct {
	profiles      []*types.Profile
	logger        logrus.FieldLogger
	limits        transcript.Limits
	store         store.Store
	verifyWorkers int
}

// Option configures an Extractor.
type Option func(*extractorConfig)

// WithProfiles uses custom profiles instead of the builtin ones.
func WithProfiles(profiles []*Profile) Option {
	return func(c *extractorConfig) {
		c.profiles = profiles
	}
}

// WithLogger sets the logger. Nothing is logged by default.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(c *extractorConfig) {
		c.logger = logger
	}
}

// WithLimits overrides DefaultLimits. A zero field means unlimited.
func WithLimits(limits Limits) Option {
	return func(c *extractorConfig) {
		c.limits = limits
	}
}

// WithStore persists every transcript and plan. The extractor closes the store.
func WithStore(s store.Store) Option {
	return func(c *extractorConfig) {
		c.store = s
	}
}

// WithVerifyWorkers sets the number of concurrent verification workers.
// Default is 4.
func WithVerifyWorkers(workers int) Option {
	return func(c *extractorConfig) {
		c.verifyWorkers = workers
	}
}

// NewExtractor creates a new Extractor with the given options.
//
// By default, the extractor:
//   - Uses the builtin profiles, picking those whose keys occur in the response
//   - Applies DefaultLimits
//   - Keeps nothing after a call returns (enable storage with WithStore)
func NewExtractor(opts ...Option) (*Extractor, error) {
	config := &extractorConfig{
		limits:        transcript.DefaultLimits,
		verifyWorkers: 4,
	}

	for _, opt := range opts {
		opt(config)
	}

	core, err := extract.NewCore(extract.Config{
		Profiles: config.profiles,
		Store:    config.store,
		Logger:   config.logger,
		Limits:   config.limits,
	})
	if err != nil {
		return nil, fmt.Errorf("creating extractor: %w", err)
	}

	return &Extractor{
		core:   core,
		engine: verify.NewEngine(config.verifyWorkers),
		config: config,
	}, nil
}

// Extract builds plans for a transcript given as raw bytes. With no profile IDs, every
// profile whose received keys occur in the response is used.
//
// Example:
//
//	result, err := ex.Extract(ctx, sent, received, "binance.avgprice")
func (e *Extractor) Extract(ctx context.Context, sent, received []byte, profileIDs ...string) (*Result, error) {
	return e.ExtractTranscript(ctx, transcript.New("", sent, received), profileIDs...)
}

// ExtractTranscript builds plans for t.
func (e *Extractor) ExtractTranscript(ctx context.Context, t *Transcript, profileIDs ...string) (*Result, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		return nil, fmt.Errorf("extractor is closed")
	}
	return e.core.Extract(ctx, t, profileIDs...)
}

// ExtractFile reads a JSON transcript file and builds its plans.
func (e *Extractor) ExtractFile(ctx context.Context, path string, profileIDs ...string) (*Result, error) {
	t, err := transcript.LoadFile(path)
	if err != nil {
		return nil, err
	}
	return e.ExtractTranscript(ctx, t, profileIDs...)
}

// Verify re-checks every disclosure of p against t.
func (e *Extractor) Verify(ctx context.Context, t *Transcript, p *Plan) ([]*VerificationResult, error) {
	return e.engine.Plan(ctx, t, p)
}

// Redact renders one direction of t with everything outside the plan masked.
func Redact(t *Transcript, p *Plan, dir types.Direction, mask byte) []byte {
	return plan.Redact(t.Data(dir), p.Side(dir).Ranges, mask)
}

// Close releases extractor resources.
// Always call Close when done with the extractor.
func (e *Extractor) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true
	return e.core.Close()
}

// ProfileCount returns the number of profiles loaded.
func (e *Extractor) ProfileCount() int {
	return len(e.core.Profiles())
}

// Profiles returns a copy of the loaded profiles.
func (e *Extractor) Profiles() []*Profile {
	loaded := e.core.Profiles()
	profiles := make([]*Profile, len(loaded))
	copy(profiles, loaded)
	return profiles
}

// RequestRanges parses a raw HTTP request and returns the canonical ranges of the
// given body keypaths and header names.
func RequestRanges(data []byte, keypaths, headers []string) ([]OffsetSpan, error) {
	req, err := message.ParseRequest(data)
	if err != nil {
		return nil, err
	}
	return search.Canonicalize(search.RangesForKeypaths(req, keypaths, headers)), nil
}

// ResponseRanges parses a raw HTTP response and returns the canonical ranges of the
// given body keypaths and header names.
func ResponseRanges(data []byte, keypaths, headers []string) ([]OffsetSpan, error) {
	resp, err := message.ParseResponse(data)
	if err != nil {
		return nil, err
	}
	return search.Canonicalize(search.RangesForKeypaths(resp, keypaths, headers)), nil
}

// LoadProfilesFromFile loads profiles from a YAML or JSONC file.
// Use this with WithProfiles to create an extractor with custom profiles.
func LoadProfilesFromFile(path string) ([]*Profile, error) {
	return profile.NewLoader().LoadProfileFile(path)
}

// LoadBuiltinProfiles returns the builtin profiles.
func LoadBuiltinProfiles() ([]*Profile, error) {
	return extract.BuiltinProfiles()
}
