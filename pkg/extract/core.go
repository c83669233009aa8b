// Package extract selects profiles for transcripts and builds their disclosure plans.
package extract

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/praetorian-inc/disclose/pkg/log"
	"github.com/praetorian-inc/disclose/pkg/plan"
	"github.com/praetorian-inc/disclose/pkg/prefilter"
	"github.com/praetorian-inc/disclose/pkg/profile"
	"github.com/praetorian-inc/disclose/pkg/store"
	"github.com/praetorian-inc/disclose/pkg/transcript"
	"github.com/praetorian-inc/disclose/pkg/types"
)

var (
	// cachedBuiltinProfiles holds builtin profiles loaded once per process
	cachedBuiltinProfiles []*types.Profile
	cachedProfilesErr     error
	cacheOnce             sync.Once
)

// loadBuiltinProfilesCached loads builtin profiles once and caches them
func loadBuiltinProfilesCached() ([]*types.Profile, error) {
	cacheOnce.Do(func() {
		cachedBuiltinProfiles, cachedProfilesErr = profile.NewLoader().LoadBuiltinProfiles()
	})
	return cachedBuiltinProfiles, cachedProfilesErr
}

// BuiltinProfiles returns the builtin profiles (cached).
func BuiltinProfiles() ([]*types.Profile, error) {
	return loadBuiltinProfilesCached()
}

// Config configures a Core.
type Config struct {
	// Profiles to extract with. Empty means the builtin profiles.
	Profiles []*types.Profile
	// Store receives transcripts and plans when set.
	Store  store.Store
	Logger logrus.FieldLogger
	Limits transcript.Limits
}

// Core builds plans for transcripts against a fixed set of profiles.
type Core struct {
	profiles  []*types.Profile
	prefilter *prefilter.Prefilter
	store     store.Store
	logger    logrus.FieldLogger
	limits    transcript.Limits
}

// NewCore creates a Core.
func NewCore(cfg Config) (*Core, error) {
	logger := log.OrDiscard(cfg.Logger)

	profiles := cfg.Profiles
	if len(profiles) == 0 {
		var err error
		profiles, err = loadBuiltinProfilesCached()
		if err != nil {
			return nil, fmt.Errorf("loading builtin profiles: %w", err)
		}
		logger.WithField("profiles", len(profiles)).Debug("loaded builtin profiles")
	}

	return &Core{
		profiles:  profiles,
		prefilter: prefilter.New(profiles),
		store:     cfg.Store,
		logger:    logger,
		limits:    cfg.Limits,
	}, nil
}

// Profiles returns the profiles the core extracts with.
func (c *Core) Profiles() []*types.Profile {
	return c.profiles
}

// Select returns the named profiles, or, with no names, the profiles whose received
// keys occur in t.
func (c *Core) Select(t *transcript.Transcript, profileIDs ...string) ([]*types.Profile, error) {
	if len(profileIDs) == 0 {
		return c.prefilter.Filter(t.Received), nil
	}

	selected := make([]*types.Profile, 0, len(profileIDs))
	for _, id := range profileIDs {
		p, ok := profile.Find(c.profiles, id)
		if !ok {
			return nil, fmt.Errorf("unknown profile %q", id)
		}
		selected = append(selected, p)
	}
	return selected, nil
}

// Extract builds one plan per selected profile. Plans are stored when the core has a store.
func (c *Core) Extract(ctx context.Context, t *transcript.Transcript, profileIDs ...string) (*Result, error) {
	profiles, err := c.Select(t, profileIDs...)
	if err != nil {
		return nil, err
	}

	if c.store != nil {
		if err := c.store.AddTranscript(t); err != nil {
			return nil, fmt.Errorf("storing transcript: %w", err)
		}
	}

	result := &Result{Source: t.Source, TranscriptID: t.ID, Plans: make([]*plan.Plan, 0, len(profiles))}
	for _, p := range profiles {
		pl, err := plan.Build(ctx, t, p, plan.Options{Logger: c.logger, Limits: c.limits})
		if err != nil {
			return nil, fmt.Errorf("profile %s: %w", p.ID, err)
		}
		if c.store != nil {
			if err := c.store.AddPlan(pl); err != nil {
				return nil, fmt.Errorf("storing plan: %w", err)
			}
		}
		result.Plans = append(result.Plans, pl)
	}

	c.logger.WithFields(logrus.Fields{
		"source": t.Source,
		"plans":  len(result.Plans),
	}).Debug("transcript extracted")
	return result, nil
}

// ExtractBatch extracts every transcript. A transcript that fails is reported in its
// result's Error and does not stop the batch.
func (c *Core) ExtractBatch(ctx context.Context, items []*transcript.Transcript, profileIDs ...string) (*BatchResult, error) {
	batch := &BatchResult{Results: make([]*Result, 0, len(items))}
	for _, t := range items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r, err := c.Extract(ctx, t, profileIDs...)
		if err != nil {
			r = &Result{Source: t.Source, TranscriptID: t.ID, Error: err.Error()}
		}
		batch.Results = append(batch.Results, r)
		batch.Total += len(r.Plans)
	}
	return batch, nil
}

// Close releases the store, if any.
func (c *Core) Close() error {
	if c.store != nil {
		return c.store.Close()
	}
	return nil
}
