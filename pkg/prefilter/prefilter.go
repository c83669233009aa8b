// Package prefilter selects profiles whose keys occur in a transcript and locates
// keys textually when the response grammar cannot parse it.
package prefilter

import (
	"github.com/cloudflare/ahocorasick"

	"github.com/praetorian-inc/disclose/pkg/search"
	"github.com/praetorian-inc/disclose/pkg/types"
)

// Prefilter uses Aho-Corasick for efficient keyword matching.
type Prefilter struct {
	matcher           *ahocorasick.Matcher
	keywords          []string                    // keyword at each index
	keywordProfiles   map[string][]*types.Profile // keyword -> profiles needing it
	noKeywordProfiles []*types.Profile            // profiles without received keypaths (always kept)
}

// New creates a prefilter from profiles. A profile's keywords are its received
// keypaths' last segments rendered as quoted JSON keys.
func New(profiles []*types.Profile) *Prefilter {
	pf := &Prefilter{
		keywordProfiles:   make(map[string][]*types.Profile),
		noKeywordProfiles: make([]*types.Profile, 0),
	}

	keywordSet := make(map[string]bool)
	for _, p := range profiles {
		keywords := Keywords(p.Received.Keypaths)
		if len(keywords) == 0 {
			pf.noKeywordProfiles = append(pf.noKeywordProfiles, p)
			continue
		}
		for _, keyword := range keywords {
			if !keywordSet[keyword] {
				keywordSet[keyword] = true
				pf.keywords = append(pf.keywords, keyword)
			}
			pf.keywordProfiles[keyword] = append(pf.keywordProfiles[keyword], p)
		}
	}

	if len(pf.keywords) > 0 {
		pf.matcher = ahocorasick.NewStringMatcher(pf.keywords)
	}

	return pf
}

// Filter returns profiles that might apply to content (a keyword found OR no keywords defined).
func (pf *Prefilter) Filter(content []byte) []*types.Profile {
	result := make([]*types.Profile, 0, len(pf.noKeywordProfiles))
	result = append(result, pf.noKeywordProfiles...)

	if pf.matcher == nil {
		return result
	}

	seen := make(map[*types.Profile]bool)
	for _, p := range pf.noKeywordProfiles {
		seen[p] = true
	}

	for _, hit := range pf.matcher.Match(content) {
		for _, p := range pf.keywordProfiles[pf.keywords[hit]] {
			if !seen[p] {
				seen[p] = true
				result = append(result, p)
			}
		}
	}

	return result
}

// Keywords returns the distinct quoted keys `"segment"` for keypaths.
func Keywords(keypaths []string) []string {
	seen := make(map[string]bool, len(keypaths))
	var out []string
	for _, kp := range keypaths {
		k := `"` + search.LastSegment(kp) + `"`
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	return out
}
