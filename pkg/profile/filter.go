package profile

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/praetorian-inc/disclose/pkg/types"
)

// StructuralPrefix marks a pattern that selects profiles by structural ID prefix
// instead of by ID regex, e.g. "sid:3f2a".
const StructuralPrefix = "sid:"

// FilterConfig specifies include and exclude patterns for profile filtering.
type FilterConfig struct {
	Include []string // ID regexes or sid: prefixes - only matching profiles included
	Exclude []string // ID regexes or sid: prefixes - matching profiles excluded
}

// ParsePatterns splits a comma-separated string into individual patterns.
// Patterns are trimmed of whitespace.
func ParsePatterns(patterns string) []string {
	if patterns == "" {
		return []string{}
	}

	parts := strings.Split(patterns, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// Filter applies include and exclude patterns to profiles. A pattern starting with
// StructuralPrefix matches profiles whose structural ID starts with the rest of the
// pattern, so every profile disclosing the same fields is selected at once. Other
// patterns are regexes over the profile ID.
// Include is applied first, then exclude. Empty include means "include all".
func Filter(profiles []*types.Profile, config FilterConfig) ([]*types.Profile, error) {
	if len(profiles) == 0 {
		return profiles, nil
	}

	include, err := compileAll(config.Include)
	if err != nil {
		return nil, err
	}
	exclude, err := compileAll(config.Exclude)
	if err != nil {
		return nil, err
	}

	filtered := profiles
	if len(include) > 0 {
		filtered = keep(filtered, include, true)
	}
	if len(exclude) > 0 {
		filtered = keep(filtered, exclude, false)
	}
	return filtered, nil
}

// =============================================================================
// HELPERS
// =============================================================================

// selector matches one profile either by ID regex or by structural ID prefix.
type selector struct {
	re  *regexp.Regexp
	sid string
}

func (s selector) match(p *types.Profile) bool {
	if s.re != nil {
		return s.re.MatchString(p.ID)
	}
	sid := p.StructuralID
	if sid == "" {
		sid = p.ComputeStructuralID()
	}
	return strings.HasPrefix(sid, s.sid)
}

func compileAll(patterns []string) ([]selector, error) {
	var out []selector
	for _, pattern := range patterns {
		if prefix, ok := strings.CutPrefix(pattern, StructuralPrefix); ok {
			if prefix == "" {
				return nil, fmt.Errorf("empty structural ID in pattern %q", pattern)
			}
			out = append(out, selector{sid: strings.ToLower(prefix)})
			continue
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid regex pattern %q: %w", pattern, err)
		}
		out = append(out, selector{re: re})
	}
	return out, nil
}

func keep(profiles []*types.Profile, selectors []selector, matching bool) []*types.Profile {
	result := make([]*types.Profile, 0)
	for _, p := range profiles {
		if matchesAny(p, selectors) == matching {
			result = append(result, p)
		}
	}
	return result
}

func matchesAny(p *types.Profile, selectors []selector) bool {
	for _, s := range selectors {
		if s.match(p) {
			return true
		}
	}
	return false
}
