package profile

import (
	"fmt"
	"strings"
	"time"

	"github.com/dlclark/regexp2"

	"github.com/praetorian-inc/disclose/pkg/types"
)

// PatternTimeout bounds a single extract pattern match.
const PatternTimeout = 5 * time.Second

// ValidateProfile checks profile consistency and required fields.
func ValidateProfile(p *types.Profile) error {
	if p == nil {
		return fmt.Errorf("profile is nil")
	}

	if p.ID == "" {
		return fmt.Errorf("profile ID is required")
	}
	if p.Name == "" {
		return fmt.Errorf("profile %s: name is required", p.ID)
	}
	if p.Sent.IsEmpty() && p.Received.IsEmpty() {
		return fmt.Errorf("profile %s selects nothing", p.ID)
	}

	for _, kp := range append(append([]string(nil), p.Sent.Keypaths...), p.Received.Keypaths...) {
		if err := ValidateKeypath(kp); err != nil {
			return fmt.Errorf("profile %s: %w", p.ID, err)
		}
	}
	if len(p.Received.Query) > 0 {
		return fmt.Errorf("profile %s: query parameters only exist in sent transcripts", p.ID)
	}

	for _, rule := range p.Extract {
		if rule.Field == "" {
			return fmt.Errorf("profile %s: extract rule without field", p.ID)
		}
		if rule.Direction != types.DirectionSent && rule.Direction != types.DirectionReceived {
			return fmt.Errorf("profile %s: extract %s: direction must be sent or received, got %q", p.ID, rule.Field, rule.Direction)
		}
		re, err := CompilePattern(rule.Pattern)
		if err != nil {
			return fmt.Errorf("profile %s: extract %s: %w", p.ID, rule.Field, err)
		}
		if len(re.GetGroupNumbers()) < 2 {
			return fmt.Errorf("profile %s: extract %s: pattern needs a capture group", p.ID, rule.Field)
		}
	}

	expectedID := p.ComputeStructuralID()
	if p.StructuralID != "" && p.StructuralID != expectedID {
		return fmt.Errorf("profile %s has inconsistent StructuralID: got %s, expected %s",
			p.ID, p.StructuralID, expectedID)
	}

	return nil
}

// ValidateKeypath rejects empty keypaths and empty segments.
func ValidateKeypath(kp string) error {
	if kp == "" {
		return fmt.Errorf("empty keypath")
	}
	for _, seg := range strings.Split(kp, ".") {
		if seg == "" {
			return fmt.Errorf("keypath %q has an empty segment", kp)
		}
	}
	return nil
}

// CompilePattern compiles an extract pattern, trying RE2 syntax first and falling
// back to the full regexp2 dialect.
func CompilePattern(pattern string) (*regexp2.Regexp, error) {
	re, err := regexp2.Compile(pattern, regexp2.RE2)
	if err != nil {
		re, err = regexp2.Compile(pattern, regexp2.None)
		if err != nil {
			return nil, fmt.Errorf("failed to compile pattern %q: %w", pattern, err)
		}
	}
	re.MatchTimeout = PatternTimeout
	return re, nil
}
