package verify

import (
	"errors"
	"fmt"
	"strings"

	"github.com/praetorian-inc/disclose/pkg/profile"
	"github.com/praetorian-inc/disclose/pkg/types"
)

// Hidden is the byte that stands for undisclosed data in a redacted transcript.
const Hidden = 0

var (
	// ErrMissingField is returned when a required extract rule does not match.
	ErrMissingField = errors.New("required field not found")
	// ErrFieldHidden is returned when a captured value includes undisclosed bytes.
	ErrFieldHidden = errors.New("field value is not fully disclosed")
)

// Field is a value extracted from a redacted transcript.
type Field struct {
	Name      string           `json:"name"`
	Direction types.Direction  `json:"direction"`
	Value     string           `json:"value"`
	Span      types.OffsetSpan `json:"span"`
}

// Extract applies rules to the redacted sent and received transcripts and returns the
// fields that matched, in rule order. The first capture group of each pattern is the
// value. Every failing required rule is reported in the returned error.
func Extract(sent, received []byte, rules []types.ExtractRule) ([]Field, error) {
	var fields []Field
	var errs []error

	for _, rule := range rules {
		data := received
		if rule.Direction == types.DirectionSent {
			data = sent
		}

		field, err := extractOne(data, rule)
		switch {
		case err != nil && (rule.Required || !errors.Is(err, ErrMissingField)):
			errs = append(errs, fmt.Errorf("%s: %w", rule.Field, err))
		case err == nil:
			fields = append(fields, field)
		}
	}
	return fields, errors.Join(errs...)
}

func extractOne(data []byte, rule types.ExtractRule) (Field, error) {
	re, err := profile.CompilePattern(rule.Pattern)
	if err != nil {
		return Field{}, err
	}

	text := string(data)
	m, err := re.FindStringMatch(text)
	if err != nil {
		return Field{}, fmt.Errorf("matching pattern: %w", err)
	}
	if m == nil {
		return Field{}, ErrMissingField
	}
	group := m.GroupByNumber(1)
	if group == nil || len(group.Captures) == 0 {
		return Field{}, ErrMissingField
	}

	value := group.String()
	if strings.IndexByte(value, Hidden) >= 0 {
		return Field{}, ErrFieldHidden
	}

	return Field{
		Name:      rule.Field,
		Direction: rule.Direction,
		Value:     value,
		Span:      types.Span(byteOffset(text, group.Index), byteOffset(text, group.Index+group.Length)),
	}, nil
}

// byteOffset converts a rune index, as reported by regexp2, to a byte offset in s.
func byteOffset(s string, runeIndex int) int {
	n := 0
	for i := range s {
		if n == runeIndex {
			return i
		}
		n++
	}
	return len(s)
}
