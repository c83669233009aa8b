// Package message holds parsed HTTP requests and responses and converts grammar
// output into them.
package message

import (
	"errors"
	"fmt"
	"sort"
	"unicode/utf8"

	"github.com/praetorian-inc/disclose/pkg/ast"
	"github.com/praetorian-inc/disclose/pkg/grammar"
	"github.com/praetorian-inc/disclose/pkg/search"
	"github.com/praetorian-inc/disclose/pkg/types"
)

// ErrInvalidUTF8 is returned for transcripts that are not valid UTF-8.
var ErrInvalidUTF8 = errors.New("transcript is not valid UTF-8")

// ErrMissingStartLine is returned when the grammar output has no request or status line.
var ErrMissingStartLine = fmt.Errorf("%w: missing start line", ast.ErrContractViolation)

var (
	_ search.Searchable        = (*Request)(nil)
	_ search.AdditionalMatcher = (*Request)(nil)
	_ search.Searchable        = (*Response)(nil)
)

// fields collects the headers and body shared by requests and responses.
type fields struct {
	HeaderFields map[string]types.RangedHeader `json:"headers"`
	Body         types.RangedValue             `json:"-"`
	// RawBody is the span of a body the grammar did not parse as a value.
	RawBody types.OffsetSpan `json:"raw_body,omitempty"`
}

// Headers returns the header lines keyed by name as it appeared.
func (f *fields) Headers() map[string]types.RangedHeader {
	return f.HeaderFields
}

// Content returns the parsed body, or nil.
func (f *fields) Content() types.RangedValue {
	return f.Body
}

// HeaderNames returns the header names in sorted order.
func (f *fields) HeaderNames() []string {
	names := make([]string, 0, len(f.HeaderFields))
	for name := range f.HeaderFields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// add folds one child of the grammar's root node into f. Children that are neither
// headers nor bodies are ignored.
func add[R grammar.Rule](f *fields, pair *grammar.Pair[R], headerRule, rawBodyRule R) error {
	switch {
	case pair.Rule() == headerRule:
		name, header, err := ast.ParseHeader(pair)
		if err != nil {
			return err
		}
		if f.HeaderFields == nil {
			f.HeaderFields = make(map[string]types.RangedHeader)
		}
		f.HeaderFields[name] = header
		return nil

	case pair.Rule() == rawBodyRule:
		f.RawBody = pair.Span()
		return nil

	case isBody(pair.Rule().Classify()):
		v, err := ast.ParseValue(pair)
		if err != nil {
			return err
		}
		f.Body = v
		return nil
	}
	return nil
}

func isBody(t types.CommonRuleType) bool {
	return t == types.RuleObject || t == types.RuleArray
}

func checkUTF8(data []byte) error {
	if !utf8.Valid(data) {
		return ErrInvalidUTF8
	}
	return nil
}
