package message

import (
	"fmt"

	"github.com/praetorian-inc/disclose/pkg/ast"
	"github.com/praetorian-inc/disclose/pkg/grammar"
	"github.com/praetorian-inc/disclose/pkg/grammar/request"
	"github.com/praetorian-inc/disclose/pkg/search"
	"github.com/praetorian-inc/disclose/pkg/types"
)

// Request is a parsed HTTP request.
type Request struct {
	fields

	// RequestLine spans the whole request line; Value is its text.
	RequestLine types.RangedHeader `json:"request_line"`
	Method      string             `json:"method"`
	Path        string             `json:"path"`
	// QueryParams maps parameter names to their `name=value` spans; Value is the raw value.
	QueryParams map[string]types.RangedHeader `json:"query_params,omitempty"`
}

// ParseRequest parses a sent transcript.
func ParseRequest(data []byte) (*Request, error) {
	if err := checkUTF8(data); err != nil {
		return nil, err
	}
	root, err := request.Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("parsing request: %w", err)
	}
	return RequestFromPair(root)
}

// RequestFromPair converts the root node of the request grammar.
func RequestFromPair(root *grammar.Pair[request.Rule]) (*Request, error) {
	req := &Request{}
	var sawLine bool

	for _, pair := range root.Inner() {
		if pair.Rule() == request.RequestLine {
			if err := req.setRequestLine(pair); err != nil {
				return nil, err
			}
			sawLine = true
			continue
		}
		if err := add(&req.fields, pair, request.Header, request.Body); err != nil {
			return nil, fmt.Errorf("building request: %w", err)
		}
	}

	if !sawLine {
		return nil, ErrMissingStartLine
	}
	return req, nil
}

func (r *Request) setRequestLine(pair *grammar.Pair[request.Rule]) error {
	r.RequestLine = types.RangedHeader{Range: pair.Span(), Value: pair.Text()}

	if method := pair.Find(request.Method); method != nil {
		r.Method = method.Text()
	}
	target := pair.Find(request.Target)
	if target == nil {
		return nil
	}
	if path := target.Find(request.Path); path != nil {
		r.Path = path.Text()
	}

	for _, param := range target.Inner() {
		if param.Rule() != request.QueryParam {
			continue
		}
		name, header, err := ast.ParseHeader(param)
		if err != nil {
			return fmt.Errorf("query parameter: %w", err)
		}
		if r.QueryParams == nil {
			r.QueryParams = make(map[string]types.RangedHeader)
		}
		r.QueryParams[name] = header
	}
	return nil
}

// AdditionalRanges always discloses the request line.
func (r *Request) AdditionalRanges() []types.OffsetSpan {
	return []types.OffsetSpan{r.RequestLine.Range}
}

// AdditionalMatches labels the request line.
func (r *Request) AdditionalMatches() []search.Match {
	return []search.Match{{Kind: types.KindRequestLine, Field: r.Method, Span: r.RequestLine.Range}}
}

// QueryMatches returns the `name=value` spans of the named query parameters, in the
// order given. Unknown names are skipped.
func (r *Request) QueryMatches(names []string) []search.Match {
	var matches []search.Match
	for _, name := range names {
		if p, ok := r.QueryParams[name]; ok {
			matches = append(matches, search.Match{Kind: types.KindQueryParam, Field: name, Span: p.Range})
		}
	}
	return matches
}
