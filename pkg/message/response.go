package message

import (
	"fmt"
	"strconv"

	"github.com/praetorian-inc/disclose/pkg/grammar"
	"github.com/praetorian-inc/disclose/pkg/grammar/response"
	"github.com/praetorian-inc/disclose/pkg/types"
)

// Response is a parsed HTTP response.
type Response struct {
	fields

	StatusLine types.RangedHeader `json:"status_line"`
	StatusCode int                `json:"status_code"`
	Chunked    bool               `json:"chunked,omitempty"`
}

// ParseResponse parses a received transcript.
func ParseResponse(data []byte) (*Response, error) {
	if err := checkUTF8(data); err != nil {
		return nil, err
	}
	root, err := response.Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}
	return ResponseFromPair(root)
}

// ResponseFromPair converts the root node of the response grammar.
func ResponseFromPair(root *grammar.Pair[response.Rule]) (*Response, error) {
	resp := &Response{}
	var sawLine bool

	for _, pair := range root.Inner() {
		switch pair.Rule() {
		case response.StatusLine:
			resp.StatusLine = types.RangedHeader{Range: pair.Span(), Value: pair.Text()}
			if code := pair.Find(response.StatusCode); code != nil {
				resp.StatusCode, _ = strconv.Atoi(code.Text())
			}
			sawLine = true
			continue
		case response.ChunkSize:
			resp.Chunked = true
			continue
		}
		if err := add(&resp.fields, pair, response.Header, response.Body); err != nil {
			return nil, fmt.Errorf("building response: %w", err)
		}
	}

	if !sawLine {
		return nil, ErrMissingStartLine
	}
	return resp, nil
}

// AdditionalRanges is empty for responses.
func (r *Response) AdditionalRanges() []types.OffsetSpan {
	return nil
}
