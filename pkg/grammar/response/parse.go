package response

import (
	"strconv"
	"strings"

	"github.com/praetorian-inc/disclose/pkg/grammar"
)

// GrammarName names the grammar in syntax errors.
const GrammarName = "response"

var valueRules = grammar.ValueRules[Rule]{
	Object:  Object,
	Entry:   Entry,
	Array:   Array,
	String:  String,
	Inner:   Inner,
	Number:  Number,
	Boolean: Boolean,
	Null:    Null,
}

var headerRules = grammar.HeaderRules[Rule]{
	Header: Header,
	Name:   HeaderName,
	Value:  HeaderValue,
}

// Parse parses a whole response. The returned pair has rule Response and spans the input.
func Parse(input string) (*grammar.Pair[Rule], error) {
	c := grammar.NewCursor(GrammarName, input)

	status, err := parseStatusLine(c)
	if err != nil {
		return nil, err
	}
	if !c.ConsumeLineEnd() {
		return nil, c.Errorf("line end after status line")
	}

	headers, err := grammar.ParseHeaderBlock(c, headerRules)
	if err != nil {
		return nil, err
	}
	children := append([]*grammar.Pair[Rule]{status}, headers...)

	var body []*grammar.Pair[Rule]
	if isChunked(headers) {
		body, err = parseChunked(c)
	} else {
		body, err = parseBody(c, len(input))
	}
	if err != nil {
		return nil, err
	}
	children = append(children, body...)

	return grammar.NewPair(Response, input, 0, len(input), children...), nil
}

func parseStatusLine(c *grammar.Cursor) (*grammar.Pair[Rule], error) {
	input := c.Input()
	start := c.Pos()

	if !c.Consume("HTTP/") {
		return nil, c.Errorf("'HTTP/'")
	}
	if c.TakeWhile(isDigit) == 0 {
		return nil, c.Errorf("major version")
	}
	if c.Consume(".") && c.TakeWhile(isDigit) == 0 {
		return nil, c.Errorf("minor version")
	}
	version := grammar.NewPair(Version, input, start, c.Pos())

	if !c.Consume(" ") {
		return nil, c.Errorf("' ' after version")
	}

	codeStart := c.Pos()
	if c.TakeWhile(isDigit) != 3 {
		return nil, c.Errorf("three digit status code")
	}
	children := []*grammar.Pair[Rule]{version, grammar.NewPair(StatusCode, input, codeStart, c.Pos())}

	if c.Consume(" ") {
		reasonStart := c.Pos()
		c.TakeWhile(func(b byte) bool { return b != '\r' && b != '\n' })
		children = append(children, grammar.NewPair(Reason, input, reasonStart, c.Pos()))
	}

	return grammar.NewPair(StatusLine, input, start, c.Pos(), children...), nil
}

func isChunked(headers []*grammar.Pair[Rule]) bool {
	te, ok := grammar.HeaderValue(headers, "Transfer-Encoding")
	return ok && strings.Contains(strings.ToLower(te), "chunked")
}

func parseChunked(c *grammar.Cursor) ([]*grammar.Pair[Rule], error) {
	input := c.Input()
	start := c.Pos()

	if c.TakeWhile(grammar.IsHexDigit) == 0 {
		return nil, c.Errorf("chunk size")
	}
	size, err := strconv.ParseInt(input[start:c.Pos()], 16, 64)
	if err != nil || size > int64(len(input)) {
		return nil, &grammar.SyntaxError{Grammar: GrammarName, Offset: start, Expected: "chunk size within input"}
	}
	if c.Consume(";") {
		c.TakeWhile(func(b byte) bool { return b != '\r' && b != '\n' })
	}
	chunk := grammar.NewPair(ChunkSize, input, start, c.Pos())
	if !c.ConsumeLineEnd() {
		return nil, c.Errorf("line end after chunk size")
	}

	pairs := []*grammar.Pair[Rule]{chunk}
	if size == 0 {
		if !c.ConsumeLineEnd() || !c.EOF() {
			return nil, c.Errorf("end of chunked body")
		}
		return pairs, nil
	}

	limit := c.Pos() + int(size)
	if limit > len(input) {
		return nil, &grammar.SyntaxError{Grammar: GrammarName, Offset: len(input), Expected: "chunk data"}
	}
	body, err := parseBody(c, limit)
	if err != nil {
		return nil, err
	}
	pairs = append(pairs, body...)

	if !c.ConsumeLineEnd() {
		return nil, c.Errorf("line end after chunk data")
	}
	if !c.Consume("0") || !c.ConsumeLineEnd() || !c.ConsumeLineEnd() || !c.EOF() {
		return nil, c.Errorf("last chunk")
	}
	return pairs, nil
}

// parseBody parses input[c.Pos():limit] as a JSON value or a raw body.
func parseBody(c *grammar.Cursor, limit int) ([]*grammar.Pair[Rule], error) {
	if c.Pos() >= limit {
		return nil, nil
	}
	input := c.Input()

	value, err := grammar.ParseJSONBody(c, valueRules, limit)
	if err != nil {
		return nil, err
	}
	if value != nil {
		return []*grammar.Pair[Rule]{value}, nil
	}

	start := c.Pos()
	c.Advance(limit - start)
	return []*grammar.Pair[Rule]{grammar.NewPair(Body, input, start, limit)}, nil
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
