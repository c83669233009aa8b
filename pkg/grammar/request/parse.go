package request

import (
	"github.com/praetorian-inc/disclose/pkg/grammar"
)

// GrammarName names the grammar in syntax errors.
const GrammarName = "request"

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

// Parse parses a whole request. The returned pair has rule Request and spans the input.
func Parse(input string) (*grammar.Pair[Rule], error) {
	c := grammar.NewCursor(GrammarName, input)

	line, err := parseRequestLine(c)
	if err != nil {
		return nil, err
	}
	if !c.ConsumeLineEnd() {
		return nil, c.Errorf("line end after request line")
	}

	headers, err := grammar.ParseHeaderBlock(c, headerRules)
	if err != nil {
		return nil, err
	}

	children := append([]*grammar.Pair[Rule]{line}, headers...)

	body, err := parseBody(c)
	if err != nil {
		return nil, err
	}
	if body != nil {
		children = append(children, body)
	}

	return grammar.NewPair(Request, input, 0, len(input), children...), nil
}

func parseRequestLine(c *grammar.Cursor) (*grammar.Pair[Rule], error) {
	input := c.Input()
	start := c.Pos()

	if c.TakeWhile(grammar.IsTokenChar) == 0 {
		return nil, c.Errorf("method")
	}
	method := grammar.NewPair(Method, input, start, c.Pos())

	if !c.Consume(" ") {
		return nil, c.Errorf("' ' after method")
	}

	target, err := parseTarget(c)
	if err != nil {
		return nil, err
	}

	if !c.Consume(" ") {
		return nil, c.Errorf("' ' after target")
	}

	version, err := parseVersion(c)
	if err != nil {
		return nil, err
	}

	return grammar.NewPair(RequestLine, input, start, c.Pos(), method, target, version), nil
}

func parseTarget(c *grammar.Cursor) (*grammar.Pair[Rule], error) {
	input := c.Input()
	start := c.Pos()

	if c.TakeWhile(func(b byte) bool { return isTargetChar(b) && b != '?' }) == 0 {
		return nil, c.Errorf("request target")
	}
	children := []*grammar.Pair[Rule]{grammar.NewPair(Path, input, start, c.Pos())}

	if c.Consume("?") {
		for {
			children = append(children, parseQueryParam(c))
			if !c.Consume("&") {
				break
			}
		}
	}
	return grammar.NewPair(Target, input, start, c.Pos(), children...), nil
}

func parseQueryParam(c *grammar.Cursor) *grammar.Pair[Rule] {
	input := c.Input()
	start := c.Pos()

	c.TakeWhile(func(b byte) bool { return isTargetChar(b) && b != '&' && b != '=' })
	name := grammar.NewPair(ParamName, input, start, c.Pos())

	valueStart := c.Pos()
	if c.Consume("=") {
		valueStart = c.Pos()
		c.TakeWhile(func(b byte) bool { return isTargetChar(b) && b != '&' })
	}
	value := grammar.NewPair(ParamValue, input, valueStart, c.Pos())

	return grammar.NewPair(QueryParam, input, start, c.Pos(), name, value)
}

func parseVersion(c *grammar.Cursor) (*grammar.Pair[Rule], error) {
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
	return grammar.NewPair(Version, c.Input(), start, c.Pos()), nil
}

func parseBody(c *grammar.Cursor) (*grammar.Pair[Rule], error) {
	if c.EOF() {
		return nil, nil
	}
	input := c.Input()

	value, err := grammar.ParseJSONBody(c, valueRules, len(input))
	if err != nil || value != nil {
		return value, err
	}

	start := c.Pos()
	c.Advance(len(input) - start)
	return grammar.NewPair(Body, input, start, len(input)), nil
}

func isTargetChar(b byte) bool {
	return b > ' ' && b < 0x7f
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
