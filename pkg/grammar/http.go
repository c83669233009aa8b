package grammar

import "strings"

// HeaderRules are the rule kinds a grammar assigns to header lines:
//
//	header = { header_name ~ ":" ~ OWS ~ header_value }
//
// The header span runs from the first byte of the name to the last non-space byte
// of the value; the line end is not part of it.
type HeaderRules[R Rule] struct {
	Header R
	Name   R
	Value  R
}

// ParseHeaderLine parses one header line, leaving the cursor before its line end.
func ParseHeaderLine[R Rule](c *Cursor, rules HeaderRules[R]) (*Pair[R], error) {
	input := c.Input()
	start := c.Pos()
	if c.TakeWhile(IsTokenChar) == 0 {
		return nil, c.Errorf("header name")
	}
	name := NewPair(rules.Name, input, start, c.Pos())

	if !c.Consume(":") {
		return nil, c.Errorf("':' after header name")
	}
	c.SkipSpaces()

	valueStart := c.Pos()
	c.TakeWhile(func(b byte) bool { return b != '\r' && b != '\n' })
	valueEnd := c.Pos()
	for valueEnd > valueStart && (input[valueEnd-1] == ' ' || input[valueEnd-1] == '\t') {
		valueEnd--
	}
	value := NewPair(rules.Value, input, valueStart, valueEnd)

	return NewPair(rules.Header, input, start, valueEnd, name, value), nil
}

// ParseHeaderBlock parses header lines up to and including the blank line that
// ends the message head.
func ParseHeaderBlock[R Rule](c *Cursor, rules HeaderRules[R]) ([]*Pair[R], error) {
	var headers []*Pair[R]
	for {
		if c.ConsumeLineEnd() {
			return headers, nil
		}
		if c.EOF() {
			return nil, c.Errorf("blank line after headers")
		}

		header, err := ParseHeaderLine(c, rules)
		if err != nil {
			return nil, err
		}
		headers = append(headers, header)

		if !c.ConsumeLineEnd() {
			return nil, c.Errorf("line end after header")
		}
	}
}

// HeaderValue returns the value of the first header named name (case-insensitive).
func HeaderValue[R Rule](headers []*Pair[R], name string) (string, bool) {
	for _, h := range headers {
		inner := h.Inner()
		if len(inner) == 2 && strings.EqualFold(inner[0].Text(), name) {
			return inner[1].Text(), true
		}
	}
	return "", false
}

// ParseJSONBody parses a body that is a JSON object or array surrounded by optional
// whitespace and ending at limit. It returns nil when the body is not JSON-like, in
// which case the cursor is unchanged.
func ParseJSONBody[R Rule](c *Cursor, rules ValueRules[R], limit int) (*Pair[R], error) {
	save := c.pos
	c.SkipWhitespace()
	if ch := c.Peek(); c.pos >= limit || (ch != '{' && ch != '[') {
		c.pos = save
		return nil, nil
	}

	value, err := ParseValue(c, rules)
	if err != nil {
		return nil, err
	}
	c.SkipWhitespace()
	if c.pos > limit {
		return nil, &SyntaxError{Grammar: c.grammar, Offset: limit, Expected: "end of body"}
	}
	if c.pos != limit {
		return nil, c.Errorf("end of body")
	}
	return value, nil
}
