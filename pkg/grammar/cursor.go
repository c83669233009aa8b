package grammar

import (
	"fmt"
	"strings"
)

// SyntaxError reports input rejected by a grammar.
type SyntaxError struct {
	Grammar  string
	Offset   int
	Expected string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s: syntax error at offset %d: expected %s", e.Grammar, e.Offset, e.Expected)
}

// Cursor walks an input string.
type Cursor struct {
	input   string
	pos     int
	grammar string
}

// NewCursor starts at offset 0. grammar names the grammar in syntax errors.
func NewCursor(grammar, input string) *Cursor {
	return &Cursor{input: input, grammar: grammar}
}

// Input returns the whole input.
func (c *Cursor) Input() string {
	return c.input
}

// Pos returns the current offset.
func (c *Cursor) Pos() int {
	return c.pos
}

// EOF reports whether the whole input was consumed.
func (c *Cursor) EOF() bool {
	return c.pos >= len(c.input)
}

// Peek returns the current byte, or 0 at EOF.
func (c *Cursor) Peek() byte {
	if c.EOF() {
		return 0
	}
	return c.input[c.pos]
}

// Advance moves forward n bytes, stopping at EOF.
func (c *Cursor) Advance(n int) {
	c.pos += n
	if c.pos > len(c.input) {
		c.pos = len(c.input)
	}
}

// Consume advances past lit if the input continues with it.
func (c *Cursor) Consume(lit string) bool {
	if strings.HasPrefix(c.input[c.pos:], lit) {
		c.pos += len(lit)
		return true
	}
	return false
}

// ConsumeLineEnd advances past "\r\n" or a bare "\n".
func (c *Cursor) ConsumeLineEnd() bool {
	return c.Consume("\r\n") || c.Consume("\n")
}

// TakeWhile advances while pred holds and returns the number of bytes taken.
func (c *Cursor) TakeWhile(pred func(byte) bool) int {
	start := c.pos
	for c.pos < len(c.input) && pred(c.input[c.pos]) {
		c.pos++
	}
	return c.pos - start
}

// SkipSpaces skips spaces and tabs.
func (c *Cursor) SkipSpaces() {
	c.TakeWhile(func(b byte) bool { return b == ' ' || b == '\t' })
}

// SkipWhitespace skips JSON whitespace.
func (c *Cursor) SkipWhitespace() {
	c.TakeWhile(isWhitespace)
}

// Errorf builds a SyntaxError at the current offset.
func (c *Cursor) Errorf(format string, args ...interface{}) *SyntaxError {
	return &SyntaxError{
		Grammar:  c.grammar,
		Offset:   c.pos,
		Expected: fmt.Sprintf(format, args...),
	}
}

func isWhitespace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\r' || b == '\n'
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

// IsHexDigit reports whether b is [0-9a-fA-F].
func IsHexDigit(b byte) bool {
	return isDigit(b) || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}

// IsTokenChar reports whether b may appear in an HTTP token (RFC 9110 tchar).
func IsTokenChar(b byte) bool {
	if b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || isDigit(b) {
		return true
	}
	return strings.IndexByte("!#$%&'*+-.^_`|~", b) >= 0
}
