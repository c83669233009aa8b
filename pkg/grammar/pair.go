// Package grammar is the small parsing runtime shared by the request and response
// grammars. Grammars produce a tree of Pairs, each tagged with a grammar-specific
// rule kind and the byte span it matched in the input.
package grammar

import (
	"fmt"

	"github.com/praetorian-inc/disclose/pkg/types"
)

// Rule is a grammar's node kind.
type Rule interface {
	comparable
	fmt.Stringer
	types.CommonRule
}

// Pair is a matched rule together with its span and inner pairs.
type Pair[R Rule] struct {
	rule  R
	start int
	end   int
	input string
	inner []*Pair[R]
}

// NewPair creates a pair matching input[start:end].
func NewPair[R Rule](rule R, input string, start, end int, inner ...*Pair[R]) *Pair[R] {
	return &Pair[R]{
		rule:  rule,
		start: start,
		end:   end,
		input: input,
		inner: inner,
	}
}

// Rule returns the node kind.
func (p *Pair[R]) Rule() R {
	return p.rule
}

// Start returns the offset of the first matched byte.
func (p *Pair[R]) Start() int {
	return p.start
}

// End returns the offset one past the last matched byte.
func (p *Pair[R]) End() int {
	return p.end
}

// Span returns [Start, End).
func (p *Pair[R]) Span() types.OffsetSpan {
	return types.Span(p.start, p.end)
}

// Text returns the matched text.
func (p *Pair[R]) Text() string {
	return p.input[p.start:p.end]
}

// Inner returns the direct children in source order.
func (p *Pair[R]) Inner() []*Pair[R] {
	return p.inner
}

// Find returns the first direct child with the given rule, or nil.
func (p *Pair[R]) Find(rule R) *Pair[R] {
	for _, child := range p.inner {
		if child.rule == rule {
			return child
		}
	}
	return nil
}

func (p *Pair[R]) String() string {
	return fmt.Sprintf("%s(%d..%d)", p.rule, p.start, p.end)
}
