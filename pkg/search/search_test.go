package search

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praetorian-inc/disclose/pkg/ast"
	"github.com/praetorian-inc/disclose/pkg/grammar/response"
	"github.com/praetorian-inc/disclose/pkg/types"
)

type fakeMessage struct {
	headers    map[string]types.RangedHeader
	content    types.RangedValue
	additional []types.OffsetSpan
}

func (m *fakeMessage) Headers() map[string]types.RangedHeader { return m.headers }
func (m *fakeMessage) Content() types.RangedValue { return m.content }
func (m *fakeMessage) AdditionalRanges() []types.OffsetSpan { return m.additional }

// parsed returns a message whose body is parsed from src by the response grammar.
// Offsets are relative to the returned source.
func parsed(t *testing.T, body string) (*fakeMessage, string) {
	t.Helper()
	src := "HTTP/1.1 200 OK\r\n\r\n" + body
	root, err := response.Parse(src)
	require.NoError(t, err)

	inner := root.Inner()
	v, err := ast.ParseValue(inner[len(inner)-1])
	require.NoError(t, err)
	return &fakeMessage{content: v}, src
}

func slices(src string, spans []types.OffsetSpan) []string {
	out := make([]string, len(spans))
	for i, s := range spans {
		out[i] = string(s.Slice([]byte(src)))
	}
	return out
}

func TestRangesForKeypaths_NestedObject(t *testing.T) {
	msg, src := parsed(t, `{"a":{"b":1,"c":2}}`)

	tests := []struct {
		keypaths []string
		want     []string
	}{
		{[]string{"a.b"}, []string{`"b":1`}},
		{[]string{"a.c"}, []string{`"c":2`}},
		{[]string{"a"}, []string{`"a":{"b":1,"c":2}`}},
		{[]string{"a", "a.c"}, []string{`"a":{"b":1,"c":2}`, `"c":2`}},
	}

	for _, tt := range tests {
		got := RangesForKeypaths(msg, tt.keypaths, nil)
		assert.Equal(t, tt.want, slices(src, got), "keypaths %v", tt.keypaths)
	}
}

func TestRangesForKeypaths_ArrayFanOut(t *testing.T) {
	msg, src := parsed(t, `{"items":[{"x":1},{"x":2}]}`)

	got := RangesForKeypaths(msg, []string{"items.x"}, nil)
	assert.Equal(t, []string{`"x":1`, `"x":2`}, slices(src, got))
}

func TestRangesForKeypaths_Whitespace(t *testing.T) {
	msg, src := parsed(t, `{ "a" : { "b" :  true } }`)

	got := RangesForKeypaths(msg, []string{"a.b"}, nil)
	assert.Equal(t, []string{`"b" :  true`}, slices(src, got))
}

func TestRangesForKeypaths_NullEntry(t *testing.T) {
	msg, src := parsed(t, `{"n":null}`)

	got := RangesForKeypaths(msg, []string{"n"}, nil)
	assert.Equal(t, []string{`"n":null`}, slices(src, got))
}

func TestRangesForKeypaths_Missing(t *testing.T) {
	msg, _ := parsed(t, `{"a":{"b":1}}`)

	assert.Empty(t, RangesForKeypaths(msg, []string{"b", "a.z", "a.b.c"}, nil))
	assert.Empty(t, RangesForKeypaths(msg, nil, nil))
}

func TestRangesForKeypaths_Idempotent(t *testing.T) {
	msg, _ := parsed(t, `{"z":1,"y":{"x":[{"w":1},{"w":2}]},"a":"b"}`)
	keypaths := []string{"z", "y.x.w", "a"}

	first := RangesForKeypaths(msg, keypaths, nil)
	second := RangesForKeypaths(msg, keypaths, nil)
	assert.Equal(t, first, second)
	assert.Len(t, first, 4)
}

func TestRangesForKeypaths_Headers(t *testing.T) {
	msg := &fakeMessage{
		headers: map[string]types.RangedHeader{
			"host":   {Range: types.Span(10, 27), Value: "example.com"},
			"accept": {Range: types.Span(29, 40), Value: "*/*"},
		},
	}

	got := RangesForKeypaths(msg, nil, []string{"host"})
	assert.Equal(t, []types.OffsetSpan{types.Span(10, 27)}, got)

	assert.Empty(t, RangesForKeypaths(msg, nil, []string{"Host"}))
}

func TestMatchesForKeypaths_AdditionalFirst(t *testing.T) {
	msg := &fakeMessage{
		headers:    map[string]types.RangedHeader{"h": {Range: types.Span(5, 8)}},
		additional: []types.OffsetSpan{types.Span(0, 4)},
	}

	got := MatchesForKeypaths(msg, nil, []string{"h"})
	require.Len(t, got, 2)
	assert.Equal(t, Match{Kind: types.KindAdditional, Span: types.Span(0, 4)}, got[0])
	assert.Equal(t, Match{Kind: types.KindHeader, Field: "h", Span: types.Span(5, 8)}, got[1])
}

type labelledMessage struct{ fakeMessage }

func (m *labelledMessage) AdditionalMatches() []Match {
	return []Match{{Kind: types.KindRequestLine, Field: "GET", Span: types.Span(0, 3)}}
}

func TestMatchesForKeypaths_AdditionalMatcher(t *testing.T) {
	msg := &labelledMessage{}
	got := MatchesForKeypaths(msg, nil, nil)
	require.Len(t, got, 1)
	assert.Equal(t, types.KindRequestLine, got[0].Kind)
}

func TestMatchesForKeypaths_LabelsKeypaths(t *testing.T) {
	msg, _ := parsed(t, `{"a":{"b":1}}`)

	got := MatchesForKeypaths(msg, []string{"a.b"}, nil)
	require.Len(t, got, 1)
	assert.Equal(t, types.KindKeypath, got[0].Kind)
	assert.Equal(t, "a.b", got[0].Field)
}

func TestRangesForKeypaths_ArithmeticFallback(t *testing.T) {
	src := `{"a":{"b":1,"c":2}}`
	inner := &types.Object{Span: types.Span(5, 18), Fields: map[string]types.RangedValue{
		"b": &types.Number{Span: types.Span(10, 11), Value: 1},
		"c": &types.Number{Span: types.Span(16, 17), Value: 2},
	}}
	root := &types.Object{Span: types.Span(0, 19), Fields: map[string]types.RangedValue{
		"a": inner,
		"n": types.Null{},
	}}
	msg := &fakeMessage{content: root}

	assert.Equal(t, []string{`"b":1`}, slices(src, RangesForKeypaths(msg, []string{"a.b"}, nil)))
	assert.Equal(t, []string{`"a":{"b":1,"c":2}`}, slices(src, RangesForKeypaths(msg, []string{"a"}, nil)))
	assert.Empty(t, RangesForKeypaths(msg, []string{"n"}, nil))
}

func TestRangesForKeypaths_ArithmeticClamp(t *testing.T) {
	root := &types.Object{Fields: map[string]types.RangedValue{
		"long": &types.Number{Span: types.Span(2, 3)},
	}}
	got := RangesForKeypaths(&fakeMessage{content: root}, []string{"long"}, nil)
	assert.Equal(t, []types.OffsetSpan{types.Span(0, 3)}, got)
}

func TestRangesForKeypaths_RoundTrip(t *testing.T) {
	msg, src := parsed(t, `{"a":{"b":[1,2],"c":"x","d":{"e":false}},"n":2.5}`)

	for _, kp := range []string{"a", "a.b", "a.c", "a.d", "a.d.e", "n"} {
		spans := RangesForKeypaths(msg, []string{kp}, nil)
		require.Len(t, spans, 1)

		fragment := "{" + string(spans[0].Slice([]byte(src))) + "}"
		root, err := response.Parse("HTTP/1.1 200 OK\r\n\r\n" + fragment)
		require.NoError(t, err, kp)
		inner := root.Inner()
		v, err := ast.ParseValue(inner[len(inner)-1])
		require.NoError(t, err)

		got, ok := v.(*types.Object).Get(LastSegment(kp))
		require.True(t, ok, kp)
		assertSameShape(t, lookup(t, msg.content, kp), got, kp)
	}
}

// lookup follows keypath through nested objects.
func lookup(t *testing.T, v types.RangedValue, keypath string) types.RangedValue {
	t.Helper()
	for _, seg := range strings.Split(keypath, ".") {
		obj, ok := v.(*types.Object)
		require.True(t, ok, keypath)
		v, ok = obj.Get(seg)
		require.True(t, ok, keypath)
	}
	return v
}

// assertSameShape compares two values ignoring spans.
func assertSameShape(t *testing.T, want, got types.RangedValue, msg string) {
	t.Helper()
	require.Equal(t, want.Kind(), got.Kind(), msg)

	switch w := want.(type) {
	case *types.Bool:
		assert.Equal(t, w.Value, got.(*types.Bool).Value, msg)
	case *types.Number:
		assert.Equal(t, w.Value, got.(*types.Number).Value, msg)
	case *types.String:
		assert.Equal(t, w.Value, got.(*types.String).Value, msg)
	case *types.Array:
		g := got.(*types.Array)
		require.Len(t, g.Items, len(w.Items), msg)
		for i := range w.Items {
			assertSameShape(t, w.Items[i], g.Items[i], msg)
		}
	case *types.Object:
		g := got.(*types.Object)
		require.Len(t, g.Fields, len(w.Fields), msg)
		for k, wv := range w.Fields {
			gv, ok := g.Get(k)
			require.True(t, ok, "%s: missing %s", msg, k)
			assertSameShape(t, wv, gv, msg)
		}
	}
}

func TestCanonicalize(t *testing.T) {
	in := []types.OffsetSpan{
		types.Span(10, 12),
		types.Span(0, 4),
		types.Span(3, 6),
		types.Span(6, 8),
		types.Span(20, 20),
		types.Span(11, 12),
	}
	want := []types.OffsetSpan{types.Span(0, 8), types.Span(10, 12)}
	assert.Equal(t, want, Canonicalize(in))
	assert.Empty(t, Canonicalize(nil))
}

func TestLastSegment(t *testing.T) {
	assert.Equal(t, "c", LastSegment("a.b.c"))
	assert.Equal(t, "a", LastSegment("a"))
}
