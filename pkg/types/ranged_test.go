package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNull_DegenerateRange(t *testing.T) {
	var v RangedValue = Null{}
	assert.Equal(t, OffsetSpan{}, v.Range())
	assert.Equal(t, KindNull, v.Kind())
}

func TestObject_SetLastWriteWins(t *testing.T) {
	obj := NewObject(Span(0, 20))
	obj.Set("a", &Number{Span: Span(5, 6), Value: 1}, Span(1, 6))
	obj.Set("a", &Number{Span: Span(12, 13), Value: 2}, Span(8, 13))

	v, ok := obj.Get("a")
	require.True(t, ok)
	assert.Equal(t, 2.0, v.(*Number).Value)

	entry, ok := obj.EntrySpan("a")
	require.True(t, ok)
	assert.Equal(t, Span(8, 13), entry)
}

func TestObject_SetWithoutEntryForgetsStaleSpan(t *testing.T) {
	obj := NewObject(Span(0, 20))
	obj.Set("a", &Bool{Span: Span(5, 9), Value: true}, Span(1, 9))
	obj.Set("a", &Bool{Span: Span(5, 10), Value: false}, OffsetSpan{})

	_, ok := obj.EntrySpan("a")
	assert.False(t, ok)
}

func TestObject_ZeroValueSet(t *testing.T) {
	var obj Object
	obj.Set("k", &String{Span: Span(6, 9), Value: "v"}, Span(1, 9))
	assert.Len(t, obj.Fields, 1)
	assert.Len(t, obj.Entries, 1)
}

func TestValueKind_String(t *testing.T) {
	assert.Equal(t, "object", (&Object{}).Kind().String())
	assert.Equal(t, "array", (&Array{}).Kind().String())
	assert.Equal(t, "string", (&String{}).Kind().String())
	assert.Equal(t, "number", (&Number{}).Kind().String())
	assert.Equal(t, "bool", (&Bool{}).Kind().String())
	assert.Equal(t, "unknown", ValueKind(42).String())
}

func TestComputeTranscriptID_Deterministic(t *testing.T) {
	a := ComputeTranscriptID([]byte("GET / HTTP/1.1\r\n\r\n"), []byte("HTTP/1.1 200 OK\r\n\r\n"))
	b := ComputeTranscriptID([]byte("GET / HTTP/1.1\r\n\r\n"), []byte("HTTP/1.1 200 OK\r\n\r\n"))
	c := ComputeTranscriptID([]byte("GET / HTTP/1.1\r\n\r\nH"), []byte("TTP/1.1 200 OK\r\n\r\n"))

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c, "moving bytes across directions must change the ID")

	parsed, err := ParseTranscriptID(a.Hex())
	require.NoError(t, err)
	assert.Equal(t, a, parsed)

	_, err = ParseTranscriptID("abc")
	assert.Error(t, err)
}

func TestProfile_StructuralIDIgnoresOrder(t *testing.T) {
	p1 := &Profile{Received: Selection{Keypaths: []string{"price", "mins"}}}
	p2 := &Profile{Received: Selection{Keypaths: []string{"mins", "price"}}}
	p3 := &Profile{Sent: Selection{Keypaths: []string{"mins", "price"}}}

	assert.Equal(t, p1.ComputeStructuralID(), p2.ComputeStructuralID())
	assert.NotEqual(t, p1.ComputeStructuralID(), p3.ComputeStructuralID())
}

func TestDisclosure_ComputeID(t *testing.T) {
	d := &Disclosure{
		Direction: DirectionReceived,
		Kind:      KindKeypath,
		Field:     "a.b",
		Location:  Location{Offset: Span(3, 8)},
	}
	id := d.ComputeID()
	assert.Len(t, id, 40)

	d.Location.Offset.End = 9
	assert.NotEqual(t, id, d.ComputeID())
}
