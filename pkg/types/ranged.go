package types

// RangedHeader is one parsed header line (or request line) with its span in the source.
type RangedHeader struct {
	Range OffsetSpan `json:"range"`
	Value string     `json:"value"`
}

// ValueKind names the variant of a RangedValue.
type ValueKind int

const (
	KindNull ValueKind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

// String returns the lowercase variant name.
func (k ValueKind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// RangedValue is a parsed JSON-like value annotated with the byte span it occupies
// in the source. The set of implementations is closed: Null, Bool, Number, String,
// Array and Object.
type RangedValue interface {
	// Range returns the lexical span of the value. Null returns the zero span.
	Range() OffsetSpan
	// Kind returns the variant.
	Kind() ValueKind

	rangedValue()
}

// Null is the null literal. Its position is not tracked.
type Null struct{}

// Bool is a boolean literal.
type Bool struct {
	Span  OffsetSpan
	Value bool
}

// Number is a numeric literal.
type Number struct {
	Span  OffsetSpan
	Value float64
}

// String is a string literal. Span covers the quotes; Value is the raw text between them.
type String struct {
	Span  OffsetSpan
	Value string
}

// Array is an ordered sequence of values. Span covers the brackets.
type Array struct {
	Span  OffsetSpan
	Items []RangedValue
}

// Object maps keys to values. Span covers the braces.
//
// Entries holds, per key, the span of the whole `"key":value` entry when the grammar
// supplied it. Hand-built objects may leave it nil.
type Object struct {
	Span    OffsetSpan
	Fields  map[string]RangedValue
	Entries map[string]OffsetSpan
}

func (Null) Range() OffsetSpan { return OffsetSpan{} }
func (v *Bool) Range() OffsetSpan { return v.Span }
func (v *Number) Range() OffsetSpan { return v.Span }
func (v *String) Range() OffsetSpan { return v.Span }
func (v *Array) Range() OffsetSpan { return v.Span }
func (v *Object) Range() OffsetSpan { return v.Span }

func (Null) Kind() ValueKind { return KindNull }
func (*Bool) Kind() ValueKind { return KindBool }
func (*Number) Kind() ValueKind { return KindNumber }
func (*String) Kind() ValueKind { return KindString }
func (*Array) Kind() ValueKind { return KindArray }
func (*Object) Kind() ValueKind { return KindObject }

func (Null) rangedValue() {}
func (*Bool) rangedValue() {}
func (*Number) rangedValue() {}
func (*String) rangedValue() {}
func (*Array) rangedValue() {}
func (*Object) rangedValue() {}

// NewObject returns an empty object spanning span.
func NewObject(span OffsetSpan) *Object {
	return &Object{
		Span:    span,
		Fields:  make(map[string]RangedValue),
		Entries: make(map[string]OffsetSpan),
	}
}

// Set inserts or replaces key. A zero entry span is recorded as unknown.
func (o *Object) Set(key string, value RangedValue, entry OffsetSpan) {
	if o.Fields == nil {
		o.Fields = make(map[string]RangedValue)
	}
	o.Fields[key] = value
	if entry.IsEmpty() {
		delete(o.Entries, key)
		return
	}
	if o.Entries == nil {
		o.Entries = make(map[string]OffsetSpan)
	}
	o.Entries[key] = entry
}

// Get returns the value stored under key.
func (o *Object) Get(key string) (RangedValue, bool) {
	v, ok := o.Fields[key]
	return v, ok
}

// EntrySpan returns the grammar-supplied span of the entry for key, if any.
func (o *Object) EntrySpan(key string) (OffsetSpan, bool) {
	s, ok := o.Entries[key]
	return s, ok
}
