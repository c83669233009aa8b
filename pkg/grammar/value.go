package grammar

// MaxDepth bounds object/array nesting.
const MaxDepth = 512

// ValueRules are the rule kinds a grammar assigns to the JSON-like body sub-grammar:
//
//	object  = { "{" ~ (entry ~ ("," ~ entry)*)? ~ "}" }
//	entry   = { string ~ ":" ~ value }
//	array   = { "[" ~ (value ~ ("," ~ value)*)? ~ "]" }
//	string  = ${ "\"" ~ inner? ~ "\"" }
//	number, boolean, null
//
// Whitespace is allowed between tokens.
type ValueRules[R Rule] struct {
	Object  R
	Entry   R
	Array   R
	String  R
	Inner   R
	Number  R
	Boolean R
	Null    R
}

type valueParser[R Rule] struct {
	c     *Cursor
	rules ValueRules[R]
	depth int
}

// ParseValue parses one value at the cursor.
func ParseValue[R Rule](c *Cursor, rules ValueRules[R]) (*Pair[R], error) {
	p := &valueParser[R]{c: c, rules: rules}
	return p.value()
}

func (p *valueParser[R]) value() (*Pair[R], error) {
	switch ch := p.c.Peek(); {
	case ch == '{':
		return p.object()
	case ch == '[':
		return p.array()
	case ch == '"':
		return p.quoted()
	case ch == 't' || ch == 'f':
		return p.boolean()
	case ch == 'n':
		return p.null()
	case ch == '-' || isDigit(ch):
		return p.number()
	default:
		return nil, p.c.Errorf("value")
	}
}

func (p *valueParser[R]) enter() error {
	p.depth++
	if p.depth > MaxDepth {
		return p.c.Errorf("nesting depth <= %d", MaxDepth)
	}
	return nil
}

func (p *valueParser[R]) object() (*Pair[R], error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer func() { p.depth-- }()

	start := p.c.Pos()
	p.c.Advance(1)
	p.c.SkipWhitespace()

	var entries []*Pair[R]
	if !p.c.Consume("}") {
		for {
			p.c.SkipWhitespace()
			entry, err := p.entry()
			if err != nil {
				return nil, err
			}
			entries = append(entries, entry)

			p.c.SkipWhitespace()
			if p.c.Consume(",") {
				continue
			}
			if p.c.Consume("}") {
				break
			}
			return nil, p.c.Errorf("',' or '}'")
		}
	}
	return NewPair(p.rules.Object, p.c.Input(), start, p.c.Pos(), entries...), nil
}

func (p *valueParser[R]) entry() (*Pair[R], error) {
	start := p.c.Pos()
	if p.c.Peek() != '"' {
		return nil, p.c.Errorf("object key")
	}
	key, err := p.quoted()
	if err != nil {
		return nil, err
	}

	p.c.SkipWhitespace()
	if !p.c.Consume(":") {
		return nil, p.c.Errorf("':'")
	}
	p.c.SkipWhitespace()

	value, err := p.value()
	if err != nil {
		return nil, err
	}
	return NewPair(p.rules.Entry, p.c.Input(), start, p.c.Pos(), key, value), nil
}

func (p *valueParser[R]) array() (*Pair[R], error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer func() { p.depth-- }()

	start := p.c.Pos()
	p.c.Advance(1)
	p.c.SkipWhitespace()

	var items []*Pair[R]
	if !p.c.Consume("]") {
		for {
			p.c.SkipWhitespace()
			item, err := p.value()
			if err != nil {
				return nil, err
			}
			items = append(items, item)

			p.c.SkipWhitespace()
			if p.c.Consume(",") {
				continue
			}
			if p.c.Consume("]") {
				break
			}
			return nil, p.c.Errorf("',' or ']'")
		}
	}
	return NewPair(p.rules.Array, p.c.Input(), start, p.c.Pos(), items...), nil
}

func (p *valueParser[R]) quoted() (*Pair[R], error) {
	start := p.c.Pos()
	p.c.Advance(1)
	innerStart := p.c.Pos()

	for !p.c.EOF() {
		switch ch := p.c.Peek(); {
		case ch == '"':
			innerEnd := p.c.Pos()
			p.c.Advance(1)
			var inner []*Pair[R]
			if innerEnd > innerStart {
				inner = append(inner, NewPair(p.rules.Inner, p.c.Input(), innerStart, innerEnd))
			}
			return NewPair(p.rules.String, p.c.Input(), start, p.c.Pos(), inner...), nil
		case ch == '\\':
			if err := p.escape(); err != nil {
				return nil, err
			}
		case ch < 0x20:
			return nil, p.c.Errorf("string character")
		default:
			p.c.Advance(1)
		}
	}
	return nil, p.c.Errorf("closing '\"'")
}

func (p *valueParser[R]) escape() error {
	p.c.Advance(1)
	switch p.c.Peek() {
	case '"', '\\', '/', 'b', 'f', 'n', 'r', 't':
		p.c.Advance(1)
		return nil
	case 'u':
		p.c.Advance(1)
		for i := 0; i < 4; i++ {
			if !IsHexDigit(p.c.Peek()) {
				return p.c.Errorf("hex digit in \\u escape")
			}
			p.c.Advance(1)
		}
		return nil
	default:
		return p.c.Errorf("escape character")
	}
}

func (p *valueParser[R]) number() (*Pair[R], error) {
	start := p.c.Pos()
	p.c.Consume("-")

	switch {
	case p.c.Consume("0"):
	case p.c.TakeWhile(isDigit) > 0:
	default:
		return nil, p.c.Errorf("digit")
	}

	if p.c.Consume(".") {
		if p.c.TakeWhile(isDigit) == 0 {
			return nil, p.c.Errorf("digit after '.'")
		}
	}

	if p.c.Consume("e") || p.c.Consume("E") {
		if !p.c.Consume("+") {
			p.c.Consume("-")
		}
		if p.c.TakeWhile(isDigit) == 0 {
			return nil, p.c.Errorf("exponent digit")
		}
	}
	return NewPair(p.rules.Number, p.c.Input(), start, p.c.Pos()), nil
}

func (p *valueParser[R]) boolean() (*Pair[R], error) {
	start := p.c.Pos()
	if !p.c.Consume("true") && !p.c.Consume("false") {
		return nil, p.c.Errorf("'true' or 'false'")
	}
	return NewPair(p.rules.Boolean, p.c.Input(), start, p.c.Pos()), nil
}

func (p *valueParser[R]) null() (*Pair[R], error) {
	start := p.c.Pos()
	if !p.c.Consume("null") {
		return nil, p.c.Errorf("'null'")
	}
	return NewPair(p.rules.Null, p.c.Input(), start, p.c.Pos()), nil
}
