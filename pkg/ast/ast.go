// Package ast turns grammar parse trees into ranged headers and values. It depends
// only on the classification each grammar gives its rules, so every grammar shares
// one builder.
package ast

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/praetorian-inc/disclose/pkg/grammar"
	"github.com/praetorian-inc/disclose/pkg/types"
)

// ParseHeader converts a header node with exactly two children (name, value) into its
// name and a RangedHeader spanning the whole node.
func ParseHeader[R grammar.Rule](pair *grammar.Pair[R]) (string, types.RangedHeader, error) {
	inner := pair.Inner()
	if len(inner) != 2 {
		return "", types.RangedHeader{}, fmt.Errorf("%s has %d children: %w", pair, len(inner), ErrMissingKeyOrValue)
	}

	return inner[0].Text(), types.RangedHeader{
		Range: pair.Span(),
		Value: inner[1].Text(),
	}, nil
}

// ParseValue converts a value node into a RangedValue.
//
// Numbers and booleans whose text does not parse become 0 and false. Any node that
// classifies as Other yields ErrUnexpectedRule.
func ParseValue[R grammar.Rule](pair *grammar.Pair[R]) (types.RangedValue, error) {
	span := pair.Span()

	switch pair.Rule().Classify() {
	case types.RuleObject:
		obj := types.NewObject(span)
		for _, child := range pair.Inner() {
			key, value, err := parseEntry(child)
			if err != nil {
				return nil, err
			}
			obj.Set(key, value, child.Span())
		}
		return obj, nil

	case types.RuleArray:
		arr := &types.Array{Span: span, Items: make([]types.RangedValue, 0, len(pair.Inner()))}
		for _, child := range pair.Inner() {
			item, err := ParseValue(child)
			if err != nil {
				return nil, err
			}
			arr.Items = append(arr.Items, item)
		}
		return arr, nil

	case types.RuleString:
		return &types.String{Span: span, Value: stringContent(pair)}, nil

	case types.RuleNumber:
		// Out of range literals keep ParseFloat's ±Inf or 0.
		n, err := strconv.ParseFloat(pair.Text(), 64)
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			n = 0
		}
		return &types.Number{Span: span, Value: n}, nil

	case types.RuleBoolean:
		b, err := strconv.ParseBool(pair.Text())
		if err != nil {
			b = false
		}
		return &types.Bool{Span: span, Value: b}, nil

	case types.RuleNull:
		return types.Null{}, nil

	default:
		return nil, fmt.Errorf("%s: %w", pair, ErrUnexpectedRule)
	}
}

// parseEntry converts an object entry node (key string, value) into its key and value.
func parseEntry[R grammar.Rule](pair *grammar.Pair[R]) (string, types.RangedValue, error) {
	inner := pair.Inner()
	if len(inner) != 2 {
		return "", nil, fmt.Errorf("%s has %d children: %w", pair, len(inner), ErrMalformedEntry)
	}

	key := inner[0]
	if key.Rule().Classify() != types.RuleString {
		return "", nil, fmt.Errorf("%s key is %s: %w", pair, key, ErrMalformedEntry)
	}

	value, err := ParseValue(inner[1])
	if err != nil {
		return "", nil, err
	}
	return stringContent(key), value, nil
}

// stringContent returns the text of the string's first inner node, or "" for an empty literal.
func stringContent[R grammar.Rule](pair *grammar.Pair[R]) string {
	if inner := pair.Inner(); len(inner) > 0 {
		return inner[0].Text()
	}
	return ""
}
