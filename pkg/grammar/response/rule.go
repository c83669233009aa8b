// Package response is the HTTP response grammar.
//
//	response    = { SOI ~ status_line ~ NEWLINE ~ header_block ~ (chunked | body)? ~ EOI }
//	status_line = { version ~ " " ~ status_code ~ (" " ~ reason)? }
//	chunked     = { chunk_size ~ NEWLINE ~ body ~ NEWLINE ~ "0" ~ NEWLINE ~ NEWLINE }
//	body        = { object | array | raw }
//
// The chunked form is used when a Transfer-Encoding header lists "chunked"; the body
// must fit in a single data chunk.
package response

import "github.com/praetorian-inc/disclose/pkg/types"

// Rule is a node kind produced by the response grammar.
type Rule int

const (
	Response Rule = iota
	StatusLine
	Version
	StatusCode
	Reason
	Header
	HeaderName
	HeaderValue
	ChunkSize
	Body
	Object
	Entry
	Array
	String
	Inner
	Number
	Boolean
	Null
)

var ruleNames = [...]string{
	Response:    "response",
	StatusLine:  "status_line",
	Version:     "version",
	StatusCode:  "status_code",
	Reason:      "reason",
	Header:      "header",
	HeaderName:  "header_name",
	HeaderValue: "header_value",
	ChunkSize:   "chunk_size",
	Body:        "body",
	Object:      "object",
	Entry:       "entry",
	Array:       "array",
	String:      "string",
	Inner:       "inner",
	Number:      "number",
	Boolean:     "boolean",
	Null:        "null",
}

func (r Rule) String() string {
	if r < 0 || int(r) >= len(ruleNames) {
		return "unknown"
	}
	return ruleNames[r]
}

// Classify maps the rule onto the shared value vocabulary.
func (r Rule) Classify() types.CommonRuleType {
	switch r {
	case Object:
		return types.RuleObject
	case Array:
		return types.RuleArray
	case String:
		return types.RuleString
	case Number:
		return types.RuleNumber
	case Boolean:
		return types.RuleBoolean
	case Null:
		return types.RuleNull
	default:
		return types.RuleOther
	}
}
