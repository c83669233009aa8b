// Package request is the HTTP request grammar.
//
//	request      = { SOI ~ request_line ~ NEWLINE ~ header_block ~ body? ~ EOI }
//	request_line = { method ~ " " ~ target ~ " " ~ version }
//	target       = { path ~ ("?" ~ query_param ~ ("&" ~ query_param)*)? }
//	query_param  = { param_name ~ ("=" ~ param_value)? }
//	body         = { object | array | raw }
package request

import "github.com/praetorian-inc/disclose/pkg/types"

// Rule is a node kind produced by the request grammar.
type Rule int

const (
	Request Rule = iota
	RequestLine
	Method
	Target
	Path
	QueryParam
	ParamName
	ParamValue
	Version
	Header
	HeaderName
	HeaderValue
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
	Request:     "request",
	RequestLine: "request_line",
	Method:      "method",
	Target:      "target",
	Path:        "path",
	QueryParam:  "query_param",
	ParamName:   "param_name",
	ParamValue:  "param_value",
	Version:     "version",
	Header:      "header",
	HeaderName:  "header_name",
	HeaderValue: "header_value",
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
