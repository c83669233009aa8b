package types

// CommonRuleType is the grammar-independent category of a parse node.
type CommonRuleType int

const (
	RuleOther CommonRuleType = iota
	RuleObject
	RuleArray
	RuleString
	RuleNumber
	RuleBoolean
	RuleNull
)

// String returns the category name.
func (t CommonRuleType) String() string {
	switch t {
	case RuleObject:
		return "object"
	case RuleArray:
		return "array"
	case RuleString:
		return "string"
	case RuleNumber:
		return "number"
	case RuleBoolean:
		return "boolean"
	case RuleNull:
		return "null"
	default:
		return "other"
	}
}

// CommonRule is implemented by every grammar's node-kind type.
// Classify must be total and pure: structural kinds map to RuleOther.
type CommonRule interface {
	Classify() CommonRuleType
}
