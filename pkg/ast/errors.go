package ast

import (
	"errors"
	"fmt"
)

// ErrContractViolation marks a parse tree whose shape the grammar promised but did
// not deliver. It is never caused by the input bytes alone and is always returned,
// never recovered from.
var ErrContractViolation = errors.New("grammar contract violation")

var (
	// ErrMissingKeyOrValue is returned when a header node lacks its name or value child.
	ErrMissingKeyOrValue = fmt.Errorf("%w: missing key or value", ErrContractViolation)
	// ErrMalformedEntry is returned when an object entry lacks its key string or value.
	ErrMalformedEntry = fmt.Errorf("%w: malformed object entry", ErrContractViolation)
	// ErrUnexpectedRule is returned when a node that is not a value reaches value construction.
	ErrUnexpectedRule = fmt.Errorf("%w: unexpected rule", ErrContractViolation)
)
