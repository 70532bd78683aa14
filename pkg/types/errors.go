package types

import (
	"errors"
	"fmt"
)

// ErrorCode identifies a failure condition. The first letter gives its Category.
type ErrorCode string

// Error codes.
const (
	// L0xxx: Lexical errors
	ErrUnrecognizedCharacter ErrorCode = "L0101"
	ErrMalformedNumber       ErrorCode = "L0102"

	// S0xxx: Parser/Syntax errors
	ErrEmptyExpression       ErrorCode = "S0201"
	ErrUnexpectedToken       ErrorCode = "S0202"
	ErrUnbalancedParenthesis ErrorCode = "S0203"
	ErrTrailingInput         ErrorCode = "S0204"
	ErrUnknownFunction       ErrorCode = "S0205"
	ErrArityMismatch         ErrorCode = "S0206"
	ErrUnknownIdentifier     ErrorCode = "S0207"
	ErrMaxDepthExceeded      ErrorCode = "S0208"

	// D0xxx: Domain (evaluation) errors
	ErrDivisionByZero   ErrorCode = "D1001"
	ErrComplexLogOfZero ErrorCode = "D1002"
	ErrNonFinite        ErrorCode = "D1003"
	ErrUndefinedFunc    ErrorCode = "D1004"
	ErrInvalidNode      ErrorCode = "D1005"

	// C0xxx: Configuration errors
	ErrNonPositiveValue   ErrorCode = "C0301"
	ErrAngleOutOfRange    ErrorCode = "C0302"
	ErrInvalidRegion      ErrorCode = "C0303"
	ErrInvalidResolution  ErrorCode = "C0304"
	ErrTooManySamples     ErrorCode = "C0305"
	ErrUnknownGridKind    ErrorCode = "C0306"
	ErrMissingExpression  ErrorCode = "C0307"
	ErrInvalidConfigValue ErrorCode = "C0308"
)

// Category groups error codes by the stage that produced them.
type Category uint8

const (
	CategoryUnknown Category = iota
	CategoryLex
	CategoryParse
	CategoryEval
	CategoryConfig
)

// String returns a string representation of the category.
func (c Category) String() string {
	switch c {
	case CategoryLex:
		return "lex"
	case CategoryParse:
		return "parse"
	case CategoryEval:
		return "eval"
	case CategoryConfig:
		return "config"
	default:
		return "unknown"
	}
}

// Category returns the stage the code belongs to.
func (c ErrorCode) Category() Category {
	if c == "" {
		return CategoryUnknown
	}
	switch c[0] {
	case 'L':
		return CategoryLex
	case 'S':
		return CategoryParse
	case 'D':
		return CategoryEval
	case 'C':
		return CategoryConfig
	default:
		return CategoryUnknown
	}
}

// Error represents a structured error with a code and source location.
//
// Lex and parse errors carry the offending token; evaluation errors carry the
// node whose evaluation failed. Position is -1 when no source location applies
// (configuration errors).
type Error struct {
	Code     ErrorCode
	Message  string
	Position int
	Token    string
	Expected string
	Node     *ASTNode
	Err      error
}

// NewError creates a new error.
func NewError(code ErrorCode, message string, position int) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		Position: position,
	}
}

// NewConfigError creates an error without source location.
func NewConfigError(code ErrorCode, format string, args ...any) *Error {
	return NewError(code, fmt.Sprintf(format, args...), -1)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Position >= 0 {
		return fmt.Sprintf("%s at position %d: %s", e.Code, e.Position, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Category returns the stage that produced the error.
func (e *Error) Category() Category {
	return e.Code.Category()
}

// WithToken adds token information to the error.
func (e *Error) WithToken(token string) *Error {
	e.Token = token
	return e
}

// WithExpected records what the parser expected to find.
func (e *Error) WithExpected(expected string) *Error {
	e.Expected = expected
	return e
}

// WithNode records the sub-expression that failed to evaluate.
func (e *Error) WithNode(node *ASTNode) *Error {
	e.Node = node
	if node != nil {
		e.Position = node.Position
	}
	return e
}

// WithCause wraps another error.
func (e *Error) WithCause(err error) *Error {
	e.Err = err
	return e
}

// IsCode reports whether err (or any error it wraps) is an *Error with the given code.
func IsCode(err error, code ErrorCode) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Code == code
}

// CategoryOf returns the category of the first *Error in err's chain.
func CategoryOf(err error) Category {
	var e *Error
	if !errors.As(err, &e) {
		return CategoryUnknown
	}
	return e.Category()
}
