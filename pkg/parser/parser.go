// Package parser turns formula text in the complex variable z into a
// compiled [types.Expression].
//
// The parser is a hand-written recursive descent parser with one token of
// lookahead. It never backtracks and never recovers: the first lexical or
// syntax error aborts the parse and is reported with the byte offset of the
// offending token.
//
// # Grammar
//
// Precedence from lowest to highest:
//
//	expr  := term (('+' | '-') term)*
//	term  := unary (('*' | '/') unary)*
//	unary := ('-' | '+') unary | power
//	power := atom ('^' unary)?
//	atom  := number | imaginary | 'z' | 'i' | name '(' expr (',' expr)* ')' | '(' expr ')'
//
// Exponentiation is right-associative and binds tighter than a leading minus,
// so -z^2 is -(z^2) and z^2^3 is z^(2^3). The exponent may itself carry a sign
// (z^-1). Multiplication must always be written explicitly: 2z and z(z+1) are
// rejected.
//
// # Example
//
//	expr, err := parser.Compile("sin(z)/z")
//	if err != nil {
//	    var perr *types.Error
//	    if errors.As(err, &perr) {
//	        fmt.Printf("%s at position %d\n", perr.Code, perr.Position)
//	    }
//	    return
//	}
//	ast := expr.AST()
package parser

import (
	"github.com/imagicomplex/imagicomplex/pkg/types"
)

// DefaultMaxDepth is the nesting limit applied when WithMaxDepth is not given.
const DefaultMaxDepth = 512

// Parse parses an expression and returns the compiled Expression.
//
// The function tokenizes the input, builds an AST, and validates function
// names and arities against the builtin registry. If parsing fails, it returns
// a *types.Error with position information.
func Parse(query string) (*types.Expression, error) {
	p := NewParser(query)
	return p.Parse()
}

// Compile is Parse with options.
func Compile(query string, opts ...CompileOption) (*types.Expression, error) {
	p := NewParser(query, opts...)
	return p.Parse()
}

// CompileOption configures compilation behavior.
type CompileOption func(*CompileOptions)

// CompileOptions holds parser configuration.
type CompileOptions struct {
	// MaxDepth limits nesting to prevent stack overflow.
	MaxDepth int
	// Folding replaces constant subtrees by their value after parsing.
	Folding bool
}

// WithMaxDepth sets the maximum parsing depth.
func WithMaxDepth(depth int) CompileOption {
	return func(opts *CompileOptions) {
		opts.MaxDepth = depth
	}
}

// WithFolding enables constant folding. Subtrees that do not depend on z are
// evaluated once and replaced by a constant; subtrees whose evaluation fails
// are kept so the failure is reported when sampling.
func WithFolding(enable bool) CompileOption {
	return func(opts *CompileOptions) {
		opts.Folding = enable
	}
}
