// Package types defines the core types shared by the parser, evaluator,
// grid generator and sampler.
//
// This package contains type definitions for:
//   - Expression: a compiled, immutable formula in z
//   - ASTNode: Abstract Syntax Tree nodes
//   - Function / FunctionTable: the registry contract used at parse time
//   - Region: the rectangular window of the complex plane being viewed
//   - Error types: structured errors with codes and categories
package types

// Expression represents a compiled formula: the source text, its AST and the
// function table the names were resolved against.
//
// An Expression is created only by a successful parse. It is never mutated
// and is safe for concurrent use by multiple goroutines.
type Expression struct {
	ast       *ASTNode
	source    string
	functions FunctionTable
	arena     *NodeArena
}

// NewExpression creates a new Expression from an AST.
func NewExpression(ast *ASTNode, source string, functions FunctionTable) *Expression {
	return &Expression{
		ast:       ast,
		source:    source,
		functions: functions,
	}
}

// WithArena attaches the arena the AST was allocated from so it lives as long
// as the expression. It returns the receiver for chaining and must only be
// called by the parser before the expression is published.
func (e *Expression) WithArena(arena *NodeArena) *Expression {
	e.arena = arena
	return e
}

// AST returns the Abstract Syntax Tree of the expression.
func (e *Expression) AST() *ASTNode {
	return e.ast
}

// Source returns the original source text of the expression.
func (e *Expression) Source() string {
	return e.source
}

// Functions returns the function table used to resolve calls at parse time.
func (e *Expression) Functions() FunctionTable {
	return e.functions
}

// IsConstant reports whether the expression does not depend on z.
func (e *Expression) IsConstant() bool {
	return e.ast.IsConstant()
}

// String returns the source text of the expression.
func (e *Expression) String() string {
	return e.source
}
