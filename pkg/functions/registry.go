// Package functions holds the closed registry of functions that may be called
// from an expression, together with their complex implementations.
//
// The registry is fixed at build time: the parser resolves names against
// [Builtins] and there is no way to add entries at runtime. Adding a function
// means adding an entry to the table below.
//
// Every implementation is pure. Mathematical singularities are reported as
// *types.Error values with a D-prefixed code; the evaluator attaches the call
// node that produced them.
package functions

import (
	"sort"
	"sync"

	"github.com/imagicomplex/imagicomplex/pkg/types"
)

// Table is an immutable name → function lookup. It implements types.FunctionTable.
type Table struct {
	byName map[string]*types.Function
	names  []string
}

var (
	builtins     *Table
	builtinsOnce sync.Once
)

// Builtins returns the builtin function table.
func Builtins() *Table {
	builtinsOnce.Do(func() {
		builtins = newTable([]*types.Function{
			// Trigonometric
			{Name: "sin", Arity: 1, Description: "sine", Impl: unary(Sin)},
			{Name: "cos", Arity: 1, Description: "cosine", Impl: unary(Cos)},
			{Name: "tan", Arity: 1, Description: "tangent", Impl: unary(Tan)},

			// Exponential
			{Name: "exp", Arity: 1, Description: "exponential", Impl: unary(Exp)},
			{Name: "log", Arity: 1, Description: "natural logarithm, principal branch", Impl: unaryErr(Log)},
			{Name: "sqrt", Arity: 1, Description: "square root, principal branch", Impl: unaryErr(Sqrt)},
			{Name: "pow", Arity: 2, Description: "principal power, same as a^b", Impl: binaryErr(Pow)},

			// Parts
			{Name: "abs", Arity: 1, Description: "modulus |z|", Impl: unary(Abs)},
			{Name: "norm", Arity: 1, Description: "squared modulus |z|^2", Impl: unary(Norm)},
			{Name: "arg", Arity: 1, Description: "principal argument in (-pi, pi]", Impl: unary(Arg)},
			{Name: "conj", Arity: 1, Description: "complex conjugate", Impl: unary(Conj)},
			{Name: "re", Arity: 1, Description: "real part", Impl: unary(Re)},
			{Name: "im", Arity: 1, Description: "imaginary part", Impl: unary(Im)},
		})
	})
	return builtins
}

func newTable(fns []*types.Function) *Table {
	t := &Table{
		byName: make(map[string]*types.Function, len(fns)),
		names:  make([]string, 0, len(fns)),
	}
	for _, fn := range fns {
		t.byName[fn.Name] = fn
		t.names = append(t.names, fn.Name)
	}
	sort.Strings(t.names)
	return t
}

// Lookup returns the function registered under name.
func (t *Table) Lookup(name string) (*types.Function, bool) {
	fn, ok := t.byName[name]
	return fn, ok
}

// Names returns the registered names in alphabetical order.
func (t *Table) Names() []string {
	out := make([]string, len(t.names))
	copy(out, t.names)
	return out
}

// All returns the registered functions in alphabetical order.
func (t *Table) All() []*types.Function {
	out := make([]*types.Function, len(t.names))
	for i, name := range t.names {
		out[i] = t.byName[name]
	}
	return out
}

// Len returns the number of registered functions.
func (t *Table) Len() int {
	return len(t.names)
}

func unary(f func(complex128) complex128) types.FunctionImpl {
	return func(args []complex128) (complex128, error) {
		return f(args[0]), nil
	}
}

func unaryErr(f func(complex128) (complex128, error)) types.FunctionImpl {
	return func(args []complex128) (complex128, error) {
		return f(args[0])
	}
}

func binaryErr(f func(a, b complex128) (complex128, error)) types.FunctionImpl {
	return func(args []complex128) (complex128, error) {
		return f(args[0], args[1])
	}
}
