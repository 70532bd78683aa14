package types

// FunctionImpl computes a function value from already evaluated arguments.
// Domain failures are reported as *Error with a D-prefixed code; the evaluator
// attaches the failing call node.
type FunctionImpl func(args []complex128) (complex128, error)

// Function describes a callable name recognised by the parser.
type Function struct {
	Name        string
	Arity       int
	Description string
	Impl        FunctionImpl
}

// FunctionTable resolves function names. Implementations must be immutable.
type FunctionTable interface {
	Lookup(name string) (*Function, bool)
}
