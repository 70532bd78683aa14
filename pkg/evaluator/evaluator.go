// Package evaluator computes the value of a compiled expression at a point z.
//
// The evaluator walks the AST bottom-up with an exhaustive switch over the
// closed set of node types. Evaluation is referentially transparent: the same
// node and the same z always produce the same value or the same error.
//
// Only genuine mathematical singularities are errors:
//   - division by zero (types.ErrDivisionByZero)
//   - logarithm of zero, including 0^b for b not a non-negative integer
//     (types.ErrComplexLogOfZero)
//   - any intermediate result that overflows to infinity or NaN
//     (types.ErrNonFinite)
//
// Every error is a *types.Error whose Node is the sub-expression that failed.
//
// # Example
//
//	ev := evaluator.New()
//	w, err := ev.Eval(expr, complex(1, 2))
//	if err != nil {
//	    var eerr *types.Error
//	    if errors.As(err, &eerr) {
//	        fmt.Println("undefined at", eerr.Node)
//	    }
//	}
package evaluator

import (
	"log/slog"

	"github.com/imagicomplex/imagicomplex/pkg/functions"
	"github.com/imagicomplex/imagicomplex/pkg/types"
)

// Evaluator evaluates compiled expressions. It holds no mutable state and is
// safe for concurrent use.
type Evaluator struct {
	opts      EvalOptions
	logger    *slog.Logger
	functions types.FunctionTable
}

// EvalOptions configures evaluator behavior.
type EvalOptions struct {
	// ZeroTolerance is the modulus at or below which a divisor counts as zero.
	// The default 0 only rejects exact zeros.
	ZeroTolerance float64
	// Debug enables debug logging.
	Debug bool
	// Logger for structured logging.
	Logger *slog.Logger
}

// New creates a new Evaluator with default options.
func New(opts ...EvalOption) *Evaluator {
	var options EvalOptions

	for _, opt := range opts {
		opt(&options)
	}

	if options.Logger == nil {
		options.Logger = slog.Default()
	}

	return &Evaluator{
		opts:      options,
		logger:    options.Logger,
		functions: functions.Builtins(),
	}
}

// Eval evaluates expr at z. Function calls are resolved against the table
// the expression was compiled with.
func (e *Evaluator) Eval(expr *types.Expression, z complex128) (complex128, error) {
	if expr == nil || expr.AST() == nil {
		return 0, types.NewError(types.ErrInvalidNode, "invalid expression", -1)
	}

	fns := expr.Functions()
	if fns == nil {
		fns = e.functions
	}

	w, err := e.evalNode(expr.AST(), z, fns)
	if err != nil {
		if e.opts.Debug {
			e.logger.Debug("evaluation failed",
				"expression", expr.Source(),
				"z", z,
				"error", err)
		}
		return 0, err
	}
	return w, nil
}

// EvalNode evaluates a bare AST node at z using the builtin function table.
func (e *Evaluator) EvalNode(node *types.ASTNode, z complex128) (complex128, error) {
	if node == nil {
		return 0, types.NewError(types.ErrInvalidNode, "invalid expression", -1)
	}
	return e.evalNode(node, z, e.functions)
}

// EvalOption configures evaluation behavior.
type EvalOption func(*EvalOptions)

// WithZeroTolerance sets the modulus at or below which a divisor is treated as zero.
func WithZeroTolerance(eps float64) EvalOption {
	return func(opts *EvalOptions) {
		opts.ZeroTolerance = eps
	}
}

// WithDebug enables or disables debug logging.
func WithDebug(enabled bool) EvalOption {
	return func(opts *EvalOptions) {
		opts.Debug = enabled
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) EvalOption {
	return func(opts *EvalOptions) {
		opts.Logger = logger
	}
}
