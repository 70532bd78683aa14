// Package imagicomplex parses formulas in a complex variable z, evaluates
// them as vector fields over the complex plane and generates reference grids
// to overlay on the plot.
//
// # Quick Start
//
//	// Single evaluation
//	w, err := imagicomplex.Eval("z^2 + 1", complex(0, 1))
//
//	// Compile once, sample the field over a window
//	expr, err := imagicomplex.Compile("sin(z)/z")
//	lat, err := imagicomplex.Sample(ctx, expr, types.SymmetricRegion(5, 5), 0.25)
//
//	// Reference grid
//	prims, err := imagicomplex.Grid(grid.RadialFixedAngle{RadiusIncrement: 1, AngleStep: 30}, region)
//
// # Errors
//
// Every failure is a *types.Error whose Code tells the stage apart:
// L (lexical), S (syntax), D (domain, raised by evaluation) and
// C (configuration). During sampling domain errors only mark the affected
// point as undefined.
//
// # More Information
//
//   - Parser: github.com/imagicomplex/imagicomplex/pkg/parser
//   - Evaluator: github.com/imagicomplex/imagicomplex/pkg/evaluator
//   - Functions: github.com/imagicomplex/imagicomplex/pkg/functions
//   - Grids: github.com/imagicomplex/imagicomplex/pkg/grid
//   - Sampler: github.com/imagicomplex/imagicomplex/pkg/sampler
//   - Session state: github.com/imagicomplex/imagicomplex/pkg/session
package imagicomplex

import (
	"context"
	"fmt"

	"github.com/imagicomplex/imagicomplex/pkg/evaluator"
	"github.com/imagicomplex/imagicomplex/pkg/grid"
	"github.com/imagicomplex/imagicomplex/pkg/parser"
	"github.com/imagicomplex/imagicomplex/pkg/sampler"
	"github.com/imagicomplex/imagicomplex/pkg/types"
)

// Version returns the current version of imagicomplex.
func Version() string {
	return "v0.1.0-dev"
}

// Compile compiles an expression for repeated evaluation.
// The result is immutable and safe for concurrent use.
func Compile(expression string, opts ...parser.CompileOption) (*types.Expression, error) {
	return parser.Compile(expression, opts...)
}

// MustCompile is like Compile but panics if the expression cannot be compiled.
// It simplifies safe initialization of global variables.
func MustCompile(expression string) *types.Expression {
	expr, err := Compile(expression)
	if err != nil {
		panic(fmt.Sprintf("imagicomplex: Compile(%q): %v", expression, err))
	}
	return expr
}

// Eval compiles expression and evaluates it at z.
//
// For repeated evaluations of the same expression, use Compile instead.
func Eval(expression string, z complex128, opts ...evaluator.EvalOption) (complex128, error) {
	expr, err := Compile(expression)
	if err != nil {
		return 0, err
	}
	return evaluator.New(opts...).Eval(expr, z)
}

// Sample evaluates expr over region at the given resolution.
func Sample(ctx context.Context, expr *types.Expression, region types.Region, resolution float64, opts ...sampler.SampleOption) (*sampler.Lattice, error) {
	return sampler.New(opts...).Sample(ctx, expr, region, resolution)
}

// Grid generates the primitives of a grid over region.
func Grid(config grid.Config, region types.Region) ([]grid.Primitive, error) {
	return grid.Generate(config, region)
}
