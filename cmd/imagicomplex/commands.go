package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"github.com/imagicomplex/imagicomplex/pkg/cache"
	"github.com/imagicomplex/imagicomplex/pkg/evaluator"
	"github.com/imagicomplex/imagicomplex/pkg/functions"
	"github.com/imagicomplex/imagicomplex/pkg/grid"
	"github.com/imagicomplex/imagicomplex/pkg/parser"
	"github.com/imagicomplex/imagicomplex/pkg/sampler"
	"github.com/imagicomplex/imagicomplex/pkg/session"
	"github.com/imagicomplex/imagicomplex/pkg/types"
	"github.com/imagicomplex/imagicomplex/pkg/wire"
)

// Sentinel errors
var (
	ErrNoExpression    = errors.New("no expression given and none configured")
	ErrInvalidWindow   = errors.New("window must be minX,maxX,minY,maxY")
	ErrNotConstant     = errors.New("point must not depend on z")
	ErrExpressionCheck = errors.New("expression rejected")
)

// CheckCmd represents the check command
type CheckCmd struct {
	Expression string `arg:"" help:"Expression in z"`
}

// Run executes the check command
func (cmd *CheckCmd) Run(ctx *Context) error {
	expr, err := parser.Compile(cmd.Expression, ctx.Config.CompileOptions()...)
	if err != nil {
		printDiagnostic(ctx, cmd.Expression, err)
		return ErrExpressionCheck
	}

	if !ctx.Quiet {
		color.New(color.FgGreen).Fprintf(ctx.Stdout, "ok: %s\n", expr.AST())
	}
	return nil
}

// EvalCmd represents the eval command
type EvalCmd struct {
	Expression string   `arg:"" help:"Expression in z"`
	At         []string `help:"Point to evaluate at, written as a constant expression such as 1+2i (repeatable)" default:"0"`
}

type evalResult struct {
	Z     wire.Complex     `json:"z" yaml:"z"`
	W     *wire.Complex    `json:"w,omitempty" yaml:"w,omitempty"`
	Error *wire.Diagnostic `json:"error,omitempty" yaml:"error,omitempty"`
}

// Run executes the eval command
func (cmd *EvalCmd) Run(ctx *Context) error {
	expr, err := parser.Compile(cmd.Expression, ctx.Config.CompileOptions()...)
	if err != nil {
		printDiagnostic(ctx, cmd.Expression, err)
		return ErrExpressionCheck
	}

	ev := evaluator.New(append(ctx.Config.EvalOptions(), evaluator.WithLogger(ctx.Logger))...)

	results := make([]evalResult, 0, len(cmd.At))
	for _, at := range cmd.At {
		z, err := parsePoint(ev, at)
		if err != nil {
			return fmt.Errorf("--at %q: %w", at, err)
		}
		w, err := ev.Eval(expr, z)
		r := evalResult{Z: wire.ComplexOf(z)}
		if err != nil {
			r.Error = wire.DiagnosticOf(err)
		} else {
			v := wire.ComplexOf(w)
			r.W = &v
		}
		results = append(results, r)
	}

	return writeOutput(ctx, results)
}

// parsePoint evaluates a constant expression such as "1+2i" or "-i".
func parsePoint(ev *evaluator.Evaluator, text string) (complex128, error) {
	expr, err := parser.Compile(text)
	if err != nil {
		return 0, err
	}
	if !expr.IsConstant() {
		return 0, ErrNotConstant
	}
	return ev.Eval(expr, 0)
}

// SampleCmd represents the sample command
type SampleCmd struct {
	Expression string  `arg:"" optional:"" help:"Expression in z (default: from configuration)"`
	Window     string  `help:"Region as minX,maxX,minY,maxY (default: from configuration)"`
	Resolution float64 `help:"Lattice spacing (default: from configuration)"`
	Summary    bool    `help:"Only print counts, not the samples"`
}

// Run executes the sample command
func (cmd *SampleCmd) Run(ctx *Context) error {
	source := cmd.Expression
	if source == "" {
		source = ctx.Config.Expression
	}
	if source == "" {
		return ErrNoExpression
	}

	region, err := resolveWindow(ctx, cmd.Window)
	if err != nil {
		return err
	}
	resolution := cmd.Resolution
	if resolution == 0 {
		resolution = ctx.Config.Resolution
	}

	expr, err := parser.Compile(source, ctx.Config.CompileOptions()...)
	if err != nil {
		printDiagnostic(ctx, source, err)
		return ErrExpressionCheck
	}

	s := sampler.New(append(ctx.Config.SampleOptions(evaluator.WithLogger(ctx.Logger)), sampler.WithLogger(ctx.Logger))...)
	lat, err := s.Sample(context.Background(), expr, region, resolution)
	if err != nil {
		return fmt.Errorf("failed to sample: %w", err)
	}

	if ctx.Verbose {
		color.New(color.FgBlue).Fprintf(ctx.Stderr, "sampled %d x %d points, %d undefined\n", lat.Cols, lat.Rows, lat.Undefined())
	}

	out := wire.LatticeOf(lat)
	if cmd.Summary {
		out.Samples = nil
	}
	return writeOutput(ctx, out)
}

// GridCmd represents the grid command
type GridCmd struct {
	Spec   string `arg:"" help:"Grid as kind:params, e.g. square:1, radial-angle:1,45, radial-distance:1,0.5"`
	Window string `help:"Region as minX,maxX,minY,maxY (default: from configuration)"`
	Points bool   `help:"Print sample positions instead of primitives"`
}

// Run executes the grid command
func (cmd *GridCmd) Run(ctx *Context) error {
	spec, err := grid.ParseSpec(cmd.Spec)
	if err != nil {
		return err
	}
	cfg, err := spec.Config()
	if err != nil {
		return err
	}
	region, err := resolveWindow(ctx, cmd.Window)
	if err != nil {
		return err
	}

	if cmd.Points {
		pts, err := grid.Points(cfg, region)
		if err != nil {
			return err
		}
		out := make([]wire.Complex, len(pts))
		for i, p := range pts {
			out[i] = wire.ComplexOf(p)
		}
		return writeOutput(ctx, out)
	}

	prims, err := grid.Generate(cfg, region)
	if err != nil {
		return err
	}
	if ctx.Verbose {
		color.New(color.FgBlue).Fprintf(ctx.Stderr, "%s: %d primitives\n", cfg, len(prims))
	}
	return writeOutput(ctx, prims)
}

// FunctionsCmd represents the functions command
type FunctionsCmd struct{}

type functionInfo struct {
	Name        string `json:"name" yaml:"name"`
	Arity       int    `json:"arity" yaml:"arity"`
	Description string `json:"description" yaml:"description"`
}

// Run executes the functions command
func (cmd *FunctionsCmd) Run(ctx *Context) error {
	all := functions.Builtins().All()
	out := make([]functionInfo, len(all))
	for i, fn := range all {
		out[i] = functionInfo{Name: fn.Name, Arity: fn.Arity, Description: fn.Description}
	}
	return writeOutput(ctx, out)
}

// RenderCmd represents the render command
type RenderCmd struct {
	Window     string  `help:"Region as minX,maxX,minY,maxY (default: from configuration)"`
	Resolution float64 `help:"Lattice spacing (default: from configuration)"`
}

// Run executes the render command
func (cmd *RenderCmd) Run(ctx *Context) error {
	cfg := ctx.Config

	s := session.New(
		session.WithCompileOptions(cfg.CompileOptions()...),
		session.WithSampler(sampler.New(append(cfg.SampleOptions(evaluator.WithLogger(ctx.Logger)), sampler.WithLogger(ctx.Logger))...)),
		session.WithCache(cache.New(cfg.Cache.Size)),
		session.WithLogger(ctx.Logger),
	)

	if cfg.Expression != "" {
		if _, err := s.SetExpression(cfg.Expression); err != nil {
			printDiagnostic(ctx, cfg.Expression, err)
			return ErrExpressionCheck
		}
	}

	grids, err := cfg.GridConfigs()
	if err != nil {
		return err
	}
	for _, g := range grids {
		if err := s.AddGrid(g); err != nil {
			return err
		}
	}

	region, err := resolveWindow(ctx, cmd.Window)
	if err != nil {
		return err
	}
	resolution := cmd.Resolution
	if resolution == 0 {
		resolution = cfg.Resolution
	}

	frame, err := s.Render(context.Background(), region, resolution)
	if err != nil {
		return fmt.Errorf("failed to render: %w", err)
	}
	return writeOutput(ctx, wire.ResponseOf(frame))
}

// resolveWindow parses "minX,maxX,minY,maxY", falling back to the configured region.
func resolveWindow(ctx *Context, window string) (types.Region, error) {
	if window == "" {
		return ctx.Config.Region, nil
	}

	parts := strings.Split(window, ",")
	if len(parts) != 4 {
		return types.Region{}, ErrInvalidWindow
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return types.Region{}, fmt.Errorf("%w: %w", ErrInvalidWindow, err)
		}
		v[i] = f
	}

	region := types.Region{MinX: v[0], MaxX: v[1], MinY: v[2], MaxY: v[3]}
	if err := region.Validate(); err != nil {
		return types.Region{}, err
	}
	return region, nil
}

// printDiagnostic reports a compile error with a caret under the offending
// position of the source.
func printDiagnostic(ctx *Context, source string, err error) {
	if ctx.Quiet {
		return
	}

	red := color.New(color.FgRed, color.Bold)
	var te *types.Error
	if !errors.As(err, &te) {
		red.Fprintf(ctx.Stderr, "error: %v\n", err)
		return
	}

	red.Fprintf(ctx.Stderr, "%s error %s: ", te.Category(), te.Code)
	fmt.Fprintln(ctx.Stderr, te.Message)
	if te.Position < 0 || te.Position > len(source) {
		return
	}

	width := max(1, len(te.Token))
	fmt.Fprintf(ctx.Stderr, "  %s\n", source)
	color.New(color.FgYellow).Fprintf(ctx.Stderr, "  %s%s\n", strings.Repeat(" ", te.Position), strings.Repeat("^", width))
}
