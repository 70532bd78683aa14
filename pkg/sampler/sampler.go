// Package sampler evaluates a compiled expression over a regular lattice of
// the complex plane to produce the vector field handed to a renderer.
//
// A singular point never aborts a pass: its SamplePoint carries the
// evaluation error and every other point keeps its value.
//
// # Example
//
//	s := sampler.New()
//	lat, err := s.Sample(ctx, expr, types.SymmetricRegion(10, 10), 1)
//	if err != nil {
//	    return err
//	}
//	for row := 0; row < lat.Rows; row++ {
//	    for col := 0; col < lat.Cols; col++ {
//	        p := lat.At(col, row)
//	        if p.Defined() {
//	            draw(p.Position, p.Value)
//	        }
//	    }
//	}
package sampler

import (
	"context"
	"log/slog"
	"math"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/imagicomplex/imagicomplex/pkg/evaluator"
	"github.com/imagicomplex/imagicomplex/pkg/types"
)

// DefaultMaxPoints is the lattice size limit applied when WithMaxPoints is not given.
const DefaultMaxPoints = 1 << 20

// countEps absorbs floating point error when dividing the extent by the resolution.
const countEps = 1e-9

// SamplePoint is the field value at one position, or the reason it is undefined.
type SamplePoint struct {
	Position complex128
	Value    complex128
	Err      error
}

// Defined reports whether the field has a value at this point.
func (p SamplePoint) Defined() bool {
	return p.Err == nil
}

// Lattice is a row-major grid of samples. Row 0 is at Region.MinY and
// column 0 at Region.MinX; both indices grow with the coordinate.
type Lattice struct {
	Region     types.Region
	Resolution float64
	Cols       int
	Rows       int
	Points     []SamplePoint
}

// At returns the sample in column col and row row.
func (l *Lattice) At(col, row int) SamplePoint {
	return l.Points[row*l.Cols+col]
}

// Defined returns the number of points with a value.
func (l *Lattice) Defined() int {
	return len(l.Points) - l.Undefined()
}

// Undefined returns the number of points marked undefined.
func (l *Lattice) Undefined() int {
	n := 0
	for _, p := range l.Points {
		if !p.Defined() {
			n++
		}
	}
	return n
}

// defaultConcurrency controls the default value of SampleOptions.Concurrency.
// It is false on WebAssembly targets, see sampler_wasm.go.
var defaultConcurrency = true

// Sampler evaluates expressions over lattices. It keeps no state between
// calls and is safe for concurrent use.
type Sampler struct {
	opts      SampleOptions
	logger    *slog.Logger
	evaluator *evaluator.Evaluator
}

// SampleOptions configures sampling behavior.
type SampleOptions struct {
	// MaxPoints bounds the number of lattice points of a single pass.
	MaxPoints int
	// Concurrency evaluates rows in parallel.
	Concurrency bool
	// Workers is the number of goroutines used when Concurrency is set.
	// Defaults to GOMAXPROCS.
	Workers int
	// Evaluator evaluates each point. Defaults to evaluator.New().
	Evaluator *evaluator.Evaluator
	// Logger for structured logging.
	Logger *slog.Logger
}

// SampleOption configures a Sampler.
type SampleOption func(*SampleOptions)

// WithMaxPoints sets the lattice size limit.
func WithMaxPoints(n int) SampleOption {
	return func(opts *SampleOptions) {
		opts.MaxPoints = n
	}
}

// WithConcurrency enables or disables parallel evaluation of rows.
func WithConcurrency(enabled bool) SampleOption {
	return func(opts *SampleOptions) {
		opts.Concurrency = enabled
	}
}

// WithWorkers sets the number of goroutines used for parallel evaluation.
func WithWorkers(n int) SampleOption {
	return func(opts *SampleOptions) {
		opts.Workers = n
	}
}

// WithEvaluator sets the evaluator used for every point.
func WithEvaluator(ev *evaluator.Evaluator) SampleOption {
	return func(opts *SampleOptions) {
		opts.Evaluator = ev
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) SampleOption {
	return func(opts *SampleOptions) {
		opts.Logger = logger
	}
}

// New creates a Sampler.
func New(opts ...SampleOption) *Sampler {
	options := SampleOptions{
		MaxPoints:   DefaultMaxPoints,
		Concurrency: defaultConcurrency,
	}
	for _, opt := range opts {
		opt(&options)
	}

	if options.Workers <= 0 {
		options.Workers = runtime.GOMAXPROCS(0)
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}
	if options.Evaluator == nil {
		options.Evaluator = evaluator.New(evaluator.WithLogger(options.Logger))
	}

	return &Sampler{
		opts:      options,
		logger:    options.Logger,
		evaluator: options.Evaluator,
	}
}

// Dimensions returns the lattice size for region at resolution:
// floor(extent/resolution) + 1 points per axis.
func Dimensions(region types.Region, resolution float64) (cols, rows int, err error) {
	if err := region.Validate(); err != nil {
		return 0, 0, err
	}
	if !(resolution > 0) || math.IsInf(resolution, 0) {
		return 0, 0, types.NewConfigError(types.ErrInvalidResolution, "resolution must be a positive finite number, got %v", resolution)
	}

	c := math.Floor(region.Width()/resolution+countEps) + 1
	r := math.Floor(region.Height()/resolution+countEps) + 1
	if c*r > math.MaxInt32 {
		return 0, 0, types.NewConfigError(types.ErrTooManySamples, "lattice of %.0f x %.0f points is too large", c, r)
	}
	return int(c), int(r), nil
}

// Sample evaluates expr at every lattice point of region spaced resolution
// apart. Evaluation errors are recorded per point. The returned error is
// non-nil only for invalid inputs, an oversized lattice or a cancelled ctx.
func (s *Sampler) Sample(ctx context.Context, expr *types.Expression, region types.Region, resolution float64) (*Lattice, error) {
	if expr == nil {
		return nil, types.NewConfigError(types.ErrMissingExpression, "no expression to sample")
	}

	cols, rows, err := Dimensions(region, resolution)
	if err != nil {
		return nil, err
	}
	if cols*rows > s.opts.MaxPoints {
		return nil, types.NewConfigError(types.ErrTooManySamples,
			"lattice of %d x %d points exceeds the limit of %d", cols, rows, s.opts.MaxPoints)
	}

	start := time.Now()
	lat := &Lattice{
		Region:     region,
		Resolution: resolution,
		Cols:       cols,
		Rows:       rows,
		Points:     make([]SamplePoint, cols*rows),
	}

	fillRow := func(row int) {
		y := region.MinY + float64(row)*resolution
		line := lat.Points[row*cols : (row+1)*cols]
		for col := range line {
			z := complex(region.MinX+float64(col)*resolution, y)
			w, err := s.evaluator.Eval(expr, z)
			line[col] = SamplePoint{Position: z, Value: w, Err: err}
		}
	}

	if err := s.run(ctx, rows, fillRow); err != nil {
		return nil, err
	}

	s.logger.Debug("sampled lattice",
		"expression", expr.Source(),
		"cols", cols,
		"rows", rows,
		"undefined", lat.Undefined(),
		"duration", time.Since(start))

	return lat, nil
}

// SamplePoints evaluates expr at each of positions, in order.
func (s *Sampler) SamplePoints(ctx context.Context, expr *types.Expression, positions []complex128) ([]SamplePoint, error) {
	if expr == nil {
		return nil, types.NewConfigError(types.ErrMissingExpression, "no expression to sample")
	}
	if len(positions) > s.opts.MaxPoints {
		return nil, types.NewConfigError(types.ErrTooManySamples,
			"%d points exceed the limit of %d", len(positions), s.opts.MaxPoints)
	}

	out := make([]SamplePoint, len(positions))
	const chunk = 256
	chunks := (len(positions) + chunk - 1) / chunk

	err := s.run(ctx, chunks, func(i int) {
		end := min((i+1)*chunk, len(positions))
		for j := i * chunk; j < end; j++ {
			w, err := s.evaluator.Eval(expr, positions[j])
			out[j] = SamplePoint{Position: positions[j], Value: w, Err: err}
		}
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// run calls work for 0..n-1, in parallel when enabled. ctx is checked before
// every unit of work.
func (s *Sampler) run(ctx context.Context, n int, work func(i int)) error {
	if !s.opts.Concurrency || s.opts.Workers == 1 || n <= 1 {
		for i := 0; i < n; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			work(i)
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)
	for i := 0; i < n; i++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			work(i)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
