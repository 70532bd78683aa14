// Package session holds the state a presentation layer owns: the active
// expression and the list of active grids.
//
// Failures are local. A rejected expression leaves the previous one active;
// a rejected grid leaves the existing grids untouched; a singular sample
// point only marks that point undefined.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/imagicomplex/imagicomplex/pkg/cache"
	"github.com/imagicomplex/imagicomplex/pkg/grid"
	"github.com/imagicomplex/imagicomplex/pkg/parser"
	"github.com/imagicomplex/imagicomplex/pkg/sampler"
	"github.com/imagicomplex/imagicomplex/pkg/types"
)

// Frame is one render of the session: the sampled field and the primitives
// of each active grid, in the order the grids were added.
type Frame struct {
	Expression *types.Expression
	Lattice    *sampler.Lattice // nil when no expression is active
	Grids      [][]grid.Primitive
}

// Session is safe for concurrent use.
type Session struct {
	mu      sync.RWMutex
	expr    *types.Expression
	grids   []grid.Config
	opts    Options
	cache   *cache.Cache
	sampler *sampler.Sampler
	logger  *slog.Logger
}

// Options configures a Session.
type Options struct {
	CompileOptions []parser.CompileOption
	Sampler        *sampler.Sampler
	Cache          *cache.Cache
	Logger         *slog.Logger
}

// Option configures a Session.
type Option func(*Options)

// WithCompileOptions sets the options every expression is compiled with.
func WithCompileOptions(opts ...parser.CompileOption) Option {
	return func(o *Options) {
		o.CompileOptions = append(o.CompileOptions, opts...)
	}
}

// WithSampler sets the sampler used by Render.
func WithSampler(s *sampler.Sampler) Option {
	return func(o *Options) {
		o.Sampler = s
	}
}

// WithCache sets the compiled expression cache.
func WithCache(c *cache.Cache) Option {
	return func(o *Options) {
		o.Cache = c
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// New creates an empty Session.
func New(opts ...Option) *Session {
	var options Options
	for _, opt := range opts {
		opt(&options)
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}
	if options.Cache == nil {
		options.Cache = cache.New(cache.DefaultCapacity)
	}
	if options.Sampler == nil {
		options.Sampler = sampler.New(sampler.WithLogger(options.Logger))
	}

	return &Session{
		opts:    options,
		cache:   options.Cache,
		sampler: options.Sampler,
		logger:  options.Logger,
	}
}

// SetExpression compiles text and makes it the active expression.
// On error the previously active expression, if any, stays active.
func (s *Session) SetExpression(text string) (*types.Expression, error) {
	expr, err := s.cache.GetOrCompile(text, func() (*types.Expression, error) {
		return parser.Compile(text, s.opts.CompileOptions...)
	})
	if err != nil {
		s.logger.Debug("expression rejected", "expression", text, "error", err)
		return nil, err
	}

	s.mu.Lock()
	s.expr = expr
	s.mu.Unlock()

	s.logger.Debug("expression set", "expression", text)
	return expr, nil
}

// ClearExpression removes the active expression.
func (s *Session) ClearExpression() {
	s.mu.Lock()
	s.expr = nil
	s.mu.Unlock()
}

// Expression returns the active expression, or nil.
func (s *Session) Expression() *types.Expression {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expr
}

// AddGrid validates cfg and appends it to the active grids.
// An invalid cfg is rejected and the active grids are unchanged.
func (s *Session) AddGrid(cfg grid.Config) error {
	if cfg == nil {
		return types.NewConfigError(types.ErrUnknownGridKind, "grid config is nil")
	}
	if err := cfg.Validate(); err != nil {
		s.logger.Debug("grid rejected", "grid", fmt.Sprint(cfg), "error", err)
		return err
	}

	s.mu.Lock()
	s.grids = append(s.grids, cfg)
	s.mu.Unlock()
	return nil
}

// RemoveGrid removes the grid at index i.
func (s *Session) RemoveGrid(i int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.grids) {
		return fmt.Errorf("grid index %d out of range [0, %d)", i, len(s.grids))
	}
	s.grids = append(s.grids[:i:i], s.grids[i+1:]...)
	return nil
}

// ClearGrids removes every active grid.
func (s *Session) ClearGrids() {
	s.mu.Lock()
	s.grids = nil
	s.mu.Unlock()
}

// Grids returns a copy of the active grids.
func (s *Session) Grids() []grid.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]grid.Config, len(s.grids))
	copy(out, s.grids)
	return out
}

// Render samples the active expression over region and generates every
// active grid. Nothing is reused from earlier calls.
func (s *Session) Render(ctx context.Context, region types.Region, resolution float64) (*Frame, error) {
	s.mu.RLock()
	expr := s.expr
	grids := make([]grid.Config, len(s.grids))
	copy(grids, s.grids)
	s.mu.RUnlock()

	if err := region.Validate(); err != nil {
		return nil, err
	}

	frame := &Frame{Expression: expr, Grids: make([][]grid.Primitive, len(grids))}

	if expr != nil {
		lat, err := s.sampler.Sample(ctx, expr, region, resolution)
		if err != nil {
			return nil, fmt.Errorf("sample %q: %w", expr.Source(), err)
		}
		frame.Lattice = lat
	}

	for i, cfg := range grids {
		prims, err := grid.Generate(cfg, region)
		if err != nil {
			return nil, fmt.Errorf("grid %d (%v): %w", i, cfg, err)
		}
		frame.Grids[i] = prims
	}

	return frame, nil
}
