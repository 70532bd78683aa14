// Package config loads the settings of a plotting session from a YAML or TOML
// file, a .env file and the environment.
//
// Precedence, lowest first: Default(), the configuration file, variables
// from .env in the working directory, the process environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"

	"github.com/imagicomplex/imagicomplex/pkg/evaluator"
	"github.com/imagicomplex/imagicomplex/pkg/grid"
	"github.com/imagicomplex/imagicomplex/pkg/parser"
	"github.com/imagicomplex/imagicomplex/pkg/sampler"
	"github.com/imagicomplex/imagicomplex/pkg/types"
)

// Environment variables that override file values.
const (
	EnvExpression = "IMAGICOMPLEX_EXPRESSION"
	EnvResolution = "IMAGICOMPLEX_RESOLUTION"
	EnvLogLevel   = "IMAGICOMPLEX_LOG_LEVEL"
	EnvLogFormat  = "IMAGICOMPLEX_LOG_FORMAT"
)

// Sentinel errors.
var (
	ErrConfigNotFound    = errors.New("config file not found")
	ErrUnsupportedFormat = errors.New("unsupported config file format")
)

// Config is the complete session configuration.
type Config struct {
	Expression string       `yaml:"expression" toml:"expression" json:"expression"`
	Region     types.Region `yaml:"region" toml:"region" json:"region"`
	Resolution float64      `yaml:"resolution" toml:"resolution" json:"resolution"`
	Grids      []grid.Spec  `yaml:"grids" toml:"grids" json:"grids"`

	Parser   ParserConfig   `yaml:"parser" toml:"parser" json:"parser"`
	Eval     EvalConfig     `yaml:"eval" toml:"eval" json:"eval"`
	Sampling SamplingConfig `yaml:"sampling" toml:"sampling" json:"sampling"`
	Cache    CacheConfig    `yaml:"cache" toml:"cache" json:"cache"`
	Log      LogConfig      `yaml:"log" toml:"log" json:"log"`
}

// ParserConfig holds compile options.
type ParserConfig struct {
	MaxDepth int  `yaml:"max_depth" toml:"max_depth" json:"maxDepth"`
	Folding  bool `yaml:"folding" toml:"folding" json:"folding"`
}

// EvalConfig holds evaluator options.
type EvalConfig struct {
	ZeroTolerance float64 `yaml:"zero_tolerance" toml:"zero_tolerance" json:"zeroTolerance"`
	Debug         bool    `yaml:"debug" toml:"debug" json:"debug"`
}

// SamplingConfig holds sampler options.
type SamplingConfig struct {
	Concurrency bool `yaml:"concurrency" toml:"concurrency" json:"concurrency"`
	Workers     int  `yaml:"workers" toml:"workers" json:"workers"`
	MaxPoints   int  `yaml:"max_points" toml:"max_points" json:"maxPoints"`
}

// CacheConfig sizes the compiled expression cache.
type CacheConfig struct {
	Size int `yaml:"size" toml:"size" json:"size"`
}

// LogConfig selects the log level and handler.
type LogConfig struct {
	Level  string `yaml:"level" toml:"level" json:"level"`
	Format string `yaml:"format" toml:"format" json:"format"` // text or json
}

// Default returns the startup configuration: the field z·i over
// [-10, 10] x [-10, 10] sampled every unit, with no grids.
func Default() *Config {
	return &Config{
		Expression: "z*i",
		Region:     types.SymmetricRegion(10, 10),
		Resolution: 1,
		Parser: ParserConfig{
			MaxDepth: parser.DefaultMaxDepth,
		},
		Sampling: SamplingConfig{
			Concurrency: true,
			MaxPoints:   sampler.DefaultMaxPoints,
		},
		Cache: CacheConfig{
			Size: 256,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads the configuration file at path on top of Default and applies
// .env and environment overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	if err := loadEnvFiles(); err != nil {
		return nil, fmt.Errorf("failed to load environment files: %w", err)
	}

	cfg := Default()

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrConfigNotFound, path)
	}
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		// Strict mode rejects unknown fields
		if err := yaml.UnmarshalWithOptions(data, c, yaml.Strict()); err != nil {
			return fmt.Errorf("failed to parse config file: %w", err)
		}
	case ".toml":
		md, err := toml.Decode(string(data), c)
		if err != nil {
			return fmt.Errorf("failed to parse config file: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return fmt.Errorf("failed to parse config file: unknown field %q", undecoded[0].String())
		}
	default:
		return fmt.Errorf("%w: %s (want .yaml, .yml or .toml)", ErrUnsupportedFormat, path)
	}
	return nil
}

// loadEnvFiles loads .env if it exists. Variables already set in the
// process environment win.
func loadEnvFiles() error {
	if _, err := os.Stat(".env"); err != nil {
		return nil
	}
	if err := godotenv.Load(".env"); err != nil {
		return fmt.Errorf("failed to load .env file: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v, ok := os.LookupEnv(EnvExpression); ok {
		c.Expression = v
	}
	if v, ok := os.LookupEnv(EnvResolution); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return types.NewConfigError(types.ErrInvalidConfigValue, "%s: invalid number %q", EnvResolution, v).WithCause(err)
		}
		c.Resolution = f
	}
	if v, ok := os.LookupEnv(EnvLogLevel); ok {
		c.Log.Level = v
	}
	if v, ok := os.LookupEnv(EnvLogFormat); ok {
		c.Log.Format = v
	}
	return nil
}

// Validate checks every value. The expression itself is not compiled here.
func (c *Config) Validate() error {
	if err := c.Region.Validate(); err != nil {
		return err
	}
	if !(c.Resolution > 0) {
		return types.NewConfigError(types.ErrInvalidResolution, "resolution must be positive, got %v", c.Resolution)
	}
	if _, err := c.GridConfigs(); err != nil {
		return err
	}
	if c.Parser.MaxDepth < 0 {
		return types.NewConfigError(types.ErrInvalidConfigValue, "parser.max_depth must not be negative, got %d", c.Parser.MaxDepth)
	}
	if c.Eval.ZeroTolerance < 0 {
		return types.NewConfigError(types.ErrInvalidConfigValue, "eval.zero_tolerance must not be negative, got %v", c.Eval.ZeroTolerance)
	}
	if c.Sampling.Workers < 0 || c.Sampling.MaxPoints < 0 {
		return types.NewConfigError(types.ErrInvalidConfigValue, "sampling.workers and sampling.max_points must not be negative")
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		return types.NewConfigError(types.ErrInvalidConfigValue, "log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}

// GridConfigs converts the grid specs, reporting the first invalid one.
func (c *Config) GridConfigs() ([]grid.Config, error) {
	out := make([]grid.Config, 0, len(c.Grids))
	for i, spec := range c.Grids {
		g, err := spec.Config()
		if err != nil {
			return nil, fmt.Errorf("grids[%d]: %w", i, err)
		}
		out = append(out, g)
	}
	return out, nil
}

// CompileOptions returns the parser options described by the configuration.
func (c *Config) CompileOptions() []parser.CompileOption {
	opts := []parser.CompileOption{parser.WithFolding(c.Parser.Folding)}
	if c.Parser.MaxDepth > 0 {
		opts = append(opts, parser.WithMaxDepth(c.Parser.MaxDepth))
	}
	return opts
}

// EvalOptions returns the evaluator options described by the configuration.
func (c *Config) EvalOptions() []evaluator.EvalOption {
	return []evaluator.EvalOption{
		evaluator.WithZeroTolerance(c.Eval.ZeroTolerance),
		evaluator.WithDebug(c.Eval.Debug),
	}
}

// SampleOptions returns the sampler options described by the configuration.
// The evaluator is built from EvalOptions.
func (c *Config) SampleOptions(extra ...evaluator.EvalOption) []sampler.SampleOption {
	evalOpts := append(c.EvalOptions(), extra...)
	opts := []sampler.SampleOption{
		sampler.WithConcurrency(c.Sampling.Concurrency),
		sampler.WithWorkers(c.Sampling.Workers),
		sampler.WithEvaluator(evaluator.New(evalOpts...)),
	}
	if c.Sampling.MaxPoints > 0 {
		opts = append(opts, sampler.WithMaxPoints(c.Sampling.MaxPoints))
	}
	return opts
}
