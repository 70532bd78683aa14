package config_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imagicomplex/imagicomplex/pkg/config"
	"github.com/imagicomplex/imagicomplex/pkg/grid"
	"github.com/imagicomplex/imagicomplex/pkg/parser"
	"github.com/imagicomplex/imagicomplex/pkg/sampler"
	"github.com/imagicomplex/imagicomplex/pkg/types"
)

const yamlConfig = `
expression: sin(z)/z
region:
  min_x: -4
  max_x: 4
  min_y: -3
  max_y: 3
resolution: 0.5
grids:
  - kind: square
    spacing: 1
  - kind: radial-angle
    radius_increment: 1
    angle: 45
  - kind: radial-distance
    radius_increment: 2
    arc_distance: 0.5
parser:
  max_depth: 64
  folding: true
eval:
  zero_tolerance: 1.0e-12
sampling:
  concurrency: false
  workers: 2
  max_points: 10000
cache:
  size: 16
log:
  level: debug
  format: json
`

const tomlConfig = `
expression = "1/z"
resolution = 0.25

[region]
min_x = -1.0
max_x = 1.0
min_y = -2.0
max_y = 2.0

[[grids]]
kind = "square"
spacing = 0.5

[[grids]]
kind = "radial-angle"
radius_increment = 0.5
angle = 30.0

[sampling]
concurrency = true
workers = 4

[log]
level = "warn"
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{config.EnvExpression, config.EnvResolution, config.EnvLogLevel, config.EnvLogFormat} {
		if v, ok := os.LookupEnv(key); ok {
			require.NoError(t, os.Unsetenv(key))
			t.Cleanup(func() { _ = os.Setenv(key, v) })
		}
	}
}

func TestDefault(t *testing.T) {
	cfg := config.Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "z*i", cfg.Expression)
	assert.Equal(t, types.SymmetricRegion(10, 10), cfg.Region)
	assert.Equal(t, 1.0, cfg.Resolution)
	assert.Empty(t, cfg.Grids)
	assert.Equal(t, parser.DefaultMaxDepth, cfg.Parser.MaxDepth)
	assert.True(t, cfg.Sampling.Concurrency)
	assert.Equal(t, sampler.DefaultMaxPoints, cfg.Sampling.MaxPoints)
}

func TestLoadWithoutFile(t *testing.T) {
	clearEnv(t)
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestLoadYAML(t *testing.T) {
	clearEnv(t)
	cfg, err := config.Load(writeFile(t, "imagicomplex.yaml", yamlConfig))
	require.NoError(t, err)

	assert.Equal(t, "sin(z)/z", cfg.Expression)
	assert.Equal(t, types.Region{MinX: -4, MaxX: 4, MinY: -3, MaxY: 3}, cfg.Region)
	assert.Equal(t, 0.5, cfg.Resolution)
	assert.Equal(t, []grid.Spec{
		{Kind: grid.KindSquare, Spacing: 1},
		{Kind: grid.KindRadialAngle, RadiusIncrement: 1, Angle: 45},
		{Kind: grid.KindRadialDistance, RadiusIncrement: 2, ArcDistance: 0.5},
	}, cfg.Grids)
	assert.Equal(t, config.ParserConfig{MaxDepth: 64, Folding: true}, cfg.Parser)
	assert.Equal(t, 1e-12, cfg.Eval.ZeroTolerance)
	assert.Equal(t, config.SamplingConfig{Concurrency: false, Workers: 2, MaxPoints: 10000}, cfg.Sampling)
	assert.Equal(t, 16, cfg.Cache.Size)
	assert.Equal(t, config.LogConfig{Level: "debug", Format: "json"}, cfg.Log)

	grids, err := cfg.GridConfigs()
	require.NoError(t, err)
	assert.Equal(t, []grid.Config{
		grid.Square{Spacing: 1},
		grid.RadialFixedAngle{RadiusIncrement: 1, AngleStep: 45},
		grid.RadialApproxDistance{RadiusIncrement: 2, ArcDistance: 0.5},
	}, grids)
}

func TestLoadTOML(t *testing.T) {
	clearEnv(t)
	cfg, err := config.Load(writeFile(t, "imagicomplex.toml", tomlConfig))
	require.NoError(t, err)

	assert.Equal(t, "1/z", cfg.Expression)
	assert.Equal(t, types.Region{MinX: -1, MaxX: 1, MinY: -2, MaxY: 2}, cfg.Region)
	assert.Equal(t, 0.25, cfg.Resolution)
	require.Len(t, cfg.Grids, 2)
	assert.Equal(t, grid.KindRadialAngle, cfg.Grids[1].Kind)
	assert.Equal(t, 30.0, cfg.Grids[1].Angle)
	assert.Equal(t, 4, cfg.Sampling.Workers)
	assert.Equal(t, "warn", cfg.Log.Level)

	// Unset sections keep their defaults.
	assert.Equal(t, parser.DefaultMaxDepth, cfg.Parser.MaxDepth)
	assert.Equal(t, 256, cfg.Cache.Size)
}

func TestLoadErrors(t *testing.T) {
	clearEnv(t)
	tests := []struct {
		name    string
		file    string
		content string
		check   func(t *testing.T, err error)
	}{
		{
			name: "unknown yaml field", file: "c.yaml", content: "expresion: z\n",
			check: func(t *testing.T, err error) { assert.ErrorContains(t, err, "failed to parse config file") },
		},
		{
			name: "unknown toml field", file: "c.toml", content: "expresion = \"z\"\n",
			check: func(t *testing.T, err error) { assert.ErrorContains(t, err, "unknown field") },
		},
		{
			name: "malformed yaml", file: "c.yml", content: "region: [\n",
			check: func(t *testing.T, err error) { assert.ErrorContains(t, err, "failed to parse config file") },
		},
		{
			name: "unsupported extension", file: "c.json", content: "{}",
			check: func(t *testing.T, err error) { assert.ErrorIs(t, err, config.ErrUnsupportedFormat) },
		},
		{
			name: "invalid region", file: "c.yaml", content: "region: {min_x: 1, max_x: 0, min_y: 0, max_y: 1}\n",
			check: func(t *testing.T, err error) { assert.True(t, types.IsCode(err, types.ErrInvalidRegion), "got %v", err) },
		},
		{
			name: "invalid resolution", file: "c.yaml", content: "resolution: 0\n",
			check: func(t *testing.T, err error) { assert.True(t, types.IsCode(err, types.ErrInvalidResolution), "got %v", err) },
		},
		{
			name: "invalid grid", file: "c.yaml", content: "grids:\n  - kind: radial-angle\n    radius_increment: 1\n    angle: 0\n",
			check: func(t *testing.T, err error) {
				assert.True(t, types.IsCode(err, types.ErrAngleOutOfRange), "got %v", err)
				assert.ErrorContains(t, err, "grids[0]")
			},
		},
		{
			name: "unknown grid kind", file: "c.yaml", content: "grids:\n  - kind: hexagonal\n",
			check: func(t *testing.T, err error) { assert.True(t, types.IsCode(err, types.ErrUnknownGridKind), "got %v", err) },
		},
		{
			name: "invalid log level", file: "c.yaml", content: "log: {level: loud}\n",
			check: func(t *testing.T, err error) { assert.True(t, types.IsCode(err, types.ErrInvalidConfigValue), "got %v", err) },
		},
		{
			name: "invalid log format", file: "c.yaml", content: "log: {format: xml}\n",
			check: func(t *testing.T, err error) { assert.True(t, types.IsCode(err, types.ErrInvalidConfigValue), "got %v", err) },
		},
		{
			name: "negative tolerance", file: "c.yaml", content: "eval: {zero_tolerance: -1}\n",
			check: func(t *testing.T, err error) { assert.True(t, types.IsCode(err, types.ErrInvalidConfigValue), "got %v", err) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := config.Load(writeFile(t, tt.file, tt.content))
			require.Error(t, err)
			assert.Nil(t, cfg)
			tt.check(t, err)
		})
	}

	t.Run("missing file", func(t *testing.T) {
		_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.ErrorIs(t, err, config.ErrConfigNotFound)
	})
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(config.EnvExpression, "exp(z)")
	t.Setenv(config.EnvResolution, " 0.125 ")
	t.Setenv(config.EnvLogLevel, "error")
	t.Setenv(config.EnvLogFormat, "json")

	cfg, err := config.Load(writeFile(t, "c.yaml", yamlConfig))
	require.NoError(t, err)
	assert.Equal(t, "exp(z)", cfg.Expression)
	assert.Equal(t, 0.125, cfg.Resolution)
	assert.Equal(t, config.LogConfig{Level: "error", Format: "json"}, cfg.Log)
	// Values without an override still come from the file.
	assert.Equal(t, 16, cfg.Cache.Size)
}

func TestEnvOverrideInvalid(t *testing.T) {
	t.Setenv(config.EnvResolution, "fine")
	_, err := config.Load("")
	assert.True(t, types.IsCode(err, types.ErrInvalidConfigValue), "got %v", err)
}

func TestDotEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(config.EnvExpression+"=conj(z)\n"), 0o600))
	t.Chdir(dir)
	t.Cleanup(func() { _ = os.Unsetenv(config.EnvExpression) })

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "conj(z)", cfg.Expression)
}

func TestDotEnvDoesNotOverrideEnvironment(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(config.EnvExpression+"=conj(z)\n"), 0o600))
	t.Chdir(dir)
	t.Setenv(config.EnvExpression, "z^3")

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "z^3", cfg.Expression)
}

func TestOptions(t *testing.T) {
	cfg := config.Default()
	cfg.Parser.Folding = true
	cfg.Parser.MaxDepth = 3
	cfg.Eval.ZeroTolerance = 0.5

	expr, err := parser.Compile("2*3 + z", cfg.CompileOptions()...)
	require.NoError(t, err)
	assert.Equal(t, "(6 + z)", expr.AST().String())

	_, err = parser.Compile("((((z))))", cfg.CompileOptions()...)
	assert.True(t, types.IsCode(err, types.ErrMaxDepthExceeded))

	s := sampler.New(cfg.SampleOptions()...)
	pts, err := s.SamplePoints(t.Context(), expr, []complex128{complex(-6.25, 0)})
	require.NoError(t, err)
	assert.True(t, pts[0].Defined())

	div, err := parser.Compile("1/z")
	require.NoError(t, err)
	pts, err = s.SamplePoints(t.Context(), div, []complex128{complex(0.25, 0), 2})
	require.NoError(t, err)
	assert.False(t, pts[0].Defined())
	assert.True(t, pts[1].Defined())
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := config.NewLogger(config.LogConfig{Level: "warn", Format: "json"}, &buf)
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown", "k", 1)

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "shown", record["msg"])
	assert.Equal(t, "WARN", record["level"])

	buf.Reset()
	logger, err = config.NewLogger(config.LogConfig{}, &buf)
	require.NoError(t, err)
	assert.True(t, logger.Enabled(t.Context(), slog.LevelInfo))
	assert.False(t, logger.Enabled(t.Context(), slog.LevelDebug))
	logger.Info("text")
	assert.Contains(t, buf.String(), "msg=text")

	_, err = config.NewLogger(config.LogConfig{Level: "verbose"}, &buf)
	assert.True(t, types.IsCode(err, types.ErrInvalidConfigValue))
}
