package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imagicomplex/imagicomplex/pkg/config"
	"github.com/imagicomplex/imagicomplex/pkg/grid"
	"github.com/imagicomplex/imagicomplex/pkg/types"
	"github.com/imagicomplex/imagicomplex/pkg/wire"
)

func parseArgs(t *testing.T, args ...string) (*kong.Context, *cliArgs, error) {
	t.Helper()
	var cli cliArgs
	k, err := newParser(&cli, kong.Exit(func(code int) { t.Fatalf("unexpected exit %d", code) }))
	require.NoError(t, err)
	kctx, err := k.Parse(args)
	return kctx, &cli, err
}

func run(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	kctx, cli, err := parseArgs(t, args...)
	require.NoError(t, err)

	var out, errOut bytes.Buffer
	appCtx := &Context{
		Config:  config.Default(),
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		Output:  cli.Output,
		Verbose: cli.Verbose,
		Quiet:   cli.Quiet,
		Stdout:  &out,
		Stderr:  &errOut,
	}
	err = kctx.Run(appCtx)
	return out.String(), errOut.String(), err
}

func TestParseArguments(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		command string
		check   func(t *testing.T, cli *cliArgs)
	}{
		{
			name:    "check",
			args:    []string{"check", "sin(z)/z"},
			command: "check <expression>",
			check: func(t *testing.T, cli *cliArgs) {
				assert.Equal(t, "sin(z)/z", cli.Check.Expression)
				assert.Equal(t, "json", cli.Output)
			},
		},
		{
			name:    "grid with flags",
			args:    []string{"grid", "radial-angle:1,45", "--points", "--window=-2,2,-2,2"},
			command: "grid <spec>",
			check: func(t *testing.T, cli *cliArgs) {
				assert.Equal(t, "radial-angle:1,45", cli.Grid.Spec)
				assert.True(t, cli.Grid.Points)
				assert.Equal(t, "-2,2,-2,2", cli.Grid.Window)
			},
		},
		{
			name:    "eval",
			args:    []string{"eval", "z^2", "--at", "1+2i"},
			command: "eval <expression>",
			check: func(t *testing.T, cli *cliArgs) {
				assert.Equal(t, "z^2", cli.Eval.Expression)
				assert.Contains(t, cli.Eval.At, "1+2i")
			},
		},
		{
			name:    "sample with global flags",
			args:    []string{"-o", "yaml", "-q", "sample", "1/z", "--resolution", "0.5", "--summary"},
			command: "sample <expression>",
			check: func(t *testing.T, cli *cliArgs) {
				assert.Equal(t, "yaml", cli.Output)
				assert.True(t, cli.Quiet)
				assert.Equal(t, "1/z", cli.Sample.Expression)
				assert.Equal(t, 0.5, cli.Sample.Resolution)
				assert.True(t, cli.Sample.Summary)
			},
		},
		{
			name:    "functions",
			args:    []string{"functions"},
			command: "functions",
		},
		{
			name:    "render",
			args:    []string{"render", "--window=-1,1,-1,1"},
			command: "render",
			check: func(t *testing.T, cli *cliArgs) {
				assert.Equal(t, "-1,1,-1,1", cli.Render.Window)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kctx, cli, err := parseArgs(t, tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.command, kctx.Command())
			if tt.check != nil {
				tt.check(t, cli)
			}
		})
	}
}

func TestParseArgumentErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"missing expression", []string{"check"}},
		{"missing grid spec", []string{"grid"}},
		{"unknown output format", []string{"-o", "xml", "functions"}},
		{"unknown command", []string{"plot"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := parseArgs(t, tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestCheckCommand(t *testing.T) {
	stdout, _, err := run(t, "check", "sin(z)")
	require.NoError(t, err)
	assert.Contains(t, stdout, "ok: sin(z)")

	stdout, stderr, err := run(t, "check", "2z")
	assert.ErrorIs(t, err, ErrExpressionCheck)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "S0204")
	assert.Contains(t, stderr, "^")

	_, stderr, err = run(t, "-q", "check", "sin(z")
	assert.ErrorIs(t, err, ErrExpressionCheck)
	assert.Empty(t, stderr)
}

func TestEvalCommand(t *testing.T) {
	stdout, _, err := run(t, "eval", "z^2", "--at", "i")
	require.NoError(t, err)

	var results []evalResult
	require.NoError(t, json.Unmarshal([]byte(stdout), &results))

	var found bool
	for _, r := range results {
		if r.Z != (wire.Complex{Im: 1}) {
			continue
		}
		found = true
		require.NotNil(t, r.W)
		assert.Equal(t, wire.Complex{Re: -1}, *r.W)
	}
	assert.True(t, found, "no result at i in %s", stdout)

	_, _, err = run(t, "eval", "z", "--at", "z+1")
	assert.ErrorIs(t, err, ErrNotConstant)
}

func TestSampleCommand(t *testing.T) {
	stdout, _, err := run(t, "sample", "1/z", "--window=-1,1,-1,1", "--resolution", "1", "--summary")
	require.NoError(t, err)

	var lat wire.Lattice
	require.NoError(t, json.Unmarshal([]byte(stdout), &lat))
	assert.Equal(t, 3, lat.Cols)
	assert.Equal(t, 3, lat.Rows)
	assert.Equal(t, 1, lat.Undefined)
	assert.Nil(t, lat.Samples)

	_, _, err = run(t, "sample", "z", "--window=1,0,0,1")
	assert.True(t, types.IsCode(err, types.ErrInvalidRegion), "got %v", err)

	_, _, err = run(t, "sample", "z", "--window=1,2,3")
	assert.ErrorIs(t, err, ErrInvalidWindow)
}

func TestGridCommand(t *testing.T) {
	stdout, _, err := run(t, "grid", "square:1", "--window=-1,1,-1,1")
	require.NoError(t, err)
	var prims []grid.Primitive
	require.NoError(t, json.Unmarshal([]byte(stdout), &prims))
	assert.Len(t, prims, 6)

	stdout, _, err = run(t, "grid", "radial-angle:1,90", "--points", "--window=-1,1,-1,1")
	require.NoError(t, err)
	var pts []wire.Complex
	require.NoError(t, json.Unmarshal([]byte(stdout), &pts))
	assert.Len(t, pts, 1+4)
	assert.Equal(t, wire.Complex{}, pts[0])

	_, _, err = run(t, "grid", "square:-1")
	assert.True(t, types.IsCode(err, types.ErrNonPositiveValue), "got %v", err)
}

func TestFunctionsCommand(t *testing.T) {
	stdout, _, err := run(t, "functions")
	require.NoError(t, err)
	var infos []functionInfo
	require.NoError(t, json.Unmarshal([]byte(stdout), &infos))
	assert.Len(t, infos, 13)

	stdout, _, err = run(t, "-o", "yaml", "functions")
	require.NoError(t, err)
	assert.Contains(t, stdout, "name: sin")
}

func TestRenderCommand(t *testing.T) {
	stdout, _, err := run(t, "render", "--window=-1,1,-1,1")
	require.NoError(t, err)

	var resp wire.Response
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Nil(t, resp.Error)
	assert.Equal(t, "z*i", resp.Expression)
	require.NotNil(t, resp.Lattice)
	assert.Len(t, resp.Lattice.Samples, 9)
}

func TestVersionCommand(t *testing.T) {
	stdout, _, err := run(t, "version")
	require.NoError(t, err)
	assert.Regexp(t, `^imagicomplex v\d+\.\d+\.\d+`, stdout)
}
