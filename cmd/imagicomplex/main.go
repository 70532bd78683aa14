// Command imagicomplex checks, evaluates and samples complex formulas and
// generates reference grids from the command line.
//
//	imagicomplex check "sin(z)/z"
//	imagicomplex eval "z^2" --at 1+2i --at i
//	imagicomplex sample "1/z" --window=-2,2,-2,2 --resolution 0.5
//	imagicomplex grid radial-angle:1,45 --points
//	imagicomplex render --config imagicomplex.yaml -o yaml
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"github.com/imagicomplex/imagicomplex"
	"github.com/imagicomplex/imagicomplex/pkg/config"
)

// Context represents the global context for commands
type Context struct {
	Config  *config.Config
	Logger  *slog.Logger
	Output  string
	Verbose bool
	Quiet   bool
	Stdout  io.Writer
	Stderr  io.Writer
}

// CLI holds the parsed command line
var CLI cliArgs

// cliArgs represents the command-line interface
type cliArgs struct {
	Config  string `help:"Configuration file path (.yaml, .yml or .toml)" short:"c" type:"path"`
	Output  string `help:"Output format" short:"o" enum:"json,yaml" default:"json"`
	Verbose bool   `help:"Enable verbose output" short:"v"`
	Quiet   bool   `help:"Suppress diagnostics" short:"q"`

	Check     CheckCmd     `cmd:"" help:"Check that an expression compiles"`
	Eval      EvalCmd      `cmd:"" help:"Evaluate an expression at given points"`
	Sample    SampleCmd    `cmd:"" help:"Sample an expression over a region"`
	Grid      GridCmd      `cmd:"" help:"Generate a reference grid"`
	Functions FunctionsCmd `cmd:"" help:"List callable functions"`
	Render    RenderCmd    `cmd:"" help:"Render the expression and grids from the configuration"`
	Version   VersionCmd   `cmd:"" help:"Show version information"`
}

// VersionCmd represents the version command
type VersionCmd struct{}

// Run executes the version command
func (cmd *VersionCmd) Run(ctx *Context) error {
	_, err := fmt.Fprintln(ctx.Stdout, "imagicomplex "+imagicomplex.Version())
	return err
}

// newParser builds the kong parser for cli.
func newParser(cli *cliArgs, options ...kong.Option) (*kong.Kong, error) {
	return kong.New(cli, append([]kong.Option{
		kong.Name("imagicomplex"),
		kong.Description("Complex formula vector fields and reference grids."),
		kong.UsageOnError(),
	}, options...)...)
}

func main() {
	k, err := newParser(&CLI)
	if err != nil {
		panic(err)
	}
	ctx, err := k.Parse(os.Args[1:])
	k.FatalIfErrorf(err)

	cfg, err := config.Load(CLI.Config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if CLI.Verbose {
		cfg.Log.Level = "debug"
	}
	logger, err := config.NewLogger(cfg.Log, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	appCtx := &Context{
		Config:  cfg,
		Logger:  logger,
		Output:  CLI.Output,
		Verbose: CLI.Verbose,
		Quiet:   CLI.Quiet,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
	}

	if err := ctx.Run(appCtx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
