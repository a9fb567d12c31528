// Command badgectl finds badges on the host USB bus and talks to their
// serial console.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"
	"github.com/fatih/color"

	"github.com/ardnew/softbadge/internal/config"
	"github.com/ardnew/softbadge/pkg"
)

const appName = "badgectl"

// CLI is the badgectl command line.
type CLI struct {
	Config  string     `help:"Configuration file (JSON, YAML or TOML)" type:"path" env:"SOFTBADGE_CONFIG"`
	Log     config.Log `embed:"" prefix:"log."`
	NoColor bool       `help:"Disable colored output" env:"NO_COLOR"`

	List    ListCmd    `cmd:"" help:"List attached badges"`
	Console ConsoleCmd `cmd:"" help:"Open a badge serial console (Ctrl-] exits)"`
}

// Globals is bound into every command.
type Globals struct {
	In  io.Reader
	Out io.Writer
}

var (
	title = color.New(color.FgCyan, color.Bold)
	good  = color.New(color.FgGreen)
	note  = color.New(color.FgYellow)
)

func newParser(cli *CLI, args []string, extra ...kong.Option) (*kong.Kong, error) {
	opts := []kong.Option{
		kong.Name(appName),
		kong.Description("Host-side control for PyBadge serial devices."),
		kong.UsageOnError(),
	}
	opts = append(opts, config.Options(appName, args)...)
	opts = append(opts, extra...)
	return kong.New(cli, opts...)
}

func main() {
	var cli CLI
	parser, err := newParser(&cli, os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	ctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	cli.Log.Apply(os.Stderr)
	if cli.NoColor {
		color.NoColor = true
	}
	err = ctx.Run(&Globals{In: os.Stdin, Out: color.Output})
	if err != nil {
		pkg.LogDebug(pkg.ComponentUSB, "command failed", "fault", pkg.Classify(err))
	}
	ctx.FatalIfErrorf(err)
}
