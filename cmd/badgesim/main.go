// Command badgesim runs the badge drivers against the simulated PyBadge.
package main

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/alecthomas/kong"
	"github.com/fatih/color"

	"github.com/ardnew/softbadge/board"
	"github.com/ardnew/softbadge/hal/sim"
	"github.com/ardnew/softbadge/internal/config"
	"github.com/ardnew/softbadge/pkg"
	"github.com/ardnew/softbadge/pkg/prof"
)

const appName = "badgesim"

// CLI is the badgesim command line.
type CLI struct {
	Config  string         `help:"Configuration file (JSON, YAML or TOML)" type:"path" env:"SOFTBADGE_CONFIG"`
	Log     config.Log     `embed:"" prefix:"log."`
	Profile config.Profile `embed:""`
	NoColor bool           `help:"Disable colored output" env:"NO_COLOR"`

	Tone    ToneCmd    `cmd:"" help:"Play a tone on the simulated speaker and save it as WAV"`
	Flash   FlashCmd   `cmd:"" help:"Operate on a simulated flash image"`
	Buttons ButtonsCmd `cmd:"" help:"Drive the simulated buttons from the keyboard"`
	Serial  SerialCmd  `cmd:"" help:"Enumerate the simulated USB serial port and echo a message"`
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

// session is the simulated badge. Board ownership is process-wide, so every
// command in a process shares it.
var session struct {
	once sync.Once
	hw   *sim.Board
	b    *board.Board
	err  error
}

func badge() (*sim.Board, *board.Board, error) {
	session.once.Do(func() {
		session.hw = sim.New()
		session.b, session.err = board.Take(session.hw.Peripherals())
	})
	return session.hw, session.b, session.err
}

func newParser(cli *CLI, args []string, extra ...kong.Option) (*kong.Kong, error) {
	opts := []kong.Option{
		kong.Name(appName),
		kong.Description("Simulated Adafruit PyBadge driver core."),
		kong.UsageOnError(),
	}
	opts = append(opts, config.Options(appName, args)...)
	opts = append(opts, extra...)
	return kong.New(cli, opts...)
}

// writeProfile saves the named runtime profile to path.
func writeProfile(name, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := prof.Snapshot(name, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
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
	if cli.Profile.CPU != "" || cli.Profile.Heap != "" {
		if !prof.Enabled {
			pkg.LogWarn(pkg.ComponentSim, "profiling not compiled in; rebuild with -tags profile")
		} else if cli.Profile.CPU != "" {
			parser.FatalIfErrorf(prof.StartCPU(cli.Profile.CPU))
		}
	}

	err = ctx.Run(&Globals{In: os.Stdin, Out: color.Output})
	prof.StopCPU()
	if cli.Profile.Heap != "" && prof.Enabled {
		if herr := writeProfile("heap", cli.Profile.Heap); herr != nil {
			pkg.LogWarn(pkg.ComponentSim, "heap profile", "path", cli.Profile.Heap, "error", herr)
		}
	}
	if err != nil {
		pkg.LogDebug(pkg.ComponentSim, "command failed", "fault", pkg.Classify(err))
	}
	ctx.FatalIfErrorf(err)
}
