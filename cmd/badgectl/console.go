package main

import (
	"bufio"
	"errors"
	"io"
	"os"

	"github.com/pkg/term"
	xterm "golang.org/x/term"

	"github.com/ardnew/softbadge/pkg"
)

// ConsoleCmd bridges the terminal to a badge serial port.
type ConsoleCmd struct {
	Port  string `arg:"" help:"Serial device, e.g. /dev/ttyACM0" type:"path"`
	Baud  int    `help:"Line rate sent to the badge" default:"115200"`
	NoDTR bool   `name:"no-dtr" help:"Leave DTR low"`
}

// escapeKey is Ctrl-].
const escapeKey = 0x1d

var errEscape = errors.New("escape")

// Run opens the port raw and copies bytes both ways until Ctrl-].
func (c *ConsoleCmd) Run(g *Globals) error {
	tty, err := term.Open(c.Port, term.Speed(c.Baud), term.RawMode)
	if err != nil {
		return err
	}
	defer tty.Close()
	if !c.NoDTR {
		if err := tty.SetDTR(true); err != nil {
			pkg.LogWarn(pkg.ComponentUSB, "set DTR", "port", c.Port, "error", err)
		}
	}

	if f, ok := g.In.(*os.File); ok && xterm.IsTerminal(int(f.Fd())) {
		state, err := xterm.MakeRaw(int(f.Fd()))
		if err != nil {
			return err
		}
		defer xterm.Restore(int(f.Fd()), state)
	}
	good.Fprintf(g.Out, "connected to %s at %d baud, Ctrl-] exits\r\n", c.Port, c.Baud)

	done := make(chan error, 1)
	go func() {
		_, err := io.Copy(g.Out, tty)
		done <- err
	}()
	go func() {
		done <- pump(tty, g.In, escapeKey)
	}()

	err = <-done
	if errors.Is(err, errEscape) || errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// pump copies src to dst until src ends or yields the escape byte, which
// returns errEscape.
func pump(dst io.Writer, src io.Reader, escape byte) error {
	r := bufio.NewReader(src)
	for {
		b, err := r.ReadByte()
		if err != nil {
			return err
		}
		if b == escape {
			return errEscape
		}
		if _, err := dst.Write([]byte{b}); err != nil {
			return err
		}
	}
}
