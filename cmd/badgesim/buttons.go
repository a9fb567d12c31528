package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/ardnew/softbadge/buttons"
)

// ButtonsCmd maps keys to badge buttons.
type ButtonsCmd struct{}

// Key bindings: WASD or arrows for the pad, j/k for A/B, Enter for Start,
// Space for Select, q or Ctrl-C to quit.
var keyButtons = map[byte]buttons.Button{
	'w': buttons.Up, 'a': buttons.Left, 's': buttons.Down, 'd': buttons.Right,
	'j': buttons.A, 'k': buttons.B,
	'\r': buttons.Start, '\n': buttons.Start,
	' ': buttons.Select,
}

var arrowButtons = map[byte]buttons.Button{
	'A': buttons.Up, 'B': buttons.Down, 'C': buttons.Right, 'D': buttons.Left,
}

const ctrlC = 0x03

// Run taps a button for every key read from the input until q.
func (c *ButtonsCmd) Run(g *Globals) error {
	hw, b, err := badge()
	if err != nil {
		return err
	}
	if f, ok := g.In.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		state, err := term.MakeRaw(int(f.Fd()))
		if err != nil {
			return err
		}
		defer term.Restore(int(f.Fd()), state)
	}
	title.Fprint(g.Out, "wasd/arrows pad, j=A k=B, enter=Start space=Select, q quits\r\n")

	tap := func(btn buttons.Button) error {
		for _, press := range []bool{true, false} {
			if press {
				hw.Buttons.Press(uint8(btn))
			} else {
				hw.Buttons.Release(uint8(btn))
			}
			if err := b.Buttons.Update(); err != nil {
				return err
			}
			for ev := range b.Buttons.Events().All() {
				if ev.Pressed {
					good.Fprintf(g.Out, "%v\r\n", ev)
				} else {
					fmt.Fprintf(g.Out, "%v\r\n", ev)
				}
			}
		}
		return nil
	}

	in := bufio.NewReader(g.In)
	for {
		k, err := in.ReadByte()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		switch k {
		case 'q', ctrlC:
			return nil
		case 0x1b:
			if next, _ := in.ReadByte(); next != '[' {
				continue
			}
			code, _ := in.ReadByte()
			if btn, ok := arrowButtons[code]; ok {
				if err := tap(btn); err != nil {
					return err
				}
			}
			continue
		}
		if btn, ok := keyButtons[k]; ok {
			if err := tap(btn); err != nil {
				return err
			}
		}
	}
}
