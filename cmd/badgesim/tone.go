package main

import (
	"fmt"
	"os"
	"time"

	"github.com/ardnew/softbadge/hal/sim"
	"github.com/ardnew/softbadge/internal/wavcap"
)

// ToneCmd records a tone from the simulated speaker.
type ToneCmd struct {
	Freq     uint32        `help:"Tone frequency in Hz" default:"440"`
	Duration time.Duration `help:"Recording length" default:"1s"`
	Rate     int           `help:"WAV sample rate" default:"44100"`
	Out      string        `help:"Output WAV file" default:"tone.wav" type:"path"`
}

// speaker adapts the simulated board to a capture source.
type speaker struct{ hw *sim.Board }

func (s speaker) Advance(d time.Duration) { s.hw.Advance(d) }

func (s speaker) Level() (bool, bool) {
	return s.hw.Speaker.Level(), s.hw.SpeakerEnable.Level()
}

// Run plays the tone for the requested duration and writes the WAV file.
func (c *ToneCmd) Run(g *Globals) error {
	hw, b, err := badge()
	if err != nil {
		return err
	}
	if err := b.Sound.SetFreq(c.Freq); err != nil {
		return err
	}
	if err := b.Sound.Enable(); err != nil {
		return err
	}
	capture := wavcap.New(c.Rate)
	capture.Record(speaker{hw}, c.Duration)
	if err := b.Sound.Disable(); err != nil {
		return err
	}

	f, err := os.Create(c.Out)
	if err != nil {
		return err
	}
	if err := capture.Encode(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	title.Fprintf(g.Out, "tone %d Hz\n", c.Freq)
	fmt.Fprintf(g.Out, "  samples   %d at %d Hz\n", len(capture.Samples), capture.SampleRate)
	fmt.Fprintf(g.Out, "  measured  %.1f Hz\n", capture.Frequency())
	good.Fprintf(g.Out, "  wrote     %s\n", c.Out)
	return nil
}
