// Package sound plays square-wave tones on the badge speaker.
//
// A timer overflows at twice the tone frequency and its interrupt handler
// toggles the speaker pin, so the tone runs without foreground work. The
// speaker pin and the timer live in a process-wide slot that [New] fills
// once; after that only [HandleInterrupt] touches them.
package sound

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ardnew/softbadge/hal"
	"github.com/ardnew/softbadge/pkg"
)

type slot struct {
	speaker hal.OutputPin
	timer   hal.Timer
}

var (
	installed atomic.Pointer[slot]
	toggles   atomic.Uint32
	faults    atomic.Uint32
)

// Sound is the speaker driver. It starts disabled with no frequency set.
type Sound struct {
	enable  hal.OutputPin
	timer   hal.Timer
	irq     hal.Interrupt
	period  time.Duration
	enabled bool
}

// New drives the amplifier enable pin low, installs speaker and timer in the
// interrupt slot and routes irq to [HandleInterrupt]. The vector stays
// masked until Enable. A second call in the same process returns
// pkg.ErrAlreadyTaken.
func New(enable, speaker hal.OutputPin, timer hal.Timer, irq hal.Interrupt) (*Sound, error) {
	if installed.Load() != nil {
		return nil, fmt.Errorf("sound: %w", pkg.ErrAlreadyTaken)
	}
	if err := enable.Set(false); err != nil {
		return nil, fmt.Errorf("sound: enable low: %w", err)
	}
	if !installed.CompareAndSwap(nil, &slot{speaker: speaker, timer: timer}) {
		return nil, fmt.Errorf("sound: %w", pkg.ErrAlreadyTaken)
	}
	irq.SetHandler(HandleInterrupt)

	pkg.LogDebug(pkg.ComponentSound, "speaker installed")
	return &Sound{enable: enable, timer: timer, irq: irq}, nil
}

// SetFreq sets the tone frequency in hertz. It restarts the timer at half
// the tone period and enables the overflow request, but makes no sound
// unless the driver is enabled.
func (s *Sound) SetFreq(hz uint32) error {
	if hz == 0 {
		return fmt.Errorf("sound: frequency 0: %w", pkg.ErrInvalidParameter)
	}
	return s.SetPeriod(time.Second / time.Duration(hz))
}

// SetPeriod sets the tone by its full period.
func (s *Sound) SetPeriod(period time.Duration) error {
	half := period / 2
	if half <= 0 {
		return fmt.Errorf("sound: period %v: %w", period, pkg.ErrInvalidParameter)
	}
	if err := s.timer.Start(half); err != nil {
		return fmt.Errorf("sound: start timer: %w", err)
	}
	s.timer.EnableInterrupt()
	s.period = period

	pkg.LogDebug(pkg.ComponentSound, "tone set", "period", period)
	return nil
}

// Enable powers the amplifier and unmasks the timer vector.
func (s *Sound) Enable() error {
	if err := s.enable.Set(true); err != nil {
		return fmt.Errorf("sound: enable high: %w", err)
	}
	s.irq.Enable()
	s.enabled = true
	return nil
}

// Disable masks the timer vector and powers down the amplifier. The speaker
// pin keeps its last level and the tone period is kept for the next Enable.
func (s *Sound) Disable() error {
	s.irq.Disable()
	s.enabled = false
	if err := s.enable.Set(false); err != nil {
		return fmt.Errorf("sound: enable low: %w", err)
	}
	return nil
}

// Enabled reports whether the tone is audible.
func (s *Sound) Enabled() bool { return s.enabled }

// Period returns the tone period, or 0 before SetFreq or SetPeriod.
func (s *Sound) Period() time.Duration { return s.period }

// Frequency returns the tone frequency in hertz, or 0 when none is set.
func (s *Sound) Frequency() uint32 {
	if s.period == 0 {
		return 0
	}
	return uint32(time.Second / s.period)
}

// HandleInterrupt services the tone timer vector: it acknowledges the
// overflow and toggles the speaker once. It does nothing before New.
func HandleInterrupt() {
	sl := installed.Load()
	if sl == nil {
		return
	}
	sl.timer.ClearOverflow()
	if sl.speaker.Toggle() != nil {
		faults.Add(1)
		return
	}
	toggles.Add(1)
}

// Toggles returns how many times the handler toggled the speaker.
func Toggles() uint32 { return toggles.Load() }

// Faults returns how many speaker toggles failed in the handler.
func Faults() uint32 { return faults.Load() }
