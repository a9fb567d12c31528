package sim

import (
	"time"

	"github.com/ardnew/softbadge/hal"
)

// Board is a complete simulated badge.
type Board struct {
	LED           *Pin
	Buttons       *ShiftRegister
	SpeakerEnable *Pin
	Speaker       *Pin
	SoundTimer    *Timer
	SoundIRQ      *Interrupt
	UptimeTimer   *Timer
	UptimeIRQ     *Interrupt
	Flash         *Flash
	Delay         *Delay
	USB           *USBBus
	USBIRQ        *Interrupt
}

// New returns a board with every peripheral in its reset state. Millisecond
// delays advance both timers.
func New() *Board {
	b := &Board{
		LED:           NewPin(),
		Buttons:       NewShiftRegister(),
		SpeakerEnable: NewPin(),
		Speaker:       NewPin(),
		SoundIRQ:      NewInterrupt(),
		UptimeIRQ:     NewInterrupt(),
		Flash:         NewFlash(),
		Delay:         &Delay{},
		USB:           NewUSBBus(),
		USBIRQ:        NewInterrupt(),
	}
	b.SoundTimer = NewTimer(b.SoundIRQ)
	b.UptimeTimer = NewTimer(b.UptimeIRQ)
	b.Delay.OnDelayMs = func(ms uint32) {
		b.Advance(time.Duration(ms) * time.Millisecond)
	}
	return b
}

// Peripherals returns the board hardware as hal contracts.
func (b *Board) Peripherals() hal.Peripherals {
	return hal.Peripherals{
		LED:           b.LED,
		ButtonLatch:   b.Buttons.Latch(),
		ButtonClock:   b.Buttons.Clock(),
		ButtonData:    b.Buttons.Data(),
		SpeakerEnable: b.SpeakerEnable,
		Speaker:       b.Speaker,
		SoundTimer:    b.SoundTimer,
		SoundIRQ:      b.SoundIRQ,
		UptimeTimer:   b.UptimeTimer,
		UptimeIRQ:     b.UptimeIRQ,
		Flash:         b.Flash,
		Delay:         b.Delay,
		USB:           b.USB,
		USBIRQ:        b.USBIRQ,
	}
}

// Advance moves simulated time forward, interleaving both timers in
// millisecond slices.
func (b *Board) Advance(d time.Duration) {
	for d > 0 {
		slice := min(d, time.Millisecond)
		b.SoundTimer.Advance(slice)
		b.UptimeTimer.Advance(slice)
		d -= slice
	}
}
