// Package buttons reads the badge's eight buttons through a 74HC165
// parallel-in serial-out shift register.
//
// [Buttons.Update] samples all eight buttons in one latch-and-shift cycle
// and keeps the previous sample, so queries and [Buttons.Events] see the
// difference between the last two samples.
package buttons

import (
	"fmt"

	"github.com/ardnew/softbadge/hal"
	"github.com/ardnew/softbadge/pkg"
)

// Button is a single bit of the button state.
type Button uint8

// Buttons by state bit, lowest bit first. The scan shifts B (bit 7) out
// first.
const (
	Left   Button = 1 << iota // Bit 0
	Up                        // Bit 1
	Down                      // Bit 2
	Right                     // Bit 3
	Select                    // Bit 4
	Start                     // Bit 5
	A                         // Bit 6
	B                         // Bit 7
)

// String returns the button name.
func (b Button) String() string {
	switch b {
	case Left:
		return "Left"
	case Up:
		return "Up"
	case Down:
		return "Down"
	case Right:
		return "Right"
	case Select:
		return "Select"
	case Start:
		return "Start"
	case A:
		return "A"
	case B:
		return "B"
	default:
		return fmt.Sprintf("Button(0x%02X)", uint8(b))
	}
}

// State is a sample of all eight buttons; a set bit means pressed.
type State uint8

// Has reports whether button b is pressed in s.
func (s State) Has(b Button) bool {
	return uint8(s)&uint8(b) != 0
}

// Timing of the 74HC165 at 3 V, in core clock cycles. The constants assume
// ClockHz; a faster core clock needs proportionally more cycles.
const (
	// ClockHz is the core clock the cycle counts below are derived from.
	ClockHz = 120_000_000

	// SetupCycles covers the 55 ns latch setup time (t_su).
	SetupCycles = 7

	// HoldCycles covers the 5 ns latch hold time (t_h).
	HoldCycles = 1

	// PulseCycles covers the 36 ns minimum clock pulse width (t_w).
	PulseCycles = 5
)

// Buttons is the button matrix driver.
type Buttons struct {
	latch hal.OutputPin
	clock hal.OutputPin
	data  hal.InputPin
	delay hal.Delay

	current  State
	previous State
}

// New returns a driver with both samples empty. No pin is touched until the
// first Update.
func New(latch, clock hal.OutputPin, data hal.InputPin, delay hal.Delay) *Buttons {
	return &Buttons{
		latch: latch,
		clock: clock,
		data:  data,
		delay: delay,
	}
}

// Update samples all buttons. The previous sample becomes Previous and the
// new sample becomes State. On a pin error both samples are left unchanged.
//
// Update blocks for SetupCycles+HoldCycles+8*PulseCycles cycles plus pin
// overhead (about 400 ns) and must not be called from an interrupt handler.
func (b *Buttons) Update() error {
	if err := b.latch.Set(false); err != nil {
		return fmt.Errorf("buttons: latch low: %w", err)
	}
	b.delay.DelayCycles(SetupCycles)
	if err := b.latch.Set(true); err != nil {
		return fmt.Errorf("buttons: latch high: %w", err)
	}
	b.delay.DelayCycles(HoldCycles)

	var sample State
	for i := range 8 {
		sample <<= 1
		if err := b.clock.Set(false); err != nil {
			return fmt.Errorf("buttons: clock low bit %d: %w", 7-i, err)
		}
		b.delay.DelayCycles(PulseCycles)
		high, err := b.data.Get()
		if err != nil {
			return fmt.Errorf("buttons: sample bit %d: %w", 7-i, err)
		}
		if high {
			sample |= 1
		}
		if err := b.clock.Set(true); err != nil {
			return fmt.Errorf("buttons: clock high bit %d: %w", 7-i, err)
		}
	}

	b.previous = b.current
	b.current = sample
	if b.previous != b.current {
		pkg.LogDebug(pkg.ComponentButtons, "sample changed",
			"state", fmt.Sprintf("%08b", uint8(sample)),
			"previous", fmt.Sprintf("%08b", uint8(b.previous)))
	}
	return nil
}

// State returns the latest sample.
func (b *Buttons) State() State { return b.current }

// Previous returns the sample before the latest one.
func (b *Buttons) Previous() State { return b.previous }

// Pressed reports whether btn is pressed in the latest sample.
func (b *Buttons) Pressed(btn Button) bool { return b.current.Has(btn) }

// AnyPressed reports whether at least one button is pressed.
func (b *Buttons) AnyPressed() bool { return b.current != 0 }

// NonePressed reports whether no button is pressed.
func (b *Buttons) NonePressed() bool { return b.current == 0 }

// A reports whether A is pressed.
func (b *Buttons) A() bool { return b.current.Has(A) }

// B reports whether B is pressed.
func (b *Buttons) B() bool { return b.current.Has(B) }

// Start reports whether Start is pressed.
func (b *Buttons) Start() bool { return b.current.Has(Start) }

// Select reports whether Select is pressed.
func (b *Buttons) Select() bool { return b.current.Has(Select) }

// Right reports whether Right is pressed.
func (b *Buttons) Right() bool { return b.current.Has(Right) }

// Down reports whether Down is pressed.
func (b *Buttons) Down() bool { return b.current.Has(Down) }

// Up reports whether Up is pressed.
func (b *Buttons) Up() bool { return b.current.Has(Up) }

// Left reports whether Left is pressed.
func (b *Buttons) Left() bool { return b.current.Has(Left) }
