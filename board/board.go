package board

import (
	"fmt"

	"github.com/ardnew/softbadge/buttons"
	"github.com/ardnew/softbadge/flash"
	"github.com/ardnew/softbadge/guard"
	"github.com/ardnew/softbadge/hal"
	"github.com/ardnew/softbadge/pkg"
	"github.com/ardnew/softbadge/sound"
	"github.com/ardnew/softbadge/uptime"
	"github.com/ardnew/softbadge/usb"
)

var taken guard.Guard

// Vector names an interrupt line owned by the board.
type Vector uint8

// Interrupt vectors.
const (
	VectorSound Vector = iota
	VectorUptime
	VectorUSB
)

// String returns the vector name.
func (v Vector) String() string {
	switch v {
	case VectorSound:
		return "sound"
	case VectorUptime:
		return "uptime"
	case VectorUSB:
		return "usb"
	default:
		return fmt.Sprintf("Vector(%d)", uint8(v))
	}
}

// Default NVIC priorities. Lower values preempt higher ones; the tone
// timer runs at the highest rate and takes precedence.
const (
	DefaultSoundPriority  = 0
	DefaultUptimePriority = 1
	DefaultUSBPriority    = 2
)

// Board owns every badge driver.
type Board struct {
	LED     *LED
	Buttons *buttons.Buttons
	Sound   *sound.Sound
	Flash   *flash.Flash
	USB     *usb.Builder

	irqs [3]hal.Interrupt
}

// Take claims the peripherals and brings up the drivers: the LED and
// speaker amplifier are driven low, the uptime counter starts, the flash
// chip is reset into quad mode and the tone handler is installed.
//
// Only the first call in a process succeeds; later calls return
// pkg.ErrAlreadyTaken. A driver failure after the claim is returned
// wrapped and the peripherals stay claimed.
func Take(p hal.Peripherals) (*Board, error) {
	if err := validate(&p); err != nil {
		return nil, err
	}
	if err := taken.Take(); err != nil {
		return nil, fmt.Errorf("board: %w", err)
	}

	b := &Board{
		LED:  &LED{pin: p.LED},
		irqs: [3]hal.Interrupt{p.SoundIRQ, p.UptimeIRQ, p.USBIRQ},
	}
	if err := b.LED.Off(); err != nil {
		return nil, fmt.Errorf("board: %w", err)
	}
	b.SetPriority(VectorSound, DefaultSoundPriority)
	b.SetPriority(VectorUptime, DefaultUptimePriority)
	b.SetPriority(VectorUSB, DefaultUSBPriority)

	b.Buttons = buttons.New(p.ButtonLatch, p.ButtonClock, p.ButtonData, p.Delay)

	s, err := sound.New(p.SpeakerEnable, p.Speaker, p.SoundTimer, p.SoundIRQ)
	if err != nil {
		return nil, fmt.Errorf("board: %w", err)
	}
	b.Sound = s

	if err := uptime.Init(p.UptimeTimer, p.UptimeIRQ); err != nil {
		return nil, fmt.Errorf("board: %w", err)
	}

	f, err := flash.New(p.Flash, p.Delay)
	if err != nil {
		return nil, fmt.Errorf("board: %w", err)
	}
	b.Flash = f

	b.USB = usb.NewBuilder(p.USB)
	if p.USBIRQ != nil {
		b.USB.Interrupt(p.USBIRQ)
	}

	pkg.LogInfo(pkg.ComponentBoard, "peripherals taken")
	return b, nil
}

func validate(p *hal.Peripherals) error {
	missing := func(name string) error {
		return fmt.Errorf("board: missing %s: %w", name, pkg.ErrInvalidParameter)
	}
	switch {
	case p.LED == nil:
		return missing("LED")
	case p.ButtonLatch == nil || p.ButtonClock == nil || p.ButtonData == nil:
		return missing("button pins")
	case p.SpeakerEnable == nil || p.Speaker == nil:
		return missing("speaker pins")
	case p.SoundTimer == nil || p.SoundIRQ == nil:
		return missing("sound timer")
	case p.UptimeTimer == nil || p.UptimeIRQ == nil:
		return missing("uptime timer")
	case p.Flash == nil:
		return missing("flash bus")
	case p.Delay == nil:
		return missing("delay")
	case p.USB == nil:
		return missing("USB bus")
	}
	return nil
}

// SetPriority sets the NVIC priority of a vector. Vectors the board was
// taken without are ignored.
func (b *Board) SetPriority(v Vector, priority uint8) {
	if int(v) >= len(b.irqs) || b.irqs[v] == nil {
		return
	}
	b.irqs[v].SetPriority(priority)
	pkg.LogDebug(pkg.ComponentBoard, "vector priority", "vector", v, "priority", priority)
}

// Uptime returns the milliseconds elapsed since Take.
func (b *Board) Uptime() uptime.Milliseconds {
	return uptime.Uptime()
}
