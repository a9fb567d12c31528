//go:build tinygo && atsamd51

package atsamd51

import "github.com/ardnew/softbadge/hal"

// PyBadge pin assignments.
var (
	PinLED           = NewPin(GroupA, 23)
	PinButtonLatch   = NewPin(GroupB, 0)
	PinButtonClock   = NewPin(GroupB, 31)
	PinButtonData    = NewPin(GroupB, 30)
	PinSpeakerEnable = NewPin(GroupA, 27)
	PinSpeaker       = NewPin(GroupA, 2)
)

// Peripherals configures the PyBadge hardware and returns it as hal
// contracts for board.Take. Each call reconfigures the hardware; take the
// board once.
func Peripherals() hal.Peripherals {
	soundIRQ := newTC4Interrupt()
	uptimeIRQ := newTC5Interrupt()
	return hal.Peripherals{
		LED:           PinLED.ConfigureOutput(),
		ButtonLatch:   PinButtonLatch.ConfigureOutput(),
		ButtonClock:   PinButtonClock.ConfigureOutput(),
		ButtonData:    PinButtonData.ConfigureInput(),
		SpeakerEnable: PinSpeakerEnable.ConfigureOutput(),
		Speaker:       PinSpeaker.ConfigureOutput(),
		SoundTimer:    newTimer(tc4Base, mclkAPBCTC4),
		SoundIRQ:      soundIRQ,
		UptimeTimer:   newTimer(tc5Base, mclkAPBCTC5),
		UptimeIRQ:     uptimeIRQ,
		Flash:         newQSPI(),
		Delay:         NewDelay(),
		USB:           newUSB(),
		USBIRQ:        newUSBInterrupt(),
	}
}

var (
	_ hal.OutputPin = Pin{}
	_ hal.InputPin  = Pin{}
	_ hal.Delay     = Delay{}
	_ hal.Timer     = (*Timer)(nil)
	_ hal.Interrupt = (*Interrupt)(nil)
	_ hal.QSPI      = (*QSPI)(nil)
	_ hal.USBBus    = (*USB)(nil)
)
