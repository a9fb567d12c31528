//go:build tinygo && atsamd51

package atsamd51

import (
	"fmt"
	"time"

	"github.com/ardnew/softbadge/pkg"
)

// TC registers in 16-bit mode.
const (
	tc4Base uintptr = 0x42001400
	tc5Base uintptr = 0x42001800

	tcCTRLA    = 0x00
	tcCTRLBSET = 0x05
	tcINTENSET = 0x09
	tcINTFLAG  = 0x0A
	tcWAVE     = 0x0C
	tcSYNCBUSY = 0x10
	tcCC0      = 0x1C

	tcSWRST        = 1 << 0
	tcENABLE       = 1 << 1
	tcPrescalerPos = 8
	tcWaveMFRQ     = 1
	tcOVF          = 1 << 0
	tcCmdRetrigger = 1 << 5
	tcSyncCTRLB    = 1 << 2
	tcSyncCC0      = 1 << 6
	tcCountMax     = 1 << 16
)

// prescalers indexed by the CTRLA.PRESCALER field.
var prescalers = [...]uint64{1, 2, 4, 8, 16, 64, 256, 1024}

// Timer is a TC peripheral counting the 48 MHz generator in match-frequency
// mode, so it overflows once per period.
type Timer struct {
	base uintptr
}

func newTimer(base uintptr, apbc uint32) *Timer {
	reg32(mclkAPBCMASK).SetBits(apbc)
	enableChannel(gclkChannelTC4)
	t := &Timer{base: base}
	reg32(base + tcCTRLA).Set(tcSWRST)
	t.sync(tcSWRST)
	return t
}

func (t *Timer) sync(mask uint32) {
	for reg32(t.base + tcSYNCBUSY).HasBits(mask) {
	}
}

// Start (re)starts the timer with the given overflow period.
func (t *Timer) Start(period time.Duration) error {
	if period <= 0 {
		return fmt.Errorf("timer period %v: %w", period, pkg.ErrInvalidParameter)
	}
	ticks := uint64(period) * timerClockHz / uint64(time.Second)
	if ticks == 0 {
		return fmt.Errorf("timer period %v: %w", period, pkg.ErrInvalidParameter)
	}
	presc := -1
	for i, div := range prescalers {
		if ticks/div <= tcCountMax {
			presc = i
			break
		}
	}
	if presc < 0 {
		return fmt.Errorf("timer period %v: %w", period, pkg.ErrOutOfRange)
	}
	top := ticks/prescalers[presc] - 1

	ctrla := reg32(t.base + tcCTRLA)
	ctrla.ClearBits(tcENABLE)
	t.sync(tcENABLE)
	ctrla.Set(uint32(presc) << tcPrescalerPos)
	reg8(t.base + tcWAVE).Set(tcWaveMFRQ)
	reg16(t.base + tcCC0).Set(uint16(top))
	t.sync(tcSyncCC0)
	ctrla.SetBits(tcENABLE)
	t.sync(tcENABLE)
	reg8(t.base + tcCTRLBSET).Set(tcCmdRetrigger)
	t.sync(tcSyncCTRLB)
	return nil
}

// EnableInterrupt lets overflows raise the vector.
func (t *Timer) EnableInterrupt() {
	reg8(t.base + tcINTENSET).Set(tcOVF)
}

// ClearOverflow acknowledges an overflow.
func (t *Timer) ClearOverflow() {
	reg8(t.base + tcINTFLAG).Set(tcOVF)
}
