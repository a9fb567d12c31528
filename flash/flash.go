// Package flash drives the badge's 2 MiB GD25Q16C serial NOR flash over
// quad-SPI.
//
// The array is 8192 pages of 256 bytes; page i spans addresses i<<8 through
// (i<<8)+255. Reads are linear and may cross pages. Page programs wrap:
// bytes that run past the end of the addressed page are programmed from the
// start of the same page, and when more than a page is sent only the last
// 256 bytes are kept. Programming can only clear bits, so a page must be
// erased (0xFF) before it is rewritten.
package flash

import (
	"fmt"

	"github.com/ardnew/softbadge/hal"
	"github.com/ardnew/softbadge/pkg"
)

// Geometry.
const (
	PageSize  = 256
	PageCount = 8192
	Size      = PageSize * PageCount
)

// Status register bits.
const (
	statusWIP = 0x01 // SR1: write in progress
	statusWEL = 0x02 // SR1: write enable latch
	statusQE  = 0x02 // SR2: quad enable
	statusSUS = 0x80 // SR2: program/erase suspended
)

// Timing and clocking used during initialization.
const (
	// StartupDelayMs is the power-up delay before the first command.
	StartupDelayMs = 5

	// ResetDelayMs covers tRST (30 us) after a software reset.
	ResetDelayMs = 1

	// ClockDivider divides the 120 MHz core clock to a 60 MHz serial clock.
	// Anything above 104 MHz at 3.3 V needs high-performance mode.
	ClockDivider = 2
)

// JEDECID is the manufacturer and device identification.
type JEDECID struct {
	Manufacturer uint8
	MemoryType   uint8
	Capacity     uint8
}

// String returns the ID as six hex digits.
func (id JEDECID) String() string {
	return fmt.Sprintf("%02X%02X%02X", id.Manufacturer, id.MemoryType, id.Capacity)
}

// Status is a snapshot of both status registers.
type Status struct {
	SR1 uint8
	SR2 uint8
}

// Busy reports a program or erase in progress.
func (s Status) Busy() bool { return s.SR1&statusWIP != 0 }

// WriteEnabled reports whether the write enable latch is set.
func (s Status) WriteEnabled() bool { return s.SR1&statusWEL != 0 }

// QuadEnabled reports whether quad I/O is enabled.
func (s Status) QuadEnabled() bool { return s.SR2&statusQE != 0 }

// Suspended reports a suspended program or erase.
func (s Status) Suspended() bool { return s.SR2&statusSUS != 0 }

// Flash is the NOR flash driver. Every method blocks and none may be called
// from an interrupt handler.
type Flash struct {
	bus   hal.QSPI
	delay hal.Delay
}

// New resets the chip, sets the serial clock and enables quad mode.
//
// The sequence is: startup delay, wait ready, EnableReset, Reset, reset
// recovery delay, clock divider, WriteEnable, WriteStatus2 with QE set, wait
// ready. Any bus error aborts initialization.
func New(bus hal.QSPI, delay hal.Delay) (*Flash, error) {
	f := &Flash{bus: bus, delay: delay}

	delay.DelayMs(StartupDelayMs)
	if err := f.waitReady(); err != nil {
		return nil, fmt.Errorf("flash: init: %w", err)
	}
	if err := bus.RunCommand(hal.CommandEnableReset); err != nil {
		return nil, fmt.Errorf("flash: enable reset: %w", err)
	}
	if err := bus.RunCommand(hal.CommandReset); err != nil {
		return nil, fmt.Errorf("flash: reset: %w", err)
	}
	delay.DelayMs(ResetDelayMs)

	if err := bus.SetClockDivider(ClockDivider); err != nil {
		return nil, fmt.Errorf("flash: clock divider: %w", err)
	}
	if err := bus.RunCommand(hal.CommandWriteEnable); err != nil {
		return nil, fmt.Errorf("flash: write enable: %w", err)
	}
	if err := bus.WriteCommand(hal.CommandWriteStatus2, []byte{statusQE}); err != nil {
		return nil, fmt.Errorf("flash: quad enable: %w", err)
	}
	if err := f.waitReady(); err != nil {
		return nil, fmt.Errorf("flash: quad enable: %w", err)
	}

	pkg.LogInfo(pkg.ComponentFlash, "flash ready", "divider", ClockDivider)
	return f, nil
}

// Read fills buf starting at addr. The address increments linearly across
// page boundaries.
func (f *Flash) Read(addr uint32, buf []byte) error {
	if err := f.bus.ReadMemory(addr, buf); err != nil {
		return fmt.Errorf("flash: read 0x%06X: %w", addr, err)
	}
	return nil
}

// WritePage programs buf into the page containing addr and waits for the
// program to finish. Bytes past the end of the page wrap to its start.
func (f *Flash) WritePage(addr uint32, buf []byte) error {
	if err := f.bus.RunCommand(hal.CommandWriteEnable); err != nil {
		return fmt.Errorf("flash: write 0x%06X: %w", addr, err)
	}
	if err := f.bus.WriteMemory(addr, buf); err != nil {
		return fmt.Errorf("flash: write 0x%06X: %w", addr, err)
	}
	if err := f.waitReady(); err != nil {
		return fmt.Errorf("flash: write 0x%06X: %w", addr, err)
	}
	return nil
}

// EraseChip sets every byte to 0xFF. It can take up to 140 s.
func (f *Flash) EraseChip() error {
	pkg.LogInfo(pkg.ComponentFlash, "chip erase started")
	if err := f.bus.RunCommand(hal.CommandWriteEnable); err != nil {
		return fmt.Errorf("flash: erase: %w", err)
	}
	if err := f.bus.EraseCommand(hal.CommandEraseChip, 0); err != nil {
		return fmt.Errorf("flash: erase: %w", err)
	}
	if err := f.waitReady(); err != nil {
		return fmt.Errorf("flash: erase: %w", err)
	}
	pkg.LogInfo(pkg.ComponentFlash, "chip erase finished")
	return nil
}

// ReadID returns the JEDEC identification.
func (f *Flash) ReadID() (JEDECID, error) {
	var id [3]byte
	if err := f.bus.ReadCommand(hal.CommandReadID, id[:]); err != nil {
		return JEDECID{}, fmt.Errorf("flash: read id: %w", err)
	}
	return JEDECID{Manufacturer: id[0], MemoryType: id[1], Capacity: id[2]}, nil
}

// Status reads both status registers.
func (f *Flash) Status() (Status, error) {
	sr1, err := f.status(hal.CommandReadStatus)
	if err != nil {
		return Status{}, fmt.Errorf("flash: status: %w", err)
	}
	sr2, err := f.status(hal.CommandReadStatus2)
	if err != nil {
		return Status{}, fmt.Errorf("flash: status: %w", err)
	}
	return Status{SR1: sr1, SR2: sr2}, nil
}

// waitReady polls until no program or erase is running, then until none is
// suspended. There is no timeout.
func (f *Flash) waitReady() error {
	for {
		sr, err := f.status(hal.CommandReadStatus)
		if err != nil {
			return err
		}
		if sr&statusWIP == 0 {
			break
		}
	}
	for {
		sr, err := f.status(hal.CommandReadStatus2)
		if err != nil {
			return err
		}
		if sr&statusSUS == 0 {
			return nil
		}
	}
}

func (f *Flash) status(cmd hal.Command) (uint8, error) {
	var out [1]byte
	if err := f.bus.ReadCommand(cmd, out[:]); err != nil {
		return 0, err
	}
	return out[0], nil
}

// PageAddress returns the first address of page.
func PageAddress(page uint32) uint32 { return page * PageSize }

// PageOf returns the page containing addr.
func PageOf(addr uint32) uint32 { return addr / PageSize }

// OffsetOf returns the offset of addr within its page.
func OffsetOf(addr uint32) uint32 { return addr % PageSize }
