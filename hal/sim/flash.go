package sim

import (
	"fmt"
	"sync"

	"github.com/ardnew/softbadge/hal"
	"github.com/ardnew/softbadge/pkg"
)

// GD25Q16C geometry and identification.
const (
	FlashSize     = 2 << 20 // 2 MiB
	FlashPageSize = 256

	FlashManufacturerID = 0xC8 // GigaDevice
	FlashMemoryType     = 0x40
	FlashCapacity       = 0x15 // 16 Mbit
)

// Status register bits.
const (
	StatusWIP uint8 = 1 << 0 // SR1: write in progress
	StatusWEL uint8 = 1 << 1 // SR1: write enable latch
	StatusQE  uint8 = 1 << 1 // SR2: quad enable
	StatusSUS uint8 = 1 << 7 // SR2: program/erase suspended
)

// Flash models a GD25Q16C serial NOR flash behind a QSPI controller.
// It satisfies hal.QSPI.
//
// Memory starts erased (0xFF). Programming only clears bits. A program or
// erase is accepted only after WriteEnable and leaves the chip busy for a
// number of status polls.
type Flash struct {
	mu sync.Mutex

	mem     []byte
	sr1     uint8
	sr2     uint8
	busy    int
	suspend int
	armed   bool // EnableReset seen
	divider uint8
	trace   []hal.Command
	fault   error

	// ProgramPolls is how many status reads report WIP after a page
	// program or status write.
	ProgramPolls int

	// ErasePolls is how many status reads report WIP after a chip erase.
	ErasePolls int
}

// NewFlash returns an erased chip with quad mode disabled.
func NewFlash() *Flash {
	f := &Flash{
		mem:          make([]byte, FlashSize),
		ProgramPolls: 2,
		ErasePolls:   8,
	}
	for i := range f.mem {
		f.mem[i] = 0xFF
	}
	return f
}

func (f *Flash) record(cmd hal.Command, kind hal.CommandKind) error {
	if f.fault != nil {
		return f.fault
	}
	if err := hal.CheckCommand(cmd, kind); err != nil {
		return err
	}
	f.trace = append(f.trace, cmd)
	return nil
}

// RunCommand issues a plain instruction.
func (f *Flash) RunCommand(cmd hal.Command) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record(cmd, hal.KindPlain); err != nil {
		return err
	}

	armed := f.armed
	f.armed = false
	switch cmd {
	case hal.CommandEnableReset:
		f.armed = true
	case hal.CommandReset:
		if armed {
			f.sr1 = 0
			f.sr2 &^= StatusSUS
			f.busy = 0
			f.suspend = 0
		}
	case hal.CommandWriteEnable:
		if f.busy == 0 {
			f.sr1 |= StatusWEL
		}
	}
	return nil
}

// ReadCommand issues a read instruction.
func (f *Flash) ReadCommand(cmd hal.Command, buf []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record(cmd, hal.KindRead); err != nil {
		return err
	}
	f.armed = false

	var resp []byte
	switch cmd {
	case hal.CommandReadStatus:
		sr := f.sr1
		if f.busy > 0 {
			sr |= StatusWIP
			f.busy--
		}
		resp = []byte{sr}
	case hal.CommandReadStatus2:
		sr := f.sr2
		if f.suspend > 0 {
			sr |= StatusSUS
			f.suspend--
		}
		resp = []byte{sr}
	case hal.CommandReadID:
		resp = []byte{FlashManufacturerID, FlashMemoryType, FlashCapacity}
	}
	// The response register repeats while the clock runs.
	for i := range buf {
		buf[i] = resp[i%len(resp)]
	}
	return nil
}

// WriteCommand issues a status register write.
func (f *Flash) WriteCommand(cmd hal.Command, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record(cmd, hal.KindWrite); err != nil {
		return err
	}
	f.armed = false
	if f.sr1&StatusWEL == 0 || f.busy > 0 || len(data) == 0 {
		return nil
	}

	switch cmd {
	case hal.CommandWriteStatus:
		// SR1 block-protect bits are not modeled. A second byte writes SR2.
		if len(data) > 1 {
			f.sr2 = data[1] &^ StatusSUS
		}
	case hal.CommandWriteStatus2:
		f.sr2 = data[0]&^StatusSUS | f.sr2&StatusSUS
	}
	f.sr1 &^= StatusWEL
	f.busy = f.ProgramPolls
	return nil
}

// EraseCommand issues an erase instruction.
func (f *Flash) EraseCommand(cmd hal.Command, _ uint32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record(cmd, hal.KindErase); err != nil {
		return err
	}
	f.armed = false
	if f.sr1&StatusWEL == 0 || f.busy > 0 {
		return nil
	}
	for i := range f.mem {
		f.mem[i] = 0xFF
	}
	f.sr1 &^= StatusWEL
	f.busy = f.ErasePolls
	return nil
}

// ReadMemory performs a quad-output fast read. Reads run linearly across
// page boundaries and wrap at the end of the array.
func (f *Flash) ReadMemory(addr uint32, buf []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record(hal.CommandReadMemory, hal.KindMemoryRead); err != nil {
		return err
	}
	f.armed = false
	if f.sr2&StatusQE == 0 {
		return fmt.Errorf("quad read with QE clear: %w", pkg.ErrCommand)
	}
	if f.busy > 0 {
		return fmt.Errorf("read while busy: %w", pkg.ErrCommand)
	}
	for i := range buf {
		buf[i] = f.mem[(int(addr)+i)%FlashSize]
	}
	return nil
}

// WriteMemory performs a quad page program. Bytes past the end of the page
// wrap to the start of the same page. When more than a page is sent only the
// last page worth of bytes is programmed.
func (f *Flash) WriteMemory(addr uint32, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record(hal.CommandWriteMemory, hal.KindMemoryWrite); err != nil {
		return err
	}
	f.armed = false
	if f.sr2&StatusQE == 0 {
		return fmt.Errorf("quad program with QE clear: %w", pkg.ErrCommand)
	}
	if f.sr1&StatusWEL == 0 || f.busy > 0 {
		return nil
	}

	addr %= FlashSize
	base := int(addr) &^ (FlashPageSize - 1)
	off := int(addr) & (FlashPageSize - 1)
	if n := len(data); n > FlashPageSize {
		off = (off + n - FlashPageSize) % FlashPageSize
		data = data[n-FlashPageSize:]
	}
	for i, b := range data {
		f.mem[base+(off+i)%FlashPageSize] &= b
	}
	f.sr1 &^= StatusWEL
	f.busy = f.ProgramPolls
	return nil
}

// SetClockDivider sets the serial clock divider.
func (f *Flash) SetClockDivider(div uint8) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fault != nil {
		return f.fault
	}
	if div == 0 {
		return fmt.Errorf("clock divider 0: %w", pkg.ErrInvalidParameter)
	}
	f.divider = div
	return nil
}

// Divider returns the configured clock divider (0 before configuration).
func (f *Flash) Divider() uint8 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.divider
}

// Status returns the raw status registers without consuming busy polls.
func (f *Flash) Status() (sr1, sr2 uint8) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sr1, sr2 = f.sr1, f.sr2
	if f.busy > 0 {
		sr1 |= StatusWIP
	}
	if f.suspend > 0 {
		sr2 |= StatusSUS
	}
	return sr1, sr2
}

// Hold keeps WIP set for the next wip status reads and SUS set for the next
// sus status reads.
func (f *Flash) Hold(wip, sus int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.busy = wip
	f.suspend = sus
}

// Trace returns the issued commands in order.
func (f *Flash) Trace() []hal.Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]hal.Command, len(f.trace))
	copy(out, f.trace)
	return out
}

// ClearTrace forgets the command trace.
func (f *Flash) ClearTrace() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trace = f.trace[:0]
}

// Fail makes every later bus operation return err. A nil err clears it.
func (f *Flash) Fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fault = err
}

// Peek copies n bytes starting at addr out of the array, bypassing the bus.
func (f *Flash) Peek(addr uint32, n int) []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]byte, n)
	for i := range out {
		out[i] = f.mem[(int(addr)+i)%FlashSize]
	}
	return out
}

// Image returns a copy of the whole array.
func (f *Flash) Image() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]byte, len(f.mem))
	copy(out, f.mem)
	return out
}

// Load replaces the array contents with img. A short image leaves the rest
// erased.
func (f *Flash) Load(img []byte) error {
	if len(img) > FlashSize {
		return fmt.Errorf("image of %d bytes: %w", len(img), pkg.ErrOutOfRange)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	n := copy(f.mem, img)
	for i := n; i < len(f.mem); i++ {
		f.mem[i] = 0xFF
	}
	return nil
}
