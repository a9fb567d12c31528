//go:build tinygo && atsamd51

package atsamd51

import (
	"fmt"
	"unsafe"

	"github.com/ardnew/softbadge/hal"
	"github.com/ardnew/softbadge/pkg"
)

// QSPI controller registers.
const (
	qspiBase uintptr = 0x42003400

	qspiCTRLA      = 0x00
	qspiCTRLB      = 0x04
	qspiBAUD       = 0x08
	qspiINTFLAG    = 0x1C
	qspiINSTRCTRL  = 0x30
	qspiINSTRADDR  = 0x34
	qspiINSTRFRAME = 0x38

	qspiSWRST    = 1 << 0
	qspiENABLE   = 1 << 1
	qspiLASTXFER = 1 << 24

	qspiModeMemory     = 1 << 0
	qspiCSModeLastXfer = 1 << 4
	qspiBaudPos        = 8

	qspiINSTREND = 1 << 10

	// AHB window onto the serial memory.
	qspiAHBBase uintptr = 0x04000000
)

// INSTRFRAME fields.
const (
	frameSingle      = 0 << 0
	frameQuadOutput  = 2 << 0
	frameINSTREN     = 1 << 4
	frameADDREN      = 1 << 5
	frameDATAEN      = 1 << 7
	frameAddr24      = 0 << 10
	frameRead        = 0 << 12
	frameReadMemory  = 1 << 12
	frameWrite       = 2 << 12
	frameWriteMemory = 3 << 12
	frameDummyPos    = 16

	quadReadDummyCycles = 8
)

// Cortex-M cache controller, which sits in front of the AHB window.
const (
	cmccBase   uintptr = 0x41006000
	cmccCTRL           = cmccBase + 0x08
	cmccSR             = cmccBase + 0x0C
	cmccMAINT0         = cmccBase + 0x20
	cmccCEN            = 1 << 0
	cmccCSTS           = 1 << 0
	cmccINVALL         = 1 << 0
)

// QSPI pins, all on multiplexer function H.
var qspiPins = [...]struct{ group, num uint8 }{
	{GroupB, 10}, // SCK
	{GroupB, 11}, // CS
	{GroupA, 8},  // DATA0
	{GroupA, 9},  // DATA1
	{GroupA, 10}, // DATA2
	{GroupA, 11}, // DATA3
}

// QSPI drives the external flash through the QSPI controller in serial
// memory mode.
type QSPI struct{}

func newQSPI() *QSPI {
	reg32(mclkAHBMASK).SetBits(mclkAHBQSPI)
	reg32(mclkAPBCMASK).SetBits(mclkAPBCQSP)
	for _, p := range qspiPins {
		setPinFunction(p.group, p.num, pmuxH)
	}

	reg32(qspiBase + qspiCTRLA).Set(qspiSWRST)
	reg32(qspiBase + qspiCTRLB).Set(qspiModeMemory | qspiCSModeLastXfer)
	reg32(qspiBase + qspiCTRLA).Set(qspiENABLE)
	return &QSPI{}
}

func (q *QSPI) cacheOff() {
	reg32(cmccCTRL).ClearBits(cmccCEN)
	for reg32(cmccSR).HasBits(cmccCSTS) {
	}
	reg32(cmccMAINT0).Set(cmccINVALL)
}

func (q *QSPI) cacheOn() {
	reg32(cmccCTRL).SetBits(cmccCEN)
}

func (q *QSPI) begin(cmd hal.Command, frame uint32) {
	reg32(qspiBase + qspiINSTRCTRL).Set(uint32(cmd))
	reg32(qspiBase + qspiINSTRFRAME).Set(frame)
	// The read-back synchronizes the frame with the AHB window.
	reg32(qspiBase + qspiINSTRFRAME).Get()
}

func (q *QSPI) end() {
	reg32(qspiBase + qspiCTRLA).Set(qspiENABLE | qspiLASTXFER)
	flag := reg32(qspiBase + qspiINTFLAG)
	for !flag.HasBits(qspiINSTREND) {
	}
	flag.Set(qspiINSTREND)
}

func window(addr uint32, n int) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(qspiAHBBase+uintptr(addr))), n)
}

// RunCommand issues a plain instruction.
func (q *QSPI) RunCommand(cmd hal.Command) error {
	if err := hal.CheckCommand(cmd, hal.KindPlain); err != nil {
		return err
	}
	q.begin(cmd, frameSingle|frameAddr24|frameRead|frameINSTREN)
	q.end()
	return nil
}

// ReadCommand issues a read instruction and fills buf.
func (q *QSPI) ReadCommand(cmd hal.Command, buf []byte) error {
	if err := hal.CheckCommand(cmd, hal.KindRead); err != nil {
		return err
	}
	q.cacheOff()
	q.begin(cmd, frameSingle|frameAddr24|frameRead|frameINSTREN|frameDATAEN)
	copy(buf, window(0, len(buf)))
	q.end()
	q.cacheOn()
	return nil
}

// WriteCommand issues a write instruction followed by data.
func (q *QSPI) WriteCommand(cmd hal.Command, data []byte) error {
	if err := hal.CheckCommand(cmd, hal.KindWrite); err != nil {
		return err
	}
	frame := uint32(frameSingle | frameAddr24 | frameWrite | frameINSTREN)
	if len(data) > 0 {
		frame |= frameDATAEN
	}
	q.cacheOff()
	q.begin(cmd, frame)
	copy(window(0, len(data)), data)
	q.end()
	q.cacheOn()
	return nil
}

// EraseCommand issues an erase instruction with a 24-bit address.
func (q *QSPI) EraseCommand(cmd hal.Command, addr uint32) error {
	if err := hal.CheckCommand(cmd, hal.KindErase); err != nil {
		return err
	}
	q.cacheOff()
	reg32(qspiBase + qspiINSTRADDR).Set(addr)
	q.begin(cmd, frameSingle|frameAddr24|frameWrite|frameINSTREN|frameADDREN)
	q.end()
	q.cacheOn()
	return nil
}

// ReadMemory reads with a quad-output fast read.
func (q *QSPI) ReadMemory(addr uint32, buf []byte) error {
	q.cacheOff()
	q.begin(hal.CommandReadMemory, frameQuadOutput|frameAddr24|frameReadMemory|
		frameINSTREN|frameADDREN|frameDATAEN|quadReadDummyCycles<<frameDummyPos)
	copy(buf, window(addr, len(buf)))
	q.end()
	q.cacheOn()
	return nil
}

// WriteMemory programs with a quad page program.
func (q *QSPI) WriteMemory(addr uint32, data []byte) error {
	q.cacheOff()
	q.begin(hal.CommandWriteMemory, frameQuadOutput|frameAddr24|frameWriteMemory|
		frameINSTREN|frameADDREN|frameDATAEN)
	copy(window(addr, len(data)), data)
	q.end()
	q.cacheOn()
	return nil
}

// SetClockDivider sets the serial clock to the core clock divided by div.
func (q *QSPI) SetClockDivider(div uint8) error {
	if div == 0 {
		return fmt.Errorf("qspi clock divider 0: %w", pkg.ErrInvalidParameter)
	}
	reg32(qspiBase + qspiBAUD).Set(uint32(div-1) << qspiBaudPos)
	return nil
}
