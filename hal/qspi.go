package hal

import (
	"fmt"

	"github.com/ardnew/softbadge/pkg"
)

// CommandKind selects the QSPI transfer shape a command requires.
type CommandKind uint8

// Command kinds.
const (
	KindPlain       CommandKind = iota // Instruction only
	KindRead                           // Instruction then data in
	KindWrite                          // Instruction then data out
	KindErase                          // Instruction then 24-bit address
	KindMemoryRead                     // Quad-output memory read with address
	KindMemoryWrite                    // Quad page program with address
)

// String returns a human-readable kind name.
func (k CommandKind) String() string {
	switch k {
	case KindPlain:
		return "plain"
	case KindRead:
		return "read"
	case KindWrite:
		return "write"
	case KindErase:
		return "erase"
	case KindMemoryRead:
		return "memory-read"
	case KindMemoryWrite:
		return "memory-write"
	default:
		return "unknown"
	}
}

// Command is a serial NOR flash instruction opcode.
type Command uint8

// Flash instruction set (GD25Q16C subset).
const (
	CommandWriteStatus  Command = 0x01
	CommandWriteMemory  Command = 0x32 // Quad page program
	CommandReadStatus   Command = 0x05
	CommandWriteEnable  Command = 0x06
	CommandWriteStatus2 Command = 0x31
	CommandReadStatus2  Command = 0x35
	CommandEnableReset  Command = 0x66
	CommandReadMemory   Command = 0x6B // Quad output fast read
	CommandReset        Command = 0x99
	CommandReadID       Command = 0x9F
	CommandEraseChip    Command = 0xC7
)

// Kind returns the transfer shape of c. Unknown opcodes report KindPlain
// and are rejected by [CheckCommand].
func (c Command) Kind() CommandKind {
	switch c {
	case CommandReadStatus, CommandReadStatus2, CommandReadID:
		return KindRead
	case CommandWriteStatus, CommandWriteStatus2:
		return KindWrite
	case CommandEraseChip:
		return KindErase
	case CommandReadMemory:
		return KindMemoryRead
	case CommandWriteMemory:
		return KindMemoryWrite
	default:
		return KindPlain
	}
}

// Valid reports whether c is part of the command set.
func (c Command) Valid() bool {
	switch c {
	case CommandWriteStatus, CommandWriteMemory, CommandReadStatus,
		CommandWriteEnable, CommandWriteStatus2, CommandReadStatus2,
		CommandEnableReset, CommandReadMemory, CommandReset,
		CommandReadID, CommandEraseChip:
		return true
	}
	return false
}

// String returns the command mnemonic.
func (c Command) String() string {
	switch c {
	case CommandWriteStatus:
		return "WriteStatus"
	case CommandWriteMemory:
		return "WriteMemory"
	case CommandReadStatus:
		return "ReadStatus"
	case CommandWriteEnable:
		return "WriteEnable"
	case CommandWriteStatus2:
		return "WriteStatus2"
	case CommandReadStatus2:
		return "ReadStatus2"
	case CommandEnableReset:
		return "EnableReset"
	case CommandReadMemory:
		return "ReadMemory"
	case CommandReset:
		return "Reset"
	case CommandReadID:
		return "ReadID"
	case CommandEraseChip:
		return "EraseChip"
	default:
		return fmt.Sprintf("Command(0x%02X)", uint8(c))
	}
}

// CheckCommand returns an error wrapping pkg.ErrCommand unless c is a known
// command of the given kind. Bus implementations call it before driving any
// signal.
func CheckCommand(c Command, kind CommandKind) error {
	if !c.Valid() {
		return fmt.Errorf("%v: %w", c, pkg.ErrCommand)
	}
	if c.Kind() != kind {
		return fmt.Errorf("%v is a %v command, not %v: %w", c, c.Kind(), kind, pkg.ErrCommand)
	}
	return nil
}

// QSPI is a one-shot quad-SPI master connected to a serial NOR flash.
type QSPI interface {
	// RunCommand issues a plain instruction.
	RunCommand(cmd Command) error

	// ReadCommand issues a read instruction and fills buf with the response.
	ReadCommand(cmd Command, buf []byte) error

	// WriteCommand issues a write instruction followed by data.
	WriteCommand(cmd Command, data []byte) error

	// EraseCommand issues an erase instruction with a 24-bit address.
	EraseCommand(cmd Command, addr uint32) error

	// ReadMemory reads len(buf) bytes starting at addr with a quad-output
	// fast read.
	ReadMemory(addr uint32, buf []byte) error

	// WriteMemory programs data starting at addr with a quad page program.
	// Bytes past the end of the page wrap to the start of the same page.
	WriteMemory(addr uint32, data []byte) error

	// SetClockDivider sets the serial clock to the core clock divided by div.
	SetClockDivider(div uint8) error
}
