package usb

import (
	"encoding/binary"

	"github.com/ardnew/softbadge/pkg"
)

// CDC class-specific descriptor types.
const (
	DescriptorTypeCSInterface = 0x24
	DescriptorTypeCSEndpoint  = 0x25
)

// CDC functional descriptor subtypes.
const (
	SubtypeHeader         = 0x00
	SubtypeCallManagement = 0x01
	SubtypeACM            = 0x02
	SubtypeUnion          = 0x06
)

// CDC subclass and protocol codes.
const (
	SubclassACM  = 0x02 // Abstract Control Model
	ProtocolNone = 0x00
)

// CDC request codes.
const (
	RequestSetLineCoding       = 0x20
	RequestGetLineCoding       = 0x21
	RequestSetControlLineState = 0x22
	RequestSendBreak           = 0x23
)

// Control line state bits (SET_CONTROL_LINE_STATE wValue).
const (
	ControlLineDTR = 1 << 0 // Data Terminal Ready
	ControlLineRTS = 1 << 1 // Request To Send
)

// ACM capability bit: the device supports the line coding and control line
// state requests.
const acmCapLineCoding = 1 << 1

// Stop bit values.
const (
	StopBits1   = 0
	StopBits1_5 = 1
	StopBits2   = 2
)

// Parity values.
const (
	ParityNone  = 0
	ParityOdd   = 1
	ParityEven  = 2
	ParityMark  = 3
	ParitySpace = 4
)

// LineCoding is the serial line configuration requested by the host. The
// port carries raw bytes regardless; the values are informational.
type LineCoding struct {
	DTERate    uint32 // Baud rate
	CharFormat uint8  // Stop bits: 0=1, 1=1.5, 2=2
	ParityType uint8  // Parity: 0=None, 1=Odd, 2=Even, 3=Mark, 4=Space
	DataBits   uint8  // Data bits: 5, 6, 7, 8 or 16
}

// LineCodingSize is the wire size of LineCoding.
const LineCodingSize = 7

// DefaultLineCoding is 115200 8N1.
var DefaultLineCoding = LineCoding{
	DTERate:    115200,
	CharFormat: StopBits1,
	ParityType: ParityNone,
	DataBits:   8,
}

// AppendBinary encodes lc onto b.
func (lc LineCoding) AppendBinary(b []byte) ([]byte, error) {
	b = binary.LittleEndian.AppendUint32(b, lc.DTERate)
	return append(b, lc.CharFormat, lc.ParityType, lc.DataBits), nil
}

// UnmarshalBinary decodes a SET_LINE_CODING payload.
func (lc *LineCoding) UnmarshalBinary(data []byte) error {
	if len(data) < LineCodingSize {
		return pkg.ErrInvalidRequest
	}
	*lc = LineCoding{
		DTERate:    binary.LittleEndian.Uint32(data),
		CharFormat: data[4],
		ParityType: data[5],
		DataBits:   data[6],
	}
	return nil
}

// appendHeader encodes the CDC header functional descriptor.
func appendHeader(b []byte, bcdCDC uint16) []byte {
	return append(b, 5, DescriptorTypeCSInterface, SubtypeHeader, byte(bcdCDC), byte(bcdCDC>>8))
}

func appendCallManagement(b []byte, caps, dataInterface uint8) []byte {
	return append(b, 5, DescriptorTypeCSInterface, SubtypeCallManagement, caps, dataInterface)
}

func appendACM(b []byte, caps uint8) []byte {
	return append(b, 4, DescriptorTypeCSInterface, SubtypeACM, caps)
}

// appendUnion names the control interface first, then its data interface.
func appendUnion(b []byte, control, data uint8) []byte {
	return append(b, 5, DescriptorTypeCSInterface, SubtypeUnion, control, data)
}
