package hal

import (
	"encoding/binary"

	"github.com/ardnew/softbadge/pkg"
)

// BusEvent is a set of USB bus conditions reported by [USBBus.Poll].
type BusEvent uint8

// Bus events.
const (
	EventReset   BusEvent = 1 << iota // Host drove a bus reset
	EventSuspend                      // Bus idle for 3 ms
	EventResume                       // Bus activity after suspend
)

// Has reports whether all bits of ev are set in e.
func (e BusEvent) Has(ev BusEvent) bool {
	return e&ev == ev
}

// Transfer types (bmAttributes bits 1:0).
const (
	TransferControl     uint8 = 0x00
	TransferIsochronous uint8 = 0x01
	TransferBulk        uint8 = 0x02
	TransferInterrupt   uint8 = 0x03
)

// EndpointDirIn is the direction bit of an IN endpoint address.
const EndpointDirIn uint8 = 0x80

// EndpointConfig describes one hardware endpoint of the active
// configuration.
type EndpointConfig struct {
	Address       uint8  // Endpoint address including direction bit
	Attributes    uint8  // Transfer type
	MaxPacketSize uint16 // Maximum packet size
	Interval      uint8  // Polling interval for interrupt endpoints
}

// Number returns the endpoint number (0-15).
func (e *EndpointConfig) Number() uint8 {
	return e.Address & 0x0F
}

// IsIn returns true if this is an IN endpoint (device to host).
func (e *EndpointConfig) IsIn() bool {
	return e.Address&EndpointDirIn != 0
}

// TransferType returns the transfer type.
func (e *EndpointConfig) TransferType() uint8 {
	return e.Attributes & 0x03
}

// SetupPacket is the 8-byte SETUP stage of a control transfer.
type SetupPacket struct {
	RequestType uint8  // Request characteristics
	Request     uint8  // Specific request
	Value       uint16 // Request-specific value
	Index       uint16 // Request-specific index
	Length      uint16 // Number of bytes in the data stage
}

// SetupPacketSize is the size of a USB SETUP packet in bytes.
const SetupPacketSize = 8

// UnmarshalBinary decodes the SETUP packet in data.
func (s *SetupPacket) UnmarshalBinary(data []byte) error {
	if len(data) < SetupPacketSize {
		return pkg.ErrSetupPacketTooShort
	}
	*s = SetupPacket{
		RequestType: data[0],
		Request:     data[1],
		Value:       binary.LittleEndian.Uint16(data[2:]),
		Index:       binary.LittleEndian.Uint16(data[4:]),
		Length:      binary.LittleEndian.Uint16(data[6:]),
	}
	return nil
}

// AppendBinary encodes s onto b.
func (s SetupPacket) AppendBinary(b []byte) ([]byte, error) {
	b = append(b, s.RequestType, s.Request)
	b = binary.LittleEndian.AppendUint16(b, s.Value)
	b = binary.LittleEndian.AppendUint16(b, s.Index)
	return binary.LittleEndian.AppendUint16(b, s.Length), nil
}

// IsDeviceToHost reports whether the data stage flows IN.
func (s *SetupPacket) IsDeviceToHost() bool {
	return s.RequestType&0x80 != 0
}

// USBBus is a polled USB device controller.
//
// No method blocks. Operations that cannot complete yet return
// pkg.ErrWouldBlock and are retried on a later poll. Endpoint 0 carries
// control transfers: IN data and status packets are written to address
// 0x80, OUT data and status packets are read from address 0x00.
type USBBus interface {
	// Enable attaches the pull-up so the host can see the device.
	Enable() error

	// Poll returns and clears the pending bus events.
	Poll() BusEvent

	// ReadSetup takes the pending SETUP packet, or returns
	// pkg.ErrWouldBlock when none arrived.
	ReadSetup(out *SetupPacket) error

	// Read takes one received OUT packet from the endpoint.
	// Returns pkg.ErrWouldBlock when the endpoint holds no packet and
	// pkg.ErrBufferTooSmall when buf cannot hold it.
	Read(address uint8, buf []byte) (int, error)

	// Write queues one IN packet (at most the endpoint's max packet size).
	// A nil or empty data queues a zero-length packet. Returns
	// pkg.ErrWouldBlock while the previous packet is still waiting for the
	// host.
	Write(address uint8, data []byte) (int, error)

	// SetAddress latches the device address. The controller applies it once
	// the status stage of the current control transfer completes.
	SetAddress(address uint8) error

	// ConfigureEndpoints enables the given data endpoints. A nil slice
	// disables every endpoint except endpoint 0.
	ConfigureEndpoints(endpoints []EndpointConfig) error

	// Stall halts the endpoint until the next SETUP (endpoint 0) or
	// ClearStall.
	Stall(address uint8) error

	// ClearStall resumes a halted endpoint.
	ClearStall(address uint8) error
}
