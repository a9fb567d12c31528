package pkg

import "errors"

// Ownership errors.
var (
	// ErrAlreadyTaken indicates a one-shot capability (the board peripherals,
	// an interrupt slot, the USB singleton) was already claimed.
	ErrAlreadyTaken = errors.New("peripherals already taken")
)

// Transient I/O errors.
var (
	// ErrWouldBlock indicates no data or buffer space is available right now.
	// Callers poll again later.
	ErrWouldBlock = errors.New("operation would block")
)

// Hardware protocol faults.
var (
	// ErrCommand indicates a bus command was issued through the wrong bus
	// operation, or its response did not match the command.
	ErrCommand = errors.New("command mismatch")

	// ErrPin indicates a GPIO operation failed.
	ErrPin = errors.New("pin operation failed")
)

// USB protocol errors.
var (
	// ErrStall indicates an endpoint stall condition.
	ErrStall = errors.New("endpoint stalled")

	// ErrProtocol indicates a protocol error.
	ErrProtocol = errors.New("protocol error")

	// ErrNotConfigured indicates the device is not configured.
	ErrNotConfigured = errors.New("device not configured")

	// ErrInvalidEndpoint indicates an invalid endpoint address.
	ErrInvalidEndpoint = errors.New("invalid endpoint")

	// ErrInvalidState indicates an invalid device state for the operation.
	ErrInvalidState = errors.New("invalid device state")

	// ErrInvalidRequest indicates an invalid or unsupported request.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrBufferTooSmall indicates the provided buffer is too small.
	ErrBufferTooSmall = errors.New("buffer too small")

	// ErrSetupPacketTooShort indicates the setup packet data is too short.
	ErrSetupPacketTooShort = errors.New("setup packet too short")

	// ErrNotSupported indicates an unsupported operation or feature.
	ErrNotSupported = errors.New("not supported")
)

// General errors.
var (
	// ErrInvalidParameter indicates an invalid parameter was provided.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrOutOfRange indicates an address or index beyond the device geometry.
	ErrOutOfRange = errors.New("out of range")
)

// Fault classifies an error by the handling policy the drivers follow.
type Fault int

// Fault classes.
const (
	FaultNone      Fault = iota // No error
	FaultTaken                  // Capability already taken; fatal to the caller
	FaultTransient              // Would block; retry or poll again
	FaultHardware               // Protocol or pin fault; propagate, no recovery
	FaultOther                  // Anything else
)

// String returns a string representation of the fault class.
func (f Fault) String() string {
	switch f {
	case FaultNone:
		return "none"
	case FaultTaken:
		return "taken"
	case FaultTransient:
		return "transient"
	case FaultHardware:
		return "hardware"
	default:
		return "other"
	}
}

// Classify returns the fault class of err.
func Classify(err error) Fault {
	switch {
	case err == nil:
		return FaultNone
	case errors.Is(err, ErrAlreadyTaken):
		return FaultTaken
	case errors.Is(err, ErrWouldBlock):
		return FaultTransient
	case errors.Is(err, ErrCommand), errors.Is(err, ErrPin):
		return FaultHardware
	default:
		return FaultOther
	}
}
