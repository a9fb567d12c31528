package usb

import (
	"fmt"
	"sync/atomic"

	"github.com/ardnew/softbadge/guard"
	"github.com/ardnew/softbadge/hal"
	"github.com/ardnew/softbadge/pkg"
)

var (
	built  guard.Guard
	active atomic.Pointer[Serial]
)

// Serial is the process-wide USB serial port.
//
// In interrupt mode the foreground methods mask the USB vector while they
// touch shared state, so they may be called from the foreground and from the
// function installed with SetInterrupt alike.
type Serial struct {
	dev     device
	irq     hal.Interrupt
	handler func()
	irqOn   bool
}

func (s *Serial) enter() {
	if s.irqOn {
		s.irq.Disable()
	}
}

func (s *Serial) exit() {
	if s.irqOn {
		s.irq.Enable()
	}
}

// Poll runs one step of the device state machine: bus reset and suspend,
// endpoint 0 control transfers, and the bulk endpoints. It reports whether
// the port may have data to read.
//
// Call Poll at least every 10 ms while attached, or use interrupt mode.
func (s *Serial) Poll() bool {
	s.enter()
	before := s.dev.state
	ready := s.dev.poll()
	after := s.dev.state
	s.exit()

	if before != after {
		pkg.LogDebug(pkg.ComponentUSB, "state changed", "from", before, "to", after)
	}
	return ready
}

// Read moves received bytes into buf. It returns pkg.ErrWouldBlock when
// nothing is buffered.
func (s *Serial) Read(buf []byte) (int, error) {
	if len(buf) == 0 {
		return 0, nil
	}
	s.enter()
	defer s.exit()
	if s.dev.port.rx.len() == 0 {
		return 0, pkg.ErrWouldBlock
	}
	return s.dev.port.rx.read(buf), nil
}

// Write buffers as much of buf as fits for transmission and returns the
// count, which may be short. It returns pkg.ErrWouldBlock when the transmit
// buffer is full.
func (s *Serial) Write(buf []byte) (int, error) {
	if len(buf) == 0 {
		return 0, nil
	}
	s.enter()
	defer s.exit()
	if s.dev.port.tx.free() == 0 {
		return 0, pkg.ErrWouldBlock
	}
	return s.dev.port.tx.write(buf), nil
}

// Flush returns pkg.ErrWouldBlock until every buffered byte has been handed
// to the host.
func (s *Serial) Flush() error {
	s.enter()
	defer s.exit()
	if s.dev.port.tx.len() > 0 || s.dev.port.zlp {
		return pkg.ErrWouldBlock
	}
	return nil
}

// LineCoding returns the line coding last set by the host.
func (s *Serial) LineCoding() LineCoding {
	s.enter()
	defer s.exit()
	return s.dev.port.coding
}

// DTR reports the host's Data Terminal Ready line.
func (s *Serial) DTR() bool {
	s.enter()
	defer s.exit()
	return s.dev.port.lines&ControlLineDTR != 0
}

// RTS reports the host's Request To Send line.
func (s *Serial) RTS() bool {
	s.enter()
	defer s.exit()
	return s.dev.port.lines&ControlLineRTS != 0
}

// State returns the device state.
func (s *Serial) State() State {
	s.enter()
	defer s.exit()
	return s.dev.state
}

// Address returns the address assigned by the host.
func (s *Serial) Address() uint8 {
	s.enter()
	defer s.exit()
	return s.dev.address
}

// Identity returns the identity fixed at build time.
func (s *Serial) Identity() Identity {
	return s.dev.id
}

// Err returns the last controller error seen while polling, if any.
func (s *Serial) Err() error {
	s.enter()
	defer s.exit()
	return s.dev.fault
}

// SetInterrupt installs fn to run from the USB vector after each poll.
// Install the function before EnableInterrupt.
func (s *Serial) SetInterrupt(fn func()) {
	s.enter()
	defer s.exit()
	s.handler = fn
}

// EnableInterrupt routes the USB vector to [HandleInterrupt] and unmasks
// it. It returns pkg.ErrNotSupported when the serial port was built without
// an interrupt.
func (s *Serial) EnableInterrupt() error {
	if s.irq == nil {
		return fmt.Errorf("usb: interrupt mode: %w", pkg.ErrNotSupported)
	}
	s.irq.SetHandler(HandleInterrupt)
	s.irqOn = true
	s.irq.Enable()
	pkg.LogDebug(pkg.ComponentUSB, "interrupt mode enabled")
	return nil
}

// DisableInterrupt masks the USB vector. The application polls again.
func (s *Serial) DisableInterrupt() {
	if s.irq == nil {
		return
	}
	s.irq.Disable()
	s.irqOn = false
}

// HandleInterrupt services the USB vector: it polls the device and then
// runs the function installed with SetInterrupt. It does nothing before
// Build.
func HandleInterrupt() {
	s := active.Load()
	if s == nil {
		return
	}
	s.dev.poll()
	if s.handler != nil {
		s.handler()
	}
}
