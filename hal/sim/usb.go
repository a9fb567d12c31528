package sim

import (
	"fmt"
	"sync"

	"github.com/ardnew/softbadge/hal"
	"github.com/ardnew/softbadge/pkg"
)

// EP0MaxPacket is the control endpoint packet size.
const EP0MaxPacket = 64

type inSlot struct {
	data []byte
	full bool
}

// USBBus is a simulated USB device controller. The device side implements
// hal.USBBus; the host side is driven through the exported host methods or
// a [Host].
//
// Each OUT endpoint queues packets from the host. Each IN endpoint holds a
// single packet bank that the host empties.
type USBBus struct {
	mu sync.Mutex

	enabled  bool
	fault    error
	events   hal.BusEvent
	setup    hal.SetupPacket
	hasSetup bool
	address  uint8
	pending  uint8
	out      map[uint8][][]byte
	in       map[uint8]*inSlot
	stalled  map[uint8]bool
	eps      map[uint8]hal.EndpointConfig
}

// NewUSBBus returns a detached controller with only endpoint 0.
func NewUSBBus() *USBBus {
	b := &USBBus{}
	b.resetLocked()
	return b
}

func (b *USBBus) resetLocked() {
	b.address = 0
	b.pending = 0
	b.hasSetup = false
	b.out = make(map[uint8][][]byte)
	b.in = make(map[uint8]*inSlot)
	b.stalled = make(map[uint8]bool)
	b.eps = map[uint8]hal.EndpointConfig{
		0x00: {Address: 0x00, Attributes: hal.TransferControl, MaxPacketSize: EP0MaxPacket},
		0x80: {Address: 0x80, Attributes: hal.TransferControl, MaxPacketSize: EP0MaxPacket},
	}
}

// Device side (hal.USBBus).

// Enable attaches the device.
func (b *USBBus) Enable() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fault != nil {
		return b.fault
	}
	b.enabled = true
	return nil
}

// Fail makes later Enable calls return err, as if the pads could not be
// attached. A nil err clears it.
func (b *USBBus) Fail(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fault = err
}

// Poll returns and clears the pending bus events.
func (b *USBBus) Poll() hal.BusEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	ev := b.events
	b.events = 0
	return ev
}

// ReadSetup takes the pending SETUP packet.
func (b *USBBus) ReadSetup(out *hal.SetupPacket) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.hasSetup {
		return pkg.ErrWouldBlock
	}
	*out = b.setup
	b.hasSetup = false
	return nil
}

// Read takes one OUT packet.
func (b *USBBus) Read(address uint8, buf []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.eps[address]; !ok || address&hal.EndpointDirIn != 0 {
		return 0, fmt.Errorf("read endpoint 0x%02X: %w", address, pkg.ErrInvalidEndpoint)
	}
	q := b.out[address]
	if len(q) == 0 {
		return 0, pkg.ErrWouldBlock
	}
	if len(q[0]) > len(buf) {
		return 0, pkg.ErrBufferTooSmall
	}
	n := copy(buf, q[0])
	b.out[address] = q[1:]
	return n, nil
}

// Write fills the IN bank of the endpoint.
func (b *USBBus) Write(address uint8, data []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ep, ok := b.eps[address]
	if !ok || address&hal.EndpointDirIn == 0 {
		return 0, fmt.Errorf("write endpoint 0x%02X: %w", address, pkg.ErrInvalidEndpoint)
	}
	if len(data) > int(ep.MaxPacketSize) {
		return 0, fmt.Errorf("packet of %d bytes on endpoint 0x%02X: %w", len(data), address, pkg.ErrInvalidParameter)
	}
	slot := b.in[address]
	if slot == nil {
		slot = &inSlot{}
		b.in[address] = slot
	}
	if slot.full {
		return 0, pkg.ErrWouldBlock
	}
	slot.data = append(slot.data[:0], data...)
	slot.full = true
	return len(data), nil
}

// SetAddress latches the device address for the end of the status stage.
func (b *USBBus) SetAddress(address uint8) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if address > 127 {
		return fmt.Errorf("address %d: %w", address, pkg.ErrInvalidParameter)
	}
	b.pending = address
	if slot := b.in[0x80]; slot == nil || !slot.full {
		b.address = address
	}
	return nil
}

// ConfigureEndpoints enables the data endpoints.
func (b *USBBus) ConfigureEndpoints(endpoints []hal.EndpointConfig) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for addr := range b.eps {
		if addr&0x0F != 0 {
			delete(b.eps, addr)
			delete(b.in, addr)
			delete(b.out, addr)
			delete(b.stalled, addr)
		}
	}
	for _, ep := range endpoints {
		if ep.Number() == 0 {
			return fmt.Errorf("configure endpoint 0: %w", pkg.ErrInvalidEndpoint)
		}
		b.eps[ep.Address] = ep
	}
	return nil
}

// Stall halts the endpoint.
func (b *USBBus) Stall(address uint8) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.eps[address]; !ok {
		return fmt.Errorf("stall endpoint 0x%02X: %w", address, pkg.ErrInvalidEndpoint)
	}
	b.stalled[address] = true
	return nil
}

// ClearStall resumes the endpoint.
func (b *USBBus) ClearStall(address uint8) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.eps[address]; !ok {
		return fmt.Errorf("clear stall endpoint 0x%02X: %w", address, pkg.ErrInvalidEndpoint)
	}
	delete(b.stalled, address)
	return nil
}

// Host side.

// Attached reports whether the device enabled its pull-up.
func (b *USBBus) Attached() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.enabled
}

// BusReset drives a bus reset: the address returns to 0, data endpoints are
// disabled and pending packets are dropped.
func (b *USBBus) BusReset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.resetLocked()
	b.events |= hal.EventReset
}

// Suspend idles the bus.
func (b *USBBus) Suspend() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events |= hal.EventSuspend
}

// Resume signals bus activity after suspend.
func (b *USBBus) Resume() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events |= hal.EventResume
}

// SendSetup delivers a SETUP packet. Like the hardware, a SETUP clears any
// stall and pending data on endpoint 0.
func (b *USBBus) SendSetup(p hal.SetupPacket) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.setup = p
	b.hasSetup = true
	delete(b.stalled, 0x00)
	delete(b.stalled, 0x80)
	delete(b.out, 0x00)
	if slot := b.in[0x80]; slot != nil {
		slot.full = false
	}
}

// SendOut queues one OUT packet for the device.
func (b *USBBus) SendOut(address uint8, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.eps[address]; !ok || address&hal.EndpointDirIn != 0 {
		return fmt.Errorf("send to endpoint 0x%02X: %w", address, pkg.ErrInvalidEndpoint)
	}
	if b.stalled[address] {
		return fmt.Errorf("send to endpoint 0x%02X: %w", address, pkg.ErrStall)
	}
	pkt := make([]byte, len(data))
	copy(pkt, data)
	b.out[address] = append(b.out[address], pkt)
	return nil
}

// TakeIn empties the IN bank of the endpoint. It reports false when the
// bank is empty and returns pkg.ErrStall when the endpoint is halted.
func (b *USBBus) TakeIn(address uint8) ([]byte, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stalled[address] {
		return nil, false, fmt.Errorf("endpoint 0x%02X: %w", address, pkg.ErrStall)
	}
	slot := b.in[address]
	if slot == nil || !slot.full {
		return nil, false, nil
	}
	slot.full = false
	pkt := make([]byte, len(slot.data))
	copy(pkt, slot.data)
	if address == 0x80 {
		b.address = b.pending
	}
	return pkt, true, nil
}

// Stalled reports whether the endpoint is halted.
func (b *USBBus) Stalled(address uint8) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stalled[address]
}

// Address returns the device address in effect.
func (b *USBBus) Address() uint8 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.address
}

// Endpoints returns the enabled endpoint configurations, excluding
// endpoint 0.
func (b *USBBus) Endpoints() []hal.EndpointConfig {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []hal.EndpointConfig
	for addr, ep := range b.eps {
		if addr&0x0F != 0 {
			out = append(out, ep)
		}
	}
	return out
}
