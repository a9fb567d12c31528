package sim

import (
	"fmt"

	"github.com/ardnew/softbadge/hal"
	"github.com/ardnew/softbadge/pkg"
)

// Standard request codes used by the host helper.
const (
	requestGetDescriptor    = 0x06
	requestSetAddress       = 0x05
	requestSetConfiguration = 0x09

	descriptorDevice        = 0x01
	descriptorConfiguration = 0x02
	descriptorString        = 0x03
)

// DefaultMaxSteps bounds how many device polls a host transaction waits.
const DefaultMaxSteps = 64

// Host drives a [USBBus] from the host side. Step is called between bus
// transactions to let the device run, typically the device Poll or a fired
// USB interrupt.
type Host struct {
	Bus      *USBBus
	Step     func()
	MaxSteps int
}

// NewHost returns a host for bus that runs step between transactions.
func NewHost(bus *USBBus, step func()) *Host {
	return &Host{Bus: bus, Step: step, MaxSteps: DefaultMaxSteps}
}

func (h *Host) step() {
	if h.Step != nil {
		h.Step()
	}
}

func (h *Host) maxSteps() int {
	if h.MaxSteps <= 0 {
		return DefaultMaxSteps
	}
	return h.MaxSteps
}

// Reset drives a bus reset and lets the device observe it.
func (h *Host) Reset() {
	h.Bus.BusReset()
	h.step()
}

// ControlIn runs a control read and returns the data stage.
func (h *Host) ControlIn(setup hal.SetupPacket) ([]byte, error) {
	h.Bus.SendSetup(setup)

	var data []byte
	for range h.maxSteps() {
		h.step()
		pkt, ok, err := h.Bus.TakeIn(0x80)
		if err != nil {
			return data, err
		}
		if !ok {
			continue
		}
		data = append(data, pkt...)
		if len(pkt) < EP0MaxPacket || len(data) >= int(setup.Length) {
			if err := h.Bus.SendOut(0x00, nil); err != nil {
				return data, err
			}
			h.step()
			return data, nil
		}
	}
	return data, fmt.Errorf("control in 0x%02X: %w", setup.Request, pkg.ErrWouldBlock)
}

// ControlOut runs a control write with an optional data stage.
func (h *Host) ControlOut(setup hal.SetupPacket, data []byte) error {
	setup.Length = uint16(len(data))
	h.Bus.SendSetup(setup)
	for off := 0; off < len(data); off += EP0MaxPacket {
		end := min(off+EP0MaxPacket, len(data))
		if err := h.Bus.SendOut(0x00, data[off:end]); err != nil {
			return err
		}
	}

	for range h.maxSteps() {
		h.step()
		pkt, ok, err := h.Bus.TakeIn(0x80)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if len(pkt) != 0 {
			return fmt.Errorf("status stage carried %d bytes: %w", len(pkt), pkg.ErrProtocol)
		}
		return nil
	}
	return fmt.Errorf("control out 0x%02X: %w", setup.Request, pkg.ErrWouldBlock)
}

// GetDescriptor reads a standard descriptor.
func (h *Host) GetDescriptor(typ, index uint8, langID, length uint16) ([]byte, error) {
	return h.ControlIn(hal.SetupPacket{
		RequestType: 0x80,
		Request:     requestGetDescriptor,
		Value:       uint16(typ)<<8 | uint16(index),
		Index:       langID,
		Length:      length,
	})
}

// GetString reads string descriptor index in US English and decodes it.
func (h *Host) GetString(index uint8) (string, error) {
	raw, err := h.GetDescriptor(descriptorString, index, 0x0409, 255)
	if err != nil {
		return "", err
	}
	if len(raw) < 2 || int(raw[0]) > len(raw) {
		return "", fmt.Errorf("string descriptor %d: %w", index, pkg.ErrProtocol)
	}
	units := raw[2:raw[0]]
	r := make([]rune, 0, len(units)/2)
	for i := 0; i+1 < len(units); i += 2 {
		r = append(r, rune(uint16(units[i])|uint16(units[i+1])<<8))
	}
	return string(r), nil
}

// Enumeration holds what the host learned while enumerating a device.
type Enumeration struct {
	Device        []byte
	Configuration []byte
	Address       uint8
}

// Enumerate resets the bus, reads the device descriptor, assigns addr,
// reads the full configuration descriptor and selects configuration 1.
func (h *Host) Enumerate(addr uint8) (*Enumeration, error) {
	h.Reset()

	dev, err := h.GetDescriptor(descriptorDevice, 0, 0, 18)
	if err != nil {
		return nil, fmt.Errorf("device descriptor: %w", err)
	}
	if err := h.ControlOut(hal.SetupPacket{Request: requestSetAddress, Value: uint16(addr)}, nil); err != nil {
		return nil, fmt.Errorf("set address: %w", err)
	}
	head, err := h.GetDescriptor(descriptorConfiguration, 0, 0, 9)
	if err != nil {
		return nil, fmt.Errorf("configuration header: %w", err)
	}
	if len(head) < 4 {
		return nil, fmt.Errorf("configuration header: %w", pkg.ErrProtocol)
	}
	total := uint16(head[2]) | uint16(head[3])<<8
	cfg, err := h.GetDescriptor(descriptorConfiguration, 0, 0, total)
	if err != nil {
		return nil, fmt.Errorf("configuration descriptor: %w", err)
	}
	if err := h.ControlOut(hal.SetupPacket{Request: requestSetConfiguration, Value: 1}, nil); err != nil {
		return nil, fmt.Errorf("set configuration: %w", err)
	}
	return &Enumeration{Device: dev, Configuration: cfg, Address: h.Bus.Address()}, nil
}

// BulkOut sends data to an OUT endpoint in packets of maxPacket bytes,
// letting the device run after each packet.
func (h *Host) BulkOut(address uint8, data []byte, maxPacket int) error {
	for off := 0; off < len(data); off += maxPacket {
		end := min(off+maxPacket, len(data))
		if err := h.Bus.SendOut(address, data[off:end]); err != nil {
			return err
		}
		h.step()
	}
	return nil
}

// BulkIn collects IN packets from the endpoint until the device stops
// producing them.
func (h *Host) BulkIn(address uint8) ([]byte, error) {
	var data []byte
	idle := 0
	for range h.maxSteps() {
		h.step()
		pkt, ok, err := h.Bus.TakeIn(address)
		if err != nil {
			return data, err
		}
		if !ok {
			idle++
			if idle >= 2 {
				break
			}
			continue
		}
		idle = 0
		data = append(data, pkt...)
	}
	return data, nil
}
