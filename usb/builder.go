package usb

import (
	"fmt"

	"github.com/ardnew/softbadge/hal"
	"github.com/ardnew/softbadge/pkg"
)

// Default identity.
const (
	DefaultVendorID     = 0x16c0
	DefaultProductID    = 0x27dd
	DefaultManufacturer = "Fake company"
	DefaultProduct      = "Serial port"
	DefaultSerialNumber = "TEST"
	DefaultDeviceClass  = ClassCDC
)

// Builder stages the device identity before the serial port exists.
type Builder struct {
	bus hal.USBBus
	irq hal.Interrupt
	id  Identity
}

// NewBuilder returns a builder for bus with the default identity.
func NewBuilder(bus hal.USBBus) *Builder {
	return &Builder{
		bus: bus,
		id: Identity{
			VendorID:     DefaultVendorID,
			ProductID:    DefaultProductID,
			Manufacturer: DefaultManufacturer,
			Product:      DefaultProduct,
			SerialNumber: DefaultSerialNumber,
			DeviceClass:  DefaultDeviceClass,
		},
	}
}

// VIDPID sets the vendor and product IDs.
func (b *Builder) VIDPID(vid, pid uint16) *Builder {
	b.id.VendorID = vid
	b.id.ProductID = pid
	return b
}

// Manufacturer sets the manufacturer string.
func (b *Builder) Manufacturer(s string) *Builder {
	b.id.Manufacturer = s
	return b
}

// Product sets the product string.
func (b *Builder) Product(s string) *Builder {
	b.id.Product = s
	return b
}

// SerialNumber sets the serial number string.
func (b *Builder) SerialNumber(s string) *Builder {
	b.id.SerialNumber = s
	return b
}

// DeviceClass sets the device class code.
func (b *Builder) DeviceClass(class uint8) *Builder {
	b.id.DeviceClass = class
	return b
}

// Interrupt sets the USB vector used by interrupt mode.
func (b *Builder) Interrupt(irq hal.Interrupt) *Builder {
	b.irq = irq
	return b
}

// Identity returns the staged identity.
func (b *Builder) Identity() Identity {
	return b.id
}

// Build attaches the device and installs the process-wide serial port. The
// builder gives up its bus, so a second Build on it, or a Build on any other
// builder in the same process, returns pkg.ErrAlreadyTaken. If the bus
// cannot attach, the builder keeps its bus and Build may be retried.
func (b *Builder) Build() (*Serial, error) {
	if b.bus == nil {
		return nil, fmt.Errorf("usb: %w", pkg.ErrAlreadyTaken)
	}
	for _, s := range []string{b.id.Manufacturer, b.id.Product, b.id.SerialNumber} {
		if StringLength(s) > MaxStringLength {
			return nil, fmt.Errorf("usb: string %q too long: %w", s, pkg.ErrInvalidParameter)
		}
	}
	if err := built.Take(); err != nil {
		return nil, fmt.Errorf("usb: %w", err)
	}
	s := &Serial{irq: b.irq}
	s.dev.init(b.bus, b.id)
	if err := b.bus.Enable(); err != nil {
		built.Release()
		return nil, fmt.Errorf("usb: attach: %w", err)
	}
	b.bus = nil
	active.Store(s)

	pkg.LogInfo(pkg.ComponentUSB, "serial port attached",
		"vid", fmt.Sprintf("0x%04x", b.id.VendorID),
		"pid", fmt.Sprintf("0x%04x", b.id.ProductID),
		"product", b.id.Product)
	return s, nil
}
