package usb

import (
	"errors"
	"fmt"

	"github.com/ardnew/softbadge/hal"
	"github.com/ardnew/softbadge/pkg"
)

// State is the USB device state (USB 2.0 section 9.1).
type State uint8

// Device states.
const (
	StatePowered    State = iota // Pull-up attached, waiting for a bus reset
	StateDefault                 // Reset, responding at address 0
	StateAddress                 // Address assigned
	StateConfigured              // Configuration selected, serial port live
	StateSuspended               // Bus idle
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StatePowered:
		return "Powered"
	case StateDefault:
		return "Default"
	case StateAddress:
		return "Address"
	case StateConfigured:
		return "Configured"
	case StateSuspended:
		return "Suspended"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// Endpoint and interface layout of the serial configuration.
const (
	EndpointNotify  = 0x81 // CDC notifications (interrupt IN)
	EndpointDataOut = 0x02 // Host to device bytes (bulk OUT)
	EndpointDataIn  = 0x82 // Device to host bytes (bulk IN)

	MaxPacketSize0   = 64
	DataPacketSize   = 64
	NotifyPacketSize = 8
	notifyInterval   = 255

	InterfaceComm      = 0
	InterfaceData      = 1
	ConfigurationValue = 1

	// maxPower is in 2 mA units.
	maxPower = 50
)

// Standard request codes (USB 2.0 Table 9-4).
const (
	RequestGetStatus        = 0x00
	RequestClearFeature     = 0x01
	RequestSetFeature       = 0x03
	RequestSetAddress       = 0x05
	RequestGetDescriptor    = 0x06
	RequestGetConfiguration = 0x08
	RequestSetConfiguration = 0x09
	RequestGetInterface     = 0x0A
	RequestSetInterface     = 0x0B
)

// Feature selectors.
const (
	FeatureEndpointHalt       = 0x00
	FeatureDeviceRemoteWakeup = 0x01
)

// bmRequestType fields.
const (
	requestTypeMask     = 0x60
	requestTypeStandard = 0x00
	requestTypeClass    = 0x20
	recipientMask       = 0x1F
	recipientDevice     = 0x00
	recipientInterface  = 0x01
	recipientEndpoint   = 0x02
)

const (
	configDescriptorSize = 67
	controlBufSize       = 256
)

// String descriptor indices.
const (
	stringLanguages = iota
	stringManufacturer
	stringProduct
	stringSerialNumber
)

var dataEndpoints = []hal.EndpointConfig{
	{Address: EndpointNotify, Attributes: hal.TransferInterrupt, MaxPacketSize: NotifyPacketSize, Interval: notifyInterval},
	{Address: EndpointDataOut, Attributes: hal.TransferBulk, MaxPacketSize: DataPacketSize},
	{Address: EndpointDataIn, Attributes: hal.TransferBulk, MaxPacketSize: DataPacketSize},
}

// Identity is the fixed device identity reported to the host.
type Identity struct {
	VendorID     uint16
	ProductID    uint16
	Manufacturer string
	Product      string
	SerialNumber string
	DeviceClass  uint8
}

type stage uint8

const (
	stageIdle      stage = iota
	stageDataIn          // sending the data stage of a control read
	stageDataOut         // receiving the data stage of a control write
	stageStatusIn        // sending the zero-length status of a control write
	stageStatusOut       // waiting for the host's zero-length status
)

// control is the endpoint 0 transfer state.
type control struct {
	stage      stage
	setup      hal.SetupPacket
	buf        [controlBufSize]byte
	n          int
	off        int
	zlp        bool
	address    uint8
	setAddress bool
	scratch    [MaxPacketSize0]byte
}

func (c *control) begin() {
	c.stage = stageIdle
	c.n = 0
	c.off = 0
	c.zlp = false
	c.setAddress = false
}

// device is the polled device state machine.
type device struct {
	bus     hal.USBBus
	id      Identity
	state   State
	resume  State
	address uint8
	config  uint8
	halted  uint8
	fault   error
	ctrl    control
	cfgDesc [configDescriptorSize]byte
	port    port
}

func (d *device) init(bus hal.USBBus, id Identity) {
	d.bus = bus
	d.id = id
	d.state = StatePowered
	d.port.reset()
	d.buildConfiguration()
}

func (d *device) buildConfiguration() {
	b := d.cfgDesc[:0]
	b = ConfigDescriptor{
		TotalLength: configDescriptorSize,
		Interfaces:  2,
		Value:       ConfigurationValue,
		Attributes:  AttrBusPowered,
		MaxPower:    maxPower,
	}.Append(b)
	b = InterfaceDescriptor{
		Number:    InterfaceComm,
		Endpoints: 1,
		Class:     ClassCDC,
		SubClass:  SubclassACM,
		Protocol:  ProtocolNone,
	}.Append(b)
	b = appendHeader(b, 0x0110)
	b = appendCallManagement(b, 0, InterfaceData)
	b = appendACM(b, acmCapLineCoding)
	b = appendUnion(b, InterfaceComm, InterfaceData)
	b = appendEndpoint(b, dataEndpoints[0])
	b = InterfaceDescriptor{
		Number:    InterfaceData,
		Endpoints: 2,
		Class:     ClassCDCData,
	}.Append(b)
	b = appendEndpoint(b, dataEndpoints[1])
	appendEndpoint(b, dataEndpoints[2])
}

func appendEndpoint(b []byte, ep hal.EndpointConfig) []byte {
	return EndpointDescriptor{
		Address:       ep.Address,
		Attributes:    ep.Attributes,
		MaxPacketSize: ep.MaxPacketSize,
		Interval:      ep.Interval,
	}.Append(b)
}

func (d *device) deviceDescriptor() DeviceDescriptor {
	return DeviceDescriptor{
		BCDUSB:         0x0200,
		Class:          d.id.DeviceClass,
		MaxPacketSize0: MaxPacketSize0,
		VendorID:       d.id.VendorID,
		ProductID:      d.id.ProductID,
		BCDDevice:      0x0010,
		Manufacturer:   stringManufacturer,
		Product:        stringProduct,
		SerialNumber:   stringSerialNumber,
		Configurations: 1,
	}
}

// poll runs one step of the state machine. It reports endpoint activity or
// buffered receive data.
func (d *device) poll() bool {
	ev := d.bus.Poll()
	active := ev != 0

	if ev.Has(hal.EventReset) {
		d.reset()
	}
	if ev.Has(hal.EventSuspend) && d.state != StateSuspended {
		d.resume = d.state
		d.state = StateSuspended
	}
	if ev.Has(hal.EventResume) && d.state == StateSuspended {
		d.state = d.resume
	}
	if d.state == StatePowered || d.state == StateSuspended {
		return false
	}

	if d.bus.ReadSetup(&d.ctrl.setup) == nil {
		d.handleSetup()
		active = true
	}
	if d.serviceOut() {
		active = true
	}
	if d.serviceIn() {
		active = true
	}
	if d.state == StateConfigured {
		moved, err := d.port.poll(d.bus)
		if err != nil {
			d.fault = err
		}
		if moved {
			active = true
		}
	}
	return active || d.port.rx.len() > 0
}

func (d *device) reset() {
	d.state = StateDefault
	d.address = 0
	d.config = 0
	d.halted = 0
	d.ctrl.begin()
	if err := d.bus.ConfigureEndpoints(nil); err != nil {
		d.fault = err
	}
	d.port.reset()
}

func (d *device) stall() {
	d.ctrl.stage = stageIdle
	if err := d.bus.Stall(0x80); err != nil {
		d.fault = err
	}
	if err := d.bus.Stall(0x00); err != nil {
		d.fault = err
	}
}

func (d *device) handleSetup() {
	s := &d.ctrl.setup
	d.ctrl.begin()

	if s.IsDeviceToHost() {
		n, err := d.controlIn(s, d.ctrl.buf[:])
		if err != nil {
			d.stall()
			return
		}
		n = min(n, int(s.Length))
		d.ctrl.n = n
		d.ctrl.zlp = n == 0 || (n < int(s.Length) && n%MaxPacketSize0 == 0)
		d.ctrl.stage = stageDataIn
		return
	}

	if s.Length > 0 {
		if int(s.Length) > len(d.ctrl.buf) {
			d.stall()
			return
		}
		d.ctrl.stage = stageDataOut
		return
	}
	d.finishOut(nil)
}

func (d *device) finishOut(data []byte) {
	if err := d.controlOut(&d.ctrl.setup, data); err != nil {
		d.stall()
		return
	}
	d.ctrl.stage = stageStatusIn
}

// serviceOut consumes one endpoint 0 OUT packet: control write data, or the
// zero-length status of a control read.
func (d *device) serviceOut() bool {
	if d.ctrl.stage == stageDataOut {
		n, err := d.bus.Read(0x00, d.ctrl.buf[d.ctrl.n:])
		if errors.Is(err, pkg.ErrWouldBlock) {
			return false
		}
		if err != nil {
			d.stall()
			return true
		}
		d.ctrl.n += n
		if d.ctrl.n >= int(d.ctrl.setup.Length) || n < MaxPacketSize0 {
			d.finishOut(d.ctrl.buf[:d.ctrl.n])
		}
		return true
	}

	if _, err := d.bus.Read(0x00, d.ctrl.scratch[:]); err != nil {
		return false
	}
	if d.ctrl.stage == stageStatusOut || d.ctrl.stage == stageDataIn {
		d.ctrl.stage = stageIdle
	}
	return true
}

// serviceIn queues the next endpoint 0 IN packet if the bank is free.
func (d *device) serviceIn() bool {
	switch d.ctrl.stage {
	case stageDataIn:
		end := min(d.ctrl.off+MaxPacketSize0, d.ctrl.n)
		chunk := d.ctrl.buf[d.ctrl.off:end]
		_, err := d.bus.Write(0x80, chunk)
		if errors.Is(err, pkg.ErrWouldBlock) {
			return false
		}
		if err != nil {
			d.stall()
			return true
		}
		d.ctrl.off = end
		if len(chunk) == 0 {
			d.ctrl.zlp = false
		}
		if d.ctrl.off >= d.ctrl.n && !d.ctrl.zlp {
			d.ctrl.stage = stageStatusOut
		}
		return true

	case stageStatusIn:
		_, err := d.bus.Write(0x80, nil)
		if errors.Is(err, pkg.ErrWouldBlock) {
			return false
		}
		if err != nil {
			d.stall()
			return true
		}
		d.ctrl.stage = stageIdle
		if d.ctrl.setAddress {
			d.ctrl.setAddress = false
			d.applyAddress(d.ctrl.address)
		}
		return true
	}
	return false
}

func (d *device) applyAddress(addr uint8) {
	if err := d.bus.SetAddress(addr); err != nil {
		d.fault = err
		return
	}
	d.address = addr
	if addr == 0 {
		d.state = StateDefault
	} else {
		d.state = StateAddress
	}
}

// controlIn answers a control read into buf.
func (d *device) controlIn(s *hal.SetupPacket, buf []byte) (int, error) {
	switch s.RequestType & requestTypeMask {
	case requestTypeStandard:
		switch s.RequestType & recipientMask {
		case recipientDevice:
			switch s.Request {
			case RequestGetStatus:
				buf[0], buf[1] = 0, 0
				return 2, nil
			case RequestGetDescriptor:
				return d.descriptor(s, buf)
			case RequestGetConfiguration:
				buf[0] = d.config
				return 1, nil
			}
		case recipientInterface:
			if d.state != StateConfigured {
				return 0, pkg.ErrNotConfigured
			}
			if s.Index > InterfaceData {
				return 0, pkg.ErrInvalidRequest
			}
			switch s.Request {
			case RequestGetStatus:
				buf[0], buf[1] = 0, 0
				return 2, nil
			case RequestGetInterface:
				buf[0] = 0
				return 1, nil
			}
		case recipientEndpoint:
			if s.Request != RequestGetStatus {
				break
			}
			addr := uint8(s.Index)
			buf[0], buf[1] = 0, 0
			if addr&0x0F == 0 {
				return 2, nil
			}
			bit := haltBit(addr)
			if bit == 0 || d.state != StateConfigured {
				return 0, pkg.ErrInvalidEndpoint
			}
			if d.halted&bit != 0 {
				buf[0] = 1
			}
			return 2, nil
		}
	case requestTypeClass:
		if s.RequestType&recipientMask == recipientInterface && s.Index == InterfaceComm {
			return d.port.controlIn(s, buf)
		}
	}
	return 0, pkg.ErrInvalidRequest
}

func (d *device) descriptor(s *hal.SetupPacket, buf []byte) (int, error) {
	typ, index := uint8(s.Value>>8), uint8(s.Value)
	var n int
	switch typ {
	case DescriptorTypeDevice:
		if len(buf) >= DeviceDescriptorSize {
			n = len(d.deviceDescriptor().Append(buf[:0]))
		}
	case DescriptorTypeConfiguration:
		if index != 0 {
			return 0, pkg.ErrInvalidRequest
		}
		n = copy(buf, d.cfgDesc[:])
	case DescriptorTypeString:
		switch index {
		case stringLanguages:
			n = LanguageDescriptorTo(buf, LanguageEnglishUS)
		case stringManufacturer:
			n = StringDescriptorTo(buf, d.id.Manufacturer)
		case stringProduct:
			n = StringDescriptorTo(buf, d.id.Product)
		case stringSerialNumber:
			n = StringDescriptorTo(buf, d.id.SerialNumber)
		default:
			return 0, pkg.ErrInvalidRequest
		}
	case DescriptorTypeDeviceQualifier:
		// Full speed only: the host must see a stall.
		return 0, pkg.ErrNotSupported
	default:
		return 0, pkg.ErrInvalidRequest
	}
	if n == 0 {
		return 0, pkg.ErrBufferTooSmall
	}
	return n, nil
}

// controlOut applies a control write.
func (d *device) controlOut(s *hal.SetupPacket, data []byte) error {
	switch s.RequestType & requestTypeMask {
	case requestTypeStandard:
		switch s.RequestType & recipientMask {
		case recipientDevice:
			switch s.Request {
			case RequestSetAddress:
				if d.state == StateConfigured {
					return pkg.ErrInvalidState
				}
				d.ctrl.address = uint8(s.Value & 0x7F)
				d.ctrl.setAddress = true
				return nil
			case RequestSetConfiguration:
				return d.setConfiguration(uint8(s.Value))
			case RequestSetFeature, RequestClearFeature:
				return pkg.ErrNotSupported
			}
		case recipientInterface:
			if s.Request == RequestSetInterface && d.state == StateConfigured &&
				s.Index <= InterfaceData && s.Value == 0 {
				return nil
			}
		case recipientEndpoint:
			if s.Value != FeatureEndpointHalt || d.state != StateConfigured {
				break
			}
			addr := uint8(s.Index)
			bit := haltBit(addr)
			if bit == 0 {
				return pkg.ErrInvalidEndpoint
			}
			switch s.Request {
			case RequestSetFeature:
				d.halted |= bit
				return d.bus.Stall(addr)
			case RequestClearFeature:
				d.halted &^= bit
				return d.bus.ClearStall(addr)
			}
		}
	case requestTypeClass:
		if s.RequestType&recipientMask == recipientInterface && s.Index == InterfaceComm {
			return d.port.controlOut(s, data)
		}
	}
	return pkg.ErrInvalidRequest
}

func (d *device) setConfiguration(value uint8) error {
	switch value {
	case 0:
		if d.state != StateAddress && d.state != StateConfigured {
			return pkg.ErrInvalidState
		}
		if err := d.bus.ConfigureEndpoints(nil); err != nil {
			return err
		}
		d.config = 0
		d.halted = 0
		d.state = StateAddress
		d.port.deconfigure()
		return nil
	case ConfigurationValue:
		if d.state != StateAddress && d.state != StateConfigured {
			return pkg.ErrInvalidState
		}
		if err := d.bus.ConfigureEndpoints(dataEndpoints); err != nil {
			return err
		}
		d.config = value
		d.halted = 0
		d.state = StateConfigured
		d.port.configure()
		return nil
	default:
		return pkg.ErrInvalidRequest
	}
}

func haltBit(addr uint8) uint8 {
	switch addr {
	case EndpointNotify:
		return 1 << 0
	case EndpointDataOut:
		return 1 << 1
	case EndpointDataIn:
		return 1 << 2
	default:
		return 0
	}
}
