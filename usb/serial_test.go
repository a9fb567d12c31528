package usb

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ardnew/softbadge/hal"
	"github.com/ardnew/softbadge/hal/sim"
	"github.com/ardnew/softbadge/pkg"
)

func newSerial(t *testing.T, b func(*Builder)) (*Serial, *sim.USBBus, *sim.Host) {
	t.Helper()
	resetSingleton()
	t.Cleanup(resetSingleton)

	bus := sim.NewUSBBus()
	builder := NewBuilder(bus)
	if b != nil {
		b(builder)
	}
	s, err := builder.Build()
	require.NoError(t, err)
	require.True(t, bus.Attached())
	host := sim.NewHost(bus, func() { s.Poll() })
	return s, bus, host
}

func enumerated(t *testing.T) (*Serial, *sim.USBBus, *sim.Host) {
	t.Helper()
	s, bus, host := newSerial(t, nil)
	_, err := host.Enumerate(5)
	require.NoError(t, err)
	require.Equal(t, StateConfigured, s.State())
	return s, bus, host
}

func TestBuilder_Defaults(t *testing.T) {
	id := NewBuilder(sim.NewUSBBus()).Identity()
	assert.Equal(t, Identity{
		VendorID:     0x16c0,
		ProductID:    0x27dd,
		Manufacturer: "Fake company",
		Product:      "Serial port",
		SerialNumber: "TEST",
		DeviceClass:  ClassCDC,
	}, id)
}

func TestBuilder_OneShot(t *testing.T) {
	resetSingleton()
	t.Cleanup(resetSingleton)

	b := NewBuilder(sim.NewUSBBus())
	_, err := b.Build()
	require.NoError(t, err)

	_, err = b.Build()
	require.ErrorIs(t, err, pkg.ErrAlreadyTaken)

	_, err = NewBuilder(sim.NewUSBBus()).Build()
	require.ErrorIs(t, err, pkg.ErrAlreadyTaken)
}

func TestBuilder_AttachFailureKeepsBus(t *testing.T) {
	resetSingleton()
	t.Cleanup(resetSingleton)

	bus := sim.NewUSBBus()
	bus.Fail(pkg.ErrPin)
	b := NewBuilder(bus)
	_, err := b.Build()
	require.ErrorIs(t, err, pkg.ErrPin)
	assert.False(t, bus.Attached())
	assert.Nil(t, active.Load())

	bus.Fail(nil)
	s, err := b.Build()
	require.NoError(t, err, "a failed attach leaves the builder usable")
	assert.True(t, bus.Attached())
	assert.Same(t, s, active.Load())
}

func TestBuilder_RejectsLongString(t *testing.T) {
	resetSingleton()
	t.Cleanup(resetSingleton)

	long := string(bytes.Repeat([]byte{'x'}, MaxStringLength+1))
	b := NewBuilder(sim.NewUSBBus()).Product(long)
	_, err := b.Build()
	require.ErrorIs(t, err, pkg.ErrInvalidParameter)

	_, err = b.Product("ok").Build()
	require.NoError(t, err, "a rejected build leaves the builder usable")
}

func TestEnumerate(t *testing.T) {
	s, bus, host := newSerial(t, func(b *Builder) {
		b.VIDPID(0x1209, 0x0001).Product("LED-Controller")
	})
	assert.Equal(t, StatePowered, s.State())

	en, err := host.Enumerate(7)
	require.NoError(t, err)

	require.Len(t, en.Device, DeviceDescriptorSize)
	assert.Equal(t, byte(DescriptorTypeDevice), en.Device[1])
	assert.Equal(t, byte(ClassCDC), en.Device[4])
	assert.Equal(t, byte(MaxPacketSize0), en.Device[7])
	assert.Equal(t, []byte{0x09, 0x12, 0x01, 0x00}, en.Device[8:12])
	assert.Len(t, en.Configuration, configDescriptorSize)
	assert.Equal(t, uint8(7), en.Address)
	assert.Equal(t, uint8(7), s.Address())
	assert.Len(t, bus.Endpoints(), 3)

	for index, want := range map[uint8]string{1: "Fake company", 2: "LED-Controller", 3: "TEST"} {
		got, err := host.GetString(index)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	assert.NoError(t, s.Err())
}

func TestControl_Stalls(t *testing.T) {
	s, bus, host := enumerated(t)

	_, err := host.GetDescriptor(DescriptorTypeDeviceQualifier, 0, 0, 10)
	require.ErrorIs(t, err, pkg.ErrStall)

	_, err = host.GetDescriptor(DescriptorTypeString, 9, LanguageEnglishUS, 255)
	require.ErrorIs(t, err, pkg.ErrStall)

	err = host.ControlOut(hal.SetupPacket{Request: RequestSetConfiguration, Value: 2}, nil)
	require.ErrorIs(t, err, pkg.ErrStall)

	// The next SETUP clears the stall.
	got, err := host.ControlIn(hal.SetupPacket{RequestType: 0x80, Request: RequestGetConfiguration, Length: 1})
	require.NoError(t, err)
	assert.Equal(t, []byte{ConfigurationValue}, got)
	assert.False(t, bus.Stalled(0x80))
	assert.Equal(t, StateConfigured, s.State())
}

func TestControl_EndpointHalt(t *testing.T) {
	_, bus, host := enumerated(t)
	status := func() []byte {
		got, err := host.ControlIn(hal.SetupPacket{RequestType: 0x82, Request: RequestGetStatus, Index: EndpointDataIn, Length: 2})
		require.NoError(t, err)
		return got
	}

	assert.Equal(t, []byte{0, 0}, status())
	require.NoError(t, host.ControlOut(hal.SetupPacket{RequestType: 0x02, Request: RequestSetFeature, Index: EndpointDataIn}, nil))
	assert.Equal(t, []byte{1, 0}, status())
	assert.True(t, bus.Stalled(EndpointDataIn))

	require.NoError(t, host.ControlOut(hal.SetupPacket{RequestType: 0x02, Request: RequestClearFeature, Index: EndpointDataIn}, nil))
	assert.Equal(t, []byte{0, 0}, status())
	assert.False(t, bus.Stalled(EndpointDataIn))
}

func TestLineCodingAndControlLines(t *testing.T) {
	s, _, host := enumerated(t)
	assert.Equal(t, DefaultLineCoding, s.LineCoding())

	lc := LineCoding{DTERate: 9600, DataBits: 7, ParityType: ParityOdd}
	buf, err := lc.AppendBinary(nil)
	require.NoError(t, err)
	require.NoError(t, host.ControlOut(hal.SetupPacket{RequestType: 0x21, Request: RequestSetLineCoding}, buf))
	assert.Equal(t, lc, s.LineCoding())

	got, err := host.ControlIn(hal.SetupPacket{RequestType: 0xA1, Request: RequestGetLineCoding, Length: LineCodingSize})
	require.NoError(t, err)
	assert.Equal(t, buf, got)

	require.NoError(t, host.ControlOut(hal.SetupPacket{RequestType: 0x21, Request: RequestSetControlLineState, Value: ControlLineDTR}, nil))
	assert.True(t, s.DTR())
	assert.False(t, s.RTS())

	require.NoError(t, host.ControlOut(hal.SetupPacket{RequestType: 0x21, Request: RequestSetControlLineState, Value: ControlLineDTR | ControlLineRTS}, nil))
	assert.True(t, s.RTS())
}

func TestRead_WouldBlock(t *testing.T) {
	s, _, host := enumerated(t)
	buf := make([]byte, 16)

	_, err := s.Read(buf)
	require.ErrorIs(t, err, pkg.ErrWouldBlock)

	require.NoError(t, host.BulkOut(EndpointDataOut, []byte("hello"), DataPacketSize))
	n, err := s.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(buf[:n]))

	_, err = s.Read(buf)
	require.ErrorIs(t, err, pkg.ErrWouldBlock)

	n, err = s.Read(nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRead_Backpressure(t *testing.T) {
	s, _, host := enumerated(t)
	data := bytes.Repeat([]byte{0xA5}, 4*DataPacketSize)
	require.NoError(t, host.BulkOut(EndpointDataOut, data, DataPacketSize))

	// Only two packets fit the receive buffer; the rest wait on the bus.
	var got []byte
	buf := make([]byte, 50)
	for range 32 {
		n, err := s.Read(buf)
		if err == nil {
			got = append(got, buf[:n]...)
		}
		s.Poll()
	}
	assert.Equal(t, data, got)
}

func TestWrite_ShortAndWouldBlock(t *testing.T) {
	s, _, host := enumerated(t)

	n, err := s.Write(bytes.Repeat([]byte{'x'}, 200))
	require.NoError(t, err)
	assert.Equal(t, ringSize, n)

	_, err = s.Write([]byte{'y'})
	require.ErrorIs(t, err, pkg.ErrWouldBlock)
	require.ErrorIs(t, s.Flush(), pkg.ErrWouldBlock)

	got, err := host.BulkIn(EndpointDataIn)
	require.NoError(t, err)
	assert.Len(t, got, ringSize)
	require.NoError(t, s.Flush())

	n, err = s.Write([]byte{'y'})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestWrite_FullPacketSendsZLP(t *testing.T) {
	s, bus, _ := enumerated(t)
	payload := bytes.Repeat([]byte{'z'}, DataPacketSize)
	_, err := s.Write(payload)
	require.NoError(t, err)

	s.Poll()
	pkt, ok, err := bus.TakeIn(EndpointDataIn)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, payload, pkt)
	require.ErrorIs(t, s.Flush(), pkg.ErrWouldBlock)

	s.Poll()
	pkt, ok, err = bus.TakeIn(EndpointDataIn)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Empty(t, pkt)
	require.NoError(t, s.Flush())
}

func TestLoopback(t *testing.T) {
	s, _, host := enumerated(t)
	msg := []byte("the quick brown fox jumps over the lazy dog, twice: the quick brown fox")

	require.NoError(t, host.BulkOut(EndpointDataOut, msg, DataPacketSize))
	buf := make([]byte, 256)
	n, err := s.Read(buf)
	require.NoError(t, err)
	_, err = s.Write(buf[:n])
	require.NoError(t, err)

	got, err := host.BulkIn(EndpointDataIn)
	require.NoError(t, err)
	assert.Equal(t, msg, got)
}

func TestBusReset_ClearsPort(t *testing.T) {
	s, _, host := enumerated(t)
	_, err := s.Write([]byte("pending"))
	require.NoError(t, err)

	host.Reset()
	assert.Equal(t, StateDefault, s.State())
	assert.Zero(t, s.Address())
	require.NoError(t, s.Flush())
	assert.False(t, s.DTR())
}

func TestSuspendResume(t *testing.T) {
	s, bus, _ := enumerated(t)

	bus.Suspend()
	assert.False(t, s.Poll())
	assert.Equal(t, StateSuspended, s.State())

	bus.Resume()
	s.Poll()
	assert.Equal(t, StateConfigured, s.State())
}

func TestNoTrafficBeforeReset(t *testing.T) {
	s, bus, _ := newSerial(t, nil)
	bus.SendSetup(hal.SetupPacket{RequestType: 0x80, Request: RequestGetDescriptor, Value: 0x0100, Length: 18})
	assert.False(t, s.Poll())

	_, ok, err := bus.TakeIn(0x80)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestInterruptMode(t *testing.T) {
	irq := sim.NewInterrupt()
	s, bus, _ := newSerial(t, func(b *Builder) { b.Interrupt(irq) })
	host := sim.NewHost(bus, func() { irq.Fire() })

	var last byte
	s.SetInterrupt(func() {
		buf := make([]byte, 64)
		if n, err := s.Read(buf); err == nil && n > 0 {
			last = buf[n-1]
		}
	})
	require.NoError(t, s.EnableInterrupt())
	assert.True(t, irq.Enabled())

	_, err := host.Enumerate(3)
	require.NoError(t, err)
	assert.Equal(t, StateConfigured, s.State())

	require.NoError(t, host.BulkOut(EndpointDataOut, []byte("rgB"), DataPacketSize))
	assert.Equal(t, byte('B'), last)
	assert.True(t, irq.Enabled(), "critical sections restore the mask")

	s.DisableInterrupt()
	assert.False(t, irq.Enabled())
	assert.False(t, irq.Fire())
}

func TestInterruptMode_Unsupported(t *testing.T) {
	s, _, _ := newSerial(t, nil)
	require.ErrorIs(t, s.EnableInterrupt(), pkg.ErrNotSupported)
}

func TestHandleInterrupt_NoSerial(t *testing.T) {
	resetSingleton()
	HandleInterrupt()
}
