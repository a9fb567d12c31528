package usb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ardnew/softbadge/pkg"
)

func TestStringDescriptorTo(t *testing.T) {
	buf := make([]byte, 255)
	n := StringDescriptorTo(buf, "TEST")
	require.Equal(t, 10, n)
	assert.Equal(t, []byte{10, DescriptorTypeString, 'T', 0, 'E', 0, 'S', 0, 'T', 0}, buf[:n])

	n = StringDescriptorTo(buf, "é🙂")
	require.Equal(t, 2+2+4, n)
	assert.Equal(t, []byte{0xE9, 0x00, 0x3D, 0xD8, 0x42, 0xDE}, buf[2:n])

	assert.Zero(t, StringDescriptorTo(make([]byte, 4), "TEST"))
}

func TestStringDescriptorTo_Truncates(t *testing.T) {
	long := make([]byte, 300)
	for i := range long {
		long[i] = 'x'
	}
	buf := make([]byte, 255)
	n := StringDescriptorTo(buf, string(long))
	assert.Equal(t, 2+2*MaxStringLength, n)
	assert.Equal(t, uint8(n), buf[0])
}

func TestLanguageDescriptorTo(t *testing.T) {
	buf := make([]byte, 4)
	require.Equal(t, 4, LanguageDescriptorTo(buf, LanguageEnglishUS))
	assert.Equal(t, []byte{4, DescriptorTypeString, 0x09, 0x04}, buf)
}

func TestStringLength(t *testing.T) {
	assert.Equal(t, 4, StringLength("TEST"))
	assert.Equal(t, 3, StringLength("a🙂"))
}

func TestConfigurationLayout(t *testing.T) {
	var d device
	d.buildConfiguration()
	cfg := d.cfgDesc[:]

	assert.Equal(t, []byte{9, DescriptorTypeConfiguration, 67, 0, 2, ConfigurationValue, 0, AttrBusPowered, 50}, cfg[:9])

	// Walk the descriptor chain and collect types.
	var types []byte
	for off := 0; off < len(cfg); off += int(cfg[off]) {
		require.NotZero(t, cfg[off], "zero-length descriptor at %d", off)
		types = append(types, cfg[off+1])
	}
	assert.Equal(t, []byte{
		DescriptorTypeConfiguration,
		DescriptorTypeInterface,
		DescriptorTypeCSInterface, DescriptorTypeCSInterface,
		DescriptorTypeCSInterface, DescriptorTypeCSInterface,
		DescriptorTypeEndpoint,
		DescriptorTypeInterface,
		DescriptorTypeEndpoint, DescriptorTypeEndpoint,
	}, types)

	// Communication interface: CDC / ACM.
	assert.Equal(t, []byte{ClassCDC, SubclassACM, ProtocolNone}, cfg[14:17])
	// Data interface endpoints.
	assert.Equal(t, byte(EndpointDataOut), cfg[55])
	assert.Equal(t, byte(EndpointDataIn), cfg[62])
}

func TestLineCoding_RoundTrip(t *testing.T) {
	lc := LineCoding{DTERate: 9600, CharFormat: StopBits2, ParityType: ParityEven, DataBits: 7}
	buf, err := lc.AppendBinary(nil)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x80, 0x25, 0, 0, 2, 2, 7}, buf)

	var got LineCoding
	require.NoError(t, got.UnmarshalBinary(buf))
	assert.Equal(t, lc, got)
	require.ErrorIs(t, got.UnmarshalBinary(buf[:6]), pkg.ErrInvalidRequest)
}

func TestDeviceDescriptor_Append(t *testing.T) {
	got := DeviceDescriptor{
		BCDUSB:         0x0200,
		MaxPacketSize0: 64,
		VendorID:       0x16c0,
		ProductID:      0x27dd,
		BCDDevice:      0x0010,
		Manufacturer:   1,
		Product:        2,
		SerialNumber:   3,
		Configurations: 1,
	}.Append(nil)
	assert.Equal(t, []byte{
		18, DescriptorTypeDevice, 0x00, 0x02, 0, 0, 0, 64,
		0xc0, 0x16, 0xdd, 0x27, 0x10, 0x00, 1, 2, 3, 1,
	}, got)
}

func TestAppendString_SurrogateAtLimit(t *testing.T) {
	var s string
	for range MaxStringLength - 1 {
		s += "x"
	}
	s += "🙂"
	b := AppendString([]byte{0xAA}, s)
	assert.Equal(t, byte(0xAA), b[0], "existing prefix kept")
	assert.Equal(t, uint8(2+2*(MaxStringLength-1)), b[1], "pair that does not fit is dropped whole")
	assert.Len(t, b, 1+int(b[1]))
}
