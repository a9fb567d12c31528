package usb

import (
	"encoding/binary"
	"unicode/utf16"
)

// USB descriptor types (USB 2.0 Table 9-5).
const (
	DescriptorTypeDevice          = 0x01
	DescriptorTypeConfiguration   = 0x02
	DescriptorTypeString          = 0x03
	DescriptorTypeInterface       = 0x04
	DescriptorTypeEndpoint        = 0x05
	DescriptorTypeDeviceQualifier = 0x06
)

// Device class codes.
const (
	ClassPerInterface = 0x00
	ClassCDC          = 0x02
	ClassCDCData      = 0x0A
)

// Configuration attributes. Bit 7 must always be set.
const (
	AttrBusPowered   = 0x80
	AttrSelfPowered  = 0x40
	AttrRemoteWakeup = 0x20
)

// Descriptor sizes.
const (
	DeviceDescriptorSize        = 18
	ConfigurationDescriptorSize = 9
	InterfaceDescriptorSize     = 9
	EndpointDescriptorSize      = 7
)

// LanguageEnglishUS is the only language the badge reports.
const LanguageEnglishUS = 0x0409

// MaxStringLength is the longest string, in UTF-16 code units, a string
// descriptor can carry.
const MaxStringLength = (255 - 2) / 2

// DeviceDescriptor is the standard device descriptor.
type DeviceDescriptor struct {
	BCDUSB         uint16
	Class          uint8
	SubClass       uint8
	Protocol       uint8
	MaxPacketSize0 uint8
	VendorID       uint16
	ProductID      uint16
	BCDDevice      uint16
	Manufacturer   uint8 // string index
	Product        uint8 // string index
	SerialNumber   uint8 // string index
	Configurations uint8
}

// Append encodes d onto b.
func (d DeviceDescriptor) Append(b []byte) []byte {
	b = append(b, DeviceDescriptorSize, DescriptorTypeDevice)
	b = binary.LittleEndian.AppendUint16(b, d.BCDUSB)
	b = append(b, d.Class, d.SubClass, d.Protocol, d.MaxPacketSize0)
	b = binary.LittleEndian.AppendUint16(b, d.VendorID)
	b = binary.LittleEndian.AppendUint16(b, d.ProductID)
	b = binary.LittleEndian.AppendUint16(b, d.BCDDevice)
	return append(b, d.Manufacturer, d.Product, d.SerialNumber, d.Configurations)
}

// ConfigDescriptor is the header of the configuration descriptor set.
type ConfigDescriptor struct {
	TotalLength uint16
	Interfaces  uint8
	Value       uint8
	Name        uint8 // string index
	Attributes  uint8
	MaxPower    uint8 // 2 mA units
}

// Append encodes c onto b.
func (c ConfigDescriptor) Append(b []byte) []byte {
	b = append(b, ConfigurationDescriptorSize, DescriptorTypeConfiguration)
	b = binary.LittleEndian.AppendUint16(b, c.TotalLength)
	return append(b, c.Interfaces, c.Value, c.Name, c.Attributes, c.MaxPower)
}

// InterfaceDescriptor describes one interface of the configuration.
type InterfaceDescriptor struct {
	Number    uint8
	Alternate uint8
	Endpoints uint8
	Class     uint8
	SubClass  uint8
	Protocol  uint8
	Name      uint8 // string index
}

// Append encodes i onto b.
func (i InterfaceDescriptor) Append(b []byte) []byte {
	return append(b, InterfaceDescriptorSize, DescriptorTypeInterface,
		i.Number, i.Alternate, i.Endpoints, i.Class, i.SubClass, i.Protocol, i.Name)
}

// EndpointDescriptor describes a non-control endpoint.
type EndpointDescriptor struct {
	Address       uint8
	Attributes    uint8
	MaxPacketSize uint16
	Interval      uint8
}

// Append encodes e onto b.
func (e EndpointDescriptor) Append(b []byte) []byte {
	b = append(b, EndpointDescriptorSize, DescriptorTypeEndpoint, e.Address, e.Attributes)
	b = binary.LittleEndian.AppendUint16(b, e.MaxPacketSize)
	return append(b, e.Interval)
}

// StringLength returns the length of s in UTF-16 code units.
func StringLength(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}

// AppendString encodes s as a UTF-16LE string descriptor onto b. Strings
// longer than MaxStringLength code units are cut at a rune boundary.
func AppendString(b []byte, s string) []byte {
	start := len(b)
	b = append(b, 0, DescriptorTypeString)
	units := 0
	for _, r := range s {
		w := utf16.RuneLen(r)
		if units+w > MaxStringLength {
			break
		}
		units += w
		if w == 2 {
			hi, lo := utf16.EncodeRune(r)
			b = binary.LittleEndian.AppendUint16(b, uint16(hi))
			b = binary.LittleEndian.AppendUint16(b, uint16(lo))
			continue
		}
		b = binary.LittleEndian.AppendUint16(b, uint16(r))
	}
	b[start] = uint8(len(b) - start)
	return b
}

// AppendLanguages encodes string descriptor zero onto b.
func AppendLanguages(b []byte, langs ...uint16) []byte {
	b = append(b, uint8(2+2*len(langs)), DescriptorTypeString)
	for _, id := range langs {
		b = binary.LittleEndian.AppendUint16(b, id)
	}
	return b
}

// StringDescriptorTo writes the string descriptor for s into buf. It
// returns 0 if buf cannot hold it.
func StringDescriptorTo(buf []byte, s string) int {
	if len(buf) < 2+2*min(StringLength(s), MaxStringLength) {
		return 0
	}
	return len(AppendString(buf[:0], s))
}

// LanguageDescriptorTo writes string descriptor zero into buf. It returns
// 0 if buf cannot hold it.
func LanguageDescriptorTo(buf []byte, langs ...uint16) int {
	if len(buf) < 2+2*len(langs) {
		return 0
	}
	return len(AppendLanguages(buf[:0], langs...))
}
