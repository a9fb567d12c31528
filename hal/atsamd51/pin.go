//go:build tinygo && atsamd51

package atsamd51

// Port groups.
const (
	GroupA uint8 = 0
	GroupB uint8 = 1
)

// Pin is a PORT pin driven by the CPU. The zero value is PA00.
type Pin struct {
	group uint8
	mask  uint32
	num   uint8
}

// NewPin returns pin num of a port group.
func NewPin(group, num uint8) Pin {
	return Pin{group: group, mask: 1 << num, num: num}
}

// ConfigureOutput makes the pin a push-pull output.
func (p Pin) ConfigureOutput() Pin {
	portReg(p.group, portDIRSET).Set(p.mask)
	return p
}

// ConfigureInput makes the pin a floating input with the sampler enabled.
func (p Pin) ConfigureInput() Pin {
	portReg(p.group, portDIRCLR).Set(p.mask)
	reg8(portBase + uintptr(p.group)*portStride + portPINCFG + uintptr(p.num)).Set(pincfgINEN)
	return p
}

// Set drives the pin.
func (p Pin) Set(high bool) error {
	if high {
		portReg(p.group, portOUTSET).Set(p.mask)
	} else {
		portReg(p.group, portOUTCLR).Set(p.mask)
	}
	return nil
}

// Toggle inverts the output level.
func (p Pin) Toggle() error {
	portReg(p.group, portOUTTGL).Set(p.mask)
	return nil
}

// Get samples the pin.
func (p Pin) Get() (bool, error) {
	return portReg(p.group, portIN).HasBits(p.mask), nil
}
