//go:build tinygo && atsamd51

package atsamd51

import (
	"fmt"
	"runtime/volatile"
	"unsafe"

	"github.com/ardnew/softbadge/hal"
	"github.com/ardnew/softbadge/pkg"
)

// USB device registers.
const (
	usbBase uintptr = 0x41000000

	usbCTRLA    = 0x00
	usbSYNCBUSY = 0x02
	usbCTRLB    = 0x08
	usbDADD     = 0x0A
	usbINTENSET = 0x18
	usbINTFLAG  = 0x1C
	usbDESCADD  = 0x24
	usbPADCAL   = 0x28

	usbEPCFG       = 0x100
	usbEPSTATUSCLR = 0x104
	usbEPSTATUSSET = 0x105
	usbEPSTATUS    = 0x106
	usbEPINTFLAG   = 0x107
	usbEPINTENSET  = 0x109
	usbEPStride    = 0x20

	ctrlaSWRST  = 1 << 0
	ctrlaENABLE = 1 << 1
	ctrlbDETACH = 1 << 0
	daddADDEN   = 1 << 7

	intSUSPEND = 1 << 0
	intSOF     = 1 << 2
	intEORST   = 1 << 3
	intWAKEUP  = 1 << 4
	intEORSM   = 1 << 5

	epintTRCPT0 = 1 << 0
	epintTRCPT1 = 1 << 1
	epintRXSTP  = 1 << 4

	epstatusDTGLOUT  = 1 << 0
	epstatusDTGLIN   = 1 << 1
	epstatusSTALLRQ0 = 1 << 4
	epstatusSTALLRQ1 = 1 << 5
	epstatusBK0RDY   = 1 << 6
	epstatusBK1RDY   = 1 << 7

	epTypeControl   = 1
	epTypeIso       = 2
	epTypeBulk      = 3
	epTypeInterrupt = 4

	pckByteCount = 0x3FFF
	pckMultiPos  = 14
	pckSizePos   = 28

	// Software calibration row holding the USB pad trims.
	nvmCalibration uintptr = 0x00800084
)

// USB pins on multiplexer function H.
const (
	pinUSBDM = 24 // PA24
	pinUSBDP = 25 // PA25
)

// MaxEndpoints is the number of endpoint numbers the controller supports.
const MaxEndpoints = 8

const packetSize = 64

// bank is one direction of a hardware endpoint descriptor.
type bank struct {
	addr     uint32
	pckSize  uint32
	extReg   uint16
	statusBK uint8
	_        [5]uint8
}

// descriptor is the hardware endpoint descriptor: bank 0 is OUT, bank 1 IN.
type descriptor struct {
	banks [2]bank
}

// USB is a non-blocking driver for the full-speed device controller.
type USB struct {
	desc    [MaxEndpoints]descriptor
	bufs    [MaxEndpoints][2][packetSize]byte
	maxPkt  [MaxEndpoints][2]uint16
	pending uint8
	setAddr bool
}

func usbReg8(offset uintptr) *volatile.Register8   { return reg8(usbBase + offset) }
func usbReg16(offset uintptr) *volatile.Register16 { return reg16(usbBase + offset) }

func epReg(ep uint8, offset uintptr) *volatile.Register8 {
	return reg8(usbBase + offset + uintptr(ep)*usbEPStride)
}

func newUSB() *USB {
	return &USB{}
}

// Enable clocks the controller, loads the pad calibration, configures
// endpoint 0 and attaches the pull-up.
func (u *USB) Enable() error {
	reg32(mclkAHBMASK).SetBits(mclkAHBUSB)
	reg32(mclkAPBBMASK).SetBits(mclkAPBBUSB)
	enableChannel(gclkChannelUSB)
	setPinFunction(GroupA, pinUSBDM, pmuxH)
	setPinFunction(GroupA, pinUSBDP, pmuxH)

	usbReg8(usbCTRLA).Set(ctrlaSWRST)
	for usbReg8(usbSYNCBUSY).HasBits(ctrlaSWRST) {
	}
	loadPadCalibration()

	reg32(usbBase + usbDESCADD).Set(uint32(uintptr(unsafe.Pointer(&u.desc[0]))))
	u.configureEndpoint0()

	usbReg8(usbCTRLA).Set(ctrlaENABLE)
	for usbReg8(usbSYNCBUSY).HasBits(ctrlaENABLE) {
	}
	// Full speed, then attach. SOF paces interrupt mode at 1 kHz.
	usbReg16(usbINTENSET).Set(intEORST | intSUSPEND | intWAKEUP | intEORSM | intSOF)
	usbReg16(usbCTRLB).ClearBits(ctrlbDETACH)
	return nil
}

func loadPadCalibration() {
	w := reg32(nvmCalibration).Get()
	transn := w & 0x1F
	transp := (w >> 5) & 0x1F
	trim := (w >> 10) & 0x07
	if transn == 0x1F {
		transn = 9
	}
	if transp == 0x1F {
		transp = 25
	}
	if trim == 0x07 {
		trim = 6
	}
	usbReg16(usbPADCAL).Set(uint16(transp | transn<<6 | trim<<12))
}

func sizeField(maxPacket uint16) uint32 {
	var size uint32
	for n := uint16(8); n < maxPacket && size < 7; n <<= 1 {
		size++
	}
	return size << pckSizePos
}

func (u *USB) setupBank(ep, dir uint8, maxPacket uint16) {
	b := &u.desc[ep].banks[dir]
	b.addr = uint32(uintptr(unsafe.Pointer(&u.bufs[ep][dir][0])))
	b.pckSize = sizeField(maxPacket)
	if dir == 0 {
		b.pckSize |= uint32(maxPacket) << pckMultiPos
	}
	u.maxPkt[ep][dir] = maxPacket
}

func (u *USB) configureEndpoint0() {
	u.setupBank(0, 0, packetSize)
	u.setupBank(0, 1, packetSize)
	epReg(0, usbEPCFG).Set(epTypeControl<<4 | epTypeControl)
	epReg(0, usbEPSTATUSCLR).Set(epstatusBK0RDY)
	epReg(0, usbEPINTENSET).Set(epintRXSTP)
}

// Poll returns and clears the bus events. It also applies a latched
// address once the status stage has left endpoint 0.
func (u *USB) Poll() hal.BusEvent {
	flags := usbReg16(usbINTFLAG)
	pending := flags.Get()
	flags.Set(pending & (intEORST | intSUSPEND | intWAKEUP | intEORSM | intSOF))

	var ev hal.BusEvent
	if pending&intEORST != 0 {
		usbReg8(usbDADD).Set(0)
		u.setAddr = false
		u.configureEndpoint0()
		ev |= hal.EventReset
	}
	if pending&intSUSPEND != 0 {
		ev |= hal.EventSuspend
	}
	if pending&(intWAKEUP|intEORSM) != 0 {
		ev |= hal.EventResume
	}

	if u.setAddr && epReg(0, usbEPINTFLAG).HasBits(epintTRCPT1) {
		epReg(0, usbEPINTFLAG).Set(epintTRCPT1)
		usbReg8(usbDADD).Set(u.pending | daddADDEN)
		u.setAddr = false
	}
	return ev
}

// ReadSetup takes the pending SETUP packet.
func (u *USB) ReadSetup(out *hal.SetupPacket) error {
	if !epReg(0, usbEPINTFLAG).HasBits(epintRXSTP) {
		return pkg.ErrWouldBlock
	}
	err := out.UnmarshalBinary(u.bufs[0][0][:])
	epReg(0, usbEPINTFLAG).Set(epintRXSTP | epintTRCPT0)
	epReg(0, usbEPSTATUSCLR).Set(epstatusBK0RDY | epstatusSTALLRQ0 | epstatusSTALLRQ1)
	return err
}

func endpoint(address uint8) (uint8, error) {
	ep := address & 0x0F
	if ep >= MaxEndpoints {
		return 0, fmt.Errorf("endpoint 0x%02X: %w", address, pkg.ErrInvalidEndpoint)
	}
	return ep, nil
}

// Read takes one received OUT packet.
func (u *USB) Read(address uint8, buf []byte) (int, error) {
	ep, err := endpoint(address)
	if err != nil {
		return 0, err
	}
	if !epReg(ep, usbEPSTATUS).HasBits(epstatusBK0RDY) {
		return 0, pkg.ErrWouldBlock
	}
	n := int(u.desc[ep].banks[0].pckSize & pckByteCount)
	if n > len(buf) {
		return 0, pkg.ErrBufferTooSmall
	}
	copy(buf, u.bufs[ep][0][:n])
	epReg(ep, usbEPINTFLAG).Set(epintTRCPT0)
	epReg(ep, usbEPSTATUSCLR).Set(epstatusBK0RDY)
	return n, nil
}

// Write queues one IN packet.
func (u *USB) Write(address uint8, data []byte) (int, error) {
	ep, err := endpoint(address)
	if err != nil {
		return 0, err
	}
	if epReg(ep, usbEPSTATUS).HasBits(epstatusBK1RDY) {
		return 0, pkg.ErrWouldBlock
	}
	if limit := u.maxPkt[ep][1]; limit == 0 || len(data) > int(limit) {
		return 0, fmt.Errorf("endpoint 0x%02X: %d bytes: %w", address, len(data), pkg.ErrInvalidParameter)
	}
	n := copy(u.bufs[ep][1][:], data)
	b := &u.desc[ep].banks[1]
	b.pckSize = b.pckSize&^pckByteCount | uint32(n)
	epReg(ep, usbEPINTFLAG).Set(epintTRCPT1)
	epReg(ep, usbEPSTATUSSET).Set(epstatusBK1RDY)
	return n, nil
}

// SetAddress latches the address until the status stage completes.
func (u *USB) SetAddress(address uint8) error {
	u.pending = address & 0x7F
	u.setAddr = true
	return nil
}

// ConfigureEndpoints enables the data endpoints.
func (u *USB) ConfigureEndpoints(endpoints []hal.EndpointConfig) error {
	for ep := uint8(1); ep < MaxEndpoints; ep++ {
		epReg(ep, usbEPCFG).Set(0)
		u.maxPkt[ep] = [2]uint16{}
	}
	for _, e := range endpoints {
		ep := e.Number()
		if ep == 0 || ep >= MaxEndpoints || e.MaxPacketSize > packetSize {
			return fmt.Errorf("endpoint 0x%02X: %w", e.Address, pkg.ErrInvalidEndpoint)
		}
		typ := epType(e.TransferType())
		cfg := epReg(ep, usbEPCFG)
		if e.IsIn() {
			u.setupBank(ep, 1, e.MaxPacketSize)
			cfg.Set(cfg.Get()&0x0F | typ<<4)
			epReg(ep, usbEPSTATUSCLR).Set(epstatusBK1RDY | epstatusDTGLIN)
		} else {
			u.setupBank(ep, 0, e.MaxPacketSize)
			cfg.Set(cfg.Get()&0xF0 | typ)
			epReg(ep, usbEPSTATUSCLR).Set(epstatusBK0RDY | epstatusDTGLOUT)
		}
	}
	return nil
}

func epType(transfer uint8) uint8 {
	switch transfer {
	case hal.TransferControl:
		return epTypeControl
	case hal.TransferIsochronous:
		return epTypeIso
	case hal.TransferBulk:
		return epTypeBulk
	default:
		return epTypeInterrupt
	}
}

// Stall halts an endpoint.
func (u *USB) Stall(address uint8) error {
	ep, err := endpoint(address)
	if err != nil {
		return err
	}
	if address&hal.EndpointDirIn != 0 {
		epReg(ep, usbEPSTATUSSET).Set(epstatusSTALLRQ1)
	} else {
		epReg(ep, usbEPSTATUSSET).Set(epstatusSTALLRQ0)
	}
	return nil
}

// ClearStall resumes a halted endpoint and resets its data toggle.
func (u *USB) ClearStall(address uint8) error {
	ep, err := endpoint(address)
	if err != nil {
		return err
	}
	if address&hal.EndpointDirIn != 0 {
		epReg(ep, usbEPSTATUSCLR).Set(epstatusSTALLRQ1 | epstatusDTGLIN)
	} else {
		epReg(ep, usbEPSTATUSCLR).Set(epstatusSTALLRQ0 | epstatusDTGLOUT)
	}
	return nil
}
