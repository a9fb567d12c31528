//go:build tinygo && atsamd51

package atsamd51

import (
	"runtime/volatile"
	"unsafe"
)

func reg8(addr uintptr) *volatile.Register8 {
	return (*volatile.Register8)(unsafe.Pointer(addr))
}

func reg16(addr uintptr) *volatile.Register16 {
	return (*volatile.Register16)(unsafe.Pointer(addr))
}

func reg32(addr uintptr) *volatile.Register32 {
	return (*volatile.Register32)(unsafe.Pointer(addr))
}

// Main clock bus masks.
const (
	mclkBase     uintptr = 0x40000800
	mclkAHBMASK          = mclkBase + 0x10
	mclkAPBBMASK         = mclkBase + 0x18
	mclkAPBCMASK         = mclkBase + 0x1C

	mclkAHBUSB  = 1 << 10
	mclkAHBQSPI = 1 << 13
	mclkAPBBUSB = 1 << 0
	mclkAPBCTC4 = 1 << 5
	mclkAPBCTC5 = 1 << 6
	mclkAPBCQSP = 1 << 13
)

// Generic clock peripheral channels.
const (
	gclkBase    uintptr = 0x40001C00
	gclkPCHCTRL         = gclkBase + 0x80

	gclkChannelUSB = 10
	gclkChannelTC4 = 30 // shared by TC4 and TC5

	gclkGen48MHz = 1
	gclkCHEN     = 1 << 6

	timerClockHz = 48_000_000
)

// enableChannel routes the 48 MHz generator to a peripheral channel.
func enableChannel(id uintptr) {
	pch := reg32(gclkPCHCTRL + id*4)
	pch.Set(gclkGen48MHz | gclkCHEN)
	for !pch.HasBits(gclkCHEN) {
	}
}

// PORT controller.
const (
	portBase   uintptr = 0x41008000
	portStride         = 0x80

	portDIRCLR = 0x04
	portDIRSET = 0x08
	portOUTCLR = 0x14
	portOUTSET = 0x18
	portOUTTGL = 0x1C
	portIN     = 0x20
	portPMUX   = 0x30
	portPINCFG = 0x40

	pincfgPMUXEN = 1 << 0
	pincfgINEN   = 1 << 1

	pmuxH = 0x7 // QSPI and USB
)

func portReg(group uint8, offset uintptr) *volatile.Register32 {
	return reg32(portBase + uintptr(group)*portStride + offset)
}

// setPinFunction hands pin to a peripheral through the multiplexer.
func setPinFunction(group, pin, fn uint8) {
	base := portBase + uintptr(group)*portStride
	pmux := reg8(base + portPMUX + uintptr(pin/2))
	if pin%2 == 0 {
		pmux.Set(pmux.Get()&0xF0 | fn)
	} else {
		pmux.Set(pmux.Get()&0x0F | fn<<4)
	}
	reg8(base + portPINCFG + uintptr(pin)).SetBits(pincfgPMUXEN)
}
