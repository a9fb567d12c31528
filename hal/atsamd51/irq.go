//go:build tinygo && atsamd51

package atsamd51

import (
	"runtime/interrupt"
	"sync/atomic"
)

// NVIC lines.
const (
	irqUSBOther  = 80
	irqUSBSOF    = 81
	irqUSBTRCPT0 = 82
	irqUSBTRCPT1 = 83
	irqTC4       = 111
	irqTC5       = 112

	// The SAMD51 implements the top three priority bits.
	priorityShift = 5
)

type vector uint8

const (
	vectorTC4 vector = iota
	vectorTC5
	vectorUSB
	vectorCount
)

var handlers [vectorCount]atomic.Pointer[func()]

func dispatch(v vector) {
	if h := handlers[v].Load(); h != nil {
		(*h)()
	}
}

// Interrupt is a driver vector. The USB vector spans four NVIC lines.
type Interrupt struct {
	vector vector
	lines  []interrupt.Interrupt
}

// Enable unmasks every line of the vector.
func (i *Interrupt) Enable() {
	for _, l := range i.lines {
		l.Enable()
	}
}

// Disable masks every line of the vector.
func (i *Interrupt) Disable() {
	for _, l := range i.lines {
		l.Disable()
	}
}

// SetPriority sets the priority, 0 (highest) to 7.
func (i *Interrupt) SetPriority(priority uint8) {
	for _, l := range i.lines {
		l.SetPriority(priority << priorityShift)
	}
}

// SetHandler installs fn for the vector.
func (i *Interrupt) SetHandler(fn func()) {
	handlers[i.vector].Store(&fn)
}

// The interrupt.New calls must name constant lines, so each vector has its
// own constructor.

func newTC4Interrupt() *Interrupt {
	return &Interrupt{vector: vectorTC4, lines: []interrupt.Interrupt{
		interrupt.New(irqTC4, func(interrupt.Interrupt) { dispatch(vectorTC4) }),
	}}
}

func newTC5Interrupt() *Interrupt {
	return &Interrupt{vector: vectorTC5, lines: []interrupt.Interrupt{
		interrupt.New(irqTC5, func(interrupt.Interrupt) { dispatch(vectorTC5) }),
	}}
}

func newUSBInterrupt() *Interrupt {
	return &Interrupt{vector: vectorUSB, lines: []interrupt.Interrupt{
		interrupt.New(irqUSBOther, func(interrupt.Interrupt) { dispatch(vectorUSB) }),
		interrupt.New(irqUSBSOF, func(interrupt.Interrupt) { dispatch(vectorUSB) }),
		interrupt.New(irqUSBTRCPT0, func(interrupt.Interrupt) { dispatch(vectorUSB) }),
		interrupt.New(irqUSBTRCPT1, func(interrupt.Interrupt) { dispatch(vectorUSB) }),
	}}
}
