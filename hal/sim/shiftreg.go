package sim

import "sync"

// ShiftRegister models a 74HC165 parallel-in serial-out shift register.
//
// While the latch (SH/LD) pin is low the register follows the parallel
// inputs, and the rising edge of the latch freezes them into the register.
// With the latch high, each rising clock edge shifts the register toward
// Q7; the serial input is tied low. The data pin reads Q7.
type ShiftRegister struct {
	mu     sync.Mutex
	inputs uint8
	reg    uint8
	shifts int

	latch *Pin
	clock *Pin
	data  *Pin
}

// NewShiftRegister returns a register with all inputs low.
func NewShiftRegister() *ShiftRegister {
	sr := &ShiftRegister{
		latch: NewPin(),
		clock: NewPin(),
		data:  NewPin(),
	}
	sr.latch.OnChange(func(high bool) {
		if high {
			sr.mu.Lock()
			sr.reg = sr.inputs
			sr.mu.Unlock()
		}
	})
	sr.clock.OnChange(func(high bool) {
		if high && sr.latch.Level() {
			sr.mu.Lock()
			sr.reg <<= 1
			sr.shifts++
			sr.mu.Unlock()
		}
	})
	sr.data.attach(func() bool {
		sr.mu.Lock()
		defer sr.mu.Unlock()
		if !sr.latch.Level() {
			return sr.inputs&0x80 != 0
		}
		return sr.reg&0x80 != 0
	})
	return sr
}

// Latch returns the SH/LD pin.
func (sr *ShiftRegister) Latch() *Pin { return sr.latch }

// Clock returns the CLK pin.
func (sr *ShiftRegister) Clock() *Pin { return sr.clock }

// Data returns the Q7 pin.
func (sr *ShiftRegister) Data() *Pin { return sr.data }

// SetInputs sets the parallel inputs D7..D0.
func (sr *ShiftRegister) SetInputs(mask uint8) {
	sr.mu.Lock()
	defer sr.mu.Unlock()
	sr.inputs = mask
}

// Press raises the given inputs.
func (sr *ShiftRegister) Press(mask uint8) {
	sr.mu.Lock()
	defer sr.mu.Unlock()
	sr.inputs |= mask
}

// Release lowers the given inputs.
func (sr *ShiftRegister) Release(mask uint8) {
	sr.mu.Lock()
	defer sr.mu.Unlock()
	sr.inputs &^= mask
}

// Inputs returns the parallel inputs.
func (sr *ShiftRegister) Inputs() uint8 {
	sr.mu.Lock()
	defer sr.mu.Unlock()
	return sr.inputs
}

// Shifts returns the number of shift clocks seen.
func (sr *ShiftRegister) Shifts() int {
	sr.mu.Lock()
	defer sr.mu.Unlock()
	return sr.shifts
}
