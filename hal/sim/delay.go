package sim

import "sync"

// Delay records busy-wait requests instead of spinning.
type Delay struct {
	mu     sync.Mutex
	cycles []uint32
	ms     uint64

	// OnDelayMs, if set, runs after each millisecond delay. The board uses
	// it to advance simulated time.
	OnDelayMs func(ms uint32)
}

// DelayCycles records a cycle delay.
func (d *Delay) DelayCycles(n uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cycles = append(d.cycles, n)
}

// DelayMs records a millisecond delay.
func (d *Delay) DelayMs(ms uint32) {
	d.mu.Lock()
	d.ms += uint64(ms)
	fn := d.OnDelayMs
	d.mu.Unlock()

	if fn != nil {
		fn(ms)
	}
}

// Cycles returns the recorded cycle delays in call order.
func (d *Delay) Cycles() []uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]uint32, len(d.cycles))
	copy(out, d.cycles)
	return out
}

// TotalCycles returns the sum of all recorded cycle delays.
func (d *Delay) TotalCycles() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	var n uint64
	for _, c := range d.cycles {
		n += uint64(c)
	}
	return n
}

// Milliseconds returns the sum of all millisecond delays.
func (d *Delay) Milliseconds() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ms
}

// Reset forgets every recorded delay.
func (d *Delay) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cycles = d.cycles[:0]
	d.ms = 0
}
