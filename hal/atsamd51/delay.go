//go:build tinygo && atsamd51

package atsamd51

// Data watchpoint and trace unit cycle counter.
const (
	demcr        uintptr = 0xE000EDFC
	dwtCTRL      uintptr = 0xE0001000
	dwtCYCCNT    uintptr = 0xE0001004
	demcrTRCENA          = 1 << 24
	dwtCYCCNTENA         = 1 << 0

	// CPUHz is the core clock.
	CPUHz = 120_000_000

	cyclesPerMs = CPUHz / 1000
)

// Delay busy-waits on the DWT cycle counter.
type Delay struct{}

// NewDelay starts the cycle counter.
func NewDelay() Delay {
	reg32(demcr).SetBits(demcrTRCENA)
	reg32(dwtCYCCNT).Set(0)
	reg32(dwtCTRL).SetBits(dwtCYCCNTENA)
	return Delay{}
}

// DelayCycles spins for at least n core cycles.
func (Delay) DelayCycles(n uint32) {
	cnt := reg32(dwtCYCCNT)
	start := cnt.Get()
	for cnt.Get()-start < n {
	}
}

// DelayMs spins for at least ms milliseconds.
func (d Delay) DelayMs(ms uint32) {
	for range ms {
		d.DelayCycles(cyclesPerMs)
	}
}
