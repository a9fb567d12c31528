package hal

// OutputPin is a push-pull GPIO output.
type OutputPin interface {
	// Set drives the pin high (true) or low (false).
	Set(high bool) error

	// Toggle inverts the current output level.
	Toggle() error
}

// InputPin is a floating GPIO input.
type InputPin interface {
	// Get returns true when the pin reads high.
	Get() (bool, error)
}

// Delay provides busy-wait delays.
type Delay interface {
	// DelayCycles spins for at least n core clock cycles.
	DelayCycles(n uint32)

	// DelayMs blocks for at least ms milliseconds.
	DelayMs(ms uint32)
}
