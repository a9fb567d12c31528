package sim

import "sync"

// Interrupt is a simulated NVIC vector. Fire runs the handler synchronously
// on the calling goroutine when the vector is unmasked.
type Interrupt struct {
	mu       sync.Mutex
	enabled  bool
	priority uint8
	handler  func()
	fired    int
	masked   int
}

// NewInterrupt returns a masked vector with no handler.
func NewInterrupt() *Interrupt {
	return &Interrupt{}
}

// Enable unmasks the vector.
func (i *Interrupt) Enable() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.enabled = true
}

// Disable masks the vector.
func (i *Interrupt) Disable() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.enabled = false
}

// SetPriority records the vector priority.
func (i *Interrupt) SetPriority(priority uint8) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.priority = priority
}

// SetHandler installs the vector handler.
func (i *Interrupt) SetHandler(handler func()) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.handler = handler
}

// Fire requests the vector. It returns false, and runs nothing, when the
// vector is masked or has no handler. Masked requests are dropped.
func (i *Interrupt) Fire() bool {
	i.mu.Lock()
	if !i.enabled || i.handler == nil {
		i.masked++
		i.mu.Unlock()
		return false
	}
	i.fired++
	h := i.handler
	i.mu.Unlock()

	h()
	return true
}

// Enabled reports whether the vector is unmasked.
func (i *Interrupt) Enabled() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.enabled
}

// Priority returns the recorded priority.
func (i *Interrupt) Priority() uint8 {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.priority
}

// Fired returns how many requests ran the handler.
func (i *Interrupt) Fired() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.fired
}

// Dropped returns how many requests arrived while masked.
func (i *Interrupt) Dropped() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.masked
}
