package sim

import (
	"fmt"
	"sync"
	"time"

	"github.com/ardnew/softbadge/pkg"
)

// Timer is a simulated TC counter in 16-bit match-frequency mode.
type Timer struct {
	mu         sync.Mutex
	period     time.Duration
	running    bool
	irqEnabled bool
	overflow   bool
	elapsed    time.Duration
	overflows  int
	clears     int
	fault      error
	irq        *Interrupt
}

// NewTimer returns a stopped timer that requests irq on overflow.
func NewTimer(irq *Interrupt) *Timer {
	return &Timer{irq: irq}
}

// Fail makes later Start calls return err. A nil err clears it.
func (t *Timer) Fail(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.fault = err
}

// Start restarts the counter with the given period.
func (t *Timer) Start(period time.Duration) error {
	if period <= 0 {
		return fmt.Errorf("timer period %v: %w", period, pkg.ErrInvalidParameter)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.fault != nil {
		return t.fault
	}
	t.period = period
	t.elapsed = 0
	t.running = true
	return nil
}

// EnableInterrupt enables the overflow interrupt request.
func (t *Timer) EnableInterrupt() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.irqEnabled = true
}

// ClearOverflow acknowledges the overflow flag.
func (t *Timer) ClearOverflow() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.overflow = false
	t.clears++
}

// Advance moves simulated time forward by d, raising the overflow flag and
// requesting the interrupt once per elapsed period. It returns the number of
// overflows.
func (t *Timer) Advance(d time.Duration) int {
	n := 0
	for {
		t.mu.Lock()
		if !t.running || t.elapsed+d < t.period {
			if t.running {
				t.elapsed += d
			}
			t.mu.Unlock()
			return n
		}
		d -= t.period - t.elapsed
		t.elapsed = 0
		t.overflow = true
		t.overflows++
		fire := t.irqEnabled && t.irq != nil
		t.mu.Unlock()

		n++
		if fire {
			t.irq.Fire()
		}
	}
}

// Period returns the configured period.
func (t *Timer) Period() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.period
}

// Running reports whether Start was called.
func (t *Timer) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// InterruptEnabled reports whether the overflow request is enabled.
func (t *Timer) InterruptEnabled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.irqEnabled
}

// Overflow reports whether the overflow flag is pending.
func (t *Timer) Overflow() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.overflow
}

// Overflows returns the total overflow count.
func (t *Timer) Overflows() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.overflows
}

// Clears returns how many times the overflow flag was acknowledged.
func (t *Timer) Clears() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.clears
}
