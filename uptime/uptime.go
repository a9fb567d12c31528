// Package uptime counts milliseconds since Init with a 1 kHz timer
// interrupt.
//
// The counter is a single 32-bit word written only by [HandleInterrupt] and
// read atomically by [Uptime]. It wraps after about 49.7 days; [Since] and
// [Milliseconds.Sub] give wrap-safe differences for intervals shorter than
// that.
package uptime

import (
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/ardnew/softbadge/guard"
	"github.com/ardnew/softbadge/hal"
	"github.com/ardnew/softbadge/pkg"
)

// TickHz is the counter rate.
const TickHz = 1000

// Milliseconds is a count of milliseconds since Init.
type Milliseconds uint32

// Duration converts m to a time.Duration.
func (m Milliseconds) Duration() time.Duration {
	return time.Duration(m) * time.Millisecond
}

// Sub returns m-start modulo 2^32.
func (m Milliseconds) Sub(start Milliseconds) Milliseconds {
	return m - start
}

// String returns m formatted as "<n>ms".
func (m Milliseconds) String() string {
	return strconv.FormatUint(uint64(m), 10) + "ms"
}

type ticker struct {
	timer hal.Timer
}

var (
	once   guard.Guard
	active atomic.Pointer[ticker]
	count  atomic.Uint32
)

// Init resets the counter, starts timer at TickHz and unmasks irq with
// [HandleInterrupt] as its handler. It succeeds once per process; a failed
// Init leaves the counter free for another attempt.
func Init(timer hal.Timer, irq hal.Interrupt) error {
	if err := once.Take(); err != nil {
		return fmt.Errorf("uptime: %w", err)
	}
	count.Store(0)
	if err := timer.Start(hal.FrequencyPeriod(TickHz)); err != nil {
		once.Release()
		return fmt.Errorf("uptime: start timer: %w", err)
	}
	timer.EnableInterrupt()
	active.Store(&ticker{timer: timer})
	irq.SetHandler(HandleInterrupt)
	irq.Enable()

	pkg.LogDebug(pkg.ComponentUptime, "counter started", "hz", TickHz)
	return nil
}

// HandleInterrupt services the tick timer vector: it acknowledges the
// overflow and adds one millisecond.
func HandleInterrupt() {
	t := active.Load()
	if t == nil {
		return
	}
	t.timer.ClearOverflow()
	count.Add(1)
}

// Uptime returns the milliseconds elapsed since Init. Ticks lost while
// interrupts were masked are not recovered.
func Uptime() Milliseconds {
	return Milliseconds(count.Load())
}

// Since returns the milliseconds elapsed since start.
func Since(start Milliseconds) Milliseconds {
	return Uptime().Sub(start)
}
