package hal

import "time"

// Timer is a periodic timer/counter that raises an overflow flag once per
// period.
type Timer interface {
	// Start (re)starts the counter with the given overflow period.
	Start(period time.Duration) error

	// EnableInterrupt enables the overflow interrupt request.
	EnableInterrupt()

	// ClearOverflow acknowledges the overflow flag. A handler that does not
	// clear it is re-entered immediately.
	ClearOverflow()
}

// Interrupt is a single interrupt vector in the interrupt controller.
type Interrupt interface {
	// Enable unmasks the vector.
	Enable()

	// Disable masks the vector. Pending requests are not serviced while
	// masked.
	Disable()

	// SetPriority sets the vector priority. Lower values preempt higher.
	SetPriority(priority uint8)

	// SetHandler installs the function run when the vector fires.
	SetHandler(handler func())
}

// FrequencyPeriod returns the overflow period for a timer running at hz
// overflows per second. It returns 0 for hz == 0.
func FrequencyPeriod(hz uint32) time.Duration {
	if hz == 0 {
		return 0
	}
	return time.Second / time.Duration(hz)
}
