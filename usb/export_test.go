package usb

import "github.com/ardnew/softbadge/guard"

// resetSingleton forgets the installed serial port between tests.
func resetSingleton() {
	built = guard.Guard{}
	active.Store(nil)
}
