package uptime

import "github.com/ardnew/softbadge/guard"

func resetCounter() {
	once = guard.Guard{}
	active.Store(nil)
	count.Store(0)
}

func setCount(n uint32) {
	count.Store(n)
}
