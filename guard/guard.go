// Package guard provides one-shot ownership of process-wide capabilities.
package guard

import (
	"sync/atomic"

	"github.com/ardnew/softbadge/pkg"
)

// Guard hands out its capability exactly once. The zero value is ready to
// use.
type Guard struct {
	taken atomic.Bool
}

// Take claims the capability. Every call after the first returns
// pkg.ErrAlreadyTaken.
func (g *Guard) Take() error {
	if g.taken.Swap(true) {
		return pkg.ErrAlreadyTaken
	}
	return nil
}

// Taken reports whether the capability was claimed.
func (g *Guard) Taken() bool {
	return g.taken.Load()
}

// Release returns the capability so a later Take can claim it. Owners call
// it when bring-up fails after a successful Take.
func (g *Guard) Release() {
	g.taken.Store(false)
}
