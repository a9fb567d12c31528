package sound

// resetSlot empties the interrupt slot and counters between tests.
func resetSlot() {
	installed.Store(nil)
	toggles.Store(0)
	faults.Store(0)
}
