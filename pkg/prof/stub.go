//go:build !profile

package prof

import "io"

// Enabled reports whether profiling support is compiled in.
const Enabled = false

// Profiling errors (never returned by the stubs).
var (
	ErrCPUProfileActive error
	ErrInvalidProfile   error
)

// StartCPU is a no-op when built without the "profile" tag.
func StartCPU(_ string) error { return nil }

// StopCPU is a no-op when built without the "profile" tag.
func StopCPU() {}

// Snapshot is a no-op when built without the "profile" tag.
func Snapshot(_ string, _ io.Writer) error { return nil }
