// Package pkg provides shared utilities for the softbadge drivers.
//
// This package contains common functionality used by every driver and by
// the host tools:
//
//   - Structured logging via Go's standard [log/slog] package
//   - Sentinel errors for ownership, transient I/O and hardware faults
//   - Component identifiers for log filtering
//
// The package has no external dependencies so it builds under TinyGo.
//
// # Logging
//
// The logging subsystem wraps [log/slog] with a component attribute:
//
//	pkg.SetLogLevel(slog.LevelDebug)
//	pkg.LogInfo(pkg.ComponentFlash, "flash ready", "divider", 2)
//
// Interrupt handlers never log. Only foreground driver paths do.
//
// # Errors
//
// Errors are sentinel values matched with [errors.Is]:
//
//	n, err := serial.Read(buf)
//	if errors.Is(err, pkg.ErrWouldBlock) {
//	    // nothing queued yet, poll again
//	}
//
// [Classify] maps an error onto the handling policy: taken, transient or
// hardware.
package pkg
