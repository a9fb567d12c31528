// Package prof captures pprof profiles from the host simulator.
//
// Profiling is compiled in only with the "profile" build tag:
//
//	go build -tags profile ./cmd/badgesim
//
// Without the tag every function is a no-op, so call sites stay in place at
// no cost. The drivers themselves never import this package; it exists for
// measuring simulator runs such as long tone renders or full-chip erases.
//
//	if err := prof.StartCPU("cpu.prof"); err != nil {
//	    return err
//	}
//	defer prof.StopCPU()
//
// [Snapshot] writes a point-in-time profile (heap, allocs, goroutine).
package prof
