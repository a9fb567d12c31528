//go:build tinygo && atsamd51

// Package atsamd51 implements the hal contracts on the ATSAMD51J19A of the
// Adafruit PyBadge.
//
// Registers are accessed directly through runtime/volatile. The package
// assumes the TinyGo runtime clock tree: GCLK0 at 120 MHz drives the core
// and GCLK1 at 48 MHz feeds USB and the timers.
//
//	b, err := board.Take(atsamd51.Peripherals())
package atsamd51
