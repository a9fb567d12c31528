// Package board takes ownership of the badge peripherals and hands each one
// to its driver.
//
// A process gets exactly one [Board]:
//
//	b, err := board.Take(p)
//	if err != nil {
//		return err // pkg.ErrAlreadyTaken on the second call
//	}
//	b.LED.On()
//	serial, err := b.USB.Product("Badge").Build()
//
// Take installs the sound and uptime interrupt handlers. The USB serial port
// is staged as a builder so the identity can be set before the device
// attaches.
package board
