// Package hal defines the hardware contracts the badge drivers are written
// against.
//
// A bootstrap (the device backend in hal/atsamd51, or the simulator in
// hal/sim) supplies concrete pins, timers, interrupt vectors, the quad-SPI
// flash bus and the USB device bus bundled in a [Peripherals] value. The
// drivers never touch registers directly.
//
// # Interrupts
//
// An [Interrupt] is one NVIC vector. The handler installed with
// [Interrupt.SetHandler] runs in interrupt context: it must not allocate,
// block or log.
//
// # Flash commands
//
// The flash protocol is a closed set of [Command] values. Each command has a
// [CommandKind] that fixes which [QSPI] method may issue it; issuing a
// command through the wrong method fails with pkg.ErrCommand.
//
// # USB
//
// [USBBus] is a polled, non-blocking endpoint bus. The device state machine
// in package usb drives it once per poll and never waits on it.
package hal
