// Package sim provides simulated badge hardware that implements the hal
// contracts on the host.
//
// The models are cycle-free but behaviorally faithful where the drivers
// depend on it:
//
//   - [Pin] is a GPIO with edge callbacks and fault injection
//   - [ShiftRegister] models the 74HC165 parallel-in serial-out button latch
//   - [Timer] and [Interrupt] model a TC counter and its NVIC vector;
//     [Timer.Advance] fires the vector once per elapsed period
//   - [Flash] models the GD25Q16C NOR flash behind the QSPI controller,
//     including write-enable latching, busy polling and page wraparound
//   - [USBBus] models the USB device controller endpoints; [Host] drives
//     it from the host side
//
// [New] assembles a complete simulated board.
package sim
