package hal

// Peripherals bundles the badge hardware handed to the drivers at take time.
// Each field is owned by exactly one driver after board.Take.
type Peripherals struct {
	// Status LED (PA23, active high).
	LED OutputPin

	// 74HC165 button shift register: latch (PB00), clock (PB31) and serial
	// data out (PB30).
	ButtonLatch OutputPin
	ButtonClock OutputPin
	ButtonData  InputPin

	// Speaker amplifier enable (PA27) and speaker output (PA02).
	SpeakerEnable OutputPin
	Speaker       OutputPin

	// Tone timer (TC4) and its vector.
	SoundTimer Timer
	SoundIRQ   Interrupt

	// Millisecond tick timer (TC5) and its vector.
	UptimeTimer Timer
	UptimeIRQ   Interrupt

	// External NOR flash bus.
	Flash QSPI

	// Busy-wait delay source.
	Delay Delay

	// USB device controller and its vector.
	USB    USBBus
	USBIRQ Interrupt
}
