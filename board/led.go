package board

import (
	"fmt"

	"github.com/ardnew/softbadge/hal"
)

// LED is the red status LED on PA23. It is active high.
type LED struct {
	pin hal.OutputPin
}

// On lights the LED.
func (l *LED) On() error {
	if err := l.pin.Set(true); err != nil {
		return fmt.Errorf("led on: %w", err)
	}
	return nil
}

// Off turns the LED off.
func (l *LED) Off() error {
	if err := l.pin.Set(false); err != nil {
		return fmt.Errorf("led off: %w", err)
	}
	return nil
}

// Toggle inverts the LED.
func (l *LED) Toggle() error {
	if err := l.pin.Toggle(); err != nil {
		return fmt.Errorf("led toggle: %w", err)
	}
	return nil
}
