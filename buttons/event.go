package buttons

import (
	"iter"
	"math/bits"
)

// Event is a single button transition between two samples.
type Event struct {
	Button  Button
	Pressed bool // false means released
}

// String returns e as "<button> pressed" or "<button> released".
func (e Event) String() string {
	if e.Pressed {
		return e.Button.String() + " pressed"
	}
	return e.Button.String() + " released"
}

// EventIter yields the transitions between two samples, lowest bit first.
// It is finite and cannot be restarted.
type EventIter struct {
	changed uint8
	current State
}

// Events returns an iterator over the buttons whose level differs between
// Previous and State. Later calls to Update do not affect it.
func (b *Buttons) Events() *EventIter {
	return &EventIter{
		changed: uint8(b.current ^ b.previous),
		current: b.current,
	}
}

// Next returns the next transition, or false when none remain.
func (it *EventIter) Next() (Event, bool) {
	if it.changed == 0 {
		return Event{}, false
	}
	bit := Button(1 << bits.TrailingZeros8(it.changed))
	it.changed &^= uint8(bit)
	return Event{Button: bit, Pressed: it.current.Has(bit)}, true
}

// Len returns the number of transitions not yet consumed.
func (it *EventIter) Len() int {
	return bits.OnesCount8(it.changed)
}

// All returns a range-over-func sequence that drains the iterator.
func (it *EventIter) All() iter.Seq[Event] {
	return func(yield func(Event) bool) {
		for {
			e, ok := it.Next()
			if !ok || !yield(e) {
				return
			}
		}
	}
}
