package sim

import "sync"

// Pin is a simulated GPIO. It satisfies both hal.OutputPin and
// hal.InputPin.
type Pin struct {
	mu       sync.Mutex
	level    bool
	sets     int
	toggles  int
	err      error
	onChange func(high bool)
	source   func() bool
}

// NewPin returns a pin driven low.
func NewPin() *Pin {
	return &Pin{}
}

// Set drives the pin level.
func (p *Pin) Set(high bool) error {
	p.mu.Lock()
	if p.err != nil {
		err := p.err
		p.mu.Unlock()
		return err
	}
	changed := p.level != high
	p.level = high
	p.sets++
	fn := p.onChange
	p.mu.Unlock()

	if changed && fn != nil {
		fn(high)
	}
	return nil
}

// Toggle inverts the pin level.
func (p *Pin) Toggle() error {
	p.mu.Lock()
	if p.err != nil {
		err := p.err
		p.mu.Unlock()
		return err
	}
	p.level = !p.level
	p.toggles++
	high := p.level
	fn := p.onChange
	p.mu.Unlock()

	if fn != nil {
		fn(high)
	}
	return nil
}

// Get reads the pin. An input attached to a model reads the model output.
func (p *Pin) Get() (bool, error) {
	p.mu.Lock()
	if p.err != nil {
		err := p.err
		p.mu.Unlock()
		return false, err
	}
	src := p.source
	level := p.level
	p.mu.Unlock()

	if src != nil {
		return src(), nil
	}
	return level, nil
}

// Level returns the current output level without fault injection.
func (p *Pin) Level() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.level
}

// Toggles returns how many times Toggle succeeded.
func (p *Pin) Toggles() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.toggles
}

// Fail makes every later operation return err. A nil err clears the fault.
func (p *Pin) Fail(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

// OnChange installs fn to run after every level change.
func (p *Pin) OnChange(fn func(high bool)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onChange = fn
}

func (p *Pin) attach(src func() bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.source = src
}
