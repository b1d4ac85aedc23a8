package flash

import (
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
)

// GPIOOps drives a flash whose strobe input is wired to a GPIO line. The
// line is held high for the flash timeout and then released.
type GPIOOps struct {
	pin gpio.PinIO

	mu      sync.Mutex
	timeout time.Duration
	timer   *time.Timer
}

// NewGPIOOps looks up the strobe pin in the periph GPIO registry and drives
// it low.
func NewGPIOOps(pinName string) (*GPIOOps, error) {
	pin := gpioreg.ByName(pinName)
	if pin == nil {
		return nil, fmt.Errorf("%w: unknown strobe pin %q", ErrInvalidArgument, pinName)
	}
	if err := pin.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("initialising strobe pin %s: %w", pinName, err)
	}
	return &GPIOOps{pin: pin}, nil
}

// SetStrobe implements Ops.
func (g *GPIOOps) SetStrobe(on bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.timer != nil {
		g.timer.Stop()
		g.timer = nil
	}

	if !on {
		return g.pin.Out(gpio.Low)
	}

	if err := g.pin.Out(gpio.High); err != nil {
		return err
	}
	g.timer = time.AfterFunc(g.timeout, func() {
		_ = g.pin.Out(gpio.Low)
	})
	return nil
}

// Strobe implements StrobeGetter.
func (g *GPIOOps) Strobe() (bool, error) {
	return g.pin.Read() == gpio.High, nil
}

// SetTimeout implements TimeoutSetter.
func (g *GPIOOps) SetTimeout(us uint32) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.timeout = time.Duration(us) * time.Microsecond
	return nil
}
