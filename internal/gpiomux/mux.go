package gpiomux

import (
	"errors"
	"fmt"
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"

	"github.com/nerrad567/flashmux/internal/strobe"
)

const gpiosProp = "gpios"

// Domain errors for the gpiomux package.
var (
	// ErrNoSelectors is returned when a mux node declares no selector pins.
	ErrNoSelectors = errors.New("gpiomux: no selector pins")

	// ErrUnknownPin is returned when a selector pin is not in the GPIO registry.
	ErrUnknownPin = errors.New("gpiomux: unknown pin")

	// ErrPinBusy is returned when a selector pin is already used by another mux.
	ErrPinBusy = fmt.Errorf("gpiomux: pin already claimed: %w", strobe.ErrResourceExhausted)

	// ErrLineRange is returned when a line id needs more selectors than the mux has.
	ErrLineRange = errors.New("gpiomux: line id out of range")
)

var (
	// mu guards claimed.
	mu sync.Mutex
	// claimed is the set of pin names owned by live muxes.
	claimed = map[string]bool{}
)

// Mux drives a set of GPIO selector lines. Selector i carries bit i of the
// selected line id.
type Mux struct {
	name      string
	pins      []string
	selectors []gpio.PinOut

	mu       sync.Mutex
	released bool
}

// New claims the named pins and returns a mux driving them.
func New(name string, pins []string) (*Mux, error) {
	if len(pins) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoSelectors, name)
	}

	selectors := make([]gpio.PinOut, 0, len(pins))
	for _, p := range pins {
		pin := gpioreg.ByName(p)
		if pin == nil {
			return nil, fmt.Errorf("%w: %s on %s", ErrUnknownPin, p, name)
		}
		selectors = append(selectors, pin)
	}

	mu.Lock()
	defer mu.Unlock()
	seen := make(map[string]bool, len(pins))
	for _, p := range pins {
		if claimed[p] || seen[p] {
			return nil, fmt.Errorf("%w: %s on %s", ErrPinBusy, p, name)
		}
		seen[p] = true
	}
	for _, p := range pins {
		claimed[p] = true
	}

	return &Mux{name: name, pins: append([]string(nil), pins...), selectors: selectors}, nil
}

// Name returns the mux name.
func (m *Mux) Name() string { return m.name }

// SelectLine drives selector i with bit i of line.
func (m *Mux) SelectLine(line uint32) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.released {
		return fmt.Errorf("gpiomux: %s already released", m.name)
	}
	if n := len(m.selectors); n < 32 && line>>n != 0 {
		return fmt.Errorf("%w: line %d on %s with %d selectors", ErrLineRange, line, m.name, n)
	}

	for i, pin := range m.selectors {
		level := gpio.Low
		if line&(1<<i) != 0 {
			level = gpio.High
		}
		if err := pin.Out(level); err != nil {
			return fmt.Errorf("driving %s selector %d: %w", m.name, i, err)
		}
	}
	return nil
}

// Release gives the selector pins back. It is safe to call more than once.
func (m *Mux) Release() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.released {
		return
	}
	m.released = true

	mu.Lock()
	defer mu.Unlock()
	for _, p := range m.pins {
		delete(claimed, p)
	}
}
