package asyncmux

import (
	"fmt"
	"sync"
)

// Lease keeps a remote mux driver alive while flash devices route through
// it. It implements strobe.Owner.
//
// Every successful Get is balanced by one Put. Retire marks the driver gone
// and fails while any pin is outstanding; after Retire, Get fails.
type Lease struct {
	mu      sync.Mutex
	owner   string
	pins    int
	retired bool
}

// NewLease returns an unpinned lease for the named driver.
func NewLease(owner string) *Lease {
	return &Lease{owner: owner}
}

// Owner returns the driver name.
func (l *Lease) Owner() string {
	return l.owner
}

// Get pins the driver.
func (l *Lease) Get() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.retired {
		return fmt.Errorf("%w: %s", ErrRetired, l.owner)
	}
	l.pins++
	return nil
}

// Put releases one pin. Extra Puts are ignored.
func (l *Lease) Put() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.pins > 0 {
		l.pins--
	}
}

// Pins returns the number of outstanding pins.
func (l *Lease) Pins() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pins
}

// Retire marks the driver gone. It fails with ErrPinned while pins remain.
func (l *Lease) Retire() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.pins > 0 {
		return fmt.Errorf("%w: %s holds %d", ErrPinned, l.owner, l.pins)
	}
	l.retired = true
	return nil
}
