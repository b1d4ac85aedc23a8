package asyncmux

import (
	"errors"
	"testing"
)

func TestLease_GetPut(t *testing.T) {
	l := NewLease("isp0")
	if l.Owner() != "isp0" {
		t.Errorf("Owner() = %q", l.Owner())
	}

	for i := 0; i < 3; i++ {
		if err := l.Get(); err != nil {
			t.Fatalf("Get() error = %v", err)
		}
	}
	if l.Pins() != 3 {
		t.Errorf("Pins() = %d, want 3", l.Pins())
	}

	l.Put()
	l.Put()
	l.Put()
	l.Put()
	if l.Pins() != 0 {
		t.Errorf("Pins() = %d after extra Put, want 0", l.Pins())
	}
}

func TestLease_Retire(t *testing.T) {
	l := NewLease("isp0")
	if err := l.Get(); err != nil {
		t.Fatal(err)
	}

	if err := l.Retire(); !errors.Is(err, ErrPinned) {
		t.Fatalf("Retire() while pinned = %v, want ErrPinned", err)
	}
	if err := l.Get(); err != nil {
		t.Errorf("Get() after refused Retire = %v", err)
	}

	l.Put()
	l.Put()
	if err := l.Retire(); err != nil {
		t.Fatalf("Retire() = %v", err)
	}
	if err := l.Get(); !errors.Is(err, ErrRetired) {
		t.Errorf("Get() after Retire = %v, want ErrRetired", err)
	}
}
