package strobe

import (
	"fmt"
	"slices"
)

// addReference records that dev routes through x.
//
// A device referencing the same mux through several gates is counted once.
// When the second device arrives both devices start sharing the mux; every
// later device only bumps its own counter.
func (m *Manager) addReference(dev Device, x *mux) error {
	if x.refIndex(dev) >= 0 {
		return nil
	}

	if x.state == MuxBound && x.owner != nil {
		if err := x.owner.Get(); err != nil {
			return fmt.Errorf("%w: mux %s: %w", ErrOwnership, x.id, err)
		}
	}

	x.refs = append(x.refs, dev)

	switch n := len(x.refs); {
	case n == 2:
		for _, d := range x.refs {
			d.StrobeData().NumShared++
		}
	case n > 2:
		dev.StrobeData().NumShared++
	}
	return nil
}

// removeReference is the inverse of addReference. A local mux left without
// references is released; an async mux stays registered.
func (m *Manager) removeReference(dev Device, x *mux) {
	idx := x.refIndex(dev)
	if idx < 0 {
		return
	}

	if x.state == MuxBound && x.owner != nil {
		x.owner.Put()
	}

	x.refs = slices.Delete(x.refs, idx, idx+1)

	switch n := len(x.refs); {
	case n == 1:
		x.refs[0].StrobeData().NumShared--
	case n > 1:
		dev.StrobeData().NumShared--
	case n == 0 && x.local:
		m.releaseMux(x)
	}
}

// releaseReferences removes dev from every mux, whatever its state.
func (m *Manager) releaseReferences(dev Device) {
	for _, x := range m.muxes {
		m.removeReference(dev, x)
	}
}
