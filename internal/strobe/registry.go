package strobe

import (
	"errors"
	"fmt"

	"github.com/nerrad567/flashmux/internal/topology"
)

// mux is the manager's record of one multiplexer.
type mux struct {
	id    MuxID
	state MuxState
	ops   MuxOps
	owner Owner
	local bool
	refs  []Device
}

func (x *mux) refIndex(dev Device) int {
	for i, d := range x.refs {
		if d == dev {
			return i
		}
	}
	return -1
}

func (x *mux) info() MuxInfo {
	names := make([]string, 0, len(x.refs))
	for _, d := range x.refs {
		names = append(names, d.Name())
	}
	return MuxInfo{
		ID:       x.id,
		State:    x.state,
		RefCount: len(x.refs),
		Local:    x.local,
		Devices:  names,
	}
}

// resolveOrCreateMux returns the mux a gate points at, creating it on first
// use. A mux node with a mux-async reference stands for the referenced node,
// which gets a Waiting mux until its driver binds; any other mux node is a
// local GPIO mux, created and bound at once. The resolved identity is
// written back to gate.ID.
func (m *Manager) resolveOrCreateMux(gate *Gate) (*mux, bool, error) {
	id := MuxID(gate.Node.Path())
	async := false

	target, err := gate.Node.Ref(asyncProp)
	switch {
	case err == nil:
		id = MuxID(target.Path())
		async = true
	case !errors.Is(err, topology.ErrPropertyMissing):
		return nil, false, fmt.Errorf("%w: %w", ErrConfig, err)
	}
	gate.ID = id

	if x, ok := m.muxes[id]; ok {
		return x, false, nil
	}

	if async {
		x := &mux{id: id, state: MuxWaiting}
		m.muxes[id] = x
		m.logger.Debug("async mux waiting for driver", "mux", id)
		return x, true, nil
	}

	if m.local == nil {
		return nil, false, fmt.Errorf("%w: no local mux factory for %s", ErrConfig, id)
	}
	ops, err := m.local.NewMux(gate.Node)
	if err != nil {
		return nil, false, fmt.Errorf("creating local mux %s: %w", id, err)
	}

	x := &mux{id: id, state: MuxBound, ops: ops, local: true}
	m.muxes[id] = x
	m.logger.Debug("local mux created", "mux", id)
	return x, true, nil
}

// discardUnused forgets muxes created during a failed or empty registration
// that ended up with no references.
func (m *Manager) discardUnused(ids []MuxID) {
	for _, id := range ids {
		x, ok := m.muxes[id]
		if !ok || len(x.refs) > 0 {
			continue
		}
		if x.local {
			m.releaseMux(x)
			continue
		}
		if x.state == MuxWaiting {
			delete(m.muxes, id)
		}
	}
}

// releaseMux frees a local mux and removes it from the registry.
func (m *Manager) releaseMux(x *mux) {
	if r, ok := x.ops.(Releaser); ok {
		r.Release()
	}
	delete(m.muxes, x.id)
	m.logger.Debug("local mux released", "mux", x.id)
}

// BindAsyncMux attaches a driver to a mux.
//
// If devices already reference the mux (it is Waiting), owner is pinned once
// for each of them; if any pin fails the pins taken so far are dropped, the
// mux stays Waiting and the returned error matches both ErrNotAvailable and
// ErrOwnership. An unknown identity gets a new Bound mux with no references.
// owner may be nil for drivers that cannot be unloaded.
func (m *Manager) BindAsyncMux(id MuxID, ops MuxOps, owner Owner) error {
	if id == "" || ops == nil {
		return ErrInvalidArgument
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	x, ok := m.muxes[id]
	if !ok {
		m.muxes[id] = &mux{id: id, state: MuxBound, ops: ops, owner: owner}
		m.logger.Info("async mux bound", "mux", id, "refs", 0)
		return nil
	}

	if x.state == MuxBound {
		return fmt.Errorf("%w: %s", ErrAlreadyBound, id)
	}

	if owner != nil {
		for i := range x.refs {
			if err := owner.Get(); err != nil {
				for j := 0; j < i; j++ {
					owner.Put()
				}
				return fmt.Errorf("%w: %w: mux %s for %s: %w", ErrNotAvailable, ErrOwnership, id, x.refs[i].Name(), err)
			}
		}
	}

	x.ops = ops
	x.owner = owner
	x.state = MuxBound

	m.logger.Info("async mux bound", "mux", id, "refs", len(x.refs))
	return nil
}

// UnbindAsyncMux detaches the driver of a bound async mux. The mux returns
// to Waiting with its references untouched, and the pins held for those
// references are dropped. Unknown, waiting and local muxes yield ErrNotFound.
func (m *Manager) UnbindAsyncMux(id MuxID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	x, ok := m.muxes[id]
	if !ok || x.state != MuxBound || x.local {
		return fmt.Errorf("%w: no bound async mux %s", ErrNotFound, id)
	}

	if x.owner != nil {
		for range x.refs {
			x.owner.Put()
		}
	}

	x.ops = nil
	x.owner = nil
	x.state = MuxWaiting

	m.logger.Info("async mux unbound", "mux", id, "refs", len(x.refs))
	return nil
}
