package strobe

import (
	"fmt"
	"time"
)

// SetupStrobe configures every mux on the device's route and, for software
// strobes, fires the flash.
//
// With external set, the route of the selected provider is used; otherwise
// the software route. Gates are applied in order and the first error aborts
// the call without undoing the gates already applied.
//
// If the device shares any mux with another device, the call blocks for the
// device's flash timeout while still holding the manager lock, so no other
// device can reselect a shared mux until the strobe window has passed. The
// device's external strobe flag is cleared afterwards.
//
// Callers must hold the device's own lock.
func (m *Manager) SetupStrobe(dev Device, external bool) error {
	if dev == nil {
		return ErrInvalidArgument
	}

	m.mu.Lock()
	ev, err := m.setupStrobeLocked(dev, external)
	recorder := m.recorder
	m.mu.Unlock()

	if recorder != nil {
		ev.Err = err
		recorder.RecordStrobe(ev)
	}
	return err
}

func (m *Manager) setupStrobeLocked(dev Device, external bool) (StrobeEvent, error) {
	data := dev.StrobeData()
	ev := StrobeEvent{
		Device:   dev.Name(),
		External: external,
		At:       time.Now(),
	}

	route := data.SoftwareRoute
	if external {
		if data.ProviderID < 0 || data.ProviderID >= len(data.Providers) {
			return ev, fmt.Errorf("%w: provider %d of %d", ErrInvalidArgument, data.ProviderID, len(data.Providers))
		}
		provider := data.Providers[data.ProviderID]
		route = provider.Route
		ev.Provider = provider.DisplayName()
	}
	ev.Route = route.String()

	for _, gate := range route {
		x, ok := m.muxes[gate.ID]
		if !ok || x.state != MuxBound {
			return ev, fmt.Errorf("%w: mux %s", ErrDeviceNotReady, gate.ID)
		}
		if err := x.ops.SelectLine(gate.Line); err != nil {
			return ev, fmt.Errorf("selecting line %d on mux %s: %w", gate.Line, gate.ID, err)
		}
	}

	if !external {
		if err := dev.TriggerSoftwareStrobe(); err != nil {
			return ev, fmt.Errorf("triggering software strobe on %s: %w", dev.Name(), err)
		}
	}

	if data.NumShared > 0 {
		wait := dev.StrobeTimeout().Truncate(time.Millisecond)
		m.logger.Debug("holding shared muxes for strobe window",
			"device", dev.Name(),
			"wait", wait,
		)
		m.sleep(wait)
		ev.Blocked = wait
		dev.ClearExternalStrobe()
	}

	return ev, nil
}
