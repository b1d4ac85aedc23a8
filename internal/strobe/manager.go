package strobe

import (
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/nerrad567/flashmux/internal/topology"
)

// Manager is the strobe routing manager.
//
// It owns the mux registry, the per-mux reference sets and the list of
// devices with manager-controlled routing. One mutex serializes every
// operation, including the strobe window of devices that share a mux.
type Manager struct {
	mu       sync.Mutex
	muxes    map[MuxID]*mux
	devices  []Device
	local    LocalMuxFactory
	logger   Logger
	recorder Recorder

	// sleep blocks for the strobe window; replaced in tests.
	sleep func(time.Duration)
}

// NewManager creates a manager. local builds the muxes the manager owns;
// it may be nil when every mux in the topology is asynchronous.
func NewManager(local LocalMuxFactory) *Manager {
	return &Manager{
		muxes:  make(map[MuxID]*mux),
		local:  local,
		logger: noopLogger{},
		sleep:  time.Sleep,
	}
}

// SetLogger sets the logger for the manager.
func (m *Manager) SetLogger(logger Logger) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logger = logger
}

// SetRecorder sets the receiver of strobe events. Pass nil to disable.
func (m *Manager) SetRecorder(r Recorder) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recorder = r
}

// RegisterDevice parses the strobe topology under node and references every
// mux it names on behalf of dev.
//
// Registering an already managed device is a no-op. A device without
// external providers gets no manager-controlled routing: the call succeeds
// but the device is not kept. On any failure every reference taken by this
// call is dropped and the device's routing data is cleared.
func (m *Manager) RegisterDevice(dev Device, node *topology.Node) error {
	if dev == nil || node == nil {
		return ErrInvalidArgument
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.managedIndex(dev) >= 0 {
		return nil
	}

	data := dev.StrobeData()
	software, providers, err := ParseRoutes(node)
	if err != nil {
		*data = Data{}
		return fmt.Errorf("parsing strobe topology of %s: %w", dev.Name(), err)
	}
	data.SoftwareRoute = software
	data.Providers = providers

	var created []MuxID
	attach := func(route Route) error {
		for i := range route {
			x, isNew, err := m.resolveOrCreateMux(&route[i])
			if err != nil {
				return err
			}
			if isNew {
				created = append(created, x.id)
			}
			if err := m.addReference(dev, x); err != nil {
				return err
			}
		}
		return nil
	}

	err = attach(data.SoftwareRoute)
	for i := 0; err == nil && i < len(data.Providers); i++ {
		err = attach(data.Providers[i].Route)
	}
	if err != nil {
		m.releaseReferences(dev)
		m.discardUnused(created)
		*data = Data{}
		return fmt.Errorf("registering %s: %w", dev.Name(), err)
	}

	if len(data.Providers) == 0 {
		m.releaseReferences(dev)
		m.discardUnused(created)
		*data = Data{}
		m.logger.Debug("device has no strobe providers, not managed", "device", dev.Name())
		return nil
	}

	data.ExternalCapable = true
	data.ProviderID = 0
	m.devices = append(m.devices, dev)

	m.logger.Info("flash device registered",
		"device", dev.Name(),
		"providers", len(data.Providers),
		"shared_muxes", data.NumShared,
	)
	return nil
}

// UnregisterDevice drops every reference dev holds and forgets its routes.
// Unknown devices are ignored.
func (m *Manager) UnregisterDevice(dev Device) {
	if dev == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.managedIndex(dev)
	if idx < 0 {
		return
	}
	m.devices = slices.Delete(m.devices, idx, idx+1)

	m.releaseReferences(dev)
	*dev.StrobeData() = Data{}

	m.logger.Info("flash device unregistered", "device", dev.Name())
}

// IsRegistered reports whether dev has manager-controlled routing.
func (m *Manager) IsRegistered(dev Device) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.managedIndex(dev) >= 0
}

// SharedMuxes returns how many muxes dev shares with other devices.
// A non-zero value means strobes of dev block for the flash timeout.
func (m *Manager) SharedMuxes(dev Device) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return dev.StrobeData().NumShared
}

// Devices returns the names of the managed devices in registration order.
func (m *Manager) Devices() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	names := make([]string, 0, len(m.devices))
	for _, d := range m.devices {
		names = append(names, d.Name())
	}
	return names
}

// Mux returns a snapshot of the mux with the given identity.
func (m *Manager) Mux(id MuxID) (MuxInfo, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	x, ok := m.muxes[id]
	if !ok {
		return MuxInfo{}, false
	}
	return x.info(), true
}

// Muxes returns snapshots of every known mux, sorted by identity.
func (m *Manager) Muxes() []MuxInfo {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]MuxInfo, 0, len(m.muxes))
	for _, x := range m.muxes {
		out = append(out, x.info())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *Manager) managedIndex(dev Device) int {
	for i, d := range m.devices {
		if d == dev {
			return i
		}
	}
	return -1
}
