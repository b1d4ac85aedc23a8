package strobe

import (
	"time"

	"github.com/nerrad567/flashmux/internal/topology"
)

// MuxID identifies a mux. It is the topology path of the node representing
// the mux, after any mux-async indirection.
type MuxID string

// MuxState tells whether a driver is attached to a mux.
type MuxState int

const (
	// MuxWaiting means the mux is referenced but no driver has bound it yet.
	MuxWaiting MuxState = iota
	// MuxBound means the mux has a driver and can select lines.
	MuxBound
)

// String implements fmt.Stringer.
func (s MuxState) String() string {
	switch s {
	case MuxWaiting:
		return "waiting"
	case MuxBound:
		return "bound"
	default:
		return "unknown"
	}
}

// MuxOps drives a mux.
type MuxOps interface {
	// SelectLine routes the given input line through the mux.
	SelectLine(line uint32) error
}

// Releaser is implemented by locally owned muxes that hold resources.
// Release is called once, when the last device stops referencing the mux.
type Releaser interface {
	Release()
}

// Owner pins the implementation of an async mux while devices depend on it.
//
// Get must fail if the implementation is going away; every successful Get is
// balanced by exactly one Put.
type Owner interface {
	Get() error
	Put()
}

// LocalMuxFactory creates muxes the manager owns, such as GPIO switches,
// from their topology node.
type LocalMuxFactory interface {
	NewMux(node *topology.Node) (MuxOps, error)
}

// Device is a flash output whose strobe signal the manager routes.
//
// Implementations are usually pointers; the manager compares devices by
// interface equality. TriggerSoftwareStrobe and ClearExternalStrobe are
// called while the caller of SetupStrobe still holds the device's own lock,
// so they must not try to take it again.
type Device interface {
	// Name is used in logs and strobe events.
	Name() string

	// StrobeData returns the routing state the manager keeps for the device.
	// The manager only touches it while holding its own lock.
	StrobeData() *Data

	// TriggerSoftwareStrobe fires the flash.
	TriggerSoftwareStrobe() error

	// StrobeTimeout is the current flash timeout.
	StrobeTimeout() time.Duration

	// ClearExternalStrobe turns external strobe mode off once a blocking
	// strobe window has ended.
	ClearExternalStrobe()
}

// Data is the routing state of one device.
type Data struct {
	// SoftwareRoute is the path used for software-triggered strobes.
	SoftwareRoute Route

	// Providers are the external strobe sources, in declaration order.
	Providers []Provider

	// ProviderID selects the provider used for external strobes.
	ProviderID int

	// NumShared counts the muxes this device shares with other devices.
	NumShared int

	// ExternalCapable is set when the device has at least one provider.
	ExternalCapable bool
}

// NumProviders returns the number of external strobe providers.
func (d *Data) NumProviders() int {
	return len(d.Providers)
}

// MuxInfo is a read-only snapshot of a mux.
type MuxInfo struct {
	ID       MuxID
	State    MuxState
	RefCount int
	Local    bool
	Devices  []string
}

// StrobeEvent describes the outcome of one SetupStrobe call.
type StrobeEvent struct {
	Device   string
	External bool
	Provider string
	Route    string
	Blocked  time.Duration
	Err      error
	At       time.Time
}

// Recorder receives strobe events after the manager lock is released.
type Recorder interface {
	RecordStrobe(ev StrobeEvent)
}

// Logger defines the logging interface used by the Manager.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
