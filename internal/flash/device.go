package flash

import (
	"fmt"
	"sync"
	"time"

	"github.com/nerrad567/flashmux/internal/strobe"
	"github.com/nerrad567/flashmux/internal/topology"
)

// Ops is the driver of a flash output. SetStrobe is mandatory; the optional
// interfaces below are detected with type assertions.
type Ops interface {
	SetStrobe(on bool) error
}

// StrobeGetter reports whether the flash is currently strobing.
type StrobeGetter interface {
	Strobe() (bool, error)
}

// TimeoutSetter programs the flash timeout, in microseconds.
type TimeoutSetter interface {
	SetTimeout(us uint32) error
}

// BrightnessSetter programs the flash current, in microamperes.
type BrightnessSetter interface {
	SetBrightness(uA uint32) error
}

// ExternalStrobeSetter switches the hardware to listen for an external
// strobe signal.
type ExternalStrobeSetter interface {
	SetExternalStrobe(enable bool) error
}

// FaultGetter reads the driver's fault bits.
type FaultGetter interface {
	Fault() (uint32, error)
}

// Config describes a flash output.
type Config struct {
	Name       string
	Timeout    Setting
	Brightness Setting
}

// Logger defines the logging interface used by Device.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Device is a flash output with optional manager-routed strobe.
//
// Device implements strobe.Device. Every exported method takes the device
// lock; calls into the manager are made with it held.
type Device struct {
	mu sync.Mutex

	name       string
	ops        Ops
	timeout    Setting
	brightness Setting
	external   bool
	suspended  bool

	routing strobe.Data
	mgr     *strobe.Manager
	managed bool

	logger Logger
}

// New creates a flash device and programs the clamped timeout and
// brightness into the driver when it supports them.
func New(cfg Config, ops Ops) (*Device, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidArgument)
	}
	if ops == nil {
		return nil, fmt.Errorf("%w: %s: strobe operation is required", ErrInvalidArgument, cfg.Name)
	}
	if !cfg.Timeout.Valid() {
		return nil, fmt.Errorf("%w: %s: invalid timeout range", ErrInvalidArgument, cfg.Name)
	}
	if !cfg.Brightness.Valid() {
		return nil, fmt.Errorf("%w: %s: invalid brightness range", ErrInvalidArgument, cfg.Name)
	}

	d := &Device{
		name:       cfg.Name,
		ops:        ops,
		timeout:    cfg.Timeout,
		brightness: cfg.Brightness,
		logger:     noopLogger{},
	}
	d.timeout.Val = d.timeout.ClampAlign(d.timeout.Val)
	d.brightness.Val = d.brightness.ClampAlign(d.brightness.Val)
	if err := d.applySettings(); err != nil {
		return nil, err
	}
	return d, nil
}

// applySettings writes the current timeout and brightness to the driver.
func (d *Device) applySettings() error {
	if s, ok := d.ops.(TimeoutSetter); ok {
		if err := s.SetTimeout(d.timeout.Val); err != nil {
			return fmt.Errorf("programming %s timeout: %w", d.name, err)
		}
	}
	if s, ok := d.ops.(BrightnessSetter); ok {
		if err := s.SetBrightness(d.brightness.Val); err != nil {
			return fmt.Errorf("programming %s brightness: %w", d.name, err)
		}
	}
	return nil
}

// SetLogger sets the logger for the device.
func (d *Device) SetLogger(logger Logger) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.logger = logger
}

// Register hands the device's topology node to the manager. A nil node, or
// one without external strobe providers, leaves the device unmanaged: its
// strobes go straight to the driver.
func (d *Device) Register(mgr *strobe.Manager, node *topology.Node) error {
	if mgr == nil {
		return fmt.Errorf("%w: %s: manager is required", ErrInvalidArgument, d.name)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.mgr != nil {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, d.name)
	}

	if node != nil {
		if err := mgr.RegisterDevice(d, node); err != nil {
			return fmt.Errorf("registering flash %s: %w", d.name, err)
		}
	}
	d.mgr = mgr
	d.managed = mgr.IsRegistered(d)

	d.logger.Info("flash ready",
		"device", d.name,
		"managed", d.managed,
		"providers", d.routing.NumProviders(),
	)
	return nil
}

// Unregister detaches the device from its manager.
func (d *Device) Unregister() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.mgr == nil {
		return
	}
	d.mgr.UnregisterDevice(d)
	d.mgr = nil
	d.managed = false
	d.external = false
}

// Managed reports whether strobes are routed by the manager.
func (d *Device) Managed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.managed
}

// SetStrobe starts or stops a software strobe.
//
// Starting fails with ErrBusy while external strobe is enabled. On a managed
// device starting configures the software route first and may block for the
// flash timeout if the route uses shared muxes. Stopping always goes straight
// to the driver.
func (d *Device) SetStrobe(on bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.external {
		return ErrBusy
	}
	if !on {
		return d.ops.SetStrobe(false)
	}
	if d.managed {
		return d.mgr.SetupStrobe(d, false)
	}
	return d.ops.SetStrobe(true)
}

// Strobe reports the strobe state from the driver.
func (d *Device) Strobe() (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	g, ok := d.ops.(StrobeGetter)
	if !ok {
		return false, ErrNotSupported
	}
	return g.Strobe()
}

// SetExternalStrobe enables or disables waiting for an external strobe.
//
// Only devices with at least one strobe provider can enable it. Enabling
// configures the selected provider's route, which may block for the flash
// timeout when muxes are shared. External mode stays on when routing fails,
// for example with strobe.ErrDeviceNotReady while an async mux is detached:
// software strobes keep failing with ErrBusy until it is disabled.
func (d *Device) SetExternalStrobe(enable bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.routing.ExternalCapable {
		if enable {
			return fmt.Errorf("%w: %s has no external strobe providers", ErrInvalidArgument, d.name)
		}
		return nil
	}

	if s, ok := d.ops.(ExternalStrobeSetter); ok {
		if err := s.SetExternalStrobe(enable); err != nil {
			return fmt.Errorf("switching %s external strobe: %w", d.name, err)
		}
	}
	d.external = enable

	if enable && d.managed {
		return d.mgr.SetupStrobe(d, true)
	}
	return nil
}

// ExternalStrobe reports whether external strobe is enabled.
func (d *Device) ExternalStrobe() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.external
}

// SetTimeout sets the flash timeout in microseconds, after clamping and
// aligning it. It returns the value applied.
func (d *Device) SetTimeout(us uint32) (uint32, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.timeout.Val = d.timeout.ClampAlign(us)
	if d.suspended {
		return d.timeout.Val, nil
	}
	if s, ok := d.ops.(TimeoutSetter); ok {
		if err := s.SetTimeout(d.timeout.Val); err != nil {
			return d.timeout.Val, err
		}
	}
	return d.timeout.Val, nil
}

// Timeout returns the timeout setting.
func (d *Device) Timeout() Setting {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timeout
}

// SetBrightness sets the flash current in microamperes, after clamping and
// aligning it. It returns the value applied.
func (d *Device) SetBrightness(uA uint32) (uint32, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.brightness.Val = d.brightness.ClampAlign(uA)
	if d.suspended {
		return d.brightness.Val, nil
	}
	s, ok := d.ops.(BrightnessSetter)
	if !ok {
		return d.brightness.Val, ErrNotSupported
	}
	return d.brightness.Val, s.SetBrightness(d.brightness.Val)
}

// Brightness returns the brightness setting.
func (d *Device) Brightness() Setting {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.brightness
}

// Fault returns the driver's fault bits.
func (d *Device) Fault() (uint32, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	g, ok := d.ops.(FaultGetter)
	if !ok {
		return 0, ErrNotSupported
	}
	return g.Fault()
}

// Suspend stops settings from reaching the driver until Resume.
func (d *Device) Suspend() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.suspended = true
}

// Resume reapplies the settings changed while suspended.
func (d *Device) Resume() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.suspended = false
	return d.applySettings()
}

// ProviderNames lists the external strobe providers in selection order.
// Providers without a name are listed as "undefined".
func (d *Device) ProviderNames() []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	names := make([]string, 0, len(d.routing.Providers))
	for _, p := range d.routing.Providers {
		names = append(names, p.DisplayName())
	}
	return names
}

// SelectProvider chooses the provider used for external strobes.
func (d *Device) SelectProvider(id int) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if id < 0 || id >= d.routing.NumProviders() {
		return fmt.Errorf("%w: %d of %d", ErrProviderRange, id, d.routing.NumProviders())
	}
	d.routing.ProviderID = id
	return nil
}

// SelectedProvider returns the provider used for external strobes.
func (d *Device) SelectedProvider() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.routing.ProviderID
}

// BlockingStrobe reports whether strobes of this device hold shared muxes
// for the whole flash timeout.
func (d *Device) BlockingStrobe() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.managed && d.mgr.SharedMuxes(d) > 0
}

// Name implements strobe.Device.
func (d *Device) Name() string { return d.name }

// StrobeData implements strobe.Device.
func (d *Device) StrobeData() *strobe.Data { return &d.routing }

// TriggerSoftwareStrobe implements strobe.Device. The device lock is held by
// the caller.
func (d *Device) TriggerSoftwareStrobe() error {
	return d.ops.SetStrobe(true)
}

// StrobeTimeout implements strobe.Device. The device lock is held by the
// caller.
func (d *Device) StrobeTimeout() time.Duration {
	return time.Duration(d.timeout.Val) * time.Microsecond
}

// ClearExternalStrobe implements strobe.Device. The device lock is held by
// the caller.
func (d *Device) ClearExternalStrobe() {
	d.external = false
}
