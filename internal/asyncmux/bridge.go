package asyncmux

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/nerrad567/flashmux/internal/infrastructure/mqtt"
	"github.com/nerrad567/flashmux/internal/strobe"
)

// lifecycleQoS is used for attach/detach subscriptions.
const lifecycleQoS = 1

// Publisher sends MQTT messages. Satisfied by *mqtt.Client.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// Bus is the MQTT surface the bridge needs. Satisfied by *mqtt.Client.
type Bus interface {
	Publisher
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topic string) error
}

// Registry is the part of strobe.Manager that binds async muxes.
type Registry interface {
	BindAsyncMux(id strobe.MuxID, ops strobe.MuxOps, owner strobe.Owner) error
	UnbindAsyncMux(id strobe.MuxID) error
}

// Logger is the logging interface used by the bridge.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// attachment is a driver currently bound to a mux.
type attachment struct {
	owner string
	lease *Lease
}

// Bridge turns driver attach/detach messages into BindAsyncMux and
// UnbindAsyncMux calls.
//
// Thread Safety:
//   - Handlers may run concurrently; attach and detach are serialised.
type Bridge struct {
	registry Registry
	bus      Bus
	logger   Logger

	mu       sync.Mutex
	attached map[strobe.MuxID]attachment
}

// NewBridge creates a bridge between bus and registry.
func NewBridge(registry Registry, bus Bus) *Bridge {
	return &Bridge{
		registry: registry,
		bus:      bus,
		logger:   noopLogger{},
		attached: make(map[strobe.MuxID]attachment),
	}
}

// SetLogger sets the logger.
func (b *Bridge) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	b.logger = logger
}

// Start subscribes to the attach and detach topics.
func (b *Bridge) Start() error {
	topics := mqtt.Topics{}
	if err := b.bus.Subscribe(topics.MuxAttach(), lifecycleQoS, b.HandleAttach); err != nil {
		return fmt.Errorf("subscribe to mux attach: %w", err)
	}
	if err := b.bus.Subscribe(topics.MuxDetach(), lifecycleQoS, b.HandleDetach); err != nil {
		return fmt.Errorf("subscribe to mux detach: %w", err)
	}
	b.logger.Info("async mux bridge started")
	return nil
}

// Stop unsubscribes. Attached muxes stay bound.
func (b *Bridge) Stop() {
	topics := mqtt.Topics{}
	for _, topic := range []string{topics.MuxAttach(), topics.MuxDetach()} {
		if err := b.bus.Unsubscribe(topic); err != nil {
			b.logger.Warn("unsubscribe failed", "topic", topic, "error", err)
		}
	}
}

// HandleAttach binds the mux named in an AttachMessage to a RemoteMux
// driven by its owner.
func (b *Bridge) HandleAttach(_ string, payload []byte) error {
	msg, err := decodeAttach(payload)
	if err != nil {
		return err
	}
	id := strobe.MuxID(msg.Mux)

	b.mu.Lock()
	defer b.mu.Unlock()

	lease := NewLease(msg.Owner)
	if err := b.registry.BindAsyncMux(id, NewRemoteMux(id, msg.Owner, b.bus), lease); err != nil {
		b.logger.Warn("async mux attach rejected", "mux", id, "owner", msg.Owner, "error", err)
		return fmt.Errorf("attaching %s for %s: %w", id, msg.Owner, err)
	}
	b.attached[id] = attachment{owner: msg.Owner, lease: lease}

	b.logger.Info("async mux attached", "mux", id, "owner", msg.Owner, "pins", lease.Pins())
	return nil
}

// HandleDetach unbinds the mux named in an AttachMessage.
//
// A detach is refused with ErrPinned while flash devices reference the mux,
// unless Force is set, in which case the pins are dropped first.
func (b *Bridge) HandleDetach(_ string, payload []byte) error {
	msg, err := decodeAttach(payload)
	if err != nil {
		return err
	}
	id := strobe.MuxID(msg.Mux)

	b.mu.Lock()
	defer b.mu.Unlock()

	att, ok := b.attached[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownMux, id)
	}
	if att.owner != msg.Owner {
		return fmt.Errorf("%w: %s is attached by %s, not %s", ErrOwnerMismatch, id, att.owner, msg.Owner)
	}

	if !msg.Force && att.lease.Pins() > 0 {
		b.logger.Warn("async mux detach refused", "mux", id, "owner", msg.Owner, "pins", att.lease.Pins())
		return fmt.Errorf("detaching %s: %w", id, ErrPinned)
	}

	if err := b.registry.UnbindAsyncMux(id); err != nil && !errors.Is(err, strobe.ErrNotFound) {
		return fmt.Errorf("detaching %s: %w", id, err)
	}
	if err := att.lease.Retire(); err != nil {
		return fmt.Errorf("detaching %s: %w", id, err)
	}
	delete(b.attached, id)

	b.logger.Info("async mux detached", "mux", id, "owner", msg.Owner, "forced", msg.Force)
	return nil
}

// Attached returns the attached mux ids, sorted.
func (b *Bridge) Attached() []strobe.MuxID {
	b.mu.Lock()
	defer b.mu.Unlock()

	ids := make([]strobe.MuxID, 0, len(b.attached))
	for id := range b.attached {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
