package control

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/nerrad567/flashmux/internal/history"
	"github.com/nerrad567/flashmux/internal/infrastructure/mqtt"
)

const (
	ackQoS = 1

	historyTimeout = 2 * time.Second
)

// Flash is the device surface commands act on. Satisfied by *flash.Device.
type Flash interface {
	Name() string
	SetStrobe(on bool) error
	SetExternalStrobe(enable bool) error
	SetTimeout(us uint32) (uint32, error)
	SetBrightness(uA uint32) (uint32, error)
	SelectProvider(id int) error
}

// HistoryReader serves history queries. Satisfied by *history.SQLiteRepository.
type HistoryReader interface {
	Recent(ctx context.Context, device string, limit int) ([]history.Entry, error)
}

// Bus is the MQTT surface the handler needs. Satisfied by *mqtt.Client.
type Bus interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topic string) error
}

// Logger is the logging interface used by the handler.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any) {}
func (noopLogger) Warn(string, ...any) {}

// Handler executes commands received on flashmux/command/{device} and
// answers each on flashmux/ack/{device}.
//
// Thread Safety:
//   - Commands may arrive concurrently; serialisation is left to the devices.
type Handler struct {
	bus     Bus
	flashes map[string]Flash
	history HistoryReader
	logger  Logger
	now     func() time.Time
}

// NewHandler returns a handler for flashes, keyed by Name.
func NewHandler(bus Bus, flashes ...Flash) *Handler {
	h := &Handler{
		bus:     bus,
		flashes: make(map[string]Flash, len(flashes)),
		logger:  noopLogger{},
		now:     time.Now,
	}
	for _, f := range flashes {
		h.flashes[f.Name()] = f
	}
	return h
}

// SetHistory enables the history action.
func (h *Handler) SetHistory(r HistoryReader) { h.history = r }

// SetLogger sets the logger.
func (h *Handler) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	h.logger = logger
}

// Devices returns the names of the flashes the handler controls, sorted.
func (h *Handler) Devices() []string {
	names := make([]string, 0, len(h.flashes))
	for name := range h.flashes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Start subscribes to the command topic of every device.
func (h *Handler) Start() error {
	topic := mqtt.Topics{}.AllDeviceCommands()
	if err := h.bus.Subscribe(topic, ackQoS, h.HandleCommand); err != nil {
		return fmt.Errorf("subscribe to commands: %w", err)
	}
	h.logger.Info("control handler started", "topic", topic, "devices", len(h.flashes))
	return nil
}

// Stop unsubscribes from the command topic.
func (h *Handler) Stop() {
	if err := h.bus.Unsubscribe(mqtt.Topics{}.AllDeviceCommands()); err != nil {
		h.logger.Warn("unsubscribe failed", "error", err)
	}
}

// HandleCommand executes one command and publishes its ack. The execution
// error, if any, is also returned.
func (h *Handler) HandleCommand(topic string, payload []byte) error {
	device := mqtt.LastLevel(topic)
	ack := Ack{Device: device}

	var cmd Command
	err := json.Unmarshal(payload, &cmd)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrInvalidCommand, err)
	} else {
		ack.CommandID = cmd.ID
		ack.Action = cmd.Action
		err = h.execute(device, cmd, &ack)
	}

	ack.OK = err == nil
	if err != nil {
		ack.Error = err.Error()
	}
	ack.Timestamp = h.now().UTC()
	h.publishAck(ack)

	if err != nil {
		return fmt.Errorf("%s %s: %w", device, cmd.Action, err)
	}
	return nil
}

func (h *Handler) execute(device string, cmd Command, ack *Ack) error {
	f, ok := h.flashes[device]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownDevice, device)
	}

	switch cmd.Action {
	case ActionStrobe:
		on, err := boolValue(cmd.Value)
		if err != nil {
			return err
		}
		return f.SetStrobe(on)

	case ActionExternal:
		on, err := boolValue(cmd.Value)
		if err != nil {
			return err
		}
		return f.SetExternalStrobe(on)

	case ActionTimeout:
		v, err := u32Value(cmd.Value)
		if err != nil {
			return err
		}
		applied, err := f.SetTimeout(v)
		if err != nil {
			return err
		}
		ack.Value = ptr(int64(applied))
		return nil

	case ActionBrightness:
		v, err := u32Value(cmd.Value)
		if err != nil {
			return err
		}
		applied, err := f.SetBrightness(v)
		if err != nil {
			return err
		}
		ack.Value = ptr(int64(applied))
		return nil

	case ActionProvider:
		if cmd.Value < 0 || cmd.Value > math.MaxInt32 {
			return fmt.Errorf("%w: provider index %d", ErrInvalidCommand, cmd.Value)
		}
		return f.SelectProvider(int(cmd.Value))

	case ActionHistory:
		if h.history == nil {
			return ErrNoHistory
		}
		ctx, cancel := context.WithTimeout(context.Background(), historyTimeout)
		defer cancel()
		entries, err := h.history.Recent(ctx, device, int(max(cmd.Value, 0)))
		if err != nil {
			return err
		}
		ack.History = entries
		return nil

	default:
		return fmt.Errorf("%w: %q", ErrUnknownAction, cmd.Action)
	}
}

func (h *Handler) publishAck(ack Ack) {
	payload, err := json.Marshal(ack)
	if err != nil {
		h.logger.Warn("failed to marshal ack", "device", ack.Device, "error", err)
		return
	}
	if err := h.bus.Publish(mqtt.Topics{}.DeviceAck(ack.Device), payload, ackQoS, false); err != nil {
		h.logger.Warn("failed to publish ack", "device", ack.Device, "error", err)
	}
}

func boolValue(v int64) (bool, error) {
	switch v {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, fmt.Errorf("%w: value %d is not 0 or 1", ErrInvalidCommand, v)
	}
}

func u32Value(v int64) (uint32, error) {
	if v < 0 || v > math.MaxUint32 {
		return 0, fmt.Errorf("%w: value %d out of range", ErrInvalidCommand, v)
	}
	return uint32(v), nil
}

func ptr[T any](v T) *T { return &v }
