package history

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/flashmux/internal/infrastructure/influxdb"
	"github.com/nerrad567/flashmux/internal/infrastructure/mqtt"
	"github.com/nerrad567/flashmux/internal/strobe"
)

// recordTimeout bounds one history insert.
const recordTimeout = 2 * time.Second

// Store persists entries. Satisfied by *SQLiteRepository.
type Store interface {
	Record(ctx context.Context, e Entry) error
}

// Metrics receives strobe samples. Satisfied by *influxdb.Client.
type Metrics interface {
	WriteStrobe(s influxdb.StrobeSample)
}

// Publisher sends strobe events on the bus. Satisfied by *mqtt.Client.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// Logger is the logging interface used by the Recorder.
type Logger interface {
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Warn(string, ...any) {}

// Event is the payload published on flashmux/event/strobe/{device}.
type Event struct {
	EventID   string    `json:"event_id"`
	Device    string    `json:"device"`
	External  bool      `json:"external"`
	Provider  string    `json:"provider,omitempty"`
	Path      string    `json:"path,omitempty"`
	BlockedMS int64     `json:"blocked_ms"`
	OK        bool      `json:"ok"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Recorder implements strobe.Recorder. Each strobe event gets a UUID and
// goes to every configured sink; any sink may be nil. Sink failures are
// logged and never reach the strobe caller.
type Recorder struct {
	store   Store
	metrics Metrics
	bus     Publisher
	logger  Logger
}

// NewRecorder returns a recorder writing to store.
func NewRecorder(store Store) *Recorder {
	return &Recorder{store: store, logger: noopLogger{}}
}

// SetMetrics adds an InfluxDB sink.
func (r *Recorder) SetMetrics(m Metrics) { r.metrics = m }

// SetPublisher adds an MQTT event sink.
func (r *Recorder) SetPublisher(p Publisher) { r.bus = p }

// SetLogger sets the logger for sink failures.
func (r *Recorder) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	r.logger = logger
}

// RecordStrobe implements strobe.Recorder.
func (r *Recorder) RecordStrobe(ev strobe.StrobeEvent) {
	entry := entryFromEvent(uuid.NewString(), ev)

	if r.store != nil {
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		if err := r.store.Record(ctx, entry); err != nil {
			r.logger.Warn("strobe history write failed", "device", ev.Device, "error", err)
		}
		cancel()
	}

	if r.metrics != nil {
		r.metrics.WriteStrobe(influxdb.StrobeSample{
			Device:   entry.Device,
			External: entry.External,
			Provider: entry.Provider,
			Blocked:  entry.Blocked,
			OK:       entry.OK(),
			At:       entry.CreatedAt,
		})
	}

	if r.bus != nil {
		r.publish(entry)
	}
}

func (r *Recorder) publish(e Entry) {
	payload, err := json.Marshal(Event{
		EventID:   e.EventID,
		Device:    e.Device,
		External:  e.External,
		Provider:  e.Provider,
		Path:      e.Path,
		BlockedMS: e.Blocked.Milliseconds(),
		OK:        e.OK(),
		Error:     e.Error,
		Timestamp: e.CreatedAt.UTC(),
	})
	if err != nil {
		r.logger.Warn("strobe event encoding failed", "device", e.Device, "error", err)
		return
	}
	if err := r.bus.Publish(mqtt.Topics{}.StrobeEvent(e.Device), payload, 0, false); err != nil {
		r.logger.Warn("strobe event publish failed", "device", e.Device, "error", err)
	}
}

func entryFromEvent(id string, ev strobe.StrobeEvent) Entry {
	e := Entry{
		EventID:   id,
		Device:    ev.Device,
		External:  ev.External,
		Provider:  ev.Provider,
		Path:      ev.Route,
		Blocked:   ev.Blocked,
		CreatedAt: ev.At,
	}
	if ev.Err != nil {
		e.Error = ev.Err.Error()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	return e
}
