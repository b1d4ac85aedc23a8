package control

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/flashmux/internal/flash"
	"github.com/nerrad567/flashmux/internal/history"
	"github.com/nerrad567/flashmux/internal/infrastructure/mqtt"
)

var (
	_ Flash         = (*flash.Device)(nil)
	_ HistoryReader = (*history.SQLiteRepository)(nil)
	_ Bus           = (*mqtt.Client)(nil)
)

type published struct {
	topic   string
	payload []byte
	qos     byte
}

type fakeBus struct {
	mu           sync.Mutex
	published    []published
	subscribed   map[string]mqtt.MessageHandler
	unsubscribed []string
	subErr       error
}

func newFakeBus() *fakeBus {
	return &fakeBus{subscribed: make(map[string]mqtt.MessageHandler)}
}

func (b *fakeBus) Publish(topic string, payload []byte, qos byte, _ bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = append(b.published, published{topic: topic, payload: payload, qos: qos})
	return nil
}

func (b *fakeBus) Subscribe(topic string, _ byte, handler mqtt.MessageHandler) error {
	if b.subErr != nil {
		return b.subErr
	}
	b.subscribed[topic] = handler
	return nil
}

func (b *fakeBus) Unsubscribe(topic string) error {
	b.unsubscribed = append(b.unsubscribed, topic)
	return nil
}

func (b *fakeBus) lastAck(t *testing.T) (string, Ack) {
	t.Helper()
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.published) == 0 {
		t.Fatal("no ack published")
	}
	last := b.published[len(b.published)-1]
	var ack Ack
	if err := json.Unmarshal(last.payload, &ack); err != nil {
		t.Fatalf("ack payload %q: %v", last.payload, err)
	}
	return last.topic, ack
}

type fakeFlash struct {
	name      string
	strobes   []bool
	externals []bool
	providers int
	selected  int
	err       error
}

func (f *fakeFlash) Name() string { return f.name }

func (f *fakeFlash) SetStrobe(on bool) error {
	if f.err != nil {
		return f.err
	}
	f.strobes = append(f.strobes, on)
	return nil
}

func (f *fakeFlash) SetExternalStrobe(enable bool) error {
	f.externals = append(f.externals, enable)
	return nil
}

func (f *fakeFlash) SetTimeout(us uint32) (uint32, error) { return us - us%1000, nil }

func (f *fakeFlash) SetBrightness(uA uint32) (uint32, error) { return min(uA, 1000), nil }

func (f *fakeFlash) SelectProvider(id int) error {
	if id >= f.providers {
		return flash.ErrProviderRange
	}
	f.selected = id
	return nil
}

type fakeHistory struct {
	device string
	limit  int
}

func (h *fakeHistory) Recent(_ context.Context, device string, limit int) ([]history.Entry, error) {
	h.device, h.limit = device, limit
	return []history.Entry{{EventID: "e1", Device: device, Path: "software"}}, nil
}

func newTestHandler(t *testing.T) (*Handler, *fakeBus, *fakeFlash) {
	t.Helper()
	bus := newFakeBus()
	front := &fakeFlash{name: "front", providers: 2}
	h := NewHandler(bus, front, &fakeFlash{name: "rear"})
	h.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return h, bus, front
}

func TestHandler_StartStop(t *testing.T) {
	h, bus, _ := newTestHandler(t)

	if err := h.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if _, ok := bus.subscribed["flashmux/command/+"]; !ok {
		t.Errorf("subscriptions = %v, want flashmux/command/+", bus.subscribed)
	}

	h.Stop()
	if len(bus.unsubscribed) != 1 || bus.unsubscribed[0] != "flashmux/command/+" {
		t.Errorf("unsubscribed = %v", bus.unsubscribed)
	}
}

func TestHandler_StartSubscribeError(t *testing.T) {
	h, bus, _ := newTestHandler(t)
	bus.subErr = mqtt.ErrNotConnected

	if err := h.Start(); !errors.Is(err, mqtt.ErrNotConnected) {
		t.Errorf("Start() error = %v, want ErrNotConnected", err)
	}
}

func TestHandler_Devices(t *testing.T) {
	h, _, _ := newTestHandler(t)

	got := h.Devices()
	if len(got) != 2 || got[0] != "front" || got[1] != "rear" {
		t.Errorf("Devices() = %v, want [front rear]", got)
	}
}

func TestHandler_Actions(t *testing.T) {
	tests := []struct {
		name      string
		payload   string
		wantValue *int64
		check     func(t *testing.T, f *fakeFlash)
	}{
		{
			name:    "strobe on",
			payload: `{"id":"c1","action":"strobe","value":1}`,
			check: func(t *testing.T, f *fakeFlash) {
				if len(f.strobes) != 1 || !f.strobes[0] {
					t.Errorf("strobes = %v, want [true]", f.strobes)
				}
			},
		},
		{
			name:    "external off",
			payload: `{"id":"c1","action":"external","value":0}`,
			check: func(t *testing.T, f *fakeFlash) {
				if len(f.externals) != 1 || f.externals[0] {
					t.Errorf("externals = %v, want [false]", f.externals)
				}
			},
		},
		{
			name:      "timeout reports applied value",
			payload:   `{"id":"c1","action":"timeout","value":150500}`,
			wantValue: ptr(int64(150000)),
		},
		{
			name:      "brightness reports applied value",
			payload:   `{"id":"c1","action":"brightness","value":5000}`,
			wantValue: ptr(int64(1000)),
		},
		{
			name:    "provider",
			payload: `{"id":"c1","action":"provider","value":1}`,
			check: func(t *testing.T, f *fakeFlash) {
				if f.selected != 1 {
					t.Errorf("selected = %d, want 1", f.selected)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, bus, front := newTestHandler(t)

			if err := h.HandleCommand("flashmux/command/front", []byte(tt.payload)); err != nil {
				t.Fatalf("HandleCommand() error = %v", err)
			}

			topic, ack := bus.lastAck(t)
			if topic != "flashmux/ack/front" {
				t.Errorf("ack topic = %q", topic)
			}
			if !ack.OK || ack.CommandID != "c1" || ack.Device != "front" || ack.Error != "" {
				t.Errorf("ack = %+v", ack)
			}
			switch {
			case tt.wantValue == nil && ack.Value != nil:
				t.Errorf("ack.Value = %d, want none", *ack.Value)
			case tt.wantValue != nil && (ack.Value == nil || *ack.Value != *tt.wantValue):
				t.Errorf("ack.Value = %v, want %d", ack.Value, *tt.wantValue)
			}
			if tt.check != nil {
				tt.check(t, front)
			}
		})
	}
}

func TestHandler_Failures(t *testing.T) {
	tests := []struct {
		name    string
		topic   string
		payload string
		wantErr error
	}{
		{"bad json", "flashmux/command/front", `{`, ErrInvalidCommand},
		{"unknown device", "flashmux/command/side", `{"action":"strobe","value":1}`, ErrUnknownDevice},
		{"unknown action", "flashmux/command/front", `{"action":"zoom","value":1}`, ErrUnknownAction},
		{"non-boolean strobe", "flashmux/command/front", `{"action":"strobe","value":2}`, ErrInvalidCommand},
		{"negative timeout", "flashmux/command/front", `{"action":"timeout","value":-1}`, ErrInvalidCommand},
		{"oversized brightness", "flashmux/command/front", `{"action":"brightness","value":4294967296}`, ErrInvalidCommand},
		{"negative provider", "flashmux/command/front", `{"action":"provider","value":-1}`, ErrInvalidCommand},
		{"provider out of range", "flashmux/command/front", `{"action":"provider","value":5}`, flash.ErrProviderRange},
		{"history disabled", "flashmux/command/front", `{"action":"history","value":5}`, ErrNoHistory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, bus, _ := newTestHandler(t)

			err := h.HandleCommand(tt.topic, []byte(tt.payload))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("HandleCommand() error = %v, want %v", err, tt.wantErr)
			}

			topic, ack := bus.lastAck(t)
			if want := "flashmux/ack/" + mqtt.LastLevel(tt.topic); topic != want {
				t.Errorf("ack topic = %q, want %q", topic, want)
			}
			if ack.OK || ack.Error == "" {
				t.Errorf("ack = %+v, want failure with error text", ack)
			}
		})
	}
}

func TestHandler_DeviceErrorIsAcked(t *testing.T) {
	h, bus, front := newTestHandler(t)
	front.err = flash.ErrBusy

	err := h.HandleCommand("flashmux/command/front", []byte(`{"action":"strobe","value":1}`))
	if !errors.Is(err, flash.ErrBusy) {
		t.Fatalf("HandleCommand() error = %v, want ErrBusy", err)
	}

	_, ack := bus.lastAck(t)
	if ack.OK || !strings.Contains(ack.Error, "external strobe active") {
		t.Errorf("ack = %+v", ack)
	}
	if !ack.Timestamp.Equal(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("ack.Timestamp = %v", ack.Timestamp)
	}
}

func TestHandler_History(t *testing.T) {
	h, bus, _ := newTestHandler(t)
	hist := &fakeHistory{}
	h.SetHistory(hist)

	if err := h.HandleCommand("flashmux/command/rear", []byte(`{"action":"history","value":10}`)); err != nil {
		t.Fatalf("HandleCommand() error = %v", err)
	}
	if hist.device != "rear" || hist.limit != 10 {
		t.Errorf("Recent(%q, %d), want (rear, 10)", hist.device, hist.limit)
	}

	_, ack := bus.lastAck(t)
	if !ack.OK || len(ack.History) != 1 || ack.History[0].EventID != "e1" {
		t.Errorf("ack = %+v", ack)
	}
}

func TestHandler_RealDevice(t *testing.T) {
	bus := newFakeBus()
	dev, err := flash.New(flash.Config{
		Name:       "front",
		Timeout:    flash.Setting{Min: 1000, Max: 800000, Step: 1000},
		Brightness: flash.Setting{Min: 0, Max: 100, Step: 1},
	}, strobePin{})
	if err != nil {
		t.Fatalf("flash.New() error = %v", err)
	}
	h := NewHandler(bus, dev)

	if err := h.HandleCommand("flashmux/command/front", []byte(`{"action":"strobe","value":1}`)); err != nil {
		t.Fatalf("strobe: %v", err)
	}

	err = h.HandleCommand("flashmux/command/front", []byte(`{"action":"provider","value":0}`))
	if !errors.Is(err, flash.ErrProviderRange) {
		t.Errorf("provider on unmanaged device: error = %v, want ErrProviderRange", err)
	}
}

type strobePin struct{}

func (strobePin) SetStrobe(bool) error { return nil }
