package asyncmux

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestRemoteMux_SelectLine(t *testing.T) {
	bus := newFakeBus()
	r := NewRemoteMux("/isp-mux", "isp0", bus)
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return at }

	if err := r.SelectLine(2); err != nil {
		t.Fatalf("SelectLine() error = %v", err)
	}
	if err := r.SelectLine(2); err != nil {
		t.Fatal(err)
	}

	msgs := bus.messages()
	if len(msgs) != 2 {
		t.Fatalf("published %d messages, want 2", len(msgs))
	}
	if msgs[0].topic != "flashmux/mux/select/isp0" || msgs[0].qos != selectQoS {
		t.Errorf("published to %s qos %d", msgs[0].topic, msgs[0].qos)
	}

	var first, second SelectCommand
	if err := json.Unmarshal(msgs[0].payload, &first); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(msgs[1].payload, &second); err != nil {
		t.Fatal(err)
	}
	if first.Mux != "/isp-mux" || first.Line != 2 || !first.Timestamp.Equal(at) {
		t.Errorf("command = %+v", first)
	}
	if _, err := uuid.Parse(first.RequestID); err != nil {
		t.Errorf("RequestID %q is not a UUID: %v", first.RequestID, err)
	}
	if first.RequestID == second.RequestID {
		t.Error("request ids repeat")
	}
}

func TestRemoteMux_PublishError(t *testing.T) {
	bus := newFakeBus()
	bus.publishErr = errors.New("broker gone")
	r := NewRemoteMux("/isp-mux", "isp0", bus)

	if err := r.SelectLine(1); !errors.Is(err, bus.publishErr) {
		t.Errorf("SelectLine() error = %v, want wrapped publish error", err)
	}
}
