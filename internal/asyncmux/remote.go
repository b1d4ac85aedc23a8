package asyncmux

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/flashmux/internal/infrastructure/mqtt"
	"github.com/nerrad567/flashmux/internal/strobe"
)

// selectQoS is used for select commands; a lost selection misroutes a strobe.
const selectQoS = 1

// RemoteMux implements strobe.MuxOps for a mux whose driver lives on the
// MQTT bus. SelectLine publishes a SelectCommand and returns once the
// broker has accepted it.
type RemoteMux struct {
	id    strobe.MuxID
	topic string
	bus   Publisher
	now   func() time.Time
}

// NewRemoteMux returns the ops for mux id, driven by owner.
func NewRemoteMux(id strobe.MuxID, owner string, bus Publisher) *RemoteMux {
	return &RemoteMux{
		id:    id,
		topic: mqtt.Topics{}.MuxSelect(owner),
		bus:   bus,
		now:   time.Now,
	}
}

// SelectLine publishes the selection with a fresh request id.
func (r *RemoteMux) SelectLine(line uint32) error {
	payload, err := json.Marshal(SelectCommand{
		RequestID: uuid.NewString(),
		Mux:       string(r.id),
		Line:      line,
		Timestamp: r.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("encoding select for %s: %w", r.id, err)
	}
	if err := r.bus.Publish(r.topic, payload, selectQoS, false); err != nil {
		return fmt.Errorf("selecting line %d on %s: %w", line, r.id, err)
	}
	return nil
}
