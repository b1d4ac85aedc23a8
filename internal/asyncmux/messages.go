package asyncmux

import (
	"encoding/json"
	"fmt"
	"time"
)

// AttachMessage is published by a driver on flashmux/mux/attach when it
// probes, and on flashmux/mux/detach when it goes away.
type AttachMessage struct {
	// Mux is the topology path of the async mux node, e.g. "/isp-mux".
	Mux string `json:"mux"`

	// Owner names the driver; select commands go to flashmux/mux/select/{owner}.
	Owner string `json:"owner"`

	// Force, on detach only, drops the pins held by flash devices before
	// retiring the driver.
	Force bool `json:"force,omitempty"`
}

// SelectCommand is published to the owning driver for every line selection.
type SelectCommand struct {
	RequestID string    `json:"request_id"`
	Mux       string    `json:"mux"`
	Line      uint32    `json:"line"`
	Timestamp time.Time `json:"timestamp"`
}

func decodeAttach(payload []byte) (AttachMessage, error) {
	var msg AttachMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return AttachMessage{}, fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}
	if msg.Mux == "" || msg.Owner == "" {
		return AttachMessage{}, fmt.Errorf("%w: mux and owner are required", ErrInvalidMessage)
	}
	return msg, nil
}
