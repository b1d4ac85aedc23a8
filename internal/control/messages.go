package control

import (
	"time"

	"github.com/nerrad567/flashmux/internal/history"
)

// Actions understood on flashmux/command/{device}.
const (
	ActionStrobe     = "strobe"     // value 1 fires, 0 stops
	ActionExternal   = "external"   // value 1 arms external strobe, 0 disarms
	ActionTimeout    = "timeout"    // value in microseconds
	ActionBrightness = "brightness" // value in microamperes
	ActionProvider   = "provider"   // value is the provider index
	ActionHistory    = "history"    // value is the entry limit
)

// Command is the body of a command message.
type Command struct {
	ID     string `json:"id,omitempty"`
	Action string `json:"action"`
	Value  int64  `json:"value"`
}

// Ack is published on flashmux/ack/{device} for every command.
type Ack struct {
	CommandID string          `json:"command_id,omitempty"`
	Device    string          `json:"device"`
	Action    string          `json:"action,omitempty"`
	OK        bool            `json:"ok"`
	Error     string          `json:"error,omitempty"`
	Value     *int64          `json:"value,omitempty"`
	History   []history.Entry `json:"history,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}
