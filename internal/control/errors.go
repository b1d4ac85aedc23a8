package control

import "errors"

var (
	// ErrUnknownDevice is returned for commands addressed to no configured flash.
	ErrUnknownDevice = errors.New("control: unknown device")

	// ErrUnknownAction is returned for an unrecognised action.
	ErrUnknownAction = errors.New("control: unknown action")

	// ErrInvalidCommand is returned for payloads that do not decode or carry
	// a value the action cannot take.
	ErrInvalidCommand = errors.New("control: invalid command")

	// ErrNoHistory is returned for history queries when no history store is configured.
	ErrNoHistory = errors.New("control: history not available")
)
