package history

import "errors"

var (
	// ErrDeviceRequired is returned when an entry or query names no device.
	ErrDeviceRequired = errors.New("history: device is required")

	// ErrInvalidRetention is returned by Prune for a non-positive retention.
	ErrInvalidRetention = errors.New("history: retention must be positive")
)
