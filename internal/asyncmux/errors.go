package asyncmux

import "errors"

// Errors returned by the async mux bridge. Check them with errors.Is.
var (
	// ErrRetired is returned by Lease.Get once the driver has gone away.
	ErrRetired = errors.New("asyncmux: driver retired")

	// ErrPinned is returned when a driver tries to detach while devices
	// still depend on its mux.
	ErrPinned = errors.New("asyncmux: driver pinned by flash devices")

	// ErrInvalidMessage is returned for attach/detach payloads that do not
	// decode or lack a mux or owner.
	ErrInvalidMessage = errors.New("asyncmux: invalid message")

	// ErrUnknownMux is returned when a detach names a mux the bridge never attached.
	ErrUnknownMux = errors.New("asyncmux: mux not attached")

	// ErrOwnerMismatch is returned when a detach comes from a different owner
	// than the attach.
	ErrOwnerMismatch = errors.New("asyncmux: owner mismatch")
)
