package strobe

import "errors"

// Domain errors for the strobe package.
//
// These errors can be checked using errors.Is():
//
//	if errors.Is(err, strobe.ErrDeviceNotReady) {
//	    // an async mux on the route has not attached yet; retry later
//	}
var (
	// ErrConfig is returned when a strobe topology description is malformed:
	// a gate without a mux reference or line id, more than one nested gate,
	// or a provider reference without a name.
	ErrConfig = errors.New("strobe: invalid topology")

	// ErrNotFound is returned when a mux identity is unknown to the manager.
	ErrNotFound = errors.New("strobe: mux not found")

	// ErrDeviceNotReady is returned when a route passes through a mux that
	// has no driver bound.
	ErrDeviceNotReady = errors.New("strobe: mux not bound")

	// ErrOwnership is returned when the implementation of an async mux
	// cannot be pinned.
	ErrOwnership = errors.New("strobe: cannot pin mux implementation")

	// ErrNotAvailable is returned by BindAsyncMux when the new implementation
	// cannot be pinned for the devices already referencing the mux.
	ErrNotAvailable = errors.New("strobe: mux implementation not available")

	// ErrResourceExhausted is returned when a local mux cannot acquire the
	// resources it needs (for example a selector line already in use).
	ErrResourceExhausted = errors.New("strobe: resource exhausted")

	// ErrInvalidArgument is returned for nil devices, nodes or ops, empty
	// identities, and out of range provider selections.
	ErrInvalidArgument = errors.New("strobe: invalid argument")

	// ErrAlreadyBound is returned when a driver binds a mux that already has one.
	ErrAlreadyBound = errors.New("strobe: mux already bound")
)
