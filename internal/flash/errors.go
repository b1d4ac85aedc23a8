package flash

import "errors"

// Domain errors for the flash package.
var (
	// ErrBusy is returned when a software strobe is requested while the
	// device waits for an external strobe.
	ErrBusy = errors.New("flash: external strobe active")

	// ErrInvalidArgument is returned for bad device configuration or for
	// enabling external strobe on a device without providers.
	ErrInvalidArgument = errors.New("flash: invalid argument")

	// ErrProviderRange is returned when selecting a provider index the
	// device does not have.
	ErrProviderRange = errors.New("flash: strobe provider out of range")

	// ErrNotSupported is returned when the driver lacks the requested operation.
	ErrNotSupported = errors.New("flash: operation not supported")

	// ErrAlreadyRegistered is returned when registering a device twice.
	ErrAlreadyRegistered = errors.New("flash: device already registered")
)
