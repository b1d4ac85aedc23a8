package topology

import "errors"

// Domain errors for the topology package.
var (
	// ErrInvalidDocument is returned when the YAML document is not a mapping of nodes.
	ErrInvalidDocument = errors.New("topology: invalid document")

	// ErrPropertyMissing is returned when a node has no property with the requested name.
	ErrPropertyMissing = errors.New("topology: property missing")

	// ErrPropertyType is returned when a property cannot be decoded as the requested type.
	ErrPropertyType = errors.New("topology: property has wrong type")

	// ErrNotReference is returned when a property exists but does not refer to a node.
	ErrNotReference = errors.New("topology: property is not a node reference")

	// ErrNodeNotFound is returned when a path or label does not name a node.
	ErrNodeNotFound = errors.New("topology: node not found")
)
