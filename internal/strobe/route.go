package strobe

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nerrad567/flashmux/internal/topology"
)

// Topology node and property names.
const (
	softwareGateNode   = "gate-software-strobe"
	externalGatePrefix = "gate-external-strobe"
	nestedGatePrefix   = "gate"

	muxProp        = "mux"
	lineProp       = "mux-line-id"
	providerProp   = "strobe-provider"
	compatibleProp = "compatible"
	asyncProp      = "mux-async"

	undefinedProvider = "undefined"
)

// Gate is one mux selection on a route.
type Gate struct {
	// Node is the mux node the gate declares.
	Node *topology.Node

	// ID is the resolved mux identity. It is filled in when the owning
	// device is registered.
	ID MuxID

	// Line is the mux line to select.
	Line uint32
}

// Route is an ordered list of gates, outermost first.
type Route []Gate

// String renders the route as "mux:line -> mux:line".
func (r Route) String() string {
	parts := make([]string, 0, len(r))
	for _, g := range r {
		id := string(g.ID)
		if id == "" && g.Node != nil {
			id = g.Node.Path()
		}
		parts = append(parts, fmt.Sprintf("%s:%d", id, g.Line))
	}
	return strings.Join(parts, " -> ")
}

// Provider is an external strobe source and the route from it to the device.
type Provider struct {
	Name  string
	Route Route
}

// DisplayName returns the provider name, or "undefined" if it has none.
func (p Provider) DisplayName() string {
	if p.Name == "" {
		return undefinedProvider
	}
	return p.Name
}

// ParseRoutes reads the strobe topology declared under a device node.
//
// A gate-software-strobe child describes the software strobe route; every
// child whose name starts with gate-external-strobe describes one external
// provider. Any malformed gate aborts the whole parse and nothing is returned.
func ParseRoutes(node *topology.Node) (Route, []Provider, error) {
	if node == nil {
		return nil, nil, ErrInvalidArgument
	}

	var software Route
	var providers []Provider

	for _, child := range node.Children() {
		name := child.Name()
		switch {
		case name == softwareGateNode:
			route, err := parseGateChain(child)
			if err != nil {
				return nil, nil, err
			}
			software = append(software, route...)

		case strings.HasPrefix(name, externalGatePrefix):
			provider, err := parseProvider(child)
			if err != nil {
				return nil, nil, err
			}
			providers = append(providers, provider)
		}
	}

	return software, providers, nil
}

func parseProvider(node *topology.Node) (Provider, error) {
	var p Provider

	source, err := node.Ref(providerProp)
	switch {
	case err == nil:
		names, nameErr := source.Strings(compatibleProp)
		if nameErr != nil {
			return Provider{}, fmt.Errorf("%w: %w", ErrConfig, nameErr)
		}
		if len(names) == 0 {
			return Provider{}, fmt.Errorf("%w: provider %s has an empty %s", ErrConfig, source.Path(), compatibleProp)
		}
		p.Name = names[0]
	case !errors.Is(err, topology.ErrPropertyMissing):
		return Provider{}, fmt.Errorf("%w: %w", ErrConfig, err)
	}

	route, err := parseGateChain(node)
	if err != nil {
		return Provider{}, err
	}
	p.Route = route
	return p, nil
}

// parseGateChain parses a primary gate and its optional nested secondary gate.
func parseGateChain(node *topology.Node) (Route, error) {
	primary, err := parseGate(node)
	if err != nil {
		return nil, err
	}

	nested := nestedGates(node)
	if len(nested) > 1 {
		return nil, fmt.Errorf("%w: %s: only one nested gate is allowed", ErrConfig, node.Path())
	}

	route := Route{primary}
	if len(nested) == 1 {
		secondary, err := parseGate(nested[0])
		if err != nil {
			return nil, err
		}
		if len(nestedGates(nested[0])) > 0 {
			return nil, fmt.Errorf("%w: %s: gates nest at most two deep", ErrConfig, nested[0].Path())
		}
		route = append(route, secondary)
	}
	return route, nil
}

func parseGate(node *topology.Node) (Gate, error) {
	mux, err := node.Ref(muxProp)
	if err != nil {
		return Gate{}, fmt.Errorf("%w: %w", ErrConfig, err)
	}

	line, err := node.U32(lineProp)
	if err != nil {
		return Gate{}, fmt.Errorf("%w: %w", ErrConfig, err)
	}

	return Gate{Node: mux, Line: line}, nil
}

func nestedGates(node *topology.Node) []*topology.Node {
	var out []*topology.Node
	for _, child := range node.Children() {
		if strings.HasPrefix(child.Name(), nestedGatePrefix) {
			out = append(out, child)
		}
	}
	return out
}
