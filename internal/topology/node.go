package topology

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Node is one element of a topology tree.
type Node struct {
	name     string
	path     string
	label    string
	children []*Node
	props    map[string]*yaml.Node
	tree     *Tree
}

// Name returns the node name (the mapping key it was declared under).
// The root node has an empty name.
func (n *Node) Name() string { return n.name }

// Path returns the absolute path of the node, e.g. "/flash-led@0/gate-software-strobe".
func (n *Node) Path() string { return n.path }

// Label returns the YAML anchor of the node, or "" if it has none.
func (n *Node) Label() string { return n.label }

// String implements fmt.Stringer.
func (n *Node) String() string { return n.path }

// Available reports whether the node is enabled.
// A node is available unless it has a status property other than "okay" or "ok".
func (n *Node) Available() bool {
	v, ok := n.props["status"]
	if !ok {
		return true
	}
	v = deref(v)
	return v.Kind == yaml.ScalarNode && (v.Value == "okay" || v.Value == "ok")
}

// Children returns the available child nodes in declaration order.
func (n *Node) Children() []*Node {
	out := make([]*Node, 0, len(n.children))
	for _, c := range n.children {
		if c.Available() {
			out = append(out, c)
		}
	}
	return out
}

// Child returns the named child, available or not.
func (n *Node) Child(name string) (*Node, bool) {
	for _, c := range n.children {
		if c.name == name {
			return c, true
		}
	}
	return nil, false
}

// Ref resolves a property holding a YAML alias to the node it refers to.
//
// Returns ErrPropertyMissing when the property is absent and ErrNotReference
// when it holds a plain value or an alias to something that is not a node.
func (n *Node) Ref(prop string) (*Node, error) {
	v, ok := n.props[prop]
	if !ok {
		return nil, fmt.Errorf("%w: %s:%s", ErrPropertyMissing, n.path, prop)
	}
	if v.Kind != yaml.AliasNode || v.Alias == nil {
		return nil, fmt.Errorf("%w: %s:%s", ErrNotReference, n.path, prop)
	}
	target, ok := n.tree.byYAML[v.Alias]
	if !ok {
		return nil, fmt.Errorf("%w: %s:%s", ErrNotReference, n.path, prop)
	}
	return target, nil
}

// U32 decodes a property as an unsigned 32-bit integer.
func (n *Node) U32(prop string) (uint32, error) {
	v, err := n.scalar(prop)
	if err != nil {
		return 0, err
	}
	var out uint32
	if err := v.Decode(&out); err != nil {
		return 0, fmt.Errorf("%w: %s:%s: %v", ErrPropertyType, n.path, prop, err)
	}
	return out, nil
}

// StringProp decodes a property as a string.
func (n *Node) StringProp(prop string) (string, error) {
	v, err := n.scalar(prop)
	if err != nil {
		return "", err
	}
	return v.Value, nil
}

// Strings decodes a property as a list of strings.
// A single scalar is returned as a one-element list.
func (n *Node) Strings(prop string) ([]string, error) {
	v, ok := n.props[prop]
	if !ok {
		return nil, fmt.Errorf("%w: %s:%s", ErrPropertyMissing, n.path, prop)
	}
	v = deref(v)

	switch v.Kind {
	case yaml.ScalarNode:
		return []string{v.Value}, nil
	case yaml.SequenceNode:
		out := make([]string, 0, len(v.Content))
		for _, item := range v.Content {
			item = deref(item)
			if item.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("%w: %s:%s: list item is not a scalar", ErrPropertyType, n.path, prop)
			}
			out = append(out, item.Value)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %s:%s", ErrPropertyType, n.path, prop)
	}
}

func (n *Node) scalar(prop string) (*yaml.Node, error) {
	v, ok := n.props[prop]
	if !ok {
		return nil, fmt.Errorf("%w: %s:%s", ErrPropertyMissing, n.path, prop)
	}
	v = deref(v)
	if v.Kind != yaml.ScalarNode {
		return nil, fmt.Errorf("%w: %s:%s: not a scalar", ErrPropertyType, n.path, prop)
	}
	return v, nil
}

// deref follows an alias to the node it points at.
func deref(v *yaml.Node) *yaml.Node {
	if v.Kind == yaml.AliasNode && v.Alias != nil {
		return v.Alias
	}
	return v
}
