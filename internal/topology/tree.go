package topology

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Tree is a parsed topology document.
//
// A Tree is immutable after Parse returns and is safe for concurrent reads.
type Tree struct {
	root    *Node
	byPath  map[string]*Node
	byLabel map[string]*Node
	byYAML  map[*yaml.Node]*Node
}

// Load reads and parses a topology file.
func Load(path string) (*Tree, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading topology file: %w", err)
	}

	tree, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing topology file %s: %w", path, err)
	}
	return tree, nil
}

// Parse builds a Tree from a YAML document.
//
// An empty document yields a tree with a bare root node.
func Parse(data []byte) (*Tree, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding yaml: %w", err)
	}

	t := &Tree{
		byPath:  make(map[string]*Node),
		byLabel: make(map[string]*Node),
		byYAML:  make(map[*yaml.Node]*Node),
	}
	t.root = &Node{path: "/", tree: t, props: make(map[string]*yaml.Node)}
	t.byPath["/"] = t.root

	if doc.Kind == 0 || len(doc.Content) == 0 {
		return t, nil
	}

	body := doc.Content[0]
	if body.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: top level must be a mapping of nodes", ErrInvalidDocument)
	}
	t.byYAML[body] = t.root

	if err := t.build(t.root, body); err != nil {
		return nil, err
	}
	return t, nil
}

// build walks a YAML mapping and attaches its children and properties to parent.
func (t *Tree) build(parent *Node, m *yaml.Node) error {
	for i := 0; i+1 < len(m.Content); i += 2 {
		key, val := m.Content[i], m.Content[i+1]
		name := key.Value

		if name == "" || strings.Contains(name, "/") {
			return fmt.Errorf("%w: invalid node or property name %q under %s", ErrInvalidDocument, name, parent.path)
		}

		if val.Kind != yaml.MappingNode {
			if _, dup := parent.props[name]; dup {
				return fmt.Errorf("%w: duplicate property %s/%s", ErrInvalidDocument, parent.path, name)
			}
			parent.props[name] = val
			continue
		}

		child := &Node{
			name:  name,
			tree:  t,
			props: make(map[string]*yaml.Node),
			label: val.Anchor,
		}
		if parent == t.root {
			child.path = "/" + name
		} else {
			child.path = parent.path + "/" + name
		}

		if _, dup := t.byPath[child.path]; dup {
			return fmt.Errorf("%w: duplicate node %s", ErrInvalidDocument, child.path)
		}
		t.byPath[child.path] = child
		t.byYAML[val] = child
		if val.Anchor != "" {
			t.byLabel[val.Anchor] = child
		}
		parent.children = append(parent.children, child)

		if err := t.build(child, val); err != nil {
			return err
		}
	}
	return nil
}

// Root returns the root node of the tree.
func (t *Tree) Root() *Node {
	return t.root
}

// Lookup returns the node at the given absolute path.
func (t *Tree) Lookup(path string) (*Node, error) {
	n, ok := t.byPath[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, path)
	}
	return n, nil
}

// ByLabel returns the node carrying the given YAML anchor.
func (t *Tree) ByLabel(label string) (*Node, error) {
	n, ok := t.byLabel[label]
	if !ok {
		return nil, fmt.Errorf("%w: label %q", ErrNodeNotFound, label)
	}
	return n, nil
}

// Len returns the number of nodes in the tree, root included.
func (t *Tree) Len() int {
	return len(t.byPath)
}
