package topology

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const boardYAML = `
flash-mux-a: &fmux_a
  gpios: [FLASH_SEL0, FLASH_SEL1]

isp: &isp
  compatible: "samsung,exynos4-fimc-is"

broken-sensor:
  status: disabled

flash-led@0:
  gate-software-strobe:
    mux: *fmux_a
    mux-line-id: 1
  gate-external-strobe0:
    strobe-provider: *isp
    mux: *fmux_a
    mux-line-id: 2
    gate:
      mux: *fmux_a
      mux-line-id: 3
`

func mustParse(t *testing.T, doc string) *Tree {
	t.Helper()
	tree, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return tree
}

func TestParse_Paths(t *testing.T) {
	tree := mustParse(t, boardYAML)

	for _, path := range []string{
		"/",
		"/flash-mux-a",
		"/isp",
		"/flash-led@0",
		"/flash-led@0/gate-software-strobe",
		"/flash-led@0/gate-external-strobe0/gate",
	} {
		if _, err := tree.Lookup(path); err != nil {
			t.Errorf("Lookup(%q) error = %v", path, err)
		}
	}

	if _, err := tree.Lookup("/nope"); !errors.Is(err, ErrNodeNotFound) {
		t.Errorf("Lookup(/nope) error = %v, want ErrNodeNotFound", err)
	}
}

func TestNode_ChildrenSkipsDisabledAndKeepsOrder(t *testing.T) {
	tree := mustParse(t, boardYAML)

	var names []string
	for _, c := range tree.Root().Children() {
		names = append(names, c.Name())
	}

	want := []string{"flash-mux-a", "isp", "flash-led@0"}
	if len(names) != len(want) {
		t.Fatalf("Children() = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("Children()[%d] = %q, want %q", i, names[i], want[i])
		}
	}

	if _, ok := tree.Root().Child("broken-sensor"); !ok {
		t.Error("Child(broken-sensor) should still find disabled node")
	}
}

func TestNode_Ref(t *testing.T) {
	tree := mustParse(t, boardYAML)
	gate, _ := tree.Lookup("/flash-led@0/gate-software-strobe")

	mux, err := gate.Ref("mux")
	if err != nil {
		t.Fatalf("Ref(mux) error = %v", err)
	}
	if mux.Path() != "/flash-mux-a" {
		t.Errorf("Ref(mux) = %s, want /flash-mux-a", mux.Path())
	}
	if mux.Label() != "fmux_a" {
		t.Errorf("Label() = %q, want fmux_a", mux.Label())
	}

	if _, err := gate.Ref("strobe-provider"); !errors.Is(err, ErrPropertyMissing) {
		t.Errorf("Ref(missing) error = %v, want ErrPropertyMissing", err)
	}
	if _, err := gate.Ref("mux-line-id"); !errors.Is(err, ErrNotReference) {
		t.Errorf("Ref(scalar) error = %v, want ErrNotReference", err)
	}
}

func TestNode_ScalarProperties(t *testing.T) {
	tree := mustParse(t, boardYAML)
	gate, _ := tree.Lookup("/flash-led@0/gate-software-strobe")

	line, err := gate.U32("mux-line-id")
	if err != nil || line != 1 {
		t.Errorf("U32(mux-line-id) = %d, %v; want 1, nil", line, err)
	}

	isp, _ := tree.ByLabel("isp")
	name, err := isp.StringProp("compatible")
	if err != nil || name != "samsung,exynos4-fimc-is" {
		t.Errorf("StringProp(compatible) = %q, %v", name, err)
	}

	mux, _ := tree.Lookup("/flash-mux-a")
	pins, err := mux.Strings("gpios")
	if err != nil || len(pins) != 2 || pins[1] != "FLASH_SEL1" {
		t.Errorf("Strings(gpios) = %v, %v", pins, err)
	}

	if _, err := mux.U32("gpios"); !errors.Is(err, ErrPropertyType) {
		t.Errorf("U32(sequence) error = %v, want ErrPropertyType", err)
	}
}

func TestNode_U32RejectsNegative(t *testing.T) {
	tree := mustParse(t, "gate:\n  mux-line-id: -1\n")
	gate, _ := tree.Lookup("/gate")

	if _, err := gate.U32("mux-line-id"); !errors.Is(err, ErrPropertyType) {
		t.Errorf("U32(-1) error = %v, want ErrPropertyType", err)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "top level sequence", doc: "- a\n- b\n"},
		{name: "dangling alias", doc: "a:\n  mux: *nothing\n"},
		{name: "slash in name", doc: "a/b:\n  x: 1\n"},
		{name: "malformed yaml", doc: "a: [1, 2\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.doc)); err == nil {
				t.Error("Parse() expected error, got nil")
			}
		})
	}
}

func TestParse_Empty(t *testing.T) {
	tree := mustParse(t, "")
	if tree.Len() != 1 {
		t.Errorf("Len() = %d, want 1", tree.Len())
	}
	if len(tree.Root().Children()) != 0 {
		t.Error("empty tree root should have no children")
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "topology.yaml")
	if err := os.WriteFile(path, []byte(boardYAML), 0600); err != nil {
		t.Fatalf("failed to write topology: %v", err)
	}

	tree, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if _, err := tree.ByLabel("fmux_a"); err != nil {
		t.Errorf("ByLabel(fmux_a) error = %v", err)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load() expected error for missing file")
	}
}
