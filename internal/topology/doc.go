// Package topology loads the declarative strobe-signal topology of a board.
//
// A topology is a tree of named nodes described in YAML. Mapping values
// become child nodes; scalars and sequences become properties. Nodes refer
// to each other with YAML anchors and aliases, which gives every reference
// a stable target and lets the YAML parser reject dangling ones.
//
// # Example
//
//	flash-mux-a: &fmux_a
//	  gpios: [FLASH_SEL0, FLASH_SEL1]
//
//	isp: &isp
//	  compatible: "samsung,exynos4-fimc-is"
//
//	flash-led@0:
//	  gate-software-strobe:
//	    mux: *fmux_a
//	    mux-line-id: 1
//	  gate-external-strobe0:
//	    strobe-provider: *isp
//	    mux: *fmux_a
//	    mux-line-id: 2
//
// Anchors must be declared before they are used, as YAML requires.
//
// # Identity
//
// Each node has a path ("/flash-mux-a", "/flash-led@0/gate-software-strobe")
// that is unique within its tree. The strobe manager uses node paths as mux
// identities.
//
// # Availability
//
// A node with `status: disabled` is skipped by Children, matching the
// device tree convention for unavailable hardware.
package topology
