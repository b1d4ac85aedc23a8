// Package gpiomux implements strobe muxes switched by plain GPIO lines.
//
// A GPIO mux node lists its selector pins by periph name:
//
//	flash-mux-a: &fmux_a
//	  gpios: [GPIO17, GPIO27]
//
// Selecting line n drives selector i high when bit i of n is set and low
// otherwise, so two selectors address lines 0 to 3. Pins are claimed for the
// lifetime of the mux and given back by Release, which the strobe manager
// calls when no device references the mux anymore.
package gpiomux
