// Package flash provides flash output devices whose strobe can be routed by
// the strobe manager.
//
// A Device wraps a driver (Ops) with timeout and brightness settings and the
// strobe controls:
//
//   - SetStrobe(true) fires a software strobe. On a managed device the
//     software route is configured first.
//   - SetExternalStrobe(true) arms the device for the selected external
//     provider and configures that provider's route.
//   - SelectProvider picks among the providers declared in the topology.
//
// While external strobe is armed, software strobes fail with ErrBusy. When
// the device shares a mux with another device, both calls block for the
// flash timeout; BlockingStrobe reports this in advance.
//
// Settings are clamped to their range and aligned to their step before they
// reach the driver:
//
//	s := flash.Setting{Min: 1000, Max: 800000, Step: 1000}
//	s.ClampAlign(1499) // 1000
//	s.ClampAlign(1500) // 2000
//
// GPIOOps is a driver for flashes whose strobe input hangs off a GPIO line.
package flash
