// Package strobe routes the strobe trigger of flash outputs through chains
// of signal multiplexers.
//
// A flash device declares, in its topology node, one software strobe route
// and any number of external strobe providers. Each route is a list of
// gates; a gate selects one line on one mux. The Manager keeps every mux the
// routes name, tracks which devices reference it, and configures the route
// before each strobe.
//
// # Architecture
//
//	┌──────────────────────────────────────────────────────────────────────┐
//	│                              Manager                                  │
//	│                                                                       │
//	│  ┌─────────────────┐   ┌─────────────────┐   ┌─────────────────┐      │
//	│  │   ParseRoutes   │   │  Mux registry   │   │     Router      │      │
//	│  │   (route.go)    │──▶│ (registry.go,   │◀──│   (router.go)   │      │
//	│  │                 │   │  refs.go)       │   │                 │      │
//	│  │ • gate chains   │   │ • Waiting/Bound │   │ • select lines  │      │
//	│  │ • providers     │   │ • ref counting  │   │ • software fire │      │
//	│  └─────────────────┘   │ • owner pins    │   │ • shared window │      │
//	│                        └─────────────────┘   └─────────────────┘      │
//	└───────────────────────────────▲───────────────────────────────────────┘
//	                                │
//	               ┌────────────────┴────────────────┐
//	               │                                 │
//	     ┌──────────────────┐             ┌──────────────────────┐
//	     │ LocalMuxFactory  │             │ BindAsyncMux /       │
//	     │ (GPIO muxes)     │             │ UnbindAsyncMux       │
//	     └──────────────────┘             │ (dynamic drivers)    │
//	                                      └──────────────────────┘
//
// # Mux lifecycle
//
// A mux is created the first time a route references it or the first time a
// driver binds it, whichever happens first. Muxes whose node carries a
// mux-async reference start Waiting and become Bound when their driver calls
// BindAsyncMux; UnbindAsyncMux moves them back to Waiting without touching
// their references. Every other mux is a local mux, built by the
// LocalMuxFactory and Bound at once. A local mux is released when its last
// reference goes away; async muxes persist so a later device or driver can
// pick them up again.
//
// # Sharing
//
// Data.NumShared counts the muxes a device shares with at least one other
// device. When it is non-zero, SetupStrobe holds the manager lock for the
// whole flash timeout so no other device can switch a shared mux mid-strobe.
//
// # Usage
//
//	mgr := strobe.NewManager(gpiomux.NewFactory())
//	mgr.SetLogger(log)
//
//	node, err := tree.Lookup("/flash-led@0")
//	if err != nil {
//	    return err
//	}
//	if err := mgr.RegisterDevice(dev, node); err != nil {
//	    return err
//	}
//	defer mgr.UnregisterDevice(dev)
//
//	// From the async mux driver:
//	mgr.BindAsyncMux("/isp-mux", ops, lease)
//
//	// From the flash device, with its own lock held:
//	err := mgr.SetupStrobe(dev, false)
//
// # Thread Safety
//
// All Manager methods are safe for concurrent use. They are serialized by a
// single mutex; there is no per-mux locking.
package strobe
