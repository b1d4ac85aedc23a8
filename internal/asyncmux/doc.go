// Package asyncmux connects strobe muxes whose drivers run elsewhere on the
// MQTT bus (an ISP, a sensor board) to the strobe manager.
//
// # Lifecycle
//
//	driver                       flashmuxd
//	  │ flashmux/mux/attach ──────▶ Bridge.HandleAttach
//	  │                              └─ Manager.BindAsyncMux(mux, RemoteMux, Lease)
//	  │                                   Waiting ──▶ Bound, one Lease pin per device
//	  │ ◀────── flashmux/mux/select/{owner}   RemoteMux.SelectLine during SetupStrobe
//	  │ flashmux/mux/detach ──────▶ Bridge.HandleDetach
//	  │                              ├─ pinned && !force: refused (ErrPinned)
//	  │                              └─ Manager.UnbindAsyncMux, Lease.Retire
//	  │                                   Bound ──▶ Waiting, references kept
//
// A mux that is attached before any flash device references it is created
// Bound; flash devices registered later pin it as they reference it.
//
// The Lease plays the role of the driver's module reference: Get fails
// once the driver retired, and Retire fails while pins are held.
package asyncmux
