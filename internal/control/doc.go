// Package control exposes flash devices on the MQTT bus.
//
//	flashmux/command/front  {"id":"c1","action":"timeout","value":150000}
//	flashmux/ack/front      {"command_id":"c1","device":"front","action":"timeout","ok":true,"value":150000,...}
//
// Actions:
//
//	strobe      1 fires a software strobe through the routed muxes, 0 stops it
//	external    1 arms external strobe on the selected provider, 0 disarms
//	timeout     flash timeout in microseconds; the ack carries the clamped value
//	brightness  flash current in microamperes; the ack carries the clamped value
//	provider    selects the external strobe provider by index
//	history     returns up to value recent strobes (default 50, max 200)
//
// Every command is acknowledged, including ones that fail to decode or name
// an unknown device; failures carry ok=false and the error text.
package control
