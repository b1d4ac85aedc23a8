// Package mqtt connects flashmuxd to its MQTT broker.
//
// The bus carries three kinds of traffic:
//
//	async mux drivers ──attach/detach──▶ flashmuxd ──select──▶ async mux drivers
//	controllers       ──command───────▶ flashmuxd ──ack─────▶ controllers
//	                                    flashmuxd ──strobe event / status──▶ observers
//
// # Topics
//
//	flashmux/system/status         retained online/offline (LWT on crash)
//	flashmux/mux/attach            {"mux":"/isp-mux","owner":"isp0"}
//	flashmux/mux/detach            {"mux":"/isp-mux","owner":"isp0"}
//	flashmux/mux/select/{owner}    {"request_id":"...","mux":"/isp-mux","line":1}
//	flashmux/command/{device}      {"action":"strobe","value":1}
//	flashmux/ack/{device}          {"ok":true}
//	flashmux/event/strobe/{device} strobe outcome
//
// Mux identifiers are topology paths, so they live in payloads.
//
// # Reconnection
//
// paho reconnects with backoff between mqtt.reconnect.initial_delay and
// mqtt.reconnect.max_delay seconds. Subscriptions made through Subscribe are
// replayed on every reconnect and the online status is republished.
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Subscribe(mqtt.Topics{}.AllDeviceCommands(), 1,
//	    func(topic string, payload []byte) error {
//	        return handle(mqtt.LastLevel(topic), payload)
//	    })
package mqtt
