package mqtt

import (
	"fmt"
	"strings"
)

// Topic prefixes of the flashmux bus.
//
// Mux identifiers are topology paths and contain slashes, so they travel in
// payloads rather than in topic levels. Device names and owner names are
// single topic levels.
const (
	// TopicPrefix is the root of every flashmux topic.
	TopicPrefix = "flashmux"

	// TopicPrefixSystem is the base for daemon status topics.
	TopicPrefixSystem = "flashmux/system"

	// TopicPrefixMux is the base for async mux lifecycle and select topics.
	TopicPrefixMux = "flashmux/mux"
)

// Topics provides builders for flashmux MQTT topics.
//
//	topics := mqtt.Topics{}
//	cmd := topics.DeviceCommand("front")
//	// Returns: "flashmux/command/front"
type Topics struct{}

// SystemStatus returns the retained daemon status topic, also used for the LWT.
//
// Example: flashmux/system/status
func (Topics) SystemStatus() string {
	return TopicPrefixSystem + "/status"
}

// MuxAttach returns the topic async mux drivers publish on when they probe.
//
// Example: flashmux/mux/attach
func (Topics) MuxAttach() string {
	return TopicPrefixMux + "/attach"
}

// MuxDetach returns the topic async mux drivers publish on when they go away.
//
// Example: flashmux/mux/detach
func (Topics) MuxDetach() string {
	return TopicPrefixMux + "/detach"
}

// MuxSelect returns the topic the daemon publishes line selections on for
// the async mux driver named owner.
//
// Example: flashmux/mux/select/isp0
func (Topics) MuxSelect(owner string) string {
	return fmt.Sprintf("%s/select/%s", TopicPrefixMux, owner)
}

// DeviceCommand returns the command topic of a flash device.
//
// Example: flashmux/command/front
func (Topics) DeviceCommand(device string) string {
	return fmt.Sprintf("%s/command/%s", TopicPrefix, device)
}

// DeviceAck returns the topic command results for a flash device go to.
//
// Example: flashmux/ack/front
func (Topics) DeviceAck(device string) string {
	return fmt.Sprintf("%s/ack/%s", TopicPrefix, device)
}

// StrobeEvent returns the topic strobe outcomes for a flash device go to.
//
// Example: flashmux/event/strobe/front
func (Topics) StrobeEvent(device string) string {
	return fmt.Sprintf("%s/event/strobe/%s", TopicPrefix, device)
}

// AllDeviceCommands matches the command topic of every device.
//
// Pattern: flashmux/command/+
func (Topics) AllDeviceCommands() string {
	return TopicPrefix + "/command/+"
}

// AllStrobeEvents matches the strobe event topic of every device.
//
// Pattern: flashmux/event/strobe/+
func (Topics) AllStrobeEvents() string {
	return TopicPrefix + "/event/strobe/+"
}

// AllTopics matches all flashmux traffic.
//
// Pattern: flashmux/#
func (Topics) AllTopics() string {
	return TopicPrefix + "/#"
}

// LastLevel returns the final level of a topic, e.g. the device name of a
// command topic matched through a wildcard.
func LastLevel(topic string) string {
	if i := strings.LastIndexByte(topic, '/'); i >= 0 {
		return topic[i+1:]
	}
	return topic
}
