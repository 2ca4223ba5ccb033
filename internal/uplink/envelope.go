// Package uplink defines the JSON envelope that carries the binary
// wire payload between the field device and the ingest server, in the
// manner of a packet-forwarder rxpk message.
package uplink

import (
	"fmt"
	"strings"
	"time"
)

// TopicPrefix is the MQTT topic root for device uplinks. Devices
// publish to TopicPrefix/<device_id>/up.
const TopicPrefix = "fielddev"

// Envelope wraps one transmitted payload. Data is the raw wire bytes;
// encoding/json transports it as base64. DataRate is the profile
// identifier the device transmitted with (e.g. "SF9BW125") — the
// backend records it but the payload layout does not depend on it.
type Envelope struct {
	DeviceID string    `json:"device_id"`
	SentAt   time.Time `json:"sent_at"`
	DataRate string    `json:"datr"`
	Size     int       `json:"size"`
	Data     []byte    `json:"data"`
}

// Topic returns the uplink topic for the envelope's device.
func (e Envelope) Topic() string {
	return fmt.Sprintf("%s/%s/up", TopicPrefix, e.DeviceID)
}

// SubscribeTopic matches uplinks from every device.
func SubscribeTopic() string {
	return TopicPrefix + "/+/up"
}

// DeviceIDFromTopic extracts the device id from an uplink topic.
// Returns an empty string if the topic does not match the uplink shape.
func DeviceIDFromTopic(topic string) string {
	parts := strings.Split(topic, "/")
	if len(parts) != 3 || parts[0] != TopicPrefix || parts[2] != "up" {
		return ""
	}
	return parts[1]
}

// Validate checks required envelope fields before the payload itself
// is decoded.
func (e Envelope) Validate() error {
	if e.DeviceID == "" {
		return fmt.Errorf("device_id is required")
	}
	if e.SentAt.IsZero() {
		return fmt.Errorf("sent_at is required")
	}
	if len(e.Data) == 0 {
		return fmt.Errorf("data is required")
	}
	return nil
}
