// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/pulse-sensor/internal/logic"
)

// Topic is the MQTT topic for frequency reports.
const Topic = "sensors/pulse/frequency"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "sensors/pulse/system"

// ClientID identifies the daemon to the broker.
const ClientID = "pulse-sensor"

// Publisher publishes readings to MQTT.
type Publisher interface {
	// Publish sends one window report to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(r Reading) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// Reading is a window report stamped with the wall-clock time it was taken.
type Reading struct {
	Timestamp time.Time
	Report    logic.Report
}

// SystemEvent represents a system lifecycle event (e.g., startup, heartbeat, shutdown).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "HEARTBEAT", "SHUTDOWN", "OFFLINE"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	Pulse PulsePayload `json:"pulse"`
}

// PulsePayload contains the window report details.
type PulsePayload struct {
	Timestamp   string  `json:"timestamp"`
	Window      uint32  `json:"window"`
	Count       uint32  `json:"count"`
	FrequencyHz float64 `json:"frequency_hz"`
}

// FormatPayload creates the JSON payload for a reading.
func FormatPayload(r Reading) ([]byte, error) {
	payload := Payload{
		Pulse: PulsePayload{
			Timestamp:   r.Timestamp.UTC().Format(time.RFC3339),
			Window:      r.Report.Window,
			Count:       r.Report.Count,
			FrequencyHz: r.Report.Hertz(),
		},
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (the OFFLINE will) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}

// WillEvent is the retained event the broker publishes if the daemon drops
// off without a clean shutdown.
func WillEvent(at time.Time) SystemEvent {
	return SystemEvent{
		Timestamp: at,
		Event:     "OFFLINE",
		Reason:    "MQTT_DISCONNECT",
		Retained:  true,
	}
}
