// Package mqtt publishes task state and system events to MQTT and accepts
// RGB and servo commands, with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"
)

// DefaultPrefix is the topic prefix when none is configured.
const DefaultPrefix = "taskcore"

// Topics holds the topic names under one prefix.
type Topics struct {
	Prefix string
}

// State returns the topic for one kind of state (toggle, counter, climate).
func (t Topics) State(kind string) string { return t.prefix() + "/state/" + kind }

// System is the topic for lifecycle events.
func (t Topics) System() string { return t.prefix() + "/system" }

// CmdRGB is the topic accepting RGB commands.
func (t Topics) CmdRGB() string { return t.prefix() + "/cmd/rgb" }

// CmdServo is the topic accepting servo commands.
func (t Topics) CmdServo() string { return t.prefix() + "/cmd/servo" }

// CmdResult is the topic command results are published on.
func (t Topics) CmdResult() string { return t.prefix() + "/cmd/result" }

func (t Topics) prefix() string {
	if t.Prefix == "" {
		return DefaultPrefix
	}
	return t.Prefix
}

// Publisher publishes state and events to MQTT.
type Publisher interface {
	// PublishState sends the current value of one kind of state.
	// Returns error if publishing fails (should not crash the process).
	PublishState(kind string, value any) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
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

// StatePayload wraps a state value with its kind and time.
type StatePayload struct {
	Kind      string `json:"kind" cbor:"kind"`
	Timestamp string `json:"timestamp" cbor:"timestamp"`
	Value     any    `json:"value" cbor:"value"`
}

// FormatStatePayload encodes a state value with codec.
func FormatStatePayload(codec Codec, kind string, value any, now time.Time) ([]byte, error) {
	return codec.Marshal(StatePayload{
		Kind:      kind,
		Timestamp: now.UTC().Format(time.RFC3339),
		Value:     value,
	})
}
