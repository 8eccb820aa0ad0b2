// Package events publishes an audit trail of console activity to MQTT.
// The console works fully without a broker; publishing failures are
// logged by callers and never gate firing.
package events

import (
	"encoding/json"
	"time"
)

// Topic is the MQTT topic for console activity events.
const Topic = "pyro/console/events"

// TopicSystem is the MQTT topic for process lifecycle events.
const TopicSystem = "pyro/console/system"

// Activity event types.
const (
	TypeFire        = "FIRE"
	TypeReset       = "RESET"
	TypeResetAll    = "RESET_ALL"
	TypeArm         = "ARM"
	TypeDisarm      = "DISARM"
	TypeAuthOK      = "AUTH_OK"
	TypeAuthTimeout = "AUTH_TIMEOUT"
)

// Event is one console activity record.
type Event struct {
	Timestamp time.Time
	Type      string
	// Target names the igniter output for fire/reset events.
	Target string
	// Code is the transmitted igniter code, 0 when not applicable.
	Code uint32
	// Detail carries free-form context (e.g. a rejection reason).
	Detail string
}

// SystemEvent is a process lifecycle record.
type SystemEvent struct {
	Timestamp time.Time
	Event     string // "STARTUP", "SHUTDOWN"
	Reason    string // e.g. "SIGTERM"
	Retained  bool
}

// Publisher publishes console events. Implementations must not block
// firing on broker trouble.
type Publisher interface {
	Publish(Event) error
	PublishSystem(SystemEvent) error
	Close() error
}

// Payload is the wire form of an activity event.
type Payload struct {
	Console ConsolePayload `json:"console"`
}

// ConsolePayload contains the activity details.
type ConsolePayload struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Target    string `json:"target,omitempty"`
	Code      uint32 `json:"code,omitempty"`
	Detail    string `json:"detail,omitempty"`
}

// FormatPayload creates the JSON payload for an activity event.
func FormatPayload(e Event) ([]byte, error) {
	return json.Marshal(Payload{
		Console: ConsolePayload{
			Timestamp: e.Timestamp.UTC().Format(time.RFC3339),
			Event:     e.Type,
			Target:    e.Target,
			Code:      e.Code,
			Detail:    e.Detail,
		},
	})
}

// SystemPayload is the wire form of a lifecycle event.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the lifecycle details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a lifecycle event.
func FormatSystemPayload(e SystemEvent) ([]byte, error) {
	return json.Marshal(SystemPayload{
		System: SystemPayloadInner{
			Timestamp: e.Timestamp.UTC().Format(time.RFC3339),
			Event:     e.Event,
			Reason:    e.Reason,
		},
	})
}

// NopPublisher discards all events. Used when no broker is configured.
type NopPublisher struct{}

// Publish discards the event.
func (NopPublisher) Publish(Event) error { return nil }

// PublishSystem discards the event.
func (NopPublisher) PublishSystem(SystemEvent) error { return nil }

// Close is a no-op.
func (NopPublisher) Close() error { return nil }
