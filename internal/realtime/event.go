// Package realtime fans out change notifications to connected viewers.
package realtime

import (
	"encoding/json"
	"time"
)

// EventType identifies what changed.
type EventType string

const (
	TypeSlotsChanged    EventType = "slots.changed"
	TypeBookingsChanged EventType = "bookings.changed"
	TypeFeedbackChanged EventType = "feedback.changed"
)

// Event is the envelope pushed to clients. Payloads are hints; clients re-fetch.
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload,omitempty"`
}

// NewEvent creates an event stamped with the current time.
func NewEvent(t EventType, payload any) Event {
	return Event{Type: t, Timestamp: time.Now().UTC(), Payload: payload}
}

// JSON serializes the event.
func (e Event) JSON() ([]byte, error) {
	return json.Marshal(e)
}

// ChangePayload names the record that changed.
type ChangePayload struct {
	ID     string `json:"id"`
	Action string `json:"action"`
}

// Publisher accepts events after the write that caused them has committed.
type Publisher interface {
	Publish(Event)
}

// Discard is a Publisher that drops every event.
var Discard Publisher = discard{}

type discard struct{}

func (discard) Publish(Event) {}
