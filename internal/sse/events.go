// Package sse broadcasts store change events to connected surfaces over
// server-sent events. Surfaces connect with an optional origin id; events
// attributed to that origin are not echoed back to it.
package sse

import (
	"time"

	"github.com/echotab/echotab-server/internal/store"
)

// EventType discriminates stream events.
type EventType string

// Stream event types.
const (
	EventConnected    EventType = "connected"
	EventHeartbeat    EventType = "heartbeat"
	EventStoreChanged EventType = "store.changed"
)

// Event is one server-sent event.
type Event struct {
	Type      EventType `json:"type"`
	Store     string    `json:"store,omitempty"`
	Action    string    `json:"action,omitempty"`
	Data      any       `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`

	// Origin identifies the surface that caused the change. Broadcast
	// skips the matching client; empty means deliver to everyone.
	Origin string `json:"-"`
}

// NewHeartbeatEvent creates a keepalive event.
func NewHeartbeatEvent() Event {
	return Event{Type: EventHeartbeat, Timestamp: time.Now()}
}

// NewConnectedEvent creates the handshake event sent to a fresh client.
func NewConnectedEvent(clientID string) Event {
	return Event{Type: EventConnected, Data: map[string]string{"clientId": clientID}, Timestamp: time.Now()}
}

// NewStoreChangedEvent wraps a store change for the stream.
func NewStoreChangedEvent(change store.ChangeEvent) Event {
	return Event{
		Type:      EventStoreChanged,
		Store:     change.Store,
		Action:    change.Action,
		Data:      change.Data,
		Timestamp: time.Now(),
	}
}
