package types

import (
	"encoding/json"
	"time"
)

// ConnectedEvent is raised after the stream handshake succeeds.
type ConnectedEvent struct {
	ServerURL string
	At        time.Time
}

// DisconnectedEvent is raised when the stream ends, either because the
// server sent a close frame (CloseCode carries its code) or because the
// client was stopped.
type DisconnectedEvent struct {
	CloseCode int
	Reason    string
	At        time.Time
}

// MessageEvent is raised for every posted event not authored by the
// client's own identity. CorrelationID is a fresh identifier minted per
// delivery so handlers can tie log lines to a single event.
type MessageEvent struct {
	Post          Post
	ChannelName   string
	ChannelType   string
	SenderName    string
	CorrelationID string
}

// StatusEvent is raised when a user's presence changes.
type StatusEvent struct {
	UserID        string
	Status        string
	CorrelationID string
}

// AnyEvent is raised for every inbound stream event, including those
// that also produce a more specific event and those suppressed by the
// self-origin filter.
type AnyEvent struct {
	Kind          string
	Data          json.RawMessage
	Broadcast     *Broadcast
	CorrelationID string
}

// LogEvent is a diagnostic raised by the connection machinery. Err is
// nil for informational entries.
type LogEvent struct {
	Message string
	Err     error
}
