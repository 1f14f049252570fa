// Package wire defines the JSON envelope exchanged over the Driftline
// event stream. Every frame is a UTF-8 text message carrying either a
// server-pushed event, a client request tagged with a sequence number,
// or the reply to such a request.
package wire

import (
	"encoding/json"

	"github.com/driftline/driftline-go/pkg/types"
)

// Event kinds pushed by the server.
const (
	EventHello          = "hello"
	EventPosted         = "posted"
	EventPostEdited     = "post_edited"
	EventPostDeleted    = "post_deleted"
	EventStatusChange   = "status_change"
	EventTyping         = "typing"
	EventChannelCreated = "channel_created"
	EventUserUpdated    = "user_updated"
)

// Request actions sent by the client.
const (
	ActionAuthChallenge = "authentication_challenge"
	ActionGetStatuses   = "get_statuses"
)

// StatusOK is the status value of a successful reply frame.
const StatusOK = "OK"

// Frame is the stream envelope. Server events carry Event, Data and
// Broadcast; client requests carry Seq, Action and Data; replies carry
// SeqReply, Status and optionally Data or Error.
type Frame struct {
	Event     string           `json:"event,omitempty"`
	Action    string           `json:"action,omitempty"`
	Seq       int64            `json:"seq,omitempty"`
	SeqReply  int64            `json:"seq_reply,omitempty"`
	Status    string           `json:"status,omitempty"`
	Data      json.RawMessage  `json:"data,omitempty"`
	Broadcast *types.Broadcast `json:"broadcast,omitempty"`
	Error     *FrameError      `json:"error,omitempty"`
}

// FrameError is the error body of a failed reply.
type FrameError struct {
	ID      string `json:"id,omitempty"`
	Message string `json:"message,omitempty"`
}

// IsReply reports whether the frame answers a correlated request.
func (f *Frame) IsReply() bool {
	return f.SeqReply > 0
}

// OK reports whether a reply frame carries a success status.
func (f *Frame) OK() bool {
	return f.Status == StatusOK
}

// AuthChallenge is the data body of an authentication_challenge
// request.
type AuthChallenge struct {
	Token string `json:"token"`
}

// PostedData is the data body of a posted event.
type PostedData struct {
	Post               types.Post `json:"post"`
	ChannelName        string     `json:"channel_name,omitempty"`
	ChannelDisplayName string     `json:"channel_display_name,omitempty"`
	ChannelType        string     `json:"channel_type,omitempty"`
	SenderName         string     `json:"sender_name,omitempty"`
}

// StatusData is the data body of a status_change event.
type StatusData struct {
	UserID string `json:"user_id"`
	Status string `json:"status"`
}

// NewRequest builds a request frame with the given sequence number and
// marshalled data body.
func NewRequest(seq int64, action string, data any) (*Frame, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return &Frame{Seq: seq, Action: action, Data: raw}, nil
}
