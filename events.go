package driftline

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/driftline/driftline-go/internal/dispatch"
	"github.com/driftline/driftline-go/pkg/types"
)

// OnConnected registers a handler invoked after the stream handshake
// succeeds. Returns an unsubscribe function.
func (c *Client) OnConnected(fn func(types.ConnectedEvent)) func() {
	return c.bus.Subscribe(dispatch.TopicConnected, func(p any) {
		fn(p.(types.ConnectedEvent))
	})
}

// OnDisconnected registers a handler for stream close and stop
// notifications.
func (c *Client) OnDisconnected(fn func(types.DisconnectedEvent)) func() {
	return c.bus.Subscribe(dispatch.TopicDisconnected, func(p any) {
		fn(p.(types.DisconnectedEvent))
	})
}

// OnMessage registers a handler for posted events. Posts authored by
// the client's own identity are filtered out; use OnAnyEvent to
// observe those too.
func (c *Client) OnMessage(fn func(types.MessageEvent)) func() {
	return c.bus.Subscribe(dispatch.TopicMessage, func(p any) {
		fn(p.(types.MessageEvent))
	})
}

// OnStatusChange registers a handler for presence changes.
func (c *Client) OnStatusChange(fn func(types.StatusEvent)) func() {
	return c.bus.Subscribe(dispatch.TopicStatus, func(p any) {
		fn(p.(types.StatusEvent))
	})
}

// OnAnyEvent registers a handler for every inbound stream event,
// regardless of kind and before any filtering.
func (c *Client) OnAnyEvent(fn func(types.AnyEvent)) func() {
	return c.bus.SubscribeAll(func(p any) {
		fn(p.(types.AnyEvent))
	})
}

// OnLog registers a handler for diagnostics raised by the connection
// machinery, such as reconnect attempts.
func (c *Client) OnLog(fn func(types.LogEvent)) func() {
	return c.bus.Subscribe(dispatch.TopicLog, func(p any) {
		fn(p.(types.LogEvent))
	})
}

// Notification topics for RawEvents.
const (
	TopicConnected    = string(dispatch.TopicConnected)
	TopicDisconnected = string(dispatch.TopicDisconnected)
	TopicMessage      = string(dispatch.TopicMessage)
	TopicStatus       = string(dispatch.TopicStatus)
	TopicLog          = string(dispatch.TopicLog)
)

// RawEvents returns a watermill channel of JSON-encoded notifications
// for a topic, for consumers that prefer channel-based delivery over
// callbacks. The channel closes when ctx is cancelled or the client is
// disposed.
func (c *Client) RawEvents(ctx context.Context, topic string) (<-chan *message.Message, error) {
	return c.bus.Stream(ctx, dispatch.Topic(topic))
}
