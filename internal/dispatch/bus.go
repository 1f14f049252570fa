// Package dispatch classifies inbound stream frames and fans them out
// to subscriber registries using watermill for pub/sub infrastructure.
package dispatch

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/driftline/driftline-go/internal/logging"
)

// Topic identifies a subscriber registry.
type Topic string

const (
	TopicConnected    Topic = "connected"
	TopicDisconnected Topic = "disconnected"
	TopicMessage      Topic = "message"
	TopicStatus       Topic = "status"
	TopicLog          Topic = "log"
)

// Handler receives a published payload. Handlers run synchronously on
// the publishing goroutine, in wire order; a panic inside a handler is
// recovered and logged, never propagated to the receive loop.
type Handler func(payload any)

type handlerEntry struct {
	id uint64
	fn Handler
}

// Bus manages per-topic subscriber registries plus a global registry
// that observes every inbound stream event. A watermill gochannel
// mirrors published payloads as JSON messages for consumers that want
// channel-based delivery (see Stream).
type Bus struct {
	mu sync.RWMutex

	pubsub *gochannel.GoChannel

	subscribers map[Topic][]handlerEntry
	global      []handlerEntry

	nextID uint64
	closed bool
}

// NewBus creates an event bus. Each client owns exactly one; there is
// no package-level instance.
func NewBus() *Bus {
	return &Bus{
		pubsub: gochannel.NewGoChannel(
			gochannel.Config{
				OutputChannelBuffer: 100,
				Persistent:          false,
			},
			watermill.NopLogger{},
		),
		subscribers: make(map[Topic][]handlerEntry),
	}
}

func (b *Bus) newID() uint64 {
	b.nextID++
	return b.nextID
}

// Subscribe registers a handler for a topic and returns an unsubscribe
// function.
func (b *Bus) Subscribe(topic Topic, fn Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return func() {}
	}

	id := b.newID()
	b.subscribers[topic] = append(b.subscribers[topic], handlerEntry{id: id, fn: fn})

	return func() {
		b.unsubscribe(topic, id)
	}
}

// SubscribeAll registers a handler for every inbound stream event,
// including kinds without a dedicated topic and events suppressed by
// the self-origin filter. Returns an unsubscribe function.
func (b *Bus) SubscribeAll(fn Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return func() {}
	}

	id := b.newID()
	b.global = append(b.global, handlerEntry{id: id, fn: fn})

	return func() {
		b.unsubscribeGlobal(id)
	}
}

func (b *Bus) unsubscribe(topic Topic, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subscribers[topic]
	for i, entry := range subs {
		if entry.id == id {
			b.subscribers[topic] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
}

func (b *Bus) unsubscribeGlobal(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, entry := range b.global {
		if entry.id == id {
			b.global = append(b.global[:i], b.global[i+1:]...)
			break
		}
	}
}

// Publish delivers payload to the topic's registry synchronously and
// mirrors it onto the watermill channel for Stream consumers.
func (b *Bus) Publish(topic Topic, payload any) {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return
	}
	subs := make([]Handler, 0, len(b.subscribers[topic]))
	for _, entry := range b.subscribers[topic] {
		subs = append(subs, entry.fn)
	}
	b.mu.RUnlock()

	for _, fn := range subs {
		b.invoke(topic, fn, payload)
	}
	b.mirror(topic, payload)
}

// PublishGlobal delivers payload to the global registry synchronously.
func (b *Bus) PublishGlobal(payload any) {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return
	}
	subs := make([]Handler, 0, len(b.global))
	for _, entry := range b.global {
		subs = append(subs, entry.fn)
	}
	b.mu.RUnlock()

	for _, fn := range subs {
		b.invoke("*", fn, payload)
	}
}

// invoke runs one handler with panic isolation. A faulting subscriber
// must never take down the receive loop.
func (b *Bus) invoke(topic Topic, fn Handler, payload any) {
	defer func() {
		if r := recover(); r != nil {
			logging.Error().
				Str("topic", string(topic)).
				Any("panic", r).
				Msg("subscriber panicked")
		}
	}()
	fn(payload)
}

// mirror publishes the payload as a JSON watermill message. Best
// effort: payloads that do not marshal are skipped.
func (b *Bus) mirror(topic Topic, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return
	}
	_ = b.pubsub.Publish(string(topic), message.NewMessage(watermill.NewUUID(), raw))
}

// Stream returns a watermill channel of JSON-encoded payloads for the
// topic. The channel closes when ctx is cancelled or the bus closes.
func (b *Bus) Stream(ctx context.Context, topic Topic) (<-chan *message.Message, error) {
	return b.pubsub.Subscribe(ctx, string(topic))
}

// Close drops all registries and shuts down the watermill channel.
// Publishing on a closed bus is a no-op.
func (b *Bus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.subscribers = make(map[Topic][]handlerEntry)
	b.global = nil
	b.mu.Unlock()

	return b.pubsub.Close()
}
