package dispatch

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftline/driftline-go/internal/wire"
	"github.com/driftline/driftline-go/pkg/types"
)

func postedFrame(t *testing.T, userID, message string) *wire.Frame {
	t.Helper()
	data, err := json.Marshal(wire.PostedData{
		Post:        types.Post{ID: "p1", UserID: userID, ChannelID: "c1", Message: message},
		ChannelName: "town-square",
		SenderName:  "someone",
	})
	require.NoError(t, err)
	return &wire.Frame{Event: wire.EventPosted, Data: data}
}

func TestDispatchPostedReachesMessageAndGlobal(t *testing.T) {
	bus := NewBus()
	defer bus.Close()
	d := NewDispatcher(bus, func() string { return "me" })

	var messages []types.MessageEvent
	var anys []types.AnyEvent
	bus.Subscribe(TopicMessage, func(p any) {
		messages = append(messages, p.(types.MessageEvent))
	})
	bus.SubscribeAll(func(p any) {
		anys = append(anys, p.(types.AnyEvent))
	})

	d.Dispatch(postedFrame(t, "U1", "hello"))

	require.Len(t, messages, 1)
	assert.Equal(t, "hello", messages[0].Post.Message)
	assert.Equal(t, "town-square", messages[0].ChannelName)
	require.Len(t, anys, 1)
	assert.Equal(t, wire.EventPosted, anys[0].Kind)
	assert.Equal(t, anys[0].CorrelationID, messages[0].CorrelationID,
		"one delivery shares one correlation id")
}

func TestDispatchSelfOriginFilter(t *testing.T) {
	bus := NewBus()
	defer bus.Close()
	d := NewDispatcher(bus, func() string { return "U1" })

	var messages, anys int
	bus.Subscribe(TopicMessage, func(any) { messages++ })
	bus.SubscribeAll(func(any) { anys++ })

	d.Dispatch(postedFrame(t, "U1", "my own post"))

	assert.Equal(t, 0, messages, "self-authored post must not reach message subscribers")
	assert.Equal(t, 1, anys, "self-authored post still reaches global subscribers")
}

func TestDispatchSelfOriginFilterDisabledWithoutIdentity(t *testing.T) {
	bus := NewBus()
	defer bus.Close()
	d := NewDispatcher(bus, func() string { return "" })

	var messages int
	bus.Subscribe(TopicMessage, func(any) { messages++ })

	d.Dispatch(postedFrame(t, "U1", "hi"))
	assert.Equal(t, 1, messages)
}

func TestDispatchStatusChange(t *testing.T) {
	bus := NewBus()
	defer bus.Close()
	d := NewDispatcher(bus, func() string { return "me" })

	var got types.StatusEvent
	bus.Subscribe(TopicStatus, func(p any) { got = p.(types.StatusEvent) })

	data, _ := json.Marshal(wire.StatusData{UserID: "U2", Status: types.StatusAway})
	d.Dispatch(&wire.Frame{Event: wire.EventStatusChange, Data: data})

	assert.Equal(t, "U2", got.UserID)
	assert.Equal(t, types.StatusAway, got.Status)
}

func TestDispatchUnknownKindStillReachesGlobal(t *testing.T) {
	bus := NewBus()
	defer bus.Close()
	d := NewDispatcher(bus, func() string { return "me" })

	var anys []types.AnyEvent
	bus.SubscribeAll(func(p any) { anys = append(anys, p.(types.AnyEvent)) })

	d.Dispatch(&wire.Frame{Event: "reaction_added", Data: json.RawMessage(`{"x":1}`)})

	require.Len(t, anys, 1)
	assert.Equal(t, "reaction_added", anys[0].Kind)
}

func TestDispatchMalformedPostedOnlyGlobal(t *testing.T) {
	bus := NewBus()
	defer bus.Close()
	d := NewDispatcher(bus, func() string { return "me" })

	var messages, anys int
	bus.Subscribe(TopicMessage, func(any) { messages++ })
	bus.SubscribeAll(func(any) { anys++ })

	d.Dispatch(&wire.Frame{Event: wire.EventPosted, Data: json.RawMessage(`{"post": 42}`)})

	assert.Equal(t, 0, messages)
	assert.Equal(t, 1, anys)
}

func TestLifecycleNotifications(t *testing.T) {
	bus := NewBus()
	defer bus.Close()
	d := NewDispatcher(bus, func() string { return "" })

	var connected []types.ConnectedEvent
	var disconnected []types.DisconnectedEvent
	var logs []types.LogEvent
	bus.Subscribe(TopicConnected, func(p any) { connected = append(connected, p.(types.ConnectedEvent)) })
	bus.Subscribe(TopicDisconnected, func(p any) { disconnected = append(disconnected, p.(types.DisconnectedEvent)) })
	bus.Subscribe(TopicLog, func(p any) { logs = append(logs, p.(types.LogEvent)) })

	d.Connected("https://chat.example.com")
	d.Disconnected(1000, "normal closure")
	d.Diag("retrying", nil)

	require.Len(t, connected, 1)
	assert.Equal(t, "https://chat.example.com", connected[0].ServerURL)
	require.Len(t, disconnected, 1)
	assert.Equal(t, 1000, disconnected[0].CloseCode)
	require.Len(t, logs, 1)
	assert.Equal(t, "retrying", logs[0].Message)
}
