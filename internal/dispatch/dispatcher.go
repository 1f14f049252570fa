package dispatch

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/driftline/driftline-go/internal/logging"
	"github.com/driftline/driftline-go/internal/wire"
	"github.com/driftline/driftline-go/pkg/types"
)

// Dispatcher classifies inbound frames by event kind and publishes
// them on the bus. identity returns the current user id; posted events
// authored by that identity skip the message topic (self-origin
// filter) so a bot never reacts to its own posts, while the global
// registry still sees them.
type Dispatcher struct {
	bus      *Bus
	identity func() string
}

// NewDispatcher wires a dispatcher to its bus and identity source.
func NewDispatcher(bus *Bus, identity func() string) *Dispatcher {
	return &Dispatcher{bus: bus, identity: identity}
}

// Dispatch routes one inbound event frame. Every frame reaches the
// global registry first; recognized kinds then reach their topic.
func (d *Dispatcher) Dispatch(f *wire.Frame) {
	token := uuid.NewString()

	d.bus.PublishGlobal(types.AnyEvent{
		Kind:          f.Event,
		Data:          f.Data,
		Broadcast:     f.Broadcast,
		CorrelationID: token,
	})

	switch f.Event {
	case wire.EventPosted:
		d.dispatchPosted(f, token)
	case wire.EventStatusChange:
		d.dispatchStatus(f, token)
	default:
		// Unhandled kinds are logged, not dropped: the global
		// registry above already saw them.
		logging.Debug().
			Str("event", f.Event).
			Str("correlation_id", token).
			Msg("no dedicated topic for event kind")
	}
}

func (d *Dispatcher) dispatchPosted(f *wire.Frame, token string) {
	var data wire.PostedData
	if err := json.Unmarshal(f.Data, &data); err != nil {
		logging.Error().Err(err).Str("correlation_id", token).Msg("malformed posted event")
		return
	}

	if self := d.identity(); self != "" && data.Post.UserID == self {
		logging.Debug().
			Str("post_id", data.Post.ID).
			Str("correlation_id", token).
			Msg("suppressing self-authored post")
		return
	}

	d.bus.Publish(TopicMessage, types.MessageEvent{
		Post:          data.Post,
		ChannelName:   data.ChannelName,
		ChannelType:   data.ChannelType,
		SenderName:    data.SenderName,
		CorrelationID: token,
	})
}

func (d *Dispatcher) dispatchStatus(f *wire.Frame, token string) {
	var data wire.StatusData
	if err := json.Unmarshal(f.Data, &data); err != nil {
		logging.Error().Err(err).Str("correlation_id", token).Msg("malformed status_change event")
		return
	}

	d.bus.Publish(TopicStatus, types.StatusEvent{
		UserID:        data.UserID,
		Status:        data.Status,
		CorrelationID: token,
	})
}

// Connected publishes the connected notification.
func (d *Dispatcher) Connected(serverURL string) {
	d.bus.Publish(TopicConnected, types.ConnectedEvent{
		ServerURL: serverURL,
		At:        time.Now(),
	})
}

// Disconnected publishes the disconnected notification with the close
// code and reason.
func (d *Dispatcher) Disconnected(code int, reason string) {
	d.bus.Publish(TopicDisconnected, types.DisconnectedEvent{
		CloseCode: code,
		Reason:    reason,
		At:        time.Now(),
	})
}

// Diag logs a diagnostic and mirrors it to log subscribers.
func (d *Dispatcher) Diag(msg string, err error) {
	if err != nil {
		logging.Error().Err(err).Msg(msg)
	} else {
		logging.Info().Msg(msg)
	}
	d.bus.Publish(TopicLog, types.LogEvent{Message: msg, Err: err})
}
