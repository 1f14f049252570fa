package wire

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequest(t *testing.T) {
	f, err := NewRequest(7, ActionAuthChallenge, AuthChallenge{Token: "abc"})
	require.NoError(t, err)

	raw, err := json.Marshal(f)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, float64(7), decoded["seq"])
	assert.Equal(t, ActionAuthChallenge, decoded["action"])
	assert.NotContains(t, decoded, "seq_reply")
	assert.NotContains(t, decoded, "event")
}

func TestFrameReplyDetection(t *testing.T) {
	var reply Frame
	require.NoError(t, json.Unmarshal([]byte(`{"status":"OK","seq_reply":1}`), &reply))
	assert.True(t, reply.IsReply())
	assert.True(t, reply.OK())

	var event Frame
	require.NoError(t, json.Unmarshal([]byte(`{"event":"posted","data":{"post":{"id":"p1","user_id":"u1","channel_id":"c1","message":"hi"}},"broadcast":{"channel_id":"c1"}}`), &event))
	assert.False(t, event.IsReply())
	assert.Equal(t, EventPosted, event.Event)

	var data PostedData
	require.NoError(t, json.Unmarshal(event.Data, &data))
	assert.Equal(t, "u1", data.Post.UserID)
	assert.Equal(t, "c1", event.Broadcast.ChannelID)
}

func TestFrameErrorReply(t *testing.T) {
	var reply Frame
	require.NoError(t, json.Unmarshal([]byte(`{"status":"error","seq_reply":2,"error":{"id":"api.auth.invalid_token","message":"invalid token"}}`), &reply))
	assert.True(t, reply.IsReply())
	assert.False(t, reply.OK())
	require.NotNil(t, reply.Error)
	assert.Equal(t, "api.auth.invalid_token", reply.Error.ID)
}
