package ws

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMessage_WithPayload(t *testing.T) {
	msg, err := NewMessage(TypeChat, ChatPayload{MsgType: RoomMessage, Tab: "Jam", Msg: "hi"})
	require.NoError(t, err)
	assert.Equal(t, TypeChat, msg.Type)

	var payload ChatPayload
	require.NoError(t, json.Unmarshal(msg.Payload, &payload))
	assert.Equal(t, "hi", payload.Msg)
}

func TestNewMessage_NilPayload(t *testing.T) {
	msg, err := NewMessage(TypePing, nil)
	require.NoError(t, err)

	data, err := json.Marshal(msg)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"ping"}`, string(data), "payload and id are omitted when unset")
}

func TestMessage_Roundtrip(t *testing.T) {
	raw := []byte(`{"type":"login","payload":{"user":"alice","pass":"secret"},"id":3}`)

	var msg Message
	require.NoError(t, json.Unmarshal(raw, &msg))
	assert.Equal(t, TypeLogin, msg.Type)
	assert.Equal(t, int64(3), msg.ID)
	assert.JSONEq(t, `{"user":"alice","pass":"secret"}`, string(msg.Payload))
}
