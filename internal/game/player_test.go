package game

import (
	"encoding/json"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvoid/ettmulti-server/internal/ws"
)

func newTestPlayer(user string) *Player {
	conn := ws.NewClient(user+"-conn", ws.NewHub(), nil)
	p := NewPlayer(conn)
	p.User = user
	return p
}

func readSent(t *testing.T, p *Player) ws.Message {
	t.Helper()
	select {
	case data := <-p.Conn.Send:
		var msg ws.Message
		require.NoError(t, json.Unmarshal(data, &msg))
		return msg
	default:
		t.Fatal("no message queued")
		return ws.Message{}
	}
}

func TestLoggedIn(t *testing.T) {
	p := NewPlayer(ws.NewClient("anon", ws.NewHub(), nil))
	assert.False(t, p.LoggedIn())

	p.User = "alice"
	assert.True(t, p.LoggedIn())
}

func TestToggleReady(t *testing.T) {
	p := newTestPlayer("alice")
	assert.True(t, p.ToggleReady())
	assert.True(t, p.ReadyState)
	assert.False(t, p.ToggleReady())
	assert.False(t, p.ReadyState)
}

func TestState_Marshal(t *testing.T) {
	data, err := json.Marshal(StateEval)
	require.NoError(t, err)
	assert.Equal(t, "2", string(data))

	assert.Equal(t, "playing", StatePlaying.String())
	assert.Equal(t, "ready", StateReady.String())
}

var adjacentColors = regexp.MustCompile(`\|c[0-9A-Fa-f]{7}\|c`)

func TestSendChat_CollapsesColorRuns(t *testing.T) {
	p := newTestPlayer("alice")
	p.SendChat(ws.RoomMessage, SystemPrepend+"hello", "Jam")

	msg := readSent(t, p)
	require.Equal(t, ws.TypeChat, msg.Type)

	var payload ws.ChatPayload
	require.NoError(t, json.Unmarshal(msg.Payload, &payload))
	assert.Equal(t, ws.RoomMessage, payload.MsgType)
	assert.Equal(t, "Jam", payload.Tab)
	assert.Contains(t, payload.Msg, "System:")
	assert.Contains(t, payload.Msg, "hello")
	assert.NotRegexp(t, adjacentColors, payload.Msg)
}

func TestSendRoomList(t *testing.T) {
	p := newTestPlayer("alice")
	p.SendRoomList([]string{})

	msg := readSent(t, p)
	assert.Equal(t, ws.TypeRoomList, msg.Type)
}
