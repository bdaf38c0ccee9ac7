package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvoid/ettmulti-server/internal/game"
	"github.com/nvoid/ettmulti-server/internal/ws"
)

func chatMsg(t *testing.T, msgType int, tab, text string) ws.Message {
	t.Helper()
	msg, err := ws.NewMessage(ws.TypeChat, ws.ChatPayload{MsgType: msgType, Tab: tab, Msg: text})
	require.NoError(t, err)
	return msg
}

func TestHandleChat_Lobby(t *testing.T) {
	f := newFixture(t)
	alice := f.connect(t, "conn-a")
	f.mustLogin(t, alice, "alice", "password1")
	bob := f.connect(t, "conn-b")
	f.mustLogin(t, bob, "bob", "password2")
	drainClient(t, alice.Conn)

	f.router.chat.HandleChat(alice, chatMsg(t, ws.LobbyMessage, "", "hello lobby"))

	for _, p := range []*game.Player{alice, bob} {
		msgs := drainClient(t, p.Conn)
		assertChatLine(t, msgs, "hello lobby")
		assertChatLine(t, msgs, "alice")
	}
}

func TestHandleChat_Sanitizes(t *testing.T) {
	f := newFixture(t)
	alice := f.connect(t, "conn-a")
	f.mustLogin(t, alice, "alice", "password1")

	f.router.chat.HandleChat(alice, chatMsg(t, ws.LobbyMessage, "", "he::llo\nthere"))

	assertChatLine(t, drainClient(t, alice.Conn), "hellothere")
}

func TestHandleChat_EmptyAfterSanitizeDropped(t *testing.T) {
	f := newFixture(t)
	alice := f.connect(t, "conn-a")
	f.mustLogin(t, alice, "alice", "password1")

	f.router.chat.HandleChat(alice, chatMsg(t, ws.LobbyMessage, "", "::"))

	for _, m := range drainClient(t, alice.Conn) {
		assert.NotEqual(t, ws.TypeChat, m.Type)
	}
}

func TestHandleChat_CommandsNeverLeak(t *testing.T) {
	f := newFixture(t)
	alice := f.connect(t, "conn-a")
	f.mustLogin(t, alice, "alice", "password1")
	bob := f.connect(t, "conn-b")
	f.mustLogin(t, bob, "bob", "password2")
	drainClient(t, alice.Conn)

	f.router.chat.HandleChat(alice, chatMsg(t, ws.LobbyMessage, "", "/definitelynotacommand hi"))

	for _, m := range drainClient(t, bob.Conn) {
		assert.NotEqual(t, ws.TypeChat, m.Type, "an unmatched command must be swallowed")
	}
}

func TestHandleChat_RoomRequiresMembership(t *testing.T) {
	f := newFixture(t)
	alice := f.connect(t, "conn-a")
	f.mustLogin(t, alice, "alice", "password1")

	f.router.chat.HandleChat(alice, chatMsg(t, ws.RoomMessage, "Jam", "hi"))

	assertChatLine(t, drainClient(t, alice.Conn), "You're not in the room Jam")
}

func TestHandleChat_RoomRoleColors(t *testing.T) {
	f := newFixture(t)
	alice := f.connect(t, "conn-a")
	f.mustLogin(t, alice, "alice", "password1")
	bob := f.connect(t, "conn-b")
	f.mustLogin(t, bob, "bob", "password2")

	f.router.lobby.HandleCreateRoom(alice, roomMsg(t, "Jam", "", ""))
	f.router.lobby.HandleEnterRoom(bob, roomMsg(t, "Jam", "", ""))
	drainClient(t, alice.Conn)
	drainClient(t, bob.Conn)

	f.router.chat.HandleChat(alice, chatMsg(t, ws.RoomMessage, "Jam", "owner line"))
	assertChatLine(t, drainClient(t, bob.Conn), "|c0"+game.OwnerColor+"alice")

	f.router.chat.HandleChat(bob, chatMsg(t, ws.RoomMessage, "Jam", "member line"))
	assertChatLine(t, drainClient(t, alice.Conn), "|c0"+game.PlayerColor+"bob")

	f.rm.Get("Jam").ToggleOp("bob")
	f.router.chat.HandleChat(bob, chatMsg(t, ws.RoomMessage, "Jam", "op line"))
	assertChatLine(t, drainClient(t, alice.Conn), "|c0"+game.OpColor+"bob")
}

func TestPM_Online(t *testing.T) {
	f := newFixture(t)
	alice := f.connect(t, "conn-a")
	f.mustLogin(t, alice, "alice", "password1")
	bob := f.connect(t, "conn-b")
	f.mustLogin(t, bob, "bob", "password2")
	drainClient(t, alice.Conn)

	f.router.chat.HandleChat(alice, chatMsg(t, ws.PrivateMessage, "bob", "psst"))

	got := recvChatContaining(t, bob.Conn, "alice: psst")
	assert.Equal(t, ws.PrivateMessage, got.MsgType)
	assert.Equal(t, "alice", got.Tab, "the recipient's tab names the sender")

	echo := recvChatContaining(t, alice.Conn, "alice: psst")
	assert.Equal(t, ws.PrivateMessage, echo.MsgType)
	assert.Equal(t, "bob", echo.Tab, "the sender's echo lands in the recipient tab")
}

func TestPM_OfflineRecipient(t *testing.T) {
	f := newFixture(t)
	f.store.seed(t, "carol", "password3")
	alice := f.connect(t, "conn-a")
	f.mustLogin(t, alice, "alice", "password1")

	f.router.chat.HandleChat(alice, chatMsg(t, ws.PrivateMessage, "carol", "hi"))

	recvChatContaining(t, alice.Conn, "carol is offline")
}

func TestPM_UnknownRecipient(t *testing.T) {
	f := newFixture(t)
	alice := f.connect(t, "conn-a")
	f.mustLogin(t, alice, "alice", "password1")

	f.router.chat.HandleChat(alice, chatMsg(t, ws.PrivateMessage, "dave", "hi"))

	recvChatContaining(t, alice.Conn, "dave doesn't exist")
}

func TestRelayExternal(t *testing.T) {
	f := newFixture(t)
	alice := f.connect(t, "conn-a")
	f.mustLogin(t, alice, "alice", "password1")

	f.router.chat.RelayExternal("dave", "hi from outside")

	msgs := drainClient(t, alice.Conn)
	assertChatLine(t, msgs, "Discord")
	assertChatLine(t, msgs, "hi from outside")
}
