package game

import (
	"encoding/json"

	"github.com/nvoid/ettmulti-server/internal/ws"
)

// State is the activity screen a player is currently on.
type State int

const (
	StateReady State = iota
	StatePlaying
	StateEval
	StateOptions
)

func (s State) String() string {
	switch s {
	case StatePlaying:
		return "playing"
	case StateEval:
		return "eval"
	case StateOptions:
		return "options"
	default:
		return "ready"
	}
}

// MarshalJSON serializes State as its wire integer.
func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(int(s))
}

// GameplayState is the live score snapshot a player reports mid-song.
type GameplayState struct {
	Wife           float64 `json:"wife"`
	JudgmentString string  `json:"jdgstr"`
	User           string  `json:"user"`
}

// Player is the per-connection identity and protocol state. An empty User
// means the connection has not authenticated.
type Player struct {
	User string
	Pass string
	Conn *ws.Client

	State State
	// ReadyState is the explicit "ready to start" flag, distinct from the
	// coarser activity State.
	ReadyState bool
	Gameplay   GameplayState

	// RoomName names the room this player occupies, resolved through the
	// room registry on use. Empty when not in a room.
	RoomName string

	// Packs is the chart pack list the client advertised in its hello.
	Packs []string
}

// NewPlayer creates an anonymous player bound to a connection.
func NewPlayer(conn *ws.Client) *Player {
	return &Player{Conn: conn}
}

// LoggedIn reports whether the player has authenticated.
func (p *Player) LoggedIn() bool {
	return p.User != ""
}

// Send transmits a message on the player's connection.
func (p *Player) Send(msg ws.Message) {
	p.Conn.SendMessage(msg)
}

// SendChat wraps text in a chat envelope. kind is one of ws.LobbyMessage,
// ws.RoomMessage or ws.PrivateMessage; tab carries the room name or the
// counterpart username for client-side routing.
func (p *Player) SendChat(kind int, text, tab string) {
	wrapped := RemoveMultiColor(Color("FFFFFF") + " " + text + " " + Color("FFFFFF") + " ")
	msg, err := ws.NewMessage(ws.TypeChat, ws.ChatPayload{
		MsgType: kind,
		Tab:     tab,
		Msg:     wrapped,
	})
	if err != nil {
		return
	}
	p.Conn.SendMessage(msg)
}

// SendRoomList sends the serialized open-room list to this player.
func (p *Player) SendRoomList(rooms any) {
	msg, err := ws.NewMessage(ws.TypeRoomList, map[string]any{"rooms": rooms})
	if err != nil {
		return
	}
	p.Conn.SendMessage(msg)
}

// ToggleReady flips the ready flag and returns the new value. The room chat
// notice is the caller's concern; the flag itself exists independent of room
// membership.
func (p *Player) ToggleReady() bool {
	p.ReadyState = !p.ReadyState
	return p.ReadyState
}

// Serialize renders the player for room membership lists.
func (p *Player) Serialize() string {
	return p.User
}
