package ws

import "encoding/json"

// Message is the wire envelope. Payload stays raw until a handler picks a
// concrete shape for it. ID is stamped by the sending client's outbound path
// and is never interpreted by the server.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
	ID      int64           `json:"id,omitempty"`
}

// Inbound message types.
const (
	TypeHello          = "hello"
	TypeLogin          = "login"
	TypeLogout         = "logout"
	TypeLeaveRoom      = "leaveroom"
	TypeCreateRoom     = "createroom"
	TypeEnterRoom      = "enterroom"
	TypePing           = "ping"
	TypeChat           = "chat"
	TypeSelectChart    = "selectchart"
	TypeStartChart     = "startchart"
	TypeReady          = "ready"
	TypeGameOver       = "gameover"
	TypeHasChart       = "haschart"
	TypeMissingChart   = "missingchart"
	TypeStartingChart  = "startingchart"
	TypeEnterOptions   = "enteroptions"
	TypeLeaveOptions   = "leaveoptions"
	TypeEnterEval      = "entereval"
	TypeLeaveEval      = "leaveeval"
	TypeScore          = "score"
	TypeGameplayUpdate = "gameplayupdate"
)

// Outbound-only message types.
const (
	TypeRoomList      = "roomlist"
	TypeNewRoom       = "newroom"
	TypeUpdateRoom    = "updateroom"
	TypeDeleteRoom    = "deleteroom"
	TypeUserList      = "userlist"
	TypeLobbyUserList = "lobbyuserlist"
	TypeLeaderboard   = "leaderboard"
	TypePackList      = "packlist"
)

// Chat scopes carried in the chat payload's msgtype field.
const (
	LobbyMessage   = 0
	RoomMessage    = 1
	PrivateMessage = 2
)

// ChatPayload is the body of a chat message in either direction.
type ChatPayload struct {
	MsgType int    `json:"msgtype"`
	Tab     string `json:"tab"`
	Msg     string `json:"msg"`
}

// NewMessage creates a Message with a typed payload.
func NewMessage(msgType string, payload any) (Message, error) {
	if payload == nil {
		return Message{Type: msgType}, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Message{}, err
	}
	return Message{Type: msgType, Payload: data}, nil
}
