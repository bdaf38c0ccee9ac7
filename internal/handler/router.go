package handler

import (
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/nvoid/ettmulti-server/internal/auth"
	"github.com/nvoid/ettmulti-server/internal/bridge"
	"github.com/nvoid/ettmulti-server/internal/config"
	"github.com/nvoid/ettmulti-server/internal/game"
	"github.com/nvoid/ettmulti-server/internal/room"
	"github.com/nvoid/ettmulti-server/internal/store"
	"github.com/nvoid/ettmulti-server/internal/ws"
)

// ProtocolVersion is sent in the server hello.
const ProtocolVersion = 1

// Router owns the connected-player registry and dispatches inbound messages
// to the handlers. Registry and player/room state are only touched on the
// hub's dispatch goroutine; background work re-enters through hub.Do.
type Router struct {
	hub *ws.Hub
	rm  *room.Manager
	cfg *config.Config

	authH    *AuthHandler
	lobby    *LobbyHandler
	chat     *ChatHandler
	gameplay *GameplayHandler
	commands *CommandHandler

	// players maps connections to their player, anonymous or not.
	players map[*ws.Client]*game.Player
}

// NewRouter creates the message router and its handlers. accounts and
// chatBridge may be nil when not configured.
func NewRouter(hub *ws.Hub, rm *room.Manager, accounts store.AccountStore,
	legacy *auth.LegacyClient, chatBridge bridge.ChatBridge, cfg *config.Config) *Router {

	r := &Router{
		hub:     hub,
		rm:      rm,
		cfg:     cfg,
		players: make(map[*ws.Client]*game.Player),
	}
	r.authH = NewAuthHandler(r, accounts, legacy)
	r.lobby = NewLobbyHandler(r)
	r.chat = NewChatHandler(r, chatBridge)
	r.gameplay = NewGameplayHandler(r)
	r.commands = NewCommandHandler(r)

	if chatBridge != nil {
		chatBridge.OnMessage(func(author, text string) {
			hub.Do(func() {
				r.chat.RelayExternal(author, text)
			})
		})
	}
	return r
}

// HandleConnect allocates an anonymous player for a fresh connection, greets
// it and sends the open-room list.
func (r *Router) HandleConnect(client *ws.Client) {
	p := game.NewPlayer(client)
	r.players[client] = p

	hello, _ := ws.NewMessage(ws.TypeHello, map[string]any{
		"version": ProtocolVersion,
		"name":    r.cfg.ServerName,
	})
	p.Send(hello)
	p.SendRoomList(r.rm.Serialize())
}

// HandleMessage parses and routes an incoming client message. Unknown types
// are logged and ignored.
func (r *Router) HandleMessage(cm *ws.ClientMessage) {
	p := r.players[cm.Client]
	if p == nil {
		return
	}

	var msg ws.Message
	if err := json.Unmarshal(cm.Data, &msg); err != nil {
		slog.Warn("invalid message format", "client", cm.Client.ID, "error", err)
		return
	}

	// Pre-auth messages.
	switch msg.Type {
	case ws.TypeHello:
		r.gameplay.HandleHello(p, msg)
		return
	case ws.TypeLogin:
		r.authH.HandleLogin(p, msg)
		return
	case ws.TypePing:
		r.lobby.HandlePing(p)
		return
	}

	if !p.LoggedIn() {
		slog.Debug("message from anonymous connection dropped",
			"client", cm.Client.ID, "type", msg.Type)
		return
	}

	switch msg.Type {
	case ws.TypeLogout:
		r.authH.HandleLogout(p)
	case ws.TypeCreateRoom:
		r.lobby.HandleCreateRoom(p, msg)
	case ws.TypeEnterRoom:
		r.lobby.HandleEnterRoom(p, msg)
	case ws.TypeLeaveRoom:
		r.lobby.HandleLeaveRoom(p)
	case ws.TypeChat:
		r.chat.HandleChat(p, msg)
	case ws.TypeSelectChart:
		r.gameplay.HandleSelectChart(p, msg)
	case ws.TypeStartChart:
		r.gameplay.HandleStartChart(p, msg)
	case ws.TypeReady:
		r.gameplay.HandleReady(p)
	case ws.TypeStartingChart:
		r.gameplay.HandleActivity(p, game.StatePlaying)
	case ws.TypeEnterOptions:
		r.gameplay.HandleActivity(p, game.StateOptions)
	case ws.TypeLeaveOptions:
		r.gameplay.HandleActivity(p, game.StateReady)
	case ws.TypeEnterEval:
		r.gameplay.HandleActivity(p, game.StateEval)
	case ws.TypeLeaveEval:
		r.gameplay.HandleActivity(p, game.StateReady)
	case ws.TypeGameOver:
		r.gameplay.HandleActivity(p, game.StateReady)
	case ws.TypeScore:
		r.gameplay.HandleScore(p, msg)
	case ws.TypeGameplayUpdate:
		r.gameplay.HandleGameplayUpdate(p, msg)
	case ws.TypeHasChart, ws.TypeMissingChart:
		r.gameplay.HandleChartAvailability(p, msg.Type)
	default:
		slog.Warn("unknown message type", "type", msg.Type, "client", cm.Client.ID)
	}
}

// HandleDisconnect runs the logout teardown for a closed connection and
// forgets the player.
func (r *Router) HandleDisconnect(client *ws.Client) {
	p := r.players[client]
	if p == nil {
		return
	}
	delete(r.players, client)
	if p.LoggedIn() {
		r.authH.teardown(p)
	}
}

// StartPinging launches the connection liveness sweep.
func (r *Router) StartPinging(interval time.Duration, disconnectCount int) {
	r.lobby.StartPinging(interval, disconnectCount)
}

// Player returns the player bound to a connection, or nil.
func (r *Router) Player(client *ws.Client) *game.Player {
	return r.players[client]
}

// FindPlayer returns the logged-in player with the given username,
// case-insensitively, or nil.
func (r *Router) FindPlayer(user string) *game.Player {
	for _, p := range r.players {
		if p.LoggedIn() && strings.EqualFold(p.User, user) {
			return p
		}
	}
	return nil
}

// CurrentRoom resolves the player's room through the registry, or nil.
func (r *Router) CurrentRoom(p *game.Player) *room.Room {
	if p.RoomName == "" {
		return nil
	}
	return r.rm.Get(p.RoomName)
}

// UpdateRoomState rederives a room's state and broadcasts the room to every
// connected player when the derived state changed.
func (r *Router) UpdateRoomState(rm *room.Room) {
	if rm == nil {
		return
	}
	oldState := rm.State
	rm.UpdateStatus()
	if oldState != rm.State {
		msg, _ := ws.NewMessage(ws.TypeUpdateRoom, map[string]any{"room": rm.Serialize()})
		r.hub.Broadcast(msg)
	}
}

// BroadcastLobbyUserList sends the logged-in user list to every connection.
func (r *Router) BroadcastLobbyUserList() {
	users := make([]string, 0, len(r.players))
	for _, p := range r.players {
		if p.LoggedIn() {
			users = append(users, p.User)
		}
	}
	msg, _ := ws.NewMessage(ws.TypeLobbyUserList, map[string]any{"users": users})
	r.hub.Broadcast(msg)
}
