package handler

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nvoid/ettmulti-server/internal/game"
	"github.com/nvoid/ettmulti-server/internal/room"
	"github.com/nvoid/ettmulti-server/internal/ws"
)

// LobbyHandler handles room entry/creation/leave and connection liveness.
type LobbyHandler struct {
	router *Router
}

// NewLobbyHandler creates the lobby handler.
func NewLobbyHandler(router *Router) *LobbyHandler {
	return &LobbyHandler{router: router}
}

type roomRequest struct {
	Name string `json:"name"`
	Desc string `json:"desc"`
	Pass string `json:"pass"`
}

// HandleCreateRoom creates a room. A player occupies at most one room, so
// any current room is left first.
func (h *LobbyHandler) HandleCreateRoom(p *game.Player, msg ws.Message) {
	var req roomRequest
	if err := json.Unmarshal(msg.Payload, &req); err != nil || req.Name == "" {
		h.sendCreated(p, false)
		p.SendChat(ws.LobbyMessage, game.SystemPrepend+"Room name cannot be empty", "")
		return
	}

	h.leaveCurrentRoom(p)

	r := h.router.rm.Create(req.Name, req.Desc, req.Pass, p)
	if r == nil {
		h.sendCreated(p, false)
		p.SendChat(ws.LobbyMessage, game.SystemPrepend+"Room name already in use", "")
		return
	}

	newRoom, _ := ws.NewMessage(ws.TypeNewRoom, map[string]any{"room": r.Serialize()})
	h.router.hub.Broadcast(newRoom)
	h.router.UpdateRoomState(r)

	h.sendCreated(p, true)
	p.SendChat(ws.RoomMessage, game.SystemPrepend+"Created room \""+req.Name+"\"", req.Name)

	slog.Info("player created room", "player", p.User, "room", req.Name)
}

// HandleEnterRoom joins an existing room, or creates one when the name is
// unknown.
func (h *LobbyHandler) HandleEnterRoom(p *game.Player, msg ws.Message) {
	var req roomRequest
	if err := json.Unmarshal(msg.Payload, &req); err != nil || req.Name == "" {
		h.sendEntered(p, false)
		return
	}

	h.leaveCurrentRoom(p)

	r := h.router.rm.Get(req.Name)
	if r == nil {
		// Entering an unknown room name creates it.
		r = h.router.rm.Create(req.Name, req.Desc, req.Pass, p)
		if r == nil {
			h.sendEntered(p, false)
			return
		}
		newRoom, _ := ws.NewMessage(ws.TypeNewRoom, map[string]any{"room": r.Serialize()})
		h.router.hub.Broadcast(newRoom)
		h.sendEntered(p, true)
		slog.Info("player created room by entering", "player", p.User, "room", req.Name)
		return
	}

	if r.Pass != "" && r.Pass != req.Pass {
		h.sendEntered(p, false)
		p.SendChat(ws.LobbyMessage, game.SystemPrepend+"Incorrect password", "")
		return
	}

	r.Enter(p)
	update, _ := ws.NewMessage(ws.TypeUpdateRoom, map[string]any{"room": r.Serialize()})
	h.router.hub.Broadcast(update)
	r.RefreshUserList()

	slog.Info("player joined room", "player", p.User, "room", r.Name)
}

// HandleLeaveRoom leaves the player's current room, if any.
func (h *LobbyHandler) HandleLeaveRoom(p *game.Player) {
	h.leaveCurrentRoom(p)
}

// leaveCurrentRoom removes p from its room and settles the aftermath: the
// room is deleted (with a broadcast) when it emptied, otherwise the members
// get a leave notice and a state refresh. Returns the room that was left, or
// nil.
func (h *LobbyHandler) leaveCurrentRoom(p *game.Player) *room.Room {
	r := h.router.CurrentRoom(p)
	if r == nil {
		p.RoomName = ""
		return nil
	}

	r.Leave(p)

	if r.IsEmpty() {
		r.StopTimer()
		h.router.rm.Remove(r.Name)
		deleted, _ := ws.NewMessage(ws.TypeDeleteRoom, map[string]any{"room": r.Serialize()})
		h.router.hub.Broadcast(deleted)
	} else {
		r.SendChat(game.SystemPrepend + p.User + " left")
		h.router.UpdateRoomState(r)
	}

	p.SendChat(ws.LobbyMessage, game.SystemPrepend+"Left room "+r.Name, "")
	return r
}

// HandlePing answers the liveness sweep; the counter never drops below zero.
func (h *LobbyHandler) HandlePing(p *game.Player) {
	for {
		v := p.Conn.PingsToAnswer.Load()
		if v <= 0 {
			return
		}
		if p.Conn.PingsToAnswer.CompareAndSwap(v, v-1) {
			return
		}
	}
}

// StartPinging runs the fixed-interval liveness sweep: connections that let
// their unanswered-ping count reach the threshold are torn down, everyone
// else gets a ping.
func (h *LobbyHandler) StartPinging(interval time.Duration, disconnectCount int) {
	if interval <= 0 {
		return
	}
	ping, _ := ws.NewMessage(ws.TypePing, nil)

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for range ticker.C {
			h.router.hub.ForEachClient(func(c *ws.Client) {
				if int(c.PingsToAnswer.Load()) >= disconnectCount {
					slog.Info("terminating unresponsive connection", "client", c.ID)
					c.Terminate()
					return
				}
				c.SendMessage(ping)
				c.PingsToAnswer.Add(1)
			})
		}
	}()
}

func (h *LobbyHandler) sendCreated(p *game.Player, created bool) {
	msg, _ := ws.NewMessage(ws.TypeCreateRoom, map[string]any{"created": created})
	p.Send(msg)
}

func (h *LobbyHandler) sendEntered(p *game.Player, entered bool) {
	msg, _ := ws.NewMessage(ws.TypeEnterRoom, map[string]any{"entered": entered})
	p.Send(msg)
}
