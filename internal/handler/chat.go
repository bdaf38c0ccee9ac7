package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/nvoid/ettmulti-server/internal/bridge"
	"github.com/nvoid/ettmulti-server/internal/game"
	"github.com/nvoid/ettmulti-server/internal/ws"
)

// ChatHandler routes lobby, room and private chat, and bridges lobby chat to
// the external platform.
type ChatHandler struct {
	router *Router
	bridge bridge.ChatBridge
}

// NewChatHandler creates the chat handler. chatBridge may be nil.
func NewChatHandler(router *Router, chatBridge bridge.ChatBridge) *ChatHandler {
	return &ChatHandler{router: router, bridge: chatBridge}
}

// sanitizeChat strips the sequences the client interprets as control markup.
func sanitizeChat(s string) string {
	s = strings.ReplaceAll(s, "\n", "")
	s = strings.ReplaceAll(s, "::", "")
	return s
}

// HandleChat routes a chat submission. A leading slash makes it a command
// attempt, which is swallowed whether or not a handler matches, so typos
// never leak into the room.
func (h *ChatHandler) HandleChat(p *game.Player, msg ws.Message) {
	var req ws.ChatPayload
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		return
	}
	req.Msg = sanitizeChat(req.Msg)
	if req.Msg == "" {
		return
	}

	if strings.HasPrefix(req.Msg, "/") {
		if !h.router.commands.Dispatch(p, req.Msg) {
			slog.Debug("unmatched command swallowed", "player", p.User, "msg", req.Msg)
		}
		return
	}

	switch req.MsgType {
	case ws.LobbyMessage:
		line := game.Colorize(p.User, game.PlayerColor) + ": " + req.Msg
		for _, other := range h.router.players {
			other.SendChat(ws.LobbyMessage, line, "")
		}
		if h.bridge != nil {
			h.bridge.Relay(p.User + ": " + req.Msg)
		}

	case ws.RoomMessage:
		r := h.router.CurrentRoom(p)
		if r == nil || r.Name != req.Tab {
			p.SendChat(ws.RoomMessage, game.SystemPrepend+"You're not in the room "+req.Tab, req.Tab)
			return
		}
		color := game.PlayerColor
		if r.IsOwner(p) {
			color = game.OwnerColor
		} else if r.IsOp(p.User) {
			color = game.OpColor
		}
		r.SendChat(game.Colorize(p.User, color) + ": " + req.Msg)

	case ws.PrivateMessage:
		h.pm(p, req.Tab, req.Msg)
	}
}

// pm relays a private message, echoing it back into the sender's own tab.
// When the recipient is not connected, the account store distinguishes
// offline from nonexistent.
func (h *ChatHandler) pm(p *game.Player, recipient, text string) {
	target := h.router.FindPlayer(recipient)
	if target != nil {
		target.SendChat(ws.PrivateMessage, p.User+": "+text, p.User)
		p.SendChat(ws.PrivateMessage, p.User+": "+text, target.User)
		return
	}

	if h.router.authH.store == nil {
		p.SendChat(ws.LobbyMessage, game.SystemPrepend+"Could not find user "+recipient, "")
		return
	}

	accounts := h.router.authH.store
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		acc, err := accounts.FindByUsername(ctx, recipient)
		h.router.hub.Do(func() {
			switch {
			case err != nil:
				slog.Error("pm recipient lookup failed", "user", recipient, "error", err)
				p.SendChat(ws.LobbyMessage, game.SystemPrepend+"Could not find user "+recipient, "")
			case acc == nil:
				p.SendChat(ws.LobbyMessage, game.SystemPrepend+recipient+" doesn't exist", "")
			default:
				p.SendChat(ws.LobbyMessage, game.SystemPrepend+recipient+" is offline", "")
			}
		})
	}()
}

// RelayExternal feeds a bridged external message into lobby chat.
func (h *ChatHandler) RelayExternal(author, text string) {
	line := game.Colorize("Discord") + " (" + game.Colorize(author, game.PlayerColor) + "): " + text
	for _, p := range h.router.players {
		p.SendChat(ws.LobbyMessage, line, "")
	}
}
