package handler

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/nvoid/ettmulti-server/internal/game"
	"github.com/nvoid/ettmulti-server/internal/room"
	"github.com/nvoid/ettmulti-server/internal/ws"
)

type commandFunc func(p *game.Player, params []string)

// CommandHandler tokenizes slash commands and dispatches them, room table
// first so a room command shadows a same-named global one while in a room.
type CommandHandler struct {
	router         *Router
	roomCommands   map[string]commandFunc
	globalCommands map[string]commandFunc
}

// NewCommandHandler builds the dispatch tables.
func NewCommandHandler(router *Router) *CommandHandler {
	h := &CommandHandler{router: router}

	h.roomCommands = map[string]commandFunc{
		"free":          h.cmdFree,
		"freerate":      h.cmdFreeRate,
		"selectionmode": h.cmdSelectionMode,
		"op":            h.cmdOp,
		"roll":          h.cmdRoll,
		"kick":          h.cmdKick,
		"force":         h.cmdForce,
		"countdown":     h.cmdCountdown,
		"stop":          h.cmdStop,
	}
	h.globalCommands = map[string]commandFunc{
		"pm": h.cmdPM,
	}
	return h
}

// Dispatch parses "/name params..." and runs the matching handler, returning
// whether one matched. The caller swallows the chat line either way.
func (h *CommandHandler) Dispatch(p *game.Player, text string) bool {
	fields := strings.Fields(strings.TrimPrefix(text, "/"))
	if len(fields) == 0 {
		return false
	}
	name := strings.ToLower(fields[0])
	params := fields[1:]

	if p.RoomName != "" {
		if cmd, ok := h.roomCommands[name]; ok {
			cmd(p, params)
			return true
		}
	}
	if cmd, ok := h.globalCommands[name]; ok {
		cmd(p, params)
		return true
	}
	return false
}

// requireOp gates a command on owner or operator status, posting the refusal
// notice itself.
func (h *CommandHandler) requireOp(p *game.Player, r *room.Room) bool {
	if r.IsOwner(p) || r.IsOp(p.User) {
		return true
	}
	r.SendChat(game.SystemPrepend + "You are not room owner or operator.")
	return false
}

func (h *CommandHandler) currentRoom(p *game.Player) *room.Room {
	return h.router.CurrentRoom(p)
}

func (h *CommandHandler) cmdFree(p *game.Player, _ []string) {
	r := h.currentRoom(p)
	if r == nil || !h.requireOp(p, r) {
		return
	}
	r.Free = !r.Free
	not := "not "
	if r.Free {
		not = ""
	}
	r.SendChat(game.SystemPrepend + "The room is now " + not + "in free song picking mode")
}

func (h *CommandHandler) cmdFreeRate(p *game.Player, _ []string) {
	r := h.currentRoom(p)
	if r == nil || !h.requireOp(p, r) {
		return
	}
	r.FreeRate = !r.FreeRate
	not := "not "
	if r.FreeRate {
		not = ""
	}
	r.SendChat(game.SystemPrepend + "The room is now " + not + "in rate free mode")
}

func (h *CommandHandler) cmdSelectionMode(p *game.Player, params []string) {
	r := h.currentRoom(p)
	if r == nil {
		return
	}
	if !r.IsOwner(p) {
		r.SendChat(game.SystemPrepend + "You are not the room owner.")
		return
	}

	mode := -1
	if len(params) > 0 {
		if n, err := strconv.Atoi(params[0]); err == nil {
			mode = n
		}
	}
	desc, ok := game.SelectionModeDescriptions[mode]
	if !ok {
		var valid strings.Builder
		valid.WriteString(game.SystemPrepend + "Invalid selection mode. Valid ones are:")
		for i := 0; i < len(game.SelectionModeDescriptions); i++ {
			fmt.Fprintf(&valid, "\n%d: %s", i, game.SelectionModeDescriptions[i])
		}
		p.SendChat(ws.RoomMessage, valid.String(), r.Name)
		return
	}

	r.SelectionMode = mode
	r.SendChat(game.SystemPrepend + "The room is now in \"" + desc + "\" selection mode")
}

func (h *CommandHandler) cmdOp(p *game.Player, params []string) {
	r := h.currentRoom(p)
	if r == nil {
		return
	}
	if !r.IsOwner(p) {
		r.SendChat(game.SystemPrepend + "You are not the room owner.")
		return
	}
	if len(params) == 0 {
		return
	}
	target := params[0]
	if r.FindPlayer(target) == nil {
		r.SendChat(game.SystemPrepend + target + " is not in the room!")
		return
	}

	if r.ToggleOp(target) {
		r.SendChat(game.SystemPrepend + target + " is now a room operator")
	} else {
		r.SendChat(game.SystemPrepend + target + " is no longer a room operator")
	}
}

func (h *CommandHandler) cmdRoll(p *game.Player, params []string) {
	r := h.currentRoom(p)
	if r == nil {
		return
	}
	sides := 100
	if len(params) > 0 {
		if n, err := strconv.Atoi(params[0]); err == nil && n > 0 {
			sides = n
		}
	}
	roll := rand.IntN(sides) + 1
	r.SendChat(fmt.Sprintf("%s%s rolled %d (1-%d)", game.SystemPrepend, p.User, roll, sides))
}

func (h *CommandHandler) cmdKick(p *game.Player, params []string) {
	r := h.currentRoom(p)
	if r == nil || len(params) == 0 {
		return
	}
	targetName := params[0]
	target := r.FindPlayer(targetName)
	if target == nil {
		r.SendChat(game.SystemPrepend + targetName + " is not in the room!")
		return
	}

	// The owner may kick anyone; an op may kick anyone but the owner.
	allowed := r.IsOwner(p) || (r.IsOp(p.User) && !r.IsOwner(target))
	if !allowed {
		r.SendChat(game.SystemPrepend + "You are not room owner or operator.")
		return
	}

	target.SendChat(ws.LobbyMessage, game.SystemPrepend+"You were kicked from room "+r.Name, "")
	h.router.lobby.leaveCurrentRoom(target)
	if h.router.rm.Get(r.Name) != nil {
		r.SendChat(game.SystemPrepend + targetName + " was kicked")
	}
}

func (h *CommandHandler) cmdForce(p *game.Player, _ []string) {
	r := h.currentRoom(p)
	if r == nil || !h.requireOp(p, r) {
		return
	}
	r.ForceStart = !r.ForceStart
	if r.ForceStart {
		r.SendChat(game.SystemPrepend + "Force start enabled for the next song")
	} else {
		r.SendChat(game.SystemPrepend + "Force start disabled")
	}
}

func (h *CommandHandler) cmdCountdown(p *game.Player, params []string) {
	r := h.currentRoom(p)
	if r == nil || !h.requireOp(p, r) {
		return
	}

	limit := 0
	if len(params) > 0 {
		n, err := strconv.Atoi(params[0])
		if err != nil {
			p.SendChat(ws.RoomMessage, game.SystemPrepend+"Countdown limit must be a number", r.Name)
			return
		}
		limit = n
	}

	notice, changed := r.EnableCountdown(limit)
	if changed {
		r.SendChat(notice)
	} else {
		p.SendChat(ws.RoomMessage, notice, r.Name)
	}
}

func (h *CommandHandler) cmdStop(p *game.Player, _ []string) {
	r := h.currentRoom(p)
	if r == nil || !h.requireOp(p, r) {
		return
	}
	if !r.StopTimer() {
		p.SendChat(ws.RoomMessage, game.SystemPrepend+"There is no countdown running", r.Name)
	}
}

func (h *CommandHandler) cmdPM(p *game.Player, params []string) {
	if len(params) < 1 {
		return
	}
	h.router.chat.pm(p, params[0], strings.Join(params[1:], " "))
}
