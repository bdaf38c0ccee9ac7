package handler

import (
	"encoding/json"
	"log/slog"

	"github.com/nvoid/ettmulti-server/internal/game"
	"github.com/nvoid/ettmulti-server/internal/ws"
)

// GameplayHandler handles chart selection/start negotiation and the
// activity-state transitions reported by the client.
type GameplayHandler struct {
	router *Router
}

// NewGameplayHandler creates the gameplay handler.
func NewGameplayHandler(router *Router) *GameplayHandler {
	return &GameplayHandler{router: router}
}

type helloRequest struct {
	Version int      `json:"version"`
	Client  string   `json:"client"`
	Packs   []string `json:"packs"`
}

// HandleHello records the pack list the client advertises on connect.
func (h *GameplayHandler) HandleHello(p *game.Player, msg ws.Message) {
	var req helloRequest
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		return
	}
	p.Packs = req.Packs
	slog.Debug("client hello", "client", p.Conn.ID, "version", req.Version, "packs", len(req.Packs))
}

// HandleSelectChart picks a chart for the player's room.
func (h *GameplayHandler) HandleSelectChart(p *game.Player, msg ws.Message) {
	r := h.router.CurrentRoom(p)
	if r == nil {
		p.SendChat(ws.LobbyMessage, game.SystemPrepend+"You're not in a room", "")
		return
	}
	if !r.CanSelect(p) {
		p.SendChat(ws.RoomMessage, game.SystemPrepend+"You don't have the rights to select a chart!", r.Name)
		return
	}

	var payload game.ChartPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return
	}
	r.SelectChart(p, payload)
}

// HandleStartChart runs the start negotiation. The activity-state gate vetoes
// here; the ready-flag gate lives inside Room.StartChart.
func (h *GameplayHandler) HandleStartChart(p *game.Player, msg ws.Message) {
	r := h.router.CurrentRoom(p)
	if r == nil {
		p.SendChat(ws.LobbyMessage, game.SystemPrepend+"You're not in a room", "")
		return
	}
	if !r.CanSelect(p) {
		p.SendChat(ws.RoomMessage, game.SystemPrepend+"You don't have the rights to start a chart!", r.Name)
		return
	}

	if err := r.CanStart(); err != "" {
		r.SendChat(game.SystemPrepend + "Cant start (" + err + ")")
		return
	}

	var payload game.ChartPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return
	}
	r.StartChart(p, payload)

	update, _ := ws.NewMessage(ws.TypeUpdateRoom, map[string]any{"room": r.Serialize()})
	h.router.hub.Broadcast(update)
}

// HandleReady flips the player's ready flag. The room gets a notice; the
// flag itself toggles regardless of membership.
func (h *GameplayHandler) HandleReady(p *game.Player) {
	ready := p.ToggleReady()

	r := h.router.CurrentRoom(p)
	if r == nil {
		return
	}
	notice := " is not ready."
	if ready {
		notice = " is ready."
	}
	r.SendChat(game.SystemPrepend + p.User + notice)
	r.RefreshUserList()
}

// HandleActivity applies an activity-screen transition and propagates the
// room state change, if any.
func (h *GameplayHandler) HandleActivity(p *game.Player, state game.State) {
	p.State = state
	h.router.UpdateRoomState(h.router.CurrentRoom(p))
}

// HandleScore relays a final score to the player's room.
func (h *GameplayHandler) HandleScore(p *game.Player, msg ws.Message) {
	r := h.router.CurrentRoom(p)
	if r == nil {
		return
	}
	relay, _ := ws.NewMessage(ws.TypeScore, map[string]any{
		"name":  p.User,
		"score": msg.Payload,
	})
	r.Send(relay)
}

type gameplayUpdateRequest struct {
	Wife   float64 `json:"wife"`
	Jdgstr string  `json:"jdgstr"`
}

// HandleGameplayUpdate stores a live score snapshot and rebroadcasts the
// room leaderboard.
func (h *GameplayHandler) HandleGameplayUpdate(p *game.Player, msg ws.Message) {
	r := h.router.CurrentRoom(p)
	if r == nil {
		return
	}

	var req gameplayUpdateRequest
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		return
	}
	p.Gameplay = game.GameplayState{
		Wife:           req.Wife,
		JudgmentString: req.Jdgstr,
		User:           p.User,
	}

	scores := make([]game.GameplayState, 0, len(r.Players))
	for _, member := range r.Players {
		if member.State == game.StatePlaying {
			scores = append(scores, member.Gameplay)
		}
	}
	board, _ := ws.NewMessage(ws.TypeLeaderboard, map[string]any{"scores": scores})
	r.Send(board)
}

// HandleChartAvailability reacts to has/missing chart reports; only the
// missing case is surfaced.
func (h *GameplayHandler) HandleChartAvailability(p *game.Player, msgType string) {
	r := h.router.CurrentRoom(p)
	if r == nil {
		return
	}
	if msgType == ws.TypeMissingChart {
		r.SendChat(game.SystemPrepend + p.User + " doesnt have the chart")
	}
}
