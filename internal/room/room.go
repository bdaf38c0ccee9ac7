package room

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sort"
	"strings"

	"github.com/nvoid/ettmulti-server/internal/game"
	"github.com/nvoid/ettmulti-server/internal/ws"
)

// Room states. The state is derived from member activity by UpdateStatus.
const (
	StateSelecting = 0
	StateInGame    = 1
)

// SerializedRoom is the wire form of a room.
type SerializedRoom struct {
	Name    string   `json:"name"`
	Desc    string   `json:"desc"`
	Players []string `json:"players"`
	Pass    bool     `json:"pass"`
	State   int      `json:"state"`
}

// Room is a named play session: an ordered member list with one owner, a set
// of operator usernames, a chart selection and the start-negotiation state.
// All mutation happens on the hub dispatch goroutine; the countdown timer is
// the only background task and re-enters through the run scheduler.
type Room struct {
	Name string
	Desc string
	Pass string

	Players []*game.Player
	Owner   *game.Player
	Ops     []string

	Free          bool
	FreeRate      bool
	SelectionMode int

	Chart   *game.Chart
	State   int
	Playing bool

	Countdown  bool
	TimerLimit int
	ForceStart bool

	countdownStarted bool
	stopTimer        chan struct{}

	commonPacks []string
	packsDirty  bool

	// run posts a function onto the dispatch goroutine; countdown ticks and
	// the deferred start go through it.
	run func(func())
}

// NewRoom creates a room owned by owner. The owner is not yet a member; the
// caller appends it through Append or Enter.
func NewRoom(name, desc, pass string, owner *game.Player, run func(func())) *Room {
	if run == nil {
		run = func(fn func()) { fn() }
	}
	return &Room{
		Name:       name,
		Desc:       desc,
		Pass:       pass,
		Owner:      owner,
		State:      StateSelecting,
		TimerLimit: 5,
		packsDirty: true,
		run:        run,
	}
}

// Append adds a player to the member list without join notices. Used for the
// creator on room construction.
func (r *Room) Append(p *game.Player) {
	r.Players = append(r.Players, p)
	p.RoomName = r.Name
	r.packsDirty = true
}

// Enter adds a player with the full join protocol: membership, enter ack,
// join notice, and a replay of the current selection if one exists.
func (r *Room) Enter(p *game.Player) {
	r.Append(p)
	p.State = game.StateReady

	msg, _ := ws.NewMessage(ws.TypeEnterRoom, map[string]any{"entered": true})
	p.Send(msg)
	r.SendChat(game.SystemPrepend + p.User + " joined")

	if r.Chart != nil {
		sel, _ := ws.NewMessage(ws.TypeSelectChart, map[string]any{"chart": r.SerializeChart(r.Chart)})
		p.Send(sel)
	}
	r.SendCommonPacks()
}

// Leave removes a player: activity state reset, ownership transfer when the
// owner leaves, removal from the member list, and an empty membership notice
// to the leaver. Deleting the room when it empties is the coordinator's job.
func (r *Room) Leave(p *game.Player) {
	p.State = game.StateReady

	if r.Owner != nil && p.User == r.Owner.User {
		r.changeOwner(p)
	}

	members := r.Players[:0]
	for _, member := range r.Players {
		if member.User != p.User {
			members = append(members, member)
		}
	}
	r.Players = members
	p.RoomName = ""
	r.packsDirty = true
	if !r.IsEmpty() {
		r.SendCommonPacks()
	}

	msg, _ := ws.NewMessage(ws.TypeUserList, map[string]any{"players": []any{}})
	p.Send(msg)
}

// changeOwner transfers ownership away from the leaving owner: a random
// currently-present operator if any, otherwise a random remaining member.
func (r *Room) changeOwner(leaving *game.Player) {
	var opMembers []*game.Player
	for _, p := range r.Players {
		if p.User != leaving.User && r.IsOp(p.User) {
			opMembers = append(opMembers, p)
		}
	}
	if len(opMembers) > 0 {
		r.Owner = opMembers[rand.IntN(len(opMembers))]
		return
	}

	var others []*game.Player
	for _, p := range r.Players {
		if p.User != leaving.User {
			others = append(others, p)
		}
	}
	if len(others) > 0 {
		r.Owner = others[rand.IntN(len(others))]
	}
}

// IsEmpty reports whether the room has no members.
func (r *Room) IsEmpty() bool {
	return len(r.Players) == 0
}

// IsOwner reports whether p currently owns the room.
func (r *Room) IsOwner(p *game.Player) bool {
	return r.Owner != nil && r.Owner.User == p.User
}

// IsOp reports whether user holds operator status. Status survives leaving
// the room.
func (r *Room) IsOp(user string) bool {
	for _, op := range r.Ops {
		if op == user {
			return true
		}
	}
	return false
}

// ToggleOp grants or revokes operator status, returning true if user is an
// operator afterwards.
func (r *Room) ToggleOp(user string) bool {
	if r.IsOp(user) {
		ops := r.Ops[:0]
		for _, op := range r.Ops {
			if op != user {
				ops = append(ops, op)
			}
		}
		r.Ops = ops
		return false
	}
	r.Ops = append(r.Ops, user)
	return true
}

// FindPlayer returns the member with the given username, or nil.
func (r *Room) FindPlayer(user string) *game.Player {
	for _, p := range r.Players {
		if p.User == user {
			return p
		}
	}
	return nil
}

// CanSelect reports whether p may pick or start charts: free-pick rooms allow
// anyone, otherwise only the owner and operators.
func (r *Room) CanSelect(p *game.Player) bool {
	return r.Free || r.IsOwner(p) || r.IsOp(p.User)
}

// CanStart is the activity-state veto: it returns a non-empty description of
// the members who are on another screen, or "" when starting is allowed.
func (r *Room) CanStart() string {
	var busy []string
	for _, p := range r.Players {
		if p.State != game.StateReady {
			busy = append(busy, p.User)
		}
	}
	if len(busy) == 0 {
		return ""
	}
	return "Players " + strings.Join(busy, ", ") + " are busy"
}

// SerializeChart projects a chart through the room's selection mode. The
// rate field rides along unless the room is in free-rate mode.
func (r *Room) SerializeChart(ch *game.Chart) game.SerializedChart {
	sc, ok := game.Project(r.SelectionMode, ch)
	if !ok {
		r.SendChat(game.SystemPrepend + "Invalid selection mode")
		return game.SerializedChart{}
	}
	if ch != nil && !r.FreeRate {
		sc.Rate = ch.Rate
	}
	return sc
}

// SelectChart unconditionally replaces the selection and announces it.
// Permission checks happen at the coordinator via CanSelect.
func (r *Room) SelectChart(p *game.Player, payload game.ChartPayload) {
	r.Chart = game.NewChart(payload, p.User)

	msg, _ := ws.NewMessage(ws.TypeSelectChart, map[string]any{"chart": r.SerializeChart(r.Chart)})
	r.Send(msg)
	r.SendChat(game.SystemPrepend + p.User + " selected " +
		game.Colorize(r.Chart.Describe(), game.StringToColor(r.Chart.Title)))
}

// StartChart handles a start request. A candidate that does not re-confirm
// the current selection (no selection yet, different picker, or a different
// projection) degrades to SelectChart. A matching candidate runs the
// readiness gate and then starts, after the countdown when one is enabled.
func (r *Room) StartChart(p *game.Player, payload game.ChartPayload) {
	candidate := game.NewChart(payload, p.User)

	newChart := r.SerializeChart(candidate)
	oldChart := r.SerializeChart(r.Chart)

	if r.Chart == nil || p.User != r.Chart.PickedBy || newChart != oldChart {
		r.SelectChart(p, payload)
		return
	}

	var notReady []string
	for _, member := range r.Players {
		if !member.ReadyState && member.User != p.User {
			notReady = append(notReady, member.User)
		}
	}
	if !r.ForceStart && len(notReady) > 0 {
		verb := " is not ready."
		if len(notReady) > 1 {
			verb = " are not ready."
		}
		r.SendChat(game.SystemPrepend + joinNames(notReady) + verb)
		return
	}

	// A previous start is already counting down; keep the one-shot flags
	// for it.
	if r.TimerRunning() {
		r.SendChat(game.SystemPrepend + "There is already a countdown running")
		return
	}

	// Both flags are one-shot, consumed by this start.
	for _, member := range r.Players {
		member.ReadyState = false
	}
	r.ForceStart = false

	if !r.Countdown {
		r.materializeStart(candidate, newChart)
		return
	}

	started := r.StartTimer(
		func(remaining int) {
			r.SendChat(fmt.Sprintf("%sStarting in %d...", game.SystemPrepend, remaining))
		},
		func() {
			r.materializeStart(candidate, newChart)
		},
	)
	if started {
		r.SendChat(fmt.Sprintf("%sStarting in %d seconds", game.SystemPrepend, r.TimerLimit))
	}
}

// materializeStart commits a start after the gates (and countdown) resolved.
func (r *Room) materializeStart(candidate *game.Chart, serialized game.SerializedChart) {
	if r.IsEmpty() {
		slog.Info("start abandoned, room emptied", "room", r.Name)
		return
	}

	r.Chart = candidate
	r.State = StateInGame
	r.Playing = true

	msg, _ := ws.NewMessage(ws.TypeStartChart, map[string]any{"chart": serialized})
	r.Send(msg)
	r.SendChat(game.SystemPrepend + "Starting " + game.Colorize(r.Chart.Title))
}

// UpdateStatus rederives the room state from member activity, refreshes the
// member list, and forgets a finished chart once everyone is back on the
// selection screen.
func (r *Room) UpdateStatus() {
	r.State = StateSelecting
	for _, p := range r.Players {
		if p.State != game.StateReady {
			r.State = StateInGame
			break
		}
	}

	r.RefreshUserList()

	if r.State == StateSelecting && r.Playing {
		r.Playing = false
		r.Chart = nil
	}
}

// RefreshUserList sends the member list with activity and ready flags to the
// room.
func (r *Room) RefreshUserList() {
	players := make([]map[string]any, 0, len(r.Players))
	for _, p := range r.Players {
		players = append(players, map[string]any{
			"name":   p.User,
			"status": int(p.State) + 1,
			"ready":  p.ReadyState,
		})
	}
	msg, _ := ws.NewMessage(ws.TypeUserList, map[string]any{"players": players})
	r.Send(msg)
}

// Send delivers a message to every member.
func (r *Room) Send(msg ws.Message) {
	for _, p := range r.Players {
		p.Send(msg)
	}
}

// SendChat posts a room-scoped chat line to every member.
func (r *Room) SendChat(text string) {
	for _, p := range r.Players {
		p.SendChat(ws.RoomMessage, text, r.Name)
	}
}

// CommonPacks returns the intersection of the pack lists advertised by the
// members, recomputed after membership changes. Folding starts from the
// member with the fewest packs.
func (r *Room) CommonPacks() []string {
	if !r.packsDirty {
		return r.commonPacks
	}
	r.packsDirty = false
	r.commonPacks = nil

	if len(r.Players) == 0 {
		return nil
	}

	members := make([]*game.Player, len(r.Players))
	copy(members, r.Players)
	sort.Slice(members, func(i, j int) bool {
		return len(members[i].Packs) < len(members[j].Packs)
	})

	common := make(map[string]bool, len(members[0].Packs))
	for _, pack := range members[0].Packs {
		common[pack] = true
	}
	for _, p := range members[1:] {
		if len(common) == 0 {
			break
		}
		have := make(map[string]bool, len(p.Packs))
		for _, pack := range p.Packs {
			have[pack] = true
		}
		for pack := range common {
			if !have[pack] {
				delete(common, pack)
			}
		}
	}

	packs := make([]string, 0, len(common))
	for pack := range common {
		packs = append(packs, pack)
	}
	sort.Strings(packs)
	r.commonPacks = packs
	return packs
}

// SendCommonPacks tells every member which packs the whole room has, so
// clients can narrow song selection to playable charts.
func (r *Room) SendCommonPacks() {
	msg, err := ws.NewMessage(ws.TypePackList, map[string]any{"commonpacks": r.CommonPacks()})
	if err != nil {
		return
	}
	r.Send(msg)
}

// Serialize renders the room for roomlist/updateroom messages.
func (r *Room) Serialize() SerializedRoom {
	players := make([]string, 0, len(r.Players))
	for _, p := range r.Players {
		players = append(players, p.Serialize())
	}
	return SerializedRoom{
		Name:    r.Name,
		Desc:    r.Desc,
		Players: players,
		Pass:    r.Pass != "",
		State:   r.State,
	}
}

// joinNames renders a name list for chat: "A", "A and B", "A, B, and C".
func joinNames(names []string) string {
	switch len(names) {
	case 0:
		return ""
	case 1:
		return names[0]
	case 2:
		return names[0] + " and " + names[1]
	default:
		return strings.Join(names[:len(names)-1], ", ") + ", and " + names[len(names)-1]
	}
}
