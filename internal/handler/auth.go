package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"golang.org/x/crypto/bcrypt"

	"github.com/nvoid/ettmulti-server/internal/auth"
	"github.com/nvoid/ettmulti-server/internal/game"
	"github.com/nvoid/ettmulti-server/internal/store"
	"github.com/nvoid/ettmulti-server/internal/ws"
)

const (
	loginTimeout = 10 * time.Second

	// Credential length bounds, exclusive.
	minCredentialLen = 2
	maxCredentialLen = 256
)

// AuthHandler handles login and logout. Store lookups, bcrypt work and
// legacy-auth calls run off the dispatch goroutine; their results re-enter
// through the hub task inbox.
type AuthHandler struct {
	router *Router
	store  store.AccountStore
	legacy *auth.LegacyClient
}

// NewAuthHandler creates the auth handler. accounts may be nil, in which
// case every login delegates to the legacy endpoint.
func NewAuthHandler(router *Router, accounts store.AccountStore, legacy *auth.LegacyClient) *AuthHandler {
	return &AuthHandler{
		router: router,
		store:  accounts,
		legacy: legacy,
	}
}

type loginRequest struct {
	User string `json:"user"`
	Pass string `json:"pass"`
}

// HandleLogin validates the credentials and kicks off verification.
func (h *AuthHandler) HandleLogin(p *game.Player, msg ws.Message) {
	var req loginRequest
	if err := json.Unmarshal(msg.Payload, &req); err != nil || req.User == "" || req.Pass == "" {
		h.reject(p, "Missing/Empty username or password")
		return
	}

	if len(req.User) <= minCredentialLen || len(req.User) >= maxCredentialLen ||
		len(req.Pass) <= minCredentialLen || len(req.Pass) >= maxCredentialLen {
		h.reject(p, "Username and password must be between 3 and 255 characters")
		return
	}

	if strings.IndexFunc(req.User, unicode.IsSpace) >= 0 {
		h.reject(p, "Usernames cannot contain whitespace")
		return
	}

	// The client renders :: as a line break; allowing it in names would let
	// a player forge system chat lines.
	if strings.Contains(req.User, "::") {
		h.reject(p, "Usernames cannot contain ::")
		return
	}

	// Logging in over an existing identity is a relog.
	if p.LoggedIn() {
		h.teardown(p)
	}

	if other := h.router.FindPlayer(req.User); other != nil {
		h.reject(p, req.User+" is already logged in")
		return
	}

	go h.verify(p, req)
}

// verify runs the blocking part of a login on a worker goroutine and posts
// the outcome back onto the dispatch goroutine.
func (h *AuthHandler) verify(p *game.Player, req loginRequest) {
	ctx, cancel := context.WithTimeout(context.Background(), loginTimeout)
	defer cancel()

	ok, reason := h.check(ctx, req)

	h.router.hub.Do(func() {
		h.finishLogin(p, req, ok, reason)
	})
}

func (h *AuthHandler) check(ctx context.Context, req loginRequest) (bool, string) {
	if h.store == nil {
		return h.checkLegacy(ctx, req)
	}

	acc, err := h.store.FindByUsername(ctx, req.User)
	if err != nil {
		slog.Error("account lookup failed", "user", req.User, "error", err)
		return false, "Wrong username or password"
	}

	if acc != nil {
		if bcrypt.CompareHashAndPassword([]byte(acc.PassHash), []byte(req.Pass)) != nil {
			return false, "Wrong username or password"
		}
		return true, ""
	}

	if !h.router.cfg.AllowRegistration {
		return h.checkLegacy(ctx, req)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Pass), bcrypt.DefaultCost)
	if err != nil {
		slog.Error("password hash failed", "error", err)
		return false, "Wrong username or password"
	}
	if err := h.store.Insert(ctx, &store.Account{User: req.User, PassHash: string(hash)}); err != nil {
		slog.Error("account creation failed", "user", req.User, "error", err)
		return false, "Wrong username or password"
	}
	slog.Info("account created", "user", req.User)
	return true, ""
}

func (h *AuthHandler) checkLegacy(ctx context.Context, req loginRequest) (bool, string) {
	err := h.legacy.Authenticate(ctx, req.User, req.Pass)
	if err == nil {
		return true, ""
	}
	if !errors.Is(err, auth.ErrInvalidCredentials) {
		slog.Error("legacy auth failed", "user", req.User, "error", err)
	}
	// Infra failures read the same as bad credentials on purpose.
	return false, "Wrong username or password"
}

// finishLogin applies a verification outcome. It runs on the dispatch
// goroutine and revalidates what may have changed while the check was in
// flight.
func (h *AuthHandler) finishLogin(p *game.Player, req loginRequest, ok bool, reason string) {
	if h.router.players[p.Conn] != p {
		return // disconnected mid-login
	}
	if !ok {
		h.reject(p, reason)
		return
	}
	if p.LoggedIn() {
		return // a concurrent login won
	}
	if other := h.router.FindPlayer(req.User); other != nil {
		h.reject(p, req.User+" is already logged in")
		return
	}

	p.User = req.User
	p.Pass = req.Pass

	resp, _ := ws.NewMessage(ws.TypeLogin, map[string]any{"logged": true, "msg": ""})
	p.Send(resp)
	p.SendChat(ws.LobbyMessage, "Welcome to "+game.Colorize(h.router.cfg.ServerName), "")

	for _, other := range h.router.players {
		if other != p && other.LoggedIn() {
			other.SendChat(ws.LobbyMessage, game.SystemPrepend+p.User+" joined the lobby", "")
		}
	}
	h.router.BroadcastLobbyUserList()

	slog.Info("player logged in", "user", p.User, "client", p.Conn.ID)
}

// HandleLogout clears the player's identity. The connection stays open and
// anonymous.
func (h *AuthHandler) HandleLogout(p *game.Player) {
	slog.Info("player logged out", "user", p.User)
	h.teardown(p)
}

// teardown is the shared logout/disconnect path: leave any room, clear
// identity, refresh the lobby user list.
func (h *AuthHandler) teardown(p *game.Player) {
	h.router.lobby.leaveCurrentRoom(p)

	p.User = ""
	p.Pass = ""
	p.RoomName = ""
	p.ReadyState = false
	p.State = game.StateReady

	h.router.BroadcastLobbyUserList()
}

func (h *AuthHandler) reject(p *game.Player, reason string) {
	resp, _ := ws.NewMessage(ws.TypeLogin, map[string]any{"logged": false, "msg": reason})
	p.Send(resp)
}
