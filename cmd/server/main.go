package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/nvoid/ettmulti-server/internal/auth"
	"github.com/nvoid/ettmulti-server/internal/bridge"
	"github.com/nvoid/ettmulti-server/internal/config"
	"github.com/nvoid/ettmulti-server/internal/handler"
	"github.com/nvoid/ettmulti-server/internal/room"
	"github.com/nvoid/ettmulti-server/internal/store"
	"github.com/nvoid/ettmulti-server/internal/ws"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // game clients connect from anywhere
	},
}

func main() {
	cfg := config.Load()
	setupLogger(cfg)

	var accounts store.AccountStore
	if cfg.DatabaseURL != "" {
		pg, err := store.NewPostgresStore(context.Background(), cfg.DatabaseURL)
		if err != nil {
			slog.Error("database connection failed", "error", err)
			os.Exit(1)
		}
		defer pg.Close()
		accounts = pg
	} else {
		slog.Info("no database configured, delegating logins to legacy auth")
	}

	var chatBridge bridge.ChatBridge
	if cfg.UseDiscord() {
		db, err := bridge.NewDiscordBridge(cfg.DiscordBotToken, cfg.DiscordGuildID, cfg.DiscordChannelID)
		if err != nil {
			slog.Error("discord bridge failed", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		chatBridge = db
	}

	hub := ws.NewHub()
	hub.LogPackets = cfg.LogPackets

	rm := room.NewManager(hub.Do)
	router := handler.NewRouter(hub, rm, accounts,
		auth.NewLegacyClient(cfg.LegacyAuthURL), chatBridge, cfg)

	hub.OnConnect = router.HandleConnect
	hub.OnMessage = router.HandleMessage
	hub.OnDisconnect = router.HandleDisconnect

	go hub.Run()
	router.StartPinging(cfg.PingInterval, cfg.PingCountToDisconnect)

	r := chi.NewRouter()
	r.Get("/healthz", handleHealth)
	r.Get("/ws", func(w http.ResponseWriter, req *http.Request) {
		handleWebSocket(hub, w, req)
	})

	addr := fmt.Sprintf("%s:%d", cfg.BindIP, cfg.Port)
	slog.Info("server starting", "addr", addr, "name", cfg.ServerName)
	if err := http.ListenAndServe(addr, r); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

func handleWebSocket(hub *ws.Hub, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("websocket upgrade failed", "error", err)
		return
	}

	client := ws.NewClient(uuid.New().String(), hub, conn)
	hub.Register <- client

	go client.WritePump()
	go client.ReadPump()
}

func setupLogger(cfg *config.Config) {
	var h slog.Handler
	opts := &slog.HandlerOptions{}

	switch cfg.LogLevel {
	case "debug":
		opts.Level = slog.LevelDebug
	case "warn":
		opts.Level = slog.LevelWarn
	case "error":
		opts.Level = slog.LevelError
	default:
		opts.Level = slog.LevelInfo
	}

	switch cfg.LogFormat {
	case "json":
		h = slog.NewJSONHandler(os.Stdout, opts)
	default:
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(h))
}
