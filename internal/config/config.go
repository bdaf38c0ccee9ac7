package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port       int
	BindIP     string
	ServerName string
	LogLevel   string
	LogFormat  string
	LogPackets bool

	DatabaseURL       string
	AllowRegistration bool
	LegacyAuthURL     string

	PingInterval          time.Duration
	PingCountToDisconnect int

	DiscordBotToken  string
	DiscordGuildID   string
	DiscordChannelID string
}

func Load() *Config {
	// A missing .env file is fine; env vars win either way.
	_ = godotenv.Load()

	return &Config{
		Port:       getEnvInt("PORT", 8765),
		BindIP:     getEnv("BIND_IP", ""),
		ServerName: getEnv("SERVER_NAME", "ettmulti"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		LogFormat:  getEnv("LOG_FORMAT", "text"),
		LogPackets: getEnvBool("LOG_PACKETS", false),

		DatabaseURL:       getEnv("DATABASE_URL", ""),
		AllowRegistration: getEnvBool("ALLOW_REGISTRATION", true),
		LegacyAuthURL:     getEnv("LEGACY_AUTH_URL", "https://api.etternaonline.com/v1/login"),

		PingInterval:          getEnvDuration("PING_INTERVAL", 15*time.Second),
		PingCountToDisconnect: getEnvInt("PING_COUNT_TO_DISCONNECT", 2),

		DiscordBotToken:  getEnv("DISCORD_BOT_TOKEN", ""),
		DiscordGuildID:   getEnv("DISCORD_GUILD_ID", ""),
		DiscordChannelID: getEnv("DISCORD_CHANNEL_ID", ""),
	}
}

// UseDiscord reports whether the Discord bridge is fully configured.
func (c *Config) UseDiscord() bool {
	return c.DiscordBotToken != "" && c.DiscordGuildID != "" && c.DiscordChannelID != ""
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
