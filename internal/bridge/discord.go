package bridge

import (
	"log/slog"

	"github.com/bwmarrin/discordgo"
)

// DiscordBridge relays lobby chat to a single Discord channel and feeds that
// channel's messages back into lobby chat.
type DiscordBridge struct {
	session   *discordgo.Session
	guildID   string
	channelID string
	onMessage func(author, text string)
}

// NewDiscordBridge connects the bot and starts listening on the configured
// channel.
func NewDiscordBridge(token, guildID, channelID string) (*DiscordBridge, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, err
	}

	b := &DiscordBridge{
		session:   session,
		guildID:   guildID,
		channelID: channelID,
	}

	session.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentMessageContent

	session.AddHandler(func(_ *discordgo.Session, r *discordgo.Ready) {
		slog.Info("discord logged in", "user", r.User.Username)
	})
	session.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		if m.ChannelID != b.channelID || m.Author.Bot {
			return
		}
		if b.onMessage != nil {
			b.onMessage(m.Author.Username, m.ContentWithMentionsReplaced())
		}
	})

	if err := session.Open(); err != nil {
		return nil, err
	}
	return b, nil
}

// Relay forwards a lobby chat line to the Discord channel.
func (b *DiscordBridge) Relay(text string) {
	if _, err := b.session.ChannelMessageSend(b.channelID, text); err != nil {
		slog.Warn("discord relay failed", "error", err)
	}
}

// OnMessage registers the inbound message callback.
func (b *DiscordBridge) OnMessage(fn func(author, text string)) {
	b.onMessage = fn
}

// Close shuts the Discord session down.
func (b *DiscordBridge) Close() error {
	return b.session.Close()
}
