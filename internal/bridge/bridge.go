package bridge

// ChatBridge relays lobby chat to and from an external messaging platform.
type ChatBridge interface {
	// Relay forwards a lobby chat line to the external channel,
	// fire-and-forget.
	Relay(text string)
	// OnMessage registers the callback invoked for inbound external
	// messages.
	OnMessage(fn func(author, text string))
	// Close shuts the bridge down.
	Close() error
}
