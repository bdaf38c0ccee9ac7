package ws

import (
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 64 * 1024
)

// Client represents a single WebSocket connection.
type Client struct {
	ID   string
	Hub  *Hub
	Conn *websocket.Conn
	Send chan []byte

	// PingsToAnswer counts application-level pings sent but not yet answered.
	// The liveness sweep increments it, the ping handler decrements it.
	PingsToAnswer atomic.Int32

	// msgID is the per-connection monotonic outbound sequence number.
	msgID atomic.Int64

	// sendMu guards closed. Send is only closed with it held, so a
	// concurrent SendMessage can never hit a closed channel.
	sendMu sync.Mutex
	closed bool
}

// NewClient creates a new Client.
func NewClient(id string, hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		ID:   id,
		Hub:  hub,
		Conn: conn,
		Send: make(chan []byte, 256),
	}
}

// ReadPump pumps messages from the WebSocket connection to the hub.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unregister <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Error("websocket read error", "client", c.ID, "error", err)
			}
			break
		}
		if c.Hub.LogPackets {
			slog.Debug("packet in", "client", c.ID, "data", string(message))
		}
		c.Hub.Incoming <- &ClientMessage{Client: c, Data: message}
	}
}

// WritePump pumps messages from the send channel to the WebSocket connection.
func (c *Client) WritePump() {
	defer c.Conn.Close()

	for message := range c.Send {
		c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
	c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// SendMessage stamps the next outbound sequence id onto msg and queues it as
// a single text frame. A full send buffer drops the message rather than
// blocking the caller; a message to an unregistered client is a no-op, so
// disconnect teardown and the liveness sweep can race the hub safely.
func (c *Client) SendMessage(msg Message) {
	msg.ID = c.msgID.Add(1)
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("failed to marshal message", "error", err)
		return
	}
	if c.Hub.LogPackets {
		slog.Debug("packet out", "client", c.ID, "data", string(data))
	}

	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.Send <- data:
	default:
		slog.Warn("client send buffer full, dropping message", "client", c.ID)
	}
}

// closeSend marks the client unregistered and closes the send channel. Any
// SendMessage after this point is dropped.
func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.Send)
}

// Terminate forcibly closes the underlying connection. The read pump will
// observe the close and unregister the client.
func (c *Client) Terminate() {
	c.Conn.Close()
}

// ClientMessage wraps a raw message with its source client.
type ClientMessage struct {
	Client *Client
	Data   []byte
}
