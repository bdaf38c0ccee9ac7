package ws

import (
	"log/slog"
	"sync"
)

// Hub maintains the set of active clients and routes messages. All message
// handling and every task posted through Do run on the single Run goroutine,
// so handler code mutates server state without further locking.
type Hub struct {
	Clients    map[*Client]bool
	Register   chan *Client
	Unregister chan *Client
	Incoming   chan *ClientMessage
	tasks      chan func()
	mu         sync.RWMutex

	// LogPackets enables raw frame logging on every client.
	LogPackets bool

	// OnConnect is called when a client registers.
	OnConnect func(client *Client)
	// OnMessage is called for each incoming client message.
	OnMessage func(cm *ClientMessage)
	// OnDisconnect is called when a client disconnects.
	OnDisconnect func(client *Client)
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		Clients:    make(map[*Client]bool),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Incoming:   make(chan *ClientMessage, 256),
		tasks:      make(chan func(), 256),
	}
}

// Run starts the hub's main loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			h.Clients[client] = true
			h.mu.Unlock()
			slog.Info("client connected", "client", client.ID)
			if h.OnConnect != nil {
				h.OnConnect(client)
			}

		case client := <-h.Unregister:
			h.mu.Lock()
			_, known := h.Clients[client]
			delete(h.Clients, client)
			h.mu.Unlock()
			if !known {
				break
			}
			slog.Info("client disconnected", "client", client.ID)
			// Teardown runs before the send channel closes so the leave
			// protocol can still address the departing client.
			if h.OnDisconnect != nil {
				h.OnDisconnect(client)
			}
			client.closeSend()

		case cm := <-h.Incoming:
			if h.OnMessage != nil {
				h.OnMessage(cm)
			}

		case fn := <-h.tasks:
			fn()
		}
	}
}

// Do schedules fn onto the hub's dispatch goroutine. Background work (store
// lookups, countdown ticks, bridge callbacks) re-enters the single-writer
// loop through here instead of touching state directly.
func (h *Hub) Do(fn func()) {
	h.tasks <- fn
}

// Broadcast sends a message to all connected clients.
func (h *Hub) Broadcast(msg Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.Clients {
		client.SendMessage(msg)
	}
}

// ForEachClient calls fn for every connected client.
func (h *Hub) ForEachClient(fn func(c *Client)) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.Clients))
	for client := range h.Clients {
		clients = append(clients, client)
	}
	h.mu.RUnlock()
	for _, client := range clients {
		fn(client)
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.Clients)
}
