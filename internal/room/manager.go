package room

import (
	"log/slog"
	"sync"

	"github.com/nvoid/ettmulti-server/internal/game"
)

// Manager is the registry of open rooms, unique by name.
type Manager struct {
	rooms map[string]*Room
	run   func(func())
	mu    sync.RWMutex
}

// NewManager creates a room registry. run is handed to every room it creates
// for scheduling countdown work; nil means synchronous (tests).
func NewManager(run func(func())) *Manager {
	return &Manager{
		rooms: make(map[string]*Room),
		run:   run,
	}
}

// Create registers a new room with the given owner, who becomes its first
// member. It returns nil if the name is taken.
func (m *Manager) Create(name, desc, pass string, owner *game.Player) *Room {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.rooms[name]; exists {
		return nil
	}

	r := NewRoom(name, desc, pass, owner, m.run)
	r.Append(owner)
	m.rooms[name] = r

	slog.Info("room created", "room", name, "owner", owner.User)
	return r
}

// Get returns the room with the given name, or nil.
func (m *Manager) Get(name string) *Room {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rooms[name]
}

// Remove deletes a room from the registry.
func (m *Manager) Remove(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rooms, name)
	slog.Info("room removed", "room", name)
}

// Count returns the number of open rooms.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms)
}

// Serialize renders every open room for the room list.
func (m *Manager) Serialize() []SerializedRoom {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rooms := make([]SerializedRoom, 0, len(m.rooms))
	for _, r := range m.rooms {
		rooms = append(rooms, r.Serialize())
	}
	return rooms
}
