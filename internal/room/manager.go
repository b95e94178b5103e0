package room

import (
	"sync"

	"caro-server/internal/apperror"
	"caro-server/internal/player"
)

// Manager is the process-wide room registry. A single mutex serializes the
// matchmaking scan and all room mutation, so two concurrent joins can never
// both land in the same filling room. Nothing here survives a restart.
type Manager struct {
	mu    sync.Mutex
	rooms []*Room // creation order
	index map[string]*Room
}

// NewManager creates an empty registry.
func NewManager() *Manager {
	return &Manager{index: make(map[string]*Room)}
}

// AddRoom inserts a room unless one with the same id already exists, in which
// case the call is a no-op.
func (m *Manager) AddRoom(r *Room) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.addLocked(r)
}

func (m *Manager) addLocked(r *Room) {
	if _, ok := m.index[r.ID]; ok {
		return
	}
	m.rooms = append(m.rooms, r)
	m.index[r.ID] = r
}

// RemoveRoom deletes the room if present; no-op otherwise.
func (m *Manager) RemoveRoom(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.index[id]; !ok {
		return
	}
	delete(m.index, id)
	for i, r := range m.rooms {
		if r.ID == id {
			m.rooms = append(m.rooms[:i], m.rooms[i+1:]...)
			return
		}
	}
}

// GetRoom looks a room up by id.
func (m *Manager) GetRoom(id string) (*Room, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.index[id]
	return r, ok
}

// FindFreeRoom returns the first room with a free seat in creation order.
// There is no tie-break beyond creation order.
func (m *Manager) FindFreeRoom() (*Room, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r := m.findFreeLocked()
	return r, r != nil
}

func (m *Manager) findFreeLocked() *Room {
	for _, r := range m.rooms {
		if !r.IsFull() {
			return r
		}
	}
	return nil
}

// JoinOrCreate seats p in the first non-full room, or opens a fresh room of
// the given capacity seeded with p when none is free. newID supplies ids for
// fresh rooms. The scan and the insertion share one critical section.
//
// It returns the room id and a roster snapshot taken at join time.
func (m *Manager) JoinOrCreate(p *player.Player, capacity int, newID func() string) (string, []*player.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if r := m.findFreeLocked(); r != nil {
		if err := r.AddPlayer(p); err != nil {
			return "", nil, err
		}
		return r.ID, r.Occupants(), nil
	}

	r, err := New(newID(), capacity, []*player.Player{p})
	if err != nil {
		return "", nil, err
	}
	m.addLocked(r)
	return r.ID, r.Occupants(), nil
}

// WithRoom runs fn on the room under the registry lock, so per-room state
// transitions stay atomic with respect to concurrent events for the same id.
// It fails with ErrRoomNotFound when the id is unknown. fn must not write to
// player connections; snapshot what it needs and send after returning.
func (m *Manager) WithRoom(id string, fn func(*Room) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.index[id]
	if !ok {
		return apperror.ErrRoomNotFound
	}
	return fn(r)
}

// Len reports the number of registered rooms.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rooms)
}
