package room

import (
	"caro-server/internal/apperror"
	"caro-server/internal/player"
)

// Room is a bounded match container. Players keeps join order; the first-move
// draw picks from it.
type Room struct {
	ID       string
	Capacity int
	Players  []*player.Player
}

// New builds a room with an initial roster. It fails with ErrInvalidCapacity
// when the roster already exceeds capacity.
func New(id string, capacity int, players []*player.Player) (*Room, error) {
	if len(players) > capacity {
		return nil, apperror.ErrInvalidCapacity
	}
	return &Room{ID: id, Capacity: capacity, Players: players}, nil
}

// AddPlayer seats a player. A full room declines with ErrRoomFull; the caller
// retries matchmaking.
func (r *Room) AddPlayer(p *player.Player) error {
	if r.IsFull() {
		return apperror.ErrRoomFull
	}
	r.Players = append(r.Players, p)
	return nil
}

// RemovePlayer vacates the seat held by id. Unknown ids are a no-op.
func (r *Room) RemovePlayer(id string) {
	for i, p := range r.Players {
		if p.ID == id {
			r.Players = append(r.Players[:i], r.Players[i+1:]...)
			return
		}
	}
}

// ReadyPlayer marks the given player ready. Unknown ids and repeated signals
// are no-ops.
func (r *Room) ReadyPlayer(id string) {
	for _, p := range r.Players {
		if p.ID == id {
			p.Ready = true
			return
		}
	}
}

// Player returns the occupant with the given id, or nil.
func (r *Room) Player(id string) *player.Player {
	for _, p := range r.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// Opponent returns the occupant other than id, or nil when the seat is empty.
func (r *Room) Opponent(id string) *player.Player {
	for _, p := range r.Players {
		if p.ID != id {
			return p
		}
	}
	return nil
}

// Occupants returns a snapshot of the roster so callers can write to player
// connections without holding the registry lock.
func (r *Room) Occupants() []*player.Player {
	return append([]*player.Player(nil), r.Players...)
}

// IsFull reports whether every seat is taken.
func (r *Room) IsFull() bool {
	return len(r.Players) == r.Capacity
}

// IsReady reports whether the match can start: every seat taken and every
// occupant ready. A half-filled room is never ready, so a lone player
// signaling ready cannot start a match against nobody.
func (r *Room) IsReady() bool {
	if !r.IsFull() {
		return false
	}
	for _, p := range r.Players {
		if !p.Ready {
			return false
		}
	}
	return true
}
