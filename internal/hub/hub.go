package hub

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"

	"caro-server/internal/player"
	"caro-server/internal/room"
)

var tracer = otel.Tracer("hub")

// roomCapacity is fixed for the two-player mode.
const roomCapacity = 2

// StatsRecorder records resolved match outcomes. Implementations must be safe
// for concurrent use. Recording is best-effort: a stats failure is logged and
// never surfaced to players.
type StatsRecorder interface {
	RecordWin(ctx context.Context, playerID string) error
	RecordDraw(ctx context.Context, playerIDs ...string) error
}

// Hub owns the room registry and hands out one Session per connection. All
// shared state lives behind the registry's serialization point; the hub
// itself holds no mutable state.
type Hub struct {
	rooms *room.Manager
	stats StatsRecorder
}

// New creates a hub over the given registry. stats may be nil to disable
// outcome recording.
func New(rooms *room.Manager, stats StatsRecorder) *Hub {
	return &Hub{rooms: rooms, stats: stats}
}

// Rooms exposes the registry, mainly for transports that need teardown hooks.
func (h *Hub) Rooms() *room.Manager {
	return h.rooms
}

// NewSession binds a connection to the hub. id is the opaque
// connection-scoped token supplied by the transport.
func (h *Hub) NewSession(id string, conn player.Connection) *Session {
	return &Session{hub: h, id: id, conn: conn}
}

func (h *Hub) recordWin(ctx context.Context, playerID string) {
	if h.stats == nil || playerID == "" {
		return
	}
	if err := h.stats.RecordWin(ctx, playerID); err != nil {
		slog.WarnContext(ctx, "failed to record win", "player.id", playerID, "error", err)
	}
}

func (h *Hub) recordDraw(ctx context.Context, players []*player.Player) {
	if h.stats == nil {
		return
	}
	ids := make([]string, 0, len(players))
	for _, p := range players {
		ids = append(ids, p.ID)
	}
	if err := h.stats.RecordDraw(ctx, ids...); err != nil {
		slog.WarnContext(ctx, "failed to record draw", "error", err)
	}
}
