package room

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"caro-server/internal/apperror"
	"caro-server/internal/player"
)

func newTestPlayer(id string) *player.Player {
	return player.New(id, "avatar", "name-"+id, nil)
}

func TestNewRejectsOversizedRoster(t *testing.T) {
	players := []*player.Player{newTestPlayer("a"), newTestPlayer("b"), newTestPlayer("c")}

	_, err := New("room-1", 2, players)

	assert.ErrorIs(t, err, apperror.ErrInvalidCapacity)
}

func TestAddPlayerDeclinesWhenFull(t *testing.T) {
	r, err := New("room-1", 2, []*player.Player{newTestPlayer("a")})
	require.NoError(t, err)

	require.NoError(t, r.AddPlayer(newTestPlayer("b")))
	assert.True(t, r.IsFull())

	err = r.AddPlayer(newTestPlayer("c"))
	assert.ErrorIs(t, err, apperror.ErrRoomFull)
	assert.Len(t, r.Players, 2)
}

func TestRemovePlayer(t *testing.T) {
	r, err := New("room-1", 2, []*player.Player{newTestPlayer("a"), newTestPlayer("b")})
	require.NoError(t, err)

	r.RemovePlayer("a")
	assert.Nil(t, r.Player("a"))
	assert.NotNil(t, r.Player("b"))

	// Unknown id is a no-op.
	r.RemovePlayer("nobody")
	assert.Len(t, r.Players, 1)
}

func TestReadyPlayerIsIdempotent(t *testing.T) {
	r, err := New("room-1", 2, []*player.Player{newTestPlayer("a"), newTestPlayer("b")})
	require.NoError(t, err)

	r.ReadyPlayer("a")
	r.ReadyPlayer("a")
	r.ReadyPlayer("nobody")

	assert.True(t, r.Player("a").Ready)
	assert.False(t, r.Player("b").Ready)
	assert.False(t, r.IsReady())

	r.ReadyPlayer("b")
	assert.True(t, r.IsReady())
}

func TestIsReadyRequiresFullRoom(t *testing.T) {
	r, err := New("room-1", 2, []*player.Player{newTestPlayer("a")})
	require.NoError(t, err)

	r.ReadyPlayer("a")

	assert.False(t, r.IsReady(), "a lone ready player must not start a match")
}

func TestOpponent(t *testing.T) {
	r, err := New("room-1", 2, []*player.Player{newTestPlayer("a"), newTestPlayer("b")})
	require.NoError(t, err)

	assert.Equal(t, "b", r.Opponent("a").ID)
	assert.Equal(t, "a", r.Opponent("b").ID)
}

func TestOccupantsIsASnapshot(t *testing.T) {
	r, err := New("room-1", 2, []*player.Player{newTestPlayer("a"), newTestPlayer("b")})
	require.NoError(t, err)

	snap := r.Occupants()
	r.RemovePlayer("a")

	assert.Len(t, snap, 2)
	assert.Len(t, r.Players, 1)
}
