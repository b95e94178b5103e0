package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"caro-server/internal/game"
	"caro-server/internal/room"
	"caro-server/pkg/proto"
)

// fakeConn records every envelope the session writes to it.
type fakeConn struct {
	sent   []proto.Envelope
	closed bool
}

func (c *fakeConn) WriteMessage(_ int, data []byte) error {
	var env proto.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	c.sent = append(c.sent, env)
	return nil
}

func (c *fakeConn) ReadMessage() (int, []byte, error) { return 0, nil, io.EOF }

func (c *fakeConn) Close() error {
	c.closed = true
	return nil
}

func (c *fakeConn) events() []string {
	names := make([]string, 0, len(c.sent))
	for _, env := range c.sent {
		names = append(names, env.Event)
	}
	return names
}

func (c *fakeConn) last(t *testing.T, event string) json.RawMessage {
	t.Helper()
	for i := len(c.sent) - 1; i >= 0; i-- {
		if c.sent[i].Event == event {
			return c.sent[i].Payload
		}
	}
	t.Fatalf("no %q envelope sent, got %v", event, c.events())
	return nil
}

// fakeStats tallies outcome recording calls.
type fakeStats struct {
	wins  []string
	draws [][]string
}

func (f *fakeStats) RecordWin(_ context.Context, playerID string) error {
	f.wins = append(f.wins, playerID)
	return nil
}

func (f *fakeStats) RecordDraw(_ context.Context, playerIDs ...string) error {
	f.draws = append(f.draws, playerIDs)
	return nil
}

func envelope(t *testing.T, event string, payload any) []byte {
	t.Helper()
	env := proto.Envelope{Event: event}
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		env.Payload = data
	}
	raw, err := json.Marshal(env)
	require.NoError(t, err)
	return raw
}

func findPlayer(t *testing.T, s *Session, name string) {
	t.Helper()
	s.HandleMessage(context.Background(), envelope(t, proto.EventFindPlayer, proto.FindPlayerPayload{
		Player: proto.PlayerInfo{Avatar: "cat", Name: name},
	}))
}

// matchedPair runs the full matchmaking handshake for two connections and
// returns both sessions with the shared room id.
func matchedPair(t *testing.T, h *Hub) (*Session, *fakeConn, *Session, *fakeConn, string) {
	t.Helper()

	connA, connB := &fakeConn{}, &fakeConn{}
	sessA := h.NewSession("alice", connA)
	sessB := h.NewSession("bob", connB)

	findPlayer(t, sessA, "Alice")
	findPlayer(t, sessB, "Bob")

	var joined proto.JoinedRoomPayload
	require.NoError(t, json.Unmarshal(connA.last(t, proto.EventJoinedRoom), &joined))
	return sessA, connA, sessB, connB, joined.RoomID
}

func testBoard(rows, cols int) game.Board {
	b := make(game.Board, rows)
	for i := range b {
		b[i] = make([]game.Mark, cols)
	}
	return b
}

func TestFindPlayerPairsIntoOneRoom(t *testing.T) {
	h := New(room.NewManager(), nil)
	_, connA, _, connB, roomID := matchedPair(t, h)

	require.NotEmpty(t, roomID)
	var joinedB proto.JoinedRoomPayload
	require.NoError(t, json.Unmarshal(connB.last(t, proto.EventJoinedRoom), &joinedB))
	assert.Equal(t, roomID, joinedB.RoomID, "both players land in the same room")
	assert.Equal(t, 1, h.Rooms().Len())

	// Each side is introduced to the other.
	var vsA, vsB proto.VsPlayerPayload
	require.NoError(t, json.Unmarshal(connA.last(t, proto.EventVsPlayer), &vsA))
	require.NoError(t, json.Unmarshal(connB.last(t, proto.EventVsPlayer), &vsB))
	assert.Equal(t, "bob", vsA.Player.ID)
	assert.Equal(t, "Bob", vsA.Player.Name)
	assert.Equal(t, "alice", vsB.Player.ID)
}

func TestLonePlayerGetsNoIntroduction(t *testing.T) {
	h := New(room.NewManager(), nil)
	conn := &fakeConn{}
	sess := h.NewSession("alice", conn)

	findPlayer(t, sess, "Alice")

	assert.Contains(t, conn.events(), proto.EventJoinedRoom)
	assert.NotContains(t, conn.events(), proto.EventVsPlayer)
}

func TestReadyHandshakeStartsGameOnce(t *testing.T) {
	h := New(room.NewManager(), nil)
	sessA, connA, sessB, connB, roomID := matchedPair(t, h)

	sessA.HandleMessage(context.Background(), envelope(t, proto.EventReady, proto.RoomPayload{RoomID: roomID}))
	assert.Contains(t, connB.events(), proto.EventPlayerReady)
	assert.NotContains(t, connA.events(), proto.EventStartGame, "one ready player is not enough")

	sessB.HandleMessage(context.Background(), envelope(t, proto.EventReady, proto.RoomPayload{RoomID: roomID}))
	var startA, startB proto.StartGamePayload
	require.NoError(t, json.Unmarshal(connA.last(t, proto.EventStartGame), &startA))
	require.NoError(t, json.Unmarshal(connB.last(t, proto.EventStartGame), &startB))

	assert.Equal(t, startA.FirstPlayer, startB.FirstPlayer, "both sides agree on who opens")
	assert.Contains(t, []string{"alice", "bob"}, startA.FirstPlayer)
}

func TestNextTurnRelaysToOpponent(t *testing.T) {
	h := New(room.NewManager(), nil)
	sessA, connA, _, connB, roomID := matchedPair(t, h)

	b := testBoard(15, 15)
	b[7][7] = game.MarkX
	sessA.HandleMessage(context.Background(), envelope(t, proto.EventNextTurn, proto.NextTurnPayload{
		RoomID: roomID, Board: b, X: 7, Y: 7,
	}))

	var turn proto.NextTurnPayload
	require.NoError(t, json.Unmarshal(connB.last(t, proto.EventNextTurn), &turn))
	assert.Equal(t, 7, turn.X)
	assert.Equal(t, 7, turn.Y)
	assert.Equal(t, game.MarkX, turn.Board[7][7])

	assert.NotContains(t, connA.events(), proto.EventNextTurn, "the mover gets no echo")
}

func TestWinningMoveBroadcastsGotWinner(t *testing.T) {
	h := New(room.NewManager(), nil)
	stats := &fakeStats{}
	h.stats = stats
	sessA, connA, _, connB, roomID := matchedPair(t, h)

	b := testBoard(15, 15)
	for y := 2; y <= 6; y++ {
		b[7][y] = game.MarkX
	}
	sessA.HandleMessage(context.Background(), envelope(t, proto.EventNextTurn, proto.NextTurnPayload{
		RoomID: roomID, Board: b, X: 7, Y: 6,
	}))

	var winA, winB proto.GotWinnerPayload
	require.NoError(t, json.Unmarshal(connA.last(t, proto.EventGotWinner), &winA))
	require.NoError(t, json.Unmarshal(connB.last(t, proto.EventGotWinner), &winB))
	assert.Equal(t, "alice", winA.ID)
	assert.Equal(t, "alice", winB.ID)
	assert.Len(t, winA.Result, 5)

	// The losing side still sees the final move before the result.
	assert.Contains(t, connB.events(), proto.EventNextTurn)
	assert.Equal(t, []string{"alice"}, stats.wins)
}

func TestChatRelaysMessage(t *testing.T) {
	h := New(room.NewManager(), nil)
	sessA, _, _, connB, roomID := matchedPair(t, h)

	sessA.HandleMessage(context.Background(), envelope(t, proto.EventChat, proto.ChatPayload{
		RoomID: roomID, Message: "gl hf",
	}))

	var chat proto.ChatPayload
	require.NoError(t, json.Unmarshal(connB.last(t, proto.EventChat), &chat))
	assert.Equal(t, "gl hf", chat.Message)
}

func TestDrawHandshake(t *testing.T) {
	h := New(room.NewManager(), nil)
	stats := &fakeStats{}
	h.stats = stats
	sessA, connA, sessB, connB, roomID := matchedPair(t, h)

	sessA.HandleMessage(context.Background(), envelope(t, proto.EventDraw, proto.RoomPayload{RoomID: roomID}))
	assert.Contains(t, connB.events(), proto.EventDraw)

	sessB.HandleMessage(context.Background(), envelope(t, proto.EventConfirmDraw, proto.ConfirmPayload{
		RoomID: roomID, Confirm: true,
	}))

	var winA, winB proto.GotWinnerPayload
	require.NoError(t, json.Unmarshal(connA.last(t, proto.EventGotWinner), &winA))
	require.NoError(t, json.Unmarshal(connB.last(t, proto.EventGotWinner), &winB))
	assert.Empty(t, winA.ID, "a confirmed draw has no winner")
	assert.Empty(t, winB.ID)
	require.Len(t, stats.draws, 1)
	assert.ElementsMatch(t, []string{"alice", "bob"}, stats.draws[0])
}

func TestDeclinedDrawDoesNotEndTheMatch(t *testing.T) {
	h := New(room.NewManager(), nil)
	sessA, connA, sessB, _, roomID := matchedPair(t, h)

	sessA.HandleMessage(context.Background(), envelope(t, proto.EventDraw, proto.RoomPayload{RoomID: roomID}))
	sessB.HandleMessage(context.Background(), envelope(t, proto.EventConfirmDraw, proto.ConfirmPayload{
		RoomID: roomID, Confirm: false,
	}))

	assert.NotContains(t, connA.events(), proto.EventGotWinner)
	// The offerer still learns the answer.
	var confirm proto.ConfirmPayload
	require.NoError(t, json.Unmarshal(connA.last(t, proto.EventConfirmDraw), &confirm))
	assert.False(t, confirm.Confirm)
}

func TestResignHandshake(t *testing.T) {
	h := New(room.NewManager(), nil)
	stats := &fakeStats{}
	h.stats = stats
	sessA, connA, sessB, connB, roomID := matchedPair(t, h)

	// Alice resigns, Bob confirms: Bob wins.
	sessA.HandleMessage(context.Background(), envelope(t, proto.EventLose, proto.RoomPayload{RoomID: roomID}))
	assert.Contains(t, connB.events(), proto.EventLose)

	sessB.HandleMessage(context.Background(), envelope(t, proto.EventConfirmLose, proto.ConfirmPayload{
		RoomID: roomID, Confirm: true,
	}))

	var winA, winB proto.GotWinnerPayload
	require.NoError(t, json.Unmarshal(connA.last(t, proto.EventGotWinner), &winA))
	require.NoError(t, json.Unmarshal(connB.last(t, proto.EventGotWinner), &winB))
	assert.Equal(t, "bob", winA.ID)
	assert.Equal(t, "bob", winB.ID)
	assert.Equal(t, []string{"bob"}, stats.wins)
}

func TestUndoHandshakeRelaysBothWays(t *testing.T) {
	h := New(room.NewManager(), nil)
	sessA, connA, sessB, connB, roomID := matchedPair(t, h)

	sessA.HandleMessage(context.Background(), envelope(t, proto.EventUndo, proto.RoomPayload{RoomID: roomID}))
	assert.Contains(t, connB.events(), proto.EventUndo)

	sessB.HandleMessage(context.Background(), envelope(t, proto.EventConfirmUndo, proto.ConfirmPayload{
		RoomID: roomID, Confirm: true,
	}))
	var confirm proto.ConfirmPayload
	require.NoError(t, json.Unmarshal(connA.last(t, proto.EventConfirmUndo), &confirm))
	assert.True(t, confirm.Confirm)

	// Undo resolution is client-side; the server ends nothing.
	assert.NotContains(t, connA.events(), proto.EventGotWinner)
}

func TestFinishMatchTearsDownRoom(t *testing.T) {
	h := New(room.NewManager(), nil)
	sessA, _, _, connB, roomID := matchedPair(t, h)

	sessA.HandleMessage(context.Background(), envelope(t, proto.EventFinishMatch, proto.RoomPayload{RoomID: roomID}))

	assert.Equal(t, 0, h.Rooms().Len())

	// Follow-up events for the dead room are rejected, not swallowed.
	before := len(connB.sent)
	sessA.HandleMessage(context.Background(), envelope(t, proto.EventChat, proto.ChatPayload{
		RoomID: roomID, Message: "anyone there?",
	}))
	assert.Len(t, connB.sent, before)
}

func TestUnknownRoomGetsErrorEvent(t *testing.T) {
	h := New(room.NewManager(), nil)
	conn := &fakeConn{}
	sess := h.NewSession("alice", conn)

	sess.HandleMessage(context.Background(), envelope(t, proto.EventReady, proto.RoomPayload{RoomID: "ghost"}))

	var errPayload proto.ErrorPayload
	require.NoError(t, json.Unmarshal(conn.last(t, proto.EventError), &errPayload))
	assert.Equal(t, proto.EventReady, errPayload.Event)
}

func TestMalformedMessageGetsErrorEvent(t *testing.T) {
	h := New(room.NewManager(), nil)
	conn := &fakeConn{}
	sess := h.NewSession("alice", conn)

	sess.HandleMessage(context.Background(), []byte("{not json"))
	assert.Contains(t, conn.events(), proto.EventError)

	conn.sent = nil
	sess.HandleMessage(context.Background(), envelope(t, "teleport", nil))
	var errPayload proto.ErrorPayload
	require.NoError(t, json.Unmarshal(conn.last(t, proto.EventError), &errPayload))
	assert.Equal(t, "unknown event", errPayload.Reason)
}

func TestDisconnectForfeitsToThePeer(t *testing.T) {
	h := New(room.NewManager(), nil)
	stats := &fakeStats{}
	h.stats = stats
	sessA, _, _, connB, _ := matchedPair(t, h)

	sessA.Close(context.Background())

	var win proto.GotWinnerPayload
	require.NoError(t, json.Unmarshal(connB.last(t, proto.EventGotWinner), &win))
	assert.Equal(t, "bob", win.ID)
	assert.Equal(t, []string{"bob"}, stats.wins)
	assert.Equal(t, 0, h.Rooms().Len(), "the dead room never stays matchable")
}

func TestDisconnectOfLonePlayerIsQuiet(t *testing.T) {
	h := New(room.NewManager(), nil)
	stats := &fakeStats{}
	h.stats = stats
	conn := &fakeConn{}
	sess := h.NewSession("alice", conn)
	findPlayer(t, sess, "Alice")

	sess.Close(context.Background())

	assert.Equal(t, 0, h.Rooms().Len())
	assert.Empty(t, stats.wins)
}

func TestSoloTurnComputerAnswers(t *testing.T) {
	h := New(room.NewManager(), nil)
	conn := &fakeConn{}
	sess := h.NewSession("alice", conn)

	b := testBoard(15, 15)
	b[7][7] = game.MarkX
	sess.HandleMessage(context.Background(), envelope(t, proto.EventNextTurn, proto.NextTurnPayload{
		RoomID: proto.SoloRoomID, Board: b, X: 7, Y: 7,
	}))

	var turn proto.NextTurnPayload
	require.NoError(t, json.Unmarshal(conn.last(t, proto.EventNextTurn), &turn))
	assert.Equal(t, game.MarkO, turn.Board[turn.X][turn.Y])
	assert.NotEqual(t, game.Cell{X: 7, Y: 7}, game.Cell{X: turn.X, Y: turn.Y})
	assert.NotContains(t, conn.events(), proto.EventGotWinner)
}

func TestSoloTurnHumanWinSkipsComputer(t *testing.T) {
	h := New(room.NewManager(), nil)
	stats := &fakeStats{}
	h.stats = stats
	conn := &fakeConn{}
	sess := h.NewSession("alice", conn)

	b := testBoard(15, 15)
	for y := 2; y <= 6; y++ {
		b[7][y] = game.MarkX
	}
	sess.HandleMessage(context.Background(), envelope(t, proto.EventNextTurn, proto.NextTurnPayload{
		RoomID: proto.SoloRoomID, Board: b, X: 7, Y: 6,
	}))

	var win proto.GotWinnerPayload
	require.NoError(t, json.Unmarshal(conn.last(t, proto.EventGotWinner), &win))
	assert.Equal(t, "alice", win.ID)
	assert.Len(t, win.Result, 5)
	assert.NotContains(t, conn.events(), proto.EventNextTurn, "the computer never moves after a human win")
	assert.Equal(t, []string{"alice"}, stats.wins)
}

func TestSoloTurnComputerWins(t *testing.T) {
	h := New(room.NewManager(), nil)
	conn := &fakeConn{}
	sess := h.NewSession("alice", conn)

	// One empty cell left at (0, 4) completing the computer's run.
	b := game.Board{{game.MarkO, game.MarkO, game.MarkO, game.MarkO, game.None, game.MarkX}}

	sess.HandleMessage(context.Background(), envelope(t, proto.EventNextTurn, proto.NextTurnPayload{
		RoomID: proto.SoloRoomID, Board: b, X: 0, Y: 5,
	}))

	var win proto.GotWinnerPayload
	require.NoError(t, json.Unmarshal(conn.last(t, proto.EventGotWinner), &win))
	assert.Equal(t, proto.ComputerPlayerID, win.ID)
	assert.Len(t, win.Result, 5)
}

func TestSoloTurnFullBoardIsADraw(t *testing.T) {
	h := New(room.NewManager(), nil)
	conn := &fakeConn{}
	sess := h.NewSession("alice", conn)

	b := testBoard(3, 3)
	for x := range b {
		for y := range b[x] {
			if (x+y)%2 == 0 {
				b[x][y] = game.MarkX
			} else {
				b[x][y] = game.MarkO
			}
		}
	}

	sess.HandleMessage(context.Background(), envelope(t, proto.EventNextTurn, proto.NextTurnPayload{
		RoomID: proto.SoloRoomID, Board: b, X: 2, Y: 2,
	}))

	var win proto.GotWinnerPayload
	require.NoError(t, json.Unmarshal(conn.last(t, proto.EventGotWinner), &win))
	assert.Empty(t, win.ID)
}

func TestMatchmakingFillsRoomsInOrder(t *testing.T) {
	h := New(room.NewManager(), nil)

	conns := make([]*fakeConn, 6)
	joined := make([]string, 6)
	for i := range conns {
		conns[i] = &fakeConn{}
		sess := h.NewSession(fmt.Sprintf("p%d", i), conns[i])
		findPlayer(t, sess, fmt.Sprintf("Player %d", i))

		var payload proto.JoinedRoomPayload
		require.NoError(t, json.Unmarshal(conns[i].last(t, proto.EventJoinedRoom), &payload))
		joined[i] = payload.RoomID
	}

	assert.Equal(t, joined[0], joined[1])
	assert.Equal(t, joined[2], joined[3])
	assert.Equal(t, joined[4], joined[5])
	assert.NotEqual(t, joined[0], joined[2])
	assert.Equal(t, 3, h.Rooms().Len())
}
