package hub

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math/rand/v2"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"caro-server/internal/apperror"
	"caro-server/internal/bot"
	"caro-server/internal/game"
	"caro-server/internal/player"
	"caro-server/internal/room"
	"caro-server/internal/validator"
	"caro-server/pkg/proto"
)

// Session dispatches the events of one connection through the game-flow state
// machine: find, join, ready, play, end. It is driven by a single transport
// goroutine, so its fields need no lock of their own; everything shared goes
// through the room registry.
type Session struct {
	hub    *Hub
	id     string
	conn   player.Connection
	player *player.Player
	roomID string
}

// ID returns the connection-scoped token the session was created with.
func (s *Session) ID() string {
	return s.id
}

// HandleMessage decodes one inbound envelope and applies it. Malformed
// envelopes are rejected with an error event; no failure is fatal to the
// session or to other rooms.
func (s *Session) HandleMessage(ctx context.Context, raw []byte) {
	ctx, span := tracer.Start(ctx, "session.HandleMessage", trace.WithAttributes(
		attribute.String("player.id", s.id),
	))
	defer span.End()

	var env proto.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		slog.WarnContext(ctx, "unreadable message", "player.id", s.id, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "unreadable message")
		s.sendError(ctx, "", "malformed message")
		return
	}
	if err := validator.GetValidator().Struct(env); err != nil {
		slog.WarnContext(ctx, "invalid envelope", "player.id", s.id, "error", err)
		span.SetStatus(codes.Error, "invalid envelope")
		s.sendError(ctx, env.Event, "missing event name")
		return
	}
	span.SetAttributes(attribute.String("message.event", env.Event))

	switch env.Event {
	case proto.EventFindPlayer:
		var p proto.FindPlayerPayload
		if s.decode(ctx, env, &p) {
			s.handleFindPlayer(ctx, p)
		}
	case proto.EventReady:
		var p proto.RoomPayload
		if s.decode(ctx, env, &p) {
			s.handleReady(ctx, p)
		}
	case proto.EventNextTurn:
		var p proto.NextTurnPayload
		if s.decode(ctx, env, &p) {
			s.handleNextTurn(ctx, p)
		}
	case proto.EventChat:
		var p proto.ChatPayload
		if s.decode(ctx, env, &p) {
			s.relay(ctx, env.Event, p.RoomID, proto.ChatPayload{Message: p.Message})
		}
	case proto.EventDraw, proto.EventLose, proto.EventUndo:
		var p proto.RoomPayload
		if s.decode(ctx, env, &p) {
			s.relay(ctx, env.Event, p.RoomID, nil)
		}
	case proto.EventConfirmUndo:
		var p proto.ConfirmPayload
		if s.decode(ctx, env, &p) {
			s.relay(ctx, env.Event, p.RoomID, proto.ConfirmPayload{Confirm: p.Confirm})
		}
	case proto.EventConfirmDraw:
		var p proto.ConfirmPayload
		if s.decode(ctx, env, &p) {
			s.handleConfirmDraw(ctx, p)
		}
	case proto.EventConfirmLose:
		var p proto.ConfirmPayload
		if s.decode(ctx, env, &p) {
			s.handleConfirmLose(ctx, p)
		}
	case proto.EventFinishMatch:
		var p proto.RoomPayload
		if s.decode(ctx, env, &p) {
			s.handleFinishMatch(ctx, p)
		}
	default:
		slog.WarnContext(ctx, "unknown event", "player.id", s.id, "event", env.Event)
		s.sendError(ctx, env.Event, "unknown event")
	}
}

// Close handles a dropped connection. The seat is vacated and the room torn
// down so it can never stay matchable-but-stuck; a peer left behind in a full
// room wins by forfeit.
func (s *Session) Close(ctx context.Context) {
	if s.roomID == "" {
		return
	}

	var peer *player.Player
	var wasFull bool
	err := s.hub.rooms.WithRoom(s.roomID, func(r *room.Room) error {
		wasFull = r.IsFull()
		r.RemovePlayer(s.id)
		peer = r.Opponent(s.id)
		return nil
	})
	if err != nil {
		return
	}

	s.hub.rooms.RemoveRoom(s.roomID)
	slog.InfoContext(ctx, "player left, room torn down", "player.id", s.id, "room.id", s.roomID)
	s.roomID = ""

	if peer != nil && wasFull {
		s.sendTo(ctx, peer, proto.EventGotWinner, proto.GotWinnerPayload{ID: peer.ID})
		s.hub.recordWin(ctx, peer.ID)
	}
}

func (s *Session) handleFindPlayer(ctx context.Context, p proto.FindPlayerPayload) {
	s.player = player.New(s.id, p.Player.Avatar, p.Player.Name, s.conn)

	roomID, occupants, err := s.hub.rooms.JoinOrCreate(s.player, roomCapacity, uuid.NewString)
	if err != nil {
		slog.ErrorContext(ctx, "matchmaking failed", "player.id", s.id, "error", err)
		s.sendError(ctx, proto.EventFindPlayer, err.Error())
		return
	}
	s.roomID = roomID

	slog.InfoContext(ctx, "player matched", "player.id", s.id, "room.id", roomID, "occupants", len(occupants))
	s.send(ctx, proto.EventJoinedRoom, proto.JoinedRoomPayload{RoomID: roomID})

	// The arrival that fills the room triggers the mutual introduction.
	if len(occupants) == roomCapacity {
		for _, other := range occupants {
			if other.ID == s.id {
				continue
			}
			s.sendTo(ctx, other, proto.EventVsPlayer, proto.VsPlayerPayload{Player: opponentInfo(s.player)})
			s.send(ctx, proto.EventVsPlayer, proto.VsPlayerPayload{Player: opponentInfo(other)})
		}
	}
}

func (s *Session) handleReady(ctx context.Context, p proto.RoomPayload) {
	var occupants []*player.Player
	var firstPlayer string

	err := s.hub.rooms.WithRoom(p.RoomID, func(r *room.Room) error {
		r.ReadyPlayer(s.id)
		occupants = r.Occupants()
		if r.IsReady() {
			firstPlayer = r.Players[rand.IntN(len(r.Players))].ID
		}
		return nil
	})
	if err != nil {
		s.rejectRoom(ctx, proto.EventReady, p.RoomID, err)
		return
	}

	for _, other := range occupants {
		if other.ID != s.id {
			s.sendTo(ctx, other, proto.EventPlayerReady, nil)
		}
	}
	if firstPlayer != "" {
		slog.InfoContext(ctx, "match starting", "room.id", p.RoomID, "first.player", firstPlayer)
		s.broadcast(ctx, occupants, proto.EventStartGame, proto.StartGamePayload{FirstPlayer: firstPlayer})
	}
}

func (s *Session) handleNextTurn(ctx context.Context, p proto.NextTurnPayload) {
	if p.RoomID == "" || p.RoomID == proto.SoloRoomID {
		s.handleSoloTurn(ctx, p)
		return
	}

	var occupants []*player.Player
	err := s.hub.rooms.WithRoom(p.RoomID, func(r *room.Room) error {
		occupants = r.Occupants()
		return nil
	})
	if err != nil {
		s.rejectRoom(ctx, proto.EventNextTurn, p.RoomID, err)
		return
	}

	// Relay first, then resolve: the peer sees the move even when it wins.
	for _, other := range occupants {
		if other.ID != s.id {
			s.sendTo(ctx, other, proto.EventNextTurn, proto.NextTurnPayload{Board: p.Board, X: p.X, Y: p.Y})
		}
	}

	if res := game.CheckWin(p.Board, p.X, p.Y); res.Won {
		slog.InfoContext(ctx, "got winner", "room.id", p.RoomID, "player.id", s.id)
		s.broadcast(ctx, occupants, proto.EventGotWinner, proto.GotWinnerPayload{ID: s.id, Result: res.Line})
		s.hub.recordWin(ctx, s.id)
	}
}

// handleSoloTurn resolves a single-player move: the human's placement is
// checked first and, when it wins, the computer never moves.
func (s *Session) handleSoloTurn(ctx context.Context, p proto.NextTurnPayload) {
	if res := game.CheckWin(p.Board, p.X, p.Y); res.Won {
		s.send(ctx, proto.EventGotWinner, proto.GotWinnerPayload{ID: s.id, Result: res.Line})
		s.hub.recordWin(ctx, s.id)
		return
	}

	board, x, y := bot.NextMove(p.Board, p.X, p.Y)
	if x < 0 {
		// No empty cell left and the human did not win.
		s.send(ctx, proto.EventGotWinner, proto.GotWinnerPayload{})
		return
	}

	s.send(ctx, proto.EventNextTurn, proto.NextTurnPayload{Board: board, X: x, Y: y})

	if res := game.CheckWin(board, x, y); res.Won {
		s.send(ctx, proto.EventGotWinner, proto.GotWinnerPayload{ID: proto.ComputerPlayerID, Result: res.Line})
	}
}

func (s *Session) handleConfirmDraw(ctx context.Context, p proto.ConfirmPayload) {
	occupants, ok := s.relay(ctx, proto.EventConfirmDraw, p.RoomID, proto.ConfirmPayload{Confirm: p.Confirm})
	if !ok || !p.Confirm {
		return
	}

	// Accepted draw: neutral end of match for the whole room.
	s.broadcast(ctx, occupants, proto.EventGotWinner, proto.GotWinnerPayload{})
	s.hub.recordDraw(ctx, occupants)
}

func (s *Session) handleConfirmLose(ctx context.Context, p proto.ConfirmPayload) {
	occupants, ok := s.relay(ctx, proto.EventConfirmLose, p.RoomID, proto.ConfirmPayload{Confirm: p.Confirm})
	if !ok || !p.Confirm {
		return
	}

	// The confirmer is the resigner's opponent: the side that signaled
	// "lose" forfeits.
	s.broadcast(ctx, occupants, proto.EventGotWinner, proto.GotWinnerPayload{ID: s.id})
	s.hub.recordWin(ctx, s.id)
}

func (s *Session) handleFinishMatch(ctx context.Context, p proto.RoomPayload) {
	s.hub.rooms.RemoveRoom(p.RoomID)
	if s.roomID == p.RoomID {
		s.roomID = ""
	}
	slog.InfoContext(ctx, "match finished", "room.id", p.RoomID, "player.id", s.id)
}

// relay forwards an event verbatim to the other occupant of the room and
// returns the roster snapshot for follow-up broadcasts.
func (s *Session) relay(ctx context.Context, event, roomID string, payload any) ([]*player.Player, bool) {
	var occupants []*player.Player
	err := s.hub.rooms.WithRoom(roomID, func(r *room.Room) error {
		occupants = r.Occupants()
		return nil
	})
	if err != nil {
		s.rejectRoom(ctx, event, roomID, err)
		return nil, false
	}

	for _, other := range occupants {
		if other.ID != s.id {
			s.sendTo(ctx, other, event, payload)
		}
	}
	return occupants, true
}

func (s *Session) decode(ctx context.Context, env proto.Envelope, into any) bool {
	if err := json.Unmarshal(env.Payload, into); err != nil {
		slog.WarnContext(ctx, "bad payload", "player.id", s.id, "event", env.Event, "error", err)
		s.sendError(ctx, env.Event, "malformed payload")
		return false
	}
	if err := validator.GetValidator().Struct(into); err != nil {
		slog.WarnContext(ctx, "invalid payload", "player.id", s.id, "event", env.Event, "error", err)
		s.sendError(ctx, env.Event, "invalid payload")
		return false
	}
	return true
}

// rejectRoom answers an event naming an unknown room with an explicit error
// event instead of swallowing it.
func (s *Session) rejectRoom(ctx context.Context, event, roomID string, err error) {
	if errors.Is(err, apperror.ErrRoomNotFound) {
		slog.WarnContext(ctx, "event for unknown room", "player.id", s.id, "event", event, "room.id", roomID)
	}
	s.sendError(ctx, event, err.Error())
}

func (s *Session) send(ctx context.Context, event string, payload any) {
	s.write(ctx, s.conn, event, payload)
}

func (s *Session) sendTo(ctx context.Context, p *player.Player, event string, payload any) {
	s.write(ctx, p.Conn, event, payload)
}

func (s *Session) broadcast(ctx context.Context, players []*player.Player, event string, payload any) {
	for _, p := range players {
		s.write(ctx, p.Conn, event, payload)
	}
}

func (s *Session) sendError(ctx context.Context, event, reason string) {
	s.write(ctx, s.conn, proto.EventError, proto.ErrorPayload{Event: event, Reason: reason})
}

func (s *Session) write(ctx context.Context, conn player.Connection, event string, payload any) {
	if conn == nil {
		return
	}

	env := proto.Envelope{Event: event}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			slog.ErrorContext(ctx, "error marshalling payload", "event", event, "error", err)
			return
		}
		env.Payload = data
	}

	data, err := json.Marshal(env)
	if err != nil {
		slog.ErrorContext(ctx, "error marshalling envelope", "event", event, "error", err)
		return
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		slog.WarnContext(ctx, "error writing to player", "event", event, "error", err)
	}
}

func opponentInfo(p *player.Player) proto.OpponentInfo {
	return proto.OpponentInfo{ID: p.ID, Avatar: p.Avatar, Name: p.Name}
}
