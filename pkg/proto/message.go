package proto

import (
	"encoding/json"

	"caro-server/internal/game"
)

// Inbound event names (client to server).
const (
	EventFindPlayer  = "find player"
	EventReady       = "ready"
	EventNextTurn    = "next turn"
	EventChat        = "chat"
	EventDraw        = "draw"
	EventConfirmDraw = "confirm draw"
	EventLose        = "lose"
	EventConfirmLose = "confirm lose"
	EventUndo        = "undo"
	EventConfirmUndo = "confirm undo"
	EventFinishMatch = "finish match"
)

// Outbound event names (server to client).
const (
	EventJoinedRoom  = "joined room"
	EventVsPlayer    = "vs player"
	EventPlayerReady = "player ready"
	EventStartGame   = "start game"
	EventGotWinner   = "got winner"
	EventError       = "error"
)

// SoloRoomID is the sentinel room id for single-player mode: there is no peer
// to relay to and the server supplies the opposing move itself.
const SoloRoomID = "none"

// ComputerPlayerID identifies the computer opponent in "got winner" results.
const ComputerPlayerID = "COMPUTER"

// Envelope frames every message on the wire.
type Envelope struct {
	Event   string          `json:"event" validate:"required"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// PlayerInfo is the display-only identity a client submits with "find player".
type PlayerInfo struct {
	Avatar string `json:"avatar"`
	Name   string `json:"name"`
}

// OpponentInfo mirrors PlayerInfo plus the opaque connection id. The ready
// flag is deliberately not exposed.
type OpponentInfo struct {
	ID     string `json:"id"`
	Avatar string `json:"avatar"`
	Name   string `json:"name"`
}

type FindPlayerPayload struct {
	Player PlayerInfo `json:"player"`
}

// RoomPayload carries events that only reference a room: ready, draw, lose,
// undo, finish match.
type RoomPayload struct {
	RoomID string `json:"roomId" validate:"required"`
}

// NextTurnPayload carries a move in both directions. RoomID may be the solo
// sentinel on the way in and is omitted on the way out.
type NextTurnPayload struct {
	RoomID string     `json:"roomId,omitempty"`
	Board  game.Board `json:"board" validate:"required"`
	X      int        `json:"x"`
	Y      int        `json:"y"`
}

type ChatPayload struct {
	RoomID  string `json:"roomId,omitempty" validate:"required"`
	Message string `json:"message"`
}

// ConfirmPayload answers a draw, lose, or undo offer.
type ConfirmPayload struct {
	RoomID  string `json:"roomId,omitempty" validate:"required"`
	Confirm bool   `json:"confirm"`
}

type JoinedRoomPayload struct {
	RoomID string `json:"roomId"`
}

type VsPlayerPayload struct {
	Player OpponentInfo `json:"player"`
}

type StartGamePayload struct {
	FirstPlayer string `json:"firstPlayer"`
}

// GotWinnerPayload resolves a match. An empty ID means no winner (a confirmed
// draw); Result lists the cells of the winning line when a move decided it.
type GotWinnerPayload struct {
	ID     string      `json:"id"`
	Result []game.Cell `json:"result,omitempty"`
}

// ErrorPayload rejects an event the server could not apply, naming the event
// so clients can correlate.
type ErrorPayload struct {
	Event  string `json:"event"`
	Reason string `json:"reason"`
}
