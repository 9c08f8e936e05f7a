package multiplayer

import "github.com/vovakirdan/gravity-duel/internal/game"

// SessionEvent represents an event sent from a room to a session.
type SessionEvent interface {
	sessionEvent()
}

// RoomStateEvent carries the full room snapshot. Sent once per connection.
type RoomStateEvent struct {
	RoomState
}

func (RoomStateEvent) sessionEvent() {}

// PlayerJoinedEvent is broadcast when the second seat is taken.
type PlayerJoinedEvent struct {
	Status Status `json:"status"`
}

func (PlayerJoinedEvent) sessionEvent() {}

// ShotFiredEvent relays the active player's shot parameters to everyone,
// the shooter included.
type ShotFiredEvent struct {
	Player PlayerID `json:"player"`
	Angle  float64  `json:"angle"`
	Power  int      `json:"power"`
}

func (ShotFiredEvent) sessionEvent() {}

// ShotResultEvent is broadcast after the shooter reports the outcome.
type ShotResultEvent struct {
	Hit     bool         `json:"hit"`
	HitWhat game.HitKind `json:"hitWhat"`
	Scores  [2]int       `json:"scores"`
	Level   int          `json:"level"`
	Seed    int32        `json:"seed"`
	Turn    PlayerID     `json:"turn"`
}

func (ShotResultEvent) sessionEvent() {}

// PlayerDisconnectedEvent is broadcast when a session goes away.
type PlayerDisconnectedEvent struct {
	Player PlayerID `json:"player"`
}

func (PlayerDisconnectedEvent) sessionEvent() {}

// PlayerReconnectedEvent tells the other player that a seat was rebound.
type PlayerReconnectedEvent struct {
	Player PlayerID `json:"player"`
}

func (PlayerReconnectedEvent) sessionEvent() {}

// ErrorEvent is sent to a single session whose request was rejected.
type ErrorEvent struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

func (ErrorEvent) sessionEvent() {}

// errorEvent builds the event for a rejected request.
func errorEvent(err error) ErrorEvent {
	return ErrorEvent{Message: err.Error(), Code: ErrorCode(err)}
}

// ClientMessage represents a message from a player's session to its room.
type ClientMessage interface {
	clientMessage()
}

// FireMsg asks the room to relay a shot. Power arrives as a JSON number and
// must be integral.
type FireMsg struct {
	Angle float64 `json:"angle"`
	Power float64 `json:"power"`
}

func (FireMsg) clientMessage() {}

// ReportResultMsg carries the shooter's locally simulated outcome.
type ReportResultMsg struct {
	Hit     bool         `json:"hit"`
	HitWhat game.HitKind `json:"hitWhat"`
}

func (ReportResultMsg) clientMessage() {}
