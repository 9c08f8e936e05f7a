// Package multiplayer referees duels between two remote players. Each room
// is a single-writer actor owning its turn, score and level counters; the
// Manager routes lifecycle requests and client messages to it. Rooms never
// simulate shots: both clients reproduce them from the shared seed.
package multiplayer

import (
	"time"

	"github.com/vovakirdan/gravity-duel/internal/core"
	"github.com/vovakirdan/gravity-duel/internal/game"
)

// PlayerID is an alias to core.PlayerID for convenience.
type PlayerID = core.PlayerID

// Re-export player constants for convenience.
const (
	Player1 = core.Player1
	Player2 = core.Player2
)

// SessionID uniquely identifies one connection (WebSocket or SSH).
type SessionID string

// RoomID is the join code of a room.
type RoomID string

// Status is the lifecycle state of a room.
type Status string

const (
	StatusWaiting Status = "WAITING" // only player 1 has joined
	StatusPlaying Status = "PLAYING" // both seats taken, turn cycle active
)

// ShotRecord is one entry of the bounded shot history.
type ShotRecord struct {
	Player PlayerID     `json:"player"`
	Result game.HitKind `json:"result"`
}

// PendingShot is a fired shot whose outcome has not been reported yet.
type PendingShot struct {
	Player PlayerID `json:"player"`
	Angle  float64  `json:"angle"`
	Power  int      `json:"power"`
}

// RoomRecord is the durable state of a room.
type RoomRecord struct {
	ID          RoomID       `json:"roomId"`
	Seed        int32        `json:"seed"`
	Level       int          `json:"level"`
	Scores      [2]int       `json:"scores"`
	Turn        PlayerID     `json:"turn"`
	Players     [2]bool      `json:"players"`
	Status      Status       `json:"status"`
	ShotHistory []ShotRecord `json:"shotHistory"`
	ShotCount   int          `json:"shotCount"` // total reported shots, history is windowed
	Pending     *PendingShot `json:"pending,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// NewRoomRecord returns the initial record of a freshly created room.
func NewRoomRecord(id RoomID, seed int32, now time.Time) RoomRecord {
	return RoomRecord{
		ID:          id,
		Seed:        seed,
		Level:       1,
		Turn:        Player1,
		Players:     [2]bool{true, false},
		Status:      StatusWaiting,
		ShotHistory: []ShotRecord{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Clone returns a deep copy of the record.
func (r RoomRecord) Clone() RoomRecord {
	c := r
	c.ShotHistory = append([]ShotRecord{}, r.ShotHistory...)
	if r.Pending != nil {
		p := *r.Pending
		c.Pending = &p
	}
	return c
}

// Joined reports whether the seat of id has been taken.
func (r RoomRecord) Joined(id PlayerID) bool {
	return id.Valid() && r.Players[id.Index()]
}

// Winner returns the leading player, or core.NoPlayer on a tie.
func (r RoomRecord) Winner() PlayerID {
	switch {
	case r.Scores[0] > r.Scores[1]:
		return Player1
	case r.Scores[1] > r.Scores[0]:
		return Player2
	default:
		return core.NoPlayer
	}
}

// RoomState is the full snapshot sent to a connecting session.
type RoomState struct {
	Seed        int32        `json:"seed"`
	Level       int          `json:"level"`
	Scores      [2]int       `json:"scores"`
	Turn        PlayerID     `json:"turn"`
	Status      Status       `json:"status"`
	ShotHistory []ShotRecord `json:"shotHistory"`
	Players     [2]bool      `json:"players"`
	Pending     *PendingShot `json:"pending,omitempty"`
	PlayerID    PlayerID     `json:"playerId"`
}

// RoomSummary is the public view of a room for lifecycle endpoints.
type RoomSummary struct {
	ID        RoomID   `json:"roomId"`
	Status    Status   `json:"status"`
	Level     int      `json:"level"`
	Scores    [2]int   `json:"scores"`
	Turn      PlayerID `json:"turn"`
	Connected [2]bool  `json:"connected"`
}

// CreateResult is returned to the creator of a room.
type CreateResult struct {
	RoomID   RoomID   `json:"roomId"`
	PlayerID PlayerID `json:"playerId"`
	Seed     int32    `json:"seed"`
}

// JoinResult is returned to the player taking the second seat.
type JoinResult = CreateResult

// ShotLogEntry is one row of the complete, unbounded shot log.
type ShotLogEntry struct {
	Seq     int          `json:"seq"`
	Player  PlayerID     `json:"player"`
	Level   int          `json:"level"`
	Angle   float64      `json:"angle"`
	Power   int          `json:"power"`
	Hit     bool         `json:"hit"`
	HitWhat game.HitKind `json:"hitWhat"`
	At      time.Time    `json:"at"`
}

// MatchArchive is the final score line kept after a room is evicted.
type MatchArchive struct {
	RoomID    RoomID    `json:"roomId"`
	Seed      int32     `json:"seed"`
	Level     int       `json:"level"`
	Scores    [2]int    `json:"scores"`
	Winner    PlayerID  `json:"winner"`
	Shots     int       `json:"shots"`
	CreatedAt time.Time `json:"createdAt"`
	EndedAt   time.Time `json:"endedAt"`
}
