// Package protocol implements the JSON envelope spoken between duel clients
// and rooms. Every frame is {"type": ..., "data": {...}} in both directions.
package protocol

import (
	"encoding/json"
	"errors"
)

// Client message types.
const (
	MsgFire         = "fire"
	MsgReportResult = "report_result"
)

// Room event types.
const (
	MsgRoomState          = "room_state"
	MsgPlayerJoined       = "player_joined"
	MsgShotFired          = "shot_fired"
	MsgShotResult         = "shot_result"
	MsgPlayerDisconnected = "player_disconnected"
	MsgPlayerReconnected  = "player_reconnected"
	MsgError              = "error"
)

// Envelope is one frame on the wire.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

var (
	// ErrMalformed marks a frame that is not a JSON object of the expected shape.
	ErrMalformed = errors.New("protocol: malformed message")
	// ErrUnknownType marks a well-formed frame with an unsupported type.
	ErrUnknownType = errors.New("protocol: unknown message type")
)
