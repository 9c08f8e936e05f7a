package multiplayer

import "errors"

// Lifecycle failures, surfaced to the caller of the request.
var (
	ErrRoomNotFound  = errors.New("room not found")
	ErrRoomFull      = errors.New("room full")
	ErrInvalidPlayer = errors.New("invalid player")
	ErrPersist       = errors.New("failed to persist room")
)

// Protocol violations, answered with an error event to the sender only.
var (
	ErrNotYourTurn   = errors.New("not your turn")
	ErrNotStarted    = errors.New("match has not started")
	ErrShotPending   = errors.New("shot already in flight")
	ErrNoPendingShot = errors.New("no shot to report")
	ErrInvalidShot   = errors.New("invalid shot parameters")
	ErrInvalidReport = errors.New("inconsistent shot report")
	ErrStaleSession  = errors.New("session replaced by a newer connection")
)

// ErrSessionClosed is returned by SessionHandle.Send after the session ended.
var ErrSessionClosed = errors.New("session closed")

// ErrEventDropped is returned by ChannelSession.Send when a full buffer cost
// the reader an event.
var ErrEventDropped = errors.New("session buffer full, event dropped")

// ErrManagerStopped is returned for requests arriving after shutdown.
var ErrManagerStopped = errors.New("room manager stopped")

// errRoomClosed is returned when a command reaches a room that has stopped.
var errRoomClosed = errors.New("room closed")

// ErrorCode maps an error to its wire code.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrRoomNotFound), errors.Is(err, errRoomClosed):
		return "ROOM_NOT_FOUND"
	case errors.Is(err, ErrRoomFull):
		return "ROOM_FULL"
	case errors.Is(err, ErrInvalidPlayer):
		return "INVALID_PLAYER"
	case errors.Is(err, ErrNotYourTurn):
		return "NOT_YOUR_TURN"
	case errors.Is(err, ErrNotStarted):
		return "NOT_STARTED"
	case errors.Is(err, ErrShotPending):
		return "SHOT_PENDING"
	case errors.Is(err, ErrNoPendingShot):
		return "NO_PENDING_SHOT"
	case errors.Is(err, ErrInvalidShot):
		return "INVALID_SHOT"
	case errors.Is(err, ErrInvalidReport):
		return "INVALID_REPORT"
	case errors.Is(err, ErrStaleSession):
		return "STALE_SESSION"
	default:
		return "INTERNAL"
	}
}
