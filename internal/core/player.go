package core

// PlayerID identifies a seat in a duel. Player1 always fires first.
// The zero value marks neutral planets and "no player".
type PlayerID int

const (
	NoPlayer PlayerID = 0
	Player1  PlayerID = 1
	Player2  PlayerID = 2
)

// Valid reports whether id is one of the two seats.
func (id PlayerID) Valid() bool {
	return id == Player1 || id == Player2
}

// Opponent returns the other seat. NoPlayer maps to NoPlayer.
func (id PlayerID) Opponent() PlayerID {
	switch id {
	case Player1:
		return Player2
	case Player2:
		return Player1
	default:
		return NoPlayer
	}
}

// Index returns the zero-based slot used by two-element score arrays.
func (id PlayerID) Index() int {
	return int(id) - 1
}
