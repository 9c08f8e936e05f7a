// Package game implements the deterministic core of the duel: the seeded
// sequence generator, the procedural level generator and the N-body shot
// integrator. Nothing here reads the clock, performs I/O or uses global
// randomness; identical inputs always produce bit-identical outputs.
package game

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vovakirdan/gravity-duel/internal/core"
)

// Errors returned for invalid simulation input.
var (
	ErrInvalidLevel    = errors.New("game: level number must be >= 1")
	ErrInvalidShooter  = errors.New("game: shooter must be player 1 or 2")
	ErrNoShooterPlanet = errors.New("game: shooter has no planet in the layout")
	ErrInvalidAngle    = errors.New("game: angle must be within [-180, 180]")
	ErrInvalidPower    = errors.New("game: power out of range")
)

// Planet is a gravitating body. Owner is core.NoPlayer for neutral planets.
type Planet struct {
	X      float64       `json:"x"`
	Y      float64       `json:"y"`
	Radius float64       `json:"radius"`
	Mass   float64       `json:"mass"`
	Owner  core.PlayerID `json:"player"`
	Color  string        `json:"color"`
}

// Pos returns the planet center.
func (p Planet) Pos() core.Vec2 {
	return core.V(p.X, p.Y)
}

// Level is a generated planet layout. Planets are ordered player 1,
// player 2, then neutrals in placement order.
type Level struct {
	Seed    int32    `json:"seed"`
	Number  int      `json:"level"`
	Planets []Planet `json:"planets"`
}

// PlayerPlanet returns the planet owned by id.
func (l Level) PlayerPlanet(id core.PlayerID) (Planet, bool) {
	return findOwner(l.Planets, id)
}

// Neutrals returns the neutral planets of the layout.
func (l Level) Neutrals() []Planet {
	out := make([]Planet, 0, len(l.Planets))
	for _, p := range l.Planets {
		if p.Owner == core.NoPlayer {
			out = append(out, p)
		}
	}
	return out
}

func findOwner(planets []Planet, id core.PlayerID) (Planet, bool) {
	for _, p := range planets {
		if p.Owner == id {
			return p, true
		}
	}
	return Planet{}, false
}

// HitKind classifies how a shot ended.
type HitKind string

const (
	HitOpponent HitKind = "HIT"    // opponent's planet struck
	HitSelf     HitKind = "SELF"   // shooter's own planet struck
	HitPlanet   HitKind = "PLANET" // neutral planet struck
	HitLost     HitKind = "LOST"   // step budget exhausted
)

// ParseHitKind accepts the canonical names and the legacy client spellings
// ("HIT!", "self", "planet", "lost").
func ParseHitKind(s string) (HitKind, error) {
	switch strings.ToUpper(strings.TrimSuffix(strings.TrimSpace(s), "!")) {
	case "HIT":
		return HitOpponent, nil
	case "SELF":
		return HitSelf, nil
	case "PLANET":
		return HitPlanet, nil
	case "LOST":
		return HitLost, nil
	}
	return "", fmt.Errorf("game: unknown hit kind %q", s)
}

// Valid reports whether k is one of the four canonical kinds.
func (k HitKind) Valid() bool {
	switch k {
	case HitOpponent, HitSelf, HitPlanet, HitLost:
		return true
	}
	return false
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *HitKind) UnmarshalText(b []byte) error {
	parsed, err := ParseHitKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ShotRequest holds the player-chosen parameters of one shot.
type ShotRequest struct {
	Angle   float64       `json:"angle"` // degrees, 0 points along +X, positive turns toward +Y
	Power   int           `json:"power"`
	Shooter core.PlayerID `json:"shooter"`
}

// ShotResult is the complete outcome of a simulated shot.
// HitPlanetIndex is -1 when nothing was struck.
type ShotResult struct {
	Trail          []core.Vec2 `json:"trail"`
	Hit            bool        `json:"hit"`
	HitWhat        HitKind     `json:"hitWhat"`
	HitPlanetIndex int         `json:"hitPlanetIndex"`
	Steps          int         `json:"steps"`
}

// HitPlanet returns the index of the struck planet, if any.
func (r ShotResult) HitPlanet() (int, bool) {
	return r.HitPlanetIndex, r.HitPlanetIndex >= 0
}

// ShotSnapshot is an immutable view of an in-flight shot, suitable for
// handing to a renderer every frame.
type ShotSnapshot struct {
	Pos    core.Vec2
	Vel    core.Vec2
	Trail  []core.Vec2
	Steps  int
	Done   bool
	Result ShotResult // valid only when Done
}
