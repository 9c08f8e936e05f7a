package game

import (
	"errors"
	"fmt"
)

// Field is the size of the toroidal play area in field units.
type Field struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// Span is a half-open sampling interval [Min, Max).
type Span struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

func (s Span) sample(seq *Sequence) float64 {
	return seq.Range(s.Min, s.Max)
}

func (s Span) validate(name string) error {
	if s.Max < s.Min {
		return fmt.Errorf("game: %s: max %v < min %v", name, s.Max, s.Min)
	}
	return nil
}

// Params holds the physics constants. Two peers must use identical
// values or their trajectories diverge.
type Params struct {
	Field        Field
	G            float64
	MissileSpeed float64 // speed at power 100, field units per substep
	DT           float64
	MinGravDist  float64
	HitMargin    float64
	CannonOffset float64 // distance of the cannon tip beyond the planet surface
	Substeps     int     // substeps per outer tick
	MaxSteps     int     // total substep budget before a shot is LOST
	MaxTrail     int
	MinPower     int
	MaxPower     int
}

// DefaultParams returns the canonical physics constants.
func DefaultParams() Params {
	return Params{
		Field:        Field{Width: 1125, Height: 800},
		G:            200,
		MissileSpeed: 9,
		DT:           0.016,
		MinGravDist:  25,
		HitMargin:    2,
		CannonOffset: 22,
		Substeps:     10,
		MaxSteps:     12000,
		MaxTrail:     2000,
		MinPower:     20,
		MaxPower:     100,
	}
}

// Validate checks that the parameters describe a usable simulation.
func (p Params) Validate() error {
	switch {
	case p.Field.Width <= 0 || p.Field.Height <= 0:
		return errors.New("game: field dimensions must be positive")
	case p.DT <= 0:
		return errors.New("game: dt must be positive")
	case p.MinGravDist <= 0:
		return errors.New("game: min gravity distance must be positive")
	case p.Substeps <= 0:
		return errors.New("game: substeps must be positive")
	case p.MaxSteps <= 0:
		return errors.New("game: max steps must be positive")
	case p.MaxTrail < 2:
		return errors.New("game: max trail must be at least 2")
	case p.MinPower <= 0 || p.MaxPower < p.MinPower:
		return fmt.Errorf("game: invalid power range [%d, %d]", p.MinPower, p.MaxPower)
	}
	return nil
}

// LevelParams controls procedural level generation.
type LevelParams struct {
	Field          Field
	SeedStride     int32
	MinSpacing     float64
	PlayerRadius   Span
	PlayerMass     Span
	NeutralRadius  Span
	NeutralMass    Span
	PlayerInset    Span    // horizontal band measured from the player's own edge
	PlayerMarginY  float64 // vertical margin for both player planets
	NeutralBase    int
	NeutralCap     int
	P2Attempts     int
	NeutralTries   int
	CorridorChance float64
	EdgeChance     float64 // cumulative with CorridorChance
}

// DefaultLevelParams returns the canonical level generation settings.
func DefaultLevelParams() LevelParams {
	return LevelParams{
		Field:          Field{Width: 1125, Height: 800},
		SeedStride:     9973,
		MinSpacing:     120,
		PlayerRadius:   Span{18, 26},
		PlayerMass:     Span{20, 40},
		NeutralRadius:  Span{30, 70},
		NeutralMass:    Span{150, 500},
		PlayerInset:    Span{90, 250},
		PlayerMarginY:  180,
		NeutralBase:    4,
		NeutralCap:     8,
		P2Attempts:     80,
		NeutralTries:   100,
		CorridorChance: 0.35,
		EdgeChance:     0.60,
	}
}

// Validate checks the generation settings.
func (p LevelParams) Validate() error {
	if p.Field.Width <= 0 || p.Field.Height <= 0 {
		return errors.New("game: field dimensions must be positive")
	}
	spans := []struct {
		name string
		s    Span
	}{
		{"player radius", p.PlayerRadius},
		{"player mass", p.PlayerMass},
		{"neutral radius", p.NeutralRadius},
		{"neutral mass", p.NeutralMass},
		{"player inset", p.PlayerInset},
	}
	for _, sp := range spans {
		if err := sp.s.validate(sp.name); err != nil {
			return err
		}
	}
	if p.PlayerRadius.Min <= 0 || p.NeutralRadius.Min <= 0 {
		return errors.New("game: planet radius must be positive")
	}
	if p.PlayerMass.Min <= 0 || p.NeutralMass.Min <= 0 {
		return errors.New("game: planet mass must be positive")
	}
	if p.NeutralBase < 0 || p.NeutralCap < p.NeutralBase {
		return fmt.Errorf("game: invalid neutral count range [%d, %d]", p.NeutralBase, p.NeutralCap)
	}
	if p.P2Attempts < 1 || p.NeutralTries < 1 {
		return errors.New("game: attempt counts must be positive")
	}
	if p.CorridorChance < 0 || p.EdgeChance < p.CorridorChance || p.EdgeChance > 1 {
		return errors.New("game: placement chances must satisfy 0 <= corridor <= edge <= 1")
	}
	return nil
}

// TargetNeutrals returns how many neutral planets a level attempts to place.
func (p LevelParams) TargetNeutrals(level int) int {
	return min(p.NeutralBase+level/2, p.NeutralCap)
}
