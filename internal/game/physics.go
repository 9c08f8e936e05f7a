package game

import (
	"context"
	"math"

	"github.com/vovakirdan/gravity-duel/internal/core"
)

// Products that feed an addition are wrapped in float64() so the compiler
// never fuses them into FMA instructions; results must match bit for bit
// across platforms.

// WrapPosition maps p into [0, W) x [0, H).
func WrapPosition(f Field, p core.Vec2) core.Vec2 {
	return core.V(wrapAxis(p.X, f.Width), wrapAxis(p.Y, f.Height))
}

func wrapAxis(v, size float64) float64 {
	v = math.Mod(v, size)
	if v < 0 {
		v += size
	}
	return v
}

// WrappedDelta returns the shortest displacement from `from` to `to` on the
// torus.
func WrappedDelta(f Field, from, to core.Vec2) core.Vec2 {
	return core.V(shortest(to.X-from.X, f.Width), shortest(to.Y-from.Y, f.Height))
}

func shortest(d, size float64) float64 {
	if d > size/2 {
		return d - size
	}
	if d < -size/2 {
		return d + size
	}
	return d
}

// CannonTip returns the launch point for a shot at angle degrees.
func CannonTip(pl Planet, angle, offset float64) core.Vec2 {
	cos, sin := direction(angle)
	reach := pl.Radius + offset
	return core.V(
		pl.X+float64(cos*reach),
		pl.Y+float64(sin*reach),
	)
}

// Shot is an in-flight projectile. It is advanced one outer tick at a time
// with Step, or driven to completion with Run. A Shot is owned by a single
// goroutine; Snapshot hands out copies that are safe to share.
type Shot struct {
	planets  []Planet
	p        Params
	shooter  core.PlayerID
	opponent core.PlayerID

	pos   core.Vec2
	vel   core.Vec2
	trail []core.Vec2
	steps int

	done   bool
	result ShotResult
}

// NewShot validates the request and places the missile at the cannon tip.
func NewShot(planets []Planet, req ShotRequest, p Params) (*Shot, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if !req.Shooter.Valid() {
		return nil, ErrInvalidShooter
	}
	if math.IsNaN(req.Angle) || req.Angle < -180 || req.Angle > 180 {
		return nil, ErrInvalidAngle
	}
	if req.Power < p.MinPower || req.Power > p.MaxPower {
		return nil, ErrInvalidPower
	}
	me, ok := findOwner(planets, req.Shooter)
	if !ok {
		return nil, ErrNoShooterPlanet
	}

	tip := CannonTip(me, req.Angle, p.CannonOffset)
	cos, sin := direction(req.Angle)
	speed := float64(req.Power) / 100 * p.MissileSpeed

	trail := make([]core.Vec2, 1, 256)
	trail[0] = tip

	return &Shot{
		planets:  append([]Planet(nil), planets...),
		p:        p,
		shooter:  req.Shooter,
		opponent: req.Shooter.Opponent(),
		pos:      tip,
		vel:      core.V(cos*speed, sin*speed),
		trail:    trail,
	}, nil
}

// SimulateShot runs a shot to completion and returns its outcome.
func SimulateShot(planets []Planet, req ShotRequest, p Params) (ShotResult, error) {
	s, err := NewShot(planets, req, p)
	if err != nil {
		return ShotResult{}, err
	}
	for !s.Step() {
	}
	res, _ := s.Result()
	return res, nil
}

// Step advances one outer tick (Params.Substeps substeps) and reports
// whether the shot has finished. Calling Step on a finished shot is a no-op.
// Frame-driven callers such as the duel view step once per animation tick;
// Run is the goroutine-friendly alternative.
func (s *Shot) Step() bool {
	for sub := 0; sub < s.p.Substeps && !s.done; sub++ {
		s.substep()
	}
	return s.done
}

func (s *Shot) substep() {
	var ax, ay float64
	minSq := float64(s.p.MinGravDist * s.p.MinGravDist)

	for i, pl := range s.planets {
		d := WrappedDelta(s.p.Field, s.pos, pl.Pos())
		distSq := float64(d.X*d.X) + float64(d.Y*d.Y)
		dist := math.Sqrt(distSq)

		if dist < pl.Radius+s.p.HitMargin {
			s.push(s.pos)
			s.finish(s.classify(pl.Owner), i)
			return
		}

		force := float64(s.p.G*pl.Mass) / math.Max(distSq, minSq)
		ax += float64(force*d.X) / dist
		ay += float64(force*d.Y) / dist
	}

	// Velocity is in field units per substep; dt scales acceleration only.
	s.vel.X += float64(ax * s.p.DT)
	s.vel.Y += float64(ay * s.p.DT)
	s.pos = WrapPosition(s.p.Field, core.V(s.pos.X+s.vel.X, s.pos.Y+s.vel.Y))
	s.push(s.pos)

	s.steps++
	if s.steps >= s.p.MaxSteps {
		s.finish(HitLost, -1)
	}
}

func (s *Shot) push(p core.Vec2) {
	s.trail = append(s.trail, p)
	if len(s.trail) > s.p.MaxTrail {
		s.trail = s.trail[len(s.trail)-s.p.MaxTrail:]
	}
}

func (s *Shot) classify(owner core.PlayerID) HitKind {
	switch owner {
	case s.opponent:
		return HitOpponent
	case s.shooter:
		return HitSelf
	default:
		return HitPlanet
	}
}

func (s *Shot) finish(kind HitKind, index int) {
	s.done = true
	s.result = ShotResult{
		Trail:          append([]core.Vec2(nil), s.trail...),
		Hit:            kind == HitOpponent,
		HitWhat:        kind,
		HitPlanetIndex: index,
		Steps:          s.steps,
	}
}

// Done reports whether the shot has finished.
func (s *Shot) Done() bool {
	return s.done
}

// Result returns the final outcome once the shot has finished.
func (s *Shot) Result() (ShotResult, bool) {
	if !s.done {
		return ShotResult{}, false
	}
	res := s.result
	res.Trail = append([]core.Vec2(nil), s.result.Trail...)
	return res, true
}

// Snapshot returns an immutable copy of the current flight state.
func (s *Shot) Snapshot() ShotSnapshot {
	snap := ShotSnapshot{
		Pos:   s.pos,
		Vel:   s.vel,
		Trail: append([]core.Vec2(nil), s.trail...),
		Steps: s.steps,
		Done:  s.done,
	}
	if s.done {
		snap.Result, _ = s.Result()
	}
	return snap
}

// Run drives the shot to completion, handing observe a snapshot after every
// tick. It returns ctx.Err() if the context is cancelled first; observe is
// not called after cancellation is seen.
func (s *Shot) Run(ctx context.Context, observe func(ShotSnapshot)) (ShotResult, error) {
	for {
		if err := ctx.Err(); err != nil {
			return ShotResult{}, err
		}
		done := s.Step()
		if observe != nil {
			if err := ctx.Err(); err != nil {
				return ShotResult{}, err
			}
			observe(s.Snapshot())
		}
		if done {
			res, _ := s.Result()
			return res, nil
		}
	}
}
