package game

import (
	"fmt"
	"math"

	"github.com/vovakirdan/gravity-duel/internal/core"
)

// Fixed player planet colors.
const (
	Player1Color = "#4a9eff"
	Player2Color = "#ff6b4a"
)

// Neutral tint ranges. The draws are consumed even though color never
// affects the simulation.
var (
	neutralHue   = Span{25, 55}
	neutralSat   = Span{30, 55}
	neutralLight = Span{32, 52}
)

// GenerateLevel builds the planet layout for (seed, level). The result is a
// pure function of its inputs. Draw order matters: any change to the order
// of calls on the sequence changes every layout.
func GenerateLevel(seed int32, level int, p LevelParams) (Level, error) {
	if level < 1 {
		return Level{}, ErrInvalidLevel
	}
	if err := p.Validate(); err != nil {
		return Level{}, err
	}

	g := &levelGen{
		seq: NewSequence(SubSeed(seed, level, p.SeedStride)),
		p:   p,
	}
	target := p.TargetNeutrals(level)
	g.planets = make([]Planet, 0, 2+target)

	g.placePlayers()
	for i := 0; i < target; i++ {
		g.placeNeutral()
	}

	return Level{Seed: seed, Number: level, Planets: g.planets}, nil
}

type levelGen struct {
	seq     *Sequence
	p       LevelParams
	planets []Planet
}

// tooClose reports whether a planet at (x, y) with radius r would crowd
// any planet already placed.
func (g *levelGen) tooClose(x, y, r float64) bool {
	for _, o := range g.planets {
		if hypot(o.X-x, o.Y-y) < o.Radius+r+g.p.MinSpacing {
			return true
		}
	}
	return false
}

func (g *levelGen) player(owner core.PlayerID, xs Span, color string) Planet {
	ys := Span{g.p.PlayerMarginY, g.p.Field.Height - g.p.PlayerMarginY}
	return Planet{
		X:      xs.sample(g.seq),
		Y:      ys.sample(g.seq),
		Radius: g.p.PlayerRadius.sample(g.seq),
		Mass:   g.p.PlayerMass.sample(g.seq),
		Owner:  owner,
		Color:  color,
	}
}

func (g *levelGen) placePlayers() {
	w := g.p.Field.Width
	left := g.p.PlayerInset
	right := Span{w - left.Max, w - left.Min}

	g.planets = append(g.planets, g.player(core.Player1, left, Player1Color))

	// The last candidate is kept even when every attempt overlaps.
	var p2 Planet
	for att := 0; att < g.p.P2Attempts; att++ {
		p2 = g.player(core.Player2, right, Player2Color)
		if !g.tooClose(p2.X, p2.Y, p2.Radius) {
			break
		}
	}
	g.planets = append(g.planets, p2)
}

// placeNeutral tries to add one neutral planet. The slot is skipped when
// the attempt budget runs out; a success on the final attempt is skipped
// as well.
func (g *levelGen) placeNeutral() {
	var np Planet
	tries := 0
	for {
		np = g.neutralCandidate()
		tries++
		if !g.tooClose(np.X, np.Y, np.Radius) || tries >= g.p.NeutralTries {
			break
		}
	}
	if tries < g.p.NeutralTries {
		g.planets = append(g.planets, np)
	}
}

func (g *levelGen) neutralCandidate() Planet {
	w, h := g.p.Field.Width, g.p.Field.Height
	s := g.seq
	r := g.p.NeutralRadius.sample(s)

	var nx, ny float64
	roll := s.Next()
	switch {
	case roll < g.p.CorridorChance:
		p1, p2 := g.planets[0], g.planets[1]
		t := s.Range(0.25, 0.75)
		nx = p1.X + float64((p2.X-p1.X)*t) + s.Range(-100, 100)
		ny = p1.Y + float64((p2.Y-p1.Y)*t) + s.Range(-120, 120)
	case roll < g.p.EdgeChance:
		switch int(math.Floor(s.Next() * 4)) {
		case 0:
			nx = s.Range(r+10, w-r-10)
			ny = s.Range(r+10, r+100)
		case 1:
			nx = s.Range(r+10, w-r-10)
			ny = s.Range(h-r-100, h-r-10)
		case 2:
			nx = s.Range(r+10, r+100)
			ny = s.Range(r+10, h-r-10)
		default:
			nx = s.Range(w-r-100, w-r-10)
			ny = s.Range(r+10, h-r-10)
		}
	default:
		nx = s.Range(r+20, w-r-20)
		ny = s.Range(r+20, h-r-20)
	}

	nx = core.ClampF(nx, r+10, w-r-10)
	ny = core.ClampF(ny, r+10, h-r-10)

	hue := neutralHue.sample(s)
	sat := neutralSat.sample(s)
	light := neutralLight.sample(s)

	return Planet{
		X:      nx,
		Y:      ny,
		Radius: r,
		Mass:   g.p.NeutralMass.sample(s),
		Owner:  core.NoPlayer,
		Color:  fmt.Sprintf("hsl(%v, %v%%, %v%%)", hue, sat, light),
	}
}
