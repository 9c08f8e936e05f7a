package tui

import (
	"testing"

	"github.com/vovakirdan/gravity-duel/internal/core"
	"github.com/vovakirdan/gravity-duel/internal/game"
)

func TestFieldViewProject(t *testing.T) {
	p := game.DefaultParams()
	v := NewFieldView(p, 102, 42) // 100 x 40 inner cells

	tests := []struct {
		name string
		in   core.Vec2
		x, y int
	}{
		{"origin", core.V(0, 0), 1, 1},
		{"center", core.V(p.Field.Width/2, p.Field.Height/2), 51, 21},
		{"far corner", core.V(p.Field.Width-0.001, p.Field.Height-0.001), 100, 40},
		{"wraps", core.V(p.Field.Width+1, -1), 1, 40},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y := v.Project(tt.in)
			if x != tt.x || y != tt.y {
				t.Errorf("Project(%v) = (%d, %d), want (%d, %d)", tt.in, x, y, tt.x, tt.y)
			}
		})
	}
}

func TestFieldViewDraw(t *testing.T) {
	p := game.DefaultParams()
	level, err := game.GenerateLevel(42424242, 1, game.DefaultLevelParams())
	if err != nil {
		t.Fatalf("GenerateLevel() failed: %v", err)
	}
	v := NewFieldView(p, 100, 30)

	s := v.Draw(level, Overlay{})
	if s.Get(0, 0) != '┌' || s.Get(99, 29) != '┘' {
		t.Error("border not drawn")
	}
	for _, pl := range level.Planets {
		x, y := v.Project(pl.Pos())
		if r := s.Get(x, y); r != planetRune {
			t.Errorf("planet at %v not drawn at (%d, %d): %q", pl.Pos(), x, y, r)
		}
	}

	res, err := game.SimulateShot(level.Planets, game.ShotRequest{Angle: 0, Power: 50, Shooter: 1}, p)
	if err != nil {
		t.Fatalf("SimulateShot() failed: %v", err)
	}
	missile := core.V(p.Field.Width/2, 1)
	s = v.Draw(level, Overlay{Trail: res.Trail, Missile: &missile})
	if x, y := v.Project(missile); s.Get(x, y) != missileRune {
		t.Error("missile not drawn")
	}
	trail := 0
	for y := range s.Height() {
		for x := range s.Width() {
			if s.Get(x, y) == trailRune {
				trail++
			}
		}
	}
	if trail == 0 {
		t.Error("trail not drawn")
	}
}

func TestFieldViewDrawAim(t *testing.T) {
	p := game.DefaultParams()
	level, err := game.GenerateLevel(42424242, 1, game.DefaultLevelParams())
	if err != nil {
		t.Fatalf("GenerateLevel() failed: %v", err)
	}
	v := NewFieldView(p, 120, 40)

	s := v.Draw(level, Overlay{Aim: &Aim{Player: core.Player1, Angle: 0}})
	dots := 0
	for y := range s.Height() {
		for x := range s.Width() {
			if s.Get(x, y) == aimRune {
				dots++
			}
		}
	}
	if dots == 0 {
		t.Error("aim guide not drawn")
	}
}

func TestPlanetColor(t *testing.T) {
	tests := []struct {
		name string
		pl   game.Planet
		want core.Color
	}{
		{"player 1", game.Planet{Owner: core.Player1, Color: game.Player1Color}, core.ColorBrightBlue},
		{"player 2", game.Planet{Owner: core.Player2, Color: game.Player2Color}, core.ColorOrange},
		{"dark neutral", game.Planet{Color: "hsl(25, 40%, 30%)"}, core.ColorBrown},
		{"light neutral", game.Planet{Color: "hsl(35.5, 55%, 48.2%)"}, core.ColorYellow},
		{"unparsable", game.Planet{Color: "#123456"}, core.ColorGray},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := planetColor(tt.pl); got != tt.want {
				t.Errorf("planetColor() = %v, want %v", got, tt.want)
			}
		})
	}
}
