package tui

import (
	"fmt"
	"math"

	"github.com/vovakirdan/gravity-duel/internal/core"
	"github.com/vovakirdan/gravity-duel/internal/game"
)

const (
	planetRune  = '█'
	trailRune   = '·'
	missileRune = '●'
	aimRune     = '∙'
)

// Aim marks a player's cannon direction on the field.
type Aim struct {
	Player core.PlayerID
	Angle  float64
}

// Overlay is everything drawn on top of the planets.
type Overlay struct {
	Trail   []core.Vec2
	Missile *core.Vec2
	Aim     *Aim
}

// FieldView projects the toroidal field onto a character screen framed by
// a one-cell border.
type FieldView struct {
	params game.Params
	screen *core.Screen
}

// NewFieldView creates a view of w x h cells, border included.
func NewFieldView(p game.Params, w, h int) *FieldView {
	return &FieldView{params: p, screen: core.NewScreen(max(w, 3), max(h, 3))}
}

// Resize changes the view dimensions.
func (v *FieldView) Resize(w, h int) {
	v.screen.Resize(max(w, 3), max(h, 3))
}

func (v *FieldView) inner() (w, h int) {
	return v.screen.Width() - 2, v.screen.Height() - 2
}

// Project maps a field point to a screen cell inside the border.
func (v *FieldView) Project(p core.Vec2) (x, y int) {
	f := v.params.Field
	p = game.WrapPosition(f, p)
	w, h := v.inner()
	x = core.Clamp(int(p.X/f.Width*float64(w)), 0, w-1)
	y = core.Clamp(int(p.Y/f.Height*float64(h)), 0, h-1)
	return x + 1, y + 1
}

// cellCenter is the field point at the middle of screen cell (x, y).
func (v *FieldView) cellCenter(x, y int) core.Vec2 {
	f := v.params.Field
	w, h := v.inner()
	return core.V(
		(float64(x-1)+0.5)/float64(w)*f.Width,
		(float64(y-1)+0.5)/float64(h)*f.Height,
	)
}

// Draw renders level and overlay and returns the screen buffer.
func (v *FieldView) Draw(level game.Level, o Overlay) *core.Screen {
	s := v.screen
	s.Clear()
	s.DrawBox(core.NewRect(0, 0, s.Width(), s.Height()))

	for _, p := range o.Trail {
		x, y := v.Project(p)
		s.SetColored(x, y, trailRune, core.ColorGray)
	}
	for _, pl := range level.Planets {
		v.drawPlanet(pl)
	}
	if o.Aim != nil {
		v.drawAim(level, *o.Aim)
	}
	if o.Missile != nil {
		x, y := v.Project(*o.Missile)
		s.SetColored(x, y, missileRune, core.ColorBrightWhite)
	}
	return s
}

// drawPlanet fills every cell whose center lies inside the planet. Planets
// smaller than a cell still occupy the cell holding their center.
func (v *FieldView) drawPlanet(pl game.Planet) {
	color := planetColor(pl)
	cx, cy := v.Project(pl.Pos())
	v.screen.SetColored(cx, cy, planetRune, color)

	w, h := v.inner()
	f := v.params.Field
	rx := int(math.Ceil(pl.Radius/f.Width*float64(w))) + 1
	ry := int(math.Ceil(pl.Radius/f.Height*float64(h))) + 1
	for y := cy - ry; y <= cy+ry; y++ {
		for x := cx - rx; x <= cx+rx; x++ {
			if x < 1 || x > w || y < 1 || y > h {
				continue
			}
			if game.WrappedDelta(f, pl.Pos(), v.cellCenter(x, y)).Len() <= pl.Radius {
				v.screen.SetColored(x, y, planetRune, color)
			}
		}
	}

	if pl.Owner.Valid() {
		label := fmt.Sprintf("P%d", pl.Owner)
		v.screen.DrawTextColored(cx-1, max(cy-ry-1, 1), label, color)
	}
}

// drawAim dots a short guide from the cannon tip along the aim direction.
func (v *FieldView) drawAim(level game.Level, a Aim) {
	pl, ok := level.PlayerPlanet(a.Player)
	if !ok {
		return
	}
	for i := range 4 {
		tip := game.CannonTip(pl, a.Angle, v.params.CannonOffset+float64(i)*20)
		x, y := v.Project(tip)
		if v.screen.Get(x, y) == planetRune {
			continue
		}
		v.screen.SetColored(x, y, aimRune, core.ColorYellow)
	}
}

// planetColor picks a terminal color for a planet: fixed colors for the
// player planets, a brown or orange tint for neutrals by lightness.
func planetColor(pl game.Planet) core.Color {
	switch pl.Owner {
	case core.Player1:
		return core.ColorBrightBlue
	case core.Player2:
		return core.ColorOrange
	}
	var hue, sat, light float64
	if _, err := fmt.Sscanf(pl.Color, "hsl(%g, %g%%, %g%%)", &hue, &sat, &light); err != nil {
		return core.ColorGray
	}
	if light < 42 {
		return core.ColorBrown
	}
	return core.ColorYellow
}
