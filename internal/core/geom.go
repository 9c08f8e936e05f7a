// Package core provides fundamental types and utilities shared by the duel
// engine and its front ends. It contains no external dependencies (especially
// no Bubble Tea) to keep simulation code pure and testable.
package core

import "math"

// Vec2 is a point or displacement on the playing field.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// V is shorthand for constructing a Vec2.
func V(x, y float64) Vec2 {
	return Vec2{X: x, Y: y}
}

// Add returns v + o.
func (v Vec2) Add(o Vec2) Vec2 {
	return Vec2{X: v.X + o.X, Y: v.Y + o.Y}
}

// Sub returns v - o.
func (v Vec2) Sub(o Vec2) Vec2 {
	return Vec2{X: v.X - o.X, Y: v.Y - o.Y}
}

// Scale returns v multiplied by s.
// Each component is rounded explicitly so the compiler never fuses the
// product into a following addition.
func (v Vec2) Scale(s float64) Vec2 {
	return Vec2{X: float64(v.X * s), Y: float64(v.Y * s)}
}

// Len returns the Euclidean length of v.
func (v Vec2) Len() float64 {
	return math.Sqrt(float64(v.X*v.X) + float64(v.Y*v.Y))
}

// Rect represents an axis-aligned box in screen cells.
type Rect struct {
	X, Y int // Top-left corner position
	W, H int // Width and height
}

// NewRect creates a new rectangle with the given position and dimensions.
func NewRect(x, y, w, h int) Rect {
	return Rect{X: x, Y: y, W: w, H: h}
}

// Right returns the x-coordinate of the right edge.
func (r Rect) Right() int {
	return r.X + r.W
}

// Bottom returns the y-coordinate of the bottom edge.
func (r Rect) Bottom() int {
	return r.Y + r.H
}

// Contains returns true if the cell (x, y) is inside this rectangle.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.Right() && y >= r.Y && y < r.Bottom()
}

// Clamp restricts a value to be within [lo, hi].
func Clamp(val, lo, hi int) int {
	if val < lo {
		return lo
	}
	if val > hi {
		return hi
	}
	return val
}

// ClampF restricts a float64 value to be within [lo, hi].
// Matches max(lo, min(hi, val)) evaluation order, so lo wins when lo > hi.
func ClampF(val, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, val))
}
