package core

import (
	"math"
	"testing"
)

func TestVec2Arithmetic(t *testing.T) {
	a := V(3, 4)
	b := V(1, -2)

	if got := a.Add(b); got != V(4, 2) {
		t.Errorf("Add() = %v, expected (4, 2)", got)
	}
	if got := a.Sub(b); got != V(2, 6) {
		t.Errorf("Sub() = %v, expected (2, 6)", got)
	}
	if got := a.Scale(0.5); got != V(1.5, 2) {
		t.Errorf("Scale() = %v, expected (1.5, 2)", got)
	}
	if got := a.Len(); got != 5 {
		t.Errorf("Len() = %v, expected 5", got)
	}
}

func TestRectContains(t *testing.T) {
	r := NewRect(10, 10, 20, 15)

	tests := []struct {
		name     string
		x, y     int
		expected bool
	}{
		{"inside", 15, 15, true},
		{"top-left corner", 10, 10, true},
		{"bottom-right edge (exclusive)", 30, 25, false},
		{"outside left", 5, 15, false},
		{"outside right", 35, 15, false},
		{"outside top", 15, 5, false},
		{"outside bottom", 15, 30, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := r.Contains(tc.x, tc.y)
			if result != tc.expected {
				t.Errorf("Contains(%d, %d) = %v, expected %v", tc.x, tc.y, result, tc.expected)
			}
		})
	}
}

func TestRectEdges(t *testing.T) {
	r := NewRect(5, 10, 20, 15)

	if r.Right() != 25 {
		t.Errorf("Right() = %d, expected 25", r.Right())
	}
	if r.Bottom() != 25 {
		t.Errorf("Bottom() = %d, expected 25", r.Bottom())
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		val, lo, hi, expected int
	}{
		{5, 0, 10, 5},
		{-5, 0, 10, 0},
		{15, 0, 10, 10},
		{0, 0, 10, 0},
		{10, 0, 10, 10},
	}

	for _, tc := range tests {
		result := Clamp(tc.val, tc.lo, tc.hi)
		if result != tc.expected {
			t.Errorf("Clamp(%d, %d, %d) = %d, expected %d", tc.val, tc.lo, tc.hi, result, tc.expected)
		}
	}
}

func TestClampF(t *testing.T) {
	tests := []struct {
		name              string
		val, lo, hi, want float64
	}{
		{"inside", 5.5, 0, 10, 5.5},
		{"below", -1, 0, 10, 0},
		{"above", 11, 0, 10, 10},
		{"inverted bounds favour lo", 5, 8, 2, 8},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClampF(tc.val, tc.lo, tc.hi); got != tc.want {
				t.Errorf("ClampF(%v, %v, %v) = %v, expected %v", tc.val, tc.lo, tc.hi, got, tc.want)
			}
		})
	}

	if got := ClampF(math.Inf(1), 0, 1); got != 1 {
		t.Errorf("ClampF(+Inf) = %v, expected 1", got)
	}
}
