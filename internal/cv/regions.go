package cv

import (
	"fmt"
	"math/rand"
)

// Region is an inclusive rectangle in screen coordinates
type Region struct {
	X1, Y1, X2, Y2 int
}

type Point struct {
	X, Y int
}

// NewRegion creates a new region
func NewRegion(x1, y1, x2, y2 int) Region {
	return Region{X1: x1, Y1: y1, X2: x2, Y2: y2}
}

// Contains checks if a point is within the region, edges included
func (r Region) Contains(p Point) bool {
	return p.X >= r.X1 && p.X <= r.X2 && p.Y >= r.Y1 && p.Y <= r.Y2
}

// Width returns the width of the region
func (r Region) Width() int {
	return r.X2 - r.X1
}

// Height returns the height of the region
func (r Region) Height() int {
	return r.Y2 - r.Y1
}

// Validate checks that the corners are ordered
func (r Region) Validate() error {
	if r.X2 < r.X1 || r.Y2 < r.Y1 {
		return fmt.Errorf("invalid region (%d,%d)-(%d,%d)", r.X1, r.Y1, r.X2, r.Y2)
	}
	return nil
}

// RandomPoint returns a uniformly distributed point inside the region,
// edges included
func (r Region) RandomPoint(rng *rand.Rand) Point {
	return Point{
		X: r.X1 + rng.Intn(r.Width()+1),
		Y: r.Y1 + rng.Intn(r.Height()+1),
	}
}
