package geo

import "gonum.org/v1/gonum/spatial/r2"

// Point is a position or velocity in canvas space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p Point) vec() r2.Vec { return r2.Vec{X: p.X, Y: p.Y} }

// Add returns p translated by q.
func (p Point) Add(q Point) Point {
	v := r2.Add(p.vec(), q.vec())
	return Point{X: v.X, Y: v.Y}
}

// Distance returns the Euclidean distance between a and b.
func Distance(a, b Point) float64 {
	return r2.Norm(r2.Sub(a.vec(), b.vec()))
}

// Bounds is the rectangular map extent. Vehicles and ride coordinates are
// kept inside the rectangle inset by Margin on every side.
type Bounds struct {
	Width  float64
	Height float64
	Margin float64
}

// Low returns the lowest allowed coordinate on either axis.
func (b Bounds) Low() float64 { return b.Margin }

// HighX returns the highest allowed X coordinate.
func (b Bounds) HighX() float64 { return b.Width - b.Margin }

// HighY returns the highest allowed Y coordinate.
func (b Bounds) HighY() float64 { return b.Height - b.Margin }

// Clamp forces p inside the inset rectangle. Out-of-bounds ride
// coordinates are clamped rather than rejected.
func (b Bounds) Clamp(p Point) Point {
	return Point{
		X: clamp(p.X, b.Low(), b.HighX()),
		Y: clamp(p.Y, b.Low(), b.HighY()),
	}
}

// Contains reports whether p lies inside the inset rectangle.
func (b Bounds) Contains(p Point) bool {
	return p.X >= b.Low() && p.X <= b.HighX() && p.Y >= b.Low() && p.Y <= b.HighY()
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
