// Package geo provides the flat 2D geometry primitives used by the spatial
// index: points and axis-aligned rectangles.
//
// Rectangles are value types and immutable once constructed. Malformed
// rectangles (negative width or height, min corner past max corner) are
// rejected at construction so the index never has to deal with them.
package geo

import (
	"errors"
	"fmt"
)

// ErrInvalidRect is returned when a rectangle's min corner lies past its max
// corner on either axis.
var ErrInvalidRect = errors.New("geo: invalid rectangle")

// Point is a position in 2D space.
type Point struct {
	X float64
	Y float64
}

// Pt is a shorthand constructor for Point.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Rect is an axis-aligned rectangle defined by its minimum (top-left) and
// maximum (bottom-right) corners. Both edges are inclusive.
type Rect struct {
	Min Point
	Max Point
}

// NewRect creates a rectangle from an origin corner and a width/height.
// Width and height must be non-negative.
func NewRect(x, y, w, h float64) (Rect, error) {
	if w < 0 || h < 0 {
		return Rect{}, fmt.Errorf("%w: negative size %gx%g", ErrInvalidRect, w, h)
	}
	return Rect{
		Min: Point{X: x, Y: y},
		Max: Point{X: x + w, Y: y + h},
	}, nil
}

// RectFromPoints creates a rectangle from its min and max corners.
func RectFromPoints(min, max Point) (Rect, error) {
	if min.X > max.X || min.Y > max.Y {
		return Rect{}, fmt.Errorf("%w: min (%g,%g) past max (%g,%g)", ErrInvalidRect, min.X, min.Y, max.X, max.Y)
	}
	return Rect{Min: min, Max: max}, nil
}

// MustRect is like NewRect but panics on a malformed rectangle.
// Intended for tests, examples and compile-time-constant boundaries.
func MustRect(x, y, w, h float64) Rect {
	r, err := NewRect(x, y, w, h)
	if err != nil {
		panic(err)
	}
	return r
}

// Width returns the horizontal extent of the rectangle.
func (r Rect) Width() float64 {
	return r.Max.X - r.Min.X
}

// Height returns the vertical extent of the rectangle.
func (r Rect) Height() float64 {
	return r.Max.Y - r.Min.Y
}

// Center returns the midpoint of the rectangle.
func (r Rect) Center() Point {
	return Point{
		X: r.Min.X + (r.Max.X-r.Min.X)/2,
		Y: r.Min.Y + (r.Max.Y-r.Min.Y)/2,
	}
}

// ContainsPoint reports whether p lies inside the rectangle.
// All four edges are inclusive.
func (r Rect) ContainsPoint(p Point) bool {
	return p.X >= r.Min.X && p.X <= r.Max.X &&
		p.Y >= r.Min.Y && p.Y <= r.Max.Y
}

// Intersects reports whether the two rectangles overlap.
// Rectangles sharing only an edge still intersect.
func (r Rect) Intersects(o Rect) bool {
	if r.Min.X > o.Max.X || o.Min.X > r.Max.X {
		return false
	}
	if r.Min.Y > o.Max.Y || o.Min.Y > r.Max.Y {
		return false
	}
	return true
}
