// Package geom holds the float64 value types shared by the viewport,
// gesture and annotation packages.
package geom

import "math"

// Point is a position in either screen or content space. The space is
// implied by the API that produced it.
type Point struct {
	X, Y float64
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point { return Point{X: x, Y: y} }

func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }

func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

func (p Point) Mul(k float64) Point { return Point{p.X * k, p.Y * k} }

func (p Point) Div(k float64) Point { return Point{p.X / k, p.Y / k} }

// Dist returns the euclidean distance between p and q.
func (p Point) Dist(q Point) float64 { return math.Hypot(p.X-q.X, p.Y-q.Y) }

// Size is a width/height pair.
type Size struct {
	W, H float64
}

// Known reports whether both dimensions are positive.
func (s Size) Known() bool { return s.W > 0 && s.H > 0 }

// Rect is an axis-aligned rectangle given by its min and max corners.
type Rect struct {
	Min, Max Point
}

// RectFromPoints returns the normalized rectangle spanned by a and b.
func RectFromPoints(a, b Point) Rect {
	return Rect{
		Min: Point{math.Min(a.X, b.X), math.Min(a.Y, b.Y)},
		Max: Point{math.Max(a.X, b.X), math.Max(a.Y, b.Y)},
	}
}

func (r Rect) Dx() float64 { return r.Max.X - r.Min.X }

func (r Rect) Dy() float64 { return r.Max.Y - r.Min.Y }

// Inset shrinks r by n on every side. A negative n grows it.
func (r Rect) Inset(n float64) Rect {
	return Rect{Min: Point{r.Min.X + n, r.Min.Y + n}, Max: Point{r.Max.X - n, r.Max.Y - n}}
}

// Contains reports whether p lies inside r, edges included.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.Min.X && p.X <= r.Max.X && p.Y >= r.Min.Y && p.Y <= r.Max.Y
}

// Finite reports whether v is neither NaN nor infinite.
func Finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
