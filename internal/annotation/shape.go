package annotation

import (
	"math"

	"github.com/example/annotator/internal/geom"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

// Kind names a shape variant. The values double as the "type" field of the
// exported document.
type Kind string

const (
	KindRect    Kind = "rect"
	KindEllipse Kind = "ellipse"
	KindPolygon Kind = "polygon"
	KindText    Kind = "text"
)

// TextSize is the nominal label height in content units.
const TextSize = 14.0

// Shape is the closed set of annotation geometries: Rect, Ellipse, Polygon
// and Text. All coordinates are in content space.
type Shape interface {
	Kind() Kind
	// Bounds returns the axis-aligned bounding box.
	Bounds() geom.Rect
	// Hit reports whether p lies on or inside the shape, allowing tol units
	// of slack.
	Hit(p geom.Point, tol float64) bool
	clone() Shape
}

// Rect is an axis-aligned rectangle. Width and Height are never negative.
type Rect struct {
	X, Y, Width, Height float64
}

func (r Rect) Kind() Kind { return KindRect }

func (r Rect) Bounds() geom.Rect {
	return geom.Rect{Min: geom.Pt(r.X, r.Y), Max: geom.Pt(r.X+r.Width, r.Y+r.Height)}
}

func (r Rect) Hit(p geom.Point, tol float64) bool { return r.Bounds().Inset(-tol).Contains(p) }

func (r Rect) clone() Shape { return r }

// RectBetween normalizes the rectangle spanned by two corners.
func RectBetween(a, b geom.Point) Rect {
	return Rect{
		X:      math.Min(a.X, b.X),
		Y:      math.Min(a.Y, b.Y),
		Width:  math.Abs(b.X - a.X),
		Height: math.Abs(b.Y - a.Y),
	}
}

// Ellipse is an axis-aligned ellipse. RX and RY are never negative.
type Ellipse struct {
	CX, CY, RX, RY float64
}

func (e Ellipse) Kind() Kind { return KindEllipse }

func (e Ellipse) Bounds() geom.Rect {
	return geom.Rect{Min: geom.Pt(e.CX-e.RX, e.CY-e.RY), Max: geom.Pt(e.CX+e.RX, e.CY+e.RY)}
}

func (e Ellipse) Hit(p geom.Point, tol float64) bool {
	rx, ry := e.RX+tol, e.RY+tol
	if rx <= 0 || ry <= 0 {
		return false
	}
	dx := (p.X - e.CX) / rx
	dy := (p.Y - e.CY) / ry
	return dx*dx+dy*dy <= 1
}

func (e Ellipse) clone() Shape { return e }

// EllipseBetween returns the ellipse inscribed in the box spanned by a and b.
func EllipseBetween(a, b geom.Point) Ellipse {
	return Ellipse{
		CX: (a.X + b.X) / 2,
		CY: (a.Y + b.Y) / 2,
		RX: math.Abs(b.X-a.X) / 2,
		RY: math.Abs(b.Y-a.Y) / 2,
	}
}

// Polygon is a closed ring of at least three vertices in authoring order.
type Polygon struct {
	Points []geom.Point
}

func (p Polygon) Kind() Kind { return KindPolygon }

func (p Polygon) Bounds() geom.Rect {
	if len(p.Points) == 0 {
		return geom.Rect{}
	}
	r := geom.Rect{Min: p.Points[0], Max: p.Points[0]}
	for _, v := range p.Points[1:] {
		r.Min.X = math.Min(r.Min.X, v.X)
		r.Min.Y = math.Min(r.Min.Y, v.Y)
		r.Max.X = math.Max(r.Max.X, v.X)
		r.Max.Y = math.Max(r.Max.Y, v.Y)
	}
	return r
}

// Hit uses an even-odd ray cast for the interior and segment distance for
// the outline, so concave rings select correctly.
func (p Polygon) Hit(q geom.Point, tol float64) bool {
	n := len(p.Points)
	if n == 0 {
		return false
	}
	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a, b := p.Points[i], p.Points[j]
		if segmentDist(q, a, b) <= tol {
			return true
		}
		if (a.Y > q.Y) != (b.Y > q.Y) {
			x := (b.X-a.X)*(q.Y-a.Y)/(b.Y-a.Y) + a.X
			if q.X < x {
				inside = !inside
			}
		}
	}
	return inside
}

func (p Polygon) clone() Shape {
	return Polygon{Points: append([]geom.Point(nil), p.Points...)}
}

func segmentDist(p, a, b geom.Point) float64 {
	ab := b.Sub(a)
	l2 := ab.X*ab.X + ab.Y*ab.Y
	if l2 == 0 {
		return p.Dist(a)
	}
	t := ((p.X-a.X)*ab.X + (p.Y-a.Y)*ab.Y) / l2
	t = math.Max(0, math.Min(1, t))
	return p.Dist(a.Add(ab.Mul(t)))
}

// Text is a label anchored at its baseline origin.
type Text struct {
	X, Y float64
	Text string
}

func (t Text) Kind() Kind { return KindText }

// Bounds estimates the label box from the fixed 7x13 face scaled to
// TextSize.
func (t Text) Bounds() geom.Rect {
	face := basicfont.Face7x13
	k := TextSize / float64(face.Height)
	adv := float64(font.MeasureString(face, t.Text)) / 64 * k
	m := face.Metrics()
	ascent := float64(m.Ascent) / 64 * k
	descent := float64(m.Descent) / 64 * k
	return geom.Rect{Min: geom.Pt(t.X, t.Y-ascent), Max: geom.Pt(t.X+adv, t.Y+descent)}
}

func (t Text) Hit(p geom.Point, tol float64) bool { return t.Bounds().Inset(-tol).Contains(p) }

func (t Text) clone() Shape { return t }

// Annotation is a finalized shape with its identity and style.
type Annotation struct {
	ID    string
	Shape Shape
	Style Style
}

// Kind is shorthand for a.Shape.Kind().
func (a Annotation) Kind() Kind {
	if a.Shape == nil {
		return ""
	}
	return a.Shape.Kind()
}

// Clone returns a deep copy.
func (a Annotation) Clone() Annotation {
	if a.Shape != nil {
		a.Shape = a.Shape.clone()
	}
	return a
}
