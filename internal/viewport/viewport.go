// Package viewport owns the uniform-scale + translate transform that maps the
// image's content space onto the screen.
package viewport

import (
	"math"

	"github.com/example/annotator/internal/geom"
)

// DefaultFitMargin leaves a 10% border around the image after a fit.
const DefaultFitMargin = 0.9

// Transform is the affine transform applied to the image and its overlay.
// Scale is always positive.
type Transform struct {
	Scale     float64
	Translate geom.Point
}

// Identity returns the transform with unit scale and no translation.
func Identity() Transform { return Transform{Scale: 1} }

// Apply maps a content point to viewport-local coordinates.
func (t Transform) Apply(p geom.Point) geom.Point {
	return p.Mul(t.Scale).Add(t.Translate)
}

// Invert maps a viewport-local point back to content space.
func (t Transform) Invert(p geom.Point) geom.Point {
	return p.Sub(t.Translate).Div(t.Scale)
}

// Controller holds the viewport state and publishes every change to its
// subscribers. It is not safe for concurrent use; all calls are expected on
// the event thread.
type Controller struct {
	origin   geom.Point
	t        Transform
	image    geom.Size
	view     geom.Size
	margin   float64
	panning  bool
	subs     map[int]func(Transform)
	subOrder []int
	nextSub  int
}

// Option modifies a Controller during creation.
type Option func(*Controller)

// WithOrigin sets the screen position of the viewport's top-left corner.
func WithOrigin(p geom.Point) Option { return func(c *Controller) { c.origin = p } }

// WithImageSize sets the natural dimensions of the displayed image.
func WithImageSize(s geom.Size) Option { return func(c *Controller) { c.image = s } }

// WithViewportSize sets the size of the on-screen viewport.
func WithViewportSize(s geom.Size) Option { return func(c *Controller) { c.view = s } }

// WithFitMargin overrides the fraction of the viewport a fitted image fills.
func WithFitMargin(m float64) Option {
	return func(c *Controller) {
		if m > 0 && geom.Finite(m) {
			c.margin = m
		}
	}
}

// New creates a Controller at identity with panning enabled.
func New(opts ...Option) *Controller {
	c := &Controller{
		t:       Identity(),
		margin:  DefaultFitMargin,
		panning: true,
		subs:    map[int]func(Transform){},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Subscribe registers fn to be called synchronously after every transform
// change. The returned func removes the subscription.
func (c *Controller) Subscribe(fn func(Transform)) (cancel func()) {
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.subOrder = append(c.subOrder, id)
	return func() {
		if _, ok := c.subs[id]; !ok {
			return
		}
		delete(c.subs, id)
		for i, v := range c.subOrder {
			if v == id {
				c.subOrder = append(c.subOrder[:i], c.subOrder[i+1:]...)
				break
			}
		}
	}
}

func (c *Controller) publish() {
	t := c.t
	ids := append([]int(nil), c.subOrder...)
	for _, id := range ids {
		if fn, ok := c.subs[id]; ok {
			fn(t)
		}
	}
}

// ToContent converts a screen point into content coordinates.
func (c *Controller) ToContent(screen geom.Point) geom.Point {
	return c.t.Invert(screen.Sub(c.origin))
}

// ToScreen converts a content point into screen coordinates.
func (c *Controller) ToScreen(content geom.Point) geom.Point {
	return c.t.Apply(content).Add(c.origin)
}

// ZoomAt multiplies the scale by factor while keeping the content point under
// screen fixed. Factors that would make the scale non-positive or non-finite
// are ignored.
func (c *Controller) ZoomAt(screen geom.Point, factor float64) {
	if !(factor > 0) || !geom.Finite(factor) {
		return
	}
	newScale := c.t.Scale * factor
	if !(newScale > 0) || !geom.Finite(newScale) {
		return
	}
	local := screen.Sub(c.origin)
	c.t.Translate = local.Sub(local.Sub(c.t.Translate).Div(c.t.Scale).Mul(newScale))
	c.t.Scale = newScale
	c.publish()
}

// PanBy shifts the translation by (dx, dy) screen pixels.
func (c *Controller) PanBy(dx, dy float64) {
	if !geom.Finite(dx) || !geom.Finite(dy) {
		return
	}
	c.t.Translate = c.t.Translate.Add(geom.Pt(dx, dy))
	c.publish()
}

// FitToView scales the content to fill the margin fraction of the viewport
// and centres it. It does nothing while the content size is unknown.
func (c *Controller) FitToView(view, content geom.Size) {
	if !content.Known() || !view.Known() {
		return
	}
	scale := c.margin * math.Min(view.W/content.W, view.H/content.H)
	c.t = Transform{
		Scale: scale,
		Translate: geom.Pt(
			(view.W-content.W*scale)/2,
			(view.H-content.H*scale)/2,
		),
	}
	c.publish()
}

// Fit refits the image using the stored viewport and image sizes.
func (c *Controller) Fit() { c.FitToView(c.view, c.image) }

// SetTransform replaces the transform wholesale. Non-positive scales are
// rejected.
func (c *Controller) SetTransform(t Transform) bool {
	if !(t.Scale > 0) || !geom.Finite(t.Scale) || !geom.Finite(t.Translate.X) || !geom.Finite(t.Translate.Y) {
		return false
	}
	c.t = t
	c.publish()
	return true
}

// SetPanningEnabled toggles whether pointer drags should pan the view.
func (c *Controller) SetPanningEnabled(enabled bool) { c.panning = enabled }

// PanningEnabled reports the value last passed to SetPanningEnabled.
func (c *Controller) PanningEnabled() bool { return c.panning }

func (c *Controller) Scale() float64 { return c.t.Scale }

func (c *Controller) Translation() geom.Point { return c.t.Translate }

func (c *Controller) Transform() Transform { return c.t }

func (c *Controller) Origin() geom.Point { return c.origin }

func (c *Controller) SetOrigin(p geom.Point) { c.origin = p }

// ImageDimensions returns the natural image size, zero when no image has
// been loaded.
func (c *Controller) ImageDimensions() geom.Size { return c.image }

func (c *Controller) SetImageDimensions(s geom.Size) { c.image = s }

func (c *Controller) ViewportSize() geom.Size { return c.view }

func (c *Controller) SetViewportSize(s geom.Size) { c.view = s }

// Contains reports whether a content point lies within the image bounds.
func (c *Controller) Contains(content geom.Point) bool {
	if !c.image.Known() {
		return false
	}
	return content.X >= 0 && content.Y >= 0 && content.X <= c.image.W && content.Y <= c.image.H
}

// Centre returns the screen position of the viewport centre.
func (c *Controller) Centre() geom.Point {
	return c.origin.Add(geom.Pt(c.view.W/2, c.view.H/2))
}
