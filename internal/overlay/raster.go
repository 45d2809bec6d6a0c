package overlay

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"sync"

	"github.com/example/annotator/internal/annotation"
	"github.com/example/annotator/internal/geom"
	"github.com/example/annotator/internal/viewport"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/f64"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
)

// Palette holds the colours the raster uses for editor chrome.
type Palette struct {
	SelectionA color.RGBA
	SelectionB color.RGBA
	Handle     color.RGBA
}

// DefaultPalette returns white/black selection dashes with white handles.
func DefaultPalette() Palette {
	return Palette{
		SelectionA: color.RGBA{255, 255, 255, 255},
		SelectionB: color.RGBA{0, 0, 0, 255},
		Handle:     color.RGBA{255, 255, 255, 255},
	}
}

// Scene is everything drawn in one frame.
type Scene struct {
	Image       image.Image
	Annotations []annotation.Annotation
	Draft       *annotation.Draft
	Selected    string
}

// Raster is a Surface that renders into an *image.RGBA whose top-left
// corner is the viewport origin.
type Raster struct {
	t       viewport.Transform
	widths  map[string]float64
	palette Palette
	faces   *faceCache
}

// faceCache holds Go Regular faces keyed by quarter pixel size. A Raster and
// all of its snapshots share one cache, so only one of them may render at a
// time.
type faceCache struct {
	mu    sync.Mutex
	faces map[int]font.Face
}

// RasterOption modifies a Raster during creation.
type RasterOption func(*Raster)

// WithPalette overrides the chrome colours.
func WithPalette(p Palette) RasterOption { return func(r *Raster) { r.palette = p } }

// NewRaster creates a Raster at the identity transform.
func NewRaster(opts ...RasterOption) *Raster {
	r := &Raster{
		t:       viewport.Identity(),
		widths:  map[string]float64{},
		palette: DefaultPalette(),
		faces:   &faceCache{faces: map[int]font.Face{}},
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

func (r *Raster) SetTransform(t viewport.Transform) { r.t = t }

func (r *Raster) SetStrokeWidth(id string, w float64) { r.widths[id] = w }

func (r *Raster) Remove(id string) { delete(r.widths, id) }

// Snapshot copies the layer state so a frame can be rendered on another
// goroutine while the receiver keeps receiving updates.
func (r *Raster) Snapshot() *Raster {
	c := &Raster{
		t:       r.t,
		widths:  make(map[string]float64, len(r.widths)),
		palette: r.palette,
		faces:   r.faces,
	}
	for k, v := range r.widths {
		c.widths[k] = v
	}
	return c
}

// Transform returns the transform last applied to the layer.
func (r *Raster) Transform() viewport.Transform { return r.t }

// StrokeWidth returns the content-space width recorded for id.
func (r *Raster) StrokeWidth(id string) (float64, bool) {
	w, ok := r.widths[id]
	return w, ok
}

// Flatten draws anns over a copy of img at scale 1.
func Flatten(img image.Image, anns []annotation.Annotation) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	r := NewRaster()
	for _, a := range anns {
		r.SetStrokeWidth(a.ID, a.Style.StrokeWidth)
	}
	r.Render(dst, Scene{Image: img, Annotations: anns})
	return dst
}

// Render draws the scene into dst.
func (r *Raster) Render(dst *image.RGBA, sc Scene) {
	if sc.Image != nil {
		r.drawImage(dst, sc.Image)
	}
	for _, a := range sc.Annotations {
		w, ok := r.widths[a.ID]
		if !ok {
			w = a.Style.StrokeWidth / r.t.Scale
		}
		r.drawShape(dst, a.Shape, a.Style, w*r.t.Scale)
	}
	if sc.Draft != nil {
		r.drawDraft(dst, *sc.Draft)
	}
	if sc.Selected != "" {
		for _, a := range sc.Annotations {
			if a.ID == sc.Selected {
				r.drawSelection(dst, a.Shape.Bounds())
				break
			}
		}
	}
}

// local maps a content point into dst pixel space.
func (r *Raster) local(p geom.Point) geom.Point { return r.t.Apply(p) }

func (r *Raster) drawImage(dst *image.RGBA, img image.Image) {
	b := img.Bounds()
	o := dst.Bounds().Min
	s := r.t.Scale
	m := f64.Aff3{
		s, 0, r.t.Translate.X + float64(o.X) - float64(b.Min.X)*s,
		0, s, r.t.Translate.Y + float64(o.Y) - float64(b.Min.Y)*s,
	}
	var interp xdraw.Interpolator = xdraw.ApproxBiLinear
	if s >= 1 {
		interp = xdraw.NearestNeighbor
	}
	interp.Transform(dst, m, img, b, xdraw.Over, nil)
}

func (r *Raster) drawShape(dst *image.RGBA, sh annotation.Shape, st annotation.Style, screenWidth float64) {
	if t, ok := sh.(annotation.Text); ok {
		r.drawText(dst, t, colorOr(st.StrokeColor, color.RGBA{255, 0, 0, 255}))
		return
	}
	ring := r.outline(sh)
	if len(ring) < 2 {
		return
	}
	if fill := colorOr(st.FillColor, color.RGBA{}); fill.A > 0 && len(ring) >= 3 {
		fillPath(dst, ring, fill)
	}
	if stroke := colorOr(st.StrokeColor, color.RGBA{255, 0, 0, 255}); stroke.A > 0 && screenWidth > 0 {
		strokePath(dst, ring, true, screenWidth, stroke)
	}
}

// outline returns the closed screen-space ring of a box or polygon shape.
func (r *Raster) outline(sh annotation.Shape) []geom.Point {
	switch v := sh.(type) {
	case annotation.Rect:
		return []geom.Point{
			r.local(geom.Pt(v.X, v.Y)),
			r.local(geom.Pt(v.X+v.Width, v.Y)),
			r.local(geom.Pt(v.X+v.Width, v.Y+v.Height)),
			r.local(geom.Pt(v.X, v.Y+v.Height)),
		}
	case annotation.Ellipse:
		c := r.local(geom.Pt(v.CX, v.CY))
		rx, ry := v.RX*r.t.Scale, v.RY*r.t.Scale
		steps := int(math.Ceil(2 * math.Pi * math.Sqrt((rx*rx+ry*ry)/2) / 4))
		steps = max(16, min(steps, 720))
		pts := make([]geom.Point, steps)
		for i := range pts {
			a := 2 * math.Pi * float64(i) / float64(steps)
			pts[i] = geom.Pt(c.X+math.Cos(a)*rx, c.Y+math.Sin(a)*ry)
		}
		return pts
	case annotation.Polygon:
		pts := make([]geom.Point, len(v.Points))
		for i, p := range v.Points {
			pts[i] = r.local(p)
		}
		return pts
	}
	return nil
}

func newRasterizer(dst *image.RGBA) *vector.Rasterizer {
	b := dst.Bounds()
	return vector.NewRasterizer(b.Dx(), b.Dy())
}

func fillPath(dst *image.RGBA, ring []geom.Point, c color.RGBA) {
	z := newRasterizer(dst)
	z.MoveTo(float32(ring[0].X), float32(ring[0].Y))
	for _, p := range ring[1:] {
		z.LineTo(float32(p.X), float32(p.Y))
	}
	z.ClosePath()
	z.Draw(dst, dst.Bounds(), image.NewUniform(c), image.Point{})
}

// strokePath covers each segment with a quad and each vertex with a square.
// All pieces share one winding so overlaps merge instead of cancelling.
func strokePath(dst *image.RGBA, pts []geom.Point, closed bool, width float64, c color.RGBA) {
	z := newRasterizer(dst)
	hw := width / 2
	n := len(pts)
	segs := n - 1
	if closed {
		segs = n
	}
	for i := 0; i < segs; i++ {
		a, b := pts[i], pts[(i+1)%n]
		d := b.Sub(a)
		l := math.Hypot(d.X, d.Y)
		if l == 0 {
			continue
		}
		nv := geom.Pt(-d.Y, d.X).Mul(hw / l)
		quad(z, a.Add(nv), b.Add(nv), b.Sub(nv), a.Sub(nv))
	}
	for _, p := range pts {
		quad(z,
			geom.Pt(p.X-hw, p.Y-hw),
			geom.Pt(p.X-hw, p.Y+hw),
			geom.Pt(p.X+hw, p.Y+hw),
			geom.Pt(p.X+hw, p.Y-hw))
	}
	z.Draw(dst, dst.Bounds(), image.NewUniform(c), image.Point{})
}

func quad(z *vector.Rasterizer, a, b, c, d geom.Point) {
	z.MoveTo(float32(a.X), float32(a.Y))
	z.LineTo(float32(b.X), float32(b.Y))
	z.LineTo(float32(c.X), float32(c.Y))
	z.LineTo(float32(d.X), float32(d.Y))
	z.ClosePath()
}

var goRegular = sync.OnceValues(func() (*opentype.Font, error) {
	return opentype.Parse(goregular.TTF)
})

// face returns a Go Regular face for a pixel size, cached in quarter
// pixel steps.
func (r *Raster) face(px float64) (font.Face, error) {
	px = math.Max(1, math.Min(px, 512))
	k := int(math.Round(px * 4))
	r.faces.mu.Lock()
	defer r.faces.mu.Unlock()
	if f, ok := r.faces.faces[k]; ok {
		return f, nil
	}
	f, err := goRegular()
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: float64(k) / 4, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		return nil, fmt.Errorf("font face: %w", err)
	}
	r.faces.faces[k] = face
	return face, nil
}

func (r *Raster) drawText(dst *image.RGBA, t annotation.Text, c color.RGBA) {
	face, err := r.face(annotation.TextSize * r.t.Scale)
	if err != nil {
		return
	}
	p := r.local(geom.Pt(t.X, t.Y))
	o := dst.Bounds().Min
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.Int26_6((p.X + float64(o.X)) * 64), Y: fixed.Int26_6((p.Y + float64(o.Y)) * 64)},
	}
	d.DrawString(t.Text)
}

func (r *Raster) drawDraft(dst *image.RGBA, d annotation.Draft) {
	switch d.Kind {
	case annotation.KindRect, annotation.KindEllipse:
		r.drawShape(dst, d.Shape(), d.Style, d.Style.StrokeWidth)
	case annotation.KindPolygon:
		pts := d.PreviewPoints()
		ring := make([]geom.Point, len(pts))
		for i, p := range pts {
			ring[i] = r.local(p)
		}
		if fill := colorOr(d.Style.FillColor, color.RGBA{}); fill.A > 0 && len(ring) >= 3 {
			fillPath(dst, ring, fill)
		}
		if len(ring) >= 2 {
			strokePath(dst, ring, false, d.Style.StrokeWidth, colorOr(d.Style.StrokeColor, color.RGBA{255, 0, 0, 255}))
		}
		for _, p := range ring[:len(d.Points)] {
			h := image.Rect(int(p.X)-3, int(p.Y)-3, int(p.X)+3, int(p.Y)+3).Add(dst.Bounds().Min)
			xdraw.Draw(dst, h, image.NewUniform(r.palette.Handle), image.Point{}, xdraw.Src)
			dashedRect(dst, h, 1, r.palette.SelectionB, r.palette.SelectionB)
		}
	}
}

func (r *Raster) drawSelection(dst *image.RGBA, b geom.Rect) {
	a, c := r.local(b.Min), r.local(b.Max)
	rect := image.Rect(int(math.Floor(a.X))-4, int(math.Floor(a.Y))-4, int(math.Ceil(c.X))+4, int(math.Ceil(c.Y))+4)
	dashedRect(dst, rect.Add(dst.Bounds().Min), 4, r.palette.SelectionA, r.palette.SelectionB)
}

// dashedRect outlines rect with alternating dashes of c1 and c2.
func dashedRect(dst *image.RGBA, rect image.Rectangle, dash int, c1, c2 color.Color) {
	corners := []image.Point{rect.Min, {rect.Max.X, rect.Min.Y}, rect.Max, {rect.Min.X, rect.Max.Y}}
	for i, a := range corners {
		b := corners[(i+1)%4]
		dashedLine(dst, a, b, dash, c1, c2)
	}
}

// dashedLine draws an axis-aligned dashed line from a to b.
func dashedLine(dst *image.RGBA, a, b image.Point, dash int, c1, c2 color.Color) {
	step := image.Pt(sign(b.X-a.X), sign(b.Y-a.Y))
	n := max(abs(b.X-a.X), abs(b.Y-a.Y))
	clip := dst.Bounds()
	for i := 0; i <= n; i++ {
		p := a.Add(step.Mul(i))
		if !p.In(clip) {
			continue
		}
		if (i/dash)%2 == 0 {
			dst.Set(p.X, p.Y, c1)
		} else {
			dst.Set(p.X, p.Y, c2)
		}
	}
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
