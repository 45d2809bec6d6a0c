package overlay

import (
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/example/annotator/internal/annotation"
	"github.com/example/annotator/internal/geom"
	"github.com/example/annotator/internal/viewport"
)

func whiteImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)
	return img
}

func TestParseColor(t *testing.T) {
	cases := map[string]color.RGBA{
		"#f00":                 {255, 0, 0, 255},
		"#00ff00":              {0, 255, 0, 255},
		"#0000ff80":            {0, 0, 128, 128},
		"rgb(1, 2, 3)":         {1, 2, 3, 255},
		"rgba(255, 0, 0, 0.2)": {51, 0, 0, 51},
		"navy":                 {0, 0, 128, 255},
		"none":                 {},
		" Transparent ":        {},
	}
	for in, want := range cases {
		got, err := ParseColor(in)
		if err != nil {
			t.Errorf("ParseColor(%q): %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("ParseColor(%q) = %v, want %v", in, got, want)
		}
	}
	for _, in := range []string{"#12", "rgb(1,2)", "blurple", "rgb(a,b,c)"} {
		if _, err := ParseColor(in); err == nil {
			t.Errorf("ParseColor(%q) accepted", in)
		}
	}
}

func TestFlattenDrawsStrokeAndFill(t *testing.T) {
	img := whiteImage(100, 100)
	a := annotation.Annotation{
		ID:    "r",
		Shape: annotation.Rect{X: 10, Y: 10, Width: 50, Height: 50},
		Style: annotation.Style{StrokeColor: "#ff0000", StrokeWidth: 2, FillColor: "rgba(0, 0, 255, 0.5)"},
	}
	out := Flatten(img, []annotation.Annotation{a})
	if out.Bounds() != img.Bounds() {
		t.Fatalf("bounds = %v", out.Bounds())
	}
	if c := out.RGBAAt(10, 30); c.R < 200 || c.G > 60 || c.B > 60 {
		t.Errorf("edge pixel = %v, want red", c)
	}
	if c := out.RGBAAt(35, 35); c.B < 200 || c.R > 160 {
		t.Errorf("interior pixel = %v, want blue tint", c)
	}
	if c := out.RGBAAt(80, 80); c != (color.RGBA{255, 255, 255, 255}) {
		t.Errorf("outside pixel = %v, want white", c)
	}
	if img.RGBAAt(10, 30) != (color.RGBA{255, 255, 255, 255}) {
		t.Error("Flatten modified the source image")
	}
}

func TestRenderKeepsStrokeWidthUnderZoom(t *testing.T) {
	img := whiteImage(50, 50)
	a := annotation.Annotation{
		ID:    "r",
		Shape: annotation.Rect{X: 10, Y: 10, Width: 10, Height: 10},
		Style: annotation.Style{StrokeColor: "#000000", StrokeWidth: 2, FillColor: "none"},
	}
	vp := viewport.New()
	r := NewRaster()
	src := &listSource{a}
	s := NewSynchronizer(vp, r, src)
	defer s.Close()
	vp.ZoomAt(geom.Pt(0, 0), 2)

	if w, _ := r.StrokeWidth("r"); w != 1 {
		t.Fatalf("content stroke = %v, want 1", w)
	}
	dst := image.NewRGBA(image.Rect(0, 0, 100, 100))
	r.Render(dst, Scene{Image: img, Annotations: *src})
	// The left edge sits at screen x=20 and is two pixels wide.
	if c := dst.RGBAAt(20, 30); c.R > 40 {
		t.Errorf("stroke pixel = %v", c)
	}
	if c := dst.RGBAAt(23, 30); c.R < 200 {
		t.Errorf("pixel beyond the stroke = %v", c)
	}
	// Image pixels are magnified.
	if c := dst.RGBAAt(90, 90); c != (color.RGBA{255, 255, 255, 255}) {
		t.Errorf("image pixel = %v", c)
	}
}

func TestRenderTextAndSelection(t *testing.T) {
	dst := whiteImage(120, 60)
	a := annotation.Annotation{
		ID:    "t",
		Shape: annotation.Text{X: 10, Y: 30, Text: "Hi"},
		Style: annotation.DefaultStyle(),
	}
	r := NewRaster()
	r.Render(dst, Scene{Annotations: []annotation.Annotation{a}, Selected: "t"})
	red := 0
	b := a.Shape.Bounds()
	for y := int(b.Min.Y); y < int(b.Max.Y); y++ {
		for x := int(b.Min.X); x < int(b.Max.X); x++ {
			if c := dst.RGBAAt(x, y); c.R > 200 && c.G < 100 {
				red++
			}
		}
	}
	if red == 0 {
		t.Fatal("no text pixels drawn")
	}
	// The second dash along the top edge uses the dark colour.
	corner := image.Pt(int(b.Min.X)-4, int(b.Min.Y)-4)
	if c := dst.RGBAAt(corner.X+4, corner.Y); c != DefaultPalette().SelectionB {
		t.Errorf("selection dash = %v", c)
	}
}

func TestRenderPolygonDraft(t *testing.T) {
	dst := whiteImage(60, 60)
	d := annotation.Draft{
		Kind:      annotation.KindPolygon,
		Style:     annotation.Style{StrokeColor: "#00ff00", StrokeWidth: 2, FillColor: "none"},
		Points:    []geom.Point{{X: 10, Y: 10}, {X: 40, Y: 10}},
		Cursor:    geom.Pt(40, 40),
		HasCursor: true,
	}
	NewRaster().Render(dst, Scene{Draft: &d})
	if c := dst.RGBAAt(25, 10); c.G < 200 || c.R > 60 {
		t.Errorf("committed segment = %v", c)
	}
	if c := dst.RGBAAt(40, 25); c.G < 200 || c.R > 60 {
		t.Errorf("rubber band segment = %v", c)
	}
}

func TestSnapshotIsIndependent(t *testing.T) {
	r := NewRaster()
	r.SetStrokeWidth("a", 3)
	snap := r.Snapshot()
	r.SetStrokeWidth("a", 1)
	r.SetTransform(viewport.Transform{Scale: 2})
	if w, _ := snap.StrokeWidth("a"); w != 3 {
		t.Fatalf("snapshot width = %v", w)
	}
	if snap.Transform() != viewport.Identity() {
		t.Fatalf("snapshot transform = %+v", snap.Transform())
	}
}

func TestSnapshotsShareFaces(t *testing.T) {
	r := NewRaster()
	snap := r.Snapshot()
	dst := whiteImage(60, 30)
	snap.Render(dst, Scene{Annotations: []annotation.Annotation{{
		ID:    "t",
		Shape: annotation.Text{X: 2, Y: 20, Text: "hi"},
		Style: annotation.DefaultStyle(),
	}}})
	if n := len(r.faces.faces); n != 1 {
		t.Fatalf("live raster sees %d cached faces, want 1", n)
	}
	if next := r.Snapshot(); next.faces != r.faces {
		t.Fatal("later snapshot got a fresh face cache")
	}
}

func TestRenderOffsetDestination(t *testing.T) {
	dst := image.NewRGBA(image.Rect(10, 10, 60, 60))
	a := annotation.Annotation{
		ID:    "r",
		Shape: annotation.Rect{X: 5, Y: 5, Width: 15, Height: 15},
		Style: annotation.Style{StrokeColor: "#0000ff", StrokeWidth: 2, FillColor: "none"},
	}
	NewRaster().Render(dst, Scene{Image: whiteImage(50, 50), Annotations: []annotation.Annotation{a}})
	for _, p := range []image.Point{{15, 22}, {30, 22}} {
		if c := dst.RGBAAt(p.X, p.Y); c.B < 200 || c.R > 60 {
			t.Errorf("edge at %v = %v, want blue", p, c)
		}
	}
	if c := dst.RGBAAt(25, 22); c != (color.RGBA{255, 255, 255, 255}) {
		t.Errorf("interior = %v, want the white image", c)
	}
	if c := dst.RGBAAt(12, 22); c != (color.RGBA{255, 255, 255, 255}) {
		t.Errorf("outside the rect = %v, want the white image", c)
	}
}
