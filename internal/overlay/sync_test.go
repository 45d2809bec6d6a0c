package overlay

import (
	"testing"

	"github.com/example/annotator/internal/annotation"
	"github.com/example/annotator/internal/geom"
	"github.com/example/annotator/internal/viewport"
)

type fakeSurface struct {
	transforms []viewport.Transform
	widths     map[string]float64
	removed    []string
}

func newFakeSurface() *fakeSurface { return &fakeSurface{widths: map[string]float64{}} }

func (f *fakeSurface) SetTransform(t viewport.Transform) { f.transforms = append(f.transforms, t) }
func (f *fakeSurface) SetStrokeWidth(id string, w float64) { f.widths[id] = w }
func (f *fakeSurface) Remove(id string) {
	delete(f.widths, id)
	f.removed = append(f.removed, id)
}

type listSource []annotation.Annotation

func (l *listSource) Annotations() []annotation.Annotation { return *l }

func TestSynchronizerFollowsViewport(t *testing.T) {
	vp := viewport.New()
	surf := newFakeSurface()
	src := &listSource{{ID: "a", Shape: annotation.Rect{Width: 5, Height: 5}, Style: annotation.Style{StrokeWidth: 4}}}
	s := NewSynchronizer(vp, surf, src)
	defer s.Close()

	if len(surf.transforms) != 1 || surf.widths["a"] != 4 {
		t.Fatalf("initial apply: %+v %v", surf.transforms, surf.widths)
	}
	vp.ZoomAt(geom.Pt(10, 10), 2)
	if got := surf.transforms[len(surf.transforms)-1]; got != vp.Transform() {
		t.Fatalf("surface transform %+v, viewport %+v", got, vp.Transform())
	}
	if surf.widths["a"] != 2 {
		t.Fatalf("stroke = %v, want 2", surf.widths["a"])
	}

	n := len(surf.transforms)
	vp.SetTransform(vp.Transform())
	if len(surf.transforms) != n {
		t.Fatal("identical transform re-applied")
	}

	s.Close()
	vp.PanBy(5, 5)
	if len(surf.transforms) != n {
		t.Fatal("closed synchronizer still applying")
	}
}

func TestSynchronizerTrackForgetResync(t *testing.T) {
	vp := viewport.New()
	vp.ZoomAt(geom.Pt(0, 0), 4)
	surf := newFakeSurface()
	src := &listSource{}
	s := NewSynchronizer(vp, surf, src)

	a := annotation.Annotation{ID: "x", Shape: annotation.Rect{}, Style: annotation.Style{StrokeWidth: 2}}
	*src = append(*src, a)
	s.Track(a)
	if surf.widths["x"] != 0.5 {
		t.Fatalf("tracked width = %v", surf.widths["x"])
	}
	s.Forget("x")
	s.Forget("x")
	if len(surf.removed) != 1 {
		t.Fatalf("removed = %v", surf.removed)
	}

	s.Track(a)
	*src = listSource{{ID: "y", Style: annotation.Style{StrokeWidth: 8}, Shape: annotation.Rect{}}}
	s.Resync()
	if _, ok := surf.widths["x"]; ok {
		t.Fatal("stale element survived resync")
	}
	if surf.widths["y"] != 2 {
		t.Fatalf("resync width = %v", surf.widths["y"])
	}
}
