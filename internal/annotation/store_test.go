package annotation

import (
	"fmt"
	"testing"

	"github.com/example/annotator/internal/geom"
)

func seqIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("a%d", n)
	}
}

func newTestStore(events *[]Event) *Store {
	return NewStore(WithIDGenerator(seqIDs()), WithListener(func(ev Event) {
		if events != nil {
			*events = append(*events, ev)
		}
	}))
}

func names(evs []Event) []string {
	out := make([]string, len(evs))
	for i, ev := range evs {
		out[i] = ev.Name()
	}
	return out
}

func TestRectangleNormalized(t *testing.T) {
	var evs []Event
	s := newTestStore(&evs)
	s.BeginBox(KindRect, geom.Pt(10, 10), DefaultStyle())
	s.UpdateBox(geom.Pt(7, 7))
	a, ok := s.FinishBox(geom.Pt(5, 5))
	if !ok {
		t.Fatal("rectangle discarded")
	}
	want := Rect{X: 5, Y: 5, Width: 5, Height: 5}
	if a.Shape != want {
		t.Fatalf("shape = %+v, want %+v", a.Shape, want)
	}
	if a.ID != "a1" {
		t.Fatalf("id = %q", a.ID)
	}
	if s.HasDraft() {
		t.Fatal("draft survived finalization")
	}
	if len(evs) != 1 || evs[0].Name() != "annotation-created" {
		t.Fatalf("events %v", names(evs))
	}
}

func TestBoxBelowMinimumSizeDiscarded(t *testing.T) {
	cases := []struct {
		kind     Kind
		from, to geom.Point
	}{
		{KindRect, geom.Pt(0, 0), geom.Pt(1.9, 50)},
		{KindRect, geom.Pt(0, 0), geom.Pt(50, 1)},
		{KindRect, geom.Pt(3, 3), geom.Pt(3, 3)},
		{KindEllipse, geom.Pt(10, 10), geom.Pt(11, 40)},
	}
	for _, c := range cases {
		var evs []Event
		s := newTestStore(&evs)
		s.BeginBox(c.kind, c.from, DefaultStyle())
		if _, ok := s.FinishBox(c.to); ok {
			t.Errorf("%s %v-%v kept", c.kind, c.from, c.to)
		}
		if s.Len() != 0 || len(evs) != 0 || s.HasDraft() {
			t.Errorf("%s: len=%d events=%v draft=%v", c.kind, s.Len(), names(evs), s.HasDraft())
		}
	}
}

func TestEllipseFromBox(t *testing.T) {
	s := newTestStore(nil)
	s.BeginBox(KindEllipse, geom.Pt(10, 20), DefaultStyle())
	a, ok := s.FinishBox(geom.Pt(30, 60))
	if !ok {
		t.Fatal("ellipse discarded")
	}
	want := Ellipse{CX: 20, CY: 40, RX: 10, RY: 20}
	if a.Shape != want {
		t.Fatalf("shape = %+v, want %+v", a.Shape, want)
	}
}

func TestPolygonCompletion(t *testing.T) {
	s := newTestStore(nil)
	s.AddVertex(geom.Pt(0, 0), DefaultStyle())
	s.AddVertex(geom.Pt(10, 0), DefaultStyle())
	if _, ok := s.CompletePolygon(); ok {
		t.Fatal("two vertex polygon finalized")
	}
	if s.Len() != 0 || s.HasDraft() {
		t.Fatal("short polygon left state behind")
	}

	pts := []geom.Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}}
	for _, p := range pts {
		s.AddVertex(p, DefaultStyle())
	}
	s.PreviewVertex(geom.Pt(5, 20))
	d, _ := s.Draft()
	if n := len(d.PreviewPoints()); n != 5 {
		t.Fatalf("preview has %d points", n)
	}
	a, ok := s.CompletePolygon()
	if !ok {
		t.Fatal("polygon discarded")
	}
	got := a.Shape.(Polygon).Points
	if len(got) != len(pts) {
		t.Fatalf("points = %v", got)
	}
	for i := range pts {
		if got[i] != pts[i] {
			t.Fatalf("vertex order changed: %v", got)
		}
	}
}

func TestPlaceText(t *testing.T) {
	s := newTestStore(nil)
	if _, ok := s.PlaceText(geom.Pt(1, 1), "   ", DefaultStyle()); ok {
		t.Fatal("blank label created")
	}
	a, ok := s.PlaceText(geom.Pt(1, 20), "hello", DefaultStyle())
	if !ok || a.Shape != (Text{X: 1, Y: 20, Text: "hello"}) {
		t.Fatalf("got %+v %v", a, ok)
	}
	b := a.Shape.Bounds()
	if b.Dx() <= 0 || b.Min.Y >= 20 {
		t.Fatalf("bounds %+v", b)
	}
}

func TestDeleteIdempotent(t *testing.T) {
	var evs []Event
	s := newTestStore(&evs)
	s.BeginBox(KindRect, geom.Pt(0, 0), DefaultStyle())
	a, _ := s.FinishBox(geom.Pt(10, 10))
	s.Select(a.ID)
	if !s.Delete(a.ID) {
		t.Fatal("first delete failed")
	}
	if s.Delete(a.ID) {
		t.Fatal("second delete reported success")
	}
	if _, ok := s.Selection(); ok {
		t.Fatal("selection points at deleted annotation")
	}
	want := []string{"annotation-created", "annotation-selected", "annotation-deleted"}
	if fmt.Sprint(names(evs)) != fmt.Sprint(want) {
		t.Fatalf("events = %v", names(evs))
	}
}

func TestSelectAtTopmost(t *testing.T) {
	s := newTestStore(nil)
	s.BeginBox(KindRect, geom.Pt(0, 0), DefaultStyle())
	s.FinishBox(geom.Pt(100, 100))
	s.BeginBox(KindEllipse, geom.Pt(40, 40), DefaultStyle())
	top, _ := s.FinishBox(geom.Pt(60, 60))

	got, ok := s.SelectAt(geom.Pt(50, 50), 0)
	if !ok || got.ID != top.ID {
		t.Fatalf("selected %q, want %q", got.ID, top.ID)
	}
	if _, ok := s.SelectAt(geom.Pt(500, 500), 0); ok {
		t.Fatal("miss selected something")
	}
	if s.SelectedID() != "" {
		t.Fatal("miss did not clear selection")
	}
	if s.Select("nope") {
		t.Fatal("unknown id selected")
	}
}

func TestRestyleTargetsDraftThenSelection(t *testing.T) {
	s := newTestStore(nil)
	s.BeginBox(KindRect, geom.Pt(0, 0), DefaultStyle())
	a, _ := s.FinishBox(geom.Pt(10, 10))
	blue := "#0000ff"
	w := 5.0
	if s.Restyle(StylePatch{StrokeColor: &blue}) {
		t.Fatal("restyle without draft or selection succeeded")
	}
	s.Select(a.ID)
	if !s.Restyle(StylePatch{StrokeColor: &blue, StrokeWidth: &w}) {
		t.Fatal("restyle selection failed")
	}
	got, _ := s.Get(a.ID)
	if got.Style.StrokeColor != blue || got.Style.StrokeWidth != 5 || got.Style.FillColor != DefaultStyle().FillColor {
		t.Fatalf("style = %+v", got.Style)
	}
	if got.Shape != a.Shape {
		t.Fatal("restyle changed geometry")
	}

	zero, blank := 0.0, ""
	if s.Restyle(StylePatch{StrokeWidth: &zero, FillColor: &blank}) {
		t.Fatal("restyle with only blank values succeeded")
	}
	if got, _ := s.Get(a.ID); got.Style.StrokeWidth != 5 || got.Style.FillColor == "" {
		t.Fatalf("blank patch changed style %+v", got.Style)
	}

	s.BeginBox(KindRect, geom.Pt(0, 0), DefaultStyle())
	red := "red"
	s.Restyle(StylePatch{StrokeColor: &red})
	if d, _ := s.Draft(); d.Style.StrokeColor != "red" {
		t.Fatalf("draft style = %+v", d.Style)
	}
	if got, _ := s.Get(a.ID); got.Style.StrokeColor != blue {
		t.Fatal("selection restyled while a draft existed")
	}
}

func TestAnnotationsSnapshotIsolated(t *testing.T) {
	s := newTestStore(nil)
	for _, p := range []geom.Point{{X: 0, Y: 0}, {X: 5, Y: 0}, {X: 5, Y: 5}} {
		s.AddVertex(p, DefaultStyle())
	}
	s.CompletePolygon()
	snap := s.Annotations()
	snap[0].Shape.(Polygon).Points[0] = geom.Pt(99, 99)
	if s.Annotations()[0].Shape.(Polygon).Points[0] != geom.Pt(0, 0) {
		t.Fatal("snapshot aliases store geometry")
	}
}

func TestClear(t *testing.T) {
	var evs []Event
	s := newTestStore(&evs)
	s.BeginBox(KindRect, geom.Pt(0, 0), DefaultStyle())
	a, _ := s.FinishBox(geom.Pt(10, 10))
	s.Select(a.ID)
	s.AddVertex(geom.Pt(1, 1), DefaultStyle())
	s.Clear()
	if s.Len() != 0 || s.SelectedID() != "" || s.HasDraft() {
		t.Fatal("clear left state behind")
	}
	if evs[len(evs)-1].Name() != "annotations-cleared" {
		t.Fatalf("events = %v", names(evs))
	}
}

func TestCancelDraft(t *testing.T) {
	s := newTestStore(nil)
	if s.CancelDraft() {
		t.Fatal("cancel without draft")
	}
	s.AddVertex(geom.Pt(1, 1), DefaultStyle())
	if !s.CancelDraft() || s.HasDraft() || s.VertexCount() != 0 {
		t.Fatal("draft not discarded")
	}
}

func TestPolygonHitConcave(t *testing.T) {
	// U shape opening upwards.
	p := Polygon{Points: []geom.Point{
		{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 30}, {X: 20, Y: 30},
		{X: 20, Y: 0}, {X: 30, Y: 0}, {X: 30, Y: 40}, {X: 0, Y: 40},
	}}
	if !p.Hit(geom.Pt(5, 20), 0) {
		t.Error("left arm not hit")
	}
	if p.Hit(geom.Pt(15, 10), 0) {
		t.Error("notch hit")
	}
	if !p.Hit(geom.Pt(15, 29), 1.5) {
		t.Error("edge tolerance ignored")
	}
}
