package annotation

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/example/annotator/internal/geom"
)

func populated(t *testing.T) *Store {
	t.Helper()
	s := newTestStore(nil)
	s.BeginBox(KindRect, geom.Pt(5, 5), DefaultStyle())
	s.FinishBox(geom.Pt(25, 15))
	s.BeginBox(KindEllipse, geom.Pt(0, 0), Style{StrokeColor: "blue", StrokeWidth: 3, FillColor: "none"})
	s.FinishBox(geom.Pt(40, 20))
	for _, p := range []geom.Point{{X: 1, Y: 1}, {X: 9, Y: 1}, {X: 5, Y: 8}} {
		s.AddVertex(p, DefaultStyle())
	}
	s.CompletePolygon()
	s.PlaceText(geom.Pt(3, 30), "label", DefaultStyle())
	return s
}

func TestExportImportRoundTrip(t *testing.T) {
	src := populated(t)
	img := "photo.png"
	now := time.Date(2024, 3, 1, 12, 0, 0, 250e6, time.FixedZone("X", 3600))
	doc := src.Export(&img, now)
	if doc.Timestamp != "2024-03-01T11:00:00.250Z" {
		t.Fatalf("timestamp = %q", doc.Timestamp)
	}
	b, err := MarshalDocument(doc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(b), "\n  \"annotations\"") {
		t.Fatalf("not indented:\n%s", b)
	}

	var evs []Event
	dst := NewStore(WithListener(func(ev Event) { evs = append(evs, ev) }))
	dec, err := dst.Import(b)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if dec.Image == nil || *dec.Image != img {
		t.Fatalf("image = %v", dec.Image)
	}
	if !reflect.DeepEqual(src.Annotations(), dst.Annotations()) {
		t.Fatalf("round trip mismatch\n got %+v\nwant %+v", dst.Annotations(), src.Annotations())
	}
	if len(evs) != 2 || evs[0].Name() != "annotations-cleared" || evs[1].Name() != "annotations-imported" {
		t.Fatalf("events = %v", names(evs))
	}
	if n := len(evs[1].(Imported).Annotations); n != 4 {
		t.Fatalf("imported event carries %d annotations", n)
	}
}

func TestExportNullImage(t *testing.T) {
	s := newTestStore(nil)
	b, err := MarshalDocument(s.Export(nil, time.Unix(0, 0)))
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatal(err)
	}
	if string(m["image"]) != "null" || string(m["annotations"]) != "[]" {
		t.Fatalf("document = %s", b)
	}
}

func TestImportPartialStyle(t *testing.T) {
	s := newTestStore(nil)
	doc := `{"image":null,"annotations":[
		{"id":"r1","type":"rect","style":{"strokeColor":"#00ff00"},"data":{"x":1,"y":2,"width":3,"height":4}},
		{"id":"r2","type":"rectangle","style":{"strokeWidth":"4.5","fillColor":""},"data":{"x":1,"y":2,"width":3,"height":4}},
		{"type":"ellipse","data":{"cx":1,"cy":2,"rx":3,"ry":4}}
	],"timestamp":"2024-01-01T00:00:00.000Z"}`
	if _, err := s.Import([]byte(doc)); err != nil {
		t.Fatalf("import: %v", err)
	}
	as := s.Annotations()
	def := DefaultStyle()
	if as[0].Style != (Style{StrokeColor: "#00ff00", StrokeWidth: def.StrokeWidth, FillColor: def.FillColor}) {
		t.Errorf("r1 style = %+v", as[0].Style)
	}
	if as[1].Style != (Style{StrokeColor: def.StrokeColor, StrokeWidth: 4.5, FillColor: def.FillColor}) {
		t.Errorf("r2 style = %+v", as[1].Style)
	}
	if as[1].Kind() != KindRect {
		t.Errorf("alias kind = %q", as[1].Kind())
	}
	if as[2].ID == "" || as[2].Style != def {
		t.Errorf("generated record = %+v", as[2])
	}
}

func TestImportInvalidLeavesStoreUntouched(t *testing.T) {
	bad := []string{
		`not json`,
		`{"image":null}`,
		`{"annotations":null}`,
		`{"annotations":[{"id":"x","type":"star","data":{}}]}`,
		`{"annotations":[{"id":"x","type":"rect","data":{"x":1,"y":1,"width":-1,"height":2}}]}`,
		`{"annotations":[{"id":"x","type":"rect","data":{"x":1,"y":1,"width":2}}]}`,
		`{"annotations":[{"id":"x","type":"polygon","data":{"points":[{"x":0,"y":0},{"x":1,"y":1}]}}]}`,
		`{"annotations":[{"id":"x","type":"text","data":{"x":0,"y":0,"text":""}}]}`,
		`{"annotations":[{"id":"x","type":"ellipse"}]}`,
		`{"annotations":[{"id":"x","type":"rect","style":{"strokeWidth":"wide"},"data":{"x":1,"y":1,"width":2,"height":2}}]}`,
		`{"annotations":[
			{"id":"d","type":"rect","data":{"x":1,"y":1,"width":2,"height":2}},
			{"id":"d","type":"rect","data":{"x":1,"y":1,"width":2,"height":2}}]}`,
		`{"image":7,"annotations":[]}`,
	}
	for _, in := range bad {
		var evs []Event
		s := populated(t)
		s.notify = func(ev Event) { evs = append(evs, ev) }
		before := s.Annotations()
		_, err := s.Import([]byte(in))
		if !errors.Is(err, ErrInvalidDocument) {
			t.Errorf("Import(%s) err = %v", in, err)
			continue
		}
		if !reflect.DeepEqual(before, s.Annotations()) || len(evs) != 0 {
			t.Errorf("Import(%s) modified the store", in)
		}
	}
}

func TestImportGeneratedIDsAvoidSuppliedOnes(t *testing.T) {
	s := NewStore(WithIDGenerator(func() func() string {
		ids := []string{"a1", "a1", "a2"}
		return func() string { id := ids[0]; ids = ids[1:]; return id }
	}()))
	doc := `{"annotations":[
		{"id":"a1","type":"text","data":{"x":0,"y":0,"text":"t"}},
		{"type":"text","data":{"x":0,"y":0,"text":"u"}}]}`
	if _, err := s.Import([]byte(doc)); err != nil {
		t.Fatal(err)
	}
	if as := s.Annotations(); as[1].ID != "a2" {
		t.Fatalf("ids = %q, %q", as[0].ID, as[1].ID)
	}
}
