package annotation

import (
	"strings"

	"github.com/example/annotator/internal/geom"
)

// Draft is the single shape under construction. It carries no id.
type Draft struct {
	Kind  Kind
	Style Style

	// Anchor and Current span the box of a rect or ellipse draft.
	Anchor, Current geom.Point

	// Points are the committed polygon vertices; Cursor is the live end of
	// the rubber-band segment when HasCursor is set.
	Points    []geom.Point
	Cursor    geom.Point
	HasCursor bool
}

// Shape returns the geometry the draft would finalize to now.
func (d Draft) Shape() Shape {
	switch d.Kind {
	case KindRect:
		return RectBetween(d.Anchor, d.Current)
	case KindEllipse:
		return EllipseBetween(d.Anchor, d.Current)
	case KindPolygon:
		return Polygon{Points: append([]geom.Point(nil), d.Points...)}
	}
	return nil
}

// PreviewPoints returns the polygon vertices followed by the cursor point.
func (d Draft) PreviewPoints() []geom.Point {
	pts := append([]geom.Point(nil), d.Points...)
	if d.HasCursor {
		pts = append(pts, d.Cursor)
	}
	return pts
}

func (d Draft) clone() Draft {
	d.Points = append([]geom.Point(nil), d.Points...)
	return d
}

// Draft returns a copy of the draft in progress.
func (s *Store) Draft() (Draft, bool) {
	if s.draft == nil {
		return Draft{}, false
	}
	return s.draft.clone(), true
}

// HasDraft reports whether a shape is under construction.
func (s *Store) HasDraft() bool { return s.draft != nil }

// CancelDraft discards the draft. It reports whether one existed.
func (s *Store) CancelDraft() bool {
	if s.draft == nil {
		return false
	}
	s.draft = nil
	return true
}

// BeginBox starts a rect or ellipse draft anchored at p, replacing any
// draft in progress.
func (s *Store) BeginBox(kind Kind, p geom.Point, style Style) bool {
	if kind != KindRect && kind != KindEllipse {
		return false
	}
	s.draft = &Draft{Kind: kind, Style: style, Anchor: p, Current: p}
	return true
}

// UpdateBox moves the free corner of a box draft.
func (s *Store) UpdateBox(p geom.Point) bool {
	if s.draft == nil || (s.draft.Kind != KindRect && s.draft.Kind != KindEllipse) {
		return false
	}
	s.draft.Current = p
	return true
}

// FinishBox ends a box draft at p. A box narrower or shorter than the
// minimum size is dropped without an event.
func (s *Store) FinishBox(p geom.Point) (Annotation, bool) {
	if !s.UpdateBox(p) {
		return Annotation{}, false
	}
	d := s.draft
	w, h := d.Current.Sub(d.Anchor).X, d.Current.Sub(d.Anchor).Y
	if w < 0 {
		w = -w
	}
	if h < 0 {
		h = -h
	}
	if w < s.minSize || h < s.minSize {
		s.draft = nil
		return Annotation{}, false
	}
	return s.finalize(d.Shape(), d.Style), true
}

// AddVertex commits a polygon vertex. The first vertex creates the draft,
// replacing a draft of another kind.
func (s *Store) AddVertex(p geom.Point, style Style) int {
	if s.draft == nil || s.draft.Kind != KindPolygon {
		s.draft = &Draft{Kind: KindPolygon, Style: style}
	}
	s.draft.Points = append(s.draft.Points, p)
	s.draft.Cursor = p
	s.draft.HasCursor = false
	return len(s.draft.Points)
}

// PreviewVertex moves the rubber-band end of a polygon draft.
func (s *Store) PreviewVertex(p geom.Point) bool {
	if s.draft == nil || s.draft.Kind != KindPolygon {
		return false
	}
	s.draft.Cursor = p
	s.draft.HasCursor = true
	return true
}

// VertexCount returns the committed vertices of a polygon draft.
func (s *Store) VertexCount() int {
	if s.draft == nil || s.draft.Kind != KindPolygon {
		return 0
	}
	return len(s.draft.Points)
}

// CompletePolygon finalizes a polygon draft with at least three vertices.
// Fewer vertices discard the draft.
func (s *Store) CompletePolygon() (Annotation, bool) {
	if s.draft == nil || s.draft.Kind != KindPolygon {
		return Annotation{}, false
	}
	d := s.draft
	if len(d.Points) < 3 {
		s.draft = nil
		return Annotation{}, false
	}
	return s.finalize(d.Shape(), d.Style), true
}

// PlaceText finalizes a label at p. Blank text creates nothing.
func (s *Store) PlaceText(p geom.Point, text string, style Style) (Annotation, bool) {
	if strings.TrimSpace(text) == "" {
		return Annotation{}, false
	}
	return s.finalize(Text{X: p.X, Y: p.Y, Text: text}, style), true
}
