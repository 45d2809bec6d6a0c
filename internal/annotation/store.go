// Package annotation holds finalized annotations, the single in-progress
// draft and the current selection, and converts them to and from the JSON
// exchange document.
package annotation

import (
	"github.com/example/annotator/internal/geom"
	"github.com/google/uuid"
)

// DefaultMinSize is the smallest extent a dragged box may have in both
// directions before it is kept.
const DefaultMinSize = 2.0

// Event is a store notification. Name returns the notification identifier
// (annotation-created, annotation-deleted, ...).
type Event interface {
	Name() string
}

// Created is emitted after a draft is finalized.
type Created struct{ Annotation Annotation }

// Selected is emitted when an annotation becomes the selection.
type Selected struct{ Annotation Annotation }

// Deleted is emitted after an annotation is removed.
type Deleted struct{ ID string }

// Cleared is emitted after the store is emptied.
type Cleared struct{}

// Imported is emitted after a document replaced the store contents.
type Imported struct{ Annotations []Annotation }

func (Created) Name() string  { return "annotation-created" }
func (Selected) Name() string { return "annotation-selected" }
func (Deleted) Name() string  { return "annotation-deleted" }
func (Cleared) Name() string  { return "annotations-cleared" }
func (Imported) Name() string { return "annotations-imported" }

// Store owns the ordered annotations. It is not safe for concurrent use.
type Store struct {
	items    []Annotation
	draft    *Draft
	selected string

	defaults Style
	minSize  float64
	newID    func() string
	notify   func(Event)
}

// Option modifies a Store during creation.
type Option func(*Store)

// WithDefaultStyle sets the style used to fill gaps in imported records.
func WithDefaultStyle(s Style) Option { return func(st *Store) { st.defaults = s } }

// WithMinSize sets the minimum box extent kept by FinishBox.
func WithMinSize(v float64) Option {
	return func(st *Store) {
		if v >= 0 && geom.Finite(v) {
			st.minSize = v
		}
	}
}

// WithIDGenerator replaces the uuid based id source.
func WithIDGenerator(fn func() string) Option { return func(st *Store) { st.newID = fn } }

// WithListener registers the notification callback.
func WithListener(fn func(Event)) Option { return func(st *Store) { st.notify = fn } }

// NewStore creates an empty Store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		defaults: DefaultStyle(),
		minSize:  DefaultMinSize,
		newID:    func() string { return "annotation-" + uuid.NewString() },
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Store) emit(ev Event) {
	if s.notify != nil {
		s.notify(ev)
	}
}

// DefaultStyle returns the fallback style for imports.
func (s *Store) DefaultStyle() Style { return s.defaults }

// SetDefaultStyle replaces the fallback style for imports.
func (s *Store) SetDefaultStyle(st Style) { s.defaults = st }

// Len returns the number of finalized annotations.
func (s *Store) Len() int { return len(s.items) }

// Annotations returns a deep copy of the annotations in creation order.
func (s *Store) Annotations() []Annotation {
	out := make([]Annotation, len(s.items))
	for i, a := range s.items {
		out[i] = a.Clone()
	}
	return out
}

// Get returns a copy of the annotation with id.
func (s *Store) Get(id string) (Annotation, bool) {
	if i := s.indexOf(id); i >= 0 {
		return s.items[i].Clone(), true
	}
	return Annotation{}, false
}

func (s *Store) indexOf(id string) int {
	if id == "" {
		return -1
	}
	for i, a := range s.items {
		if a.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) freshID() string {
	for {
		id := s.newID()
		if id != "" && s.indexOf(id) < 0 {
			return id
		}
	}
}

// finalize appends shape as a new annotation and clears the draft.
func (s *Store) finalize(shape Shape, style Style) Annotation {
	a := Annotation{ID: s.freshID(), Shape: shape.clone(), Style: style}
	s.items = append(s.items, a)
	s.draft = nil
	s.emit(Created{Annotation: a.Clone()})
	return a.Clone()
}

// Selection returns the selected annotation, if any.
func (s *Store) Selection() (Annotation, bool) {
	return s.Get(s.selected)
}

// SelectedID returns the id of the selection or "".
func (s *Store) SelectedID() string { return s.selected }

// Select makes id the single selection. Unknown ids are ignored.
func (s *Store) Select(id string) bool {
	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	s.selected = id
	s.emit(Selected{Annotation: s.items[i].Clone()})
	return true
}

// SelectAt selects the topmost annotation hit by p. A miss clears the
// selection.
func (s *Store) SelectAt(p geom.Point, tol float64) (Annotation, bool) {
	if a, ok := s.HitTest(p, tol); ok {
		s.Select(a.ID)
		return a, true
	}
	s.Deselect()
	return Annotation{}, false
}

// HitTest returns the most recently created annotation under p.
func (s *Store) HitTest(p geom.Point, tol float64) (Annotation, bool) {
	for i := len(s.items) - 1; i >= 0; i-- {
		if s.items[i].Shape.Hit(p, tol) {
			return s.items[i].Clone(), true
		}
	}
	return Annotation{}, false
}

// Deselect clears the selection.
func (s *Store) Deselect() bool {
	if s.selected == "" {
		return false
	}
	s.selected = ""
	return true
}

// Delete removes the annotation with id. Deleting an unknown id does
// nothing and emits nothing.
func (s *Store) Delete(id string) bool {
	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	if s.selected == id {
		s.selected = ""
	}
	s.emit(Deleted{ID: id})
	return true
}

// DeleteSelection removes the selected annotation.
func (s *Store) DeleteSelection() bool {
	if s.selected == "" {
		return false
	}
	return s.Delete(s.selected)
}

// Clear removes every annotation, the selection and any draft.
func (s *Store) Clear() {
	s.items = nil
	s.selected = ""
	s.draft = nil
	s.emit(Cleared{})
}

// Restyle applies patch to the draft, or to the selection when there is no
// draft. Geometry is never touched.
func (s *Store) Restyle(patch StylePatch) bool {
	if patch.Empty() {
		return false
	}
	if s.draft != nil {
		s.draft.Style = patch.Apply(s.draft.Style)
		return true
	}
	if i := s.indexOf(s.selected); i >= 0 {
		s.items[i].Style = patch.Apply(s.items[i].Style)
		return true
	}
	return false
}

// replace swaps in a validated set of annotations.
func (s *Store) replace(items []Annotation) {
	s.items = nil
	s.selected = ""
	s.draft = nil
	s.emit(Cleared{})
	s.items = make([]Annotation, len(items))
	for i, a := range items {
		s.items[i] = a.Clone()
	}
	s.emit(Imported{Annotations: s.Annotations()})
}
