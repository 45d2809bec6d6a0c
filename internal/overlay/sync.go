// Package overlay keeps the annotation layer locked to the viewport
// transform and rasterizes image, annotations and draft into frames.
package overlay

import (
	"github.com/example/annotator/internal/annotation"
	"github.com/example/annotator/internal/viewport"
)

// Surface is a rendering target for the annotation layer.
type Surface interface {
	// SetTransform applies the viewport transform to the whole layer.
	SetTransform(viewport.Transform)
	// SetStrokeWidth sets the content-space stroke width of one element.
	SetStrokeWidth(id string, width float64)
	// Remove drops an element.
	Remove(id string)
}

// Source lists the annotations currently in the layer.
type Source interface {
	Annotations() []annotation.Annotation
}

// Synchronizer projects viewport changes onto a Surface. It keeps only the
// last applied transform and the ids it pushed to the surface.
type Synchronizer struct {
	surface Surface
	source  Source
	vp      *viewport.Controller

	last    viewport.Transform
	applied bool
	known   map[string]bool
	cancel  func()
}

// NewSynchronizer subscribes to vp and applies its current transform once.
func NewSynchronizer(vp *viewport.Controller, surface Surface, source Source) *Synchronizer {
	s := &Synchronizer{surface: surface, source: source, vp: vp, known: map[string]bool{}}
	s.cancel = vp.Subscribe(s.apply)
	s.apply(vp.Transform())
	return s
}

func (s *Synchronizer) apply(t viewport.Transform) {
	if s.applied && t == s.last {
		return
	}
	s.surface.SetTransform(t)
	for _, a := range s.source.Annotations() {
		s.push(a, t.Scale)
	}
	s.last = t
	s.applied = true
}

func (s *Synchronizer) push(a annotation.Annotation, scale float64) {
	s.surface.SetStrokeWidth(a.ID, a.Style.StrokeWidth/scale)
	s.known[a.ID] = true
}

// Track pushes the stroke width of a new or restyled annotation.
func (s *Synchronizer) Track(a annotation.Annotation) {
	s.push(a, s.vp.Scale())
}

// Forget removes an annotation from the surface.
func (s *Synchronizer) Forget(id string) {
	if !s.known[id] {
		return
	}
	delete(s.known, id)
	s.surface.Remove(id)
}

// Resync drops every element the surface knows about and pushes the
// current source contents again. Used after clear and import.
func (s *Synchronizer) Resync() {
	for id := range s.known {
		s.surface.Remove(id)
	}
	s.known = map[string]bool{}
	scale := s.vp.Scale()
	for _, a := range s.source.Annotations() {
		s.push(a, scale)
	}
}

// LastApplied returns the transform most recently pushed to the surface.
func (s *Synchronizer) LastApplied() viewport.Transform { return s.last }

// Close unsubscribes from the viewport.
func (s *Synchronizer) Close() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}
