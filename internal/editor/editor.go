// Package editor is the interaction core: it owns the viewport, the tool
// machine, the click/drag discriminator and the annotation store, and routes
// raw pointer and key events between them.
package editor

import (
	"fmt"
	"image"
	"log"

	"github.com/example/annotator/internal/annotation"
	"github.com/example/annotator/internal/config"
	"github.com/example/annotator/internal/geom"
	"github.com/example/annotator/internal/gesture"
	"github.com/example/annotator/internal/overlay"
	"github.com/example/annotator/internal/tool"
	"github.com/example/annotator/internal/viewport"
)

// selectTolerance is the hit slack for selection clicks in screen pixels.
const selectTolerance = 4.0

// Event is a notification delivered to the host. Annotation store events
// are forwarded unchanged.
type Event interface {
	Name() string
}

// ToolChanged is emitted after the active tool changes.
type ToolChanged struct{ From, To tool.Mode }

// ImageClick is emitted for clicks that reach the viewport.
type ImageClick struct {
	Screen  geom.Point
	Content geom.Point
	Inside  bool
	Count   int
}

// Exported is emitted each time the annotations are exported, carrying the
// document handed out.
type Exported struct{ Document annotation.Document }

func (ToolChanged) Name() string { return "tool-changed" }
func (ImageClick) Name() string  { return "image-click" }
func (Exported) Name() string    { return "annotations-exported" }

// TextPrompt asks the user for a label placed at a content point.
type TextPrompt func(at geom.Point) (string, bool)

// Editor wires the interaction components together. All methods must be
// called from the event thread.
type Editor struct {
	cfg     *config.Config
	clock   gesture.Clock
	notify  func(Event)
	prompt  TextPrompt
	newID   func() string
	surface overlay.Surface
	initial tool.Mode

	vp    *viewport.Controller
	store *annotation.Store
	tools *tool.Machine
	disc  *gesture.Discriminator
	sync  *overlay.Synchronizer

	style  annotation.Style
	image  *string
	closed bool
}

// Option modifies an Editor during creation.
type Option func(*Editor)

// WithConfig supplies thresholds, zoom limits and authoring defaults.
func WithConfig(c *config.Config) Option { return func(e *Editor) { e.cfg = c } }

// WithClock replaces the wall clock used by the discriminator. Without it
// an expired drag delay takes effect at the next pointer event, always on
// the caller's goroutine.
func WithClock(c gesture.Clock) Option { return func(e *Editor) { e.clock = c } }

// WithListener registers the notification callback.
func WithListener(fn func(Event)) Option { return func(e *Editor) { e.notify = fn } }

// WithTextPrompt sets how text labels are requested.
func WithTextPrompt(p TextPrompt) Option { return func(e *Editor) { e.prompt = p } }

// WithIDGenerator replaces the annotation id source.
func WithIDGenerator(fn func() string) Option { return func(e *Editor) { e.newID = fn } }

// WithSurface sets the overlay surface kept in sync with the viewport.
func WithSurface(s overlay.Surface) Option { return func(e *Editor) { e.surface = s } }

// WithInitialTool selects the tool active at start.
func WithInitialTool(m tool.Mode) Option { return func(e *Editor) { e.initial = m } }

// New creates an Editor in Pan mode at the identity transform.
func New(opts ...Option) *Editor {
	e := &Editor{initial: tool.Pan}
	for _, o := range opts {
		o(e)
	}
	if e.cfg == nil {
		e.cfg = config.New()
	}
	if e.clock == nil {
		e.clock = gesture.NewSystemClock(nil)
	}
	if e.surface == nil {
		e.surface = overlay.NewRaster()
	}
	e.style = e.cfg.Style()

	e.vp = viewport.New(viewport.WithFitMargin(e.cfg.Viewport.FitMargin))

	storeOpts := []annotation.Option{
		annotation.WithDefaultStyle(e.style),
		annotation.WithMinSize(e.cfg.Annotation.MinSize),
		annotation.WithListener(e.storeEvent),
	}
	if e.newID != nil {
		storeOpts = append(storeOpts, annotation.WithIDGenerator(e.newID))
	}
	e.store = annotation.NewStore(storeOpts...)
	e.sync = overlay.NewSynchronizer(e.vp, e.surface, e.store)
	e.disc = gesture.New(e.cfg.GestureConfig(), e.clock, e.vp, e.onGesture)
	e.tools = tool.NewMachine(e.initial, e.toolChanged)
	e.vp.SetPanningEnabled(e.tools.Mode() == tool.Pan)
	return e
}

func (e *Editor) emit(ev Event) {
	if e.notify != nil {
		e.notify(ev)
	}
}

func (e *Editor) storeEvent(ev annotation.Event) {
	switch ev := ev.(type) {
	case annotation.Created:
		e.sync.Track(ev.Annotation)
	case annotation.Deleted:
		e.sync.Forget(ev.ID)
	case annotation.Cleared, annotation.Imported:
		e.sync.Resync()
	}
	e.emit(ev)
}

// toolChanged discards in-progress work so nothing half-drawn survives a
// mode switch.
func (e *Editor) toolChanged(from, to tool.Mode) {
	e.disc.Cancel()
	e.store.CancelDraft()
	e.vp.SetPanningEnabled(to == tool.Pan)
	e.emit(ToolChanged{From: from, To: to})
}

// Viewport exposes the viewport controller.
func (e *Editor) Viewport() *viewport.Controller { return e.vp }

// Surface returns the overlay surface.
func (e *Editor) Surface() overlay.Surface { return e.surface }

// Config returns the active configuration.
func (e *Editor) Config() *config.Config { return e.cfg }

// Tool returns the active tool.
func (e *Editor) Tool() tool.Mode { return e.tools.Mode() }

// SetToolMode switches tools. Unknown modes report false.
func (e *Editor) SetToolMode(m tool.Mode) bool {
	if e.closed {
		return false
	}
	return e.tools.Set(m)
}

// PointerActive reports whether a press is in progress.
func (e *Editor) PointerActive() bool { return e.disc.Active() }

// Annotations returns an ordered snapshot of the finalized annotations.
func (e *Editor) Annotations() []annotation.Annotation { return e.store.Annotations() }

// Draft returns the shape under construction.
func (e *Editor) Draft() (annotation.Draft, bool) { return e.store.Draft() }

// Selection returns the selected annotation.
func (e *Editor) Selection() (annotation.Annotation, bool) { return e.store.Selection() }

// Select selects an annotation by id.
func (e *Editor) Select(id string) bool { return e.store.Select(id) }

// Delete removes an annotation by id. Unknown ids are a no-op.
func (e *Editor) Delete(id string) bool { return e.store.Delete(id) }

// ClearAnnotations empties the store.
func (e *Editor) ClearAnnotations() { e.store.Clear() }

// PlaceText adds a label at a content point with the authoring style. Hosts
// that collect text asynchronously call it once input is complete.
func (e *Editor) PlaceText(at geom.Point, text string) bool {
	if e.closed {
		return false
	}
	_, ok := e.store.PlaceText(at, text, e.style)
	return ok
}

// Style returns the style used for new shapes.
func (e *Editor) Style() annotation.Style { return e.style }

// SetStyle updates the authoring style and restyles the draft or, without
// a draft, the selection.
func (e *Editor) SetStyle(p annotation.StylePatch) bool {
	if p.Empty() {
		return false
	}
	e.style = p.Apply(e.style)
	hadDraft := e.store.HasDraft()
	if e.store.Restyle(p) && !hadDraft {
		if sel, ok := e.store.Selection(); ok {
			e.sync.Track(sel)
		}
	}
	return true
}

// LoadImage records the displayed image and fits it to the viewport.
func (e *Editor) LoadImage(ref string, size geom.Size) {
	e.image = &ref
	e.vp.SetImageDimensions(size)
	e.vp.Fit()
}

// ImageRef returns the loaded image reference.
func (e *Editor) ImageRef() (string, bool) {
	if e.image == nil {
		return "", false
	}
	return *e.image, true
}

// Resize updates the viewport size.
func (e *Editor) Resize(size geom.Size) { e.vp.SetViewportSize(size) }

// Fit resets the view so the whole image is visible.
func (e *Editor) Fit() { e.vp.Fit() }

// ExportAnnotations snapshots the store as an exchange document and
// announces it with Exported.
func (e *Editor) ExportAnnotations() annotation.Document {
	doc := e.store.Export(e.image, e.clock.Now())
	e.emit(Exported{Document: doc})
	return doc
}

// ExportJSON returns the exchange document as indented JSON.
func (e *Editor) ExportJSON() ([]byte, error) {
	b, err := annotation.MarshalDocument(e.ExportAnnotations())
	if err != nil {
		return nil, fmt.Errorf("export annotations: %w", err)
	}
	return b, nil
}

// ImportAnnotations replaces the store with a serialized document. Invalid
// input leaves the store unchanged and reports false.
func (e *Editor) ImportAnnotations(data []byte) bool {
	if err := e.Import(data); err != nil {
		log.Printf("import: %v", err)
		return false
	}
	return true
}

// Import is ImportAnnotations with the error kept.
func (e *Editor) Import(data []byte) error {
	e.disc.Cancel()
	if _, err := e.store.Import(data); err != nil {
		return fmt.Errorf("import annotations: %w", err)
	}
	return nil
}

// Scene returns everything the raster needs to draw the current frame.
func (e *Editor) Scene(img image.Image) overlay.Scene {
	sc := overlay.Scene{
		Image:       img,
		Annotations: e.store.Annotations(),
		Selected:    e.store.SelectedID(),
	}
	if d, ok := e.store.Draft(); ok {
		sc.Draft = &d
	}
	return sc
}

// Close stops the drag timer and detaches from the viewport. Later input is
// ignored.
func (e *Editor) Close() {
	if e.closed {
		return
	}
	e.closed = true
	e.disc.Close()
	e.sync.Close()
}
