package editor

import (
	"math"

	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/mouse"

	"github.com/example/annotator/internal/annotation"
	"github.com/example/annotator/internal/geom"
	"github.com/example/annotator/internal/gesture"
	"github.com/example/annotator/internal/tool"
)

// keyPanStep is how far the arrow keys move the view in Pan mode.
const keyPanStep = 10.0

// HandleMouse feeds a window mouse event into the editor. It reports whether
// the event was consumed.
func (e *Editor) HandleMouse(ev mouse.Event) bool {
	if e.closed {
		return false
	}
	p := geom.Pt(float64(ev.X), float64(ev.Y))
	switch ev.Button {
	case mouse.ButtonWheelUp:
		if ev.Direction == mouse.DirRelease {
			return false
		}
		return e.zoomBy(p, e.cfg.Viewport.ZoomStep)
	case mouse.ButtonWheelDown:
		if ev.Direction == mouse.DirRelease {
			return false
		}
		return e.zoomBy(p, 1/e.cfg.Viewport.ZoomStep)
	}

	switch ev.Direction {
	case mouse.DirNone:
		e.disc.Move(p)
		return true
	case mouse.DirPress:
		if ev.Button != mouse.ButtonLeft {
			return false
		}
		e.disc.Down(p, ev.Modifiers)
		return true
	case mouse.DirRelease:
		if ev.Button != mouse.ButtonLeft {
			return false
		}
		e.disc.Up(p)
		return true
	}
	return false
}

// ZoomAt zooms by factor around a screen point, clamped to the configured
// scale limits.
func (e *Editor) ZoomAt(screen geom.Point, factor float64) bool {
	return e.zoomBy(screen, factor)
}

func (e *Editor) zoomBy(screen geom.Point, factor float64) bool {
	cur := e.vp.Scale()
	target := cur * factor
	target = math.Max(e.cfg.Viewport.MinScale, math.Min(e.cfg.Viewport.MaxScale, target))
	if math.Abs(target-cur) <= 1e-9*cur {
		return false
	}
	e.vp.ZoomAt(screen, target/cur)
	return true
}

// HandleKey feeds a window key event into the editor. Key combinations with
// Control, Alt or Meta are left to the host.
func (e *Editor) HandleKey(ev key.Event) bool {
	if e.closed || ev.Direction == key.DirRelease {
		return false
	}
	if ev.Modifiers&(key.ModControl|key.ModAlt|key.ModMeta) != 0 {
		return false
	}

	switch ev.Code {
	case key.CodeEscape:
		dropped := e.store.CancelDraft()
		if e.disc.Cancel() {
			dropped = true
		}
		return dropped
	case key.CodeDeleteForward, key.CodeDeleteBackspace:
		return e.store.DeleteSelection()
	case key.CodeReturnEnter, key.CodeKeypadEnter:
		if d, ok := e.store.Draft(); ok && d.Kind == annotation.KindPolygon {
			e.store.CompletePolygon()
			return true
		}
		return false
	case key.CodeLeftArrow, key.CodeRightArrow, key.CodeUpArrow, key.CodeDownArrow:
		if e.tools.Mode() != tool.Pan {
			return false
		}
		dx, dy := arrowDelta(ev.Code)
		e.vp.PanBy(dx, dy)
		return true
	}

	switch ev.Rune {
	case '+', '=':
		return e.zoomBy(e.vp.Centre(), e.cfg.Viewport.ZoomStep)
	case '-', '_':
		return e.zoomBy(e.vp.Centre(), 1/e.cfg.Viewport.ZoomStep)
	case '0':
		e.vp.Fit()
		return true
	}
	return e.tools.HandleKey(ev)
}

func arrowDelta(c key.Code) (float64, float64) {
	switch c {
	case key.CodeLeftArrow:
		return keyPanStep, 0
	case key.CodeRightArrow:
		return -keyPanStep, 0
	case key.CodeUpArrow:
		return 0, keyPanStep
	default:
		return 0, -keyPanStep
	}
}

func (e *Editor) canStart(inside bool) bool {
	return inside || e.cfg.Annotation.AllowOutside
}

// onGesture routes a disambiguated gesture to the viewport or the store
// depending on the active tool.
func (e *Editor) onGesture(g gesture.Gesture) {
	if g.Kind == gesture.Hover {
		e.store.PreviewVertex(g.Content)
		return
	}
	if e.tools.RoutesToViewport(g.Modifiers) {
		e.viewportGesture(g)
		return
	}

	switch e.tools.Mode() {
	case tool.Select:
		if g.Kind == gesture.Click {
			e.store.SelectAt(g.Content, selectTolerance/e.vp.Scale())
		}
	case tool.DrawRect:
		e.boxGesture(annotation.KindRect, g)
	case tool.DrawEllipse:
		e.boxGesture(annotation.KindEllipse, g)
	case tool.DrawPolygon:
		e.polygonGesture(g)
	case tool.DrawText:
		if g.Kind == gesture.Click || g.Kind == gesture.DragEnd {
			e.placeText(g)
		}
	}
}

func (e *Editor) viewportGesture(g gesture.Gesture) {
	switch g.Kind {
	case gesture.DragMove:
		if e.vp.PanningEnabled() || tool.PanOverride(g.Modifiers) {
			e.vp.PanBy(g.Delta.X, g.Delta.Y)
		}
	case gesture.Click:
		e.emit(ImageClick{Screen: g.Screen, Content: g.Content, Inside: g.Inside, Count: g.Count})
	}
}

func (e *Editor) boxGesture(kind annotation.Kind, g gesture.Gesture) {
	switch g.Kind {
	case gesture.DragStart:
		if !e.canStart(g.StartInside) {
			return
		}
		if e.store.BeginBox(kind, g.StartContent, e.style) {
			e.store.UpdateBox(g.Content)
		}
	case gesture.DragMove:
		e.store.UpdateBox(g.Content)
	case gesture.DragEnd:
		e.store.FinishBox(g.Content)
	case gesture.DragCancel:
		e.store.CancelDraft()
	}
}

func (e *Editor) polygonGesture(g gesture.Gesture) {
	switch g.Kind {
	case gesture.Click:
		if g.Count == 2 {
			if e.store.VertexCount() >= 3 {
				e.store.CompletePolygon()
			}
			return
		}
		if e.canStart(g.Inside) {
			e.store.AddVertex(g.Content, e.style)
		}
	case gesture.DragStart, gesture.DragMove:
		e.store.PreviewVertex(g.Content)
	case gesture.DragEnd:
		if e.canStart(g.Inside) {
			e.store.AddVertex(g.Content, e.style)
		}
	}
}

func (e *Editor) placeText(g gesture.Gesture) {
	if e.prompt == nil || !e.canStart(g.Inside) {
		return
	}
	text, ok := e.prompt(g.Content)
	if !ok {
		return
	}
	e.store.PlaceText(g.Content, text, e.style)
}
