// Package gesture turns raw pointer press/move/release sequences into
// clicks and drags.
//
// A press does not start a drag immediately. The drag begins either when the
// pointer travels further than MoveThreshold or when DragDelay elapses,
// whichever happens first. A release whose pointer never left the threshold
// and came within ClickMaxDuration is a click, even when the delay already
// declared a drag; that drag is withdrawn with DragCancel before the Click.
package gesture

import (
	"time"

	"github.com/example/annotator/internal/geom"
	"golang.org/x/mobile/event/key"
)

// Kind classifies a Gesture.
type Kind int

const (
	Click Kind = iota + 1
	DragStart
	DragMove
	DragEnd
	// DragCancel withdraws a drag that the delay started but that ended as a
	// click. No DragEnd follows it.
	DragCancel
	Hover
)

func (k Kind) String() string {
	switch k {
	case Click:
		return "click"
	case DragStart:
		return "drag-start"
	case DragMove:
		return "drag-move"
	case DragEnd:
		return "drag-end"
	case DragCancel:
		return "drag-cancel"
	case Hover:
		return "hover"
	}
	return "unknown"
}

// Gesture is a disambiguated pointer event.
type Gesture struct {
	Kind Kind
	// Screen is the pointer position for this gesture.
	Screen geom.Point
	// Content is Screen mapped into content space, Inside reports whether it
	// falls within the image.
	Content geom.Point
	Inside  bool
	// Start and StartContent are the press position of the session.
	Start        geom.Point
	StartContent geom.Point
	StartInside  bool
	// Delta is the screen movement since the previous drag gesture.
	Delta geom.Point
	// Count is 2 for the second click of a double click, otherwise 1.
	Count     int
	Modifiers key.Modifiers
}

// Config tunes the click/drag thresholds.
type Config struct {
	MoveThreshold       float64
	DragDelay           time.Duration
	ClickMaxDuration    time.Duration
	DoubleClickInterval time.Duration
}

// DefaultConfig returns the standard thresholds: 5px, 150ms drag delay,
// 300ms click and double click windows.
func DefaultConfig() Config {
	return Config{
		MoveThreshold:       5,
		DragDelay:           150 * time.Millisecond,
		ClickMaxDuration:    300 * time.Millisecond,
		DoubleClickInterval: 300 * time.Millisecond,
	}
}

// Projector maps screen points into content space.
type Projector interface {
	ToContent(screen geom.Point) geom.Point
	Contains(content geom.Point) bool
}

// Handler receives gestures synchronously.
type Handler func(Gesture)

type session struct {
	start        geom.Point
	startContent geom.Point
	startInside  bool
	startAt      time.Time
	cur          geom.Point
	last         geom.Point
	mods         key.Modifiers
	dragging     bool
	moved        bool // pointer has been further than MoveThreshold from start
	timer        Timer
}

type lastClick struct {
	at    time.Time
	p     geom.Point
	valid bool
}

// Discriminator owns at most one pointer session at a time.
type Discriminator struct {
	cfg    Config
	clock  Clock
	proj   Projector
	handle Handler

	// drain runs timer callbacks a SystemClock without a post function held
	// back from its timer goroutines.
	drain func()

	gen    uint64
	s      *session
	click  lastClick
	closed bool
}

// New creates a Discriminator. Gestures are delivered to handle. A nil clock
// is a SystemClock whose expired timers are run at the next input.
func New(cfg Config, clock Clock, proj Projector, handle Handler) *Discriminator {
	if clock == nil {
		clock = NewSystemClock(nil)
	}
	d := &Discriminator{cfg: cfg, clock: clock, proj: proj, handle: handle}
	if sc, ok := clock.(*SystemClock); ok && sc.post == nil {
		d.drain = sc.RunPending
	}
	return d
}

func (d *Discriminator) runPending() {
	if d.drain != nil {
		d.drain()
	}
}

// Active reports whether a press is in progress.
func (d *Discriminator) Active() bool { return d.s != nil }

// Dragging reports whether the current session has been declared a drag.
func (d *Discriminator) Dragging() bool { return d.s != nil && d.s.dragging }

// Down starts a new session at screen.
func (d *Discriminator) Down(screen geom.Point, mods key.Modifiers) {
	if d.closed {
		return
	}
	d.runPending()
	if d.s != nil {
		// A press without a release; close out the old session first.
		d.finish(d.s.cur)
	}
	content := d.proj.ToContent(screen)
	s := &session{
		start:        screen,
		startContent: content,
		startInside:  d.proj.Contains(content),
		startAt:      d.clock.Now(),
		cur:          screen,
		last:         screen,
		mods:         mods,
	}
	d.gen++
	gen := d.gen
	d.s = s
	s.timer = d.clock.AfterFunc(d.cfg.DragDelay, func() { d.timerFired(gen) })
}

// Move reports pointer movement. Without an active session it emits Hover.
func (d *Discriminator) Move(screen geom.Point) {
	if d.closed {
		return
	}
	d.runPending()
	s := d.s
	if s == nil {
		d.emit(Gesture{Kind: Hover, Screen: screen})
		return
	}
	s.cur = screen
	if screen.Dist(s.start) > d.cfg.MoveThreshold {
		s.moved = true
	}
	if !s.dragging {
		if !s.moved {
			return
		}
		d.beginDrag()
		if d.s != s {
			return
		}
	}
	d.moveTo(screen)
}

// Up ends the session, producing either a Click or a DragEnd.
func (d *Discriminator) Up(screen geom.Point) {
	if d.closed {
		return
	}
	d.runPending()
	if d.s == nil {
		return
	}
	s := d.s
	s.cur = screen
	elapsed := d.clock.Now().Sub(s.startAt)
	if !s.moved && screen.Dist(s.start) <= d.cfg.MoveThreshold && elapsed <= d.cfg.ClickMaxDuration {
		d.reset()
		if s.dragging {
			d.emit(d.gesture(DragCancel, s, screen, geom.Point{}))
			if d.closed || d.s != nil {
				return
			}
		}
		d.emitClick(s, screen)
		return
	}
	d.finish(screen)
}

// Cancel abandons the current session without emitting anything further.
// The armed timer is stopped and will never deliver a gesture.
func (d *Discriminator) Cancel() bool {
	d.click = lastClick{}
	if d.s == nil {
		return false
	}
	wasDragging := d.s.dragging
	d.reset()
	return wasDragging
}

// Close cancels any session and ignores all later input.
func (d *Discriminator) Close() {
	d.Cancel()
	d.closed = true
}

func (d *Discriminator) reset() {
	if d.s != nil && d.s.timer != nil {
		d.s.timer.Stop()
	}
	d.s = nil
	d.gen++
}

func (d *Discriminator) timerFired(gen uint64) {
	if d.closed || gen != d.gen || d.s == nil || d.s.dragging {
		return
	}
	d.s.timer = nil
	d.beginDrag()
}

func (d *Discriminator) beginDrag() {
	s := d.s
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.dragging = true
	d.emit(d.gesture(DragStart, s, s.cur, geom.Point{}))
}

func (d *Discriminator) moveTo(screen geom.Point) {
	s := d.s
	delta := screen.Sub(s.last)
	if delta == (geom.Point{}) {
		return
	}
	s.last = screen
	d.emit(d.gesture(DragMove, s, screen, delta))
}

// finish closes the session as a drag, declaring it first if needed.
func (d *Discriminator) finish(screen geom.Point) {
	s := d.s
	if !s.dragging {
		d.beginDrag()
	}
	if d.s != s {
		return
	}
	d.moveTo(screen)
	if d.s != s {
		return
	}
	d.reset()
	d.emit(d.gesture(DragEnd, s, screen, geom.Point{}))
}

func (d *Discriminator) emitClick(s *session, screen geom.Point) {
	now := d.clock.Now()
	count := 1
	if d.click.valid && now.Sub(d.click.at) <= d.cfg.DoubleClickInterval && screen.Dist(d.click.p) <= d.cfg.MoveThreshold {
		count = 2
		d.click = lastClick{}
	} else {
		d.click = lastClick{at: now, p: screen, valid: true}
	}
	g := d.gesture(Click, s, screen, geom.Point{})
	g.Count = count
	d.emit(g)
}

func (d *Discriminator) gesture(kind Kind, s *session, screen, delta geom.Point) Gesture {
	content := d.proj.ToContent(screen)
	return Gesture{
		Kind:         kind,
		Screen:       screen,
		Content:      content,
		Inside:       d.proj.Contains(content),
		Start:        s.start,
		StartContent: s.startContent,
		StartInside:  s.startInside,
		Delta:        delta,
		Count:        1,
		Modifiers:    s.mods,
	}
}

func (d *Discriminator) emit(g Gesture) {
	if g.Kind == Hover {
		g.Content = d.proj.ToContent(g.Screen)
		g.Inside = d.proj.Contains(g.Content)
		g.Count = 1
	}
	if d.handle != nil {
		d.handle(g)
	}
}
