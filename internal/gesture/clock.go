package gesture

import (
	"sort"
	"sync"
	"time"
)

// Timer is a scheduled callback that can be stopped before it runs.
type Timer interface {
	Stop() bool
}

// Clock supplies the current time and schedules deferred callbacks. The
// callback must run on the same thread that drives the Discriminator.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// SystemClock uses wall time and hands expired callbacks to post, which is
// expected to queue them onto the event thread (for shiny, a w.Send).
type SystemClock struct {
	post func(func())

	mu   sync.Mutex
	held []func()
}

// NewSystemClock creates a SystemClock. With a nil post, expired callbacks
// are held until RunPending is called from the event thread; a
// Discriminator does that itself on every input.
func NewSystemClock(post func(func())) *SystemClock {
	return &SystemClock{post: post}
}

func (c *SystemClock) Now() time.Time { return time.Now() }

func (c *SystemClock) AfterFunc(d time.Duration, f func()) Timer {
	post := c.post
	if post == nil {
		post = c.hold
	}
	return time.AfterFunc(d, func() { post(f) })
}

func (c *SystemClock) hold(f func()) {
	c.mu.Lock()
	c.held = append(c.held, f)
	c.mu.Unlock()
}

// RunPending runs the callbacks held since the last call in expiry order.
func (c *SystemClock) RunPending() {
	c.mu.Lock()
	fns := c.held
	c.held = nil
	c.mu.Unlock()
	for _, f := range fns {
		f()
	}
}

// ManualClock is a deterministic Clock whose timers fire only from Advance.
// It is used by tests and by scripted sessions.
type ManualClock struct {
	now    time.Time
	seq    int
	timers []*manualTimer
}

type manualTimer struct {
	clock   *ManualClock
	when    time.Time
	seq     int
	f       func()
	stopped bool
	fired   bool
}

func (t *manualTimer) Stop() bool {
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// NewManualClock creates a ManualClock starting at start.
func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

func (c *ManualClock) Now() time.Time { return c.now }

func (c *ManualClock) AfterFunc(d time.Duration, f func()) Timer {
	c.seq++
	t := &manualTimer{clock: c, when: c.now.Add(d), seq: c.seq, f: f}
	c.timers = append(c.timers, t)
	return t
}

// Advance moves time forward by d, firing due timers in deadline order.
func (c *ManualClock) Advance(d time.Duration) {
	target := c.now.Add(d)
	for {
		next := c.nextDue(target)
		if next == nil {
			break
		}
		c.now = next.when
		next.fired = true
		next.f()
	}
	c.now = target
	c.compact()
}

// Pending returns the number of timers that are armed and not yet fired.
func (c *ManualClock) Pending() int {
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

func (c *ManualClock) nextDue(limit time.Time) *manualTimer {
	var due []*manualTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired && !t.when.After(limit) {
			due = append(due, t)
		}
	}
	if len(due) == 0 {
		return nil
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].when.Equal(due[j].when) {
			return due[i].seq < due[j].seq
		}
		return due[i].when.Before(due[j].when)
	})
	return due[0]
}

func (c *ManualClock) compact() {
	kept := c.timers[:0]
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			kept = append(kept, t)
		}
	}
	c.timers = kept
}
