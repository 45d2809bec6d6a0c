package tool

import (
	"testing"

	"golang.org/x/mobile/event/key"
)

func TestSetRunsHookOnTransitionOnly(t *testing.T) {
	type change struct{ from, to Mode }
	var got []change
	m := NewMachine(Pan, func(from, to Mode) { got = append(got, change{from, to}) })

	if !m.Set(DrawRect) {
		t.Fatal("Set(DrawRect) failed")
	}
	if !m.Set(DrawRect) {
		t.Fatal("re-selecting the active mode should succeed")
	}
	if m.Set(Mode(42)) {
		t.Fatal("unknown mode accepted")
	}
	if m.Mode() != DrawRect {
		t.Fatalf("mode = %v after rejected Set", m.Mode())
	}
	if len(got) != 1 || got[0] != (change{Pan, DrawRect}) {
		t.Fatalf("unexpected transitions %+v", got)
	}
}

func TestShortcutsMatchToolbarSelection(t *testing.T) {
	cases := map[rune]Mode{'m': Pan, 'V': Select, 'x': DrawRect, 'o': DrawEllipse, 'p': DrawPolygon, 't': DrawText}
	for r, want := range cases {
		m := NewMachine(Pan, nil)
		if want == Pan {
			m = NewMachine(Select, nil)
		}
		if !m.HandleKey(key.Event{Rune: r, Direction: key.DirPress}) {
			t.Fatalf("key %q not consumed", r)
		}
		if m.Mode() != want {
			t.Errorf("key %q selected %v, want %v", r, m.Mode(), want)
		}
	}
	m := NewMachine(Pan, nil)
	if m.HandleKey(key.Event{Rune: 'x', Modifiers: key.ModControl, Direction: key.DirPress}) {
		t.Fatal("ctrl+x should not select a tool")
	}
	if m.HandleKey(key.Event{Rune: 'x', Direction: key.DirRelease}) {
		t.Fatal("key release should not select a tool")
	}
}

func TestRoutesToViewport(t *testing.T) {
	m := NewMachine(DrawPolygon, nil)
	if m.RoutesToViewport(0) {
		t.Fatal("drawing mode without modifiers must route to authoring")
	}
	if !m.RoutesToViewport(key.ModAlt) || !m.RoutesToViewport(key.ModControl) {
		t.Fatal("alt/ctrl must force pan")
	}
	if m.RoutesToViewport(key.ModShift) {
		t.Fatal("shift is not a pan override")
	}
	m.Set(Pan)
	if !m.RoutesToViewport(0) {
		t.Fatal("pan mode routes to viewport")
	}
}

func TestParseMode(t *testing.T) {
	for _, m := range Modes() {
		got, err := ParseMode(m.String())
		if err != nil || got != m {
			t.Errorf("ParseMode(%q) = %v, %v", m.String(), got, err)
		}
	}
	if got, err := ParseMode("Rectangle"); err != nil || got != DrawRect {
		t.Errorf("alias rectangle: %v %v", got, err)
	}
	if _, err := ParseMode("lasso"); err == nil {
		t.Error("expected error for unknown tool")
	}
}
