// Package tool implements the tool-mode state machine that decides whether
// pointer gestures go to the viewport or to annotation authoring.
package tool

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/mobile/event/key"
)

// Mode is the active tool.
type Mode int

const (
	Pan Mode = iota
	Select
	DrawRect
	DrawEllipse
	DrawPolygon
	DrawText
)

var modeNames = map[Mode]string{
	Pan:         "pan",
	Select:      "select",
	DrawRect:    "rect",
	DrawEllipse: "ellipse",
	DrawPolygon: "polygon",
	DrawText:    "text",
}

// Modes lists every mode in toolbar order.
func Modes() []Mode {
	return []Mode{Pan, Select, DrawRect, DrawEllipse, DrawPolygon, DrawText}
}

func (m Mode) String() string {
	if n, ok := modeNames[m]; ok {
		return n
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// Valid reports whether m is one of the defined modes.
func (m Mode) Valid() bool {
	_, ok := modeNames[m]
	return ok
}

// Drawing reports whether m authors a new shape.
func (m Mode) Drawing() bool {
	return m == DrawRect || m == DrawEllipse || m == DrawPolygon || m == DrawText
}

// ParseMode resolves a mode name. "rectangle" and "move" are accepted as
// aliases.
func ParseMode(s string) (Mode, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	switch name {
	case "rectangle":
		return DrawRect, nil
	case "move":
		return Pan, nil
	}
	for m, n := range modeNames {
		if n == name {
			return m, nil
		}
	}
	return Pan, fmt.Errorf("unknown tool %q", s)
}

// KeyShortcut describes a keyboard combination that selects a mode.
type KeyShortcut struct {
	Rune      rune
	Code      key.Code
	Modifiers key.Modifiers
}

var shortcuts = map[KeyShortcut]Mode{
	{Rune: 'm'}: Pan,
	{Rune: 'v'}: Select,
	{Rune: 'x'}: DrawRect,
	{Rune: 'o'}: DrawEllipse,
	{Rune: 'p'}: DrawPolygon,
	{Rune: 't'}: DrawText,
}

// ShortcutFor returns the mode bound to a key press, if any.
func ShortcutFor(e key.Event) (Mode, bool) {
	if e.Direction == key.DirRelease {
		return Pan, false
	}
	ks := KeyShortcut{Rune: unicode.ToLower(e.Rune), Modifiers: e.Modifiers &^ key.ModShift}
	m, ok := shortcuts[ks]
	return m, ok
}

// ShortcutLabel returns the key bound to m for help output.
func ShortcutLabel(m Mode) string {
	for ks, mode := range shortcuts {
		if mode == m {
			return strings.ToUpper(string(ks.Rune))
		}
	}
	return ""
}

// PanOverride reports whether held modifiers force pan behaviour while a
// drawing or select tool is active.
func PanOverride(mods key.Modifiers) bool {
	return mods&(key.ModAlt|key.ModControl) != 0
}

// Machine holds the active mode. Exactly one mode is active at a time and
// transitions are immediate.
type Machine struct {
	mode     Mode
	onChange func(from, to Mode)
}

// NewMachine creates a Machine in the given initial mode. onChange runs
// synchronously on every transition.
func NewMachine(initial Mode, onChange func(from, to Mode)) *Machine {
	if !initial.Valid() {
		initial = Pan
	}
	return &Machine{mode: initial, onChange: onChange}
}

// Mode returns the active mode.
func (m *Machine) Mode() Mode { return m.mode }

// Set switches to mode. It reports false for an unknown mode. Selecting the
// already active mode succeeds without a transition.
func (m *Machine) Set(mode Mode) bool {
	if !mode.Valid() {
		return false
	}
	if mode == m.mode {
		return true
	}
	from := m.mode
	m.mode = mode
	if m.onChange != nil {
		m.onChange(from, mode)
	}
	return true
}

// HandleKey applies a tool shortcut. It reports whether the key was
// consumed.
func (m *Machine) HandleKey(e key.Event) bool {
	mode, ok := ShortcutFor(e)
	if !ok {
		return false
	}
	return m.Set(mode)
}

// RoutesToViewport reports whether a gesture started with mods should pan
// the viewport rather than author annotations.
func (m *Machine) RoutesToViewport(mods key.Modifiers) bool {
	return m.mode == Pan || PanOverride(mods)
}
