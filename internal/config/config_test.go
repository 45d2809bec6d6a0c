package config

import (
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	input := `
theme = my_custom_theme
save_dir = /tmp/annotations

[viewport]
zoom_step = 1.25
max_scale = 8

[gesture]
move_threshold = 3
drag_delay_ms = 200

[annotation]
stroke_color = "#00ff00"
stroke_width = 3.5
allow_outside = true

[notify]
export = true
import = false
copy = true

[theme.my_custom_theme]
Background = #111111
SelectionA = #FFFFFF80
`
	r := strings.NewReader(input)
	cfg, err := Parse(r)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if cfg.Theme != "my_custom_theme" {
		t.Errorf("Expected theme 'my_custom_theme', got '%s'", cfg.Theme)
	}
	if cfg.SaveDir != "/tmp/annotations" {
		t.Errorf("Expected save_dir '/tmp/annotations', got '%s'", cfg.SaveDir)
	}
	if cfg.Viewport.ZoomStep != 1.25 || cfg.Viewport.MaxScale != 8 || cfg.Viewport.MinScale != 0.05 {
		t.Errorf("Unexpected viewport section: %+v", cfg.Viewport)
	}
	if cfg.Gesture.MoveThreshold != 3 || cfg.Gesture.DragDelay != 200*time.Millisecond || cfg.Gesture.ClickMax != 300*time.Millisecond {
		t.Errorf("Unexpected gesture section: %+v", cfg.Gesture)
	}
	if cfg.Annotation.StrokeColor != "#00ff00" || cfg.Annotation.StrokeWidth != 3.5 || !cfg.Annotation.AllowOutside {
		t.Errorf("Unexpected annotation section: %+v", cfg.Annotation)
	}
	if cfg.Annotation.FillColor != "rgba(255, 0, 0, 0.2)" {
		t.Errorf("Default fill lost: %q", cfg.Annotation.FillColor)
	}
	if !cfg.Notify.Export || cfg.Notify.Import || !cfg.Notify.Copy {
		t.Errorf("Unexpected notify section: %+v", cfg.Notify)
	}

	theme, ok := cfg.Themes["my_custom_theme"]
	if !ok {
		t.Fatal("Expected theme 'my_custom_theme' to be loaded")
	}
	if theme.Background.R != 0x11 || theme.Background.G != 0x11 || theme.Background.B != 0x11 {
		t.Errorf("Unexpected Background color: %+v", theme.Background)
	}
	if theme.SelectionA.A != 0x80 {
		t.Errorf("Unexpected SelectionA color: %+v", theme.SelectionA)
	}
}

func TestParseErrors(t *testing.T) {
	cases := []string{
		"[viewport]\nzoom_step = fast\n",
		"[viewport]\nmin_scale = -1\n",
		"[gesture]\ndrag_delay_ms = -5\n",
		"[annotation]\nallow_outside = maybe\n",
		"[notify]\nexport = yes please\n",
		"[theme.x]\nBackground = red\n",
	}
	for _, in := range cases {
		if _, err := Parse(strings.NewReader(in)); err == nil {
			t.Errorf("Parse(%q) succeeded", in)
		}
	}
}

func TestCircular(t *testing.T) {
	input := `theme = dark
save_dir = /home/user/notes

[viewport]
zoom_step = 1.2
min_scale = 0.1
max_scale = 16
fit_margin = 0.8

[gesture]
move_threshold = 4
click_max_ms = 250
double_click_ms = 400

[annotation]
stroke_color = #0000ff
fill_color = none
min_size = 3

[notify]
export = true
import = true
copy = false

[theme.custom]
Name = custom
Background = #000000
Handle = #FFFFFF
`
	cfg, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Initial parse failed: %v", err)
	}

	generated := cfg.String()

	cfg2, err := Parse(strings.NewReader(generated))
	if err != nil {
		t.Fatalf("Circular parse failed: %v\n%s", err, generated)
	}

	if cfg.Theme != cfg2.Theme {
		t.Errorf("Theme mismatch: %q vs %q", cfg.Theme, cfg2.Theme)
	}
	if cfg.SaveDir != cfg2.SaveDir {
		t.Errorf("SaveDir mismatch: %q vs %q", cfg.SaveDir, cfg2.SaveDir)
	}
	if cfg.Viewport != cfg2.Viewport {
		t.Errorf("Viewport mismatch: %+v vs %+v", cfg.Viewport, cfg2.Viewport)
	}
	if cfg.Gesture != cfg2.Gesture {
		t.Errorf("Gesture mismatch: %+v vs %+v", cfg.Gesture, cfg2.Gesture)
	}
	if cfg.Annotation != cfg2.Annotation {
		t.Errorf("Annotation mismatch: %+v vs %+v", cfg.Annotation, cfg2.Annotation)
	}
	if cfg.Notify != cfg2.Notify {
		t.Errorf("Notify mismatch: %+v vs %+v", cfg.Notify, cfg2.Notify)
	}

	t1 := cfg.Themes["custom"]
	t2 := cfg2.Themes["custom"]
	if t1 == nil || t2 == nil {
		t.Fatalf("Custom theme missing in one config")
	}
	if *t1 != *t2 {
		t.Errorf("Theme mismatch: %+v vs %+v", t1, t2)
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.rc")
	cfg := New()
	cfg.Theme = "light"
	cfg.Annotation.StrokeWidth = 4
	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := NewLoader("release", path).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Theme != "light" || got.Annotation.StrokeWidth != 4 {
		t.Errorf("Loaded %+v", got)
	}
	if got.GestureConfig().DragDelay != 150*time.Millisecond {
		t.Errorf("Gesture config %+v", got.GestureConfig())
	}
}
