package config

import (
	"fmt"
	"image/color"
	"sort"
	"strings"
	"time"

	"github.com/example/annotator/internal/annotation"
	"github.com/example/annotator/internal/gesture"
	"github.com/example/annotator/internal/theme"
	"github.com/example/annotator/internal/viewport"
)

// Viewport holds zoom policy. The controller itself never clamps; the
// editor applies MinScale and MaxScale to wheel and keyboard zoom.
type Viewport struct {
	ZoomStep  float64
	MinScale  float64
	MaxScale  float64
	FitMargin float64
}

// Gesture holds the click/drag thresholds.
type Gesture struct {
	MoveThreshold float64
	DragDelay     time.Duration
	ClickMax      time.Duration
	DoubleClick   time.Duration
}

// Annotation holds the authoring defaults.
type Annotation struct {
	StrokeColor  string
	StrokeWidth  float64
	FillColor    string
	MinSize      float64
	AllowOutside bool
}

// Notify holds notification settings.
type Notify struct {
	Export bool
	Import bool
	Copy   bool
}

// Config holds the application configuration.
type Config struct {
	Theme      string
	SaveDir    string
	Viewport   Viewport
	Gesture    Gesture
	Annotation Annotation
	Notify     Notify
	Themes     map[string]*theme.Theme
}

// New creates a new Config with defaults.
func New() *Config {
	gc := gesture.DefaultConfig()
	st := annotation.DefaultStyle()
	return &Config{
		Theme: "", // empty lets the env var or built-in default win
		Viewport: Viewport{
			ZoomStep:  1.1,
			MinScale:  0.05,
			MaxScale:  40,
			FitMargin: viewport.DefaultFitMargin,
		},
		Gesture: Gesture{
			MoveThreshold: gc.MoveThreshold,
			DragDelay:     gc.DragDelay,
			ClickMax:      gc.ClickMaxDuration,
			DoubleClick:   gc.DoubleClickInterval,
		},
		Annotation: Annotation{
			StrokeColor: st.StrokeColor,
			StrokeWidth: st.StrokeWidth,
			FillColor:   st.FillColor,
			MinSize:     annotation.DefaultMinSize,
		},
		Themes: make(map[string]*theme.Theme),
	}
}

// GestureConfig converts the [gesture] section for the discriminator.
func (c *Config) GestureConfig() gesture.Config {
	return gesture.Config{
		MoveThreshold:       c.Gesture.MoveThreshold,
		DragDelay:           c.Gesture.DragDelay,
		ClickMaxDuration:    c.Gesture.ClickMax,
		DoubleClickInterval: c.Gesture.DoubleClick,
	}
}

// Style returns the default annotation style.
func (c *Config) Style() annotation.Style {
	return annotation.Style{
		StrokeColor: c.Annotation.StrokeColor,
		StrokeWidth: c.Annotation.StrokeWidth,
		FillColor:   c.Annotation.FillColor,
	}
}

// String implements fmt.Stringer and returns the configuration in RC format.
func (c *Config) String() string {
	var sb strings.Builder

	if c.Theme != "" {
		fmt.Fprintf(&sb, "theme = %s\n", c.Theme)
	}
	if c.SaveDir != "" {
		fmt.Fprintf(&sb, "save_dir = %s\n", c.SaveDir)
	}
	sb.WriteString("\n")

	sb.WriteString("[viewport]\n")
	fmt.Fprintf(&sb, "zoom_step = %v\n", c.Viewport.ZoomStep)
	fmt.Fprintf(&sb, "min_scale = %v\n", c.Viewport.MinScale)
	fmt.Fprintf(&sb, "max_scale = %v\n", c.Viewport.MaxScale)
	fmt.Fprintf(&sb, "fit_margin = %v\n", c.Viewport.FitMargin)
	sb.WriteString("\n")

	sb.WriteString("[gesture]\n")
	fmt.Fprintf(&sb, "move_threshold = %v\n", c.Gesture.MoveThreshold)
	fmt.Fprintf(&sb, "drag_delay_ms = %d\n", c.Gesture.DragDelay.Milliseconds())
	fmt.Fprintf(&sb, "click_max_ms = %d\n", c.Gesture.ClickMax.Milliseconds())
	fmt.Fprintf(&sb, "double_click_ms = %d\n", c.Gesture.DoubleClick.Milliseconds())
	sb.WriteString("\n")

	sb.WriteString("[annotation]\n")
	fmt.Fprintf(&sb, "stroke_color = %q\n", c.Annotation.StrokeColor)
	fmt.Fprintf(&sb, "stroke_width = %v\n", c.Annotation.StrokeWidth)
	fmt.Fprintf(&sb, "fill_color = %q\n", c.Annotation.FillColor)
	fmt.Fprintf(&sb, "min_size = %v\n", c.Annotation.MinSize)
	fmt.Fprintf(&sb, "allow_outside = %v\n", c.Annotation.AllowOutside)
	sb.WriteString("\n")

	sb.WriteString("[notify]\n")
	fmt.Fprintf(&sb, "export = %v\n", c.Notify.Export)
	fmt.Fprintf(&sb, "import = %v\n", c.Notify.Import)
	fmt.Fprintf(&sb, "copy = %v\n", c.Notify.Copy)
	sb.WriteString("\n")

	// Sort keys for deterministic output
	var themeNames []string
	for name := range c.Themes {
		themeNames = append(themeNames, name)
	}
	sort.Strings(themeNames)

	for _, name := range themeNames {
		t := c.Themes[name]
		fmt.Fprintf(&sb, "[theme.%s]\n", name)
		fmt.Fprintf(&sb, "Name: %s\n", t.Name)
		for _, f := range theme.Fields(t) {
			fmt.Fprintf(&sb, "%s: %s\n", f.Name, toHex(f.Color))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func toHex(c color.RGBA) string {
	if c.A == 255 {
		return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
	}
	return fmt.Sprintf("#%02X%02X%02X%02X", c.R, c.G, c.B, c.A)
}
