package config

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/example/annotator/internal/theme"
)

// Parse reads configuration from an io.Reader.
func Parse(r io.Reader) (*Config, error) {
	cfg := New()
	scanner := bufio.NewScanner(r)

	var currentSection string
	var currentTheme *theme.Theme

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
			continue
		}

		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			currentSection = strings.TrimSuffix(strings.TrimPrefix(line, "["), "]")
			currentTheme = nil

			if strings.HasPrefix(currentSection, "theme.") {
				themeName := strings.TrimPrefix(currentSection, "theme.")
				// Start with defaults so missing keys are fine
				currentTheme = theme.Default()
				currentTheme.Name = themeName
				cfg.Themes[themeName] = currentTheme
			}
			continue
		}

		// Key = Value or Key: Value
		var parts []string
		if strings.Contains(line, "=") {
			parts = strings.SplitN(line, "=", 2)
		} else if strings.Contains(line, ":") {
			parts = strings.SplitN(line, ":", 2)
		} else {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if strings.HasPrefix(value, "\"") && strings.HasSuffix(value, "\"") && len(value) >= 2 {
			value = value[1 : len(value)-1]
		}

		var err error
		switch {
		case currentTheme != nil:
			err = theme.SetField(currentTheme, key, value)
		case currentSection == "":
			err = setRootField(cfg, key, value)
		case currentSection == "viewport":
			err = setViewportField(&cfg.Viewport, key, value)
		case currentSection == "gesture":
			err = setGestureField(&cfg.Gesture, key, value)
		case currentSection == "annotation":
			err = setAnnotationField(&cfg.Annotation, key, value)
		case currentSection == "notify":
			err = setNotifyField(&cfg.Notify, key, value)
		}
		if err != nil {
			if currentSection == "" {
				return nil, fmt.Errorf("error in root section: %w", err)
			}
			return nil, fmt.Errorf("error in section [%s]: %w", currentSection, err)
		}
	}

	return cfg, scanner.Err()
}

func setRootField(cfg *Config, key, value string) error {
	switch strings.ToLower(key) {
	case "theme":
		cfg.Theme = value
	case "save_dir":
		cfg.SaveDir = value
	}
	return nil
}

func parsePositive(key, value string) (float64, error) {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number for key %s: %w", key, err)
	}
	if v <= 0 {
		return 0, fmt.Errorf("key %s must be positive, got %v", key, v)
	}
	return v, nil
}

func parseMillis(key, value string) (time.Duration, error) {
	v, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid milliseconds for key %s: %w", key, err)
	}
	if v < 0 {
		return 0, fmt.Errorf("key %s must not be negative", key)
	}
	return time.Duration(v) * time.Millisecond, nil
}

func setViewportField(v *Viewport, key, value string) error {
	var dst *float64
	switch strings.ToLower(key) {
	case "zoom_step":
		dst = &v.ZoomStep
	case "min_scale":
		dst = &v.MinScale
	case "max_scale":
		dst = &v.MaxScale
	case "fit_margin":
		dst = &v.FitMargin
	default:
		return nil
	}
	f, err := parsePositive(key, value)
	if err != nil {
		return err
	}
	*dst = f
	return nil
}

func setGestureField(g *Gesture, key, value string) error {
	var dst *time.Duration
	switch strings.ToLower(key) {
	case "move_threshold":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f < 0 {
			return fmt.Errorf("invalid threshold for key %s: %q", key, value)
		}
		g.MoveThreshold = f
		return nil
	case "drag_delay_ms":
		dst = &g.DragDelay
	case "click_max_ms":
		dst = &g.ClickMax
	case "double_click_ms":
		dst = &g.DoubleClick
	default:
		return nil
	}
	d, err := parseMillis(key, value)
	if err != nil {
		return err
	}
	*dst = d
	return nil
}

func setAnnotationField(a *Annotation, key, value string) error {
	switch strings.ToLower(key) {
	case "stroke_color":
		a.StrokeColor = value
	case "fill_color":
		a.FillColor = value
	case "stroke_width":
		f, err := parsePositive(key, value)
		if err != nil {
			return err
		}
		a.StrokeWidth = f
	case "min_size":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f < 0 {
			return fmt.Errorf("invalid size for key %s: %q", key, value)
		}
		a.MinSize = f
	case "allow_outside":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean for key %s: %w", key, err)
		}
		a.AllowOutside = b
	}
	return nil
}

func setNotifyField(n *Notify, key, value string) error {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("invalid boolean for key %s: %w", key, err)
	}
	switch strings.ToLower(key) {
	case "export":
		n.Export = b
	case "import":
		n.Import = b
	case "copy":
		n.Copy = b
	}
	return nil
}
