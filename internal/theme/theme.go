package theme

import (
	"embed"
	"image/color"
	"reflect"
)

// EmbeddedThemes holds the themes shipped with the binary.
//
//go:embed defaults/*.theme
var EmbeddedThemes embed.FS

// Theme defines the colours of the viewer window and the editor overlay.
type Theme struct {
	Name string

	// Window
	Background color.RGBA // Behind the image
	Foreground color.RGBA // Status text

	// Status bar
	StatusBackground color.RGBA
	StatusText       color.RGBA

	// Canvas
	CheckerLight color.RGBA
	CheckerDark  color.RGBA

	// Overlay chrome
	SelectionA color.RGBA // Selection outline dash
	SelectionB color.RGBA // Alternate dash
	Handle     color.RGBA // Polygon vertex handles
}

// Default returns the hardcoded default light theme (fallback).
func Default() *Theme {
	return &Theme{
		Name:             "Default",
		Background:       color.RGBA{220, 220, 220, 255},
		Foreground:       color.RGBA{0, 0, 0, 255},
		StatusBackground: color.RGBA{200, 200, 200, 255},
		StatusText:       color.RGBA{0, 0, 0, 255},
		CheckerLight:     color.RGBA{220, 220, 220, 255},
		CheckerDark:      color.RGBA{192, 192, 192, 255},
		SelectionA:       color.RGBA{255, 255, 255, 255},
		SelectionB:       color.RGBA{0, 0, 0, 255},
		Handle:           color.RGBA{255, 255, 255, 255},
	}
}

// Field is one named colour of a Theme.
type Field struct {
	Name  string
	Color color.RGBA
}

// Fields lists the colours of t in declaration order.
func Fields(t *Theme) []Field {
	val := reflect.ValueOf(t).Elem()
	typ := val.Type()
	var out []Field
	for i := 0; i < typ.NumField(); i++ {
		if c, ok := val.Field(i).Interface().(color.RGBA); ok {
			out = append(out, Field{Name: typ.Field(i).Name, Color: c})
		}
	}
	return out
}
