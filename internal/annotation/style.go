package annotation

import "math"

// Style is the paint applied to an annotation. StrokeWidth is the on-screen
// width: renderers divide it by the viewport scale before drawing in content
// space so strokes keep the same thickness at every zoom level.
type Style struct {
	StrokeColor string
	StrokeWidth float64
	FillColor   string
}

// DefaultStyle returns red strokes over a translucent red fill.
func DefaultStyle() Style {
	return Style{
		StrokeColor: "#ff0000",
		StrokeWidth: 2,
		FillColor:   "rgba(255, 0, 0, 0.2)",
	}
}

// StylePatch updates the subset of style fields that are non-nil. Blank
// colours and non-positive widths are ignored: an imported document reads
// them as missing, so a stored style never holds them.
type StylePatch struct {
	StrokeColor *string
	StrokeWidth *float64
	FillColor   *string
}

func (p StylePatch) strokeColor() bool { return p.StrokeColor != nil && *p.StrokeColor != "" }

func (p StylePatch) strokeWidth() bool {
	return p.StrokeWidth != nil && *p.StrokeWidth > 0 && !math.IsInf(*p.StrokeWidth, 1)
}

func (p StylePatch) fillColor() bool { return p.FillColor != nil && *p.FillColor != "" }

// Empty reports whether the patch changes nothing.
func (p StylePatch) Empty() bool {
	return !p.strokeColor() && !p.strokeWidth() && !p.fillColor()
}

// Apply returns s with the patch fields overwritten.
func (p StylePatch) Apply(s Style) Style {
	if p.strokeColor() {
		s.StrokeColor = *p.StrokeColor
	}
	if p.strokeWidth() {
		s.StrokeWidth = *p.StrokeWidth
	}
	if p.fillColor() {
		s.FillColor = *p.FillColor
	}
	return s
}
