package overlay

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
)

// ParseColor understands #rgb, #rrggbb, #rrggbbaa, rgb(), rgba(), the SVG
// colour keywords, "none" and "transparent".
func ParseColor(s string) (color.RGBA, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch {
	case s == "" || s == "none" || s == "transparent":
		return color.RGBA{}, nil
	case strings.HasPrefix(s, "#"):
		return parseHex(s[1:])
	case strings.HasPrefix(s, "rgba(") || strings.HasPrefix(s, "rgb("):
		return parseFunc(s)
	}
	if c, ok := colornames.Map[s]; ok {
		return c, nil
	}
	return color.RGBA{}, fmt.Errorf("unknown colour %q", s)
}

func parseHex(h string) (color.RGBA, error) {
	switch len(h) {
	case 3:
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]}) + "ff"
	case 6:
		h += "ff"
	case 8:
	default:
		return color.RGBA{}, fmt.Errorf("bad hex colour #%s", h)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("bad hex colour #%s: %w", h, err)
	}
	r, g, b, a := uint8(v>>24), uint8(v>>16), uint8(v>>8), uint8(v)
	return premultiply(r, g, b, a), nil
}

func parseFunc(s string) (color.RGBA, error) {
	open := strings.IndexByte(s, '(')
	if !strings.HasSuffix(s, ")") {
		return color.RGBA{}, fmt.Errorf("bad colour %q", s)
	}
	parts := strings.Split(s[open+1:len(s)-1], ",")
	if len(parts) != 3 && len(parts) != 4 {
		return color.RGBA{}, fmt.Errorf("bad colour %q", s)
	}
	var ch [3]uint8
	for i := 0; i < 3; i++ {
		v, err := strconv.ParseFloat(strings.TrimSpace(parts[i]), 64)
		if err != nil {
			return color.RGBA{}, fmt.Errorf("bad colour %q: %w", s, err)
		}
		ch[i] = uint8(math.Max(0, math.Min(255, math.Round(v))))
	}
	alpha := uint8(255)
	if len(parts) == 4 {
		v, err := strconv.ParseFloat(strings.TrimSpace(parts[3]), 64)
		if err != nil {
			return color.RGBA{}, fmt.Errorf("bad colour %q: %w", s, err)
		}
		alpha = uint8(math.Round(math.Max(0, math.Min(1, v)) * 255))
	}
	return premultiply(ch[0], ch[1], ch[2], alpha), nil
}

// premultiply converts straight alpha components into color.RGBA.
func premultiply(r, g, b, a uint8) color.RGBA {
	m := func(c uint8) uint8 { return uint8((uint32(c)*uint32(a) + 127) / 255) }
	return color.RGBA{R: m(r), G: m(g), B: m(b), A: a}
}

// colorOr parses s and falls back to def on error.
func colorOr(s string, def color.RGBA) color.RGBA {
	c, err := ParseColor(s)
	if err != nil {
		return def
	}
	return c
}
