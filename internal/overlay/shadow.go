package overlay

import (
	"image"
	"image/color"
	"image/draw"
)

// Shadow configures the drop shadow added behind a flattened export.
type Shadow struct {
	Radius  int
	Offset  image.Point
	Opacity float64
}

// DefaultShadow is a soft shadow down and to the right.
func DefaultShadow() Shadow {
	return Shadow{Radius: 24, Offset: image.Pt(16, 16), Opacity: 0.55}
}

// WithShadow returns img on a transparent canvas large enough to hold a
// blurred copy of its alpha offset by s.Offset. The canvas starts at (0,0);
// the second result is where img's top-left corner landed. A non-positive
// opacity returns img unchanged.
func WithShadow(img *image.RGBA, s Shadow) (*image.RGBA, image.Point) {
	src := img.Bounds()
	if src.Empty() || s.Opacity <= 0 {
		return img, image.Point{}
	}
	opacity := min(s.Opacity, 1)
	radius := max(s.Radius, 0)

	mask := src.Inset(-radius)
	shadow := mask.Add(s.Offset)
	canvas := src.Union(shadow)
	shift := src.Min.Sub(canvas.Min)

	alpha := image.NewGray(image.Rect(0, 0, mask.Dx(), mask.Dy()))
	for y := src.Min.Y; y < src.Max.Y; y++ {
		for x := src.Min.X; x < src.Max.X; x++ {
			alpha.Pix[(y-mask.Min.Y)*alpha.Stride+x-mask.Min.X] = img.RGBAAt(x, y).A
		}
	}
	boxBlur(alpha, radius)

	dst := image.NewRGBA(canvas.Sub(canvas.Min))
	tint := image.NewUniform(color.RGBA{A: uint8(opacity*255 + 0.5)})
	draw.DrawMask(dst, alpha.Bounds().Add(shadow.Min.Sub(canvas.Min)), tint, image.Point{}, alpha, image.Point{}, draw.Over)
	draw.Draw(dst, src.Sub(canvas.Min), img, src.Min, draw.Over)
	return dst, shift
}

// boxBlur averages g in place over a (2r+1) square, one axis at a time.
// Windows are clipped at the edges.
func boxBlur(g *image.Gray, r int) {
	if r <= 0 {
		return
	}
	w, h := g.Rect.Dx(), g.Rect.Dy()
	line := make([]uint8, max(w, h))
	blur1D := func(get func(i int) uint8, set func(i int, v uint8), n int) {
		for i := 0; i < n; i++ {
			line[i] = get(i)
		}
		sum := 0
		for i := 0; i <= r && i < n; i++ {
			sum += int(line[i])
		}
		for i := 0; i < n; i++ {
			lo, hi := max(i-r, 0), min(i+r, n-1)
			set(i, uint8(sum/(hi-lo+1)))
			if i+r+1 < n {
				sum += int(line[i+r+1])
			}
			if i-r >= 0 {
				sum -= int(line[i-r])
			}
		}
	}
	for y := 0; y < h; y++ {
		row := g.Pix[y*g.Stride:]
		blur1D(func(i int) uint8 { return row[i] }, func(i int, v uint8) { row[i] = v }, w)
	}
	for x := 0; x < w; x++ {
		blur1D(func(i int) uint8 { return g.Pix[i*g.Stride+x] }, func(i int, v uint8) { g.Pix[i*g.Stride+x] = v }, h)
	}
}
