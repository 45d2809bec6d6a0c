package overlay

import (
	"image"
	"image/color"
	"testing"
)

func TestWithShadowExpandsCanvas(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	img.Set(5, 5, color.RGBA{R: 255, A: 255})

	s := Shadow{Radius: 4, Offset: image.Pt(8, 6), Opacity: 1}
	out, shift := WithShadow(img, s)
	if want := image.Rect(0, 0, 22, 20); out.Bounds() != want {
		t.Fatalf("bounds = %v, want %v", out.Bounds(), want)
	}
	if shift != (image.Point{}) {
		t.Fatalf("shift = %v", shift)
	}
	if out.RGBAAt(13, 11).A == 0 {
		t.Fatal("no shadow under the offset subject")
	}
	if got := out.RGBAAt(5, 5); got.R != 255 || got.A != 255 {
		t.Fatalf("subject pixel = %v", got)
	}
}

func TestWithShadowNegativeOffsetShiftsImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	out, shift := WithShadow(img, Shadow{Radius: 1, Offset: image.Pt(-3, 0), Opacity: 1})
	if shift != image.Pt(4, 1) {
		t.Fatalf("shift = %v", shift)
	}
	if got := out.RGBAAt(shift.X, shift.Y); got != (color.RGBA{255, 255, 255, 255}) {
		t.Fatalf("image corner = %v", got)
	}
}

func TestWithShadowZeroOpacity(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	out, _ := WithShadow(img, Shadow{Radius: 12, Offset: image.Pt(20, 10)})
	if out != img {
		t.Fatal("zero opacity should return the input")
	}
}

func TestBoxBlurSpreadsAlpha(t *testing.T) {
	g := image.NewGray(image.Rect(0, 0, 5, 1))
	g.Pix[2] = 255
	boxBlur(g, 1)
	if g.Pix[1] != 85 || g.Pix[2] != 85 || g.Pix[3] != 85 || g.Pix[0] != 0 {
		t.Fatalf("blurred row = %v", g.Pix)
	}
}
