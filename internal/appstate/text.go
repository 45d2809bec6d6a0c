package appstate

import (
	"image"
	"image/color"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// messageSize is the point size of the centred status message.
const messageSize = 20

var (
	goregularFont = sync.OnceValues(func() (*opentype.Font, error) {
		return opentype.Parse(goregular.TTF)
	})
	textFaces sync.Map // map[float64]font.Face
)

func faceForSize(size float64) (font.Face, error) {
	if face, ok := textFaces.Load(size); ok {
		return face.(font.Face), nil
	}
	f, err := goregularFont()
	if err != nil {
		return nil, err
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		return nil, err
	}
	textFaces.Store(size, face)
	return face, nil
}

// measureText returns the bounding box of text rendered at size, and the
// offset from its top to the baseline.
func measureText(text string, size float64) (width, height, baseline int, err error) {
	face, err := faceForSize(size)
	if err != nil {
		return 0, 0, 0, err
	}
	drawer := &font.Drawer{Face: face}
	width = drawer.MeasureString(text).Ceil()
	metrics := face.Metrics()
	ascent := metrics.Ascent.Ceil()
	descent := metrics.Descent.Ceil()
	baseline = ascent
	height = ascent + descent
	return
}

// drawText renders text with its top-left corner at (x, y).
func drawText(img *image.RGBA, x, y int, text string, col color.Color, size float64) error {
	face, err := faceForSize(size)
	if err != nil {
		return err
	}
	metrics := face.Metrics()
	baseline := y + metrics.Ascent.Ceil()
	drawer := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.P(x, baseline),
	}
	drawer.DrawString(text)
	return nil
}
