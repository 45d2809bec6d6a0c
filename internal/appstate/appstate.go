package appstate

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"log"
	"time"

	"golang.org/x/exp/shiny/screen"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/example/annotator/internal/geom"
	"github.com/example/annotator/internal/overlay"
	"github.com/example/annotator/internal/theme"
	"github.com/example/annotator/internal/tool"
)

const (
	statusHeight = 24
	buttonHeight = 24
	checkerSize  = 8
)

var toolbarWidth = 72

// frameDropThreshold specifies how many consecutive frames can be canceled
// before a draw is allowed to complete to keep the UI responsive.
const frameDropThreshold = 10

// ButtonState describes the visual state of a button.
type ButtonState int

const (
	StateDefault ButtonState = iota
	StateHover
	StatePressed
)

// Button represents an interactive UI element.
// Activate performs the button's action when clicked.
type Button interface {
	Draw(dst *image.RGBA, state ButtonState)
	Rect() image.Rectangle
	SetRect(r image.Rectangle)
	Activate()
}

// CacheButton wraps another Button and caches its rendered states.
type CacheButton struct {
	Button
	cache [3]*image.RGBA
}

var _ Button = (*CacheButton)(nil)

func (cb *CacheButton) Draw(dst *image.RGBA, state ButtonState) {
	if cb.cache[state] == nil {
		rect := cb.Button.Rect()
		img := image.NewRGBA(rect)
		cb.Button.Draw(img, state)
		cb.cache[state] = img
	}
	draw.Draw(dst, cb.Button.Rect(), cb.cache[state], cb.Button.Rect().Min, draw.Src)
}

func (cb *CacheButton) Rect() image.Rectangle { return cb.Button.Rect() }

func (cb *CacheButton) SetRect(r image.Rectangle) {
	if r != cb.Button.Rect() {
		cb.Button.SetRect(r)
		cb.cache = [3]*image.RGBA{}
	}
}

func (cb *CacheButton) Activate() { cb.Button.Activate() }

// ToolButton selects an editor tool.
type ToolButton struct {
	label string
	mode  tool.Mode
	rect  image.Rectangle
	theme *theme.Theme
	// onSelect is called when the button is activated.
	onSelect func(tool.Mode)
}

func (tb *ToolButton) Draw(dst *image.RGBA, state ButtonState) {
	c := tb.theme.StatusBackground
	switch state {
	case StateHover:
		c = shade(c, 20)
	case StatePressed:
		c = shade(c, 50)
	}
	draw.Draw(dst, tb.rect, &image.Uniform{c}, image.Point{}, draw.Src)
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(tb.theme.Foreground), Face: basicfont.Face7x13,
		Dot: fixed.P(tb.rect.Min.X+4, tb.rect.Min.Y+16)}
	d.DrawString(tb.label)
}

func (tb *ToolButton) Rect() image.Rectangle { return tb.rect }

func (tb *ToolButton) SetRect(r image.Rectangle) {
	if r != tb.rect {
		tb.rect = r
	}
}

func (tb *ToolButton) Activate() {
	if tb.onSelect != nil {
		tb.onSelect(tb.mode)
	}
}

// shade darkens c by amount on every channel.
func shade(c color.RGBA, amount uint8) color.RGBA {
	sub := func(v uint8) uint8 {
		if v < amount {
			return 0
		}
		return v - amount
	}
	return color.RGBA{sub(c.R), sub(c.G), sub(c.B), c.A}
}

// toolLabel is the toolbar caption for m, prefixed with its shortcut.
func toolLabel(m tool.Mode) string {
	if k := tool.ShortcutLabel(m); k != "" {
		return k + ":" + m.String()
	}
	return m.String()
}

// newToolbar lays out one button per tool down the left edge.
func newToolbar(th *theme.Theme, onSelect func(tool.Mode)) []*CacheButton {
	var out []*CacheButton
	for i, m := range tool.Modes() {
		tb := &ToolButton{label: toolLabel(m), mode: m, theme: th, onSelect: onSelect}
		tb.SetRect(image.Rect(0, i*buttonHeight, toolbarWidth, (i+1)*buttonHeight))
		out = append(out, &CacheButton{Button: tb})
	}
	return out
}

// buttonAt returns the index of the button under p, or -1.
func buttonAt(buttons []*CacheButton, p image.Point) int {
	for i, b := range buttons {
		if p.In(b.Rect()) {
			return i
		}
	}
	return -1
}

// drawCheckerboard fills rect of dst with a checkerboard pattern of the given
// colors. size controls the checker square size.
func drawCheckerboard(dst *image.RGBA, rect image.Rectangle, size int, light, dark color.Color) {
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			if ((x/size)+(y/size))%2 == 0 {
				dst.Set(x, y, light)
			} else {
				dst.Set(x, y, dark)
			}
		}
	}
}

type backdrop struct {
	img         *image.RGBA
	light, dark color.RGBA
}

// draw fills dst with a cached checkerboard, rebuilding it when the size or
// colours change.
func (bd *backdrop) draw(dst *image.RGBA, light, dark color.RGBA) {
	b := dst.Bounds()
	if bd.img == nil || bd.img.Bounds() != b || bd.light != light || bd.dark != dark {
		bd.img = image.NewRGBA(b)
		bd.light, bd.dark = light, dark
		drawCheckerboard(bd.img, b, checkerSize, light, dark)
	}
	draw.Draw(dst, b, bd.img, b.Min, draw.Src)
}

func drawRect(img *image.RGBA, rect image.Rectangle, col color.Color, thick int) {
	for i := 0; i < thick; i++ {
		r := rect.Inset(i)
		for x := r.Min.X; x < r.Max.X; x++ {
			img.Set(x, r.Min.Y, col)
			img.Set(x, r.Max.Y-1, col)
		}
		for y := r.Min.Y; y < r.Max.Y; y++ {
			img.Set(r.Min.X, y, col)
			img.Set(r.Max.X-1, y, col)
		}
	}
}

type paintState struct {
	width, height   int
	theme           *theme.Theme
	raster          *overlay.Raster
	scene           overlay.Scene
	tool            tool.Mode
	toolbar         []*CacheButton
	hover           int
	status          string
	textInputActive bool
	textInput       string
	textPos         geom.Point
	message         string
	messageUntil    time.Time
}

// canvasRect is the window area given to the viewport.
func canvasRect(width, height int) image.Rectangle {
	return image.Rect(toolbarWidth, 0, width, height-statusHeight)
}

// statusLine summarises the editor state for the status bar.
func statusLine(m tool.Mode, scale float64, count int, selected string) string {
	s := fmt.Sprintf("%s  %.0f%%  %d annotation", m, scale*100, count)
	if count != 1 {
		s += "s"
	}
	if selected != "" {
		s += "  [" + selected + "]"
	}
	return s
}

// composeFrame draws one complete window frame into dst. It returns false
// when ctx is cancelled part way through.
func composeFrame(ctx context.Context, dst *image.RGBA, bd *backdrop, st paintState) bool {
	th := st.theme
	draw.Draw(dst, dst.Bounds(), &image.Uniform{th.Background}, image.Point{}, draw.Src)

	cr := canvasRect(st.width, st.height)
	if !cr.Empty() {
		canvas := image.NewRGBA(image.Rect(0, 0, cr.Dx(), cr.Dy()))
		bd.draw(canvas, th.CheckerLight, th.CheckerDark)
		if ctx.Err() != nil {
			return false
		}
		st.raster.Render(canvas, st.scene)
		if ctx.Err() != nil {
			return false
		}
		if st.textInputActive {
			p := st.raster.Transform().Apply(st.textPos)
			d := &font.Drawer{Dst: canvas, Src: image.NewUniform(th.Foreground), Face: basicfont.Face7x13,
				Dot: fixed.P(int(p.X), int(p.Y))}
			d.DrawString(st.textInput + "|")
		}
		draw.Draw(dst, cr, canvas, image.Point{}, draw.Src)
	}
	if ctx.Err() != nil {
		return false
	}

	for i, b := range st.toolbar {
		state := StateDefault
		if b.Button.(*ToolButton).mode == st.tool {
			state = StatePressed
		} else if i == st.hover {
			state = StateHover
		}
		b.Draw(dst, state)
	}

	sr := image.Rect(0, st.height-statusHeight, st.width, st.height)
	draw.Draw(dst, sr, &image.Uniform{th.StatusBackground}, image.Point{}, draw.Src)
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(th.StatusText), Face: basicfont.Face7x13,
		Dot: fixed.P(sr.Min.X+6, sr.Min.Y+16)}
	d.DrawString(st.status)
	if ctx.Err() != nil {
		return false
	}

	if st.message != "" && time.Now().Before(st.messageUntil) {
		if err := drawMessage(dst, st.width, st.height, st.message, th); err != nil {
			log.Printf("message: %v", err)
		}
	}
	return ctx.Err() == nil
}

func drawMessage(dst *image.RGBA, width, height int, msg string, th *theme.Theme) error {
	wmsg, h, _, err := measureText(msg, messageSize)
	if err != nil {
		return err
	}
	px := (width - wmsg) / 2
	top := (height - h) / 2
	rect := image.Rect(px-8, top-8, px+wmsg+8, top+h+8)
	bg := th.StatusBackground
	bg.A = 230
	draw.Draw(dst, rect, &image.Uniform{bg}, image.Point{}, draw.Over)
	drawRect(dst, rect, th.StatusText, 2)
	return drawText(dst, px, top, msg, th.StatusText, messageSize)
}

func drawFrame(ctx context.Context, s screen.Screen, w screen.Window, bd *backdrop, st paintState) {
	b, err := s.NewBuffer(image.Point{st.width, st.height})
	if err != nil {
		log.Printf("new buffer: %v", err)
		return
	}
	defer b.Release()

	if !composeFrame(ctx, b.RGBA(), bd, st) {
		return
	}
	w.Upload(image.Point{}, b, b.Bounds())
	w.Publish()
}
