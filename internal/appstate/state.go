package appstate

import (
	"context"
	"fmt"
	"image"
	"log"
	"sync"
	"time"
	"unicode"

	"golang.org/x/exp/shiny/driver"
	"golang.org/x/exp/shiny/screen"
	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/lifecycle"
	"golang.org/x/mobile/event/mouse"
	"golang.org/x/mobile/event/paint"
	"golang.org/x/mobile/event/size"

	"github.com/example/annotator/internal/clipboard"
	"github.com/example/annotator/internal/config"
	"github.com/example/annotator/internal/editor"
	"github.com/example/annotator/internal/geom"
	"github.com/example/annotator/internal/gesture"
	"github.com/example/annotator/internal/notify"
	"github.com/example/annotator/internal/overlay"
	"github.com/example/annotator/internal/theme"
	"github.com/example/annotator/internal/tool"
)

// AppState holds the configuration of the annotation window.
type AppState struct {
	Image    image.Image
	Ref      string
	Output   string
	Config   *config.Config
	Theme    *theme.Theme
	Tool     tool.Mode
	Document []byte

	notifier *notify.Notifier
	onEvent  func(editor.Event)

	onClose   func()
	closeOnce sync.Once
}

// Option modifies an AppState during creation.
type Option func(*AppState)

// WithImage sets the displayed image and the reference recorded in exports.
func WithImage(img image.Image, ref string) Option {
	return func(a *AppState) { a.Image, a.Ref = img, ref }
}

// WithOutput sets the file annotations are exported to.
func WithOutput(out string) Option { return func(a *AppState) { a.Output = out } }

// WithConfig supplies the application configuration.
func WithConfig(c *config.Config) Option { return func(a *AppState) { a.Config = c } }

// WithTheme sets the window colours.
func WithTheme(t *theme.Theme) Option { return func(a *AppState) { a.Theme = t } }

// WithTool selects the tool active when the window opens.
func WithTool(m tool.Mode) Option { return func(a *AppState) { a.Tool = m } }

// WithDocument preloads annotations from a serialized document.
func WithDocument(data []byte) Option { return func(a *AppState) { a.Document = data } }

// WithNotifier enables desktop notifications.
func WithNotifier(n *notify.Notifier) Option { return func(a *AppState) { a.notifier = n } }

// WithEventListener receives every editor notification.
func WithEventListener(fn func(editor.Event)) Option { return func(a *AppState) { a.onEvent = fn } }

// WithOnClose registers a callback invoked when the window closes.
func WithOnClose(fn func()) Option { return func(a *AppState) { a.onClose = fn } }

// New creates an AppState with the provided options.
func New(opts ...Option) *AppState {
	a := &AppState{Tool: tool.Pan}
	for _, o := range opts {
		o(a)
	}
	if a.Config == nil {
		a.Config = config.New()
	}
	if a.Theme == nil {
		a.Theme = theme.Default()
	}
	if a.Image == nil {
		a.Image = image.NewRGBA(image.Rect(0, 0, 640, 480))
	}
	if a.Output == "" {
		a.Output = DefaultOutput(a.Ref, a.Config.SaveDir)
	}
	return a
}

// timerEvent carries a gesture timer callback onto the event goroutine.
type timerEvent struct{ fn func() }

func (a *AppState) notifyClose() {
	a.closeOnce.Do(func() {
		if a.onClose != nil {
			a.onClose()
		}
	})
}

// paletteOf maps theme colours onto the overlay chrome.
func paletteOf(th *theme.Theme) overlay.Palette {
	return overlay.Palette{SelectionA: th.SelectionA, SelectionB: th.SelectionB, Handle: th.Handle}
}

// Run executes the UI loop using shiny's driver.
func (a *AppState) Run() { driver.Main(a.Main) }

func (a *AppState) Main(s screen.Screen) {
	b := a.Image.Bounds()
	width := min(b.Dx(), 1280) + toolbarWidth
	height := min(b.Dy(), 800) + statusHeight
	if minH := len(tool.Modes())*buttonHeight + statusHeight; height < minH {
		height = minH
	}
	w, err := s.NewWindow(&screen.NewWindowOptions{Width: width, Height: height, Title: "Annotator - " + a.Ref})
	if err != nil {
		log.Fatalf("new window: %v", err)
	}
	defer w.Release()

	defer a.notifyClose()

	var message string
	var messageUntil time.Time
	flash := func(msg string) {
		message = msg
		log.Print(message)
		messageUntil = time.Now().Add(2 * time.Second)
	}

	var textInputActive bool
	var textInput string
	var textPos geom.Point

	raster := overlay.NewRaster(overlay.WithPalette(paletteOf(a.Theme)))
	ed := editor.New(
		editor.WithConfig(a.Config),
		editor.WithClock(gesture.NewSystemClock(func(f func()) { w.Send(timerEvent{fn: f}) })),
		editor.WithSurface(raster),
		editor.WithInitialTool(a.Tool),
		editor.WithTextPrompt(func(at geom.Point) (string, bool) {
			textInputActive = true
			textInput = ""
			textPos = at
			return "", false
		}),
		editor.WithListener(func(ev editor.Event) {
			if a.onEvent != nil {
				a.onEvent(ev)
			}
		}),
	)
	defer ed.Close()
	ed.Viewport().SetOrigin(geom.Pt(float64(toolbarWidth), 0))
	ed.LoadImage(a.Ref, geom.Size{W: float64(b.Dx()), H: float64(b.Dy())})
	if a.Document != nil && !ed.ImportAnnotations(a.Document) {
		flash("could not load annotations")
	}

	hover := -1
	toolbar := newToolbar(a.Theme, func(m tool.Mode) { ed.SetToolMode(m) })

	bd := &backdrop{}
	var paintMu sync.Mutex
	var paintCancel context.CancelFunc
	var dropCount int
	paintCh := make(chan paintState, 1)
	go func() {
		for st := range paintCh {
			ctx, cancel := context.WithCancel(context.Background())
			paintMu.Lock()
			paintCancel = cancel
			paintMu.Unlock()
			drawFrame(ctx, s, w, bd, st)
			paintMu.Lock()
			paintCancel = nil
			if ctx.Err() == nil {
				dropCount = 0
			}
			paintMu.Unlock()
			cancel()
		}
	}()
	defer close(paintCh)

	stopPaint := func() {
		paintMu.Lock()
		if paintCancel != nil {
			paintCancel()
		}
		paintMu.Unlock()
	}

	export := func() {
		data, err := ed.ExportJSON()
		if err != nil {
			log.Printf("export: %v", err)
			return
		}
		if err := WriteFile(a.Output, data); err != nil {
			log.Printf("export: %v", err)
			return
		}
		anns := ed.Annotations()
		flash(fmt.Sprintf("exported %d annotations to %s", len(anns), a.Output))
		if a.notifier != nil {
			a.notifier.Export(a.Output, len(anns), overlay.Flatten(a.Image, anns))
		}
	}

	copyJSON := func() {
		data, err := ed.ExportJSON()
		if err != nil {
			log.Printf("copy: %v", err)
			return
		}
		if err := clipboard.WriteJSON(data); err != nil {
			log.Printf("copy: %v", err)
			return
		}
		flash("annotations copied to clipboard")
		a.notifier.Copy(fmt.Sprintf("%d annotations", len(ed.Annotations())))
	}

	paste := func() {
		data, err := clipboard.ReadJSON()
		if err != nil {
			log.Printf("paste: %v", err)
			return
		}
		if err := ed.Import(data); err != nil {
			log.Printf("paste: %v", err)
			flash("clipboard does not hold annotations")
			return
		}
		flash(fmt.Sprintf("imported %d annotations", len(ed.Annotations())))
		a.notifier.Import("", len(ed.Annotations()))
	}

	commitText := func() {
		if textInputActive {
			ed.PlaceText(textPos, textInput)
		}
		textInputActive = false
		textInput = ""
	}

	fitted := false
	for {
		e := w.NextEvent()
		switch e := e.(type) {
		case timerEvent:
			e.fn()
			w.Send(paint.Event{})
		case lifecycle.Event:
			if e.To == lifecycle.StageDead {
				stopPaint()
				return
			}
		case size.Event:
			width = e.WidthPx
			height = e.HeightPx
			cr := canvasRect(width, height)
			ed.Resize(geom.Size{W: float64(cr.Dx()), H: float64(cr.Dy())})
			if !fitted {
				ed.Fit()
				fitted = true
			}
			w.Send(paint.Event{})
		case paint.Event:
			paintMu.Lock()
			if paintCancel != nil {
				if dropCount < frameDropThreshold {
					paintCancel()
					dropCount++
				}
			}
			paintMu.Unlock()
			vp := ed.Viewport()
			scene := ed.Scene(a.Image)
			st := paintState{
				width:           width,
				height:          height,
				theme:           a.Theme,
				raster:          raster.Snapshot(),
				scene:           scene,
				tool:            ed.Tool(),
				toolbar:         toolbar,
				hover:           hover,
				status:          statusLine(ed.Tool(), vp.Scale(), len(scene.Annotations), scene.Selected),
				textInputActive: textInputActive,
				textInput:       textInput,
				textPos:         textPos,
				message:         message,
				messageUntil:    messageUntil,
			}
			select {
			case paintCh <- st:
			default:
				<-paintCh
				paintCh <- st
			}
		case mouse.Event:
			p := image.Pt(int(e.X), int(e.Y))
			if message != "" && time.Now().Before(messageUntil) && e.Direction == mouse.DirPress {
				messageUntil = time.Time{}
				w.Send(paint.Event{})
				continue
			}
			if e.Direction == mouse.DirPress && textInputActive {
				commitText()
			}
			if p.X < toolbarWidth && !ed.PointerActive() {
				idx := buttonAt(toolbar, p)
				if idx != hover {
					hover = idx
					w.Send(paint.Event{})
				}
				if e.Direction == mouse.DirPress && e.Button == mouse.ButtonLeft && idx >= 0 {
					toolbar[idx].Activate()
					w.Send(paint.Event{})
				}
				continue
			}
			if hover != -1 {
				hover = -1
				w.Send(paint.Event{})
			}
			if ed.HandleMouse(e) {
				w.Send(paint.Event{})
			}
		case key.Event:
			if e.Direction == key.DirRelease {
				continue
			}
			if textInputActive {
				switch e.Code {
				case key.CodeReturnEnter, key.CodeKeypadEnter:
					commitText()
				case key.CodeEscape:
					textInputActive = false
					textInput = ""
				case key.CodeDeleteBackspace:
					if r := []rune(textInput); len(r) > 0 {
						textInput = string(r[:len(r)-1])
					}
				default:
					if e.Rune > 0 && unicode.IsPrint(e.Rune) {
						textInput += string(e.Rune)
					}
				}
				w.Send(paint.Event{})
				continue
			}
			if e.Modifiers&key.ModControl != 0 {
				switch unicode.ToLower(e.Rune) {
				case 's':
					export()
				case 'c':
					copyJSON()
				case 'v':
					paste()
				case 'q':
					stopPaint()
					return
				}
				w.Send(paint.Event{})
				continue
			}
			if e.Rune == 'q' && !ed.PointerActive() {
				if _, drafting := ed.Draft(); !drafting {
					stopPaint()
					return
				}
			}
			if ed.HandleKey(e) {
				w.Send(paint.Event{})
			}
		}
	}
}
