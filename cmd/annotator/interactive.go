package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/mouse"

	"github.com/example/annotator/internal/annotation"
	"github.com/example/annotator/internal/appstate"
	"github.com/example/annotator/internal/clipboard"
	"github.com/example/annotator/internal/editor"
	"github.com/example/annotator/internal/geom"
	"github.com/example/annotator/internal/gesture"
	"github.com/example/annotator/internal/tool"
)

type commandList []string

func (c *commandList) String() string {
	return strings.Join(*c, ";")
}

func (c *commandList) Set(value string) error {
	*c = append(*c, value)
	return nil
}

// clickHold is how long scripted clicks keep the button down.
const clickHold = 50 * time.Millisecond

type interactiveCmd struct {
	*root
	fs     *flag.FlagSet
	execs  commandList
	width  int
	height int
	image  string

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	now    func() time.Time
	newID  func() string

	ed    *editor.Editor
	clock *gesture.ManualClock
	texts []string
}

func parseInteractiveCmd(args []string, r *root) (*interactiveCmd, error) {
	fs := flag.NewFlagSet("interactive", flag.ExitOnError)
	c := &interactiveCmd{
		root:   r.subcommand("interactive"),
		fs:     fs,
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
		now:    time.Now,
	}
	fs.Usage = usageFunc(c)
	fs.Var(&c.execs, "e", "execute a session command (may be specified multiple times)")
	fs.IntVar(&c.width, "width", 800, "viewport width in pixels")
	fs.IntVar(&c.height, "height", 600, "viewport height in pixels")
	fs.StringVar(&c.image, "image", "", "image file whose dimensions are loaded at start")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if c.width <= 0 || c.height <= 0 {
		return nil, fmt.Errorf("viewport size must be positive, got %dx%d", c.width, c.height)
	}
	return c, nil
}

func (c *interactiveCmd) FlagSet() *flag.FlagSet {
	return c.fs
}

// start builds the headless editor the session drives.
func (c *interactiveCmd) start() error {
	c.clock = gesture.NewManualClock(c.now())
	opts := []editor.Option{
		editor.WithConfig(c.config),
		editor.WithClock(c.clock),
		editor.WithListener(eventPrinter(c.stdout)),
		editor.WithTextPrompt(c.prompt),
	}
	if c.newID != nil {
		opts = append(opts, editor.WithIDGenerator(c.newID))
	}
	c.ed = editor.New(opts...)
	c.ed.Resize(geom.Size{W: float64(c.width), H: float64(c.height)})
	if c.image != "" {
		img, err := appstate.LoadImage(c.image)
		if err != nil {
			return fmt.Errorf("failed to load image: %w", err)
		}
		b := img.Bounds()
		c.ed.LoadImage(c.image, geom.Size{W: float64(b.Dx()), H: float64(b.Dy())})
	}
	return nil
}

// prompt answers text placement with the next queued label.
func (c *interactiveCmd) prompt(at geom.Point) (string, bool) {
	if len(c.texts) == 0 {
		fmt.Fprintf(c.stdout, "text prompt at %g,%g: nothing queued\n", at.X, at.Y)
		return "", false
	}
	t := c.texts[0]
	c.texts = c.texts[1:]
	return t, true
}

func (c *interactiveCmd) Run() error {
	if err := c.start(); err != nil {
		return err
	}
	defer c.ed.Close()

	if len(c.execs) > 0 {
		for _, line := range c.execs {
			done, err := c.executeLine(line)
			if err != nil {
				return err
			}
			if done {
				break
			}
		}
		return nil
	}

	fmt.Fprintln(c.stdout, "Enter commands (type 'help' for a list, 'exit' to quit)")
	scanner := bufio.NewScanner(c.stdin)
	for {
		fmt.Fprint(c.stdout, "> ")
		if !scanner.Scan() {
			break
		}
		done, err := c.executeLine(scanner.Text())
		if err != nil {
			fmt.Fprintln(c.stderr, err)
		}
		if done {
			break
		}
	}
	return scanner.Err()
}

var errArgs = errors.New("wrong number of arguments")

// executeLine runs one session command. done reports a request to quit.
func (c *interactiveCmd) executeLine(line string) (done bool, err error) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return false, nil
	}
	args := strings.Fields(line)
	name, args := args[0], args[1:]
	switch name {
	case "exit", "quit":
		return true, nil
	case "help":
		fmt.Fprintln(c.stdout, sessionHelp)
	case "image":
		err = c.cmdImage(args)
	case "resize":
		err = c.cmdResize(args)
	case "fit":
		c.ed.Fit()
		c.printTransform()
	case "transform":
		c.printTransform()
	case "zoom":
		err = c.cmdZoom(args)
	case "tool":
		err = c.cmdTool(args)
	case "down":
		err = c.cmdPointer(mouse.DirPress, args)
	case "move":
		err = c.cmdPointer(mouse.DirNone, args)
	case "up":
		err = c.cmdPointer(mouse.DirRelease, args)
	case "click":
		err = c.cmdClick(args, 1)
	case "dblclick":
		err = c.cmdClick(args, 2)
	case "drag":
		err = c.cmdDrag(args)
	case "wait":
		err = c.cmdWait(args)
	case "key":
		err = c.cmdKey(args)
	case "wheel":
		err = c.cmdWheel(args)
	case "text":
		rest := strings.TrimSpace(strings.TrimPrefix(line, name))
		if rest == "" {
			return false, fmt.Errorf("text: %w", errArgs)
		}
		c.texts = append(c.texts, rest)
	case "style":
		err = c.cmdStyle(args)
	case "list":
		c.list()
	case "draft":
		c.printDraft()
	case "select":
		err = c.cmdSelect(args)
	case "delete":
		err = c.cmdDelete(args)
	case "clear":
		c.ed.ClearAnnotations()
	case "export":
		err = c.cmdExport(args)
	case "import":
		err = c.cmdImport(args)
	case "copy":
		err = c.cmdCopy()
	case "paste":
		err = c.cmdPaste()
	default:
		err = fmt.Errorf("unknown command %q", name)
	}
	if err != nil {
		return false, fmt.Errorf("%s: %w", name, err)
	}
	return false, nil
}

const sessionHelp = `image REF W H        set the image reference and size, then fit
resize W H           set the viewport size
fit | transform      fit the image / print the view transform
zoom X Y FACTOR      zoom around a screen point
tool NAME            pan, select, rect, ellipse, polygon or text
down X Y [MODS]      press the button (MODS: shift ctrl alt meta)
move X Y | up X Y    move the pointer / release the button
click X Y [MODS]     press and release after a short hold
dblclick X Y [MODS]  two clicks in quick succession
drag X0 Y0 X1 Y1 [MODS]
wait MS              advance the session clock
key NAME [MODS]      esc enter delete backspace left right up down or a character
wheel X Y up|down [N]
text LABEL           answer the next text prompt
style stroke=C width=W fill=C
list | draft         print annotations / the draft
select ID | delete [ID] | clear
export [FILE] | import FILE
copy | paste         exchange the document with the clipboard
exit`

func parseFloats(args []string) ([]float64, error) {
	out := make([]float64, len(args))
	for i, a := range args {
		v, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", a)
		}
		out[i] = v
	}
	return out, nil
}

// parsePoint reads "X Y" from the front of args and returns the rest.
func parsePoint(args []string) (geom.Point, []string, error) {
	if len(args) < 2 {
		return geom.Point{}, nil, errArgs
	}
	v, err := parseFloats(args[:2])
	if err != nil {
		return geom.Point{}, nil, err
	}
	return geom.Pt(v[0], v[1]), args[2:], nil
}

func parseModifiers(args []string) (key.Modifiers, error) {
	var mods key.Modifiers
	for _, a := range args {
		switch strings.ToLower(a) {
		case "shift":
			mods |= key.ModShift
		case "ctrl", "control":
			mods |= key.ModControl
		case "alt":
			mods |= key.ModAlt
		case "meta", "cmd":
			mods |= key.ModMeta
		default:
			return 0, fmt.Errorf("unknown modifier %q", a)
		}
	}
	return mods, nil
}

var keyCodes = map[string]key.Code{
	"esc":       key.CodeEscape,
	"escape":    key.CodeEscape,
	"enter":     key.CodeReturnEnter,
	"return":    key.CodeReturnEnter,
	"delete":    key.CodeDeleteForward,
	"backspace": key.CodeDeleteBackspace,
	"left":      key.CodeLeftArrow,
	"right":     key.CodeRightArrow,
	"up":        key.CodeUpArrow,
	"down":      key.CodeDownArrow,
}

var keyRunes = map[string]rune{
	"plus":  '+',
	"minus": '-',
	"space": ' ',
}

func parseKey(name string) (key.Event, error) {
	if code, ok := keyCodes[strings.ToLower(name)]; ok {
		return key.Event{Code: code, Rune: -1}, nil
	}
	if r, ok := keyRunes[strings.ToLower(name)]; ok {
		return key.Event{Rune: r}, nil
	}
	if utf8.RuneCountInString(name) == 1 {
		r, _ := utf8.DecodeRuneInString(name)
		return key.Event{Rune: r}, nil
	}
	return key.Event{}, fmt.Errorf("unknown key %q", name)
}

func (c *interactiveCmd) cmdImage(args []string) error {
	if len(args) != 3 {
		return errArgs
	}
	v, err := parseFloats(args[1:])
	if err != nil {
		return err
	}
	if v[0] <= 0 || v[1] <= 0 {
		return fmt.Errorf("image size must be positive")
	}
	c.ed.LoadImage(args[0], geom.Size{W: v[0], H: v[1]})
	c.printTransform()
	return nil
}

func (c *interactiveCmd) cmdResize(args []string) error {
	if len(args) != 2 {
		return errArgs
	}
	v, err := parseFloats(args)
	if err != nil {
		return err
	}
	c.ed.Resize(geom.Size{W: v[0], H: v[1]})
	return nil
}

func (c *interactiveCmd) cmdZoom(args []string) error {
	if len(args) != 3 {
		return errArgs
	}
	v, err := parseFloats(args)
	if err != nil {
		return err
	}
	if v[2] <= 0 {
		return fmt.Errorf("zoom factor must be positive")
	}
	c.ed.ZoomAt(geom.Pt(v[0], v[1]), v[2])
	c.printTransform()
	return nil
}

func (c *interactiveCmd) cmdTool(args []string) error {
	if len(args) != 1 {
		return errArgs
	}
	m, err := tool.ParseMode(args[0])
	if err != nil {
		return err
	}
	c.ed.SetToolMode(m)
	return nil
}

func (c *interactiveCmd) pointer(dir mouse.Direction, p geom.Point, mods key.Modifiers) {
	ev := mouse.Event{X: float32(p.X), Y: float32(p.Y), Direction: dir, Modifiers: mods}
	if dir != mouse.DirNone {
		ev.Button = mouse.ButtonLeft
	}
	c.ed.HandleMouse(ev)
}

func (c *interactiveCmd) cmdPointer(dir mouse.Direction, args []string) error {
	p, rest, err := parsePoint(args)
	if err != nil {
		return err
	}
	mods, err := parseModifiers(rest)
	if err != nil {
		return err
	}
	c.pointer(dir, p, mods)
	return nil
}

func (c *interactiveCmd) cmdClick(args []string, count int) error {
	p, rest, err := parsePoint(args)
	if err != nil {
		return err
	}
	mods, err := parseModifiers(rest)
	if err != nil {
		return err
	}
	for i := 0; i < count; i++ {
		if i > 0 {
			c.clock.Advance(clickHold)
		}
		c.pointer(mouse.DirPress, p, mods)
		c.clock.Advance(clickHold)
		c.pointer(mouse.DirRelease, p, mods)
	}
	return nil
}

func (c *interactiveCmd) cmdDrag(args []string) error {
	from, rest, err := parsePoint(args)
	if err != nil {
		return err
	}
	to, rest, err := parsePoint(rest)
	if err != nil {
		return err
	}
	mods, err := parseModifiers(rest)
	if err != nil {
		return err
	}
	c.pointer(mouse.DirPress, from, mods)
	c.pointer(mouse.DirNone, from.Add(to).Div(2), mods)
	c.pointer(mouse.DirNone, to, mods)
	c.pointer(mouse.DirRelease, to, mods)
	return nil
}

func (c *interactiveCmd) cmdWait(args []string) error {
	if len(args) != 1 {
		return errArgs
	}
	ms, err := strconv.Atoi(args[0])
	if err != nil || ms < 0 {
		return fmt.Errorf("invalid duration %q", args[0])
	}
	c.clock.Advance(time.Duration(ms) * time.Millisecond)
	return nil
}

func (c *interactiveCmd) cmdKey(args []string) error {
	if len(args) < 1 {
		return errArgs
	}
	ev, err := parseKey(args[0])
	if err != nil {
		return err
	}
	if ev.Modifiers, err = parseModifiers(args[1:]); err != nil {
		return err
	}
	ev.Direction = key.DirPress
	if !c.ed.HandleKey(ev) {
		fmt.Fprintln(c.stdout, "key ignored")
	}
	return nil
}

func (c *interactiveCmd) cmdWheel(args []string) error {
	p, rest, err := parsePoint(args)
	if err != nil {
		return err
	}
	if len(rest) < 1 || len(rest) > 2 {
		return errArgs
	}
	var button mouse.Button
	switch rest[0] {
	case "up":
		button = mouse.ButtonWheelUp
	case "down":
		button = mouse.ButtonWheelDown
	default:
		return fmt.Errorf("wheel direction must be up or down, got %q", rest[0])
	}
	steps := 1
	if len(rest) == 2 {
		if steps, err = strconv.Atoi(rest[1]); err != nil || steps < 1 {
			return fmt.Errorf("invalid step count %q", rest[1])
		}
	}
	for i := 0; i < steps; i++ {
		c.ed.HandleMouse(mouse.Event{X: float32(p.X), Y: float32(p.Y), Button: button, Direction: mouse.DirPress})
	}
	c.printTransform()
	return nil
}

func (c *interactiveCmd) cmdStyle(args []string) error {
	if len(args) == 0 {
		st := c.ed.Style()
		fmt.Fprintf(c.stdout, "stroke=%s width=%g fill=%s\n", st.StrokeColor, st.StrokeWidth, st.FillColor)
		return nil
	}
	var patch annotation.StylePatch
	for _, a := range args {
		k, v, ok := strings.Cut(a, "=")
		if !ok {
			return fmt.Errorf("expected key=value, got %q", a)
		}
		if v == "" {
			return fmt.Errorf("empty value for %s", k)
		}
		switch k {
		case "stroke":
			patch.StrokeColor = &v
		case "fill":
			patch.FillColor = &v
		case "width":
			w, err := strconv.ParseFloat(v, 64)
			if err != nil || !(w > 0) {
				return fmt.Errorf("invalid width %q", v)
			}
			patch.StrokeWidth = &w
		default:
			return fmt.Errorf("unknown style key %q", k)
		}
	}
	c.ed.SetStyle(patch)
	return nil
}

func (c *interactiveCmd) list() {
	sel, _ := c.ed.Selection()
	anns := c.ed.Annotations()
	if len(anns) == 0 {
		fmt.Fprintln(c.stdout, "no annotations")
		return
	}
	for _, a := range anns {
		mark := " "
		if a.ID == sel.ID {
			mark = "*"
		}
		fmt.Fprintf(c.stdout, "%s %s\n", mark, describeAnnotation(a))
	}
}

func (c *interactiveCmd) printDraft() {
	d, ok := c.ed.Draft()
	if !ok {
		fmt.Fprintln(c.stdout, "no draft")
		return
	}
	if d.Kind == annotation.KindPolygon {
		fmt.Fprintf(c.stdout, "draft %s %d vertices\n", d.Kind, len(d.Points))
		return
	}
	fmt.Fprintf(c.stdout, "draft %s %g,%g -> %g,%g\n", d.Kind, d.Anchor.X, d.Anchor.Y, d.Current.X, d.Current.Y)
}

func (c *interactiveCmd) printTransform() {
	t := c.ed.Viewport().Transform()
	fmt.Fprintf(c.stdout, "scale=%g translate=%g,%g\n", t.Scale, t.Translate.X, t.Translate.Y)
}

func (c *interactiveCmd) cmdSelect(args []string) error {
	if len(args) != 1 {
		return errArgs
	}
	if !c.ed.Select(args[0]) {
		return fmt.Errorf("no annotation %q", args[0])
	}
	return nil
}

func (c *interactiveCmd) cmdDelete(args []string) error {
	switch len(args) {
	case 0:
		sel, ok := c.ed.Selection()
		if !ok {
			return fmt.Errorf("nothing selected")
		}
		c.ed.Delete(sel.ID)
	case 1:
		if !c.ed.Delete(args[0]) {
			fmt.Fprintf(c.stdout, "no annotation %q\n", args[0])
		}
	default:
		return errArgs
	}
	return nil
}

func (c *interactiveCmd) cmdExport(args []string) error {
	if len(args) > 1 {
		return errArgs
	}
	data, err := c.ed.ExportJSON()
	if err != nil {
		return err
	}
	if len(args) == 0 {
		fmt.Fprintln(c.stdout, string(data))
		return nil
	}
	if err := appstate.WriteFile(args[0], data); err != nil {
		return err
	}
	n := len(c.ed.Annotations())
	fmt.Fprintf(c.stdout, "exported %d annotations to %s\n", n, args[0])
	c.notifyExport(args[0], n, nil)
	return nil
}

func (c *interactiveCmd) cmdImport(args []string) error {
	if len(args) != 1 {
		return errArgs
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	if err := c.ed.Import(data); err != nil {
		return err
	}
	c.notifyImport(args[0], len(c.ed.Annotations()))
	return nil
}

func (c *interactiveCmd) cmdCopy() error {
	data, err := c.ed.ExportJSON()
	if err != nil {
		return err
	}
	if err := clipboard.WriteJSON(data); err != nil {
		return err
	}
	c.notifyCopy(fmt.Sprintf("%d annotations", len(c.ed.Annotations())))
	return nil
}

func (c *interactiveCmd) cmdPaste() error {
	data, err := clipboard.ReadJSON()
	if err != nil {
		return err
	}
	if err := c.ed.Import(data); err != nil {
		return err
	}
	c.notifyImport("", len(c.ed.Annotations()))
	return nil
}
