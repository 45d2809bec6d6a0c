package main

import (
	"errors"
	"flag"
	"fmt"
	"image"
	"os"
	"strings"

	"github.com/example/annotator/internal/config"
	"github.com/example/annotator/internal/notify"
	"github.com/example/annotator/internal/theme"
)

var (
	version            = "dev"
	commit             = ""
	date               = ""
	configPathOverride = ""
)

type runnable interface{ Run() error }

type root struct {
	fs           *flag.FlagSet
	program      string
	notifier     *notify.Notifier
	config       *config.Config
	exportAlerts bool
	importAlerts bool
	copyAlerts   bool
	themeName    string
	activeTheme  *theme.Theme
}

func (r *root) Program() string {
	return r.program
}

func (r *root) subcommand(name string) *root {
	program := strings.TrimSpace(strings.Join([]string{r.program, name}, " "))
	return &root{
		program:      program,
		notifier:     r.notifier,
		config:       r.config,
		exportAlerts: r.exportAlerts,
		importAlerts: r.importAlerts,
		copyAlerts:   r.copyAlerts,
		themeName:    r.themeName,
		activeTheme:  r.activeTheme,
	}
}

func (r *root) FlagSet() *flag.FlagSet {
	return r.fs
}

func newRoot() *root {
	prefs := notify.LoadPreferences()
	loader := config.NewLoader(version, configPathOverride)
	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to load config: %v\n", err)
		cfg = config.New()
	}

	r := &root{
		fs:       flag.NewFlagSet("annotator", flag.ExitOnError),
		program:  "annotator",
		notifier: notify.New(prefs),
		config:   cfg,
	}
	r.fs.BoolVar(&r.exportAlerts, "notify-export", cfg.Notify.Export, "show a desktop notification after exporting annotations")
	r.fs.BoolVar(&r.importAlerts, "notify-import", cfg.Notify.Import, "show a desktop notification after importing annotations")
	r.fs.BoolVar(&r.copyAlerts, "notify-copy", cfg.Notify.Copy, "show a desktop notification after copying to the clipboard")

	// Precedence: CLI > Env > Config > Default. An empty flag falls through
	// in resolveTheme.
	r.fs.StringVar(&r.themeName, "theme", "", "color theme to use (light, dark, high-contrast or a .theme file)")
	r.fs.Usage = usageFunc(r)
	return r
}

// resolveTheme picks the window theme from the flag, ANNOTATOR_THEME, the
// config file and finally the built-in default.
func (r *root) resolveTheme() *theme.Theme {
	name := r.themeName
	if name == "" {
		name = os.Getenv("ANNOTATOR_THEME")
	}
	if name == "" {
		name = r.config.Theme
	}
	if t, ok := r.config.Themes[name]; ok {
		return t
	}
	loader := theme.NewLoader()
	t, err := loader.Load(name)
	if err != nil {
		switch {
		case name == "" || name == "default":
		case errors.Is(err, theme.ErrNotFound):
			fmt.Fprintf(os.Stderr, "warning: unknown theme %q (available: %s). using default.\n", name, strings.Join(loader.Names(), ", "))
		default:
			fmt.Fprintf(os.Stderr, "warning: failed to load theme %q: %v. using default.\n", name, err)
		}
		return theme.Default()
	}
	return t
}

func (r *root) Run(args []string) error {
	if err := r.fs.Parse(args); err != nil {
		return err
	}
	if r.fs.NArg() < 1 {
		return &UsageError{of: r}
	}
	if r.notifier != nil {
		r.notifier.Enable(notify.EventExport, r.exportAlerts)
		r.notifier.Enable(notify.EventImport, r.importAlerts)
		r.notifier.Enable(notify.EventCopy, r.copyAlerts)
	}
	r.activeTheme = r.resolveTheme()

	cmdName := r.fs.Arg(0)
	subArgs := r.fs.Args()[1:]

	var (
		cmd runnable
		err error
	)
	switch cmdName {
	case "view":
		cmd, err = parseViewCmd(subArgs, r)
	case "render":
		cmd, err = parseRenderCmd(subArgs, r)
	case "validate":
		cmd, err = parseValidateCmd(subArgs, r)
	case "interactive":
		cmd, err = parseInteractiveCmd(subArgs, r)
	case "config":
		cmd, err = parseConfigCmd(subArgs, r)
	case "version":
		cmd = &versionCmd{r: r}
	default:
		err = &UsageError{of: r}
	}
	if err != nil {
		return err
	}
	return cmd.Run()
}

func main() {
	r := newRoot()
	if err := r.Run(os.Args[1:]); err != nil {
		var uerr *UsageError
		if errors.As(err, &uerr) {
			fmt.Fprintln(os.Stderr, uerr.Error())
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (r *root) notifyExport(path string, count int, preview image.Image) {
	if r == nil || r.notifier == nil {
		return
	}
	r.notifier.Export(path, count, preview)
}

func (r *root) notifyImport(path string, count int) {
	if r == nil || r.notifier == nil {
		return
	}
	r.notifier.Import(path, count)
}

func (r *root) notifyCopy(detail string) {
	if r == nil || r.notifier == nil {
		return
	}
	r.notifier.Copy(detail)
}
