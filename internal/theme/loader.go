package theme

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrNotFound is returned when no search location holds the named theme.
var ErrNotFound = errors.New("theme not found")

const ext = ".theme"

// Loader resolves theme names against a list of directories and the themes
// built into the binary. Directories are searched first, in order, so a user
// file can replace a built-in theme of the same name.
type Loader struct {
	Dirs []string
}

// NewLoader searches ANNOTATOR_THEME_PATH, then the user config directory,
// then the system share directory.
func NewLoader() *Loader {
	var dirs []string
	if env := os.Getenv("ANNOTATOR_THEME_PATH"); env != "" {
		dirs = append(dirs, filepath.SplitList(env)...)
	}
	if cfg, err := os.UserConfigDir(); err == nil {
		dirs = append(dirs, filepath.Join(cfg, "annotator", "themes"))
	}
	dirs = append(dirs, "/usr/share/annotator/themes")
	return &Loader{Dirs: dirs}
}

// Load returns the theme called name. A name containing a path separator or
// ending in .theme is read as a file. An empty name is the default theme.
func (l *Loader) Load(name string) (*Theme, error) {
	if name == "" {
		return Default(), nil
	}
	if strings.ContainsRune(name, filepath.Separator) || strings.HasSuffix(name, ext) {
		if t, err := parseFile(os.DirFS(filepath.Dir(name)), filepath.Base(name)); !errors.Is(err, fs.ErrNotExist) {
			return t, err
		}
	}
	file := strings.TrimSuffix(filepath.Base(name), ext) + ext
	for _, dir := range l.Dirs {
		t, err := parseFile(os.DirFS(dir), file)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Join(dir, file), err)
		}
		return t, nil
	}
	t, err := parseFile(EmbeddedThemes, "defaults/"+file)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return t, err
}

// Names lists every theme name the loader can resolve, sorted.
func (l *Loader) Names() []string {
	seen := map[string]bool{}
	add := func(fsys fs.FS, pattern string) {
		matches, _ := fs.Glob(fsys, pattern)
		for _, m := range matches {
			seen[strings.TrimSuffix(filepath.Base(m), ext)] = true
		}
	}
	add(EmbeddedThemes, "defaults/*"+ext)
	for _, dir := range l.Dirs {
		add(os.DirFS(dir), "*"+ext)
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func parseFile(fsys fs.FS, name string) (*Theme, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}
