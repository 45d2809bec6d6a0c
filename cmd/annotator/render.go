package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/example/annotator/internal/annotation"
	"github.com/example/annotator/internal/appstate"
	"github.com/example/annotator/internal/overlay"
)

// decodeFile reads and validates an annotation document.
func decodeFile(path string, defaults annotation.Style) (annotation.Decoded, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return annotation.Decoded{}, err
	}
	return annotation.Decode(data, defaults, uuid.NewString)
}

type renderCmd struct {
	*root
	fs          *flag.FlagSet
	image       string
	annotations string
	output      string
	shadow      bool
	stdout      io.Writer
}

func parseRenderCmd(args []string, r *root) (*renderCmd, error) {
	fs := flag.NewFlagSet("render", flag.ExitOnError)
	c := &renderCmd{root: r.subcommand("render"), fs: fs, stdout: os.Stdout}
	fs.Usage = usageFunc(c)
	fs.StringVar(&c.image, "image", "", "base image (defaults to the image recorded in the document)")
	fs.StringVar(&c.annotations, "annotations", "", "annotation document to draw")
	fs.StringVar(&c.output, "output", "", "PNG file to write (default IMAGE.annotated.png)")
	fs.BoolVar(&c.shadow, "shadow", false, "add a drop shadow around the rendered image")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if c.annotations == "" && fs.NArg() > 0 {
		c.annotations = fs.Arg(0)
	}
	if c.annotations == "" {
		return nil, &UsageError{of: c}
	}
	return c, nil
}

func (c *renderCmd) FlagSet() *flag.FlagSet {
	return c.fs
}

// imagePath picks the base image: the flag, else the document's image
// reference resolved against the document's directory.
func (c *renderCmd) imagePath(doc annotation.Decoded) (string, error) {
	if c.image != "" {
		return c.image, nil
	}
	if doc.Image == nil || *doc.Image == "" {
		return "", fmt.Errorf("%s does not name an image; pass -image", c.annotations)
	}
	ref := *doc.Image
	if !filepath.IsAbs(ref) {
		if _, err := os.Stat(ref); err != nil {
			ref = filepath.Join(filepath.Dir(c.annotations), ref)
		}
	}
	return ref, nil
}

func (c *renderCmd) Run() error {
	doc, err := decodeFile(c.annotations, c.config.Style())
	if err != nil {
		return fmt.Errorf("failed to read annotations: %w", err)
	}
	path, err := c.imagePath(doc)
	if err != nil {
		return err
	}
	img, err := appstate.LoadImage(path)
	if err != nil {
		return fmt.Errorf("failed to load image: %w", err)
	}
	out := c.output
	if out == "" {
		out = strings.TrimSuffix(path, filepath.Ext(path)) + ".annotated.png"
	}
	flat := overlay.Flatten(img, doc.Annotations)
	if c.shadow {
		flat, _ = overlay.WithShadow(flat, overlay.DefaultShadow())
	}
	if err := appstate.SavePNG(out, flat); err != nil {
		return fmt.Errorf("failed to save image: %w", err)
	}
	fmt.Fprintf(c.stdout, "rendered %d annotations to %s\n", len(doc.Annotations), out)
	c.notifyExport(out, len(doc.Annotations), flat)
	return nil
}

type validateCmd struct {
	*root
	fs     *flag.FlagSet
	files  []string
	stdout io.Writer
}

func parseValidateCmd(args []string, r *root) (*validateCmd, error) {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	c := &validateCmd{root: r.subcommand("validate"), fs: fs, stdout: os.Stdout}
	fs.Usage = usageFunc(c)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	c.files = fs.Args()
	if len(c.files) == 0 {
		return nil, &UsageError{of: c}
	}
	return c, nil
}

func (c *validateCmd) FlagSet() *flag.FlagSet {
	return c.fs
}

func (c *validateCmd) Run() error {
	failed := 0
	for _, path := range c.files {
		doc, err := decodeFile(path, c.config.Style())
		if err != nil {
			failed++
			fmt.Fprintf(c.stdout, "%s: %v\n", path, err)
			continue
		}
		noun := "annotations"
		if len(doc.Annotations) == 1 {
			noun = "annotation"
		}
		line := fmt.Sprintf("%s: ok, %d %s", path, len(doc.Annotations), noun)
		if s := kindSummary(doc.Annotations); s != "" {
			line += " (" + s + ")"
		}
		fmt.Fprintln(c.stdout, line)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d documents invalid", failed, len(c.files))
	}
	return nil
}
