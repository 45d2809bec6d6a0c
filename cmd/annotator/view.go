package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/example/annotator/internal/appstate"
	"github.com/example/annotator/internal/tool"
)

type viewCmd struct {
	*root
	fs          *flag.FlagSet
	image       string
	annotations string
	output      string
	toolName    string
	events      bool
}

func parseViewCmd(args []string, r *root) (*viewCmd, error) {
	fs := flag.NewFlagSet("view", flag.ExitOnError)
	v := &viewCmd{root: r.subcommand("view"), fs: fs}
	fs.Usage = usageFunc(v)
	fs.StringVar(&v.image, "image", "", "image file to annotate")
	fs.StringVar(&v.annotations, "annotations", "", "annotation document to load (defaults to the output file when it exists)")
	fs.StringVar(&v.output, "output", "", "file written by Ctrl+S (default IMAGE.annotations.json)")
	fs.StringVar(&v.toolName, "tool", "pan", "tool active at start (pan, select, rect, ellipse, polygon, text)")
	fs.BoolVar(&v.events, "events", false, "print editor events to stdout")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if v.image == "" && fs.NArg() > 0 {
		v.image = fs.Arg(0)
	}
	if v.image == "" {
		return nil, &UsageError{of: v}
	}
	if _, err := tool.ParseMode(v.toolName); err != nil {
		return nil, err
	}
	return v, nil
}

func (v *viewCmd) FlagSet() *flag.FlagSet {
	return v.fs
}

func (v *viewCmd) Run() error {
	img, err := appstate.LoadImage(v.image)
	if err != nil {
		return fmt.Errorf("failed to load image: %w", err)
	}
	mode, err := tool.ParseMode(v.toolName)
	if err != nil {
		return err
	}
	output := v.output
	if output == "" {
		output = appstate.DefaultOutput(v.image, v.config.SaveDir)
	}

	opts := []appstate.Option{
		appstate.WithImage(img, v.image),
		appstate.WithOutput(output),
		appstate.WithConfig(v.config),
		appstate.WithTheme(v.activeTheme),
		appstate.WithTool(mode),
		appstate.WithNotifier(v.notifier),
	}

	docPath := v.annotations
	if docPath == "" {
		docPath = output
	}
	data, err := os.ReadFile(docPath)
	switch {
	case err == nil:
		opts = append(opts, appstate.WithDocument(data))
	case v.annotations != "" || !errors.Is(err, os.ErrNotExist):
		return fmt.Errorf("failed to read annotations: %w", err)
	}

	if v.events {
		opts = append(opts, appstate.WithEventListener(eventPrinter(os.Stdout)))
	}
	appstate.New(opts...).Run()
	return nil
}
