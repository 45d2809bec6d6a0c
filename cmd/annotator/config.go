package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/example/annotator/internal/config"
)

type configCmd struct {
	*root
	fs     *flag.FlagSet
	path   string
	stdout io.Writer
}

func parseConfigCmd(args []string, r *root) (*configCmd, error) {
	fs := flag.NewFlagSet("config", flag.ExitOnError)
	c := &configCmd{root: r.subcommand("config"), fs: fs, stdout: os.Stdout}
	fs.Usage = usageFunc(c)
	fs.StringVar(&c.path, "file", "", "file written by save (default: the loaded config or "+config.DefaultPath()+")")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *configCmd) FlagSet() *flag.FlagSet {
	return c.fs
}

func (c *configCmd) Run() error {
	args := c.fs.Args()
	if len(args) < 1 {
		return &UsageError{of: c}
	}

	switch args[0] {
	case "print":
		fmt.Fprint(c.stdout, c.config.String())
		return nil
	case "save":
		return c.runSave()
	default:
		return fmt.Errorf("unknown config command: %s", args[0])
	}
}

func (c *configCmd) runSave() error {
	path := c.path
	if path == "" {
		// Prefer the file the settings were loaded from.
		path = config.NewLoader(version, configPathOverride).GetConfigPath()
	}
	if path == "" {
		path = config.DefaultPath()
	}
	if path == "" {
		return fmt.Errorf("failed to determine a config path; pass -file")
	}
	if err := config.Save(c.config, path); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Configuration saved to %s\n", path)
	return nil
}
