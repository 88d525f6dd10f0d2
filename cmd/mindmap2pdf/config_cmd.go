package main

import (
	"fmt"
)

// runConfigCmd prints the effective configuration: defaults, then the config
// file, then MINDMAP2PDF_* variables.
func runConfigCmd(args []string, env *Environment) error {
	flags, positional, err := parseConfigFlags(args, env.Stderr)
	if err != nil {
		return err
	}
	if len(positional) > 0 {
		return fmt.Errorf("%w: config takes no arguments, got %d", ErrUsage, len(positional))
	}

	cfg, err := resolveConfig(flags.config)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	out, err := cfg.YAML()
	if err != nil {
		return fmt.Errorf("rendering config: %w", err)
	}
	_, err = env.Stdout.Write(out)
	return err
}
