package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	mindmap2pdf "github.com/alnah/go-mindmap2pdf"
	"github.com/alnah/go-mindmap2pdf/internal/assets"
	"github.com/alnah/go-mindmap2pdf/internal/config"
	"github.com/alnah/go-mindmap2pdf/internal/mindmap"
)

// ErrReadOutline indicates the markdown outline could not be read.
var ErrReadOutline = errors.New("failed to read outline")

// runBuildCmd writes a mind-map HTML document from a markdown outline and,
// with --export, exports it next to the document.
func runBuildCmd(ctx context.Context, args []string, env *Environment) error {
	flags, positional, err := parseBuildFlags(args, env.Stderr)
	if err != nil {
		return err
	}
	switch len(positional) {
	case 0:
		return fmt.Errorf("%w: build needs a markdown outline", ErrNoInput)
	case 1:
	default:
		return fmt.Errorf("%w: build takes one outline, got %d", ErrUsage, len(positional))
	}
	input := positional[0]

	cfg, err := resolveConfig(flags.common.config)
	if err != nil {
		return err
	}
	if err := applyJobFlags(&flags.job, cfg); err != nil {
		return err
	}

	outline, err := os.ReadFile(input) // #nosec G304 -- input path is user-provided
	if err != nil {
		return fmt.Errorf("%w: %w", ErrReadOutline, err)
	}

	output := flags.output
	if output == "" {
		output = strings.TrimSuffix(input, filepath.Ext(input)) + ".html"
	}
	document := exportTarget{
		Source: output,
		Output: strings.TrimSuffix(output, filepath.Ext(output)) + ".pdf",
	}
	if err := createOutputDirs([]exportTarget{document}); err != nil {
		return err
	}

	builder, err := newBuilder(cfg)
	if err != nil {
		return err
	}

	p := newProgress(env, 1, "building "+filepath.Base(input), flags.common.quiet)
	doc, err := builder.BuildFile(ctx, outline, output, flags.title)
	if err != nil {
		p.Stop()
		return err
	}
	printBuilt := func() {
		if flags.common.quiet {
			return
		}
		if flags.common.verbose {
			fmt.Fprintf(env.Stdout, "%s -> %s (%q, %d nodes)\n", input, output, doc.Title, doc.Root.Count())
		} else {
			fmt.Fprintf(env.Stdout, "Created %s\n", output)
		}
	}
	if !flags.export {
		p.Stop()
		printBuilt()
		return nil
	}

	logger := newLogger(env.Stderr, flags.common.quiet, flags.common.verbose)
	exp, err := env.NewExporter(cfg, logger)
	if err != nil {
		p.Stop()
		printBuilt()
		return err
	}
	defer func() {
		if err := exp.Close(); err != nil {
			logger.Warn("closing exporter", "error", err)
		}
	}()

	results := exportBatch(ctx, exp, cfg, []exportTarget{document}, 1, p)
	printBuilt()
	return reportResults(results, flags.common, env)
}

// newBuilder creates the document builder from the mindmap and assets config.
func newBuilder(cfg *config.Config) (*mindmap.Builder, error) {
	resolver, err := assets.NewAssetResolver(cfg.Assets.BasePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", mindmap2pdf.ErrInvalidAssetPath, err)
	}
	return mindmap.NewBuilder(resolver, mindmap.Options{
		Template: cfg.Mindmap.Template,
		Title:    cfg.Mindmap.Title,
		Lang:     cfg.Mindmap.Lang,
		D3URL:    cfg.Mindmap.D3URL,
		ViewURL:  cfg.Mindmap.ViewURL,
		Duration: cfg.Mindmap.Duration,
		MaxWidth: cfg.Mindmap.MaxWidth,
	})
}
