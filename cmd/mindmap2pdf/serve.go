package main

import (
	"context"
	"fmt"
	"os"

	mindmap2pdf "github.com/alnah/go-mindmap2pdf"
	"github.com/alnah/go-mindmap2pdf/internal/config"
	"github.com/alnah/go-mindmap2pdf/internal/metrics"
	"github.com/alnah/go-mindmap2pdf/internal/server"
)

// statsReporter is implemented by exporters that can report pool usage.
type statsReporter interface {
	Stats() mindmap2pdf.PoolStats
}

// runServeCmd serves the HTTP API until ctx is canceled.
func runServeCmd(ctx context.Context, args []string, env *Environment) error {
	flags, positional, err := parseServeFlags(args, env.Stderr)
	if err != nil {
		return err
	}
	if len(positional) > 0 {
		return fmt.Errorf("%w: serve takes no arguments, got %d", ErrUsage, len(positional))
	}

	cfg, err := resolveConfig(flags.common.config)
	if err != nil {
		return err
	}
	mergeServeFlags(flags, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.Server.OutputDir, dirPermissions); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrCreateOutputDir, cfg.Server.OutputDir, err)
	}

	logger := newLogger(env.Stderr, flags.common.quiet, flags.common.verbose)

	// The pool gauges read the exporter, which needs the metrics as observer.
	var exp Exporter
	m := metrics.New(func() mindmap2pdf.PoolStats {
		if r, ok := exp.(statsReporter); ok {
			return r.Stats()
		}
		return mindmap2pdf.PoolStats{}
	})
	exp, err = env.NewExporter(cfg, logger, mindmap2pdf.WithObserver(m))
	if err != nil {
		return err
	}
	defer func() {
		if err := exp.Close(); err != nil {
			logger.Warn("closing exporter", "error", err)
		}
	}()

	builder, err := newBuilder(cfg)
	if err != nil {
		return err
	}

	srv, err := server.New(server.Config{
		OutputDir:    cfg.Server.OutputDir,
		BaseURL:      cfg.Server.BaseURL,
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
		NewJob:       cfg.Job,
	}, exp,
		server.WithLogger(logger),
		server.WithMetrics(m),
		server.WithBuilder(builder),
	)
	if err != nil {
		return err
	}

	if !flags.common.quiet {
		fmt.Fprintf(env.Stderr, "Serving on http://%s (files in %s)\n", cfg.Server.Addr, cfg.Server.OutputDir)
	}
	return srv.Run(ctx, cfg.Server.Addr, cfg.Server.ReadTimeout.Std(), cfg.Server.WriteTimeout.Std())
}

// mergeServeFlags applies explicitly set serve flags. The output directory
// falls back to export.outputDir, then to "output".
func mergeServeFlags(f *serveFlags, cfg *config.Config) {
	if f.addr != "" {
		cfg.Server.Addr = f.addr
	}
	if f.outputDir != "" {
		cfg.Server.OutputDir = f.outputDir
	}
	if cfg.Server.OutputDir == "" {
		cfg.Server.OutputDir = cfg.Export.OutputDir
	}
	if cfg.Server.OutputDir == "" {
		cfg.Server.OutputDir = defaultServeOutputDir
	}
	if f.baseURL != "" {
		cfg.Server.BaseURL = f.baseURL
	}
	if f.workers > 0 {
		cfg.Export.Workers = f.workers
	}
	if f.noSandbox {
		cfg.Browser.NoSandbox = true
	}
}

// defaultServeOutputDir is used when neither flags nor config name one.
const defaultServeOutputDir = "output"
