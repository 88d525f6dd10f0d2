package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/mattn/go-isatty"

	mindmap2pdf "github.com/alnah/go-mindmap2pdf"
	"github.com/alnah/go-mindmap2pdf/internal/config"
)

// Exporter is the part of *mindmap2pdf.Exporter the commands use.
type Exporter interface {
	Export(ctx context.Context, job mindmap2pdf.Job) (*mindmap2pdf.Result, error)
	Close() error
}

// Compile-time interface implementation check.
var _ Exporter = (*mindmap2pdf.Exporter)(nil)

// ExporterFunc creates an exporter for a resolved configuration.
type ExporterFunc func(cfg *config.Config, logger *slog.Logger, opts ...mindmap2pdf.Option) (Exporter, error)

// Environment holds injectable dependencies for testability.
type Environment struct {
	Now         func() time.Time
	Stdout      io.Writer
	Stderr      io.Writer
	Interactive bool // Stderr is a terminal: spinners, progress and colour
	NewExporter ExporterFunc
}

// DefaultEnv returns the production environment.
func DefaultEnv() *Environment {
	fd := os.Stderr.Fd()
	return &Environment{
		Now:         time.Now,
		Stdout:      os.Stdout,
		Stderr:      os.Stderr,
		Interactive: isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd),
		NewExporter: newExporter,
	}
}

// newExporter creates a browser-backed exporter sized and launched from cfg.
func newExporter(cfg *config.Config, logger *slog.Logger, opts ...mindmap2pdf.Option) (Exporter, error) {
	base := []mindmap2pdf.Option{
		mindmap2pdf.WithPoolSize(mindmap2pdf.ResolvePoolSize(cfg.Export.Workers)),
		mindmap2pdf.WithBrowser(cfg.BrowserConfig()),
		mindmap2pdf.WithAssetPath(cfg.Assets.BasePath),
		mindmap2pdf.WithLogger(logger),
	}
	return mindmap2pdf.NewExporter(append(base, opts...)...)
}

// newLogger writes text logs to w. Warnings by default, debug with
// --verbose, errors only with --quiet.
func newLogger(w io.Writer, quiet, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	switch {
	case quiet:
		level = slog.LevelError
	case verbose:
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
