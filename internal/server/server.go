// Package server exposes the export pipeline over HTTP.
//
// Routes:
//   - POST /v1/exports   export a remote diagram page to PDF
//   - POST /v1/mindmaps  build a mind-map document from markdown, then export it
//   - GET  /files/*      generated documents
//   - GET  /healthz      liveness and pool usage
//   - GET  /metrics      Prometheus metrics, when configured
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	mindmap2pdf "github.com/alnah/go-mindmap2pdf"
	"github.com/alnah/go-mindmap2pdf/internal/metrics"
	"github.com/alnah/go-mindmap2pdf/internal/mindmap"
)

// Default limits.
const (
	DefaultMaxBodyBytes    = 1 << 20
	DefaultShutdownTimeout = 30 * time.Second
	filesPrefix            = "/files/"
)

// ErrNoOutputDir indicates the server was configured without an output directory.
var ErrNoOutputDir = errors.New("server output directory cannot be empty")

// Exporter runs export jobs.
type Exporter interface {
	Export(ctx context.Context, job mindmap2pdf.Job) (*mindmap2pdf.Result, error)
}

// DocumentBuilder writes mind-map HTML documents from markdown outlines.
type DocumentBuilder interface {
	BuildFile(ctx context.Context, outline []byte, output, title string) (*mindmap.Document, error)
}

// JobFunc creates a job with the configured defaults for source and output.
type JobFunc func(source, output string) mindmap2pdf.Job

// statsReporter is implemented by exporters that can report pool usage.
type statsReporter interface {
	Stats() mindmap2pdf.PoolStats
}

// Config holds the service settings.
type Config struct {
	OutputDir    string  // Where documents are written and served from
	BaseURL      string  // Prefix of returned file URLs, empty = relative
	MaxBodyBytes int64   // Request body cap, 0 = DefaultMaxBodyBytes
	NewJob       JobFunc // nil = mindmap2pdf.NewJob
}

// Server handles export requests.
type Server struct {
	cfg      Config
	exporter Exporter
	builder  DocumentBuilder
	metrics  *metrics.Metrics
	logger   *slog.Logger
	newID    func() string
	router   chi.Router
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request and job logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics records HTTP metrics and serves them on /metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithBuilder enables POST /v1/mindmaps.
func WithBuilder(b DocumentBuilder) Option {
	return func(s *Server) {
		s.builder = b
	}
}

// New creates a Server. The output directory is created on first write.
func New(cfg Config, exporter Exporter, opts ...Option) (*Server, error) {
	if strings.TrimSpace(cfg.OutputDir) == "" {
		return nil, ErrNoOutputDir
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.NewJob == nil {
		cfg.NewJob = mindmap2pdf.NewJob
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	s := &Server{
		cfg:      cfg,
		exporter: exporter,
		logger:   slog.New(slog.DiscardHandler),
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s, nil
}

// Handler returns the HTTP handler with all routes and middleware.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	if s.metrics != nil {
		r.Use(s.metrics.Middleware)
	}
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.AllowContentType("application/json"))
		r.Post("/exports", s.handleExport)
		if s.builder != nil {
			r.Post("/mindmaps", s.handleMindmap)
		}
	})

	files := http.StripPrefix(filesPrefix, http.FileServer(http.Dir(s.cfg.OutputDir)))
	r.Method(http.MethodGet, filesPrefix+"*", files)
	r.Method(http.MethodHead, filesPrefix+"*", files)
	return r
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string, readTimeout, writeTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serving on %s: %w", addr, err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), DefaultShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// fileURL returns the public URL of a file in the output directory.
func (s *Server) fileURL(name string) string {
	return s.cfg.BaseURL + filesPrefix + name
}
