package mindmap2pdf

import (
	"log/slog"
	"time"
)

// Option configures an Exporter.
type Option func(*Exporter)

// exporterConfig holds settings resolved by NewExporter.
type exporterConfig struct {
	timeout   time.Duration // applied to jobs without their own Timeout
	poolSize  int           // 0 = ResolvePoolSize(0)
	browser   BrowserConfig
	assetPath string
}

// WithTimeout sets the timeout of jobs that do not set one.
// Panics if d <= 0 (programmer error, similar to time.NewTicker).
func WithTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("mindmap2pdf: WithTimeout duration must be positive")
	}
	return func(e *Exporter) {
		e.cfg.timeout = d
	}
}

// WithPoolSize sets how many browsers the exporter may run at once.
// Ignored when WithPool is used.
// Panics if n < 1.
func WithPoolSize(n int) Option {
	if n < 1 {
		panic("mindmap2pdf: WithPoolSize must be at least 1")
	}
	return func(e *Exporter) {
		e.cfg.poolSize = n
	}
}

// WithPool shares an existing pool. The exporter does not close it.
func WithPool(p *SessionPool) Option {
	return func(e *Exporter) {
		e.pool = p
	}
}

// WithBrowser configures how the exporter's own pool launches Chrome.
// Ignored when WithPool is used.
func WithBrowser(cfg BrowserConfig) Option {
	return func(e *Exporter) {
		e.cfg.browser = cfg
	}
}

// WithLogger sets the structured logger. Defaults to discarding output.
func WithLogger(l *slog.Logger) Option {
	return func(e *Exporter) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithObserver receives a Report after every job.
func WithObserver(o Observer) Option {
	return func(e *Exporter) {
		if o != nil {
			e.observer = o
		}
	}
}

// WithAssetPath sets a directory whose themes/ override the built-in themes.
func WithAssetPath(path string) Option {
	return func(e *Exporter) {
		e.cfg.assetPath = path
	}
}
