package mindmap2pdf

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/alnah/go-mindmap2pdf/internal/assets"
)

// Compile-time interface implementation checks.
var (
	_ pdfVerifier = pdfcpuVerifier{}
	_ themeLoader = (*assets.AssetResolver)(nil)
	_ Observer    = nopObserver{}
)

// themeLoader resolves a theme name to CSS.
type themeLoader interface {
	LoadTheme(name string) (string, error)
	Themes() []string
}

// Observer is notified once per job, on success and on failure.
type Observer interface {
	ObserveExport(r Report)
}

// Report summarizes one finished job.
type Report struct {
	JobID    string
	Strategy Strategy
	Canvas   Canvas
	Stage    Stage // failing stage, empty on success
	Err      error
	Duration time.Duration
	Stages   map[Stage]time.Duration
}

type nopObserver struct{}

func (nopObserver) ObserveExport(Report) {}

// Job lifecycle states, logged on every transition.
const (
	stateCreated         = "created"
	stateSessionAcquired = "session_acquired"
	stateNavigated       = "navigated"
	stateSettled         = "settled"
	stateMeasured        = "measured"
	stateNormalized      = "normalized"
	stateRendered        = "rendered"
	stateReleased        = "released"
	stateFailed          = "failed"
)

// Exporter turns diagram pages into single-page PDFs.
// Create with NewExporter, call Export for each job, and Close when done.
// Export is safe for concurrent use; concurrency is bounded by the pool.
type Exporter struct {
	cfg      exporterConfig
	pool     *SessionPool
	ownsPool bool
	themes   themeLoader
	verifier pdfVerifier
	logger   *slog.Logger
	observer Observer
	newID    func() string
}

// NewExporter creates an Exporter. Browsers are launched lazily by the first jobs.
// Returns ErrInvalidAssetPath if WithAssetPath names an unusable directory.
func NewExporter(opts ...Option) (*Exporter, error) {
	e := &Exporter{
		verifier: pdfcpuVerifier{},
		logger:   slog.New(slog.DiscardHandler),
		observer: nopObserver{},
		newID:    uuid.NewString,
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.themes == nil {
		resolver, err := assets.NewAssetResolver(e.cfg.assetPath)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidAssetPath, err)
		}
		e.themes = resolver
	}

	if e.pool == nil {
		e.pool = NewSessionPool(ResolvePoolSize(e.cfg.poolSize), e.cfg.browser)
		e.ownsPool = true
	}

	return e, nil
}

// Export runs one job: acquire a session, navigate, settle, measure,
// normalize, render, release. The session is released on every path.
// Fatal errors are *StageError values wrapping one of the package sentinels
// or a context error. Recovers from internal panics.
func (e *Exporter) Export(ctx context.Context, job Job) (result *Result, err error) {
	start := time.Now()
	if job.ID == "" {
		job.ID = e.newID()
	}
	run := newJobRun(job.ID, e.logger)

	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = run.fail(run.stage, fmt.Errorf("internal error: %v", r))
		}
		report := Report{
			JobID:    job.ID,
			Strategy: job.Strategy,
			Stage:    FailedStage(err),
			Err:      err,
			Duration: time.Since(start),
			Stages:   run.timings,
		}
		if result != nil {
			report.Canvas = result.Canvas
		}
		e.observer.ObserveExport(report)
	}()

	run.stage = StageValidate
	if err := job.Validate(); err != nil {
		return nil, run.fail(StageValidate, fmt.Errorf("%w: %w", ErrInvalidJob, err))
	}
	if job.Timeout == 0 && e.cfg.timeout > 0 {
		job.Timeout = e.cfg.timeout
	}
	job = job.withDefaults()

	css, err := e.themeCSS(job.Theme)
	if err != nil {
		return nil, run.fail(StageValidate, err)
	}

	ctx, cancel := context.WithTimeout(ctx, job.Timeout)
	defer cancel()

	var sess *pageSession
	if err := run.step(StageAcquire, stateSessionAcquired, func() (err error) {
		sess, err = openSession(ctx, e.pool)
		return err
	}); err != nil {
		return nil, err
	}
	defer func() {
		// result and err are both nil only while a panic unwinds
		panicking := result == nil && err == nil
		if panicking || ctx.Err() != nil || isContextError(err) {
			sess.markBroken()
		}
		if relErr := sess.release(); relErr != nil {
			run.logger.Warn("session teardown failed", "error", relErr)
		}
		run.transition(stateReleased)
	}()

	if err := run.step(StageNavigate, stateNavigated, func() error {
		return navigate(ctx, sess.tab, job)
	}); err != nil {
		return nil, err
	}

	if err := run.step(StageSettle, stateSettled, func() error {
		return settle(ctx, sess.tab, job, run.logger)
	}); err != nil {
		return nil, err
	}

	var m Measurement
	if err := run.step(StageMeasure, stateMeasured, func() (err error) {
		m, err = measure(ctx, sess.tab, job.Selectors)
		return err
	}); err != nil {
		return nil, err
	}
	if !m.Found {
		run.logger.Info("diagram content not found, using fallback canvas",
			"selector", job.Selectors.Content,
			"width", job.Fallback.Width,
			"height", job.Fallback.Height)
	}

	var canvas Canvas
	if err := run.step(StageNormalize, stateNormalized, func() (err error) {
		if err := applyTheme(ctx, sess.tab, css); err != nil {
			return err
		}
		canvas, err = normalizerFor(job.Strategy).normalize(ctx, sess.tab, job, m)
		return err
	}); err != nil {
		return nil, err
	}

	var previewPath string
	if err := run.step(StageRender, stateRendered, func() (err error) {
		previewPath, err = render(ctx, sess.tab, job, canvas, e.verifier)
		return err
	}); err != nil {
		return nil, err
	}

	result = &Result{
		JobID:       job.ID,
		Path:        job.Output,
		PreviewPath: previewPath,
		Canvas:      canvas,
		Measurement: m,
		Strategy:    job.Strategy,
		Duration:    time.Since(start),
	}
	run.logger.Info("exported",
		"output", result.Path,
		"width", canvas.Width,
		"height", canvas.Height,
		"fallback", canvas.Fallback,
		"strategy", job.Strategy,
		"duration", result.Duration)
	return result, nil
}

// Close shuts down the exporter's browsers. A pool passed with WithPool is
// left running for its owner to close.
func (e *Exporter) Close() error {
	if e.ownsPool {
		return e.pool.Close()
	}
	return nil
}

// Stats reports the state of the underlying session pool.
func (e *Exporter) Stats() PoolStats {
	return e.pool.Stats()
}

// Themes lists the theme names jobs may use, besides "none".
func (e *Exporter) Themes() []string {
	return e.themes.Themes()
}

// themeCSS loads the stylesheet for a theme name. "" and "none" disable theming.
func (e *Exporter) themeCSS(name string) (string, error) {
	if name == "" || name == ThemeNone {
		return "", nil
	}
	css, err := e.themes.LoadTheme(name)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidTheme, err)
	}
	return css, nil
}

// jobRun tracks the lifecycle of one Export call.
type jobRun struct {
	id      string
	logger  *slog.Logger
	stage   Stage
	timings map[Stage]time.Duration
}

func newJobRun(id string, logger *slog.Logger) *jobRun {
	r := &jobRun{
		id:      id,
		logger:  logger.With("job", id),
		timings: make(map[Stage]time.Duration, 6),
	}
	r.transition(stateCreated)
	return r
}

// step runs one pipeline stage, records its duration and logs the
// resulting transition.
func (r *jobRun) step(stage Stage, next string, fn func() error) error {
	r.stage = stage
	start := time.Now()
	err := fn()
	r.timings[stage] = time.Since(start)
	if err != nil {
		return r.fail(stage, err)
	}
	r.transition(next)
	return nil
}

func (r *jobRun) transition(state string) {
	r.logger.Debug("job state", "state", state, "stage", r.stage)
}

// fail logs the failure and tags err with its stage.
func (r *jobRun) fail(stage Stage, err error) error {
	r.logger.Debug("job state", "state", stateFailed, "stage", stage, "error", err)
	var se *StageError
	if errors.As(err, &se) {
		return err
	}
	return &StageError{Stage: stage, JobID: r.id, Err: err}
}

func isContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
