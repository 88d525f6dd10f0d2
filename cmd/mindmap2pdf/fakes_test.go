package main

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	mindmap2pdf "github.com/alnah/go-mindmap2pdf"
	"github.com/alnah/go-mindmap2pdf/internal/config"
)

// fakeExporter records jobs and writes a stub PDF for each one.
type fakeExporter struct {
	mu        sync.Mutex
	jobs      []mindmap2pdf.Job
	errs      map[string]error // by job source
	delay     time.Duration
	active    int
	maxActive int
	closed    bool
}

func newFakeExporter() *fakeExporter {
	return &fakeExporter{errs: map[string]error{}}
}

func (f *fakeExporter) Export(ctx context.Context, job mindmap2pdf.Job) (*mindmap2pdf.Result, error) {
	f.mu.Lock()
	f.jobs = append(f.jobs, job)
	f.active++
	f.maxActive = max(f.maxActive, f.active)
	err := f.errs[job.Source]
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.active--
		f.mu.Unlock()
	}()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, &mindmap2pdf.StageError{Stage: mindmap2pdf.StageNavigate, JobID: "job", Err: err}
	}
	if err := os.WriteFile(job.Output, []byte("%PDF-fake"), 0o600); err != nil {
		return nil, err
	}

	res := &mindmap2pdf.Result{
		JobID:    "job",
		Path:     job.Output,
		Canvas:   mindmap2pdf.Canvas{Width: 620, Height: 420},
		Strategy: job.Strategy,
		Duration: 5 * time.Millisecond,
	}
	if job.Preview != nil {
		res.PreviewPath = job.Preview.Path
	}
	return res, nil
}

func (f *fakeExporter) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeExporter) Stats() mindmap2pdf.PoolStats {
	return mindmap2pdf.PoolStats{Size: 2}
}

func (f *fakeExporter) recorded() []mindmap2pdf.Job {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]mindmap2pdf.Job(nil), f.jobs...)
}

func (f *fakeExporter) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// testEnv is an Environment with captured output and a fake exporter.
type testEnv struct {
	*Environment
	stdout *bytes.Buffer
	stderr *bytes.Buffer
	exp    *fakeExporter

	mu  sync.Mutex
	cfg *config.Config // last config passed to NewExporter
}

func newTestEnv() *testEnv {
	te := &testEnv{
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
		exp:    newFakeExporter(),
	}
	te.Environment = &Environment{
		Now:    time.Now,
		Stdout: te.stdout,
		Stderr: te.stderr,
		NewExporter: func(cfg *config.Config, _ *slog.Logger, _ ...mindmap2pdf.Option) (Exporter, error) {
			te.mu.Lock()
			te.cfg = cfg
			te.mu.Unlock()
			return te.exp, nil
		},
	}
	return te
}

func (te *testEnv) config() *config.Config {
	te.mu.Lock()
	defer te.mu.Unlock()
	return te.cfg
}
