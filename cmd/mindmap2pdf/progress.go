package main

import (
	"io"
	"sync"
	"time"

	"github.com/briandowns/spinner"
	"github.com/schollz/progressbar/v3"
)

// progress reports job completion on stderr.
// Implementations are safe for concurrent use.
type progress interface {
	Done()
	Stop()
}

// newProgress picks the indicator for total jobs: a spinner for one job, a
// bar for a batch, and nothing when quiet or stderr is not a terminal.
func newProgress(env *Environment, total int, label string, quiet bool) progress {
	if quiet || !env.Interactive || total < 1 {
		return nopProgress{}
	}
	if total == 1 {
		return newSpinnerProgress(env.Stderr, label)
	}
	return newBarProgress(env.Stderr, total, label)
}

type nopProgress struct{}

func (nopProgress) Done() {}
func (nopProgress) Stop() {}

// spinnerProgress animates while a single job runs.
type spinnerProgress struct {
	s    *spinner.Spinner
	once sync.Once
}

func newSpinnerProgress(w io.Writer, label string) *spinnerProgress {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " " + label
	s.Writer = w
	s.Start()
	return &spinnerProgress{s: s}
}

func (p *spinnerProgress) Done() { p.Stop() }

func (p *spinnerProgress) Stop() {
	p.once.Do(p.s.Stop)
}

// barProgress counts finished jobs of a batch.
type barProgress struct {
	bar  *progressbar.ProgressBar
	once sync.Once
}

func newBarProgress(w io.Writer, total int, label string) *barProgress {
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(label),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "│",
			BarEnd:        "│",
		}),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetRenderBlankState(true),
	)
	return &barProgress{bar: bar}
}

func (p *barProgress) Done() {
	_ = p.bar.Add(1)
}

func (p *barProgress) Stop() {
	p.once.Do(func() { _ = p.bar.Finish() })
}
