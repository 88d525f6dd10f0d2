package mindmap2pdf

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alnah/go-mindmap2pdf/internal/fileutil"
)

// navigate applies the initial viewport and loads the job source.
// It returns once the load event fired and the network stayed idle for
// job.Settle.Idle, bounded by job.NavigationTimeout.
func navigate(ctx context.Context, t tab, job Job) error {
	url, err := fileutil.SourceURL(job.Source)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSourceUnreachable, err)
	}

	if err := t.SetViewport(ctx, job.Viewport.Width, job.Viewport.Height, job.Viewport.Scale); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: setting viewport: %v", ErrSourceUnreachable, err)
	}

	navCtx, cancel := context.WithTimeout(ctx, job.NavigationTimeout)
	defer cancel()

	if err := t.Navigate(navCtx, url, job.Settle.Idle); err != nil {
		return navigationError(ctx, navCtx, err)
	}
	return nil
}

// navigationError classifies a navigation failure.
// Caller cancellation is returned as is; any deadline is a navigation timeout.
func navigationError(parent, nav context.Context, err error) error {
	if errors.Is(parent.Err(), context.Canceled) {
		return parent.Err()
	}
	if nav.Err() != nil || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrNavigationTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrSourceUnreachable, err)
}

// settle waits until the layout library has finished laying out the diagram.
func settle(ctx context.Context, t tab, job Job, logger *slog.Logger) error {
	if job.Settle.Mode == SettleFixed {
		return sleepContext(ctx, job.Settle.Delay)
	}
	return settleStable(ctx, t, job, logger)
}

// settleStable samples the content geometry every Interval and returns once two
// consecutive samples match and at least Delay has passed since the first
// sample. Layout libraries may insert the content group well after the
// network goes idle, so two "no content" samples alone do not end settling.
// After MaxAttempts samples, and no earlier than Delay, it gives up waiting
// and lets the export proceed with whatever is on the page.
func settleStable(ctx context.Context, t tab, job Job, logger *slog.Logger) error {
	start := time.Now()
	var prev Measurement
	for attempt := 1; ; attempt++ {
		m, err := measure(ctx, t, job.Selectors)
		if err != nil {
			return err
		}

		waited := time.Since(start) >= job.Settle.Delay
		if attempt > 1 && m == prev && waited {
			logger.Debug("layout settled", "attempts", attempt, "found", m.Found)
			return nil
		}
		if attempt >= job.Settle.MaxAttempts && waited {
			logger.Warn("layout still changing, exporting anyway",
				"attempts", attempt,
				"interval", job.Settle.Interval)
			return nil
		}
		prev = m

		if err := sleepContext(ctx, job.Settle.Interval); err != nil {
			return err
		}
	}
}

// sleepContext pauses for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
