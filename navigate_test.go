package mindmap2pdf

// Notes:
// - navigate: tests URL resolution, viewport setup and failure classification
//   (timeout vs unreachable vs caller cancellation)
// - settle: tests fixed delay and stable sampling (converge, give up, cancel)
// - sleepContext: tests early return on cancellation

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func testJob(source string) Job {
	job := NewJob(source, "out.pdf")
	job.NavigationTimeout = time.Second
	job.Settle.Interval = time.Millisecond
	job.Settle.Delay = time.Millisecond
	job.RefitDelay = time.Millisecond
	return job
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// ---------------------------------------------------------------------------
// TestNavigate - Source Loading
// ---------------------------------------------------------------------------

func TestNavigate(t *testing.T) {
	t.Parallel()

	t.Run("http source", func(t *testing.T) {
		t.Parallel()

		tab := newFakeTab()
		job := testJob("https://example.com/map.html")
		if err := navigate(context.Background(), tab, job); err != nil {
			t.Fatalf("navigate() unexpected error: %v", err)
		}
		if len(tab.urls) != 1 || tab.urls[0] != "https://example.com/map.html" {
			t.Errorf("navigated to %v", tab.urls)
		}
		want := Size{Width: DefaultViewportWidth, Height: DefaultViewportHeight}
		if len(tab.viewports) != 1 || tab.viewports[0] != want {
			t.Errorf("viewports = %v, want [%v]", tab.viewports, want)
		}
		if calls := tab.callLog(); calls[0] != "viewport" {
			t.Errorf("viewport must be set before navigation, calls = %v", calls)
		}
	})

	t.Run("local file becomes file URL", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "map.html")
		if err := os.WriteFile(path, []byte("<svg></svg>"), 0o600); err != nil {
			t.Fatal(err)
		}

		tab := newFakeTab()
		if err := navigate(context.Background(), tab, testJob(path)); err != nil {
			t.Fatalf("navigate() unexpected error: %v", err)
		}
		if !strings.HasPrefix(tab.urls[0], "file://") || !strings.HasSuffix(tab.urls[0], "/map.html") {
			t.Errorf("navigated to %q, want a file URL", tab.urls[0])
		}
	})

	t.Run("missing local file", func(t *testing.T) {
		t.Parallel()

		tab := newFakeTab()
		err := navigate(context.Background(), tab, testJob(filepath.Join(t.TempDir(), "nope.html")))
		if !errors.Is(err, ErrSourceUnreachable) {
			t.Errorf("navigate() error = %v, want ErrSourceUnreachable", err)
		}
		if len(tab.urls) != 0 {
			t.Error("navigated despite an unresolvable source")
		}
	})

	t.Run("load failure is unreachable", func(t *testing.T) {
		t.Parallel()

		tab := &fakeTab{navigateErr: errors.New("net::ERR_NAME_NOT_RESOLVED")}
		err := navigate(context.Background(), tab, testJob("http://nowhere.invalid/"))
		if !errors.Is(err, ErrSourceUnreachable) {
			t.Errorf("navigate() error = %v, want ErrSourceUnreachable", err)
		}
	})

	t.Run("slow load is a navigation timeout", func(t *testing.T) {
		t.Parallel()

		tab := &fakeTab{navigateBlock: true}
		job := testJob("http://slow.example/")
		job.NavigationTimeout = 20 * time.Millisecond

		err := navigate(context.Background(), tab, job)
		if !errors.Is(err, ErrNavigationTimeout) {
			t.Errorf("navigate() error = %v, want ErrNavigationTimeout", err)
		}
	})

	t.Run("caller cancellation passes through", func(t *testing.T) {
		t.Parallel()

		tab := &fakeTab{navigateBlock: true}
		ctx, cancel := context.WithCancel(context.Background())
		time.AfterFunc(20*time.Millisecond, cancel)

		err := navigate(ctx, tab, testJob("http://slow.example/"))
		if !errors.Is(err, context.Canceled) {
			t.Errorf("navigate() error = %v, want context.Canceled", err)
		}
		if errors.Is(err, ErrNavigationTimeout) {
			t.Error("cancellation misreported as a navigation timeout")
		}
	})

	t.Run("viewport failure", func(t *testing.T) {
		t.Parallel()

		tab := &fakeTab{viewportErr: errFake}
		err := navigate(context.Background(), tab, testJob("http://example.com/"))
		if !errors.Is(err, ErrSourceUnreachable) {
			t.Errorf("navigate() error = %v, want ErrSourceUnreachable", err)
		}
	})
}

// ---------------------------------------------------------------------------
// TestSettle - Layout Settling
// ---------------------------------------------------------------------------

func TestSettle(t *testing.T) {
	t.Parallel()

	t.Run("fixed mode does not sample", func(t *testing.T) {
		t.Parallel()

		tab := newFakeTab(found(0, 0, 10, 10))
		job := testJob("x")
		job.Settle.Mode = SettleFixed

		if err := settle(context.Background(), tab, job, discardLogger()); err != nil {
			t.Fatalf("settle() unexpected error: %v", err)
		}
		if tab.measured != 0 {
			t.Errorf("fixed mode measured %d times, want 0", tab.measured)
		}
	})

	t.Run("stable mode stops on matching samples", func(t *testing.T) {
		t.Parallel()

		tab := newFakeTab(found(0, 0, 10, 10), found(0, 0, 200, 90), found(0, 0, 200, 90))
		if err := settle(context.Background(), tab, testJob("x"), discardLogger()); err != nil {
			t.Fatalf("settle() unexpected error: %v", err)
		}
		if tab.measured != 3 {
			t.Errorf("measured %d times, want 3", tab.measured)
		}
	})

	t.Run("stable mode settles on missing content", func(t *testing.T) {
		t.Parallel()

		tab := newFakeTab(Measurement{})
		if err := settle(context.Background(), tab, testJob("x"), discardLogger()); err != nil {
			t.Fatalf("settle() unexpected error: %v", err)
		}
		if tab.measured != 2 {
			t.Errorf("measured %d times, want 2", tab.measured)
		}
	})

	t.Run("stable mode waits out the delay for late content", func(t *testing.T) {
		t.Parallel()

		// Content appears after three empty samples; the empty pairs must
		// not end settling before the delay.
		tab := newFakeTab(Measurement{}, Measurement{}, Measurement{}, found(10, 20, 500, 300))
		job := testJob("x")
		job.Settle.Interval = 5 * time.Millisecond
		job.Settle.Delay = 40 * time.Millisecond

		start := time.Now()
		if err := settle(context.Background(), tab, job, discardLogger()); err != nil {
			t.Fatalf("settle() unexpected error: %v", err)
		}
		if elapsed := time.Since(start); elapsed < job.Settle.Delay {
			t.Errorf("settle() returned after %v, want at least %v", elapsed, job.Settle.Delay)
		}
		if tab.measured < 5 {
			t.Errorf("measured %d times, want the content sampled twice", tab.measured)
		}
	})

	t.Run("stable mode honors the delay before giving up", func(t *testing.T) {
		t.Parallel()

		tab := newFakeTab(found(0, 0, 1, 1), found(0, 0, 2, 2), found(0, 0, 3, 3))
		job := testJob("x")
		job.Settle.MaxAttempts = 2
		job.Settle.Interval = 5 * time.Millisecond
		job.Settle.Delay = 30 * time.Millisecond

		start := time.Now()
		if err := settle(context.Background(), tab, job, discardLogger()); err != nil {
			t.Fatalf("settle() unexpected error: %v", err)
		}
		if elapsed := time.Since(start); elapsed < job.Settle.Delay {
			t.Errorf("settle() gave up after %v, want at least %v", elapsed, job.Settle.Delay)
		}
	})

	t.Run("stable mode gives up after max attempts", func(t *testing.T) {
		t.Parallel()

		tab := newFakeTab(found(0, 0, 1, 1), found(0, 0, 2, 2), found(0, 0, 3, 3), found(0, 0, 4, 4), found(0, 0, 5, 5))
		job := testJob("x")
		job.Settle.MaxAttempts = 4

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))

		if err := settle(context.Background(), tab, job, logger); err != nil {
			t.Fatalf("settle() should proceed after max attempts, got %v", err)
		}
		if tab.measured != 4 {
			t.Errorf("measured %d times, want 4", tab.measured)
		}
		if !strings.Contains(buf.String(), "layout still changing") {
			t.Errorf("expected a warning, log = %q", buf.String())
		}
	})

	t.Run("measure failure aborts", func(t *testing.T) {
		t.Parallel()

		tab := &fakeTab{evalErr: map[string]error{"measure": errFake}}
		err := settle(context.Background(), tab, testJob("x"), discardLogger())
		if !errors.Is(err, ErrMeasure) {
			t.Errorf("settle() error = %v, want ErrMeasure", err)
		}
	})

	t.Run("canceled context", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		job := testJob("x")
		job.Settle.Mode = SettleFixed
		job.Settle.Delay = time.Hour
		if err := settle(ctx, newFakeTab(), job, discardLogger()); !errors.Is(err, context.Canceled) {
			t.Errorf("settle() error = %v, want context.Canceled", err)
		}
	})
}

// ---------------------------------------------------------------------------
// TestSleepContext - Interruptible Sleep
// ---------------------------------------------------------------------------

func TestSleepContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := sleepContext(ctx, time.Minute)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("sleepContext() error = %v, want context.DeadlineExceeded", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Error("sleepContext() ignored cancellation")
	}

	if err := sleepContext(context.Background(), 0); err != nil {
		t.Errorf("sleepContext(0) error = %v, want nil", err)
	}
}
