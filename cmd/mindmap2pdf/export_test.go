package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	mindmap2pdf "github.com/alnah/go-mindmap2pdf"
	"github.com/alnah/go-mindmap2pdf/internal/config"
	"github.com/alnah/go-mindmap2pdf/internal/fileutil"
)

// ---------------------------------------------------------------------------
// TestOutputName - PDF base names from paths and URLs
// ---------------------------------------------------------------------------

func TestOutputName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		src  string
		want string
	}{
		{"map.html", "map"},
		{filepath.Join("docs", "plan.v2.html"), "plan.v2"},
		{"https://example.com/maps/roadmap.html", "roadmap"},
		{"https://example.com/maps/roadmap", "roadmap"},
		{"https://example.com/", "example"},
		{"https://example.com", "example"},
		{"file:///srv/maps/team.html", "team"},
		{"https://example.com/a.html?x=1#top", "a"},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			t.Parallel()
			if got := outputName(tt.src); got != tt.want {
				t.Errorf("outputName(%q) = %q, want %q", tt.src, got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestResolveTargets - Output path resolution
// ---------------------------------------------------------------------------

func TestResolveTargets(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	a := filepath.Join(dir, "a.html")
	b := filepath.Join(dir, "sub", "b.html")
	dup := filepath.Join(dir, "other", "a.html")
	for _, p := range []string{a, b, dup} {
		if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte("<svg></svg>"), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	out := filepath.Join(dir, "out")
	url := "https://example.com/maps/team.html"

	tests := []struct {
		name      string
		sources   []string
		output    string
		outputDir string
		want      []string
		wantErr   error
	}{
		{"next to source", []string{a, b}, "", "", []string{filepath.Join(dir, "a.pdf"), filepath.Join(dir, "sub", "b.pdf")}, nil},
		{"explicit file", []string{a}, filepath.Join(out, "x.PDF"), "", []string{filepath.Join(out, "x.PDF")}, nil},
		{"output directory", []string{a, b}, out, "", []string{filepath.Join(out, "a.pdf"), filepath.Join(out, "b.pdf")}, nil},
		{"config directory", []string{a}, "", out, []string{filepath.Join(out, "a.pdf")}, nil},
		{"flag beats config", []string{a}, out, filepath.Join(dir, "cfg"), []string{filepath.Join(out, "a.pdf")}, nil},
		{"url to cwd", []string{url}, "", "", []string{"team.pdf"}, nil},
		{"url to directory", []string{url}, out, "", []string{filepath.Join(out, "team.pdf")}, nil},
		{"file output with many sources", []string{a, b}, filepath.Join(out, "x.pdf"), "", nil, ErrUsage},
		{"duplicate outputs", []string{a, dup}, out, "", nil, ErrDuplicateOutput},
		{"missing source", []string{filepath.Join(dir, "nope.html")}, "", "", nil, fileutil.ErrSourceNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			targets, err := resolveTargets(tt.sources, tt.output, tt.outputDir)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(targets) != len(tt.want) {
				t.Fatalf("got %d targets, want %d", len(targets), len(tt.want))
			}
			for i, target := range targets {
				if target.Source != tt.sources[i] {
					t.Errorf("targets[%d].Source = %q, want %q", i, target.Source, tt.sources[i])
				}
				if target.Output != tt.want[i] {
					t.Errorf("targets[%d].Output = %q, want %q", i, target.Output, tt.want[i])
				}
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestExportBatch - Bounded concurrency and ordering
// ---------------------------------------------------------------------------

func TestExportBatch(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	var targets []exportTarget
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		targets = append(targets, exportTarget{
			Source: "https://example.com/" + name + ".html",
			Output: filepath.Join(dir, name+".pdf"),
		})
	}
	exp := newFakeExporter()
	exp.delay = 20 * time.Millisecond
	exp.errs[targets[2].Source] = mindmap2pdf.ErrSourceUnreachable

	results := exportBatch(context.Background(), exp, config.DefaultConfig(), targets, 2, nopProgress{})

	if len(results) != len(targets) {
		t.Fatalf("got %d results, want %d", len(results), len(targets))
	}
	for i, r := range results {
		if r.Source != targets[i].Source {
			t.Errorf("results[%d].Source = %q, want %q", i, r.Source, targets[i].Source)
		}
		if i == 2 {
			if !errors.Is(r.Err, mindmap2pdf.ErrSourceUnreachable) {
				t.Errorf("results[2].Err = %v, want ErrSourceUnreachable", r.Err)
			}
			continue
		}
		if r.Err != nil || r.Result == nil {
			t.Errorf("results[%d] = %+v, want success", i, r)
		}
	}
	if exp.maxActive > 2 {
		t.Errorf("max concurrent jobs = %d, want <= 2", exp.maxActive)
	}
	if len(exp.recorded()) != len(targets) {
		t.Errorf("ran %d jobs, want %d", len(exp.recorded()), len(targets))
	}
}

func TestExportBatch_Canceled(t *testing.T) {
	t.Parallel()

	exp := newFakeExporter()
	exp.delay = time.Second
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	targets := []exportTarget{{Source: "https://example.com/a.html", Output: filepath.Join(t.TempDir(), "a.pdf")}}
	results := exportBatch(ctx, exp, config.DefaultConfig(), targets, 1, nopProgress{})

	if !errors.Is(results[0].Err, context.Canceled) {
		t.Errorf("Err = %v, want context.Canceled", results[0].Err)
	}
}

func TestExportBatch_Empty(t *testing.T) {
	t.Parallel()

	if results := exportBatch(context.Background(), newFakeExporter(), config.DefaultConfig(), nil, 4, nopProgress{}); results != nil {
		t.Errorf("results = %v, want nil", results)
	}
}

// ---------------------------------------------------------------------------
// TestReportResults - Per-job output and summary
// ---------------------------------------------------------------------------

func TestReportResults(t *testing.T) {
	t.Parallel()

	ok := exportResult{
		Source: "a.html",
		Result: &mindmap2pdf.Result{
			Path:        "a.pdf",
			PreviewPath: "a.png",
			Canvas:      mindmap2pdf.Canvas{Width: 620, Height: 420},
			Strategy:    mindmap2pdf.StrategyClone,
			Duration:    1500 * time.Millisecond,
		},
	}
	fallback := exportResult{
		Source: "empty.html",
		Result: &mindmap2pdf.Result{
			Path:   "empty.pdf",
			Canvas: mindmap2pdf.Canvas{Width: 1920, Height: 1080, Fallback: true},
		},
	}
	failed := exportResult{Source: "bad.html", Err: mindmap2pdf.ErrRender}

	t.Run("default", func(t *testing.T) {
		t.Parallel()
		te := newTestEnv()

		err := reportResults([]exportResult{ok, fallback, failed}, commonFlags{}, te.Environment)

		var be *batchError
		if !errors.As(err, &be) || be.Failed != 1 || be.Total != 3 {
			t.Fatalf("error = %v, want batchError 1 of 3", err)
		}
		if !errors.Is(err, mindmap2pdf.ErrRender) {
			t.Error("batch error should unwrap to the first failure")
		}
		stdout := te.stdout.String()
		for _, want := range []string{"Created a.pdf", "Created a.png", "Created empty.pdf", "2 succeeded, 1 failed"} {
			if !strings.Contains(stdout, want) {
				t.Errorf("stdout missing %q:\n%s", want, stdout)
			}
		}
		stderr := te.stderr.String()
		for _, want := range []string{"FAILED bad.html", "hint:", "1920x1080 fallback"} {
			if !strings.Contains(stderr, want) {
				t.Errorf("stderr missing %q:\n%s", want, stderr)
			}
		}
	})

	t.Run("verbose", func(t *testing.T) {
		t.Parallel()
		te := newTestEnv()

		if err := reportResults([]exportResult{ok}, commonFlags{verbose: true}, te.Environment); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if want := "a.html -> a.pdf (620x420, clone, 1.5s)"; !strings.Contains(te.stdout.String(), want) {
			t.Errorf("stdout = %q, want %q", te.stdout, want)
		}
	})

	t.Run("quiet", func(t *testing.T) {
		t.Parallel()
		te := newTestEnv()

		err := reportResults([]exportResult{ok, failed}, commonFlags{quiet: true}, te.Environment)

		if err == nil {
			t.Fatal("expected error")
		}
		if te.stdout.Len() != 0 {
			t.Errorf("quiet stdout = %q, want empty", te.stdout)
		}
		if !strings.Contains(te.stderr.String(), "FAILED bad.html") {
			t.Errorf("quiet mode must still report failures, got %q", te.stderr)
		}
	})

	t.Run("single failure message", func(t *testing.T) {
		t.Parallel()
		te := newTestEnv()

		err := reportResults([]exportResult{failed}, commonFlags{}, te.Environment)

		if err == nil || err.Error() != "export failed" {
			t.Errorf("error = %v, want export failed", err)
		}
	})
}
