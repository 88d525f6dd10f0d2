package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// TestRunBuildCmd - Outline to HTML, optionally to PDF
// ---------------------------------------------------------------------------

const testOutline = "# Roadmap\n\n## Build\n\n- parser\n- template\n\n## Ship\n"

func writeOutline(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "plan.md")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunBuildCmd(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := writeOutline(t, dir, testOutline)
	te := newTestEnv()

	if err := runBuildCmd(context.Background(), []string{input}, te.Environment); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := filepath.Join(dir, "plan.html")
	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("document not written: %v", err)
	}
	html := string(data)
	for _, want := range []string{"<title>Roadmap</title>", "svg", "parser"} {
		if !strings.Contains(html, want) {
			t.Errorf("document missing %q", want)
		}
	}
	if !strings.Contains(te.stdout.String(), "Created "+output) {
		t.Errorf("stdout = %q, want Created line", te.stdout)
	}
	if len(te.exp.recorded()) != 0 {
		t.Error("build without --export must not export")
	}
}

func TestRunBuildCmd_Export(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := writeOutline(t, dir, testOutline)
	output := filepath.Join(dir, "out", "roadmap.html")
	te := newTestEnv()

	err := runBuildCmd(context.Background(), []string{
		input, "-o", output, "--export", "--title", "Q3", "--theme", "sepia", "-v",
	}, te.Environment)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	jobs := te.exp.recorded()
	if len(jobs) != 1 {
		t.Fatalf("got %d jobs, want 1", len(jobs))
	}
	if jobs[0].Source != output {
		t.Errorf("Source = %q, want %q", jobs[0].Source, output)
	}
	if want := filepath.Join(dir, "out", "roadmap.pdf"); jobs[0].Output != want {
		t.Errorf("Output = %q, want %q", jobs[0].Output, want)
	}
	if jobs[0].Theme != "sepia" {
		t.Errorf("Theme = %q, want sepia", jobs[0].Theme)
	}
	if !te.exp.isClosed() {
		t.Error("exporter was not closed")
	}
	if want := `("Q3", 5 nodes)`; !strings.Contains(te.stdout.String(), want) {
		t.Errorf("stdout = %q, want verbose build line", te.stdout)
	}
}

func TestRunBuildCmd_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.md")
	if err := os.WriteFile(empty, []byte("   \n"), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		args     []string
		wantCode int
	}{
		{"missing outline", []string{filepath.Join(dir, "missing.md")}, ExitIO},
		{"empty outline", []string{empty}, ExitUsage},
		{"too many args", []string{empty, empty}, ExitUsage},
		{"invalid padding", []string{empty, "--padding", "-5"}, ExitUsage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			te := newTestEnv()

			err := runBuildCmd(context.Background(), tt.args, te.Environment)

			if got := exitCodeFor(err); got != tt.wantCode {
				t.Errorf("exit code for %v = %d, want %d", err, got, tt.wantCode)
			}
		})
	}
}
