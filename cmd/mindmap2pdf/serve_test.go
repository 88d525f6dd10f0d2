package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alnah/go-mindmap2pdf/internal/config"
)

// ---------------------------------------------------------------------------
// TestMergeServeFlags - Flag and fallback precedence
// ---------------------------------------------------------------------------

func TestMergeServeFlags(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		flags         serveFlags
		exportDir     string
		serverDir     string
		wantAddr      string
		wantOutputDir string
	}{
		{"defaults", serveFlags{}, "", "", config.DefaultServerAddr, defaultServeOutputDir},
		{"export dir fallback", serveFlags{}, "exports", "", config.DefaultServerAddr, "exports"},
		{"server dir wins", serveFlags{}, "exports", "served", config.DefaultServerAddr, "served"},
		{"flags win", serveFlags{addr: ":9000", outputDir: "flagged"}, "exports", "served", ":9000", "flagged"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := config.DefaultConfig()
			cfg.Export.OutputDir = tt.exportDir
			cfg.Server.OutputDir = tt.serverDir

			f := tt.flags
			mergeServeFlags(&f, cfg)

			if cfg.Server.Addr != tt.wantAddr {
				t.Errorf("Addr = %q, want %q", cfg.Server.Addr, tt.wantAddr)
			}
			if cfg.Server.OutputDir != tt.wantOutputDir {
				t.Errorf("OutputDir = %q, want %q", cfg.Server.OutputDir, tt.wantOutputDir)
			}
		})
	}

	t.Run("browser and pool", func(t *testing.T) {
		t.Parallel()
		cfg := config.DefaultConfig()

		mergeServeFlags(&serveFlags{workers: 3, noSandbox: true, baseURL: "https://maps.example.com"}, cfg)

		if cfg.Export.Workers != 3 || !cfg.Browser.NoSandbox || cfg.Server.BaseURL != "https://maps.example.com" {
			t.Errorf("got workers=%d noSandbox=%v baseURL=%q", cfg.Export.Workers, cfg.Browser.NoSandbox, cfg.Server.BaseURL)
		}
	})
}

// ---------------------------------------------------------------------------
// TestRunServeCmd - Startup and graceful shutdown
// ---------------------------------------------------------------------------

func TestRunServeCmd_Shutdown(t *testing.T) {
	t.Parallel()

	outDir := filepath.Join(t.TempDir(), "served")
	te := newTestEnv()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := runServeCmd(ctx, []string{"--addr", "127.0.0.1:0", "--output-dir", outDir}, te.Environment)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info, err := os.Stat(outDir); err != nil || !info.IsDir() {
		t.Errorf("output directory not created: %v", err)
	}
	if !te.exp.isClosed() {
		t.Error("exporter was not closed")
	}
	if !strings.Contains(te.stderr.String(), "Serving on http://127.0.0.1:0") {
		t.Errorf("stderr = %q, want startup line", te.stderr)
	}
}

func TestRunServeCmd_InvalidConfig(t *testing.T) {
	t.Parallel()

	te := newTestEnv()
	err := runServeCmd(context.Background(), []string{"--addr", strings.Repeat("x", config.MaxAddrLength+1)}, te.Environment)

	if got := exitCodeFor(err); got != ExitUsage {
		t.Errorf("exit code for %v = %d, want %d", err, got, ExitUsage)
	}
	if te.config() != nil {
		t.Error("exporter must not be created for an invalid config")
	}
}
