//go:build integration

package mindmap2pdf

// Notes:
// - Integration test setup: one shared SessionPool for all integration tests
// - testPool is created in TestMain and closed after all tests complete
// - newIntegrationExporter shares the pool so Chrome launches once per size slot
// - Pool size is capped at 4 for CI environments to avoid resource exhaustion

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// ---------------------------------------------------------------------------
// Test Configuration
// ---------------------------------------------------------------------------

// testTimeout is the standard timeout for one integration export.
const testTimeout = 60 * time.Second

// testPool is shared by all integration tests. Tests never close it.
var testPool *SessionPool

// ---------------------------------------------------------------------------
// TestMain - Integration Test Setup and Teardown
// ---------------------------------------------------------------------------

func TestMain(m *testing.M) {
	poolSize := min(ResolvePoolSize(0), 4)
	testPool = NewSessionPool(poolSize, BrowserConfig{NoSandbox: os.Getenv("ROD_NO_SANDBOX") == "1"})

	code := m.Run()

	_ = testPool.Close()
	os.Exit(code)
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func newIntegrationExporter(t *testing.T) *Exporter {
	t.Helper()
	exp, err := NewExporter(WithPool(testPool), WithTimeout(testTimeout))
	if err != nil {
		t.Fatalf("NewExporter() unexpected error: %v", err)
	}
	return exp
}

// writePage writes an HTML document to a temp dir and returns its path.
func writePage(t *testing.T, html string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "page.html")
	if err := os.WriteFile(path, []byte(html), 0o600); err != nil {
		t.Fatalf("writing page: %v", err)
	}
	return path
}
