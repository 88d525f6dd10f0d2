// Package hints provides actionable error hints for common failure scenarios.
// Hints are formatted consistently as "\n  hint: <text>" for appending to error messages.
package hints

import (
	"os"
	"strings"

	"github.com/alnah/go-mindmap2pdf/internal/fileutil"
)

// IsInContainer reports whether the process runs inside a container, where
// Chrome's sandbox usually cannot start.
var IsInContainer = func() bool {
	return os.Getenv("MINDMAP2PDF_CONTAINER") == "1" || fileutil.FileExists("/.dockerenv")
}

// ciVars are set by the CI systems we know of.
var ciVars = []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL"}

// ForSessionLaunch returns hints for a browser that failed to start or connect.
func ForSessionLaunch() string {
	var hints []string

	sandboxed := os.Getenv("ROD_NO_SANDBOX") != "1"
	if sandboxed && (IsInContainer() || anySet(ciVars)) {
		hints = append(hints, "pass --no-sandbox (or set ROD_NO_SANDBOX=1) inside containers and CI")
	}
	if !anySet([]string{"MINDMAP2PDF_BROWSER_BIN", "ROD_BROWSER_BIN"}) {
		hints = append(hints, "point MINDMAP2PDF_BROWSER_BIN at an installed Chrome")
	}
	hints = append(hints, "run 'mindmap2pdf doctor' to check the environment")
	return formatHints(hints)
}

func anySet(vars []string) bool {
	for _, v := range vars {
		if os.Getenv(v) != "" {
			return true
		}
	}
	return false
}

// ForNavigationTimeout suggests raising the navigation budget.
func ForNavigationTimeout() string {
	return format("slow or script-heavy pages need a longer --nav-timeout")
}

// ForSourceUnreachable suggests checking the source location.
func ForSourceUnreachable(source string) string {
	if fileutil.IsURL(source) {
		return format("check the URL is reachable from this machine")
	}
	return format("check the file exists; relative paths are resolved from the working directory")
}

// ForTimeout returns a hint about increasing the job timeout.
func ForTimeout() string {
	return format("for large mind maps, use --timeout flag")
}

// ForRender returns hints for print-to-PDF failures.
func ForRender() string {
	return format("very large diagrams may exceed Chrome's page limit; reduce --padding or split the outline")
}

// ForConfigNotFound returns hints for config file not found errors.
// Suggests --config flag and creating a config in ~/.config/go-mindmap2pdf/.
func ForConfigNotFound(searchedPaths []string) string {
	hint := "use --config /path/to/file.yaml"

	for _, p := range searchedPaths {
		if strings.Contains(p, ".config/go-mindmap2pdf") {
			hint += " or create " + p
			break
		}
	}

	return format(hint)
}

// ForOutputDirectory returns hints for output directory creation errors.
func ForOutputDirectory() string {
	return format("check parent directory exists and is writable")
}

// ForThemeNotFound lists the available themes.
func ForThemeNotFound(available []string) string {
	if len(available) == 0 {
		return ""
	}
	return format("available: " + strings.Join(available, ", ") + ", none")
}

// format creates a single hint string with consistent formatting.
func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}

// formatHints joins multiple hints with consistent formatting.
func formatHints(hints []string) string {
	if len(hints) == 0 {
		return ""
	}
	return format(strings.Join(hints, "; "))
}
