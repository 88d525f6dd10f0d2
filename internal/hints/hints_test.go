package hints

// Notes:
// - ForSessionLaunch tests cannot use t.Parallel() because they:
//   1. Use t.Setenv() which modifies process environment
//   2. Modify the package-level IsInContainer variable
// These are acceptable gaps: we test observable behavior through environment manipulation.

import (
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// TestForSessionLaunch - Environment-aware launch hints
// ---------------------------------------------------------------------------

func TestForSessionLaunch(t *testing.T) {
	tests := []struct {
		name      string
		container bool
		env       map[string]string
		want      []string
		notWant   []string
	}{
		{
			name: "in CI",
			env:  map[string]string{"CI": "true"},
			want: []string{"--no-sandbox", "MINDMAP2PDF_BROWSER_BIN", "doctor"},
		},
		{
			name:      "in container",
			container: true,
			want:      []string{"--no-sandbox"},
		},
		{
			name:    "on a workstation",
			want:    []string{"MINDMAP2PDF_BROWSER_BIN", "doctor"},
			notWant: []string{"--no-sandbox"},
		},
		{
			name:      "already configured",
			container: true,
			env: map[string]string{
				"ROD_NO_SANDBOX":          "1",
				"MINDMAP2PDF_BROWSER_BIN": "/usr/bin/chromium",
			},
			want:    []string{"doctor"},
			notWant: []string{"--no-sandbox", "MINDMAP2PDF_BROWSER_BIN"},
		},
		{
			name:    "rod binary counts as configured",
			env:     map[string]string{"ROD_BROWSER_BIN": "/usr/bin/chromium"},
			notWant: []string{"MINDMAP2PDF_BROWSER_BIN"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orig := IsInContainer
			defer func() { IsInContainer = orig }()
			IsInContainer = func() bool { return tt.container }

			cleared := []string{"ROD_NO_SANDBOX", "ROD_BROWSER_BIN", "MINDMAP2PDF_BROWSER_BIN"}
			for _, v := range append(cleared, ciVars...) {
				t.Setenv(v, "")
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			hint := ForSessionLaunch()

			if !strings.HasPrefix(hint, "\n  hint: ") {
				t.Errorf("missing hint prefix: %q", hint)
			}
			for _, w := range tt.want {
				if !strings.Contains(hint, w) {
					t.Errorf("hint %q does not contain %q", hint, w)
				}
			}
			for _, w := range tt.notWant {
				if strings.Contains(hint, w) {
					t.Errorf("hint %q should not contain %q", hint, w)
				}
			}
		})
	}
}

func TestIsInContainer_EnvOverride(t *testing.T) {
	t.Setenv("MINDMAP2PDF_CONTAINER", "1")

	if !IsInContainer() {
		t.Error("IsInContainer() = false with MINDMAP2PDF_CONTAINER=1")
	}
}

// ---------------------------------------------------------------------------
// Static hints
// ---------------------------------------------------------------------------

func TestStaticHints(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"navigation timeout", ForNavigationTimeout(), "--nav-timeout"},
		{"job timeout", ForTimeout(), "--timeout"},
		{"render", ForRender(), "--padding"},
		{"output directory", ForOutputDirectory(), "writable"},
		{"url source", ForSourceUnreachable("https://example.com/map.html"), "URL"},
		{"file source", ForSourceUnreachable("map.html"), "file exists"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if !strings.HasPrefix(tt.got, "\n  hint: ") {
				t.Errorf("missing hint prefix: %q", tt.got)
			}
			if !strings.Contains(tt.got, tt.want) {
				t.Errorf("hint %q does not contain %q", tt.got, tt.want)
			}
		})
	}
}

func TestForConfigNotFound(t *testing.T) {
	t.Parallel()

	paths := []string{"mindmap2pdf.yaml", "/home/u/.config/go-mindmap2pdf/mindmap2pdf.yaml"}
	hint := ForConfigNotFound(paths)

	if !strings.Contains(hint, "--config") {
		t.Error("expected --config suggestion")
	}
	if !strings.Contains(hint, "/home/u/.config/go-mindmap2pdf/mindmap2pdf.yaml") {
		t.Error("expected user config path suggestion")
	}
}

func TestForThemeNotFound(t *testing.T) {
	t.Parallel()

	if got := ForThemeNotFound(nil); got != "" {
		t.Errorf("ForThemeNotFound(nil) = %q, want empty", got)
	}

	got := ForThemeNotFound([]string{"dark", "light"})
	if !strings.Contains(got, "dark, light, none") {
		t.Errorf("ForThemeNotFound() = %q", got)
	}
}
