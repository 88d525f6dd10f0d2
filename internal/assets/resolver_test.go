package assets

import (
	"errors"
	"slices"
	"testing"
)

func TestNewAssetResolver(t *testing.T) {
	t.Parallel()

	t.Run("empty path uses embedded only", func(t *testing.T) {
		t.Parallel()

		resolver, err := NewAssetResolver("")
		if err != nil {
			t.Fatalf("NewAssetResolver(\"\") error = %v", err)
		}
		if resolver.HasCustomLoader() {
			t.Error("expected no custom loader for empty path")
		}
	})

	t.Run("valid custom path", func(t *testing.T) {
		t.Parallel()

		resolver, err := NewAssetResolver(t.TempDir())
		if err != nil {
			t.Fatalf("NewAssetResolver() error = %v", err)
		}
		if !resolver.HasCustomLoader() {
			t.Error("expected custom loader for valid path")
		}
	})

	t.Run("invalid custom path returns error", func(t *testing.T) {
		t.Parallel()

		_, err := NewAssetResolver("/nonexistent/path/abc123xyz")
		if !errors.Is(err, ErrInvalidBasePath) {
			t.Errorf("NewAssetResolver() error = %v, want ErrInvalidBasePath", err)
		}
	})
}

func TestAssetResolver_CustomWithFallback(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeAsset(t, dir, "themes", "dark.css", "/* custom dark */")
	writeAsset(t, dir, "themes", "brand.css", "/* brand */")

	resolver, err := NewAssetResolver(dir)
	if err != nil {
		t.Fatalf("NewAssetResolver() error = %v", err)
	}

	t.Run("custom overrides embedded", func(t *testing.T) {
		t.Parallel()

		got, err := resolver.LoadTheme("dark")
		if err != nil {
			t.Fatalf("LoadTheme() error = %v", err)
		}
		if got != "/* custom dark */" {
			t.Errorf("LoadTheme() = %q, want custom content", got)
		}
	})

	t.Run("falls back to embedded", func(t *testing.T) {
		t.Parallel()

		got, err := resolver.LoadTheme("light")
		if err != nil {
			t.Fatalf("LoadTheme() error = %v", err)
		}
		if got == "" {
			t.Error("LoadTheme() returned empty content")
		}
	})

	t.Run("template falls back to embedded", func(t *testing.T) {
		t.Parallel()

		if _, err := resolver.LoadTemplate(DefaultTemplateName); err != nil {
			t.Errorf("LoadTemplate() error = %v", err)
		}
	})

	t.Run("validation errors do not fall back", func(t *testing.T) {
		t.Parallel()

		_, err := resolver.LoadTheme("a/b")
		if !errors.Is(err, ErrInvalidAssetName) {
			t.Errorf("LoadTheme() error = %v, want ErrInvalidAssetName", err)
		}
	})

	t.Run("not found anywhere", func(t *testing.T) {
		t.Parallel()

		_, err := resolver.LoadTheme("neon")
		if !errors.Is(err, ErrThemeNotFound) {
			t.Errorf("LoadTheme() error = %v, want ErrThemeNotFound", err)
		}
	})

	t.Run("themes merged without duplicates", func(t *testing.T) {
		t.Parallel()

		want := []string{"brand", "dark", "light", "sepia"}
		if got := resolver.Themes(); !slices.Equal(got, want) {
			t.Errorf("Themes() = %v, want %v", got, want)
		}
	})
}
