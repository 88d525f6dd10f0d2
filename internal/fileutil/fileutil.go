// Package fileutil provides file, path and source-URL helpers.
package fileutil

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// Sentinel errors for file utility operations.
var (
	ErrExtensionEmpty         = errors.New("extension cannot be empty")
	ErrExtensionPathTraversal = errors.New("extension contains path separator or null byte")
	ErrSourceNotFound         = errors.New("source file not found")
	ErrUnsupportedScheme      = errors.New("unsupported source scheme")
)

// WriteTempFile creates a temporary file with the given content and extension.
// Returns the file path and a cleanup function to remove the file.
func WriteTempFile(content, extension string) (path string, cleanup func(), err error) {
	if err := ValidateExtension(extension); err != nil {
		return "", nil, err
	}

	tmpFile, err := os.CreateTemp("", "mindmap2pdf-*."+extension)
	if err != nil {
		return "", nil, fmt.Errorf("creating temp file: %w", err)
	}

	path = tmpFile.Name()
	cleanup = func() { _ = os.Remove(path) }

	if _, writeErr := tmpFile.WriteString(content); writeErr != nil {
		_ = tmpFile.Close()
		cleanup()
		return "", nil, fmt.Errorf("writing temp file: %w", writeErr)
	}

	if closeErr := tmpFile.Close(); closeErr != nil {
		cleanup()
		return "", nil, fmt.Errorf("closing temp file: %w", closeErr)
	}

	return path, cleanup, nil
}

// ValidateExtension checks that the extension is safe for use in temp file names.
func ValidateExtension(extension string) error {
	if extension == "" {
		return ErrExtensionEmpty
	}
	if strings.ContainsAny(extension, "/\\\x00") {
		return ErrExtensionPathTraversal
	}
	return nil
}

// FileExists returns true if the path exists and is a regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// IsURL returns true if the string looks like an http(s) URL.
func IsURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// SourceURL converts a document source to a URL the browser can open.
//
// Examples:
//   - "https://example.com/map.html" -> unchanged
//   - "file:///srv/map.html"         -> unchanged
//   - "out/map.html"                 -> "file:///abs/cwd/out/map.html"
//
// Local paths must name an existing regular file.
func SourceURL(source string) (string, error) {
	source = strings.TrimSpace(source)

	if IsURL(source) || strings.HasPrefix(source, "file://") {
		u, err := url.Parse(source)
		if err != nil {
			return "", fmt.Errorf("parsing %q: %w", source, err)
		}
		if u.Scheme != "file" && u.Host == "" {
			return "", fmt.Errorf("parsing %q: missing host", source)
		}
		return u.String(), nil
	}

	if scheme, _, ok := strings.Cut(source, "://"); ok && !strings.ContainsAny(scheme, "/\\") {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedScheme, scheme)
	}

	abs, err := filepath.Abs(source)
	if err != nil {
		return "", fmt.Errorf("resolving %q: %w", source, err)
	}
	if !FileExists(abs) {
		return "", fmt.Errorf("%w: %s", ErrSourceNotFound, abs)
	}
	return FileURL(abs), nil
}

// FileURL returns the file:// URL of an absolute path.
func FileURL(abs string) string {
	p := filepath.ToSlash(abs)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p // Windows drive letters
	}
	return (&url.URL{Scheme: "file", Path: p}).String()
}
