package main

import (
	"errors"
	"os"

	mindmap2pdf "github.com/alnah/go-mindmap2pdf"
	"github.com/alnah/go-mindmap2pdf/internal/config"
	"github.com/alnah/go-mindmap2pdf/internal/fileutil"
	"github.com/alnah/go-mindmap2pdf/internal/mindmap"
)

// Exit codes for the mindmap2pdf CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess    = 0 // All jobs succeeded
	ExitGeneral    = 1 // General/unexpected error
	ExitUsage      = 2 // Invalid flags, config, environment, or job
	ExitIO         = 3 // File not found, permission denied
	ExitBrowser    = 4 // Session launch, measure, normalize, or render errors
	ExitNavigation = 5 // Source did not load or did not load in time
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Navigation errors (exit 5)
	if errors.Is(err, mindmap2pdf.ErrNavigation) {
		return ExitNavigation
	}

	// Browser errors (exit 4)
	if errors.Is(err, mindmap2pdf.ErrSessionLaunch) ||
		errors.Is(err, mindmap2pdf.ErrPoolClosed) ||
		errors.Is(err, mindmap2pdf.ErrMeasure) ||
		errors.Is(err, mindmap2pdf.ErrNormalize) ||
		errors.Is(err, mindmap2pdf.ErrRender) {
		return ExitBrowser
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, ErrUsage) ||
		errors.Is(err, ErrNoInput) ||
		errors.Is(err, ErrDuplicateOutput) ||
		errors.Is(err, ErrInvalidEnv) ||
		errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrInvalidValue) ||
		errors.Is(err, config.ErrEmptyConfigName) ||
		errors.Is(err, mindmap2pdf.ErrInvalidJob) ||
		errors.Is(err, mindmap2pdf.ErrEmptySource) ||
		errors.Is(err, mindmap2pdf.ErrEmptyOutput) ||
		errors.Is(err, mindmap2pdf.ErrInvalidPadding) ||
		errors.Is(err, mindmap2pdf.ErrInvalidStrategy) ||
		errors.Is(err, mindmap2pdf.ErrInvalidSettleMode) ||
		errors.Is(err, mindmap2pdf.ErrInvalidCanvasSize) ||
		errors.Is(err, mindmap2pdf.ErrInvalidPreview) ||
		errors.Is(err, mindmap2pdf.ErrUnsupportedPreview) ||
		errors.Is(err, mindmap2pdf.ErrInvalidTheme) ||
		errors.Is(err, mindmap2pdf.ErrInvalidSelector) ||
		errors.Is(err, mindmap2pdf.ErrInvalidTimeout) ||
		errors.Is(err, mindmap2pdf.ErrInvalidAssetPath) ||
		errors.Is(err, mindmap.ErrEmptyOutline) ||
		errors.Is(err, mindmap.ErrOutlineTooLarge) ||
		errors.Is(err, mindmap.ErrTooManyNodes) ||
		errors.Is(err, mindmap.ErrInvalidFrontMatter) {
		return ExitUsage
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, fileutil.ErrSourceNotFound) ||
		errors.Is(err, ErrReadOutline) ||
		errors.Is(err, ErrCreateOutputDir) {
		return ExitIO
	}

	return ExitGeneral
}
