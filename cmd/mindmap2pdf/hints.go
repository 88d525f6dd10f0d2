package main

import (
	"context"
	"errors"

	mindmap2pdf "github.com/alnah/go-mindmap2pdf"
	"github.com/alnah/go-mindmap2pdf/internal/assets"
	"github.com/alnah/go-mindmap2pdf/internal/config"
	"github.com/alnah/go-mindmap2pdf/internal/hints"
)

// hintFor returns an actionable hint for err, or "" if none applies.
// source names the failed job's source, when known.
func hintFor(err error, source string) string {
	var be *batchError
	if errors.As(err, &be) {
		// Each failed job already printed its own hint.
		return ""
	}

	switch {
	case errors.Is(err, mindmap2pdf.ErrSessionLaunch):
		return hints.ForSessionLaunch()
	case errors.Is(err, mindmap2pdf.ErrNavigationTimeout):
		return hints.ForNavigationTimeout()
	case errors.Is(err, mindmap2pdf.ErrSourceUnreachable):
		return hints.ForSourceUnreachable(source)
	case errors.Is(err, mindmap2pdf.ErrRender):
		return hints.ForRender()
	case errors.Is(err, mindmap2pdf.ErrInvalidTheme):
		return hints.ForThemeNotFound(assets.NewEmbeddedLoader().Themes())
	case errors.Is(err, config.ErrConfigNotFound):
		return hints.ForConfigNotFound(nil)
	case errors.Is(err, ErrCreateOutputDir):
		return hints.ForOutputDirectory()
	case errors.Is(err, context.DeadlineExceeded):
		return hints.ForTimeout()
	}
	return ""
}
