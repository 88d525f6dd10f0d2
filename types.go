package mindmap2pdf

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Strategy selects how the page is normalized to the measured canvas.
type Strategy string

// Normalization strategies.
const (
	// StrategyRetransform shifts the content group in place and resizes the container.
	StrategyRetransform Strategy = "retransform"
	// StrategyClone replaces the page body with an inert deep clone of the container.
	StrategyClone Strategy = "clone"
	// StrategyViewport resizes the viewport and lets the layout library refit.
	StrategyViewport Strategy = "viewport"
)

// ParseStrategy converts a user-supplied name to a Strategy (case-insensitive).
// The short aliases a, b and c map to retransform, clone and viewport.
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "retransform", "a":
		return StrategyRetransform, nil
	case "clone", "b", "":
		return StrategyClone, nil
	case "viewport", "c":
		return StrategyViewport, nil
	}
	return "", fmt.Errorf("%w: %q (must be retransform, clone, or viewport)", ErrInvalidStrategy, s)
}

// SettleMode selects how the controller decides that layout has finished.
type SettleMode string

// Settle modes.
const (
	SettleFixed  SettleMode = "fixed"
	SettleStable SettleMode = "stable"
)

// ParseSettleMode converts a user-supplied name to a SettleMode (case-insensitive).
func ParseSettleMode(s string) (SettleMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fixed":
		return SettleFixed, nil
	case "stable", "":
		return SettleStable, nil
	}
	return "", fmt.Errorf("%w: %q (must be fixed or stable)", ErrInvalidSettleMode, s)
}

// Default job parameters.
const (
	DefaultPadding           = 60
	DefaultCanvasWidth       = 1920
	DefaultCanvasHeight      = 1080
	DefaultViewportWidth     = 4000
	DefaultViewportHeight    = 4000
	DefaultSettleDelay       = 1500 * time.Millisecond
	DefaultIdleWindow        = 500 * time.Millisecond
	DefaultSettleInterval    = 250 * time.Millisecond
	DefaultSettleAttempts    = 20
	DefaultNavigationTimeout = 30 * time.Second
	DefaultJobTimeout        = 2 * time.Minute
	DefaultRefitDelay        = time.Second
	DefaultPreviewScale      = 2.0
	DefaultPreviewQuality    = 95
	DefaultContainerSelector = "svg"
	DefaultContentSelector   = "svg > g"
	DefaultTheme             = "light"
	ThemeNone                = "none"
)

// Canvas bounds in CSS pixels. Chrome refuses paper larger than 200 inches.
const (
	MinCanvasSide = 1
	MaxCanvasSide = 19200
	MaxPadding    = 2000
)

// Size is a width/height pair in CSS pixels.
type Size struct {
	Width  int
	Height int
}

// DefaultCanvas is used when the diagram has no content group.
var DefaultCanvas = Size{Width: DefaultCanvasWidth, Height: DefaultCanvasHeight}

// Validate checks that both sides are within canvas bounds.
func (s Size) Validate() error {
	if s.Width < MinCanvasSide || s.Width > MaxCanvasSide || s.Height < MinCanvasSide || s.Height > MaxCanvasSide {
		return fmt.Errorf("%w: %dx%d (each side must be between %d and %d)", ErrInvalidCanvasSize, s.Width, s.Height, MinCanvasSide, MaxCanvasSide)
	}
	return nil
}

// Viewport is the browser viewport applied before navigation.
type Viewport struct {
	Width  int
	Height int
	Scale  float64 // device scale factor, 0 = 1
}

// Selectors locate the diagram in the source document.
type Selectors struct {
	Container string // top-level drawable container, e.g. "svg"
	Content   string // content group inside the container, e.g. "svg > g"
}

// SettlePolicy controls how long the controller waits for layout after load.
type SettlePolicy struct {
	Mode        SettleMode
	Delay       time.Duration // fixed mode wait; stable mode minimum
	Idle        time.Duration // network quiescence window
	Interval    time.Duration // stable mode sampling interval
	MaxAttempts int           // stable mode sample ceiling
}

// Preview requests a raster image of the normalized canvas next to the PDF.
type Preview struct {
	Path    string  // .png, .jpg or .jpeg
	Scale   float64 // device pixels per CSS pixel, 0 = DefaultPreviewScale
	Quality int     // JPEG quality 1-100, 0 = DefaultPreviewQuality
}

// Validate checks preview settings. Returns nil if p is nil (no preview).
func (p *Preview) Validate() error {
	if p == nil {
		return nil
	}
	if p.Path == "" {
		return fmt.Errorf("%w: path cannot be empty", ErrInvalidPreview)
	}
	if _, err := previewFormat(p.Path); err != nil {
		return err
	}
	if p.Scale < 0 || p.Scale > 4 {
		return fmt.Errorf("%w: scale %.2f (must be between 0 and 4)", ErrInvalidPreview, p.Scale)
	}
	if p.Quality < 0 || p.Quality > 100 {
		return fmt.Errorf("%w: quality %d (must be between 0 and 100)", ErrInvalidPreview, p.Quality)
	}
	return nil
}

// previewFormat derives the image format from the file extension.
func previewFormat(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "png", nil
	case ".jpg", ".jpeg":
		return "jpeg", nil
	}
	return "", fmt.Errorf("%w: %q (use .png, .jpg or .jpeg)", ErrUnsupportedPreview, filepath.Ext(path))
}

// Job describes one export: a source document rendered to a single-page PDF.
// Padding is used as given (0 means no margin); use NewJob for the defaults.
type Job struct {
	ID                string // optional, generated when empty
	Source            string // URL or local file path
	Output            string // PDF path
	Padding           int
	Strategy          Strategy
	Settle            SettlePolicy
	Selectors         Selectors
	Theme             string // embedded or custom theme name, "" or "none" = keep page styles
	Viewport          Viewport
	Fallback          Size
	NavigationTimeout time.Duration
	Timeout           time.Duration
	RefitDelay        time.Duration
	Preview           *Preview
}

// NewJob returns a job with every parameter set to its default.
func NewJob(source, output string) Job {
	return Job{
		Source:   source,
		Output:   output,
		Padding:  DefaultPadding,
		Strategy: StrategyClone,
		Theme:    DefaultTheme,
	}.withDefaults()
}

// withDefaults returns a copy with zero-valued settings replaced by defaults.
// Padding and Theme are left untouched: their zero values are meaningful.
func (j Job) withDefaults() Job {
	if j.Strategy == "" {
		j.Strategy = StrategyClone
	}
	if j.Settle.Mode == "" {
		j.Settle.Mode = SettleStable
	}
	if j.Settle.Delay == 0 {
		j.Settle.Delay = DefaultSettleDelay
	}
	if j.Settle.Idle == 0 {
		j.Settle.Idle = DefaultIdleWindow
	}
	if j.Settle.Interval == 0 {
		j.Settle.Interval = DefaultSettleInterval
	}
	if j.Settle.MaxAttempts == 0 {
		j.Settle.MaxAttempts = DefaultSettleAttempts
	}
	if j.Selectors.Container == "" {
		j.Selectors.Container = DefaultContainerSelector
	}
	if j.Selectors.Content == "" {
		j.Selectors.Content = DefaultContentSelector
	}
	if j.Viewport.Width == 0 {
		j.Viewport.Width = DefaultViewportWidth
	}
	if j.Viewport.Height == 0 {
		j.Viewport.Height = DefaultViewportHeight
	}
	if j.Viewport.Scale == 0 {
		j.Viewport.Scale = 1
	}
	if j.Fallback == (Size{}) {
		j.Fallback = DefaultCanvas
	}
	if j.NavigationTimeout == 0 {
		j.NavigationTimeout = DefaultNavigationTimeout
	}
	if j.Timeout == 0 {
		j.Timeout = DefaultJobTimeout
	}
	if j.RefitDelay == 0 {
		j.RefitDelay = DefaultRefitDelay
	}
	if j.Preview != nil {
		p := *j.Preview
		if p.Scale == 0 {
			p.Scale = DefaultPreviewScale
		}
		if p.Quality == 0 {
			p.Quality = DefaultPreviewQuality
		}
		j.Preview = &p
	}
	return j
}

// Validate checks that the job can be executed.
// Zero-valued optional settings are accepted; they are defaulted at export time.
func (j Job) Validate() error {
	if strings.TrimSpace(j.Source) == "" {
		return ErrEmptySource
	}
	if strings.TrimSpace(j.Output) == "" {
		return ErrEmptyOutput
	}
	if j.Padding < 0 || j.Padding > MaxPadding {
		return fmt.Errorf("%w: %d (must be between 0 and %d)", ErrInvalidPadding, j.Padding, MaxPadding)
	}
	if j.Strategy != "" {
		if _, err := ParseStrategy(string(j.Strategy)); err != nil {
			return err
		}
	}
	if j.Settle.Mode != "" {
		if _, err := ParseSettleMode(string(j.Settle.Mode)); err != nil {
			return err
		}
	}
	if j.Settle.Delay < 0 || j.Settle.Idle < 0 || j.Settle.Interval < 0 || j.Settle.MaxAttempts < 0 {
		return fmt.Errorf("%w: settle durations and attempts cannot be negative", ErrInvalidSettleMode)
	}
	if j.NavigationTimeout < 0 || j.Timeout < 0 || j.RefitDelay < 0 {
		return fmt.Errorf("%w: durations cannot be negative", ErrInvalidTimeout)
	}
	if j.Fallback != (Size{}) {
		if err := j.Fallback.Validate(); err != nil {
			return fmt.Errorf("fallback: %w", err)
		}
	}
	if j.Viewport.Width != 0 || j.Viewport.Height != 0 {
		if err := (Size{Width: j.Viewport.Width, Height: j.Viewport.Height}).Validate(); err != nil {
			return fmt.Errorf("viewport: %w", err)
		}
	}
	if j.Viewport.Scale < 0 || j.Viewport.Scale > 4 {
		return fmt.Errorf("%w: viewport scale %.2f (must be between 0 and 4)", ErrInvalidCanvasSize, j.Viewport.Scale)
	}
	if strings.ContainsAny(j.Selectors.Container+j.Selectors.Content, "\x00") {
		return fmt.Errorf("%w: contains null byte", ErrInvalidSelector)
	}
	if err := validateThemeName(j.Theme); err != nil {
		return err
	}
	return j.Preview.Validate()
}

// validateThemeName rejects names that could escape the theme directory.
func validateThemeName(name string) error {
	if name == "" || name == ThemeNone {
		return nil
	}
	if strings.ContainsAny(name, "/\\.") {
		return fmt.Errorf("%w: %q", ErrInvalidTheme, name)
	}
	return nil
}

// Result describes a successfully exported document.
type Result struct {
	JobID       string
	Path        string // single-page PDF
	PreviewPath string // empty unless a preview was requested
	Canvas      Canvas
	Measurement Measurement
	Strategy    Strategy
	Duration    time.Duration
}
