package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	mindmap2pdf "github.com/alnah/go-mindmap2pdf"
	"github.com/alnah/go-mindmap2pdf/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidValue    = errors.New("invalid config value")
)

// Field length limits for multi-tenant safety.
const (
	MaxPathLength     = 4096 // Filesystem paths
	MaxURLLength      = 2048 // Browser limit
	MaxSelectorLength = 512  // CSS selectors
	MaxNameLength     = 64   // Theme and template names
	MaxTitleLength    = 200  // Document title
	MaxLangLength     = 35   // BCP 47 tag
	MaxAddrLength     = 255  // host:port
	MaxFlagLength     = 256  // One Chrome switch
	MaxFlags          = 32
	MaxWorkers        = 32
)

// Config holds all configuration for exporting and building mind maps.
type Config struct {
	Export   ExportConfig   `yaml:"export"`
	Settle   SettleConfig   `yaml:"settle"`
	Timeouts TimeoutsConfig `yaml:"timeouts"`
	Browser  BrowserConfig  `yaml:"browser"`
	Preview  PreviewConfig  `yaml:"preview"`
	Server   ServerConfig   `yaml:"server"`
	Mindmap  MindmapConfig  `yaml:"mindmap"`
	Assets   AssetsConfig   `yaml:"assets"`
}

// ExportConfig defines how a diagram is cropped and normalized.
type ExportConfig struct {
	OutputDir string          `yaml:"outputDir"` // Empty = next to the source
	Padding   int             `yaml:"padding"`   // CSS px around the content box
	Strategy  string          `yaml:"strategy"`  // "retransform", "clone", "viewport"
	Theme     string          `yaml:"theme"`     // Theme name, "none" keeps page styles
	Workers   int             `yaml:"workers"`   // Parallel browsers, 0 = auto
	Fallback  SizeConfig      `yaml:"fallback"`  // Canvas when no content is found
	Viewport  ViewportConfig  `yaml:"viewport"`  // Initial viewport before navigation
	Selectors SelectorsConfig `yaml:"selectors"`
}

// SizeConfig is a width/height pair in CSS pixels.
type SizeConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// ViewportConfig defines the browser viewport.
type ViewportConfig struct {
	Width  int     `yaml:"width"`
	Height int     `yaml:"height"`
	Scale  float64 `yaml:"scale"` // Device scale factor
}

// SelectorsConfig locates the diagram in the page.
type SelectorsConfig struct {
	Container string `yaml:"container"`
	Content   string `yaml:"content"`
}

// SettleConfig defines how long to wait for the layout library.
type SettleConfig struct {
	Mode        string            `yaml:"mode"`        // "fixed" or "stable"
	Delay       yamlutil.Duration `yaml:"delay"`       // Fixed mode wait
	Idle        yamlutil.Duration `yaml:"idle"`        // Network quiescence window
	Interval    yamlutil.Duration `yaml:"interval"`    // Stable mode sampling interval
	MaxAttempts int               `yaml:"maxAttempts"` // Stable mode sample ceiling
}

// TimeoutsConfig bounds each phase of a job.
type TimeoutsConfig struct {
	Navigation yamlutil.Duration `yaml:"navigation"`
	Job        yamlutil.Duration `yaml:"job"`
	Refit      yamlutil.Duration `yaml:"refit"` // Viewport strategy relayout wait
}

// BrowserConfig defines how Chrome is launched or reached.
type BrowserConfig struct {
	Bin       string   `yaml:"bin"`       // Empty = ROD_BROWSER_BIN or managed download
	NoSandbox bool     `yaml:"noSandbox"` // Needed in most containers
	RemoteURL string   `yaml:"remoteURL"` // DevTools WebSocket of a running Chrome
	Stealth   bool     `yaml:"stealth"`
	Flags     []string `yaml:"flags"` // Extra switches, "name" or "name=value"
}

// PreviewConfig defines the optional raster image written next to the PDF.
type PreviewConfig struct {
	Enabled bool    `yaml:"enabled"`
	Format  string  `yaml:"format"`  // "png" or "jpg"
	Scale   float64 `yaml:"scale"`   // Device pixels per CSS pixel
	Quality int     `yaml:"quality"` // JPEG quality 1-100
}

// ServerConfig defines the HTTP service.
type ServerConfig struct {
	Addr         string            `yaml:"addr"`
	OutputDir    string            `yaml:"outputDir"`    // Where exports are written and served from
	BaseURL      string            `yaml:"baseURL"`      // Public URL prefix of /files, empty = relative
	MaxBodyBytes int64             `yaml:"maxBodyBytes"` // Request body cap
	ReadTimeout  yamlutil.Duration `yaml:"readTimeout"`
	WriteTimeout yamlutil.Duration `yaml:"writeTimeout"`
}

// MindmapConfig defines the HTML document built from a markdown outline.
type MindmapConfig struct {
	Template string `yaml:"template"` // Template name in assets
	Title    string `yaml:"title"`    // Default title, empty = first heading
	Lang     string `yaml:"lang"`
	D3URL    string `yaml:"d3URL"`    // Layout library dependency
	ViewURL  string `yaml:"viewURL"`  // Mind-map renderer script
	Duration int    `yaml:"duration"` // Animation duration in ms, 0 = static
	MaxWidth int    `yaml:"maxWidth"` // Node label wrap width in px, 0 = none
}

// AssetsConfig defines asset loading options.
type AssetsConfig struct {
	BasePath string `yaml:"basePath"` // Empty = use embedded assets
}

// Mind-map document defaults.
const (
	DefaultTemplate     = "mindmap"
	DefaultLang         = "en"
	DefaultD3URL        = "https://cdn.jsdelivr.net/npm/d3@7"
	DefaultViewURL      = "https://cdn.jsdelivr.net/npm/markmap-view@0.18"
	DefaultServerAddr   = "127.0.0.1:8080"
	DefaultMaxBodyBytes = 1 << 20
)

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Export: ExportConfig{
			Padding:  mindmap2pdf.DefaultPadding,
			Strategy: string(mindmap2pdf.StrategyClone),
			Theme:    mindmap2pdf.DefaultTheme,
			Fallback: SizeConfig{
				Width:  mindmap2pdf.DefaultCanvasWidth,
				Height: mindmap2pdf.DefaultCanvasHeight,
			},
			Viewport: ViewportConfig{
				Width:  mindmap2pdf.DefaultViewportWidth,
				Height: mindmap2pdf.DefaultViewportHeight,
				Scale:  1,
			},
			Selectors: SelectorsConfig{
				Container: mindmap2pdf.DefaultContainerSelector,
				Content:   mindmap2pdf.DefaultContentSelector,
			},
		},
		Settle: SettleConfig{
			Mode:        string(mindmap2pdf.SettleStable),
			Delay:       yamlutil.Duration(mindmap2pdf.DefaultSettleDelay),
			Idle:        yamlutil.Duration(mindmap2pdf.DefaultIdleWindow),
			Interval:    yamlutil.Duration(mindmap2pdf.DefaultSettleInterval),
			MaxAttempts: mindmap2pdf.DefaultSettleAttempts,
		},
		Timeouts: TimeoutsConfig{
			Navigation: yamlutil.Duration(mindmap2pdf.DefaultNavigationTimeout),
			Job:        yamlutil.Duration(mindmap2pdf.DefaultJobTimeout),
			Refit:      yamlutil.Duration(mindmap2pdf.DefaultRefitDelay),
		},
		Preview: PreviewConfig{
			Format:  "png",
			Scale:   mindmap2pdf.DefaultPreviewScale,
			Quality: mindmap2pdf.DefaultPreviewQuality,
		},
		Server: ServerConfig{
			Addr:         DefaultServerAddr,
			MaxBodyBytes: DefaultMaxBodyBytes,
			ReadTimeout:  yamlutil.Duration(30 * time.Second),
			WriteTimeout: yamlutil.Duration(5 * time.Minute),
		},
		Mindmap: MindmapConfig{
			Template: DefaultTemplate,
			Lang:     DefaultLang,
			D3URL:    DefaultD3URL,
			ViewURL:  DefaultViewURL,
		},
	}
}

// Validate checks field lengths and value ranges.
// Called automatically by LoadConfig, but available for consumers
// who construct Config manually (e.g., API adapters, library users).
func (c *Config) Validate() error {
	lengths := []struct {
		field string
		value string
		max   int
	}{
		{"export.outputDir", c.Export.OutputDir, MaxPathLength},
		{"export.theme", c.Export.Theme, MaxNameLength},
		{"export.selectors.container", c.Export.Selectors.Container, MaxSelectorLength},
		{"export.selectors.content", c.Export.Selectors.Content, MaxSelectorLength},
		{"browser.bin", c.Browser.Bin, MaxPathLength},
		{"browser.remoteURL", c.Browser.RemoteURL, MaxURLLength},
		{"server.addr", c.Server.Addr, MaxAddrLength},
		{"server.outputDir", c.Server.OutputDir, MaxPathLength},
		{"server.baseURL", c.Server.BaseURL, MaxURLLength},
		{"mindmap.template", c.Mindmap.Template, MaxNameLength},
		{"mindmap.title", c.Mindmap.Title, MaxTitleLength},
		{"mindmap.lang", c.Mindmap.Lang, MaxLangLength},
		{"mindmap.d3URL", c.Mindmap.D3URL, MaxURLLength},
		{"mindmap.viewURL", c.Mindmap.ViewURL, MaxURLLength},
		{"assets.basePath", c.Assets.BasePath, MaxPathLength},
	}
	for _, l := range lengths {
		if err := validateFieldLength(l.field, l.value, l.max); err != nil {
			return err
		}
	}

	if len(c.Browser.Flags) > MaxFlags {
		return fmt.Errorf("%w: browser.flags has %d entries (max %d)", ErrInvalidValue, len(c.Browser.Flags), MaxFlags)
	}
	for i, f := range c.Browser.Flags {
		if err := validateFieldLength(fmt.Sprintf("browser.flags[%d]", i), f, MaxFlagLength); err != nil {
			return err
		}
	}

	if c.Export.Workers < 0 || c.Export.Workers > MaxWorkers {
		return fmt.Errorf("%w: export.workers must be between 0 and %d, got %d", ErrInvalidValue, MaxWorkers, c.Export.Workers)
	}
	if c.Preview.Format != "" {
		switch strings.ToLower(c.Preview.Format) {
		case "png", "jpg", "jpeg":
			// valid
		default:
			return fmt.Errorf("%w: preview.format %q (must be png or jpg)", ErrInvalidValue, c.Preview.Format)
		}
	}
	if c.Server.MaxBodyBytes < 0 {
		return fmt.Errorf("%w: server.maxBodyBytes cannot be negative", ErrInvalidValue)
	}
	if c.Mindmap.Duration < 0 || c.Mindmap.MaxWidth < 0 {
		return fmt.Errorf("%w: mindmap.duration and mindmap.maxWidth cannot be negative", ErrInvalidValue)
	}

	// Everything the job itself checks (padding, strategy, sizes, durations)
	if err := c.Job("config.html", "config.pdf").Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidValue, err)
	}
	return nil
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// Job builds an export job for source from the configuration.
// A preview is attached when preview.enabled is set, named after output.
// Unknown strategy or settle names are passed through for Job.Validate to reject.
func (c *Config) Job(source, output string) mindmap2pdf.Job {
	strategy, err := mindmap2pdf.ParseStrategy(c.Export.Strategy)
	if err != nil {
		strategy = mindmap2pdf.Strategy(c.Export.Strategy)
	}
	mode, err := mindmap2pdf.ParseSettleMode(c.Settle.Mode)
	if err != nil {
		mode = mindmap2pdf.SettleMode(c.Settle.Mode)
	}

	job := mindmap2pdf.Job{
		Source:   source,
		Output:   output,
		Padding:  c.Export.Padding,
		Strategy: strategy,
		Theme:    c.Export.Theme,
		Settle: mindmap2pdf.SettlePolicy{
			Mode:        mode,
			Delay:       c.Settle.Delay.Std(),
			Idle:        c.Settle.Idle.Std(),
			Interval:    c.Settle.Interval.Std(),
			MaxAttempts: c.Settle.MaxAttempts,
		},
		Selectors: mindmap2pdf.Selectors{
			Container: c.Export.Selectors.Container,
			Content:   c.Export.Selectors.Content,
		},
		Viewport: mindmap2pdf.Viewport{
			Width:  c.Export.Viewport.Width,
			Height: c.Export.Viewport.Height,
			Scale:  c.Export.Viewport.Scale,
		},
		Fallback: mindmap2pdf.Size{
			Width:  c.Export.Fallback.Width,
			Height: c.Export.Fallback.Height,
		},
		NavigationTimeout: c.Timeouts.Navigation.Std(),
		Timeout:           c.Timeouts.Job.Std(),
		RefitDelay:        c.Timeouts.Refit.Std(),
	}
	if c.Preview.Enabled {
		job.Preview = c.previewFor(output)
	}
	return job
}

// previewFor names the preview after the PDF, swapping the extension.
func (c *Config) previewFor(output string) *mindmap2pdf.Preview {
	format := strings.ToLower(c.Preview.Format)
	switch format {
	case "":
		format = "png"
	case "jpeg":
		format = "jpg"
	}
	return &mindmap2pdf.Preview{
		Path:    strings.TrimSuffix(output, filepath.Ext(output)) + "." + format,
		Scale:   c.Preview.Scale,
		Quality: c.Preview.Quality,
	}
}

// BrowserConfig returns the launch settings for the session pool.
func (c *Config) BrowserConfig() mindmap2pdf.BrowserConfig {
	return mindmap2pdf.BrowserConfig{
		Bin:       c.Browser.Bin,
		NoSandbox: c.Browser.NoSandbox,
		RemoteURL: c.Browser.RemoteURL,
		Stealth:   c.Browser.Stealth,
		Flags:     c.Browser.Flags,
	}
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Fields missing from the file keep their DefaultConfig values.
// Returns error if the file is not found (no silent fallback).
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	var configPath string
	var err error

	if isFilePath(nameOrPath) {
		configPath = nameOrPath
	} else {
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yamlutil.UnmarshalStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// YAML renders the configuration as a config file.
func (c *Config) YAML() ([]byte, error) {
	return yamlutil.Marshal(c)
}

// isFilePath returns true if the string looks like a file path.
func isFilePath(s string) bool {
	return strings.ContainsAny(s, "/\\")
}

// resolveConfigPath searches for a config file by name in standard locations.
// Tries extensions in order: .yaml, .yml
// Tries locations in order: current directory, ~/.config/go-mindmap2pdf/
func resolveConfigPath(name string) (string, error) {
	extensions := []string{".yaml", ".yml"}
	triedPaths := make([]string, 0, len(extensions)*2) // 2 locations

	// Try current directory first (both extensions)
	for _, ext := range extensions {
		localPath := name + ext
		if fileExists(localPath) {
			return localPath, nil
		}
		triedPaths = append(triedPaths, localPath)
	}

	// Try user config directory (both extensions)
	userConfigDir, err := os.UserConfigDir()
	if err == nil {
		for _, ext := range extensions {
			userPath := filepath.Join(userConfigDir, "go-mindmap2pdf", name+ext)
			if fileExists(userPath) {
				return userPath, nil
			}
			triedPaths = append(triedPaths, userPath)
		}
	}

	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(triedPaths, ", "))
}

// fileExists returns true if the path exists and is a regular file.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
