package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/alnah/go-mindmap2pdf/internal/config"
	"github.com/alnah/go-mindmap2pdf/internal/yamlutil"
)

// envPrefix namespaces every variable read by the CLI.
const envPrefix = "MINDMAP2PDF_"

// ErrInvalidEnv indicates a MINDMAP2PDF_* variable could not be parsed.
var ErrInvalidEnv = errors.New("invalid environment variable")

// envConfig holds configuration from environment variables.
// Provides CI/CD-friendly overrides without requiring YAML files.
type envConfig struct {
	ConfigPath string        // MINDMAP2PDF_CONFIG: config file name or path
	Padding    *int          // MINDMAP2PDF_PADDING: px around the content box
	Strategy   string        // MINDMAP2PDF_STRATEGY: retransform, clone, viewport
	Theme      string        // MINDMAP2PDF_THEME: theme name or "none"
	Timeout    time.Duration // MINDMAP2PDF_TIMEOUT: per-job timeout
	Workers    int           // MINDMAP2PDF_WORKERS: parallel browsers
	OutputDir  string        // MINDMAP2PDF_OUTPUT_DIR: export output directory
	BrowserBin string        // MINDMAP2PDF_BROWSER_BIN: Chrome executable
}

// knownEnvVars lists valid MINDMAP2PDF_* environment variables.
// Used to detect typos and warn users about unknown variables.
var knownEnvVars = map[string]bool{
	"MINDMAP2PDF_CONFIG":      true,
	"MINDMAP2PDF_PADDING":     true,
	"MINDMAP2PDF_STRATEGY":    true,
	"MINDMAP2PDF_THEME":       true,
	"MINDMAP2PDF_TIMEOUT":     true,
	"MINDMAP2PDF_WORKERS":     true,
	"MINDMAP2PDF_OUTPUT_DIR":  true,
	"MINDMAP2PDF_BROWSER_BIN": true,
	"MINDMAP2PDF_CONTAINER":   true, // read by doctor
}

// loadDotEnv loads path into the process environment without overriding
// variables that are already set. A missing file is not an error.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// loadEnvConfig reads configuration from environment variables.
// Set but unparsable numbers and durations are reported, not ignored.
func loadEnvConfig() (*envConfig, error) {
	cfg := &envConfig{
		ConfigPath: os.Getenv("MINDMAP2PDF_CONFIG"),
		Strategy:   os.Getenv("MINDMAP2PDF_STRATEGY"),
		Theme:      os.Getenv("MINDMAP2PDF_THEME"),
		OutputDir:  os.Getenv("MINDMAP2PDF_OUTPUT_DIR"),
		BrowserBin: os.Getenv("MINDMAP2PDF_BROWSER_BIN"),
	}

	if v := os.Getenv("MINDMAP2PDF_PADDING"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil || p < 0 {
			return nil, fmt.Errorf("%w: MINDMAP2PDF_PADDING=%q", ErrInvalidEnv, v)
		}
		cfg.Padding = &p
	}

	if v := os.Getenv("MINDMAP2PDF_TIMEOUT"); v != "" {
		var d yamlutil.Duration
		if err := d.UnmarshalText([]byte(v)); err != nil || d <= 0 {
			return nil, fmt.Errorf("%w: MINDMAP2PDF_TIMEOUT=%q", ErrInvalidEnv, v)
		}
		cfg.Timeout = d.Std()
	}

	if v := os.Getenv("MINDMAP2PDF_WORKERS"); v != "" {
		w, err := strconv.Atoi(v)
		if err != nil || w < 1 {
			return nil, fmt.Errorf("%w: MINDMAP2PDF_WORKERS=%q", ErrInvalidEnv, v)
		}
		cfg.Workers = w
	}

	return cfg, nil
}

// warnUnknownEnvVars logs warnings for unrecognized MINDMAP2PDF_* variables.
// Helps catch typos like MINDMAP2PDF_PADING.
func warnUnknownEnvVars(w io.Writer) {
	var unknown []string
	for _, env := range os.Environ() {
		if strings.HasPrefix(env, envPrefix) {
			name := strings.SplitN(env, "=", 2)[0]
			if !knownEnvVars[name] {
				unknown = append(unknown, name)
			}
		}
	}
	sort.Strings(unknown)
	for _, name := range unknown {
		fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
	}
}

// applyEnvConfig applies environment variable values to config.
// Set variables override the config file; CLI flags are applied afterwards,
// giving: CLI flags > env vars > config file > defaults.
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	if env.Padding != nil {
		cfg.Export.Padding = *env.Padding
	}
	if env.Strategy != "" {
		cfg.Export.Strategy = env.Strategy
	}
	if env.Theme != "" {
		cfg.Export.Theme = env.Theme
	}
	if env.Timeout > 0 {
		cfg.Timeouts.Job = yamlutil.Duration(env.Timeout)
	}
	if env.Workers > 0 {
		cfg.Export.Workers = env.Workers
	}
	if env.OutputDir != "" {
		cfg.Export.OutputDir = env.OutputDir
	}
	if env.BrowserBin != "" {
		cfg.Browser.Bin = env.BrowserBin
	}
}

// resolveConfig loads the config file named by the flag or MINDMAP2PDF_CONFIG,
// then applies the environment overlay. Flags are merged by each command.
func resolveConfig(flagPath string) (*config.Config, error) {
	env, err := loadEnvConfig()
	if err != nil {
		return nil, err
	}

	path := flagPath
	if path == "" {
		path = env.ConfigPath
	}

	cfg := config.DefaultConfig()
	if path != "" {
		if cfg, err = config.LoadConfig(path); err != nil {
			return nil, err
		}
	}

	applyEnvConfig(env, cfg)
	return cfg, nil
}
