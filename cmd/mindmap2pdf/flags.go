package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/alnah/go-mindmap2pdf/internal/config"
	"github.com/alnah/go-mindmap2pdf/internal/yamlutil"
)

// ErrUsage wraps flag parsing errors.
var ErrUsage = errors.New("invalid usage")

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
}

// jobFlags holds the export settings shared by export and build.
type jobFlags struct {
	padding     int
	strategy    string
	settle      string
	settleDelay time.Duration
	theme       string
	preview     bool
	timeout     time.Duration
	navTimeout  time.Duration
	workers     int
	noSandbox   bool

	// changed reports whether a flag was given on the command line.
	changed func(name string) bool
}

// exportFlags holds all flags for the export command.
type exportFlags struct {
	common commonFlags
	job    jobFlags
	output string
}

// buildFlags holds all flags for the build command.
type buildFlags struct {
	common commonFlags
	job    jobFlags
	output string
	title  string
	export bool
}

// serveFlags holds all flags for the serve command.
type serveFlags struct {
	common    commonFlags
	addr      string
	outputDir string
	baseURL   string
	workers   int
	noSandbox bool
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show job stages and timing")
}

// addJobFlags adds export settings to a FlagSet.
func addJobFlags(fs *flag.FlagSet, f *jobFlags) {
	fs.IntVarP(&f.padding, "padding", "p", 0, "padding around the diagram in px")
	fs.StringVarP(&f.strategy, "strategy", "s", "", "canvas strategy: retransform, clone, viewport")
	fs.StringVar(&f.settle, "settle", "", "settle mode: fixed, stable")
	fs.DurationVar(&f.settleDelay, "settle-delay", 0, "settle delay; minimum wait in stable mode (e.g., 1500ms)")
	fs.StringVar(&f.theme, "theme", "", "theme name, or none to keep page styles")
	fs.BoolVar(&f.preview, "preview", false, "write a PNG preview next to the PDF")
	fs.DurationVarP(&f.timeout, "timeout", "t", 0, "per-job timeout (e.g., 30s, 2m)")
	fs.DurationVar(&f.navTimeout, "nav-timeout", 0, "navigation timeout (e.g., 20s)")
	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel browsers (0 = auto)")
	fs.BoolVar(&f.noSandbox, "no-sandbox", false, "disable the Chrome sandbox (containers)")
	f.changed = fs.Changed
}

// applyJobFlags merges explicitly set flags into cfg and validates the result.
func applyJobFlags(f *jobFlags, cfg *config.Config) error {
	if f.changed == nil {
		return cfg.Validate()
	}
	if f.changed("padding") {
		cfg.Export.Padding = f.padding
	}
	if f.changed("strategy") {
		cfg.Export.Strategy = f.strategy
	}
	if f.changed("settle") {
		cfg.Settle.Mode = f.settle
	}
	if f.changed("settle-delay") {
		cfg.Settle.Delay = yamlutil.Duration(f.settleDelay)
	}
	if f.changed("theme") {
		cfg.Export.Theme = f.theme
	}
	if f.changed("preview") {
		cfg.Preview.Enabled = f.preview
	}
	if f.changed("timeout") {
		cfg.Timeouts.Job = yamlutil.Duration(f.timeout)
	}
	if f.changed("nav-timeout") {
		cfg.Timeouts.Navigation = yamlutil.Duration(f.navTimeout)
	}
	if f.changed("workers") {
		cfg.Export.Workers = f.workers
	}
	if f.changed("no-sandbox") {
		cfg.Browser.NoSandbox = f.noSandbox
	}
	return cfg.Validate()
}

// newFlagSet creates a FlagSet whose errors and usage go to w.
func newFlagSet(name string, w io.Writer, usage func(io.Writer)) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(w)
	fs.Usage = func() { usage(w) }
	return fs
}

// parse runs fs.Parse and wraps failures in ErrUsage. flag.ErrHelp is
// returned as is.
func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	return nil
}

// parseExportFlags parses export command flags and returns positional args.
func parseExportFlags(args []string, w io.Writer) (*exportFlags, []string, error) {
	f := &exportFlags{}
	fs := newFlagSet("export", w, printExportUsage)

	fs.StringVarP(&f.output, "output", "o", "", "output PDF file or directory")
	addJobFlags(fs, &f.job)
	addCommonFlags(fs, &f.common)

	if err := parse(fs, args); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}

// parseBuildFlags parses build command flags and returns positional args.
func parseBuildFlags(args []string, w io.Writer) (*buildFlags, []string, error) {
	f := &buildFlags{}
	fs := newFlagSet("build", w, printBuildUsage)

	fs.StringVarP(&f.output, "output", "o", "", "output HTML file")
	fs.StringVar(&f.title, "title", "", "document title (default: front matter or first heading)")
	fs.BoolVarP(&f.export, "export", "e", false, "also export the document to PDF")
	addJobFlags(fs, &f.job)
	addCommonFlags(fs, &f.common)

	if err := parse(fs, args); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}

// parseServeFlags parses serve command flags.
func parseServeFlags(args []string, w io.Writer) (*serveFlags, []string, error) {
	f := &serveFlags{}
	fs := newFlagSet("serve", w, printServeUsage)

	fs.StringVarP(&f.addr, "addr", "a", "", "listen address (default from config)")
	fs.StringVarP(&f.outputDir, "output-dir", "o", "", "directory for generated files")
	fs.StringVar(&f.baseURL, "base-url", "", "public URL prefix of returned file links")
	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel browsers (0 = auto)")
	fs.BoolVar(&f.noSandbox, "no-sandbox", false, "disable the Chrome sandbox (containers)")
	addCommonFlags(fs, &f.common)

	if err := parse(fs, args); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}

// parseConfigFlags parses config command flags.
func parseConfigFlags(args []string, w io.Writer) (*commonFlags, []string, error) {
	f := &commonFlags{}
	fs := newFlagSet("config", w, printConfigUsage)
	addCommonFlags(fs, f)

	if err := parse(fs, args); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}
