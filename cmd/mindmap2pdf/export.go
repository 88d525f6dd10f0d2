package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	mindmap2pdf "github.com/alnah/go-mindmap2pdf"
	"github.com/alnah/go-mindmap2pdf/internal/config"
	"github.com/alnah/go-mindmap2pdf/internal/fileutil"
)

// dirPermissions is rwxr-x---: owner full, group read+execute.
const dirPermissions = 0o750

// defaultOutputName names the PDF of a URL with no usable path or host.
const defaultOutputName = "mindmap"

// Sentinel errors for export operations.
var (
	ErrNoInput         = errors.New("no input specified")
	ErrDuplicateOutput = errors.New("several sources map to the same output file")
	ErrCreateOutputDir = errors.New("failed to create output directory")
)

// exportTarget pairs a source with the PDF it is exported to.
type exportTarget struct {
	Source string
	Output string
}

// exportResult holds the outcome of a single export.
type exportResult struct {
	Source string
	Output string
	Result *mindmap2pdf.Result
	Err    error
}

// batchError reports failed jobs. Unwrap returns the first failure so the
// exit code follows its cause.
type batchError struct {
	Failed int
	Total  int
	First  error
}

func (e *batchError) Error() string {
	if e.Total == 1 {
		return "export failed"
	}
	return fmt.Sprintf("%d of %d exports failed", e.Failed, e.Total)
}

func (e *batchError) Unwrap() error {
	return e.First
}

// runExportCmd exports every source to a single-page PDF.
func runExportCmd(ctx context.Context, args []string, env *Environment) error {
	flags, sources, err := parseExportFlags(args, env.Stderr)
	if err != nil {
		return err
	}
	if len(sources) == 0 {
		return fmt.Errorf("%w: export needs at least one source file or URL", ErrNoInput)
	}

	cfg, err := resolveConfig(flags.common.config)
	if err != nil {
		return err
	}
	if err := applyJobFlags(&flags.job, cfg); err != nil {
		return err
	}

	targets, err := resolveTargets(sources, flags.output, cfg.Export.OutputDir)
	if err != nil {
		return err
	}
	if err := createOutputDirs(targets); err != nil {
		return err
	}

	logger := newLogger(env.Stderr, flags.common.quiet, flags.common.verbose)
	exp, err := env.NewExporter(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := exp.Close(); err != nil {
			logger.Warn("closing exporter", "error", err)
		}
	}()

	start := env.Now()
	p := newProgress(env, len(targets), "exporting", flags.common.quiet)
	results := exportBatch(ctx, exp, cfg, targets, mindmap2pdf.ResolvePoolSize(cfg.Export.Workers), p)
	if flags.common.verbose && len(results) > 1 {
		fmt.Fprintf(env.Stderr, "Batch finished in %v\n", env.Now().Sub(start).Round(time.Millisecond))
	}
	return reportResults(results, flags.common, env)
}

// exportBatch runs the targets with at most workers jobs in flight. A failed
// job does not stop the others; results keep the order of targets.
func exportBatch(ctx context.Context, exp Exporter, cfg *config.Config, targets []exportTarget, workers int, p progress) []exportResult {
	defer p.Stop()
	if len(targets) == 0 {
		return nil
	}

	results := make([]exportResult, len(targets))
	var g errgroup.Group
	g.SetLimit(max(workers, 1))

	for i, t := range targets {
		g.Go(func() error {
			defer p.Done()
			res, err := exp.Export(ctx, cfg.Job(t.Source, t.Output))
			results[i] = exportResult{Source: t.Source, Output: t.Output, Result: res, Err: err}
			return nil
		})
	}

	_ = g.Wait()
	return results
}

// resolveTargets maps sources to output paths.
// output may name a .pdf file (single source only) or a directory; when it is
// empty, outputDir is used, then the source's own directory (cwd for URLs).
// Local sources must exist.
func resolveTargets(sources []string, output, outputDir string) ([]exportTarget, error) {
	if strings.EqualFold(filepath.Ext(output), ".pdf") {
		if len(sources) != 1 {
			return nil, fmt.Errorf("%w: --output names a file but %d sources were given", ErrUsage, len(sources))
		}
		if err := checkLocalSource(sources[0]); err != nil {
			return nil, err
		}
		return []exportTarget{{Source: sources[0], Output: output}}, nil
	}

	dir := output
	if dir == "" {
		dir = outputDir
	}

	targets := make([]exportTarget, 0, len(sources))
	seen := make(map[string]string, len(sources))
	for _, src := range sources {
		if err := checkLocalSource(src); err != nil {
			return nil, err
		}

		target := dir
		if target == "" && !isRemote(src) {
			target = filepath.Dir(src)
		}
		out := filepath.Join(target, outputName(src)+".pdf")

		key := filepath.Clean(out)
		if prev, ok := seen[key]; ok {
			return nil, fmt.Errorf("%w: %s and %s both write %s", ErrDuplicateOutput, prev, src, out)
		}
		seen[key] = src
		targets = append(targets, exportTarget{Source: src, Output: out})
	}
	return targets, nil
}

// checkLocalSource reports a missing local file before any browser starts.
func checkLocalSource(src string) error {
	if isRemote(src) {
		return nil
	}
	if !fileutil.FileExists(src) {
		return fmt.Errorf("%w: %s", fileutil.ErrSourceNotFound, src)
	}
	return nil
}

// isRemote reports whether src is a URL rather than a local path.
func isRemote(src string) bool {
	return fileutil.IsURL(src) || strings.HasPrefix(src, "file://")
}

// outputName derives the PDF base name from a source path or URL.
func outputName(src string) string {
	if !isRemote(src) {
		return strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	}

	u, err := url.Parse(src)
	if err != nil {
		return defaultOutputName
	}
	name := path.Base(u.Path)
	if name == "/" || name == "." {
		name = u.Hostname()
	}
	name = strings.TrimSuffix(name, path.Ext(name))
	if name == "" {
		return defaultOutputName
	}
	return name
}

// createOutputDirs creates the parent directory of every output.
func createOutputDirs(targets []exportTarget) error {
	for _, t := range targets {
		dir := filepath.Dir(t.Output)
		if err := os.MkdirAll(dir, dirPermissions); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrCreateOutputDir, dir, err)
		}
	}
	return nil
}

// reportResults prints one line per job and returns a *batchError if any failed.
func reportResults(results []exportResult, common commonFlags, env *Environment) error {
	var failed int
	var first error

	for _, r := range results {
		if r.Err != nil {
			failed++
			if first == nil {
				first = r.Err
			}
			fmt.Fprintf(env.Stderr, "FAILED %s: %v%s\n", r.Source, r.Err, hintFor(r.Err, r.Source))
			continue
		}

		if common.quiet {
			continue
		}

		res := r.Result
		if res.Canvas.Fallback {
			fmt.Fprintf(env.Stderr, "warning: %s: no diagram content found, used %dx%d fallback canvas\n",
				r.Source, res.Canvas.Width, res.Canvas.Height)
		}
		if common.verbose {
			fmt.Fprintf(env.Stdout, "%s -> %s (%dx%d, %s, %v)\n",
				r.Source, res.Path, res.Canvas.Width, res.Canvas.Height, res.Strategy, res.Duration.Round(time.Millisecond))
		} else {
			fmt.Fprintf(env.Stdout, "Created %s\n", res.Path)
		}
		if res.PreviewPath != "" {
			fmt.Fprintf(env.Stdout, "Created %s\n", res.PreviewPath)
		}
	}

	if !common.quiet && len(results) > 1 {
		fmt.Fprintf(env.Stdout, "\n%d succeeded, %d failed\n", len(results)-failed, failed)
	}

	if failed > 0 {
		return &batchError{Failed: failed, Total: len(results), First: first}
	}
	return nil
}
