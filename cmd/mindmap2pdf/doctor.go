package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/fatih/color"
	"github.com/go-rod/rod/lib/launcher"
	flag "github.com/spf13/pflag"

	"github.com/alnah/go-mindmap2pdf/internal/assets"
	"github.com/alnah/go-mindmap2pdf/internal/fileutil"
)

// Report statuses, worst last.
const (
	statusReady    = "ready"
	statusWarnings = "warnings"
	statusErrors   = "errors"
)

// doctorResult is the full diagnosis, also emitted as JSON.
type doctorResult struct {
	Status   string     `json:"status"`
	Chrome   chromeInfo `json:"chrome"`
	Env      envInfo    `json:"environment"`
	System   systemInfo `json:"system"`
	Warnings []string   `json:"warnings,omitempty"`
	Errors   []string   `json:"errors,omitempty"`
}

type chromeInfo struct {
	Found   bool   `json:"found"`
	Path    string `json:"path,omitempty"`
	Version string `json:"version,omitempty"`
	Sandbox bool   `json:"sandbox"`
}

type envInfo struct {
	OS            string `json:"os"`
	Arch          string `json:"arch"`
	Container     bool   `json:"container"`
	ContainerHint string `json:"container_hint,omitempty"`
	CI            bool   `json:"ci"`
	NoSandbox     string `json:"rod_no_sandbox"`
	BrowserBin    string `json:"browser_bin"`
}

type systemInfo struct {
	TempWritable   bool     `json:"temp_writable"`
	Themes         []string `json:"themes"`
	Config         string   `json:"config,omitempty"` // path of the loaded file, empty = defaults
	OutputDir      string   `json:"output_dir,omitempty"`
	OutputWritable bool     `json:"output_writable"`
}

func (r *doctorResult) warn(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

func (r *doctorResult) fail(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// lookChrome locates a Chrome binary. Replaced in tests.
var lookChrome = launcher.LookPath

// ciVars are set by the CI systems we know of.
var ciVars = []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "CIRCLECI"}

// runDoctorCmd diagnoses the export environment. Warnings exit 0, errors 1.
func runDoctorCmd(args []string, env *Environment) int {
	var (
		configPath string
		jsonOutput bool
	)
	fs := newFlagSet("doctor", env.Stderr, printDoctorUsage)
	fs.StringVarP(&configPath, "config", "c", "", "config file to check")
	fs.BoolVar(&jsonOutput, "json", false, "machine-readable output")
	if err := parse(fs, args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ExitSuccess
		}
		fmt.Fprintf(env.Stderr, "error: %v\n", err)
		return ExitUsage
	}

	result := runDoctor(configPath)

	if jsonOutput {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
	} else {
		printDoctorResult(env.Stdout, result, env.Interactive)
	}

	if result.Status == statusErrors {
		return ExitGeneral
	}
	return ExitSuccess
}

func runDoctor(configPath string) *doctorResult {
	r := &doctorResult{
		Env: envInfo{
			OS:         runtime.GOOS,
			Arch:       runtime.GOARCH,
			NoSandbox:  os.Getenv("ROD_NO_SANDBOX"),
			BrowserBin: browserBinFromEnv(),
		},
	}

	checkChrome(r)
	checkEnvironment(r)
	checkSystem(r)
	checkOutput(r, configPath)

	switch {
	case len(r.Errors) > 0:
		r.Status = statusErrors
	case len(r.Warnings) > 0:
		r.Status = statusWarnings
	default:
		r.Status = statusReady
	}
	return r
}

// browserBinFromEnv returns the Chrome binary configured in the environment.
func browserBinFromEnv() string {
	if bin := os.Getenv("MINDMAP2PDF_BROWSER_BIN"); bin != "" {
		return bin
	}
	return os.Getenv("ROD_BROWSER_BIN")
}

func checkChrome(r *doctorResult) {
	bin := r.Env.BrowserBin
	if bin == "" {
		path, found := lookChrome()
		if !found {
			r.fail("Chrome/Chromium not found. Install Chrome or set MINDMAP2PDF_BROWSER_BIN")
			return
		}
		bin = path
	}
	if !fileutil.FileExists(bin) {
		r.fail("Chrome not found at %s", bin)
		return
	}

	r.Chrome = chromeInfo{Found: true, Path: bin, Sandbox: r.Env.NoSandbox != "1"}

	out, err := exec.Command(bin, "--version").Output() // #nosec G204 -- path from LookPath or user env
	if err != nil {
		r.warn("Could not get Chrome version: %v", err)
		return
	}
	r.Chrome.Version = strings.TrimSpace(string(out))
}

func checkEnvironment(r *doctorResult) {
	r.Env.Container, r.Env.ContainerHint = isContainer()
	for _, v := range ciVars {
		if os.Getenv(v) != "" {
			r.Env.CI = true
			break
		}
	}

	// Chrome's sandbox needs user namespaces, which containers rarely grant.
	if (r.Env.Container || r.Env.CI) && r.Env.NoSandbox != "1" {
		r.warn("Container/CI detected but ROD_NO_SANDBOX not set. Set ROD_NO_SANDBOX=1 or use --no-sandbox")
	}
}

// isContainer reports whether we run in a container and which signal said so.
func isContainer() (bool, string) {
	switch {
	case os.Getenv("MINDMAP2PDF_CONTAINER") == "1":
		return true, "MINDMAP2PDF_CONTAINER=1"
	case fileutil.FileExists("/.dockerenv"):
		return true, "/.dockerenv"
	case os.Getenv("container") != "":
		return true, "container=" + os.Getenv("container")
	case os.Getenv("KUBERNETES_SERVICE_HOST") != "":
		return true, "KUBERNETES_SERVICE_HOST"
	}
	return false, ""
}

// checkSystem probes the temp directory, where Chrome keeps its profile, and
// the built-in themes.
func checkSystem(r *doctorResult) {
	_, cleanup, err := fileutil.WriteTempFile("probe", "tmp")
	if err != nil {
		r.fail("Temp directory not writable: %s", os.TempDir())
	} else {
		cleanup()
		r.System.TempWritable = true
	}

	r.System.Themes = assets.NewEmbeddedLoader().Themes()
	if len(r.System.Themes) == 0 {
		r.fail("No built-in themes found")
	}
}

// checkOutput loads the effective configuration and probes its output
// directory. An unset directory means "next to each source" and is skipped.
func checkOutput(r *doctorResult, configPath string) {
	if configPath == "" {
		configPath = os.Getenv("MINDMAP2PDF_CONFIG")
	}
	cfg, err := resolveConfig(configPath)
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		r.fail("Config: %v", err)
		return
	}
	r.System.Config = configPath

	dir := cfg.Export.OutputDir
	if dir == "" {
		return
	}
	r.System.OutputDir = dir
	if err := os.MkdirAll(dir, dirPermissions); err != nil {
		r.fail("Output directory %s cannot be created: %v", dir, err)
		return
	}
	probe, err := os.CreateTemp(dir, ".mindmap2pdf-doctor-*")
	if err != nil {
		r.fail("Output directory %s not writable", dir)
		return
	}
	_ = probe.Close()
	_ = os.Remove(probe.Name())
	r.System.OutputWritable = true
}

// marks colours the status labels of the human-readable report.
type marks struct {
	ok, warn, fail string
}

func newMarks(enabled bool) marks {
	paint := func(label string, attrs ...color.Attribute) string {
		c := color.New(attrs...)
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c.Sprint(label)
	}
	return marks{
		ok:   paint("[OK]", color.FgGreen),
		warn: paint("[WARN]", color.FgYellow),
		fail: paint("[ERROR]", color.FgRed, color.Bold),
	}
}

// printDoctorResult writes the human-readable report.
func printDoctorResult(w io.Writer, r *doctorResult, colored bool) {
	m := newMarks(colored)
	line := func(mark, format string, args ...any) {
		fmt.Fprintf(w, "  %s %s\n", mark, fmt.Sprintf(format, args...))
	}
	section := func(title string) {
		fmt.Fprintln(w)
		fmt.Fprintln(w, title)
	}

	fmt.Fprintln(w, "mindmap2pdf doctor")

	section("Chrome/Chromium")
	if !r.Chrome.Found {
		line(m.fail, "Not found")
	} else {
		line(m.ok, "Found at %s", r.Chrome.Path)
		if r.Chrome.Version != "" {
			line(m.ok, "Version: %s", r.Chrome.Version)
		}
		sandbox := "enabled"
		if !r.Chrome.Sandbox {
			sandbox = "disabled (ROD_NO_SANDBOX=1)"
		}
		line(m.ok, "Sandbox: %s", sandbox)
	}

	section("Environment")
	line(m.ok, "Platform: %s/%s", r.Env.OS, r.Env.Arch)
	if r.Env.Container {
		line(m.ok, "Container: detected (%s)", r.Env.ContainerHint)
	}
	if r.Env.CI {
		line(m.ok, "CI: detected")
	}

	section("System")
	if r.System.TempWritable {
		line(m.ok, "Temp directory: writable")
	} else {
		line(m.fail, "Temp directory: not writable")
	}
	if len(r.System.Themes) > 0 {
		line(m.ok, "Themes: %s", strings.Join(r.System.Themes, ", "))
	}
	if r.System.Config != "" {
		line(m.ok, "Config: %s", r.System.Config)
	}
	if r.System.OutputWritable {
		line(m.ok, "Output directory: %s (writable)", r.System.OutputDir)
	}

	for _, group := range []struct {
		title string
		mark  string
		msgs  []string
	}{
		{"Warnings:", m.warn, r.Warnings},
		{"Errors:", m.fail, r.Errors},
	} {
		if len(group.msgs) == 0 {
			continue
		}
		section(group.title)
		for _, msg := range group.msgs {
			line(group.mark, "%s", msg)
		}
	}

	fmt.Fprintln(w)
	switch r.Status {
	case statusReady:
		fmt.Fprintln(w, "Status: Ready to export")
	case statusWarnings:
		fmt.Fprintln(w, "Status: Ready with warnings")
	case statusErrors:
		fmt.Fprintln(w, "Status: Not ready (see errors above)")
	}
}
