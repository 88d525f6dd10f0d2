package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mindmap2pdf <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  export     Export diagram pages to single-page PDFs")
	fmt.Fprintln(w, "  build      Build a mind-map HTML document from a markdown outline")
	fmt.Fprintln(w, "  serve      Run the HTTP export service")
	fmt.Fprintln(w, "  config     Print the effective configuration")
	fmt.Fprintln(w, "  doctor     Check Chrome and the environment")
	fmt.Fprintln(w, "  version    Show version information")
	fmt.Fprintln(w, "  help       Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'mindmap2pdf help <command>' for details on a specific command.")
}

// printJobFlags prints the export settings shared by export and build.
func printJobFlags(w io.Writer) {
	fmt.Fprintln(w, "Canvas:")
	fmt.Fprintln(w, "  -p, --padding <px>        Padding around the diagram (default: 60)")
	fmt.Fprintln(w, "  -s, --strategy <name>     retransform, clone, viewport (default: clone)")
	fmt.Fprintln(w, "      --theme <name>        Theme: light, dark, sepia, none (default: light)")
	fmt.Fprintln(w, "      --preview             Write a PNG preview next to the PDF")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Timing:")
	fmt.Fprintln(w, "      --settle <mode>       stable (poll the layout) or fixed (wait)")
	fmt.Fprintln(w, "      --settle-delay <dur>  Fixed wait, or minimum wait when stable (e.g., 1500ms)")
	fmt.Fprintln(w, "      --nav-timeout <dur>   Navigation timeout (e.g., 20s)")
	fmt.Fprintln(w, "  -t, --timeout <dur>       Per-job timeout (e.g., 30s, 2m)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Browser:")
	fmt.Fprintln(w, "  -w, --workers <n>         Parallel browsers (0 = auto)")
	fmt.Fprintln(w, "      --no-sandbox          Disable the Chrome sandbox (containers)")
	fmt.Fprintln(w)
}

// printCommonFlags prints flags shared by every command.
func printCommonFlags(w io.Writer) {
	fmt.Fprintln(w, "Common:")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Show job stages and timing")
}

// printExportUsage prints usage for the export command.
func printExportUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mindmap2pdf export <source>... [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Export diagram pages to single-page PDFs sized to the diagram.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Arguments:")
	fmt.Fprintln(w, "  source    HTML file, file:// URL, or http(s) URL")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output:")
	fmt.Fprintln(w, "  -o, --output <path>       Output PDF (one source) or directory")
	fmt.Fprintln(w)
	printJobFlags(w)
	printCommonFlags(w)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintln(w, "  MINDMAP2PDF_CONFIG, MINDMAP2PDF_PADDING, MINDMAP2PDF_STRATEGY, MINDMAP2PDF_THEME,")
	fmt.Fprintln(w, "  MINDMAP2PDF_TIMEOUT, MINDMAP2PDF_WORKERS, MINDMAP2PDF_OUTPUT_DIR, MINDMAP2PDF_BROWSER_BIN")
	fmt.Fprintln(w, "  Flags override environment, environment overrides the config file.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Examples:")
	fmt.Fprintln(w, "  mindmap2pdf export map.html")
	fmt.Fprintln(w, "  mindmap2pdf export https://example.com/map.html -o out/ --padding 40")
	fmt.Fprintln(w, "  mindmap2pdf export a.html b.html -w 2 --strategy viewport")
}

// printBuildUsage prints usage for the build command.
func printBuildUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mindmap2pdf build <outline.md> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Build a mind-map HTML document from a markdown outline.")
	fmt.Fprintln(w, "Headings and list items become nodes; front matter may set title, lang")
	fmt.Fprintln(w, "and markmap.maxWidth.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output:")
	fmt.Fprintln(w, "  -o, --output <file>       Output HTML (default: outline name with .html)")
	fmt.Fprintln(w, "      --title <text>        Document title")
	fmt.Fprintln(w, "  -e, --export              Also export the document to PDF")
	fmt.Fprintln(w)
	printJobFlags(w)
	printCommonFlags(w)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Examples:")
	fmt.Fprintln(w, "  mindmap2pdf build notes.md")
	fmt.Fprintln(w, "  mindmap2pdf build notes.md -o out/notes.html --export --theme dark")
}

// printServeUsage prints usage for the serve command.
func printServeUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mindmap2pdf serve [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run the HTTP export service.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Routes:")
	fmt.Fprintln(w, "  POST /v1/exports    Export an http(s) diagram page")
	fmt.Fprintln(w, "  POST /v1/mindmaps   Build a mind map from markdown and export it")
	fmt.Fprintln(w, "  GET  /files/*       Generated documents")
	fmt.Fprintln(w, "  GET  /healthz       Liveness and pool usage")
	fmt.Fprintln(w, "  GET  /metrics       Prometheus metrics")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -a, --addr <host:port>    Listen address (default: 127.0.0.1:8080)")
	fmt.Fprintln(w, "  -o, --output-dir <dir>    Directory for generated files (default: output)")
	fmt.Fprintln(w, "      --base-url <url>      Public URL prefix of returned file links")
	fmt.Fprintln(w, "  -w, --workers <n>         Parallel browsers (0 = auto)")
	fmt.Fprintln(w, "      --no-sandbox          Disable the Chrome sandbox (containers)")
	fmt.Fprintln(w)
	printCommonFlags(w)
}

// printConfigUsage prints usage for the config command.
func printConfigUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mindmap2pdf config [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Print the effective configuration as YAML: defaults, then the config")
	fmt.Fprintln(w, "file, then MINDMAP2PDF_* variables. The output is a valid config file.")
	fmt.Fprintln(w)
	printCommonFlags(w)
}

// printDoctorUsage prints usage for the doctor command.
func printDoctorUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mindmap2pdf doctor [-c config] [--json]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Check Chrome, the container or CI environment, the temp directory,")
	fmt.Fprintln(w, "the effective configuration and its output directory.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -c, --config string   Config file to check")
	fmt.Fprintln(w, "      --json            Machine-readable output")
}

// runHelp prints help for a specific command and returns an exit code.
func runHelp(args []string, env *Environment) int {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return ExitSuccess
	}

	switch args[0] {
	case "export":
		printExportUsage(env.Stdout)
	case "build":
		printBuildUsage(env.Stdout)
	case "serve":
		printServeUsage(env.Stdout)
	case "config":
		printConfigUsage(env.Stdout)
	case "doctor":
		printDoctorUsage(env.Stdout)
	case "version":
		fmt.Fprintln(env.Stdout, "Usage: mindmap2pdf version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case "help":
		fmt.Fprintln(env.Stdout, "Usage: mindmap2pdf help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n", args[0])
		printUsage(env.Stderr)
		return ExitUsage
	}
	return ExitSuccess
}
