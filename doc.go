// Package mindmap2pdf exports browser-rendered SVG mind maps to tightly
// cropped, single-page PDFs using headless Chrome.
//
// # Quick Start
//
// Create an exporter, export a page, and close when done:
//
//	exp, err := mindmap2pdf.NewExporter()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer exp.Close()
//
//	res, err := exp.Export(ctx, mindmap2pdf.NewJob("map.html", "map.pdf"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(res.Canvas.Width, res.Canvas.Height)
//
// # Export Pipeline
//
// Each job runs these stages on its own browser tab:
//
//  1. Navigate: load the source (URL or local file) and wait for network idle
//  2. Settle: wait for the layout library to finish (fixed delay or until stable)
//  3. Measure: read the bounding box of the content group (default "svg > g")
//  4. Normalize: make the exportable area equal the box plus padding
//  5. Render: print one page of exactly that size, backgrounds included
//
// A page without content is exported at the fallback size (1920x1080) rather
// than failing. Fatal errors are *StageError values: errors.As exposes the
// stage, errors.Is reaches the sentinel (ErrNavigationTimeout, ErrRender...).
// A source that is unreachable and one that loads too slowly are told apart
// by ErrSourceUnreachable and ErrNavigationTimeout; ErrNavigation matches both.
//
// # Normalization Strategies
//
//   - StrategyClone (default): replace the body with an inert clone of the
//     diagram framed by a viewBox. Scripts still bound to the original
//     diagram cannot alter the export.
//   - StrategyRetransform: translate the content group in place and size the
//     container to the canvas.
//   - StrategyViewport: resize the viewport to the canvas and let the layout
//     library refit.
//
// # Parallel Processing
//
// An Exporter owns a SessionPool of lazily launched browsers. Export is safe
// for concurrent use; jobs beyond the pool size wait for a free browser:
//
//	exp, err := mindmap2pdf.NewExporter(mindmap2pdf.WithPoolSize(4))
//
// # Browser Requirements
//
// Exporting requires Chrome/Chromium. The go-rod library automatically
// downloads a managed Chromium instance on first run (~/.cache/rod/browser/).
//
// For containers and CI environments, set ROD_NO_SANDBOX=1 to disable the
// Chrome sandbox. Use ROD_BROWSER_BIN to specify a custom Chrome binary.
package mindmap2pdf
