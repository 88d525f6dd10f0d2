package mindmap2pdf

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/go-rod/rod/lib/proto"

	"github.com/alnah/go-mindmap2pdf/internal/fileutil"
	"github.com/alnah/go-mindmap2pdf/internal/pdfinfo"
)

// pageSizeTolerance absorbs Chrome's rounding of paper sizes to device units.
const pageSizeTolerance = 2.0 // points

// pdfVerifier checks a freshly printed PDF before it replaces the output.
type pdfVerifier interface {
	Verify(path string, canvas Canvas) error
}

// pdfcpuVerifier requires exactly one page whose size matches the canvas.
type pdfcpuVerifier struct{}

func (pdfcpuVerifier) Verify(path string, canvas Canvas) error {
	w, h := canvas.PaperInches()
	_, err := pdfinfo.Verify(path, pdfinfo.Expect{
		Pages:     1,
		WidthPt:   w * pdfinfo.PointsPerInch,
		HeightPt:  h * pdfinfo.PointsPerInch,
		Tolerance: pageSizeTolerance,
	})
	return err
}

// printOptions builds a single-page, margin-free print request whose paper
// matches the canvas exactly.
func printOptions(canvas Canvas) *proto.PagePrintToPDF {
	w, h := canvas.PaperInches()
	return &proto.PagePrintToPDF{
		PaperWidth:      floatPtr(w),
		PaperHeight:     floatPtr(h),
		MarginTop:       floatPtr(0),
		MarginBottom:    floatPtr(0),
		MarginLeft:      floatPtr(0),
		MarginRight:     floatPtr(0),
		PrintBackground: true,
		PageRanges:      "1",
	}
}

// previewOptions clips a screenshot to the canvas at the requested density.
func previewOptions(canvas Canvas, p *Preview) (*proto.PageCaptureScreenshot, error) {
	format, err := previewFormat(p.Path)
	if err != nil {
		return nil, err
	}

	req := &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
		Clip: &proto.PageViewport{
			Width:  float64(canvas.Width),
			Height: float64(canvas.Height),
			Scale:  p.Scale,
		},
		CaptureBeyondViewport: true,
	}
	if format == "jpeg" {
		req.Format = proto.PageCaptureScreenshotFormatJpeg
		req.Quality = intPtr(p.Quality)
	}
	return req, nil
}

// render prints the normalized page to job.Output and, if requested, writes
// the preview. Both files appear only once everything succeeded.
func render(ctx context.Context, t tab, job Job, canvas Canvas, verifier pdfVerifier) (previewPath string, err error) {
	if canvas.Width > MaxCanvasSide || canvas.Height > MaxCanvasSide {
		return "", fmt.Errorf("%w: canvas %dx%d exceeds %d px per side", ErrRender, canvas.Width, canvas.Height, MaxCanvasSide)
	}

	pdf, err := fileutil.NewAtomicFile(job.Output)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRender, err)
	}
	defer pdf.Abort()

	stream, err := t.PrintPDF(ctx, printOptions(canvas))
	if err != nil {
		return "", renderError(ctx, "printing", err)
	}
	if _, err := io.Copy(pdf, stream); err != nil {
		return "", renderError(ctx, "streaming", err)
	}
	if err := pdf.Sync(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrRender, err)
	}
	if err := verifier.Verify(pdf.Name(), canvas); err != nil {
		return "", fmt.Errorf("%w: verifying output: %v", ErrRender, err)
	}

	var preview *fileutil.AtomicFile
	if job.Preview != nil {
		preview, err = capturePreview(ctx, t, canvas, job.Preview)
		if err != nil {
			return "", err
		}
		defer preview.Abort()
	}

	// Last chance to honor cancellation before anything becomes visible
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if preview != nil {
		if err := preview.Commit(); err != nil {
			return "", fmt.Errorf("%w: %v", ErrRender, err)
		}
		previewPath = preview.Target()
	}
	if err := pdf.Commit(); err != nil {
		if previewPath != "" {
			_ = os.Remove(previewPath)
		}
		return "", fmt.Errorf("%w: %v", ErrRender, err)
	}
	return previewPath, nil
}

// capturePreview screenshots the canvas into an uncommitted file.
func capturePreview(ctx context.Context, t tab, canvas Canvas, p *Preview) (*fileutil.AtomicFile, error) {
	req, err := previewOptions(canvas, p)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRender, err)
	}

	img, err := t.Screenshot(ctx, req)
	if err != nil {
		return nil, renderError(ctx, "capturing preview", err)
	}

	f, err := fileutil.NewAtomicFile(p.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRender, err)
	}
	if _, err := f.Write(img); err != nil {
		f.Abort()
		return nil, fmt.Errorf("%w: writing preview: %v", ErrRender, err)
	}
	return f, nil
}

func renderError(ctx context.Context, step string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return fmt.Errorf("%w: %s: %v", ErrRender, step, err)
}

func floatPtr(v float64) *float64 { return &v }

func intPtr(v int) *int { return &v }
