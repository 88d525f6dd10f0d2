// Package pdfinfo inspects exported PDFs with pdfcpu.
package pdfinfo

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// PointsPerInch is the PDF user-space unit density.
const PointsPerInch = 72.0

// Sentinel errors for PDF inspection.
var (
	ErrUnreadable = errors.New("unreadable PDF")
	ErrPageCount  = errors.New("unexpected page count")
	ErrPageSize   = errors.New("unexpected page size")
)

// Info describes a PDF document.
type Info struct {
	Pages  int
	Width  float64 // first page, points
	Height float64 // first page, points
}

// Inspect reads and validates a PDF and reports its page count and first page size.
func Inspect(rs io.ReadSeeker) (Info, error) {
	conf := model.NewDefaultConfiguration()
	ctx, err := api.ReadValidateAndOptimize(rs, conf)
	if err != nil {
		return Info{}, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}

	info := Info{Pages: ctx.PageCount}
	if ctx.PageCount == 0 {
		return info, nil
	}

	dims, err := ctx.PageDims()
	if err != nil {
		return Info{}, fmt.Errorf("%w: page dimensions: %v", ErrUnreadable, err)
	}
	if len(dims) > 0 {
		info.Width, info.Height = dims[0].Width, dims[0].Height
	}
	return info, nil
}

// InspectFile is Inspect on a file path.
func InspectFile(path string) (Info, error) {
	f, err := os.Open(path) // #nosec G304 -- caller-owned output path
	if err != nil {
		return Info{}, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	defer func() { _ = f.Close() }()
	return Inspect(f)
}

// Expect describes the document an export must produce.
type Expect struct {
	Pages     int
	WidthPt   float64
	HeightPt  float64
	Tolerance float64 // points, absolute
}

// Check verifies info against e. Zero-valued expectations are skipped.
func (e Expect) Check(info Info) error {
	if e.Pages > 0 && info.Pages != e.Pages {
		return fmt.Errorf("%w: got %d, want %d", ErrPageCount, info.Pages, e.Pages)
	}
	if e.WidthPt > 0 && math.Abs(info.Width-e.WidthPt) > e.Tolerance {
		return fmt.Errorf("%w: width %.2fpt, want %.2fpt", ErrPageSize, info.Width, e.WidthPt)
	}
	if e.HeightPt > 0 && math.Abs(info.Height-e.HeightPt) > e.Tolerance {
		return fmt.Errorf("%w: height %.2fpt, want %.2fpt", ErrPageSize, info.Height, e.HeightPt)
	}
	return nil
}

// Verify inspects the file at path and checks it against e.
func Verify(path string, e Expect) (Info, error) {
	info, err := InspectFile(path)
	if err != nil {
		return Info{}, err
	}
	return info, e.Check(info)
}
