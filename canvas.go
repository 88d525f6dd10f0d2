package mindmap2pdf

import (
	"fmt"
	"math"
)

// BoundingBox is the axis-aligned extent of the content group in local SVG
// coordinates, as reported by getBBox().
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Empty reports whether the box encloses no area at all.
func (b BoundingBox) Empty() bool {
	return b.Width <= 0 && b.Height <= 0
}

// sanitize replaces non-finite values with 0 and clamps negative sides.
func (b BoundingBox) sanitize() BoundingBox {
	clean := func(v float64) float64 {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0
		}
		return v
	}
	b.X, b.Y = clean(b.X), clean(b.Y)
	b.Width, b.Height = math.Max(clean(b.Width), 0), math.Max(clean(b.Height), 0)
	return b
}

// Measurement is the outcome of geometry extraction.
// Found is false when the page has no content group; the canvas then falls
// back to a fixed size instead of failing.
type Measurement struct {
	Box   BoundingBox `json:"box"`
	Found bool        `json:"found"`
}

// Canvas is the exportable area derived from a measurement and padding.
type Canvas struct {
	Width    int
	Height   int
	OriginX  int
	OriginY  int
	Fallback bool
}

// NewCanvas computes the normalized canvas:
//
//	Width   = ceil(box.Width)  + 2*padding
//	Height  = ceil(box.Height) + 2*padding
//	OriginX = floor(box.X) - padding
//	OriginY = floor(box.Y) - padding
//
// Absent or zero-area content yields the fallback size with origin 0,0.
// Sides are never smaller than MinCanvasSide.
func NewCanvas(m Measurement, padding int, fallback Size) Canvas {
	box := m.Box.sanitize()
	if !m.Found || box.Empty() {
		return Canvas{Width: fallback.Width, Height: fallback.Height, Fallback: true}
	}
	if padding < 0 {
		padding = 0
	}

	return Canvas{
		Width:   max(int(math.Ceil(box.Width))+2*padding, MinCanvasSide),
		Height:  max(int(math.Ceil(box.Height))+2*padding, MinCanvasSide),
		OriginX: int(math.Floor(box.X)) - padding,
		OriginY: int(math.Floor(box.Y)) - padding,
	}
}

// Size returns the canvas dimensions.
func (c Canvas) Size() Size {
	return Size{Width: c.Width, Height: c.Height}
}

// ViewBox returns the SVG viewBox value that frames the canvas.
func (c Canvas) ViewBox() string {
	return fmt.Sprintf("%d %d %d %d", c.OriginX, c.OriginY, c.Width, c.Height)
}

// contentOffset returns the content-group translation that moves the box
// origin to (padding, padding).
func contentOffset(m Measurement, padding int) (tx, ty float64) {
	box := m.Box.sanitize()
	return -box.X + float64(padding), -box.Y + float64(padding)
}

// PaperInches converts the canvas to paper inches at 96 CSS px per inch.
func (c Canvas) PaperInches() (width, height float64) {
	return float64(c.Width) / cssPixelsPerInch, float64(c.Height) / cssPixelsPerInch
}

// cssPixelsPerInch is the CSS reference resolution used by Chrome's printer.
const cssPixelsPerInch = 96.0
