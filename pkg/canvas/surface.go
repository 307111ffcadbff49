// Package canvas defines the drawing surface the box generator paints on and
// the frame-tracking Canvas that drives it.
//
// A [Surface] is a page-description sink with PDF-like semantics: a y-up
// coordinate system in points with the origin at the bottom-left of the page,
// save/restore of the graphics state, and translate/rotate/scale that act on
// subsequent primitives. Concrete surfaces live in the sink package (PDF, PNG,
// SVG); [Recorder] is an in-memory surface that logs every command.
//
// [Canvas] wraps a Surface and mirrors every frame operation onto its own
// [geom.Stack], so callers can always ask for the current page-space matrix
// and the stack is checked for balance independently of the surface.
package canvas

import (
	"image"

	"github.com/matzehuels/chitboxes/pkg/geom"
)

// PaintMode selects whether a shape is filled, stroked or both.
type PaintMode int

const (
	Stroke PaintMode = 1 << iota
	Fill
	FillStroke = Fill | Stroke
)

// Fills reports whether m fills the shape.
func (m PaintMode) Fills() bool { return m&Fill != 0 }

// Strokes reports whether m strokes the shape outline.
func (m PaintMode) Strokes() bool { return m&Stroke != 0 }

// Color is an RGB color with components in [0, 1].
type Color struct {
	R, G, B float64
}

// RGB255 returns the components scaled to 0..255.
func (c Color) RGB255() (r, g, b int) {
	return to255(c.R), to255(c.G), to255(c.B)
}

func to255(v float64) int {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	}
	return int(v*255 + 0.5)
}

var (
	Black = Color{0, 0, 0}
	White = Color{1, 1, 1}
)

// Image is a read-only raster that a surface can blit.
// Key must be stable for identical pixel content so surfaces can register an
// image once and reuse it on every panel and page.
type Image interface {
	Key() string
	Image() image.Image
}

// Surface is a page-description output.
//
// Implementations apply Translate, Rotate and Scale to all later primitives
// until the matching Restore. Rotation is in degrees, counter-clockwise.
// SetDash with no arguments selects a solid line.
type Surface interface {
	Save()
	Restore()
	Translate(dx, dy float64)
	Rotate(degrees float64)
	Scale(s float64)

	SetFillColor(c Color)
	SetStrokeColor(c Color)
	SetLineWidth(w float64)
	SetDash(pattern ...float64)

	Line(x1, y1, x2, y2 float64)
	Rect(x, y, w, h float64, mode PaintMode)
	Polygon(points []geom.Point, mode PaintMode)
	// DrawImage stretches img to exactly fill the w x h rectangle whose
	// lower-left corner is (x, y). Aspect ratio is not preserved.
	DrawImage(img Image, x, y, w, h float64)
	// Text draws s horizontally centred on x with its baseline at y, using
	// a sans-serif face of the given size in points.
	Text(x, y float64, s string, size float64)

	// ShowPage ends the current page and starts a new one.
	ShowPage()
	// Close finishes the last page and flushes the document.
	Close() error
}
