package canvas

import "github.com/matzehuels/chitboxes/pkg/geom"

// Canvas forwards drawing to a Surface while tracking the current frame.
//
// Every Save must be matched by a Restore; an unmatched Restore panics with a
// *geom.UnbalancedError before the surface sees it.
type Canvas struct {
	surface Surface
	frames  *geom.Stack
}

// New returns a Canvas drawing on s with an identity page frame.
func New(s Surface) *Canvas {
	return &Canvas{surface: s, frames: geom.NewStack(geom.Identity())}
}

// Surface returns the underlying surface.
func (c *Canvas) Surface() Surface { return c.surface }

// CTM returns the current local-to-page transform.
func (c *Canvas) CTM() geom.Matrix { return c.frames.Current() }

// Depth returns the number of unmatched Save calls.
func (c *Canvas) Depth() int { return c.frames.Depth() }

// Save pushes the current frame and graphics state.
func (c *Canvas) Save() {
	c.frames.Save()
	c.surface.Save()
}

// Restore pops the frame and graphics state pushed by the matching Save.
func (c *Canvas) Restore() {
	c.frames.Restore()
	c.surface.Restore()
}

// Translate moves the local origin.
func (c *Canvas) Translate(dx, dy float64) {
	c.frames.Translate(dx, dy)
	c.surface.Translate(dx, dy)
}

// Rotate turns the local axes counter-clockwise by degrees.
func (c *Canvas) Rotate(degrees float64) {
	c.frames.Rotate(degrees)
	c.surface.Rotate(degrees)
}

// Scale scales the local axes uniformly.
func (c *Canvas) Scale(s float64) {
	c.frames.Scale(s)
	c.surface.Scale(s)
}

// Isolate runs fn between Save and Restore.
func (c *Canvas) Isolate(fn func()) {
	c.Save()
	defer c.Restore()
	fn()
}

func (c *Canvas) SetFillColor(col Color)     { c.surface.SetFillColor(col) }
func (c *Canvas) SetStrokeColor(col Color)   { c.surface.SetStrokeColor(col) }
func (c *Canvas) SetLineWidth(w float64)     { c.surface.SetLineWidth(w) }
func (c *Canvas) SetDash(pattern ...float64) { c.surface.SetDash(pattern...) }

// Line strokes a segment in local coordinates.
func (c *Canvas) Line(x1, y1, x2, y2 float64) {
	c.surface.Line(x1, y1, x2, y2)
}

// Rect paints an axis-aligned rectangle in local coordinates.
func (c *Canvas) Rect(x, y, w, h float64, mode PaintMode) {
	c.surface.Rect(x, y, w, h, mode)
}

// Polygon paints a closed polygon in local coordinates.
func (c *Canvas) Polygon(points []geom.Point, mode PaintMode) {
	c.surface.Polygon(points, mode)
}

// DrawImage stretches img into the rectangle (x, y, w, h).
func (c *Canvas) DrawImage(img Image, x, y, w, h float64) {
	c.surface.DrawImage(img, x, y, w, h)
}

// Text draws s centred on x with its baseline at y.
func (c *Canvas) Text(x, y float64, s string, size float64) {
	c.surface.Text(x, y, s, size)
}

// ShowPage ends the current page. The frame stack must be balanced.
func (c *Canvas) ShowPage() {
	if d := c.frames.Depth(); d != 0 {
		panic(&geom.UnbalancedError{Depth: d})
	}
	c.surface.ShowPage()
}

// Close finishes the document. The frame stack must be balanced.
func (c *Canvas) Close() error {
	if d := c.frames.Depth(); d != 0 {
		panic(&geom.UnbalancedError{Depth: d})
	}
	return c.surface.Close()
}
