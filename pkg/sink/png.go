package sink

import (
	"fmt"
	"image"
	"io"
	"math"

	"github.com/fogleman/gg"

	"github.com/matzehuels/chitboxes/pkg/canvas"
	"github.com/matzehuels/chitboxes/pkg/fonts"
	"github.com/matzehuels/chitboxes/pkg/geom"
)

// PreviewDPI is the default raster resolution for previews.
const PreviewDPI = 75

// PNGOption configures a PNGSurface.
type PNGOption func(*PNGSurface)

// WithDPI sets the raster resolution.
func WithDPI(dpi float64) PNGOption {
	return func(s *PNGSurface) { s.dpi = dpi }
}

// WithPage selects which page (1-based) is encoded on Close.
func WithPage(n int) PNGOption {
	return func(s *PNGSurface) { s.keep = n }
}

// WithBackground sets the page colour painted before drawing.
func WithBackground(c canvas.Color) PNGOption {
	return func(s *PNGSurface) { s.background = c }
}

// PNGSurface rasterises one page of a document with fogleman/gg and encodes
// it as PNG on Close. Pages other than the selected one are drawn into a
// scratch context and discarded.
//
// gg strokes in device pixels, so line widths and dash lengths are scaled by
// the current transform before each stroke.
type PNGSurface struct {
	out        io.Writer
	width      float64
	height     float64
	dpi        float64
	keep       int
	background canvas.Color

	dc     *gg.Context
	kept   image.Image
	frames *geom.Stack
	state  stateStack
	page   int
	closed bool
	err    error
}

// NewPNG returns a surface for pages of width x height points. Page 1 is
// encoded at [PreviewDPI] unless options say otherwise.
func NewPNG(w io.Writer, width, height float64, opts ...PNGOption) *PNGSurface {
	s := &PNGSurface{
		out:        w,
		width:      width,
		height:     height,
		dpi:        PreviewDPI,
		keep:       1,
		background: canvas.White,
		state:      newStateStack(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.beginPage()
	return s
}

// PixelSize returns the raster dimensions of one page.
func (s *PNGSurface) PixelSize() (w, h int) {
	k := s.dpi / 72
	return pixels(s.width * k), pixels(s.height * k)
}

// pixels rounds a raster extent up, ignoring float noise such as
// 792*75/72 = 825.0000000000001.
func pixels(v float64) int {
	return int(math.Ceil(v - 1e-9))
}

func (s *PNGSurface) beginPage() {
	s.page++
	w, h := s.PixelSize()
	s.dc = gg.NewContext(w, h)
	s.dc.SetRGB(s.background.R, s.background.G, s.background.B)
	s.dc.Clear()

	k := s.dpi / 72
	s.dc.InvertY()
	s.dc.Scale(k, k)
	s.frames = geom.NewStack(geom.Scale(k, k))
	s.state.reset()
}

func (s *PNGSurface) Save() {
	s.frames.Save()
	s.state.push()
	s.dc.Push()
}

func (s *PNGSurface) Restore() {
	if !s.state.pop() {
		s.fail(fmt.Errorf("restore without matching save"))
		return
	}
	s.frames.Restore()
	s.dc.Pop()
}

func (s *PNGSurface) Translate(dx, dy float64) {
	s.frames.Translate(dx, dy)
	s.dc.Translate(dx, dy)
}

func (s *PNGSurface) Rotate(degrees float64) {
	s.frames.Rotate(degrees)
	s.dc.Rotate(gg.Radians(degrees))
}

func (s *PNGSurface) Scale(f float64) {
	s.frames.Scale(f)
	s.dc.Scale(f, f)
}

func (s *PNGSurface) SetFillColor(c canvas.Color)   { s.state.cur.fill = c }
func (s *PNGSurface) SetStrokeColor(c canvas.Color) { s.state.cur.stroke = c }
func (s *PNGSurface) SetLineWidth(w float64)        { s.state.cur.width = w }

func (s *PNGSurface) SetDash(pattern ...float64) {
	s.state.cur.dash = append([]float64(nil), pattern...)
}

func (s *PNGSurface) Line(x1, y1, x2, y2 float64) {
	s.dc.DrawLine(x1, y1, x2, y2)
	s.stroke()
}

func (s *PNGSurface) Rect(x, y, w, h float64, mode canvas.PaintMode) {
	s.dc.DrawRectangle(x, y, w, h)
	s.paint(mode)
}

func (s *PNGSurface) Polygon(points []geom.Point, mode canvas.PaintMode) {
	if len(points) < 3 {
		return
	}
	for i, p := range points {
		if i == 0 {
			s.dc.MoveTo(p.X, p.Y)
		} else {
			s.dc.LineTo(p.X, p.Y)
		}
	}
	s.dc.ClosePath()
	s.paint(mode)
}

func (s *PNGSurface) paint(mode canvas.PaintMode) {
	if mode.Fills() {
		c := s.state.cur.fill
		s.dc.SetRGB(c.R, c.G, c.B)
		if mode.Strokes() {
			s.dc.FillPreserve()
		} else {
			s.dc.Fill()
			return
		}
	}
	s.stroke()
}

// stroke strokes the current path with widths converted to pixels.
func (s *PNGSurface) stroke() {
	st := s.state.cur
	f := s.frames.Current().ScaleFactor()
	s.dc.SetRGB(st.stroke.R, st.stroke.G, st.stroke.B)
	s.dc.SetLineWidth(st.width * f)
	if len(st.dash) > 0 {
		dash := make([]float64, len(st.dash))
		for i, d := range st.dash {
			dash[i] = d * f
		}
		s.dc.SetDash(dash...)
	} else {
		s.dc.SetDash()
	}
	s.dc.Stroke()
}

func (s *PNGSurface) DrawImage(img canvas.Image, x, y, w, h float64) {
	src := img.Image()
	b := src.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return
	}
	s.dc.Push()
	s.dc.Translate(x, y+h)
	s.dc.Scale(w/float64(b.Dx()), -h/float64(b.Dy()))
	s.dc.DrawImageAnchored(src, -b.Min.X, -b.Min.Y, 0, 0)
	s.dc.Pop()
}

func (s *PNGSurface) Text(x, y float64, str string, size float64) {
	face, err := fonts.Face(size, 72)
	if err != nil {
		s.fail(err)
		return
	}
	c := s.state.cur.fill
	s.dc.Push()
	s.dc.Translate(x, y)
	s.dc.Scale(1, -1)
	s.dc.SetFontFace(face)
	s.dc.SetRGB(c.R, c.G, c.B)
	s.dc.DrawStringAnchored(str, 0, 0, 0.5, 0)
	s.dc.Pop()
}

func (s *PNGSurface) ShowPage() {
	s.finishPage()
	s.beginPage()
}

func (s *PNGSurface) finishPage() {
	if s.page == s.keep {
		s.kept = s.dc.Image()
	}
}

// Image returns the selected page once it has been finished.
func (s *PNGSurface) Image() image.Image { return s.kept }

// Close finishes the last page and encodes the selected page.
func (s *PNGSurface) Close() error {
	if s.closed {
		return fmt.Errorf("png: already closed")
	}
	s.closed = true
	s.finishPage()
	if s.err != nil {
		return fmt.Errorf("png: %w", s.err)
	}
	if s.kept == nil {
		return fmt.Errorf("png: page %d was never drawn (document has %d)", s.keep, s.page)
	}
	if err := gg.NewContextForImage(s.kept).EncodePNG(s.out); err != nil {
		return fmt.Errorf("png: %w", err)
	}
	return nil
}

func (s *PNGSurface) fail(err error) {
	if s.err == nil {
		s.err = err
	}
}

var _ canvas.Surface = (*PNGSurface)(nil)
