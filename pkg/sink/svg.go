package sink

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"math"
	"strconv"

	svg "github.com/ajstarks/svgo"

	"github.com/matzehuels/chitboxes/pkg/canvas"
	"github.com/matzehuels/chitboxes/pkg/fonts"
	"github.com/matzehuels/chitboxes/pkg/geom"
)

// PageGap is the vertical space in points between stacked pages.
const PageGap = 18

// SVGOption configures an SVGSurface.
type SVGOption func(*SVGSurface)

// WithEmbeddedFont embeds the label font as an @font-face rule so labels
// render identically without the font installed.
func WithEmbeddedFont() SVGOption {
	return func(s *SVGSurface) { s.embedFont = true }
}

// SVGSurface writes every page of a document into one SVG, stacked top to
// bottom. svgo only takes integer coordinates, so the document is laid out in
// hundredths of a point.
type SVGSurface struct {
	out       io.Writer
	width     float64
	height    float64
	embedFont bool

	body  bytes.Buffer
	doc   *svg.SVG
	state stateStack
	// open counts transform groups opened since the last Save; outer holds
	// the counts of enclosing Saves.
	open   int
	outer  []int
	images map[string]string
	pages  int
	closed bool
	err    error
}

// NewSVG returns a surface for pages of width x height points.
func NewSVG(w io.Writer, width, height float64, opts ...SVGOption) *SVGSurface {
	s := &SVGSurface{
		out:    w,
		width:  width,
		height: height,
		state:  newStateStack(),
		images: make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.doc = svg.New(&s.body)
	s.beginPage()
	return s
}

// cp converts points to the integer document unit.
func cp(v float64) int { return int(math.Round(v * 100)) }

func num(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

func rgb(c canvas.Color) string {
	r, g, b := c.RGB255()
	return fmt.Sprintf("rgb(%d,%d,%d)", r, g, b)
}

func (s *SVGSurface) beginPage() {
	top := float64(s.pages) * (s.height + PageGap)
	s.pages++
	s.doc.Group(fmt.Sprintf(`id="page-%d"`, s.pages))
	s.doc.Rect(0, cp(top), cp(s.width), cp(s.height), "fill:white;stroke:#bbbbbb;stroke-width:50")
	s.doc.Gtransform(fmt.Sprintf("translate(0,%d) scale(1,-1)", cp(top+s.height)))
	s.state.reset()
	s.open, s.outer = 0, s.outer[:0]
}

func (s *SVGSurface) endPage() {
	s.closeGroups()
	for len(s.outer) > 0 {
		s.open = s.outer[len(s.outer)-1]
		s.outer = s.outer[:len(s.outer)-1]
		s.closeGroups()
	}
	s.doc.Gend() // flip
	s.doc.Gend() // page
}

func (s *SVGSurface) closeGroups() {
	for ; s.open > 0; s.open-- {
		s.doc.Gend()
	}
}

func (s *SVGSurface) Save() {
	s.state.push()
	s.outer = append(s.outer, s.open)
	s.open = 0
}

func (s *SVGSurface) Restore() {
	if !s.state.pop() {
		s.fail(fmt.Errorf("restore without matching save"))
		return
	}
	s.closeGroups()
	s.open = s.outer[len(s.outer)-1]
	s.outer = s.outer[:len(s.outer)-1]
}

func (s *SVGSurface) transform(t string) {
	s.doc.Gtransform(t)
	s.open++
}

func (s *SVGSurface) Translate(dx, dy float64) {
	s.transform(fmt.Sprintf("translate(%d,%d)", cp(dx), cp(dy)))
}

func (s *SVGSurface) Rotate(degrees float64) {
	s.transform("rotate(" + num(degrees) + ")")
}

func (s *SVGSurface) Scale(f float64) {
	s.transform("scale(" + num(f) + ")")
}

func (s *SVGSurface) SetFillColor(c canvas.Color)   { s.state.cur.fill = c }
func (s *SVGSurface) SetStrokeColor(c canvas.Color) { s.state.cur.stroke = c }
func (s *SVGSurface) SetLineWidth(w float64)        { s.state.cur.width = w }

func (s *SVGSurface) SetDash(pattern ...float64) {
	s.state.cur.dash = append([]float64(nil), pattern...)
}

func (s *SVGSurface) strokeStyle() string {
	st := s.state.cur
	style := fmt.Sprintf("stroke:%s;stroke-width:%d", rgb(st.stroke), cp(st.width))
	if len(st.dash) > 0 {
		style += ";stroke-dasharray:"
		for i, d := range st.dash {
			if i > 0 {
				style += ","
			}
			style += strconv.Itoa(cp(d))
		}
	}
	return style
}

func (s *SVGSurface) paintStyle(mode canvas.PaintMode) string {
	fill := "fill:none"
	if mode.Fills() {
		fill = "fill:" + rgb(s.state.cur.fill)
	}
	if !mode.Strokes() {
		return fill + ";stroke:none"
	}
	return fill + ";" + s.strokeStyle()
}

func (s *SVGSurface) Line(x1, y1, x2, y2 float64) {
	s.doc.Line(cp(x1), cp(y1), cp(x2), cp(y2), s.strokeStyle())
}

func (s *SVGSurface) Rect(x, y, w, h float64, mode canvas.PaintMode) {
	if w < 0 {
		x, w = x+w, -w
	}
	if h < 0 {
		y, h = y+h, -h
	}
	s.doc.Rect(cp(x), cp(y), cp(w), cp(h), s.paintStyle(mode))
}

func (s *SVGSurface) Polygon(points []geom.Point, mode canvas.PaintMode) {
	xs := make([]int, len(points))
	ys := make([]int, len(points))
	for i, p := range points {
		xs[i], ys[i] = cp(p.X), cp(p.Y)
	}
	s.doc.Polygon(xs, ys, s.paintStyle(mode))
}

// DrawImage defines each distinct image once as a unit square and places it
// with a scaled <use>.
func (s *SVGSurface) DrawImage(img canvas.Image, x, y, w, h float64) {
	id, ok := s.images[img.Key()]
	if !ok {
		data, err := encodedPNG(img)
		if err != nil {
			s.fail(fmt.Errorf("encode image: %w", err))
			return
		}
		id = fmt.Sprintf("img%d", len(s.images))
		s.doc.Def()
		s.doc.Image(0, 0, 1, 1, "data:image/png;base64,"+base64.StdEncoding.EncodeToString(data),
			`id="`+id+`"`, `preserveAspectRatio="none"`)
		s.doc.DefEnd()
		s.images[img.Key()] = id
	}
	s.doc.Use(0, 0, "#"+id,
		fmt.Sprintf(`transform="translate(%d,%d) scale(%d,%d)"`, cp(x), cp(y+h), cp(w), -cp(h)))
}

func (s *SVGSurface) Text(x, y float64, str string, size float64) {
	s.doc.Gtransform(fmt.Sprintf("translate(%d,%d) scale(1,-1)", cp(x), cp(y)))
	s.doc.Text(0, 0, str,
		`text-anchor="middle"`,
		fmt.Sprintf(`font-size="%d"`, cp(size)),
		`font-family="`+fonts.FallbackFontFamily+`"`,
		"fill:"+rgb(s.state.cur.fill))
	s.doc.Gend()
}

func (s *SVGSurface) ShowPage() {
	s.endPage()
	s.beginPage()
}

// Close finishes the last page and writes the whole document.
func (s *SVGSurface) Close() error {
	if s.closed {
		return fmt.Errorf("svg: already closed")
	}
	s.closed = true
	s.endPage()
	if s.err != nil {
		return fmt.Errorf("svg: %w", s.err)
	}

	total := float64(s.pages)*s.height + float64(s.pages-1)*PageGap
	root := svg.New(s.out)
	root.StartviewUnit(int(math.Ceil(s.width)), int(math.Ceil(total)), "pt", 0, 0, cp(s.width), cp(total))
	if s.embedFont {
		root.Style("text/css", fmt.Sprintf(
			"@font-face { font-family: '%s'; src: url(data:font/ttf;base64,%s) format('truetype'); }",
			fonts.FontFamily, fonts.TTFBase64()))
	}
	if _, err := s.out.Write(s.body.Bytes()); err != nil {
		return fmt.Errorf("svg: %w", err)
	}
	root.End()
	return nil
}

// Pages returns the number of pages started so far.
func (s *SVGSurface) Pages() int { return s.pages }

func (s *SVGSurface) fail(err error) {
	if s.err == nil {
		s.err = err
	}
}

var _ canvas.Surface = (*SVGSurface)(nil)
