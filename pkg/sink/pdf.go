package sink

import (
	"bytes"
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"

	"github.com/matzehuels/chitboxes/pkg/canvas"
	"github.com/matzehuels/chitboxes/pkg/geom"
)

// PDFOption configures a PDFSurface.
type PDFOption func(*PDFSurface)

// WithTitle sets the document title metadata.
func WithTitle(title string) PDFOption {
	return func(s *PDFSurface) { s.title = title }
}

// WithCompression toggles content stream compression (on by default).
func WithCompression(on bool) PDFOption {
	return func(s *PDFSurface) { s.compress = on }
}

const labelFont = "Helvetica"

// PDFSurface renders to a multi-page PDF document using go-pdf/fpdf.
//
// fpdf works in a y-down page space; every primitive is flipped here so that
// callers see the PDF-native y-up space. Frame operations are emitted as raw
// "cm" operators, which fpdf passes through unchanged.
type PDFSurface struct {
	pdf    *fpdf.Fpdf
	out    io.Writer
	width  float64
	height float64

	title    string
	compress bool

	state  stateStack
	images map[string]string
	pages  int
	closed bool
}

// NewPDF returns a surface that writes a PDF with pages of width x height
// points to w when closed. The first page is already open.
func NewPDF(w io.Writer, width, height float64, opts ...PDFOption) *PDFSurface {
	s := &PDFSurface{
		out:      w,
		width:    width,
		height:   height,
		compress: true,
		state:    newStateStack(),
		images:   make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.pdf = fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: width, Ht: height},
	})
	s.pdf.SetMargins(0, 0, 0)
	s.pdf.SetAutoPageBreak(false, 0)
	s.pdf.SetCompression(s.compress)
	s.pdf.SetCreator("chitboxes", true)
	if s.title != "" {
		s.pdf.SetTitle(s.title, true)
	}
	s.pdf.SetFont(labelFont, "", 12)
	s.beginPage()
	return s
}

// Pages returns the number of pages started so far.
func (s *PDFSurface) Pages() int { return s.pages }

func (s *PDFSurface) beginPage() {
	s.pdf.AddPage()
	s.pdf.TransformBegin()
	s.pages++
	s.state.reset()
	s.applyState()
}

// applyState re-emits the tracked graphics state. fpdf remembers the last
// colours it was given and does not know that a "Q" operator reverted them.
func (s *PDFSurface) applyState() {
	st := s.state.cur
	s.pdf.SetFillColor(st.fill.RGB255())
	s.pdf.SetTextColor(st.fill.RGB255())
	s.pdf.SetDrawColor(st.stroke.RGB255())
	s.pdf.SetLineWidth(st.width)
	s.pdf.SetDashPattern(st.dash, 0)
}

func (s *PDFSurface) Save() {
	s.state.push()
	s.pdf.TransformBegin()
}

func (s *PDFSurface) Restore() {
	if !s.state.pop() {
		s.pdf.SetError(fmt.Errorf("restore without matching save"))
		return
	}
	s.pdf.TransformEnd()
	s.applyState()
}

func (s *PDFSurface) Translate(dx, dy float64) {
	s.pdf.Transform(fpdf.TransformMatrix{A: 1, D: 1, E: dx, F: dy})
}

func (s *PDFSurface) Rotate(degrees float64) {
	m := geom.Rotate(degrees)
	s.pdf.Transform(fpdf.TransformMatrix{A: m[0], B: m[1], C: m[2], D: m[3]})
}

func (s *PDFSurface) Scale(f float64) {
	s.pdf.Transform(fpdf.TransformMatrix{A: f, D: f})
}

func (s *PDFSurface) SetFillColor(c canvas.Color) {
	s.state.cur.fill = c
	s.pdf.SetFillColor(c.RGB255())
	s.pdf.SetTextColor(c.RGB255())
}

func (s *PDFSurface) SetStrokeColor(c canvas.Color) {
	s.state.cur.stroke = c
	s.pdf.SetDrawColor(c.RGB255())
}

func (s *PDFSurface) SetLineWidth(w float64) {
	s.state.cur.width = w
	s.pdf.SetLineWidth(w)
}

func (s *PDFSurface) SetDash(pattern ...float64) {
	s.state.cur.dash = append([]float64(nil), pattern...)
	s.pdf.SetDashPattern(s.state.cur.dash, 0)
}

// y converts a y-up coordinate to fpdf's y-down page space.
func (s *PDFSurface) y(v float64) float64 { return s.height - v }

func (s *PDFSurface) Line(x1, y1, x2, y2 float64) {
	s.pdf.Line(x1, s.y(y1), x2, s.y(y2))
}

func (s *PDFSurface) Rect(x, y, w, h float64, mode canvas.PaintMode) {
	s.pdf.Rect(x, s.y(y)-h, w, h, pdfStyle(mode))
}

func (s *PDFSurface) Polygon(points []geom.Point, mode canvas.PaintMode) {
	pts := make([]fpdf.PointType, len(points))
	for i, p := range points {
		pts[i] = fpdf.PointType{X: p.X, Y: s.y(p.Y)}
	}
	s.pdf.Polygon(pts, pdfStyle(mode))
}

func (s *PDFSurface) DrawImage(img canvas.Image, x, y, w, h float64) {
	name, ok := s.images[img.Key()]
	if !ok {
		data, err := encodedPNG(img)
		if err != nil {
			s.pdf.SetError(fmt.Errorf("encode image: %w", err))
			return
		}
		name = fmt.Sprintf("img%d", len(s.images))
		s.pdf.RegisterImageOptionsReader(name, fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(data))
		s.images[img.Key()] = name
	}
	s.pdf.ImageOptions(name, x, s.y(y)-h, w, h, false,
		fpdf.ImageOptions{ImageType: "PNG", AllowNegativePosition: true}, 0, "")
}

func (s *PDFSurface) Text(x, y float64, str string, size float64) {
	s.pdf.SetFontSize(size)
	s.pdf.Text(x-s.pdf.GetStringWidth(str)/2, s.y(y), str)
}

func (s *PDFSurface) ShowPage() {
	s.pdf.TransformEnd()
	s.beginPage()
}

// Close ends the last page and writes the document.
func (s *PDFSurface) Close() error {
	if s.closed {
		return fmt.Errorf("pdf: already closed")
	}
	s.closed = true
	s.pdf.TransformEnd()
	if err := s.pdf.Output(s.out); err != nil {
		return fmt.Errorf("pdf: %w", err)
	}
	return nil
}

func pdfStyle(mode canvas.PaintMode) string {
	switch {
	case mode.Fills() && mode.Strokes():
		return "FD"
	case mode.Fills():
		return "F"
	default:
		return "D"
	}
}

var _ canvas.Surface = (*PDFSurface)(nil)
