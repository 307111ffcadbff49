package canvas

import "github.com/matzehuels/chitboxes/pkg/geom"

// Op identifies a recorded drawing command.
type Op string

const (
	OpLine    Op = "line"
	OpRect    Op = "rect"
	OpPolygon Op = "polygon"
	OpImage   Op = "image"
	OpText    Op = "text"
)

// Command is one drawing primitive captured by a Recorder, together with the
// graphics state it was drawn under.
type Command struct {
	Op   Op
	Page int
	// CTM maps the command's local coordinates to page coordinates.
	CTM    geom.Matrix
	Points []geom.Point
	// W and H are set for rectangles and images.
	W, H  float64
	Mode  PaintMode
	Label string
	Image string
	Fill  Color
	Line  Color
	Width float64
	Dash  []float64
}

// PagePoints returns the command's points in page coordinates.
func (c Command) PagePoints() []geom.Point {
	out := make([]geom.Point, len(c.Points))
	for i, p := range c.Points {
		out[i] = c.CTM.Apply(p)
	}
	return out
}

type recState struct {
	fill, line Color
	width      float64
	dash       []float64
}

// Recorder is a Surface that logs every primitive instead of rendering it.
// It is used by tests and by the inspect command to trace a net back to page
// coordinates.
type Recorder struct {
	frames   *geom.Stack
	state    recState
	saved    []recState
	page     int
	closed   bool
	commands []Command
}

// NewRecorder returns an empty recorder positioned on page 0.
func NewRecorder() *Recorder {
	return &Recorder{
		frames: geom.NewStack(geom.Identity()),
		state:  recState{line: Black, fill: Black, width: 1},
	}
}

// Commands returns the recorded commands in drawing order.
func (r *Recorder) Commands() []Command { return r.commands }

// Pages returns the number of pages started so far.
func (r *Recorder) Pages() int { return r.page + 1 }

// Closed reports whether Close was called.
func (r *Recorder) Closed() bool { return r.closed }

// Depth returns the surface-side save depth.
func (r *Recorder) Depth() int { return r.frames.Depth() }

// Filter returns the commands matching op on the given page.
func (r *Recorder) Filter(page int, op Op) []Command {
	var out []Command
	for _, c := range r.commands {
		if c.Page == page && c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

func (r *Recorder) Save() {
	r.frames.Save()
	st := r.state
	st.dash = append([]float64(nil), r.state.dash...)
	r.saved = append(r.saved, st)
}

func (r *Recorder) Restore() {
	r.frames.Restore()
	n := len(r.saved)
	r.state = r.saved[n-1]
	r.saved = r.saved[:n-1]
}

func (r *Recorder) Translate(dx, dy float64) { r.frames.Translate(dx, dy) }
func (r *Recorder) Rotate(degrees float64)   { r.frames.Rotate(degrees) }
func (r *Recorder) Scale(s float64)          { r.frames.Scale(s) }

func (r *Recorder) SetFillColor(c Color)   { r.state.fill = c }
func (r *Recorder) SetStrokeColor(c Color) { r.state.line = c }
func (r *Recorder) SetLineWidth(w float64) { r.state.width = w }
func (r *Recorder) SetDash(pattern ...float64) {
	r.state.dash = append([]float64(nil), pattern...)
}

func (r *Recorder) record(c Command) {
	c.Page = r.page
	c.CTM = r.frames.Current()
	c.Fill = r.state.fill
	c.Line = r.state.line
	c.Width = r.state.width
	c.Dash = r.state.dash
	r.commands = append(r.commands, c)
}

func (r *Recorder) Line(x1, y1, x2, y2 float64) {
	r.record(Command{Op: OpLine, Points: []geom.Point{{X: x1, Y: y1}, {X: x2, Y: y2}}, Mode: Stroke})
}

func (r *Recorder) Rect(x, y, w, h float64, mode PaintMode) {
	r.record(Command{
		Op:     OpRect,
		Points: []geom.Point{{X: x, Y: y}, {X: x + w, Y: y}, {X: x + w, Y: y + h}, {X: x, Y: y + h}},
		W:      w,
		H:      h,
		Mode:   mode,
	})
}

func (r *Recorder) Polygon(points []geom.Point, mode PaintMode) {
	r.record(Command{Op: OpPolygon, Points: append([]geom.Point(nil), points...), Mode: mode})
}

func (r *Recorder) DrawImage(img Image, x, y, w, h float64) {
	r.record(Command{
		Op:     OpImage,
		Points: []geom.Point{{X: x, Y: y}, {X: x + w, Y: y}, {X: x + w, Y: y + h}, {X: x, Y: y + h}},
		W:      w,
		H:      h,
		Mode:   Fill,
		Image:  img.Key(),
	})
}

func (r *Recorder) Text(x, y float64, s string, size float64) {
	r.record(Command{Op: OpText, Points: []geom.Point{{X: x, Y: y}}, Label: s, H: size, Mode: Fill})
}

func (r *Recorder) ShowPage() {
	r.page++
	r.frames = geom.NewStack(geom.Identity())
	r.saved = nil
}

func (r *Recorder) Close() error {
	r.closed = true
	return nil
}

var _ Surface = (*Recorder)(nil)
