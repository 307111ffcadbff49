package chitbox

import (
	"github.com/matzehuels/chitboxes/pkg/canvas"
	"github.com/matzehuels/chitboxes/pkg/geom"
)

// Annotation sizes.
var (
	tickLength  = Cm(0.6)
	arrowGap    = Cm(0.2)
	arrowRadius = Cm(0.1)
)

const annotationLineWidth = 0.1

// SquareFootprint is a box whose width equals its height. The fold and cut
// tick positions are only derived for this case, so annotation is only
// reachable through Dimensions.Square.
type SquareFootprint struct {
	dims Dimensions
}

// Dimensions returns the box dimensions.
func (s SquareFootprint) Dimensions() Dimensions { return s.dims }

// Annotate draws the cut markers and fold ticks in the net frame and returns
// the number of strokes drawn.
func (s SquareFootprint) Annotate(c *canvas.Canvas) int {
	a := annotator{c: c, dims: s.dims}
	c.SetLineWidth(annotationLineWidth)

	c.Isolate(func() {
		a.cutLines()
		c.Rotate(180)
		a.cutLines()
	})
	c.Isolate(func() {
		c.Rotate(90)
		a.sideFoldLines()
		c.Rotate(180)
		a.sideFoldLines()
	})
	c.Isolate(func() {
		a.topFoldLines()
		c.Rotate(180)
		a.topFoldLines()
	})
	return a.strokes
}

type annotator struct {
	c       *canvas.Canvas
	dims    Dimensions
	strokes int
}

func (a *annotator) tick() {
	a.c.Line(0, 0, 0, tickLength)
	a.strokes++
}

func (a *annotator) arrowHead() {
	a.c.Polygon([]geom.Point{
		geom.Pt(-arrowRadius, tickLength),
		geom.Pt(0, 0),
		geom.Pt(arrowRadius, tickLength),
	}, canvas.FillStroke)
	a.strokes++
}

// cutLines marks the two slits above the top flap with dashed ticks and
// arrow heads pointing at them.
func (a *annotator) cutLines() {
	w, h, d := a.dims.Width, a.dims.Height, a.dims.Depth
	a.c.Isolate(func() {
		a.c.SetDash(5, 2)
		a.c.SetStrokeColor(canvas.Black)
		a.c.Translate(w/2, h/2+2*d)
		a.tick()
		a.c.Translate(-w, 0)
		a.tick()
		a.c.SetDash()
		a.c.Translate(0, tickLength+arrowGap)
		a.arrowHead()
		a.c.Translate(w, 0)
		a.arrowHead()
	})
}

func (a *annotator) topFoldLines() {
	w, h, d := a.dims.Width, a.dims.Height, a.dims.Depth
	a.foldTicks(geom.Pt(w/2+2*d, h/2), []geom.Point{
		geom.Pt(-d, d),
		geom.Pt(-2*d-w, 0),
		geom.Pt(0, -d),
		geom.Pt(-d, 0),
	})
}

func (a *annotator) sideFoldLines() {
	w, h, d := a.dims.Width, a.dims.Height, a.dims.Depth
	a.foldTicks(geom.Pt(h/2+2*d, w/2), []geom.Point{
		geom.Pt(-d, d),
		geom.Pt(-d, d),
		geom.Pt(-w, 0),
		geom.Pt(-d, -d),
		geom.Pt(-d, -d),
	})
}

// foldTicks draws a dotted tick at start and after each relative step.
func (a *annotator) foldTicks(start geom.Point, steps []geom.Point) {
	a.c.Isolate(func() {
		a.c.SetDash(1, 1)
		a.c.Translate(start.X, start.Y)
		a.tick()
		for _, s := range steps {
			a.c.Translate(s.X, s.Y)
			a.tick()
		}
	})
}
