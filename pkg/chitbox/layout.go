package chitbox

import (
	"fmt"

	"github.com/matzehuels/chitboxes/pkg/canvas"
	"github.com/matzehuels/chitboxes/pkg/geom"
)

// NetRotation is the rotation applied to the whole net so the diamond
// silhouette sits upright on the page.
const NetRotation = -45

// silhouetteMask is the half-width of the white rectangle swept along each
// silhouette edge. It only has to exceed any page diagonal.
var silhouetteMask = Cm(50)

type layout struct {
	c      *canvas.Canvas
	dims   Dimensions
	panels PanelRenderer
	net    *Net
}

// GeneratePage lays out one complete net centred on a page of the given size
// and scaled by scale. The canvas frame depth is the same before and after;
// an unbalanced walk panics.
func GeneratePage(c *canvas.Canvas, page PageSize, dims Dimensions, panels PanelRenderer, scale float64) Net {
	net := Net{Scale: scale}
	l := &layout{c: c, dims: dims, panels: panels, net: &net}

	depth := c.Depth()
	c.Isolate(func() {
		c.Translate(page.Centre())
		c.Scale(scale)
		c.Isolate(func() {
			c.Rotate(NetRotation)
			l.draw()
		})
	})
	if got := c.Depth(); got != depth {
		panic(&geom.UnbalancedError{Depth: got - depth})
	}
	return net
}

func (l *layout) draw() {
	w, h := l.dims.Width, l.dims.Height

	l.panel(RoleCentre, "centre", CentreKind, w, h)

	l.fullSides("top", "bottom", h/2, w)
	l.c.Isolate(func() {
		l.c.Rotate(90)
		l.fullSides("left", "right", w/2, h)
	})

	l.rotatedSide(true, true)
	l.rotatedSide(true, false)
	l.rotatedSide(false, true)
	l.rotatedSide(false, false)

	for _, dir := range []string{"top", "left", "right", "bottom"} {
		l.innerBottom(dir)
	}

	l.silhouette()

	if sq, ok := l.dims.Square(); ok {
		l.net.Annotations = sq.Annotate(l.c)
	}
}

func (l *layout) panel(role Role, name string, kind PanelKind, w, h float64) {
	l.net.Panels = append(l.net.Panels, PlacedPanel{
		Role: role,
		Name: name,
		Kind: kind,
		W:    w,
		H:    h,
		CTM:  l.c.CTM(),
	})
	l.panels.DrawPanel(l.c, kind, w, h)
}

// fullSides draws the two stacked side panels on each side of an edge that
// lies offset away from the centre. The outer panel is turned 180 degrees so
// it reads correctly once folded inwards.
func (l *layout) fullSides(pos, neg string, offset, width float64) {
	d := l.dims.Depth

	l.c.Isolate(func() {
		l.c.Translate(0, offset+d/2)
		l.panel(RoleFullSide, pos+"-outer", SideKind, width, d)
		l.c.Translate(0, d)
		l.c.Rotate(180)
		l.panel(RoleFullSide, pos+"-inner", SideKind, width, d)
	})
	l.c.Isolate(func() {
		l.c.Translate(0, -offset-d/2)
		l.c.Rotate(180)
		l.panel(RoleFullSide, neg+"-outer", SideKind, width, d)
		l.c.Rotate(180)
		l.c.Translate(0, -d)
		l.panel(RoleFullSide, neg+"-inner", SideKind, width, d)
	})
}

// rotatedSide draws one of the four corner side panels that are cut off the
// ends of the long side strips.
func (l *layout) rotatedSide(bottom, left bool) {
	w, h, d := l.dims.Width, l.dims.Height, l.dims.Depth

	dx, dy, angle := w/2+d/2, h, 90.0
	if left {
		dx, angle = -dx, -angle
	}
	if bottom {
		dy = -dy
	}
	name := fmt.Sprintf("%s-%s", pick(bottom, "bottom", "top"), pick(left, "left", "right"))

	l.c.Isolate(func() {
		l.c.Translate(dx, dy)
		l.c.Rotate(angle)
		l.panel(RoleCornerSide, name, SideKind, h, d)
	})
}

// innerBottom draws the centre-image tab that folds back inside the box on
// the given side.
func (l *layout) innerBottom(dir string) {
	w, h, d := l.dims.Width, l.dims.Height, l.dims.Depth

	offset := w
	if dir == "top" || dir == "bottom" {
		offset = h
	}
	offset += 2 * d

	var angle float64
	switch dir {
	case "right":
		angle = 90
	case "bottom":
		angle = 180
	case "left":
		angle = -90
	}

	l.c.Isolate(func() {
		l.c.Rotate(angle)
		l.c.Translate(0, offset)
		l.c.Rotate(angle)
		l.panel(RoleInnerBottom, dir, CentreKind, w, h)
	})
}

// silhouette strokes the four diamond cut lines and masks everything outside
// them with white. Corners are visited clockwise so the mask is always on the
// left of the edge direction.
func (l *layout) silhouette() {
	w, h, d := l.dims.Width, l.dims.Height, l.dims.Depth

	corners := [4]geom.Point{
		geom.Pt(-w-2*d, 0),
		geom.Pt(0, h+2*d),
		geom.Pt(w+2*d, 0),
		geom.Pt(0, -h-2*d),
	}

	ctm := l.c.CTM()
	for i := range corners {
		from, to := corners[i], corners[(i+1)%len(corners)]
		v := to.Sub(from)
		angle := v.Angle()

		l.net.Silhouette.Corners[i] = ctm.Apply(from)
		l.net.Silhouette.Edges[i] = Edge{From: ctm.Apply(from), To: ctm.Apply(to), Angle: angle}

		l.c.Isolate(func() {
			l.c.Translate(from.X, from.Y)
			l.c.Rotate(angle)
			l.c.SetFillColor(canvas.White)
			l.c.Line(0, 0, v.Len(), 0)
			l.c.Rect(-silhouetteMask, 0, 2*silhouetteMask, silhouetteMask, canvas.Fill)
		})
	}
}

func pick(cond bool, a, b string) string {
	if cond {
		return a
	}
	return b
}
