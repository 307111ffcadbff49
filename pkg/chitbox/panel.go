package chitbox

import "github.com/matzehuels/chitboxes/pkg/canvas"

// PanelKind selects which artwork a panel carries.
type PanelKind int

const (
	// CentreKind panels use the centre image: the box top, bottom and the
	// inner-bottom tabs.
	CentreKind PanelKind = iota
	// SideKind panels use the side image.
	SideKind
)

func (k PanelKind) String() string {
	if k == CentreKind {
		return "centre"
	}
	return "side"
}

// PanelRenderer draws one w x h panel centred on the local origin.
type PanelRenderer interface {
	DrawPanel(c *canvas.Canvas, kind PanelKind, w, h float64)
}

// ImageRenderer stretches the image for each kind over the panel. A nil
// image leaves the panel empty.
type ImageRenderer struct {
	Centre canvas.Image
	Side   canvas.Image
}

func (r ImageRenderer) DrawPanel(c *canvas.Canvas, kind PanelKind, w, h float64) {
	img := r.Centre
	if kind == SideKind {
		img = r.Side
	}
	if img == nil {
		return
	}
	c.DrawImage(img, -w/2, -h/2, w, h)
}

// Placeholder colours and label size used in sample mode.
var (
	CentrePlaceholder = canvas.Color{R: 0.7, G: 0.8, B: 0.9}
	SidePlaceholder   = canvas.Color{R: 0.9, G: 0.8, B: 0.6}
)

const placeholderLabelSize = 15

// PlaceholderRenderer paints labelled coloured rectangles instead of
// artwork, regardless of which images are configured.
type PlaceholderRenderer struct{}

func (PlaceholderRenderer) DrawPanel(c *canvas.Canvas, kind PanelKind, w, h float64) {
	fill, label := CentrePlaceholder, "Centre"
	if kind == SideKind {
		fill, label = SidePlaceholder, "Side"
	}
	c.Isolate(func() {
		c.SetFillColor(fill)
		c.SetStrokeColor(canvas.Black)
		c.Rect(-w/2, -h/2, w, h, canvas.FillStroke)
		c.SetFillColor(canvas.Black)
		c.Text(0, 0, label, placeholderLabelSize)
	})
}
