package chitbox

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/chitboxes/pkg/canvas"
	"github.com/matzehuels/chitboxes/pkg/observability"
)

// PageScales are the scale factors of the two generated pages. The second,
// slightly smaller net is there for printers that cannot print to the edge.
var PageScales = []float64{1.0, 0.95}

// Option configures a Generator.
type Option func(*Generator)

// WithPageSize sets the paper size. Defaults to Letter.
func WithPageSize(p PageSize) Option { return func(g *Generator) { g.page = p } }

// WithImages sets the centre and side artwork. Either may be nil.
func WithImages(centre, side canvas.Image) Option {
	return func(g *Generator) { g.centre, g.side = centre, side }
}

// WithSample replaces the artwork with labelled placeholders.
func WithSample() Option { return func(g *Generator) { g.sample = true } }

// WithLogger sets the logger. Defaults to a discarding logger.
func WithLogger(l *log.Logger) Option { return func(g *Generator) { g.logger = l } }

// Generator renders the two-page die-line document for one box.
type Generator struct {
	dims   Dimensions
	page   PageSize
	centre canvas.Image
	side   canvas.Image
	sample bool
	panels PanelRenderer
	logger *log.Logger
}

// New returns a Generator for dims. It fails if a dimension is not positive.
func New(dims Dimensions, opts ...Option) (*Generator, error) {
	if err := dims.Validate(); err != nil {
		return nil, err
	}
	g := &Generator{dims: dims, page: Letter}
	for _, opt := range opts {
		opt(g)
	}
	if g.logger == nil {
		g.logger = log.New(io.Discard)
	}
	if g.sample {
		g.panels = PlaceholderRenderer{}
	} else {
		g.panels = ImageRenderer{Centre: g.centre, Side: g.side}
	}
	return g, nil
}

// Dimensions returns the box dimensions.
func (g *Generator) Dimensions() Dimensions { return g.dims }

// PageSize returns the configured paper size.
func (g *Generator) PageSize() PageSize { return g.page }

// Generate draws both pages onto s and closes it.
func (g *Generator) Generate(s canvas.Surface) ([]Net, error) {
	return g.GenerateContext(context.Background(), s)
}

// GenerateContext is Generate with cancellation checked between pages.
// The surface is closed only when both pages were drawn.
func (g *Generator) GenerateContext(ctx context.Context, s canvas.Surface) ([]Net, error) {
	g.logger.Debug("drawing box",
		"dimensions", g.dims.String(),
		"page", g.page.Name,
		"centre", imageKey(g.centre),
		"side", imageKey(g.side),
		"sample", g.sample)

	if _, ok := g.dims.Square(); !ok {
		g.logger.Debug("footprint is not square, skipping fold and cut annotations")
	}

	c := canvas.New(s)
	nets := make([]Net, 0, len(PageScales))
	for i, scale := range PageScales {
		if err := ctx.Err(); err != nil {
			return nets, err
		}
		if i > 0 {
			c.ShowPage()
		}

		start := time.Now()
		observability.Pipeline().OnLayoutStart(ctx, i+1, scale)
		net := GeneratePage(c, g.page, g.dims, g.panels, scale)
		net.Page = i
		nets = append(nets, net)
		observability.Pipeline().OnLayoutComplete(ctx, i+1, len(net.Panels), time.Since(start))

		g.logger.Debug("page laid out", "page", i+1, "scale", scale,
			"panels", len(net.Panels), "annotations", net.Annotations)
	}

	if err := c.Close(); err != nil {
		return nets, fmt.Errorf("finish document: %w", err)
	}
	return nets, nil
}

func imageKey(img canvas.Image) string {
	if img == nil {
		return "none"
	}
	return img.Key()
}
