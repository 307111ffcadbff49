package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/chitboxes/pkg/canvas"
	"github.com/matzehuels/chitboxes/pkg/chitbox"
	"github.com/matzehuels/chitboxes/pkg/errors"
	"github.com/matzehuels/chitboxes/pkg/imageio"
	"github.com/matzehuels/chitboxes/pkg/observability"
	"github.com/matzehuels/chitboxes/pkg/sink"
)

// NewSurface opens a surface for format writing pages of the given size to w.
func NewSurface(format string, w io.Writer, page chitbox.PageSize) (canvas.Surface, error) {
	switch format {
	case FormatPDF:
		return sink.NewPDF(w, page.Width, page.Height, sink.WithTitle("chit box")), nil
	case FormatPNG:
		return sink.NewPNG(w, page.Width, page.Height), nil
	case FormatSVG:
		return sink.NewSVG(w, page.Width, page.Height, sink.WithEmbeddedFont()), nil
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported format: %s", format)
	}
}

// Render lays out the box once per format and returns the documents keyed by
// format, together with the nets of the last render.
func Render(ctx context.Context, opts Options, imgs Images, formats []string) (map[string][]byte, []chitbox.Net, error) {
	page, err := opts.Page()
	if err != nil {
		return nil, nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	genOpts := []chitbox.Option{
		chitbox.WithPageSize(page),
		chitbox.WithImages(asImage(imgs.Centre), asImage(imgs.Side)),
		chitbox.WithLogger(logger),
	}
	if opts.Sample {
		genOpts = append(genOpts, chitbox.WithSample())
	}
	gen, err := chitbox.New(opts.Dimensions(), genOpts...)
	if err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeInvalidDimensions, err, "dimensions")
	}

	dest := opts.Destination
	if dest == "" {
		dest = "memory"
	}
	logger.Info("generating box",
		"destination", dest,
		"dimensions", opts.Dimensions().String(),
		"page", page.Name,
		"centre", describe(imgs.Centre),
		"side", describe(imgs.Side),
		"sample", opts.Sample,
		"formats", formats)

	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, formats)
	start := time.Now()

	artifacts := make(map[string][]byte, len(formats))
	var nets []chitbox.Net
	for _, format := range formats {
		var buf bytes.Buffer
		s, err := NewSurface(format, &buf, page)
		if err != nil {
			hooks.OnRenderComplete(ctx, formats, time.Since(start), err)
			return nil, nil, err
		}
		nets, err = gen.GenerateContext(ctx, s)
		if err != nil {
			hooks.OnRenderComplete(ctx, formats, time.Since(start), err)
			if ctx.Err() != nil {
				return nil, nil, err
			}
			return nil, nil, errors.Wrap(errors.ErrCodeInternal, err, "render %s", format)
		}
		artifacts[format] = buf.Bytes()
	}

	hooks.OnRenderComplete(ctx, formats, time.Since(start), nil)
	return artifacts, nets, nil
}

// RenderPreview renders page 1 of the sample-mode document as a PNG at
// sink.PreviewDPI.
func RenderPreview(ctx context.Context, opts Options) ([]byte, error) {
	opts.Sample = true
	opts.Centre, opts.Side = nil, nil
	opts.CentrePath, opts.SidePath = "", ""
	artifacts, _, err := Render(ctx, opts, Images{}, []string{FormatPNG})
	if err != nil {
		return nil, fmt.Errorf("preview: %w", err)
	}
	return artifacts[FormatPNG], nil
}

// asImage converts a possibly nil resource to a canvas.Image without creating
// a non-nil interface around a nil pointer.
func asImage(r *imageio.Resource) canvas.Image {
	if r == nil {
		return nil
	}
	return r
}
