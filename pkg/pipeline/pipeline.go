// Package pipeline provides the box generation pipeline shared by the CLI,
// the batch command and the HTTP server.
//
// The pipeline runs three stages:
//
//  1. Load: decode the centre and side artwork (either may be absent)
//  2. Layout: lay out the two-page die-line with a chitbox.Generator
//  3. Render: draw the layout onto one sink per requested format
//
// Layout and render happen together, once per format, since every surface is
// driven by the same generator walk.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Width: 4.5, Height: 4.5, Depth: 2.5,
//	    CentrePath: "top.png",
//	    SidePath:   "side.png",
//	    Formats:    []string{"pdf", "svg"},
//	})
//	pdf := result.Artifacts["pdf"]
//
// Previews are sample-mode PNG renders of page 1:
//
//	png, hit, err := runner.Preview(ctx, opts)
package pipeline

import (
	"io"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/chitboxes/pkg/cache"
	"github.com/matzehuels/chitboxes/pkg/chitbox"
	"github.com/matzehuels/chitboxes/pkg/errors"
	"github.com/matzehuels/chitboxes/pkg/imageio"
)

// Format constants for output formats.
const (
	FormatPDF = "pdf"
	FormatPNG = "png"
	FormatSVG = "svg"
)

// DefaultFormat is rendered when no format is requested.
const DefaultFormat = FormatPDF

// ContentTypes maps each format to its MIME type.
var ContentTypes = map[string]string{
	FormatPDF: "application/pdf",
	FormatPNG: "image/png",
	FormatSVG: "image/svg+xml",
}

// Options contains all configuration for one box.
// Dimensions are in centimetres.
type Options struct {
	Width    float64  `json:"width" yaml:"width" toml:"width"`
	Height   float64  `json:"height" yaml:"height" toml:"height"`
	Depth    float64  `json:"depth" yaml:"depth" toml:"depth"`
	PageSize string   `json:"pagesize,omitempty" yaml:"pagesize,omitempty" toml:"pagesize,omitempty"`
	Sample   bool     `json:"sample,omitempty" yaml:"sample,omitempty" toml:"sample,omitempty"`
	Formats  []string `json:"formats,omitempty" yaml:"formats,omitempty" toml:"formats,omitempty"`

	// CentrePath and SidePath name artwork files. Empty means no image.
	CentrePath string `json:"centre,omitempty" yaml:"centre,omitempty" toml:"centre,omitempty"`
	SidePath   string `json:"side,omitempty" yaml:"side,omitempty" toml:"side,omitempty"`

	// Refresh bypasses cached artifacts.
	Refresh bool `json:"refresh,omitempty" yaml:"-" toml:"-"`

	// Runtime options (not serialized)
	Centre *imageio.Resource `json:"-" yaml:"-" toml:"-"` // preloaded artwork, overrides CentrePath
	Side   *imageio.Resource `json:"-" yaml:"-" toml:"-"` // preloaded artwork, overrides SidePath
	Logger *log.Logger       `json:"-" yaml:"-" toml:"-"`
	// Destination names where the documents go, for log lines only.
	Destination string `json:"-" yaml:"-" toml:"-"`

	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Artifacts contains rendered documents keyed by format.
	Artifacts map[string][]byte

	// Nets describes the laid-out pages. It is empty when every artifact
	// came from the cache.
	Nets []chitbox.Net

	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Pages      int
	Panels     int
	LoadTime   time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks which artifacts came from the cache.
type CacheInfo struct {
	Hits      []string // formats served from the cache
	RenderHit bool     // all requested formats were cached
}

// ValidateAndSetDefaults checks the options and fills in defaults. It is
// idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := errors.ValidateDimensions(o.Width, o.Height, o.Depth); err != nil {
		return err
	}
	if err := errors.ValidatePageSize(o.PageSize); err != nil {
		return err
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{DefaultFormat}
	}
	formats := make([]string, 0, len(o.Formats))
	for _, f := range o.Formats {
		if err := errors.ValidateFormat(f); err != nil {
			return err
		}
		if !slices.Contains(formats, f) {
			formats = append(formats, f)
		}
	}
	o.Formats = formats
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// Dimensions returns the box dimensions in points.
func (o *Options) Dimensions() chitbox.Dimensions {
	return chitbox.FromCentimeters(o.Width, o.Height, o.Depth)
}

// Page returns the selected page size.
func (o *Options) Page() (chitbox.PageSize, error) {
	p, err := chitbox.ParsePageSize(o.PageSize)
	if err != nil {
		return chitbox.PageSize{}, errors.Wrap(errors.ErrCodeInvalidPageSize, err, "page size")
	}
	return p, nil
}

// ArtifactKeyOpts returns cache key options for one format. Image hashes are
// taken from the loaded artwork.
func (o *Options) ArtifactKeyOpts(format string, centre, side *imageio.Resource) cache.ArtifactKeyOpts {
	page, _ := o.Page()
	return cache.ArtifactKeyOpts{
		Width:      o.Width,
		Height:     o.Height,
		Depth:      o.Depth,
		PageSize:   page.Name,
		Sample:     o.Sample,
		Format:     format,
		CentreHash: resourceKey(centre),
		SideHash:   resourceKey(side),
	}
}

func resourceKey(r *imageio.Resource) string {
	if r == nil {
		return ""
	}
	return r.Key()
}
