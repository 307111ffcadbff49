package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/chitboxes/pkg/cache"
	"github.com/matzehuels/chitboxes/pkg/chitbox"
	"github.com/matzehuels/chitboxes/pkg/imageio"
	"github.com/matzehuels/chitboxes/pkg/observability"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// TTL is the lifetime of stored artifacts. Previews always use
	// cache.TTLPreview.
	TTL time.Duration
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
		TTL:    cache.TTLArtifact,
	}
}

// Execute runs the load → layout → render pipeline with caching. Formats
// already in the cache are not rendered again.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	result := &Result{Artifacts: make(map[string][]byte)}

	// Stage 1: Load
	loadStart := time.Now()
	imgs, err := LoadImages(ctx, opts)
	if err != nil {
		return nil, err
	}
	result.Stats.LoadTime = time.Since(loadStart)
	if imgs.Centre != nil || imgs.Side != nil {
		r.Logger.Debug("loaded images",
			"centre", describe(imgs.Centre),
			"side", describe(imgs.Side),
			"duration", result.Stats.LoadTime)
	}

	// Stage 2: Cache lookup
	var missing []string
	for _, format := range opts.Formats {
		key := r.Keyer.ArtifactKey(opts.ArtifactKeyOpts(format, imgs.Centre, imgs.Side))
		if data, ok := r.lookup(ctx, key, opts.Refresh); ok {
			result.Artifacts[format] = data
			result.CacheInfo.Hits = append(result.CacheInfo.Hits, format)
			continue
		}
		missing = append(missing, format)
	}
	if len(missing) == 0 {
		result.CacheInfo.RenderHit = true
		r.Logger.Debug("all artifacts cached", "formats", opts.Formats)
		return result, nil
	}

	// Stage 3: Layout and render
	renderStart := time.Now()
	rendered, nets, err := Render(ctx, opts, imgs, missing)
	if err != nil {
		return nil, err
	}
	result.Stats.RenderTime = time.Since(renderStart)
	result.Nets = nets
	result.Stats.Pages = len(nets)
	for _, n := range nets {
		result.Stats.Panels += len(n.Panels)
	}

	for format, data := range rendered {
		result.Artifacts[format] = data
		key := r.Keyer.ArtifactKey(opts.ArtifactKeyOpts(format, imgs.Centre, imgs.Side))
		r.store(ctx, key, data, r.TTL)
	}

	r.Logger.Info("rendered box",
		"dimensions", opts.Dimensions(),
		"formats", missing,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// Preview returns the sample-mode PNG of page 1 and whether it came from the
// cache. Artwork in opts is ignored.
func (r *Runner) Preview(ctx context.Context, opts Options) ([]byte, bool, error) {
	r.applyLogger(&opts)
	opts.Formats = []string{FormatPNG}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, err
	}

	key := r.Keyer.PreviewKey(opts.ArtifactKeyOpts(FormatPNG, nil, nil))
	if data, ok := r.lookup(ctx, key, opts.Refresh); ok {
		return data, true, nil
	}

	start := time.Now()
	data, err := RenderPreview(ctx, opts)
	if err != nil {
		return nil, false, err
	}
	r.store(ctx, key, data, cache.TTLPreview)
	r.Logger.Debug("rendered preview", "bytes", len(data), "duration", time.Since(start))
	return data, false, nil
}

// Generate is a convenience wrapper that renders a single format.
func (r *Runner) Generate(ctx context.Context, opts Options, format string) ([]byte, error) {
	opts.Formats = []string{format}
	res, err := r.Execute(ctx, opts)
	if err != nil {
		return nil, err
	}
	return res.Artifacts[format], nil
}

func (r *Runner) lookup(ctx context.Context, key string, refresh bool) ([]byte, bool) {
	if refresh {
		return nil, false
	}
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Warn("cache read failed", "key", key, "error", err)
		return nil, false
	}
	if !hit {
		observability.Cache().OnCacheMiss(ctx, key)
		return nil, false
	}
	observability.Cache().OnCacheHit(ctx, key)
	return data, true
}

func (r *Runner) store(ctx context.Context, key string, data []byte, ttl time.Duration) {
	if err := r.Cache.Set(ctx, key, data, ttl); err != nil {
		r.Logger.Warn("cache write failed", "key", key, "error", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, key, len(data))
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

func describe(img *imageio.Resource) string {
	if img == nil {
		return "none"
	}
	w, h := img.Size()
	return fmt.Sprintf("%s (%dx%d)", img.Name(), w, h)
}

// Summary describes a net for log lines and CLI output.
func Summary(n chitbox.Net) string {
	lo, hi := n.Bounds()
	return fmt.Sprintf("page %d at %.0f%%: %d panels, %.1f x %.1f cm",
		n.Page+1, n.Scale*100, len(n.Panels), (hi.X-lo.X)/chitbox.Cm(1), (hi.Y-lo.Y)/chitbox.Cm(1))
}
