package pipeline

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/chitboxes/pkg/cache"
	"github.com/matzehuels/chitboxes/pkg/chitbox"
	"github.com/matzehuels/chitboxes/pkg/errors"
)

func TestValidateAndSetDefaults(t *testing.T) {
	tests := []struct {
		name     string
		opts     Options
		wantCode errors.Code
	}{
		{"valid", Options{Width: 4.5, Height: 4.5, Depth: 2.5}, ""},
		{"zero width", Options{Width: 0, Height: 4.5, Depth: 2.5}, errors.ErrCodeInvalidDimensions},
		{"negative depth", Options{Width: 1, Height: 1, Depth: -1}, errors.ErrCodeInvalidDimensions},
		{"unknown page", Options{Width: 1, Height: 1, Depth: 1, PageSize: "legal"}, errors.ErrCodeInvalidPageSize},
		{"page case", Options{Width: 1, Height: 1, Depth: 1, PageSize: "a4"}, ""},
		{"unknown format", Options{Width: 1, Height: 1, Depth: 1, Formats: []string{"gif"}}, errors.ErrCodeInvalidFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateAndSetDefaults()
			if tt.wantCode == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantCode) {
				t.Errorf("error = %v, want code %s", err, tt.wantCode)
			}
		})
	}
}

func TestDefaultsAndDedup(t *testing.T) {
	o := Options{Width: 1, Height: 1, Depth: 1}
	if err := o.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if len(o.Formats) != 1 || o.Formats[0] != FormatPDF {
		t.Errorf("default formats = %v, want [pdf]", o.Formats)
	}
	if o.Logger == nil {
		t.Error("logger should default to a discard logger")
	}

	o = Options{Width: 1, Height: 1, Depth: 1, Formats: []string{"svg", "pdf", "svg"}}
	if err := o.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if strings.Join(o.Formats, ",") != "svg,pdf" {
		t.Errorf("formats = %v, want [svg pdf]", o.Formats)
	}
}

func newTestRunner(t *testing.T) *Runner {
	t.Helper()
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(c, nil, log.New(io.Discard))
	t.Cleanup(func() { r.Close() })
	return r
}

func TestExecuteRendersAndCaches(t *testing.T) {
	ctx := context.Background()
	r := newTestRunner(t)
	opts := Options{Width: 4.5, Height: 4.5, Depth: 2.5, Sample: true, Formats: []string{"pdf", "svg"}}

	res, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if !bytes.HasPrefix(res.Artifacts["pdf"], []byte("%PDF-")) {
		t.Error("pdf artifact is not a PDF")
	}
	if !bytes.Contains(res.Artifacts["svg"], []byte("<svg")) {
		t.Error("svg artifact is not an SVG")
	}
	if res.CacheInfo.RenderHit {
		t.Error("first run should not hit the cache")
	}
	if res.Stats.Pages != 2 || res.Stats.Panels != 34 {
		t.Errorf("stats = %+v, want 2 pages with 34 panels", res.Stats)
	}
	if s := Summary(res.Nets[1]); !strings.HasPrefix(s, "page 2 at 95%: 17 panels") {
		t.Errorf("Summary() = %q", s)
	}

	again, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if !again.CacheInfo.RenderHit || len(again.Nets) != 0 {
		t.Errorf("second run should be served from cache: %+v", again.CacheInfo)
	}
	if !bytes.Equal(again.Artifacts["pdf"], res.Artifacts["pdf"]) {
		t.Error("cached pdf differs from rendered pdf")
	}

	opts.Refresh = true
	fresh, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if fresh.CacheInfo.RenderHit {
		t.Error("refresh should bypass the cache")
	}
}

func TestExecutePartialCacheHit(t *testing.T) {
	ctx := context.Background()
	r := newTestRunner(t)
	base := Options{Width: 3, Height: 3, Depth: 1, Formats: []string{"svg"}}
	if _, err := r.Execute(ctx, base); err != nil {
		t.Fatal(err)
	}

	base.Formats = []string{"svg", "pdf"}
	res, err := r.Execute(ctx, base)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.CacheInfo.Hits) != 1 || res.CacheInfo.Hits[0] != "svg" {
		t.Errorf("hits = %v, want [svg]", res.CacheInfo.Hits)
	}
	if res.CacheInfo.RenderHit {
		t.Error("pdf was not cached yet")
	}
	if len(res.Artifacts) != 2 {
		t.Errorf("artifacts = %d, want 2", len(res.Artifacts))
	}
}

func writePNG(t *testing.T, dir, name string, c color.Color) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for i := 0; i < 16; i++ {
		img.Set(i%4, i/4, c)
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestExecuteWithImages(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	r := newTestRunner(t)
	opts := Options{
		Width: 1.1, Height: 2.5, Depth: 1.7,
		PageSize:   "A4",
		CentrePath: writePNG(t, dir, "centre.png", color.RGBA{255, 0, 0, 255}),
		SidePath:   writePNG(t, dir, "side.png", color.RGBA{0, 0, 255, 255}),
		Formats:    []string{"svg"},
	}
	res, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if got := bytes.Count(res.Artifacts["svg"], []byte("data:image/png;base64,")); got != 2 {
		t.Errorf("embedded images = %d, want 2", got)
	}
	for _, n := range res.Nets {
		if n.Annotations != 0 {
			t.Errorf("page %d has %d annotations, want 0", n.Page, n.Annotations)
		}
	}

	// Different artwork must not be served from the same cache entry.
	opts.SidePath = writePNG(t, dir, "other.png", color.RGBA{0, 255, 0, 255})
	res, err = r.Execute(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if res.CacheInfo.RenderHit {
		t.Error("changed artwork should miss the cache")
	}
}

func TestExecuteImageErrors(t *testing.T) {
	dir := t.TempDir()
	corrupt := filepath.Join(dir, "bad.png")
	if err := os.WriteFile(corrupt, []byte("nope"), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		path string
		code errors.Code
	}{
		{"missing", filepath.Join(dir, "missing.png"), errors.ErrCodeFileNotFound},
		{"corrupt", corrupt, errors.ErrCodeImageDecode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRunner(t)
			_, err := r.Execute(context.Background(), Options{Width: 1, Height: 1, Depth: 1, CentrePath: tt.path})
			if !errors.Is(err, tt.code) {
				t.Errorf("error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestExecuteCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := NewRunner(nil, nil, log.New(io.Discard))
	if _, err := r.Execute(ctx, Options{Width: 1, Height: 1, Depth: 1}); err == nil {
		t.Error("cancelled context should abort generation")
	}
}

func TestPreview(t *testing.T) {
	ctx := context.Background()
	r := newTestRunner(t)
	opts := Options{Width: 4.5, Height: 4.5, Depth: 2.5}

	data, hit, err := r.Preview(ctx, opts)
	if err != nil {
		t.Fatalf("Preview() error: %v", err)
	}
	if hit {
		t.Error("first preview should miss the cache")
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 638 || b.Dy() != 825 {
		t.Errorf("preview size = %dx%d, want 638x825", b.Dx(), b.Dy())
	}

	// Artwork does not affect previews.
	opts.CentrePath = "ignored.png"
	_, hit, err = r.Preview(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if !hit {
		t.Error("second preview should hit the cache")
	}
}

func TestGenerateSingleFormat(t *testing.T) {
	r := NewRunner(nil, nil, log.New(io.Discard))
	data, err := r.Generate(context.Background(), Options{Width: 2, Height: 3, Depth: 1}, FormatPNG)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := png.Decode(bytes.NewReader(data)); err != nil {
		t.Errorf("png artifact does not decode: %v", err)
	}
}

func TestNewSurfaceUnknownFormat(t *testing.T) {
	_, err := NewSurface("gif", io.Discard, chitbox.Letter)
	if !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("error = %v, want INVALID_FORMAT", err)
	}
}

func TestAsImageNil(t *testing.T) {
	if asImage(nil) != nil {
		t.Error("nil resource must become a nil interface")
	}
}

func TestRenderLogsStartOnce(t *testing.T) {
	var buf bytes.Buffer
	opts := Options{Width: 4.5, Height: 4.5, Depth: 2.5, Sample: true, Destination: "out/wood"}
	opts.Logger = log.NewWithOptions(&buf, log.Options{Level: log.InfoLevel})

	if _, _, err := Render(context.Background(), opts, Images{}, []string{"pdf", "svg"}); err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	out := buf.String()
	if n := strings.Count(out, "generating box"); n != 1 {
		t.Errorf("start line logged %d times, want 1:\n%s", n, out)
	}
	for _, want := range []string{"destination=out/wood", "centre=none", "formats"} {
		if !strings.Contains(out, want) {
			t.Errorf("start line lacks %q:\n%s", want, out)
		}
	}
}
