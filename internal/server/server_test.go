package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/chitboxes/pkg/cache"
	"github.com/matzehuels/chitboxes/pkg/pipeline"
)

func newTestServer(t *testing.T, cfg Config) *Server {
	t.Helper()
	c, err := cache.NewFileCache(t.TempDir())
	require.NoError(t, err)
	r := pipeline.NewRunner(c, nil, log.New(io.Discard))
	t.Cleanup(func() { r.Close() })
	return New(cfg, r, log.New(io.Discard))
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func formRequest(method, path string, v url.Values) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(v.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func boxForm(format string) url.Values {
	return url.Values{
		"width":  {"4.5"},
		"height": {"4.5"},
		"depth":  {"2.5"},
		"sample": {"true"},
		"format": {format},
	}
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) APIError {
	t.Helper()
	var e APIError
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&e))
	return e
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, Config{Version: "v1.2.3"})
	rec := serve(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var body HealthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, "v1.2.3", body.Version)

	_, err := uuid.Parse(rec.Header().Get(RequestIDHeader))
	assert.NoError(t, err, "X-Request-ID should be a uuid")
}

func TestBoxesSVG(t *testing.T) {
	s := newTestServer(t, Config{})
	rec := serve(s, formRequest(http.MethodPost, "/api/v1/boxes", boxForm("svg")))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
	assert.Equal(t, "MISS", rec.Header().Get(CacheHeader))

	id := rec.Header().Get(RequestIDHeader)
	assert.Equal(t, `attachment; filename="chitbox-`+id+`.svg"`, rec.Header().Get("Content-Disposition"))
	assert.Contains(t, rec.Body.String(), "<svg")

	again := serve(s, formRequest(http.MethodPost, "/api/v1/boxes", boxForm("svg")))
	assert.Equal(t, "HIT", again.Header().Get(CacheHeader))
	assert.NotEqual(t, id, again.Header().Get(RequestIDHeader))
}

func TestBoxesDefaultFormat(t *testing.T) {
	s := newTestServer(t, Config{})
	form := boxForm("")
	form.Del("format")
	rec := serve(s, formRequest(http.MethodPost, "/api/v1/boxes", form))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-")))
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for i := 0; i < 4; i++ {
		img.Set(i%2, i/2, color.RGBA{0, 128, 0, 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func multipartRequest(t *testing.T, fields map[string]string, files map[string][]byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for field, data := range files {
		fw, err := mw.CreateFormFile(field, field+".png")
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/boxes", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestBoxesWithUploads(t *testing.T) {
	s := newTestServer(t, Config{})
	img := pngBytes(t)
	req := multipartRequest(t,
		map[string]string{"width": "3", "height": "3", "depth": "1", "format": "svg"},
		map[string][]byte{"centre": img, "side": img})
	rec := serve(s, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	// Identical uploads share one embedded image.
	assert.Equal(t, 1, strings.Count(rec.Body.String(), "data:image/png;base64,"))
}

func TestBoxesErrors(t *testing.T) {
	tests := []struct {
		name   string
		req    func(t *testing.T) *http.Request
		status int
		code   string
	}{
		{
			name: "missing depth",
			req: func(t *testing.T) *http.Request {
				f := boxForm("pdf")
				f.Del("depth")
				return formRequest(http.MethodPost, "/api/v1/boxes", f)
			},
			status: http.StatusBadRequest,
			code:   "INVALID_DIMENSIONS",
		},
		{
			name: "non-numeric width",
			req: func(t *testing.T) *http.Request {
				f := boxForm("pdf")
				f.Set("width", "wide")
				return formRequest(http.MethodPost, "/api/v1/boxes", f)
			},
			status: http.StatusBadRequest,
			code:   "INVALID_DIMENSIONS",
		},
		{
			name: "negative height",
			req: func(t *testing.T) *http.Request {
				f := boxForm("pdf")
				f.Set("height", "-2")
				return formRequest(http.MethodPost, "/api/v1/boxes", f)
			},
			status: http.StatusBadRequest,
			code:   "INVALID_DIMENSIONS",
		},
		{
			name: "unknown format",
			req: func(t *testing.T) *http.Request {
				return formRequest(http.MethodPost, "/api/v1/boxes", boxForm("gif"))
			},
			status: http.StatusBadRequest,
			code:   "INVALID_FORMAT",
		},
		{
			name: "unknown page size",
			req: func(t *testing.T) *http.Request {
				f := boxForm("pdf")
				f.Set("pagesize", "tabloid")
				return formRequest(http.MethodPost, "/api/v1/boxes", f)
			},
			status: http.StatusBadRequest,
			code:   "INVALID_PAGE_SIZE",
		},
		{
			name: "bad sample flag",
			req: func(t *testing.T) *http.Request {
				f := boxForm("pdf")
				f.Set("sample", "perhaps")
				return formRequest(http.MethodPost, "/api/v1/boxes", f)
			},
			status: http.StatusBadRequest,
			code:   "INVALID_INPUT",
		},
		{
			name: "corrupt upload",
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t,
					map[string]string{"width": "3", "height": "3", "depth": "1"},
					map[string][]byte{"centre": []byte("not an image")})
			},
			status: http.StatusUnprocessableEntity,
			code:   "IMAGE_DECODE",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, Config{})
			rec := serve(s, tt.req(t))
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			e := decodeError(t, rec)
			assert.Equal(t, tt.code, e.Code)
			assert.NotEmpty(t, e.Message)
		})
	}
}

func TestBoxesTooLarge(t *testing.T) {
	s := newTestServer(t, Config{MaxUploadBytes: 64})
	req := multipartRequest(t,
		map[string]string{"width": "3", "height": "3", "depth": "1"},
		map[string][]byte{"centre": bytes.Repeat([]byte{0}, 1024)})
	rec := serve(s, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, "TOO_LARGE", decodeError(t, rec).Code)
}

func TestPreview(t *testing.T) {
	s := newTestServer(t, Config{})
	q := url.Values{"width": {"4.5"}, "height": {"4.5"}, "depth": {"2.5"}}

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/v1/preview?"+q.Encode(), nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, "MISS", rec.Header().Get(CacheHeader))

	img, err := png.Decode(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, 638, img.Bounds().Dx())
	assert.Equal(t, 825, img.Bounds().Dy())

	post := serve(s, formRequest(http.MethodPost, "/api/v1/preview", q))
	require.Equal(t, http.StatusOK, post.Code)
	assert.Equal(t, "HIT", post.Header().Get(CacheHeader))
}

func TestUnknownRoute(t *testing.T) {
	s := newTestServer(t, Config{})
	rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/v1/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
}

func TestNewAppliesCacheTTL(t *testing.T) {
	r := pipeline.NewRunner(nil, nil, log.New(io.Discard))
	New(Config{CacheTTL: 90 * time.Minute}, r, nil)
	assert.Equal(t, "1h30m0s", r.TTL.String())
}

func TestNewCacheFallsBackToFiles(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	c, err := NewCache(ctx, Config{}, dir)
	require.NoError(t, err)
	defer c.Close()
	_, ok := c.(*cache.FileCache)
	assert.True(t, ok, "expected a file cache, got %T", c)
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	env := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(env, []byte("CHITBOXES_ADDR=:9999\nCHITBOXES_CACHE_TTL=2h\n"), 0644))

	for _, k := range []string{EnvAddr, EnvRedisAddr, EnvRedisDB, EnvCacheTTL, EnvCacheScope, EnvMaxUpload} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	t.Setenv(EnvMaxUpload, "1024")

	cfg, err := LoadConfig(env)
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.Addr)
	assert.Equal(t, "2h0m0s", cfg.CacheTTL.String())
	assert.EqualValues(t, 1024, cfg.MaxUploadBytes)
	assert.Empty(t, cfg.RedisAddr)
}

func TestLoadConfigDefaults(t *testing.T) {
	for _, k := range []string{EnvAddr, EnvRedisAddr, EnvRedisDB, EnvCacheTTL, EnvCacheScope, EnvMaxUpload} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, DefaultAddr, cfg.Addr)
	assert.Equal(t, cache.TTLArtifact, cfg.CacheTTL)
	assert.EqualValues(t, DefaultMaxUploadBytes, cfg.MaxUploadBytes)

	t.Setenv(EnvCacheTTL, "soon")
	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}

func TestNewKeyerScope(t *testing.T) {
	opts := cache.ArtifactKeyOpts{Width: 4.5, Height: 4.5, Depth: 2.5, PageSize: "letter", Format: "pdf"}

	plain := NewKeyer(Config{})
	scoped := NewKeyer(Config{CacheScope: "v2:"})
	assert.Equal(t, "v2:"+plain.ArtifactKey(opts), scoped.ArtifactKey(opts))
	assert.Equal(t, "v2:"+plain.PreviewKey(opts), scoped.PreviewKey(opts))
}
