package cli

import (
	"context"
	"time"

	"github.com/matzehuels/chitboxes/pkg/observability"
)

// logHooks reports pipeline, cache and HTTP events as debug log lines.
type logHooks struct {
	log func(msg interface{}, keyvals ...interface{})
}

var (
	_ observability.PipelineHooks = logHooks{}
	_ observability.CacheHooks    = logHooks{}
	_ observability.HTTPHooks     = logHooks{}
)

func (h logHooks) OnLoadStart(_ context.Context, path string) {
	h.log("load image", "path", path)
}

func (h logHooks) OnLoadComplete(_ context.Context, path string, d time.Duration, err error) {
	if err != nil {
		h.log("load image failed", "path", path, "error", err)
		return
	}
	h.log("loaded image", "path", path, "duration", d)
}

func (h logHooks) OnLayoutStart(_ context.Context, page int, scale float64) {
	h.log("layout page", "page", page, "scale", scale)
}

func (h logHooks) OnLayoutComplete(_ context.Context, page, panels int, d time.Duration) {
	h.log("page done", "page", page, "panels", panels, "duration", d)
}

func (h logHooks) OnRenderStart(_ context.Context, formats []string) {
	h.log("render", "formats", formats)
}

func (h logHooks) OnRenderComplete(_ context.Context, formats []string, d time.Duration, err error) {
	h.log("render done", "formats", formats, "duration", d, "error", err)
}

func (h logHooks) OnCacheHit(_ context.Context, key string)  { h.log("cache hit", "key", key) }
func (h logHooks) OnCacheMiss(_ context.Context, key string) { h.log("cache miss", "key", key) }

func (h logHooks) OnCacheSet(_ context.Context, key string, size int) {
	h.log("cache set", "key", key, "bytes", size)
}

func (h logHooks) OnRequest(_ context.Context, method, path string) {
	h.log("http request", "method", method, "path", path)
}

func (h logHooks) OnResponse(_ context.Context, method, path string, status int, d time.Duration) {
	h.log("http response", "method", method, "path", path, "status", status, "duration", d)
}

func (h logHooks) OnError(_ context.Context, method, path string, err error) {
	h.log("http error", "method", method, "path", path, "error", err)
}
