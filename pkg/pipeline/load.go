package pipeline

import (
	"context"
	"time"

	"github.com/matzehuels/chitboxes/pkg/imageio"
	"github.com/matzehuels/chitboxes/pkg/observability"
)

// Images holds the artwork for one box. Either field may be nil.
type Images struct {
	Centre *imageio.Resource
	Side   *imageio.Resource
}

// LoadImages decodes the artwork named by opts. Preloaded resources take
// precedence over paths. Any failure aborts before drawing starts.
func LoadImages(ctx context.Context, opts Options) (Images, error) {
	var imgs Images
	var err error
	if imgs.Centre, err = loadImage(ctx, opts.Centre, opts.CentrePath); err != nil {
		return Images{}, err
	}
	if imgs.Side, err = loadImage(ctx, opts.Side, opts.SidePath); err != nil {
		return Images{}, err
	}
	return imgs, nil
}

func loadImage(ctx context.Context, preloaded *imageio.Resource, path string) (*imageio.Resource, error) {
	if preloaded != nil {
		return preloaded, nil
	}
	if path == "" {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	hooks := observability.Pipeline()
	hooks.OnLoadStart(ctx, path)
	start := time.Now()
	r, err := imageio.Load(path)
	hooks.OnLoadComplete(ctx, path, time.Since(start), err)
	return r, err
}
