// Package imageio loads panel artwork.
//
// PNG, JPEG, GIF, BMP, TIFF and WebP files are accepted. Every decoded image
// becomes a [Resource] keyed by the SHA-256 of its source bytes, which the
// output surfaces use to embed each image once per document and the cache
// uses to tell artwork apart.
package imageio

import (
	"bytes"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sync"

	_ "image/gif"
	_ "image/jpeg"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/matzehuels/chitboxes/pkg/cache"
	"github.com/matzehuels/chitboxes/pkg/errors"
)

// Resource is a decoded image with a stable content key.
type Resource struct {
	name   string
	format string
	hash   string
	img    image.Image

	pngOnce sync.Once
	pngData []byte
	pngErr  error
}

// Load reads and decodes the image at path. An empty path means "no image"
// and returns nil, nil.
func Load(path string) (*Resource, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "read image %s", path)
	}
	return Decode(filepath.Base(path), data)
}

// Decode decodes an in-memory image. name is only used in messages.
func Decode(name string, data []byte) (*Resource, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeImageDecode, err, "decode image %s", name)
	}
	return &Resource{
		name:   name,
		format: format,
		hash:   cache.Hash(data),
		img:    img,
	}, nil
}

// Key returns the content hash of the source bytes.
func (r *Resource) Key() string { return r.hash }

// Image returns the decoded image.
func (r *Resource) Image() image.Image { return r.img }

// Name returns the file name the image was loaded from.
func (r *Resource) Name() string { return r.name }

// Format returns the codec name, e.g. "png" or "jpeg".
func (r *Resource) Format() string { return r.format }

// Size returns the pixel dimensions.
func (r *Resource) Size() (w, h int) {
	b := r.img.Bounds()
	return b.Dx(), b.Dy()
}

// PNG returns the image re-encoded as PNG, preserving transparency. The
// encoding is done once.
func (r *Resource) PNG() ([]byte, error) {
	r.pngOnce.Do(func() {
		var buf bytes.Buffer
		r.pngErr = png.Encode(&buf, r.img)
		r.pngData = buf.Bytes()
	})
	return r.pngData, r.pngErr
}
