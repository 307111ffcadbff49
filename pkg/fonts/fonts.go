// Package fonts provides the label font for raster and vector previews.
//
// The Go Regular face ships with golang.org/x/image, so previews render the
// same on every machine without system fonts.
package fonts

import (
	"encoding/base64"
	"fmt"
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

// FontFamily is the CSS font-family name used when the font is embedded.
const FontFamily = "Go Regular"

// FallbackFontFamily is the CSS font stack for SVG labels. PDF output uses
// the built-in Helvetica, so viewers without the embedded font get a close
// match.
const FallbackFontFamily = `'Go Regular', Helvetica, Arial, sans-serif`

// TTF returns the raw TrueType data.
func TTF() []byte {
	return goregular.TTF
}

var (
	parsed     *truetype.Font
	parseErr   error
	parsedOnce sync.Once
)

// Font returns the parsed TrueType font. Parsing happens once.
func Font() (*truetype.Font, error) {
	parsedOnce.Do(func() {
		parsed, parseErr = truetype.Parse(goregular.TTF)
		if parseErr != nil {
			parseErr = fmt.Errorf("parse go regular: %w", parseErr)
		}
	})
	return parsed, parseErr
}

// Face returns a face of the given size in points, rasterised at dpi.
func Face(size, dpi float64) (font.Face, error) {
	f, err := Font()
	if err != nil {
		return nil, err
	}
	return truetype.NewFace(f, &truetype.Options{
		Size:    size,
		DPI:     dpi,
		Hinting: font.HintingNone,
	}), nil
}

// Cache for the base64-encoded font (computed once on first access).
var (
	ttfBase64     string
	ttfBase64Once sync.Once
)

// TTFBase64 returns the font data as a base64 string for @font-face rules.
// The result is cached after first computation.
func TTFBase64() string {
	ttfBase64Once.Do(func() {
		ttfBase64 = base64.StdEncoding.EncodeToString(TTF())
	})
	return ttfBase64
}
