package chitbox

import (
	"fmt"
	"math"
	"strings"
)

// PointsPerCentimeter converts centimetres to PDF points.
const PointsPerCentimeter = 72 / 2.54

// Cm returns v centimetres in points.
func Cm(v float64) float64 { return v * PointsPerCentimeter }

// Dimensions are the outer sizes of the box in points.
type Dimensions struct {
	Width  float64
	Height float64
	Depth  float64
}

// FromCentimeters builds Dimensions from centimetre values.
func FromCentimeters(width, height, depth float64) Dimensions {
	return Dimensions{Width: Cm(width), Height: Cm(height), Depth: Cm(depth)}
}

// Validate reports an error unless all three sizes are finite and positive.
func (d Dimensions) Validate() error {
	for _, f := range []struct {
		name string
		v    float64
	}{{"width", d.Width}, {"height", d.Height}, {"depth", d.Depth}} {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) || f.v <= 0 {
			return fmt.Errorf("%s must be a positive number, got %v", f.name, f.v)
		}
	}
	return nil
}

func (d Dimensions) String() string {
	return fmt.Sprintf("%.2f x %.2f x %.2f cm",
		d.Width/PointsPerCentimeter, d.Height/PointsPerCentimeter, d.Depth/PointsPerCentimeter)
}

// Square returns the annotation capability for a square footprint. The
// comparison is exact: boxes built from equal centimetre values compare equal.
func (d Dimensions) Square() (SquareFootprint, bool) {
	if d.Width != d.Height {
		return SquareFootprint{}, false
	}
	return SquareFootprint{dims: d}, true
}

// PageSize is a named paper size in points.
type PageSize struct {
	Name          string
	Width, Height float64
}

var (
	Letter = PageSize{Name: "letter", Width: 612, Height: 792}
	A4     = PageSize{Name: "A4", Width: 210 * 72 / 25.4, Height: 297 * 72 / 25.4}
)

// PageSizes lists the supported paper sizes.
var PageSizes = []PageSize{Letter, A4}

// ParsePageSize resolves a page size name case-insensitively. An empty name
// selects Letter.
func ParsePageSize(name string) (PageSize, error) {
	if name == "" {
		return Letter, nil
	}
	for _, p := range PageSizes {
		if strings.EqualFold(p.Name, name) {
			return p, nil
		}
	}
	return PageSize{}, fmt.Errorf("unknown page size %q (want letter or A4)", name)
}

// Centre returns the page centre.
func (p PageSize) Centre() (x, y float64) { return p.Width / 2, p.Height / 2 }
