package chitbox

import (
	"math"

	"github.com/matzehuels/chitboxes/pkg/geom"
)

// Role names the part of the net a panel forms.
type Role string

const (
	RoleCentre      Role = "centre"
	RoleFullSide    Role = "full-side"
	RoleCornerSide  Role = "corner-side"
	RoleInnerBottom Role = "inner-bottom"
)

// PlacedPanel is one panel of a laid-out net.
type PlacedPanel struct {
	Role Role
	// Name distinguishes panels with the same role, e.g. "bottom-left".
	Name string
	Kind PanelKind
	W, H float64
	// CTM maps the panel's local frame (centred on the panel) to page
	// coordinates.
	CTM geom.Matrix
}

// Centre returns the panel centre in page coordinates.
func (p PlacedPanel) Centre() geom.Point { return p.CTM.Origin() }

// Corners returns the panel corners in page coordinates, counter-clockwise in
// the panel's local frame starting at the lower left.
func (p PlacedPanel) Corners() [4]geom.Point {
	hw, hh := p.W/2, p.H/2
	return [4]geom.Point{
		p.CTM.Apply(geom.Pt(-hw, -hh)),
		p.CTM.Apply(geom.Pt(hw, -hh)),
		p.CTM.Apply(geom.Pt(hw, hh)),
		p.CTM.Apply(geom.Pt(-hw, hh)),
	}
}

// Edge is one straight cut of the silhouette in page coordinates.
type Edge struct {
	From, To geom.Point
	// Angle is the edge direction in the net frame, in degrees.
	Angle float64
}

// Silhouette is the outer diamond cut around the net.
type Silhouette struct {
	Corners [4]geom.Point
	Edges   [4]Edge
}

// TurningSum returns the sum of the exterior angles between consecutive
// edges. A closed convex outline sums to -360 when traversed clockwise.
func (s Silhouette) TurningSum() float64 {
	var sum float64
	for i := range s.Edges {
		next := s.Edges[(i+1)%len(s.Edges)]
		sum += geom.NormalizeAngle(next.Angle - s.Edges[i].Angle)
	}
	return sum
}

// Net is the result of laying out one page.
type Net struct {
	Page        int
	Scale       float64
	Panels      []PlacedPanel
	Silhouette  Silhouette
	Annotations int
}

// Count returns the number of panels with the given role.
func (n Net) Count(role Role) int {
	var c int
	for _, p := range n.Panels {
		if p.Role == role {
			c++
		}
	}
	return c
}

// Bounds returns the page-space bounding box of the silhouette.
func (n Net) Bounds() (min, max geom.Point) {
	min = geom.Pt(math.Inf(1), math.Inf(1))
	max = geom.Pt(math.Inf(-1), math.Inf(-1))
	for _, c := range n.Silhouette.Corners {
		min.X, min.Y = math.Min(min.X, c.X), math.Min(min.Y, c.Y)
		max.X, max.Y = math.Max(max.X, c.X), math.Max(max.Y, c.Y)
	}
	return min, max
}
