package geom

import "math"

// Point is a 2D point or vector.
type Point struct {
	X, Y float64
}

// Pt is shorthand for Point{x, y}.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Add returns p + q.
func (p Point) Add(q Point) Point {
	return Point{p.X + q.X, p.Y + q.Y}
}

// Sub returns p - q.
func (p Point) Sub(q Point) Point {
	return Point{p.X - q.X, p.Y - q.Y}
}

// Scale returns p scaled by s.
func (p Point) Scale(s float64) Point {
	return Point{p.X * s, p.Y * s}
}

// Len returns the Euclidean norm of p.
func (p Point) Len() float64 {
	return math.Hypot(p.X, p.Y)
}

// Angle returns the direction of p in degrees, measured counter-clockwise
// from the positive x axis.
func (p Point) Angle() float64 {
	return Degrees(math.Atan2(p.Y, p.X))
}

// Dist returns the distance between p and q.
func (p Point) Dist(q Point) float64 {
	return p.Sub(q).Len()
}

// ApproxEqual reports whether p and q are within eps on both axes.
func (p Point) ApproxEqual(q Point, eps float64) bool {
	return math.Abs(p.X-q.X) <= eps && math.Abs(p.Y-q.Y) <= eps
}

// NormalizeAngle maps an angle in degrees into (-180, 180].
func NormalizeAngle(degrees float64) float64 {
	a := math.Mod(degrees, 360)
	switch {
	case a > 180:
		a -= 360
	case a <= -180:
		a += 360
	}
	return a
}
