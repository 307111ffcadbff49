// Package geom provides the 2D affine geometry used to place box panels.
//
// A [Matrix] maps local panel coordinates to page coordinates. Frames are
// built up by right-multiplying elementary translate, rotate and scale
// matrices onto the current one, so the most recently applied operation acts
// first on local coordinates. This matches the save/translate/rotate/restore
// discipline of PDF content streams.
//
// All angles are in degrees, counter-clockwise positive, in a y-up
// coordinate system.
package geom

import "math"

// Matrix is a 2D affine transform stored as [a b c d e f]:
//
//	x' = a*x + c*y + e
//	y' = b*x + d*y + f
type Matrix [6]float64

// Identity returns the identity matrix.
func Identity() Matrix {
	return Matrix{1, 0, 0, 1, 0, 0}
}

// Translate returns a translation matrix.
func Translate(tx, ty float64) Matrix {
	return Matrix{1, 0, 0, 1, tx, ty}
}

// Scale returns a scaling matrix.
func Scale(sx, sy float64) Matrix {
	return Matrix{sx, 0, 0, sy, 0, 0}
}

// Rotate returns a counter-clockwise rotation matrix (angle in degrees).
func Rotate(degrees float64) Matrix {
	sin, cos := sinCos(degrees)
	return Matrix{cos, sin, -sin, cos, 0, 0}
}

// sinCos returns exact values for multiples of 90 degrees so that mirrored
// panels land on exactly mirrored coordinates.
func sinCos(degrees float64) (float64, float64) {
	if r := math.Mod(degrees, 90); r == 0 {
		switch q := int(math.Mod(degrees/90, 4)); (q + 4) % 4 {
		case 0:
			return 0, 1
		case 1:
			return 1, 0
		case 2:
			return 0, -1
		default:
			return -1, 0
		}
	}
	return math.Sincos(Radians(degrees))
}

// Multiply returns the matrix that applies m first and then other.
func (m Matrix) Multiply(other Matrix) Matrix {
	return Matrix{
		m[0]*other[0] + m[1]*other[2],
		m[0]*other[1] + m[1]*other[3],
		m[2]*other[0] + m[3]*other[2],
		m[2]*other[1] + m[3]*other[3],
		m[4]*other[0] + m[5]*other[2] + other[4],
		m[4]*other[1] + m[5]*other[3] + other[5],
	}
}

// Apply returns the point transformed by m.
func (m Matrix) Apply(p Point) Point {
	return Point{
		X: m[0]*p.X + m[2]*p.Y + m[4],
		Y: m[1]*p.X + m[3]*p.Y + m[5],
	}
}

// ApplyVector transforms a direction, ignoring translation.
func (m Matrix) ApplyVector(v Point) Point {
	return Point{
		X: m[0]*v.X + m[2]*v.Y,
		Y: m[1]*v.X + m[3]*v.Y,
	}
}

// Origin returns where the local origin lands.
func (m Matrix) Origin() Point {
	return Point{X: m[4], Y: m[5]}
}

// Determinant returns the determinant of the linear part.
func (m Matrix) Determinant() float64 {
	return m[0]*m[3] - m[1]*m[2]
}

// ScaleFactor returns the uniform scale of m. For matrices built from
// rotations and uniform scales this is exact.
func (m Matrix) ScaleFactor() float64 {
	return math.Sqrt(math.Abs(m.Determinant()))
}

// Rotation returns the rotation angle of m in degrees, in (-180, 180].
func (m Matrix) Rotation() float64 {
	return Degrees(math.Atan2(m[1], m[0]))
}

// ApproxEqual reports whether every coefficient differs by at most eps.
func (m Matrix) ApproxEqual(other Matrix, eps float64) bool {
	for i := range m {
		if math.Abs(m[i]-other[i]) > eps {
			return false
		}
	}
	return true
}

// Radians converts degrees to radians.
func Radians(degrees float64) float64 {
	return degrees * math.Pi / 180
}

// Degrees converts radians to degrees.
func Degrees(radians float64) float64 {
	return radians * 180 / math.Pi
}
