package svgscene

import (
	"math"

	"github.com/srwiley/rasterx"
)

// Matrix2D represents an SVG style matrix
//
//	| A C E |
//	| B D F |
//	| 0 0 1 |
//
// The arithmetic is shared with rasterx so that matrices
// can be handed to the stroker and the gradients unchanged.
type Matrix2D struct {
	A, B, C, D, E, F float64
}

// Identity is the identity matrix
var Identity = Matrix2D{1, 0, 0, 1, 0, 0}

// Rasterx returns the equivalent rasterx matrix.
func (m Matrix2D) Rasterx() rasterx.Matrix2D { return rasterx.Matrix2D(m) }

// Mult returns m*b, that is b is applied first.
func (m Matrix2D) Mult(b Matrix2D) Matrix2D {
	return Matrix2D(m.Rasterx().Mult(b.Rasterx()))
}

// Invert returns the inverse matrix. The result is undefined
// (NaN or Inf coefficients) for singular matrices.
func (m Matrix2D) Invert() Matrix2D { return Matrix2D(m.Rasterx().Invert()) }

func (m Matrix2D) Translate(x, y float64) Matrix2D { return Matrix2D(m.Rasterx().Translate(x, y)) }

func (m Matrix2D) Scale(x, y float64) Matrix2D { return Matrix2D(m.Rasterx().Scale(x, y)) }

// Rotate rotates by theta, in radians.
func (m Matrix2D) Rotate(theta float64) Matrix2D { return Matrix2D(m.Rasterx().Rotate(theta)) }

func (m Matrix2D) SkewX(theta float64) Matrix2D { return Matrix2D(m.Rasterx().SkewX(theta)) }

func (m Matrix2D) SkewY(theta float64) Matrix2D { return Matrix2D(m.Rasterx().SkewY(theta)) }

// Transform applies the matrix to the point (x, y).
func (m Matrix2D) Transform(x, y float64) (float64, float64) { return m.Rasterx().Transform(x, y) }

// TransformVector ignores the translation part.
func (m Matrix2D) TransformVector(x, y float64) (float64, float64) {
	return m.Rasterx().TransformVector(x, y)
}

// TransformPoint is a convenience wrapper around Transform.
func (m Matrix2D) TransformPoint(p Point) Point {
	x, y := m.Transform(p.X, p.Y)
	return Point{x, y}
}

// IsIdentity returns true for the exact identity matrix.
func (m Matrix2D) IsIdentity() bool { return m == Identity }

// MaxScale returns an upper bound of the length scaling applied by m,
// that is the largest singular value of its linear part.
func (m Matrix2D) MaxScale() float64 {
	// singular values of [[A C] [B D]]
	e := (m.A + m.D) / 2
	f := (m.A - m.D) / 2
	g := (m.B + m.C) / 2
	h := (m.B - m.C) / 2
	q := math.Hypot(e, h)
	r := math.Hypot(f, g)
	return q + r
}
