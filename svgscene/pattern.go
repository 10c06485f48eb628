package svgscene

import (
	"image/color"

	"github.com/srwiley/rasterx"
)

// Pattern is either a PlainColor or a *Gradient
type Pattern interface {
	isPattern()
}

// PlainColor is a uniform, non premultiplied color.
type PlainColor struct {
	color.NRGBA
}

func (PlainColor) isPattern() {}

// NewPlainColor returns a PlainColor from its straight RGBA components.
func NewPlainColor(r, g, b, a uint8) PlainColor {
	return PlainColor{color.NRGBA{R: r, G: g, B: b, A: a}}
}

// GradientUnits is the type for gradient units
type GradientUnits byte

// SVG bounds paremater constants
const (
	ObjectBoundingBox GradientUnits = iota
	UserSpaceOnUse
)

// SpreadMethod is the type for spread parameters
type SpreadMethod byte

// SVG spread parameter constants
const (
	PadSpread SpreadMethod = iota
	ReflectSpread
	RepeatSpread
)

// GradStop represents a stop in the SVG 2.0 gradient specification
type GradStop struct {
	StopColor color.Color
	Offset    float64
	Opacity   float64
}

// Gradient holds a description of an SVG 2.0 gradient.
// Gradients are shared by pointer between the shapes
// referencing the same definition.
type Gradient struct {
	Direction GradientDirection
	Stops     []GradStop
	Bounds    Rect // resolved bounding box, used with ObjectBoundingBox units
	Matrix    Matrix2D
	Spread    SpreadMethod
	Units     GradientUnits
}

func (*Gradient) isPattern() {}

// GradientDirection is either Linear or Radial
type GradientDirection interface {
	isRadial() bool
}

// x1, y1, x2, y2
type Linear [4]float64

func (Linear) isRadial() bool { return false }

// cx, cy, fx, fy, r, fr
type Radial [6]float64

func (Radial) isRadial() bool { return true }

// IsRadial returns true for radial gradients.
func (g *Gradient) IsRadial() bool {
	return g.Direction != nil && g.Direction.isRadial()
}

// WithBounds returns a copy of the gradient using `bounds`
// as its object bounding box. Stops are shared.
func (g *Gradient) WithBounds(bounds Rect) *Gradient {
	out := *g
	out.Bounds = bounds
	return &out
}

// ToRasterx converts the gradient to its rasterx equivalent.
func (g *Gradient) ToRasterx() rasterx.Gradient {
	var points [5]float64
	switch dir := g.Direction.(type) {
	case Linear:
		points[0], points[1], points[2], points[3] = dir[0], dir[1], dir[2], dir[3]
	case Radial:
		// rasterx ignores the focal radius
		points[0], points[1], points[2], points[3], points[4] = dir[0], dir[1], dir[2], dir[3], dir[4]
	}
	stops := make([]rasterx.GradStop, len(g.Stops))
	for i, s := range g.Stops {
		stops[i] = rasterx.GradStop(s)
	}
	out := rasterx.Gradient{
		Points:   points,
		Stops:    stops,
		Matrix:   g.Matrix.Rasterx(),
		Spread:   rasterx.SpreadMethod(g.Spread),
		Units:    rasterx.GradientUnits(g.Units),
		IsRadial: g.IsRadial(),
	}
	out.Bounds.X, out.Bounds.Y, out.Bounds.W, out.Bounds.H = g.Bounds.X, g.Bounds.Y, g.Bounds.W, g.Bounds.H
	return out
}

// AverageColor returns the mean of the stop colors, weighted by opacity.
// It is used as a fallback solid color for gradient shapes.
func (g *Gradient) AverageColor() color.NRGBA {
	if len(g.Stops) == 0 {
		return color.NRGBA{}
	}
	var r, gr, b, a float64
	for _, s := range g.Stops {
		c := color.NRGBAModel.Convert(s.StopColor).(color.NRGBA)
		r += float64(c.R)
		gr += float64(c.G)
		b += float64(c.B)
		a += float64(c.A) * s.Opacity
	}
	n := float64(len(g.Stops))
	return color.NRGBA{R: uint8(r/n + 0.5), G: uint8(gr/n + 0.5), B: uint8(b/n + 0.5), A: uint8(a/n + 0.5)}
}
