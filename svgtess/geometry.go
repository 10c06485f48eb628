package svgtess

import (
	"image/color"

	"github.com/benoitkugler/svgmesh/svgscene"
)

// Vertex is a position in world units.
type Vertex struct {
	X, Y float32
}

// Geometry is the triangulation of the fill or the stroke of one shape.
type Geometry struct {
	Vertices []Vertex
	Indices  []uint32 // triangle list

	// Color is the resolved solid color of the paint.
	// For gradients, it is the average of the stops.
	Color color.NRGBA
	// Paint is the pattern the geometry is painted with,
	// either a PlainColor or a *Gradient.
	Paint svgscene.Pattern
	// Opacity combines the group opacities and
	// the fill (or stroke) opacity.
	Opacity float64

	// Transform maps the shape local space to world units.
	Transform svgscene.Matrix2D
	// Bounds is the exact bounding box of the path, in local space.
	// It is the reference box of objectBoundingBox gradients.
	Bounds svgscene.Rect

	// origin of the geometry, for error reporting
	Node       svgscene.NodeID
	ShapeIndex int
	Stroke     bool
}

// Degenerate returns true if the geometry has no triangle.
func (g *Geometry) Degenerate() bool { return len(g.Indices) < 3 }

// Gradient returns the gradient paint, or nil for solid colors.
func (g *Geometry) Gradient() *svgscene.Gradient {
	grad, _ := g.Paint.(*svgscene.Gradient)
	return grad
}

// resolveColor returns the solid color of a pattern
func resolveColor(p svgscene.Pattern) color.NRGBA {
	switch p := p.(type) {
	case svgscene.PlainColor:
		return p.NRGBA
	case *svgscene.Gradient:
		return p.AverageColor()
	}
	return color.NRGBA{}
}
