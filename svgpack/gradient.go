package svgpack

import (
	"math"

	"github.com/benoitkugler/svgmesh/svgscene"
	"github.com/srwiley/rasterx"
)

// focusEpsilon pulls a focus lying outside the
// gradient circle back inside it
const focusEpsilon = 1e-5

// gradientMapping computes gradient parameters
// for points in world space
type gradientMapping struct {
	gradient *svgscene.Gradient
	// from world space to the gradient space
	toGradient svgscene.Matrix2D
	degenerate bool
}

// newGradientMapping returns the mapping for a shape drawn with `transform`,
// whose path bounding box is `bbox`, in local space.
func newGradientMapping(g *svgscene.Gradient, transform svgscene.Matrix2D, bbox svgscene.Rect) gradientMapping {
	out := gradientMapping{gradient: g}
	userSpace := transform // gradient units to world
	if g.Units == svgscene.ObjectBoundingBox {
		if bbox.W == 0 || bbox.H == 0 {
			out.degenerate = true
		}
		userSpace = userSpace.Mult(svgscene.Identity.Translate(bbox.X, bbox.Y).Scale(bbox.W, bbox.H))
	}
	out.toGradient = userSpace.Mult(g.Matrix).Invert()
	return out
}

// gradientPoint returns the position of the world point `p` in the gradient
// space, where the gradient parameter only depends on the gradient direction.
// The map is affine, so the position may be interpolated across a triangle.
// Degenerate mappings send every point to the start of the gradient.
func (gm gradientMapping) gradientPoint(p svgscene.Point) svgscene.Point {
	if gm.degenerate {
		return gradientOrigin(gm.gradient)
	}
	q := gm.toGradient.TransformPoint(p)
	if math.IsNaN(q.X) || math.IsNaN(q.Y) || math.IsInf(q.X, 0) || math.IsInf(q.Y, 0) {
		return gradientOrigin(gm.gradient)
	}
	return q
}

// parameter returns the gradient parameter at `p`, before
// applying the spread method. 0 is returned for degenerate gradients.
func (gm gradientMapping) parameter(p svgscene.Point) float64 {
	return rawParameter(gm.gradient, gm.gradientPoint(p))
}

// gradientOrigin returns a point of the gradient space with parameter 0
func gradientOrigin(g *svgscene.Gradient) svgscene.Point {
	switch dir := g.Direction.(type) {
	case svgscene.Linear:
		return svgscene.Point{X: dir[0], Y: dir[1]}
	case svgscene.Radial:
		fx, fy := radialFocus(dir)
		return svgscene.Point{X: fx, Y: fy}
	}
	return svgscene.Point{}
}

// rawParameter returns the parameter at the gradient space point `p`,
// without the spread method
func rawParameter(g *svgscene.Gradient, p svgscene.Point) float64 {
	var t float64
	switch dir := g.Direction.(type) {
	case svgscene.Linear:
		t = linearParameter(dir, p)
	case svgscene.Radial:
		t = radialParameter(dir, p)
	}
	if math.IsNaN(t) {
		return 0
	}
	return t
}

// Parameter returns the parameter of the gradient at the gradient space
// point (x, y), as stored in Vertex.GX and Vertex.GY, with the spread
// method applied. The result is in [0, 1].
func (e AtlasEntry) Parameter(x, y float64) float64 {
	return applySpread(rawParameter(e.Gradient, svgscene.Point{X: x, Y: y}), e.Gradient.Spread)
}

func linearParameter(dir svgscene.Linear, p svgscene.Point) float64 {
	dx, dy := dir[2]-dir[0], dir[3]-dir[1]
	d := dx*dx + dy*dy
	if d == 0 {
		return 1 // painted with the last stop
	}
	return (dx*(p.X-dir[0]) + dy*(p.Y-dir[1])) / d
}

// radialParameter follows rasterx: the focal radius is ignored,
// and a focus outside the circle is moved onto it
func radialParameter(dir svgscene.Radial, p svgscene.Point) float64 {
	cx, cy, r := dir[0], dir[1], dir[4]
	if !(r > 0) {
		return 1
	}
	fx, fy := radialFocus(dir)
	dx, dy := p.X-fx, p.Y-fy
	if dx == 0 && dy == 0 {
		return 0
	}
	if fx == cx && fy == cy {
		return math.Hypot(dx, dy) / r
	}
	hx, hy, ok := rasterx.RayCircleIntersectionF(p.X, p.Y, fx, fy, cx, cy, r)
	if !ok {
		return 1
	}
	span := math.Hypot(hx-fx, hy-fy)
	if span < focusEpsilon {
		return 1
	}
	return math.Hypot(dx, dy) / span
}

// radialFocus returns the focus, moved inside the circle if needed
func radialFocus(dir svgscene.Radial) (fx, fy float64) {
	cx, cy, fx, fy, r := dir[0], dir[1], dir[2], dir[3], dir[4]
	if dx, dy := fx-cx, fy-cy; r > 0 && dx*dx+dy*dy > r*r {
		l := math.Hypot(dx, dy)
		fx, fy = cx+dx/l*r*(1-focusEpsilon), cy+dy/l*r*(1-focusEpsilon)
	}
	return fx, fy
}

// applySpread maps t into [0, 1] according to the spread method.
func applySpread(t float64, spread svgscene.SpreadMethod) float64 {
	if math.IsNaN(t) {
		return 0
	}
	switch spread {
	case svgscene.RepeatSpread:
		if !math.IsInf(t, 0) {
			t -= math.Floor(t)
		}
	case svgscene.ReflectSpread:
		if !math.IsInf(t, 0) {
			t = math.Mod(t, 2)
			if t < 0 {
				t += 2
			}
			if t > 1 {
				t = 2 - t
			}
		}
	}
	return clamp01(t)
}

func clamp01(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
