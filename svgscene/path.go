package svgscene

import (
	"fmt"
	"strings"
)

// This file defines the basic path structure

// Point is a 2D point, in user units.
type Point struct{ X, Y float64 }

func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }
func (p Point) Scale(s float64) Point { return Point{p.X * s, p.Y * s} }
func (p Point) Lerp(q Point, t float64) Point {
	return Point{p.X + (q.X-p.X)*t, p.Y + (q.Y-p.Y)*t}
}

// Operation groups the different SVG commands
type Operation interface {
	// add itself on the driver `d`, after applying the transform `M`
	drawTo(d Drawer, M Matrix2D)
	// appends the points defining the operation
	appendPoints(dst []Point) []Point
}

type MoveTo Point

type LineTo Point

type QuadTo [2]Point

type CubicTo [3]Point

type Close struct{}

// starts a new path at the given point.
func (op MoveTo) drawTo(d Drawer, M Matrix2D) {
	d.Stop(false) // implicit close if currently in path.
	d.Start(M.TransformPoint(Point(op)))
}

// draw a line
func (op LineTo) drawTo(d Drawer, M Matrix2D) {
	d.Line(M.TransformPoint(Point(op)))
}

// draw a quadratic bezier curve
func (op QuadTo) drawTo(d Drawer, M Matrix2D) {
	d.QuadBezier(M.TransformPoint(op[0]), M.TransformPoint(op[1]))
}

// draw a cubic bezier curve
func (op CubicTo) drawTo(d Drawer, M Matrix2D) {
	d.CubeBezier(M.TransformPoint(op[0]), M.TransformPoint(op[1]), M.TransformPoint(op[2]))
}

func (op Close) drawTo(d Drawer, _ Matrix2D) {
	d.Stop(true)
}

func (op MoveTo) appendPoints(dst []Point) []Point { return append(dst, Point(op)) }
func (op LineTo) appendPoints(dst []Point) []Point { return append(dst, Point(op)) }
func (op QuadTo) appendPoints(dst []Point) []Point { return append(dst, op[0], op[1]) }
func (op CubicTo) appendPoints(dst []Point) []Point { return append(dst, op[0], op[1], op[2]) }
func (op Close) appendPoints(dst []Point) []Point { return dst }

// Path describes a sequence of basic SVG operations, which should not be nil
// Higher-level shapes may be reduced to a path.
type Path []Operation

// ToSVGPath returns a string representation of the path
func (p Path) ToSVGPath() string {
	chunks := make([]string, len(p))
	for i, op := range p {
		switch op := op.(type) {
		case MoveTo:
			chunks[i] = fmt.Sprintf("M%4.3f,%4.3f", op.X, op.Y)
		case LineTo:
			chunks[i] = fmt.Sprintf("L%4.3f,%4.3f", op.X, op.Y)
		case QuadTo:
			chunks[i] = fmt.Sprintf("Q%4.3f,%4.3f,%4.3f,%4.3f", op[0].X, op[0].Y, op[1].X, op[1].Y)
		case CubicTo:
			chunks[i] = fmt.Sprintf("C%4.3f,%4.3f,%4.3f,%4.3f,%4.3f,%4.3f",
				op[0].X, op[0].Y, op[1].X, op[1].Y, op[2].X, op[2].Y)
		case Close:
			chunks[i] = "Z"
		}
	}
	return strings.Join(chunks, " ")
}

// String returns a readable representation of a Path.
func (p Path) String() string {
	return p.ToSVGPath()
}

// Clear zeros the path slice
func (p *Path) Clear() {
	*p = (*p)[:0]
}

// Start starts a new curve at the given point.
func (p *Path) Start(a Point) {
	*p = append(*p, MoveTo(a))
}

// Line adds a linear segment to the current curve.
func (p *Path) Line(b Point) {
	*p = append(*p, LineTo(b))
}

// QuadBezier adds a quadratic segment to the current curve.
func (p *Path) QuadBezier(b, c Point) {
	*p = append(*p, QuadTo{b, c})
}

// CubeBezier adds a cubic segment to the current curve.
func (p *Path) CubeBezier(b, c, d Point) {
	*p = append(*p, CubicTo{b, c, d})
}

// Stop joins the ends of the path
func (p *Path) Stop(closeLoop bool) {
	if closeLoop {
		*p = append(*p, Close{})
	}
}

// ControlPoints returns every point used by the path operations,
// including the bezier control points.
func (p Path) ControlPoints() []Point {
	return p.appendControlPoints(nil)
}

func (p Path) appendControlPoints(dst []Point) []Point {
	for _, op := range p {
		dst = op.appendPoints(dst)
	}
	return dst
}

// IsClosed returns true if every sub-path is explicitly closed.
// An empty path is not closed.
func (p Path) IsClosed() bool {
	if len(p) == 0 {
		return false
	}
	open := false
	for _, op := range p {
		switch op.(type) {
		case MoveTo:
			if open {
				return false
			}
			open = true
		case Close:
			open = false
		default:
			open = true
		}
	}
	return !open
}

// DrawTo replays the path into `d`, after applying the transform `M`.
func (p Path) DrawTo(d Drawer, M Matrix2D) {
	for _, op := range p {
		op.drawTo(d, M)
	}
	d.Stop(false)
}
