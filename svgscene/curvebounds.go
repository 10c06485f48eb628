package svgscene

import "math"

// exact extents of a path, needed when using gradient with objectBoundingBox

type bezier interface {
	// compute the t zeroing the derivative
	criticalPoints() (tX, tY []float64)
	// compute the point a time t
	evaluateCurve(t float64) Point
}

type segment [2]Point

func (segment) criticalPoints() (tX, tY []float64) { return nil, nil }

func (l segment) evaluateCurve(t float64) Point { return l[0].Lerp(l[1], t) }

type quadBezier [3]Point

// quadratic polinomial
// x = At^2 + Bt + C
// where
// A = p0 + p2 - 2p1
// B = 2(p1 - p0)
// C = p0
func bezierQuad(p0, p1, p2, t float64) float64 {
	return (p0+p2-2*p1)*t*t + 2*(p1-p0)*t + p0
}

// derivative as at + b where a,b :
func quadraticDerivative(p0, p1, p2 float64) (a, b float64) {
	return 2 * (p2 - p1 - (p1 - p0)), 2 * (p1 - p0)
}

// handle the case where a = 0
func linearRoots(a, b float64) []float64 {
	if a == 0 {
		return nil
	}
	return []float64{-b / a}
}

func (cu quadBezier) criticalPoints() (tX, tY []float64) {
	aX, bX := quadraticDerivative(cu[0].X, cu[1].X, cu[2].X)
	aY, bY := quadraticDerivative(cu[0].Y, cu[1].Y, cu[2].Y)
	return linearRoots(aX, bX), linearRoots(aY, bY)
}

func (cu quadBezier) evaluateCurve(t float64) Point {
	return Point{bezierQuad(cu[0].X, cu[1].X, cu[2].X, t), bezierQuad(cu[0].Y, cu[1].Y, cu[2].Y, t)}
}

type cubicBezier [4]Point

func (cu cubicBezier) criticalPoints() (tX, tY []float64) {
	aX, bX, cX := cubicDerivative(cu[0].X, cu[1].X, cu[2].X, cu[3].X)
	aY, bY, cY := cubicDerivative(cu[0].Y, cu[1].Y, cu[2].Y, cu[3].Y)
	return quadraticRoots(aX, bX, cX), quadraticRoots(aY, bY, cY)
}

func (cu cubicBezier) evaluateCurve(t float64) Point {
	return Point{
		bezierSpline(cu[0].X, cu[1].X, cu[2].X, cu[3].X, t),
		bezierSpline(cu[0].Y, cu[1].Y, cu[2].Y, cu[3].Y, t),
	}
}

// cubic polinomial
// x = At^3 + Bt^2 + Ct + D
// where A,B,C,D:
// A = p3 -3 * p2 + 3 * p1 - p0
// B = 3 * p2 - 6 * p1 +3 * p0
// C = 3 * p1 - 3 * p0
// D = p0
func bezierSpline(p0, p1, p2, p3, t float64) float64 {
	return (p3-3*p2+3*p1-p0)*t*t*t +
		(3*p2-6*p1+3*p0)*t*t +
		(3*p1-3*p0)*t +
		(p0)
}

// X' = (3*p3-9*p2+9*p1-3*p0)t^2 + (6*p2-12*p1+6*p0)t + (3*p1-3*p0)
// taken as aX^2 + bX + c  a,b and c are:
func cubicDerivative(p0, p1, p2, p3 float64) (a, b, c float64) {
	return 3*p3 - 9*p2 + 9*p1 - 3*p0, 6*p2 - 12*p1 + 6*p0, 3*p1 - 3*p0
}

func quadraticRoots(a, b, c float64) []float64 {
	if a == 0 {
		// this is a simple line
		return linearRoots(b, c)
	}
	d := b*b - 4*a*c
	if d < 0 {
		return nil
	}
	if d == 0 {
		return []float64{-b / (2 * a)}
	}
	sq := math.Sqrt(d)
	return []float64{(-b + sq) / (2 * a), (-b - sq) / (2 * a)}
}

func (e *extent) addCurve(curve bezier) {
	tX, tY := curve.criticalPoints()
	e.add(curve.evaluateCurve(0))
	e.add(curve.evaluateCurve(1))
	for _, t := range append(tX, tY...) {
		// filter invalid value
		if !(0 < t && t < 1) {
			continue
		}
		e.add(curve.evaluateCurve(t))
	}
}

// Bounds returns the exact extents of the path, after applying `M`.
// Contrary to ControlPoints, curves are bounded by their extrema.
func (p Path) Bounds(M Matrix2D) Rect {
	var (
		ext         extent
		first, last Point
		hasSubpath  bool
	)
	for _, op := range p {
		switch op := op.(type) {
		case MoveTo:
			last = M.TransformPoint(Point(op))
			first = last
			hasSubpath = true
			ext.add(last)
		case LineTo:
			next := M.TransformPoint(Point(op))
			ext.addCurve(segment{last, next})
			last = next
		case QuadTo:
			b, c := M.TransformPoint(op[0]), M.TransformPoint(op[1])
			ext.addCurve(quadBezier{last, b, c})
			last = c
		case CubicTo:
			b, c, d := M.TransformPoint(op[0]), M.TransformPoint(op[1]), M.TransformPoint(op[2])
			ext.addCurve(cubicBezier{last, b, c, d})
			last = d
		case Close:
			if hasSubpath {
				last = first
			}
		}
	}
	return ext.rect()
}
