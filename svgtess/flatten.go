package svgtess

import (
	"math"

	"github.com/benoitkugler/svgmesh/svgscene"
)

const (
	maxSubdivision = 16      // depth cap for curve subdivision
	maxLineSplits  = 1 << 16 // cap on the pieces of one straight segment
	maxSamples     = 4096    // cap on the samples of one length estimation
)

// contour is a flattened sub-path
type contour struct {
	points []svgscene.Point
	closed bool
}

// flattener implements svgscene.Drawer, replacing curves
// by polylines respecting the tolerances of opts.
type flattener struct {
	opts     TessellationOptions
	contours []contour
	current  contour
	inPath   bool
	first    svgscene.Point
	last     svgscene.Point
}

// flatten returns the sub-paths of `path` transformed by `m`,
// with curves flattened according to `opts`, expressed in the
// destination space of `m`.
func flatten(path svgscene.Path, m svgscene.Matrix2D, opts TessellationOptions) []contour {
	f := flattener{opts: opts}
	path.DrawTo(&f, m)
	return f.contours
}

func (f *flattener) Start(a svgscene.Point) {
	f.Stop(false)
	f.current = contour{points: []svgscene.Point{a}}
	f.inPath = true
	f.first, f.last = a, a
}

// ensureStarted restarts a path at the last point,
// for segments following a close command
func (f *flattener) ensureStarted() {
	if !f.inPath {
		f.Start(f.last)
	}
}

func (f *flattener) add(p svgscene.Point) {
	if p != f.last {
		f.current.points = append(f.current.points, p)
	}
	f.last = p
}

func (f *flattener) Line(b svgscene.Point) {
	f.ensureStarted()
	f.lineTo(b)
}

// lineTo splits the segment from the current point
// so that no piece is longer than the step distance
func (f *flattener) lineTo(b svgscene.Point) {
	a := f.last
	if step := f.opts.StepDistance; !math.IsInf(step, 1) {
		l := math.Hypot(b.X-a.X, b.Y-a.Y)
		if n := math.Ceil(l / step); n > 1 {
			if n > maxLineSplits {
				n = maxLineSplits
			}
			for i := 1; i < int(n); i++ {
				f.add(a.Lerp(b, float64(i)/n))
			}
		}
	}
	f.add(b)
}

func (f *flattener) QuadBezier(b, c svgscene.Point) {
	f.ensureStarted()
	a := f.last
	// degree elevation is exact
	f.cubic(a, a.Add(b.Sub(a).Scale(2./3)), c.Add(b.Sub(c).Scale(2./3)), c, 0)
}

func (f *flattener) CubeBezier(b, c, d svgscene.Point) {
	f.ensureStarted()
	f.cubic(f.last, b, c, d, 0)
}

func (f *flattener) Stop(closeLoop bool) {
	if !f.inPath {
		return
	}
	if closeLoop && f.last != f.first {
		f.lineTo(f.first)
	}
	f.current.closed = closeLoop
	if n := len(f.current.points); n > 1 && f.current.points[n-1] == f.current.points[0] && closeLoop {
		f.current.points = f.current.points[:n-1]
	}
	f.contours = append(f.contours, f.current)
	f.current = contour{}
	f.inPath = false
	if closeLoop {
		f.last = f.first
	}
}

// cubic recursively splits the curve until each piece is flat enough
func (f *flattener) cubic(p0, p1, p2, p3 svgscene.Point, depth int) {
	if depth >= maxSubdivision || f.flatEnough(p0, p1, p2, p3) {
		f.lineTo(p3)
		return
	}
	// de Casteljau at t = 1/2
	p01, p12, p23 := p0.Lerp(p1, 0.5), p1.Lerp(p2, 0.5), p2.Lerp(p3, 0.5)
	p012, p123 := p01.Lerp(p12, 0.5), p12.Lerp(p23, 0.5)
	mid := p012.Lerp(p123, 0.5)
	f.cubic(p0, p01, p012, mid, depth+1)
	f.cubic(mid, p123, p23, p3, depth+1)
}

func (f *flattener) flatEnough(p0, p1, p2, p3 svgscene.Point) bool {
	if cordDeviation(p0, p1, p2, p3) > f.opts.MaxCordDeviation {
		return false
	}
	if tangentDeviation(p0, p1, p2, p3) > f.opts.MaxTanAngleDeviation {
		return false
	}
	if step := f.opts.StepDistance; !math.IsInf(step, 1) {
		// the control polygon is an upper bound of the length
		if polyLength(p0, p1, p2, p3) > step && curveLength(p0, p1, p2, p3, f.opts.SamplingStepSize) > step {
			return false
		}
	}
	return true
}

// cordDeviation returns an upper bound of the distance between
// the curve and its chord: the curve lies in the convex hull
// of its control points.
func cordDeviation(p0, p1, p2, p3 svgscene.Point) float64 {
	return math.Max(distanceToSegment(p1, p0, p3), distanceToSegment(p2, p0, p3))
}

func distanceToSegment(p, a, b svgscene.Point) float64 {
	ab := b.Sub(a)
	l2 := ab.X*ab.X + ab.Y*ab.Y
	if l2 == 0 {
		return math.Hypot(p.X-a.X, p.Y-a.Y)
	}
	ap := p.Sub(a)
	t := (ap.X*ab.X + ap.Y*ab.Y) / l2
	t = math.Max(0, math.Min(1, t))
	q := a.Add(ab.Scale(t))
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// angleBetween returns the unsigned angle between u and v,
// or 0 if one of them is null
func angleBetween(u, v svgscene.Point) float64 {
	if (u.X == 0 && u.Y == 0) || (v.X == 0 && v.Y == 0) {
		return 0
	}
	return math.Abs(math.Atan2(u.X*v.Y-u.Y*v.X, u.X*v.X+u.Y*v.Y))
}

// tangentDeviation returns the largest angle between the chord
// and the end tangents of the curve
func tangentDeviation(p0, p1, p2, p3 svgscene.Point) float64 {
	start := p1.Sub(p0)
	if start.X == 0 && start.Y == 0 {
		start = p2.Sub(p0)
	}
	end := p3.Sub(p2)
	if end.X == 0 && end.Y == 0 {
		end = p3.Sub(p1)
	}
	chord := p3.Sub(p0)
	if chord.X == 0 && chord.Y == 0 {
		return angleBetween(start, end)
	}
	return math.Max(angleBetween(start, chord), angleBetween(chord, end))
}

func polyLength(p0, p1, p2, p3 svgscene.Point) float64 {
	return math.Hypot(p1.X-p0.X, p1.Y-p0.Y) + math.Hypot(p2.X-p1.X, p2.Y-p1.Y) + math.Hypot(p3.X-p2.X, p3.Y-p2.Y)
}

// curveLength estimates the length of the curve by sampling it
// every `step` parameter increment
func curveLength(p0, p1, p2, p3 svgscene.Point, step float64) float64 {
	n := maxSamples
	if step > 0 && 1/step < maxSamples {
		n = int(math.Ceil(1 / step))
	}
	if n < 1 {
		n = 1
	}
	var length float64
	prev := p0
	for i := 1; i <= n; i++ {
		p := cubicAt(p0, p1, p2, p3, float64(i)/float64(n))
		length += math.Hypot(p.X-prev.X, p.Y-prev.Y)
		prev = p
	}
	return length
}

func cubicAt(p0, p1, p2, p3 svgscene.Point, t float64) svgscene.Point {
	mt := 1 - t
	a, b, c, d := mt*mt*mt, 3*mt*mt*t, 3*mt*t*t, t*t*t
	return svgscene.Point{
		X: a*p0.X + b*p1.X + c*p2.X + d*p3.X,
		Y: a*p0.Y + b*p1.Y + c*p2.Y + d*p3.Y,
	}
}
