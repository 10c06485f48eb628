package svgtess

import (
	"image"
	"math"

	"github.com/benoitkugler/svgmesh/svgscene"
	"github.com/srwiley/rasterx"
	"golang.org/x/image/math/fixed"
)

// Strokes are expanded by the rasterx stroker, which works in 26.6 fixed
// point. The polylines are centered and scaled so that the whole stroke fits
// in ±maxFixedExtent pixels, which keeps the stroker intermediate products
// in the int32 range.
const (
	maxFixedExtent = 256 // in pixels
	minFixedExtent = 16  // in pixels

	// rasterx flattens caps and joins with an error close to half a
	// fixed unit: one pixel is mapped to a quarter of the tolerance
	rasterxTolerance = 0.58 / 64 * 4

	maxMiterLimit = 100
)

// edgeCapture is a rasterx.Scanner recording the segments
// it receives instead of rasterizing them
type edgeCapture struct {
	edges [][2]fixed.Point26_6
	pen   fixed.Point26_6
	ext   fixed.Rectangle26_6
}

var _ rasterx.Scanner = (*edgeCapture)(nil) // assert interface conformance

func (c *edgeCapture) Start(a fixed.Point26_6) { c.pen = a }

func (c *edgeCapture) Line(b fixed.Point26_6) {
	if b != c.pen {
		c.edges = append(c.edges, [2]fixed.Point26_6{c.pen, b})
		c.ext = c.ext.Union(fixed.Rectangle26_6{Min: b, Max: b.Add(fixed.Point26_6{X: 1, Y: 1})})
	}
	c.pen = b
}

func (c *edgeCapture) GetPathExtent() fixed.Rectangle26_6 { return c.ext }

func (c *edgeCapture) Clear() {
	c.edges = c.edges[:0]
	c.ext = fixed.Rectangle26_6{}
}

func (*edgeCapture) Draw() {}

func (*edgeCapture) SetBounds(w, h int) {}

func (*edgeCapture) SetColor(interface{}) {}

func (*edgeCapture) SetWinding(bool) {}

func (*edgeCapture) SetClip(image.Rectangle) {}

// normalizeDashes returns a copy of the dash pattern to use, or nil for a solid line.
// Odd lists are repeated, and the offset is brought back to one period.
func normalizeDashes(dashes []float64, offset float64) ([]float64, float64) {
	var period float64
	for _, d := range dashes {
		if d < 0 || math.IsNaN(d) || math.IsInf(d, 0) {
			return nil, 0
		}
		period += d
	}
	if period == 0 {
		return nil, 0
	}
	out := append([]float64(nil), dashes...)
	if len(dashes)%2 == 1 {
		out = append(out, dashes...)
		period *= 2
	}
	if math.IsNaN(offset) || math.IsInf(offset, 0) {
		offset = 0
	}
	offset = math.Mod(offset, period)
	if offset < 0 {
		offset += period
	}
	return out, offset
}

// strokeEdges expands the polylines with the stroke parameters,
// returning the outline of the stroke as a set of directed edges,
// to be filled with the non zero rule.
// Coordinates are unchanged: `cord` is the tolerance in that space.
func strokeEdges(contours []contour, st *svgscene.Stroke, cord float64) []edge {
	width := st.Width
	if !positive(width) || math.IsInf(width, 1) {
		return nil
	}
	var (
		minP = svgscene.Point{X: math.Inf(1), Y: math.Inf(1)}
		maxP = svgscene.Point{X: math.Inf(-1), Y: math.Inf(-1)}
	)
	for _, c := range contours {
		if len(c.points) < 2 {
			continue
		}
		for _, p := range c.points {
			minP.X, minP.Y = math.Min(minP.X, p.X), math.Min(minP.Y, p.Y)
			maxP.X, maxP.Y = math.Max(maxP.X, p.X), math.Max(maxP.Y, p.Y)
		}
	}
	if minP.X > maxP.X || !finite(minP) || !finite(maxP) {
		return nil
	}
	center := minP.Lerp(maxP, 0.5)

	miterLimit := math.Max(1, math.Min(maxMiterLimit, st.MiterLimit))
	extent := math.Max(maxP.X-minP.X, maxP.Y-minP.Y)/2 + width/2*math.Max(miterLimit, math.Sqrt2) + width
	scale := 0. // pixels per unit
	if !math.IsInf(cord, 1) {
		scale = rasterxTolerance / cord
	}
	scale = math.Max(minFixedExtent/extent, math.Min(maxFixedExtent/extent, scale))

	toFixed := func(p svgscene.Point) fixed.Point26_6 {
		return fixed.Point26_6{
			X: fixed.Int26_6(math.Round((p.X - center.X) * scale * 64)),
			Y: fixed.Int26_6(math.Round((p.Y - center.Y) * scale * 64)),
		}
	}

	capture := new(edgeCapture)
	dasher := rasterx.NewDasher(0, 0, capture)
	dashes, offset := normalizeDashes(st.Dash, st.DashOffset)
	for i := range dashes {
		dashes[i] *= scale
	}
	dasher.SetStroke(fixed.Int26_6(width*scale*64), fixed.Int26_6(miterLimit*64),
		st.Cap.Rasterx(), nil, nil, st.Join.Rasterx(), dashes, offset*scale)

	for _, c := range contours {
		if len(c.points) < 2 {
			continue
		}
		first := toFixed(c.points[0])
		last := first
		dasher.Start(first)
		for _, p := range c.points[1:] {
			fp := toFixed(p)
			if fp == last {
				continue
			}
			dasher.Line(fp)
			last = fp
		}
		dasher.Stop(c.closed)
	}

	out := make([]edge, len(capture.edges))
	inv := 1 / (scale * 64)
	for i, e := range capture.edges {
		out[i] = edge{
			a: svgscene.Point{X: float64(e[0].X)*inv + center.X, Y: float64(e[0].Y)*inv + center.Y},
			b: svgscene.Point{X: float64(e[1].X)*inv + center.X, Y: float64(e[1].Y)*inv + center.Y},
		}
	}
	return out
}
