package svgtess

import (
	"math"
	"sort"

	"github.com/benoitkugler/svgmesh/svgscene"
)

// This file implements a trapezoidal decomposition of a set of
// directed edges, in the spirit of a scanline rasterizer: the plane is cut
// into horizontal slabs at every vertex and crossing ordinate, the winding
// number is accumulated from left to right inside each slab, and the spans
// selected by the fill rule are emitted as pairs of triangles.

// edge is a directed segment
type edge struct {
	a, b svgscene.Point
}

// slabEdge is a non horizontal edge, stored from top to bottom
type slabEdge struct {
	x0, y0, x1, y1 float64
	dir            int // +1 when going down, -1 otherwise
}

func (e *slabEdge) xAt(y float64) float64 {
	switch y {
	case e.y0:
		return e.x0
	case e.y1:
		return e.x1
	}
	return e.x0 + (y-e.y0)*(e.x1-e.x0)/(e.y1-e.y0)
}

// contourEdges returns the edges of the contours, implicitly closed
func contourEdges(contours []contour) []edge {
	var out []edge
	for _, c := range contours {
		n := len(c.points)
		if n < 2 {
			continue
		}
		for i, a := range c.points {
			out = append(out, edge{a, c.points[(i+1)%n]})
		}
	}
	return out
}

// mesh accumulates triangles, merging identical vertices
type mesh struct {
	vertices []Vertex
	indices  []uint32
	lookup   map[Vertex]uint32
}

func (m *mesh) vertex(x, y float64) uint32 {
	v := Vertex{X: float32(x), Y: float32(y)}
	if idx, ok := m.lookup[v]; ok {
		return idx
	}
	if m.lookup == nil {
		m.lookup = make(map[Vertex]uint32)
	}
	idx := uint32(len(m.vertices))
	m.vertices = append(m.vertices, v)
	m.lookup[v] = idx
	return idx
}

func (m *mesh) triangle(ax, ay, bx, by, cx, cy float64) {
	// skip flat triangles
	if (bx-ax)*(cy-ay)-(by-ay)*(cx-ax) == 0 {
		return
	}
	i, j, k := m.vertex(ax, ay), m.vertex(bx, by), m.vertex(cx, cy)
	if i == j || j == k || i == k {
		return
	}
	m.indices = append(m.indices, i, j, k)
}

// trapezoid emits the area between xl0 and xr0 at y0 and xl1 and xr1 at y1
func (m *mesh) trapezoid(y0, xl0, xr0, y1, xl1, xr1 float64) {
	m.triangle(xl0, y0, xr0, y0, xr1, y1)
	m.triangle(xl0, y0, xr1, y1, xl1, y1)
}

// triangulate fills the region delimited by `edges` according to `rule`.
func triangulate(edges []edge, rule svgscene.FillRule) (vertices []Vertex, indices []uint32) {
	var (
		slabEdges []slabEdge
		ys        []float64
	)
	for _, e := range edges {
		if e.a.Y == e.b.Y || !finite(e.a) || !finite(e.b) {
			continue // horizontal edges do not change the winding
		}
		se := slabEdge{x0: e.a.X, y0: e.a.Y, x1: e.b.X, y1: e.b.Y, dir: 1}
		if se.y0 > se.y1 {
			se = slabEdge{x0: e.b.X, y0: e.b.Y, x1: e.a.X, y1: e.a.Y, dir: -1}
		}
		slabEdges = append(slabEdges, se)
		ys = append(ys, se.y0, se.y1)
	}
	if len(slabEdges) == 0 {
		return nil, nil
	}
	sort.Slice(slabEdges, func(i, j int) bool { return slabEdges[i].y0 < slabEdges[j].y0 })
	sort.Float64s(ys)
	ys = uniqueSorted(ys)

	var (
		m      mesh
		active []*slabEdge
		next   int
		sw     sweep
	)
	for i := 0; i+1 < len(ys); i++ {
		ya, yb := ys[i], ys[i+1]
		// update the active edges
		kept := active[:0]
		for _, e := range active {
			if e.y1 > ya {
				kept = append(kept, e)
			}
		}
		active = kept
		for next < len(slabEdges) && slabEdges[next].y0 <= ya {
			if slabEdges[next].y1 > ya {
				active = append(active, &slabEdges[next])
			}
			next++
		}
		if len(active) < 2 {
			continue
		}
		sw.fillSlab(&m, active, ya, yb, rule)
	}
	return m.vertices, m.indices
}

func finite(p svgscene.Point) bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}

func uniqueSorted(values []float64) []float64 {
	out := values[:0]
	for i, v := range values {
		if i == 0 || v != out[len(out)-1] {
			out = append(out, v)
		}
	}
	return out
}

// crossing of an edge with a slab
type crossing struct {
	top, bottom float64
	dir         int
}

// sweep holds buffers reused between slabs
type sweep struct {
	crossings []crossing
}

const maxSlabSplits = 1 << 12

// fillSlab emits the inside spans of the slab [ya, yb], splitting it
// at edge intersections so that edges do not cross inside a piece
func (sw *sweep) fillSlab(m *mesh, active []*slabEdge, ya, yb float64, rule svgscene.FillRule) {
	for splits := 0; ya < yb; splits++ {
		y := yb
		if splits < maxSlabSplits {
			y = sw.firstCrossing(active, ya, yb)
		}
		sw.fillPiece(m, active, ya, y, rule)
		ya = y
	}
}

// firstCrossing returns the smallest ordinate in (ya, yb) where
// two active edges intersect, or yb
func (sw *sweep) firstCrossing(active []*slabEdge, ya, yb float64) float64 {
	sw.load(active, ya, yb)
	cs := sw.crossings
	sort.Slice(cs, func(i, j int) bool {
		if cs[i].top != cs[j].top {
			return cs[i].top < cs[j].top
		}
		return cs[i].bottom < cs[j].bottom
	})
	eps := 1e-9 * (math.Abs(ya) + math.Abs(yb) + 1)
	best := yb
	for i := range cs {
		for j := i + 1; j < len(cs); j++ {
			dTop := cs[j].top - cs[i].top
			dBottom := cs[j].bottom - cs[i].bottom
			if dBottom >= 0 || dTop-dBottom == 0 {
				continue // same order at both ends
			}
			// the two edges cross at the parameter t in (0, 1]
			t := dTop / (dTop - dBottom)
			y := ya + t*(yb-ya)
			if y-ya > eps && yb-y > eps && y < best {
				best = y
			}
		}
	}
	return best
}

func (sw *sweep) load(active []*slabEdge, ya, yb float64) {
	sw.crossings = sw.crossings[:0]
	for _, e := range active {
		sw.crossings = append(sw.crossings, crossing{top: e.xAt(ya), bottom: e.xAt(yb), dir: e.dir})
	}
}

// fillPiece emits the inside spans of a slab piece without crossings
func (sw *sweep) fillPiece(m *mesh, active []*slabEdge, ya, yb float64, rule svgscene.FillRule) {
	sw.load(active, ya, yb)
	cs := sw.crossings
	sort.Slice(cs, func(i, j int) bool {
		return cs[i].top+cs[i].bottom < cs[j].top+cs[j].bottom
	})
	winding := 0
	var start crossing
	for _, c := range cs {
		wasInside := rule.Inside(winding)
		winding += c.dir
		isInside := rule.Inside(winding)
		switch {
		case !wasInside && isInside:
			start = c
		case wasInside && !isInside:
			m.trapezoid(ya, start.top, c.top, yb, start.bottom, c.bottom)
		}
	}
}
