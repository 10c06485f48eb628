package svgscene

import "math"

// Rect defines a bounding box, such as a viewport
// or a path extent.
type Rect struct{ X, Y, W, H float64 }

// IsEmpty returns true for zero area rectangles.
func (r Rect) IsEmpty() bool { return r.W <= 0 || r.H <= 0 }

// MaxDim returns the largest side.
func (r Rect) MaxDim() float64 { return math.Max(r.W, r.H) }

// Max returns the bottom right corner.
func (r Rect) Max() Point { return Point{r.X + r.W, r.Y + r.H} }

// Union returns the smallest rectangle containing both `r` and `other`.
func (r Rect) Union(other Rect) Rect {
	minX, minY := math.Min(r.X, other.X), math.Min(r.Y, other.Y)
	maxX, maxY := math.Max(r.X+r.W, other.X+other.W), math.Max(r.Y+r.H, other.Y+other.H)
	return Rect{minX, minY, maxX - minX, maxY - minY}
}

// Transform returns the bounding box of the four transformed corners.
func (r Rect) Transform(m Matrix2D) Rect {
	var ext extent
	for _, p := range [4]Point{{r.X, r.Y}, {r.X + r.W, r.Y}, {r.X, r.Y + r.H}, {r.X + r.W, r.Y + r.H}} {
		ext.add(m.TransformPoint(p))
	}
	return ext.rect()
}

// extent accumulates points
type extent struct {
	minX, minY, maxX, maxY float64
	seen                   bool
}

func (e *extent) add(p Point) {
	if !e.seen {
		e.minX, e.maxX, e.minY, e.maxY = p.X, p.X, p.Y, p.Y
		e.seen = true
		return
	}
	e.minX = math.Min(e.minX, p.X)
	e.minY = math.Min(e.minY, p.Y)
	e.maxX = math.Max(e.maxX, p.X)
	e.maxY = math.Max(e.maxY, p.Y)
}

func (e *extent) addRect(r Rect) {
	e.add(Point{r.X, r.Y})
	e.add(r.Max())
}

// rect returns the zero rectangle if no point has been added
func (e extent) rect() Rect {
	if !e.seen {
		return Rect{}
	}
	return Rect{e.minX, e.minY, e.maxX - e.minX, e.maxY - e.minY}
}

// ApproximateBounds returns the bounding box of the subtree rooted at `id`,
// in the local coordinates of this node (its own transform is not applied).
// Shapes contribute the extents of their control points, which contain
// the curves but may be larger.
// A subtree without geometry yields the zero rectangle, and does not
// contribute to the box of its parent.
func ApproximateBounds(s *Scene, id NodeID) Rect {
	if !s.Valid(id) {
		return Rect{}
	}

	// post-order traversal with an explicit stack:
	// a node is resolved once all its children are.
	type frame struct {
		id       NodeID
		expanded bool
	}
	boxes := make(map[NodeID]Rect)
	stack := []frame{{id: id}}
	var pts []Point
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		node := &s.nodes[top.id]
		if !top.expanded {
			top.expanded = true
			for _, child := range node.Children {
				if s.Valid(child) {
					stack = append(stack, frame{id: child})
				}
			}
			continue
		}
		stack = stack[:len(stack)-1]

		var ext extent
		for _, shape := range node.Shapes {
			pts = shape.Path.appendControlPoints(pts[:0])
			for _, p := range pts {
				ext.add(p)
			}
		}
		for _, child := range node.Children {
			childBox, ok := boxes[child]
			if !ok {
				continue
			}
			ext.addRect(childBox.Transform(s.nodes[child].Transform))
			delete(boxes, child)
		}
		if ext.seen { // subtrees without geometry are ignored by their parent
			boxes[top.id] = ext.rect()
		}
	}
	return boxes[id]
}
