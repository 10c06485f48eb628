package svgscene

import (
	"errors"
	"fmt"
)

// ErrNoRoot is returned when a scene has no valid root node.
var ErrNoRoot = errors.New("scene has no root node")

// NodeID is a stable index into the node arena of a Scene.
type NodeID int

// InvalidNode is never a valid index.
const InvalidNode NodeID = -1

// Shape binds painting properties to a path.
type Shape struct {
	Path  Path
	Props PathProperties
}

// Node is an element of the scene tree.
// Its transform maps its local coordinates into
// the coordinate space of its parent.
type Node struct {
	Transform Matrix2D
	Children  []NodeID
	Shapes    []Shape
}

// Scene stores a tree of nodes in an arena.
// Parents own their children: a node is referenced by exactly one parent,
// except the root, which has none.
type Scene struct {
	nodes []Node
	Root  NodeID
}

// NewScene returns a scene with an empty root node.
func NewScene() *Scene {
	return &Scene{nodes: []Node{{Transform: Identity}}, Root: 0}
}

// Len returns the number of nodes in the arena.
func (s *Scene) Len() int { return len(s.nodes) }

// Valid returns true if `id` adresses a node of the scene.
func (s *Scene) Valid(id NodeID) bool { return id >= 0 && int(id) < len(s.nodes) }

// Node returns the node with the given id, or nil.
// The pointer is invalidated by the next call to AddChild.
func (s *Scene) Node(id NodeID) *Node {
	if !s.Valid(id) {
		return nil
	}
	return &s.nodes[id]
}

// AddChild appends a new empty node, with identity transform, to the
// children of `parent` and returns its id.
// It panics if `parent` is not a valid node.
func (s *Scene) AddChild(parent NodeID) NodeID {
	if !s.Valid(parent) {
		panic(fmt.Sprintf("invalid parent node %d", parent))
	}
	id := NodeID(len(s.nodes))
	s.nodes = append(s.nodes, Node{Transform: Identity})
	s.nodes[parent].Children = append(s.nodes[parent].Children, id)
	return id
}

// AddShape appends a shape to the given node.
func (s *Scene) AddShape(id NodeID, shape Shape) {
	s.nodes[id].Shapes = append(s.nodes[id].Shapes, shape)
}

// SceneInfo is the result of parsing a document.
type SceneInfo struct {
	Scene    *Scene
	Viewport Rect

	// Opacities stores the group opacity of nodes,
	// in [0, 1]. Missing entries mean 1.
	Opacities map[NodeID]float64

	// IDs maps the document identifiers to their node.
	IDs map[string]NodeID
}

// NewSceneInfo wraps a scene built programmatically.
func NewSceneInfo(scene *Scene, viewport Rect) *SceneInfo {
	return &SceneInfo{
		Scene:     scene,
		Viewport:  viewport,
		Opacities: make(map[NodeID]float64),
		IDs:       make(map[string]NodeID),
	}
}

// Opacity returns the opacity of the node, defaulting to 1.
func (si *SceneInfo) Opacity(id NodeID) float64 {
	if op, ok := si.Opacities[id]; ok {
		return op
	}
	return 1
}

// Lookup returns the node with the given document identifier.
func (si *SceneInfo) Lookup(id string) (NodeID, bool) {
	n, ok := si.IDs[id]
	return n, ok
}

// Validate returns ErrNoRoot if the scene or its root is missing.
func (si *SceneInfo) Validate() error {
	if si == nil || si.Scene == nil || !si.Scene.Valid(si.Scene.Root) {
		return ErrNoRoot
	}
	return nil
}

// Visit is the state passed to a WalkFunc.
type Visit struct {
	ID        NodeID
	Node      *Node
	Transform Matrix2D // from node local space to the walk origin
	Opacity   float64  // cumulative group opacity
	Depth     int
}

// WalkFunc is called for each node. Returning false skips the children.
type WalkFunc func(v Visit) bool

// Walk visits the subtree rooted at `from` in pre-order:
// a node is visited before its children, and children in document order.
// Opacities may be nil.
func Walk(s *Scene, from NodeID, opacities map[NodeID]float64, fn WalkFunc) {
	if !s.Valid(from) {
		return
	}
	type item struct {
		id      NodeID
		parent  Matrix2D
		opacity float64
		depth   int
	}
	stack := []item{{id: from, parent: Identity, opacity: 1}}
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		node := &s.nodes[it.id]
		op := it.opacity
		if o, ok := opacities[it.id]; ok {
			op *= o
		}
		v := Visit{ID: it.id, Node: node, Transform: it.parent.Mult(node.Transform), Opacity: op, Depth: it.depth}
		if !fn(v) {
			continue
		}
		// push in reverse order so that the first child is popped first
		for i := len(node.Children) - 1; i >= 0; i-- {
			child := node.Children[i]
			if !s.Valid(child) {
				continue
			}
			stack = append(stack, item{id: child, parent: v.Transform, opacity: op, depth: it.depth + 1})
		}
	}
}
