// Package svgpack assembles tessellated geometries into a single
// vertex/index buffer, ready to be uploaded to a GPU.
//
// Solid paints are stored as per vertex colors. Gradient paints are
// rasterized into ramps packed in a shared texture atlas, and their vertices
// carry atlas coordinates and gradient space positions instead of colors.
package svgpack

import (
	"errors"
	"image"
	"math"

	"github.com/benoitkugler/svgmesh/svgscene"
	"github.com/sirupsen/logrus"
)

var (
	// ErrPackingOverflow is returned when the vertices
	// can't be addressed with the chosen index width.
	ErrPackingOverflow = errors.New("too many vertices for the index width")

	// ErrPackingConfig is returned for invalid packing parameters.
	ErrPackingConfig = errors.New("invalid packing configuration")
)

// IndexWidth is the size of the indices of the target index buffer.
type IndexWidth uint8

const (
	Index32 IndexWidth = iota
	Index16
)

// MaxVertices returns the number of vertices addressable with the width.
// The largest index value is reserved for primitive restart.
func (iw IndexWidth) MaxVertices() uint64 {
	if iw == Index16 {
		return math.MaxUint16
	}
	return math.MaxUint32
}

func (iw IndexWidth) String() string {
	if iw == Index16 {
		return "16-bit"
	}
	return "32-bit"
}

// Vertex is the packed vertex format.
// For solid vertices, R, G, B, A is the straight color, in [0, 1].
// For textured vertices, R and G are the atlas coordinates (U, V) of the
// start of the ramp, B is zero and A is the opacity. GX and GY are then the
// position of the vertex in the space of the gradient Gradients[Gradient]:
// they vary linearly across triangles, and the sampled color is the ramp
// texel at AtlasEntry.Parameter(GX, GY).
type Vertex struct {
	X, Y       float32
	R, G, B, A float32
	GX, GY     float32
	Gradient   uint32
	Textured   bool
}

// AtlasEntry locates the ramp of one gradient in the atlas.
type AtlasEntry struct {
	Gradient *svgscene.Gradient
	X, Y     int // top left texel
}

// VectorImageAsset is the result of the packing.
type VectorImageAsset struct {
	Name string

	Vertices   []Vertex
	Indices    []uint32 // triangle list
	IndexWidth IndexWidth

	// Atlas is nil if no geometry is painted with a gradient.
	Atlas     *image.NRGBA
	AtlasName string
	Gradients []AtlasEntry
	// GradientResolution is the height of each ramp, in texels.
	GradientResolution int

	// Rect is the area covered by the asset, in world units.
	Rect svgscene.Rect
}

// TriangleCount returns the number of triangles.
func (a *VectorImageAsset) TriangleCount() int { return len(a.Indices) / 3 }

// Textured returns true if the asset uses an atlas.
func (a *VectorImageAsset) Textured() bool { return a.Atlas != nil }

// RampUV returns the atlas coordinates of the gradient
// Gradients[index] at parameter t, in [0, 1].
func (a *VectorImageAsset) RampUV(index int, t float64) (u, v float32) {
	return rampUV(a.Gradients[index], a.Atlas.Bounds(), a.GradientResolution, t)
}

const (
	// DefaultMaxAtlasWidth is the default maximum width of the atlas, in texels.
	DefaultMaxAtlasWidth = 256

	stripWidth = 1 // in texels
)

type config struct {
	indexWidth    IndexWidth
	maxAtlasWidth int
	name          string
	logger        logrus.FieldLogger
}

// Option customizes PackAsset.
type Option func(*config)

// WithIndexWidth selects the index width, which defaults to Index32.
func WithIndexWidth(iw IndexWidth) Option {
	return func(c *config) { c.indexWidth = iw }
}

// WithMaxAtlasWidth caps the width of the atlas. Gradient ramps
// beyond this width are packed on new rows.
func WithMaxAtlasWidth(width int) Option {
	return func(c *config) { c.maxAtlasWidth = width }
}

// WithName names the asset, and its atlas.
func WithName(name string) Option {
	return func(c *config) { c.name = name }
}

// WithLogger sets the logger used for debug output.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(c *config) { c.logger = logger }
}
