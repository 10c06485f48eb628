package svgpack

import (
	"errors"
	"fmt"
	"math"

	"github.com/benoitkugler/svgmesh/svgscene"
	"github.com/benoitkugler/svgmesh/svgtess"
	"github.com/sirupsen/logrus"
)

// ErrInvalidGeometry is returned when a geometry index is out of range.
var ErrInvalidGeometry = errors.New("invalid geometry")

// PackAsset concatenates the geometries into one asset, in order.
// Degenerate geometries are skipped.
//
// If one of the geometries is painted with a gradient, each distinct gradient is
// rasterized into a ramp of `gradientResolution` texels, and the ramps are
// packed into the asset atlas. `gradientResolution` is unused otherwise.
//
// `rect` is the asset area. If it is the zero Rect, the bounding box
// of the vertices is used.
//
// If the total number of vertices can't be addressed with the index width,
// ErrPackingOverflow is returned, with a nil asset.
func PackAsset(geoms []svgtess.Geometry, rect svgscene.Rect, gradientResolution int, opts ...Option) (*VectorImageAsset, error) {
	cfg := config{indexWidth: Index32, maxAtlasWidth: DefaultMaxAtlasWidth}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = logrus.StandardLogger()
	}
	if cfg.maxAtlasWidth < stripWidth {
		return nil, fmt.Errorf("%w: maximum atlas width %d", ErrPackingConfig, cfg.maxAtlasWidth)
	}
	if gradientResolution < 0 {
		return nil, fmt.Errorf("%w: gradient resolution %d", ErrPackingConfig, gradientResolution)
	}

	var (
		nbVertices uint64
		nbIndices  int
		gradients  []*svgscene.Gradient
		seen       = make(map[*svgscene.Gradient]bool)
	)
	for i := range geoms {
		g := &geoms[i]
		if g.Degenerate() {
			continue
		}
		for _, idx := range g.Indices {
			if int(idx) >= len(g.Vertices) {
				return nil, fmt.Errorf("%w: geometry %d references vertex %d of %d", ErrInvalidGeometry, i, idx, len(g.Vertices))
			}
		}
		nbVertices += uint64(len(g.Vertices))
		nbIndices += len(g.Indices)
		if grad := g.Gradient(); grad != nil && !seen[grad] {
			seen[grad] = true
			gradients = append(gradients, grad)
		}
	}
	if limit := cfg.indexWidth.MaxVertices(); nbVertices > limit {
		return nil, fmt.Errorf("%w: %d vertices for %s indices (max %d)", ErrPackingOverflow, nbVertices, cfg.indexWidth, limit)
	}

	asset := &VectorImageAsset{
		Name:       cfg.name,
		IndexWidth: cfg.indexWidth,
		Vertices:   make([]Vertex, 0, nbVertices),
		Indices:    make([]uint32, 0, nbIndices),
	}

	var at *atlas
	if len(gradients) != 0 {
		if gradientResolution == 0 {
			return nil, fmt.Errorf("%w: gradient resolution must be > 0", ErrPackingConfig)
		}
		at = buildAtlas(gradients, gradientResolution, cfg.maxAtlasWidth)
		asset.Atlas, asset.Gradients = at.img, at.entries
		asset.GradientResolution = gradientResolution
		if cfg.name != "" {
			asset.AtlasName = cfg.name + "Atlas"
		}
		cfg.logger.WithFields(logrus.Fields{
			"gradients": len(gradients),
			"width":     at.img.Rect.Dx(),
			"height":    at.img.Rect.Dy(),
		}).Debug("gradient atlas")
	}

	for i := range geoms {
		g := &geoms[i]
		if g.Degenerate() {
			continue
		}
		offset := uint32(len(asset.Vertices))
		asset.Vertices = appendVertices(asset.Vertices, g, at)
		for _, idx := range g.Indices {
			asset.Indices = append(asset.Indices, idx+offset)
		}
	}

	asset.Rect = rect
	if rect == (svgscene.Rect{}) {
		asset.Rect = verticesBounds(asset.Vertices)
	}
	return asset, nil
}

func appendVertices(dst []Vertex, g *svgtess.Geometry, at *atlas) []Vertex {
	opacity := clamp01(g.Opacity)
	grad := g.Gradient()
	if grad == nil || at == nil {
		c := g.Color
		r, gr, b := float32(c.R)/0xff, float32(c.G)/0xff, float32(c.B)/0xff
		a := float32(float64(c.A) / 0xff * opacity)
		for _, v := range g.Vertices {
			dst = append(dst, Vertex{X: v.X, Y: v.Y, R: r, G: gr, B: b, A: a})
		}
		return dst
	}

	// the ramp is sampled per fragment, from the gradient space position
	mapping := newGradientMapping(grad, g.Transform, g.Bounds)
	index := at.index[grad]
	u, w := at.uv(grad, 0)
	for _, v := range g.Vertices {
		p := mapping.gradientPoint(svgscene.Point{X: float64(v.X), Y: float64(v.Y)})
		dst = append(dst, Vertex{
			X: v.X, Y: v.Y,
			R: u, G: w, A: float32(opacity),
			GX: float32(p.X), GY: float32(p.Y),
			Gradient: uint32(index),
			Textured: true,
		})
	}
	return dst
}

func verticesBounds(vertices []Vertex) svgscene.Rect {
	if len(vertices) == 0 {
		return svgscene.Rect{}
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, v := range vertices {
		x, y := float64(v.X), float64(v.Y)
		minX, maxX = math.Min(minX, x), math.Max(maxX, x)
		minY, maxY = math.Min(minY, y), math.Max(maxY, y)
	}
	return svgscene.Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}
