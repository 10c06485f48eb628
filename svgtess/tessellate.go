package svgtess

import (
	"context"
	"math"

	"github.com/benoitkugler/svgmesh/svgscene"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Tessellator converts the shapes of a scene into geometries.
// The zero value of the Workers and Logger fields are usable.
type Tessellator struct {
	Options TessellationOptions

	// Workers is the number of shapes tessellated concurrently.
	// Values <= 1 tessellate sequentially.
	Workers int

	// Logger receives degenerate shape reports, at debug level.
	// If nil, the logrus standard logger is used.
	Logger logrus.FieldLogger
}

// Tessellate returns the geometries of the scene, sequentially.
// See Tessellator.Run.
func Tessellate(info *svgscene.SceneInfo, opts TessellationOptions) ([]Geometry, error) {
	return Tessellator{Options: opts}.Run(context.Background(), info)
}

// TessellateParallel is like Tessellate, using up to `workers` goroutines.
func TessellateParallel(ctx context.Context, info *svgscene.SceneInfo, opts TessellationOptions, workers int) ([]Geometry, error) {
	return Tessellator{Options: opts, Workers: workers}.Run(ctx, info)
}

// job is one fill or stroke to tessellate
type job struct {
	node      svgscene.NodeID
	index     int
	shape     *svgscene.Shape
	stroke    bool
	transform svgscene.Matrix2D
	opacity   float64
}

// collectJobs lists the fills and strokes of the scene in document order:
// nodes are visited in pre-order, and the fill of a shape comes before its stroke.
func collectJobs(info *svgscene.SceneInfo) []job {
	var jobs []job
	svgscene.Walk(info.Scene, info.Scene.Root, info.Opacities, func(v svgscene.Visit) bool {
		for i := range v.Node.Shapes {
			shape := &v.Node.Shapes[i]
			if shape.Props.Fill != nil {
				jobs = append(jobs, job{node: v.ID, index: i, shape: shape, transform: v.Transform, opacity: v.Opacity})
			}
			if st := shape.Props.Stroke; st != nil && st.Color != nil {
				jobs = append(jobs, job{node: v.ID, index: i, shape: shape, stroke: true, transform: v.Transform, opacity: v.Opacity})
			}
		}
		return true
	})
	return jobs
}

// Run tessellates every shape of the scene, returning one Geometry
// per fill and per stroke, in document order.
// Shapes which can't be triangulated yield a degenerate Geometry.
// With several workers, the output does not depend on the scheduling.
// If `ctx` is cancelled, the context error is returned and no geometry.
func (t Tessellator) Run(ctx context.Context, info *svgscene.SceneInfo) ([]Geometry, error) {
	if err := t.Options.Validate(); err != nil {
		return nil, err
	}
	if err := info.Validate(); err != nil {
		return nil, err
	}
	logger := t.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	jobs := collectJobs(info)
	out := make([]Geometry, len(jobs))
	if t.Workers <= 1 {
		for i, j := range jobs {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			out[i] = t.tessellate(j, logger)
		}
		return out, nil
	}

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(t.Workers)
	for i := range jobs {
		i := i
		group.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i] = t.tessellate(jobs[i], logger)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (t Tessellator) tessellate(j job, logger logrus.FieldLogger) Geometry {
	props := j.shape.Props
	g := Geometry{
		Transform:  j.transform,
		Bounds:     j.shape.Path.Bounds(svgscene.Identity),
		Node:       j.node,
		ShapeIndex: j.index,
		Stroke:     j.stroke,
	}
	if j.stroke {
		g.Paint = props.Stroke.Color
		g.Opacity = j.opacity * props.Stroke.Opacity
		g.Vertices, g.Indices = tessellateStroke(j.shape.Path, props.Stroke, j.transform, t.Options)
	} else {
		g.Paint = props.Fill
		g.Opacity = j.opacity * props.FillOpacity
		g.Vertices, g.Indices = tessellateFill(j.shape.Path, props.FillRule, j.transform, t.Options)
	}
	g.Color = resolveColor(g.Paint)

	if g.Degenerate() {
		logger.WithFields(logrus.Fields{
			"node":   j.node,
			"shape":  j.index,
			"stroke": j.stroke,
		}).Debug("degenerate shape geometry")
	}
	return g
}

// tessellateFill flattens the path in world space, so that
// the tolerances apply to the output directly
func tessellateFill(path svgscene.Path, rule svgscene.FillRule, m svgscene.Matrix2D, opts TessellationOptions) ([]Vertex, []uint32) {
	contours := flatten(path, m, opts)
	return triangulate(contourEdges(contours), rule)
}

// tessellateStroke expands the stroke in local space, where the
// stroke width is defined, and transforms the resulting outline
func tessellateStroke(path svgscene.Path, st *svgscene.Stroke, m svgscene.Matrix2D, opts TessellationOptions) ([]Vertex, []uint32) {
	scale := m.MaxScale()
	if !(scale > 0) || math.IsInf(scale, 1) {
		return nil, nil
	}
	local := opts.scaled(scale)
	contours := flatten(path, svgscene.Identity, local)
	edges := strokeEdges(contours, st, local.MaxCordDeviation)
	for i, e := range edges {
		edges[i] = edge{m.TransformPoint(e.a), m.TransformPoint(e.b)}
	}
	return triangulate(edges, svgscene.NonZero)
}
