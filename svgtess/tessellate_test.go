package svgtess

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/benoitkugler/svgmesh/svgscene"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const kappa = 0.5522847498307936

func pt(x, y float64) svgscene.Point { return svgscene.Point{X: x, Y: y} }

func rectPath(x0, y0, x1, y1 float64) svgscene.Path {
	var p svgscene.Path
	p.Start(pt(x0, y0))
	p.Line(pt(x1, y0))
	p.Line(pt(x1, y1))
	p.Line(pt(x0, y1))
	p.Stop(true)
	return p
}

func circlePath(r float64) svgscene.Path {
	k := r * kappa
	var p svgscene.Path
	p.Start(pt(r, 0))
	p.CubeBezier(pt(r, k), pt(k, r), pt(0, r))
	p.CubeBezier(pt(-k, r), pt(-r, k), pt(-r, 0))
	p.CubeBezier(pt(-r, -k), pt(-k, -r), pt(0, -r))
	p.CubeBezier(pt(k, -r), pt(r, -k), pt(r, 0))
	p.Stop(true)
	return p
}

func meshArea(vertices []Vertex, indices []uint32) float64 {
	var area float64
	for i := 0; i+2 < len(indices); i += 3 {
		a, b, c := vertices[indices[i]], vertices[indices[i+1]], vertices[indices[i+2]]
		cross := float64(b.X-a.X)*float64(c.Y-a.Y) - float64(b.Y-a.Y)*float64(c.X-a.X)
		area += math.Abs(cross) / 2
	}
	return area
}

func meshBounds(vertices []Vertex) (minX, minY, maxX, maxY float64) {
	minX, minY = math.Inf(1), math.Inf(1)
	maxX, maxY = math.Inf(-1), math.Inf(-1)
	for _, v := range vertices {
		minX, minY = math.Min(minX, float64(v.X)), math.Min(minY, float64(v.Y))
		maxX, maxY = math.Max(maxX, float64(v.X)), math.Max(maxY, float64(v.Y))
	}
	return
}

var testOptions = TessellationOptions{
	StepDistance:         math.Inf(1),
	MaxCordDeviation:     0.01,
	MaxTanAngleDeviation: math.Pi / 2,
	SamplingStepSize:     0.01,
}

func TestFlattenCordDeviation(t *testing.T) {
	const r = 100
	for _, cord := range []float64{2, 0.5, 0.1} {
		opts := testOptions
		opts.MaxCordDeviation = cord
		contours := flatten(circlePath(r), svgscene.Identity, opts)
		require.Len(t, contours, 1)
		c := contours[0]
		assert.True(t, c.closed)
		require.Greater(t, len(c.points), 4)

		n := len(c.points)
		for i, p := range c.points {
			q := c.points[(i+1)%n]
			mid := p.Lerp(q, 0.5)
			sagitta := r - math.Hypot(mid.X, mid.Y)
			// the cubic approximation of the circle is off by 0.03
			assert.LessOrEqual(t, sagitta, cord+0.03)
		}
	}

	coarse := flatten(circlePath(r), svgscene.Identity, TessellationOptions{StepDistance: math.Inf(1), MaxCordDeviation: 1, MaxTanAngleDeviation: math.Pi / 2, SamplingStepSize: 0.01})
	fine := flatten(circlePath(r), svgscene.Identity, TessellationOptions{StepDistance: math.Inf(1), MaxCordDeviation: 0.01, MaxTanAngleDeviation: math.Pi / 2, SamplingStepSize: 0.01})
	assert.Less(t, len(coarse[0].points), len(fine[0].points))
}

func TestFlattenTangentAngle(t *testing.T) {
	opts := TessellationOptions{StepDistance: math.Inf(1), MaxCordDeviation: math.Inf(1), MaxTanAngleDeviation: 0.1, SamplingStepSize: 0.01}
	contours := flatten(circlePath(1), svgscene.Identity, opts)
	require.Len(t, contours, 1)
	// each piece spans at most twice the tangent deviation
	assert.GreaterOrEqual(t, len(contours[0].points), 30)

	opts.MaxTanAngleDeviation = math.Pi / 2
	loose := flatten(circlePath(1), svgscene.Identity, opts)
	assert.Len(t, loose[0].points, 4)
}

func TestFlattenStepDistance(t *testing.T) {
	var p svgscene.Path
	p.Start(pt(0, 0))
	p.Line(pt(10, 0))

	opts := testOptions
	opts.StepDistance = 1
	contours := flatten(p, svgscene.Identity, opts)
	require.Len(t, contours, 1)
	require.Len(t, contours[0].points, 11)
	for i, q := range contours[0].points {
		assert.InDelta(t, float64(i), q.X, 1e-12)
	}
	assert.False(t, contours[0].closed)

	// curves are split by their estimated length
	var c svgscene.Path
	c.Start(pt(0, 0))
	c.CubeBezier(pt(0, 10), pt(10, 10), pt(10, 0))
	contours = flatten(c, svgscene.Identity, opts)
	pts := contours[0].points
	for i := 1; i < len(pts); i++ {
		assert.LessOrEqual(t, math.Hypot(pts[i].X-pts[i-1].X, pts[i].Y-pts[i-1].Y), 1.)
	}
}

func TestFlattenTransform(t *testing.T) {
	m := svgscene.Identity.Translate(5, 0).Scale(2, 2)
	contours := flatten(rectPath(0, 0, 1, 1), m, testOptions)
	require.Len(t, contours, 1)
	assert.Equal(t, []svgscene.Point{pt(5, 0), pt(7, 0), pt(7, 2), pt(5, 2)}, contours[0].points)
}

func contoursOf(polys ...[]svgscene.Point) []contour {
	var out []contour
	for _, p := range polys {
		out = append(out, contour{points: p, closed: true})
	}
	return out
}

func TestTriangulateSquare(t *testing.T) {
	vertices, indices := triangulate(contourEdges(contoursOf([]svgscene.Point{pt(0, 0), pt(1, 0), pt(1, 1), pt(0, 1)})), svgscene.NonZero)
	assert.Len(t, vertices, 4)
	assert.Len(t, indices, 6)
	assert.InDelta(t, 1, meshArea(vertices, indices), 1e-9)
}

func TestTriangulateFillRules(t *testing.T) {
	outer := []svgscene.Point{pt(0, 0), pt(10, 0), pt(10, 10), pt(0, 10)}
	sameDirection := []svgscene.Point{pt(3, 3), pt(7, 3), pt(7, 7), pt(3, 7)}
	opposite := []svgscene.Point{pt(3, 3), pt(3, 7), pt(7, 7), pt(7, 3)}

	for _, test := range []struct {
		inner    []svgscene.Point
		rule     svgscene.FillRule
		expected float64
	}{
		{sameDirection, svgscene.NonZero, 100},
		{sameDirection, svgscene.EvenOdd, 84},
		{opposite, svgscene.NonZero, 84},
		{opposite, svgscene.EvenOdd, 84},
	} {
		vertices, indices := triangulate(contourEdges(contoursOf(outer, test.inner)), test.rule)
		assert.InDelta(t, test.expected, meshArea(vertices, indices), 1e-9, test.rule)
	}
}

func TestTriangulateSelfIntersecting(t *testing.T) {
	bowtie := []svgscene.Point{pt(0, 0), pt(10, 10), pt(10, 0), pt(0, 10)}
	for _, rule := range []svgscene.FillRule{svgscene.NonZero, svgscene.EvenOdd} {
		vertices, indices := triangulate(contourEdges(contoursOf(bowtie)), rule)
		assert.InDelta(t, 50, meshArea(vertices, indices), 1e-9)
	}

	// a pentagram: the center has a winding of 2
	var star []svgscene.Point
	for i := 0; i < 5; i++ {
		a := -math.Pi/2 + float64(i)*4*math.Pi/5
		star = append(star, pt(math.Cos(a), math.Sin(a)))
	}
	vNZ, iNZ := triangulate(contourEdges(contoursOf(star)), svgscene.NonZero)
	vEO, iEO := triangulate(contourEdges(contoursOf(star)), svgscene.EvenOdd)
	assert.Greater(t, meshArea(vNZ, iNZ), meshArea(vEO, iEO))
}

func TestTriangulateDegenerate(t *testing.T) {
	vertices, indices := triangulate(nil, svgscene.NonZero)
	assert.Empty(t, vertices)
	assert.Empty(t, indices)

	// flat polygon
	_, indices = triangulate(contourEdges(contoursOf([]svgscene.Point{pt(0, 0), pt(5, 5), pt(10, 10)})), svgscene.NonZero)
	assert.Empty(t, indices)

	// NaN coordinates are ignored
	_, indices = triangulate(contourEdges(contoursOf([]svgscene.Point{pt(0, 0), pt(math.NaN(), 1), pt(1, 1)})), svgscene.NonZero)
	assert.Empty(t, indices)
}

func strokeArea(t *testing.T, path svgscene.Path, st svgscene.Stroke) (float64, []Vertex) {
	t.Helper()
	vertices, indices := tessellateStroke(path, &st, svgscene.Identity, testOptions)
	require.NotEmpty(t, indices)
	return meshArea(vertices, indices), vertices
}

func TestStrokeLine(t *testing.T) {
	var line svgscene.Path
	line.Start(pt(0, 0))
	line.Line(pt(10, 0))

	st := svgscene.Stroke{Width: 2, MiterLimit: 4, Join: svgscene.Miter, Cap: svgscene.ButtCap}
	area, vertices := strokeArea(t, line, st)
	assert.InDelta(t, 20, area, 0.5)
	minX, minY, maxX, maxY := meshBounds(vertices)
	assert.InDelta(t, 0, minX, 0.05)
	assert.InDelta(t, 10, maxX, 0.05)
	assert.InDelta(t, -1, minY, 0.05)
	assert.InDelta(t, 1, maxY, 0.05)

	st.Cap = svgscene.SquareCap
	area, _ = strokeArea(t, line, st)
	assert.InDelta(t, 24, area, 0.5)

	st.Cap = svgscene.RoundCap
	area, _ = strokeArea(t, line, st)
	assert.InDelta(t, 20+math.Pi, area, 0.5)
}

func TestStrokeClosed(t *testing.T) {
	st := svgscene.Stroke{Width: 2, MiterLimit: 4, Join: svgscene.Miter, Cap: svgscene.ButtCap}
	area, vertices := strokeArea(t, rectPath(0, 0, 10, 10), st)
	assert.InDelta(t, 144-64, area, 1.5)
	minX, minY, maxX, maxY := meshBounds(vertices)
	assert.InDelta(t, -1, minX, 0.05)
	assert.InDelta(t, -1, minY, 0.05)
	assert.InDelta(t, 11, maxX, 0.05)
	assert.InDelta(t, 11, maxY, 0.05)
}

func TestStrokeDashes(t *testing.T) {
	var line svgscene.Path
	line.Start(pt(0, 0))
	line.Line(pt(10, 0))

	dashes := []float64{1, 1}
	st := svgscene.Stroke{Width: 2, MiterLimit: 4, Cap: svgscene.ButtCap, Dash: dashes}
	area, _ := strokeArea(t, line, st)
	assert.InDelta(t, 10, area, 0.5)
	assert.Equal(t, []float64{1, 1}, dashes) // not modified
}

func TestStrokeTransform(t *testing.T) {
	var line svgscene.Path
	line.Start(pt(0, 0))
	line.Line(pt(10, 0))
	st := svgscene.Stroke{Width: 2, MiterLimit: 4, Cap: svgscene.ButtCap}

	// the width is scaled with the path
	vertices, indices := tessellateStroke(line, &st, svgscene.Identity.Scale(3, 3), testOptions)
	assert.InDelta(t, 30*6, meshArea(vertices, indices), 3)

	vertices, indices = tessellateStroke(line, &st, svgscene.Matrix2D{}, testOptions)
	assert.Empty(t, vertices)
	assert.Empty(t, indices)

	st.Width = 0
	vertices, _ = tessellateStroke(line, &st, svgscene.Identity, testOptions)
	assert.Empty(t, vertices)
}

func TestNormalizeDashes(t *testing.T) {
	d, off := normalizeDashes([]float64{1, 2, 3}, 13)
	assert.Equal(t, []float64{1, 2, 3, 1, 2, 3}, d)
	assert.Equal(t, 1., off)

	d, off = normalizeDashes([]float64{1, 3}, -1)
	assert.Equal(t, []float64{1, 3}, d)
	assert.Equal(t, 3., off)

	d, _ = normalizeDashes([]float64{1, -1}, 0)
	assert.Nil(t, d)
	d, _ = normalizeDashes([]float64{0, 0}, 0)
	assert.Nil(t, d)
}

// testScene returns a scene with a red square at the root, and a translated,
// half transparent child holding a stroked gradient square.
func testScene() (*svgscene.SceneInfo, *svgscene.Gradient) {
	scene := svgscene.NewScene()
	scene.AddShape(scene.Root, svgscene.Shape{
		Path:  rectPath(0, 0, 10, 10),
		Props: svgscene.PathProperties{Fill: svgscene.NewPlainColor(255, 0, 0, 255), FillOpacity: 1},
	})
	grad := &svgscene.Gradient{
		Direction: svgscene.Linear{0, 0, 1, 0},
		Matrix:    svgscene.Identity,
		Stops: []svgscene.GradStop{
			{StopColor: svgscene.NewPlainColor(0, 0, 0, 255).NRGBA, Offset: 0, Opacity: 1},
			{StopColor: svgscene.NewPlainColor(255, 255, 255, 255).NRGBA, Offset: 1, Opacity: 1},
		},
	}
	child := scene.AddChild(scene.Root)
	scene.Node(child).Transform = svgscene.Identity.Translate(100, 0)
	scene.AddShape(child, svgscene.Shape{
		Path: rectPath(0, 0, 20, 10),
		Props: svgscene.PathProperties{
			Fill:        grad,
			FillOpacity: 1,
			Stroke:      &svgscene.Stroke{Color: svgscene.NewPlainColor(0, 0, 255, 255), Opacity: 0.5, Width: 1, MiterLimit: 4},
		},
	})
	info := svgscene.NewSceneInfo(scene, svgscene.Rect{W: 200, H: 100})
	info.Opacities[child] = 0.5
	return info, grad
}

func TestTessellate(t *testing.T) {
	info, grad := testScene()
	geoms, err := Tessellate(info, testOptions)
	require.NoError(t, err)
	require.Len(t, geoms, 3)

	root := geoms[0]
	assert.Equal(t, svgscene.NodeID(0), root.Node)
	assert.False(t, root.Stroke)
	assert.Equal(t, svgscene.NewPlainColor(255, 0, 0, 255).NRGBA, root.Color)
	assert.Equal(t, 1., root.Opacity)
	assert.InDelta(t, 100, meshArea(root.Vertices, root.Indices), 1e-9)
	assert.Nil(t, root.Gradient())

	fill := geoms[1]
	assert.Equal(t, svgscene.NodeID(1), fill.Node)
	assert.Same(t, grad, fill.Gradient())
	assert.Equal(t, grad.AverageColor(), fill.Color)
	assert.Equal(t, 0.5, fill.Opacity)
	assert.Equal(t, svgscene.Rect{W: 20, H: 10}, fill.Bounds)
	minX, _, maxX, _ := meshBounds(fill.Vertices)
	assert.Equal(t, 100., minX)
	assert.Equal(t, 120., maxX)

	stroke := geoms[2]
	assert.True(t, stroke.Stroke)
	assert.Equal(t, 0, stroke.ShapeIndex)
	assert.Equal(t, 0.25, stroke.Opacity)
	assert.False(t, stroke.Degenerate())
}

func TestTessellateEmpty(t *testing.T) {
	info := svgscene.NewSceneInfo(svgscene.NewScene(), svgscene.Rect{})
	geoms, err := Tessellate(info, testOptions)
	require.NoError(t, err)
	assert.NotNil(t, geoms)
	assert.Empty(t, geoms)
}

func TestTessellateErrors(t *testing.T) {
	_, err := Tessellate(nil, testOptions)
	assert.True(t, errors.Is(err, svgscene.ErrNoRoot))

	info, _ := testScene()
	_, err = Tessellate(info, TessellationOptions{})
	assert.True(t, errors.Is(err, ErrInvalidOptions))
}

func TestTessellateDegenerate(t *testing.T) {
	scene := svgscene.NewScene()
	var flat svgscene.Path
	flat.Start(pt(0, 0))
	flat.Line(pt(10, 10))
	scene.AddShape(scene.Root, svgscene.Shape{Path: flat, Props: svgscene.DefaultProperties})
	scene.AddShape(scene.Root, svgscene.Shape{Path: rectPath(0, 0, 1, 1), Props: svgscene.DefaultProperties})
	info := svgscene.NewSceneInfo(scene, svgscene.Rect{})

	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	geoms, err := Tessellator{Options: testOptions, Logger: logger}.Run(context.Background(), info)
	require.NoError(t, err)
	require.Len(t, geoms, 2)
	assert.True(t, geoms[0].Degenerate())
	assert.False(t, geoms[1].Degenerate())

	require.Len(t, hook.Entries, 1)
	assert.Equal(t, "degenerate shape geometry", hook.LastEntry().Message)
	assert.Equal(t, 0, hook.LastEntry().Data["shape"])
}

func bigScene(n int) *svgscene.SceneInfo {
	scene := svgscene.NewScene()
	for i := 0; i < n; i++ {
		node := scene.AddChild(scene.Root)
		scene.Node(node).Transform = svgscene.Identity.Translate(float64(i%10)*30, float64(i/10)*30).Rotate(float64(i) / 10)
		p := circlePath(10 + float64(i%5))
		props := svgscene.DefaultProperties
		if i%3 == 0 {
			props.Stroke = &svgscene.Stroke{Color: svgscene.NewPlainColor(0, 0, 0, 255), Opacity: 1, Width: 2, MiterLimit: 4, Join: svgscene.Round, Cap: svgscene.RoundCap}
		}
		scene.AddShape(node, svgscene.Shape{Path: p, Props: props})
	}
	return svgscene.NewSceneInfo(scene, svgscene.Rect{})
}

func TestTessellateDeterministic(t *testing.T) {
	info := bigScene(40)
	opts := testOptions
	opts.MaxCordDeviation = 0.1

	first, err := Tessellate(info, opts)
	require.NoError(t, err)
	second, err := Tessellate(info, opts)
	require.NoError(t, err)
	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, len(first[i].Vertices), len(second[i].Vertices))
		assert.Equal(t, len(first[i].Indices), len(second[i].Indices))
	}

	parallel, err := TessellateParallel(context.Background(), info, opts, 4)
	require.NoError(t, err)
	assert.Equal(t, first, parallel)
}

func TestTessellateCancelled(t *testing.T) {
	info := bigScene(20)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	geoms, err := TessellateParallel(ctx, info, testOptions, 4)
	assert.Nil(t, geoms)
	assert.True(t, errors.Is(err, context.Canceled))

	geoms, err = Tessellator{Options: testOptions}.Run(ctx, info)
	assert.Nil(t, geoms)
	assert.True(t, errors.Is(err, context.Canceled))
}
