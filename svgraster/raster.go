// Package svgraster renders scenes and packed assets by wrapping rasterx.
//
// Scenes are drawn directly from their paths, which is the reference the
// tessellated output is compared against. Assets are drawn triangle by
// triangle, sampling the gradient atlas, which previews what a GPU would
// display.
package svgraster

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/benoitkugler/svgmesh/svgpack"
	"github.com/benoitkugler/svgmesh/svgscene"
	"github.com/srwiley/rasterx"
	"golang.org/x/image/math/fixed"
)

// Renderer draws scenes and assets into an image, reusing
// its rasterx filler and dasher from one shape to the next.
type Renderer struct {
	dasher  *rasterx.Dasher // to avoid shared state
	filler  *rasterx.Filler // we use separated instance
	scanner rasterx.Scanner

	// from world units to pixels
	view svgscene.Matrix2D
}

// NewRenderer returns a renderer drawing into `img`, with
// the world area `rect` mapped onto the bounds of `img`.
// If scanner is nil, a rasterx.ScannerGV is used.
func NewRenderer(img draw.Image, rect svgscene.Rect, scanner rasterx.Scanner) *Renderer {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if scanner == nil {
		scanner = rasterx.NewScannerGV(w, h, img, b)
	}
	sx, sy := 1., 1.
	if rect.W > 0 {
		sx = float64(w) / rect.W
	}
	if rect.H > 0 {
		sy = float64(h) / rect.H
	}
	return &Renderer{
		dasher:  rasterx.NewDasher(w, h, scanner),
		filler:  rasterx.NewFiller(w, h, scanner),
		scanner: scanner,
		view:    svgscene.Identity.Scale(sx, sy).Translate(-rect.X, -rect.Y),
	}
}

// RasterScene renders the scene into a new width x height image,
// showing the world area `rect`.
func RasterScene(info *svgscene.SceneInfo, rect svgscene.Rect, width, height int) (*image.RGBA, error) {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	if err := NewRenderer(img, rect, nil).DrawScene(info); err != nil {
		return nil, err
	}
	return img, nil
}

// RasterAsset renders the asset into a new width x height image,
// showing the asset Rect.
func RasterAsset(asset *svgpack.VectorImageAsset, width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	NewRenderer(img, asset.Rect, nil).DrawAsset(asset)
	return img
}

// Clear resets the paths accumulated by the filler and the dasher.
func (rd *Renderer) Clear() {
	rd.dasher.Clear()
	rd.filler.Clear()
}

func toFixed(p svgscene.Point) fixed.Point26_6 {
	return fixed.Point26_6{X: fixed.Int26_6(p.X * 64), Y: fixed.Int26_6(p.Y * 64)}
}

// adder forwards path commands to rasterx
type adder struct{ rasterx.Adder }

var _ svgscene.Drawer = adder{} // assert interface conformance

func (a adder) Start(p svgscene.Point)            { a.Adder.Start(toFixed(p)) }
func (a adder) Line(b svgscene.Point)             { a.Adder.Line(toFixed(b)) }
func (a adder) QuadBezier(b, c svgscene.Point)    { a.Adder.QuadBezier(toFixed(b), toFixed(c)) }
func (a adder) CubeBezier(b, c, d svgscene.Point) { a.Adder.CubeBezier(toFixed(b), toFixed(c), toFixed(d)) }

// setColorFromPattern resolves the paint, for a path
// whose bounding box in pixels is `bbox`
func setColorFromPattern(pattern svgscene.Pattern, opacity float64, bbox svgscene.Rect, m svgscene.Matrix2D, scanner rasterx.Scanner) {
	switch pattern := pattern.(type) {
	case svgscene.PlainColor:
		c := pattern.NRGBA
		c.A = unit(float32(float64(c.A) / 0xff * opacity))
		scanner.SetColor(c)
	case *svgscene.Gradient:
		if pattern.Units == svgscene.ObjectBoundingBox {
			grad := pattern.WithBounds(bbox).ToRasterx()
			scanner.SetColor(grad.GetColorFunction(opacity))
		} else {
			grad := pattern.ToRasterx()
			scanner.SetColor(grad.GetColorFunctionUS(opacity, m.Rasterx()))
		}
	}
}

// DrawScene renders the shapes of the scene, in document order.
func (rd *Renderer) DrawScene(info *svgscene.SceneInfo) error {
	if err := info.Validate(); err != nil {
		return err
	}
	svgscene.Walk(info.Scene, info.Scene.Root, info.Opacities, func(v svgscene.Visit) bool {
		m := rd.view.Mult(v.Transform)
		for _, shape := range v.Node.Shapes {
			rd.drawShape(shape, m, v.Opacity)
		}
		return true
	})
	return nil
}

func (rd *Renderer) drawShape(shape svgscene.Shape, m svgscene.Matrix2D, opacity float64) {
	props := shape.Props
	bbox := shape.Path.Bounds(m)
	if props.Fill != nil {
		rd.filler.Clear()
		// ScannerGV only supports the non zero rule
		rd.filler.SetWinding(props.FillRule == svgscene.NonZero)
		shape.Path.DrawTo(adder{rd.filler}, m)
		setColorFromPattern(props.Fill, opacity*props.FillOpacity, bbox, m, rd.scanner)
		rd.filler.Draw()
	}
	if st := props.Stroke; st != nil && st.Color != nil {
		rd.dasher.Clear()
		scale := m.MaxScale()
		var dashes []float64
		for _, d := range st.Dash {
			dashes = append(dashes, d*scale)
		}
		rd.dasher.SetStroke(fixed.Int26_6(st.Width*scale*64), fixed.Int26_6(st.MiterLimit*64),
			st.Cap.Rasterx(), nil, nil, st.Join.Rasterx(), dashes, st.DashOffset*scale)
		shape.Path.DrawTo(adder{rd.dasher}, m)
		setColorFromPattern(st.Color, opacity*st.Opacity, bbox, m, rd.scanner)
		rd.dasher.Draw()
	}
}

// DrawAsset renders the triangles of the asset. Consecutive triangles
// sharing the same paint are filled together, so that their common
// edges do not show.
func (rd *Renderer) DrawAsset(asset *svgpack.VectorImageAsset) {
	var run triangleRun
	flush := func() {
		if len(run.triangles) == 0 {
			return
		}
		rd.filler.Clear()
		rd.filler.SetWinding(true)
		for _, tri := range run.triangles {
			rd.filler.Start(toFixed(tri[0].pos))
			rd.filler.Line(toFixed(tri[1].pos))
			rd.filler.Line(toFixed(tri[2].pos))
			rd.filler.Stop(true)
		}
		rd.scanner.SetColor(run.color(asset))
		rd.filler.Draw()
		run.triangles = run.triangles[:0]
	}

	for i := 0; i+2 < len(asset.Indices); i += 3 {
		var tri triangle
		for j := range tri {
			v := asset.Vertices[asset.Indices[i+j]]
			tri[j] = pixelVertex{
				pos:    rd.view.TransformPoint(svgscene.Point{X: float64(v.X), Y: float64(v.Y)}),
				vertex: v,
			}
		}
		if !tri.orient() {
			continue
		}
		key := paintKey(tri[0].vertex)
		if len(run.triangles) != 0 && key != run.key {
			flush()
		}
		run.key = key
		run.triangles = append(run.triangles, tri)
	}
	flush()
}

type pixelVertex struct {
	pos    svgscene.Point // in pixels
	vertex svgpack.Vertex
}

type triangle [3]pixelVertex

func (t *triangle) cross() float64 {
	a, b, c := t[0].pos, t[1].pos, t[2].pos
	return (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
}

// orient makes the triangle counter clockwise, returning
// false for flat triangles
func (t *triangle) orient() bool {
	cr := t.cross()
	if cr == 0 {
		return false
	}
	if cr < 0 {
		t[1], t[2] = t[2], t[1]
	}
	return true
}

// barycentric returns the barycentric coordinates of p
func (t *triangle) barycentric(p svgscene.Point) (l0, l1, l2 float64) {
	a, b, c := t[0].pos, t[1].pos, t[2].pos
	area := t.cross()
	l1 = ((p.X-a.X)*(c.Y-a.Y) - (p.Y-a.Y)*(c.X-a.X)) / area
	l2 = ((b.X-a.X)*(p.Y-a.Y) - (b.Y-a.Y)*(p.X-a.X)) / area
	return 1 - l1 - l2, l1, l2
}

// paint identifies the solid color or the gradient
// and opacity of a vertex
type paint struct {
	textured   bool
	gradient   uint32
	r, g, b, a float32
}

func paintKey(v svgpack.Vertex) paint {
	if v.Textured {
		return paint{textured: true, gradient: v.Gradient, a: v.A}
	}
	return paint{r: v.R, g: v.G, b: v.B, a: v.A}
}

type triangleRun struct {
	key       paint
	triangles []triangle
}

func unit(v float32) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 0xff
	}
	return uint8(v*0xff + 0.5)
}

// color returns the solid color of the run, or a function
// sampling the atlas at each pixel
func (run *triangleRun) color(asset *svgpack.VectorImageAsset) interface{} {
	if !run.key.textured {
		return color.NRGBA{R: unit(run.key.r), G: unit(run.key.g), B: unit(run.key.b), A: unit(run.key.a)}
	}
	index := int(run.key.gradient)
	if asset.Atlas == nil || index >= len(asset.Gradients) {
		return color.NRGBA{}
	}
	// copy the triangles, since the run is reused
	triangles := append([]triangle(nil), run.triangles...)
	atlas, entry, opacity := asset.Atlas, asset.Gradients[index], float64(run.key.a)
	b := atlas.Bounds()
	return rasterx.ColorFunc(func(x, y int) color.Color {
		gx, gy := interpolate(triangles, svgscene.Point{X: float64(x) + 0.5, Y: float64(y) + 0.5})
		u, v := asset.RampUV(index, entry.Parameter(gx, gy))
		col := b.Min.X + clampInt(int(float64(u)*float64(b.Dx())), 0, b.Dx()-1)
		row := b.Min.Y + clampInt(int(float64(v)*float64(b.Dy())), 0, b.Dy()-1)
		c := atlas.NRGBAAt(col, row)
		c.A = uint8(float64(c.A)*opacity + 0.5)
		return c
	})
}

// interpolate returns the gradient space position at p, using
// the triangle which contains p, or the closest one
func interpolate(triangles []triangle, p svgscene.Point) (gx, gy float64) {
	best, bestScore := 0, -1e300
	var bestL [3]float64
	for i := range triangles {
		l0, l1, l2 := triangles[i].barycentric(p)
		score := math.Min(l0, math.Min(l1, l2))
		if score > bestScore {
			best, bestScore, bestL = i, score, [3]float64{l0, l1, l2}
		}
		if score >= 0 {
			break
		}
	}
	// the position is affine, so extrapolating outside
	// of the closest triangle is exact
	tri := &triangles[best]
	for j := range tri {
		gx += bestL[j] * float64(tri[j].vertex.GX)
		gy += bestL[j] * float64(tri[j].vertex.GY)
	}
	return gx, gy
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
