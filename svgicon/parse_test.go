package svgicon

import (
	"errors"
	"image/color"
	"math"
	"testing"

	"github.com/benoitkugler/svgmesh/svgscene"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/colornames"
)

func TestParseLayers(t *testing.T) {
	info, err := ParseFile("testdata/layers.svg", ParseOptions{Viewport: PreserveViewport})
	require.NoError(t, err)
	require.NoError(t, info.Validate())

	scene := info.Scene
	assert.Equal(t, 5, scene.Len())
	assert.Equal(t, []svgscene.NodeID{1, 4}, scene.Node(scene.Root).Children)
	assert.Equal(t, []svgscene.NodeID{2, 3}, scene.Node(1).Children)

	id, ok := info.Lookup("layer")
	require.True(t, ok)
	assert.Equal(t, svgscene.NodeID(1), id)
	id, ok = info.Lookup("box")
	require.True(t, ok)
	assert.Equal(t, svgscene.NodeID(2), id)

	assert.Equal(t, 0.5, info.Opacity(1))
	assert.Equal(t, 1., info.Opacity(2))
	assert.Equal(t, svgscene.Identity.Translate(10, 20), scene.Node(1).Transform)

	box := scene.Node(2).Shapes
	require.Len(t, box, 1)
	assert.Equal(t, svgscene.NewPlainColor(255, 0, 0, 255), box[0].Props.Fill)
	assert.Nil(t, box[0].Props.Stroke)
	assert.Equal(t, "M0.000,0.000 L10.000,0.000 L10.000,10.000 L0.000,10.000 Z", box[0].Path.ToSVGPath())

	circle := scene.Node(3).Shapes
	require.Len(t, circle, 1)
	assert.Nil(t, circle[0].Props.Fill)
	require.NotNil(t, circle[0].Props.Stroke)
	assert.Equal(t, 2., circle[0].Props.Stroke.Width)
	assert.Equal(t, svgscene.NewPlainColor(0, 0, 255, 255), circle[0].Props.Stroke.Color)
	assert.True(t, circle[0].Path.IsClosed())

	path := scene.Node(4).Shapes
	require.Len(t, path, 1)
	assert.Equal(t, svgscene.EvenOdd, path[0].Props.FillRule)

	assert.Equal(t, svgscene.Rect{W: 200, H: 100}, info.Viewport)
}

func TestViewport(t *testing.T) {
	const withViewBox = `<svg viewBox="0 0 200 100" width="400" height="200"></svg>`
	const withSize = `<svg width="40px" height="0.5in"></svg>`

	info, err := ParseString(withViewBox, ParseOptions{})
	require.NoError(t, err)
	assert.Equal(t, svgscene.Rect{W: 100, H: 100}, info.Viewport)

	info, err = ParseString(withViewBox, ParseOptions{DefaultWidth: 30, DefaultHeight: 20})
	require.NoError(t, err)
	assert.Equal(t, svgscene.Rect{W: 30, H: 20}, info.Viewport)

	info, err = ParseString(withViewBox, ParseOptions{Viewport: PreserveViewport})
	require.NoError(t, err)
	assert.Equal(t, svgscene.Rect{W: 200, H: 100}, info.Viewport)

	info, err = ParseString(withSize, ParseOptions{Viewport: PreserveViewport})
	require.NoError(t, err)
	assert.Equal(t, svgscene.Rect{W: 40, H: 48}, info.Viewport)

	info, err = ParseString(`<svg></svg>`, ParseOptions{Viewport: PreserveViewport})
	require.NoError(t, err)
	assert.Equal(t, svgscene.Rect{W: 100, H: 100}, info.Viewport)
}

func TestPixelsPerUnit(t *testing.T) {
	info, err := ParseString(`<svg transform="translate(4,0)"><rect width="10" height="10"/></svg>`,
		ParseOptions{PixelsPerUnit: 2})
	require.NoError(t, err)
	root := info.Scene.Node(info.Scene.Root)
	assert.Equal(t, svgscene.Identity.Scale(0.5, 0.5).Translate(4, 0), root.Transform)

	// local bounds are in document pixels
	b := svgscene.ApproximateBounds(info.Scene, 1)
	assert.Equal(t, svgscene.Rect{W: 10, H: 10}, b)

	_, err = ParseString(`<svg/>`, ParseOptions{PixelsPerUnit: -1})
	assert.Error(t, err)
}

func TestParseGradients(t *testing.T) {
	info, err := ParseFile("testdata/gradients.svg", ParseOptions{})
	require.NoError(t, err)

	scene := info.Scene
	assert.Equal(t, 3, scene.Len()) // defs do not create nodes

	linear, ok := scene.Node(1).Shapes[0].Props.Fill.(*svgscene.Gradient)
	require.True(t, ok)
	assert.False(t, linear.IsRadial())
	assert.Equal(t, svgscene.Linear{0, 0, 1, 0}, linear.Direction)
	assert.Equal(t, svgscene.ReflectSpread, linear.Spread)
	assert.Equal(t, svgscene.ObjectBoundingBox, linear.Units)
	require.Len(t, linear.Stops, 2)
	assert.Equal(t, 0., linear.Stops[0].Offset)
	assert.Equal(t, color.NRGBA{R: 255, A: 255}, linear.Stops[0].StopColor)
	assert.Equal(t, 1., linear.Stops[1].Offset)
	assert.Equal(t, 0.5, linear.Stops[1].Opacity)
	assert.Equal(t, color.NRGBA{B: 255, A: 255}, linear.Stops[1].StopColor)

	shape := scene.Node(2).Shapes[0]
	radial, ok := shape.Props.Fill.(*svgscene.Gradient)
	require.True(t, ok)
	assert.True(t, radial.IsRadial())
	assert.Equal(t, svgscene.Radial{5, 5, 5, 5, 5, 0}, radial.Direction)
	assert.Equal(t, svgscene.UserSpaceOnUse, radial.Units)
	assert.Equal(t, linear.Stops, radial.Stops) // inherited through href

	require.NotNil(t, shape.Props.Stroke)
	assert.Same(t, linear, shape.Props.Stroke.Color)
}

func TestParseUse(t *testing.T) {
	info, err := ParseFile("testdata/use.svg", ParseOptions{})
	require.NoError(t, err)

	scene := info.Scene
	assert.Equal(t, 7, scene.Len())
	assert.Equal(t, []svgscene.NodeID{1, 5}, scene.Node(scene.Root).Children)

	// the first use node wraps the replayed group
	assert.Equal(t, svgscene.Identity.Translate(10, 5), scene.Node(1).Transform)
	assert.Equal(t, []svgscene.NodeID{2}, scene.Node(1).Children)
	assert.Equal(t, []svgscene.NodeID{3, 4}, scene.Node(2).Children)
	assert.Equal(t, svgscene.Rect{W: 3, H: 1}, svgscene.ApproximateBounds(scene, 1))

	assert.Equal(t, svgscene.Identity.Translate(50, 0), scene.Node(5).Transform)
	assert.Equal(t, []svgscene.NodeID{6}, scene.Node(5).Children)
	require.Len(t, scene.Node(6).Shapes, 1)

	// ids are only recorded for the document elements
	id, ok := info.Lookup("first")
	assert.True(t, ok)
	assert.Equal(t, svgscene.NodeID(1), id)
	_, ok = info.Lookup("pair")
	assert.False(t, ok)
}

func TestUseErrors(t *testing.T) {
	_, err := ParseString(`<svg><use href="#missing"/></svg>`, ParseOptions{})
	assert.True(t, errors.Is(err, ErrInvalidSVG))

	_, err = ParseString(`<svg><use/></svg>`, ParseOptions{})
	assert.Error(t, err)
}

func TestParseErrors(t *testing.T) {
	for _, doc := range []string{
		"not xml",
		"<svg><g></svg>",
		"<html><svg/></html>",
		`<svg><path d="L 0 0"/></svg>`,
		`<svg><path d="M 0 0 L 1"/></svg>`,
		`<svg><rect width="1" height="1" fill="#12345"/></svg>`,
		`<svg viewBox="0 0 1"></svg>`,
		`<svg><g transform="rotate(1,2)"/></svg>`,
	} {
		info, err := ParseString(doc, ParseOptions{})
		assert.Nil(t, info, doc)
		assert.True(t, errors.Is(err, ErrInvalidSVG), doc)
		var perr *ParseError
		assert.True(t, errors.As(err, &perr), doc)
	}
}

func TestViewBoxErrors(t *testing.T) {
	_, err := ParseString(`<svg viewBox="0 0 1"></svg>`, ParseOptions{})
	assert.ErrorIs(t, err, errParamMismatch)

	// the invalid number is reported, not the count
	_, err = ParseString(`<svg viewBox="0 0 10 abc"></svg>`, ParseOptions{})
	assert.ErrorIs(t, err, ErrInvalidSVG)
	assert.NotErrorIs(t, err, errParamMismatch)
	assert.Contains(t, err.Error(), "invalid number list")
}

func TestErrorModes(t *testing.T) {
	const doc = `<svg><foo/><clipPath id="c"><rect width="1" height="1"/></clipPath><rect width="2" height="2"/></svg>`

	info, err := ParseString(doc, ParseOptions{ErrorMode: IgnoreErrorMode})
	require.NoError(t, err)
	assert.Equal(t, 2, info.Scene.Len()) // clip content is not drawn

	logger, hook := logtest.NewNullLogger()
	info, err = ParseString(doc, ParseOptions{ErrorMode: WarnErrorMode, Logger: logger})
	require.NoError(t, err)
	assert.Equal(t, 2, info.Scene.Len())
	require.Len(t, hook.Entries, 2)
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	assert.Equal(t, "clipPath", hook.LastEntry().Data["element"])

	_, err = ParseString(doc, ParseOptions{ErrorMode: StrictErrorMode})
	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "foo", perr.Element)
}

func TestHiddenAndInherited(t *testing.T) {
	const doc = `<svg>
	<g fill="green" stroke="black" style="stroke-width:3; stroke-linecap:round; stroke-dasharray: 1 2">
		<rect width="1" height="1"/>
		<rect width="1" height="1" display="none"/>
		<rect width="1" height="1" fill="inherit" stroke-opacity="50%"/>
	</g>
	</svg>`
	info, err := ParseString(doc, ParseOptions{})
	require.NoError(t, err)

	scene := info.Scene
	require.Equal(t, 5, scene.Len())
	first := scene.Node(2).Shapes[0]
	assert.Equal(t, svgscene.PlainColor{NRGBA: color.NRGBA{R: colornames.Green.R, G: colornames.Green.G, B: colornames.Green.B, A: 255}}, first.Props.Fill)
	require.NotNil(t, first.Props.Stroke)
	assert.Equal(t, 3., first.Props.Stroke.Width)
	assert.Equal(t, svgscene.RoundCap, first.Props.Stroke.Cap)
	assert.Equal(t, []float64{1, 2}, first.Props.Stroke.Dash)
	assert.Equal(t, 1., first.Props.Stroke.Opacity)

	// hidden elements keep their node, without shape
	assert.Empty(t, scene.Node(3).Shapes)

	third := scene.Node(4).Shapes[0]
	assert.Equal(t, first.Props.Fill, third.Props.Fill)
	assert.Equal(t, 0.5, third.Props.Stroke.Opacity)
}

func TestTransforms(t *testing.T) {
	c := newIconCursor(ParseOptions{})
	for _, test := range []struct {
		attr     string
		expected svgscene.Matrix2D
	}{
		{"scale(2)", svgscene.Identity.Scale(2, 2)},
		{"scale(2, 3)", svgscene.Identity.Scale(2, 3)},
		{"translate(5)", svgscene.Identity.Translate(5, 0)},
		{"translate(1 2) scale(2)", svgscene.Identity.Translate(1, 2).Scale(2, 2)},
		{"matrix(1 0 0 1 7 8)", svgscene.Identity.Translate(7, 8)},
		{"rotate(90 5 5)", svgscene.Identity.Translate(5, 5).Rotate(math.Pi / 2).Translate(-5, -5)},
	} {
		m, err := c.parseTransform(test.attr)
		require.NoError(t, err, test.attr)
		assert.InDeltaSlice(t, toSlice(test.expected), toSlice(m), 1e-9, test.attr)
	}

	m, err := c.parseTransform("rotate(90 5 5)")
	require.NoError(t, err)
	x, y := m.Transform(10, 5)
	assert.InDelta(t, 5, x, 1e-9)
	assert.InDelta(t, 10, y, 1e-9)

	_, err = c.parseTransform("shear(1)")
	assert.Error(t, err)
}

func toSlice(m svgscene.Matrix2D) []float64 { return []float64{m.A, m.B, m.C, m.D, m.E, m.F} }

func TestCompilePath(t *testing.T) {
	var c pathCursor
	require.NoError(t, c.compilePath("M 10 10 h 5 v 5 H 10 z m 1 1 l 1 0 0 1 z"))
	assert.Equal(t, "M10.000,10.000 L15.000,10.000 L15.000,15.000 L10.000,15.000 Z "+
		"M11.000,11.000 L12.000,11.000 L12.000,12.000 Z", c.path.ToSVGPath())

	// implicit line after move, and smooth cubic reflection
	require.NoError(t, c.compilePath("M0 0 1 1 C 0 10 10 10 10 0 S 20 -10 20 0"))
	require.Len(t, c.path, 4)
	assert.Equal(t, svgscene.LineTo{X: 1, Y: 1}, c.path[1])
	assert.Equal(t, svgscene.CubicTo{{X: 10, Y: -10}, {X: 20, Y: -10}, {X: 20, Y: 0}}, c.path[3])

	// compact notation
	require.NoError(t, c.compilePath("M0,0L1-1.5.5.5"))
	assert.Equal(t, "M0.000,0.000 L1.000,-1.500 L0.500,0.500", c.path.ToSVGPath())

	require.NoError(t, c.compilePath("M0 0Q5 5 10 0T20 0"))
	require.Len(t, c.path, 3)
	assert.Equal(t, svgscene.QuadTo{{X: 15, Y: -5}, {X: 20, Y: 0}}, c.path[2])

	// segment after a close restarts at the sub-path origin
	require.NoError(t, c.compilePath("M 1 1 L 2 2 Z L 3 3"))
	assert.Equal(t, "M1.000,1.000 L2.000,2.000 Z M1.000,1.000 L3.000,3.000", c.path.ToSVGPath())

	assert.Error(t, c.compilePath("10 10"))
	assert.Error(t, c.compilePath("M 10"))
	assert.Error(t, c.compilePath("M 0 0 Z 1 2"))
}

func TestCompileArc(t *testing.T) {
	var c pathCursor
	require.NoError(t, c.compilePath("M 0 0 A 10 10 0 0 1 20 0"))
	last := c.path[len(c.path)-1].(svgscene.CubicTo)
	assert.InDelta(t, 20, last[2].X, 1e-9)
	assert.InDelta(t, 0, last[2].Y, 1e-9)

	b := c.path.Bounds(svgscene.Identity)
	assert.InDelta(t, 0, b.X, 1e-3)
	assert.InDelta(t, 20, b.W, 1e-3)
	assert.InDelta(t, -10, b.Y, 1e-3)
	assert.InDelta(t, 10, b.H, 1e-3)

	// flags without separators
	require.NoError(t, c.compilePath("M0 0a10 10 0 0120 0"))
	b = c.path.Bounds(svgscene.Identity)
	assert.InDelta(t, -10, b.Y, 1e-3)

	// a null radius gives a line
	require.NoError(t, c.compilePath("M0 0A0 10 0 0 1 20 0"))
	assert.Equal(t, "M0.000,0.000 L20.000,0.000", c.path.ToSVGPath())
}

func TestParseColors(t *testing.T) {
	current := color.NRGBA{R: 1, G: 2, B: 3, A: 255}
	for _, test := range []struct {
		input    string
		expected color.NRGBA
	}{
		{"#f00", color.NRGBA{R: 255, A: 255}},
		{"#00ff0080", color.NRGBA{G: 255, A: 128}},
		{"#ABCDEF", color.NRGBA{R: 0xab, G: 0xcd, B: 0xef, A: 255}},
		{"rgb(0, 128, 255)", color.NRGBA{G: 128, B: 255, A: 255}},
		{"rgba(0,0,0,0.5)", color.NRGBA{A: 128}},
		{"rgb(100%, 0%, 50%)", color.NRGBA{R: 255, B: 128, A: 255}},
		{"SteelBlue", color.NRGBA{R: 70, G: 130, B: 180, A: 255}},
		{"currentColor", current},
		{"transparent", color.NRGBA{}},
	} {
		c, err := parseSVGColor(test.input, current)
		require.NoError(t, err, test.input)
		assert.True(t, c.valid, test.input)
		assert.Equal(t, test.expected, c.color, test.input)
	}

	c, err := parseSVGColor("none", current)
	require.NoError(t, err)
	assert.False(t, c.valid)
	assert.Nil(t, c.asPattern())

	for _, invalid := range []string{"#12345", "#gggggg", "rgb(1,2)", "notacolor"} {
		_, err := parseSVGColor(invalid, current)
		assert.Error(t, err, invalid)
	}
}

func TestUnits(t *testing.T) {
	c := newIconCursor(ParseOptions{DefaultWidth: 200, DefaultHeight: 100})
	for _, test := range []struct {
		input    string
		ref      percentageReference
		expected float64
	}{
		{"12", widthPercentage, 12},
		{"12px", widthPercentage, 12},
		{"1in", widthPercentage, 96},
		{"72pt", heightPercentage, 96},
		{"2.54cm", widthPercentage, 96},
		{"50%", widthPercentage, 100},
		{"50%", heightPercentage, 50},
	} {
		v, err := c.parseUnit(test.input, test.ref)
		require.NoError(t, err, test.input)
		assert.InDelta(t, test.expected, v, 1e-9, test.input)
	}

	v, err := c.parseUnit("100%", diagPercentage)
	require.NoError(t, err)
	assert.InDelta(t, math.Sqrt(200*200+100*100)/math.Sqrt2, v, 1e-9)

	_, err = c.parseUnit("12abc", widthPercentage)
	assert.Error(t, err)

	v, err = parseAbsoluteUnit("50%")
	require.NoError(t, err)
	assert.Equal(t, 0., v)
}
