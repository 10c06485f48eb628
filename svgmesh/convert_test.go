package svgmesh

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/benoitkugler/svgmesh/svgicon"
	"github.com/benoitkugler/svgmesh/svgpack"
	"github.com/benoitkugler/svgmesh/svgscene"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const squaresDoc = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100 100">
	<rect x="10" y="10" width="30" height="30" fill="red"/>
	<g transform="translate(50,50)" opacity="0.5">
		<rect width="40" height="40" fill="blue" stroke="black" stroke-width="2"/>
	</g>
</svg>`

// quietConfig does not write to stderr
func quietConfig() Config {
	cfg := DefaultConfig()
	cfg.LogLevel = "panic"
	return cfg
}

func maxCoords(vertices []svgpack.Vertex) (x, y float32) {
	for _, v := range vertices {
		if v.X > x {
			x = v.X
		}
		if v.Y > y {
			y = v.Y
		}
	}
	return x, y
}

func TestConvert(t *testing.T) {
	asset, err := ConvertString(context.Background(), squaresDoc, quietConfig())
	require.NoError(t, err)
	assert.NotEmpty(t, asset.Vertices)
	assert.Equal(t, 0, len(asset.Indices)%3)
	assert.Nil(t, asset.Atlas)
	assert.Equal(t, svgpack.Index32, asset.IndexWidth)

	// the rect is the bounding box of the mesh, including the stroke
	assert.InDelta(t, 10, asset.Rect.X, 1e-4)
	assert.InDelta(t, 91, asset.Rect.X+asset.Rect.W, 0.1)
	assert.InDelta(t, 91, asset.Rect.Y+asset.Rect.H, 0.1)

	var alphas []float32
	for _, v := range asset.Vertices {
		if len(alphas) == 0 || alphas[len(alphas)-1] != v.A {
			alphas = append(alphas, v.A)
		}
	}
	assert.Equal(t, []float32{1, 0.5}, alphas)
}

func TestConvertViewport(t *testing.T) {
	cfg := quietConfig()
	cfg.PreserveViewport = true
	asset, err := ConvertString(context.Background(), squaresDoc, cfg)
	require.NoError(t, err)
	assert.Equal(t, svgscene.Rect{W: 100, H: 100}, asset.Rect)

	cfg.PixelsPerUnit = 2
	asset, err = ConvertString(context.Background(), squaresDoc, cfg)
	require.NoError(t, err)
	assert.Equal(t, svgscene.Rect{W: 50, H: 50}, asset.Rect)
	x, y := maxCoords(asset.Vertices)
	assert.InDelta(t, 45.5, x, 0.1)
	assert.InDelta(t, 45.5, y, 0.1)
}

func TestConvertManual(t *testing.T) {
	const circle = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100 100">
		<circle cx="50" cy="50" r="40" fill="green"/>
	</svg>`
	cfg := quietConfig()
	cfg.Automatic = false
	cfg.StepDistance = 0 // curves only
	cfg.MaxCordDeviationEnabled = true

	cfg.MaxCordDeviation = 1
	coarse, err := ConvertString(context.Background(), circle, cfg)
	require.NoError(t, err)

	cfg.MaxCordDeviation = 0.01
	fine, err := ConvertString(context.Background(), circle, cfg)
	require.NoError(t, err)

	assert.Greater(t, fine.TriangleCount(), coarse.TriangleCount())
}

func TestConvertGradients(t *testing.T) {
	cfg := quietConfig()
	cfg.GradientResolution = 16
	asset, err := ConvertFile(context.Background(), "testdata/gradients.svg", cfg)
	require.NoError(t, err)

	assert.Equal(t, "gradients", asset.Name)
	assert.Equal(t, "gradientsAtlas", asset.AtlasName)
	require.NotNil(t, asset.Atlas)
	assert.Len(t, asset.Gradients, 2) // the fill and stroke share the same gradient
	assert.Equal(t, 16, asset.Atlas.Bounds().Dy())
	assert.True(t, asset.Textured())
	for _, v := range asset.Vertices {
		assert.True(t, v.Textured)
		assert.Less(t, int(v.Gradient), len(asset.Gradients))
		assert.GreaterOrEqual(t, v.G, float32(0))
		assert.LessOrEqual(t, v.G, float32(1))
	}
}

func TestConvertEmpty(t *testing.T) {
	const empty = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 10 20"><g/></svg>`
	asset, err := ConvertString(context.Background(), empty, quietConfig())
	require.NoError(t, err)
	assert.Empty(t, asset.Vertices)
	assert.Empty(t, asset.Indices)
	assert.Nil(t, asset.Atlas)
	assert.Equal(t, svgscene.Rect{}, asset.Rect)

	cfg := quietConfig()
	cfg.PreserveViewport = true
	asset, err = ConvertString(context.Background(), empty, cfg)
	require.NoError(t, err)
	assert.Equal(t, svgscene.Rect{W: 10, H: 20}, asset.Rect)
}

// failingReader fails the test if the document is read
type failingReader struct{ t *testing.T }

func (r failingReader) Read([]byte) (int, error) {
	r.t.Error("document should not be read")
	return 0, io.EOF
}

func TestConvertErrors(t *testing.T) {
	logger, hook := logtest.NewNullLogger()

	cfg := DefaultConfig()
	cfg.TargetResolution = 0
	_, err := Converter{Config: cfg, Logger: logger}.Convert(context.Background(), failingReader{t})
	assert.ErrorIs(t, err, ErrConfiguration)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
	assert.Equal(t, "asset generation failed", hook.LastEntry().Message)

	hook.Reset()
	asset, err := Converter{Config: DefaultConfig(), Logger: logger}.Convert(context.Background(),
		errReader{})
	assert.Nil(t, asset)
	assert.ErrorIs(t, err, svgicon.ErrInvalidSVG)
	assert.Len(t, hook.AllEntries(), 1)

	_, err = ConvertString(context.Background(), `<html></html>`, quietConfig())
	assert.ErrorIs(t, err, svgicon.ErrInvalidSVG)

	cfg = quietConfig()
	cfg.ErrorMode = "strict"
	_, err = ConvertString(context.Background(), `<svg xmlns="http://www.w3.org/2000/svg"><blink/></svg>`, cfg)
	assert.ErrorIs(t, err, svgicon.ErrInvalidSVG)

	_, err = ConvertFile(context.Background(), "testdata/missing.svg", quietConfig())
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

type errReader struct{}

func (errReader) Read([]byte) (int, error) { return 0, errors.New("disk failure") }

func TestConvertOverflow(t *testing.T) {
	// a fine circle exceeds the 16 bit indices
	const circle = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100 100">
		<circle cx="50" cy="50" r="40" fill="green"/>
	</svg>`
	cfg := quietConfig()
	cfg.Automatic = false
	cfg.StepDistance = 0.002
	cfg.IndexWidth = 16
	_, err := ConvertString(context.Background(), circle, cfg)
	assert.ErrorIs(t, err, svgpack.ErrPackingOverflow)

	cfg.IndexWidth = 32
	_, err = ConvertString(context.Background(), circle, cfg)
	assert.NoError(t, err)
}

func TestConvertCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ConvertString(ctx, squaresDoc, quietConfig())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConvertFileName(t *testing.T) {
	dir := t.TempDir()
	filename := filepath.Join(dir, "icon.v2.svg")
	require.NoError(t, os.WriteFile(filename, []byte(squaresDoc), 0o644))

	asset, err := ConvertFile(context.Background(), filename, quietConfig())
	require.NoError(t, err)
	assert.Equal(t, "icon.v2", asset.Name)
	assert.Empty(t, asset.AtlasName)
}
