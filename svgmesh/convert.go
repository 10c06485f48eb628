// Package svgmesh converts SVG documents into vector image assets:
// triangle meshes whose gradients are sampled from a texture atlas.
//
// The pipeline reads the document with svgicon, computes the
// tessellation tolerances and tessellates the shapes with svgtess,
// then packs the geometries with svgpack.
package svgmesh

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/benoitkugler/svgmesh/svgicon"
	"github.com/benoitkugler/svgmesh/svgpack"
	"github.com/benoitkugler/svgmesh/svgscene"
	"github.com/benoitkugler/svgmesh/svgtess"
	"github.com/sirupsen/logrus"
)

// Converter runs the conversion pipeline with a fixed configuration.
type Converter struct {
	Config Config

	// Name is given to the asset, and to its atlas.
	Name string

	// If nil, a logger writing to stderr at the configured level is used.
	Logger logrus.FieldLogger
}

// Convert reads an SVG document and returns its asset.
// See Converter.Convert.
func Convert(ctx context.Context, r io.Reader, cfg Config) (*svgpack.VectorImageAsset, error) {
	return Converter{Config: cfg}.Convert(ctx, r)
}

// ConvertString is a convenience wrapper around Convert.
func ConvertString(ctx context.Context, svg string, cfg Config) (*svgpack.VectorImageAsset, error) {
	return Convert(ctx, strings.NewReader(svg), cfg)
}

// ConvertFile converts the named file. The asset is named after the file,
// without its extension.
func ConvertFile(ctx context.Context, filename string, cfg Config) (*svgpack.VectorImageAsset, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	name := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	return Converter{Config: cfg, Name: name}.Convert(ctx, f)
}

func (c Converter) logger() (logrus.FieldLogger, error) {
	if c.Logger != nil {
		return c.Logger, nil
	}
	level, err := c.Config.logLevel()
	if err != nil {
		return nil, err
	}
	return NewLogger(os.Stderr, level), nil
}

// Convert reads an SVG document and returns its asset.
// Invalid configurations and documents are reported before any
// tessellation work. On failure, the error is logged and returned
// with a nil asset.
func (c Converter) Convert(ctx context.Context, r io.Reader) (*svgpack.VectorImageAsset, error) {
	logger, err := c.logger()
	if err != nil {
		return nil, err
	}
	logger = logger.WithField("prefix", "svgmesh")
	if c.Name != "" {
		logger = logger.WithField("asset", c.Name)
	}

	asset, err := c.convert(ctx, r, logger)
	if err != nil {
		logger.WithError(err).Error("asset generation failed")
		return nil, err
	}
	return asset, nil
}

func (c Converter) convert(ctx context.Context, r io.Reader, logger logrus.FieldLogger) (*svgpack.VectorImageAsset, error) {
	cfg := c.Config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	parseOpts, err := cfg.parseOptions(logger)
	if err != nil {
		return nil, err
	}
	indexWidth, err := cfg.indexWidth()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	info, err := svgicon.Parse(r, parseOpts)
	if err != nil {
		return nil, err
	}
	if err = info.Validate(); err != nil {
		return nil, err
	}
	logger.WithFields(logrus.Fields{"nodes": info.Scene.Len(), "elapsed": time.Since(start)}).Debug("svg parsed")

	opts, err := svgtess.ComputeOptions(info, cfg.Params())
	if err != nil {
		return nil, err
	}
	logger.WithField("options", opts).Debug("tessellation options")

	start = time.Now()
	tess := svgtess.Tessellator{Options: opts, Workers: cfg.Workers, Logger: logger}
	geoms, err := tess.Run(ctx, info)
	if err != nil {
		return nil, err
	}
	logger.WithFields(logrus.Fields{"geometries": len(geoms), "elapsed": time.Since(start)}).Debug("scene tessellated")

	// without a preserved viewport, the packer uses the mesh bounds
	var rect svgscene.Rect
	if cfg.PreserveViewport {
		rect = info.Viewport.Transform(info.Scene.Node(info.Scene.Root).Transform)
	}

	start = time.Now()
	asset, err := svgpack.PackAsset(geoms, rect, cfg.GradientResolution,
		svgpack.WithIndexWidth(indexWidth), svgpack.WithName(c.Name), svgpack.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	logger.WithFields(logrus.Fields{
		"vertices":  len(asset.Vertices),
		"triangles": asset.TriangleCount(),
		"elapsed":   time.Since(start),
	}).Debug("asset packed")
	return asset, nil
}
