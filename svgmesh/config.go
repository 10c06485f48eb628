package svgmesh

import (
	"fmt"
	"io"
	"math"
	"os"
	"runtime"
	"strings"

	"github.com/benoitkugler/svgmesh/svgicon"
	"github.com/benoitkugler/svgmesh/svgpack"
	"github.com/benoitkugler/svgmesh/svgtess"
	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
	"github.com/sirupsen/logrus"
)

// EnvPrefix is the prefix of the environment variables read by ApplyEnv,
// as in SVGMESH_TARGET_RESOLUTION.
const EnvPrefix = "SVGMESH"

// ErrConfiguration is the same error as svgtess.ErrConfiguration,
// so that callers only need one sentinel.
var ErrConfiguration = svgtess.ErrConfiguration

// Config gathers the settings of the conversion pipeline.
// It may be read from a TOML file (LoadConfig) and
// overridden by environment variables (ApplyEnv).
type Config struct {
	// PreserveViewport uses the document viewBox as the asset rectangle.
	// Otherwise the asset rectangle is the bounding box of the mesh.
	PreserveViewport bool `toml:"preserve_viewport" split_words:"true"`

	// Automatic estimates the tolerances from the scene size
	// and TargetResolution * ResolutionMultiplier.
	// Otherwise the manual tolerances below are used.
	Automatic            bool    `toml:"automatic" split_words:"true"`
	TargetResolution     int     `toml:"target_resolution" split_words:"true"`
	ResolutionMultiplier float64 `toml:"resolution_multiplier" split_words:"true"`
	PixelsPerUnit        float64 `toml:"pixels_per_unit" split_words:"true"`

	GradientResolution int `toml:"gradient_resolution" split_words:"true"`

	StepDistance            float64 `toml:"step_distance" split_words:"true"`
	SamplingStepDistance    float64 `toml:"sampling_step_distance" split_words:"true"`
	MaxCordDeviationEnabled bool    `toml:"max_cord_deviation_enabled" split_words:"true"`
	MaxCordDeviation        float64 `toml:"max_cord_deviation" split_words:"true"`
	MaxTangentAngleEnabled  bool    `toml:"max_tangent_angle_enabled" split_words:"true"`
	MaxTangentAngle         float64 `toml:"max_tangent_angle" split_words:"true"` // radians

	// size used when the document does not declare one
	DefaultWidth  float64 `toml:"default_width" split_words:"true"`
	DefaultHeight float64 `toml:"default_height" split_words:"true"`

	IndexWidth int    `toml:"index_width" split_words:"true"` // 16 or 32
	Workers    int    `toml:"workers" split_words:"true"`
	ErrorMode  string `toml:"error_mode" split_words:"true"` // ignore, warn or strict
	LogLevel   string `toml:"log_level" split_words:"true"`
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Automatic:            true,
		TargetResolution:     1080,
		ResolutionMultiplier: 1,
		PixelsPerUnit:        1,
		GradientResolution:   64,
		StepDistance:         10,
		SamplingStepDistance: 100,
		MaxCordDeviation:     1,
		MaxTangentAngle:      5,
		DefaultWidth:         100,
		DefaultHeight:        100,
		IndexWidth:           32,
		Workers:              runtime.GOMAXPROCS(0),
		ErrorMode:            "warn",
		LogLevel:             "info",
	}
}

// LoadConfig reads a TOML document on top of DefaultConfig.
// Unknown keys are rejected.
func LoadConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	if err := toml.NewDecoder(r).DisallowUnknownFields().Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrConfiguration, err)
	}
	return cfg, nil
}

// LoadConfigFile is like LoadConfig, reading from the named file.
func LoadConfigFile(filename string) (Config, error) {
	f, err := os.Open(filename)
	if err != nil {
		return Config{}, err
	}
	defer f.Close()
	return LoadConfig(f)
}

// ApplyEnv overrides the fields of cfg with the environment
// variables prefixed by EnvPrefix. Unset variables leave the
// fields untouched.
func (cfg *Config) ApplyEnv() error {
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return fmt.Errorf("%w: %s", ErrConfiguration, err)
	}
	return nil
}

func (cfg Config) errorMode() (svgicon.ErrorMode, error) {
	switch strings.ToLower(cfg.ErrorMode) {
	case "", "ignore":
		return svgicon.IgnoreErrorMode, nil
	case "warn":
		return svgicon.WarnErrorMode, nil
	case "strict":
		return svgicon.StrictErrorMode, nil
	default:
		return 0, fmt.Errorf("%w: unknown error mode %q", ErrConfiguration, cfg.ErrorMode)
	}
}

func (cfg Config) indexWidth() (svgpack.IndexWidth, error) {
	switch cfg.IndexWidth {
	case 16:
		return svgpack.Index16, nil
	case 0, 32:
		return svgpack.Index32, nil
	default:
		return 0, fmt.Errorf("%w: index width must be 16 or 32 (got %d)", ErrConfiguration, cfg.IndexWidth)
	}
}

func (cfg Config) logLevel() (logrus.Level, error) {
	if cfg.LogLevel == "" {
		return logrus.InfoLevel, nil
	}
	lvl, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrConfiguration, err)
	}
	return lvl, nil
}

func nonNegative(v float64) bool { return v >= 0 && !math.IsInf(v, 1) }

// Validate checks the settings, returning an error wrapping ErrConfiguration.
// Tolerances are only checked in the mode which uses them.
func (cfg Config) Validate() error {
	if _, err := cfg.errorMode(); err != nil {
		return err
	}
	if _, err := cfg.indexWidth(); err != nil {
		return err
	}
	if _, err := cfg.logLevel(); err != nil {
		return err
	}
	switch {
	case cfg.GradientResolution <= 0:
		return fmt.Errorf("%w: gradient resolution must be > 0 (got %d)", ErrConfiguration, cfg.GradientResolution)
	case !nonNegative(cfg.PixelsPerUnit):
		return fmt.Errorf("%w: pixels per unit %g", ErrConfiguration, cfg.PixelsPerUnit)
	case !nonNegative(cfg.DefaultWidth) || !nonNegative(cfg.DefaultHeight):
		return fmt.Errorf("%w: default size %gx%g", ErrConfiguration, cfg.DefaultWidth, cfg.DefaultHeight)
	case !nonNegative(cfg.SamplingStepDistance):
		return fmt.Errorf("%w: sampling step distance %g", ErrConfiguration, cfg.SamplingStepDistance)
	}
	if auto, ok := cfg.Params().(svgtess.Automatic); ok {
		return auto.Validate()
	}
	// the manual path does not inspect the scene
	_, err := svgtess.ComputeOptions(nil, cfg.manual())
	return err
}

func (cfg Config) manual() svgtess.Manual {
	m := svgtess.Manual{
		StepDistance:         cfg.StepDistance,
		SamplingStepDistance: cfg.SamplingStepDistance,
	}
	if cfg.MaxCordDeviationEnabled {
		m.MaxCordDeviation = cfg.MaxCordDeviation
	}
	if cfg.MaxTangentAngleEnabled {
		m.MaxTangentAngle = cfg.MaxTangentAngle
	}
	return m
}

// Params returns the tessellation parameters selected by the configuration.
// Disabled manual tolerances are left to zero, which svgtess interprets as
// no constraint.
func (cfg Config) Params() svgtess.Params {
	if cfg.Automatic {
		return svgtess.Automatic{
			TargetResolution:     cfg.TargetResolution,
			ResolutionMultiplier: cfg.ResolutionMultiplier,
			PixelsPerUnit:        cfg.PixelsPerUnit,
			SamplingStepDistance: cfg.SamplingStepDistance,
		}
	}
	return cfg.manual()
}

// parseOptions returns the options of the svg reader.
func (cfg Config) parseOptions(logger logrus.FieldLogger) (svgicon.ParseOptions, error) {
	mode, err := cfg.errorMode()
	if err != nil {
		return svgicon.ParseOptions{}, err
	}
	opts := svgicon.ParseOptions{
		PixelsPerUnit: cfg.PixelsPerUnit,
		DefaultWidth:  cfg.DefaultWidth,
		DefaultHeight: cfg.DefaultHeight,
		ErrorMode:     mode,
		Logger:        logger,
	}
	if cfg.PreserveViewport {
		opts.Viewport = svgicon.PreserveViewport
	}
	return opts, nil
}
