// Package svgtess converts the shapes of a scene into triangle meshes.
//
// Curves are flattened according to TessellationOptions, which are either
// given explicitly (Manual) or estimated from the size of the scene and the
// target raster resolution (Automatic). Fill regions are triangulated with
// their winding rule; strokes are expanded into polygons by rasterx before
// being triangulated the same way.
package svgtess

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrConfiguration is returned for invalid tessellation parameters,
	// such as a zero target resolution.
	ErrConfiguration = errors.New("invalid tessellation configuration")

	// ErrInvalidOptions is returned when tessellating with invalid options.
	ErrInvalidOptions = errors.New("invalid tessellation options")
)

// DefaultSamplingStepDistance is used when no sampling distance is given.
const DefaultSamplingStepDistance = 100

// TessellationOptions fully parameterize the tessellator.
// Distances are in world units, angles in radians.
type TessellationOptions struct {
	// StepDistance is the maximum length of a flattened segment.
	// +Inf disables uniform stepping.
	StepDistance float64

	// MaxCordDeviation is the maximum distance between a flattened
	// segment and the curve it replaces. +Inf disables the check.
	MaxCordDeviation float64

	// MaxTanAngleDeviation is the maximum turn of the tangent
	// along a flattened segment. π/2 practically disables the check.
	MaxTanAngleDeviation float64

	// SamplingStepSize is the parameter increment used when
	// estimating curve lengths, in (0, 1].
	SamplingStepSize float64
}

func (o TessellationOptions) String() string {
	return fmt.Sprintf("step: %g, cord: %g, tangent: %g, sampling: %g",
		o.StepDistance, o.MaxCordDeviation, o.MaxTanAngleDeviation, o.SamplingStepSize)
}

func positive(v float64) bool { return v > 0 && !math.IsNaN(v) }

// Validate returns an error wrapping ErrInvalidOptions if one of the
// values is not strictly positive.
func (o TessellationOptions) Validate() error {
	switch {
	case !positive(o.StepDistance):
		return fmt.Errorf("%w: step distance %g", ErrInvalidOptions, o.StepDistance)
	case !positive(o.MaxCordDeviation):
		return fmt.Errorf("%w: cord deviation %g", ErrInvalidOptions, o.MaxCordDeviation)
	case !positive(o.MaxTanAngleDeviation):
		return fmt.Errorf("%w: tangent angle %g", ErrInvalidOptions, o.MaxTanAngleDeviation)
	case !positive(o.SamplingStepSize) || math.IsInf(o.SamplingStepSize, 1):
		return fmt.Errorf("%w: sampling step size %g", ErrInvalidOptions, o.SamplingStepSize)
	}
	return nil
}

// scaled returns the options expressed in a space where lengths are
// multiplied by 1/s. Angles and sampling are unchanged.
func (o TessellationOptions) scaled(s float64) TessellationOptions {
	o.StepDistance /= s
	o.MaxCordDeviation /= s
	return o
}

// Params selects how the tessellation options are obtained.
// It is either Automatic or Manual.
type Params interface {
	isParams()
}

// Automatic derives the tolerances from the scene size
// and the intended output resolution.
type Automatic struct {
	TargetResolution     int     // in pixels, > 0
	ResolutionMultiplier float64 // > 0

	// PixelsPerUnit converts the scene bounding box, in document pixels,
	// to world units. Zero means 1.
	PixelsPerUnit float64

	// Zero means DefaultSamplingStepDistance.
	SamplingStepDistance float64
}

// Manual uses the given tolerances verbatim.
type Manual struct {
	// Zero disables uniform stepping.
	StepDistance float64
	// Zero means DefaultSamplingStepDistance.
	SamplingStepDistance float64
	// Zero disables the chordal deviation check.
	MaxCordDeviation float64
	// Zero disables the tangent angle check.
	MaxTangentAngle float64
}

func (Automatic) isParams() {}
func (Manual) isParams()    {}

func samplingStepSize(distance float64) (float64, error) {
	if distance == 0 {
		distance = DefaultSamplingStepDistance
	}
	if !positive(distance) {
		return 0, fmt.Errorf("%w: sampling step distance %g", ErrConfiguration, distance)
	}
	return 1 / distance, nil
}

func (m Manual) options() (TessellationOptions, error) {
	if m.StepDistance < 0 || m.MaxCordDeviation < 0 || m.MaxTangentAngle < 0 ||
		math.IsNaN(m.StepDistance) || math.IsNaN(m.MaxCordDeviation) || math.IsNaN(m.MaxTangentAngle) {
		return TessellationOptions{}, fmt.Errorf("%w: negative manual tolerance", ErrConfiguration)
	}
	out := TessellationOptions{
		StepDistance:         m.StepDistance,
		MaxCordDeviation:     m.MaxCordDeviation,
		MaxTanAngleDeviation: m.MaxTangentAngle,
	}
	if out.StepDistance == 0 {
		out.StepDistance = math.Inf(1)
	}
	if out.MaxCordDeviation == 0 {
		out.MaxCordDeviation = math.Inf(1)
	}
	if out.MaxTanAngleDeviation == 0 {
		out.MaxTanAngleDeviation = math.Pi / 2
	}
	var err error
	out.SamplingStepSize, err = samplingStepSize(m.SamplingStepDistance)
	return out, err
}
