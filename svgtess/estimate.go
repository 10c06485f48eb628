package svgtess

import (
	"fmt"
	"math"

	"github.com/benoitkugler/svgmesh/svgscene"
)

const (
	minCordDeviation = 0.01
	minTangentAngle  = 0.1 // radians

	cordFactor    = 2.
	tangentFactor = 3.
)

// EstimateParams derives the flattening tolerances of a scene whose
// bounding box is `bbox`, rendered at `targetResolution` pixels,
// assuming one world unit per pixel.
// The step distance is always +Inf: only the curve tolerances
// drive the density.
// `targetResolution` and `multiplier` must be > 0, which is not checked here
// (see ComputeOptions).
func EstimateParams(bbox svgscene.Rect, targetResolution int, multiplier float64) (stepDistance, maxCordDeviation, maxTangentAngle float64) {
	return EstimateParamsPPU(bbox, targetResolution, multiplier, 1)
}

// EstimateParamsPPU is like EstimateParams, for a bounding box expressed in
// pixels, with `ppu` pixels per world unit.
func EstimateParamsPPU(bbox svgscene.Rect, targetResolution int, multiplier, ppu float64) (stepDistance, maxCordDeviation, maxTangentAngle float64) {
	maxDim := math.Max(bbox.W, bbox.H) / ppu
	sceneRatio := maxDim / (float64(targetResolution) * multiplier)
	stepDistance = math.Inf(1)
	maxCordDeviation = math.Max(minCordDeviation, cordFactor*sceneRatio)
	maxTangentAngle = math.Max(minTangentAngle, tangentFactor*sceneRatio)
	return
}

// Validate returns an error wrapping ErrConfiguration for a non positive
// resolution or multiplier, or a negative pixels per unit value.
func (a Automatic) Validate() error {
	switch {
	case a.TargetResolution <= 0:
		return fmt.Errorf("%w: target resolution must be > 0 (got %d)", ErrConfiguration, a.TargetResolution)
	case !positive(a.ResolutionMultiplier) || math.IsInf(a.ResolutionMultiplier, 1):
		return fmt.Errorf("%w: resolution multiplier must be > 0 (got %g)", ErrConfiguration, a.ResolutionMultiplier)
	case a.PixelsPerUnit < 0 || math.IsNaN(a.PixelsPerUnit) || math.IsInf(a.PixelsPerUnit, 1):
		return fmt.Errorf("%w: pixels per unit must be > 0 (got %g)", ErrConfiguration, a.PixelsPerUnit)
	}
	return nil
}

// ComputeOptions returns the tessellation options of the scene.
// With Automatic params, the bounding box of the scene root, in document pixels,
// is estimated with svgscene.ApproximateBounds. With Manual params, the scene
// is not inspected.
func ComputeOptions(info *svgscene.SceneInfo, params Params) (TessellationOptions, error) {
	switch params := params.(type) {
	case Manual:
		return params.options()
	case Automatic:
		if err := params.Validate(); err != nil {
			return TessellationOptions{}, err
		}
		if err := info.Validate(); err != nil {
			return TessellationOptions{}, err
		}
		ppu := params.PixelsPerUnit
		if ppu == 0 {
			ppu = 1
		}
		bbox := svgscene.ApproximateBounds(info.Scene, info.Scene.Root)
		var out TessellationOptions
		out.StepDistance, out.MaxCordDeviation, out.MaxTanAngleDeviation = EstimateParamsPPU(bbox,
			params.TargetResolution, params.ResolutionMultiplier, ppu)
		var err error
		out.SamplingStepSize, err = samplingStepSize(params.SamplingStepDistance)
		return out, err
	default:
		return TessellationOptions{}, fmt.Errorf("%w: unsupported params %T", ErrConfiguration, params)
	}
}
