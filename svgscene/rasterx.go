package svgscene

import "github.com/srwiley/rasterx"

var (
	joinToRasterx = [...]rasterx.JoinMode{
		Arc:       rasterx.Arc,
		Round:     rasterx.Round,
		Bevel:     rasterx.Bevel,
		Miter:     rasterx.Miter,
		MiterClip: rasterx.MiterClip,
		ArcClip:   rasterx.ArcClip,
	}

	capToRasterx = [...]rasterx.CapFunc{
		NilCap:    nil, // rasterx defaults to ButtCap
		ButtCap:   rasterx.ButtCap,
		SquareCap: rasterx.SquareCap,
		RoundCap:  rasterx.RoundCap,
	}
)

// Rasterx returns the rasterx join, defaulting to Miter
// for unknown values.
func (s JoinMode) Rasterx() rasterx.JoinMode {
	if int(s) < len(joinToRasterx) {
		return joinToRasterx[s]
	}
	return rasterx.Miter
}

// Rasterx returns the rasterx cap function, which is nil
// for NilCap and unknown values.
func (c CapMode) Rasterx() rasterx.CapFunc {
	if int(c) < len(capToRasterx) {
		return capToRasterx[c]
	}
	return nil
}
