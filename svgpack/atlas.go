package svgpack

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/benoitkugler/svgmesh/svgscene"
	"github.com/srwiley/rasterx"
)

// shelfPacker places rectangles left to right, starting
// a new shelf below when the maximum width is reached
type shelfPacker struct {
	maxWidth int

	x, y        int // next free position
	shelfHeight int

	width, height int // used area
}

func (sp *shelfPacker) place(w, h int) (x, y int) {
	if sp.x > 0 && sp.x+w > sp.maxWidth {
		sp.y += sp.shelfHeight
		sp.x, sp.shelfHeight = 0, 0
	}
	x, y = sp.x, sp.y
	sp.x += w
	if h > sp.shelfHeight {
		sp.shelfHeight = h
	}
	if sp.x > sp.width {
		sp.width = sp.x
	}
	if sp.y+sp.shelfHeight > sp.height {
		sp.height = sp.y + sp.shelfHeight
	}
	return x, y
}

// atlas maps gradients to their ramp
type atlas struct {
	resolution int
	entries    []AtlasEntry
	index      map[*svgscene.Gradient]int
	img        *image.NRGBA
}

// buildAtlas packs one vertical ramp of `resolution` texels per gradient,
// in the given order.
func buildAtlas(gradients []*svgscene.Gradient, resolution, maxWidth int) *atlas {
	out := &atlas{resolution: resolution, index: make(map[*svgscene.Gradient]int, len(gradients))}
	packer := shelfPacker{maxWidth: maxWidth}
	for _, g := range gradients {
		x, y := packer.place(stripWidth, resolution)
		out.index[g] = len(out.entries)
		out.entries = append(out.entries, AtlasEntry{Gradient: g, X: x, Y: y})
	}
	out.img = image.NewNRGBA(image.Rect(0, 0, packer.width, packer.height))
	for _, entry := range out.entries {
		ramp := rasterizeRamp(entry.Gradient, resolution)
		for dx := 0; dx < stripWidth; dx++ {
			r := image.Rect(entry.X+dx, entry.Y, entry.X+dx+1, entry.Y+resolution)
			draw.Draw(out.img, r, ramp, image.Point{}, draw.Src)
		}
	}
	return out
}

// uv returns the atlas coordinates of the gradient at parameter t, in [0, 1].
func (at *atlas) uv(g *svgscene.Gradient, t float64) (u, v float32) {
	return rampUV(at.entries[at.index[g]], at.img.Bounds(), at.resolution, t)
}

// rampUV maps t between the centers of the first
// and last texels of the ramp
func rampUV(entry AtlasEntry, bounds image.Rectangle, resolution int, t float64) (u, v float32) {
	t = clamp01(t)
	u = float32((float64(entry.X) + stripWidth/2.) / float64(bounds.Dx()))
	v = float32((float64(entry.Y) + 0.5 + t*float64(resolution-1)) / float64(bounds.Dy()))
	return u, v
}

// rasterizeRamp returns a 1 x resolution image of the gradient stops:
// the texel at row y has the color at parameter y / (resolution - 1).
// Spread methods are not applied.
func rasterizeRamp(g *svgscene.Gradient, resolution int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 1, resolution))
	switch len(g.Stops) {
	case 0:
		return img // transparent
	case 1:
		s := g.Stops[0]
		c := straightColor(s.StopColor, s.Opacity)
		for y := 0; y < resolution; y++ {
			img.SetNRGBA(0, y, c)
		}
		return img
	}

	// a vertical linear gradient in pixel space, from
	// the center of the first texel to the center of the last
	points := [5]float64{0, 0.5, 0, float64(resolution) - 0.5}
	if resolution == 1 {
		points[1], points[3] = 0, 1
	}
	ramp := rasterx.Gradient{
		Points: points,
		Stops:  make([]rasterx.GradStop, len(g.Stops)),
		Matrix: rasterx.Identity,
		Spread: rasterx.PadSpread,
		Units:  rasterx.UserSpaceOnUse,
	}
	ramp.Bounds.W, ramp.Bounds.H = 1, 1
	for i, s := range g.Stops {
		// rasterx expects opaque stop colors
		c := color.NRGBAModel.Convert(s.StopColor).(color.NRGBA)
		ramp.Stops[i] = rasterx.GradStop{
			StopColor: color.NRGBA{R: c.R, G: c.G, B: c.B, A: 0xff},
			Offset:    s.Offset,
			Opacity:   s.Opacity * float64(c.A) / 0xff,
		}
	}
	colorAt, ok := ramp.GetColorFunction(1).(rasterx.ColorFunc)
	if !ok {
		return img
	}
	for y := 0; y < resolution; y++ {
		img.Set(0, y, colorAt(0, y))
	}
	return img
}

// straightColor applies the opacity to the alpha channel of c
func straightColor(c color.Color, opacity float64) color.NRGBA {
	nc := color.NRGBAModel.Convert(c).(color.NRGBA)
	nc.A = uint8(clamp01(float64(nc.A)/0xff*opacity)*0xff + 0.5)
	return nc
}
