package svgicon

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/benoitkugler/svgmesh/svgscene"
	"golang.org/x/image/colornames"
)

var color0 = color.NRGBA{A: 0xff}

// optionalColor is a color, or 'none'
type optionalColor struct {
	color color.NRGBA
	valid bool
}

// asPattern returns nil for 'none'
func (o optionalColor) asPattern() svgscene.Pattern {
	if !o.valid {
		return nil
	}
	return svgscene.PlainColor{NRGBA: o.color}
}

// asColor returns a transparent color for 'none'
func (o optionalColor) asColor() color.Color {
	if !o.valid {
		return color.NRGBA{}
	}
	return o.color
}

// parseSVGColor parses an SVG color string in all forms
// including all SVG1.1 names, obtained from the colornames package.
// `current` is used for 'currentColor'.
func parseSVGColor(colorStr string, current color.NRGBA) (optionalColor, error) {
	v := strings.ToLower(strings.TrimSpace(colorStr))
	switch v {
	case "none", "":
		return optionalColor{}, nil
	case "currentcolor":
		return optionalColor{color: current, valid: true}, nil
	case "transparent":
		return optionalColor{color: color.NRGBA{}, valid: true}, nil
	}
	if cl, ok := colornames.Map[v]; ok {
		return optionalColor{color: color.NRGBA{R: cl.R, G: cl.G, B: cl.B, A: 0xff}, valid: true}, nil
	}
	if strings.HasPrefix(v, "#") {
		return parseHexColor(v[1:])
	}
	if strings.HasPrefix(v, "rgb(") || strings.HasPrefix(v, "rgba(") {
		return parseRGBFunc(v)
	}
	return optionalColor{}, fmt.Errorf("invalid color: %s", colorStr)
}

func parseHexColor(v string) (optionalColor, error) {
	var expanded string
	switch len(v) {
	case 3, 4: // #rgb or #rgba
		var b strings.Builder
		for _, r := range v {
			b.WriteRune(r)
			b.WriteRune(r)
		}
		expanded = b.String()
	case 6, 8:
		expanded = v
	default:
		return optionalColor{}, fmt.Errorf("invalid hex color: #%s", v)
	}
	if len(expanded) == 6 {
		expanded += "ff"
	}
	n, err := strconv.ParseUint(expanded, 16, 32)
	if err != nil {
		return optionalColor{}, fmt.Errorf("invalid hex color: #%s", v)
	}
	return optionalColor{color: color.NRGBA{
		R: uint8(n >> 24),
		G: uint8(n >> 16),
		B: uint8(n >> 8),
		A: uint8(n),
	}, valid: true}, nil
}

// parseRGBFunc handles rgb(r, g, b) and rgba(r, g, b, a),
// with components given as integers or percentages
func parseRGBFunc(v string) (optionalColor, error) {
	start, end := strings.Index(v, "("), strings.LastIndex(v, ")")
	if end < start {
		return optionalColor{}, fmt.Errorf("invalid color: %s", v)
	}
	parts := splitOnCommaOrSpace(strings.ReplaceAll(v[start+1:end], "/", " "))
	if len(parts) != 3 && len(parts) != 4 {
		return optionalColor{}, fmt.Errorf("invalid color: %s", v)
	}
	var comps [4]uint8
	comps[3] = 0xff
	for i, part := range parts {
		var (
			f   float64
			err error
		)
		if i == 3 { // alpha is a fraction
			f, err = readFraction(part)
			f *= 255
		} else if strings.HasSuffix(part, "%") {
			f, err = readFraction(part)
			f *= 255
		} else {
			f, err = parseBasicFloat(part)
		}
		if err != nil {
			return optionalColor{}, err
		}
		if f < 0 {
			f = 0
		} else if f > 255 {
			f = 255
		}
		comps[i] = uint8(f + 0.5)
	}
	return optionalColor{color: color.NRGBA{R: comps[0], G: comps[1], B: comps[2], A: comps[3]}, valid: true}, nil
}
