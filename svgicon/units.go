package svgicon

import (
	"fmt"
	"math"
	"strings"
)

type percentageReference uint8

const (
	widthPercentage percentageReference = iota
	heightPercentage
	diagPercentage
)

// absolute units, expressed in pixels (96 per inch)
var unitFactors = [...]struct {
	suffix string
	factor float64
}{
	{"px", 1},
	{"pt", 96. / 72},
	{"pc", 16},
	{"mm", 96. / 25.4},
	{"cm", 96. / 2.54},
	{"in", 96},
	{"em", 16}, // default font size
	{"ex", 8},
}

// parseAbsoluteUnit parses a length with an optional unit.
// Percentages are not supported and return 0.
func parseAbsoluteUnit(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, "%") {
		return 0, nil
	}
	for _, u := range unitFactors {
		if strings.HasSuffix(s, u.suffix) {
			f, err := parseBasicFloat(strings.TrimSuffix(s, u.suffix))
			if err != nil {
				return 0, err
			}
			return f * u.factor, nil
		}
	}
	return parseBasicFloat(s)
}

// parseUnit parses a length, resolving percentages against the
// current view box, according to `asPerc`.
func (c *iconCursor) parseUnit(s string, asPerc percentageReference) (float64, error) {
	s = strings.TrimSpace(s)
	if !strings.HasSuffix(s, "%") {
		f, err := parseAbsoluteUnit(s)
		if err != nil {
			return 0, fmt.Errorf("invalid length %q: %w", s, err)
		}
		return f, nil
	}
	f, err := parseBasicFloat(strings.TrimSuffix(s, "%"))
	if err != nil {
		return 0, fmt.Errorf("invalid length %q: %w", s, err)
	}
	f /= 100
	switch asPerc {
	case widthPercentage:
		return f * c.viewBox.W, nil
	case heightPercentage:
		return f * c.viewBox.H, nil
	default: // normalized diagonal
		w, h := c.viewBox.W, c.viewBox.H
		return f * math.Sqrt(w*w+h*h) / math.Sqrt2, nil
	}
}
