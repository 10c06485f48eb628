package svgicon

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/benoitkugler/svgmesh/svgscene"
	"github.com/tdewolff/parse/v2/strconv"
)

// pathCursor is used to parse SVG format path strings into a Path
type pathCursor struct {
	path                   svgscene.Path
	points                 []float64
	placeX, placeY         float64
	cntlPtX, cntlPtY       float64
	pathStartX, pathStartY float64
	lastKey                byte
	inPath                 bool
}

var errEmptyNumber = errors.New("empty number")

func isSeparator(b byte) bool {
	return b == ' ' || b == ',' || b == '\n' || b == '\r' || b == '\t'
}

func skipCommaWhitespace(path []byte) int {
	i := 0
	for i < len(path) && isSeparator(path[i]) {
		i++
	}
	return i
}

// parseBasicFloat parses a number, which must span the whole string
func parseBasicFloat(s string) (float64, error) {
	b := []byte(strings.TrimSpace(s))
	if len(b) == 0 {
		return 0, errEmptyNumber
	}
	f, n := strconv.ParseFloat(b)
	if n != len(b) {
		return 0, fmt.Errorf("invalid number: %q", s)
	}
	return f, nil
}

// getPoints reads a list of numbers separated by commas or spaces
// into c.points
func (c *pathCursor) getPoints(dataPoints string) error {
	c.points = c.points[0:0]
	b := []byte(dataPoints)
	i := skipCommaWhitespace(b)
	for i < len(b) {
		f, n := strconv.ParseFloat(b[i:])
		if n == 0 {
			return fmt.Errorf("invalid number list: %q", dataPoints)
		}
		c.points = append(c.points, f)
		i += n
		i += skipCommaWhitespace(b[i:])
	}
	return nil
}

// number of arguments of each command
var cmdLens = [256]int{
	'M': 2, 'm': 2,
	'L': 2, 'l': 2,
	'H': 1, 'h': 1,
	'V': 1, 'v': 1,
	'C': 6, 'c': 6,
	'S': 4, 's': 4,
	'Q': 4, 'q': 4,
	'T': 2, 't': 2,
	'A': 7, 'a': 7,
	'Z': 0, 'z': 0,
}

func isCommand(b byte) bool {
	switch b {
	case 'M', 'm', 'L', 'l', 'H', 'h', 'V', 'v', 'C', 'c', 'S', 's', 'Q', 'q', 'T', 't', 'A', 'a', 'Z', 'z':
		return true
	}
	return false
}

// readArgs reads the arguments of the command `key` into c.points,
// returning the number of bytes consumed
func (c *pathCursor) readArgs(key byte, path []byte) (int, error) {
	c.points = c.points[:0]
	i := 0
	for j := 0; j < cmdLens[key]; j++ {
		i += skipCommaWhitespace(path[i:])
		if (key == 'A' || key == 'a') && (j == 3 || j == 4) {
			// flags may be written without separators
			if i < len(path) && (path[i] == '0' || path[i] == '1') {
				c.points = append(c.points, float64(path[i]-'0'))
				i++
				continue
			}
			return i, fmt.Errorf("invalid arc flag in command '%c'", key)
		}
		f, n := strconv.ParseFloat(path[i:])
		if n == 0 {
			return i, fmt.Errorf("command '%c' expects %d numbers", key, cmdLens[key])
		}
		c.points = append(c.points, f)
		i += n
	}
	return i, nil
}

// compilePath translates the svgPath description string into a path.
// The resulting path element is stored in the pathCursor.
func (c *pathCursor) compilePath(svgPath string) error {
	c.init()
	path := []byte(svgPath)
	i := skipCommaWhitespace(path)
	if i < len(path) && path[i] != 'M' && path[i] != 'm' {
		return fmt.Errorf("path should start with a moveto command")
	}
	var key byte
	for {
		i += skipCommaWhitespace(path[i:])
		if i >= len(path) {
			break
		}
		if isCommand(path[i]) {
			key = path[i]
			i++
		} else if key == 0 || key == 'Z' || key == 'z' {
			return fmt.Errorf("unexpected character '%c' in path", path[i])
		}
		// implicit repetition of the previous command
		n, err := c.readArgs(key, path[i:])
		if err != nil {
			return err
		}
		i += n
		if err = c.addSeg(key); err != nil {
			return err
		}
		switch key {
		case 'M':
			key = 'L'
		case 'm':
			key = 'l'
		}
	}
	c.path.Stop(false)
	return nil
}

func reflect(px, py, rx, ry float64) (x, y float64) {
	return px*2 - rx, py*2 - ry
}

func (c *pathCursor) init() {
	c.placeX = 0.0
	c.placeY = 0.0
	c.points = c.points[0:0]
	c.lastKey = ' '
	c.path.Clear()
	c.inPath = false
}

func (c *pathCursor) valsToAbs(last float64) {
	for i := 0; i < len(c.points); i++ {
		last += c.points[i]
		c.points[i] = last
	}
}

func (c *pathCursor) pointsToAbs(sz int) {
	lastX := c.placeX
	lastY := c.placeY
	for j := 0; j < len(c.points); j += sz {
		for i := 0; i < sz; i += 2 {
			c.points[i+j] += lastX
			c.points[i+1+j] += lastY
		}
		lastX = c.points[(j+sz)-2]
		lastY = c.points[(j+sz)-1]
	}
}

func (c *pathCursor) hasSetsOrMore(sz int, rel bool) bool {
	if !(len(c.points) >= sz && len(c.points)%sz == 0) {
		return false
	}
	if rel {
		c.pointsToAbs(sz)
	}
	return true
}

func (c *pathCursor) start(x, y float64) {
	c.inPath = true
	c.path.Start(svgscene.Point{X: x, Y: y})
}

// addSeg decodes an SVG segment string into equivalent path commands.
func (c *pathCursor) addSeg(key byte) error {
	l := len(c.points)
	switch key {
	case 'Z', 'z':
		c.path.Stop(true)
		c.placeX, c.placeY = c.pathStartX, c.pathStartY
		c.inPath = false
	case 'M', 'm':
		if !c.hasSetsOrMore(2, key == 'm') {
			return errParamMismatch
		}
		c.pathStartX, c.pathStartY = c.points[0], c.points[1]
		c.start(c.pathStartX, c.pathStartY)
		c.placeX, c.placeY = c.pathStartX, c.pathStartY
	case 'L', 'l':
		if !c.hasSetsOrMore(2, key == 'l') {
			return errParamMismatch
		}
		c.ensureStarted()
		c.placeX, c.placeY = c.points[l-2], c.points[l-1]
		c.path.Line(svgscene.Point{X: c.placeX, Y: c.placeY})
	case 'V', 'v':
		if !c.hasSetsOrMore(1, false) {
			return errParamMismatch
		}
		if key == 'v' {
			c.valsToAbs(c.placeY)
		}
		c.ensureStarted()
		c.placeY = c.points[l-1]
		c.path.Line(svgscene.Point{X: c.placeX, Y: c.placeY})
	case 'H', 'h':
		if !c.hasSetsOrMore(1, false) {
			return errParamMismatch
		}
		if key == 'h' {
			c.valsToAbs(c.placeX)
		}
		c.ensureStarted()
		c.placeX = c.points[l-1]
		c.path.Line(svgscene.Point{X: c.placeX, Y: c.placeY})
	case 'Q', 'q':
		if !c.hasSetsOrMore(4, key == 'q') {
			return errParamMismatch
		}
		c.ensureStarted()
		c.cntlPtX, c.cntlPtY = c.points[0], c.points[1]
		c.placeX, c.placeY = c.points[2], c.points[3]
		c.path.QuadBezier(svgscene.Point{X: c.cntlPtX, Y: c.cntlPtY}, svgscene.Point{X: c.placeX, Y: c.placeY})
	case 'T', 't':
		if !c.hasSetsOrMore(2, key == 't') {
			return errParamMismatch
		}
		c.ensureStarted()
		if strings.IndexByte("QqTt", c.lastKey) >= 0 {
			c.cntlPtX, c.cntlPtY = reflect(c.placeX, c.placeY, c.cntlPtX, c.cntlPtY)
		} else {
			c.cntlPtX, c.cntlPtY = c.placeX, c.placeY
		}
		c.placeX, c.placeY = c.points[0], c.points[1]
		c.path.QuadBezier(svgscene.Point{X: c.cntlPtX, Y: c.cntlPtY}, svgscene.Point{X: c.placeX, Y: c.placeY})
	case 'C', 'c':
		if !c.hasSetsOrMore(6, key == 'c') {
			return errParamMismatch
		}
		c.ensureStarted()
		c.cntlPtX, c.cntlPtY = c.points[2], c.points[3]
		c.path.CubeBezier(svgscene.Point{X: c.points[0], Y: c.points[1]},
			svgscene.Point{X: c.cntlPtX, Y: c.cntlPtY}, svgscene.Point{X: c.points[4], Y: c.points[5]})
		c.placeX, c.placeY = c.points[4], c.points[5]
	case 'S', 's':
		if !c.hasSetsOrMore(4, key == 's') {
			return errParamMismatch
		}
		c.ensureStarted()
		var p1x, p1y float64
		if strings.IndexByte("CcSs", c.lastKey) >= 0 {
			p1x, p1y = reflect(c.placeX, c.placeY, c.cntlPtX, c.cntlPtY)
		} else {
			p1x, p1y = c.placeX, c.placeY
		}
		c.cntlPtX, c.cntlPtY = c.points[0], c.points[1]
		c.placeX, c.placeY = c.points[2], c.points[3]
		c.path.CubeBezier(svgscene.Point{X: p1x, Y: p1y},
			svgscene.Point{X: c.cntlPtX, Y: c.cntlPtY}, svgscene.Point{X: c.placeX, Y: c.placeY})
	case 'A', 'a':
		if !c.hasSetsOrMore(7, false) {
			return errParamMismatch
		}
		if key == 'a' {
			c.points[5] += c.placeX
			c.points[6] += c.placeY
		}
		c.ensureStarted()
		c.arcTo()
	default:
		return fmt.Errorf("unknown path command '%c'", key)
	}
	c.lastKey = key
	return nil
}

// ensureStarted restarts the sub-path at the current point
// after a close command
func (c *pathCursor) ensureStarted() {
	if !c.inPath {
		c.start(c.placeX, c.placeY)
	}
}

// arcTo adds the elliptical arc described by c.points
// (rx, ry, rotation, large arc flag, sweep flag, x, y)
func (c *pathCursor) arcTo() {
	rx, ry := math.Abs(c.points[0]), math.Abs(c.points[1])
	endX, endY := c.points[5], c.points[6]
	if endX == c.placeX && endY == c.placeY {
		return // arc with no length is omitted
	}
	if rx == 0 || ry == 0 { // degenerated to a line
		c.placeX, c.placeY = endX, endY
		c.path.Line(svgscene.Point{X: endX, Y: endY})
		return
	}
	cx, cy := findEllipseCenter(&rx, &ry, c.points[2]*math.Pi/180, c.placeX,
		c.placeY, endX, endY, c.points[4] == 0, c.points[3] == 0)
	c.points[0], c.points[1] = rx, ry
	c.placeX, c.placeY = addArc(&c.path, c.points, cx, cy, c.placeX, c.placeY)
}

// ellipseAt adds a closed ellipse to the path
func (c *pathCursor) ellipseAt(cx, cy, rx, ry float64) {
	c.placeX, c.placeY = cx+rx, cy
	c.points = c.points[0:0]
	c.points = append(c.points, rx, ry, 0.0, 1.0, 0.0, c.placeX, c.placeY)
	c.path.Start(svgscene.Point{X: c.placeX, Y: c.placeY})
	c.placeX, c.placeY = addArc(&c.path, c.points, cx, cy, c.placeX, c.placeY)
	c.path.Stop(true)
}
