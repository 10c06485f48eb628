package svgicon

import (
	"encoding/xml"
	"errors"
	"strings"

	"github.com/benoitkugler/svgmesh/svgscene"
)

type svgFunc func(c *iconCursor, attrs []xml.Attr) error

var drawFuncs = map[string]svgFunc{
	"svg":            svgF,
	"g":              gF,
	"line":           lineF,
	"stop":           stopF,
	"rect":           rectF,
	"circle":         circleF,
	"ellipse":        circleF, //circleF handles ellipse also
	"polyline":       polylineF,
	"polygon":        polygonF,
	"path":           pathF,
	"desc":           noopF,
	"title":          noopF,
	"metadata":       noopF,
	"defs":           defsF,
	"linearGradient": linearGradientF,
	"radialGradient": radialGradientF,
}

func noopF(*iconCursor, []xml.Attr) error { return nil }

// svgF creates the root node on the first <svg> element,
// nested elements are handled as groups
func svgF(c *iconCursor, attrs []xml.Attr) error {
	if c.seenRoot {
		return gF(c, attrs)
	}
	c.seenRoot = true

	var (
		viewBox       svgscene.Rect
		hasViewBox    bool
		width, height float64
		err           error
	)
	for _, attr := range attrs {
		switch attr.Name.Local {
		case "viewBox":
			if err = c.getPoints(attr.Value); err != nil {
				return err
			}
			if len(c.points) != 4 {
				return errParamMismatch
			}
			viewBox = svgscene.Rect{X: c.points[0], Y: c.points[1], W: c.points[2], H: c.points[3]}
			hasViewBox = viewBox.W > 0 && viewBox.H > 0
		case "width":
			width, err = parseAbsoluteUnit(attr.Value)
		case "height":
			height, err = parseAbsoluteUnit(attr.Value)
		}
		if err != nil {
			return err
		}
	}

	declared := svgscene.Rect{W: c.opts.DefaultWidth, H: c.opts.DefaultHeight}
	if hasViewBox {
		declared = viewBox
	} else {
		if width > 0 {
			declared.W = width
		}
		if height > 0 {
			declared.H = height
		}
	}
	c.viewBox = declared

	viewport := svgscene.Rect{W: c.opts.DefaultWidth, H: c.opts.DefaultHeight}
	if c.opts.Viewport == PreserveViewport {
		viewport = declared
	}

	scene := svgscene.NewScene()
	ppu := c.opts.PixelsPerUnit
	scene.Node(scene.Root).Transform = svgscene.Identity.Scale(1/ppu, 1/ppu).Mult(c.currentStyle().transform)
	c.info = svgscene.NewSceneInfo(scene, viewport)
	if style := c.currentStyle(); style.opacity != 1 {
		c.info.Opacities[scene.Root] = style.opacity
	}
	c.nodeStack = append(c.nodeStack, scene.Root)
	return nil
}

// gF creates a group node
func gF(c *iconCursor, _ []xml.Attr) error {
	c.pushNode()
	return nil
}

func rectF(c *iconCursor, attrs []xml.Attr) error {
	var x, y, w, h, rx, ry float64
	var hasRx, hasRy bool
	var err error
	for _, attr := range attrs {
		switch attr.Name.Local {
		case "x":
			x, err = c.parseUnit(attr.Value, widthPercentage)
		case "y":
			y, err = c.parseUnit(attr.Value, heightPercentage)
		case "width":
			w, err = c.parseUnit(attr.Value, widthPercentage)
		case "height":
			h, err = c.parseUnit(attr.Value, heightPercentage)
		case "rx":
			hasRx = true
			rx, err = c.parseUnit(attr.Value, widthPercentage)
		case "ry":
			hasRy = true
			ry, err = c.parseUnit(attr.Value, heightPercentage)
		}
		if err != nil {
			return err
		}
	}
	if w <= 0 || h <= 0 { // not drawn, but not an error
		return nil
	}
	// a single radius is used for both axis
	if hasRx && !hasRy {
		ry = rx
	} else if hasRy && !hasRx {
		rx = ry
	}
	addRoundRect(&c.path, x, y, w+x, h+y, rx, ry)
	return nil
}

func circleF(c *iconCursor, attrs []xml.Attr) error {
	var cx, cy, rx, ry float64
	var err error
	for _, attr := range attrs {
		switch attr.Name.Local {
		case "cx":
			cx, err = c.parseUnit(attr.Value, widthPercentage)
		case "cy":
			cy, err = c.parseUnit(attr.Value, heightPercentage)
		case "r":
			rx, err = c.parseUnit(attr.Value, diagPercentage)
			ry = rx
		case "rx":
			rx, err = c.parseUnit(attr.Value, widthPercentage)
		case "ry":
			ry, err = c.parseUnit(attr.Value, heightPercentage)
		}
		if err != nil {
			return err
		}
	}
	if rx <= 0 || ry <= 0 { // not drawn, but not an error
		return nil
	}
	c.ellipseAt(cx, cy, rx, ry)
	return nil
}

func lineF(c *iconCursor, attrs []xml.Attr) error {
	var x1, x2, y1, y2 float64
	var err error
	for _, attr := range attrs {
		switch attr.Name.Local {
		case "x1":
			x1, err = c.parseUnit(attr.Value, widthPercentage)
		case "x2":
			x2, err = c.parseUnit(attr.Value, widthPercentage)
		case "y1":
			y1, err = c.parseUnit(attr.Value, heightPercentage)
		case "y2":
			y2, err = c.parseUnit(attr.Value, heightPercentage)
		}
		if err != nil {
			return err
		}
	}
	c.path.Start(svgscene.Point{X: x1, Y: y1})
	c.path.Line(svgscene.Point{X: x2, Y: y2})
	return nil
}

func polylineF(c *iconCursor, attrs []xml.Attr) error {
	var err error
	c.points = c.points[:0]
	for _, attr := range attrs {
		switch attr.Name.Local {
		case "points":
			err = c.getPoints(attr.Value)
			if len(c.points)%2 != 0 {
				return errors.New("polygon has odd number of points")
			}
		}
		if err != nil {
			return err
		}
	}
	if len(c.points) >= 4 {
		c.path.Start(svgscene.Point{X: c.points[0], Y: c.points[1]})
		for i := 2; i < len(c.points)-1; i += 2 {
			c.path.Line(svgscene.Point{X: c.points[i], Y: c.points[i+1]})
		}
	}
	return nil
}

func polygonF(c *iconCursor, attrs []xml.Attr) error {
	err := polylineF(c, attrs)
	if len(c.path) > 0 {
		c.path.Stop(true)
	}
	return err
}

func pathF(c *iconCursor, attrs []xml.Attr) error {
	var err error
	for _, attr := range attrs {
		switch attr.Name.Local {
		case "d":
			err = c.compilePath(attr.Value)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func defsF(c *iconCursor, attrs []xml.Attr) error {
	c.inDefs = true
	return nil
}

func (c *iconCursor) registerGradient(attrs []xml.Attr) error {
	for _, attr := range attrs {
		if attr.Name.Local == "id" {
			if len(attr.Value) == 0 {
				return errZeroLengthID
			}
			c.grads[attr.Value] = c.grad
		}
	}
	return nil
}

func linearGradientF(c *iconCursor, attrs []xml.Attr) error {
	var err error
	c.inGrad = true
	direction := svgscene.Linear{0, 0, 1, 0}
	c.grad = &svgscene.Gradient{Matrix: svgscene.Identity}
	if err = c.registerGradient(attrs); err != nil {
		return err
	}
	for _, attr := range attrs {
		switch attr.Name.Local {
		case "id":
		case "x1":
			direction[0], err = readFraction(attr.Value)
		case "y1":
			direction[1], err = readFraction(attr.Value)
		case "x2":
			direction[2], err = readFraction(attr.Value)
		case "y2":
			direction[3], err = readFraction(attr.Value)
		default:
			err = c.readGradAttr(attr)
		}
		if err != nil {
			return err
		}
	}
	c.grad.Direction = direction
	return nil
}

func radialGradientF(c *iconCursor, attrs []xml.Attr) error {
	c.inGrad = true
	direction := svgscene.Radial{0.5, 0.5, 0.5, 0.5, 0.5, 0}
	c.grad = &svgscene.Gradient{Matrix: svgscene.Identity}
	var setFx, setFy bool
	err := c.registerGradient(attrs)
	if err != nil {
		return err
	}
	for _, attr := range attrs {
		switch attr.Name.Local {
		case "id":
		case "cx":
			direction[0], err = readFraction(attr.Value)
		case "cy":
			direction[1], err = readFraction(attr.Value)
		case "fx":
			setFx = true
			direction[2], err = readFraction(attr.Value)
		case "fy":
			setFy = true
			direction[3], err = readFraction(attr.Value)
		case "r":
			direction[4], err = readFraction(attr.Value)
		case "fr":
			direction[5], err = readFraction(attr.Value)
		default:
			err = c.readGradAttr(attr)
		}
		if err != nil {
			return err
		}
	}
	if !setFx { // set fx to cx by default
		direction[2] = direction[0]
	}
	if !setFy { // set fy to cy by default
		direction[3] = direction[1]
	}
	c.grad.Direction = direction
	return nil
}

func stopF(c *iconCursor, attrs []xml.Attr) error {
	if !c.inGrad {
		return nil
	}
	stop := svgscene.GradStop{Opacity: 1.0, StopColor: color0}
	// properties may also be given in a style attribute
	var pairs [][2]string
	for _, attr := range attrs {
		if attr.Name.Local == "style" {
			for _, decl := range strings.Split(attr.Value, ";") {
				if kv := strings.SplitN(decl, ":", 2); len(kv) == 2 {
					pairs = append(pairs, [2]string{strings.TrimSpace(kv[0]), strings.TrimSpace(kv[1])})
				}
			}
			continue
		}
		pairs = append(pairs, [2]string{attr.Name.Local, attr.Value})
	}
	var err error
	for _, kv := range pairs {
		switch kv[0] {
		case "offset":
			stop.Offset, err = readFraction(kv[1])
		case "stop-color":
			var optColor optionalColor
			optColor, err = parseSVGColor(kv[1], c.currentStyle().currentColor)
			stop.StopColor = optColor.asColor()
		case "stop-opacity":
			stop.Opacity, err = readFraction(kv[1])
		}
		if err != nil {
			return err
		}
	}
	c.grad.Stops = append(c.grad.Stops, stop)
	return nil
}

const maxUseDepth = 16

// useF replays a definition, inside a new group
// translated by the x and y attributes.
func useF(c *iconCursor, attrs []xml.Attr) error {
	var (
		href string
		x, y float64
		err  error
	)
	for _, attr := range attrs {
		switch attr.Name.Local {
		case "href":
			href = attr.Value
		case "x":
			x, err = c.parseUnit(attr.Value, widthPercentage)
		case "y":
			y, err = c.parseUnit(attr.Value, heightPercentage)
		}
		if err != nil {
			return err
		}
	}
	if href == "" {
		return errors.New("only use tags with href is supported")
	}
	if !strings.HasPrefix(href, "#") {
		return errors.New("only the ID CSS selector is supported")
	}
	defs, ok := c.defs[href[1:]]
	if !ok {
		return errors.New("href ID in use statement was not found in saved defs")
	}

	if c.useDepth >= maxUseDepth {
		return errors.New("too many nested use elements")
	}

	style := c.currentStyle()
	style.transform = style.transform.Translate(x, y)
	nodeDepth, styleDepth, wasReplaying := len(c.nodeStack), len(c.styleStack), c.replaying
	c.pushNode()
	c.replaying = true
	c.useDepth++
	defer func() {
		c.useDepth--
		c.replaying = wasReplaying
		c.nodeStack = c.nodeStack[:nodeDepth]
		c.styleStack = c.styleStack[:styleDepth]
	}()

	for _, def := range defs {
		if def.Tag == "endg" {
			if len(c.styleStack) > styleDepth {
				c.popStyle()
				c.popNode()
			}
			continue
		}
		if err = c.pushStyle(def.Attrs); err != nil {
			return err
		}
		if err = c.drawElement(def.Tag, def.Attrs); err != nil {
			return err
		}
		if def.Tag != "g" {
			c.popStyle()
		}
	}
	return nil
}
