package svgicon

import (
	"encoding/xml"
	"errors"
	"image/color"
	"math"
	"strings"

	"github.com/benoitkugler/svgmesh/svgscene"
)

func init() {
	// avoids cyclical static declaration
	// called on package initialization
	drawFuncs["use"] = useF
}

type (
	// pathStyle holds the state of the SVG style
	pathStyle struct {
		fill, stroke               svgscene.Pattern // either PlainColor or *Gradient, nil to disable
		fillOpacity, strokeOpacity float64
		fillRule                   svgscene.FillRule
		strokeWidth, miterLimit    float64
		join                       svgscene.JoinMode
		lineCap                    svgscene.CapMode
		dash                       []float64
		dashOffset                 float64
		currentColor               color.NRGBA
		hidden                     bool

		// the following fields are not inherited

		transform svgscene.Matrix2D // local transform
		opacity   float64           // group opacity
		id        string
	}

	// iconCursor is used while parsing SVG files
	iconCursor struct {
		pathCursor
		opts ParseOptions

		info       *svgscene.SceneInfo
		viewBox    svgscene.Rect // reference for percentages
		styleStack []pathStyle
		nodeStack  []svgscene.NodeID // current group

		grad  *svgscene.Gradient
		grads map[string]*svgscene.Gradient
		hrefs map[*svgscene.Gradient]string // gradients inheriting their stops

		defs       map[string][]definition
		currentDef []definition

		seenRoot, inGrad, inDefs, replaying bool
		useDepth                            int
		skipDepth                           int // > 0 inside an unsupported container
	}

	// definition is used to store what's given in a def tag
	definition struct {
		ID, Tag string
		Attrs   []xml.Attr
	}
)

// defaultStyle fills black with the non zero winding rule,
// full opacity, no stroke, ButtCap line end and Miter line connect.
var defaultStyle = pathStyle{
	fill:          svgscene.DefaultProperties.Fill,
	fillOpacity:   1,
	strokeOpacity: 1,
	fillRule:      svgscene.NonZero,
	strokeWidth:   svgscene.DefaultStroke.Width,
	miterLimit:    svgscene.DefaultStroke.MiterLimit,
	join:          svgscene.DefaultStroke.Join,
	lineCap:       svgscene.DefaultStroke.Cap,
	currentColor:  color.NRGBA{A: 0xff},
	transform:     svgscene.Identity,
	opacity:       1,
}

func newIconCursor(opts ParseOptions) *iconCursor {
	return &iconCursor{
		opts:       opts,
		styleStack: []pathStyle{defaultStyle},
		grads:      make(map[string]*svgscene.Gradient),
		hrefs:      make(map[*svgscene.Gradient]string),
		defs:       make(map[string][]definition),
		viewBox:    svgscene.Rect{W: opts.DefaultWidth, H: opts.DefaultHeight},
	}
}

func (c *iconCursor) currentStyle() *pathStyle { return &c.styleStack[len(c.styleStack)-1] }

func (c *iconCursor) popStyle() { c.styleStack = c.styleStack[:len(c.styleStack)-1] }

// handleError reports an unsupported element, according to the error mode
func (c *iconCursor) handleError(element, errStr string) error {
	switch c.opts.ErrorMode {
	case StrictErrorMode:
		return &ParseError{Element: element, Err: errors.New(errStr)}
	case WarnErrorMode:
		c.opts.Logger.WithField("element", element).Warn(errStr)
	}
	return nil
}

func (c *iconCursor) readTransformAttr(m1 svgscene.Matrix2D, k string) (svgscene.Matrix2D, error) {
	ln := len(c.points)
	switch k {
	case "rotate":
		if ln == 1 {
			m1 = m1.Rotate(c.points[0] * math.Pi / 180)
		} else if ln == 3 {
			m1 = m1.Translate(c.points[1], c.points[2]).
				Rotate(c.points[0]*math.Pi/180).
				Translate(-c.points[1], -c.points[2])
		} else {
			return m1, errParamMismatch
		}
	case "translate":
		if ln == 1 {
			m1 = m1.Translate(c.points[0], 0)
		} else if ln == 2 {
			m1 = m1.Translate(c.points[0], c.points[1])
		} else {
			return m1, errParamMismatch
		}
	case "skewx":
		if ln == 1 {
			m1 = m1.SkewX(c.points[0] * math.Pi / 180)
		} else {
			return m1, errParamMismatch
		}
	case "skewy":
		if ln == 1 {
			m1 = m1.SkewY(c.points[0] * math.Pi / 180)
		} else {
			return m1, errParamMismatch
		}
	case "scale":
		if ln == 1 {
			m1 = m1.Scale(c.points[0], c.points[0])
		} else if ln == 2 {
			m1 = m1.Scale(c.points[0], c.points[1])
		} else {
			return m1, errParamMismatch
		}
	case "matrix":
		if ln == 6 {
			m1 = m1.Mult(svgscene.Matrix2D{
				A: c.points[0],
				B: c.points[1],
				C: c.points[2],
				D: c.points[3],
				E: c.points[4],
				F: c.points[5]})
		} else {
			return m1, errParamMismatch
		}
	default:
		return m1, errParamMismatch
	}
	return m1, nil
}

// parseTransform returns the matrix described by `v`, starting from the identity
func (c *iconCursor) parseTransform(v string) (svgscene.Matrix2D, error) {
	ts := strings.Split(v, ")")
	m1 := svgscene.Identity
	for _, t := range ts {
		t = strings.TrimSpace(t)
		if len(t) == 0 {
			continue
		}
		d := strings.Split(t, "(")
		if len(d) != 2 || len(d[1]) < 1 {
			return m1, errParamMismatch // badly formed transformation
		}
		err := c.getPoints(d[1])
		if err != nil {
			return m1, err
		}
		m1, err = c.readTransformAttr(m1, strings.ToLower(strings.Trim(strings.TrimSpace(d[0]), ",")))
		if err != nil {
			return m1, err
		}
	}
	return m1, nil
}

func parseCap(v string) (svgscene.CapMode, bool) {
	switch v {
	case "butt":
		return svgscene.ButtCap, true
	case "round":
		return svgscene.RoundCap, true
	case "square":
		return svgscene.SquareCap, true
	}
	return 0, false
}

func (c *iconCursor) readStyleAttr(curStyle *pathStyle, k, v string) error {
	if v == "inherit" {
		return nil
	}
	switch k {
	case "fill":
		gradient, ok := c.readGradURL(v)
		if ok {
			curStyle.fill = gradient
			break
		}
		optCol, err := parseSVGColor(v, curStyle.currentColor)
		if err != nil {
			return err
		}
		curStyle.fill = optCol.asPattern()
	case "stroke":
		gradient, ok := c.readGradURL(v)
		if ok {
			curStyle.stroke = gradient
			break
		}
		optCol, err := parseSVGColor(v, curStyle.currentColor)
		if err != nil {
			return err
		}
		curStyle.stroke = optCol.asPattern()
	case "color":
		optCol, err := parseSVGColor(v, curStyle.currentColor)
		if err != nil {
			return err
		}
		if optCol.valid {
			curStyle.currentColor = optCol.color
		}
	case "fill-rule":
		switch v {
		case "evenodd":
			curStyle.fillRule = svgscene.EvenOdd
		case "nonzero":
			curStyle.fillRule = svgscene.NonZero
		}
	case "stroke-linecap":
		if cp, ok := parseCap(v); ok {
			curStyle.lineCap = cp
		}
	case "stroke-linejoin":
		switch v {
		case "miter":
			curStyle.join = svgscene.Miter
		case "miter-clip":
			curStyle.join = svgscene.MiterClip
		case "arc-clip":
			curStyle.join = svgscene.ArcClip
		case "round":
			curStyle.join = svgscene.Round
		case "arc":
			curStyle.join = svgscene.Arc
		case "bevel":
			curStyle.join = svgscene.Bevel
		}
	case "stroke-miterlimit":
		mLimit, err := parseBasicFloat(v)
		if err != nil {
			return err
		}
		curStyle.miterLimit = mLimit
	case "stroke-width":
		width, err := c.parseUnit(v, diagPercentage)
		if err != nil {
			return err
		}
		curStyle.strokeWidth = width
	case "stroke-dashoffset":
		dashOffset, err := c.parseUnit(v, diagPercentage)
		if err != nil {
			return err
		}
		curStyle.dashOffset = dashOffset
	case "stroke-dasharray":
		if v == "none" {
			curStyle.dash = nil
			break
		}
		dashes := splitOnCommaOrSpace(v)
		dList := make([]float64, len(dashes))
		for i, dstr := range dashes {
			d, err := c.parseUnit(strings.TrimSpace(dstr), diagPercentage)
			if err != nil {
				return err
			}
			dList[i] = d
		}
		curStyle.dash = dList
	case "opacity", "stroke-opacity", "fill-opacity":
		op, err := readFraction(v)
		if err != nil {
			return err
		}
		op = math.Max(0, math.Min(1, op))
		switch k {
		case "opacity":
			curStyle.opacity = op
		case "stroke-opacity":
			curStyle.strokeOpacity = op
		case "fill-opacity":
			curStyle.fillOpacity = op
		}
	case "display":
		if v == "none" {
			curStyle.hidden = true
		}
	case "visibility":
		curStyle.hidden = v == "hidden" || v == "collapse"
	case "transform":
		m, err := c.parseTransform(v)
		if err != nil {
			return err
		}
		curStyle.transform = m
	case "id":
		curStyle.id = v
	}
	return nil
}

// pushStyle parses the style element, and push it on the style stack.
// Note that this parses both the contents of a style attribute plus
// direct presentation attributes.
func (c *iconCursor) pushStyle(attrs []xml.Attr) error {
	var pairs []string
	for _, attr := range attrs {
		switch strings.ToLower(attr.Name.Local) {
		case "style":
			pairs = append(pairs, strings.Split(attr.Value, ";")...)
		default:
			pairs = append(pairs, attr.Name.Local+":"+attr.Value)
		}
	}
	// Make a copy of the top style, resetting the non inherited fields
	curStyle := *c.currentStyle()
	curStyle.transform = svgscene.Identity
	curStyle.opacity = 1
	curStyle.id = ""
	for _, pair := range pairs {
		kv := strings.SplitN(pair, ":", 2)
		if len(kv) == 2 {
			k := strings.ToLower(kv[0])
			k = strings.TrimSpace(k)
			v := strings.TrimSpace(kv[1])
			err := c.readStyleAttr(&curStyle, k, v)
			if err != nil {
				return err
			}
		}
	}
	c.styleStack = append(c.styleStack, curStyle) // Push style onto stack
	return nil
}

// splitOnCommaOrSpace returns a list of strings after splitting the input on comma and space delimiters
func splitOnCommaOrSpace(s string) []string {
	return strings.FieldsFunc(s,
		func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
		})
}

// containers whose content must not be drawn
var skippedContainers = map[string]bool{
	"clipPath": true,
	"mask":     true,
	"marker":   true,
	"pattern":  true,
	"symbol":   true,
	"filter":   true,
	"text":     true,
	"style":    true,
}

func (c *iconCursor) readStartElement(se xml.StartElement) (err error) {
	if c.skipDepth > 0 {
		c.skipDepth++
		return nil
	}
	if skippedContainers[se.Name.Local] && !c.inDefs {
		c.skipDepth = 1
		return c.handleError(se.Name.Local, "Cannot process svg element "+se.Name.Local)
	}
	var skipDef bool
	if se.Name.Local == "radialGradient" || se.Name.Local == "linearGradient" || c.inGrad {
		skipDef = true
	}
	if c.inDefs && !skipDef {
		ID := ""
		for _, attr := range se.Attr {
			if attr.Name.Local == "id" {
				ID = attr.Value
			}
		}
		if ID != "" && len(c.currentDef) > 0 {
			c.defs[c.currentDef[0].ID] = c.currentDef
			c.currentDef = make([]definition, 0)
		}
		c.currentDef = append(c.currentDef, definition{
			ID:    ID,
			Tag:   se.Name.Local,
			Attrs: se.Attr,
		})
		return nil
	}
	return c.drawElement(se.Name.Local, se.Attr)
}

// drawElement runs the element function, and stores the path it may have built.
// The style of the element must be on top of the stack.
func (c *iconCursor) drawElement(tag string, attrs []xml.Attr) error {
	df, ok := drawFuncs[tag]
	if !ok {
		return c.handleError(tag, "Cannot process svg element "+tag)
	}
	c.path.Clear()
	if err := df(c, attrs); err != nil {
		return err
	}
	if len(c.path) > 0 {
		//The cursor parsed a path from the xml element
		c.addShape()
		c.path.Clear()
	}
	return nil
}

func (c *iconCursor) readEndElement(se xml.EndElement) {
	// pop style
	c.popStyle()
	if c.skipDepth > 0 {
		c.skipDepth--
		return
	}
	switch se.Name.Local {
	case "g":
		if c.inDefs {
			c.currentDef = append(c.currentDef, definition{
				Tag: "endg",
			})
		} else {
			c.popNode()
		}
	case "svg":
		c.popNode()
	case "defs":
		if len(c.currentDef) > 0 {
			c.defs[c.currentDef[0].ID] = c.currentDef
			c.currentDef = make([]definition, 0)
		}
		c.inDefs = false
	case "radialGradient", "linearGradient":
		c.inGrad = false
	}
}

// pushNode adds a child to the current group, using the style
// on top of the stack, and makes it the current group.
func (c *iconCursor) pushNode() svgscene.NodeID {
	id := c.newNode()
	c.nodeStack = append(c.nodeStack, id)
	return id
}

func (c *iconCursor) popNode() {
	if len(c.nodeStack) > 0 {
		c.nodeStack = c.nodeStack[:len(c.nodeStack)-1]
	}
}

func (c *iconCursor) newNode() svgscene.NodeID {
	style := c.currentStyle()
	scene := c.info.Scene
	id := scene.AddChild(c.nodeStack[len(c.nodeStack)-1])
	scene.Node(id).Transform = style.transform
	if style.opacity != 1 {
		c.info.Opacities[id] = style.opacity
	}
	if style.id != "" && !c.replaying {
		c.info.IDs[style.id] = id
	}
	return id
}

// addShape stores the current path in a new node
func (c *iconCursor) addShape() {
	style := c.currentStyle()
	id := c.newNode()
	if style.hidden {
		return
	}
	props := svgscene.PathProperties{
		Fill:        style.fill,
		FillOpacity: style.fillOpacity,
		FillRule:    style.fillRule,
	}
	if style.stroke != nil && style.strokeWidth > 0 {
		props.Stroke = &svgscene.Stroke{
			Color:      style.stroke,
			Opacity:    style.strokeOpacity,
			Width:      style.strokeWidth,
			MiterLimit: style.miterLimit,
			Join:       style.join,
			Cap:        style.lineCap,
			Dash:       style.dash,
			DashOffset: style.dashOffset,
		}
	}
	pathCopy := append(svgscene.Path(nil), c.path...)
	c.info.Scene.AddShape(id, svgscene.Shape{Path: pathCopy, Props: props})
}

// readGradURL returns the gradient referenced by `v`, of the form url(#id)
func (c *iconCursor) readGradURL(v string) (*svgscene.Gradient, bool) {
	if !strings.HasPrefix(v, "url(") {
		return nil, false
	}
	end := strings.Index(v, ")")
	if end < 0 {
		return nil, false
	}
	urlStr := strings.TrimSpace(v[4:end])
	urlStr = strings.Trim(urlStr, `'"`)
	if !strings.HasPrefix(urlStr, "#") {
		return nil, false
	}
	grad, ok := c.grads[urlStr[1:]]
	if !ok {
		return nil, false
	}
	c.resolveHref(grad, 0)
	return grad, true
}

// resolveHref copies the stops of the referenced gradient,
// following a bounded chain of references
func (c *iconCursor) resolveHref(grad *svgscene.Gradient, depth int) {
	href, ok := c.hrefs[grad]
	if !ok || len(grad.Stops) > 0 || depth > 8 {
		return
	}
	parent, ok := c.grads[strings.TrimPrefix(href, "#")]
	if !ok || parent == grad {
		return
	}
	c.resolveHref(parent, depth+1)
	grad.Stops = parent.Stops
}

// readGradAttr reads the attributes shared by linear and radial gradients
func (c *iconCursor) readGradAttr(attr xml.Attr) (err error) {
	switch attr.Name.Local {
	case "gradientTransform":
		c.grad.Matrix, err = c.parseTransform(attr.Value)
	case "gradientUnits":
		switch strings.TrimSpace(attr.Value) {
		case "userSpaceOnUse":
			c.grad.Units = svgscene.UserSpaceOnUse
		case "objectBoundingBox":
			c.grad.Units = svgscene.ObjectBoundingBox
		}
	case "spreadMethod":
		switch strings.TrimSpace(attr.Value) {
		case "pad":
			c.grad.Spread = svgscene.PadSpread
		case "reflect":
			c.grad.Spread = svgscene.ReflectSpread
		case "repeat":
			c.grad.Spread = svgscene.RepeatSpread
		}
	case "href":
		c.hrefs[c.grad] = strings.TrimSpace(attr.Value)
	}
	return
}

// readFraction reads a number, possibly given as a percentage
func readFraction(v string) (f float64, err error) {
	v = strings.TrimSpace(v)
	d := 1.0
	if strings.HasSuffix(v, "%") {
		d = 100
		v = strings.TrimSuffix(v, "%")
	}
	f, err = parseBasicFloat(v)
	f /= d
	return
}
