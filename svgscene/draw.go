package svgscene

// Drawer knows how to consume path commands
// but doesn't need any SVG knowledge.
// In particular, transformation matrices are already applied to the points
// before sending them to the Drawer.
type Drawer interface {
	// Start starts a new path at the given point.
	Start(a Point)

	// Line adds a line from the current point to `b`
	Line(b Point)

	// QuadBezier adds a quadratic bezier curve to the path
	QuadBezier(b, c Point)

	// CubeBezier adds a cubic bezier curve to the path
	CubeBezier(b, c, d Point)

	// Stop closes the path to the start point if `closeLoop` is true
	Stop(closeLoop bool)
}

// FillRule selects how the inside of a path is computed.
type FillRule uint8

const (
	NonZero FillRule = iota
	EvenOdd
)

func (f FillRule) String() string {
	switch f {
	case NonZero:
		return "NonZero"
	case EvenOdd:
		return "EvenOdd"
	default:
		return "<unknown FillRule>"
	}
}

// Inside applies the rule to a winding number.
func (f FillRule) Inside(winding int) bool {
	if f == EvenOdd {
		return winding%2 != 0
	}
	return winding != 0
}

// JoinMode type to specify how segments join.
type JoinMode uint8

// JoinMode constants determine how stroke segments bridge the gap at a join
// ArcClip mode is like MiterClip applied to arcs, and is not part of the SVG2.0
// standard.
const (
	Arc JoinMode = iota // New in SVG2
	Round
	Bevel
	Miter
	MiterClip // New in SVG2
	ArcClip   // Like MiterClip applied to arcs, and is not part of the SVG2.0 standard.
)

func (s JoinMode) String() string {
	switch s {
	case Round:
		return "Round"
	case Bevel:
		return "Bevel"
	case Miter:
		return "Miter"
	case MiterClip:
		return "MiterClip"
	case Arc:
		return "Arc"
	case ArcClip:
		return "ArcClip"
	default:
		return "<unknown JoinMode>"
	}
}

// CapMode defines how to draw caps on the ends of lines
type CapMode uint8

const (
	NilCap CapMode = iota // default value
	ButtCap
	SquareCap
	RoundCap
)

func (c CapMode) String() string {
	switch c {
	case NilCap:
		return "NilCap"
	case ButtCap:
		return "ButtCap"
	case SquareCap:
		return "SquareCap"
	case RoundCap:
		return "RoundCap"
	default:
		return "<unknown CapMode>"
	}
}

// Stroke holds the stroking parameters of a shape.
type Stroke struct {
	Color      Pattern // either PlainColor or *Gradient
	Opacity    float64
	Width      float64
	MiterLimit float64
	Join       JoinMode
	Cap        CapMode

	Dash       []float64 // nil or empty for a solid line
	DashOffset float64
}

// PathProperties holds the painting state of a shape.
// A nil Fill disables filling, a nil Stroke disables stroking.
type PathProperties struct {
	Fill        Pattern // either PlainColor or *Gradient
	FillOpacity float64
	FillRule    FillRule
	Stroke      *Stroke
}

// DefaultProperties fills black with the non zero rule,
// full opacity and no stroke.
var DefaultProperties = PathProperties{
	Fill:        NewPlainColor(0x00, 0x00, 0x00, 0xff),
	FillOpacity: 1,
	FillRule:    NonZero,
}

// DefaultStroke is used when a stroke color is given without
// other stroke attributes.
var DefaultStroke = Stroke{
	Opacity:    1,
	Width:      1,
	MiterLimit: 4,
	Join:       Miter,
	Cap:        ButtCap,
}
