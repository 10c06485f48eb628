// Provides parsing of SVG images into a scene graph.
// SVG files are parsed into an abstract representation,
// a tree of nodes holding paths and their painting properties,
// which can then be consumed by the tessellator.
// See svgscene for the model, and svgmesh for the complete pipeline.
package svgicon

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/benoitkugler/svgmesh/svgscene"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/html/charset"
)

// ErrorMode is the for setting how the parser
// reacts to unparsed elements
type ErrorMode uint8

const (
	// IgnoreErrorMode skips unparsed SVG elements
	IgnoreErrorMode ErrorMode = iota

	// WarnErrorMode outputs a warning for each unparsed element
	WarnErrorMode

	// StrictErrorMode causes an error when an unparsed SVG element is found
	StrictErrorMode
)

// ViewportOptions selects how the output rectangle is chosen.
type ViewportOptions uint8

const (
	// DontPreserve ignores the document viewBox and uses
	// the default size as viewport.
	DontPreserve ViewportOptions = iota
	// PreserveViewport uses the declared viewBox, or the width and height
	// attributes when no viewBox is given.
	PreserveViewport
)

func (v ViewportOptions) String() string {
	switch v {
	case DontPreserve:
		return "DontPreserve"
	case PreserveViewport:
		return "PreserveViewport"
	default:
		return "<unknown ViewportOptions>"
	}
}

var (
	// ErrInvalidSVG is wrapped by every parsing error.
	ErrInvalidSVG = errors.New("invalid svg document")

	errParamMismatch = errors.New("param mismatch")
	errZeroLengthID  = errors.New("zero length id")
	errNoRootElement = errors.New("missing root svg element")
)

// ParseError describes a failure while reading an SVG element.
// It matches ErrInvalidSVG with errors.Is.
type ParseError struct {
	Element string // may be empty for document level errors
	Err     error
}

func (e *ParseError) Error() string {
	if e.Element == "" {
		return fmt.Sprintf("svg: %s", e.Err)
	}
	return fmt.Sprintf("svg: element <%s>: %s", e.Element, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool { return target == ErrInvalidSVG }

// ParseOptions configures the parser. The zero value is usable.
type ParseOptions struct {
	Viewport ViewportOptions

	// PixelsPerUnit scales document units (pixels) to scene units.
	// Zero means 1.
	PixelsPerUnit float64

	// DefaultWidth and DefaultHeight are used when the document
	// does not declare its size. Zero means 100.
	DefaultWidth, DefaultHeight float64

	ErrorMode ErrorMode

	// Logger receives warnings in WarnErrorMode.
	// If nil, the logrus standard logger is used.
	Logger logrus.FieldLogger
}

func (opts *ParseOptions) setDefaults() error {
	if opts.PixelsPerUnit < 0 || opts.DefaultWidth < 0 || opts.DefaultHeight < 0 {
		return fmt.Errorf("invalid parse options: negative size or scale")
	}
	if opts.PixelsPerUnit == 0 {
		opts.PixelsPerUnit = 1
	}
	if opts.DefaultWidth == 0 {
		opts.DefaultWidth = 100
	}
	if opts.DefaultHeight == 0 {
		opts.DefaultHeight = 100
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	return nil
}

// Parse reads the SVG document from the given io.Reader.
// This only supports a sub-set of SVG, but
// is enough to draw many icons. The error mode determines if the parser
// ignores, errors out, or logs a warning if it does not handle an element
// found in the document.
// No partial scene is returned on error.
func Parse(stream io.Reader, opts ParseOptions) (*svgscene.SceneInfo, error) {
	if err := opts.setDefaults(); err != nil {
		return nil, err
	}
	cursor := newIconCursor(opts)
	decoder := xml.NewDecoder(stream)
	decoder.CharsetReader = charset.NewReaderLabel
	for {
		t, err := decoder.Token()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, &ParseError{Err: err}
		}
		// Inspect the type of the XML token
		switch se := t.(type) {
		case xml.StartElement:
			if !cursor.seenRoot && se.Name.Local != "svg" {
				return nil, &ParseError{Element: se.Name.Local, Err: errNoRootElement}
			}
			// Reads all recognized style attributes from the start element
			// and places it on top of the styleStack
			if err = cursor.pushStyle(se.Attr); err != nil {
				return nil, &ParseError{Element: se.Name.Local, Err: err}
			}
			if err = cursor.readStartElement(se); err != nil {
				return nil, wrapElementError(se.Name.Local, err)
			}
		case xml.EndElement:
			cursor.readEndElement(se)
		}
	}
	if !cursor.seenRoot {
		return nil, &ParseError{Err: errNoRootElement}
	}
	return cursor.info, nil
}

func wrapElementError(element string, err error) error {
	var perr *ParseError
	if errors.As(err, &perr) {
		return err
	}
	return &ParseError{Element: element, Err: err}
}

// ParseString is a convenience wrapper around Parse.
func ParseString(svg string, opts ParseOptions) (*svgscene.SceneInfo, error) {
	return Parse(strings.NewReader(svg), opts)
}

// ParseFile reads the SVG document from the named file.
func ParseFile(filename string, opts ParseOptions) (*svgscene.SceneInfo, error) {
	fin, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer fin.Close()
	return Parse(fin, opts)
}
