// Package cave3d provides functions for working with Survex .3d files.
//
// This package can be used as a library to decode surveys, build
// renderable geometry and convert between the binary and text formats.
//
// Example usage:
//
//	data, _ := os.ReadFile("cave.3d")
//
//	bundle, err := cave3d.Decode(data)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	out, _ := os.Create("cave.json")
//	defer out.Close()
//	cave3d.WriteJSON(out, bundle)
package cave3d

import (
	"errors"
	"fmt"
	"io"

	"github.com/dyuri/cave3d/internal/binary"
	"github.com/dyuri/cave3d/internal/export"
	"github.com/dyuri/cave3d/internal/geometry"
	"github.com/dyuri/cave3d/internal/model"
	"github.com/dyuri/cave3d/internal/text"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/encoding"
)

// Re-exported model types
type (
	Survey         = model.Survey
	GeometryBundle = model.GeometryBundle
	Options        = geometry.Options
)

// DefaultOptions returns the default geometry options
func DefaultOptions() Options {
	return geometry.DefaultOptions()
}

// Decode parses a complete .3d buffer and builds its geometry bundle
// with default options. It keeps no state between calls and is safe for
// concurrent use.
func Decode(data []byte) (*GeometryBundle, error) {
	s, err := ParseBytes(data)
	if err != nil {
		return nil, err
	}
	return BuildGeometry(s, DefaultOptions())
}

// ParseOption configures decoding
type ParseOption = binary.Option

// WithCharset sets the encoding of station labels. nil means UTF-8;
// the default is Latin-1.
func WithCharset(enc encoding.Encoding) ParseOption {
	return binary.WithCharset(enc)
}

// WithLogger sets the logger receiving decode diagnostics
func WithLogger(l logrus.FieldLogger) ParseOption {
	return binary.WithLogger(l)
}

// ParseBytes decodes a .3d buffer into a survey
func ParseBytes(data []byte, opts ...ParseOption) (*Survey, error) {
	s, err := binary.NewReader(data, opts...).Parse()
	if err != nil {
		return nil, classify(err)
	}
	return s, nil
}

// ParseBinary3D reads a binary .3d file and returns the survey.
//
// The size parameter should be the total file size in bytes; the whole
// file is read into memory before decoding.
//
// Example:
//
//	f, _ := os.Open("cave.3d")
//	defer f.Close()
//	stat, _ := f.Stat()
//	s, err := ParseBinary3D(f, stat.Size())
func ParseBinary3D(r io.ReaderAt, size int64, opts ...ParseOption) (*Survey, error) {
	if size < 0 {
		return nil, &Error{Code: "invalid_format", Message: "negative file size"}
	}
	data := make([]byte, size)
	if _, err := r.ReadAt(data, 0); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return ParseBytes(data, opts...)
}

// BuildGeometry normalizes and colours a decoded survey
func BuildGeometry(s *Survey, opts Options) (*GeometryBundle, error) {
	return geometry.Build(s, opts)
}

// WriteJSON writes the geometry bundle as indented JSON.
//
// Example:
//
//	out, _ := os.Create("cave.json")
//	defer out.Close()
//	err := WriteJSON(out, bundle)
func WriteJSON(w io.Writer, b *GeometryBundle) error {
	return export.WriteJSON(w, b, true)
}

// Export writes the bundle in the named format: "json" or "cbor"
func Export(w io.Writer, b *GeometryBundle, format string) error {
	switch format {
	case "json":
		return WriteJSON(w, b)
	case "cbor":
		return export.WriteCBOR(w, b)
	default:
		return &Error{
			Code:    ErrNotImplemented.Code,
			Message: fmt.Sprintf("export format %q not implemented", format),
		}
	}
}

// WriteText writes a survey in the plain-text listing format.
//
// The listing can be edited with a text editor and converted back with
// ParseText and WriteBinary.
func WriteText(w io.Writer, s *Survey) error {
	writer := text.NewWriter(w)
	return writer.Write(s)
}

// ParseText reads a listing with [_header], [_station], [_leg] and
// [_tube] sections.
//
// Example:
//
//	f, _ := os.Open("cave.txt")
//	defer f.Close()
//	s, err := ParseText(f)
func ParseText(r io.Reader) (*Survey, error) {
	reader := text.NewReader(r)
	return reader.Read()
}

// WriteBinary writes a survey in binary .3d format
func WriteBinary(w io.Writer, s *Survey) error {
	writer := binary.NewWriter(w)
	return writer.Write(s)
}

// Issue represents a problem found by Validate
type Issue struct {
	Field   string // Location, e.g. "tube 3" or "offset 0x1c"
	Message string // Problem description
	Level   string // "error" or "warning"
}

// Validate checks a decoded survey and its bundle for problems that do
// not stop decoding: reserved opcodes, unresolved cross-section stations,
// short tubes and degenerate extents.
//
// Returns a list of issues. An empty list means the survey is clean.
func Validate(s *Survey, b *GeometryBundle) []Issue {
	var issues []Issue

	// A bundle carries the decode diagnostics along with its own
	diags := s.Diagnostics
	if b != nil {
		diags = b.Diagnostics
	}
	for _, d := range diags {
		is := Issue{Field: "geometry", Message: d.String(), Level: "warning"}
		if d.Offset >= 0 {
			is.Field = fmt.Sprintf("offset 0x%x", d.Offset)
		}
		if d.Kind == model.DiagUnresolved {
			is.Level = "error"
		}
		issues = append(issues, is)
	}

	for i, tube := range s.Tubes {
		if len(tube) < 2 {
			issues = append(issues, Issue{
				Field:   fmt.Sprintf("tube %d", i),
				Message: fmt.Sprintf("tube has %d ring(s), need 2 to build a passage", len(tube)),
				Level:   "warning",
			})
		}
	}

	if s.Stations.Len() == 0 && s.LegCount() == 0 {
		issues = append(issues, Issue{
			Field:   "survey",
			Message: "no stations or legs",
			Level:   "warning",
		})
	}

	return issues
}

// Common errors
var (
	ErrNotImplemented = &Error{Code: "not_implemented", Message: "feature not yet implemented"}
	ErrInvalidFormat  = &Error{Code: "invalid_format", Message: "invalid file format"}
	ErrInvalidHeader  = &Error{Code: "invalid_header", Message: "invalid 3d header"}
)

// Error represents a cave3d error
type Error struct {
	Code    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches errors with the same code, so errors.Is(err, ErrInvalidHeader)
// holds for any header failure
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// classify wraps decoder errors in an *Error carrying a code
func classify(err error) error {
	var derr *binary.DecodeError
	if errors.As(err, &derr) {
		return &Error{Code: ErrInvalidFormat.Code, Message: ErrInvalidFormat.Message, Cause: err}
	}
	return &Error{Code: ErrInvalidHeader.Code, Message: ErrInvalidHeader.Message, Cause: err}
}
