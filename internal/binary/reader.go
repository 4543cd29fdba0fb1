package binary

import (
	"errors"
	"fmt"
	"io"

	"github.com/dyuri/cave3d/internal/legs"
	"github.com/dyuri/cave3d/internal/model"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// ErrNoPenPosition is returned for a line record that is not preceded
// by a move
var ErrNoPenPosition = errors.New("line without prior move")

// DecodeError reports a fatal error together with the record it occurred in
type DecodeError struct {
	Offset int  // Offset of the opcode byte
	Opcode byte // Opcode being decoded
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("record 0x%02x at offset 0x%x: %v", e.Opcode, e.Offset, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Reader handles parsing of binary .3d files
type Reader struct {
	data    []byte
	charset encoding.Encoding // Label encoding, nil for UTF-8
	log     logrus.FieldLogger
}

// Option configures a Reader
type Option func(*Reader)

// WithLogger sets the logger used for diagnostics
func WithLogger(l logrus.FieldLogger) Option {
	return func(r *Reader) {
		r.log = l
	}
}

// WithCharset sets the encoding of label bytes. nil means UTF-8.
func WithCharset(enc encoding.Encoding) Option {
	return func(r *Reader) {
		r.charset = enc
	}
}

// NewReader creates a reader over a fully loaded buffer
func NewReader(data []byte, opts ...Option) *Reader {
	r := &Reader{
		data:    data,
		charset: charmap.ISO8859_1,
		log:     discardLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// decodeState is threaded through the record loop
type decodeState struct {
	style  model.Style
	pen    *model.Point3 // nil until the first move
	tube   int           // Index of the tube receiving rings
	labels *LabelCodec
}

// Parse reads the entire .3d buffer and returns the decoded survey
func (r *Reader) Parse() (*model.Survey, error) {
	survey := model.NewSurvey()
	c := NewCursor(r.data)

	// Read header
	header, err := ReadHeader(c)
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	survey.Header = header

	st := &decodeState{labels: NewLabelCodec(r.charset)}
	acc := legs.New()

	for c.HasRemaining() {
		offset := c.Offset()
		rec, err := DecodeRecord(c, st.labels)
		if err != nil {
			op := r.data[offset]
			return nil, &DecodeError{Offset: offset, Opcode: op, Err: err}
		}

		if err := r.apply(survey, st, acc, rec, offset); err != nil {
			return nil, &DecodeError{Offset: offset, Opcode: rec.Opcode(), Err: err}
		}
	}

	survey.Style = st.style
	survey.Legs = acc.Legs()
	survey.LegOrder = acc.Keys()

	r.log.WithFields(logrus.Fields{
		"stations":    survey.Stations.Len(),
		"legs":        survey.LegCount(),
		"tubes":       len(survey.Tubes),
		"diagnostics": len(survey.Diagnostics),
	}).Debug("decoded survey")

	return survey, nil
}

// apply folds one record into the survey
func (r *Reader) apply(s *model.Survey, st *decodeState, acc *legs.Accumulator, rec Record, offset int) error {
	switch rec := rec.(type) {
	case StyleRecord:
		st.style = rec.Style

	case MoveRecord:
		pos := rec.Pos
		st.pen = &pos

	case LineRecord:
		if st.pen == nil {
			return ErrNoPenPosition
		}
		acc.Add(rec.Key, *st.pen, rec.Pos)
		pos := rec.Pos
		st.pen = &pos

	case LabelRecord:
		s.Stations.Set(rec.Station)

	case CrossSectionRecord:
		for len(s.Tubes) <= st.tube {
			s.Tubes = append(s.Tubes, nil)
		}
		s.Tubes[st.tube] = append(s.Tubes[st.tube], rec.Ring)
		if rec.Last {
			st.tube++
		}

	case DateRecord, ErrorRecord:
		// Payload already skipped

	case ReservedRecord:
		r.diagnose(s, model.Diagnostic{
			Offset:  offset,
			Opcode:  rec.Opcode(),
			Kind:    model.DiagReserved,
			Message: "reserved opcode ignored",
		})

	case UnhandledRecord:
		r.diagnose(s, model.Diagnostic{
			Offset:  offset,
			Opcode:  rec.Opcode(),
			Kind:    model.DiagUnhandled,
			Message: "unhandled opcode ignored",
		})
	}
	return nil
}

func (r *Reader) diagnose(s *model.Survey, d model.Diagnostic) {
	s.Diagnostics = append(s.Diagnostics, d)
	r.log.WithFields(logrus.Fields{
		"offset": d.Offset,
		"opcode": fmt.Sprintf("0x%02x", d.Opcode),
	}).Debug(d.Message)
}

// ReadHeader reads the four header strings: title, version, metadata
// and timestamp
func ReadHeader(c *Cursor) (model.Header, error) {
	var h model.Header
	fields := []struct {
		name string
		dst  *string
	}{
		{"title", &h.Title},
		{"version", &h.Version},
		{"metadata", &h.Metadata},
		{"timestamp", &h.Timestamp},
	}
	for _, f := range fields {
		s, err := c.ReadLine()
		if err != nil {
			return model.Header{}, fmt.Errorf("read %s: %w", f.name, err)
		}
		*f.dst = s
	}
	return h, nil
}
