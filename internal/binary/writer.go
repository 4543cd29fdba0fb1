package binary

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"sort"

	"github.com/dyuri/cave3d/internal/model"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// Writer handles writing surveys to binary .3d format
type Writer struct {
	w       io.Writer
	endian  binary.ByteOrder
	charset encoding.Encoding // Label encoding, nil for UTF-8

	buf   *bytes.Buffer
	label []byte // Label state mirrored from the decoder's point of view
}

// NewWriter creates a new binary .3d writer. Labels are encoded as
// Latin-1 unless charset is set with SetCharset.
func NewWriter(w io.Writer) *Writer {
	return &Writer{
		w:       w,
		endian:  binary.LittleEndian,
		charset: charmap.ISO8859_1,
		buf:     &bytes.Buffer{},
	}
}

// SetCharset sets the label encoding. nil means UTF-8.
func (w *Writer) SetCharset(enc encoding.Encoding) {
	w.charset = enc
}

// Write writes a complete survey.
//
// Records are emitted in three groups: legs (a move per run, then one
// label-less line per segment), stations, and cross-section tubes.
// Decoding the output yields the same stations, runs and tubes.
func (w *Writer) Write(s *model.Survey) error {
	w.buf.Reset()
	w.label = w.label[:0]

	// Write header
	h := s.Header
	for _, line := range []string{h.Title, h.Version, h.Metadata, h.Timestamp} {
		if bytes.IndexByte([]byte(line), '\n') >= 0 {
			return fmt.Errorf("header string %q contains a line feed", line)
		}
		w.buf.WriteString(line)
		w.buf.WriteByte('\n')
	}

	if s.Style != model.StyleUnset {
		w.buf.WriteByte(byte(opStyleNormal) + byte(s.Style-model.StyleNormal))
	}

	// Write legs
	for _, key := range legKeys(s) {
		for i, run := range s.Legs[key] {
			if len(run) < 2 {
				return fmt.Errorf("leg %s run %d: need at least 2 points, have %d", key, i, len(run))
			}
			w.writeMove(run[0])
			for _, p := range run[1:] {
				w.buf.WriteByte(lineOpcode(key, true))
				w.writePoint(p)
			}
		}
	}

	// Write stations
	if s.Stations != nil {
		for _, st := range s.Stations.All() {
			if err := w.writeStation(st); err != nil {
				return fmt.Errorf("station %q: %w", st.Label, err)
			}
		}
	}

	// Write cross sections
	for ti, tube := range s.Tubes {
		if err := w.writeTube(tube); err != nil {
			return fmt.Errorf("tube %d: %w", ti, err)
		}
	}

	if _, err := w.buf.WriteTo(w.w); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

// legKeys returns the leg keys in first-seen order, falling back to a
// fixed order for surveys built by hand
func legKeys(s *model.Survey) []model.LegKey {
	if len(s.LegOrder) == len(s.Legs) {
		return s.LegOrder
	}
	keys := make([]model.LegKey, 0, len(s.Legs))
	for k := range s.Legs {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return lineOpcode(keys[i], false) < lineOpcode(keys[j], false)
	})
	return keys
}

func (w *Writer) writeMove(p model.Point3) {
	w.buf.WriteByte(opMove)
	w.writePoint(p)
}

func (w *Writer) writePoint(p model.Point3) {
	var b [12]byte
	w.endian.PutUint32(b[0:], uint32(p.X))
	w.endian.PutUint32(b[4:], uint32(p.Y))
	w.endian.PutUint32(b[8:], uint32(p.Z))
	w.buf.Write(b[:])
}

func (w *Writer) writeStation(st model.Station) error {
	w.buf.WriteByte(opLabel | byte(st.Flags&0x7f))
	if err := w.writeLabelEdit(st.Label); err != nil {
		return err
	}
	w.writePoint(st.Pos)
	return nil
}

func (w *Writer) writeTube(tube model.Tube) error {
	for i, ring := range tube {
		op := byte(opXSect16)
		if ring.Left > 0xffff || ring.Right > 0xffff || ring.Up > 0xffff || ring.Down > 0xffff {
			op = opXSect32
		}
		if i == len(tube)-1 {
			op |= xsectLastFlag
		}

		w.buf.WriteByte(op)
		if err := w.writeLabelEdit(ring.Label); err != nil {
			return fmt.Errorf("ring %q: %w", ring.Label, err)
		}
		for _, v := range []uint32{ring.Left, ring.Right, ring.Up, ring.Down} {
			if op&xsectWide != 0 {
				var b [4]byte
				w.endian.PutUint32(b[:], v)
				w.buf.Write(b[:])
			} else {
				var b [2]byte
				w.endian.PutUint16(b[:], uint16(v))
				w.buf.Write(b[:])
			}
		}
	}
	return nil
}

// writeLabelEdit encodes label as an edit of the previous label
func (w *Writer) writeLabelEdit(label string) error {
	next := []byte(label)
	if w.charset != nil {
		enc, err := w.charset.NewEncoder().Bytes(next)
		if err != nil {
			return fmt.Errorf("encode label: %w", err)
		}
		next = enc
	}

	common := 0
	for common < len(w.label) && common < len(next) && w.label[common] == next[common] {
		common++
	}
	del := len(w.label) - common
	add := len(next) - common

	if del <= 0x0f && add <= 0x0f && (del|add) != 0 {
		w.buf.WriteByte(byte(del<<4 | add))
	} else {
		w.buf.WriteByte(0)
		w.writeCount(del)
		w.writeCount(add)
	}
	w.buf.Write(next[common:])

	w.label = append(w.label[:0], next...)
	return nil
}

func (w *Writer) writeCount(n int) {
	if n < 0xff {
		w.buf.WriteByte(byte(n))
		return
	}
	var b [4]byte
	w.endian.PutUint32(b[:], uint32(n))
	w.buf.WriteByte(0xff)
	w.buf.Write(b[:])
}
