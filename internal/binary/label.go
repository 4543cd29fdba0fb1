package binary

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// ErrLabelUnderflow is returned when a label edit deletes more bytes
// than the current label holds
var ErrLabelUnderflow = errors.New("label delete count exceeds label length")

// LabelCodec tracks the current label across records.
//
// Each label is transmitted as an edit of the previous one: a count of
// bytes to drop from the tail followed by the bytes to append. The codec
// is owned by a single decode and must not be shared.
type LabelCodec struct {
	buf     []byte
	decoder *encoding.Decoder // nil means bytes are already UTF-8
}

// NewLabelCodec creates a codec whose label bytes are decoded with enc.
// A nil enc passes bytes through unchanged.
func NewLabelCodec(enc encoding.Encoding) *LabelCodec {
	lc := &LabelCodec{}
	if enc != nil {
		lc.decoder = enc.NewDecoder()
	}
	return lc
}

// Apply reads one label edit from c and returns the resulting label
func (lc *LabelCodec) Apply(c *Cursor) (string, error) {
	b, err := c.ReadByte()
	if err != nil {
		return "", fmt.Errorf("read label edit: %w", err)
	}

	var del, add uint32
	if b != 0 {
		// Compact form: high nibble deletes, low nibble appends
		del = uint32(b>>4) & 0x0f
		add = uint32(b) & 0x0f
	} else {
		// Escaped form: each count is a byte, or 0xff then a uint32
		if del, err = readCount(c); err != nil {
			return "", fmt.Errorf("read label delete count: %w", err)
		}
		if add, err = readCount(c); err != nil {
			return "", fmt.Errorf("read label append count: %w", err)
		}
	}

	if uint64(del) > uint64(len(lc.buf)) {
		return "", fmt.Errorf("delete %d from %q: %w", del, lc.buf, ErrLabelUnderflow)
	}
	lc.buf = lc.buf[:len(lc.buf)-int(del)]

	if add > 0 {
		tail, err := c.ReadBytes(int(add))
		if err != nil {
			return "", fmt.Errorf("read label bytes: %w", err)
		}
		lc.buf = append(lc.buf, tail...)
	}

	return lc.Current(), nil
}

// readCount reads a single count of the escaped label edit form
func readCount(c *Cursor) (uint32, error) {
	b, err := c.ReadByte()
	if err != nil {
		return 0, err
	}
	if b != 0xff {
		return uint32(b), nil
	}
	return c.ReadU32()
}

// Current returns a snapshot of the current label
func (lc *LabelCodec) Current() string {
	if lc.decoder == nil {
		return string(lc.buf)
	}
	s, err := lc.decoder.String(string(lc.buf))
	if err != nil {
		// Single-byte charmaps cannot fail; keep the raw bytes otherwise
		return string(lc.buf)
	}
	return s
}

// Len returns the current label length in bytes
func (lc *LabelCodec) Len() int {
	return len(lc.buf)
}

// Reset clears the current label
func (lc *LabelCodec) Reset() {
	lc.buf = lc.buf[:0]
}

// Charset returns the encoding for a charset name used in
// configuration files. An empty name selects Latin-1, which is what
// survey software writes in practice.
func Charset(name string) (encoding.Encoding, error) {
	switch strings.ToLower(name) {
	case "", "latin1", "iso-8859-1", "iso8859-1":
		return charmap.ISO8859_1, nil
	case "windows1252", "cp1252", "windows-1252":
		return charmap.Windows1252, nil
	case "windows1250", "cp1250", "windows-1250":
		return charmap.Windows1250, nil
	case "utf8", "utf-8":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown charset: %s", name)
	}
}
