package binary

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/dyuri/cave3d/internal/model"
)

var (
	// ErrOutOfBounds is returned when a read would pass the end of the buffer
	ErrOutOfBounds = errors.New("read past end of buffer")

	// ErrUnterminatedString is returned when a header string has no LF
	ErrUnterminatedString = errors.New("unterminated string")
)

// Cursor is a forward-only read head over an in-memory buffer.
// .3d files are little-endian throughout.
type Cursor struct {
	buf []byte
	pos int
}

// NewCursor creates a cursor positioned at the start of buf
func NewCursor(buf []byte) *Cursor {
	return &Cursor{buf: buf}
}

// Offset returns the current read position
func (c *Cursor) Offset() int {
	return c.pos
}

// Len returns the total buffer length
func (c *Cursor) Len() int {
	return len(c.buf)
}

// HasRemaining reports whether unread bytes are left
func (c *Cursor) HasRemaining() bool {
	return c.pos < len(c.buf)
}

// need checks that n more bytes can be read
func (c *Cursor) need(n int) error {
	if n < 0 || len(c.buf)-c.pos < n {
		return fmt.Errorf("need %d bytes at offset 0x%x, have %d: %w", n, c.pos, len(c.buf)-c.pos, ErrOutOfBounds)
	}
	return nil
}

// ReadByte reads one byte
func (c *Cursor) ReadByte() (byte, error) {
	if err := c.need(1); err != nil {
		return 0, err
	}
	b := c.buf[c.pos]
	c.pos++
	return b, nil
}

// ReadU16 reads a little-endian uint16
func (c *Cursor) ReadU16() (uint16, error) {
	if err := c.need(2); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint16(c.buf[c.pos:])
	c.pos += 2
	return v, nil
}

// ReadU32 reads a little-endian uint32
func (c *Cursor) ReadU32() (uint32, error) {
	if err := c.need(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(c.buf[c.pos:])
	c.pos += 4
	return v, nil
}

// ReadI32 reads a little-endian two's complement int32
func (c *Cursor) ReadI32() (int32, error) {
	v, err := c.ReadU32()
	return int32(v), err
}

// ReadBytes reads n bytes. The returned slice aliases the buffer.
func (c *Cursor) ReadBytes(n int) ([]byte, error) {
	if err := c.need(n); err != nil {
		return nil, err
	}
	b := c.buf[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

// ReadLine reads bytes up to and including the next LF and returns
// the bytes before it
func (c *Cursor) ReadLine() (string, error) {
	for i := c.pos; i < len(c.buf); i++ {
		if c.buf[i] == '\n' {
			s := string(c.buf[c.pos:i])
			c.pos = i + 1
			return s, nil
		}
	}
	return "", fmt.Errorf("string at offset 0x%x: %w", c.pos, ErrUnterminatedString)
}

// Skip advances the cursor by n bytes without reading them
func (c *Cursor) Skip(n int) error {
	if err := c.need(n); err != nil {
		return err
	}
	c.pos += n
	return nil
}

// ReadPoint reads three int32 coordinates (x, y, z)
func (c *Cursor) ReadPoint() (model.Point3, error) {
	if err := c.need(12); err != nil {
		return model.Point3{}, err
	}
	var p model.Point3
	p.X, _ = c.ReadI32()
	p.Y, _ = c.ReadI32()
	p.Z, _ = c.ReadI32()
	return p, nil
}
