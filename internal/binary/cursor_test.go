package binary

import (
	"errors"
	"testing"
)

func TestCursorPrimitives(t *testing.T) {
	c := NewCursor([]byte{0x01, 0x34, 0x12, 0x78, 0x56, 0x34, 0x12, 0xff, 0xff, 0xff, 0xff})

	b, err := c.ReadByte()
	if err != nil || b != 0x01 {
		t.Fatalf("ReadByte = 0x%x, %v; want 0x01", b, err)
	}
	u16, err := c.ReadU16()
	if err != nil || u16 != 0x1234 {
		t.Fatalf("ReadU16 = 0x%x, %v; want 0x1234", u16, err)
	}
	u32, err := c.ReadU32()
	if err != nil || u32 != 0x12345678 {
		t.Fatalf("ReadU32 = 0x%x, %v; want 0x12345678", u32, err)
	}
	i32, err := c.ReadI32()
	if err != nil || i32 != -1 {
		t.Fatalf("ReadI32 = %d, %v; want -1", i32, err)
	}
	if c.HasRemaining() {
		t.Errorf("HasRemaining = true at offset %d of %d", c.Offset(), c.Len())
	}
}

func TestCursorOutOfBounds(t *testing.T) {
	tests := []struct {
		name string
		read func(c *Cursor) error
	}{
		{"byte", func(c *Cursor) error { _, err := c.ReadByte(); return err }},
		{"u16", func(c *Cursor) error { _, err := c.ReadU16(); return err }},
		{"u32", func(c *Cursor) error { _, err := c.ReadU32(); return err }},
		{"point", func(c *Cursor) error { _, err := c.ReadPoint(); return err }},
		{"skip", func(c *Cursor) error { return c.Skip(2) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCursor([]byte{0xaa})
			c.ReadByte()
			err := tt.read(c)
			if !errors.Is(err, ErrOutOfBounds) {
				t.Errorf("err = %v, want ErrOutOfBounds", err)
			}
			if c.Offset() != 1 {
				t.Errorf("Offset = %d after failed read, want 1", c.Offset())
			}
		})
	}
}

func TestCursorReadLine(t *testing.T) {
	c := NewCursor([]byte("Cave\n\nrest"))

	s, err := c.ReadLine()
	if err != nil || s != "Cave" {
		t.Fatalf("ReadLine = %q, %v; want %q", s, err, "Cave")
	}
	s, err = c.ReadLine()
	if err != nil || s != "" {
		t.Fatalf("ReadLine = %q, %v; want empty", s, err)
	}
	if _, err := c.ReadLine(); !errors.Is(err, ErrUnterminatedString) {
		t.Errorf("err = %v, want ErrUnterminatedString", err)
	}
}
