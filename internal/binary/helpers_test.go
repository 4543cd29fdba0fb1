package binary

import (
	"bytes"
	"encoding/binary"
)

// fileBuilder assembles synthetic .3d buffers for tests
type fileBuilder struct {
	buf bytes.Buffer
}

func newFile(title, version, metadata, timestamp string) *fileBuilder {
	b := &fileBuilder{}
	for _, s := range []string{title, version, metadata, timestamp} {
		b.buf.WriteString(s)
		b.buf.WriteByte('\n')
	}
	return b
}

func (b *fileBuilder) raw(bs ...byte) *fileBuilder {
	b.buf.Write(bs)
	return b
}

func (b *fileBuilder) str(s string) *fileBuilder {
	b.buf.WriteString(s)
	return b
}

func (b *fileBuilder) i32(vs ...int32) *fileBuilder {
	for _, v := range vs {
		var tmp [4]byte
		binary.LittleEndian.PutUint32(tmp[:], uint32(v))
		b.buf.Write(tmp[:])
	}
	return b
}

func (b *fileBuilder) u16(vs ...uint16) *fileBuilder {
	for _, v := range vs {
		var tmp [2]byte
		binary.LittleEndian.PutUint16(tmp[:], v)
		b.buf.Write(tmp[:])
	}
	return b
}

func (b *fileBuilder) bytes() []byte {
	return b.buf.Bytes()
}
