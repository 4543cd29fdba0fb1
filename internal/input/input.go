// Package input loads .3d files from disk, inflating compressed copies.
package input

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/pierrec/lz4/v4"
	"github.com/sirupsen/logrus"
	"github.com/ulikunitz/xz"
)

// MaxInflatedSize bounds the size of decompressed input
const MaxInflatedSize = 1 << 30

// ErrTooLarge is returned when decompressed input exceeds MaxInflatedSize
var ErrTooLarge = errors.New("decompressed input too large")

// Compression identifies the container wrapped around the survey bytes
type Compression int

const (
	None Compression = iota
	Gzip
	XZ
	LZ4
)

func (c Compression) String() string {
	switch c {
	case Gzip:
		return "gzip"
	case XZ:
		return "xz"
	case LZ4:
		return "lz4"
	default:
		return "none"
	}
}

var magics = []struct {
	kind  Compression
	magic []byte
}{
	{Gzip, []byte{0x1f, 0x8b}},
	{XZ, []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}},
	{LZ4, []byte{0x04, 0x22, 0x4d, 0x18}},
}

// Detect identifies the compression of data from its leading bytes
func Detect(data []byte) Compression {
	for _, m := range magics {
		if bytes.HasPrefix(data, m.magic) {
			return m.kind
		}
	}
	return None
}

// Inflate returns data decompressed according to its magic bytes.
// Uncompressed data is returned unchanged.
func Inflate(data []byte) ([]byte, Compression, error) {
	kind := Detect(data)

	var r io.Reader
	switch kind {
	case None:
		return data, None, nil
	case Gzip:
		zr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, kind, fmt.Errorf("open gzip: %w", err)
		}
		defer zr.Close()
		r = zr
	case XZ:
		xr, err := xz.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, kind, fmt.Errorf("open xz: %w", err)
		}
		r = xr
	case LZ4:
		r = lz4.NewReader(bytes.NewReader(data))
	}

	out, err := io.ReadAll(io.LimitReader(r, MaxInflatedSize+1))
	if err != nil {
		return nil, kind, fmt.Errorf("inflate %s: %w", kind, err)
	}
	if len(out) > MaxInflatedSize {
		return nil, kind, ErrTooLarge
	}
	return out, kind, nil
}

// ReadFile reads path fully into memory and inflates it when compressed.
// A name not ending in .3d (after any compression suffix) only logs a warning.
func ReadFile(path string, log logrus.FieldLogger) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}

	if !HasSurveyExt(path) {
		log.WithField("path", path).Warn("input does not have a .3d extension")
	}

	out, kind, err := Inflate(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if kind != None {
		log.WithFields(logrus.Fields{
			"path":        path,
			"compression": kind.String(),
			"size":        len(data),
			"inflated":    len(out),
		}).Debug("inflated input")
	}
	return out, nil
}

// HasSurveyExt reports whether path names a .3d file, ignoring a
// trailing .gz, .xz or .lz4
func HasSurveyExt(path string) bool {
	name := strings.ToLower(filepath.Base(path))
	for _, suffix := range []string{".gz", ".xz", ".lz4"} {
		name = strings.TrimSuffix(name, suffix)
	}
	return filepath.Ext(name) == ".3d"
}
