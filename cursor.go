package blkreader

import (
	"errors"
	"fmt"
	"io"
)

var (
	ErrTruncated = errors.New("truncated data")
	ErrSeek      = errors.New("invalid seek")
)

// Cursor is a seekable reader/writer over an in-memory buffer. Every
// decoder in this package reads through one. Decoding never modifies
// the buffer, only the position moves.
type Cursor struct {
	buf   []byte
	pos   int
	size  int
	sized bool
}

func NewCursor(b []byte) *Cursor {
	return &Cursor{buf: b}
}

// ReadN returns exactly n bytes starting at the current position, or
// fails with ErrTruncated without moving.
func (c *Cursor) ReadN(n int) ([]byte, error) {
	if n < 0 || n > c.Size()-c.pos {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrTruncated, n, c.pos, c.Size()-c.pos)
	}
	result := make([]byte, n)
	copy(result, c.buf[c.pos:c.pos+n])
	c.pos += n
	return result, nil
}

// Read implements io.Reader.
func (c *Cursor) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if c.pos >= c.Size() {
		return 0, io.EOF
	}
	n := copy(p, c.buf[c.pos:])
	c.pos += n
	return n, nil
}

// Write overwrites the buffer at the current position, growing it as
// needed.
func (c *Cursor) Write(p []byte) (int, error) {
	end := c.pos + len(p)
	if end > len(c.buf) {
		grown := make([]byte, end)
		copy(grown, c.buf)
		c.buf = grown
	}
	copy(c.buf[c.pos:], p)
	c.pos = end
	c.sized = false
	return len(p), nil
}

// Seek implements io.Seeker. Seeking before the start or past the end
// of the buffer is an error.
func (c *Cursor) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = int64(c.pos) + offset
	case io.SeekEnd:
		abs = int64(c.Size()) + offset
	default:
		return int64(c.pos), fmt.Errorf("%w: whence %d", ErrSeek, whence)
	}
	if abs < 0 || abs > int64(c.Size()) {
		return int64(c.pos), fmt.Errorf("%w: offset %d outside [0, %d]", ErrSeek, abs, c.Size())
	}
	c.pos = int(abs)
	return abs, nil
}

func (c *Cursor) Tell() int {
	return c.pos
}

func (c *Cursor) Size() int {
	if !c.sized {
		c.size = len(c.buf)
		c.sized = true
	}
	return c.size
}

func (c *Cursor) Rewind() {
	c.pos = 0
}

// Remaining reads everything from the current position to the end.
func (c *Cursor) Remaining() []byte {
	b, _ := c.ReadN(c.Size() - c.pos)
	return b
}

// Slice returns a copy of buf[start:end] and leaves the position alone.
func (c *Cursor) Slice(start, end int) ([]byte, error) {
	if start < 0 || end < start || end > c.Size() {
		return nil, fmt.Errorf("%w: range [%d, %d) of %d bytes", ErrTruncated, start, end, c.Size())
	}
	result := make([]byte, end-start)
	copy(result, c.buf[start:end])
	return result, nil
}

// Bytes returns the underlying buffer, it must not be modified.
func (c *Cursor) Bytes() []byte {
	return c.buf
}
