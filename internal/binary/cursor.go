// Package binary provides low-level binary reads over an in-memory buffer.
//
// Topcon containers are small enough to hold fully resident, so the cursor
// owns a byte slice and a mutable offset rather than wrapping an io.Reader.
// All multi-byte fields in both the FDS and FDA dialects are little-endian.
package binary

import (
	"encoding/binary"
	"errors"
	"math"
)

// ErrUnexpectedEOF is returned when a read requests more bytes than remain.
// It is the only error this package produces. A failed read never advances
// the cursor.
var ErrUnexpectedEOF = errors.New("unexpected end of data")

// Cursor is a sequential bounds-checked reader over a byte buffer.
type Cursor struct {
	buf []byte
	pos int
}

// NewCursor creates a cursor positioned at the start of buf.
// The cursor does not copy buf; callers must not mutate it during reads.
func NewCursor(buf []byte) *Cursor {
	return &Cursor{buf: buf}
}

// Pos returns the current read offset.
func (c *Cursor) Pos() int {
	return c.pos
}

// Remaining returns the number of unread bytes.
func (c *Cursor) Remaining() int {
	return len(c.buf) - c.pos
}

// Len returns the total buffer length.
func (c *Cursor) Len() int {
	return len(c.buf)
}

// Seek repositions the cursor to an absolute offset.
func (c *Cursor) Seek(offset int) error {
	if offset < 0 || offset > len(c.buf) {
		return ErrUnexpectedEOF
	}
	c.pos = offset
	return nil
}

// Skip advances the cursor by n bytes.
func (c *Cursor) Skip(n int) error {
	if n < 0 || n > c.Remaining() {
		return ErrUnexpectedEOF
	}
	c.pos += n
	return nil
}

// ReadBytes reads exactly n bytes. The returned slice aliases the underlying
// buffer; callers that retain it past the decode must copy.
func (c *Cursor) ReadBytes(n int) ([]byte, error) {
	if n < 0 || n > c.Remaining() {
		return nil, ErrUnexpectedEOF
	}
	b := c.buf[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

// ReadUint8 reads an unsigned 8-bit integer.
func (c *Cursor) ReadUint8() (uint8, error) {
	b, err := c.ReadBytes(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadUint16 reads a little-endian unsigned 16-bit integer.
func (c *Cursor) ReadUint16() (uint16, error) {
	b, err := c.ReadBytes(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// ReadUint32 reads a little-endian unsigned 32-bit integer.
func (c *Cursor) ReadUint32() (uint32, error) {
	b, err := c.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// ReadInt32 reads a little-endian signed 32-bit integer.
func (c *Cursor) ReadInt32() (int32, error) {
	v, err := c.ReadUint32()
	return int32(v), err
}

// ReadFloat32 reads a little-endian IEEE 754 single-precision float.
func (c *Cursor) ReadFloat32() (float32, error) {
	v, err := c.ReadUint32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

// ReadFloat64 reads a little-endian IEEE 754 double-precision float.
func (c *Cursor) ReadFloat64() (float64, error) {
	b, err := c.ReadBytes(8)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(b)), nil
}

// ReadString reads a fixed-width field of n bytes and returns the content up
// to the first NUL. Vendor string fields are NUL-padded to their declared
// width.
func (c *Cursor) ReadString(n int) (string, error) {
	b, err := c.ReadBytes(n)
	if err != nil {
		return "", err
	}
	for i, ch := range b {
		if ch == 0 {
			return string(b[:i]), nil
		}
	}
	return string(b), nil
}

// Limit returns a new cursor bounded to the next n bytes without advancing
// the parent. Reads past the limit fail with ErrUnexpectedEOF even when the
// parent buffer has more data.
func (c *Cursor) Limit(n int) (*Cursor, error) {
	if n < 0 || n > c.Remaining() {
		return nil, ErrUnexpectedEOF
	}
	return &Cursor{buf: c.buf[c.pos : c.pos+n]}, nil
}
