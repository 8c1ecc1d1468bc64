// Package chunk reads the tagged-chunk framing used by Topcon containers.
//
// After the 15-byte global header, a container is a flat sequence of chunks:
// a 1-byte tag length, the ASCII tag (e.g. "@IMG_SCAN_03"), a 4-byte
// little-endian payload length, then the payload. A tag length of zero marks
// the end of the chunk stream.
package chunk

import (
	"errors"
	"fmt"

	"github.com/oculab/go-topcon/internal/binary"
)

// ErrEndOfChunks signals the zero-length-tag sentinel. It is a terminal
// state of chunk iteration, not a decode failure.
var ErrEndOfChunks = errors.New("end of chunks")

// Header describes one chunk's framing. The declared Length is authoritative
// for skipping: the container loop repositions to Offset+Length regardless of
// how many payload bytes a decoder consumed.
type Header struct {
	// Tag is the chunk name, including the leading '@'.
	Tag string

	// Length is the declared payload size in bytes.
	Length uint32

	// Offset is the absolute buffer position of the payload's first byte.
	Offset int
}

// End returns the absolute buffer position one past the payload.
func (h Header) End() int {
	return h.Offset + int(h.Length)
}

// Next reads the next chunk header, leaving the cursor at the start of the
// payload. It returns ErrEndOfChunks on the sentinel and
// binary.ErrUnexpectedEOF if the buffer ends mid-header.
func Next(c *binary.Cursor) (Header, error) {
	tagLen, err := c.ReadUint8()
	if err != nil {
		return Header{}, fmt.Errorf("reading tag length: %w", err)
	}
	if tagLen == 0 {
		return Header{}, ErrEndOfChunks
	}

	tag, err := c.ReadBytes(int(tagLen))
	if err != nil {
		return Header{}, fmt.Errorf("reading tag: %w", err)
	}

	length, err := c.ReadUint32()
	if err != nil {
		return Header{}, fmt.Errorf("reading length of %q: %w", tag, err)
	}

	return Header{
		Tag:    string(tag),
		Length: length,
		Offset: c.Pos(),
	}, nil
}
