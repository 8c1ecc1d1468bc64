package chunk

import (
	"encoding/binary"
	"errors"
	"testing"

	binpkg "github.com/oculab/go-topcon/internal/binary"
)

// frame builds one encoded chunk: tag length, tag, declared length, payload.
func frame(tag string, payload []byte) []byte {
	buf := []byte{byte(len(tag))}
	buf = append(buf, tag...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(payload)))
	return append(buf, payload...)
}

func TestNextHeader(t *testing.T) {
	data := frame("@PARAM_SCAN_04", []byte{1, 2, 3, 4, 5})
	c := binpkg.NewCursor(data)

	h, err := Next(c)
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if h.Tag != "@PARAM_SCAN_04" {
		t.Errorf("tag: expected @PARAM_SCAN_04, got %q", h.Tag)
	}
	if h.Length != 5 {
		t.Errorf("length: expected 5, got %d", h.Length)
	}
	// 1 tag-length byte + 14 tag bytes + 4 length bytes
	if h.Offset != 19 {
		t.Errorf("offset: expected 19, got %d", h.Offset)
	}
	if h.End() != 24 {
		t.Errorf("end: expected 24, got %d", h.End())
	}
	if c.Pos() != h.Offset {
		t.Errorf("cursor should rest at payload start %d, got %d", h.Offset, c.Pos())
	}
}

func TestNextSentinel(t *testing.T) {
	c := binpkg.NewCursor([]byte{0})

	_, err := Next(c)
	if !errors.Is(err, ErrEndOfChunks) {
		t.Fatalf("expected ErrEndOfChunks, got %v", err)
	}
}

func TestNextTruncated(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"mid tag", []byte{8, '@', 'I', 'M'}},
		{"mid length", append([]byte{4, '@', 'A', 'B', 'C'}, 0x10, 0x00)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Next(binpkg.NewCursor(tt.data))
			if !errors.Is(err, binpkg.ErrUnexpectedEOF) {
				t.Errorf("expected ErrUnexpectedEOF, got %v", err)
			}
		})
	}
}

func TestNextRepeatedTags(t *testing.T) {
	// Repeated tags are legal and each occurrence is independent.
	data := frame("@CONTOUR_INFO", []byte{1})
	data = append(data, frame("@CONTOUR_INFO", []byte{2, 3})...)
	c := binpkg.NewCursor(data)

	h1, err := Next(c)
	if err != nil {
		t.Fatalf("first Next failed: %v", err)
	}
	if err := c.Seek(h1.End()); err != nil {
		t.Fatalf("Seek failed: %v", err)
	}

	h2, err := Next(c)
	if err != nil {
		t.Fatalf("second Next failed: %v", err)
	}
	if h1.Tag != h2.Tag {
		t.Errorf("tags differ: %q vs %q", h1.Tag, h2.Tag)
	}
	if h2.Length != 2 {
		t.Errorf("second length: expected 2, got %d", h2.Length)
	}
}
