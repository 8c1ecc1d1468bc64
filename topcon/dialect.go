package topcon

import (
	"bytes"
	"fmt"

	binpkg "github.com/oculab/go-topcon/internal/binary"
)

// Dialect identifies a container format variant. The two dialects share the
// chunk framing but differ in their global header's file-type field and in
// which decoder each tag maps to.
type Dialect int

const (
	// DialectAuto infers the dialect from the file-type field.
	DialectAuto Dialect = iota

	// DialectFDS is the uncompressed .fds variant.
	DialectFDS

	// DialectFDA is the .fda variant with JPEG-compressed image chunks.
	DialectFDA
)

func (d Dialect) String() string {
	switch d {
	case DialectFDS:
		return "FDS"
	case DialectFDA:
		return "FDA"
	default:
		return "auto"
	}
}

// magic is the 4-byte signature opening every container.
var magic = []byte("FOCT")

// FileVersion is the container version pair from the global header.
type FileVersion struct {
	Major uint32
	Minor uint32
}

// globalHeaderSize is the fixed size of the global header:
// 4-byte magic, 3-byte file type, two 4-byte version fields.
const globalHeaderSize = 15

// readGlobalHeader validates the 15-byte global header and returns the
// resolved dialect. A missing byte is ErrTruncated; a bad magic or a
// file-type conflicting with an explicitly requested dialect is ErrNotTopcon.
func readGlobalHeader(c *binpkg.Cursor, want Dialect) (Dialect, FileVersion, error) {
	sig, err := c.ReadBytes(len(magic))
	if err != nil {
		return 0, FileVersion{}, fmt.Errorf("reading magic: %w", err)
	}
	if !bytes.Equal(sig, magic) {
		return 0, FileVersion{}, fmt.Errorf("%w: bad magic %q", ErrNotTopcon, sig)
	}

	fileType, err := c.ReadString(3)
	if err != nil {
		return 0, FileVersion{}, fmt.Errorf("reading file type: %w", err)
	}

	var got Dialect
	switch fileType {
	case "FDS":
		got = DialectFDS
	// "FAA" marks external-fixation captures; the chunk layout is FDA's.
	case "FDA", "FAA":
		got = DialectFDA
	default:
		return 0, FileVersion{}, fmt.Errorf("%w: unknown file type %q", ErrNotTopcon, fileType)
	}
	if want != DialectAuto && want != got {
		return 0, FileVersion{}, fmt.Errorf("%w: file type %q does not match requested dialect %s",
			ErrNotTopcon, fileType, want)
	}

	major, err := c.ReadUint32()
	if err != nil {
		return 0, FileVersion{}, fmt.Errorf("reading major version: %w", err)
	}
	minor, err := c.ReadUint32()
	if err != nil {
		return 0, FileVersion{}, fmt.Errorf("reading minor version: %w", err)
	}

	return got, FileVersion{Major: major, Minor: minor}, nil
}
