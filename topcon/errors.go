// Package topcon decodes Topcon ophthalmic-scanner containers (.fds/.fda)
// into OCT volumes, fundus images, and acquisition metadata.
package topcon

import (
	"errors"

	binpkg "github.com/oculab/go-topcon/internal/binary"
)

// Common errors
var (
	// ErrNotTopcon is returned when the global header does not carry the
	// FOCT magic or its file-type field does not match the requested
	// dialect. The whole decode is aborted.
	ErrNotTopcon = errors.New("not a Topcon container")

	// ErrTruncated is returned when the buffer ends mid-field. It aliases
	// the cursor's end-of-data error so errors.Is works across layers.
	ErrTruncated = binpkg.ErrUnexpectedEOF
)
