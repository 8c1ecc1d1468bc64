package topcon

import (
	"github.com/rs/zerolog"

	binpkg "github.com/oculab/go-topcon/internal/binary"
	"github.com/oculab/go-topcon/internal/chunk"
)

// decoderFunc decodes one chunk payload into the accumulating result. The
// cursor is bounded to the chunk's declared payload, so an overread fails
// with ErrTruncated instead of bleeding into the next chunk. A returned
// error marks the chunk structurally inconsistent: the container loop
// records a warning, drops the chunk's contribution, and continues.
type decoderFunc func(ctx *decodeContext) error

// decodeContext is the per-chunk state handed to a decoder.
type decodeContext struct {
	cur *binpkg.Cursor // bounded to the payload
	hdr chunk.Header
	res *DecodeResult
	log zerolog.Logger
}

// registry is a dialect's closed tag→decoder table, built at package init.
type registry struct {
	decoders map[string]decoderFunc
}

// resolve returns the decoder for tag. A lookup miss yields the skip
// decoder, never an error: proprietary containers carry many undocumented
// chunks and an unrecognized tag must not abort decoding.
func (r *registry) resolve(tag string) decoderFunc {
	if d, ok := r.decoders[tag]; ok {
		return d
	}
	return skipChunk
}

// skipChunk ignores an unrecognized chunk; the container loop's
// repositioning via the declared length does the actual skipping.
func skipChunk(ctx *decodeContext) error {
	ctx.log.Debug().
		Str("tag", ctx.hdr.Tag).
		Uint32("length", ctx.hdr.Length).
		Msg("skipping unrecognized chunk")
	return nil
}

// registryFor selects the active tag table. The tables overlap but are not
// identical: @IMG_TRC_02 is a raw raster in FDS and a JPEG stream in FDA,
// and each dialect has image tags the other never carries.
func registryFor(d Dialect) *registry {
	if d == DialectFDA {
		return fdaRegistry
	}
	return fdsRegistry
}
