package topcon

import (
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	binpkg "github.com/oculab/go-topcon/internal/binary"
	"github.com/oculab/go-topcon/internal/chunk"
)

// options holds decode configuration.
type options struct {
	dialect Dialect
	log     zerolog.Logger
}

// Option configures a decode call.
type Option func(*options)

// WithDialect pins the expected dialect instead of inferring it from the
// global header's file-type field. A mismatch fails with ErrNotTopcon.
func WithDialect(d Dialect) Option {
	return func(o *options) { o.dialect = d }
}

// WithLogger routes chunk-level diagnostics to l. Unrecognized chunks log
// at debug level, structural inconsistencies at warn level. Without this
// option nothing is logged.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.log = l }
}

// Decode decodes a complete container held in data. Decoding is a single
// sequential pass in file order; data is never mutated and the result
// retains no reference into it, so independent calls are safe concurrently.
//
// Only two conditions abort the decode: a buffer that ends mid-field
// (ErrTruncated) and an invalid global header (ErrNotTopcon). Everything
// else degrades to entries in DecodeResult.Warnings.
func Decode(data []byte, opts ...Option) (*DecodeResult, error) {
	o := options{dialect: DialectAuto, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}

	cur := binpkg.NewCursor(data)
	dialect, version, err := readGlobalHeader(cur, o.dialect)
	if err != nil {
		return nil, err
	}

	reg := registryFor(dialect)
	res := &DecodeResult{
		Dialect:    dialect,
		Version:    version,
		Parameters: make(ScanParameters),
	}

	for {
		hdr, err := chunk.Next(cur)
		if errors.Is(err, chunk.ErrEndOfChunks) {
			break
		}
		if err != nil {
			return nil, err
		}

		// A payload whose declared extent runs past the end of the
		// buffer means the file itself is cut short.
		payload, err := cur.Limit(int(hdr.Length))
		if err != nil {
			return nil, fmt.Errorf("chunk %s: declared length %d exceeds buffer: %w",
				hdr.Tag, hdr.Length, err)
		}

		ctx := &decodeContext{cur: payload, hdr: hdr, res: res, log: o.log}
		if err := reg.resolve(hdr.Tag)(ctx); err != nil {
			o.log.Warn().Str("tag", hdr.Tag).Err(err).Msg("dropping inconsistent chunk")
			res.warn(hdr.Tag, err.Error())
		}

		// The declared length is authoritative: reposition to the chunk
		// boundary no matter how many bytes the decoder consumed.
		if err := cur.Seek(hdr.End()); err != nil {
			return nil, fmt.Errorf("chunk %s: %w", hdr.Tag, err)
		}
	}

	finalize(res)
	return res, nil
}

// DecodeFile reads path in full and decodes it.
func DecodeFile(path string, opts ...Option) (*DecodeResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading container: %w", err)
	}
	return Decode(data, opts...)
}

// finalize derives per-volume voxel spacing once all chunks are folded in.
// Parameter chunks may precede or follow the scan chunk, so this cannot
// happen during chunk dispatch.
func finalize(res *DecodeResult) {
	x, okX := res.Parameters["x_dimension_mm"]
	y, okY := res.Parameters["y_dimension_mm"]
	z, okZ := res.Parameters["z_resolution_um"]
	if !okX || !okY || !okZ {
		return
	}

	for _, v := range res.Volumes {
		if v.Width == 0 || v.Height == 0 || v.NumSlices() == 0 {
			continue
		}
		if res.Dialect == DialectFDA {
			v.VoxelSpacing = []float64{
				x / float64(v.Width),
				y / float64(v.NumSlices()),
				z / 1000,
			}
		} else {
			// FDS stores the volume transposed relative to FDA, hence
			// the swapped divisors.
			v.VoxelSpacing = []float64{
				x / float64(v.Height),
				z / 1000,
				y / float64(v.Width),
			}
		}
	}
}
