// Package pixel reshapes flat sample buffers into volumes and rasters.
//
// Scan chunks store samples slice-major, row-major within a slice. Color
// reference images store interleaved per-pixel triplets in B,G,R order.
package pixel

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

var (
	// ErrShortData is returned when the raw buffer holds fewer samples than
	// the declared geometry implies. Callers treat this as a per-chunk
	// structural inconsistency, not a fatal decode error.
	ErrShortData = errors.New("raw data shorter than declared geometry")

	// ErrBadDepth is returned for sample depths other than 8 or 16 bits.
	ErrBadDepth = errors.New("unsupported bits per pixel")

	// ErrBadGeometry is returned when the dimension product cannot be
	// represented, which only happens on corrupt headers.
	ErrBadGeometry = errors.New("geometry dimensions overflow")
)

// maxSamples bounds the dimension product so the byte size at 16 bits per
// pixel still fits an int on every platform.
const maxSamples = math.MaxInt / 2

// Geometry describes the dimensions of a scan chunk's sample data.
type Geometry struct {
	Width        uint32
	Height       uint32
	Slices       uint32
	BitsPerPixel uint32
}

// SampleCount returns the total number of samples across all slices. The
// product is computed in uint64 so corrupt 32-bit dimension fields cannot
// wrap a native int.
func (g Geometry) SampleCount() (int, error) {
	wh := uint64(g.Width) * uint64(g.Height)
	if g.Slices != 0 && wh > maxSamples/uint64(g.Slices) {
		return 0, fmt.Errorf("%w: %dx%dx%d", ErrBadGeometry, g.Width, g.Height, g.Slices)
	}
	return int(wh * uint64(g.Slices)), nil
}

// ByteSize returns the number of raw bytes the geometry implies.
func (g Geometry) ByteSize() (int, error) {
	n, err := g.SampleCount()
	if err != nil {
		return 0, err
	}
	switch g.BitsPerPixel {
	case 8:
		return n, nil
	case 16:
		return n * 2, nil
	default:
		return 0, fmt.Errorf("%w: %d", ErrBadDepth, g.BitsPerPixel)
	}
}

// AssembleVolume partitions raw into g.Slices slices of g.Width*g.Height
// samples each, row-major rows of g.Width. Samples are little-endian at 16
// bits per pixel; 8-bit samples are widened to uint16 so all volumes share
// one element type. The raw buffer is copied, never aliased.
func AssembleVolume(raw []byte, g Geometry) ([][]uint16, error) {
	need, err := g.ByteSize()
	if err != nil {
		return nil, err
	}
	if len(raw) < need {
		return nil, fmt.Errorf("%w: have %d bytes, need %d", ErrShortData, len(raw), need)
	}

	perSlice := int(g.Width) * int(g.Height)
	slices := make([][]uint16, g.Slices)
	for s := range slices {
		dst := make([]uint16, perSlice)
		if g.BitsPerPixel == 16 {
			base := s * perSlice * 2
			for i := 0; i < perSlice; i++ {
				dst[i] = binary.LittleEndian.Uint16(raw[base+i*2:])
			}
		} else {
			base := s * perSlice
			for i := 0; i < perSlice; i++ {
				dst[i] = uint16(raw[base+i])
			}
		}
		slices[s] = dst
	}
	return slices, nil
}

// AssembleColor copies a width×height raster of interleaved B,G,R triplets
// and swaps it to conventional R,G,B order.
func AssembleColor(raw []byte, width, height int) ([]uint8, error) {
	need := width * height * 3
	if len(raw) < need {
		return nil, fmt.Errorf("%w: have %d bytes, need %d", ErrShortData, len(raw), need)
	}
	pix := make([]uint8, need)
	copy(pix, raw[:need])
	SwapRB(pix)
	return pix, nil
}

// AssembleGray copies a width×height raster of 8-bit samples.
func AssembleGray(raw []byte, width, height int) ([]uint8, error) {
	need := width * height
	if len(raw) < need {
		return nil, fmt.Errorf("%w: have %d bytes, need %d", ErrShortData, len(raw), need)
	}
	pix := make([]uint8, need)
	copy(pix, raw[:need])
	return pix, nil
}

// SwapRB exchanges channels 0 and 2 of every interleaved triplet in place.
// Applying it twice restores the original order.
func SwapRB(pix []uint8) {
	for i := 0; i+2 < len(pix); i += 3 {
		pix[i], pix[i+2] = pix[i+2], pix[i]
	}
}
