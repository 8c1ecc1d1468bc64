package topcon

// OCTVolume is an ordered stack of 2D grayscale scan slices. Each slice is
// Height rows of Width samples, row-major. 8-bit sources are widened to
// uint16 so every volume shares one element type.
type OCTVolume struct {
	// SourceTag is the chunk the volume came from, e.g. "@IMG_SCAN_03".
	SourceTag string

	Width        uint32
	Height       uint32
	BitsPerPixel uint32

	// ScanMode is the vendor scan-pattern code (2 = 3D, 3 = radial,
	// 4 = cross).
	ScanMode uint8

	// Slices holds one Width*Height sample block per B-scan.
	Slices [][]uint16

	// VoxelSpacing is the physical voxel size in millimetres, derived from
	// the scan-parameter chunk when one is present; nil otherwise.
	VoxelSpacing []float64
}

// NumSlices returns the number of B-scans in the volume.
func (v *OCTVolume) NumSlices() int {
	return len(v.Slices)
}

// At returns the sample at (x, y) of slice s.
func (v *OCTVolume) At(s, x, y int) uint16 {
	return v.Slices[s][y*int(v.Width)+x]
}
