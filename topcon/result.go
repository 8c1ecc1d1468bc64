package topcon

// Warning records a per-chunk structural inconsistency. The chunk's
// contribution is omitted from the result and decoding continues; only
// buffer truncation or an invalid global header aborts a decode.
type Warning struct {
	// Tag is the chunk the inconsistency was found in.
	Tag string

	// Reason describes what was wrong, e.g. a geometry product exceeding
	// the declared chunk length.
	Reason string
}

// DecodeResult holds everything extracted from one container. It is built
// once per Decode call and never mutated afterwards; all pixel and sample
// data is owned by the result, with no references into the input buffer.
type DecodeResult struct {
	Dialect Dialect
	Version FileVersion

	// Volumes are the OCT volumes in file order. A healthy file carries
	// one, but repeated scan chunks each contribute independently.
	Volumes []*OCTVolume

	// Images are the fundus/reference rasters in file order.
	Images []*FundusImage

	// Parameters maps physical quantity names to values. Absent chunks
	// simply leave their keys out.
	Parameters ScanParameters

	// Contours are retinal layer boundaries (.fda only), one per
	// @CONTOUR_INFO occurrence.
	Contours []*Contour

	Patient  *PatientInfo
	Capture  *CaptureInfo
	Hardware *HardwareInfo
	Software *SoftwareInfo

	// Warnings lists the chunks that were skipped as structurally
	// inconsistent, in file order.
	Warnings []Warning
}

func (r *DecodeResult) warn(tag, reason string) {
	r.Warnings = append(r.Warnings, Warning{Tag: tag, Reason: reason})
}
