package topcon

import (
	"fmt"

	binpkg "github.com/oculab/go-topcon/internal/binary"
)

// readU16s reads n little-endian uint16 values.
func readU16s(c *binpkg.Cursor, n int) ([]uint16, error) {
	out := make([]uint16, n)
	for i := range out {
		v, err := c.ReadUint16()
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// readVendorString reads a fixed-width NUL-padded string field with
// charset-tolerant decoding.
func readVendorString(c *binpkg.Cursor, width int) (string, error) {
	b, err := c.ReadBytes(width)
	if err != nil {
		return "", err
	}
	return decodeVendorString(b), nil
}

// decodeParamScan04 handles @PARAM_SCAN_04: three u32 codes, five f64
// physical quantities, two trailing bytes.
func decodeParamScan04(ctx *decodeContext) error {
	vals := make(map[string]float64)
	for _, name := range []string{"fixation", "mirror_pos", "polar"} {
		v, err := ctx.cur.ReadUint32()
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		vals[name] = float64(v)
	}
	for _, name := range []string{"x_dimension_mm", "y_dimension_mm", "z_resolution_um", "comp_eff_2", "comp_eff_3"} {
		v, err := ctx.cur.ReadFloat64()
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		vals[name] = v
	}
	for _, name := range []string{"base_pos", "used_calib_data"} {
		v, err := ctx.cur.ReadUint8()
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		vals[name] = float64(v)
	}
	ctx.res.Parameters.merge(vals)
	return nil
}

// decodeParamScan02 handles the older @PARAM_SCAN_02 layout.
func decodeParamScan02(ctx *decodeContext) error {
	vals := make(map[string]float64)
	scanMode, err := ctx.cur.ReadUint8()
	if err != nil {
		return fmt.Errorf("scan_mode: %w", err)
	}
	vals["scan_mode"] = float64(scanMode)
	for _, name := range []string{"light_level", "fixation", "mirror_pos", "nd", "polar"} {
		v, err := ctx.cur.ReadUint32()
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		vals[name] = float64(v)
	}
	for _, name := range []string{"x_dimension_mm", "y_dimension_mm", "z_resolution_um",
		"comp_eff_2", "comp_eff_3", "noise_thresh", "range_adj"} {
		v, err := ctx.cur.ReadFloat64()
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		vals[name] = v
	}
	basePos, err := ctx.cur.ReadUint8()
	if err != nil {
		return fmt.Errorf("base_pos: %w", err)
	}
	vals["base_pos"] = float64(basePos)
	ctx.res.Parameters.merge(vals)
	return nil
}

// sexCodes maps the vendor sex byte to its display form.
var sexCodes = map[uint8]string{1: "M", 2: "F", 3: "O"}

// decodePatientInfo02 handles the leading fields of @PATIENT_INFO_02.
// The chunk continues with registration fields that are blank on every
// sampled file; they are left to the declared-length skip.
func decodePatientInfo02(ctx *decodeContext) error {
	id, err := readVendorString(ctx.cur, 32)
	if err != nil {
		return fmt.Errorf("patient id: %w", err)
	}
	given, err := readVendorString(ctx.cur, 32)
	if err != nil {
		return fmt.Errorf("first name: %w", err)
	}
	surname, err := readVendorString(ctx.cur, 32)
	if err != nil {
		return fmt.Errorf("last name: %w", err)
	}
	if _, err := ctx.cur.ReadBytes(8); err != nil { // middle name
		return err
	}
	sex, err := ctx.cur.ReadUint8()
	if err != nil {
		return fmt.Errorf("sex: %w", err)
	}
	birth, err := readU16s(ctx.cur, 3)
	if err != nil {
		return fmt.Errorf("birth date: %w", err)
	}

	ctx.res.Patient = &PatientInfo{
		ID:        id,
		GivenName: given,
		Surname:   surname,
		Sex:       sexCodes[sex],
		BirthDate: vendorDate(birth),
	}
	return nil
}

// lateralityCodes maps the vendor eye byte to R/L.
var lateralityCodes = map[uint8]string{0: "R", 1: "L"}

// decodeCaptureInfo02 handles @CAPTURE_INFO_02.
func decodeCaptureInfo02(ctx *decodeContext) error {
	eye, err := ctx.cur.ReadUint8()
	if err != nil {
		return fmt.Errorf("eye: %w", err)
	}
	scanMode, err := ctx.cur.ReadUint8()
	if err != nil {
		return fmt.Errorf("scan mode: %w", err)
	}
	session, err := ctx.cur.ReadUint32()
	if err != nil {
		return fmt.Errorf("session id: %w", err)
	}
	label, err := readVendorString(ctx.cur, 100)
	if err != nil {
		return fmt.Errorf("label: %w", err)
	}
	capDate, err := readU16s(ctx.cur, 6)
	if err != nil {
		return fmt.Errorf("capture date: %w", err)
	}

	ctx.res.Capture = &CaptureInfo{
		Laterality:      lateralityCodes[eye],
		ScanMode:        scanMode,
		SessionID:       session,
		Label:           label,
		AcquisitionDate: vendorDate(capDate),
	}
	return nil
}

// decodeCaptureInfo handles the short @CAPTURE_INFO variant.
func decodeCaptureInfo(ctx *decodeContext) error {
	eye, err := ctx.cur.ReadUint8()
	if err != nil {
		return fmt.Errorf("eye: %w", err)
	}
	capDate, err := readU16s(ctx.cur, 6)
	if err != nil {
		return fmt.Errorf("capture date: %w", err)
	}

	ctx.res.Capture = &CaptureInfo{
		Laterality:      lateralityCodes[eye],
		AcquisitionDate: vendorDate(capDate),
	}
	return nil
}

// decodeHWInfo03 handles @HW_INFO_03: five 16-byte identity strings and two
// calibration timestamps.
func decodeHWInfo03(ctx *decodeContext) error {
	model, err := readVendorString(ctx.cur, 16)
	if err != nil {
		return fmt.Errorf("model name: %w", err)
	}
	serial, err := readVendorString(ctx.cur, 16)
	if err != nil {
		return fmt.Errorf("serial number: %w", err)
	}
	spectSN, err := readVendorString(ctx.cur, 16)
	if err != nil {
		return fmt.Errorf("spectrometer sn: %w", err)
	}
	romVer, err := readVendorString(ctx.cur, 16)
	if err != nil {
		return fmt.Errorf("rom version: %w", err)
	}
	if _, err := ctx.cur.ReadBytes(16); err != nil { // unlabeled field
		return err
	}
	eqCalib, err := readU16s(ctx.cur, 5)
	if err != nil {
		return fmt.Errorf("equipment calibration: %w", err)
	}
	spectCalib, err := readU16s(ctx.cur, 5)
	if err != nil {
		return fmt.Errorf("spectrometer calibration: %w", err)
	}

	ctx.res.Hardware = &HardwareInfo{
		ModelName:               model,
		SerialNumber:            serial,
		SpectrometerSN:          spectSN,
		ROMVersion:              romVer,
		EquipmentCalibration:    vendorDate(eqCalib),
		SpectrometerCalibration: vendorDate(spectCalib),
	}
	return nil
}

// decodeFileInfo handles @FILE_INFO: two constant u32 fields and a version
// string.
func decodeFileInfo(ctx *decodeContext) error {
	if _, err := ctx.cur.ReadUint32(); err != nil {
		return err
	}
	if _, err := ctx.cur.ReadUint32(); err != nil {
		return err
	}
	ver, err := readVendorString(ctx.cur, 32)
	if err != nil {
		return fmt.Errorf("file version: %w", err)
	}

	if ctx.res.Software == nil {
		ctx.res.Software = &SoftwareInfo{}
	}
	ctx.res.Software.FileVersion = ver
	return nil
}

// decodeMainModuleInfo handles @MAIN_MODULE_INFO.
func decodeMainModuleInfo(ctx *decodeContext) error {
	name, err := readVendorString(ctx.cur, 128)
	if err != nil {
		return fmt.Errorf("software name: %w", err)
	}
	ver, err := readU16s(ctx.cur, 4)
	if err != nil {
		return fmt.Errorf("module version: %w", err)
	}

	if ctx.res.Software == nil {
		ctx.res.Software = &SoftwareInfo{}
	}
	ctx.res.Software.Name = name
	ctx.res.Software.Version = fmt.Sprintf("%d.%d.%d.%d", ver[0], ver[1], ver[2], ver[3])
	return nil
}

// readBoundingBox reads four u32 coordinates into the parameter map as
// name_0 .. name_3.
func readBoundingBox(ctx *decodeContext, name string) error {
	for i := 0; i < 4; i++ {
		v, err := ctx.cur.ReadUint32()
		if err != nil {
			return fmt.Errorf("%s[%d]: %w", name, i, err)
		}
		ctx.res.Parameters[fmt.Sprintf("%s_%d", name, i)] = float64(v)
	}
	return nil
}

// decodeEffectiveScanRange handles @EFFECTIVE_SCAN_RANGE: the scanned
// region as bounding boxes in color fundus and grayscale reference pixels.
func decodeEffectiveScanRange(ctx *decodeContext) error {
	if err := readBoundingBox(ctx, "bounding_box_fundus_pixel"); err != nil {
		return err
	}
	return readBoundingBox(ctx, "bounding_box_trc_pixel")
}

// decodeRegistInfo handles @REGIST_INFO: two registration bounding boxes
// with a version string between them.
func decodeRegistInfo(ctx *decodeContext) error {
	if _, err := ctx.cur.ReadUint8(); err != nil {
		return err
	}
	if _, err := ctx.cur.ReadBytes(8); err != nil { // two unlabeled u32 fields
		return err
	}
	if err := readBoundingBox(ctx, "regist_bounding_box_fundus_pixel"); err != nil {
		return err
	}
	if _, err := ctx.cur.ReadBytes(32); err != nil { // version string
		return err
	}
	return readBoundingBox(ctx, "regist_bounding_box_trc_pixel")
}

// decodeFastQ2 handles @FAST_Q2_INFO: six f32 quality statistics, folded
// into the parameter map by index.
func decodeFastQ2(ctx *decodeContext) error {
	for i := 0; i < 6; i++ {
		v, err := ctx.cur.ReadFloat32()
		if err != nil {
			return fmt.Errorf("quality statistic %d: %w", i, err)
		}
		ctx.res.Parameters[fmt.Sprintf("fast_q2_stat_%d", i)] = float64(v)
	}
	return nil
}
