package topcon

import (
	"bytes"
	"time"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
)

// PatientInfo carries the demographic fields of @PATIENT_INFO_02.
// Fields the file leaves blank are empty strings / zero times.
type PatientInfo struct {
	ID        string
	GivenName string
	Surname   string
	// Sex is "M", "F", "O", or "" when unrecorded.
	Sex       string
	BirthDate time.Time
}

// CaptureInfo carries the acquisition fields of @CAPTURE_INFO_02 /
// @CAPTURE_INFO.
type CaptureInfo struct {
	// Laterality is "R" or "L".
	Laterality string
	ScanMode   uint8
	SessionID  uint32
	Label      string
	// AcquisitionDate is zero when the capture date fields are all zero.
	AcquisitionDate time.Time
}

// HardwareInfo carries the scanner identity fields of @HW_INFO_03.
type HardwareInfo struct {
	ModelName      string
	SerialNumber   string
	SpectrometerSN string
	ROMVersion     string

	EquipmentCalibration    time.Time
	SpectrometerCalibration time.Time
}

// SoftwareInfo carries version identifiers from @FILE_INFO and
// @MAIN_MODULE_INFO.
type SoftwareInfo struct {
	// Name is the capture software name from @MAIN_MODULE_INFO.
	Name string

	// Version is the dotted module version from @MAIN_MODULE_INFO.
	Version string

	// FileVersion is the version string embedded in @FILE_INFO.
	FileVersion string
}

// decodeVendorString interprets a NUL-padded fixed-width string field.
// Fields are ASCII on most firmware; Japanese-market devices write
// Shift-JIS patient names, and some European units use Windows-1252.
// Plain ASCII is returned as-is; otherwise Shift-JIS is tried first and
// Windows-1252 (which never fails) is the fallback.
func decodeVendorString(b []byte) string {
	for i, ch := range b {
		if ch == 0 {
			b = b[:i]
			break
		}
	}
	ascii := true
	for _, ch := range b {
		if ch >= 0x80 {
			ascii = false
			break
		}
	}
	if ascii {
		return string(b)
	}
	// Invalid input surfaces as replacement runes rather than an error.
	if s, err := japanese.ShiftJIS.NewDecoder().Bytes(b); err == nil && !bytes.ContainsRune(s, utf8.RuneError) {
		return string(s)
	}
	s, _ := charmap.Windows1252.NewDecoder().Bytes(b)
	return string(s)
}

// vendorDate converts the vendor's uint16 date fields to a time.Time.
// All-zero fields (unrecorded) yield the zero time. Out-of-range values
// are left to time.Date's normalization, matching the original reader's
// tolerance.
func vendorDate(fields []uint16) time.Time {
	allZero := true
	for _, f := range fields {
		if f != 0 {
			allZero = false
			break
		}
	}
	if allZero {
		return time.Time{}
	}
	get := func(i int) int {
		if i < len(fields) {
			return int(fields[i])
		}
		return 0
	}
	return time.Date(get(0), time.Month(get(1)), get(2), get(3), get(4), get(5), 0, time.UTC)
}
