package topcon

import (
	"fmt"

	"github.com/oculab/go-topcon/internal/pixel"
)

// fdsRegistry is the tag table for the uncompressed .fds dialect.
var fdsRegistry = &registry{decoders: map[string]decoderFunc{
	"@IMG_SCAN_03":      decodeScan03,
	"@IMG_SCAN_02":      decodeScan02,
	"@IMG_OBS":          decodeObs,
	"@IMG_TRC_02":       decodeTRC02,
	"@PARAM_SCAN_04":    decodeParamScan04,
	"@PARAM_SCAN_02":    decodeParamScan02,
	"@PATIENT_INFO_02":  decodePatientInfo02,
	"@CAPTURE_INFO_02":  decodeCaptureInfo02,
	"@CAPTURE_INFO":     decodeCaptureInfo,
	"@HW_INFO_03":       decodeHWInfo03,
	"@FILE_INFO":        decodeFileInfo,
	"@MAIN_MODULE_INFO": decodeMainModuleInfo,
	"@FAST_Q2_INFO":     decodeFastQ2,

	"@EFFECTIVE_SCAN_RANGE": decodeEffectiveScanRange,
	"@REGIST_INFO":          decodeRegistInfo,
}}

// scanGeometry is the shared tail of the raw scan sub-headers: four u32
// dimension fields, a format byte, and a declared data size.
type scanGeometry struct {
	geom   pixel.Geometry
	format uint8
	size   uint32
}

func readScanGeometry(ctx *decodeContext) (scanGeometry, error) {
	var sg scanGeometry
	var err error
	if sg.geom.Width, err = ctx.cur.ReadUint32(); err != nil {
		return sg, fmt.Errorf("width: %w", err)
	}
	if sg.geom.Height, err = ctx.cur.ReadUint32(); err != nil {
		return sg, fmt.Errorf("height: %w", err)
	}
	if sg.geom.BitsPerPixel, err = ctx.cur.ReadUint32(); err != nil {
		return sg, fmt.Errorf("bits per pixel: %w", err)
	}
	if sg.geom.Slices, err = ctx.cur.ReadUint32(); err != nil {
		return sg, fmt.Errorf("slice count: %w", err)
	}
	if sg.format, err = ctx.cur.ReadUint8(); err != nil {
		return sg, fmt.Errorf("format: %w", err)
	}
	if sg.size, err = ctx.cur.ReadUint32(); err != nil {
		return sg, fmt.Errorf("size: %w", err)
	}
	return sg, nil
}

// assembleScan reads the sample data following a scan sub-header and appends
// the resulting volume. The geometry product is bounded by the remaining
// declared payload; violation is the structural-inconsistency case.
func assembleScan(ctx *decodeContext, scanMode uint8, sg scanGeometry) error {
	need, err := sg.geom.ByteSize()
	if err != nil {
		return err
	}
	if need > ctx.cur.Remaining() {
		return fmt.Errorf("geometry %dx%dx%d at %d bpp needs %d bytes, payload has %d",
			sg.geom.Width, sg.geom.Height, sg.geom.Slices, sg.geom.BitsPerPixel,
			need, ctx.cur.Remaining())
	}
	raw, err := ctx.cur.ReadBytes(need)
	if err != nil {
		return err
	}

	slices, err := pixel.AssembleVolume(raw, sg.geom)
	if err != nil {
		return err
	}

	ctx.res.Volumes = append(ctx.res.Volumes, &OCTVolume{
		SourceTag:    ctx.hdr.Tag,
		Width:        sg.geom.Width,
		Height:       sg.geom.Height,
		BitsPerPixel: sg.geom.BitsPerPixel,
		ScanMode:     scanMode,
		Slices:       slices,
	})
	return nil
}

// decodeScan03 handles @IMG_SCAN_03 (and FDA's identically shaped
// @IMG_MOT_COMP_03): scan mode byte, geometry, raw 16-bit samples.
func decodeScan03(ctx *decodeContext) error {
	scanMode, err := ctx.cur.ReadUint8()
	if err != nil {
		return fmt.Errorf("scan mode: %w", err)
	}
	sg, err := readScanGeometry(ctx)
	if err != nil {
		return err
	}
	return assembleScan(ctx, scanMode, sg)
}

// decodeScan02 handles the older @IMG_SCAN_02 layout, which carries an
// extra quality float between the slice count and the format byte.
func decodeScan02(ctx *decodeContext) error {
	scanMode, err := ctx.cur.ReadUint8()
	if err != nil {
		return fmt.Errorf("scan mode: %w", err)
	}

	var sg scanGeometry
	if sg.geom.Width, err = ctx.cur.ReadUint32(); err != nil {
		return fmt.Errorf("width: %w", err)
	}
	if sg.geom.Height, err = ctx.cur.ReadUint32(); err != nil {
		return fmt.Errorf("height: %w", err)
	}
	if sg.geom.BitsPerPixel, err = ctx.cur.ReadUint32(); err != nil {
		return fmt.Errorf("bits per pixel: %w", err)
	}
	if sg.geom.Slices, err = ctx.cur.ReadUint32(); err != nil {
		return fmt.Errorf("slice count: %w", err)
	}
	fastQ, err := ctx.cur.ReadFloat64()
	if err != nil {
		return fmt.Errorf("fast_q: %w", err)
	}
	if sg.format, err = ctx.cur.ReadUint8(); err != nil {
		return fmt.Errorf("format: %w", err)
	}
	if sg.size, err = ctx.cur.ReadUint32(); err != nil {
		return fmt.Errorf("size: %w", err)
	}

	ctx.res.Parameters["fast_q"] = fastQ
	return assembleScan(ctx, scanMode, sg)
}

// decodeObs handles @IMG_OBS: a color reference photograph stored as raw
// interleaved B,G,R triplets.
func decodeObs(ctx *decodeContext) error {
	sg, err := readScanGeometry(ctx)
	if err != nil {
		return err
	}
	raw, err := ctx.cur.ReadBytes(int(sg.size))
	if err != nil {
		return fmt.Errorf("declared image size %d exceeds payload: %w", sg.size, err)
	}

	pix, err := pixel.AssembleColor(raw, int(sg.geom.Width), int(sg.geom.Height))
	if err != nil {
		return err
	}

	ctx.res.Images = append(ctx.res.Images, &FundusImage{
		SourceTag: ctx.hdr.Tag,
		Kind:      KindColorFundus,
		Width:     int(sg.geom.Width),
		Height:    int(sg.geom.Height),
		Channels:  3,
		Pix:       pix,
	})
	return nil
}
