package topcon

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"

	"github.com/oculab/go-topcon/internal/pixel"
)

// fdaRegistry is the tag table for the .fda dialect. It overlaps the FDS
// table for parameter and metadata chunks, but the image tags differ: the
// primary volume is JPEG-compressed and the fundus rasters arrive as JPEG
// streams rather than raw triplets.
var fdaRegistry = &registry{decoders: map[string]decoderFunc{
	"@IMG_JPEG":         decodeJPEGVolume,
	"@IMG_MOT_COMP_03":  decodeScan03,
	"@IMG_FUNDUS":       decodeFundusJPEG,
	"@IMG_TRC_02":       decodeTRC02,
	"@CONTOUR_INFO":     decodeContour,
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

// jpegMagic is the SOI marker opening every JPEG stream.
var jpegMagic = []byte{0xFF, 0xD8}

// decodeJPEGVolume handles @IMG_JPEG: a scan mode byte, three unknown u32
// fields bracketing the dimensions, then one length-prefixed JPEG stream
// per slice. A slice that fails to decode (some firmware writes JPEG 2000
// codestreams here) drops the whole chunk to a warning.
func decodeJPEGVolume(ctx *decodeContext) error {
	scanMode, err := ctx.cur.ReadUint8()
	if err != nil {
		return fmt.Errorf("scan mode: %w", err)
	}
	if err := ctx.cur.Skip(8); err != nil {
		return err
	}
	width, err := ctx.cur.ReadUint32()
	if err != nil {
		return fmt.Errorf("width: %w", err)
	}
	height, err := ctx.cur.ReadUint32()
	if err != nil {
		return fmt.Errorf("height: %w", err)
	}
	numSlices, err := ctx.cur.ReadUint32()
	if err != nil {
		return fmt.Errorf("slice count: %w", err)
	}
	if err := ctx.cur.Skip(4); err != nil {
		return err
	}

	// Each slice carries at least its 4 byte length prefix, so the payload
	// bounds how many slices can really follow. A bogus count must not
	// size the slice table.
	capHint := uint64(numSlices)
	if limit := uint64(ctx.cur.Remaining() / 4); capHint > limit {
		capHint = limit
	}
	slices := make([][]uint16, 0, capHint)
	for i := 0; i < int(numSlices); i++ {
		n, err := ctx.cur.ReadUint32()
		if err != nil {
			return fmt.Errorf("slice %d length: %w", i, err)
		}
		raw, err := ctx.cur.ReadBytes(int(n))
		if err != nil {
			return fmt.Errorf("slice %d data (%d bytes): %w", i, n, err)
		}
		img, err := jpeg.Decode(bytes.NewReader(raw))
		if err != nil {
			return fmt.Errorf("slice %d: %w", i, err)
		}
		slice, err := graySamples(img, int(width), int(height))
		if err != nil {
			return fmt.Errorf("slice %d: %w", i, err)
		}
		slices = append(slices, slice)
	}

	ctx.res.Volumes = append(ctx.res.Volumes, &OCTVolume{
		SourceTag:    ctx.hdr.Tag,
		Width:        width,
		Height:       height,
		BitsPerPixel: 8,
		ScanMode:     scanMode,
		Slices:       slices,
	})
	return nil
}

// decodeFundusJPEG handles @IMG_FUNDUS: a geometry sub-header with a 4-byte
// format string, then one JPEG stream. The encoded channel order is the
// reverse of conventional RGB, so the decoded raster is channel-swapped.
func decodeFundusJPEG(ctx *decodeContext) error {
	width, err := ctx.cur.ReadUint32()
	if err != nil {
		return fmt.Errorf("width: %w", err)
	}
	height, err := ctx.cur.ReadUint32()
	if err != nil {
		return fmt.Errorf("height: %w", err)
	}
	if _, err := ctx.cur.ReadUint32(); err != nil { // bits per pixel
		return err
	}
	if _, err := ctx.cur.ReadUint32(); err != nil { // slice count
		return err
	}
	if _, err := ctx.cur.ReadString(4); err != nil { // format
		return err
	}
	size, err := ctx.cur.ReadUint32()
	if err != nil {
		return fmt.Errorf("size: %w", err)
	}

	raw, err := ctx.cur.ReadBytes(int(size))
	if err != nil {
		return fmt.Errorf("declared image size %d exceeds payload: %w", size, err)
	}
	img, err := jpeg.Decode(bytes.NewReader(raw))
	if err != nil {
		return err
	}
	pix, err := rgbSamples(img, int(width), int(height))
	if err != nil {
		return err
	}
	pixel.SwapRB(pix)

	ctx.res.Images = append(ctx.res.Images, &FundusImage{
		SourceTag: ctx.hdr.Tag,
		Kind:      KindColorFundus,
		Width:     int(width),
		Height:    int(height),
		Channels:  3,
		Pix:       pix,
	})
	return nil
}

// decodeTRC02 handles @IMG_TRC_02, the grayscale fundus raster. FDS files
// store it raw; FDA files store a JPEG stream behind the same sub-header.
// The payload is sniffed for the JPEG SOI marker rather than keyed off the
// dialect, since the format byte is not reliable across firmware.
func decodeTRC02(ctx *decodeContext) error {
	sg, err := readScanGeometry(ctx)
	if err != nil {
		return err
	}
	raw, err := ctx.cur.ReadBytes(int(sg.size))
	if err != nil {
		return fmt.Errorf("declared image size %d exceeds payload: %w", sg.size, err)
	}

	var pix []uint8
	if bytes.HasPrefix(raw, jpegMagic) {
		img, err := jpeg.Decode(bytes.NewReader(raw))
		if err != nil {
			return err
		}
		pix, err = graySamples8(img, int(sg.geom.Width), int(sg.geom.Height))
		if err != nil {
			return err
		}
	} else {
		pix, err = pixel.AssembleGray(raw, int(sg.geom.Width), int(sg.geom.Height))
		if err != nil {
			return err
		}
	}

	ctx.res.Images = append(ctx.res.Images, &FundusImage{
		SourceTag: ctx.hdr.Tag,
		Kind:      KindGrayscaleFundus,
		Width:     int(sg.geom.Width),
		Height:    int(sg.geom.Height),
		Channels:  1,
		Pix:       pix,
	})
	return nil
}

// decodeContour handles one @CONTOUR_INFO occurrence: a retinal layer
// boundary surface of width×height uint16 heights. The chunk repeats once
// per layer, so occurrences accumulate rather than overwrite.
func decodeContour(ctx *decodeContext) error {
	idRaw, err := ctx.cur.ReadBytes(20)
	if err != nil {
		return fmt.Errorf("id: %w", err)
	}
	id := decodeVendorString(idRaw)
	if _, err := ctx.cur.ReadUint8(); err != nil { // method
		return err
	}
	if _, err := ctx.cur.ReadUint8(); err != nil { // format
		return err
	}
	width, err := ctx.cur.ReadUint32()
	if err != nil {
		return fmt.Errorf("width: %w", err)
	}
	height, err := ctx.cur.ReadUint32()
	if err != nil {
		return fmt.Errorf("height: %w", err)
	}
	if _, err := ctx.cur.ReadUint32(); err != nil { // size
		return err
	}

	// The product is computed in uint64 so corrupt dimension fields cannot
	// wrap the bounds check and size an allocation.
	n := uint64(width) * uint64(height)
	if n > uint64(ctx.cur.Remaining())/2 {
		return fmt.Errorf("contour %s: %dx%d needs %d samples, payload has %d bytes",
			id, width, height, n, ctx.cur.Remaining())
	}
	values, err := readU16s(ctx.cur, int(n))
	if err != nil {
		return err
	}

	// Rows are stored bottom-up; flip to top-down.
	heights := make([]uint16, n)
	w, h := int(width), int(height)
	for y := 0; y < h; y++ {
		copy(heights[(h-1-y)*w:(h-y)*w], values[y*w:(y+1)*w])
	}

	layer := id
	if name, ok := contourLayers[id]; ok {
		layer = name
	}
	ctx.res.Contours = append(ctx.res.Contours, &Contour{
		Layer:   layer,
		ID:      id,
		Width:   width,
		Height:  height,
		Heights: heights,
	})
	return nil
}

// graySamples converts a decoded slice image to row-major samples, checking
// the decoded bounds against the chunk's declared geometry.
func graySamples(img image.Image, width, height int) ([]uint16, error) {
	b := img.Bounds()
	if b.Dx() != width || b.Dy() != height {
		return nil, fmt.Errorf("decoded %dx%d does not match declared %dx%d",
			b.Dx(), b.Dy(), width, height)
	}
	out := make([]uint16, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			g := color.GrayModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray)
			out[y*width+x] = uint16(g.Y)
		}
	}
	return out, nil
}

func graySamples8(img image.Image, width, height int) ([]uint8, error) {
	b := img.Bounds()
	if b.Dx() != width || b.Dy() != height {
		return nil, fmt.Errorf("decoded %dx%d does not match declared %dx%d",
			b.Dx(), b.Dy(), width, height)
	}
	out := make([]uint8, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			g := color.GrayModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray)
			out[y*width+x] = g.Y
		}
	}
	return out, nil
}

func rgbSamples(img image.Image, width, height int) ([]uint8, error) {
	b := img.Bounds()
	if b.Dx() != width || b.Dy() != height {
		return nil, fmt.Errorf("decoded %dx%d does not match declared %dx%d",
			b.Dx(), b.Dy(), width, height)
	}
	out := make([]uint8, width*height*3)
	i := 0
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			out[i] = uint8(r >> 8)
			out[i+1] = uint8(g >> 8)
			out[i+2] = uint8(bl >> 8)
			i += 3
		}
	}
	return out, nil
}
