package topcon

import (
	"bytes"
	"image"
	"image/jpeg"
	"reflect"
	"testing"
)

func encodeGrayJPEG(t *testing.T, w, h int, val uint8) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = val
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 100}); err != nil {
		t.Fatalf("jpeg.Encode failed: %v", err)
	}
	return buf.Bytes()
}

func encodeColorJPEG(t *testing.T, w, h int, r, g, b uint8) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = r, g, b, 255
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 100}); err != nil {
		t.Fatalf("jpeg.Encode failed: %v", err)
	}
	return buf.Bytes()
}

func imgJPEGPayload(scanMode uint8, w, h uint32, slices [][]byte) []byte {
	p := []byte{scanMode}
	p = append(p, u32(0, 0, w, h, uint32(len(slices)), 0)...)
	for _, s := range slices {
		p = append(p, u32(uint32(len(s)))...)
		p = append(p, s...)
	}
	return p
}

func within(a, b uint8, tol int) bool {
	d := int(a) - int(b)
	if d < 0 {
		d = -d
	}
	return d <= tol
}

func TestDecodeJPEGVolume(t *testing.T) {
	slice := encodeGrayJPEG(t, 8, 6, 128)
	data := newContainer("FDA").
		addChunk("@IMG_JPEG", imgJPEGPayload(2, 8, 6, [][]byte{slice, slice, slice})).
		bytes()

	res, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(res.Volumes) != 1 {
		t.Fatalf("expected 1 volume, got %d (warnings %v)", len(res.Volumes), res.Warnings)
	}

	v := res.Volumes[0]
	if v.Width != 8 || v.Height != 6 || v.NumSlices() != 3 {
		t.Fatalf("geometry: got %dx%d, %d slices", v.Width, v.Height, v.NumSlices())
	}
	// Flat-field JPEG round-trips within quantization error.
	if got := v.At(1, 3, 2); !within(uint8(got), 128, 2) {
		t.Errorf("sample: expected ~128, got %d", got)
	}
}

func TestDecodeJPEGVolumeBadStream(t *testing.T) {
	// A slice that is not a decodable JPEG drops the whole chunk to a
	// warning; the decode itself succeeds.
	bogus := []byte{0xFF, 0x4F, 0xFF, 0x51, 0x00, 0x00} // JPEG 2000 SOC marker
	data := newContainer("FDA").
		addChunk("@IMG_JPEG", imgJPEGPayload(2, 4, 4, [][]byte{bogus})).
		bytes()

	res, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(res.Volumes) != 0 {
		t.Errorf("undecodable chunk contributed a volume")
	}
	if len(res.Warnings) != 1 || res.Warnings[0].Tag != "@IMG_JPEG" {
		t.Errorf("expected one @IMG_JPEG warning, got %v", res.Warnings)
	}
}

func TestDecodeJPEGVolumeOversizedSliceCount(t *testing.T) {
	// A slice count far beyond what the payload could hold must not size
	// the slice table; the chunk degrades to a warning when the data runs
	// out.
	p := []byte{2}
	p = append(p, u32(0, 0, 4, 4, 0xFFFFFFFF, 0)...)

	res, err := Decode(newContainer("FDA").addChunk("@IMG_JPEG", p).bytes())
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(res.Volumes) != 0 {
		t.Error("oversized chunk contributed a volume")
	}
	if len(res.Warnings) != 1 || res.Warnings[0].Tag != "@IMG_JPEG" {
		t.Errorf("expected one @IMG_JPEG warning, got %v", res.Warnings)
	}
}

func TestDecodeFundusJPEG(t *testing.T) {
	stream := encodeColorJPEG(t, 4, 2, 200, 100, 50)
	payload := u32(4, 2, 24, 1)
	payload = append(payload, "JPG\x00"...)
	payload = append(payload, u32(uint32(len(stream)))...)
	payload = append(payload, stream...)

	res, err := Decode(newContainer("FDA").addChunk("@IMG_FUNDUS", payload).bytes())
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(res.Images) != 1 {
		t.Fatalf("expected 1 image, got %d (warnings %v)", len(res.Images), res.Warnings)
	}

	img := res.Images[0]
	if img.Width != 4 || img.Height != 2 || img.Channels != 3 {
		t.Fatalf("geometry: got %dx%d/%d", img.Width, img.Height, img.Channels)
	}
	// The stored order is the reverse of the encoded RGB.
	if !within(img.At(0, 0, 0), 50, 4) || !within(img.At(0, 0, 2), 200, 4) {
		t.Errorf("channels not swapped: pixel %v", img.Pix[:3])
	}
}

func TestDecodeTRC02Raw(t *testing.T) {
	// FDS files carry @IMG_TRC_02 as a raw 8-bit raster.
	raw := []byte{1, 2, 3, 4, 5, 6}
	payload := u32(3, 2, 8, 2)
	payload = append(payload, 0) // format
	payload = append(payload, u32(uint32(len(raw)))...)
	payload = append(payload, raw...)

	res, err := Decode(newContainer("FDS").addChunk("@IMG_TRC_02", payload).bytes())
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(res.Images) != 1 {
		t.Fatalf("expected 1 image, got %d (warnings %v)", len(res.Images), res.Warnings)
	}

	img := res.Images[0]
	if img.Kind != KindGrayscaleFundus || img.Channels != 1 {
		t.Errorf("expected 1-channel grayscale fundus, got %s/%d", img.Kind, img.Channels)
	}
	if !reflect.DeepEqual(img.Pix, raw) {
		t.Errorf("expected %v, got %v", raw, img.Pix)
	}
}

func TestDecodeTRC02JPEG(t *testing.T) {
	// FDA files carry the same tag as a JPEG stream.
	stream := encodeGrayJPEG(t, 4, 4, 77)
	payload := u32(4, 4, 8, 2)
	payload = append(payload, 0)
	payload = append(payload, u32(uint32(len(stream)))...)
	payload = append(payload, stream...)

	res, err := Decode(newContainer("FDA").addChunk("@IMG_TRC_02", payload).bytes())
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(res.Images) != 1 {
		t.Fatalf("expected 1 image, got %d (warnings %v)", len(res.Images), res.Warnings)
	}
	if got := res.Images[0].At(2, 2, 0); !within(got, 77, 2) {
		t.Errorf("sample: expected ~77, got %d", got)
	}
}

func contourPayload(id string, w, h uint32, values []uint16) []byte {
	p := make([]byte, 20)
	copy(p, id)
	p = append(p, 0, 0) // method, format
	p = append(p, u32(w, h)...)
	p = append(p, u32(uint32(len(values)*2))...)
	return append(p, u16(values...)...)
}

func TestDecodeContours(t *testing.T) {
	data := newContainer("FDA").
		addChunk("@CONTOUR_INFO", contourPayload("MULTILAYERS_1", 3, 2, []uint16{1, 2, 3, 4, 5, 6})).
		addChunk("@CONTOUR_INFO", contourPayload("CUSTOM_X", 1, 1, []uint16{9})).
		bytes()

	res, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(res.Contours) != 2 {
		t.Fatalf("expected 2 contours, got %d (warnings %v)", len(res.Contours), res.Warnings)
	}

	c := res.Contours[0]
	if c.Layer != "ILM" || c.ID != "MULTILAYERS_1" {
		t.Errorf("layer mapping: got %q (%q)", c.Layer, c.ID)
	}
	// Rows are stored bottom-up and come back top-down.
	want := []uint16{4, 5, 6, 1, 2, 3}
	if !reflect.DeepEqual(c.Heights, want) {
		t.Errorf("heights: expected %v, got %v", want, c.Heights)
	}

	// An unmapped id passes through as the layer name.
	if res.Contours[1].Layer != "CUSTOM_X" {
		t.Errorf("unmapped id: got %q", res.Contours[1].Layer)
	}
}

func TestDecodeContourOversizedDimensions(t *testing.T) {
	// Dimension fields whose product wraps a native int must degrade to a
	// warning, not size an allocation.
	p := make([]byte, 20)
	copy(p, "MULTILAYERS_1")
	p = append(p, 0, 0) // method, format
	p = append(p, u32(0xFFFFFFFF, 0xFFFFFFFF, 0)...)

	res, err := Decode(newContainer("FDA").addChunk("@CONTOUR_INFO", p).bytes())
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(res.Contours) != 0 {
		t.Error("oversized contour contributed data")
	}
	if len(res.Warnings) != 1 || res.Warnings[0].Tag != "@CONTOUR_INFO" {
		t.Errorf("expected one @CONTOUR_INFO warning, got %v", res.Warnings)
	}
}

func TestDecodeContourTruncatedData(t *testing.T) {
	p := contourPayload("MULTILAYERS_2", 100, 100, []uint16{1, 2})
	res, err := Decode(newContainer("FDA").addChunk("@CONTOUR_INFO", p).bytes())
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(res.Contours) != 0 {
		t.Error("truncated contour contributed data")
	}
	if len(res.Warnings) != 1 {
		t.Errorf("expected 1 warning, got %v", res.Warnings)
	}
}
