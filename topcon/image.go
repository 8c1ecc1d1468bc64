package topcon

// ImageKind distinguishes the reference image variants a container carries.
type ImageKind int

const (
	// KindColorFundus is the color fundus photograph.
	KindColorFundus ImageKind = iota

	// KindGrayscaleFundus is the grayscale (trichromatic-reduced) fundus
	// raster from @IMG_TRC_02.
	KindGrayscaleFundus
)

func (k ImageKind) String() string {
	switch k {
	case KindColorFundus:
		return "color fundus"
	case KindGrayscaleFundus:
		return "grayscale fundus"
	default:
		return "unknown"
	}
}

// FundusImage is a 2D reference raster captured alongside the scan.
// Color images are stored as interleaved R,G,B triplets (the vendor's
// reversed channel order is corrected during assembly); grayscale images
// are one byte per pixel.
type FundusImage struct {
	SourceTag string
	Kind      ImageKind

	Width    int
	Height   int
	Channels int

	// Pix is Width*Height*Channels bytes, row-major.
	Pix []uint8
}

// At returns the channel c value of the pixel at (x, y).
func (f *FundusImage) At(x, y, c int) uint8 {
	return f.Pix[(y*f.Width+x)*f.Channels+c]
}
