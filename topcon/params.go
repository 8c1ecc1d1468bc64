package topcon

// ScanParameters maps named physical quantities from the parameter chunks
// to their values. Partial presence is normal: a parameter absent from the
// file is simply absent from the map.
//
// Keys follow the vendor field names, e.g. "x_dimension_mm",
// "y_dimension_mm", "z_resolution_um", "fixation", "comp_eff_2".
type ScanParameters map[string]float64

// Lookup returns the named parameter and whether it was present.
func (p ScanParameters) Lookup(name string) (float64, bool) {
	v, ok := p[name]
	return v, ok
}

// merge folds src into p, later chunks overriding earlier ones.
func (p ScanParameters) merge(src map[string]float64) {
	for k, v := range src {
		p[k] = v
	}
}

// Contour is one retinal layer boundary surface from an @CONTOUR_INFO
// chunk: a Width×NumSlices grid of heights measured in pixels from the
// B-scan bottom.
type Contour struct {
	// Layer is the anatomical boundary name (e.g. "ILM", "BM") when the
	// vendor id is a known MULTILAYERS index, otherwise the raw id.
	Layer string

	// ID is the raw vendor identifier, e.g. "MULTILAYERS_1".
	ID string

	Width  uint32
	Height uint32

	// Heights is Width*Height values, row-major, rows in top-down order.
	Heights []uint16
}

// contourLayers maps vendor MULTILAYERS ids to anatomical boundary names.
var contourLayers = map[string]string{
	"MULTILAYERS_1":  "ILM",
	"MULTILAYERS_2":  "RNFL_GCL",
	"MULTILAYERS_3":  "GCL_IPL",
	"MULTILAYERS_4":  "IPL_INL",
	"MULTILAYERS_5":  "MZ_EZ",
	"MULTILAYERS_6":  "IZ_RPE",
	"MULTILAYERS_7":  "BM",
	"MULTILAYERS_8":  "INL_OPL",
	"MULTILAYERS_9":  "ELM",
	"MULTILAYERS_10": "CSI",
}
