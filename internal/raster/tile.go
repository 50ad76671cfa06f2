// Package raster implements the remote-sensing classification pipeline:
// spectral index computation, threshold masking with morphological cleanup,
// and raster-to-vector contour tracing.
package raster

import (
	"github.com/rotisserie/eris"
)

// Band names the reflectance bands the pipeline consumes.
type Band string

// Bands required by the spectral index formulas.
const (
	BandBlue  Band = "blue"
	BandGreen Band = "green"
	BandRed   Band = "red"
	BandNIR   Band = "nir"
	BandSWIR1 Band = "swir1"
)

// RequiredBands lists the bands a tile must carry, in provider order.
var RequiredBands = []Band{BandBlue, BandGreen, BandRed, BandNIR, BandSWIR1}

// Grid is a row-major 2-D numeric grid. Row 0 is the northernmost row.
type Grid [][]float64

// NewGrid allocates a zeroed width x height grid.
func NewGrid(width, height int) Grid {
	g := make(Grid, height)
	for y := range g {
		g[y] = make([]float64, width)
	}
	return g
}

// BBox is a geographic bounding box in WGS84.
type BBox struct {
	West  float64 `json:"west"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	North float64 `json:"north"`
}

// Tile is a multi-band reflectance raster covering a bounding box.
// All bands share identical dimensions.
type Tile struct {
	BBox   BBox
	Width  int
	Height int
	Bands  map[Band]Grid
}

// Validate checks the band-dimension invariant and that every required band
// is present.
func (t *Tile) Validate() error {
	if t.Width <= 0 || t.Height <= 0 {
		return eris.Errorf("raster: invalid tile dimensions %dx%d", t.Width, t.Height)
	}
	for _, name := range RequiredBands {
		g, ok := t.Bands[name]
		if !ok {
			return eris.Errorf("raster: missing band %q", name)
		}
		if len(g) != t.Height {
			return eris.Errorf("raster: band %q has %d rows, want %d", name, len(g), t.Height)
		}
		for y := range g {
			if len(g[y]) != t.Width {
				return eris.Errorf("raster: band %q row %d has %d cols, want %d", name, y, len(g[y]), t.Width)
			}
		}
	}
	return nil
}
