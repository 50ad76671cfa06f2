package raster

import (
	"github.com/rotisserie/eris"
)

// epsilon keeps normalized-difference denominators away from zero. NaN input
// pixels propagate through the formulas and later fail every threshold
// comparison, so they never enter a class mask.
const epsilon = 1e-6

// IndexSet holds the spectral index grids derived from one tile. Each grid
// is aligned 1:1 with the tile's band grids.
type IndexSet struct {
	NDVI  Grid // vegetation: (NIR - Red) / (NIR + Red)
	NDWI  Grid // water:      (Green - NIR) / (Green + NIR)
	MNDWI Grid // water:      (Green - SWIR1) / (Green + SWIR1)
	NDBI  Grid // built-up:   (SWIR1 - NIR) / (SWIR1 + NIR)
	BSI   Grid // bare soil:  ((SWIR1+Red)-(NIR+Blue)) / ((SWIR1+Red)+(NIR+Blue))
}

// ComputeIndices derives all spectral indices from a tile's bands.
func ComputeIndices(t *Tile) (*IndexSet, error) {
	if err := t.Validate(); err != nil {
		return nil, eris.Wrap(err, "raster: compute indices")
	}

	blue := t.Bands[BandBlue]
	green := t.Bands[BandGreen]
	red := t.Bands[BandRed]
	nir := t.Bands[BandNIR]
	swir1 := t.Bands[BandSWIR1]

	return &IndexSet{
		NDVI:  normalizedDifference(nir, red),
		NDWI:  normalizedDifference(green, nir),
		MNDWI: normalizedDifference(green, swir1),
		NDBI:  normalizedDifference(swir1, nir),
		BSI:   bareSoilIndex(blue, red, nir, swir1),
	}, nil
}

// normalizedDifference computes (a - b) / (a + b + epsilon) pixel-wise.
func normalizedDifference(a, b Grid) Grid {
	out := make(Grid, len(a))
	for y := range a {
		row := make([]float64, len(a[y]))
		for x := range a[y] {
			row[x] = (a[y][x] - b[y][x]) / (a[y][x] + b[y][x] + epsilon)
		}
		out[y] = row
	}
	return out
}

// bareSoilIndex computes BSI = ((SWIR1+Red)-(NIR+Blue)) / ((SWIR1+Red)+(NIR+Blue)+epsilon).
func bareSoilIndex(blue, red, nir, swir1 Grid) Grid {
	out := make(Grid, len(red))
	for y := range red {
		row := make([]float64, len(red[y]))
		for x := range red[y] {
			plus := swir1[y][x] + red[y][x]
			minus := nir[y][x] + blue[y][x]
			row[x] = (plus - minus) / (plus + minus + epsilon)
		}
		out[y] = row
	}
	return out
}
