package raster

import (
	"github.com/rotisserie/eris"

	"github.com/gramsetu/claimeval/internal/model"
)

// Mask is a 0/1 grid marking membership of one asset class, aligned with the
// index grids it was thresholded from.
type Mask [][]uint8

// NewMask allocates a zeroed width x height mask.
func NewMask(width, height int) Mask {
	m := make(Mask, height)
	for y := range m {
		m[y] = make([]uint8, width)
	}
	return m
}

// Count returns the number of foreground pixels.
func (m Mask) Count() int {
	n := 0
	for y := range m {
		for x := range m[y] {
			if m[y][x] != 0 {
				n++
			}
		}
	}
	return n
}

// Thresholds holds the per-class classification cutoffs. Defaults were tuned
// for Sentinel-2 L2A reflectances at the fixed tile resolution.
type Thresholds struct {
	ForestNDVI      float64 // forest: NDVI > ForestNDVI
	CroplandNDVIMin float64 // cropland: CroplandNDVIMin < NDVI <= ForestNDVI
	WaterMNDWI      float64 // water: MNDWI > WaterMNDWI, or the NDWI clause below
	WaterNDWI       float64 // water clause: NDWI > WaterNDWI
	WaterNDVIMax    float64 // water clause: NDVI < WaterNDVIMax
	WaterBSIMax     float64 // water clause: BSI < WaterBSIMax
	UrbanNDBI       float64 // urban: NDBI > UrbanNDBI
	BarrenBSI       float64 // barren: BSI > BarrenBSI
}

// DefaultThresholds returns the canonical classification cutoffs.
func DefaultThresholds() Thresholds {
	return Thresholds{
		ForestNDVI:      0.50,
		CroplandNDVIMin: 0.20,
		WaterMNDWI:      -0.05,
		WaterNDWI:       0.05,
		WaterNDVIMax:    0.30,
		WaterBSIMax:     0.0,
		UrbanNDBI:       0.20,
		BarrenBSI:       0.20,
	}
}

// ClassMask thresholds the index set into a binary mask for one class.
// NaN pixels fail every comparison and stay background.
func ClassMask(class model.AssetType, idx *IndexSet, th Thresholds) (Mask, error) {
	height := len(idx.NDVI)
	width := 0
	if height > 0 {
		width = len(idx.NDVI[0])
	}
	m := NewMask(width, height)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var in bool
			switch class {
			case model.AssetForest:
				in = idx.NDVI[y][x] > th.ForestNDVI
			case model.AssetCropland:
				in = idx.NDVI[y][x] > th.CroplandNDVIMin && idx.NDVI[y][x] <= th.ForestNDVI
			case model.AssetWaterBody:
				in = idx.MNDWI[y][x] > th.WaterMNDWI ||
					(idx.NDWI[y][x] > th.WaterNDWI &&
						idx.NDVI[y][x] < th.WaterNDVIMax &&
						idx.BSI[y][x] < th.WaterBSIMax)
			case model.AssetUrban:
				in = idx.NDBI[y][x] > th.UrbanNDBI
			case model.AssetBarrenLand:
				in = idx.BSI[y][x] > th.BarrenBSI
			default:
				return nil, eris.Errorf("raster: unknown asset class %q", class)
			}
			if in {
				m[y][x] = 1
			}
		}
	}
	return m, nil
}
