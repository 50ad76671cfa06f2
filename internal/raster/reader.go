package raster

import (
	"github.com/airbusgeo/godal"
	"github.com/rotisserie/eris"
)

// ReadTile decodes a multi-band GeoTIFF into a Tile. The provider evalscript
// emits bands in RequiredBands order (blue, green, red, nir, swir1).
func ReadTile(path string, bbox BBox) (*Tile, error) {
	ds, err := godal.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "raster: open dataset %s", path)
	}
	defer func() { _ = ds.Close() }()

	bands := ds.Bands()
	if len(bands) < len(RequiredBands) {
		return nil, eris.Errorf("raster: dataset has %d bands, want %d", len(bands), len(RequiredBands))
	}

	tile := &Tile{BBox: bbox, Bands: make(map[Band]Grid, len(RequiredBands))}
	for i, name := range RequiredBands {
		grid, width, height, err := readBand(bands[i])
		if err != nil {
			return nil, eris.Wrapf(err, "raster: read band %q", name)
		}
		if tile.Width == 0 {
			tile.Width, tile.Height = width, height
		}
		tile.Bands[name] = grid
	}

	if err := tile.Validate(); err != nil {
		return nil, err
	}
	return tile, nil
}

// readBand reads one full band into a row-major grid.
func readBand(band godal.Band) (Grid, int, int, error) {
	structure := band.Structure()
	width, height := structure.SizeX, structure.SizeY

	data := make([]float64, width*height)
	if err := band.Read(0, 0, data, width, height); err != nil {
		return nil, 0, 0, err
	}

	grid := make(Grid, height)
	for y := range grid {
		grid[y] = data[y*width : (y+1)*width]
	}
	return grid, width, height, nil
}
