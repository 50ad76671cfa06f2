// Package spatial buffers a claim point, overlays it with detected asset
// polygons, and aggregates per-class area in a planar projection.
package spatial

import (
	"math"

	"github.com/twpayne/go-geom"
)

// Spherical Web Mercator (EPSG:3857) radius in meters. Area aggregation
// matches the original evaluation pipeline, which measured intersections in
// this projection.
const mercatorRadius = 6378137.0

// Square meters per hectare.
const sqmPerHectare = 10_000.0

// degreesPerKM approximates one kilometer in degrees of latitude, used to
// size the WGS84 buffer circle.
const degreesPerKM = 1.0 / 111.0

// WebMercator projects a WGS84 lon/lat coordinate to planar meters.
func WebMercator(lon, lat float64) (x, y float64) {
	x = mercatorRadius * lon * math.Pi / 180
	y = mercatorRadius * math.Log(math.Tan(math.Pi/4+lat*math.Pi/360))
	return x, y
}

// projectGeometry rebuilds a geometry with every vertex projected to Web
// Mercator. Only polygons and multipolygons are supported; anything else
// returns nil and is skipped by the caller.
func projectGeometry(g geom.T) geom.T {
	switch t := g.(type) {
	case *geom.Polygon:
		return geom.NewPolygonFlat(geom.XY, projectFlat(t.FlatCoords()), t.Ends())
	case *geom.MultiPolygon:
		return geom.NewMultiPolygonFlat(geom.XY, projectFlat(t.FlatCoords()), t.Endss())
	default:
		return nil
	}
}

func projectFlat(flat []float64) []float64 {
	out := make([]float64, len(flat))
	for i := 0; i+1 < len(flat); i += 2 {
		out[i], out[i+1] = WebMercator(flat[i], flat[i+1])
	}
	return out
}

// planarAreaSqm returns the absolute planar area of a projected polygon or
// multipolygon in square meters.
func planarAreaSqm(g geom.T) float64 {
	switch t := g.(type) {
	case *geom.Polygon:
		return math.Abs(t.Area())
	case *geom.MultiPolygon:
		return math.Abs(t.Area())
	default:
		return 0
	}
}

// Hectares converts square meters to hectares.
func Hectares(sqm float64) float64 {
	return sqm / sqmPerHectare
}
