package spatial

import (
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"github.com/twpayne/go-geos"
	"go.uber.org/zap"

	"github.com/gramsetu/claimeval/internal/model"
)

// bufferQuadSegs controls how many segments approximate a quarter circle in
// the claim buffer.
const bufferQuadSegs = 32

// Evaluator intersects a claim buffer with detected asset polygons and
// aggregates area per class.
type Evaluator struct {
	bufferKM float64
}

// NewEvaluator creates an Evaluator with the given buffer radius in
// kilometers.
func NewEvaluator(bufferKM float64) *Evaluator {
	return &Evaluator{bufferKM: bufferKM}
}

// Evaluate buffers the claim point, intersects every asset polygon with the
// buffer, and returns intersected area per class in hectares. Empty or
// invalid intersection results are dropped silently; they never fail the
// claim.
func (e *Evaluator) Evaluate(pt model.GeoPoint, coll *model.ClaimAssetCollection) (model.Areas, error) {
	var areas model.Areas
	if coll.Empty() {
		return areas, nil
	}

	buffer, err := claimBuffer(pt, e.bufferKM)
	if err != nil {
		return areas, eris.Wrap(err, "spatial: build claim buffer")
	}

	dropped := 0
	for _, asset := range coll.Assets {
		ha, ok := intersectionHectares(buffer, asset.Ring)
		if !ok {
			dropped++
			continue
		}
		switch asset.Type {
		case model.AssetForest:
			areas.ForestHa += ha
		case model.AssetCropland:
			areas.CroplandHa += ha
		case model.AssetWaterBody:
			areas.WaterHa += ha
		case model.AssetUrban:
			areas.UrbanHa += ha
		case model.AssetBarrenLand:
			areas.BarrenHa += ha
		}
	}
	areas.VegetationHa = areas.ForestHa + areas.CroplandHa

	if dropped > 0 {
		zap.L().Debug("spatial: dropped empty or invalid intersections",
			zap.String("claim_id", coll.ClaimID),
			zap.Int("dropped", dropped),
		)
	}
	return areas, nil
}

// claimBuffer builds a circular buffer of the requested radius around the
// claim point, in WGS84 degrees.
func claimBuffer(pt model.GeoPoint, radiusKM float64) (*geos.Geom, error) {
	point, err := toGeos(geom.NewPointFlat(geom.XY, []float64{pt.Lon, pt.Lat}))
	if err != nil {
		return nil, err
	}
	return point.Buffer(radiusKM*degreesPerKM, bufferQuadSegs), nil
}

// intersectionHectares clips one asset polygon against the buffer and
// returns the planar area of the overlap in hectares. The bool result is
// false when the polygon is unusable; GEOS raises topology exceptions as
// panics, which are recovered here so a single bad ring never aborts the
// evaluation.
func intersectionHectares(buffer *geos.Geom, ring *geom.Polygon) (ha float64, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Debug("spatial: skipping asset polygon after topology error",
				zap.Any("cause", r),
			)
			ha, ok = 0, false
		}
	}()

	if ring == nil {
		return 0, false
	}

	g, err := toGeos(ring)
	if err != nil {
		return 0, false
	}
	if !g.IsValid() {
		g = g.MakeValid()
	}

	clipped := buffer.Intersection(g)
	if clipped == nil || clipped.IsEmpty() {
		return 0, false
	}

	decoded, err := fromGeos(clipped)
	if err != nil {
		return 0, false
	}
	projected := projectGeometry(decoded)
	if projected == nil {
		return 0, false
	}
	return Hectares(planarAreaSqm(projected)), true
}

// toGeos bridges a go-geom geometry into GEOS via GeoJSON.
func toGeos(g geom.T) (*geos.Geom, error) {
	encoded, err := geojson.Marshal(g)
	if err != nil {
		return nil, eris.Wrap(err, "spatial: encode geometry")
	}
	gg, err := geos.NewGeomFromGeoJSON(string(encoded))
	if err != nil {
		return nil, eris.Wrap(err, "spatial: geos decode")
	}
	return gg, nil
}

// fromGeos bridges a GEOS geometry back into go-geom via GeoJSON.
func fromGeos(g *geos.Geom) (geom.T, error) {
	var decoded geom.T
	if err := geojson.Unmarshal([]byte(g.ToGeoJSON(-1)), &decoded); err != nil {
		return nil, eris.Wrap(err, "spatial: decode intersection")
	}
	return decoded, nil
}
