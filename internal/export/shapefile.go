// Package export writes detected asset polygons to shapefiles for
// downstream GIS collaborators.
package export

import (
	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/gramsetu/claimeval/internal/model"
)

// WriteAssets writes a claim's asset polygons as a polygon shapefile with
// ASSET_TYPE and CLAIM_ID attributes. Assets without a ring are skipped.
func WriteAssets(path string, coll *model.ClaimAssetCollection) error {
	writer, err := shp.Create(path, shp.POLYGON)
	if err != nil {
		return eris.Wrapf(err, "export: create shapefile %s", path)
	}
	defer writer.Close()

	writer.SetFields([]shp.Field{
		shp.StringField("ASSET_TYPE", 32),
		shp.StringField("CLAIM_ID", 64),
	})

	row := 0
	skipped := 0
	for _, asset := range coll.Assets {
		poly := toShpPolygon(asset.Ring)
		if poly == nil {
			skipped++
			continue
		}
		writer.Write(poly)
		writer.WriteAttribute(row, 0, string(asset.Type))
		writer.WriteAttribute(row, 1, coll.ClaimID)
		row++
	}

	if skipped > 0 {
		zap.L().Debug("export: skipped assets without usable rings",
			zap.String("claim_id", coll.ClaimID),
			zap.Int("skipped", skipped),
		)
	}

	zap.L().Info("export: shapefile written",
		zap.String("path", path),
		zap.Int("features", row),
	)
	return nil
}

// toShpPolygon converts a go-geom polygon (lon/lat) to a shapefile polygon.
func toShpPolygon(ring *geom.Polygon) *shp.Polygon {
	if ring == nil || ring.NumLinearRings() == 0 {
		return nil
	}

	flat := ring.FlatCoords()
	end := ring.Ends()[0]
	if end < 6 { // fewer than 3 vertices
		return nil
	}

	points := make([]shp.Point, 0, end/2)
	for i := 0; i+1 < end; i += 2 {
		points = append(points, shp.Point{X: flat[i], Y: flat[i+1]})
	}

	poly := shp.Polygon(*shp.NewPolyLine([][]shp.Point{points}))
	return &poly
}
