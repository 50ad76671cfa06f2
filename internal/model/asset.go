package model

import (
	"github.com/twpayne/go-geom"
)

// AssetType is one of the land-cover classes the classifier detects.
type AssetType string

// Land-cover classes. Classes are computed independently from per-index
// threshold rules, so a single pixel may legitimately belong to more than
// one class; the collection keeps the union without deduplicating.
const (
	AssetForest     AssetType = "forest"
	AssetCropland   AssetType = "cropland"
	AssetWaterBody  AssetType = "water_body"
	AssetUrban      AssetType = "urban"
	AssetBarrenLand AssetType = "barren_land"
)

// AllAssetTypes lists the classes in classification order.
var AllAssetTypes = []AssetType{
	AssetForest,
	AssetCropland,
	AssetWaterBody,
	AssetUrban,
	AssetBarrenLand,
}

// AssetPolygon is one detected land-cover polygon in WGS84 (lon/lat order).
type AssetPolygon struct {
	Type AssetType     `json:"asset_type"`
	Ring *geom.Polygon `json:"-"`
}

// ClaimAssetCollection is the full set of detected asset polygons around one
// claim. Produced once per claim and never mutated afterwards.
type ClaimAssetCollection struct {
	ClaimID string         `json:"claim_id"`
	Assets  []AssetPolygon `json:"assets"`
}

// Empty reports whether no assets were detected (including the degraded
// no-imagery case).
func (c *ClaimAssetCollection) Empty() bool {
	return c == nil || len(c.Assets) == 0
}
