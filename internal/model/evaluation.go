package model

// WellSample is one groundwater well matched to a claim, with its
// great-circle distance from the claim point.
type WellSample struct {
	StationCode string  `json:"station_code"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	DepthMBGL   float64 `json:"depth_m_bgl"`
	DistanceKM  float64 `json:"distance_km"`
	MeasuredAt  string  `json:"measured_at,omitempty"`
}

// GroundwaterStats aggregates the k nearest wells for a claim. A nil
// *GroundwaterStats means "no data": no well was found within the search
// radius. That is a valid outcome, not an error.
type GroundwaterStats struct {
	AverageDepthM float64      `json:"average_depth_m"`
	MinDistanceKM float64      `json:"min_distance_km"`
	KUsed         int          `json:"k_used"`
	Fallback      bool         `json:"fallback,omitempty"`
	Wells         []WellSample `json:"wells"`
}

// Areas holds per-class intersected area in hectares, computed in a planar
// projection. VegetationHa is always ForestHa + CroplandHa.
type Areas struct {
	ForestHa     float64 `json:"forest_ha"`
	CroplandHa   float64 `json:"cropland_ha"`
	WaterHa      float64 `json:"water_ha"`
	UrbanHa      float64 `json:"urban_ha"`
	BarrenHa     float64 `json:"barren_ha"`
	VegetationHa float64 `json:"vegetation_ha"`
}

// Verdict is the sufficiency decision for a claim with itemized reasons for
// each failed sub-condition.
type Verdict struct {
	Sufficient bool     `json:"sufficient"`
	Reasons    []string `json:"reasons,omitempty"`
}

// SchemeRecommendation is one ranked scheme suggestion.
type SchemeRecommendation struct {
	SchemeID string  `json:"scheme_id"`
	Reason   string  `json:"reason"`
	Priority float64 `json:"priority"`
}

// EvaluatedClaim is the final evaluation result for one claim, consumed by
// persistence, API, and visualization collaborators.
type EvaluatedClaim struct {
	ClaimID         string                 `json:"claim_id"`
	PattaHolder     string                 `json:"patta_holder,omitempty"`
	Village         string                 `json:"village,omitempty"`
	Coordinates     string                 `json:"coordinates"`
	ClaimStatus     string                 `json:"claim_status,omitempty"`
	Areas           Areas                  `json:"areas"`
	Groundwater     *GroundwaterStats      `json:"groundwater,omitempty"`
	Verdict         Verdict                `json:"verdict"`
	OverallPriority float64                `json:"overall_priority"`
	Recommendations []SchemeRecommendation `json:"recommendations"`
}
