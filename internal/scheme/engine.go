package scheme

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/gramsetu/claimeval/internal/model"
)

// Config holds the rule thresholds. Tunables live in one place so policy
// adjustments do not touch the rule bodies.
type Config struct {
	VegMinHa           float64 // minimum vegetation (cropland+forest) hectares
	WaterMinHa         float64 // any surface water in buffer below this is "scarce"
	GroundwaterOkM     float64 // depth to water table considered accessible (m bgl)
	FarWellKM          float64 // flag a data gap when the nearest well is farther
	MaxRecommendations int     // cap on the ranked list; 0 means no cap
}

// DefaultConfig returns the canonical rule thresholds.
func DefaultConfig() Config {
	return Config{
		VegMinHa:           2.0,
		WaterMinHa:         0.05,
		GroundwaterOkM:     15.0,
		FarWellKM:          100.0,
		MaxRecommendations: 5,
	}
}

// Metrics is the typed scoring input extracted from an evaluated claim.
// Nil pointers mean the groundwater lookup returned no data.
type Metrics struct {
	VegetationHa      float64
	WaterHa           float64
	UrbanHa           float64
	BarrenHa          float64
	GroundwaterDepthM *float64
	WellDistanceKM    *float64
}

// MetricsFromEvaluation builds scoring metrics from areas and groundwater
// stats.
func MetricsFromEvaluation(areas model.Areas, gw *model.GroundwaterStats) Metrics {
	m := Metrics{
		VegetationHa: areas.VegetationHa,
		WaterHa:      areas.WaterHa,
		UrbanHa:      areas.UrbanHa,
		BarrenHa:     areas.BarrenHa,
	}
	if gw != nil {
		depth := gw.AverageDepthM
		dist := gw.MinDistanceKM
		m.GroundwaterDepthM = &depth
		m.WellDistanceKM = &dist
	}
	return m
}

// Engine is the deterministic rule-based recommender. Identical metrics
// always produce an identical ranked list.
type Engine struct {
	cfg     Config
	catalog Catalog
}

// NewEngine creates an Engine.
func NewEngine(cfg Config, catalog Catalog) *Engine {
	return &Engine{cfg: cfg, catalog: catalog}
}

// Recommend scores the metrics and returns the ranked recommendation list
// plus the overall priority in [0,100]. Rules are evaluated independently;
// a claim can trigger several schemes at once.
func (e *Engine) Recommend(m Metrics) ([]model.SchemeRecommendation, float64) {
	gwKnown := m.GroundwaterDepthM != nil
	gwOk := gwKnown && *m.GroundwaterDepthM <= e.cfg.GroundwaterOkM
	gwDeep := gwKnown && *m.GroundwaterDepthM > e.cfg.GroundwaterOkM

	// Clipped-linear need scores in [0,1]. Need rises as water and
	// vegetation shrink and as barren area grows.
	waterNeed := 1.0 - scoreBand(m.WaterHa, 0.0, 0.5)
	gwNeed := 0.0
	if !gwOk {
		gwNeed = 0.5 // unknown
		if gwKnown {
			gwNeed = 0.7
		}
	}
	vegNeed := 1.0 - scoreBand(m.VegetationHa, 0.0, 5.0)
	barrenNeed := scoreBand(m.BarrenHa, 0.0, 5.0)

	overall := round1(100 * (0.35*waterNeed + 0.35*gwNeed + 0.20*vegNeed + 0.10*barrenNeed))

	var recs []model.SchemeRecommendation

	// Water infrastructure: surface water scarce, or groundwater deep or
	// unknown.
	if m.WaterHa < e.cfg.WaterMinHa || gwDeep || !gwKnown {
		var why []string
		if m.WaterHa < e.cfg.WaterMinHa {
			why = append(why, fmt.Sprintf("surface water low (%.2f ha)", m.WaterHa))
		}
		if gwDeep {
			why = append(why, fmt.Sprintf("groundwater deep (%.1f m bgl)", *m.GroundwaterDepthM))
		}
		if !gwKnown {
			why = append(why, "groundwater unknown")
		}
		recs = append(recs, model.SchemeRecommendation{
			SchemeID: SchemeWaterInfra,
			Reason:   strings.Join(why, "; "),
			Priority: math.Min(95, overall+10),
		})
	}

	// Land development on significant barren area.
	if m.BarrenHa > 0.2 {
		recs = append(recs, model.SchemeRecommendation{
			SchemeID: SchemeLandDevelopment,
			Reason:   fmt.Sprintf("barren land %.2f ha; recommend contour trenching, farm ponds", m.BarrenHa),
			Priority: math.Min(90, overall+5),
		})
	}

	// Livelihood diversification where the vegetation base is adequate.
	if m.VegetationHa >= e.cfg.VegMinHa {
		recs = append(recs, model.SchemeRecommendation{
			SchemeID: SchemeAgroforestry,
			Reason:   fmt.Sprintf("adequate vegetation base (%.2f ha) for diversification", m.VegetationHa),
			Priority: math.Min(85, overall),
		})
	}

	// Multi-department convergence when water is stressed in any form.
	if m.WaterHa < e.cfg.WaterMinHa || !gwOk {
		recs = append(recs, model.SchemeRecommendation{
			SchemeID: SchemeConvergence,
			Reason:   "combine line departments to address water stress",
			Priority: math.Min(88, overall+5),
		})
	}

	// Data gap: nearest well too far to trust the reading.
	if m.WellDistanceKM != nil && *m.WellDistanceKM > e.cfg.FarWellKM {
		recs = append(recs, model.SchemeRecommendation{
			SchemeID: SchemeDataGap,
			Reason:   fmt.Sprintf("nearest groundwater station is far (%.0f km); prioritize local survey", *m.WellDistanceKM),
			Priority: 50,
		})
	}

	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].Priority != recs[j].Priority {
			return recs[i].Priority > recs[j].Priority
		}
		return e.catalog.rank(recs[i].SchemeID) < e.catalog.rank(recs[j].SchemeID)
	})

	if e.cfg.MaxRecommendations > 0 && len(recs) > e.cfg.MaxRecommendations {
		recs = recs[:e.cfg.MaxRecommendations]
	}
	return recs, overall
}

// scoreBand maps x into [0,1] between lo and hi, clipped.
func scoreBand(x, lo, hi float64) float64 {
	if hi == lo {
		return 0
	}
	t := (x - lo) / (hi - lo)
	return math.Max(0, math.Min(1, t))
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}
