package spatial

import (
	"fmt"

	"github.com/gramsetu/claimeval/internal/model"
)

// VerdictParams holds the sufficiency thresholds.
type VerdictParams struct {
	VegMinHa       float64 // minimum vegetation (forest+cropland) hectares
	GroundwaterOkM float64 // depth to water table considered accessible
}

// DefaultVerdictParams returns the canonical sufficiency thresholds.
func DefaultVerdictParams() VerdictParams {
	return VerdictParams{VegMinHa: 2.0, GroundwaterOkM: 15.0}
}

// Decide applies the sufficiency rule: a claim is sufficient iff vegetation
// area meets the minimum AND water is available, either as surface water in
// the buffer or as groundwater within reach. Failed sub-conditions are
// itemized in the reasons.
func Decide(areas model.Areas, gw *model.GroundwaterStats, p VerdictParams) model.Verdict {
	gwKnown := gw != nil
	gwOk := gwKnown && gw.AverageDepthM <= p.GroundwaterOkM

	hasVegetation := areas.VegetationHa >= p.VegMinHa
	hasSurfaceWater := areas.WaterHa > 0

	if hasVegetation && (hasSurfaceWater || gwOk) {
		return model.Verdict{Sufficient: true}
	}

	var reasons []string
	if !hasVegetation {
		reasons = append(reasons, fmt.Sprintf("vegetation %.2f ha below %.1f ha minimum", areas.VegetationHa, p.VegMinHa))
	}
	if !hasSurfaceWater {
		reasons = append(reasons, "no surface water within buffer")
	}
	if !gwKnown {
		reasons = append(reasons, "groundwater depth unknown")
	} else if !gwOk {
		reasons = append(reasons, fmt.Sprintf("groundwater %.1f m bgl deeper than %.1f m", gw.AverageDepthM, p.GroundwaterOkM))
	}
	if gwKnown && gw.Fallback {
		reasons = append(reasons, fmt.Sprintf("nearest well %.0f km away; reading may not be representative", gw.MinDistanceKM))
	}

	return model.Verdict{Sufficient: false, Reasons: reasons}
}
