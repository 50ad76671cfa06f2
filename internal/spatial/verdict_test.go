package spatial

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gramsetu/claimeval/internal/model"
)

func gwStats(depth float64) *model.GroundwaterStats {
	return &model.GroundwaterStats{AverageDepthM: depth, MinDistanceKM: 4, KUsed: 3}
}

func TestDecide_SufficientWithSurfaceWater(t *testing.T) {
	t.Parallel()

	areas := model.Areas{VegetationHa: 3.5, WaterHa: 0.4}
	v := Decide(areas, nil, DefaultVerdictParams())
	assert.True(t, v.Sufficient)
	assert.Empty(t, v.Reasons)
}

func TestDecide_SufficientWithShallowGroundwater(t *testing.T) {
	t.Parallel()

	areas := model.Areas{VegetationHa: 2.0, WaterHa: 0}
	v := Decide(areas, gwStats(9.5), DefaultVerdictParams())
	assert.True(t, v.Sufficient)
}

func TestDecide_InsufficientVegetation(t *testing.T) {
	t.Parallel()

	areas := model.Areas{VegetationHa: 0.8, WaterHa: 0.4}
	v := Decide(areas, gwStats(9.5), DefaultVerdictParams())
	require.False(t, v.Sufficient)
	require.Len(t, v.Reasons, 1)
	assert.Contains(t, v.Reasons[0], "vegetation 0.80 ha below 2.0 ha minimum")
}

func TestDecide_NoWaterAnywhere(t *testing.T) {
	t.Parallel()

	areas := model.Areas{VegetationHa: 3.0, WaterHa: 0}
	v := Decide(areas, gwStats(28.0), DefaultVerdictParams())
	require.False(t, v.Sufficient)
	assert.Contains(t, v.Reasons, "no surface water within buffer")
	assert.Contains(t, v.Reasons, "groundwater 28.0 m bgl deeper than 15.0 m")
}

func TestDecide_GroundwaterUnknown(t *testing.T) {
	t.Parallel()

	areas := model.Areas{VegetationHa: 3.0, WaterHa: 0}
	v := Decide(areas, nil, DefaultVerdictParams())
	require.False(t, v.Sufficient)
	assert.Contains(t, v.Reasons, "no surface water within buffer")
	assert.Contains(t, v.Reasons, "groundwater depth unknown")
}

func TestDecide_FallbackWellNoted(t *testing.T) {
	t.Parallel()

	gw := &model.GroundwaterStats{
		AverageDepthM: 18.0,
		MinDistanceKM: 167,
		KUsed:         1,
		Fallback:      true,
	}
	areas := model.Areas{VegetationHa: 3.0, WaterHa: 0}
	v := Decide(areas, gw, DefaultVerdictParams())
	require.False(t, v.Sufficient)

	found := false
	for _, r := range v.Reasons {
		if r == "nearest well 167 km away; reading may not be representative" {
			found = true
		}
	}
	assert.True(t, found, "fallback note missing: %v", v.Reasons)
}

func TestDecide_EmptyEverything(t *testing.T) {
	t.Parallel()

	v := Decide(model.Areas{}, nil, DefaultVerdictParams())
	require.False(t, v.Sufficient)
	assert.Len(t, v.Reasons, 3)
}

func TestDecide_GroundwaterAtExactThreshold(t *testing.T) {
	t.Parallel()

	areas := model.Areas{VegetationHa: 2.0}
	v := Decide(areas, gwStats(15.0), DefaultVerdictParams())
	assert.True(t, v.Sufficient, "depth equal to the cutoff counts as accessible")
}
