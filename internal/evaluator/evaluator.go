// Package evaluator orchestrates the per-claim pipeline: asset detection,
// spatial overlay, groundwater lookup, verdict, and scheme scoring.
package evaluator

import (
	"context"

	"go.uber.org/zap"

	"github.com/gramsetu/claimeval/internal/groundwater"
	"github.com/gramsetu/claimeval/internal/model"
	"github.com/gramsetu/claimeval/internal/raster"
	"github.com/gramsetu/claimeval/internal/scheme"
	"github.com/gramsetu/claimeval/internal/spatial"
)

// Options holds the pipeline tunables that sit above individual components.
type Options struct {
	WellK          int
	WellMaxKM      float64
	WellFallbackKM float64 // 0 disables the extended-radius retry
	Verdict        spatial.VerdictParams
}

// DefaultOptions returns the canonical pipeline options.
func DefaultOptions() Options {
	return Options{
		WellK:          3,
		WellMaxKM:      100,
		WellFallbackKM: 200,
		Verdict:        spatial.DefaultVerdictParams(),
	}
}

// Pipeline evaluates claims one at a time. All components are read-only
// after construction, so a single Pipeline is safe for use by a bounded
// worker pool evaluating independent claims in parallel.
type Pipeline struct {
	classifier *raster.Classifier
	spatial    *spatial.Evaluator
	matcher    *groundwater.Matcher
	engine     *scheme.Engine
	opts       Options
}

// NewPipeline assembles a Pipeline.
func NewPipeline(
	classifier *raster.Classifier,
	spatialEval *spatial.Evaluator,
	matcher *groundwater.Matcher,
	engine *scheme.Engine,
	opts Options,
) *Pipeline {
	return &Pipeline{
		classifier: classifier,
		spatial:    spatialEval,
		matcher:    matcher,
		engine:     engine,
		opts:       opts,
	}
}

// EvaluateClaim runs the full pipeline for one claim. A claim with invalid
// coordinates yields an insufficient verdict and an empty recommendation
// list; it never produces an error, so batch callers keep going.
func (p *Pipeline) EvaluateClaim(ctx context.Context, claim model.Claim) *model.EvaluatedClaim {
	result, _ := p.EvaluateClaimWithAssets(ctx, claim)
	return result
}

// EvaluateClaimWithAssets additionally returns the detected asset collection
// for callers that export geometry alongside the evaluation.
func (p *Pipeline) EvaluateClaimWithAssets(ctx context.Context, claim model.Claim) (*model.EvaluatedClaim, *model.ClaimAssetCollection) {
	out := &model.EvaluatedClaim{
		ClaimID:         claim.ID,
		PattaHolder:     claim.PattaHolder,
		Village:         claim.Village,
		Coordinates:     claim.Coordinates,
		ClaimStatus:     claim.ClaimStatus,
		Recommendations: []model.SchemeRecommendation{},
	}

	if claim.Point == nil {
		zap.L().Warn("evaluator: claim has invalid coordinates",
			zap.String("claim_id", claim.ID),
			zap.String("coordinates", claim.Coordinates),
		)
		out.Verdict = model.Verdict{Sufficient: false, Reasons: []string{"invalid coordinates"}}
		return out, &model.ClaimAssetCollection{ClaimID: claim.ID}
	}
	pt := *claim.Point

	// Asset detection half. Fetch failures degrade to an empty collection
	// inside the classifier; a nil error with zero assets is the degraded
	// path, not a crash.
	coll, err := p.classifier.DetectAssets(ctx, claim.ID, pt)
	if err != nil {
		zap.L().Error("evaluator: asset detection failed, continuing with empty assets",
			zap.String("claim_id", claim.ID),
			zap.Error(err),
		)
		coll = &model.ClaimAssetCollection{ClaimID: claim.ID}
	}

	areas, err := p.spatial.Evaluate(pt, coll)
	if err != nil {
		zap.L().Error("evaluator: spatial evaluation failed, continuing with zero areas",
			zap.String("claim_id", claim.ID),
			zap.Error(err),
		)
		areas = model.Areas{}
	}
	out.Areas = areas

	gw := p.matcher.NearestWithFallback(pt, p.opts.WellK, p.opts.WellMaxKM, p.opts.WellFallbackKM)
	out.Groundwater = gw

	out.Verdict = spatial.Decide(areas, gw, p.opts.Verdict)

	recs, overall := p.engine.Recommend(scheme.MetricsFromEvaluation(areas, gw))
	out.Recommendations = recs
	out.OverallPriority = overall

	zap.L().Info("evaluator: claim evaluated",
		zap.String("claim_id", claim.ID),
		zap.Bool("sufficient", out.Verdict.Sufficient),
		zap.Float64("vegetation_ha", areas.VegetationHa),
		zap.Float64("water_ha", areas.WaterHa),
		zap.Int("recommendations", len(recs)),
	)
	return out, coll
}
