package raster

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/gramsetu/claimeval/internal/model"
)

// ClassifyParams bundles the tunables of the detection pipeline.
type ClassifyParams struct {
	Thresholds        Thresholds
	WaterMorph        MorphParams
	MinPixelArea      int
	WaterMinPixelArea int
}

// DefaultClassifyParams returns the canonical detection parameters.
func DefaultClassifyParams() ClassifyParams {
	return ClassifyParams{
		Thresholds:        DefaultThresholds(),
		WaterMorph:        DefaultWaterMorph(),
		MinPixelArea:      DefaultMinPixelArea,
		WaterMinPixelArea: DefaultWaterMinPixelArea,
	}
}

// Classifier turns imagery around a claim point into a typed asset polygon
// collection. It runs index computation, per-class threshold masking, water
// cleanup, and vectorization strictly in sequence.
type Classifier struct {
	fetcher Fetcher
	params  ClassifyParams
}

// NewClassifier creates a Classifier using the given fetcher. Tests inject a
// fake fetcher so the pipeline runs without live network access.
func NewClassifier(fetcher Fetcher, params ClassifyParams) *Classifier {
	return &Classifier{fetcher: fetcher, params: params}
}

// DetectAssets fetches imagery for the claim point and classifies it into a
// ClaimAssetCollection. A failed or empty fetch yields an empty collection,
// never an error: the evaluation proceeds with all class areas at zero.
func (c *Classifier) DetectAssets(ctx context.Context, claimID string, pt model.GeoPoint) (*model.ClaimAssetCollection, error) {
	coll := &model.ClaimAssetCollection{ClaimID: claimID}

	tile, err := c.fetcher.Fetch(ctx, pt)
	if err != nil {
		if eris.Is(err, ErrNoData) {
			zap.L().Warn("raster: no imagery for claim, proceeding with empty assets",
				zap.String("claim_id", claimID),
			)
		} else {
			zap.L().Warn("raster: imagery fetch failed, proceeding with empty assets",
				zap.String("claim_id", claimID),
				zap.Error(err),
			)
		}
		return coll, nil
	}

	idx, err := ComputeIndices(tile)
	if err != nil {
		return nil, eris.Wrap(err, "raster: detect assets")
	}

	for _, class := range model.AllAssetTypes {
		mask, err := ClassMask(class, idx, c.params.Thresholds)
		if err != nil {
			return nil, eris.Wrap(err, "raster: detect assets")
		}

		minPixels := c.params.MinPixelArea
		if class == model.AssetWaterBody {
			mask = c.params.WaterMorph.Clean(mask)
			minPixels = c.params.WaterMinPixelArea
		}

		polys := Vectorize(mask, tile.BBox, class, minPixels)
		coll.Assets = append(coll.Assets, polys...)

		zap.L().Debug("raster: class vectorized",
			zap.String("claim_id", claimID),
			zap.String("class", string(class)),
			zap.Int("pixels", mask.Count()),
			zap.Int("polygons", len(polys)),
		)
	}

	return coll, nil
}
