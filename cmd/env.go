package main

import (
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/gramsetu/claimeval/internal/config"
	"github.com/gramsetu/claimeval/internal/evaluator"
	"github.com/gramsetu/claimeval/internal/groundwater"
	"github.com/gramsetu/claimeval/internal/raster"
	"github.com/gramsetu/claimeval/internal/scheme"
	"github.com/gramsetu/claimeval/internal/spatial"
	"github.com/gramsetu/claimeval/pkg/sentinelhub"
)

// buildPipeline assembles the evaluation pipeline from configuration. The
// well dataset is loaded here, once per process; a missing dataset is fatal
// because the groundwater matcher cannot operate without it.
func buildPipeline(cfg *config.Config) (*evaluator.Pipeline, error) {
	wells, err := groundwater.Load(cfg.Groundwater.WellsPath)
	if err != nil {
		return nil, eris.Wrap(err, "well dataset is required")
	}

	client := sentinelhub.NewClient(
		cfg.Sentinel.ClientID,
		cfg.Sentinel.ClientSecret,
		sentinelhub.WithBaseURL(cfg.Sentinel.BaseURL),
		sentinelhub.WithTokenURL(cfg.Sentinel.TokenURL),
		sentinelhub.WithLimiter(rate.NewLimiter(rate.Limit(cfg.Sentinel.RatePerSec), 2)),
	)

	fetcher := raster.NewSentinelFetcher(client, raster.FetchParams{
		MarginDeg:      cfg.Raster.MarginDeg,
		Width:          cfg.Raster.Width,
		Height:         cfg.Raster.Height,
		WindowDays:     cfg.Raster.WindowDays,
		MaxCloudCover:  cfg.Raster.MaxCloudCover,
		RequestTimeout: time.Duration(cfg.Raster.TimeoutSecs) * time.Second,
	})

	classifier := raster.NewClassifier(fetcher, raster.ClassifyParams{
		Thresholds: raster.Thresholds{
			ForestNDVI:      cfg.Classify.ForestNDVI,
			CroplandNDVIMin: cfg.Classify.CroplandNDVIMin,
			WaterMNDWI:      cfg.Classify.WaterMNDWI,
			WaterNDWI:       cfg.Classify.WaterNDWI,
			WaterNDVIMax:    cfg.Classify.WaterNDVIMax,
			WaterBSIMax:     cfg.Classify.WaterBSIMax,
			UrbanNDBI:       cfg.Classify.UrbanNDBI,
			BarrenBSI:       cfg.Classify.BarrenBSI,
		},
		WaterMorph: raster.MorphParams{
			CloseIterations:  cfg.Classify.WaterClose,
			DilateIterations: cfg.Classify.WaterDilate,
			OpenIterations:   cfg.Classify.WaterOpen,
		},
		MinPixelArea:      cfg.Classify.MinPixelArea,
		WaterMinPixelArea: cfg.Classify.WaterMinPixelArea,
	})

	catalog, err := scheme.LoadCatalog(cfg.Scheme.CatalogPath)
	if err != nil {
		return nil, err
	}
	engine := scheme.NewEngine(scheme.Config{
		VegMinHa:           cfg.Scheme.VegMinHa,
		WaterMinHa:         cfg.Scheme.WaterMinHa,
		GroundwaterOkM:     cfg.Scheme.GroundwaterOkM,
		FarWellKM:          cfg.Groundwater.FarWellKM,
		MaxRecommendations: cfg.Scheme.MaxRecommendations,
	}, catalog)

	return evaluator.NewPipeline(
		classifier,
		spatial.NewEvaluator(cfg.Spatial.BufferKM),
		groundwater.NewMatcher(wells),
		engine,
		evaluator.Options{
			WellK:          cfg.Groundwater.K,
			WellMaxKM:      cfg.Groundwater.MaxKM,
			WellFallbackKM: cfg.Groundwater.FallbackKM,
			Verdict: spatial.VerdictParams{
				VegMinHa:       cfg.Scheme.VegMinHa,
				GroundwaterOkM: cfg.Scheme.GroundwaterOkM,
			},
		},
	), nil
}
