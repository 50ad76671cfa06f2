package raster

import (
	"context"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/gramsetu/claimeval/internal/model"
	"github.com/gramsetu/claimeval/pkg/sentinelhub"
)

// ErrNoData indicates the imagery provider had no usable scene for the
// requested bounding box and time window. Callers degrade to an empty asset
// collection instead of failing the claim.
var ErrNoData = eris.New("raster: no imagery data")

// Fetcher obtains a multi-band reflectance tile for the area around a claim
// point. Implementations must honor context cancellation; a canceled or
// failed fetch degrades to empty results downstream.
type Fetcher interface {
	Fetch(ctx context.Context, pt model.GeoPoint) (*Tile, error)
}

// FetchParams configures the request bounding box and output raster.
type FetchParams struct {
	MarginDeg      float64       // bounding-box buffer around the claim point
	Width          int           // output raster width in pixels
	Height         int           // output raster height in pixels
	WindowDays     int           // time window ending now
	MaxCloudCover  float64       // percent
	RequestTimeout time.Duration // per-fetch deadline
}

// DefaultFetchParams returns the canonical imagery request parameters.
func DefaultFetchParams() FetchParams {
	return FetchParams{
		MarginDeg:      0.01,
		Width:          1536,
		Height:         1536,
		WindowDays:     90,
		MaxCloudCover:  20,
		RequestTimeout: 60 * time.Second,
	}
}

// SentinelFetcher fetches tiles from the Sentinel Hub Process API and
// decodes the returned GeoTIFF. Credentials are injected through the client
// constructor, never read from process-wide state.
type SentinelFetcher struct {
	client sentinelhub.Client
	params FetchParams
}

// NewSentinelFetcher creates a SentinelFetcher.
func NewSentinelFetcher(client sentinelhub.Client, params FetchParams) *SentinelFetcher {
	return &SentinelFetcher{client: client, params: params}
}

// Fetch requests the most-recent cloud-free mosaic around the point and
// decodes it into a Tile.
func (f *SentinelFetcher) Fetch(ctx context.Context, pt model.GeoPoint) (*Tile, error) {
	ctx, cancel := context.WithTimeout(ctx, f.params.RequestTimeout)
	defer cancel()

	bbox := BBox{
		West:  pt.Lon - f.params.MarginDeg,
		South: pt.Lat - f.params.MarginDeg,
		East:  pt.Lon + f.params.MarginDeg,
		North: pt.Lat + f.params.MarginDeg,
	}

	now := time.Now().UTC()
	req := sentinelhub.TileRequest{
		BBox:          [4]float64{bbox.West, bbox.South, bbox.East, bbox.North},
		Width:         f.params.Width,
		Height:        f.params.Height,
		TimeFrom:      now.AddDate(0, 0, -f.params.WindowDays),
		TimeTo:        now,
		MaxCloudCover: f.params.MaxCloudCover,
	}

	data, err := f.client.FetchTile(ctx, req)
	if err != nil {
		if eris.Is(err, sentinelhub.ErrNoData) {
			return nil, eris.Wrap(ErrNoData, "sentinel hub returned no scene")
		}
		return nil, eris.Wrap(err, "raster: fetch tile")
	}
	if len(data) == 0 {
		return nil, eris.Wrap(ErrNoData, "sentinel hub returned empty response")
	}

	tmp, err := os.CreateTemp("", "claimeval-tile-*.tif")
	if err != nil {
		return nil, eris.Wrap(err, "raster: create temp tile")
	}
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}()

	if _, err := tmp.Write(data); err != nil {
		return nil, eris.Wrap(err, "raster: write temp tile")
	}
	if err := tmp.Close(); err != nil {
		return nil, eris.Wrap(err, "raster: close temp tile")
	}

	tile, err := ReadTile(tmp.Name(), bbox)
	if err != nil {
		return nil, eris.Wrap(err, "raster: decode tile")
	}

	zap.L().Debug("raster: tile fetched",
		zap.Float64("lat", pt.Lat),
		zap.Float64("lon", pt.Lon),
		zap.Int("width", tile.Width),
		zap.Int("height", tile.Height),
	)
	return tile, nil
}
