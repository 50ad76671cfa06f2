package raster

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gramsetu/claimeval/internal/model"
)

// fakeFetcher returns a canned tile or error without network access.
type fakeFetcher struct {
	tile *Tile
	err  error
}

func (f *fakeFetcher) Fetch(ctx context.Context, pt model.GeoPoint) (*Tile, error) {
	return f.tile, f.err
}

// forestTile builds an n x n tile where every pixel classifies as forest and
// nothing else.
func forestTile(n int) *Tile {
	fill := func(v float64) Grid {
		g := NewGrid(n, n)
		for y := range g {
			for x := range g[y] {
				g[y][x] = v
			}
		}
		return g
	}
	return &Tile{
		BBox:   BBox{West: 83.0, South: 21.0, East: 83.02, North: 21.02},
		Width:  n,
		Height: n,
		Bands: map[Band]Grid{
			BandBlue:  fill(0.05),
			BandGreen: fill(0.10),
			BandRed:   fill(0.05),
			BandNIR:   fill(0.50),
			BandSWIR1: fill(0.20),
		},
	}
}

func TestDetectAssets_ForestTile(t *testing.T) {
	t.Parallel()

	c := NewClassifier(&fakeFetcher{tile: forestTile(16)}, ClassifyParams{
		Thresholds:        DefaultThresholds(),
		WaterMorph:        DefaultWaterMorph(),
		MinPixelArea:      10,
		WaterMinPixelArea: 5,
	})

	coll, err := c.DetectAssets(context.Background(), "claim-1", model.GeoPoint{Lat: 21.01, Lon: 83.01})
	require.NoError(t, err)
	require.NotNil(t, coll)
	assert.Equal(t, "claim-1", coll.ClaimID)

	require.Len(t, coll.Assets, 1)
	assert.Equal(t, model.AssetForest, coll.Assets[0].Type)
	require.NotNil(t, coll.Assets[0].Ring)
}

func TestDetectAssets_FetchFailureDegrades(t *testing.T) {
	t.Parallel()

	c := NewClassifier(&fakeFetcher{err: eris.New("connection refused")}, DefaultClassifyParams())

	coll, err := c.DetectAssets(context.Background(), "claim-2", model.GeoPoint{Lat: 21, Lon: 83})
	require.NoError(t, err)
	require.NotNil(t, coll)
	assert.True(t, coll.Empty())
}

func TestDetectAssets_NoDataDegrades(t *testing.T) {
	t.Parallel()

	c := NewClassifier(&fakeFetcher{err: eris.Wrap(ErrNoData, "no scene")}, DefaultClassifyParams())

	coll, err := c.DetectAssets(context.Background(), "claim-3", model.GeoPoint{Lat: 21, Lon: 83})
	require.NoError(t, err)
	assert.True(t, coll.Empty())
}

func TestDetectAssets_InvalidTileFails(t *testing.T) {
	t.Parallel()

	tile := forestTile(4)
	delete(tile.Bands, BandNIR)
	c := NewClassifier(&fakeFetcher{tile: tile}, DefaultClassifyParams())

	_, err := c.DetectAssets(context.Background(), "claim-4", model.GeoPoint{Lat: 21, Lon: 83})
	require.Error(t, err)
}

func TestDefaultClassifyParams(t *testing.T) {
	t.Parallel()

	p := DefaultClassifyParams()
	assert.Equal(t, DefaultMinPixelArea, p.MinPixelArea)
	assert.Equal(t, DefaultWaterMinPixelArea, p.WaterMinPixelArea)
	assert.Equal(t, 2, p.WaterMorph.CloseIterations)
	assert.Equal(t, 3, p.WaterMorph.DilateIterations)
}
