package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir changes into dir for the duration of the test, restoring the
// previous working directory on cleanup (t.Chdir needs Go 1.24+).
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func writeConfigFile(t *testing.T, dir, content string) error {
	t.Helper()
	return os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o644)
}

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)

	assert.Equal(t, "https://services.sentinel-hub.com", cfg.Sentinel.BaseURL)
	assert.Equal(t, 2.0, cfg.Sentinel.RatePerSec)

	assert.Equal(t, 0.01, cfg.Raster.MarginDeg)
	assert.Equal(t, 1536, cfg.Raster.Width)
	assert.Equal(t, 1536, cfg.Raster.Height)
	assert.Equal(t, 90, cfg.Raster.WindowDays)
	assert.Equal(t, 20.0, cfg.Raster.MaxCloudCover)

	assert.Equal(t, 0.50, cfg.Classify.ForestNDVI)
	assert.Equal(t, 0.20, cfg.Classify.CroplandNDVIMin)
	assert.Equal(t, -0.05, cfg.Classify.WaterMNDWI)
	assert.Equal(t, 2, cfg.Classify.WaterClose)
	assert.Equal(t, 3, cfg.Classify.WaterDilate)
	assert.Equal(t, 200, cfg.Classify.MinPixelArea)
	assert.Equal(t, 5, cfg.Classify.WaterMinPixelArea)

	assert.Equal(t, 1.0, cfg.Spatial.BufferKM)

	assert.Equal(t, 3, cfg.Groundwater.K)
	assert.Equal(t, 100.0, cfg.Groundwater.MaxKM)
	assert.Equal(t, 200.0, cfg.Groundwater.FallbackKM)

	assert.Equal(t, 2.0, cfg.Scheme.VegMinHa)
	assert.Equal(t, 15.0, cfg.Scheme.GroundwaterOkM)
	assert.Equal(t, 5, cfg.Scheme.MaxRecommendations)

	assert.Equal(t, 4, cfg.Batch.MaxConcurrentClaims)
}

func TestLoad_EnvOverride(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("CLAIMEVAL_SPATIAL_BUFFER_KM", "2.5")
	t.Setenv("CLAIMEVAL_GROUNDWATER_K", "5")
	t.Setenv("CLAIMEVAL_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 2.5, cfg.Spatial.BufferKM)
	assert.Equal(t, 5, cfg.Groundwater.K)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	doc := `spatial:
  buffer_km: 3.0
groundwater:
  wells_path: /data/wells.csv
log:
  level: warn
`
	require.NoError(t, writeConfigFile(t, dir, doc))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3.0, cfg.Spatial.BufferKM)
	assert.Equal(t, "/data/wells.csv", cfg.Groundwater.WellsPath)
	assert.Equal(t, "warn", cfg.Log.Level)

	// Unset keys keep their defaults.
	assert.Equal(t, 3, cfg.Groundwater.K)
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "json"}))
	require.NoError(t, InitLogger(LogConfig{Level: "info", Format: "console"}))
	require.Error(t, InitLogger(LogConfig{Level: "nonsense", Format: "json"}))
}
