// Package config loads application configuration from file and environment
// and initializes the global logger.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Sentinel    SentinelConfig    `yaml:"sentinel" mapstructure:"sentinel"`
	Raster      RasterConfig      `yaml:"raster" mapstructure:"raster"`
	Classify    ClassifyConfig    `yaml:"classify" mapstructure:"classify"`
	Spatial     SpatialConfig     `yaml:"spatial" mapstructure:"spatial"`
	Groundwater GroundwaterConfig `yaml:"groundwater" mapstructure:"groundwater"`
	Scheme      SchemeConfig      `yaml:"scheme" mapstructure:"scheme"`
	Batch       BatchConfig       `yaml:"batch" mapstructure:"batch"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
}

// SentinelConfig holds imagery provider credentials and endpoints. The
// credentials are injected into the fetcher constructor; pipeline code never
// reads them from global state.
type SentinelConfig struct {
	ClientID     string  `yaml:"client_id" mapstructure:"client_id"`
	ClientSecret string  `yaml:"client_secret" mapstructure:"client_secret"`
	BaseURL      string  `yaml:"base_url" mapstructure:"base_url"`
	TokenURL     string  `yaml:"token_url" mapstructure:"token_url"`
	RatePerSec   float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
}

// RasterConfig configures the imagery request around a claim point.
type RasterConfig struct {
	MarginDeg     float64 `yaml:"margin_deg" mapstructure:"margin_deg"`
	Width         int     `yaml:"width" mapstructure:"width"`
	Height        int     `yaml:"height" mapstructure:"height"`
	WindowDays    int     `yaml:"window_days" mapstructure:"window_days"`
	MaxCloudCover float64 `yaml:"max_cloud_cover" mapstructure:"max_cloud_cover"`
	TimeoutSecs   int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// ClassifyConfig configures threshold masking and cleanup.
type ClassifyConfig struct {
	ForestNDVI        float64 `yaml:"forest_ndvi" mapstructure:"forest_ndvi"`
	CroplandNDVIMin   float64 `yaml:"cropland_ndvi_min" mapstructure:"cropland_ndvi_min"`
	WaterMNDWI        float64 `yaml:"water_mndwi" mapstructure:"water_mndwi"`
	WaterNDWI         float64 `yaml:"water_ndwi" mapstructure:"water_ndwi"`
	WaterNDVIMax      float64 `yaml:"water_ndvi_max" mapstructure:"water_ndvi_max"`
	WaterBSIMax       float64 `yaml:"water_bsi_max" mapstructure:"water_bsi_max"`
	UrbanNDBI         float64 `yaml:"urban_ndbi" mapstructure:"urban_ndbi"`
	BarrenBSI         float64 `yaml:"barren_bsi" mapstructure:"barren_bsi"`
	WaterClose        int     `yaml:"water_close" mapstructure:"water_close"`
	WaterDilate       int     `yaml:"water_dilate" mapstructure:"water_dilate"`
	WaterOpen         int     `yaml:"water_open" mapstructure:"water_open"`
	MinPixelArea      int     `yaml:"min_pixel_area" mapstructure:"min_pixel_area"`
	WaterMinPixelArea int     `yaml:"water_min_pixel_area" mapstructure:"water_min_pixel_area"`
}

// SpatialConfig configures the claim buffer.
type SpatialConfig struct {
	BufferKM float64 `yaml:"buffer_km" mapstructure:"buffer_km"`
}

// GroundwaterConfig configures the well dataset and nearest-well search.
type GroundwaterConfig struct {
	WellsPath  string  `yaml:"wells_path" mapstructure:"wells_path"`
	K          int     `yaml:"k" mapstructure:"k"`
	MaxKM      float64 `yaml:"max_km" mapstructure:"max_km"`
	FallbackKM float64 `yaml:"fallback_km" mapstructure:"fallback_km"`
	FarWellKM  float64 `yaml:"far_well_km" mapstructure:"far_well_km"`
}

// SchemeConfig configures the recommendation engine.
type SchemeConfig struct {
	CatalogPath        string  `yaml:"catalog_path" mapstructure:"catalog_path"`
	VegMinHa           float64 `yaml:"veg_min_ha" mapstructure:"veg_min_ha"`
	WaterMinHa         float64 `yaml:"water_min_ha" mapstructure:"water_min_ha"`
	GroundwaterOkM     float64 `yaml:"groundwater_ok_m" mapstructure:"groundwater_ok_m"`
	MaxRecommendations int     `yaml:"max_recommendations" mapstructure:"max_recommendations"`
}

// BatchConfig configures batch processing.
type BatchConfig struct {
	MaxConcurrentClaims int `yaml:"max_concurrent_claims" mapstructure:"max_concurrent_claims"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("CLAIMEVAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("sentinel.base_url", "https://services.sentinel-hub.com")
	v.SetDefault("sentinel.token_url", "https://services.sentinel-hub.com/oauth/token")
	v.SetDefault("sentinel.rate_per_sec", 2)
	v.SetDefault("raster.margin_deg", 0.01)
	v.SetDefault("raster.width", 1536)
	v.SetDefault("raster.height", 1536)
	v.SetDefault("raster.window_days", 90)
	v.SetDefault("raster.max_cloud_cover", 20)
	v.SetDefault("raster.timeout_secs", 60)
	v.SetDefault("classify.forest_ndvi", 0.50)
	v.SetDefault("classify.cropland_ndvi_min", 0.20)
	v.SetDefault("classify.water_mndwi", -0.05)
	v.SetDefault("classify.water_ndwi", 0.05)
	v.SetDefault("classify.water_ndvi_max", 0.30)
	v.SetDefault("classify.water_bsi_max", 0.0)
	v.SetDefault("classify.urban_ndbi", 0.20)
	v.SetDefault("classify.barren_bsi", 0.20)
	v.SetDefault("classify.water_close", 2)
	v.SetDefault("classify.water_dilate", 3)
	v.SetDefault("classify.water_open", 0)
	v.SetDefault("classify.min_pixel_area", 200)
	v.SetDefault("classify.water_min_pixel_area", 5)
	v.SetDefault("spatial.buffer_km", 1.0)
	v.SetDefault("groundwater.wells_path", "sample_data/groundwater_levels.csv")
	v.SetDefault("groundwater.k", 3)
	v.SetDefault("groundwater.max_km", 100)
	v.SetDefault("groundwater.fallback_km", 200)
	v.SetDefault("groundwater.far_well_km", 100)
	v.SetDefault("scheme.veg_min_ha", 2.0)
	v.SetDefault("scheme.water_min_ha", 0.05)
	v.SetDefault("scheme.groundwater_ok_m", 15.0)
	v.SetDefault("scheme.max_recommendations", 5)
	v.SetDefault("batch.max_concurrent_claims", 4)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
