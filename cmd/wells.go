package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gramsetu/claimeval/internal/groundwater"
	"github.com/gramsetu/claimeval/internal/model"
)

var (
	wellsPrepareInput  string
	wellsPrepareOutput string

	wellsNearLat   float64
	wellsNearLon   float64
	wellsNearK     int
	wellsNearMaxKM float64
)

var wellsCmd = &cobra.Command{
	Use:   "wells",
	Short: "Groundwater well dataset utilities",
}

var wellsPrepareCmd = &cobra.Command{
	Use:   "prepare",
	Short: "Clean a raw Atal Jal export into the canonical well CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := groundwater.PrepareRaw(wellsPrepareInput, wellsPrepareOutput)
		if err != nil {
			return err
		}
		zap.L().Info("well dataset prepared",
			zap.String("output", wellsPrepareOutput),
			zap.Int("wells", n),
		)
		return nil
	},
}

var wellsNearCmd = &cobra.Command{
	Use:   "near",
	Short: "Look up the nearest wells to a point",
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := groundwater.Load(cfg.Groundwater.WellsPath)
		if err != nil {
			return err
		}

		maxKM := wellsNearMaxKM
		if maxKM <= 0 {
			maxKM = cfg.Groundwater.MaxKM
		}

		matcher := groundwater.NewMatcher(ds)
		stats := matcher.NearestWithFallback(
			model.GeoPoint{Lat: wellsNearLat, Lon: wellsNearLon},
			wellsNearK, maxKM, cfg.Groundwater.FallbackKM,
		)
		if stats == nil {
			zap.L().Warn("no wells found near point",
				zap.Float64("lat", wellsNearLat),
				zap.Float64("lon", wellsNearLon),
				zap.Float64("max_km", maxKM),
			)
			return nil
		}

		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(stats)
	},
}

func init() {
	wellsPrepareCmd.Flags().StringVar(&wellsPrepareInput, "input", "", "raw Atal Jal export (CSV or XLSX, required)")
	wellsPrepareCmd.Flags().StringVar(&wellsPrepareOutput, "output", "", "canonical well CSV path (required)")
	_ = wellsPrepareCmd.MarkFlagRequired("input")
	_ = wellsPrepareCmd.MarkFlagRequired("output")

	wellsNearCmd.Flags().Float64Var(&wellsNearLat, "lat", 0, "point latitude (required)")
	wellsNearCmd.Flags().Float64Var(&wellsNearLon, "lon", 0, "point longitude (required)")
	wellsNearCmd.Flags().IntVarP(&wellsNearK, "k", "k", 3, "number of nearest wells")
	wellsNearCmd.Flags().Float64Var(&wellsNearMaxKM, "max-km", 0, "search radius in km (default from config)")
	_ = wellsNearCmd.MarkFlagRequired("lat")
	_ = wellsNearCmd.MarkFlagRequired("lon")

	wellsCmd.AddCommand(wellsPrepareCmd, wellsNearCmd)
	rootCmd.AddCommand(wellsCmd)
}
