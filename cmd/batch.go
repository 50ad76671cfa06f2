package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gramsetu/claimeval/internal/evaluator"
	"github.com/gramsetu/claimeval/internal/model"
)

var (
	batchInput  string
	batchOutput string
	batchLimit  int
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Batch evaluate claims from a CSV file",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		pipeline, err := buildPipeline(cfg)
		if err != nil {
			return err
		}

		claims, err := readClaimsCSV(batchInput)
		if err != nil {
			return err
		}

		results, err := processBatch(ctx, pipeline, claims, batchLimit, cfg.Batch.MaxConcurrentClaims)
		if err != nil {
			return err
		}

		return writeResults(batchOutput, results)
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchInput, "input", "", "claims CSV: patta_holder,village,coordinates,claim_status (required)")
	batchCmd.Flags().StringVar(&batchOutput, "output", "", "results JSON path (default stdout)")
	batchCmd.Flags().IntVar(&batchLimit, "limit", 0, "max number of claims to process (0 = all)")
	_ = batchCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(batchCmd)
}

// readClaimsCSV parses the extraction collaborator's claim CSV. Claims with
// malformed coordinates are kept: the pipeline turns them into insufficient
// verdicts without aborting the batch.
func readClaimsCSV(path string) ([]model.Claim, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "batch: open claims %s", path)
	}
	defer func() { _ = f.Close() }()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, eris.Wrap(err, "batch: read claims header")
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := col["coordinates"]; !ok {
		return nil, eris.New("batch: claims CSV missing coordinates column")
	}

	var claims []model.Claim
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "batch: read claims row")
		}
		get := func(name string) string {
			i, ok := col[name]
			if !ok || i >= len(record) {
				return ""
			}
			return record[i]
		}
		claims = append(claims, model.NewClaim(
			get("id"),
			get("patta_holder"),
			get("village"),
			get("coordinates"),
			get("claim_status"),
		))
	}
	return claims, nil
}

// processBatch evaluates claims concurrently with a bounded worker pool.
// One claim's failure never aborts its siblings.
func processBatch(ctx context.Context, pipeline *evaluator.Pipeline, claims []model.Claim, limit, concurrency int) ([]*model.EvaluatedClaim, error) {
	if len(claims) == 0 {
		zap.L().Info("no claims found in input")
		return nil, nil
	}
	if limit > 0 && len(claims) > limit {
		claims = claims[:limit]
	}
	if concurrency <= 0 {
		concurrency = 1
	}

	zap.L().Info("processing batch",
		zap.Int("claims", len(claims)),
		zap.Int("concurrency", concurrency),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var mu sync.Mutex
	results := make([]*model.EvaluatedClaim, len(claims))
	var sufficient, insufficient atomic.Int64

	for i, claim := range claims {
		g.Go(func() error {
			result := pipeline.EvaluateClaim(gctx, claim)
			if result.Verdict.Sufficient {
				sufficient.Add(1)
			} else {
				insufficient.Add(1)
			}
			mu.Lock()
			results[i] = result
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "batch processing")
	}

	zap.L().Info("batch complete",
		zap.Int64("sufficient", sufficient.Load()),
		zap.Int64("insufficient", insufficient.Load()),
	)
	return results, nil
}

// writeResults writes the evaluations to the output path: a flat summary CSV
// when the path ends in .csv, indented JSON otherwise. No path means JSON to
// stdout.
func writeResults(path string, results []*model.EvaluatedClaim) error {
	out := os.Stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return eris.Wrapf(err, "batch: create output %s", path)
		}
		defer func() { _ = f.Close() }()
		out = f
	}

	if strings.HasSuffix(strings.ToLower(path), ".csv") {
		return writeResultsCSV(out, results)
	}

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(results); err != nil {
		return eris.Wrap(err, "batch: encode results")
	}
	return nil
}

// writeResultsCSV flattens the evaluations into one summary row per claim.
func writeResultsCSV(out io.Writer, results []*model.EvaluatedClaim) error {
	w := csv.NewWriter(out)
	header := []string{
		"claim_id", "patta_holder", "village", "coordinates", "claim_status",
		"sufficient", "reasons",
		"forest_ha", "cropland_ha", "water_ha", "urban_ha", "barren_ha", "vegetation_ha",
		"groundwater_depth_m", "overall_priority", "top_scheme",
	}
	if err := w.Write(header); err != nil {
		return eris.Wrap(err, "batch: write CSV header")
	}

	for _, r := range results {
		depth := ""
		if r.Groundwater != nil {
			depth = strconv.FormatFloat(r.Groundwater.AverageDepthM, 'f', 2, 64)
		}
		topScheme := ""
		if len(r.Recommendations) > 0 {
			topScheme = r.Recommendations[0].SchemeID
		}
		record := []string{
			r.ClaimID, r.PattaHolder, r.Village, r.Coordinates, r.ClaimStatus,
			strconv.FormatBool(r.Verdict.Sufficient),
			strings.Join(r.Verdict.Reasons, "; "),
			strconv.FormatFloat(r.Areas.ForestHa, 'f', 4, 64),
			strconv.FormatFloat(r.Areas.CroplandHa, 'f', 4, 64),
			strconv.FormatFloat(r.Areas.WaterHa, 'f', 4, 64),
			strconv.FormatFloat(r.Areas.UrbanHa, 'f', 4, 64),
			strconv.FormatFloat(r.Areas.BarrenHa, 'f', 4, 64),
			strconv.FormatFloat(r.Areas.VegetationHa, 'f', 4, 64),
			depth,
			strconv.FormatFloat(r.OverallPriority, 'f', 1, 64),
			topScheme,
		}
		if err := w.Write(record); err != nil {
			return eris.Wrap(err, "batch: write CSV row")
		}
	}

	w.Flush()
	return eris.Wrap(w.Error(), "batch: flush CSV")
}
