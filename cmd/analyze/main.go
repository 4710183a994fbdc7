package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dvloznov/finance-analyzer/internal/config"
	"github.com/dvloznov/finance-analyzer/internal/gcsuploader"
	"github.com/dvloznov/finance-analyzer/internal/insight"
	"github.com/dvloznov/finance-analyzer/internal/logger"
	"github.com/dvloznov/finance-analyzer/internal/pipeline"
	"github.com/dvloznov/finance-analyzer/internal/report"
	"github.com/google/uuid"
)

func main() {
	log := logger.New()

	input := flag.String("input", "", "Input CSV path or gs:// URI (required)")
	configPath := flag.String("config", "", "Path to YAML config file")
	contamination := flag.Float64("contamination", 0, "Expected anomaly share, (0, 0.5); 0 uses the configured default")
	seed := flag.Int64("seed", 0, "Detector seed; 0 uses the configured default")
	topTerms := flag.Int("top-terms", 0, "Number of lexical terms to report; 0 uses the configured default")
	outDir := flag.String("out", "", "Report output directory; overrides config")
	uploadBucket := flag.String("upload-bucket", "", "GCS bucket to upload report artifacts to (optional)")
	useGemini := flag.Bool("gemini", false, "Generate commentary with Gemini instead of templates (needs GEMINI_API_KEY)")
	flag.Parse()

	if *input == "" {
		log.Fatal().Msg("Error: -input is required")
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatal().Err(err).Str("config", *configPath).Msg("Failed to load config")
		}
		cfg = loaded
	}
	if *contamination != 0 {
		cfg.Analysis.Contamination = *contamination
	}
	if *seed != 0 {
		cfg.Analysis.Seed = *seed
	}
	if *topTerms != 0 {
		cfg.Analysis.TopTerms = *topTerms
	}
	if *outDir != "" {
		cfg.Report.Dir = *outDir
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	runID := uuid.NewString()
	log = log.With().Str("run_id", runID).Logger()
	ctx = logger.WithContext(ctx, log)

	opts := pipeline.Options{
		Contamination: cfg.Analysis.Contamination,
		Seed:          cfg.Analysis.Seed,
		TopTerms:      cfg.Analysis.TopTerms,
		MinTokenLen:   cfg.Analysis.MinTokenLen,
	}

	if *useGemini {
		if os.Getenv("GEMINI_API_KEY") == "" {
			log.Fatal().Msg("Error: -gemini requires GEMINI_API_KEY")
		}
		opts.Insights = insight.NewGeminiGenerator()
	}

	log.Info().
		Str("input", *input).
		Float64("contamination", opts.Contamination).
		Msg("Starting analysis")

	started := time.Now()
	result, err := pipeline.RunFromSource(ctx, *input, opts)
	if err != nil {
		log.Fatal().Err(err).Msg("Analysis failed")
	}

	log.Info().
		Int("transaction_count", len(result.Transactions)).
		Int("anomaly_count", len(result.Anomalies)).
		Float64("agreement_pct", result.Agreement).
		Dur("duration", time.Since(started)).
		Msg("Analysis completed")

	dir := filepath.Join(cfg.Report.Dir, runID)
	meta := report.RunMeta{
		RunID:     runID,
		Source:    *input,
		Generated: time.Now(),
	}
	if err := report.WriteAll(dir, meta, result); err != nil {
		log.Fatal().Err(err).Msg("Failed to write reports")
	}

	log.Info().Str("dir", dir).Msg("Reports written")

	if *uploadBucket != "" {
		prefix := "runs/" + runID
		if err := gcsuploader.UploadReportDir(ctx, *uploadBucket, prefix, dir); err != nil {
			log.Fatal().Err(err).Msg("Failed to upload report artifacts")
		}
		log.Info().
			Str("bucket", *uploadBucket).
			Str("prefix", prefix).
			Msg("Report artifacts uploaded")
	}

	fmt.Printf("Analysis complete: %d transactions, %d anomalies\n", len(result.Transactions), len(result.Anomalies))
	fmt.Printf("Reports: %s\n", dir)
}
