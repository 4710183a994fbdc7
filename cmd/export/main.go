package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	bq "github.com/dvloznov/finance-analyzer/internal/bigquery"
	"github.com/dvloznov/finance-analyzer/internal/config"
	infraBQ "github.com/dvloznov/finance-analyzer/internal/infra/bigquery"
	"github.com/dvloznov/finance-analyzer/internal/logger"
	"github.com/dvloznov/finance-analyzer/internal/pipeline"
)

func main() {
	// Initialize structured logger
	log := logger.New()

	// Parse CLI flags
	input := flag.String("input", "", "Input CSV path or gs:// URI")
	configPath := flag.String("config", "", "Path to YAML config file")
	project := flag.String("project", "", "GCP project ID (overrides config)")
	dataset := flag.String("dataset", "", "BigQuery dataset ID (overrides config)")
	contamination := flag.Float64("contamination", 0, "Expected anomaly share; 0 uses the configured default")
	list := flag.Bool("list", false, "List recent analysis runs instead of exporting")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatal().Err(err).Str("config", *configPath).Msg("Failed to load config")
		}
		cfg = loaded
	}
	if *project != "" {
		cfg.BigQuery.Project = *project
	}
	if *dataset != "" {
		cfg.BigQuery.Dataset = *dataset
	}
	if *contamination != 0 {
		cfg.Analysis.Contamination = *contamination
	}

	if cfg.BigQuery.Project == "" {
		log.Fatal().Msg("Error: -project (or bigquery.project in config) is required")
	}

	// Create context with timeout so CLI doesn't hang
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	// Add logger to context
	ctx = logger.WithContext(ctx, log)

	// Initialize BigQuery repository
	repo, err := infraBQ.NewBigQueryRunRepository(ctx, cfg.BigQuery.Project, cfg.BigQuery.Dataset)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize BigQuery repository")
	}
	defer repo.Close()

	if *list {
		listRuns(ctx, repo)
		return
	}

	if *input == "" {
		log.Fatal().Msg("Error: -input is required")
	}

	log.Info().
		Str("input", *input).
		Str("project", cfg.BigQuery.Project).
		Str("dataset", cfg.BigQuery.Dataset).
		Msg("Starting analysis export")

	runID, err := repo.StartAnalysisRun(ctx, *input, cfg.Analysis.Contamination)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to start analysis run")
	}

	log = log.With().Str("run_id", runID).Logger()
	ctx = logger.WithContext(ctx, log)

	result, err := pipeline.RunFromSource(ctx, *input, pipeline.Options{
		Contamination: cfg.Analysis.Contamination,
		Seed:          cfg.Analysis.Seed,
		TopTerms:      cfg.Analysis.TopTerms,
		MinTokenLen:   cfg.Analysis.MinTokenLen,
	})
	if err != nil {
		repo.MarkRunFailed(ctx, runID, err)
		log.Fatal().Err(err).Msg("Analysis failed")
	}

	rows := infraBQ.EnrichedRowsFromTransactions(runID, result.Transactions)
	if err := repo.InsertEnrichedTransactions(ctx, rows); err != nil {
		repo.MarkRunFailed(ctx, runID, err)
		log.Fatal().Err(err).Msg("Failed to insert enriched transactions")
	}

	var total float64
	for _, tx := range result.Transactions {
		total += tx.Amount
	}

	summary := bq.RunSummary{
		TransactionCount: len(result.Transactions),
		AnomalyCount:     len(result.Anomalies),
		TotalAmount:      total,
		AgreementPct:     result.Agreement,
	}
	if err := repo.MarkRunSucceeded(ctx, runID, summary); err != nil {
		log.Fatal().Err(err).Msg("Failed to finalize analysis run")
	}

	log.Info().
		Int("transaction_count", len(result.Transactions)).
		Int("anomaly_count", len(result.Anomalies)).
		Msg("Export completed")

	fmt.Printf("Exported run %s: %d transactions, %d anomalies\n", runID, len(result.Transactions), len(result.Anomalies))
}

func listRuns(ctx context.Context, repo bq.RunRepository) {
	log := logger.FromContext(ctx)

	runs, err := repo.ListRuns(ctx, 20)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list runs")
	}

	if len(runs) == 0 {
		fmt.Println("No analysis runs found.")
		return
	}

	for _, run := range runs {
		line := fmt.Sprintf("%s  %-8s  %s", run.StartedTS.Format(time.RFC3339), run.Status, run.RunID)
		if run.TransactionCount.Valid {
			line += fmt.Sprintf("  txs=%d", run.TransactionCount.Int64)
		}
		if run.AnomalyCount.Valid {
			line += fmt.Sprintf("  anomalies=%d", run.AnomalyCount.Int64)
		}
		if run.ErrorMessage != "" {
			line += "  error=" + run.ErrorMessage
		}
		fmt.Println(line)
	}
}
