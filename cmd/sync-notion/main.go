package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/dvloznov/finance-analyzer/internal/config"
	"github.com/dvloznov/finance-analyzer/internal/logger"
	"github.com/dvloznov/finance-analyzer/internal/notionsync"
	"github.com/dvloznov/finance-analyzer/internal/pipeline"
)

func main() {
	// Initialize structured logger
	log := logger.New()

	// Parse CLI flags
	input := flag.String("input", "", "Input CSV path or gs:// URI (required)")
	configPath := flag.String("config", "", "Path to YAML config file")
	notionToken := flag.String("notion-token", "", "Notion API token (required)")
	notionDBID := flag.String("notion-db-id", "", "Notion database ID (required unless set in config)")
	contamination := flag.Float64("contamination", 0, "Expected anomaly share; 0 uses the configured default")
	dryRun := flag.Bool("dry-run", false, "Dry run mode - preview changes without syncing")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatal().Err(err).Str("config", *configPath).Msg("Failed to load config")
		}
		cfg = loaded
	}
	if *notionDBID != "" {
		cfg.Notion.DatabaseID = *notionDBID
	}
	if *contamination != 0 {
		cfg.Analysis.Contamination = *contamination
	}

	// Validate required flags
	if *input == "" {
		log.Fatal().Msg("Error: -input is required")
	}
	if *notionToken == "" {
		log.Fatal().Msg("Error: -notion-token is required")
	}
	if cfg.Notion.DatabaseID == "" {
		log.Fatal().Msg("Error: -notion-db-id (or notion.database_id in config) is required")
	}

	// Create context with timeout so CLI doesn't hang
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	// Add logger to context
	ctx = logger.WithContext(ctx, log)

	log.Info().
		Str("input", *input).
		Bool("dry_run", *dryRun).
		Msg("Starting Notion sync")

	result, err := pipeline.RunFromSource(ctx, *input, pipeline.Options{
		Contamination: cfg.Analysis.Contamination,
		Seed:          cfg.Analysis.Seed,
		TopTerms:      cfg.Analysis.TopTerms,
		MinTokenLen:   cfg.Analysis.MinTokenLen,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Analysis failed")
	}

	// Initialize Notion client
	notionClient := notionsync.NewNotionClient(*notionToken)

	// Sync flagged anomalies
	if err := notionsync.SyncAnomalies(ctx, result.Anomalies, notionClient, cfg.Notion.DatabaseID, *dryRun); err != nil {
		log.Fatal().Err(err).Msg("Sync failed")
	}

	fmt.Println("Sync completed successfully.")
}
