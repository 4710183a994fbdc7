package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/dvloznov/finance-analyzer/internal/config"
	"github.com/dvloznov/finance-analyzer/internal/gcsuploader"
	"github.com/dvloznov/finance-analyzer/internal/jobs"
	"github.com/dvloznov/finance-analyzer/internal/jobs/inmemory"
	"github.com/dvloznov/finance-analyzer/internal/logger"
	"github.com/dvloznov/finance-analyzer/internal/metrics"
	"github.com/dvloznov/finance-analyzer/internal/pipeline"
	"github.com/dvloznov/finance-analyzer/internal/report"
	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
)

func main() {
	// Initialize logger
	log := logger.New()

	configPath := flag.String("config", "", "Path to YAML config file")
	watchDir := flag.String("watch", "", "Directory to watch for new CSV batches (optional)")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatal().Err(err).Str("config", *configPath).Msg("Failed to load config")
		}
		cfg = loaded
	}

	// Initialize job store and queue
	// In production, this would be replaced with Cloud Tasks or Pub/Sub
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(100, jobStore)

	log.Info().Msg("Starting worker service")

	// Create context that cancels on interrupt
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	// Create job handler that runs the analysis pipeline and writes reports
	handler := func(ctx context.Context, job jobs.Job) error {
		analyzeJob, ok := job.(*jobs.AnalyzeJob)
		if !ok {
			return fmt.Errorf("unexpected job type: %T", job)
		}

		runID := uuid.NewString()
		analyzeJob.RunID = runID
		runLog := log.With().
			Str("job_id", analyzeJob.JobID).
			Str("run_id", runID).
			Str("source_uri", analyzeJob.SourceURI).
			Logger()
		ctx = logger.WithContext(ctx, runLog)

		runLog.Info().Msg("Processing analysis job")

		metrics.RunsStarted.Inc()
		started := time.Now()

		contamination := analyzeJob.Contamination
		if contamination == 0 {
			contamination = cfg.Analysis.Contamination
		}

		result, err := pipeline.RunFromSource(ctx, analyzeJob.SourceURI, pipeline.Options{
			Contamination: contamination,
			Seed:          cfg.Analysis.Seed,
			TopTerms:      cfg.Analysis.TopTerms,
			MinTokenLen:   cfg.Analysis.MinTokenLen,
		})
		if err != nil {
			metrics.RunsFailed.Inc()
			runLog.Error().Err(err).Msg("Analysis failed")
			return err
		}

		metrics.RunsCompleted.Inc()
		metrics.TransactionsAnalyzed.Add(float64(len(result.Transactions)))
		metrics.AnomaliesDetected.Add(float64(len(result.Anomalies)))
		metrics.RunDuration.Observe(time.Since(started).Seconds())

		dir := filepath.Join(cfg.Report.Dir, runID)
		meta := report.RunMeta{
			RunID:     runID,
			Source:    analyzeJob.SourceURI,
			Generated: time.Now(),
		}
		if err := report.WriteAll(dir, meta, result); err != nil {
			runLog.Error().Err(err).Msg("Failed to write reports")
			return err
		}

		if cfg.GCS.Bucket != "" {
			prefix := "runs/" + runID
			if err := gcsuploader.UploadReportDir(ctx, cfg.GCS.Bucket, prefix, dir); err != nil {
				runLog.Error().Err(err).Msg("Failed to upload report artifacts")
				return err
			}
		}

		runLog.Info().
			Int("transaction_count", len(result.Transactions)).
			Int("anomaly_count", len(result.Anomalies)).
			Str("report_dir", dir).
			Msg("Analysis job completed")

		return nil
	}

	// Start consuming jobs
	if err := jobQueue.Start(ctx, handler); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job consumer")
	}

	// Optionally watch a directory and enqueue new CSV batches as they land
	if *watchDir != "" {
		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create filesystem watcher")
		}
		defer watcher.Close()

		if err := watcher.Add(*watchDir); err != nil {
			log.Fatal().Err(err).Str("dir", *watchDir).Msg("Failed to watch directory")
		}

		log.Info().Str("dir", *watchDir).Msg("Watching directory for new batches")

		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case event, ok := <-watcher.Events:
					if !ok {
						return
					}
					if !event.Op.Has(fsnotify.Create) {
						continue
					}
					if !strings.EqualFold(filepath.Ext(event.Name), ".csv") {
						continue
					}

					log.Info().Str("path", event.Name).Msg("New batch detected")
					job := &jobs.AnalyzeJob{SourceURI: event.Name}
					if err := jobQueue.PublishAnalyze(ctx, job); err != nil {
						log.Error().Err(err).Str("path", event.Name).Msg("Failed to enqueue batch")
					}
				case err, ok := <-watcher.Errors:
					if !ok {
						return
					}
					log.Error().Err(err).Msg("Filesystem watcher error")
				}
			}
		}()
	}

	log.Info().Msg("Worker service started, waiting for jobs...")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down worker service...")

	// Cancel context to stop workers
	cancel()

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Stop the queue and wait for in-flight jobs
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during graceful shutdown")
	}

	// Close the queue
	if err := jobQueue.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close job queue")
	}

	log.Info().Msg("Worker service exited")
}
