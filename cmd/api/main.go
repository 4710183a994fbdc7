package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dvloznov/finance-analyzer/internal/api/handlers"
	"github.com/dvloznov/finance-analyzer/internal/api/middleware"
	"github.com/dvloznov/finance-analyzer/internal/config"
	"github.com/dvloznov/finance-analyzer/internal/jobs"
	"github.com/dvloznov/finance-analyzer/internal/jobs/inmemory"
	"github.com/dvloznov/finance-analyzer/internal/logger"
	"github.com/dvloznov/finance-analyzer/internal/metrics"
	"github.com/dvloznov/finance-analyzer/internal/pipeline"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// Parse command-line flags
	var (
		configPath = flag.String("config", "", "Path to YAML config file")
		port       = flag.String("port", "", "HTTP server port (overrides config)")
	)
	flag.Parse()

	// Initialize logger
	log := logger.New()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatal().Err(err).Str("config", *configPath).Msg("Failed to load config")
		}
		cfg = loaded
	}
	if *port != "" {
		cfg.API.Port = *port
	}

	ctx := context.Background()
	ctx = logger.WithContext(ctx, log)

	// Initialize run and job infrastructure
	resultStore := handlers.NewResultStore()
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(100, jobStore)

	// Start worker in background to process jobs
	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	// Create job handler that runs the analysis pipeline
	jobHandler := func(ctx context.Context, job jobs.Job) error {
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

		rec := &handlers.RunRecord{
			RunID:            runID,
			JobID:            analyzeJob.JobID,
			SourceURI:        analyzeJob.SourceURI,
			StartedAt:        started,
			FinishedAt:       time.Now(),
			Contamination:    contamination,
			TransactionCount: len(result.Transactions),
			AnomalyCount:     len(result.Anomalies),
			Result:           result,
		}
		if err := resultStore.Save(rec); err != nil {
			runLog.Error().Err(err).Msg("Failed to store run result")
			return err
		}

		runLog.Info().
			Int("transaction_count", len(result.Transactions)).
			Int("anomaly_count", len(result.Anomalies)).
			Msg("Analysis completed")

		return nil
	}

	// Start job consumer in background
	go func() {
		log.Info().Msg("Starting job worker")
		if err := jobQueue.Start(workerCtx, jobHandler); err != nil {
			log.Error().Err(err).Msg("Job worker stopped with error")
		}
	}()

	// Initialize handlers
	runsHandler := handlers.NewRunsHandler(resultStore, jobQueue, log)
	jobsHandler := handlers.NewJobsHandler(jobStore, log)

	// Create router
	mux := http.NewServeMux()

	// Runs endpoints
	mux.HandleFunc("/api/runs", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			runsHandler.EnqueueRun(w, r)
		case http.MethodGet:
			runsHandler.ListRuns(w, r)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/runs/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		// Path forms: /api/runs/{id} and /api/runs/{id}/{view}
		rest := strings.TrimPrefix(r.URL.Path, "/api/runs/")
		runID, view, _ := strings.Cut(rest, "/")
		if runID == "" {
			middleware.WriteError(w, http.StatusBadRequest, "Run ID is required")
			return
		}

		switch view {
		case "":
			runsHandler.GetRun(w, r, runID)
		case "anomalies":
			runsHandler.GetRunAnomalies(w, r, runID)
		case "insights":
			runsHandler.GetRunInsights(w, r, runID)
		case "variance":
			runsHandler.GetRunVariance(w, r, runID)
		default:
			middleware.WriteError(w, http.StatusNotFound, "Unknown run view")
		}
	})

	// Jobs endpoints
	mux.HandleFunc("/api/jobs", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			jobsHandler.ListJobs(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/jobs/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			jobID := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
			if jobID == "" {
				middleware.WriteError(w, http.StatusBadRequest, "Job ID is required")
				return
			}
			jobsHandler.GetJob(w, r, jobID)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// Prometheus metrics endpoint
	mux.Handle("/metrics", promhttp.Handler())

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// Apply middleware
	handler := middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.RequestID(
				middleware.CORS(
					middleware.Auth(mux),
				),
			),
		),
	)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.API.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("port", cfg.API.Port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Cancel worker context
	cancelWorker()

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	// Stop job queue and wait for in-flight jobs
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}

	// Close job queue
	if err := jobQueue.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close job queue")
	}

	log.Info().Msg("Server exited")
}
