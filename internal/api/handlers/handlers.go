package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/dvloznov/finance-analyzer/internal/api/middleware"
	"github.com/dvloznov/finance-analyzer/internal/jobs"
	"github.com/dvloznov/finance-analyzer/internal/variance"
	"github.com/rs/zerolog"
)

// RunsHandler handles analysis-run endpoints.
type RunsHandler struct {
	store     *ResultStore
	publisher jobs.Publisher
	log       zerolog.Logger
}

// NewRunsHandler creates a new runs handler.
func NewRunsHandler(store *ResultStore, publisher jobs.Publisher, log zerolog.Logger) *RunsHandler {
	return &RunsHandler{
		store:     store,
		publisher: publisher,
		log:       log,
	}
}

// EnqueueRun handles POST /api/runs
func (h *RunsHandler) EnqueueRun(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SourceURI     string  `json:"source_uri"`
		Contamination float64 `json:"contamination"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.SourceURI == "" {
		middleware.WriteError(w, http.StatusBadRequest, "source_uri is required")
		return
	}
	if req.Contamination < 0 || req.Contamination >= 0.5 {
		middleware.WriteError(w, http.StatusBadRequest, "contamination must be in [0, 0.5)")
		return
	}

	ctx := r.Context()

	job := &jobs.AnalyzeJob{
		SourceURI:     req.SourceURI,
		Contamination: req.Contamination,
	}

	if err := h.publisher.PublishAnalyze(ctx, job); err != nil {
		h.log.Error().Err(err).Msg("Failed to enqueue analysis job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue analysis job")
		return
	}

	h.log.Info().Str("job_id", job.JobID).Str("source_uri", req.SourceURI).Msg("Analysis job enqueued")

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id":     job.JobID,
		"source_uri": req.SourceURI,
		"status":     string(job.Status),
	})
}

// ListRuns handles GET /api/runs
func (h *RunsHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	runs := h.store.List()

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"runs":  runs,
		"count": len(runs),
	})
}

// GetRun handles GET /api/runs/{id}
func (h *RunsHandler) GetRun(w http.ResponseWriter, r *http.Request, runID string) {
	rec, err := h.store.Get(runID)
	if err != nil {
		middleware.WriteError(w, http.StatusNotFound, "Run not found")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"run":             rec,
		"agreement_pct":   rec.Result.Agreement,
		"risk_counts":     rec.Result.RiskCounts,
		"category_totals": rec.Result.CategoryTotals,
	})
}

// GetRunAnomalies handles GET /api/runs/{id}/anomalies
func (h *RunsHandler) GetRunAnomalies(w http.ResponseWriter, r *http.Request, runID string) {
	rec, err := h.store.Get(runID)
	if err != nil {
		middleware.WriteError(w, http.StatusNotFound, "Run not found")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"run_id":    rec.RunID,
		"anomalies": rec.Result.Anomalies,
		"count":     len(rec.Result.Anomalies),
	})
}

// GetRunInsights handles GET /api/runs/{id}/insights
func (h *RunsHandler) GetRunInsights(w http.ResponseWriter, r *http.Request, runID string) {
	rec, err := h.store.Get(runID)
	if err != nil {
		middleware.WriteError(w, http.StatusNotFound, "Run not found")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"run_id":     rec.RunID,
		"commentary": rec.Result.Commentary,
		"terms":      rec.Result.Terms,
	})
}

// GetRunVariance handles GET /api/runs/{id}/variance
func (h *RunsHandler) GetRunVariance(w http.ResponseWriter, r *http.Request, runID string) {
	rec, err := h.store.Get(runID)
	if err != nil {
		middleware.WriteError(w, http.StatusNotFound, "Run not found")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, varianceView(rec.RunID, rec.Result.Variance))
}

// varianceView flattens the variance table into a JSON-friendly shape.
// Map keys are "YYYY-MM" month strings; an absent change means the value is
// undefined for that cell (first month or zero prior sum).
func varianceView(runID string, table *variance.Table) map[string]interface{} {
	months := make([]string, 0, len(table.Months))
	totals := make(map[string]map[string]float64, len(table.Months))
	changes := make(map[string]map[string]float64, len(table.Months))

	for _, m := range table.Months {
		key := m.String()
		months = append(months, key)

		totalRow := make(map[string]float64, len(table.Categories))
		changeRow := make(map[string]float64)
		for _, c := range table.Categories {
			totalRow[c] = table.Total(m, c)
			if ch := table.Change(m, c); ch.Valid {
				changeRow[c] = ch.Pct
			}
		}
		totals[key] = totalRow
		changes[key] = changeRow
	}

	return map[string]interface{}{
		"run_id":      runID,
		"months":      months,
		"categories":  table.Categories,
		"totals":      totals,
		"changes_pct": changes,
	}
}

// JobsHandler handles job-related endpoints.
type JobsHandler struct {
	store jobs.JobStore
	log   zerolog.Logger
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(store jobs.JobStore, log zerolog.Logger) *JobsHandler {
	return &JobsHandler{
		store: store,
		log:   log,
	}
}

// GetJob handles GET /api/jobs/{id}
func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request, jobID string) {
	ctx := r.Context()

	job, err := h.store.GetJob(ctx, jobID)
	if err != nil {
		h.log.Error().Err(err).Str("job_id", jobID).Msg("Failed to get job")
		middleware.WriteError(w, http.StatusNotFound, "Job not found")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, job)
}

// ListJobs handles GET /api/jobs
func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	query := r.URL.Query()
	filter := jobs.JobFilter{
		SourceURI: query.Get("source_uri"),
		Status:    jobs.JobStatus(query.Get("status")),
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			filter.Limit = limit
		}
	}

	if offsetStr := query.Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil {
			filter.Offset = offset
		}
	}

	jobsList, err := h.store.ListJobs(ctx, filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list jobs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  jobsList,
		"count": len(jobsList),
	})
}
