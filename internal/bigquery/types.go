package bigquery

import (
	"context"
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
)

// RunRepository provides an interface for analysis-run database operations.
type RunRepository interface {
	// StartAnalysisRun inserts a new run with status=RUNNING and returns the run_id.
	StartAnalysisRun(ctx context.Context, sourceURI string, contamination float64) (string, error)

	// MarkRunSucceeded sets status=SUCCESS, finished_ts and the run's summary counts.
	MarkRunSucceeded(ctx context.Context, runID string, summary RunSummary) error

	// MarkRunFailed sets status=FAILED, finished_ts and error_message for a run.
	MarkRunFailed(ctx context.Context, runID string, runErr error)

	// InsertEnrichedTransactions inserts a batch of EnrichedTransactionRow.
	InsertEnrichedTransactions(ctx context.Context, rows []*EnrichedTransactionRow) error

	// ListRuns retrieves the most recent analysis runs, newest first.
	ListRuns(ctx context.Context, limit int) ([]*RunRow, error)

	// QueryEnrichedByRun retrieves all enriched transactions written by a run.
	QueryEnrichedByRun(ctx context.Context, runID string) ([]*EnrichedTransactionRow, error)
}

// RunSummary carries the headline counts recorded when a run finishes.
type RunSummary struct {
	TransactionCount int
	AnomalyCount     int
	TotalAmount      float64
	AgreementPct     float64
}

// RunRow represents an analysis run record in BigQuery.
type RunRow struct {
	RunID     string `bigquery:"run_id"` // REQUIRED
	SourceURI string `bigquery:"source_uri"`

	StartedTS  time.Time              `bigquery:"started_ts"` // REQUIRED
	FinishedTS bigquery.NullTimestamp `bigquery:"finished_ts"`

	Contamination float64 `bigquery:"contamination"`

	Status       string `bigquery:"status"`
	ErrorMessage string `bigquery:"error_message"`

	TransactionCount bigquery.NullInt64   `bigquery:"transaction_count"`
	AnomalyCount     bigquery.NullInt64   `bigquery:"anomaly_count"`
	TotalAmount      bigquery.NullFloat64 `bigquery:"total_amount"`
	AgreementPct     bigquery.NullFloat64 `bigquery:"agreement_pct"`
}

// EnrichedTransactionRow represents an enriched transaction record in BigQuery.
type EnrichedTransactionRow struct {
	TransactionID string `bigquery:"transaction_id"` // REQUIRED
	RunID         string `bigquery:"run_id"`         // REQUIRED

	TransactionDate civil.Date `bigquery:"transaction_date"` // REQUIRED in schema

	Amount *big.Rat `bigquery:"amount"` // REQUIRED NUMERIC

	Category string `bigquery:"category"`
	Vendor   string `bigquery:"vendor"`

	RiskScore float64 `bigquery:"risk_score"`
	RiskLevel string  `bigquery:"risk_level"`

	SourceFlagged bool `bigquery:"source_flagged"`

	AnomalyScore   float64 `bigquery:"anomaly_score"`
	AnomalyFlagged bool    `bigquery:"anomaly_flagged"`

	Notes bigquery.NullString `bigquery:"notes"`

	CreatedTS time.Time `bigquery:"created_ts"` // REQUIRED (default CURRENT_TIMESTAMP)
}
