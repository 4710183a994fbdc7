package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	bq "github.com/dvloznov/finance-analyzer/internal/bigquery"
	"github.com/dvloznov/finance-analyzer/internal/logger"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
)

const (
	runsTable = "analysis_runs"
)

// StartAnalysisRun inserts a new row into <dataset>.analysis_runs with
// status=RUNNING and returns the generated run_id.
func StartAnalysisRun(ctx context.Context, projectID, datasetID, sourceURI string, contamination float64) (string, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return "", fmt.Errorf("StartAnalysisRun: bigquery client: %w", err)
	}
	defer client.Close()

	return StartAnalysisRunWithClient(ctx, client, datasetID, sourceURI, contamination)
}

// StartAnalysisRunWithClient inserts a new row into <dataset>.analysis_runs with
// status=RUNNING and returns the generated run_id using the provided BigQuery client.
func StartAnalysisRunWithClient(ctx context.Context, client *bigquery.Client, datasetID, sourceURI string, contamination float64) (string, error) {
	runID := uuid.NewString()
	started := time.Now()

	q := client.Query(fmt.Sprintf(`
		INSERT %s.%s (
			run_id,
			source_uri,
			started_ts,
			contamination,
			status
		)
		VALUES (
			@run_id,
			@source_uri,
			@started_ts,
			@contamination,
			@status
		)
	`, datasetID, runsTable))

	q.Parameters = []bigquery.QueryParameter{
		{Name: "run_id", Value: runID},
		{Name: "source_uri", Value: sourceURI},
		{Name: "started_ts", Value: started},
		{Name: "contamination", Value: contamination},
		{Name: "status", Value: "RUNNING"},
	}

	job, err := q.Run(ctx)
	if err != nil {
		return "", fmt.Errorf("StartAnalysisRun: running insert query: %w", err)
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return "", fmt.Errorf("StartAnalysisRun: waiting for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return "", fmt.Errorf("StartAnalysisRun: job error: %w", err)
	}

	return runID, nil
}

// MarkRunFailed sets status=FAILED, finished_ts and error_message.
func MarkRunFailed(ctx context.Context, projectID, datasetID, runID string, runErr error) {
	log := logger.FromContext(ctx)

	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		log.Error().
			Err(err).
			Str("run_id", runID).
			Msg("MarkRunFailed: bigquery client error")
		return
	}
	defer client.Close()

	MarkRunFailedWithClient(ctx, client, datasetID, runID, runErr)
}

// MarkRunFailedWithClient sets status=FAILED, finished_ts and error_message
// using the provided BigQuery client.
func MarkRunFailedWithClient(ctx context.Context, client *bigquery.Client, datasetID, runID string, runErr error) {
	log := logger.FromContext(ctx)

	errMsg := ""
	if runErr != nil {
		errMsg = runErr.Error()
		const maxLen = 2000
		if len(errMsg) > maxLen {
			errMsg = errMsg[:maxLen]
		}
	}

	q := client.Query(fmt.Sprintf(`
		UPDATE %s.%s
		SET status = @status,
		    finished_ts = @finished_ts,
		    error_message = @error_message
		WHERE run_id = @run_id
	`, datasetID, runsTable))

	q.Parameters = []bigquery.QueryParameter{
		{Name: "status", Value: "FAILED"},
		{Name: "finished_ts", Value: time.Now()},
		{Name: "error_message", Value: errMsg},
		{Name: "run_id", Value: runID},
	}

	job, err := q.Run(ctx)
	if err != nil {
		log.Error().
			Err(err).
			Str("run_id", runID).
			Msg("MarkRunFailed: running update query")
		return
	}

	status, err := job.Wait(ctx)
	if err != nil {
		log.Error().
			Err(err).
			Str("run_id", runID).
			Msg("MarkRunFailed: waiting for job")
		return
	}
	if err := status.Err(); err != nil {
		log.Error().
			Err(err).
			Str("run_id", runID).
			Msg("MarkRunFailed: job completed with error")
	}
}

// MarkRunSucceeded sets status=SUCCESS, finished_ts and the run's summary
// counts, and clears error_message.
func MarkRunSucceeded(ctx context.Context, projectID, datasetID, runID string, summary bq.RunSummary) error {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return fmt.Errorf("MarkRunSucceeded: bigquery client: %w", err)
	}
	defer client.Close()

	return MarkRunSucceededWithClient(ctx, client, datasetID, runID, summary)
}

// MarkRunSucceededWithClient sets status=SUCCESS, finished_ts and the run's
// summary counts using the provided BigQuery client.
func MarkRunSucceededWithClient(ctx context.Context, client *bigquery.Client, datasetID, runID string, summary bq.RunSummary) error {
	q := client.Query(fmt.Sprintf(`
		UPDATE %s.%s
		SET status = @status,
		    finished_ts = @finished_ts,
		    error_message = "",
		    transaction_count = @transaction_count,
		    anomaly_count = @anomaly_count,
		    total_amount = @total_amount,
		    agreement_pct = @agreement_pct
		WHERE run_id = @run_id
	`, datasetID, runsTable))

	q.Parameters = []bigquery.QueryParameter{
		{Name: "status", Value: "SUCCESS"},
		{Name: "finished_ts", Value: time.Now()},
		{Name: "transaction_count", Value: summary.TransactionCount},
		{Name: "anomaly_count", Value: summary.AnomalyCount},
		{Name: "total_amount", Value: summary.TotalAmount},
		{Name: "agreement_pct", Value: summary.AgreementPct},
		{Name: "run_id", Value: runID},
	}

	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("MarkRunSucceeded: running update query: %w", err)
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("MarkRunSucceeded: waiting for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("MarkRunSucceeded: job error: %w", err)
	}

	return nil
}

// ListRuns retrieves the most recent analysis runs, newest first.
func ListRuns(ctx context.Context, projectID, datasetID string, limit int) ([]*bq.RunRow, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("ListRuns: bigquery client: %w", err)
	}
	defer client.Close()

	return ListRunsWithClient(ctx, client, datasetID, limit)
}

// ListRunsWithClient retrieves the most recent analysis runs using the
// provided BigQuery client.
func ListRunsWithClient(ctx context.Context, client *bigquery.Client, datasetID string, limit int) ([]*bq.RunRow, error) {
	if limit <= 0 {
		limit = 50
	}

	q := client.Query(fmt.Sprintf(`
		SELECT
			run_id,
			source_uri,
			started_ts,
			finished_ts,
			contamination,
			status,
			error_message,
			transaction_count,
			anomaly_count,
			total_amount,
			agreement_pct
		FROM %s.%s
		ORDER BY started_ts DESC
		LIMIT @limit
	`, datasetID, runsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "limit", Value: limit},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListRuns: query read: %w", err)
	}

	var rows []*bq.RunRow
	for {
		var r bq.RunRow
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListRuns: iter next: %w", err)
		}
		rows = append(rows, &r)
	}

	return rows, nil
}
