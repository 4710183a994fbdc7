package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	bq "github.com/dvloznov/finance-analyzer/internal/bigquery"
)

// Re-export interface from shared package for backward compatibility
type RunRepository = bq.RunRepository

// BigQueryRunRepository is the concrete implementation of RunRepository that
// interacts with BigQuery. It holds a shared BigQuery client to avoid
// creating a new connection for each operation.
type BigQueryRunRepository struct {
	client    *bigquery.Client
	datasetID string
}

// NewBigQueryRunRepository creates a new instance of BigQueryRunRepository
// with a shared BigQuery client.
func NewBigQueryRunRepository(ctx context.Context, projectID, datasetID string) (*BigQueryRunRepository, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewBigQueryRunRepository: creating client: %w", err)
	}
	return &BigQueryRunRepository{
		client:    client,
		datasetID: datasetID,
	}, nil
}

// Close closes the BigQuery client connection. This should be called when
// the repository is no longer needed to release resources.
func (r *BigQueryRunRepository) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// StartAnalysisRun delegates to the existing StartAnalysisRun function with the shared client.
func (r *BigQueryRunRepository) StartAnalysisRun(ctx context.Context, sourceURI string, contamination float64) (string, error) {
	return StartAnalysisRunWithClient(ctx, r.client, r.datasetID, sourceURI, contamination)
}

// MarkRunSucceeded delegates to the existing MarkRunSucceeded function with the shared client.
func (r *BigQueryRunRepository) MarkRunSucceeded(ctx context.Context, runID string, summary bq.RunSummary) error {
	return MarkRunSucceededWithClient(ctx, r.client, r.datasetID, runID, summary)
}

// MarkRunFailed delegates to the existing MarkRunFailed function with the shared client.
func (r *BigQueryRunRepository) MarkRunFailed(ctx context.Context, runID string, runErr error) {
	MarkRunFailedWithClient(ctx, r.client, r.datasetID, runID, runErr)
}

// InsertEnrichedTransactions delegates to the existing InsertEnrichedTransactions function with the shared client.
func (r *BigQueryRunRepository) InsertEnrichedTransactions(ctx context.Context, rows []*bq.EnrichedTransactionRow) error {
	return InsertEnrichedTransactionsWithClient(ctx, r.client, r.datasetID, rows)
}

// ListRuns delegates to the existing ListRuns function with the shared client.
func (r *BigQueryRunRepository) ListRuns(ctx context.Context, limit int) ([]*bq.RunRow, error) {
	return ListRunsWithClient(ctx, r.client, r.datasetID, limit)
}

// QueryEnrichedByRun delegates to the existing QueryEnrichedByRun function with the shared client.
func (r *BigQueryRunRepository) QueryEnrichedByRun(ctx context.Context, runID string) ([]*bq.EnrichedTransactionRow, error) {
	return QueryEnrichedByRunWithClient(ctx, r.client, r.datasetID, runID)
}
