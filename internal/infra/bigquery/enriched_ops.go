package bigquery

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	bq "github.com/dvloznov/finance-analyzer/internal/bigquery"
	"github.com/dvloznov/finance-analyzer/internal/domain"
	"google.golang.org/api/iterator"
)

const (
	enrichedTable = "enriched_transactions"
)

// InsertEnrichedTransactions inserts a batch of EnrichedTransactionRow into
// <dataset>.enriched_transactions.
func InsertEnrichedTransactions(ctx context.Context, projectID, datasetID string, rows []*bq.EnrichedTransactionRow) error {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return fmt.Errorf("InsertEnrichedTransactions: bigquery client: %w", err)
	}
	defer client.Close()

	return InsertEnrichedTransactionsWithClient(ctx, client, datasetID, rows)
}

// InsertEnrichedTransactionsWithClient inserts a batch of EnrichedTransactionRow
// using the provided BigQuery client.
func InsertEnrichedTransactionsWithClient(ctx context.Context, client *bigquery.Client, datasetID string, rows []*bq.EnrichedTransactionRow) error {
	if len(rows) == 0 {
		return nil
	}

	table := client.Dataset(datasetID).Table(enrichedTable)
	inserter := table.Inserter()
	if err := inserter.Put(ctx, rows); err != nil {
		return fmt.Errorf("InsertEnrichedTransactions: inserting rows: %w", err)
	}

	return nil
}

// QueryEnrichedByRun retrieves all enriched transactions written by a run.
func QueryEnrichedByRun(ctx context.Context, projectID, datasetID, runID string) ([]*bq.EnrichedTransactionRow, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("QueryEnrichedByRun: bigquery client: %w", err)
	}
	defer client.Close()

	return QueryEnrichedByRunWithClient(ctx, client, datasetID, runID)
}

// QueryEnrichedByRunWithClient retrieves all enriched transactions written by
// a run using the provided BigQuery client.
func QueryEnrichedByRunWithClient(ctx context.Context, client *bigquery.Client, datasetID, runID string) ([]*bq.EnrichedTransactionRow, error) {
	q := client.Query(fmt.Sprintf(`
		SELECT
			transaction_id,
			run_id,
			transaction_date,
			amount,
			category,
			vendor,
			risk_score,
			risk_level,
			source_flagged,
			anomaly_score,
			anomaly_flagged,
			notes,
			created_ts
		FROM %s.%s
		WHERE run_id = @run_id
		ORDER BY transaction_date, created_ts
	`, datasetID, enrichedTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "run_id", Value: runID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("QueryEnrichedByRun: query read: %w", err)
	}

	var rows []*bq.EnrichedTransactionRow
	for {
		var r bq.EnrichedTransactionRow
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("QueryEnrichedByRun: iter next: %w", err)
		}
		rows = append(rows, &r)
	}

	return rows, nil
}

// EnrichedRowsFromTransactions maps enriched domain transactions to BigQuery
// rows for a given run. Input order is preserved.
func EnrichedRowsFromTransactions(runID string, txs []domain.Transaction) []*bq.EnrichedTransactionRow {
	now := time.Now()

	rows := make([]*bq.EnrichedTransactionRow, 0, len(txs))
	for _, tx := range txs {
		row := &bq.EnrichedTransactionRow{
			TransactionID:   tx.ID,
			RunID:           runID,
			TransactionDate: civil.DateOf(tx.Date),
			Amount:          new(big.Rat).SetFloat64(tx.Amount),
			Category:        tx.Category,
			Vendor:          tx.Vendor,
			RiskScore:       tx.RiskScore,
			RiskLevel:       string(tx.RiskLevel),
			SourceFlagged:   tx.Flagged,
			AnomalyScore:    tx.AnomalyScore,
			AnomalyFlagged:  tx.AnomalyFlagged,
			CreatedTS:       now,
		}
		if tx.Notes != "" {
			row.Notes = bigquery.NullString{StringVal: tx.Notes, Valid: true}
		}
		rows = append(rows, row)
	}
	return rows
}
