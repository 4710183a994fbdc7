package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/dvloznov/finance-analyzer/internal/domain"
	"github.com/dvloznov/finance-analyzer/internal/gcs"
	"github.com/dvloznov/finance-analyzer/internal/gcsuploader"
	"github.com/dvloznov/finance-analyzer/internal/ingest"
	"github.com/dvloznov/finance-analyzer/internal/logger"
)

// LoadTransactions reads and parses a transaction batch from a local path or
// a gs:// URI.
func LoadTransactions(ctx context.Context, sourceURI string) ([]domain.Transaction, error) {
	log := logger.FromContext(ctx)

	var data []byte
	var err error

	if gcs.IsGCSURI(sourceURI) {
		log.Info().Str("gcs_uri", sourceURI).Msg("Fetching batch from GCS")
		data, err = gcsuploader.FetchFromGCS(ctx, sourceURI)
		if err != nil {
			return nil, fmt.Errorf("fetch batch from GCS: %w", err)
		}
	} else {
		data, err = os.ReadFile(sourceURI)
		if err != nil {
			return nil, fmt.Errorf("read batch file: %w", err)
		}
	}

	txs, err := ingest.ParseCSV(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse batch %s: %w", sourceURI, err)
	}

	log.Info().
		Str("source", sourceURI).
		Int("transaction_count", len(txs)).
		Msg("Batch ingested")

	return txs, nil
}

// RunFromSource loads a batch from sourceURI and executes the full analysis.
func RunFromSource(ctx context.Context, sourceURI string, opts Options) (*Result, error) {
	txs, err := LoadTransactions(ctx, sourceURI)
	if err != nil {
		return nil, err
	}
	return Run(ctx, txs, opts)
}
