// Package report renders run artifacts: the plain-text summary and the CSV
// exports consumed by external collaborators. It reads pipeline results and
// never mutates them.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/dvloznov/finance-analyzer/internal/domain"
	"github.com/dvloznov/finance-analyzer/internal/ingest"
	"github.com/dvloznov/finance-analyzer/internal/pipeline"
)

// Artifact file names inside a run's report directory.
const (
	SummaryFile   = "financial_summary.txt"
	AnomaliesFile = "anomaly_transactions.csv"
	EnrichedFile  = "enriched_transactions.csv"
)

// RunMeta is the metadata block at the top of the summary.
type RunMeta struct {
	RunID     string
	Source    string
	Generated time.Time
}

// WriteSummary renders the plain-text summary: run metadata, analysis period,
// key metrics, and the commentary list.
func WriteSummary(w io.Writer, meta RunMeta, result *pipeline.Result) error {
	var start, end time.Time
	for _, tx := range result.Transactions {
		if start.IsZero() || tx.Date.Before(start) {
			start = tx.Date
		}
		if end.IsZero() || tx.Date.After(end) {
			end = tx.Date
		}
	}

	var total float64
	for _, tx := range result.Transactions {
		total += tx.Amount
	}
	count := len(result.Transactions)
	var avg, anomalyPct float64
	if count > 0 {
		avg = total / float64(count)
		anomalyPct = float64(len(result.Anomalies)) / float64(count) * 100
	}

	lines := []string{
		"=== Financial Analysis Summary ===",
		"",
		fmt.Sprintf("Run ID: %s", meta.RunID),
		fmt.Sprintf("Source: %s", meta.Source),
		fmt.Sprintf("Report Date: %s", meta.Generated.Format("2006-01-02")),
	}
	if !start.IsZero() {
		lines = append(lines, fmt.Sprintf("Analysis Period: %s to %s",
			start.Format("2006-01-02"), end.Format("2006-01-02")))
	}
	lines = append(lines,
		"",
		"== Key Metrics ==",
		fmt.Sprintf("Total Transactions: %d", count),
		fmt.Sprintf("Total Transaction Value: $%.2f", total),
		fmt.Sprintf("Average Transaction Amount: $%.2f", avg),
		fmt.Sprintf("Anomalies Detected: %d (%.1f%%)", len(result.Anomalies), anomalyPct),
		fmt.Sprintf("Detector/Ground-Truth Agreement: %.2f%%", result.Agreement),
		"",
		"== Commentary ==",
	)
	for _, statement := range result.Commentary {
		lines = append(lines, fmt.Sprintf("- %s", statement))
	}

	if len(result.Terms) > 0 {
		lines = append(lines, "", "== Common Terms in Notes ==")
		for _, term := range result.Terms {
			lines = append(lines, fmt.Sprintf("- %s: %d occurrences", term.Term, term.Count))
		}
	}

	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return fmt.Errorf("writing summary: %w", err)
		}
	}
	return nil
}

// WriteCSV exports transactions in the ingest column layout plus the
// enrichment columns, so the output can be re-ingested losslessly.
func WriteCSV(w io.Writer, txs []domain.Transaction) error {
	cw := csv.NewWriter(w)

	header := []string{
		ingest.ColID, ingest.ColDate, ingest.ColAmount, ingest.ColCategory,
		ingest.ColVendor, ingest.ColRiskScore, ingest.ColFlag, ingest.ColNotes,
		ingest.ColAnomalyScore, ingest.ColAnomalyFlag, ingest.ColRiskLevel,
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}

	for _, tx := range txs {
		record := []string{
			tx.ID,
			tx.Date.Format("2006-01-02"),
			strconv.FormatFloat(tx.Amount, 'f', -1, 64),
			tx.Category,
			tx.Vendor,
			strconv.FormatFloat(tx.RiskScore, 'f', -1, 64),
			flagToken(tx.Flagged),
			tx.Notes,
			strconv.FormatFloat(tx.AnomalyScore, 'f', -1, 64),
			flagToken(tx.AnomalyFlagged),
			string(tx.RiskLevel),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing transaction %s: %w", tx.ID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteAll writes every artifact for a run into dir, creating it if needed.
// The anomalies CSV is written even when the anomaly set is empty.
func WriteAll(dir string, meta RunMeta, result *pipeline.Result) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating report dir: %w", err)
	}

	if err := writeFile(filepath.Join(dir, SummaryFile), func(w io.Writer) error {
		return WriteSummary(w, meta, result)
	}); err != nil {
		return err
	}
	if err := writeFile(filepath.Join(dir, EnrichedFile), func(w io.Writer) error {
		return WriteCSV(w, result.Transactions)
	}); err != nil {
		return err
	}
	return writeFile(filepath.Join(dir, AnomaliesFile), func(w io.Writer) error {
		return WriteCSV(w, result.Anomalies)
	})
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	return nil
}

func flagToken(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
