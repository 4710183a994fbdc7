package report

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dvloznov/finance-analyzer/internal/domain"
	"github.com/dvloznov/finance-analyzer/internal/ingest"
	"github.com/dvloznov/finance-analyzer/internal/pipeline"
)

func resultFixture(t *testing.T) *pipeline.Result {
	t.Helper()

	txs := []domain.Transaction{
		{ID: "TX-1", Date: time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC), Month: 1, Year: 2025,
			Amount: 150.25, Category: "Food", Vendor: "Fresh Farms", RiskScore: 20, Notes: "weekly produce order"},
		{ID: "TX-2", Date: time.Date(2025, 2, 7, 0, 0, 0, 0, time.UTC), Month: 2, Year: 2025,
			Amount: 9000, Category: "Equipment", Vendor: "Restaurant Supply", RiskScore: 88, Flagged: true},
		{ID: "TX-3", Date: time.Date(2025, 2, 9, 0, 0, 0, 0, time.UTC), Month: 2, Year: 2025,
			Amount: 145.75, Category: "Food", Vendor: "Fresh Farms", RiskScore: 25, Notes: "weekly produce order"},
		{ID: "TX-4", Date: time.Date(2025, 2, 11, 0, 0, 0, 0, time.UTC), Month: 2, Year: 2025,
			Amount: 160, Category: "Food", Vendor: "Fresh Farms", RiskScore: 30},
	}

	result, err := pipeline.Run(context.Background(), txs, pipeline.Options{Contamination: 0.25})
	if err != nil {
		t.Fatalf("pipeline.Run failed: %v", err)
	}
	return result
}

func TestWriteSummary(t *testing.T) {
	result := resultFixture(t)

	var buf bytes.Buffer
	meta := RunMeta{
		RunID:     "run-123",
		Source:    "transactions.csv",
		Generated: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	if err := WriteSummary(&buf, meta, result); err != nil {
		t.Fatalf("WriteSummary failed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"Run ID: run-123",
		"Report Date: 2025-03-01",
		"Analysis Period: 2025-01-05 to 2025-02-11",
		"Total Transactions: 4",
		"== Commentary ==",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
	for _, statement := range result.Commentary {
		if !strings.Contains(out, statement) {
			t.Errorf("summary missing commentary statement %q", statement)
		}
	}
}

func TestWriteCSV_RoundTrip(t *testing.T) {
	result := resultFixture(t)

	var buf bytes.Buffer
	if err := WriteCSV(&buf, result.Transactions); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}

	reparsed, err := ingest.ParseCSV(&buf)
	if err != nil {
		t.Fatalf("re-ingesting exported CSV failed: %v", err)
	}
	if len(reparsed) != len(result.Transactions) {
		t.Fatalf("reparsed %d records, want %d", len(reparsed), len(result.Transactions))
	}

	for i, got := range reparsed {
		want := result.Transactions[i]
		if got.ID != want.ID {
			t.Errorf("record %d: ID = %q, want %q", i, got.ID, want.ID)
		}
		if got.Amount != want.Amount {
			t.Errorf("record %d: Amount = %v, want %v", i, got.Amount, want.Amount)
		}
		if got.RiskLevel != want.RiskLevel {
			t.Errorf("record %d: RiskLevel = %q, want %q", i, got.RiskLevel, want.RiskLevel)
		}
		if got.AnomalyFlagged != want.AnomalyFlagged {
			t.Errorf("record %d: AnomalyFlagged = %v, want %v", i, got.AnomalyFlagged, want.AnomalyFlagged)
		}
	}
}

func TestWriteAll(t *testing.T) {
	result := resultFixture(t)
	dir := filepath.Join(t.TempDir(), "run-1")

	meta := RunMeta{RunID: "run-1", Source: "input.csv", Generated: time.Now()}
	if err := WriteAll(dir, meta, result); err != nil {
		t.Fatalf("WriteAll failed: %v", err)
	}

	for _, name := range []string{SummaryFile, AnomaliesFile, EnrichedFile} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing artifact %s: %v", name, err)
		}
	}
}

func TestWriteAll_EmptyAnomalySet(t *testing.T) {
	result := resultFixture(t)
	result.Anomalies = nil

	dir := t.TempDir()
	meta := RunMeta{RunID: "run-2", Source: "input.csv", Generated: time.Now()}
	if err := WriteAll(dir, meta, result); err != nil {
		t.Fatalf("WriteAll with empty anomaly set failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, AnomaliesFile))
	if err != nil {
		t.Fatalf("reading anomalies CSV: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 1 {
		t.Errorf("anomalies CSV = %d lines, want header only", len(lines))
	}
}
