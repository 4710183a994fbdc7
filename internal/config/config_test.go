package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Analysis.Contamination != 0.05 {
		t.Errorf("Contamination = %v, want 0.05", cfg.Analysis.Contamination)
	}
	if cfg.Analysis.Seed != 42 {
		t.Errorf("Seed = %v, want 42", cfg.Analysis.Seed)
	}
	if cfg.Analysis.TopTerms != 10 {
		t.Errorf("TopTerms = %v, want 10", cfg.Analysis.TopTerms)
	}
	if cfg.Report.Dir != "reports" {
		t.Errorf("Report.Dir = %q, want reports", cfg.Report.Dir)
	}
	if cfg.API.Port != "8080" {
		t.Errorf("API.Port = %q, want 8080", cfg.API.Port)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "analyzer.yaml")
	content := `
analysis:
  contamination: 0.1
  top_terms: 5
report:
  dir: /tmp/reports
gcs:
  bucket: analysis-artifacts
bigquery:
  project: my-project
notion:
  database_id: abc123
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Analysis.Contamination != 0.1 {
		t.Errorf("Contamination = %v, want 0.1", cfg.Analysis.Contamination)
	}
	if cfg.Analysis.TopTerms != 5 {
		t.Errorf("TopTerms = %v, want 5", cfg.Analysis.TopTerms)
	}
	// Unset values get defaults.
	if cfg.Analysis.Seed != 42 {
		t.Errorf("Seed = %v, want default 42", cfg.Analysis.Seed)
	}
	if cfg.BigQuery.Dataset != "finance_analytics" {
		t.Errorf("Dataset = %q, want default finance_analytics", cfg.BigQuery.Dataset)
	}
	if cfg.GCS.Bucket != "analysis-artifacts" {
		t.Errorf("Bucket = %q", cfg.GCS.Bucket)
	}
	if cfg.Notion.DatabaseID != "abc123" {
		t.Errorf("DatabaseID = %q", cfg.Notion.DatabaseID)
	}
}

func TestLoad_Errors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("analysis: [not a map"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed YAML")
	}
}
