package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestReadMigrations(t *testing.T) {
	dir := t.TempDir()

	files := map[string]string{
		"0002_enriched_transactions.sql": "CREATE TABLE `{{PROJECT_ID}}.{{DATASET_ID}}.enriched_transactions` (transaction_id STRING);",
		"0001_analysis_runs.sql":         "CREATE TABLE `{{PROJECT_ID}}.{{DATASET_ID}}.analysis_runs` (run_id STRING);",
		"notes.txt":                      "not a migration",
		"001_bad_version.sql":            "SELECT 1;",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	migrations, err := readMigrations(dir, "my-project", "finance_analytics")
	if err != nil {
		t.Fatalf("readMigrations failed: %v", err)
	}

	if len(migrations) != 2 {
		t.Fatalf("got %d migrations, want 2", len(migrations))
	}

	// Sorted by version.
	if migrations[0].Version != 1 || migrations[0].Name != "analysis_runs" {
		t.Errorf("first migration = %d %q", migrations[0].Version, migrations[0].Name)
	}
	if migrations[1].Version != 2 || migrations[1].Name != "enriched_transactions" {
		t.Errorf("second migration = %d %q", migrations[1].Version, migrations[1].Name)
	}

	// Placeholders substituted.
	if !strings.Contains(migrations[0].SQL, "`my-project.finance_analytics.analysis_runs`") {
		t.Errorf("placeholders not substituted: %s", migrations[0].SQL)
	}
	if strings.Contains(migrations[0].SQL, "{{") {
		t.Errorf("placeholder remains in SQL: %s", migrations[0].SQL)
	}

	if migrations[0].Checksum == "" || migrations[0].Checksum == migrations[1].Checksum {
		t.Error("checksums missing or not content-dependent")
	}
}

func TestReadMigrations_MissingDir(t *testing.T) {
	if _, err := readMigrations(filepath.Join(t.TempDir(), "nope"), "p", "d"); err == nil {
		t.Error("expected error for missing migrations directory")
	}
}

func TestMigrationFilenamePattern(t *testing.T) {
	tests := []struct {
		filename string
		valid    bool
	}{
		{"0001_analysis_runs.sql", true},
		{"0010_add_agreement_column.sql", true},
		{"001_bad.sql", false},
		{"0001_missing_ext", false},
		{"0001.sql", false},
		{"bad_0001_order.sql", false},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			got := migrationFilePattern.MatchString(tt.filename)
			if got != tt.valid {
				t.Errorf("match = %v, want %v", got, tt.valid)
			}
		})
	}
}
