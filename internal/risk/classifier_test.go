package risk

import (
	"errors"
	"testing"

	"github.com/dvloznov/finance-analyzer/internal/domain"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		score float64
		want  domain.RiskLevel
	}{
		{0, domain.RiskLow},
		{15, domain.RiskLow},
		{30, domain.RiskLow},    // boundary: inclusive
		{30.01, domain.RiskMedium},
		{50, domain.RiskMedium},
		{70, domain.RiskMedium}, // boundary: inclusive
		{70.01, domain.RiskHigh},
		{99, domain.RiskHigh},
		{100, domain.RiskHigh},
	}

	for _, tt := range tests {
		got, err := Classify(tt.score)
		if err != nil {
			t.Errorf("Classify(%v) failed: %v", tt.score, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Classify(%v) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

func TestClassify_Monotonic(t *testing.T) {
	rank := map[domain.RiskLevel]int{domain.RiskLow: 0, domain.RiskMedium: 1, domain.RiskHigh: 2}

	prev := -1
	for score := 0.0; score <= 100.0; score += 0.5 {
		level, err := Classify(score)
		if err != nil {
			t.Fatalf("Classify(%v) failed: %v", score, err)
		}
		if rank[level] < prev {
			t.Fatalf("tier decreased at score %v", score)
		}
		prev = rank[level]
	}
}

func TestClassify_OutOfRange(t *testing.T) {
	for _, score := range []float64{-0.1, 100.1, 1000} {
		_, err := Classify(score)
		if err == nil {
			t.Errorf("Classify(%v) = nil error, want validation error", score)
			continue
		}
		var verr *domain.ValidationError
		if !errors.As(err, &verr) {
			t.Errorf("Classify(%v) error type = %T, want *domain.ValidationError", score, err)
		}
	}
}

func TestClassifyAll(t *testing.T) {
	txs := []domain.Transaction{
		{ID: "a", RiskScore: 10},
		{ID: "b", RiskScore: 45},
		{ID: "c", RiskScore: 90},
		{ID: "d", RiskScore: 30},
	}

	enriched, counts, err := ClassifyAll(txs)
	if err != nil {
		t.Fatalf("ClassifyAll failed: %v", err)
	}

	if counts[domain.RiskLow] != 2 || counts[domain.RiskMedium] != 1 || counts[domain.RiskHigh] != 1 {
		t.Errorf("counts = %v, want Low:2 Medium:1 High:1", counts)
	}
	if enriched[2].RiskLevel != domain.RiskHigh {
		t.Errorf("enriched[2].RiskLevel = %q, want High", enriched[2].RiskLevel)
	}

	// Input untouched.
	for i, tx := range txs {
		if tx.RiskLevel != "" {
			t.Fatalf("input record %d was mutated", i)
		}
	}
}

func TestClassifyAll_IdentifiesOffendingRecord(t *testing.T) {
	txs := []domain.Transaction{
		{ID: "ok", RiskScore: 10},
		{ID: "bad", RiskScore: 250},
	}

	_, _, err := ClassifyAll(txs)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if want := "bad"; !errors.As(err, new(*domain.ValidationError)) {
		t.Errorf("error type = %T, want wrapped *domain.ValidationError (%s)", err, want)
	}
}
