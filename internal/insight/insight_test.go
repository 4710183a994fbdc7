package insight

import (
	"context"
	"reflect"
	"testing"

	"github.com/dvloznov/finance-analyzer/internal/domain"
)

func TestSummarize(t *testing.T) {
	txs := []domain.Transaction{
		{Amount: 100, RiskLevel: domain.RiskLow},
		{Amount: 200, RiskLevel: domain.RiskHigh},
		{Amount: 300, RiskLevel: domain.RiskMedium},
		{Amount: 400, RiskLevel: domain.RiskHigh},
	}

	agg := Summarize(txs)

	if agg.TransactionCount != 4 {
		t.Errorf("TransactionCount = %d, want 4", agg.TransactionCount)
	}
	if agg.TotalAmount != 1000 {
		t.Errorf("TotalAmount = %v, want 1000", agg.TotalAmount)
	}
	if agg.AverageAmount != 250 {
		t.Errorf("AverageAmount = %v, want 250", agg.AverageAmount)
	}
	if agg.HighRiskCount != 2 || agg.HighRiskAmount != 600 {
		t.Errorf("high risk = %d/$%v, want 2/$600", agg.HighRiskCount, agg.HighRiskAmount)
	}
	if agg.HighRiskShare != 60 {
		t.Errorf("HighRiskShare = %v, want 60", agg.HighRiskShare)
	}
}

func TestSummarize_Empty(t *testing.T) {
	agg := Summarize(nil)
	if agg.TransactionCount != 0 || agg.AverageAmount != 0 || agg.HighRiskShare != 0 {
		t.Errorf("empty batch aggregates = %+v, want zeros", agg)
	}
}

func TestTemplateGenerator_Deterministic(t *testing.T) {
	agg := Aggregates{
		TransactionCount: 120,
		TotalAmount:      45231.50,
		AverageAmount:    376.93,
		HighRiskCount:    9,
		HighRiskShare:    14.2,
	}

	gen := TemplateGenerator{}
	first, err := gen.Generate(context.Background(), agg)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	second, err := gen.Generate(context.Background(), agg)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("identical aggregates produced different statements:\n%v\n%v", first, second)
	}
	if len(first) != 3 {
		t.Fatalf("got %d statements, want 3", len(first))
	}

	want := []string{
		"Analysis of 120 transactions totaling $45231.50",
		"Average transaction amount: $376.93",
		"9 high-risk transactions (14.2% of total value)",
	}
	if !reflect.DeepEqual(first, want) {
		t.Errorf("statements = %v, want %v", first, want)
	}
}
