// Package insight derives ordered commentary statements from aggregate
// statistics.
package insight

import (
	"context"
	"fmt"

	"github.com/dvloznov/finance-analyzer/internal/domain"
)

// Aggregates are the batch-level statistics commentary is generated from.
type Aggregates struct {
	TransactionCount int
	TotalAmount      float64
	AverageAmount    float64
	HighRiskCount    int
	HighRiskAmount   float64
	HighRiskShare    float64 // percent of total value
}

// Generator produces an ordered sequence of human-readable statements.
// Identical aggregates must always produce identical statements, so backends
// with any nondeterminism do not satisfy this contract and belong behind an
// explicit opt-in.
type Generator interface {
	Generate(ctx context.Context, agg Aggregates) ([]string, error)
}

// Summarize computes Aggregates from an enriched batch. HighRiskShare is zero
// when the total amount is zero.
func Summarize(txs []domain.Transaction) Aggregates {
	agg := Aggregates{TransactionCount: len(txs)}
	for _, tx := range txs {
		agg.TotalAmount += tx.Amount
		if tx.RiskLevel == domain.RiskHigh {
			agg.HighRiskCount++
			agg.HighRiskAmount += tx.Amount
		}
	}
	if agg.TransactionCount > 0 {
		agg.AverageAmount = agg.TotalAmount / float64(agg.TransactionCount)
	}
	if agg.TotalAmount != 0 {
		agg.HighRiskShare = agg.HighRiskAmount / agg.TotalAmount * 100
	}
	return agg
}

// TemplateGenerator is the default deterministic backend.
type TemplateGenerator struct{}

// Generate renders the fixed commentary statements, in order.
func (TemplateGenerator) Generate(_ context.Context, agg Aggregates) ([]string, error) {
	return []string{
		fmt.Sprintf("Analysis of %d transactions totaling $%.2f", agg.TransactionCount, agg.TotalAmount),
		fmt.Sprintf("Average transaction amount: $%.2f", agg.AverageAmount),
		fmt.Sprintf("%d high-risk transactions (%.1f%% of total value)", agg.HighRiskCount, agg.HighRiskShare),
	}, nil
}
