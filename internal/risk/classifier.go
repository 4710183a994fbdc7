// Package risk maps continuous risk scores to discrete tiers.
package risk

import (
	"fmt"

	"github.com/dvloznov/finance-analyzer/internal/domain"
)

// Tier boundaries. A score of exactly 30 is Low and exactly 70 is Medium;
// only scores strictly above a boundary move up a tier.
const (
	LowMax    = 30.0
	MediumMax = 70.0
	scoreMax  = 100.0
)

// Classify returns the tier for a risk score in [0,100].
func Classify(score float64) (domain.RiskLevel, error) {
	if score < 0 || score > scoreMax {
		return "", &domain.ValidationError{
			Subject: "risk score",
			Msg:     fmt.Sprintf("must be in [0,100], got %v", score),
		}
	}
	switch {
	case score <= LowMax:
		return domain.RiskLow, nil
	case score <= MediumMax:
		return domain.RiskMedium, nil
	default:
		return domain.RiskHigh, nil
	}
}

// ClassifyAll returns a copy of the batch with RiskLevel populated, plus the
// count per tier. The input is not modified. A record with an out-of-range
// score aborts the whole stage.
func ClassifyAll(txs []domain.Transaction) ([]domain.Transaction, map[domain.RiskLevel]int, error) {
	enriched := domain.CloneAll(txs)
	counts := map[domain.RiskLevel]int{
		domain.RiskLow:    0,
		domain.RiskMedium: 0,
		domain.RiskHigh:   0,
	}
	for i := range enriched {
		level, err := Classify(enriched[i].RiskScore)
		if err != nil {
			return nil, nil, fmt.Errorf("transaction %s: %w", enriched[i].ID, err)
		}
		enriched[i].RiskLevel = level
		counts[level]++
	}
	return enriched, counts, nil
}
