package anomaly

import (
	"fmt"
	"math"
	"sort"

	"github.com/dvloznov/finance-analyzer/internal/domain"
)

// MinTransactions is the smallest batch the detector will fit on.
const MinTransactions = 2

// DefaultContamination is the expected anomalous fraction when none is given.
const DefaultContamination = 0.05

// DefaultSeed fixes the forest's randomness so repeated runs over the same
// input produce identical flags.
const DefaultSeed = 42

// Options configures outlier detection.
type Options struct {
	// Contamination is the expected anomalous fraction, in the open
	// interval (0, 0.5). Zero means DefaultContamination.
	Contamination float64

	// Detector overrides the scoring component. Nil means an IsolationForest
	// seeded with Seed.
	Detector Detector

	// Seed for the default detector. Zero means DefaultSeed.
	Seed int64
}

// Outcome is the result of outlier detection over one batch.
type Outcome struct {
	// Transactions is the enriched dataset: the input records with
	// AnomalyScore and AnomalyFlagged populated, in input order.
	Transactions []domain.Transaction

	// Anomalies is the flagged subset, in input order.
	Anomalies []domain.Transaction

	// Agreement is the percentage of records where the produced flag matches
	// the externally supplied ground-truth flag. Diagnostic only.
	Agreement float64
}

// Detect standardizes (amount, risk score) over the whole batch, scores every
// transaction, and flags the round(contamination*N) highest-scoring records.
// Ties are broken by input order. The input slice is not modified.
func Detect(txs []domain.Transaction, opts Options) (*Outcome, error) {
	if len(txs) < MinTransactions {
		return nil, &domain.ValidationError{
			Subject: "dataset",
			Msg:     fmt.Sprintf("need at least %d transactions, got %d", MinTransactions, len(txs)),
		}
	}

	contamination := opts.Contamination
	if contamination == 0 {
		contamination = DefaultContamination
	}
	if contamination <= 0 || contamination >= 0.5 {
		return nil, &domain.ValidationError{
			Subject: "contamination",
			Msg:     fmt.Sprintf("must be in (0, 0.5), got %v", contamination),
		}
	}

	det := opts.Detector
	if det == nil {
		seed := opts.Seed
		if seed == 0 {
			seed = DefaultSeed
		}
		det = NewIsolationForest(seed)
	}

	features := make([][]float64, len(txs))
	for i, tx := range txs {
		features[i] = []float64{tx.Amount, tx.RiskScore}
	}
	scores := det.Score(Standardize(features))

	enriched := domain.CloneAll(txs)
	for i := range enriched {
		enriched[i].AnomalyScore = scores[i]
	}

	// Rank by score descending; SliceStable keeps input order for equal scores.
	order := make([]int, len(enriched))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	flagCount := int(math.Round(contamination * float64(len(enriched))))
	for _, i := range order[:flagCount] {
		enriched[i].AnomalyFlagged = true
	}

	anomalies := make([]domain.Transaction, 0, flagCount)
	matches := 0
	for _, tx := range enriched {
		if tx.AnomalyFlagged {
			anomalies = append(anomalies, tx)
		}
		if tx.AnomalyFlagged == tx.Flagged {
			matches++
		}
	}

	return &Outcome{
		Transactions: enriched,
		Anomalies:    anomalies,
		Agreement:    float64(matches) / float64(len(enriched)) * 100,
	}, nil
}
