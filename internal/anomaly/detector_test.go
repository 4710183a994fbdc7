package anomaly

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/dvloznov/finance-analyzer/internal/domain"
)

func makeBatch(n int) []domain.Transaction {
	txs := make([]domain.Transaction, n)
	for i := range txs {
		txs[i] = domain.Transaction{
			ID:        fmt.Sprintf("TX-%03d", i),
			Amount:    100 + float64(i%7)*3,
			RiskScore: 20 + float64(i%5)*2,
		}
	}
	return txs
}

func TestStandardize(t *testing.T) {
	batch := [][]float64{{1, 10}, {2, 10}, {3, 10}}
	scaled := Standardize(batch)

	var mean, variance float64
	for _, row := range scaled {
		mean += row[0]
	}
	mean /= 3
	for _, row := range scaled {
		variance += (row[0] - mean) * (row[0] - mean)
	}
	variance /= 3

	if math.Abs(mean) > 1e-12 {
		t.Errorf("scaled mean = %v, want 0", mean)
	}
	if math.Abs(variance-1) > 1e-12 {
		t.Errorf("scaled variance = %v, want 1", variance)
	}

	// Zero-variance column scales to zeros, not NaN.
	for i, row := range scaled {
		if row[1] != 0 {
			t.Errorf("row %d constant column = %v, want 0", i, row[1])
		}
	}
}

func TestDetect_FlagCount(t *testing.T) {
	txs := makeBatch(40)

	out, err := Detect(txs, Options{Contamination: 0.1})
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(out.Anomalies) != 4 {
		t.Errorf("flagged %d, want 4 (0.1 * 40)", len(out.Anomalies))
	}
	if len(out.Transactions) != 40 {
		t.Errorf("enriched count = %d, want 40", len(out.Transactions))
	}
}

func TestDetect_Deterministic(t *testing.T) {
	txs := makeBatch(50)

	first, err := Detect(txs, Options{Contamination: 0.1})
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	second, err := Detect(txs, Options{Contamination: 0.1})
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}

	for i := range first.Transactions {
		if first.Transactions[i].AnomalyScore != second.Transactions[i].AnomalyScore {
			t.Fatalf("score %d differs between runs: %v vs %v",
				i, first.Transactions[i].AnomalyScore, second.Transactions[i].AnomalyScore)
		}
		if first.Transactions[i].AnomalyFlagged != second.Transactions[i].AnomalyFlagged {
			t.Fatalf("flag %d differs between runs", i)
		}
	}
}

func TestDetect_ObviousOutlierScoresHighest(t *testing.T) {
	txs := makeBatch(39)
	txs = append(txs, domain.Transaction{ID: "TX-OUT", Amount: 50000, RiskScore: 99})

	out, err := Detect(txs, Options{Contamination: 0.025}) // round(1.0) = 1 flag
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}

	if len(out.Anomalies) != 1 {
		t.Fatalf("flagged %d, want 1", len(out.Anomalies))
	}
	if out.Anomalies[0].ID != "TX-OUT" {
		t.Errorf("flagged %q, want TX-OUT", out.Anomalies[0].ID)
	}

	best := out.Transactions[len(out.Transactions)-1]
	for _, tx := range out.Transactions[:len(out.Transactions)-1] {
		if tx.AnomalyScore >= best.AnomalyScore {
			t.Errorf("%s score %v >= outlier score %v", tx.ID, tx.AnomalyScore, best.AnomalyScore)
		}
	}
}

func TestDetect_DoesNotMutateInput(t *testing.T) {
	txs := makeBatch(20)

	if _, err := Detect(txs, Options{}); err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	for i, tx := range txs {
		if tx.AnomalyScore != 0 || tx.AnomalyFlagged {
			t.Fatalf("input record %d was mutated", i)
		}
	}
}

func TestDetect_ZeroAnomalies(t *testing.T) {
	// round(0.05 * 5) == 0: the empty anomaly set is a valid outcome.
	out, err := Detect(makeBatch(5), Options{})
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(out.Anomalies) != 0 {
		t.Errorf("flagged %d, want 0", len(out.Anomalies))
	}
}

func TestDetect_Agreement(t *testing.T) {
	txs := makeBatch(20)
	// Ground truth flags nothing; contamination flags 1, so 19/20 agree.
	out, err := Detect(txs, Options{})
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if math.Abs(out.Agreement-95.0) > 1e-9 {
		t.Errorf("agreement = %v, want 95.0", out.Agreement)
	}
}

func TestDetect_Validation(t *testing.T) {
	tests := []struct {
		name string
		txs  []domain.Transaction
		opts Options
	}{
		{name: "too few transactions", txs: makeBatch(1), opts: Options{}},
		{name: "contamination too high", txs: makeBatch(20), opts: Options{Contamination: 0.5}},
		{name: "contamination negative", txs: makeBatch(20), opts: Options{Contamination: -0.1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Detect(tt.txs, tt.opts)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			var verr *domain.ValidationError
			if !errors.As(err, &verr) {
				t.Errorf("error type = %T, want *domain.ValidationError", err)
			}
		})
	}
}

// stubDetector lets the pipeline substitute an alternative scoring component.
type stubDetector struct{ scores []float64 }

func (s *stubDetector) Score(batch [][]float64) []float64 { return s.scores }

func TestDetect_SubstituteDetector(t *testing.T) {
	txs := makeBatch(10)
	scores := make([]float64, 10)
	scores[3] = 0.99

	out, err := Detect(txs, Options{Contamination: 0.1, Detector: &stubDetector{scores: scores}})
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(out.Anomalies) != 1 || out.Anomalies[0].ID != "TX-003" {
		t.Errorf("anomalies = %+v, want exactly TX-003", out.Anomalies)
	}
}
