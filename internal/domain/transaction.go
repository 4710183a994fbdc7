package domain

import (
	"time"
)

// RiskLevel is the discrete risk tier assigned to a transaction.
type RiskLevel string

const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

// Transaction represents one normalized transaction from the input batch.
// This is a domain struct, not a CSV row or a BigQuery row; the ingest and
// export layers map it to their own formats.
//
// Fields below the "derived" markers are produced by pipeline stages and are
// zero-valued until the owning stage has run. Stages never mutate a field
// produced by an earlier stage.
type Transaction struct {
	ID        string    // from "Transaction ID"
	Date      time.Time // parsed from "Date" (YYYY-MM-DD)
	Amount    float64   // from "Amount" (signed)
	Category  string    // from "Category"
	Vendor    string    // from "Vendor"
	RiskScore float64   // from "Risk Score", always in [0,100]
	Flagged   bool      // from "Anomaly Flag" (ground truth, externally supplied)
	Notes     string    // from "Notes", may be empty

	// Derived by ingest.
	Month time.Month
	Year  int

	// Derived by the outlier detector.
	AnomalyScore   float64
	AnomalyFlagged bool

	// Derived by the risk classifier.
	RiskLevel RiskLevel
}

// CloneAll returns a copy of the slice with copied elements, so a stage can
// enrich its own view without touching its input.
func CloneAll(txs []Transaction) []Transaction {
	out := make([]Transaction, len(txs))
	copy(out, txs)
	return out
}
