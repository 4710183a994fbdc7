// Package pipeline composes the analytics stages over one ingested batch.
package pipeline

import (
	"context"
	"fmt"

	"github.com/dvloznov/finance-analyzer/internal/domain"
	"github.com/dvloznov/finance-analyzer/internal/insight"
	"github.com/dvloznov/finance-analyzer/internal/lexical"
	"github.com/dvloznov/finance-analyzer/internal/logger"
	"github.com/dvloznov/finance-analyzer/internal/variance"
)

// Options configures one analysis run.
type Options struct {
	// Contamination is the expected anomalous fraction, (0, 0.5).
	// Zero means the detector default.
	Contamination float64

	// Seed for the default isolation forest. Zero means the detector default.
	Seed int64

	// TopTerms and MinTokenLen configure lexical extraction. Zero means the
	// lexical defaults.
	TopTerms    int
	MinTokenLen int

	// Insights overrides the commentary backend. Nil means the deterministic
	// template generator.
	Insights insight.Generator
}

// State holds the shared state across pipeline steps. Each stage replaces
// Transactions wholesale with its enriched copy on success, so a failing
// stage leaves the output of prior stages intact.
type State struct {
	Opts Options

	Transactions []domain.Transaction

	Anomalies  []domain.Transaction
	Agreement  float64
	RiskCounts map[domain.RiskLevel]int

	Variance       *variance.Table
	CategoryTotals []CategoryTotal

	Commentary []string
	Terms      []lexical.TermCount
}

// CategoryTotal is a per-category summed amount, for presentation consumers.
type CategoryTotal struct {
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
}

// Step is a single stage in the analysis pipeline.
type Step interface {
	Name() string
	Execute(ctx context.Context, state *State) error
}

// Pipeline executes a sequence of steps in order.
type Pipeline struct {
	steps []Step
}

// New creates a pipeline with the given steps.
func New(steps ...Step) *Pipeline {
	return &Pipeline{steps: steps}
}

// Execute runs all steps sequentially, stopping at the first failure.
func (p *Pipeline) Execute(ctx context.Context, state *State) error {
	log := logger.FromContext(ctx)
	for _, step := range p.steps {
		log.Debug().Str("step", step.Name()).Msg("Executing pipeline step")
		if err := step.Execute(ctx, state); err != nil {
			return fmt.Errorf("pipeline step %s: %w", step.Name(), err)
		}
	}
	return nil
}

// NewAnalysisPipeline creates the standard stage sequence: outlier detection,
// risk classification, variance analysis, insight generation, lexical
// extraction. Ordering matters: insights read risk levels, variance reads the
// ingested dates and categories.
func NewAnalysisPipeline() *Pipeline {
	return New(
		&DetectOutliersStep{},
		&ClassifyRiskStep{},
		&AnalyzeVarianceStep{},
		&GenerateInsightsStep{},
		&ExtractTermsStep{},
	)
}

// Result is the read-only outcome of a run, consumed by reporting and
// presentation collaborators.
type Result struct {
	Transactions []domain.Transaction `json:"transactions"`
	Anomalies    []domain.Transaction `json:"anomalies"`

	// Agreement is the percentage of records where the detector's flag
	// matches the ground-truth flag. Diagnostic only.
	Agreement float64 `json:"agreement_pct"`

	RiskCounts     map[domain.RiskLevel]int `json:"risk_counts"`
	Variance       *variance.Table          `json:"-"`
	CategoryTotals []CategoryTotal          `json:"category_totals"`
	Commentary     []string                 `json:"commentary"`
	Terms          []lexical.TermCount      `json:"terms"`
}

// Run executes the full analysis over an ingested batch and assembles the
// result. The input slice is never modified.
func Run(ctx context.Context, txs []domain.Transaction, opts Options) (*Result, error) {
	state := &State{
		Opts:         opts,
		Transactions: domain.CloneAll(txs),
	}

	if err := NewAnalysisPipeline().Execute(ctx, state); err != nil {
		return nil, err
	}

	return &Result{
		Transactions:   state.Transactions,
		Anomalies:      state.Anomalies,
		Agreement:      state.Agreement,
		RiskCounts:     state.RiskCounts,
		Variance:       state.Variance,
		CategoryTotals: state.CategoryTotals,
		Commentary:     state.Commentary,
		Terms:          state.Terms,
	}, nil
}
