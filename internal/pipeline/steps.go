package pipeline

import (
	"context"
	"sort"

	"github.com/dvloznov/finance-analyzer/internal/anomaly"
	"github.com/dvloznov/finance-analyzer/internal/insight"
	"github.com/dvloznov/finance-analyzer/internal/lexical"
	"github.com/dvloznov/finance-analyzer/internal/logger"
	"github.com/dvloznov/finance-analyzer/internal/risk"
	"github.com/dvloznov/finance-analyzer/internal/variance"
)

// DetectOutliersStep scales (amount, risk score) over the whole batch and
// flags the contamination fraction of highest-scoring transactions.
type DetectOutliersStep struct{}

func (s *DetectOutliersStep) Name() string { return "detect_outliers" }

func (s *DetectOutliersStep) Execute(ctx context.Context, state *State) error {
	out, err := anomaly.Detect(state.Transactions, anomaly.Options{
		Contamination: state.Opts.Contamination,
		Seed:          state.Opts.Seed,
	})
	if err != nil {
		return err
	}

	state.Transactions = out.Transactions
	state.Anomalies = out.Anomalies
	state.Agreement = out.Agreement

	log := logger.FromContext(ctx)
	log.Info().
		Int("anomalies", len(out.Anomalies)).
		Float64("agreement_pct", out.Agreement).
		Msg("Outlier detection complete")
	return nil
}

// ClassifyRiskStep assigns a tier to every transaction from its risk score.
type ClassifyRiskStep struct{}

func (s *ClassifyRiskStep) Name() string { return "classify_risk" }

func (s *ClassifyRiskStep) Execute(ctx context.Context, state *State) error {
	enriched, counts, err := risk.ClassifyAll(state.Transactions)
	if err != nil {
		return err
	}
	state.Transactions = enriched
	state.RiskCounts = counts
	return nil
}

// AnalyzeVarianceStep builds the monthly aggregate and month-over-month
// variance tables, plus per-category totals for presentation consumers.
type AnalyzeVarianceStep struct{}

func (s *AnalyzeVarianceStep) Name() string { return "analyze_variance" }

func (s *AnalyzeVarianceStep) Execute(ctx context.Context, state *State) error {
	state.Variance = variance.Analyze(state.Transactions)

	totals := make(map[string]float64)
	for _, tx := range state.Transactions {
		totals[tx.Category] += tx.Amount
	}
	state.CategoryTotals = make([]CategoryTotal, 0, len(totals))
	for category, amount := range totals {
		state.CategoryTotals = append(state.CategoryTotals, CategoryTotal{Category: category, Amount: amount})
	}
	sort.Slice(state.CategoryTotals, func(a, b int) bool {
		ta, tb := state.CategoryTotals[a], state.CategoryTotals[b]
		if ta.Amount != tb.Amount {
			return ta.Amount > tb.Amount
		}
		return ta.Category < tb.Category
	})
	return nil
}

// GenerateInsightsStep derives the ordered commentary statements.
type GenerateInsightsStep struct{}

func (s *GenerateInsightsStep) Name() string { return "generate_insights" }

func (s *GenerateInsightsStep) Execute(ctx context.Context, state *State) error {
	gen := state.Opts.Insights
	if gen == nil {
		gen = insight.TemplateGenerator{}
	}

	commentary, err := gen.Generate(ctx, insight.Summarize(state.Transactions))
	if err != nil {
		return err
	}
	state.Commentary = commentary
	return nil
}

// ExtractTermsStep accumulates term frequencies over the batch's notes.
type ExtractTermsStep struct{}

func (s *ExtractTermsStep) Name() string { return "extract_terms" }

func (s *ExtractTermsStep) Execute(ctx context.Context, state *State) error {
	state.Terms = lexical.TopTerms(state.Transactions, lexical.Options{
		TopK:        state.Opts.TopTerms,
		MinTokenLen: state.Opts.MinTokenLen,
	})
	return nil
}
