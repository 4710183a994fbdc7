package insight

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// DefaultModelName is the Gemini model used for generated commentary.
const DefaultModelName = "gemini-2.0-flash"

// GeminiGenerator produces commentary with a Gemini model. Model output is
// not deterministic, so this backend is never wired into the default
// pipeline; it is an explicit substitution for interactive use.
type GeminiGenerator struct {
	Model string
}

// NewGeminiGenerator returns a generator using DefaultModelName.
func NewGeminiGenerator() *GeminiGenerator {
	return &GeminiGenerator{Model: DefaultModelName}
}

// Generate asks the model for commentary on the aggregates, one statement per
// line. Falls back to an error rather than partial output on an empty reply.
func (g *GeminiGenerator) Generate(ctx context.Context, agg Aggregates) ([]string, error) {
	prompt :=
		"You are a financial analyst writing commentary for a transaction analysis report.\n\n" +
			"Task:\n" +
			"- Write 3 to 5 short insight statements about the figures below.\n" +
			"- One statement per line, plain text only.\n" +
			"- No Markdown, no bullets, no numbering, no extra text.\n\n" +
			fmt.Sprintf("Transactions analyzed: %d\n", agg.TransactionCount) +
			fmt.Sprintf("Total transaction value: $%.2f\n", agg.TotalAmount) +
			fmt.Sprintf("Average transaction amount: $%.2f\n", agg.AverageAmount) +
			fmt.Sprintf("High-risk transactions: %d ($%.2f, %.1f%% of total value)\n",
				agg.HighRiskCount, agg.HighRiskAmount, agg.HighRiskShare)

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("insight: create genai client: %w", err)
	}

	model := g.Model
	if model == "" {
		model = DefaultModelName
	}

	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: prompt}},
		},
	}

	resp, err := client.Models.GenerateContent(ctx, model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("insight: generate content: %w", err)
	}

	raw := resp.Text()
	if raw == "" {
		return nil, fmt.Errorf("insight: empty response from model")
	}

	var statements []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			statements = append(statements, line)
		}
	}
	if len(statements) == 0 {
		return nil, fmt.Errorf("insight: no statements in model response")
	}
	return statements, nil
}
