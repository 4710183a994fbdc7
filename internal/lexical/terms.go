// Package lexical extracts frequent terms from free-text transaction notes.
package lexical

import (
	"sort"
	"strings"

	"github.com/dvloznov/finance-analyzer/internal/domain"
)

const (
	// DefaultTopK is the number of terms returned when none is configured.
	DefaultTopK = 10

	// DefaultMinTokenLen drops tokens of this length or shorter.
	DefaultMinTokenLen = 3
)

// TermCount is one extracted term with its frequency across the batch.
type TermCount struct {
	Term  string
	Count int
}

// Options configures term extraction. Zero values mean the defaults.
type Options struct {
	TopK        int
	MinTokenLen int
}

// TopTerms case-folds each note, splits on whitespace, discards short tokens,
// and returns the TopK most frequent terms. Equal counts are ordered by the
// term's first appearance in the batch, which keeps the result deterministic.
// A batch with no notes yields an empty slice.
func TopTerms(txs []domain.Transaction, opts Options) []TermCount {
	topK := opts.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}
	minLen := opts.MinTokenLen
	if minLen <= 0 {
		minLen = DefaultMinTokenLen
	}

	counts := make(map[string]int)
	firstSeen := make(map[string]int)
	seq := 0

	for _, tx := range txs {
		if tx.Notes == "" {
			continue
		}
		for _, token := range strings.Fields(strings.ToLower(tx.Notes)) {
			if len(token) <= minLen {
				continue
			}
			if _, ok := counts[token]; !ok {
				firstSeen[token] = seq
				seq++
			}
			counts[token]++
		}
	}

	terms := make([]TermCount, 0, len(counts))
	for term, count := range counts {
		terms = append(terms, TermCount{Term: term, Count: count})
	}

	// Map iteration order is not stable, so sort fully: by count descending,
	// then by first-seen order.
	sort.Slice(terms, func(a, b int) bool {
		if terms[a].Count != terms[b].Count {
			return terms[a].Count > terms[b].Count
		}
		return firstSeen[terms[a].Term] < firstSeen[terms[b].Term]
	})

	if len(terms) > topK {
		terms = terms[:topK]
	}
	return terms
}
