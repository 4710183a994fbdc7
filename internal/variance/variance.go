// Package variance aggregates amounts by month and category and computes
// month-over-month percent change.
package variance

import (
	"fmt"
	"sort"
	"time"

	"github.com/dvloznov/finance-analyzer/internal/domain"
)

// Month is a calendar month key.
type Month struct {
	Year  int
	Month time.Month
}

// Prev returns the immediately preceding calendar month.
func (m Month) Prev() Month {
	if m.Month == time.January {
		return Month{Year: m.Year - 1, Month: time.December}
	}
	return Month{Year: m.Year, Month: m.Month - 1}
}

// Before reports whether m is earlier than other.
func (m Month) Before(other Month) bool {
	if m.Year != other.Year {
		return m.Year < other.Year
	}
	return m.Month < other.Month
}

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// Change is a month-over-month percent change. Valid is false for a
// category's first month in the table and when the prior month's sum is zero;
// an invalid Change is distinct from a numeric zero.
type Change struct {
	Pct   float64
	Valid bool
}

// Table holds the monthly aggregate and the variance entries. Months form the
// contiguous calendar range from the earliest to the latest observed month;
// combinations with no transactions sum to zero.
type Table struct {
	Months     []Month  // ascending
	Categories []string // sorted

	Totals  map[Month]map[string]float64
	Changes map[Month]map[string]Change
}

// Total returns the summed amount for (m, category), zero when absent.
func (t *Table) Total(m Month, category string) float64 {
	return t.Totals[m][category]
}

// Change returns the variance entry for (m, category).
func (t *Table) Change(m Month, category string) Change {
	return t.Changes[m][category]
}

// Analyze builds the monthly aggregate and variance tables for a batch.
// An empty batch yields an empty table.
func Analyze(txs []domain.Transaction) *Table {
	table := &Table{
		Totals:  make(map[Month]map[string]float64),
		Changes: make(map[Month]map[string]Change),
	}
	if len(txs) == 0 {
		return table
	}

	catSet := make(map[string]struct{})
	first := Month{Year: txs[0].Year, Month: txs[0].Month}
	last := first

	sums := make(map[Month]map[string]float64)
	for _, tx := range txs {
		m := Month{Year: tx.Year, Month: tx.Month}
		if m.Before(first) {
			first = m
		}
		if last.Before(m) {
			last = m
		}
		if sums[m] == nil {
			sums[m] = make(map[string]float64)
		}
		sums[m][tx.Category] += tx.Amount
		catSet[tx.Category] = struct{}{}
	}

	for c := range catSet {
		table.Categories = append(table.Categories, c)
	}
	sort.Strings(table.Categories)

	// Zero-fill the full calendar range so every (month, category) cell exists.
	for m := first; ; m = next(m) {
		table.Months = append(table.Months, m)
		row := make(map[string]float64, len(table.Categories))
		for _, c := range table.Categories {
			row[c] = sums[m][c]
		}
		table.Totals[m] = row
		if m == last {
			break
		}
	}

	for i, m := range table.Months {
		row := make(map[string]Change, len(table.Categories))
		for _, c := range table.Categories {
			if i == 0 {
				row[c] = Change{}
				continue
			}
			prior := table.Totals[m.Prev()][c]
			if prior == 0 {
				row[c] = Change{}
				continue
			}
			row[c] = Change{
				Pct:   (table.Totals[m][c] - prior) / prior * 100,
				Valid: true,
			}
		}
		table.Changes[m] = row
	}

	return table
}

func next(m Month) Month {
	if m.Month == time.December {
		return Month{Year: m.Year + 1, Month: time.January}
	}
	return Month{Year: m.Year, Month: m.Month + 1}
}
