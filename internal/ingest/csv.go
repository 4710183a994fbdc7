// Package ingest parses raw transaction CSV exports into domain records.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/dvloznov/finance-analyzer/internal/domain"
)

// Required header columns. Notes is optional; enrichment columns written by
// the report package are recognized when present so an exported dataset can
// be re-ingested.
const (
	ColID        = "Transaction ID"
	ColDate      = "Date"
	ColAmount    = "Amount"
	ColCategory  = "Category"
	ColVendor    = "Vendor"
	ColRiskScore = "Risk Score"
	ColFlag      = "Anomaly Flag"
	ColNotes     = "Notes"

	ColAnomalyScore = "AI_Anomaly_Score"
	ColAnomalyFlag  = "AI_Anomaly_Flag"
	ColRiskLevel    = "Risk Level"
)

var requiredColumns = []string{ColID, ColDate, ColAmount, ColCategory, ColVendor, ColRiskScore, ColFlag}

const dateLayout = "2006-01-02"

// ParseCSV reads transaction rows from r, preserving input order.
// It returns a *domain.ParseError if a required column is absent or a
// date/amount/score token cannot be parsed.
func ParseCSV(r io.Reader) ([]domain.Transaction, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, &domain.ParseError{Msg: "reading header", Err: err}
	}

	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(name)] = i
	}
	for _, col := range requiredColumns {
		if _, ok := idx[col]; !ok {
			return nil, &domain.ParseError{Column: col, Msg: fmt.Sprintf("missing required column %q", col)}
		}
	}

	var txs []domain.Transaction
	row := 0
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		row++
		if err != nil {
			return nil, &domain.ParseError{Row: row, Msg: "reading record", Err: err}
		}

		tx, perr := parseRecord(record, idx, row)
		if perr != nil {
			return nil, perr
		}
		txs = append(txs, tx)
	}

	return txs, nil
}

func parseRecord(record []string, idx map[string]int, row int) (domain.Transaction, *domain.ParseError) {
	var tx domain.Transaction

	field := func(col string) string {
		i, ok := idx[col]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	tx.ID = field(ColID)
	if tx.ID == "" {
		return tx, &domain.ParseError{Row: row, Column: ColID, Msg: "empty transaction ID"}
	}

	date, err := time.Parse(dateLayout, field(ColDate))
	if err != nil {
		return tx, &domain.ParseError{Row: row, Column: ColDate, Msg: fmt.Sprintf("invalid date %q", field(ColDate)), Err: err}
	}
	tx.Date = date
	tx.Month = date.Month()
	tx.Year = date.Year()

	tx.Amount, err = strconv.ParseFloat(field(ColAmount), 64)
	if err != nil {
		return tx, &domain.ParseError{Row: row, Column: ColAmount, Msg: fmt.Sprintf("invalid amount %q", field(ColAmount)), Err: err}
	}

	tx.Category = field(ColCategory)
	tx.Vendor = field(ColVendor)

	tx.RiskScore, err = strconv.ParseFloat(field(ColRiskScore), 64)
	if err != nil {
		return tx, &domain.ParseError{Row: row, Column: ColRiskScore, Msg: fmt.Sprintf("invalid risk score %q", field(ColRiskScore)), Err: err}
	}

	tx.Flagged, err = parseFlag(field(ColFlag))
	if err != nil {
		return tx, &domain.ParseError{Row: row, Column: ColFlag, Msg: fmt.Sprintf("invalid anomaly flag %q", field(ColFlag)), Err: err}
	}

	tx.Notes = field(ColNotes)

	// Optional enrichment columns, present when re-ingesting an exported dataset.
	if s := field(ColAnomalyScore); s != "" {
		tx.AnomalyScore, err = strconv.ParseFloat(s, 64)
		if err != nil {
			return tx, &domain.ParseError{Row: row, Column: ColAnomalyScore, Msg: fmt.Sprintf("invalid anomaly score %q", s), Err: err}
		}
	}
	if s := field(ColAnomalyFlag); s != "" {
		tx.AnomalyFlagged, err = parseFlag(s)
		if err != nil {
			return tx, &domain.ParseError{Row: row, Column: ColAnomalyFlag, Msg: fmt.Sprintf("invalid anomaly flag %q", s), Err: err}
		}
	}
	if s := field(ColRiskLevel); s != "" {
		tx.RiskLevel = domain.RiskLevel(s)
	}

	return tx, nil
}

func parseFlag(s string) (bool, error) {
	switch s {
	case "0", "false", "False":
		return false, nil
	case "1", "true", "True":
		return true, nil
	}
	return false, fmt.Errorf("want 0 or 1, got %q", s)
}
