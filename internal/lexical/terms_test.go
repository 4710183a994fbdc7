package lexical

import (
	"reflect"
	"testing"

	"github.com/dvloznov/finance-analyzer/internal/domain"
)

func notes(ss ...string) []domain.Transaction {
	txs := make([]domain.Transaction, len(ss))
	for i, s := range ss {
		txs[i] = domain.Transaction{Notes: s}
	}
	return txs
}

func TestTopTerms(t *testing.T) {
	got := TopTerms(notes("Late payment issue", "Late payment issue"), Options{})

	want := []TermCount{
		{Term: "late", Count: 2},
		{Term: "payment", Count: 2},
		{Term: "issue", Count: 2},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("TopTerms = %v, want %v", got, want)
	}
}

func TestTopTerms_FirstSeenTieBreak(t *testing.T) {
	// All terms appear once; order must be first appearance, not map order.
	got := TopTerms(notes("zebra apple", "mango banana"), Options{})

	want := []string{"zebra", "apple", "mango", "banana"}
	if len(got) != len(want) {
		t.Fatalf("got %d terms, want %d", len(got), len(want))
	}
	for i, term := range want {
		if got[i].Term != term {
			t.Errorf("terms[%d] = %q, want %q", i, got[i].Term, term)
		}
	}
}

func TestTopTerms_FrequencyBeatsFirstSeen(t *testing.T) {
	got := TopTerms(notes("alpha beta", "beta gamma beta"), Options{})

	if got[0].Term != "beta" || got[0].Count != 3 {
		t.Errorf("terms[0] = %+v, want beta:3", got[0])
	}
}

func TestTopTerms_ShortTokensDropped(t *testing.T) {
	got := TopTerms(notes("pay the new fee now"), Options{})

	if len(got) != 0 {
		t.Errorf("TopTerms = %v, want empty (all tokens length <= 3)", got)
	}
}

func TestTopTerms_CaseFolding(t *testing.T) {
	got := TopTerms(notes("Refund REFUND refund"), Options{})

	want := []TermCount{{Term: "refund", Count: 3}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("TopTerms = %v, want %v", got, want)
	}
}

func TestTopTerms_TopKLimit(t *testing.T) {
	got := TopTerms(notes("aaaa bbbb cccc dddd eeee"), Options{TopK: 2})

	if len(got) != 2 {
		t.Fatalf("got %d terms, want 2", len(got))
	}
	if got[0].Term != "aaaa" || got[1].Term != "bbbb" {
		t.Errorf("terms = %v, want aaaa then bbbb", got)
	}
}

func TestTopTerms_NoNotes(t *testing.T) {
	got := TopTerms(notes("", "", ""), Options{})
	if len(got) != 0 {
		t.Errorf("TopTerms = %v, want empty result", got)
	}

	if got := TopTerms(nil, Options{}); len(got) != 0 {
		t.Errorf("TopTerms(nil) = %v, want empty result", got)
	}
}
