package handlers

import (
	"fmt"
	"sync"
	"time"

	"github.com/dvloznov/finance-analyzer/internal/pipeline"
)

// RunRecord is a completed analysis run held by the ResultStore.
type RunRecord struct {
	RunID         string    `json:"run_id"`
	JobID         string    `json:"job_id,omitempty"`
	SourceURI     string    `json:"source_uri"`
	StartedAt     time.Time `json:"started_at"`
	FinishedAt    time.Time `json:"finished_at"`
	Contamination float64   `json:"contamination"`

	TransactionCount int `json:"transaction_count"`
	AnomalyCount     int `json:"anomaly_count"`

	Result *pipeline.Result `json:"-"`
}

// ResultStore is an in-memory store of completed runs, newest first.
// Data is lost on service restart - the BigQuery export is the durable record.
type ResultStore struct {
	mu    sync.RWMutex
	runs  map[string]*RunRecord
	order []string // run IDs, insertion order
}

// NewResultStore creates an empty ResultStore.
func NewResultStore() *ResultStore {
	return &ResultStore{
		runs: make(map[string]*RunRecord),
	}
}

// Save stores a completed run record.
func (s *ResultStore) Save(rec *RunRecord) error {
	if rec.RunID == "" {
		return fmt.Errorf("run ID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.runs[rec.RunID]; !exists {
		s.order = append(s.order, rec.RunID)
	}
	s.runs[rec.RunID] = rec

	return nil
}

// Get retrieves a run by ID.
func (s *ResultStore) Get(runID string) (*RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, exists := s.runs[runID]
	if !exists {
		return nil, fmt.Errorf("run not found: %s", runID)
	}
	return rec, nil
}

// List returns all stored runs, newest first.
func (s *ResultStore) List() []*RunRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*RunRecord, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		out = append(out, s.runs[s.order[i]])
	}
	return out
}
