package inmemory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dvloznov/finance-analyzer/internal/jobs"
)

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestQueue_PublishAndProcess(t *testing.T) {
	store := NewStore()
	q := NewQueue(10, store)
	defer q.Close()

	var mu sync.Mutex
	var handled []string

	handler := func(ctx context.Context, job jobs.Job) error {
		mu.Lock()
		handled = append(handled, job.GetID())
		mu.Unlock()
		return nil
	}

	ctx := context.Background()
	if err := q.Start(ctx, handler); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	job := &jobs.AnalyzeJob{SourceURI: "data/transactions.csv"}
	if err := q.PublishAnalyze(ctx, job); err != nil {
		t.Fatalf("PublishAnalyze failed: %v", err)
	}
	if job.JobID == "" {
		t.Fatal("job ID not assigned on publish")
	}

	waitFor(t, 2*time.Second, func() bool {
		saved, err := store.GetJob(ctx, job.JobID)
		return err == nil && saved.Status == jobs.JobStatusCompleted
	})

	mu.Lock()
	defer mu.Unlock()
	if len(handled) != 1 || handled[0] != job.JobID {
		t.Errorf("handled = %v, want [%s]", handled, job.JobID)
	}
}

func TestQueue_RetriesOnFailure(t *testing.T) {
	store := NewStore()
	q := NewQueue(10, store)
	defer q.Close()

	var mu sync.Mutex
	attempts := 0

	handler := func(ctx context.Context, job jobs.Job) error {
		mu.Lock()
		defer mu.Unlock()
		attempts++
		if attempts < 2 {
			return errors.New("transient failure")
		}
		return nil
	}

	ctx := context.Background()
	if err := q.Start(ctx, handler); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	job := &jobs.AnalyzeJob{SourceURI: "data/transactions.csv", MaxRetries: 3}
	if err := q.PublishAnalyze(ctx, job); err != nil {
		t.Fatalf("PublishAnalyze failed: %v", err)
	}

	waitFor(t, 5*time.Second, func() bool {
		saved, err := store.GetJob(ctx, job.JobID)
		return err == nil && saved.Status == jobs.JobStatusCompleted
	})

	mu.Lock()
	defer mu.Unlock()
	if attempts != 2 {
		t.Errorf("attempts = %d, want 2", attempts)
	}
}

func TestQueue_PublishAfterClose(t *testing.T) {
	q := NewQueue(1, nil)
	if err := q.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	err := q.PublishAnalyze(context.Background(), &jobs.AnalyzeJob{SourceURI: "x.csv"})
	if err == nil {
		t.Error("expected error publishing to closed queue")
	}
}

func TestStore_ListJobs(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	seed := []*jobs.AnalyzeJob{
		{JobID: "a", SourceURI: "one.csv", Status: jobs.JobStatusPending},
		{JobID: "b", SourceURI: "two.csv", Status: jobs.JobStatusCompleted},
		{JobID: "c", SourceURI: "one.csv", Status: jobs.JobStatusFailed},
	}
	for _, j := range seed {
		if err := store.SaveJob(ctx, j); err != nil {
			t.Fatalf("SaveJob(%s) failed: %v", j.JobID, err)
		}
	}

	bySource, err := store.ListJobs(ctx, jobs.JobFilter{SourceURI: "one.csv"})
	if err != nil {
		t.Fatalf("ListJobs failed: %v", err)
	}
	if len(bySource) != 2 {
		t.Errorf("ListJobs by source returned %d jobs, want 2", len(bySource))
	}

	byStatus, err := store.ListJobs(ctx, jobs.JobFilter{Status: jobs.JobStatusCompleted})
	if err != nil {
		t.Fatalf("ListJobs failed: %v", err)
	}
	if len(byStatus) != 1 || byStatus[0].JobID != "b" {
		t.Errorf("ListJobs by status = %+v", byStatus)
	}

	limited, err := store.ListJobs(ctx, jobs.JobFilter{Limit: 1})
	if err != nil {
		t.Fatalf("ListJobs failed: %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("ListJobs with limit returned %d jobs, want 1", len(limited))
	}
}

func TestStore_CopiesOnSaveAndGet(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	job := &jobs.AnalyzeJob{JobID: "a", SourceURI: "one.csv", Status: jobs.JobStatusPending}
	if err := store.SaveJob(ctx, job); err != nil {
		t.Fatalf("SaveJob failed: %v", err)
	}

	// Mutating the caller's copy must not leak into the store.
	job.Status = jobs.JobStatusFailed

	saved, err := store.GetJob(ctx, "a")
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if saved.Status != jobs.JobStatusPending {
		t.Errorf("stored status = %s, want pending", saved.Status)
	}
}
