package pipeline

import (
	"testing"
	"time"

	"github.com/Handbook-Enterprises/Article-Enrichment-V2/internal/enrich"
)

func TestContentHashHex_Consistency(t *testing.T) {
	data := []byte("hello world")
	h1 := ContentHashHex(data)
	h2 := ContentHashHex(data)
	if h1 != h2 {
		t.Errorf("expected identical hashes, got %q and %q", h1, h2)
	}
	// SHA-256 of "hello world" is well-known.
	want := "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"
	if h1 != want {
		t.Errorf("expected hash %q, got %q", want, h1)
	}
}

func TestContentHashHex_DifferentInputs(t *testing.T) {
	h1 := ContentHashHex([]byte("aaa"))
	h2 := ContentHashHex([]byte("bbb"))
	if h1 == h2 {
		t.Error("expected different hashes for different inputs")
	}
}

func TestJob_StateTransitions(t *testing.T) {
	job := &Job{
		ID:        "test-1",
		Status:    StatusQueued,
		Phase:     "queued",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	transitions := []struct {
		status JobStatus
		phase  string
	}{
		{StatusReading, "reading article"},
		{StatusShortlisting, "shortlisting assets"},
		{StatusProbing, "probing urls"},
		{StatusEnriching, "running selection loop"},
		{StatusCompleted, "done"},
	}

	for _, tr := range transitions {
		before := job.UpdatedAt
		// Small sleep to ensure time difference is detectable.
		time.Sleep(time.Millisecond)
		job.SetStatus(tr.status, tr.phase)

		if job.Status != tr.status {
			t.Errorf("expected status %q, got %q", tr.status, job.Status)
		}
		if job.Phase != tr.phase {
			t.Errorf("expected phase %q, got %q", tr.phase, job.Phase)
		}
		if !job.UpdatedAt.After(before) {
			t.Errorf("expected UpdatedAt to advance after SetStatus(%q)", tr.status)
		}
	}
}

func TestJob_AddError(t *testing.T) {
	job := &Job{ID: "err-test", UpdatedAt: time.Now()}
	job.AddError("hero image missing")
	job.AddError("anchor too generic")

	snap := job.Snapshot()
	if len(snap.Progress.Errors) != 2 {
		t.Fatalf("expected 2 errors, got %d", len(snap.Progress.Errors))
	}
	if snap.Progress.Errors[0] != "hero image missing" {
		t.Errorf("expected first error %q, got %q", "hero image missing", snap.Progress.Errors[0])
	}
}

func TestJob_SourceData(t *testing.T) {
	job := &Job{ID: "data-test"}
	data := []byte("# Article\n\nBody text.")
	job.SetSourceData(data)
	got := job.SourceData()
	if string(got) != string(data) {
		t.Errorf("expected source data %q, got %q", data, got)
	}
}

func TestJob_Result(t *testing.T) {
	job := &Job{ID: "result-test", UpdatedAt: time.Now()}

	if _, _, ok := job.Result(); ok {
		t.Fatal("expected no result before SetResult")
	}

	report := &enrich.Report{Attempts: 2, DegradedCount: 1, Accepted: true}
	job.SetResult("# Enriched\n", report)

	markdown, got, ok := job.Result()
	if !ok {
		t.Fatal("expected result after SetResult")
	}
	if markdown != "# Enriched\n" {
		t.Errorf("unexpected markdown %q", markdown)
	}
	if got.Attempts != 2 {
		t.Errorf("expected 2 attempts in report, got %d", got.Attempts)
	}

	snap := job.Snapshot()
	if snap.Progress.Attempts != 2 {
		t.Errorf("expected snapshot attempts 2, got %d", snap.Progress.Attempts)
	}
	if snap.Progress.DegradedLinks != 1 {
		t.Errorf("expected snapshot degraded links 1, got %d", snap.Progress.DegradedLinks)
	}
}

func TestJob_SnapshotErrorsNotNil(t *testing.T) {
	// Snapshot should always return non-nil errors slice.
	job := &Job{ID: "snap-test", UpdatedAt: time.Now()}
	snap := job.Snapshot()
	if snap.Progress.Errors == nil {
		t.Error("expected non-nil errors slice in snapshot")
	}
	if len(snap.Progress.Errors) != 0 {
		t.Errorf("expected empty errors, got %d", len(snap.Progress.Errors))
	}
}

func TestJobStore_PutGet(t *testing.T) {
	store := NewJobStore(time.Hour)
	job := &Job{ID: "store-1", UpdatedAt: time.Now()}
	store.Put(job)

	got := store.Get("store-1")
	if got == nil {
		t.Fatal("expected to get job back")
	}
	if got.ID != "store-1" {
		t.Errorf("expected ID %q, got %q", "store-1", got.ID)
	}
}

func TestJobStore_GetMissing(t *testing.T) {
	store := NewJobStore(time.Hour)
	if store.Get("nonexistent") != nil {
		t.Error("expected nil for missing job")
	}
}

func TestJobStore_HashIndex(t *testing.T) {
	store := NewJobStore(time.Hour)

	if _, ok := store.LookupHash("abc"); ok {
		t.Fatal("expected no entry for unseen hash")
	}

	prev, ok := store.IndexHash("abc", "job-1")
	if ok || prev != "" {
		t.Errorf("expected no previous entry, got %q", prev)
	}

	id, ok := store.LookupHash("abc")
	if !ok || id != "job-1" {
		t.Errorf("expected job-1 for hash, got %q (ok=%v)", id, ok)
	}

	prev, ok = store.IndexHash("abc", "job-2")
	if !ok || prev != "job-1" {
		t.Errorf("expected previous job-1, got %q (ok=%v)", prev, ok)
	}
}

func TestJobStore_TTLCleanup(t *testing.T) {
	store := NewJobStore(50 * time.Millisecond)

	expired := &Job{ID: "old", ContentHash: "h-old", UpdatedAt: time.Now()}
	store.Put(expired)
	store.IndexHash("h-old", "old")

	// Wait for the TTL to pass.
	time.Sleep(100 * time.Millisecond)

	fresh := &Job{ID: "new", UpdatedAt: time.Now()}
	store.Put(fresh)

	store.Cleanup()

	if store.Get("old") != nil {
		t.Error("expected expired job to be cleaned up")
	}
	if _, ok := store.LookupHash("h-old"); ok {
		t.Error("expected hash index entry to be cleaned up with its job")
	}
	if store.Get("new") == nil {
		t.Error("expected fresh job to survive cleanup")
	}
}

func TestJobStore_CleanupEmpty(t *testing.T) {
	store := NewJobStore(time.Hour)
	// Should not panic on empty store.
	store.Cleanup()
}

func TestNewJobID_UniqueAndSorted(t *testing.T) {
	seen := make(map[string]bool)
	var prev string
	for i := 0; i < 100; i++ {
		id := NewJobID()
		if len(id) != 26 {
			t.Fatalf("expected 26-char ULID, got %d chars: %q", len(id), id)
		}
		if seen[id] {
			t.Fatalf("duplicate ID generated: %q", id)
		}
		seen[id] = true
		if prev != "" && id < prev {
			t.Fatalf("IDs not monotonic: %q after %q", id, prev)
		}
		prev = id
	}
}
