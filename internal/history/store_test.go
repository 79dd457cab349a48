package history

import (
	"context"
	"testing"
	"time"
)

func TestRecordAndList(t *testing.T) {
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	now := time.Now().UTC()
	runs := []Run{
		{
			ID: "run-1", StartedAt: now.Add(-2 * time.Hour), FinishedAt: now.Add(-2 * time.Hour).Add(time.Minute),
			State: "completed", Source: "/in", Dest: "/out", DedupeMode: "exact", Model: "qwen2.5:7b",
			Scanned: 10, Processed: 8, DuplicatesRemoved: 2, CategoriesUsed: 3, ElapsedMS: 60000,
		},
		{
			ID: "run-2", StartedAt: now.Add(-time.Hour), FinishedAt: now.Add(-time.Hour).Add(time.Minute),
			State: "cancelled", Source: "/in", Dest: "/out", DedupeMode: "none", Model: "qwen2.5:7b",
			Scanned: 5, Processed: 2, Fallbacks: 1, Skipped: 1, ElapsedMS: 1500,
		},
	}
	for _, run := range runs {
		if err := store.Record(context.Background(), run); err != nil {
			t.Fatalf("Record %s: %v", run.ID, err)
		}
	}

	listed, err := store.List(context.Background(), 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(listed) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(listed))
	}
	if listed[0].ID != "run-2" {
		t.Fatalf("expected newest first, got %s", listed[0].ID)
	}
	if listed[1].Processed != 8 || listed[1].DuplicatesRemoved != 2 {
		t.Fatalf("unexpected counters %+v", listed[1])
	}
	if listed[0].State != "cancelled" {
		t.Fatalf("unexpected state %q", listed[0].State)
	}
}

func TestListLimit(t *testing.T) {
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	now := time.Now().UTC()
	for i := 0; i < 5; i++ {
		run := Run{
			ID:        string(rune('a' + i)),
			StartedAt: now.Add(time.Duration(i) * time.Minute),
			State:     "completed",
		}
		if err := store.Record(context.Background(), run); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}
	listed, err := store.List(context.Background(), 3)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(listed) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(listed))
	}
}

func TestOpenReopens(t *testing.T) {
	dir := t.TempDir()
	store, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := store.Record(context.Background(), Run{ID: "run-1", StartedAt: time.Now(), State: "completed"}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := Open(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	listed, err := reopened.List(context.Background(), 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(listed) != 1 {
		t.Fatalf("expected persisted run, got %d", len(listed))
	}
}
