package oplog

import (
	"context"
	"testing"
	"time"

	"shuttersort/internal/organize"
	"shuttersort/internal/stats"
	"shuttersort/internal/testsupport"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store, err := Open(cfg)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRunLifecycle(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.BeginRun(ctx, "run-1", "/src", "/dst"); err != nil {
		t.Fatalf("begin run: %v", err)
	}

	ok := organize.Result{
		Task: organize.FileTask{
			Source:    "/src/a.jpg",
			Target:    "/dst/2024/01/15/a.jpg",
			Operation: organize.OpCopy,
		},
		Success:  true,
		Bytes:    1024,
		Duration: 25 * time.Millisecond,
	}
	failed := organize.Result{
		Task: organize.FileTask{
			Source:    "/src/b.jpg",
			Target:    "/dst/2024/01/15/b.jpg",
			Operation: organize.OpMove,
		},
		Err: "permission denied",
	}
	for _, result := range []organize.Result{ok, failed} {
		if err := store.RecordResult(ctx, "run-1", result); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	snapshot := stats.Snapshot{Counters: map[string]int64{
		stats.Processed:      2,
		stats.Copied:         1,
		stats.Errors:         1,
		stats.BytesProcessed: 1024,
	}}
	if err := store.FinishRun(ctx, "run-1", snapshot); err != nil {
		t.Fatalf("finish run: %v", err)
	}

	runs, err := store.RecentRuns(ctx, 5)
	if err != nil {
		t.Fatalf("recent runs: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("runs = %d, want 1", len(runs))
	}
	run := runs[0]
	if run.ID != "run-1" || run.Processed != 2 || run.Errors != 1 || run.Bytes != 1024 {
		t.Fatalf("unexpected run row: %+v", run)
	}
	if run.FinishedAt == nil {
		t.Fatal("finished_at not set")
	}

	failures, err := store.Failed(ctx, "run-1")
	if err != nil {
		t.Fatalf("failed ops: %v", err)
	}
	if len(failures) != 1 {
		t.Fatalf("failures = %d, want 1", len(failures))
	}
	if failures[0].SourcePath != "/src/b.jpg" || failures[0].ErrMessage != "permission denied" {
		t.Fatalf("unexpected failure row: %+v", failures[0])
	}

	all, err := store.Operations(ctx, "run-1")
	if err != nil {
		t.Fatalf("operations: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("operations = %d, want 2", len(all))
	}
}

func TestReopenExistingDatabase(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	store, err := Open(cfg)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	if err := store.BeginRun(context.Background(), "run-1", "/src", "/dst"); err != nil {
		t.Fatalf("begin run: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := Open(cfg)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	runs, err := reopened.RecentRuns(context.Background(), 5)
	if err != nil {
		t.Fatalf("recent runs: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("runs = %d after reopen, want 1", len(runs))
	}
}

func TestRecentRunsOrder(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"run-a", "run-b", "run-c"} {
		if err := store.BeginRun(ctx, id, "/src", "/dst"); err != nil {
			t.Fatalf("begin %s: %v", id, err)
		}
		time.Sleep(2 * time.Millisecond)
	}

	runs, err := store.RecentRuns(ctx, 2)
	if err != nil {
		t.Fatalf("recent runs: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("runs = %d, want 2", len(runs))
	}
	if runs[0].ID != "run-c" {
		t.Fatalf("newest run = %s, want run-c", runs[0].ID)
	}
}
