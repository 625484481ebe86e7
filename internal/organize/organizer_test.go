package organize

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"shuttersort/internal/config"
	"shuttersort/internal/logging"
	"shuttersort/internal/stats"
	"shuttersort/internal/testsupport"
)

func newTestOrganizer(t *testing.T, cfg *config.Config, extractor mapExtractor) *Organizer {
	t.Helper()
	organizer, err := New(cfg, logging.NewNop(), WithExtractor(extractor), WithMerger(neverMerger{}))
	if err != nil {
		t.Fatalf("new organizer: %v", err)
	}
	return organizer
}

func assertCounterInvariant(t *testing.T, snapshot stats.Snapshot) {
	t.Helper()
	processed := snapshot.Counters[stats.Processed]
	accounted := snapshot.Counters[stats.Moved] + snapshot.Counters[stats.Copied] + snapshot.Counters[stats.Errors]
	if processed != accounted {
		t.Fatalf("processed = %d but moved+copied+errors = %d", processed, accounted)
	}
}

func TestOrganizeEndToEnd(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Fallback.UseFileDate = false

	taken := time.Date(2024, 1, 15, 9, 0, 0, 0, time.Local)
	extractor := mapExtractor{"a.jpg": taken, "b.jpg": taken}
	for _, name := range []string{"a.jpg", "b.jpg", "c.jpg"} {
		testsupport.WriteFile(t, filepath.Join(cfg.Paths.SourceDir, name), 64)
	}

	organizer := newTestOrganizer(t, cfg, extractor)
	snapshot, err := organizer.Organize(context.Background(), cfg.Paths.SourceDir, cfg.Paths.TargetDir)
	if err != nil {
		t.Fatalf("organize: %v", err)
	}

	dated := filepath.Join(cfg.Paths.TargetDir, "2024", "01", "15")
	for _, name := range []string{"a.jpg", "b.jpg"} {
		if _, err := os.Stat(filepath.Join(dated, name)); err != nil {
			t.Errorf("%s not organized: %v", name, err)
		}
	}
	noDate := filepath.Join(cfg.Paths.TargetDir, cfg.Fallback.NoDateFolder, "c.jpg")
	if _, err := os.Stat(noDate); err != nil {
		t.Errorf("c.jpg not in no-date folder: %v", err)
	}

	if got := snapshot.Counters[stats.Processed]; got != 3 {
		t.Errorf("processed = %d, want 3", got)
	}
	if got := snapshot.Counters[stats.Copied]; got != 3 {
		t.Errorf("copied = %d, want 3", got)
	}
	if got := snapshot.Counters[stats.NoDate]; got != 1 {
		t.Errorf("no_date = %d, want 1", got)
	}
	if got := snapshot.Counters[stats.Errors]; got != 0 {
		t.Errorf("errors = %d, want 0", got)
	}
	assertCounterInvariant(t, snapshot)
}

func TestOrganizeMoveRemovesSources(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithMoveFiles())

	taken := time.Date(2021, 12, 31, 23, 0, 0, 0, time.Local)
	source := filepath.Join(cfg.Paths.SourceDir, "party.jpg")
	testsupport.WriteFile(t, source, 64)

	organizer := newTestOrganizer(t, cfg, mapExtractor{"party.jpg": taken})
	snapshot, err := organizer.Organize(context.Background(), cfg.Paths.SourceDir, cfg.Paths.TargetDir)
	if err != nil {
		t.Fatalf("organize: %v", err)
	}

	if _, err := os.Stat(source); !os.IsNotExist(err) {
		t.Fatal("source still present after a move run")
	}
	if got := snapshot.Counters[stats.Moved]; got != 1 {
		t.Errorf("moved = %d, want 1", got)
	}
	assertCounterInvariant(t, snapshot)
}

func TestOrganizeRerunOverOrganizedTree(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Fallback.UseFileDate = false

	taken := time.Date(2024, 1, 15, 9, 0, 0, 0, time.Local)
	extractor := mapExtractor{"a.jpg": taken}
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.SourceDir, "a.jpg"), 64)
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.SourceDir, "c.jpg"), 64)

	organizer := newTestOrganizer(t, cfg, extractor)
	if _, err := organizer.Organize(context.Background(), cfg.Paths.SourceDir, cfg.Paths.TargetDir); err != nil {
		t.Fatalf("first run: %v", err)
	}

	// Organizing the target into itself finds nothing to do: dated folders
	// are pruned during discovery and the rest is already in place.
	second := newTestOrganizer(t, cfg, extractor)
	snapshot, err := second.Organize(context.Background(), cfg.Paths.TargetDir, cfg.Paths.TargetDir)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if got := snapshot.Counters[stats.Processed]; got != 0 {
		t.Errorf("processed = %d on an organized tree, want 0", got)
	}
	assertCounterInvariant(t, snapshot)
}

func TestOrganizeCancelledBeforeStart(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	for i := 0; i < 5; i++ {
		testsupport.WriteFile(t, filepath.Join(cfg.Paths.SourceDir, "img"+string(rune('a'+i))+".jpg"), 16)
	}

	organizer := newTestOrganizer(t, cfg, mapExtractor{})
	organizer.Cancel()

	done := make(chan stats.Snapshot, 1)
	go func() {
		snapshot, err := organizer.Organize(context.Background(), cfg.Paths.SourceDir, cfg.Paths.TargetDir)
		if err != nil {
			t.Error(err)
		}
		done <- snapshot
	}()

	select {
	case snapshot := <-done:
		if got := snapshot.Counters[stats.Processed]; got != 0 {
			t.Errorf("processed = %d after pre-run cancel, want 0", got)
		}
		assertCounterInvariant(t, snapshot)
	case <-time.After(10 * time.Second):
		t.Fatal("cancelled run did not finish")
	}
}

// cancelAfterExtractor fires a callback once a fixed number of files have
// been dated, standing in for an interrupt arriving partway through a run.
type cancelAfterExtractor struct {
	inner  mapExtractor
	after  int
	calls  int
	cancel func()
}

func (c *cancelAfterExtractor) Extract(ctx context.Context, path string) (time.Time, bool) {
	c.calls++
	if c.calls == c.after {
		c.cancel()
	}
	return c.inner.Extract(ctx, path)
}

func TestOrganizeCancelledMidRun(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithBatchSize(2), testsupport.WithWorkers(2))

	taken := time.Date(2024, 1, 15, 9, 0, 0, 0, time.Local)
	inner := mapExtractor{}
	for i := 0; i < 12; i++ {
		name := fmt.Sprintf("img%02d.jpg", i)
		inner[name] = taken
		testsupport.WriteFile(t, filepath.Join(cfg.Paths.SourceDir, name), 32)
	}

	extractor := &cancelAfterExtractor{inner: inner, after: 5}
	organizer, err := New(cfg, logging.NewNop(), WithExtractor(extractor), WithMerger(neverMerger{}))
	if err != nil {
		t.Fatal(err)
	}
	extractor.cancel = organizer.Cancel

	done := make(chan stats.Snapshot, 1)
	go func() {
		snapshot, err := organizer.Organize(context.Background(), cfg.Paths.SourceDir, cfg.Paths.TargetDir)
		if err != nil {
			t.Error(err)
		}
		done <- snapshot
	}()

	select {
	case snapshot := <-done:
		// Cancellation lands while the third batch is being built: the two
		// dispatched batches are fully accounted and at most the partial
		// third batch joins them.
		processed := snapshot.Counters[stats.Processed]
		if processed < 4 || processed > 5 {
			t.Errorf("processed = %d, want only the dispatched batches (4 or 5)", processed)
		}
		assertCounterInvariant(t, snapshot)
	case <-time.After(10 * time.Second):
		t.Fatal("cancelled run did not finish")
	}
}

func TestOrganizeDryRunBatches(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithBatchSize(2), testsupport.WithWorkers(2))
	cfg.Safety.DryRun = true

	taken := time.Date(2020, 6, 1, 0, 0, 0, 0, time.Local)
	extractor := mapExtractor{}
	for i := 0; i < 5; i++ {
		name := "img" + string(rune('a'+i)) + ".jpg"
		extractor[name] = taken
		testsupport.WriteFile(t, filepath.Join(cfg.Paths.SourceDir, name), 32)
	}

	organizer := newTestOrganizer(t, cfg, extractor)
	snapshot, err := organizer.Organize(context.Background(), cfg.Paths.SourceDir, cfg.Paths.TargetDir)
	if err != nil {
		t.Fatalf("organize: %v", err)
	}

	if got := snapshot.Counters[stats.Processed]; got != 5 {
		t.Errorf("processed = %d, want 5", got)
	}
	if got := snapshot.Counters[stats.Batches]; got != 3 {
		t.Errorf("batches = %d, want 3", got)
	}
	entries, err := os.ReadDir(filepath.Join(cfg.Paths.TargetDir, "2020"))
	if err == nil && len(entries) > 0 {
		t.Error("dry run created dated directories")
	}
	assertCounterInvariant(t, snapshot)
}

func TestOrganizeEmptySource(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := os.MkdirAll(cfg.Paths.SourceDir, 0o755); err != nil {
		t.Fatal(err)
	}

	organizer := newTestOrganizer(t, cfg, mapExtractor{})
	snapshot, err := organizer.Organize(context.Background(), cfg.Paths.SourceDir, cfg.Paths.TargetDir)
	if err != nil {
		t.Fatalf("organize: %v", err)
	}
	if got := snapshot.Counters[stats.Processed]; got != 0 {
		t.Errorf("processed = %d, want 0", got)
	}
}

func TestOrganizeMaxFilesPerRun(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Safety.MaxFilesPerRun = 2

	taken := time.Date(2020, 6, 1, 0, 0, 0, 0, time.Local)
	extractor := mapExtractor{}
	for i := 0; i < 5; i++ {
		name := "img" + string(rune('a'+i)) + ".jpg"
		extractor[name] = taken
		testsupport.WriteFile(t, filepath.Join(cfg.Paths.SourceDir, name), 32)
	}

	organizer := newTestOrganizer(t, cfg, extractor)
	snapshot, err := organizer.Organize(context.Background(), cfg.Paths.SourceDir, cfg.Paths.TargetDir)
	if err != nil {
		t.Fatalf("organize: %v", err)
	}
	if got := snapshot.Counters[stats.Processed]; got != 2 {
		t.Errorf("processed = %d with a limit of 2, want 2", got)
	}
	assertCounterInvariant(t, snapshot)
}

func TestOrganizeMaxFilesCountsCompanions(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Safety.MaxFilesPerRun = 3

	taken := time.Date(2020, 6, 1, 0, 0, 0, 0, time.Local)
	extractor := mapExtractor{}
	for _, stem := range []string{"mov001", "mov002"} {
		extractor[stem+".mpg"] = taken
		testsupport.WriteFile(t, filepath.Join(cfg.Paths.SourceDir, stem+".mpg"), 64)
		testsupport.WriteFile(t, filepath.Join(cfg.Paths.SourceDir, stem+".thm"), 8)
	}

	organizer := newTestOrganizer(t, cfg, extractor)
	snapshot, err := organizer.Organize(context.Background(), cfg.Paths.SourceDir, cfg.Paths.TargetDir)
	if err != nil {
		t.Fatalf("organize: %v", err)
	}

	// Each grouped video spans two files, so a limit of three admits only
	// the first pair.
	if got := snapshot.Counters[stats.Processed]; got != 1 {
		t.Errorf("processed = %d, want 1", got)
	}
	dated := filepath.Join(cfg.Paths.TargetDir, "2020", "06", "01")
	if _, err := os.Stat(filepath.Join(dated, "mov001.thm")); err != nil {
		t.Errorf("companion within the limit missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dated, "mov002.mpg")); !os.IsNotExist(err) {
		t.Error("file beyond the limit was organized")
	}
	assertCounterInvariant(t, snapshot)
}

func TestOrganizeMissingSourceFails(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	organizer := newTestOrganizer(t, cfg, mapExtractor{})

	_, err := organizer.Organize(context.Background(),
		filepath.Join(t.TempDir(), "absent"), cfg.Paths.TargetDir)
	if err == nil {
		t.Fatal("expected preflight failure for a missing source")
	}
}
