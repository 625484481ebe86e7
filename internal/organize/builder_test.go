package organize

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"shuttersort/internal/logging"
	"shuttersort/internal/scan"
	"shuttersort/internal/stats"
	"shuttersort/internal/testsupport"
)

// mapExtractor returns fixed dates keyed by base name.
type mapExtractor map[string]time.Time

func (m mapExtractor) Extract(_ context.Context, path string) (time.Time, bool) {
	when, ok := m[filepath.Base(path)]
	return when, ok
}

type alwaysMerger struct{}

func (alwaysMerger) CanMerge(string, string) bool { return true }

func (alwaysMerger) Merge(context.Context, string, string, string) error { return nil }

type neverMerger struct{}

func (neverMerger) CanMerge(string, string) bool { return false }

func (neverMerger) Merge(context.Context, string, string, string) error { return nil }

func TestBuilderComputesDatedTarget(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	source := filepath.Join(t.TempDir(), "photo.jpg")
	testsupport.WriteFile(t, source, 64)

	taken := time.Date(2024, 1, 15, 10, 30, 0, 0, time.Local)
	builder := NewTaskBuilder(cfg, mapExtractor{"photo.jpg": taken}, neverMerger{},
		stats.NewCollector(nil), logging.NewNop(), NewToken(),
		cfg.Paths.TargetDir, []scan.Entry{{Path: source}})

	task, ok := builder.Next(context.Background())
	if !ok {
		t.Fatal("expected a task")
	}
	want := filepath.Join(cfg.Paths.TargetDir, "2024", "01", "15", "photo.jpg")
	if task.Target != want {
		t.Fatalf("target = %q, want %q", task.Target, want)
	}
	if task.Operation != OpCopy {
		t.Fatalf("operation = %s, want copy", task.Operation)
	}
	if task.TakenAt == nil || !task.TakenAt.Equal(taken) {
		t.Fatalf("taken at = %v, want %v", task.TakenAt, taken)
	}
	if task.Size != 64 {
		t.Fatalf("size = %d, want 64", task.Size)
	}

	if _, ok := builder.Next(context.Background()); ok {
		t.Fatal("expected exhaustion after one entry")
	}
}

func TestBuilderNoDateFolder(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Fallback.UseFileDate = false
	source := filepath.Join(t.TempDir(), "mystery.jpg")
	testsupport.WriteFile(t, source, 16)

	collector := stats.NewCollector(nil)
	builder := NewTaskBuilder(cfg, mapExtractor{}, neverMerger{},
		collector, logging.NewNop(), NewToken(),
		cfg.Paths.TargetDir, []scan.Entry{{Path: source}})

	task, ok := builder.Next(context.Background())
	if !ok {
		t.Fatal("expected a task")
	}
	want := filepath.Join(cfg.Paths.TargetDir, cfg.Fallback.NoDateFolder, "mystery.jpg")
	if task.Target != want {
		t.Fatalf("target = %q, want %q", task.Target, want)
	}
	if collector.Get(stats.NoDate) != 1 {
		t.Fatalf("no_date = %d, want 1", collector.Get(stats.NoDate))
	}
}

func TestBuilderMtimeFallbackStillCountsNoDate(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	source := filepath.Join(t.TempDir(), "mystery.jpg")
	mtime := time.Date(2023, 7, 4, 12, 0, 0, 0, time.Local)
	testsupport.WriteFileAt(t, source, mtime)

	collector := stats.NewCollector(nil)
	builder := NewTaskBuilder(cfg, mapExtractor{}, neverMerger{},
		collector, logging.NewNop(), NewToken(),
		cfg.Paths.TargetDir, []scan.Entry{{Path: source}})

	task, ok := builder.Next(context.Background())
	if !ok {
		t.Fatal("expected a task")
	}
	want := filepath.Join(cfg.Paths.TargetDir, "2023", "07", "04", "mystery.jpg")
	if task.Target != want {
		t.Fatalf("target = %q, want %q", task.Target, want)
	}
	if collector.Get(stats.NoDate) != 1 {
		t.Fatal("extraction failure must be counted even when the fallback works")
	}
}

func TestBuilderSkipsFileAlreadyInPlace(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	inPlace := filepath.Join(cfg.Paths.TargetDir, "2024", "01", "15", "photo.jpg")
	testsupport.WriteFile(t, inPlace, 16)

	taken := time.Date(2024, 1, 15, 8, 0, 0, 0, time.Local)
	collector := stats.NewCollector(nil)
	builder := NewTaskBuilder(cfg, mapExtractor{"photo.jpg": taken}, neverMerger{},
		collector, logging.NewNop(), NewToken(),
		cfg.Paths.TargetDir, []scan.Entry{{Path: inPlace}})

	if _, ok := builder.Next(context.Background()); ok {
		t.Fatal("in-place file must not produce a task")
	}
	if collector.Get(stats.Skipped) != 1 {
		t.Fatalf("skipped = %d, want 1", collector.Get(stats.Skipped))
	}
}

func TestBuilderStopsOnCancellation(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	source := filepath.Join(t.TempDir(), "photo.jpg")
	testsupport.WriteFile(t, source, 16)

	token := NewToken()
	builder := NewTaskBuilder(cfg, mapExtractor{}, neverMerger{},
		stats.NewCollector(nil), logging.NewNop(), token,
		cfg.Paths.TargetDir, []scan.Entry{{Path: source}})

	token.Cancel()
	if _, ok := builder.Next(context.Background()); ok {
		t.Fatal("cancelled builder produced a task")
	}
	if builder.Remaining() != 1 {
		t.Fatalf("remaining = %d, want 1", builder.Remaining())
	}
}

func TestBuilderEmitsMergeTask(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	dir := t.TempDir()
	video := filepath.Join(dir, "mov001.mpg")
	thumb := filepath.Join(dir, "mov001.thm")
	testsupport.WriteFile(t, video, 256)
	testsupport.WriteFile(t, thumb, 32)

	taken := time.Date(2022, 5, 1, 0, 0, 0, 0, time.Local)
	builder := NewTaskBuilder(cfg, mapExtractor{"mov001.mpg": taken}, alwaysMerger{},
		stats.NewCollector(nil), logging.NewNop(), NewToken(),
		cfg.Paths.TargetDir, []scan.Entry{{Path: video, Companions: []string{thumb}}})

	task, ok := builder.Next(context.Background())
	if !ok {
		t.Fatal("expected a task")
	}
	if task.Operation != OpMerge {
		t.Fatalf("operation = %s, want merge", task.Operation)
	}
	if task.MergeWith != thumb {
		t.Fatalf("merge with = %q, want %q", task.MergeWith, thumb)
	}
	if len(task.Companions) != 0 {
		t.Fatalf("companions = %v, want none after the thumbnail is claimed", task.Companions)
	}
}

func TestBuilderDetachesThumbnailsWhenConfigured(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Video.KeepThumbnailsTogether = false
	dir := t.TempDir()
	video := filepath.Join(dir, "mov001.mpg")
	thumb := filepath.Join(dir, "mov001.thm")
	testsupport.WriteFile(t, video, 256)
	testsupport.WriteFile(t, thumb, 32)

	builder := NewTaskBuilder(cfg, mapExtractor{}, neverMerger{},
		stats.NewCollector(nil), logging.NewNop(), NewToken(),
		cfg.Paths.TargetDir, []scan.Entry{{Path: video, Companions: []string{thumb}}})

	var sources []string
	for {
		task, ok := builder.Next(context.Background())
		if !ok {
			break
		}
		sources = append(sources, task.Source)
		if len(task.Companions) != 0 {
			t.Fatalf("task for %s still carries companions", task.Source)
		}
	}
	if len(sources) != 2 {
		t.Fatalf("tasks = %d, want 2 separate tasks", len(sources))
	}
}

func TestFormatDateDir(t *testing.T) {
	when := time.Date(2024, 1, 15, 0, 0, 0, 0, time.Local)
	cases := []struct {
		format string
		want   string
	}{
		{"YYYY/MM/DD", filepath.Join("2024", "01", "15")},
		{"YYYY/MM", filepath.Join("2024", "01")},
		{"YYYY-MM-DD", "2024-01-15"},
		{"YYYY-MM", "2024-01"},
	}
	for _, tc := range cases {
		if got := formatDateDir(tc.format, when); got != tc.want {
			t.Errorf("formatDateDir(%q) = %q, want %q", tc.format, got, tc.want)
		}
	}
}

func TestBuilderSkipsVanishedFile(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	collector := stats.NewCollector(nil)
	builder := NewTaskBuilder(cfg, mapExtractor{}, neverMerger{},
		collector, logging.NewNop(), NewToken(),
		cfg.Paths.TargetDir, []scan.Entry{{Path: filepath.Join(t.TempDir(), "gone.jpg")}})

	if _, ok := builder.Next(context.Background()); ok {
		t.Fatal("vanished file produced a task")
	}
	if collector.Get(stats.Skipped) != 1 {
		t.Fatalf("skipped = %d, want 1", collector.Get(stats.Skipped))
	}
}
