package organize

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"shuttersort/internal/config"
	"shuttersort/internal/extract"
	"shuttersort/internal/logging"
	"shuttersort/internal/merge"
	"shuttersort/internal/scan"
	"shuttersort/internal/stats"
)

// TaskBuilder turns discovered entries into executable tasks lazily: dates are
// extracted and target paths resolved only as the coordinator pulls the next
// batch, so a cancelled run never pays for files it will not dispatch.
type TaskBuilder struct {
	cfg       *config.Config
	extractor extract.Extractor
	merger    merge.Merger
	resolver  *DuplicateResolver
	collector *stats.Collector
	logger    *slog.Logger
	token     *Token

	targetRoot string
	pending    []scan.Entry
}

func NewTaskBuilder(
	cfg *config.Config,
	extractor extract.Extractor,
	merger merge.Merger,
	collector *stats.Collector,
	logger *slog.Logger,
	token *Token,
	targetRoot string,
	entries []scan.Entry,
) *TaskBuilder {
	b := &TaskBuilder{
		cfg:        cfg,
		extractor:  extractor,
		merger:     merger,
		resolver:   NewDuplicateResolver(DuplicatePolicy(cfg.Processing.DuplicateHandling)),
		collector:  collector,
		logger:     logging.NewComponentLogger(logger, "builder"),
		token:      token,
		targetRoot: targetRoot,
	}
	b.pending = b.flatten(entries)
	return b
}

// flatten detaches companions when thumbnails are dated independently.
func (b *TaskBuilder) flatten(entries []scan.Entry) []scan.Entry {
	if b.cfg.Video.KeepThumbnailsTogether {
		return entries
	}
	flat := make([]scan.Entry, 0, len(entries))
	for _, entry := range entries {
		companions := entry.Companions
		entry.Companions = nil
		flat = append(flat, entry)
		for _, companion := range companions {
			flat = append(flat, scan.Entry{Path: companion})
		}
	}
	return flat
}

// Next returns the next executable task. It reports false once all entries
// are consumed or the run is cancelled; skipped entries are counted and never
// surface as tasks.
func (b *TaskBuilder) Next(ctx context.Context) (FileTask, bool) {
	for len(b.pending) > 0 {
		if b.token.Cancelled() || ctx.Err() != nil {
			return FileTask{}, false
		}

		entry := b.pending[0]
		b.pending = b.pending[1:]

		task, ok := b.build(ctx, entry)
		if !ok {
			continue
		}
		return task, true
	}
	return FileTask{}, false
}

// Remaining reports how many entries have not yet been turned into tasks.
func (b *TaskBuilder) Remaining() int {
	return len(b.pending)
}

func (b *TaskBuilder) build(ctx context.Context, entry scan.Entry) (FileTask, bool) {
	info, err := os.Stat(entry.Path)
	if err != nil {
		b.logger.Warn("skipping vanished file",
			logging.String("path", entry.Path),
			logging.Error(err),
		)
		b.collector.Increment(stats.Skipped)
		return FileTask{}, false
	}

	takenAt, dateDir := b.dateFolder(ctx, entry.Path, info.ModTime())
	candidate := filepath.Join(b.targetRoot, dateDir, filepath.Base(entry.Path))

	if candidate == entry.Path {
		b.logger.Debug("already in place", logging.String("path", entry.Path))
		b.collector.Increment(stats.Skipped)
		return FileTask{}, false
	}

	target, skip, err := b.resolver.Resolve(candidate)
	if err != nil {
		b.logger.Warn("cannot place file",
			logging.String("path", entry.Path),
			logging.Error(err),
		)
		b.collector.Increment(stats.Skipped)
		return FileTask{}, false
	}
	if skip {
		b.logger.Debug("duplicate skipped",
			logging.String("path", entry.Path),
			logging.String("target", candidate),
		)
		b.collector.Increment(stats.Skipped)
		return FileTask{}, false
	}

	task := FileTask{
		Source:     entry.Path,
		Target:     target,
		Operation:  OpCopy,
		Companions: entry.Companions,
		Size:       info.Size(),
		TakenAt:    takenAt,
	}
	if b.cfg.Processing.MoveFiles {
		task.Operation = OpMove
	}

	if entry.IsVideo() {
		b.collector.Increment(stats.VideosProcessed)
		b.collector.Add(stats.ThumbnailsProcessed, int64(len(entry.Companions)))
		if thumb, rest, ok := mergeCandidate(entry); ok && b.merger.CanMerge(entry.Path, thumb) {
			task.Operation = OpMerge
			task.MergeWith = thumb
			task.Companions = rest
		}
	}

	return task, true
}

// dateFolder extracts the capture date, or falls back to the file's
// modification time, or lands in the no-date folder. Extraction failure is
// counted even when the fallback produces a usable date.
func (b *TaskBuilder) dateFolder(ctx context.Context, path string, mtime time.Time) (*time.Time, string) {
	when, ok := b.extractor.Extract(ctx, path)
	if !ok {
		b.collector.Increment(stats.NoDate)
		if !b.cfg.Fallback.UseFileDate {
			return nil, b.cfg.Fallback.NoDateFolder
		}
		when = mtime
	}
	return &when, formatDateDir(b.cfg.DateFormat, when)
}

func formatDateDir(format string, when time.Time) string {
	switch format {
	case "YYYY/MM":
		return filepath.Join(when.Format("2006"), when.Format("01"))
	case "YYYY-MM-DD":
		return when.Format("2006-01-02")
	case "YYYY-MM":
		return when.Format("2006-01")
	default:
		return filepath.Join(when.Format("2006"), when.Format("01"), when.Format("02"))
	}
}

// mergeCandidate picks the thumbnail to merge when the entry has exactly one
// obvious companion; remaining companions travel as plain files.
func mergeCandidate(entry scan.Entry) (thumb string, rest []string, ok bool) {
	if len(entry.Companions) == 0 {
		return "", nil, false
	}
	thumb = entry.Companions[0]
	rest = entry.Companions[1:]
	return thumb, rest, true
}
