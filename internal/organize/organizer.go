package organize

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"shuttersort/internal/config"
	"shuttersort/internal/extract"
	"shuttersort/internal/logging"
	"shuttersort/internal/merge"
	"shuttersort/internal/preflight"
	"shuttersort/internal/scan"
	"shuttersort/internal/services"
	"shuttersort/internal/stats"
)

// Organizer wires discovery, task building, the worker pool, and result
// accounting into a single run. It is safe to Cancel from another goroutine.
type Organizer struct {
	cfg       *config.Config
	base      *slog.Logger
	logger    *slog.Logger
	extractor extract.Extractor
	merger    merge.Merger
	journal   Journal
	collector *stats.Collector
	token     *Token
}

// Option customizes an Organizer during construction.
type Option func(*Organizer)

// WithExtractor overrides the default metadata extraction chain.
func WithExtractor(extractor extract.Extractor) Option {
	return func(o *Organizer) { o.extractor = extractor }
}

// WithMerger overrides the default video/thumbnail merger.
func WithMerger(merger merge.Merger) Option {
	return func(o *Organizer) { o.merger = merger }
}

// WithJournal attaches a run journal. The default discards records.
func WithJournal(journal Journal) Option {
	return func(o *Organizer) { o.journal = journal }
}

func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Organizer, error) {
	o := &Organizer{
		cfg:       cfg,
		base:      logger,
		logger:    logging.NewComponentLogger(logger, "organizer"),
		journal:   NoopJournal{},
		collector: stats.NewCollector(logger),
		token:     NewToken(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.extractor == nil {
		extractor, err := extract.NewExtractor(cfg, o.base, o.collector)
		if err != nil {
			return nil, err
		}
		o.extractor = extractor
	}
	if o.merger == nil {
		o.merger = merge.NewFFmpegMerger(cfg, o.base)
	}
	return o, nil
}

// Cancel requests a graceful stop: the current batch finishes and is fully
// accounted, and no further batches start.
func (o *Organizer) Cancel() {
	o.token.Cancel()
}

// Organize runs the full pipeline from source into target and returns the
// session counters. Discovery and preflight failures abort the run; per-file
// failures are counted and do not.
func (o *Organizer) Organize(ctx context.Context, source, target string) (stats.Snapshot, error) {
	runID := uuid.NewString()
	ctx = services.WithRunID(ctx, runID)
	logger := o.logger.With(logging.String(logging.FieldRunID, runID))

	if err := preflight.Run(o.cfg, source, target); err != nil {
		return stats.Snapshot{}, err
	}

	o.collector.StartSession()

	if err := o.journal.BeginRun(ctx, runID, source, target); err != nil {
		logger.Warn("journal begin failed", logging.Error(err))
	}

	scanner := scan.NewScanner(o.cfg, o.base)
	entries, err := scanner.Discover(ctx, source)
	if err != nil {
		return stats.Snapshot{}, services.Wrap(services.ErrValidation, "organizer", "organize", "discover files", err)
	}

	discovered := 0
	for _, entry := range entries {
		discovered += 1 + len(entry.Companions)
	}
	o.collector.Set(stats.Discovered, int64(discovered))
	logger.Info("discovery complete",
		logging.Int("files", discovered),
		logging.Int("entries", len(entries)),
	)

	if limit := o.cfg.Safety.MaxFilesPerRun; limit > 0 && discovered > limit {
		// An entry with companions spans several files, so the cap is applied
		// to the file tally rather than the entry count.
		kept, files := 0, 0
		for _, entry := range entries {
			span := 1 + len(entry.Companions)
			if files+span > limit {
				break
			}
			files += span
			kept++
		}
		logger.Warn("truncating run",
			logging.Int("limit", limit),
			logging.Int("dropped", discovered-files),
		)
		entries = entries[:kept]
	}

	gate := NewGate(o.cfg.Performance.MaxConcurrentIO)
	executor := NewExecutor(o.cfg, gate, o.merger, o.collector, o.base, o.token)
	pool := NewPool(o.cfg, executor, o.base, o.token)
	builder := NewTaskBuilder(o.cfg, o.extractor, o.merger, o.collector, o.base, o.token, target, entries)
	coordinator := NewCoordinator(o.cfg, pool, o.collector, o.journal, o.base, o.token, runID)

	pool.Start(ctx)
	coordinator.Run(ctx, builder)

	o.collector.EndSession()
	snapshot := o.collector.Snapshot()

	if err := o.journal.FinishRun(ctx, runID, snapshot); err != nil {
		logger.Warn("journal finish failed", logging.Error(err))
	}

	logger.Info("run complete",
		logging.Int64("processed", snapshot.Counters[stats.Processed]),
		logging.Int64("moved", snapshot.Counters[stats.Moved]),
		logging.Int64("copied", snapshot.Counters[stats.Copied]),
		logging.Int64("skipped", snapshot.Counters[stats.Skipped]),
		logging.Int64("errors", snapshot.Counters[stats.Errors]),
		logging.Duration("took", snapshot.Duration()),
	)
	return snapshot, nil
}
