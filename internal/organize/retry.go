package organize

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"shuttersort/internal/config"
	"shuttersort/internal/fileutil"
	"shuttersort/internal/logging"
	"shuttersort/internal/merge"
	"shuttersort/internal/stats"
)

// Executor runs a single task to completion, retrying failures with
// exponential backoff. Disk access goes through the shared Gate so total I/O
// pressure stays bounded regardless of worker count.
type Executor struct {
	cfg       *config.Config
	gate      *Gate
	merger    merge.Merger
	collector *stats.Collector
	logger    *slog.Logger
	token     *Token
}

func NewExecutor(cfg *config.Config, gate *Gate, merger merge.Merger, collector *stats.Collector, logger *slog.Logger, token *Token) *Executor {
	return &Executor{
		cfg:       cfg,
		gate:      gate,
		merger:    merger,
		collector: collector,
		logger:    logging.NewComponentLogger(logger, "executor"),
		token:     token,
	}
}

// Execute performs the task and always returns a Result, success or not.
// A failed merge degrades to a plain move or copy on the next attempt so the
// video still reaches the target tree; the Result reports the operation that
// actually ran.
func (e *Executor) Execute(ctx context.Context, task FileTask) Result {
	start := time.Now()
	attempts := e.cfg.Performance.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return e.failure(task, start, fmt.Errorf("run cancelled: %w", err))
		}

		bytes, err := e.attempt(ctx, task)
		if err == nil {
			return Result{
				Task:     task,
				Success:  true,
				Duration: time.Since(start),
				Bytes:    bytes,
			}
		}
		lastErr = err

		if task.Operation == OpMerge {
			task = e.degradeMerge(task, err)
		}

		if attempt == attempts-1 {
			break
		}
		delay := backoffDelay(e.cfg.RetryBaseDelay(), attempt)
		e.logger.Debug("retrying after failure",
			logging.String("source", task.Source),
			logging.Int("attempt", attempt+1),
			logging.Duration("delay", delay),
			logging.Error(err),
		)
		if !e.sleep(ctx, delay) {
			return e.failure(task, start, fmt.Errorf("run cancelled during retry: %w", lastErr))
		}
	}

	return e.failure(task, start, lastErr)
}

// degradeMerge converts a failed merge task into a plain relocation of the
// video, with the thumbnail carried along as a companion.
func (e *Executor) degradeMerge(task FileTask, cause error) FileTask {
	e.logger.Warn("merge failed; falling back to plain transfer",
		logging.String("video", task.Source),
		logging.Error(cause),
	)
	task.Operation = OpCopy
	if e.cfg.Processing.MoveFiles {
		task.Operation = OpMove
	}
	if task.MergeWith != "" {
		task.Companions = append(task.Companions, task.MergeWith)
		task.MergeWith = ""
	}
	return task
}

func (e *Executor) failure(task FileTask, start time.Time, err error) Result {
	e.logger.Warn("task failed",
		logging.String("source", task.Source),
		logging.String("target", task.Target),
		logging.Error(err),
	)
	return Result{
		Task:     task,
		Success:  false,
		Err:      err.Error(),
		Duration: time.Since(start),
	}
}

// attempt performs one try of the task under the I/O gate.
func (e *Executor) attempt(ctx context.Context, task FileTask) (int64, error) {
	if err := e.gate.Acquire(ctx); err != nil {
		return 0, err
	}
	defer e.gate.Release()

	if e.cfg.Safety.DryRun {
		e.logger.Info("dry run",
			logging.String("operation", string(task.Operation)),
			logging.String("source", task.Source),
			logging.String("target", task.Target),
		)
		return task.Size, nil
	}

	if err := fileutil.EnsureDir(filepath.Dir(task.Target)); err != nil {
		return 0, err
	}

	if task.Operation == OpMerge {
		return e.attemptMerge(ctx, task)
	}

	bytes, err := e.transfer(task.Operation, task.Source, task.Target)
	if err != nil {
		return 0, err
	}
	for _, companion := range task.Companions {
		companionTarget := filepath.Join(filepath.Dir(task.Target), filepath.Base(companion))
		extra, err := e.transfer(task.Operation, companion, companionTarget)
		if err != nil {
			return 0, err
		}
		bytes += extra
	}
	return bytes, nil
}

// transfer moves or copies one file, preserving timestamps on copies.
func (e *Executor) transfer(op Operation, source, target string) (int64, error) {
	if op == OpMove {
		return fileutil.MoveFile(source, target)
	}
	bytes, err := fileutil.CopyFile(source, target)
	if err != nil {
		return 0, err
	}
	if err := fileutil.CopyTimestamps(source, target); err != nil {
		e.logger.Debug("timestamp preservation failed",
			logging.String("target", target),
			logging.Error(err),
		)
	}
	return bytes, nil
}

func (e *Executor) attemptMerge(ctx context.Context, task FileTask) (int64, error) {
	if err := e.merger.Merge(ctx, task.Source, task.MergeWith, task.Target); err != nil {
		return 0, err
	}
	info, statErr := os.Stat(task.Target)
	var bytes int64
	if statErr == nil {
		bytes = info.Size()
	}
	if err := fileutil.CopyTimestamps(task.Source, task.Target); err != nil {
		e.logger.Debug("timestamp preservation failed",
			logging.String("target", task.Target),
			logging.Error(err),
		)
	}
	if e.cfg.Processing.MoveFiles {
		if err := os.Remove(task.Source); err != nil {
			e.logger.Warn("merged source left behind",
				logging.String("source", task.Source),
				logging.Error(err),
			)
		}
	}
	if e.collector != nil {
		e.collector.Increment(stats.MpgMerged)
		e.collector.Increment(stats.ThmDeleted)
	}
	return bytes, nil
}

// sleep waits out the backoff delay, returning false if the run was cancelled
// before the delay elapsed.
func (e *Executor) sleep(ctx context.Context, delay time.Duration) bool {
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	case <-e.token.Done():
		return false
	}
}

// backoffDelay doubles the base per attempt with 50% jitter to keep retries
// from synchronizing across workers.
func backoffDelay(base time.Duration, attempt int) time.Duration {
	if base <= 0 {
		base = time.Millisecond
	}
	delay := base << uint(attempt)
	jitter := 0.5 + rand.Float64()
	return time.Duration(float64(delay) * jitter)
}
