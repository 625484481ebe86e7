package oplog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"shuttersort/internal/config"
	"shuttersort/internal/organize"
	"shuttersort/internal/stats"
)

// Store persists a journal of runs and per-file operations in SQLite. It
// implements organize.Journal.
type Store struct {
	db   *sql.DB
	path string
}

// Run is one recorded organizing session.
type Run struct {
	ID         string
	SourceDir  string
	TargetDir  string
	StartedAt  time.Time
	FinishedAt *time.Time
	Processed  int64
	Moved      int64
	Copied     int64
	Skipped    int64
	Errors     int64
	Bytes      int64
}

// Operation is one recorded file outcome.
type Operation struct {
	ID         int64
	RunID      string
	SourcePath string
	TargetPath string
	Operation  string
	Success    bool
	ErrMessage string
	Bytes      int64
	Duration   time.Duration
	RecordedAt time.Time
}

// Open initializes or connects to the journal database under the log
// directory.
func Open(cfg *config.Config) (*Store, error) {
	if err := os.MkdirAll(cfg.Paths.LogDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure log directory: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.LogDir, "oplog.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// BeginRun records the start of a session.
func (s *Store) BeginRun(ctx context.Context, runID, source, target string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, source_dir, target_dir, started_at) VALUES (?, ?, ?, ?)`,
		runID, source, target, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// RecordResult appends one file outcome to the journal.
func (s *Store) RecordResult(ctx context.Context, runID string, result organize.Result) error {
	var errMessage any
	if result.Err != "" {
		errMessage = result.Err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO operations (
            run_id, source_path, target_path, operation, success,
            error_message, bytes, duration_ms, recorded_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID,
		result.Task.Source,
		result.Task.Target,
		string(result.Task.Operation),
		boolToInt(result.Success),
		errMessage,
		result.Bytes,
		result.Duration.Milliseconds(),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert operation: %w", err)
	}
	return nil
}

// FinishRun stamps the session end and stores the final counters.
func (s *Store) FinishRun(ctx context.Context, runID string, snapshot stats.Snapshot) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, processed = ?, moved = ?, copied = ?,
            skipped = ?, errors = ?, bytes = ?
         WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339Nano),
		snapshot.Counters[stats.Processed],
		snapshot.Counters[stats.Moved],
		snapshot.Counters[stats.Copied],
		snapshot.Counters[stats.Skipped],
		snapshot.Counters[stats.Errors],
		snapshot.Counters[stats.BytesProcessed],
		runID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

// Failed returns the failed operations of a run, oldest first.
func (s *Store) Failed(ctx context.Context, runID string) ([]Operation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+operationColumns+` FROM operations
         WHERE run_id = ? AND success = 0 ORDER BY id`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("query failed operations: %w", err)
	}
	defer rows.Close()
	return scanOperations(rows)
}

// Operations returns every recorded outcome of a run, oldest first.
func (s *Store) Operations(ctx context.Context, runID string) ([]Operation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+operationColumns+` FROM operations WHERE run_id = ? ORDER BY id`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("query operations: %w", err)
	}
	defer rows.Close()
	return scanOperations(rows)
}

// RecentRuns lists the latest sessions, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source_dir, target_dir, started_at, finished_at,
                processed, moved, copied, skipped, errors, bytes
         FROM runs ORDER BY started_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run         Run
			startedRaw  string
			finishedRaw sql.NullString
		)
		if err := rows.Scan(
			&run.ID, &run.SourceDir, &run.TargetDir, &startedRaw, &finishedRaw,
			&run.Processed, &run.Moved, &run.Copied, &run.Skipped, &run.Errors, &run.Bytes,
		); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.StartedAt = parseTimestamp(startedRaw)
		if finishedRaw.Valid {
			finished := parseTimestamp(finishedRaw.String)
			run.FinishedAt = &finished
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

const operationColumns = "id, run_id, source_path, target_path, operation, success, error_message, bytes, duration_ms, recorded_at"

func scanOperations(rows *sql.Rows) ([]Operation, error) {
	var ops []Operation
	for rows.Next() {
		var (
			op          Operation
			success     int
			errMessage  sql.NullString
			durationMS  int64
			recordedRaw string
		)
		if err := rows.Scan(
			&op.ID, &op.RunID, &op.SourcePath, &op.TargetPath, &op.Operation,
			&success, &errMessage, &op.Bytes, &durationMS, &recordedRaw,
		); err != nil {
			return nil, fmt.Errorf("scan operation: %w", err)
		}
		op.Success = success != 0
		op.ErrMessage = errMessage.String
		op.Duration = time.Duration(durationMS) * time.Millisecond
		op.RecordedAt = parseTimestamp(recordedRaw)
		ops = append(ops, op)
	}
	return ops, rows.Err()
}

func parseTimestamp(raw string) time.Time {
	when, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return when
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
