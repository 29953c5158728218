package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"
)

// ErrRunNotFound is returned when a run ID has no row.
var ErrRunNotFound = errors.New("run not found")

const runColumns = "id, status, started_at, finished_at, attempted, succeeded, failed, records_harvested, entries_skipped, records_kept, assets_cached, assets_failed, frames_sampled"

const outcomeColumns = "id, run_id, unit_id, folder, locator, destination, state, failed_stage, error_kind, error_message, records, kept, assets_cached, assets_failed, frames, ranked_path, all_path, duration_ms, finished_at"

// Store manages run history backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the ledger database at path and applies
// migrations.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create ledger directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// Pragmas are per connection; a single connection keeps foreign keys on.
	db.SetMaxOpenConns(1)

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

	store := &Store{db: db, path: path}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// StartRun inserts a run in the running state.
func (s *Store) StartRun(ctx context.Context, id string, startedAt time.Time) error {
	if id == "" {
		return errors.New("start run: id is required")
	}
	_, err := sq.Insert("runs").
		Columns("id", "status", "started_at").
		Values(id, StatusRunning, formatTime(startedAt)).
		RunWith(s.db).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// FinishRun stores the final counters and status of run.ID.
func (s *Store) FinishRun(ctx context.Context, run Run) error {
	finished := time.Now().UTC()
	if run.FinishedAt != nil {
		finished = *run.FinishedAt
	}
	res, err := sq.Update("runs").
		SetMap(map[string]any{
			"status":            run.Status,
			"finished_at":       formatTime(finished),
			"attempted":         run.Attempted,
			"succeeded":         run.Succeeded,
			"failed":            run.Failed,
			"records_harvested": run.RecordsHarvested,
			"entries_skipped":   run.EntriesSkipped,
			"records_kept":      run.RecordsKept,
			"assets_cached":     run.AssetsCached,
			"assets_failed":     run.AssetsFailed,
			"frames_sampled":    run.FramesSampled,
		}).
		Where(sq.Eq{"id": run.ID}).
		RunWith(s.db).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("finish run %s: %w", run.ID, ErrRunNotFound)
	}
	return nil
}

// RecordOutcome appends an entry outcome to its run.
func (s *Store) RecordOutcome(ctx context.Context, o EntryOutcome) (int64, error) {
	finished := o.FinishedAt
	if finished.IsZero() {
		finished = time.Now().UTC()
	}
	res, err := sq.Insert("entry_outcomes").
		Columns("run_id", "unit_id", "folder", "locator", "destination", "state", "failed_stage",
			"error_kind", "error_message", "records", "kept", "assets_cached", "assets_failed",
			"frames", "ranked_path", "all_path", "duration_ms", "finished_at").
		Values(o.RunID, nullableString(o.UnitID), nullableString(o.Folder), nullableString(o.Locator),
			nullableString(o.Destination), o.State, nullableString(o.FailedStage),
			nullableString(o.ErrorKind), nullableString(o.ErrorMessage), o.Records, o.Kept,
			o.AssetsCached, o.AssetsFailed, o.Frames, nullableString(o.RankedPath),
			nullableString(o.AllPath), o.Duration.Milliseconds(), formatTime(finished)).
		RunWith(s.db).
		ExecContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("insert entry outcome: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// GetRun returns one run by ID.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	query, args, err := sq.Select(runColumns).From("runs").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build run query: %w", err)
	}
	run, err := scanRun(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", id, ErrRunNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scan run: %w", err)
	}
	return run, nil
}

// ListRuns returns the most recent runs first. limit <= 0 returns all runs.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	builder := sq.Select(runColumns).From("runs").OrderBy("started_at DESC", "id DESC")
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build runs query: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// ListOutcomes returns the outcomes of a run in processing order.
func (s *Store) ListOutcomes(ctx context.Context, runID string) ([]EntryOutcome, error) {
	query, args, err := sq.Select(outcomeColumns).
		From("entry_outcomes").
		Where(sq.Eq{"run_id": runID}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build outcomes query: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()

	var outcomes []EntryOutcome
	for rows.Next() {
		outcome, err := scanOutcome(rows)
		if err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes, rows.Err()
}

// PruneBefore deletes runs started before cutoff together with their
// outcomes and returns how many runs were removed.
func (s *Store) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := sq.Delete("runs").
		Where(sq.Lt{"started_at": formatTime(cutoff)}).
		RunWith(s.db).
		ExecContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	return res.RowsAffected()
}
