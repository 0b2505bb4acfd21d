package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

// maxStoredOutput caps how much captured command output is persisted per run.
const maxStoredOutput = 8 * 1024

// Store defines the interface for database operations.
// Methods accept context.Context for cancellation and timeouts.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// RecordTaskRun inserts a new task run record.
	RecordTaskRun(ctx context.Context, run *TaskRun) error

	// GetRecentTaskRuns retrieves the most recent 'limit' task runs, newest first.
	GetRecentTaskRuns(ctx context.Context, limit int) ([]TaskRun, error)

	// GetTaskRunsSince retrieves task runs started at or after the given time, newest first.
	GetTaskRunsSince(ctx context.Context, since time.Time) ([]TaskRun, error)

	// SaveSignal inserts a new signal record.
	SaveSignal(ctx context.Context, sig *Signal) error

	// GetRecentSignals retrieves the most recent 'limit' signals, newest first.
	GetRecentSignals(ctx context.Context, limit int) ([]Signal, error)

	// GetSignalsSince retrieves signals created at or after the given time, newest first.
	GetSignalsSince(ctx context.Context, since time.Time) ([]Signal, error)

	// DeleteOldRecords deletes task runs and signals older than the cutoff
	// in a single transaction, returning the number of rows removed.
	DeleteOldRecords(ctx context.Context, cutoff time.Time) (int64, error)

	// RunSQLMaintenance performs database maintenance tasks like VACUUM.
	RunSQLMaintenance(ctx context.Context) error
}

// sqlxStore provides an implementation of the Store interface using sqlx.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a new Store implementation backed by sqlx.
// It requires a connected sqlx.DB instance and a logger.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

// Ping checks the database connection.
func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// RecordTaskRun inserts a new task run record.
func (s *sqlxStore) RecordTaskRun(ctx context.Context, run *TaskRun) error {
	if run == nil {
		return fmt.Errorf("cannot record nil task run")
	}
	if run.JobName == "" {
		return fmt.Errorf("task run must have a job name")
	}
	if run.StartedAt.IsZero() {
		return fmt.Errorf("task run must have a non-zero start time")
	}

	run.CreatedAt = time.Now().UTC()
	if len(run.Output) > maxStoredOutput {
		run.Output = run.Output[:maxStoredOutput]
	}

	query := `
        INSERT INTO task_runs (job_name, trigger_source, status, started_at, finished_at, duration_ms, output, error, created_at)
        VALUES (:job_name, :trigger_source, :status, :started_at, :finished_at, :duration_ms, :output, :error, :created_at);
    `

	result, err := s.db.NamedExecContext(ctx, query, run)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error recording task run", "job_name", run.JobName, "error", err)
		return fmt.Errorf("failed to record task run for job %q: %w", run.JobName, err)
	}

	if id, err := result.LastInsertId(); err == nil {
		run.ID = uint(id)
	} else {
		s.logger.WarnContext(ctx, "Could not retrieve last insert ID after recording task run",
			"job_name", run.JobName, "error", err)
	}

	s.logger.DebugContext(ctx, "Task run recorded",
		"job_name", run.JobName, "status", run.Status, "run_id", run.ID)
	return nil
}

// GetRecentTaskRuns retrieves the most recent 'limit' task runs, newest first.
func (s *sqlxStore) GetRecentTaskRuns(ctx context.Context, limit int) ([]TaskRun, error) {
	if limit <= 0 {
		limit = 20
	} else if limit > 100 {
		limit = 100
	}

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var runs []TaskRun
	query := `
        SELECT id, created_at, job_name, trigger_source, status, started_at, finished_at, duration_ms, output, error
        FROM task_runs
        ORDER BY started_at DESC, id DESC
        LIMIT ?;
    `

	if err := s.db.SelectContext(ctx, &runs, query, limit); err != nil {
		s.logger.ErrorContext(ctx, "Error getting recent task runs", "limit", limit, "error", err)
		return nil, fmt.Errorf("failed to get recent task runs: %w", err)
	}

	return runs, nil
}

// GetTaskRunsSince retrieves task runs started at or after the given time, newest first.
func (s *sqlxStore) GetTaskRunsSince(ctx context.Context, since time.Time) ([]TaskRun, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var runs []TaskRun
	query := `
        SELECT id, created_at, job_name, trigger_source, status, started_at, finished_at, duration_ms, output, error
        FROM task_runs
        WHERE started_at >= ?
        ORDER BY started_at DESC, id DESC;
    `

	if err := s.db.SelectContext(ctx, &runs, query, since.UTC()); err != nil {
		s.logger.ErrorContext(ctx, "Error getting task runs since", "since", since, "error", err)
		return nil, fmt.Errorf("failed to get task runs since %s: %w", since.Format(time.RFC3339), err)
	}

	return runs, nil
}

// SaveSignal inserts a new signal record.
func (s *sqlxStore) SaveSignal(ctx context.Context, sig *Signal) error {
	if sig == nil {
		return fmt.Errorf("cannot save nil signal")
	}
	if sig.Symbol == "" {
		return fmt.Errorf("signal must have a symbol")
	}
	if sig.Direction != "long" && sig.Direction != "short" {
		return fmt.Errorf("signal direction must be long or short, got %q", sig.Direction)
	}

	sig.CreatedAt = time.Now().UTC()

	query := `
        INSERT INTO signals (symbol, direction, low_volume, price, rsi, ema_fast, ema_slow, volume, volume_avg, message, created_at)
        VALUES (:symbol, :direction, :low_volume, :price, :rsi, :ema_fast, :ema_slow, :volume, :volume_avg, :message, :created_at);
    `

	result, err := s.db.NamedExecContext(ctx, query, sig)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error saving signal", "symbol", sig.Symbol, "error", err)
		return fmt.Errorf("failed to save signal for %s: %w", sig.Symbol, err)
	}

	if id, err := result.LastInsertId(); err == nil {
		sig.ID = uint(id)
	}

	s.logger.DebugContext(ctx, "Signal saved",
		"symbol", sig.Symbol, "direction", sig.Direction, "signal_id", sig.ID)
	return nil
}

// GetRecentSignals retrieves the most recent 'limit' signals, newest first.
func (s *sqlxStore) GetRecentSignals(ctx context.Context, limit int) ([]Signal, error) {
	if limit <= 0 {
		limit = 20
	} else if limit > 100 {
		limit = 100
	}

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var signals []Signal
	query := `
        SELECT id, created_at, symbol, direction, low_volume, price, rsi, ema_fast, ema_slow, volume, volume_avg, message
        FROM signals
        ORDER BY created_at DESC, id DESC
        LIMIT ?;
    `

	if err := s.db.SelectContext(ctx, &signals, query, limit); err != nil {
		s.logger.ErrorContext(ctx, "Error getting recent signals", "limit", limit, "error", err)
		return nil, fmt.Errorf("failed to get recent signals: %w", err)
	}

	return signals, nil
}

// GetSignalsSince retrieves signals created at or after the given time, newest first.
func (s *sqlxStore) GetSignalsSince(ctx context.Context, since time.Time) ([]Signal, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var signals []Signal
	query := `
        SELECT id, created_at, symbol, direction, low_volume, price, rsi, ema_fast, ema_slow, volume, volume_avg, message
        FROM signals
        WHERE created_at >= ?
        ORDER BY created_at DESC, id DESC;
    `

	if err := s.db.SelectContext(ctx, &signals, query, since.UTC()); err != nil {
		s.logger.ErrorContext(ctx, "Error getting signals since", "since", since, "error", err)
		return nil, fmt.Errorf("failed to get signals since %s: %w", since.Format(time.RFC3339), err)
	}

	return signals, nil
}

// DeleteOldRecords deletes task runs and signals older than the cutoff in a
// single transaction. Either both tables are pruned or neither is.
func (s *sqlxStore) DeleteOldRecords(ctx context.Context, cutoff time.Time) (int64, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to begin transaction for retention cleanup", "error", err)
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if tx != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil {
				if !errors.Is(rollbackErr, sql.ErrTxDone) {
					s.logger.WarnContext(ctx, "Error rolling back transaction", "error", rollbackErr)
				}
			}
		}
	}()

	runsResult, err := tx.ExecContext(ctx, `DELETE FROM task_runs WHERE started_at < ?`, cutoff.UTC())
	if err != nil {
		s.logger.ErrorContext(ctx, "Error deleting old task runs", "error", err)
		return 0, fmt.Errorf("failed to delete old task runs: %w", err)
	}
	runsCount, _ := runsResult.RowsAffected()

	signalsResult, err := tx.ExecContext(ctx, `DELETE FROM signals WHERE created_at < ?`, cutoff.UTC())
	if err != nil {
		s.logger.ErrorContext(ctx, "Error deleting old signals", "error", err)
		return 0, fmt.Errorf("failed to delete old signals: %w", err)
	}
	signalsCount, _ := signalsResult.RowsAffected()

	if err := tx.Commit(); err != nil {
		s.logger.ErrorContext(ctx, "Failed to commit retention cleanup transaction", "error", err)
		return 0, fmt.Errorf("failed to commit retention cleanup: %w", err)
	}
	tx = nil

	total := runsCount + signalsCount
	s.logger.InfoContext(ctx, "Retention cleanup complete",
		"cutoff", cutoff.Format(time.RFC3339),
		"runs_deleted", runsCount,
		"signals_deleted", signalsCount)
	return total, nil
}

// RunSQLMaintenance executes a VACUUM command on the SQLite database.
// SQLite requires VACUUM to run outside a transaction.
func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	if ctx.Err() != nil {
		s.logger.WarnContext(ctx, "Context cancelled or timed out before starting VACUUM", "error", ctx.Err())
		return ctx.Err()
	}

	s.logger.InfoContext(ctx, "Starting database maintenance (VACUUM)...")

	_, err := s.db.ExecContext(ctx, "VACUUM;")

	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "VACUUM operation timed out or was cancelled", "error", err)
		return fmt.Errorf("database maintenance (VACUUM) timed out: %w", err)

	case err != nil:
		s.logger.ErrorContext(ctx, "Database maintenance (VACUUM) failed", "error", err)
		return fmt.Errorf("failed to execute VACUUM: %w", err)

	default:
		s.logger.InfoContext(ctx, "Database maintenance (VACUUM) completed successfully")
	}

	return nil
}
