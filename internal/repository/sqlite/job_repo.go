package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"audiopress/internal/domain"
	"audiopress/internal/repository"
)

var _ repository.JobRepository = (*sqliteJobRepo)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS conversion_jobs (
    id               TEXT PRIMARY KEY,
    source_url       TEXT NOT NULL,
    state            TEXT NOT NULL,
    failure_reason   TEXT NOT NULL DEFAULT '',
    result_path      TEXT NOT NULL DEFAULT '',
    title            TEXT NOT NULL DEFAULT '',
    duration_seconds INTEGER NOT NULL DEFAULT 0,
    created_at       DATETIME NOT NULL,
    updated_at       DATETIME NOT NULL
);
`

type sqliteJobRepo struct {
	db *sql.DB
}

// Open opens (or creates) the SQLite database at path and ensures the
// job table exists. Use ":memory:" for an ephemeral store.
func Open(path string) (repository.JobRepository, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
	}
	// modernc.org/sqlite serializes access through a single connection.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: create schema: %w", err)
	}
	return &sqliteJobRepo{db: db}, nil
}

// NewSQLiteJobRepository wraps an existing database handle. The schema must
// already exist.
func NewSQLiteJobRepository(db *sql.DB) repository.JobRepository {
	return &sqliteJobRepo{db: db}
}

func (r *sqliteJobRepo) Create(ctx context.Context, job *domain.Job) error {
	query := `INSERT INTO conversion_jobs (id, source_url, state, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		job.ID, job.SourceURL, string(job.State), job.CreatedAt.UTC(), job.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("sqlite: create job: %w", err)
	}
	return nil
}

func (r *sqliteJobRepo) GetByID(ctx context.Context, id string) (*domain.Job, error) {
	query := `SELECT id, source_url, state, failure_reason, result_path, title, duration_seconds, created_at, updated_at
		FROM conversion_jobs WHERE id = ?`

	job := &domain.Job{}
	var state string
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&job.ID, &job.SourceURL, &state, &job.FailureReason, &job.ResultPath,
		&job.Title, &job.DurationSeconds, &job.CreatedAt, &job.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: get job: %w", err)
	}
	job.State = domain.JobState(state)
	return job, nil
}

func (r *sqliteJobRepo) MarkProcessing(ctx context.Context, id string, title string, durationSeconds int64) error {
	query := `UPDATE conversion_jobs
		SET state = ?, title = ?, duration_seconds = ?, updated_at = ?
		WHERE id = ? AND state NOT IN ('DONE', 'FAILED')`
	return r.transition(ctx, id, query,
		string(domain.StateProcessing), title, durationSeconds, time.Now().UTC(), id)
}

func (r *sqliteJobRepo) MarkDone(ctx context.Context, id string, resultPath string) error {
	query := `UPDATE conversion_jobs
		SET state = ?, result_path = ?, updated_at = ?
		WHERE id = ? AND state NOT IN ('DONE', 'FAILED')`
	return r.transition(ctx, id, query,
		string(domain.StateDone), resultPath, time.Now().UTC(), id)
}

func (r *sqliteJobRepo) MarkFailed(ctx context.Context, id string, reason string) error {
	query := `UPDATE conversion_jobs
		SET state = ?, failure_reason = ?, updated_at = ?
		WHERE id = ? AND state NOT IN ('DONE', 'FAILED')`
	return r.transition(ctx, id, query,
		string(domain.StateFailed), reason, time.Now().UTC(), id)
}

// transition runs a guarded UPDATE. The state predicate in the query keeps
// the terminal check and the write atomic; zero affected rows means the job
// is either missing or already terminal.
func (r *sqliteJobRepo) transition(ctx context.Context, id, query string, args ...interface{}) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("sqlite: transition job: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: rows affected: %w", err)
	}
	if n == 0 {
		if _, err := r.GetByID(ctx, id); errors.Is(err, domain.ErrJobNotFound) {
			return domain.ErrJobNotFound
		}
		return domain.ErrTerminalState
	}
	return nil
}
