package ingest

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	CreateRun(ctx context.Context, run *Run) (string, error)
	UpdateRun(ctx context.Context, run *Run) error
}

type PostgresRepo struct {
	db *pgxpool.Pool
}

func NewPostgresRepo(db *pgxpool.Pool) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) CreateRun(ctx context.Context, run *Run) (string, error) {
	const sql = `
		INSERT INTO sync_runs (language, snapshot_path, status, started_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	var id string
	err := r.db.QueryRow(ctx, sql, run.Language, run.SnapshotPath, run.Status, run.StartedAt).Scan(&id)
	return id, err
}

func (r *PostgresRepo) UpdateRun(ctx context.Context, run *Run) error {
	const sql = `
		UPDATE sync_runs SET
			finished_at = $1,
			status = $2,
			entries_seen = $3,
			entries_suppressed = $4,
			jobs_planned = $5,
			downloaded = $6,
			skipped = $7,
			unavailable = $8,
			failed = $9,
			error = $10
		WHERE id = $11`

	_, err := r.db.Exec(ctx, sql, run.FinishedAt, run.Status,
		run.EntriesSeen, run.EntriesSuppressed, run.JobsPlanned,
		run.Downloaded, run.Skipped, run.Unavailable, run.Failed,
		run.Error, run.ID)
	return err
}

// ListRuns returns the most recent runs, newest first.
func (r *PostgresRepo) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	const sql = `
		SELECT id, started_at, finished_at, status, language, snapshot_path,
			entries_seen, entries_suppressed, jobs_planned,
			downloaded, skipped, unavailable, failed, error
		FROM sync_runs
		ORDER BY started_at DESC
		LIMIT $1`

	rows, err := r.db.Query(ctx, sql, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.ID, &run.StartedAt, &run.FinishedAt, &run.Status, &run.Language, &run.SnapshotPath,
			&run.EntriesSeen, &run.EntriesSuppressed, &run.JobsPlanned,
			&run.Downloaded, &run.Skipped, &run.Unavailable, &run.Failed, &run.Error); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
