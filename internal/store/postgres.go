package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/DK01git/JobAutomation/internal/model"
)

// Archive snapshots the in-memory job set to Postgres so it survives
// restarts. Best-effort only: callers log a data-loss warning on failure
// and keep running.
//
// Expected schema:
//
//	CREATE TABLE IF NOT EXISTS job_postings (
//	    id       TEXT PRIMARY KEY,
//	    position INT NOT NULL,
//	    raw_data JSONB NOT NULL
//	);
type Archive struct {
	pool   *pgxpool.Pool
	logger *zap.SugaredLogger
}

// NewArchive constructs an Archive over an established pool.
func NewArchive(pool *pgxpool.Pool, logger *zap.SugaredLogger) *Archive {
	return &Archive{pool: pool, logger: logger}
}

// SaveSnapshot replaces the stored snapshot with the given job set,
// preserving order via the position column.
func (a *Archive) SaveSnapshot(ctx context.Context, jobs []model.JobPosting) error {
	tx, err := a.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin snapshot tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM job_postings`); err != nil {
		return fmt.Errorf("clear snapshot: %w", err)
	}

	for i, job := range jobs {
		raw, err := json.Marshal(job)
		if err != nil {
			a.logger.Warnw("snapshot skipping unmarshalable posting", "id", job.ID, "err", err)
			continue
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO job_postings (id, position, raw_data) VALUES ($1, $2, $3::jsonb)`,
			job.ID, i, string(raw),
		); err != nil {
			return fmt.Errorf("insert snapshot row: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot returns the stored job set in its saved order.
func (a *Archive) LoadSnapshot(ctx context.Context) ([]model.JobPosting, error) {
	rows, err := a.pool.Query(ctx,
		`SELECT raw_data FROM job_postings ORDER BY position ASC`)
	if err != nil {
		return nil, fmt.Errorf("query snapshot: %w", err)
	}
	defer rows.Close()

	var jobs []model.JobPosting
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan snapshot row: %w", err)
		}
		var job model.JobPosting
		if err := json.Unmarshal(raw, &job); err != nil {
			a.logger.Warnw("snapshot row skipped: unparseable", "err", err)
			continue
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}
