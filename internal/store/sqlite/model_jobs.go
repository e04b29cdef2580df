package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"designstudio/internal/domain"
)

const modelJobLease = time.Minute

// ModelJobs implements domain.ModelJobRepository.
type ModelJobs struct {
	db *sql.DB
}

func (m *ModelJobs) Create(ctx context.Context, job *domain.ModelJob) error {
	if job == nil || job.TaskID == "" {
		return fmt.Errorf("model jobs: create: %w", domain.ErrInvalidInput)
	}
	if job.Status == "" {
		job.Status = domain.ModelJobPending
	}
	now := time.Now().UTC()
	job.CreatedAt, job.UpdatedAt = now, now
	_, err := m.db.ExecContext(ctx,
		`INSERT INTO model_jobs (task_id, user_id, source_image_url, status, progress, asset_url, attempts, error_message, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job.TaskID, job.UserID, job.SourceImageURL, string(job.Status), job.Progress,
		nullString(job.AssetURL), job.Attempts, nullString(job.Error), now.UnixMilli(), now.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("model jobs: create: %w", err)
	}
	return nil
}

func (m *ModelJobs) Update(ctx context.Context, job *domain.ModelJob) error {
	job.UpdatedAt = time.Now().UTC()
	res, err := m.db.ExecContext(ctx,
		`UPDATE model_jobs
            SET status = ?, progress = ?, asset_url = COALESCE(?, asset_url), attempts = ?, error_message = ?, updated_at = ?
          WHERE task_id = ?`,
		string(job.Status), job.Progress, nullString(job.AssetURL), job.Attempts, nullString(job.Error),
		job.UpdatedAt.UnixMilli(), job.TaskID,
	)
	if err != nil {
		return fmt.Errorf("model jobs: update: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (m *ModelJobs) GetByTaskID(ctx context.Context, taskID string) (*domain.ModelJob, error) {
	row := m.db.QueryRowContext(ctx,
		`SELECT task_id, user_id, source_image_url, status, progress, asset_url, attempts, error_message, created_at, updated_at
           FROM model_jobs WHERE task_id = ?`, taskID)
	job, err := scanModelJob(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("model jobs: get: %w", err)
	}
	return job, nil
}

// ListPending leases up to limit pending jobs that no worker touched during
// the last lease window.
func (m *ModelJobs) ListPending(ctx context.Context, limit int) ([]domain.ModelJob, error) {
	if limit <= 0 {
		limit = 10
	}
	now := time.Now()
	rows, err := m.db.QueryContext(ctx,
		`UPDATE model_jobs SET updated_at = ?
          WHERE task_id IN (
            SELECT task_id FROM model_jobs
             WHERE status = 'pending' AND updated_at < ?
             ORDER BY created_at ASC LIMIT ?)
         RETURNING task_id, user_id, source_image_url, status, progress, asset_url, attempts, error_message, created_at, updated_at`,
		now.UnixMilli(), now.Add(-modelJobLease).UnixMilli(), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("model jobs: claim: %w", err)
	}
	defer rows.Close()

	var out []domain.ModelJob
	for rows.Next() {
		job, err := scanModelJob(rows)
		if err != nil {
			return nil, fmt.Errorf("model jobs: scan: %w", err)
		}
		out = append(out, *job)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanModelJob(row scanner) (*domain.ModelJob, error) {
	var (
		job                  domain.ModelJob
		status               string
		assetURL, errMsg     sql.NullString
		createdMs, updatedMs int64
	)
	if err := row.Scan(&job.TaskID, &job.UserID, &job.SourceImageURL, &status, &job.Progress,
		&assetURL, &job.Attempts, &errMsg, &createdMs, &updatedMs); err != nil {
		return nil, err
	}
	job.Status = domain.ModelJobStatus(status)
	job.AssetURL = assetURL.String
	job.Error = errMsg.String
	job.CreatedAt = time.UnixMilli(createdMs).UTC()
	job.UpdatedAt = time.UnixMilli(updatedMs).UTC()
	return &job, nil
}

var _ domain.ModelJobRepository = (*ModelJobs)(nil)
