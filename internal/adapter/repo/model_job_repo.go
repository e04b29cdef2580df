package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"designstudio/internal/domain"
	"designstudio/internal/infra"
	"designstudio/internal/sqlinline"
)

// ModelJobRepositoryPG implements domain.ModelJobRepository.
type ModelJobRepositoryPG struct {
	db infra.SQLExecutor
}

func NewModelJobRepository(db infra.SQLExecutor) *ModelJobRepositoryPG {
	return &ModelJobRepositoryPG{db: db}
}

// Create inserts a freshly submitted job.
func (r *ModelJobRepositoryPG) Create(ctx context.Context, job *domain.ModelJob) error {
	if job == nil || job.TaskID == "" {
		return fmt.Errorf("model jobs: create: %w", domain.ErrInvalidInput)
	}
	if job.Status == "" {
		job.Status = domain.ModelJobPending
	}
	row := r.db.QueryRow(ctx, sqlinline.QInsertModelJob,
		job.TaskID,
		job.UserID,
		job.SourceImageURL,
		string(job.Status),
		job.Progress,
		job.AssetURL,
		job.Attempts,
		job.Error,
	)
	if err := row.Scan(&job.CreatedAt, &job.UpdatedAt); err != nil {
		return fmt.Errorf("model jobs: create: %w", err)
	}
	return nil
}

// Update persists the polling state of job.
func (r *ModelJobRepositoryPG) Update(ctx context.Context, job *domain.ModelJob) error {
	row := r.db.QueryRow(ctx, sqlinline.QUpdateModelJob,
		job.TaskID,
		string(job.Status),
		job.Progress,
		job.AssetURL,
		job.Attempts,
		job.Error,
	)
	if err := row.Scan(&job.UpdatedAt); err != nil {
		if infra.IsNoRows(err) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("model jobs: update: %w", err)
	}
	return nil
}

func (r *ModelJobRepositoryPG) GetByTaskID(ctx context.Context, taskID string) (*domain.ModelJob, error) {
	job, err := scanModelJob(r.db.QueryRow(ctx, sqlinline.QSelectModelJob, taskID))
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("model jobs: get: %w", err)
	}
	return job, nil
}

// ListPending claims up to limit pending jobs for a worker.
func (r *ModelJobRepositoryPG) ListPending(ctx context.Context, limit int) ([]domain.ModelJob, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.db.Query(ctx, sqlinline.QClaimPendingModelJobs, limit)
	if err != nil {
		return nil, fmt.Errorf("model jobs: claim: %w", err)
	}
	defer rows.Close()

	var jobs []domain.ModelJob
	for rows.Next() {
		job, err := scanModelJob(rows)
		if err != nil {
			return nil, fmt.Errorf("model jobs: scan: %w", err)
		}
		jobs = append(jobs, *job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("model jobs: rows: %w", err)
	}
	return jobs, nil
}

func scanModelJob(row pgx.Row) (*domain.ModelJob, error) {
	var job domain.ModelJob
	var status string
	if err := row.Scan(
		&job.TaskID,
		&job.UserID,
		&job.SourceImageURL,
		&status,
		&job.Progress,
		&job.AssetURL,
		&job.Attempts,
		&job.Error,
		&job.CreatedAt,
		&job.UpdatedAt,
	); err != nil {
		return nil, err
	}
	job.Status = domain.ModelJobStatus(status)
	return &job, nil
}

var _ domain.ModelJobRepository = (*ModelJobRepositoryPG)(nil)
