package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"designstudio/internal/domain"
	"designstudio/internal/infra"
	"designstudio/internal/sqlinline"
)

// SubmissionRepositoryPG implements domain.SubmissionRepository.
type SubmissionRepositoryPG struct {
	db infra.SQLExecutor
}

func NewSubmissionRepository(db infra.SQLExecutor) *SubmissionRepositoryPG {
	return &SubmissionRepositoryPG{db: db}
}

// Create inserts s, assigning an ID when empty, and fills CreatedAt.
func (r *SubmissionRepositoryPG) Create(ctx context.Context, s *domain.Submission) error {
	if s == nil {
		return fmt.Errorf("submissions: create: %w", domain.ErrInvalidInput)
	}
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	row := r.db.QueryRow(ctx, sqlinline.QInsertSubmission,
		s.ID,
		s.UserID,
		s.Name,
		s.Description,
		s.Category,
		s.BasePrice,
		s.SellingPrice,
		s.LengthIn,
		s.BreadthIn,
		s.HeightIn,
		s.ImageURL,
		s.ModelURL,
		string(s.Status),
		string(s.PriceSource),
	)
	if err := row.Scan(&s.CreatedAt); err != nil {
		return fmt.Errorf("submissions: create: %w", err)
	}
	return nil
}

// GetByID fetches a submission by its identifier.
func (r *SubmissionRepositoryPG) GetByID(ctx context.Context, id string) (*domain.Submission, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrNotFound
	}
	var s domain.Submission
	var status, source string
	err := r.db.QueryRow(ctx, sqlinline.QSelectSubmissionByID, id).Scan(
		&s.ID,
		&s.UserID,
		&s.Name,
		&s.Description,
		&s.Category,
		&s.BasePrice,
		&s.SellingPrice,
		&s.LengthIn,
		&s.BreadthIn,
		&s.HeightIn,
		&s.ImageURL,
		&s.ModelURL,
		&status,
		&source,
		&s.CreatedAt,
	)
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("submissions: get: %w", err)
	}
	s.Status = domain.SubmissionStatus(status)
	s.PriceSource = domain.PriceSource(source)
	return &s, nil
}

var _ domain.SubmissionRepository = (*SubmissionRepositoryPG)(nil)
