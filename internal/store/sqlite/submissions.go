package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"designstudio/internal/domain"
)

// Submissions implements domain.SubmissionRepository.
type Submissions struct {
	db *sql.DB
}

func (s *Submissions) Create(ctx context.Context, sub *domain.Submission) error {
	if sub == nil {
		return fmt.Errorf("submissions: create: %w", domain.ErrInvalidInput)
	}
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	sub.CreatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO submissions (id, user_id, name, description, category, base_price, selling_price,
           length_in, breadth_in, height_in, image_url, model_url, status, price_source, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sub.ID, sub.UserID, sub.Name, sub.Description, sub.Category, sub.BasePrice, sub.SellingPrice,
		sub.LengthIn, sub.BreadthIn, sub.HeightIn, sub.ImageURL, nullString(sub.ModelURL), string(sub.Status),
		priceSource(sub.PriceSource), sub.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("submissions: create: %w", err)
	}
	return nil
}

func (s *Submissions) GetByID(ctx context.Context, id string) (*domain.Submission, error) {
	var (
		sub       domain.Submission
		status    string
		source    string
		modelURL  sql.NullString
		createdMs int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, description, category, base_price, selling_price,
                length_in, breadth_in, height_in, image_url, model_url, status, price_source, created_at
           FROM submissions WHERE id = ?`, id,
	).Scan(&sub.ID, &sub.UserID, &sub.Name, &sub.Description, &sub.Category, &sub.BasePrice, &sub.SellingPrice,
		&sub.LengthIn, &sub.BreadthIn, &sub.HeightIn, &sub.ImageURL, &modelURL, &status, &source, &createdMs)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("submissions: get: %w", err)
	}
	sub.Status = domain.SubmissionStatus(status)
	sub.PriceSource = domain.PriceSource(source)
	sub.ModelURL = modelURL.String
	sub.CreatedAt = time.UnixMilli(createdMs).UTC()
	return &sub, nil
}

func priceSource(v domain.PriceSource) string {
	if v == "" {
		return string(domain.PriceRecomputed)
	}
	return string(v)
}

func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}

var _ domain.SubmissionRepository = (*Submissions)(nil)
