package repo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"designstudio/internal/domain"
	"designstudio/internal/infra"
	"designstudio/internal/sqlinline"
)

// BatchRepositoryPG stores generation batches and their candidates.
type BatchRepositoryPG struct {
	db infra.SQLExecutor
}

func NewBatchRepository(db infra.SQLExecutor) *BatchRepositoryPG {
	return &BatchRepositoryPG{db: db}
}

// SaveBatch writes the batch header followed by one row per candidate.
func (r *BatchRepositoryPG) SaveBatch(ctx context.Context, batchID, userID, prompt string, candidates []domain.Candidate) error {
	if _, err := r.db.Exec(ctx, sqlinline.QInsertDesignBatch, batchID, userID, prompt); err != nil {
		return fmt.Errorf("batches: insert: %w", err)
	}
	for i := range candidates {
		c := &candidates[i]
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		pricing, err := json.Marshal(c.Pricing)
		if err != nil {
			return fmt.Errorf("batches: encode pricing: %w", err)
		}
		if _, err := r.db.Exec(ctx, sqlinline.QInsertDesignCandidate, c.ID, batchID, c.Index, c.StyleHint, c.ImageURL, pricing); err != nil {
			return fmt.Errorf("batches: insert candidate %d: %w", c.Index, err)
		}
	}
	return nil
}

// GetCandidate loads a candidate generated for userID.
func (r *BatchRepositoryPG) GetCandidate(ctx context.Context, userID, candidateID string) (*domain.Candidate, error) {
	if _, err := uuid.Parse(candidateID); err != nil {
		return nil, domain.ErrNotFound
	}
	var (
		c       domain.Candidate
		pricing []byte
	)
	err := r.db.QueryRow(ctx, sqlinline.QSelectOwnedCandidate, candidateID, userID).
		Scan(&c.ID, &c.Index, &c.StyleHint, &c.ImageURL, &pricing)
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("batches: get candidate: %w", err)
	}
	if len(pricing) > 0 {
		if err := json.Unmarshal(pricing, &c.Pricing); err != nil {
			return nil, fmt.Errorf("batches: decode pricing: %w", err)
		}
	}
	return &c, nil
}

var _ domain.BatchRepository = (*BatchRepositoryPG)(nil)
