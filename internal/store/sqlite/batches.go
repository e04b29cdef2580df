package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"designstudio/internal/domain"
)

// Batches implements domain.BatchRepository.
type Batches struct {
	db *sql.DB
}

// SaveBatch writes the batch and its candidates in one transaction.
func (b *Batches) SaveBatch(ctx context.Context, batchID, userID, prompt string, candidates []domain.Candidate) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("batches: begin: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UnixMilli()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO design_batches (id, user_id, prompt, created_at) VALUES (?, ?, ?, ?)`,
		batchID, userID, prompt, now); err != nil {
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
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO design_candidates (id, batch_id, variation_index, style_hint, image_url, pricing, created_at)
             VALUES (?, ?, ?, ?, ?, ?, ?)`,
			c.ID, batchID, c.Index, c.StyleHint, c.ImageURL, string(pricing), now); err != nil {
			return fmt.Errorf("batches: insert candidate %d: %w", c.Index, err)
		}
	}
	return tx.Commit()
}

// CountCandidates returns how many candidates were stored for batchID.
func (b *Batches) CountCandidates(ctx context.Context, batchID string) (int, error) {
	var n int
	err := b.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM design_candidates WHERE batch_id = ?`, batchID).Scan(&n)
	return n, err
}

// GetCandidate loads a candidate generated for userID.
func (b *Batches) GetCandidate(ctx context.Context, userID, candidateID string) (*domain.Candidate, error) {
	var (
		c       domain.Candidate
		pricing string
	)
	err := b.db.QueryRowContext(ctx,
		`SELECT c.id, c.variation_index, c.style_hint, c.image_url, c.pricing
           FROM design_candidates c
           JOIN design_batches b ON b.id = c.batch_id
          WHERE c.id = ? AND b.user_id = ?`,
		candidateID, userID,
	).Scan(&c.ID, &c.Index, &c.StyleHint, &c.ImageURL, &pricing)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("batches: get candidate: %w", err)
	}
	if pricing != "" {
		if err := json.Unmarshal([]byte(pricing), &c.Pricing); err != nil {
			return nil, fmt.Errorf("batches: decode pricing: %w", err)
		}
	}
	return &c, nil
}

var _ domain.BatchRepository = (*Batches)(nil)
