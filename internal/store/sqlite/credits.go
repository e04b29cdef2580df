package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"designstudio/internal/domain"
)

// Credits implements domain.CreditRepository.
type Credits struct {
	db *sql.DB
}

func (c *Credits) CheckCredits(ctx context.Context, userID string, needed int) (domain.CreditStatus, error) {
	status := domain.CreditStatus{CreditsNeeded: needed}
	err := c.db.QueryRowContext(ctx, `SELECT balance FROM user_credits WHERE user_id = ?`, userID).Scan(&status.Balance)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return status, fmt.Errorf("credits: check: %w", err)
	}
	status.HasCredits = status.Balance >= needed
	return status, nil
}

func (c *Credits) DeductCredits(ctx context.Context, userID string, amount int) (int, error) {
	var balance int
	err := c.db.QueryRowContext(ctx,
		`UPDATE user_credits SET balance = balance - ?, updated_at = ? WHERE user_id = ? RETURNING balance`,
		amount, time.Now().UnixMilli(), userID,
	).Scan(&balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("credits: deduct: %w", domain.ErrNotFound)
		}
		return 0, fmt.Errorf("credits: deduct: %w", err)
	}
	return balance, nil
}

func (c *Credits) GrantCredits(ctx context.Context, userID string, amount int) (int, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("credits: grant: %w", domain.ErrInvalidInput)
	}
	now := time.Now().UnixMilli()
	var balance int
	err := c.db.QueryRowContext(ctx,
		`INSERT INTO user_credits (user_id, balance, created_at, updated_at) VALUES (?, ?, ?, ?)
         ON CONFLICT (user_id) DO UPDATE SET balance = user_credits.balance + excluded.balance, updated_at = excluded.updated_at
         RETURNING balance`,
		userID, amount, now, now,
	).Scan(&balance)
	if err != nil {
		return 0, fmt.Errorf("credits: grant: %w", err)
	}
	return balance, nil
}

func (c *Credits) SetCredits(ctx context.Context, userID string, balance int) (int, error) {
	if balance < 0 {
		return 0, fmt.Errorf("credits: set: %w", domain.ErrInvalidInput)
	}
	now := time.Now().UnixMilli()
	var out int
	err := c.db.QueryRowContext(ctx,
		`INSERT INTO user_credits (user_id, balance, created_at, updated_at) VALUES (?, ?, ?, ?)
         ON CONFLICT (user_id) DO UPDATE SET balance = excluded.balance, updated_at = excluded.updated_at
         RETURNING balance`,
		userID, balance, now, now,
	).Scan(&out)
	if err != nil {
		return 0, fmt.Errorf("credits: set: %w", err)
	}
	return out, nil
}

var _ domain.CreditRepository = (*Credits)(nil)
