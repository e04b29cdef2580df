package repo

import (
	"context"
	"fmt"

	"designstudio/internal/domain"
	"designstudio/internal/infra"
	"designstudio/internal/sqlinline"
)

// CreditRepositoryPG implements domain.CreditRepository on top of the
// marker-tagged SQL runner.
type CreditRepositoryPG struct {
	db infra.SQLExecutor
}

// NewCreditRepository creates a credit repository backed by PostgreSQL.
func NewCreditRepository(db infra.SQLExecutor) *CreditRepositoryPG {
	return &CreditRepositoryPG{db: db}
}

// CheckCredits reports whether the user's balance covers needed. Users
// without a credit row have a zero balance.
func (r *CreditRepositoryPG) CheckCredits(ctx context.Context, userID string, needed int) (domain.CreditStatus, error) {
	status := domain.CreditStatus{CreditsNeeded: needed}
	if err := r.db.QueryRow(ctx, sqlinline.QCheckCredits, userID, needed).Scan(&status.Balance, &status.HasCredits); err != nil {
		return status, fmt.Errorf("credits: check: %w", err)
	}
	return status, nil
}

// DeductCredits subtracts amount and returns the new balance.
func (r *CreditRepositoryPG) DeductCredits(ctx context.Context, userID string, amount int) (int, error) {
	var balance int
	if err := r.db.QueryRow(ctx, sqlinline.QDeductCredits, userID, amount).Scan(&balance); err != nil {
		if infra.IsNoRows(err) {
			return 0, fmt.Errorf("credits: deduct: %w", domain.ErrNotFound)
		}
		return 0, fmt.Errorf("credits: deduct: %w", err)
	}
	return balance, nil
}

// GrantCredits adds amount to the balance, creating the row on first grant.
func (r *CreditRepositoryPG) GrantCredits(ctx context.Context, userID string, amount int) (int, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("credits: grant: %w", domain.ErrInvalidInput)
	}
	var balance int
	if err := r.db.QueryRow(ctx, sqlinline.QGrantCredits, userID, amount).Scan(&balance); err != nil {
		return 0, fmt.Errorf("credits: grant: %w", err)
	}
	return balance, nil
}

// SetCredits overwrites the balance. Used by the operator CLI.
func (r *CreditRepositoryPG) SetCredits(ctx context.Context, userID string, balance int) (int, error) {
	if balance < 0 {
		return 0, fmt.Errorf("credits: set: %w", domain.ErrInvalidInput)
	}
	var out int
	if err := r.db.QueryRow(ctx, sqlinline.QSetCredits, userID, balance).Scan(&out); err != nil {
		return 0, fmt.Errorf("credits: set: %w", err)
	}
	return out, nil
}

var _ domain.CreditRepository = (*CreditRepositoryPG)(nil)
