package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// creditStore is implemented by both the PostgreSQL and SQLite credit stores.
type creditStore interface {
	GrantCredits(ctx context.Context, userID string, amount int) (int, error)
	SetCredits(ctx context.Context, userID string, balance int) (int, error)
}

type creditOp struct {
	userID string
	grant  int
	set    int
}

func parseOp(user string, grant, set int) (creditOp, error) {
	op := creditOp{userID: strings.TrimSpace(user), grant: grant, set: set}
	if op.userID == "" {
		return op, errors.New("-user is required")
	}
	switch {
	case grant != 0 && set >= 0:
		return op, errors.New("use either -grant or -set, not both")
	case grant < 0:
		return op, fmt.Errorf("-grant must be positive, got %d", grant)
	case grant == 0 && set < 0:
		return op, errors.New("one of -grant or -set is required")
	}
	return op, nil
}

func (op creditOp) apply(ctx context.Context, store creditStore) (int, error) {
	if op.set >= 0 {
		return store.SetCredits(ctx, op.userID, op.set)
	}
	return store.GrantCredits(ctx, op.userID, op.grant)
}
