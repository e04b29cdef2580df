package credentials

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type stubExecutor struct {
	token string
	err   error
	exec  struct {
		query string
		args  []any
	}
}

func (s *stubExecutor) Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	s.exec.query = query
	s.exec.args = args
	return pgconn.CommandTag{}, s.err
}

func (s *stubExecutor) QueryRow(ctx context.Context, query string, args ...any) pgx.Row {
	return stubRow{token: s.token, err: s.err}
}

func (s *stubExecutor) Query(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}

type stubRow struct {
	token string
	err   error
}

func (r stubRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) == 0 {
		return errors.New("no dest")
	}
	ptr, ok := dest[0].(*string)
	if !ok {
		return errors.New("invalid dest")
	}
	*ptr = r.token
	return nil
}

func TestGatewayAPIKey(t *testing.T) {
	store := NewStore(&stubExecutor{token: " abc123 "})
	key, err := store.GatewayAPIKey(context.Background())
	if err != nil {
		t.Fatalf("GatewayAPIKey error: %v", err)
	}
	if key != "abc123" {
		t.Fatalf("expected abc123, got %q", key)
	}
}

func TestGatewayAPIKey_NoRows(t *testing.T) {
	store := NewStore(&stubExecutor{err: pgx.ErrNoRows})
	key, err := store.GatewayAPIKey(context.Background())
	if err != nil {
		t.Fatalf("GatewayAPIKey error: %v", err)
	}
	if key != "" {
		t.Fatalf("expected empty key, got %q", key)
	}
}

func TestSetMeshyAPIKey(t *testing.T) {
	exec := &stubExecutor{}
	store := NewStore(exec)
	if err := store.SetMeshyAPIKey(context.Background(), "secret"); err != nil {
		t.Fatalf("SetMeshyAPIKey error: %v", err)
	}
	if len(exec.exec.args) != 3 {
		t.Fatalf("expected 3 args, got %d", len(exec.exec.args))
	}
	if v, ok := exec.exec.args[0].(string); !ok || v != ProviderMeshy {
		t.Fatalf("expected provider argument %q, got %v", ProviderMeshy, exec.exec.args[0])
	}
	if v, ok := exec.exec.args[1].(string); !ok || v != "secret" {
		t.Fatalf("expected secret argument, got %T %v", exec.exec.args[1], exec.exec.args[1])
	}
}

func TestSetGatewayAPIKeyEmpty(t *testing.T) {
	store := NewStore(&stubExecutor{})
	if err := store.SetGatewayAPIKey(context.Background(), " "); err == nil {
		t.Fatal("expected error for empty key")
	}
}

func TestDeleteToken(t *testing.T) {
	exec := &stubExecutor{}
	store := NewStore(exec)
	if err := store.DeleteToken(context.Background(), ProviderGateway); err != nil {
		t.Fatalf("DeleteToken error: %v", err)
	}
	if len(exec.exec.args) != 1 || exec.exec.args[0] != ProviderGateway {
		t.Fatalf("unexpected args %v", exec.exec.args)
	}
	if err := store.DeleteToken(context.Background(), " "); err == nil {
		t.Fatal("expected error for empty provider")
	}
}

func TestResolveKeyPrefersExplicit(t *testing.T) {
	store := NewStore(&stubExecutor{token: "stored"})
	key, err := store.ResolveKey(context.Background(), " env-key ", ProviderMeshy)
	if err != nil || key != "env-key" {
		t.Fatalf("ResolveKey = %q, %v", key, err)
	}
	key, err = store.ResolveKey(context.Background(), "", ProviderMeshy)
	if err != nil || key != "stored" {
		t.Fatalf("ResolveKey fallback = %q, %v", key, err)
	}
}
