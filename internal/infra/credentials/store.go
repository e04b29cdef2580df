package credentials

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"designstudio/internal/infra"
	"designstudio/internal/sqlinline"
)

const (
	ProviderGateway = "ai_gateway"
	ProviderMeshy   = "meshy"
)

// Store reads and writes provider API keys kept in integration_tokens. The
// services consult it when the corresponding environment variable is empty.
type Store struct {
	sql infra.SQLExecutor
}

func NewStore(sql infra.SQLExecutor) *Store {
	return &Store{sql: sql}
}

func (s *Store) GatewayAPIKey(ctx context.Context) (string, error) {
	return s.Token(ctx, ProviderGateway)
}

func (s *Store) MeshyAPIKey(ctx context.Context) (string, error) {
	return s.Token(ctx, ProviderMeshy)
}

// Token returns the stored token for provider, or "" when none is stored.
func (s *Store) Token(ctx context.Context, provider string) (string, error) {
	row := s.sql.QueryRow(ctx, sqlinline.QSelectIntegrationToken, provider)
	var token string
	if err := row.Scan(&token); err != nil {
		if infra.IsNoRows(err) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(token), nil
}

func (s *Store) SetGatewayAPIKey(ctx context.Context, key string) error {
	return s.SetToken(ctx, ProviderGateway, key)
}

func (s *Store) SetMeshyAPIKey(ctx context.Context, key string) error {
	return s.SetToken(ctx, ProviderMeshy, key)
}

// SetToken upserts the token for provider.
func (s *Store) SetToken(ctx context.Context, provider, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("%s api key is required", provider)
	}
	return s.upsert(ctx, provider, token, nil)
}

func (s *Store) upsert(ctx context.Context, provider, token string, props map[string]any) error {
	payload := props
	if payload == nil {
		payload = map[string]any{}
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = s.sql.Exec(ctx, sqlinline.QUpsertIntegrationToken, provider, token, raw)
	return err
}

// DeleteToken removes the stored token for provider so the environment
// becomes the only source again.
func (s *Store) DeleteToken(ctx context.Context, provider string) error {
	provider = strings.TrimSpace(provider)
	if provider == "" {
		return fmt.Errorf("provider is required")
	}
	_, err := s.sql.Exec(ctx, sqlinline.QDeleteIntegrationToken, provider)
	return err
}

// ResolveKey prefers the explicit value and falls back to the stored token.
func (s *Store) ResolveKey(ctx context.Context, explicit, provider string) (string, error) {
	if key := strings.TrimSpace(explicit); key != "" {
		return key, nil
	}
	if s == nil {
		return "", nil
	}
	return s.Token(ctx, provider)
}
