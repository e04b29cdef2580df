package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"designstudio/internal/domain"
	"designstudio/internal/infra"
	"designstudio/internal/sqlinline"
)

// UsageRepositoryPG records generation attempts for later reporting.
type UsageRepositoryPG struct {
	db infra.SQLExecutor
}

func NewUsageRepository(db infra.SQLExecutor) *UsageRepositoryPG {
	return &UsageRepositoryPG{db: db}
}

// Record inserts one usage event.
func (r *UsageRepositoryPG) Record(ctx context.Context, ev domain.UsageEvent) error {
	var props []byte
	if len(ev.Properties) > 0 {
		encoded, err := json.Marshal(ev.Properties)
		if err != nil {
			return fmt.Errorf("usage: encode properties: %w", err)
		}
		props = encoded
	}
	if _, err := r.db.Exec(ctx, sqlinline.QInsertUsageEvent, ev.UserID, strings.TrimSpace(ev.RequestID), ev.EventType, ev.Success, ev.LatencyMS, props); err != nil {
		return fmt.Errorf("usage: insert: %w", err)
	}
	return nil
}

var _ domain.UsageRecorder = (*UsageRepositoryPG)(nil)
