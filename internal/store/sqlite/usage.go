package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"designstudio/internal/domain"
)

// Usage implements domain.UsageRecorder.
type Usage struct {
	db *sql.DB
}

func (u *Usage) Record(ctx context.Context, ev domain.UsageEvent) error {
	props := "{}"
	if len(ev.Properties) > 0 {
		encoded, err := json.Marshal(ev.Properties)
		if err != nil {
			return fmt.Errorf("usage: encode properties: %w", err)
		}
		props = string(encoded)
	}
	success := 0
	if ev.Success {
		success = 1
	}
	_, err := u.db.ExecContext(ctx,
		`INSERT INTO usage_events (user_id, request_id, event_type, success, latency_ms, properties, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ev.UserID, nullString(ev.RequestID), ev.EventType, success, ev.LatencyMS, props, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("usage: insert: %w", err)
	}
	return nil
}

var _ domain.UsageRecorder = (*Usage)(nil)
