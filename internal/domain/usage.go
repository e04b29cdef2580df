package domain

import "context"

// Usage event types.
const (
	UsageGenerateBatch = "generate_batch"
	UsageRecolor       = "recolor"
	UsageModelSubmit   = "model_submit"
)

// UsageEvent is one recorded generation attempt.
type UsageEvent struct {
	UserID     string
	RequestID  string
	EventType  string
	Success    bool
	LatencyMS  int
	Properties map[string]any
}

// UsageRecorder persists usage events. Failures never affect the caller's
// result.
type UsageRecorder interface {
	Record(ctx context.Context, ev UsageEvent) error
}
