package domain

import "time"

// ModelJobStatus enumerates 3D reconstruction job states.
type ModelJobStatus string

const (
	ModelJobPending   ModelJobStatus = "pending"
	ModelJobSucceeded ModelJobStatus = "succeeded"
	ModelJobFailed    ModelJobStatus = "failed"
	ModelJobTimedOut  ModelJobStatus = "timed_out"
	ModelJobCanceled  ModelJobStatus = "canceled"
)

// Terminal reports whether no further polling should happen.
func (s ModelJobStatus) Terminal() bool {
	return s != ModelJobPending
}

// ModelJob tracks one asynchronous 3D reconstruction task.
type ModelJob struct {
	TaskID         string         `json:"task_id"`
	UserID         string         `json:"user_id"`
	SourceImageURL string         `json:"source_image_url"`
	Status         ModelJobStatus `json:"status"`
	Progress       int            `json:"progress"`
	AssetURL       string         `json:"asset_url,omitempty"`
	Attempts       int            `json:"attempts"`
	Error          string         `json:"error,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}
