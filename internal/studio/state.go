package studio

import "designstudio/internal/domain"

// BatchState is the progress of one generation batch.
type BatchState string

const (
	StateIdle             BatchState = "idle"
	StateCreditChecking   BatchState = "credit-checking"
	StateGeneratingImages BatchState = "generating-images"
	StateImagesReady      BatchState = "images-ready"
	StateFailed           BatchState = "failed"
)

// ModelState is the progress of one variation's 3D reconstruction.
type ModelState string

const (
	Model3DIdle       ModelState = "3d-idle"
	Model3DSubmitting ModelState = "3d-submitting"
	Model3DPolling    ModelState = "3d-polling"
	Model3DSucceeded  ModelState = "3d-succeeded"
	Model3DFailed     ModelState = "3d-failed"
	Model3DTimedOut   ModelState = "3d-timed-out"
	Model3DCanceled   ModelState = "3d-canceled"
)

// ModelStateOf derives the state machine position from a persisted job.
func ModelStateOf(job *domain.ModelJob) ModelState {
	if job == nil {
		return Model3DIdle
	}
	switch job.Status {
	case domain.ModelJobSucceeded:
		return Model3DSucceeded
	case domain.ModelJobFailed:
		return Model3DFailed
	case domain.ModelJobTimedOut:
		return Model3DTimedOut
	case domain.ModelJobCanceled:
		return Model3DCanceled
	case domain.ModelJobPending:
		if job.TaskID == "" {
			return Model3DSubmitting
		}
		return Model3DPolling
	}
	return Model3DIdle
}

func (o *Orchestrator) setBatchState(batchID string, state BatchState) {
	o.logger.Debug().Str("batch_id", batchID).Str("state", string(state)).Msg("studio: batch state")
	if o.onBatchState != nil {
		o.onBatchState(batchID, state)
	}
}
