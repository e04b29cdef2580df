package studio

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"designstudio/internal/domain"
)

// ErrPollAbandoned is the cancellation cause used when a user walks away from
// a 3D job. Jobs canceled with any other cause stay pending so a worker can
// resume them.
var ErrPollAbandoned = errors.New("studio: 3d polling abandoned")

// ErrModelsDisabled is returned when no 3D service is configured.
var ErrModelsDisabled = fmt.Errorf("studio: %w: 3d generation is not configured", domain.ErrProviderFailure)

// Generate3D submits imageURL for reconstruction and polls until the job
// reaches a terminal state. Timeouts and remote failures are reported on the
// returned job with a nil error; only submission problems and cancellation
// return an error.
func (o *Orchestrator) Generate3D(ctx context.Context, userID, imageURL string, onUpdate func(domain.ModelJob)) (*domain.ModelJob, error) {
	job, err := o.Submit3D(ctx, userID, imageURL)
	if err != nil {
		return nil, err
	}
	if job.Status.Terminal() {
		notify(onUpdate, job)
		return job, nil
	}
	return o.PollModel(ctx, job, onUpdate)
}

// Submit3D returns a succeeded job straight from the cache, or submits a new
// reconstruction task and persists it as pending.
func (o *Orchestrator) Submit3D(ctx context.Context, userID, imageURL string) (*domain.ModelJob, error) {
	imageURL = strings.TrimSpace(imageURL)
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("studio: %w: user id is required", domain.ErrInvalidInput)
	}
	if imageURL == "" {
		return nil, fmt.Errorf("studio: %w: image url is required", domain.ErrInvalidInput)
	}

	now := o.now().UTC()
	if o.cache != nil {
		if asset, ok := o.cache.Get(imageURL); ok {
			o.logger.Debug().Str("image_url", imageURL).Msg("studio: 3d cache hit")
			job := &domain.ModelJob{
				TaskID:         cachedTaskID(),
				UserID:         userID,
				SourceImageURL: imageURL,
				Status:         domain.ModelJobSucceeded,
				Progress:       100,
				AssetURL:       asset,
				CreatedAt:      now,
				UpdatedAt:      now,
			}
			o.createJob(ctx, job)
			return job, nil
		}
	}
	if o.models == nil {
		return nil, ErrModelsDisabled
	}

	o.logger.Debug().Str("image_url", imageURL).Str("state", string(Model3DSubmitting)).Msg("studio: 3d state")
	taskID, err := o.models.Submit(ctx, imageURL)
	o.recordUsage(ctx, domain.UsageEvent{
		UserID:     userID,
		EventType:  domain.UsageModelSubmit,
		Success:    err == nil,
		Properties: map[string]any{"task_id": taskID},
	})
	if err != nil {
		return nil, fmt.Errorf("studio: submit 3d: %w", err)
	}

	job := &domain.ModelJob{
		TaskID:         taskID,
		UserID:         userID,
		SourceImageURL: imageURL,
		Status:         domain.ModelJobPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	o.createJob(ctx, job)
	return job, nil
}

func (o *Orchestrator) createJob(ctx context.Context, job *domain.ModelJob) {
	if o.modelJobs == nil {
		return
	}
	if err := o.modelJobs.Create(context.WithoutCancel(ctx), job); err != nil {
		o.logger.Warn().Err(err).Str("task_id", job.TaskID).Msg("studio: persist 3d job failed")
	}
}

// PollModel drives job to a terminal state: an initial delay, then one poll
// per interval until success, explicit failure or the attempt budget runs
// out. Attempts already recorded on job count toward the budget, so a
// resumed job keeps its original deadline.
func (o *Orchestrator) PollModel(ctx context.Context, job *domain.ModelJob, onUpdate func(domain.ModelJob)) (*domain.ModelJob, error) {
	if job == nil || job.TaskID == "" {
		return nil, fmt.Errorf("studio: %w: task id is required", domain.ErrInvalidInput)
	}
	if job.Status.Terminal() {
		return job, nil
	}
	if o.models == nil {
		return nil, ErrModelsDisabled
	}

	log := o.logger.With().Str("task_id", job.TaskID).Logger()
	log.Debug().Str("state", string(Model3DPolling)).Int("attempts", job.Attempts).Msg("studio: 3d state")

	delay := o.cfg.PollInitialDelay
	for job.Attempts < o.cfg.MaxPollAttempts {
		if err := o.sleep(ctx, delay); err != nil {
			return o.stopPolling(ctx, job, onUpdate)
		}
		delay = o.cfg.PollInterval

		job.Attempts++
		task, err := o.models.Poll(ctx, job.TaskID)
		if err != nil {
			if ctx.Err() != nil {
				return o.stopPolling(ctx, job, onUpdate)
			}
			log.Warn().Err(err).Int("attempt", job.Attempts).Msg("studio: 3d poll failed")
			job.Error = err.Error()
			o.saveJob(ctx, job)
			notify(onUpdate, job)
			continue
		}

		job.Error = ""
		if task.Progress > job.Progress {
			job.Progress = task.Progress
		}
		switch {
		case task.Succeeded():
			job.Status = domain.ModelJobSucceeded
			job.Progress = 100
			job.AssetURL = task.ModelURL
			if o.cache != nil {
				o.cache.Add(job.SourceImageURL, job.AssetURL)
			}
			log.Info().Int("attempts", job.Attempts).Str("state", string(Model3DSucceeded)).Msg("studio: 3d job finished")
		case task.Failed():
			job.Status = domain.ModelJobFailed
			job.Error = task.Error
			if job.Error == "" {
				job.Error = "3d generation " + strings.ToLower(task.Status)
			}
			log.Warn().Str("remote_status", task.Status).Str("state", string(Model3DFailed)).Msg("studio: 3d job failed")
		}
		o.saveJob(ctx, job)
		notify(onUpdate, job)
		if job.Status.Terminal() {
			return job, nil
		}
	}

	job.Status = domain.ModelJobTimedOut
	job.Error = fmt.Sprintf("no result after %d attempts", job.Attempts)
	log.Warn().Int("attempts", job.Attempts).Str("state", string(Model3DTimedOut)).Msg("studio: 3d job timed out")
	o.saveJob(ctx, job)
	notify(onUpdate, job)
	return job, nil
}

// stopPolling handles cancellation. Abandoned jobs are marked canceled;
// anything else (shutdown, request deadline) leaves the job pending.
func (o *Orchestrator) stopPolling(ctx context.Context, job *domain.ModelJob, onUpdate func(domain.ModelJob)) (*domain.ModelJob, error) {
	if errors.Is(context.Cause(ctx), ErrPollAbandoned) {
		job.Status = domain.ModelJobCanceled
		job.Error = "canceled"
		o.logger.Info().Str("task_id", job.TaskID).Str("state", string(Model3DCanceled)).Msg("studio: 3d polling canceled")
	}
	o.saveJob(ctx, job)
	notify(onUpdate, job)
	return job, ctx.Err()
}

func (o *Orchestrator) saveJob(ctx context.Context, job *domain.ModelJob) {
	job.UpdatedAt = o.now().UTC()
	if o.modelJobs == nil {
		return
	}
	if err := o.modelJobs.Update(context.WithoutCancel(ctx), job); err != nil {
		o.logger.Warn().Err(err).Str("task_id", job.TaskID).Msg("studio: update 3d job failed")
	}
}

// LookupModelJob reads a persisted job.
func (o *Orchestrator) LookupModelJob(ctx context.Context, taskID string) (*domain.ModelJob, error) {
	if o.modelJobs == nil {
		return nil, domain.ErrNotFound
	}
	return o.modelJobs.GetByTaskID(ctx, taskID)
}

func notify(onUpdate func(domain.ModelJob), job *domain.ModelJob) {
	if onUpdate != nil {
		onUpdate(*job)
	}
}

// cachedTaskID names a job served from the asset cache. Each hit gets its
// own id so jobs never collide across users.
func cachedTaskID() string {
	return cachedTaskPrefix + uuid.NewString()
}

const cachedTaskPrefix = "cached-"
