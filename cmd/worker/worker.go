package main

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"designstudio/internal/domain"
	"designstudio/internal/infra"
	"designstudio/internal/studio"
)

const (
	defaultBatchSize   = 10
	defaultIdleBackoff = 5 * time.Second
)

// poller is the part of the orchestrator the worker drives.
type poller interface {
	PollModel(ctx context.Context, job *domain.ModelJob, onUpdate func(domain.ModelJob)) (*domain.ModelJob, error)
}

// jobWorker resumes 3D jobs that were left pending, for example by an API
// restart. Claimed jobs are leased through their updated_at timestamp, which
// every poll refreshes.
type jobWorker struct {
	orch      poller
	jobs      domain.ModelJobRepository
	logger    *infra.Logger
	batchSize int
	idle      time.Duration
	sleep     studio.Sleeper
}

func newJobWorker(orch poller, jobs domain.ModelJobRepository, logger *infra.Logger) *jobWorker {
	return &jobWorker{
		orch:      orch,
		jobs:      jobs,
		logger:    infra.LoggerOrDiscard(logger),
		batchSize: defaultBatchSize,
		idle:      defaultIdleBackoff,
		sleep:     studio.SleepContext,
	}
}

func (w *jobWorker) Run(ctx context.Context) error {
	if w.jobs == nil {
		return errors.New("worker: model job store not configured")
	}
	w.logger.Info().Msg("worker: started")
	for {
		n, err := w.runOnce(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			w.logger.Error().Err(err).Msg("worker: failed to claim jobs")
		}
		if n == 0 || err != nil {
			if err := w.sleep(ctx, w.idle); err != nil {
				return err
			}
		}
	}
}

// runOnce claims one batch of pending jobs and polls them concurrently until
// each is terminal or ctx ends.
func (w *jobWorker) runOnce(ctx context.Context) (int, error) {
	jobs, err := w.jobs.ListPending(ctx, w.batchSize)
	if err != nil {
		return 0, err
	}
	if len(jobs) == 0 {
		return 0, nil
	}
	w.logger.Info().Int("jobs", len(jobs)).Msg("worker: resuming 3d jobs")

	var g errgroup.Group
	for i := range jobs {
		job := jobs[i]
		g.Go(func() error {
			w.resume(ctx, &job)
			return nil
		})
	}
	_ = g.Wait()
	return len(jobs), nil
}

func (w *jobWorker) resume(ctx context.Context, job *domain.ModelJob) {
	log := w.logger.With().Str("task_id", job.TaskID).Int("attempts", job.Attempts).Logger()
	log.Debug().Msg("worker: picked job")
	final, err := w.orch.PollModel(ctx, job, nil)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("worker: poll failed")
		}
		return
	}
	log.Info().Str("status", string(final.Status)).Msg("worker: job finished")
}
