package studio

import (
	"context"
	"errors"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"designstudio/internal/domain"
	"designstudio/internal/infra"
)

// ErrTrackerClosed is returned by Start after Shutdown.
var ErrTrackerClosed = errors.New("studio: tracker is shut down")

// FinishedJobs is how many terminal jobs a Tracker keeps in memory. Older
// ones are served from the job store.
const FinishedJobs = 512

// Tracker runs 3D polling in the background so HTTP handlers can return as
// soon as a task is submitted. Only jobs still being polled stay in jobs;
// finished ones move to a bounded LRU.
type Tracker struct {
	orch   *Orchestrator
	logger *infra.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	jobs   map[string]*trackedJob
	done   *lru.Cache[string, domain.ModelJob]
	closed bool
}

type trackedJob struct {
	job    domain.ModelJob
	cancel context.CancelCauseFunc
}

func NewTracker(orch *Orchestrator, logger *infra.Logger) *Tracker {
	return newTracker(orch, logger, FinishedJobs)
}

func newTracker(orch *Orchestrator, logger *infra.Logger, finished int) *Tracker {
	if finished <= 0 {
		finished = FinishedJobs
	}
	// lru.New only fails for non-positive sizes.
	done, _ := lru.New[string, domain.ModelJob](finished)
	ctx, cancel := context.WithCancel(context.Background())
	return &Tracker{
		orch:   orch,
		logger: infra.LoggerOrDiscard(logger),
		ctx:    ctx,
		cancel: cancel,
		jobs:   make(map[string]*trackedJob),
		done:   done,
	}
}

// Start submits imageURL and keeps polling it after the call returns. The
// returned job is the state right after submission.
func (t *Tracker) Start(ctx context.Context, userID, imageURL string) (*domain.ModelJob, error) {
	t.mu.Lock()
	closed := t.closed
	t.mu.Unlock()
	if closed {
		return nil, ErrTrackerClosed
	}

	job, err := t.orch.Submit3D(ctx, userID, imageURL)
	if err != nil {
		return nil, err
	}
	snapshot := *job

	t.mu.Lock()
	defer t.mu.Unlock()
	if job.Status.Terminal() {
		t.done.Add(job.TaskID, snapshot)
		return &snapshot, nil
	}
	if t.closed {
		return &snapshot, nil
	}

	pollCtx, cancel := context.WithCancelCause(t.ctx)
	t.jobs[job.TaskID] = &trackedJob{job: snapshot, cancel: cancel}
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		defer cancel(nil)
		final, err := t.orch.PollModel(pollCtx, job, t.update)
		if err != nil && !errors.Is(err, context.Canceled) {
			t.logger.Warn().Err(err).Str("task_id", job.TaskID).Msg("studio: background 3d polling ended with error")
		}
		if final != nil {
			t.update(*final)
		}
		// Interrupted jobs are left to the store.
		t.mu.Lock()
		delete(t.jobs, job.TaskID)
		t.mu.Unlock()
	}()
	return &snapshot, nil
}

func (t *Tracker) update(job domain.ModelJob) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if job.Status.Terminal() {
		delete(t.jobs, job.TaskID)
		t.done.Add(job.TaskID, job)
		return
	}
	if tj, ok := t.jobs[job.TaskID]; ok {
		tj.job = job
	}
}

// Get returns the latest known state of taskID, falling back to the store
// for jobs this process is not tracking.
func (t *Tracker) Get(ctx context.Context, taskID string) (*domain.ModelJob, error) {
	t.mu.Lock()
	var snapshot domain.ModelJob
	tj, ok := t.jobs[taskID]
	if ok {
		snapshot = tj.job
	} else {
		snapshot, ok = t.done.Get(taskID)
	}
	t.mu.Unlock()
	if ok {
		return &snapshot, nil
	}
	return t.orch.LookupModelJob(ctx, taskID)
}

// Cancel stops polling taskID and marks it canceled. It reports whether the
// task was being polled.
func (t *Tracker) Cancel(taskID string) bool {
	t.mu.Lock()
	tj, ok := t.jobs[taskID]
	active := ok && !tj.job.Status.Terminal()
	t.mu.Unlock()
	if !active {
		return false
	}
	tj.cancel(ErrPollAbandoned)
	return true
}

// Shutdown stops every poll loop and waits for them to exit or ctx to end.
// Interrupted jobs stay pending for the worker.
func (t *Tracker) Shutdown(ctx context.Context) error {
	t.mu.Lock()
	t.closed = true
	t.mu.Unlock()
	t.cancel()

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Active returns the number of jobs still being polled.
func (t *Tracker) Active() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.jobs)
}

// Finished returns the number of terminal jobs held in memory.
func (t *Tracker) Finished() int {
	return t.done.Len()
}
