package studio

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"designstudio/internal/domain"
	"designstudio/internal/providers/meshy"
)

func inProgress(p int) pollReply {
	return pollReply{task: meshy.Task{Status: meshy.StatusInProgress, Progress: p}}
}

func succeeded(url string) pollReply {
	return pollReply{task: meshy.Task{Status: meshy.StatusSucceeded, Progress: 100, ModelURL: url}}
}

func TestGenerate3DFailedOnFirstPollStops(t *testing.T) {
	h := newHarness(nil)
	h.models.replies = []pollReply{{task: meshy.Task{Status: meshy.StatusFailed, Error: "bad topology"}}}

	job, err := h.orch.Generate3D(context.Background(), "u1", "https://img.test/a.png", nil)
	if err != nil {
		t.Fatalf("Generate3D error: %v", err)
	}
	if job.Status != domain.ModelJobFailed || job.Error != "bad topology" {
		t.Fatalf("unexpected job: %+v", job)
	}
	if _, polls := h.models.counts(); polls != 1 {
		t.Fatalf("expected exactly one poll, got %d", polls)
	}
	if len(h.sleeps.delays) != 1 || h.sleeps.delays[0] != 5*time.Second {
		t.Fatalf("expected initial 5s delay, got %v", h.sleeps.delays)
	}
	stored, err := h.jobs.GetByTaskID(context.Background(), "task-1")
	if err != nil || stored.Status != domain.ModelJobFailed {
		t.Fatalf("stored job = %+v, %v", stored, err)
	}
	if ModelStateOf(job) != Model3DFailed {
		t.Fatalf("state = %s", ModelStateOf(job))
	}
}

func TestGenerate3DTimesOutWithoutError(t *testing.T) {
	h := newHarness(nil)
	h.models.fallback = inProgress(40)

	var updates int
	job, err := h.orch.Generate3D(context.Background(), "u1", "https://img.test/a.png", func(domain.ModelJob) { updates++ })
	if err != nil {
		t.Fatalf("timeout must not be an error, got %v", err)
	}
	if job.Status != domain.ModelJobTimedOut {
		t.Fatalf("status = %s", job.Status)
	}
	if _, polls := h.models.counts(); polls != 60 {
		t.Fatalf("expected 60 polls, got %d", polls)
	}
	if job.Attempts != 60 || job.Progress != 40 {
		t.Fatalf("attempts=%d progress=%d", job.Attempts, job.Progress)
	}
	if len(h.sleeps.delays) != 60 {
		t.Fatalf("expected 60 sleeps, got %d", len(h.sleeps.delays))
	}
	if h.sleeps.delays[0] != 5*time.Second {
		t.Fatalf("first delay = %v", h.sleeps.delays[0])
	}
	for _, d := range h.sleeps.delays[1:] {
		if d != 10*time.Second {
			t.Fatalf("poll interval = %v", d)
		}
	}
	if updates != 61 {
		t.Fatalf("expected 61 updates, got %d", updates)
	}
}

func TestGenerate3DSucceededWithoutURLKeepsPolling(t *testing.T) {
	h := newHarness(nil)
	h.models.replies = []pollReply{
		{task: meshy.Task{Status: meshy.StatusSucceeded}},
		succeeded("https://assets.test/model.glb"),
	}

	job, err := h.orch.Generate3D(context.Background(), "u1", "https://img.test/a.png", nil)
	if err != nil {
		t.Fatalf("Generate3D error: %v", err)
	}
	if job.Status != domain.ModelJobSucceeded || job.AssetURL != "https://assets.test/model.glb" {
		t.Fatalf("unexpected job: %+v", job)
	}
	if job.Attempts != 2 {
		t.Fatalf("attempts = %d", job.Attempts)
	}
}

func TestGenerate3DTransientPollErrorsCountAsAttempts(t *testing.T) {
	h := newHarness(func(d *Deps, c *Config) { c.MaxPollAttempts = 3 })
	h.models.replies = []pollReply{
		{err: errors.New("connection reset")},
		{err: errors.New("connection reset")},
	}
	h.models.fallback = succeeded("https://assets.test/m.glb")

	job, err := h.orch.Generate3D(context.Background(), "u1", "https://img.test/a.png", nil)
	if err != nil {
		t.Fatalf("Generate3D error: %v", err)
	}
	if job.Status != domain.ModelJobSucceeded || job.Attempts != 3 {
		t.Fatalf("unexpected job: %+v", job)
	}
	if job.Error != "" {
		t.Fatalf("error should clear after a good poll, got %q", job.Error)
	}
}

func TestGenerate3DCacheSkipsSubmit(t *testing.T) {
	h := newHarness(nil)
	h.models.fallback = succeeded("https://assets.test/m.glb")

	first, err := h.orch.Generate3D(context.Background(), "u1", "https://img.test/a.png", nil)
	if err != nil {
		t.Fatalf("first Generate3D error: %v", err)
	}
	if asset, ok := h.cache.Get("https://img.test/a.png"); !ok || asset != first.AssetURL {
		t.Fatalf("cache not populated: %q %v", asset, ok)
	}

	var notified bool
	second, err := h.orch.Generate3D(context.Background(), "u2", " https://img.test/a.png ", func(domain.ModelJob) { notified = true })
	if err != nil {
		t.Fatalf("second Generate3D error: %v", err)
	}
	submits, polls := h.models.counts()
	if submits != 1 || polls != 1 {
		t.Fatalf("submits=%d polls=%d", submits, polls)
	}
	if second.Status != domain.ModelJobSucceeded || second.AssetURL != first.AssetURL {
		t.Fatalf("unexpected cached job: %+v", second)
	}
	if !strings.HasPrefix(second.TaskID, cachedTaskPrefix) || second.TaskID == first.TaskID {
		t.Fatalf("task id = %q", second.TaskID)
	}
	stored, err := h.jobs.GetByTaskID(context.Background(), second.TaskID)
	if err != nil || stored.UserID != "u2" || stored.Status != domain.ModelJobSucceeded {
		t.Fatalf("cached job not persisted for its owner: %+v, %v", stored, err)
	}
	if !notified {
		t.Fatal("expected update for cached job")
	}
}

func TestGenerate3DSubmitErrorPropagates(t *testing.T) {
	h := newHarness(nil)
	h.models.submitErr = domain.ErrQuotaExhausted

	_, err := h.orch.Generate3D(context.Background(), "u1", "https://img.test/a.png", nil)
	if !errors.Is(err, domain.ErrQuotaExhausted) {
		t.Fatalf("expected quota error, got %v", err)
	}
	if _, err := h.jobs.GetByTaskID(context.Background(), "task-1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatal("failed submission must not persist a job")
	}
}

func TestGenerate3DWithoutService(t *testing.T) {
	h := newHarness(func(d *Deps, c *Config) { d.Models = nil })
	if _, err := h.orch.Generate3D(context.Background(), "u1", "https://img.test/a.png", nil); !errors.Is(err, ErrModelsDisabled) {
		t.Fatalf("expected ErrModelsDisabled, got %v", err)
	}
}

func TestPollModelAbandonMarksCanceled(t *testing.T) {
	h := newHarness(nil)
	h.models.fallback = inProgress(10)
	ctx, cancel := context.WithCancelCause(context.Background())
	h.orch.sleep = func(ctx context.Context, d time.Duration) error {
		if len(h.sleeps.delays) == 2 {
			cancel(ErrPollAbandoned)
		}
		return h.sleeps.sleep(ctx, d)
	}

	job, err := h.orch.Submit3D(ctx, "u1", "https://img.test/a.png")
	if err != nil {
		t.Fatalf("Submit3D error: %v", err)
	}
	job, err = h.orch.PollModel(ctx, job, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if job.Status != domain.ModelJobCanceled {
		t.Fatalf("status = %s", job.Status)
	}
	stored, _ := h.jobs.GetByTaskID(context.Background(), job.TaskID)
	if stored.Status != domain.ModelJobCanceled {
		t.Fatalf("stored status = %s", stored.Status)
	}
}

func TestPollModelShutdownLeavesPending(t *testing.T) {
	h := newHarness(nil)
	h.models.fallback = inProgress(10)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	job := &domain.ModelJob{TaskID: "task-1", UserID: "u1", SourceImageURL: "x", Status: domain.ModelJobPending}
	_ = h.jobs.Create(context.Background(), job)
	job, err := h.orch.PollModel(ctx, job, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if job.Status != domain.ModelJobPending {
		t.Fatalf("status = %s, want pending", job.Status)
	}
}

func TestPollModelResumeKeepsAttemptBudget(t *testing.T) {
	h := newHarness(func(d *Deps, c *Config) { c.MaxPollAttempts = 5 })
	h.models.fallback = inProgress(50)

	job := &domain.ModelJob{TaskID: "task-9", UserID: "u1", SourceImageURL: "x", Status: domain.ModelJobPending, Attempts: 3}
	job, err := h.orch.PollModel(context.Background(), job, nil)
	if err != nil {
		t.Fatalf("PollModel error: %v", err)
	}
	if _, polls := h.models.counts(); polls != 2 {
		t.Fatalf("expected 2 remaining polls, got %d", polls)
	}
	if job.Status != domain.ModelJobTimedOut {
		t.Fatalf("status = %s", job.Status)
	}
}

func TestModelStateOf(t *testing.T) {
	cases := map[ModelState]*domain.ModelJob{
		Model3DIdle:       nil,
		Model3DSubmitting: {Status: domain.ModelJobPending},
		Model3DPolling:    {TaskID: "t", Status: domain.ModelJobPending},
		Model3DSucceeded:  {Status: domain.ModelJobSucceeded},
		Model3DTimedOut:   {Status: domain.ModelJobTimedOut},
		Model3DCanceled:   {Status: domain.ModelJobCanceled},
	}
	for want, job := range cases {
		if got := ModelStateOf(job); got != want {
			t.Fatalf("ModelStateOf(%+v) = %s, want %s", job, got, want)
		}
	}
}
