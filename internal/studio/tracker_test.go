package studio

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"designstudio/internal/domain"
)

func blockingSleep(ctx context.Context, d time.Duration) error {
	<-ctx.Done()
	return ctx.Err()
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestTrackerPollsInBackground(t *testing.T) {
	h := newHarness(nil)
	h.models.replies = []pollReply{inProgress(30)}
	h.models.fallback = succeeded("https://assets.test/m.glb")
	tr := NewTracker(h.orch, nil)

	job, err := tr.Start(context.Background(), "u1", "https://img.test/a.png")
	if err != nil {
		t.Fatalf("Start error: %v", err)
	}
	if job.Status != domain.ModelJobPending || job.TaskID != "task-1" {
		t.Fatalf("unexpected initial job: %+v", job)
	}
	waitFor(t, func() bool { return tr.Active() == 0 })

	got, err := tr.Get(context.Background(), "task-1")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if got.Status != domain.ModelJobSucceeded || got.AssetURL != "https://assets.test/m.glb" {
		t.Fatalf("unexpected final job: %+v", got)
	}
	if tr.Cancel("task-1") {
		t.Fatal("cancel of a finished job must report false")
	}
	if err := tr.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown error: %v", err)
	}
}

func TestTrackerCancelMarksCanceled(t *testing.T) {
	h := newHarness(func(d *Deps, c *Config) { d.Sleep = blockingSleep })
	tr := NewTracker(h.orch, nil)

	if _, err := tr.Start(context.Background(), "u1", "https://img.test/a.png"); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	if !tr.Cancel("task-1") {
		t.Fatal("expected active job to be canceled")
	}
	waitFor(t, func() bool { return tr.Active() == 0 })

	got, _ := tr.Get(context.Background(), "task-1")
	if got.Status != domain.ModelJobCanceled {
		t.Fatalf("status = %s", got.Status)
	}
	stored, _ := h.jobs.GetByTaskID(context.Background(), "task-1")
	if stored.Status != domain.ModelJobCanceled {
		t.Fatalf("stored status = %s", stored.Status)
	}
	if tr.Cancel("missing") {
		t.Fatal("unknown task must report false")
	}
}

func TestTrackerShutdownLeavesJobsPending(t *testing.T) {
	h := newHarness(func(d *Deps, c *Config) { d.Sleep = blockingSleep })
	tr := NewTracker(h.orch, nil)

	if _, err := tr.Start(context.Background(), "u1", "https://img.test/a.png"); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := tr.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown error: %v", err)
	}

	stored, _ := h.jobs.GetByTaskID(context.Background(), "task-1")
	if stored.Status != domain.ModelJobPending {
		t.Fatalf("stored status = %s, want pending", stored.Status)
	}
	if n := tr.Active(); n != 0 {
		t.Fatalf("interrupted jobs still held: %d", n)
	}
	if _, err := tr.Start(context.Background(), "u1", "https://img.test/b.png"); !errors.Is(err, ErrTrackerClosed) {
		t.Fatalf("expected ErrTrackerClosed, got %v", err)
	}
}

func TestTrackerGetFallsBackToStore(t *testing.T) {
	h := newHarness(nil)
	_ = h.jobs.Create(context.Background(), &domain.ModelJob{TaskID: "old", Status: domain.ModelJobSucceeded, AssetURL: "https://assets.test/old.glb"})
	tr := NewTracker(h.orch, nil)

	got, err := tr.Get(context.Background(), "old")
	if err != nil || got.AssetURL != "https://assets.test/old.glb" {
		t.Fatalf("Get = %+v, %v", got, err)
	}
	if _, err := tr.Get(context.Background(), "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestTrackerEvictsFinishedJobs(t *testing.T) {
	h := newHarness(nil)
	h.models.sequential = true
	h.models.fallback = succeeded("https://assets.test/m.glb")
	tr := newTracker(h.orch, nil, 8)

	for i := 0; i < 40; i++ {
		if _, err := tr.Start(context.Background(), "u1", fmt.Sprintf("https://img.test/%d.png", i)); err != nil {
			t.Fatalf("Start %d error: %v", i, err)
		}
	}
	waitFor(t, func() bool { return tr.Active() == 0 })

	tr.mu.Lock()
	held := len(tr.jobs)
	tr.mu.Unlock()
	if held != 0 {
		t.Fatalf("finished jobs still tracked as active: %d", held)
	}
	if n := tr.Finished(); n != 8 {
		t.Fatalf("finished cache len = %d, want 8", n)
	}

	// Evicted jobs are still readable from the store.
	got, err := tr.Get(context.Background(), "task-1")
	if err != nil || got.Status != domain.ModelJobSucceeded {
		t.Fatalf("Get evicted job = %+v, %v", got, err)
	}
}

func TestTrackerCachedJobsKeepTheirOwner(t *testing.T) {
	h := newHarness(nil)
	h.models.fallback = succeeded("https://assets.test/m.glb")
	tr := NewTracker(h.orch, nil)

	first, err := tr.Start(context.Background(), "u1", "https://img.test/a.png")
	if err != nil {
		t.Fatalf("Start error: %v", err)
	}
	waitFor(t, func() bool { return tr.Active() == 0 })

	second, err := tr.Start(context.Background(), "u2", "https://img.test/a.png")
	if err != nil {
		t.Fatalf("second Start error: %v", err)
	}
	third, err := tr.Start(context.Background(), "u3", "https://img.test/a.png")
	if err != nil {
		t.Fatalf("third Start error: %v", err)
	}
	if second.TaskID == third.TaskID || second.TaskID == first.TaskID {
		t.Fatalf("cache hits share task ids: %q %q %q", first.TaskID, second.TaskID, third.TaskID)
	}

	for _, want := range []struct{ taskID, user string }{
		{first.TaskID, "u1"},
		{second.TaskID, "u2"},
		{third.TaskID, "u3"},
	} {
		got, err := tr.Get(context.Background(), want.taskID)
		if err != nil || got.UserID != want.user {
			t.Fatalf("Get(%s) = %+v, %v; want owner %s", want.taskID, got, err, want.user)
		}
	}
	if submits, _ := h.models.counts(); submits != 1 {
		t.Fatalf("submits = %d", submits)
	}
}
