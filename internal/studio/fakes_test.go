package studio

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"designstudio/internal/domain"
	"designstudio/internal/pricing"
	"designstudio/internal/providers/genai"
	"designstudio/internal/providers/meshy"
)

type fakeCredits struct {
	mu        sync.Mutex
	status    domain.CreditStatus
	checkErr  error
	deductErr error
	checks    int
	deducts   []int
}

func (f *fakeCredits) CheckCredits(ctx context.Context, userID string, needed int) (domain.CreditStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checks++
	s := f.status
	s.CreditsNeeded = needed
	return s, f.checkErr
}

func (f *fakeCredits) DeductCredits(ctx context.Context, userID string, amount int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deductErr != nil {
		return 0, f.deductErr
	}
	f.deducts = append(f.deducts, amount)
	f.status.Balance -= amount
	return f.status.Balance, nil
}

func (f *fakeCredits) GrantCredits(ctx context.Context, userID string, amount int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status.Balance += amount
	return f.status.Balance, nil
}

func (f *fakeCredits) deductCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.deducts)
}

type fakeImages struct {
	mu    sync.Mutex
	reqs  []genai.ImageRequest
	reply func(req genai.ImageRequest) (string, error)
}

func (f *fakeImages) GenerateImage(ctx context.Context, req genai.ImageRequest) (string, error) {
	f.mu.Lock()
	f.reqs = append(f.reqs, req)
	f.mu.Unlock()
	if f.reply != nil {
		return f.reply(req)
	}
	return "https://img.test/" + req.StyleHint + ".png", nil
}

func (f *fakeImages) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.reqs)
}

type fakeEstimator struct {
	mu     sync.Mutex
	result domain.PricingResult
	calls  int
}

func (f *fakeEstimator) Estimate(ctx context.Context, description string) domain.PricingResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.result
}

type pollReply struct {
	task meshy.Task
	err  error
}

type fakeModels struct {
	mu     sync.Mutex
	taskID string
	// sequential appends the submit count to taskID.
	sequential bool
	submitErr  error
	replies    []pollReply
	// fallback is returned once replies are exhausted.
	fallback pollReply
	submits  int
	polls    int
}

func (f *fakeModels) Submit(ctx context.Context, imageURL string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submits++
	if f.submitErr != nil {
		return "", f.submitErr
	}
	if f.sequential {
		return fmt.Sprintf("%s-%d", f.taskID, f.submits), nil
	}
	return f.taskID, nil
}

func (f *fakeModels) Poll(ctx context.Context, taskID string) (meshy.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.polls++
	if len(f.replies) > 0 {
		r := f.replies[0]
		f.replies = f.replies[1:]
		return r.task, r.err
	}
	return f.fallback.task, f.fallback.err
}

func (f *fakeModels) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submits, f.polls
}

type memCache struct {
	mu sync.Mutex
	m  map[string]string
}

func newMemCache() *memCache { return &memCache{m: map[string]string{}} }

func (c *memCache) Get(k string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.m[k]
	return v, ok
}

func (c *memCache) Add(k, v string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[k] = v
}

type memJobs struct {
	mu   sync.Mutex
	jobs map[string]domain.ModelJob
}

func newMemJobs() *memJobs { return &memJobs{jobs: map[string]domain.ModelJob{}} }

func (m *memJobs) Create(ctx context.Context, job *domain.ModelJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[job.TaskID] = *job
	return nil
}

func (m *memJobs) Update(ctx context.Context, job *domain.ModelJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.jobs[job.TaskID]; !ok {
		return domain.ErrNotFound
	}
	m.jobs[job.TaskID] = *job
	return nil
}

func (m *memJobs) GetByTaskID(ctx context.Context, taskID string) (*domain.ModelJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[taskID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &job, nil
}

func (m *memJobs) ListPending(ctx context.Context, limit int) ([]domain.ModelJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.ModelJob
	for _, j := range m.jobs {
		if j.Status == domain.ModelJobPending {
			out = append(out, j)
		}
	}
	return out, nil
}

type memBatches struct {
	mu     sync.Mutex
	saved  map[string][]domain.Candidate
	owners map[string]string
}

func (m *memBatches) SaveBatch(ctx context.Context, batchID, userID, prompt string, candidates []domain.Candidate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saved == nil {
		m.saved = map[string][]domain.Candidate{}
		m.owners = map[string]string{}
	}
	for i := range candidates {
		if candidates[i].ID == "" {
			candidates[i].ID = fmt.Sprintf("%s-c%d", batchID, i)
		}
	}
	m.saved[batchID] = candidates
	m.owners[batchID] = userID
	return nil
}

func (m *memBatches) GetCandidate(ctx context.Context, userID, candidateID string) (*domain.Candidate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for batchID, candidates := range m.saved {
		if m.owners[batchID] != userID {
			continue
		}
		for _, c := range candidates {
			if c.ID == candidateID {
				return &c, nil
			}
		}
	}
	return nil, domain.ErrNotFound
}

type memSubmissions struct {
	mu      sync.Mutex
	created []domain.Submission
}

func (m *memSubmissions) Create(ctx context.Context, s *domain.Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.ID = "sub-1"
	m.created = append(m.created, *s)
	return nil
}

func (m *memSubmissions) GetByID(ctx context.Context, id string) (*domain.Submission, error) {
	return nil, errors.New("not implemented")
}

type sleepRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.delays = append(s.delays, d)
	s.mu.Unlock()
	return ctx.Err()
}

type harness struct {
	orch        *Orchestrator
	credits     *fakeCredits
	images      *fakeImages
	estimator   *fakeEstimator
	models      *fakeModels
	cache       *memCache
	jobs        *memJobs
	batches     *memBatches
	submissions *memSubmissions
	sleeps      *sleepRecorder
	statesMu    sync.Mutex
	states      []BatchState
}

func (h *harness) batchStates() []BatchState {
	h.statesMu.Lock()
	defer h.statesMu.Unlock()
	return append([]BatchState(nil), h.states...)
}

func newHarness(mod func(*Deps, *Config)) *harness {
	h := &harness{
		credits:     &fakeCredits{status: domain.CreditStatus{HasCredits: true, Balance: 5}},
		images:      &fakeImages{},
		estimator:   &fakeEstimator{result: domain.PricingResult{Complexity: domain.ComplexityHigh, PricePerCubicFoot: 20000, Reasoning: "carved", Source: "model"}},
		models:      &fakeModels{taskID: "task-1"},
		cache:       newMemCache(),
		jobs:        newMemJobs(),
		batches:     &memBatches{},
		submissions: &memSubmissions{},
		sleeps:      &sleepRecorder{},
	}
	deps := Deps{
		Credits:     h.credits,
		Images:      h.images,
		Estimator:   h.estimator,
		Models:      h.models,
		Cache:       h.cache,
		ModelJobs:   h.jobs,
		Batches:     h.batches,
		Submissions: h.submissions,
		Calculator:  pricing.NewCalculator(pricing.NewSeededPlacer(7), 1),
		Sleep:       h.sleeps.sleep,
		OnBatchState: func(batchID string, s BatchState) {
			h.statesMu.Lock()
			h.states = append(h.states, s)
			h.statesMu.Unlock()
		},
	}
	cfg := DefaultConfig()
	if mod != nil {
		mod(&deps, &cfg)
	}
	h.orch = NewOrchestrator(deps, cfg)
	return h
}
