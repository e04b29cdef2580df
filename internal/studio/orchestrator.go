// Package studio sequences design generation: credit gating, concurrent
// variation rendering, complexity estimation, optional 3D reconstruction,
// recoloring and final submission.
package studio

import (
	"context"
	"time"

	"designstudio/internal/domain"
	"designstudio/internal/infra"
	"designstudio/internal/pricing"
	"designstudio/internal/providers/describer"
	"designstudio/internal/providers/genai"
	"designstudio/internal/providers/meshy"
)

// DefaultStyleHints differentiate the variations of one batch. Batches with
// more variations than hints cycle through the list.
var DefaultStyleHints = []string{
	"clean minimalist studio render",
	"warm natural materials close-up",
	"dramatic editorial lighting",
	"lifestyle interior scene",
	"technical three-quarter view",
}

// ImageGenerator renders one design image and returns its URL.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, req genai.ImageRequest) (string, error)
}

// ComplexityEstimator never fails; it degrades to a default estimate.
type ComplexityEstimator interface {
	Estimate(ctx context.Context, description string) domain.PricingResult
}

// ModelService submits and polls image-to-3D reconstruction tasks.
type ModelService interface {
	Submit(ctx context.Context, imageURL string) (string, error)
	Poll(ctx context.Context, taskID string) (meshy.Task, error)
}

// ModelCache maps source image URLs to finished 3D asset URLs.
type ModelCache interface {
	Get(imageURL string) (string, bool)
	Add(imageURL, assetURL string)
}

// Sleeper blocks for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Config holds the tunables of the orchestrator.
type Config struct {
	Variations       int
	CreditsPerBatch  int
	StyleHints       []string
	PollInitialDelay time.Duration
	PollInterval     time.Duration
	MaxPollAttempts  int
}

// DefaultConfig mirrors the production defaults.
func DefaultConfig() Config {
	return Config{
		Variations:       3,
		CreditsPerBatch:  1,
		StyleHints:       DefaultStyleHints,
		PollInitialDelay: 5 * time.Second,
		PollInterval:     10 * time.Second,
		MaxPollAttempts:  60,
	}
}

// ConfigFromInfra maps environment configuration onto Config.
func ConfigFromInfra(cfg *infra.Config) Config {
	out := DefaultConfig()
	if cfg == nil {
		return out
	}
	if cfg.VariationCount > 0 {
		out.Variations = cfg.VariationCount
	}
	if cfg.CreditsPerBatch > 0 {
		out.CreditsPerBatch = cfg.CreditsPerBatch
	}
	if cfg.ModelPollInitialDelay >= 0 {
		out.PollInitialDelay = cfg.ModelPollInitialDelay
	}
	if cfg.ModelPollInterval > 0 {
		out.PollInterval = cfg.ModelPollInterval
	}
	if cfg.ModelPollMaxAttempts > 0 {
		out.MaxPollAttempts = cfg.ModelPollMaxAttempts
	}
	return out
}

// Deps are the collaborators of an Orchestrator. Images, Estimator and
// Credits are required; the rest degrade to no-ops when nil.
type Deps struct {
	Credits     domain.CreditRepository
	Images      ImageGenerator
	Estimator   ComplexityEstimator
	Models      ModelService
	Cache       ModelCache
	ModelJobs   domain.ModelJobRepository
	Batches     domain.BatchRepository
	Submissions domain.SubmissionRepository
	Usage       domain.UsageRecorder
	Describer   describer.Describer
	Calculator  *pricing.Calculator
	Logger      *infra.Logger
	Sleep       Sleeper
	// OnBatchState observes batch state transitions.
	OnBatchState func(batchID string, state BatchState)
}

type Orchestrator struct {
	cfg          Config
	credits      domain.CreditRepository
	images       ImageGenerator
	estimator    ComplexityEstimator
	models       ModelService
	cache        ModelCache
	modelJobs    domain.ModelJobRepository
	batches      domain.BatchRepository
	submissions  domain.SubmissionRepository
	usage        domain.UsageRecorder
	describer    describer.Describer
	calculator   *pricing.Calculator
	logger       *infra.Logger
	sleep        Sleeper
	onBatchState func(string, BatchState)
	now          func() time.Time
}

func NewOrchestrator(deps Deps, cfg Config) *Orchestrator {
	def := DefaultConfig()
	if cfg.Variations <= 0 {
		cfg.Variations = def.Variations
	}
	if cfg.CreditsPerBatch <= 0 {
		cfg.CreditsPerBatch = def.CreditsPerBatch
	}
	if len(cfg.StyleHints) == 0 {
		cfg.StyleHints = def.StyleHints
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = def.PollInterval
	}
	if cfg.MaxPollAttempts <= 0 {
		cfg.MaxPollAttempts = def.MaxPollAttempts
	}

	o := &Orchestrator{
		cfg:          cfg,
		credits:      deps.Credits,
		images:       deps.Images,
		estimator:    deps.Estimator,
		models:       deps.Models,
		cache:        deps.Cache,
		modelJobs:    deps.ModelJobs,
		batches:      deps.Batches,
		submissions:  deps.Submissions,
		usage:        deps.Usage,
		describer:    deps.Describer,
		calculator:   deps.Calculator,
		logger:       infra.LoggerOrDiscard(deps.Logger),
		sleep:        deps.Sleep,
		onBatchState: deps.OnBatchState,
		now:          time.Now,
	}
	if o.sleep == nil {
		o.sleep = SleepContext
	}
	if o.calculator == nil {
		o.calculator = pricing.NewCalculator(nil, 1)
	}
	if o.describer == nil {
		o.describer = describer.NewStaticDescriber()
	}
	return o
}

// Config returns the effective configuration.
func (o *Orchestrator) Config() Config { return o.cfg }

// Balance returns the caller's current credit balance.
func (o *Orchestrator) Balance(ctx context.Context, userID string) (domain.CreditStatus, error) {
	return o.credits.CheckCredits(ctx, userID, o.cfg.CreditsPerBatch)
}

// SleepContext waits for d unless ctx is done first.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (o *Orchestrator) recordUsage(ctx context.Context, ev domain.UsageEvent) {
	if o.usage == nil {
		return
	}
	if err := o.usage.Record(context.WithoutCancel(ctx), ev); err != nil {
		o.logger.Warn().Err(err).Str("event", ev.EventType).Msg("studio: record usage failed")
	}
}
