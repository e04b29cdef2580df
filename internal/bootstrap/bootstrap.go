// Package bootstrap assembles the studio runtime shared by the API server and
// the background worker.
package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"designstudio/internal/adapter/repo"
	"designstudio/internal/domain"
	"designstudio/internal/infra"
	"designstudio/internal/infra/credentials"
	"designstudio/internal/modelcache"
	"designstudio/internal/pricing"
	"designstudio/internal/providers/describer"
	"designstudio/internal/providers/estimator"
	"designstudio/internal/providers/genai"
	"designstudio/internal/providers/meshy"
	"designstudio/internal/storage"
	"designstudio/internal/store/sqlite"
	"designstudio/internal/studio"
)

// Runtime holds the wired orchestrator and the resources it owns.
type Runtime struct {
	Config       *infra.Config
	Orchestrator *studio.Orchestrator
	Files        *storage.FileStore
	ModelJobs    domain.ModelJobRepository
	// Ping checks the data store.
	Ping func(ctx context.Context) error

	closers []func()
}

type stores struct {
	credits     domain.CreditRepository
	submissions domain.SubmissionRepository
	modelJobs   domain.ModelJobRepository
	batches     domain.BatchRepository
	usage       domain.UsageRecorder
	keys        *credentials.Store
	ping        func(ctx context.Context) error
	close       func()
}

// New opens the data store selected by DATABASE_URL and wires every provider.
func New(ctx context.Context, cfg *infra.Config, logger *infra.Logger) (*Runtime, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	logger = infra.LoggerOrDiscard(logger)

	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	rt := &Runtime{Config: cfg, ModelJobs: st.modelJobs, Ping: st.ping, closers: []func(){st.close}}

	files, err := storage.NewFileStore(absPath(cfg.StoragePath), cfg.StorageBaseURL)
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("bootstrap: storage: %w", err)
	}
	rt.Files = files

	gatewayKey := resolveKey(ctx, st.keys, cfg.AIGatewayAPIKey, credentials.ProviderGateway, logger)
	meshyKey := resolveKey(ctx, st.keys, cfg.MeshyAPIKey, credentials.ProviderMeshy, logger)

	gateway, err := genai.NewClient(genai.Options{
		APIKey:     gatewayKey,
		BaseURL:    cfg.AIGatewayBaseURL,
		ImageModel: cfg.AIImageModel,
		TextModel:  cfg.AITextModel,
		HTTPClient: &http.Client{Timeout: 120 * time.Second},
		Store:      files,
		Logger:     logger,
	})
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("bootstrap: gateway: %w", err)
	}
	if !gateway.HasAPIKey() {
		logger.Warn().Msg("bootstrap: AI gateway key missing, using placeholder images and default estimates")
	}

	var models studio.ModelService
	if meshyKey != "" {
		models = meshy.NewClient(meshy.Options{
			APIKey:     meshyKey,
			BaseURL:    cfg.MeshyBaseURL,
			HTTPClient: &http.Client{Timeout: 30 * time.Second},
			Logger:     logger,
		})
	} else {
		logger.Warn().Msg("bootstrap: meshy key missing, 3D generation disabled")
	}

	cache, err := modelcache.New(cfg.ModelCacheSize)
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("bootstrap: model cache: %w", err)
	}

	onFallback := func(component string) func(string, error) {
		return func(reason string, err error) {
			logger.Warn().Err(err).Str("component", component).Str("reason", reason).Msg("bootstrap: using fallback")
		}
	}

	rt.Orchestrator = studio.NewOrchestrator(studio.Deps{
		Credits:     st.credits,
		Images:      gateway,
		Estimator:   estimator.New(estimator.Options{Generator: gateway, Logger: logger, OnFallback: onFallback("estimator")}),
		Models:      models,
		Cache:       cache,
		ModelJobs:   st.modelJobs,
		Batches:     st.batches,
		Submissions: st.submissions,
		Usage:       st.usage,
		Describer:   describer.NewModelDescriber(describer.ModelOptions{Generator: gateway, OnFallback: onFallback("describer")}),
		Calculator:  pricing.NewCalculator(nil, cfg.PriceMarkup),
		Logger:      logger,
	}, studio.ConfigFromInfra(cfg))
	return rt, nil
}

func openStores(ctx context.Context, cfg *infra.Config, logger *infra.Logger) (*stores, error) {
	if cfg.UsesSQLite() {
		db, err := sqlite.Open(cfg.SQLitePath())
		if err != nil {
			return nil, fmt.Errorf("bootstrap: %w", err)
		}
		logger.Info().Str("path", cfg.SQLitePath()).Msg("bootstrap: using sqlite store")
		return &stores{
			credits:     db.Credits(),
			submissions: db.Submissions(),
			modelJobs:   db.ModelJobs(),
			batches:     db.Batches(),
			usage:       db.Usage(),
			ping:        db.Ping,
			close:       func() { _ = db.Close() },
		}, nil
	}

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: %w", err)
	}
	runner := infra.NewSQLRunner(pool, *logger)
	return &stores{
		credits:     repo.NewCreditRepository(runner),
		submissions: repo.NewSubmissionRepository(runner),
		modelJobs:   repo.NewModelJobRepository(runner),
		batches:     repo.NewBatchRepository(runner),
		usage:       repo.NewUsageRepository(runner),
		keys:        credentials.NewStore(runner),
		ping:        pool.Ping,
		close:       pool.Close,
	}, nil
}

// resolveKey prefers the environment and falls back to integration_tokens.
func resolveKey(ctx context.Context, keys *credentials.Store, explicit, provider string, logger *infra.Logger) string {
	if keys == nil {
		return strings.TrimSpace(explicit)
	}
	key, err := keys.ResolveKey(ctx, explicit, provider)
	if err != nil {
		logger.Warn().Err(err).Str("provider", provider).Msg("bootstrap: failed to load api key from store")
		return strings.TrimSpace(explicit)
	}
	return key
}

func absPath(p string) string {
	if p == "" {
		p = "./storage"
	}
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}

// Close releases the data store.
func (r *Runtime) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
	r.closers = nil
}
