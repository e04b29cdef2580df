package studio

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"designstudio/internal/domain"
	"designstudio/internal/pricing"
	"designstudio/internal/providers/genai"
)

// GenerateRequest starts a generation batch from a text brief, a sketch, or
// both.
type GenerateRequest struct {
	UserID    string
	Prompt    string
	SketchURL string
	Category  string
	RequestID string
}

// Batch is the result of a successful generation.
type Batch struct {
	ID         string               `json:"id"`
	UserID     string               `json:"user_id"`
	Prompt     string               `json:"prompt"`
	Category   string               `json:"category"`
	State      BatchState           `json:"state"`
	Pricing    domain.PricingResult `json:"pricing"`
	Candidates []domain.Candidate   `json:"candidates"`
	// CreditsCharged is zero when the post-generation deduct failed.
	CreditsCharged int `json:"credits_charged"`
	Balance        int `json:"balance"`
}

// GenerationError reports the variation that failed a batch.
type GenerationError struct {
	Variation int
	Err       error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("studio: variation %d: %v", e.Variation+1, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// GenerateBatch checks credits, renders the configured number of variations
// concurrently, estimates complexity once for the batch and deducts credits
// only after every variation succeeded. Any variation failure fails the
// batch and nothing is charged.
func (o *Orchestrator) GenerateBatch(ctx context.Context, req GenerateRequest) (*Batch, error) {
	req.UserID = strings.TrimSpace(req.UserID)
	req.Prompt = strings.TrimSpace(req.Prompt)
	req.SketchURL = strings.TrimSpace(req.SketchURL)
	if req.UserID == "" {
		return nil, fmt.Errorf("studio: %w: user id is required", domain.ErrInvalidInput)
	}
	if req.Prompt == "" && req.SketchURL == "" {
		return nil, fmt.Errorf("studio: %w: prompt or sketch is required", domain.ErrInvalidInput)
	}

	started := o.now()
	batch := &Batch{
		ID:       uuid.NewString(),
		UserID:   req.UserID,
		Prompt:   req.Prompt,
		Category: pricing.NormalizeCategory(req.Category),
		State:    StateIdle,
	}
	o.setBatchState(batch.ID, StateIdle)

	batch.State = StateCreditChecking
	o.setBatchState(batch.ID, batch.State)
	needed := o.cfg.CreditsPerBatch
	status, err := o.credits.CheckCredits(ctx, req.UserID, needed)
	if err != nil {
		o.failBatch(ctx, batch, req, started, err)
		return nil, &domain.InsufficientCreditsError{CreditsNeeded: needed, Cause: err}
	}
	if !status.HasCredits {
		err := &domain.InsufficientCreditsError{Balance: status.Balance, CreditsNeeded: status.CreditsNeeded}
		o.failBatch(ctx, batch, req, started, err)
		return nil, err
	}

	batch.State = StateGeneratingImages
	o.setBatchState(batch.ID, batch.State)

	urls := make([]string, o.cfg.Variations)
	hints := make([]string, o.cfg.Variations)
	var estimate domain.PricingResult

	g, gctx := errgroup.WithContext(ctx)
	for i := range o.cfg.Variations {
		hints[i] = o.cfg.StyleHints[i%len(o.cfg.StyleHints)]
		g.Go(func() error {
			url, err := o.images.GenerateImage(gctx, genai.ImageRequest{
				Prompt:         variationPrompt(req, batch.Category, i, o.cfg.Variations),
				StyleHint:      hints[i],
				SourceImageURL: req.SketchURL,
				KeyPrefix:      "designs/" + batch.ID,
				RequestID:      req.RequestID,
			})
			if err != nil {
				return &GenerationError{Variation: i, Err: err}
			}
			if strings.TrimSpace(url) == "" {
				return &GenerationError{Variation: i, Err: domain.ErrEmptyImage}
			}
			urls[i] = url
			return nil
		})
	}
	g.Go(func() error {
		estimate = o.estimator.Estimate(gctx, estimateDescription(req, batch.Category))
		return nil
	})

	if err := g.Wait(); err != nil {
		o.failBatch(ctx, batch, req, started, err)
		return nil, err
	}

	batch.State = StateImagesReady
	o.setBatchState(batch.ID, batch.State)
	batch.Pricing = estimate
	batch.Balance = status.Balance
	batch.Candidates = make([]domain.Candidate, o.cfg.Variations)
	for i := range batch.Candidates {
		batch.Candidates[i] = domain.Candidate{
			ID:        uuid.NewString(),
			Index:     i,
			StyleHint: hints[i],
			ImageURL:  urls[i],
			Pricing:   estimate,
			Recolors:  map[string]map[string]string{},
		}
	}

	// Deduct after success only. A failure here leaves the user uncharged.
	balance, err := o.credits.DeductCredits(ctx, req.UserID, needed)
	if err != nil {
		o.logger.Error().Err(err).
			Str("user_id", req.UserID).
			Str("batch_id", batch.ID).
			Int("credits", needed).
			Msg("studio: credit deduction failed after generation")
	} else {
		batch.CreditsCharged = needed
		batch.Balance = balance
	}

	if o.batches != nil {
		if err := o.batches.SaveBatch(context.WithoutCancel(ctx), batch.ID, req.UserID, req.Prompt, batch.Candidates); err != nil {
			o.logger.Warn().Err(err).Str("batch_id", batch.ID).Msg("studio: save batch failed")
		}
	}

	o.recordUsage(ctx, domain.UsageEvent{
		UserID:    req.UserID,
		RequestID: req.RequestID,
		EventType: domain.UsageGenerateBatch,
		Success:   true,
		LatencyMS: int(o.now().Sub(started) / time.Millisecond),
		Properties: map[string]any{
			"batch_id":        batch.ID,
			"variations":      o.cfg.Variations,
			"complexity":      string(estimate.Complexity),
			"pricing_source":  estimate.Source,
			"credits_charged": batch.CreditsCharged,
		},
	})

	o.logger.Info().
		Str("user_id", req.UserID).
		Str("batch_id", batch.ID).
		Int("variations", o.cfg.Variations).
		Str("complexity", string(estimate.Complexity)).
		Msg("studio: batch generated")
	return batch, nil
}

func (o *Orchestrator) failBatch(ctx context.Context, batch *Batch, req GenerateRequest, started time.Time, err error) {
	batch.State = StateFailed
	o.setBatchState(batch.ID, batch.State)
	o.logger.Warn().Err(err).Str("user_id", req.UserID).Str("batch_id", batch.ID).Msg("studio: batch failed")

	props := map[string]any{"batch_id": batch.ID}
	var genErr *GenerationError
	if errors.As(err, &genErr) {
		props["variation"] = genErr.Variation
	}
	props["retryable"] = domain.IsRetryable(err)
	o.recordUsage(ctx, domain.UsageEvent{
		UserID:     req.UserID,
		RequestID:  req.RequestID,
		EventType:  domain.UsageGenerateBatch,
		Success:    false,
		LatencyMS:  int(o.now().Sub(started) / time.Millisecond),
		Properties: props,
	})
}

func variationPrompt(req GenerateRequest, category string, index, total int) string {
	sb := &strings.Builder{}
	subject := categoryNoun(category)
	if req.SketchURL != "" {
		fmt.Fprintf(sb, "Turn the attached sketch into a photorealistic product render of a %s.", subject)
	} else {
		fmt.Fprintf(sb, "Photorealistic product render of a %s.", subject)
	}
	if req.Prompt != "" {
		fmt.Fprintf(sb, " Design brief: %s.", strings.TrimRight(req.Prompt, ". "))
	}
	fmt.Fprintf(sb, " Variation #%d of %d; make it visibly distinct from the others.", index+1, total)
	sb.WriteString(" Plain light background, full piece in frame, no text or watermark.")
	return sb.String()
}

var categoryNouns = map[string]string{
	"chairs":   "chair",
	"tables":   "table",
	"sofas":    "sofa",
	"beds":     "bed",
	"storage":  "storage unit",
	"lighting": "lighting fixture",
	"decor":    "decor piece",
}

func categoryNoun(category string) string {
	if noun, ok := categoryNouns[category]; ok {
		return noun
	}
	return "furniture piece"
}

func estimateDescription(req GenerateRequest, category string) string {
	desc := req.Prompt
	if desc == "" {
		desc = "furniture design from an uploaded sketch"
	}
	if category != pricing.DefaultCategory {
		desc = fmt.Sprintf("%s (category: %s)", desc, category)
	}
	return desc
}
