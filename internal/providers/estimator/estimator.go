// Package estimator asks the AI gateway for a manufacturing complexity tier
// and price-per-cubic-foot suggestion for a furniture design.
package estimator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"designstudio/internal/domain"
	"designstudio/internal/infra"
	"designstudio/internal/pricing"
	"designstudio/internal/providers/genai"
	"designstudio/internal/providers/llmjson"
)

// Result sources recorded on domain.PricingResult.
const (
	SourceModel    = "model"
	SourceFallback = "fallback"
)

const fallbackReasoning = "default estimate"

const systemPrompt = "You are a furniture manufacturing cost analyst. You only respond with valid JSON."

// TextGenerator is the subset of the gateway client the estimator needs.
type TextGenerator interface {
	GenerateText(ctx context.Context, req genai.TextRequest) (string, error)
}

var resultSchema = llmjson.MustCompileSchema(map[string]any{
	"type":     "object",
	"required": []any{"complexity", "price_per_cubic_foot"},
	"properties": map[string]any{
		"complexity": map[string]any{
			"type": "string",
			"enum": []any{"low", "medium", "high", "LOW", "MEDIUM", "HIGH", "Low", "Medium", "High"},
		},
		"price_per_cubic_foot": map[string]any{"type": "number"},
		"reasoning":            map[string]any{"type": "string"},
	},
})

type modelPayload struct {
	Complexity        string  `json:"complexity"`
	PricePerCubicFoot float64 `json:"price_per_cubic_foot"`
	Reasoning         string  `json:"reasoning"`
}

// Options configures an Estimator.
type Options struct {
	Generator  TextGenerator
	Logger     *infra.Logger
	OnFallback func(reason string, err error)
}

// Estimator never fails: any problem with the remote call or its output
// yields the default medium estimate.
type Estimator struct {
	generator  TextGenerator
	logger     *infra.Logger
	onFallback func(reason string, err error)
}

func New(opts Options) *Estimator {
	return &Estimator{
		generator:  opts.Generator,
		logger:     infra.LoggerOrDiscard(opts.Logger),
		onFallback: opts.OnFallback,
	}
}

// Fallback returns the default estimate used whenever the model is
// unavailable or its output is unusable.
func Fallback() domain.PricingResult {
	return domain.PricingResult{
		Complexity:        domain.ComplexityMedium,
		PricePerCubicFoot: pricing.DefaultPricePerCubicFoot,
		Reasoning:         fallbackReasoning,
		Source:            SourceFallback,
	}
}

// Estimate classifies description. The returned price per cubic foot is
// always within the global bounds.
func (e *Estimator) Estimate(ctx context.Context, description string) domain.PricingResult {
	description = strings.TrimSpace(description)
	if description == "" {
		return e.useFallback("empty_description", nil)
	}
	if e.generator == nil {
		return e.useFallback("missing_generator", nil)
	}

	text, err := e.generator.GenerateText(ctx, genai.TextRequest{
		System: systemPrompt,
		User:   buildPrompt(description),
	})
	if err != nil {
		return e.useFallback(reasonFor(err), err)
	}

	parsed, err := llmjson.Parse[modelPayload](text, resultSchema)
	if err != nil {
		if errors.Is(err, llmjson.ErrSchemaMismatch) {
			return e.useFallback("schema_mismatch", err)
		}
		return e.useFallback("parse_payload", err)
	}

	complexity, ok := domain.ParseComplexity(strings.ToLower(strings.TrimSpace(parsed.Complexity)))
	if !ok {
		return e.useFallback("unknown_complexity", fmt.Errorf("complexity %q", parsed.Complexity))
	}
	if parsed.PricePerCubicFoot <= 0 {
		return e.useFallback("invalid_price", fmt.Errorf("price_per_cubic_foot %v", parsed.PricePerCubicFoot))
	}

	return domain.PricingResult{
		Complexity:        complexity,
		PricePerCubicFoot: pricing.ClampPricePerCubicFoot(parsed.PricePerCubicFoot),
		Reasoning:         strings.TrimSpace(parsed.Reasoning),
		Source:            SourceModel,
	}
}

func (e *Estimator) useFallback(reason string, err error) domain.PricingResult {
	e.logger.Warn().Err(err).Str("reason", reason).Msg("estimator: using default estimate")
	if e.onFallback != nil {
		e.onFallback(reason, err)
	}
	return Fallback()
}

func reasonFor(err error) string {
	switch {
	case errors.Is(err, genai.ErrNoAPIKey):
		return "missing_api_key"
	case errors.Is(err, domain.ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, domain.ErrQuotaExhausted):
		return "quota_exhausted"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "http_request"
	}
}

func buildPrompt(description string) string {
	sb := &strings.Builder{}
	sb.WriteString("Estimate the manufacturing complexity of this furniture design and suggest a price per cubic foot in INR. ")
	sb.WriteString("Respond strictly with JSON matching this schema: ")
	sb.WriteString(`{"complexity":"low"|"medium"|"high","price_per_cubic_foot":number,"reasoning":string}`)
	fmt.Fprintf(sb, ". Typical prices range from %d (simple, flat-pack) to %d (carved, upholstered, mixed materials). ",
		int(pricing.MinPricePerCubicFoot), int(pricing.MaxPricePerCubicFoot))
	fmt.Fprintf(sb, "Design description: %q", description)
	return sb.String()
}
