package describer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"designstudio/internal/providers/genai"
	"designstudio/internal/providers/llmjson"
)

type ModelOptions struct {
	Generator  TextGenerator
	Fallback   Describer
	OnFallback func(reason string, err error)
}

// ModelDescriber asks the gateway for listing copy and falls back to another
// Describer when the call or its output is unusable.
type ModelDescriber struct {
	generator  TextGenerator
	fallback   Describer
	onFallback func(reason string, err error)
}

type modelPayload struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Keywords    []string `json:"keywords"`
}

var payloadSchema = llmjson.MustCompileSchema(map[string]any{
	"type":     "object",
	"required": []any{"name", "description"},
	"properties": map[string]any{
		"name":        map[string]any{"type": "string", "minLength": 1, "maxLength": 120},
		"description": map[string]any{"type": "string", "minLength": 1},
		"keywords":    map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
	},
})

func NewModelDescriber(opts ModelOptions) *ModelDescriber {
	fallback := opts.Fallback
	if fallback == nil {
		fallback = NewStaticDescriber()
	}
	return &ModelDescriber{generator: opts.Generator, fallback: fallback, onFallback: opts.OnFallback}
}

func (m *ModelDescriber) Describe(ctx context.Context, req Request) (*Description, error) {
	if m.generator == nil {
		return m.useFallback(ctx, req, "missing_generator", nil)
	}
	text, err := m.generator.GenerateText(ctx, genai.TextRequest{
		System: "You write concise furniture marketplace listings. You only respond with valid JSON.",
		User:   buildPrompt(req),
	})
	if err != nil {
		if errors.Is(err, genai.ErrNoAPIKey) {
			return m.useFallback(ctx, req, "missing_api_key", err)
		}
		return m.useFallback(ctx, req, "http_request", err)
	}
	parsed, err := llmjson.Parse[modelPayload](text, payloadSchema)
	if err != nil {
		return m.useFallback(ctx, req, "parse_payload", err)
	}
	name := strings.TrimSpace(parsed.Name)
	desc := strings.TrimSpace(parsed.Description)
	if name == "" || desc == "" {
		return m.useFallback(ctx, req, "empty_fields", errors.New("blank name or description"))
	}
	return &Description{
		Name:        name,
		Description: desc,
		Keywords:    normalizeKeywords(parsed.Keywords, singular(coalesce(req.Category, "furniture"))),
		Provider:    modelProviderName,
	}, nil
}

func (m *ModelDescriber) useFallback(ctx context.Context, req Request, reason string, err error) (*Description, error) {
	if m.onFallback != nil {
		m.onFallback(reason, err)
	}
	return m.fallback.Describe(ctx, req)
}

var _ Describer = (*ModelDescriber)(nil)

func buildPrompt(req Request) string {
	locale := coalesce(req.Locale, "en")
	sb := &strings.Builder{}
	sb.WriteString("Write a product name (max 6 words) and a two-sentence description for a furniture design. Respond strictly with JSON matching this schema: ")
	sb.WriteString(`{"name":string,"description":string,"keywords":string[]}`)
	fmt.Fprintf(sb, ". Use locale '%s' for language choices. Input details: brief=%q, category=%q, style=%q.", locale, req.Prompt, req.Category, req.StyleHint)
	return sb.String()
}
