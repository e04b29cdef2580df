// Package describer produces a listing name and description for a chosen
// design variation.
package describer

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"designstudio/internal/providers/genai"
)

const (
	staticProviderName = "static"
	modelProviderName  = "model"
)

// Request carries what is known about the design.
type Request struct {
	Prompt    string
	Category  string
	StyleHint string
	Locale    string
}

// Description is the generated listing copy.
type Description struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Keywords    []string `json:"keywords,omitempty"`
	Provider    string   `json:"-"`
}

// Describer writes listing copy. Implementations never leave Name or
// Description empty on a nil error.
type Describer interface {
	Describe(ctx context.Context, req Request) (*Description, error)
}

// TextGenerator is the subset of the gateway client used for copywriting.
type TextGenerator interface {
	GenerateText(ctx context.Context, req genai.TextRequest) (string, error)
}

type StaticDescriber struct{}

func NewStaticDescriber() *StaticDescriber {
	return &StaticDescriber{}
}

func (s *StaticDescriber) Describe(ctx context.Context, req Request) (*Description, error) {
	c := cases.Title(localeTag(req.Locale))
	category := singular(coalesce(req.Category, "furniture piece"))
	subject := firstWords(req.Prompt, 4)
	if subject == "" {
		subject = category
	}

	name := c.String(subject)
	if !strings.Contains(strings.ToLower(name), strings.ToLower(category)) {
		name = fmt.Sprintf("%s %s", name, c.String(category))
	}

	desc := fmt.Sprintf("A made-to-order %s", category)
	if hint := strings.TrimSpace(req.StyleHint); hint != "" {
		desc += fmt.Sprintf(" with a %s look", hint)
	}
	if p := strings.TrimSpace(req.Prompt); p != "" {
		desc += fmt.Sprintf(", designed from the brief: %s", p)
	}
	desc += "."

	return &Description{
		Name:        name,
		Description: desc,
		Keywords:    normalizeKeywords([]string{category, req.StyleHint}, "furniture"),
		Provider:    staticProviderName,
	}, nil
}

var _ Describer = (*StaticDescriber)(nil)

func localeTag(locale string) language.Tag {
	tag, err := language.Parse(strings.TrimSpace(locale))
	if err != nil {
		return language.English
	}
	return tag
}

func singular(category string) string {
	category = strings.ToLower(strings.TrimSpace(category))
	switch category {
	case "default":
		return "furniture piece"
	case "storage", "lighting", "decor":
		return category + " piece"
	}
	return strings.TrimSuffix(category, "s")
}

func firstWords(text string, n int) string {
	fields := strings.Fields(text)
	if len(fields) > n {
		fields = fields[:n]
	}
	return strings.Join(fields, " ")
}

func coalesce(values ...string) string {
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			return v
		}
	}
	return ""
}

func normalizeKeywords(keywords []string, fallback string) []string {
	seen := make(map[string]struct{})
	var result []string
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		kwLower := strings.ToLower(kw)
		if _, ok := seen[kwLower]; ok {
			continue
		}
		seen[kwLower] = struct{}{}
		result = append(result, kw)
	}
	if len(result) == 0 && fallback != "" {
		result = []string{fallback}
	}
	return result
}
