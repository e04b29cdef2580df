package domain

// Complexity is a coarse manufacturing difficulty tier.
type Complexity string

const (
	ComplexityLow    Complexity = "low"
	ComplexityMedium Complexity = "medium"
	ComplexityHigh   Complexity = "high"
)

// ParseComplexity normalizes free-form model output into a known tier.
func ParseComplexity(v string) (Complexity, bool) {
	switch Complexity(v) {
	case ComplexityLow, ComplexityMedium, ComplexityHigh:
		return Complexity(v), true
	default:
		return "", false
	}
}

// PricingResult is produced once per generation batch and attached to every
// variation for later price computation.
type PricingResult struct {
	Complexity        Complexity `json:"complexity"`
	PricePerCubicFoot float64    `json:"price_per_cubic_foot"`
	Reasoning         string     `json:"reasoning"`
	Source            string     `json:"source,omitempty"`
}

// Candidate is one generated design variation.
type Candidate struct {
	ID          string        `json:"id"`
	Index       int           `json:"index"`
	StyleHint   string        `json:"style_hint"`
	ImageURL    string        `json:"image_url"`
	ModelURL    string        `json:"model_url,omitempty"`
	ModelTaskID string        `json:"model_task_id,omitempty"`
	Pricing     PricingResult `json:"pricing"`
	// Recolors memoizes recolor results as color -> finish -> image URL.
	Recolors map[string]map[string]string `json:"recolors,omitempty"`
}

// RecolorURL returns the memoized image for the color/finish pair.
func (c *Candidate) RecolorURL(color, finish string) (string, bool) {
	if c == nil || c.Recolors == nil {
		return "", false
	}
	finishes, ok := c.Recolors[color]
	if !ok {
		return "", false
	}
	url, ok := finishes[finish]
	return url, ok && url != ""
}

// SetRecolorURL stores a recolor result in the memo map.
func (c *Candidate) SetRecolorURL(color, finish, url string) {
	if c.Recolors == nil {
		c.Recolors = make(map[string]map[string]string)
	}
	if c.Recolors[color] == nil {
		c.Recolors[color] = make(map[string]string)
	}
	c.Recolors[color][finish] = url
}
