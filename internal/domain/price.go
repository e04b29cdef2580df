package domain

// PriceBand is the guideline [Min, Max] base price for a category and
// volume bucket. MaxCubicFeet is the inclusive upper edge of the bucket.
type PriceBand struct {
	Category     string  `json:"category"`
	MaxCubicFeet float64 `json:"max_cubic_feet"`
	Min          float64 `json:"min"`
	Max          float64 `json:"max"`
}

// Contains reports whether v lies within the band, inclusive.
func (b PriceBand) Contains(v float64) bool {
	return v >= b.Min && v <= b.Max
}

// Span returns Max - Min.
func (b PriceBand) Span() float64 {
	return b.Max - b.Min
}
