package pricing

import "math"

const (
	MinPricePerCubicFoot     = 9000.0
	MaxPricePerCubicFoot     = 25000.0
	DefaultPricePerCubicFoot = 12000.0
)

// ClampPricePerCubicFoot bounds an estimator suggestion to the global range.
// NaN maps to the default.
func ClampPricePerCubicFoot(v float64) float64 {
	if math.IsNaN(v) {
		return DefaultPricePerCubicFoot
	}
	return math.Min(MaxPricePerCubicFoot, math.Max(MinPricePerCubicFoot, v))
}
