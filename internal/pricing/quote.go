package pricing

import (
	"math"

	"designstudio/internal/domain"
)

// Quote is the priced view of a design at specific dimensions.
type Quote struct {
	Category              string               `json:"category"`
	Dimensions            Dimensions           `json:"dimensions"`
	CubicFeet             float64              `json:"cubic_feet"`
	Pricing               domain.PricingResult `json:"pricing"`
	Placement             Placement            `json:"placement"`
	BasePrice             float64              `json:"base_price"`
	SuggestedSellingPrice float64              `json:"suggested_selling_price"`
}

// Calculator composes volume conversion, band lookup and placement.
type Calculator struct {
	Placer *Placer
	// Markup multiplies the base price into a suggested selling price.
	Markup float64
}

// NewCalculator returns a Calculator with the given placer and markup.
func NewCalculator(placer *Placer, markup float64) *Calculator {
	if placer == nil {
		placer = NewPlacer(nil)
	}
	if markup < 1 || math.IsNaN(markup) {
		markup = 1
	}
	return &Calculator{Placer: placer, Markup: markup}
}

// Quote prices a design. The estimator's unit price is clamped before use.
func (c *Calculator) Quote(category string, dims Dimensions, result domain.PricingResult) Quote {
	cf := dims.CubicFeet()
	band := LookupBand(category, cf)
	result.PricePerCubicFoot = ClampPricePerCubicFoot(result.PricePerCubicFoot)
	placement := c.Placer.Place(result.PricePerCubicFoot, cf, band)
	return Quote{
		Category:              band.Category,
		Dimensions:            dims,
		CubicFeet:             cf,
		Pricing:               result,
		Placement:             placement,
		BasePrice:             placement.BasePrice,
		SuggestedSellingPrice: math.Round(placement.BasePrice * c.Markup),
	}
}
