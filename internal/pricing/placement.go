package pricing

import (
	"math"
	"math/rand/v2"
	"sync"

	"designstudio/internal/domain"
)

const (
	jitterMinFraction    = 0.10
	jitterMaxFraction    = 0.20
	insideJitterFraction = 0.05
	repositionFraction   = 0.40
)

// PlacementBranch records which rule positioned the final price.
type PlacementBranch string

const (
	BranchInside PlacementBranch = "inside"
	BranchBelow  PlacementBranch = "below"
	BranchAbove  PlacementBranch = "above"
)

// Placement is the outcome of dynamic price placement.
type Placement struct {
	BasePrice         float64          `json:"base_price"`
	RawCost           float64          `json:"raw_cost"`
	PricePerCubicFoot float64          `json:"price_per_cubic_foot"`
	Band              domain.PriceBand `json:"band"`
	Branch            PlacementBranch  `json:"branch"`
}

// Placer positions a raw cost inside a category band with randomized
// variation. Out-of-band costs are repositioned into the lower or upper 40%
// of the band rather than pinned to its edge.
type Placer struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewPlacer returns a Placer drawing from rnd. A nil rnd uses a randomly
// seeded source.
func NewPlacer(rnd *rand.Rand) *Placer {
	if rnd == nil {
		rnd = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Placer{rnd: rnd}
}

// NewSeededPlacer returns a deterministic Placer.
func NewSeededPlacer(seed uint64) *Placer {
	return NewPlacer(rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)))
}

func (p *Placer) float64() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rnd.Float64()
}

// Place computes the final base price for the given unit price and volume.
func (p *Placer) Place(pricePerCubicFoot, cubicFeet float64, band domain.PriceBand) Placement {
	magnitude := jitterMinFraction + p.float64()*(jitterMaxFraction-jitterMinFraction)
	if p.float64() < 0.5 {
		magnitude = -magnitude
	}
	adjusted := pricePerCubicFoot * (1 + magnitude)
	raw := adjusted * cubicFeet

	out := Placement{
		RawCost:           raw,
		PricePerCubicFoot: adjusted,
		Band:              band,
	}

	span := band.Span()
	switch {
	case raw < band.Min || math.IsNaN(raw):
		out.Branch = BranchBelow
		out.BasePrice = band.Min + span*repositionFraction*p.float64()
	case raw > band.Max:
		out.Branch = BranchAbove
		out.BasePrice = band.Max - span*repositionFraction*p.float64()
	default:
		out.Branch = BranchInside
		u := (p.float64()*2 - 1) * insideJitterFraction
		out.BasePrice = clampToBand(raw*(1+u), band)
	}
	out.BasePrice = clampToBand(math.Round(out.BasePrice), band)
	return out
}

func clampToBand(v float64, band domain.PriceBand) float64 {
	return math.Min(band.Max, math.Max(band.Min, v))
}
