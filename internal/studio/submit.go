package studio

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"designstudio/internal/domain"
	"designstudio/internal/pricing"
	"designstudio/internal/providers/describer"
)

const maxNameLength = 120

// QuoteRequest prices a design at given dimensions. When Pricing is nil the
// estimator runs on Description.
type QuoteRequest struct {
	Category    string
	Length      string
	Breadth     string
	Height      string
	Pricing     *domain.PricingResult
	Description string
}

// Quote computes the base price for a design. Dimensions are validated
// before any external call.
func (o *Orchestrator) Quote(ctx context.Context, req QuoteRequest) (*pricing.Quote, error) {
	dims, err := pricing.ParseDimensions(req.Length, req.Breadth, req.Height)
	if err != nil {
		return nil, err
	}
	result := o.resolvePricing(ctx, req.Pricing, req.Description)
	q := o.calculator.Quote(req.Category, dims, result)
	return &q, nil
}

func (o *Orchestrator) resolvePricing(ctx context.Context, p *domain.PricingResult, description string) domain.PricingResult {
	if p != nil && p.PricePerCubicFoot > 0 {
		result := *p
		if _, ok := domain.ParseComplexity(string(result.Complexity)); !ok {
			result.Complexity = domain.ComplexityMedium
		}
		return result
	}
	return o.estimator.Estimate(ctx, description)
}

// SubmitRequest is the designer's final confirmation of a variation.
type SubmitRequest struct {
	UserID      string
	Name        string
	Description string
	Category    string
	Length      string
	Breadth     string
	Height      string
	// BasePrice is the price the designer was quoted. It is honored when it
	// lies inside the band for these dimensions, otherwise recomputed.
	BasePrice    float64
	SellingPrice float64
	Candidate    domain.Candidate
	Prompt       string
	Locale       string
}

// Submit validates and persists a submission in pending_review.
func (o *Orchestrator) Submit(ctx context.Context, req SubmitRequest) (*domain.Submission, error) {
	if strings.TrimSpace(req.UserID) == "" {
		return nil, fmt.Errorf("studio: %w: user id is required", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(req.Category) == "" {
		return nil, fmt.Errorf("studio: %w: category is required", domain.ErrInvalidInput)
	}
	imageURL := strings.TrimSpace(req.Candidate.ImageURL)
	if imageURL == "" {
		return nil, fmt.Errorf("studio: %w: image url is required", domain.ErrInvalidInput)
	}
	name := strings.TrimSpace(req.Name)
	if utf8.RuneCountInString(name) > maxNameLength {
		return nil, fmt.Errorf("studio: %w: name exceeds %d characters", domain.ErrInvalidInput, maxNameLength)
	}
	if math.IsNaN(req.SellingPrice) || math.IsInf(req.SellingPrice, 0) || req.SellingPrice < 0 {
		return nil, fmt.Errorf("studio: %w: invalid selling price", domain.ErrInvalidInput)
	}
	dims, err := pricing.ParseDimensions(req.Length, req.Breadth, req.Height)
	if err != nil {
		return nil, err
	}
	if o.submissions == nil {
		return nil, errors.New("studio: submissions store not configured")
	}

	category := pricing.NormalizeCategory(req.Category)
	basePrice := math.Round(req.BasePrice)
	priceSource := domain.PriceQuoted
	band := pricing.LookupBand(category, dims.CubicFeet())
	if basePrice <= 0 || !band.Contains(basePrice) {
		result := o.resolvePricing(ctx, &req.Candidate.Pricing, coalesce(req.Description, req.Prompt))
		basePrice = o.calculator.Quote(category, dims, result).BasePrice
		priceSource = domain.PriceRecomputed
	}

	selling := math.Round(req.SellingPrice)
	if selling == 0 {
		selling = math.Round(basePrice * o.calculator.Markup)
	}
	if selling < basePrice {
		return nil, fmt.Errorf("studio: %w: selling price %.0f is below base price %.0f", domain.ErrInvalidInput, selling, basePrice)
	}

	description := strings.TrimSpace(req.Description)
	if name == "" || description == "" {
		listing, err := o.describer.Describe(ctx, describer.Request{
			Prompt:    req.Prompt,
			Category:  category,
			StyleHint: req.Candidate.StyleHint,
			Locale:    req.Locale,
		})
		if err != nil {
			listing, _ = describer.NewStaticDescriber().Describe(ctx, describer.Request{Prompt: req.Prompt, Category: category})
		}
		name = coalesce(name, listing.Name)
		description = coalesce(description, listing.Description)
	}

	sub := &domain.Submission{
		UserID:       req.UserID,
		Name:         name,
		Description:  description,
		Category:     category,
		BasePrice:    basePrice,
		PriceSource:  priceSource,
		SellingPrice: selling,
		LengthIn:     dims.LengthIn,
		BreadthIn:    dims.BreadthIn,
		HeightIn:     dims.HeightIn,
		ImageURL:     imageURL,
		ModelURL:     strings.TrimSpace(req.Candidate.ModelURL),
		Status:       domain.SubmissionPendingReview,
	}
	if err := o.submissions.Create(ctx, sub); err != nil {
		return nil, fmt.Errorf("studio: create submission: %w", err)
	}
	o.logger.Info().
		Str("user_id", sub.UserID).
		Str("submission_id", sub.ID).
		Float64("base_price", sub.BasePrice).
		Str("price_source", string(sub.PriceSource)).
		Float64("selling_price", sub.SellingPrice).
		Msg("studio: submission created")
	return sub, nil
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

// LookupSubmission returns a submission owned by userID.
func (o *Orchestrator) LookupSubmission(ctx context.Context, userID, id string) (*domain.Submission, error) {
	if o.submissions == nil {
		return nil, domain.ErrNotFound
	}
	sub, err := o.submissions.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return nil, err
	}
	if sub.UserID != userID {
		return nil, domain.ErrNotFound
	}
	return sub, nil
}
