package domain

import "time"

// SubmissionStatus enumerates review states owned by the external workflow.
type SubmissionStatus string

const (
	SubmissionPendingReview SubmissionStatus = "pending_review"
)

// PriceSource records where a submission's base price came from.
type PriceSource string

const (
	// PriceQuoted is a client-supplied base price that fell inside the band.
	PriceQuoted PriceSource = "quoted"
	// PriceRecomputed is a base price the calculator produced on submit.
	PriceRecomputed PriceSource = "recomputed"
)

// Submission is the final record persisted once a designer confirms a
// variation and enters dimensions.
type Submission struct {
	ID           string           `json:"id"`
	UserID       string           `json:"user_id"`
	Name         string           `json:"name"`
	Description  string           `json:"description"`
	Category     string           `json:"category"`
	BasePrice    float64          `json:"base_price"`
	PriceSource  PriceSource      `json:"price_source"`
	SellingPrice float64          `json:"selling_price"`
	LengthIn     float64          `json:"length_in"`
	BreadthIn    float64          `json:"breadth_in"`
	HeightIn     float64          `json:"height_in"`
	ImageURL     string           `json:"image_url"`
	ModelURL     string           `json:"model_url,omitempty"`
	Status       SubmissionStatus `json:"status"`
	CreatedAt    time.Time        `json:"created_at"`
}
