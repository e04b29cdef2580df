package handlers

import (
	"net/http"

	"designstudio/internal/domain"
	"designstudio/internal/middleware"
	"designstudio/internal/pricing"
	"designstudio/internal/studio"
)

type generateRequest struct {
	Prompt    string `json:"prompt"`
	SketchURL string `json:"sketch_url"`
	Category  string `json:"category"`
}

type quoteRequest struct {
	Category    string                `json:"category"`
	Length      dimension             `json:"length"`
	Breadth     dimension             `json:"breadth"`
	Height      dimension             `json:"height"`
	Pricing     *domain.PricingResult `json:"pricing"`
	Description string                `json:"description"`
}

type recolorRequest struct {
	Candidate *domain.Candidate `json:"candidate"`
	Color     string            `json:"color"`
	Finish    string            `json:"finish"`
}

type recolorResponse struct {
	Candidate *domain.Candidate `json:"candidate"`
	ImageURL  string            `json:"image_url"`
}

func (a *App) Categories(w http.ResponseWriter, r *http.Request) {
	cats := pricing.Categories()
	a.json(w, http.StatusOK, map[string]any{"categories": cats})
}

func (a *App) Credits(w http.ResponseWriter, r *http.Request) {
	userID := a.requireUser(w, r)
	if userID == "" {
		return
	}
	status, err := a.Studio.Balance(r.Context(), userID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{
		"balance":           status.Balance,
		"credits_per_batch": a.Studio.Config().CreditsPerBatch,
	})
}

func (a *App) GenerateDesigns(w http.ResponseWriter, r *http.Request) {
	userID := a.requireUser(w, r)
	if userID == "" {
		return
	}
	var req generateRequest
	if !a.decode(w, r, &req) {
		return
	}
	batch, err := a.Studio.GenerateBatch(r.Context(), studio.GenerateRequest{
		UserID:    userID,
		Prompt:    req.Prompt,
		SketchURL: req.SketchURL,
		Category:  req.Category,
		RequestID: middleware.RequestIDFromContext(r.Context()),
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, batch)
}

func (a *App) QuoteDesign(w http.ResponseWriter, r *http.Request) {
	if a.requireUser(w, r) == "" {
		return
	}
	var req quoteRequest
	if !a.decode(w, r, &req) {
		return
	}
	quote, err := a.Studio.Quote(r.Context(), studio.QuoteRequest{
		Category:    req.Category,
		Length:      string(req.Length),
		Breadth:     string(req.Breadth),
		Height:      string(req.Height),
		Pricing:     req.Pricing,
		Description: req.Description,
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, quote)
}

func (a *App) RecolorDesign(w http.ResponseWriter, r *http.Request) {
	userID := a.requireUser(w, r)
	if userID == "" {
		return
	}
	var req recolorRequest
	if !a.decode(w, r, &req) {
		return
	}
	candidate, url, err := a.Studio.Recolor(r.Context(), studio.RecolorRequest{
		UserID:    userID,
		Candidate: req.Candidate,
		Color:     req.Color,
		Finish:    req.Finish,
		RequestID: middleware.RequestIDFromContext(r.Context()),
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, recolorResponse{Candidate: candidate, ImageURL: url})
}
