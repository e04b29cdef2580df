package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"designstudio/internal/domain"
	"designstudio/internal/middleware"
	"designstudio/internal/studio"
)

type submissionRequest struct {
	Name         string           `json:"name"`
	Description  string           `json:"description"`
	Category     string           `json:"category"`
	Length       dimension        `json:"length"`
	Breadth      dimension        `json:"breadth"`
	Height       dimension        `json:"height"`
	BasePrice    float64          `json:"base_price"`
	SellingPrice float64          `json:"selling_price"`
	Candidate    domain.Candidate `json:"candidate"`
	Prompt       string           `json:"prompt"`
}

func (a *App) CreateSubmission(w http.ResponseWriter, r *http.Request) {
	userID := a.requireUser(w, r)
	if userID == "" {
		return
	}
	var req submissionRequest
	if !a.decode(w, r, &req) {
		return
	}
	sub, err := a.Studio.Submit(r.Context(), studio.SubmitRequest{
		UserID:       userID,
		Name:         req.Name,
		Description:  req.Description,
		Category:     req.Category,
		Length:       string(req.Length),
		Breadth:      string(req.Breadth),
		Height:       string(req.Height),
		BasePrice:    req.BasePrice,
		SellingPrice: req.SellingPrice,
		Candidate:    req.Candidate,
		Prompt:       req.Prompt,
		Locale:       middleware.LocaleFromContext(r.Context()),
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusCreated, sub)
}

func (a *App) GetSubmission(w http.ResponseWriter, r *http.Request) {
	userID := a.requireUser(w, r)
	if userID == "" {
		return
	}
	sub, err := a.Studio.LookupSubmission(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, sub)
}
