package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"designstudio/internal/domain"
	"designstudio/internal/studio"
)

type startModelRequest struct {
	ImageURL string `json:"image_url"`
}

type modelJobResponse struct {
	domain.ModelJob
	State studio.ModelState `json:"state"`
}

type cancelModelResponse struct {
	TaskID   string `json:"task_id"`
	Canceled bool   `json:"canceled"`
}

func jobResponse(job *domain.ModelJob) modelJobResponse {
	return modelJobResponse{ModelJob: *job, State: studio.ModelStateOf(job)}
}

func (a *App) StartModel(w http.ResponseWriter, r *http.Request) {
	userID := a.requireUser(w, r)
	if userID == "" {
		return
	}
	var req startModelRequest
	if !a.decode(w, r, &req) {
		return
	}
	job, err := a.Tracker.Start(r.Context(), userID, req.ImageURL)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	status := http.StatusAccepted
	if job.Status.Terminal() {
		status = http.StatusOK
	}
	a.json(w, status, jobResponse(job))
}

func (a *App) GetModel(w http.ResponseWriter, r *http.Request) {
	userID := a.requireUser(w, r)
	if userID == "" {
		return
	}
	job, ok := a.ownedJob(w, r, userID)
	if !ok {
		return
	}
	a.json(w, http.StatusOK, jobResponse(job))
}

func (a *App) CancelModel(w http.ResponseWriter, r *http.Request) {
	userID := a.requireUser(w, r)
	if userID == "" {
		return
	}
	job, ok := a.ownedJob(w, r, userID)
	if !ok {
		return
	}
	a.json(w, http.StatusOK, cancelModelResponse{TaskID: job.TaskID, Canceled: a.Tracker.Cancel(job.TaskID)})
}

func (a *App) ownedJob(w http.ResponseWriter, r *http.Request, userID string) (*domain.ModelJob, bool) {
	taskID := strings.TrimSpace(chi.URLParam(r, "task_id"))
	if taskID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "task_id required")
		return nil, false
	}
	job, err := a.Tracker.Get(r.Context(), taskID)
	if err != nil {
		a.fail(w, r, err)
		return nil, false
	}
	if job.UserID != "" && job.UserID != userID {
		a.error(w, http.StatusNotFound, "not_found", "not found")
		return nil, false
	}
	return job, true
}
