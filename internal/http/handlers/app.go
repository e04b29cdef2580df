package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"designstudio/internal/domain"
	"designstudio/internal/infra"
	"designstudio/internal/middleware"
	"designstudio/internal/studio"
)

const maxBodyBytes = 1 << 20

type App struct {
	Studio  *studio.Orchestrator
	Tracker *studio.Tracker
	Logger  *infra.Logger
	// Ping reports data store health; nil skips the check.
	Ping func(ctx context.Context) error
}

func NewApp(orch *studio.Orchestrator, tracker *studio.Tracker, logger *infra.Logger) *App {
	return &App{Studio: orch, Tracker: tracker, Logger: infra.LoggerOrDiscard(logger)}
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Retryable bool           `json:"retryable,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, status int, code, message string) {
	a.json(w, status, errorBody{Error: errorDetail{Code: code, Message: message}})
}

// fail maps domain errors onto HTTP statuses and error codes.
func (a *App) fail(w http.ResponseWriter, r *http.Request, err error) {
	detail := errorDetail{Code: "internal", Message: "internal error"}
	status := http.StatusInternalServerError

	var credits *domain.InsufficientCreditsError
	switch {
	case errors.As(err, &credits) && credits.Cause != nil:
		// The balance could not be read; this is not an empty balance.
		status, detail.Code = http.StatusServiceUnavailable, "credits_unavailable"
		detail.Message = "credit balance is temporarily unavailable, try again shortly"
		detail.Retryable = true
	case errors.As(err, &credits):
		status, detail.Code = http.StatusPaymentRequired, "insufficient_credits"
		detail.Message = "not enough credits to generate designs"
		detail.Details = map[string]any{"balance": credits.Balance, "credits_needed": credits.CreditsNeeded}
	case errors.Is(err, domain.ErrInvalidDimensions), errors.Is(err, domain.ErrInvalidInput):
		status, detail.Code, detail.Message = http.StatusBadRequest, "bad_request", err.Error()
	case errors.Is(err, domain.ErrRateLimited):
		status, detail.Code = http.StatusTooManyRequests, "rate_limited"
		detail.Message = "image service is busy, try again shortly"
		detail.Retryable = true
	case errors.Is(err, domain.ErrQuotaExhausted):
		status, detail.Code = http.StatusServiceUnavailable, "ai_quota_depleted"
		detail.Message = "AI credits for the service are depleted"
	case errors.Is(err, domain.ErrNotFound):
		status, detail.Code, detail.Message = http.StatusNotFound, "not_found", "not found"
	case errors.Is(err, domain.ErrUnauthorized):
		status, detail.Code, detail.Message = http.StatusUnauthorized, "unauthorized", "unauthorized"
	case errors.Is(err, domain.ErrEmptyImage), errors.Is(err, domain.ErrProviderFailure):
		status, detail.Code, detail.Message = http.StatusBadGateway, "provider_failure", err.Error()
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status, detail.Code, detail.Message = http.StatusGatewayTimeout, "timeout", "request canceled"
	}

	evt := a.Logger.Warn()
	if status >= http.StatusInternalServerError {
		evt = a.Logger.Error()
	}
	evt.Err(err).
		Str("path", r.URL.Path).
		Str("request_id", middleware.RequestIDFromContext(r.Context())).
		Int("status", status).
		Msg("request failed")
	a.json(w, status, errorBody{Error: detail})
}

func (a *App) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return false
	}
	return true
}

func (a *App) currentUserID(r *http.Request) string {
	return middleware.UserIDFromContext(r.Context())
}

// requireUser writes 401 and returns "" when the request has no user.
func (a *App) requireUser(w http.ResponseWriter, r *http.Request) string {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
	}
	return userID
}

// dimension accepts a JSON number or string so form values can be passed
// through unchanged.
type dimension string

func (d *dimension) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if raw == "null" {
		*d = ""
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		s, err := strconv.Unquote(raw)
		if err != nil {
			return err
		}
		*d = dimension(s)
		return nil
	}
	if _, err := strconv.ParseFloat(raw, 64); err != nil {
		return err
	}
	*d = dimension(raw)
	return nil
}
