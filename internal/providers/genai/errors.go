package genai

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"designstudio/internal/domain"
)

type gatewayError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
	Message string `json:"message"`
}

// statusError maps gateway HTTP failures onto domain errors. 429 is
// retryable, 402 means the workspace quota is depleted.
func statusError(status int, body []byte) error {
	msg := errorMessage(body)
	var kind error
	switch status {
	case http.StatusTooManyRequests:
		kind = domain.ErrRateLimited
	case http.StatusPaymentRequired:
		kind = domain.ErrQuotaExhausted
	default:
		kind = domain.ErrProviderFailure
	}
	if msg == "" {
		return fmt.Errorf("genai: %w (status %d)", kind, status)
	}
	return fmt.Errorf("genai: %w (status %d): %s", kind, status, msg)
}

func errorMessage(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var parsed gatewayError
	if err := json.Unmarshal(body, &parsed); err == nil {
		if parsed.Error.Message != "" {
			return parsed.Error.Message
		}
		if parsed.Message != "" {
			return parsed.Message
		}
	}
	return strings.TrimSpace(string(body))
}
