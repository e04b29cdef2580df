// Package meshy is a client for the Meshy image-to-3D API.
package meshy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"designstudio/internal/domain"
	"designstudio/internal/infra"
)

// ErrNoAPIKey is returned when no Meshy key is configured.
var ErrNoAPIKey = fmt.Errorf("meshy: %w: api key not configured", domain.ErrProviderFailure)

// Remote task states.
const (
	StatusPending    = "PENDING"
	StatusInProgress = "IN_PROGRESS"
	StatusSucceeded  = "SUCCEEDED"
	StatusFailed     = "FAILED"
	StatusExpired    = "EXPIRED"
	StatusCanceled   = "CANCELED"
)

const imageTo3DPath = "/openapi/v1/image-to-3d"

type Options struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
	Logger     *infra.Logger
}

type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *infra.Logger
}

// Task is the polled state of a reconstruction task.
type Task struct {
	ID       string
	Status   string
	Progress int
	ModelURL string
	Error    string
}

// Succeeded reports whether the task finished with a usable asset.
func (t Task) Succeeded() bool {
	return t.Status == StatusSucceeded && t.ModelURL != ""
}

// Failed reports whether the remote service gave up on the task.
func (t Task) Failed() bool {
	switch t.Status {
	case StatusFailed, StatusExpired, StatusCanceled:
		return true
	}
	return false
}

type submitRequest struct {
	ImageURL      string `json:"image_url"`
	EnablePBR     bool   `json:"enable_pbr"`
	ShouldRemesh  bool   `json:"should_remesh"`
	ShouldTexture bool   `json:"should_texture"`
}

type submitResponse struct {
	Result string `json:"result"`
}

type taskResponse struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	Progress  int    `json:"progress"`
	ModelURLs struct {
		GLB string `json:"glb"`
	} `json:"model_urls"`
	TaskError struct {
		Message string `json:"message"`
	} `json:"task_error"`
}

type errorResponse struct {
	Message string `json:"message"`
}

func NewClient(opts Options) *Client {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = "https://api.meshy.ai"
	}
	return &Client{
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    baseURL,
		httpClient: client,
		logger:     infra.LoggerOrDiscard(opts.Logger),
	}
}

// Submit starts a textured, remeshed PBR reconstruction of imageURL and
// returns the task ID.
func (c *Client) Submit(ctx context.Context, imageURL string) (string, error) {
	if c.apiKey == "" {
		return "", ErrNoAPIKey
	}
	imageURL = strings.TrimSpace(imageURL)
	if imageURL == "" {
		return "", fmt.Errorf("meshy: %w: image url is required", domain.ErrInvalidInput)
	}
	body, err := json.Marshal(submitRequest{
		ImageURL:      imageURL,
		EnablePBR:     true,
		ShouldRemesh:  true,
		ShouldTexture: true,
	})
	if err != nil {
		return "", fmt.Errorf("meshy: marshal request: %w", err)
	}

	var out submitResponse
	if err := c.do(ctx, http.MethodPost, c.baseURL+imageTo3DPath, body, &out); err != nil {
		return "", err
	}
	if strings.TrimSpace(out.Result) == "" {
		return "", fmt.Errorf("meshy: %w: empty task id", domain.ErrProviderFailure)
	}
	c.logger.Debug().Str("task_id", out.Result).Msg("meshy: submitted image-to-3d task")
	return out.Result, nil
}

// Poll fetches the current state of taskID.
func (c *Client) Poll(ctx context.Context, taskID string) (Task, error) {
	if c.apiKey == "" {
		return Task{}, ErrNoAPIKey
	}
	var out taskResponse
	endpoint := c.baseURL + imageTo3DPath + "/" + url.PathEscape(taskID)
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &out); err != nil {
		return Task{}, err
	}
	task := Task{
		ID:       coalesce(out.ID, taskID),
		Status:   strings.ToUpper(strings.TrimSpace(out.Status)),
		Progress: out.Progress,
		ModelURL: strings.TrimSpace(out.ModelURLs.GLB),
		Error:    out.TaskError.Message,
	}
	return task, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("meshy: create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("meshy: %w: %w", domain.ErrProviderFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return statusError(resp.StatusCode, data)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("meshy: %w: decode response: %w", domain.ErrProviderFailure, err)
	}
	return nil
}

func statusError(status int, body []byte) error {
	var kind error
	switch status {
	case http.StatusTooManyRequests:
		kind = domain.ErrRateLimited
	case http.StatusPaymentRequired:
		kind = domain.ErrQuotaExhausted
	case http.StatusNotFound:
		kind = domain.ErrNotFound
	default:
		kind = domain.ErrProviderFailure
	}
	msg := strings.TrimSpace(string(body))
	var parsed errorResponse
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Message != "" {
		msg = parsed.Message
	}
	if msg == "" {
		return fmt.Errorf("meshy: %w (status %d)", kind, status)
	}
	return fmt.Errorf("meshy: %w (status %d): %s", kind, status, msg)
}

func coalesce(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// IsNoAPIKey reports whether err came from a client without credentials.
func IsNoAPIKey(err error) bool {
	return errors.Is(err, ErrNoAPIKey)
}
