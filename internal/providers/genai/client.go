package genai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"designstudio/internal/domain"
	"designstudio/internal/infra"
)

// ErrNoAPIKey is returned by text calls when no gateway key is configured.
var ErrNoAPIKey = errors.New("genai: api key not configured")

// AssetStore persists decoded image bytes and returns a public URL.
type AssetStore interface {
	Save(ctx context.Context, key string, data []byte) (string, error)
}

// Options controls how the gateway client is configured.
type Options struct {
	APIKey     string
	BaseURL    string
	ImageModel string
	TextModel  string
	HTTPClient *http.Client
	Store      AssetStore
	Logger     *infra.Logger
}

// Client talks to an OpenAI-compatible AI gateway for image generation,
// image edits and short text completions. Without an API key images are
// rendered locally as deterministic placeholders so development setups keep
// working end to end.
type Client struct {
	apiKey     string
	baseURL    string
	imageModel string
	textModel  string
	httpClient *http.Client
	store      AssetStore
	logger     *infra.Logger
}

// ImageRequest describes one image generation or edit.
type ImageRequest struct {
	Prompt         string
	StyleHint      string
	SourceImageURL string
	// KeyPrefix groups persisted assets, e.g. "designs/<batch>".
	KeyPrefix string
	RequestID string
}

// TextRequest is a single system+user completion.
type TextRequest struct {
	System string
	User   string
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageRef `json:"image_url,omitempty"`
}

type imageRef struct {
	URL string `json:"url"`
}

type chatRequest struct {
	Model      string        `json:"model"`
	Messages   []chatMessage `json:"messages"`
	Modalities []string      `json:"modalities,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content json.RawMessage `json:"content"`
			Images  []struct {
				Type     string   `json:"type"`
				ImageURL imageRef `json:"image_url"`
			} `json:"images"`
		} `json:"message"`
	} `json:"choices"`
}

// NewClient constructs a gateway client with sane defaults.
func NewClient(opts Options) (*Client, error) {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 120 * time.Second}
	}

	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = "https://ai.gateway.lovable.dev/v1"
	}

	imageModel := strings.TrimSpace(opts.ImageModel)
	if imageModel == "" {
		imageModel = "google/gemini-2.5-flash-image-preview"
	}
	textModel := strings.TrimSpace(opts.TextModel)
	if textModel == "" {
		textModel = "google/gemini-2.5-flash"
	}

	return &Client{
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    baseURL,
		imageModel: imageModel,
		textModel:  textModel,
		httpClient: client,
		store:      opts.Store,
		logger:     infra.LoggerOrDiscard(opts.Logger),
	}, nil
}

// HasAPIKey reports whether remote calls are enabled.
func (c *Client) HasAPIKey() bool { return c.apiKey != "" }

// TextModel returns the configured text model identifier.
func (c *Client) TextModel() string { return c.textModel }

// GenerateImage returns the URL of one generated image. When
// SourceImageURL is set the source image is attached and the prompt is
// treated as an edit instruction.
func (c *Client) GenerateImage(ctx context.Context, req ImageRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return "", fmt.Errorf("genai: %w: prompt is required", domain.ErrInvalidInput)
	}

	if c.apiKey == "" {
		return c.syntheticImage(ctx, req)
	}

	text := buildImagePrompt(req)
	var content any = text
	if src := strings.TrimSpace(req.SourceImageURL); src != "" {
		content = []contentPart{
			{Type: "text", Text: text},
			{Type: "image_url", ImageURL: &imageRef{URL: src}},
		}
	}
	payload := chatRequest{
		Model:      c.imageModel,
		Messages:   []chatMessage{{Role: "user", Content: content}},
		Modalities: []string{"image", "text"},
	}

	var resp chatResponse
	if err := c.invoke(ctx, payload, &resp); err != nil {
		return "", err
	}

	var imageURL string
	for _, choice := range resp.Choices {
		for _, img := range choice.Message.Images {
			if u := strings.TrimSpace(img.ImageURL.URL); u != "" {
				imageURL = u
				break
			}
		}
		if imageURL != "" {
			break
		}
	}
	if imageURL == "" {
		return "", fmt.Errorf("genai: %w", domain.ErrEmptyImage)
	}

	if strings.HasPrefix(imageURL, "data:") {
		return c.persistDataURL(ctx, req, imageURL)
	}

	c.logger.Debug().
		Str("request_id", req.RequestID).
		Str("model", c.imageModel).
		Msg("genai: generated remote image")
	return imageURL, nil
}

// GenerateText returns the assistant text for a single completion.
func (c *Client) GenerateText(ctx context.Context, req TextRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if c.apiKey == "" {
		return "", ErrNoAPIKey
	}

	var messages []chatMessage
	if s := strings.TrimSpace(req.System); s != "" {
		messages = append(messages, chatMessage{Role: "system", Content: s})
	}
	messages = append(messages, chatMessage{Role: "user", Content: strings.TrimSpace(req.User)})

	var resp chatResponse
	if err := c.invoke(ctx, chatRequest{Model: c.textModel, Messages: messages}, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("genai: %w: empty choices", domain.ErrProviderFailure)
	}
	text := strings.TrimSpace(decodeContent(resp.Choices[0].Message.Content))
	if text == "" {
		return "", fmt.Errorf("genai: %w: empty text response", domain.ErrProviderFailure)
	}
	return text, nil
}

func (c *Client) invoke(ctx context.Context, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("genai: marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("genai: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("genai: %w: %w", domain.ErrProviderFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return statusError(resp.StatusCode, data)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("genai: %w: decode response: %w", domain.ErrProviderFailure, err)
	}
	return nil
}

func (c *Client) persistDataURL(ctx context.Context, req ImageRequest, dataURL string) (string, error) {
	data, mime, err := decodeDataURL(dataURL)
	if err != nil {
		return "", fmt.Errorf("genai: %w: %w", domain.ErrEmptyImage, err)
	}
	if c.store == nil {
		return dataURL, nil
	}
	key := assetKey(req, extensionFor(mime))
	url, err := c.store.Save(ctx, key, data)
	if err != nil {
		return "", fmt.Errorf("genai: persist image: %w", err)
	}
	c.logger.Debug().
		Str("request_id", req.RequestID).
		Str("model", c.imageModel).
		Str("key", key).
		Msg("genai: persisted inline image")
	return url, nil
}

// decodeContent accepts either a plain string or an array of text parts.
func decodeContent(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var parts []contentPart
	if err := json.Unmarshal(raw, &parts); err == nil {
		var b strings.Builder
		for _, p := range parts {
			if p.Type == "text" {
				b.WriteString(p.Text)
			}
		}
		return b.String()
	}
	return ""
}

func decodeDataURL(v string) ([]byte, string, error) {
	rest, ok := strings.CutPrefix(v, "data:")
	if !ok {
		return nil, "", errors.New("not a data url")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, "", errors.New("malformed data url")
	}
	mime, isBase64 := strings.CutSuffix(meta, ";base64")
	if !isBase64 {
		return nil, "", errors.New("data url is not base64")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("decode data url: %w", err)
	}
	if len(data) == 0 {
		return nil, "", errors.New("empty data url")
	}
	return data, mime, nil
}

func extensionFor(mime string) string {
	switch strings.ToLower(mime) {
	case "image/jpeg", "image/jpg":
		return "jpg"
	case "image/webp":
		return "webp"
	default:
		return "png"
	}
}

func buildImagePrompt(req ImageRequest) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(req.Prompt))
	if hint := strings.TrimSpace(req.StyleHint); hint != "" {
		b.WriteString("\nStyle: ")
		b.WriteString(hint)
	}
	return b.String()
}
