package studio

import (
	"context"
	"fmt"
	"strings"
	"time"

	"designstudio/internal/domain"
	"designstudio/internal/providers/genai"
)

// RecolorRequest asks for a color/finish variant of an existing candidate.
type RecolorRequest struct {
	UserID    string
	Candidate *domain.Candidate
	Color     string
	Finish    string
	RequestID string
}

// Recolor returns the candidate with the color/finish variant memoized in
// Recolors. Repeated requests for the same pair are served from the memo
// without a gateway call. Recolors are not charged, but a gateway call is
// only made for a candidate from one of the caller's own stored batches, and
// the source image is the stored one.
func (o *Orchestrator) Recolor(ctx context.Context, req RecolorRequest) (*domain.Candidate, string, error) {
	c := req.Candidate
	if c == nil || strings.TrimSpace(c.ID) == "" {
		return nil, "", fmt.Errorf("studio: %w: candidate is required", domain.ErrInvalidInput)
	}
	color := normalizeSwatch(req.Color)
	finish := normalizeSwatch(req.Finish)
	if color == "" {
		return nil, "", fmt.Errorf("studio: %w: color is required", domain.ErrInvalidInput)
	}
	if finish == "" {
		finish = "matte"
	}

	if url, ok := c.RecolorURL(color, finish); ok {
		return c, url, nil
	}

	stored, err := o.ownedCandidate(ctx, req.UserID, c.ID)
	if err != nil {
		return nil, "", err
	}
	c.ImageURL = stored.ImageURL

	started := o.now()
	url, err := o.images.GenerateImage(ctx, genai.ImageRequest{
		Prompt:         recolorPrompt(color, finish),
		SourceImageURL: c.ImageURL,
		KeyPrefix:      "recolors/" + c.ID,
		RequestID:      req.RequestID,
	})
	if err == nil && strings.TrimSpace(url) == "" {
		err = domain.ErrEmptyImage
	}
	o.recordUsage(ctx, domain.UsageEvent{
		UserID:     req.UserID,
		RequestID:  req.RequestID,
		EventType:  domain.UsageRecolor,
		Success:    err == nil,
		LatencyMS:  int(o.now().Sub(started) / time.Millisecond),
		Properties: map[string]any{"candidate_id": c.ID, "color": color, "finish": finish},
	})
	if err != nil {
		return nil, "", fmt.Errorf("studio: recolor: %w", err)
	}

	c.SetRecolorURL(color, finish, url)
	return c, url, nil
}

func (o *Orchestrator) ownedCandidate(ctx context.Context, userID, candidateID string) (*domain.Candidate, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("studio: %w: user id is required", domain.ErrInvalidInput)
	}
	if o.batches == nil {
		return nil, fmt.Errorf("studio: candidate %s: %w", candidateID, domain.ErrNotFound)
	}
	stored, err := o.batches.GetCandidate(ctx, userID, candidateID)
	if err != nil {
		return nil, fmt.Errorf("studio: candidate %s: %w", candidateID, err)
	}
	if strings.TrimSpace(stored.ImageURL) == "" {
		return nil, fmt.Errorf("studio: %w: candidate has no image", domain.ErrInvalidInput)
	}
	return stored, nil
}

func normalizeSwatch(v string) string {
	return strings.Join(strings.Fields(strings.ToLower(v)), " ")
}

func recolorPrompt(color, finish string) string {
	return fmt.Sprintf("Recolor this furniture piece to %s with a %s finish. Keep the shape, proportions, materials, camera angle and background unchanged.", color, finish)
}
