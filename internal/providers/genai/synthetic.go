package genai

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strconv"
	"strings"

	"designstudio/internal/domain"
)

const syntheticSize = 512

// syntheticImage renders a deterministic placeholder derived from the prompt,
// style hint and source image so identical requests map to identical files.
func (c *Client) syntheticImage(ctx context.Context, req ImageRequest) (string, error) {
	seed := deterministicSeed(req.Prompt, req.StyleHint, req.SourceImageURL)
	data := renderSyntheticImage(syntheticSize, syntheticSize, seed)
	if len(data) == 0 {
		return "", fmt.Errorf("genai: %w: render placeholder", domain.ErrEmptyImage)
	}

	if c.store == nil {
		return "data:image/png;base64," + base64.StdEncoding.EncodeToString(data), nil
	}
	key := assetPath(req.KeyPrefix, seed, "png")
	url, err := c.store.Save(ctx, key, data)
	if err != nil {
		return "", fmt.Errorf("genai: persist placeholder: %w", err)
	}

	c.logger.Debug().
		Str("request_id", req.RequestID).
		Str("seed", seed).
		Msg("genai: generated synthetic image")
	return url, nil
}

func assetKey(req ImageRequest, ext string) string {
	return assetPath(req.KeyPrefix, deterministicSeed(req.Prompt, req.StyleHint, req.SourceImageURL, req.RequestID), ext)
}

func assetPath(prefix, name, ext string) string {
	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		prefix = "designs"
	}
	return fmt.Sprintf("%s/%s.%s", prefix, name, ext)
}

func renderSyntheticImage(width, height int, seed string) []byte {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	base := colorFromSeed(seed, 0)
	accent := colorFromSeed(seed, 1)
	draw.Draw(img, img.Bounds(), &image.Uniform{base}, image.Point{}, draw.Src)

	// A centered block stands in for the piece of furniture.
	w, h := width/2, height/3
	body := image.Rect((width-w)/2, height/3, (width+w)/2, height/3+h)
	draw.Draw(img, body, &image.Uniform{accent}, image.Point{}, draw.Over)

	legs := colorFromSeed(seed, 2)
	legW := max(4, w/16)
	for _, x := range []int{body.Min.X, body.Max.X - legW} {
		leg := image.Rect(x, body.Max.Y, x+legW, min(height, body.Max.Y+h/2))
		draw.Draw(img, leg, &image.Uniform{legs}, image.Point{}, draw.Over)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil
	}
	return buf.Bytes()
}

func colorFromSeed(seed string, shift int) color.RGBA {
	if len(seed) < 6 {
		seed = "000000"
	}
	doubled := seed + seed
	start := (shift * 6) % len(seed)
	segment := doubled[start : start+6]
	return color.RGBA{R: parseHexByte(segment[0:2]), G: parseHexByte(segment[2:4]), B: parseHexByte(segment[4:6]), A: 255}
}

func parseHexByte(s string) uint8 {
	v, err := strconv.ParseUint(s, 16, 8)
	if err != nil {
		return 0
	}
	return uint8(v)
}

func deterministicSeed(parts ...string) string {
	hasher := sha256.New()
	for _, part := range parts {
		hasher.Write([]byte(part))
		hasher.Write([]byte{'|'})
	}
	return hex.EncodeToString(hasher.Sum(nil))[:16]
}
