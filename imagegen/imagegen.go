// Package imagegen composes deterministic URLs against a remote image
// generator and opportunistically fills slide image URLs. Everything here
// is best effort: a broken image never aborts a deck, so no method of this
// package returns an error.
package imagegen

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/charmbracelet/log"

	"smartslide/deck"
)

const (
	probeTimeout = 10 * time.Second
	// defaultDelay paces consecutive requests to respect the upstream.
	defaultDelay = 500 * time.Millisecond
)

// styleHint maps a style tag to a model hint and a prefix phrase that
// biases the generator toward that look.
type styleHint struct {
	model  string
	prefix string
}

var styleHints = map[string]styleHint{
	"professional":   {model: "flux", prefix: "professional, clean, corporate, high quality, "},
	"minimalist":     {model: "flux", prefix: "minimalist, simple shapes, flat design, "},
	"colorful":       {model: "flux", prefix: "vibrant colors, dynamic composition, "},
	"3d":             {model: "flux-3d", prefix: "3d render, volumetric lighting, "},
	"illustration":   {model: "flux-anime", prefix: "digital illustration, stylized, "},
	"photorealistic": {model: "flux-realism", prefix: "photorealistic, detailed, natural light, "},
}

// Client talks to the remote image generator. A nil client, or one with an
// empty host, is a valid "images disabled" client.
type Client struct {
	host       string
	token      string
	httpClient *http.Client
	delay      time.Duration
	logger     *log.Logger
}

// New creates an image client. host may be empty to disable enrichment.
func New(host, token string, logger *log.Logger) *Client {
	return &Client{
		host:       host,
		token:      token,
		httpClient: &http.Client{Timeout: probeTimeout},
		delay:      defaultDelay,
		logger:     logger,
	}
}

// Enabled reports whether the client can produce URLs.
func (c *Client) Enabled() bool {
	return c != nil && c.host != ""
}

// ImageURL composes the generator URL for one prompt. The URL is returned
// even when the liveness probe fails, because the generator synthesizes on
// demand. Returns "" for an empty prompt or a disabled client.
func (c *Client) ImageURL(ctx context.Context, prompt string, width, height int, style string) string {
	if !c.Enabled() || prompt == "" {
		return ""
	}

	hint, ok := styleHints[style]
	if !ok {
		hint = styleHint{model: "flux"}
	}

	q := url.Values{}
	q.Set("width", strconv.Itoa(width))
	q.Set("height", strconv.Itoa(height))
	q.Set("model", hint.model)
	q.Set("nologo", "true")
	q.Set("enhance", "true")
	if c.token != "" {
		q.Set("token", c.token)
	}

	// The whole prompt is one path segment; PathEscape keeps slashes in
	// the prompt from splitting it.
	segment := url.PathEscape(hint.prefix + prompt)
	u := url.URL{
		Scheme:   "https",
		Host:     c.host,
		Path:     "/prompt/" + hint.prefix + prompt,
		RawPath:  "/prompt/" + segment,
		RawQuery: q.Encode(),
	}
	imageURL := u.String()

	c.probe(ctx, imageURL)
	return imageURL
}

// probe issues a best-effort HEAD request. Failure is logged and ignored.
func (c *Client) probe(ctx context.Context, imageURL string) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, imageURL, nil)
	if err != nil {
		c.logger.Warn("image probe request failed", "err", err)
		return
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("image probe failed", "err", err)
		return
	}
	resp.Body.Close()
	if resp.StatusCode >= 400 {
		c.logger.Warn("image probe returned error status", "status", resp.StatusCode)
	}
}

// imageSize picks generator dimensions matching the page orientation.
func imageSize(ptype deck.PresentationType) (width, height int) {
	switch ptype {
	case deck.Tall:
		return 720, 1280
	case deck.Traditional:
		return 1024, 768
	default:
		return 1280, 720
	}
}

// EnrichOutline fills ImageURL for every slide that carries an image
// prompt, pacing consecutive generator requests. The outline is modified
// in place and also returned for convenience.
func (c *Client) EnrichOutline(ctx context.Context, outline deck.Outline, style string, ptype deck.PresentationType) deck.Outline {
	if !c.Enabled() {
		return outline
	}
	width, height := imageSize(ptype)

	requested := 0
	for i := range outline {
		if outline[i].ImagePrompt == "" {
			continue
		}
		if requested > 0 {
			select {
			case <-time.After(c.delay):
			case <-ctx.Done():
				return outline
			}
		}
		outline[i].ImageURL = c.ImageURL(ctx, outline[i].ImagePrompt, width, height, style)
		requested++
	}
	return outline
}
