// Package foodyapi publishes finished recipes to the Foody API server.
package foodyapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/anatolykoptev/go_recipe/internal/engine"
	"github.com/anatolykoptev/go_recipe/internal/engine/recipe"
)

// ErrNotPublishable is returned for results that are not completed.
var ErrNotPublishable = errors.New("only completed recipes are published")

// Client talks to the Foody API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient creates a Foody API client. An empty token sends no Authorization header.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

type metadataPayload struct {
	Title        string `json:"title,omitempty"`
	AuthorName   string `json:"author_name,omitempty"`
	AuthorURL    string `json:"author_url,omitempty"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
	VideoID      string `json:"video_id,omitempty"`
}

type recipePayload struct {
	YouTubeURL       string                    `json:"youtube_url"`
	Title            string                    `json:"title"`
	Metadata         *metadataPayload          `json:"metadata"`
	Ingredients      []recipe.Ingredient       `json:"ingredients"`
	CuisineInfo      *recipe.CuisineAssessment `json:"cuisine_info"`
	Transcript       string                    `json:"transcript"`
	ProcessingStatus recipe.Status             `json:"processing_status"`
}

func payloadOf(r *recipe.RecipeResult) recipePayload {
	p := recipePayload{
		YouTubeURL:       r.SourceReference,
		Title:            r.Title,
		Ingredients:      r.Ingredients,
		CuisineInfo:      r.Cuisine,
		Transcript:       r.Transcript,
		ProcessingStatus: r.Status,
	}
	if m := r.Metadata; m != nil {
		p.Metadata = &metadataPayload{
			Title:        m.Title,
			AuthorName:   m.AuthorName,
			AuthorURL:    m.AuthorURL,
			ThumbnailURL: m.ThumbnailURL,
			VideoID:      m.VideoID,
		}
	}
	return p
}

// Submit sends a completed result to /v1/recipes/from-agent and returns the
// server's response body.
func (c *Client) Submit(ctx context.Context, r *recipe.RecipeResult) (json.RawMessage, error) {
	if r == nil || r.Status != recipe.StatusCompleted {
		return nil, ErrNotPublishable
	}
	resp, err := c.post(ctx, "/v1/recipes/from-agent", payloadOf(r))
	if err != nil {
		return nil, fmt.Errorf("foody submit: %w", err)
	}
	defer resp.Body.Close()

	b, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("foody submit: status %d: %s", resp.StatusCode, engine.TruncateRunes(string(b), 200, "..."))
	}
	if !json.Valid(b) {
		return nil, nil
	}
	return b, nil
}

// Exists asks the server whether a recipe for youtubeURL is already stored.
func (c *Client) Exists(ctx context.Context, youtubeURL string) (bool, error) {
	resp, err := c.post(ctx, "/v1/recipes/check-exists", map[string]string{"youtubeUrl": youtubeURL})
	if err != nil {
		return false, fmt.Errorf("foody check-exists: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return false, fmt.Errorf("foody check-exists: status %d: %s", resp.StatusCode, string(b))
	}
	var out struct {
		Exists bool `json:"exists"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return false, fmt.Errorf("foody check-exists decode: %w", err)
	}
	return out.Exists, nil
}

// Ping checks /health, falling back to the root path where any non-5xx answer counts.
func (c *Client) Ping(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if code, err := c.get(ctx, "/health"); err == nil && code == http.StatusOK {
		return true
	}
	code, err := c.get(ctx, "/")
	return err == nil && code < 500
}

func (c *Client) get(ctx context.Context, path string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return 0, err
	}
	c.setHeaders(req)
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	resp.Body.Close()
	return resp.StatusCode, nil
}

// post retries connection failures and 5xx answers; 4xx is returned as-is.
func (c *Client) post(ctx context.Context, path string, body any) (*http.Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	return engine.RetryHTTP(ctx, engine.DefaultRetryConfig, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		c.setHeaders(req)
		return c.http.Do(req)
	})
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", engine.UserAgentBot)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}
