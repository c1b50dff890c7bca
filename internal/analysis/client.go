package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/mvelasco/clipvault/pkg/config"
	"github.com/mvelasco/clipvault/pkg/logger"
)

const (
	// FallbackDescription replaces the generated description whenever the
	// remote service is unavailable or returns a malformed response.
	FallbackDescription = "No description available."
	// FallbackTag is the single tag attached to fallback results.
	FallbackTag = "video"

	maxResponseBytes = 1 << 20
)

// Result is the normalized output of the vision-description service. Fallback
// distinguishes degraded output for logs and tests; the persisted record
// looks the same either way.
type Result struct {
	Title          string
	Description    string
	Tags           []string
	Fallback       bool
	FallbackReason string
}

// Client talks to an OpenAI-compatible chat-completions endpoint. Analyze
// never returns an error: every failure is absorbed into the deterministic
// fallback.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
	logg       *logger.Logger
}

func NewClient(cfg config.AnalysisConfig, logg *logger.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		logg:       logg,
	}
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	ResponseFormat any           `json:"response_format"`
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []chatContent `json:"content"`
}

type chatContent struct {
	Type     string         `json:"type"`
	Text     string         `json:"text,omitempty"`
	ImageURL *chatImagePart `json:"image_url,omitempty"`
}

type chatImagePart struct {
	URL string `json:"url"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type descriptionPayload struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

// Analyze sends the still image and filename to the remote service and
// returns either its normalized answer or the fallback.
func (c *Client) Analyze(ctx context.Context, thumbnailDataURL, originalName string) Result {
	if c.apiKey == "" {
		return c.fallback(ctx, originalName, "analysis disabled: no api key configured")
	}

	body, err := json.Marshal(c.buildRequest(thumbnailDataURL, originalName))
	if err != nil {
		return c.fallback(ctx, originalName, fmt.Sprintf("encode request: %v", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return c.fallback(ctx, originalName, fmt.Sprintf("build request: %v", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.fallback(ctx, originalName, fmt.Sprintf("call analysis service: %v", err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return c.fallback(ctx, originalName, fmt.Sprintf("read response: %v", err))
	}
	if resp.StatusCode != http.StatusOK {
		return c.fallback(ctx, originalName, fmt.Sprintf("analysis service returned status %d", resp.StatusCode))
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return c.fallback(ctx, originalName, fmt.Sprintf("decode response: %v", err))
	}
	if len(parsed.Choices) == 0 {
		return c.fallback(ctx, originalName, "response contained no choices")
	}

	var payload descriptionPayload
	if err := json.Unmarshal([]byte(parsed.Choices[0].Message.Content), &payload); err != nil {
		return c.fallback(ctx, originalName, fmt.Sprintf("decode structured content: %v", err))
	}

	title := strings.TrimSpace(payload.Title)
	description := strings.TrimSpace(payload.Description)
	if title == "" || description == "" || payload.Tags == nil {
		return c.fallback(ctx, originalName, "structured content missing required fields")
	}

	return Result{
		Title:       title,
		Description: description,
		Tags:        payload.Tags,
	}
}

func (c *Client) buildRequest(thumbnailDataURL, originalName string) chatRequest {
	prompt := fmt.Sprintf(
		"This image is a frame from an uploaded video named %q. "+
			"Produce a short engaging title, a two-sentence description, and exactly five tags for it.",
		originalName,
	)

	schema := map[string]any{
		"type": "json_schema",
		"json_schema": map[string]any{
			"name":   "video_description",
			"strict": true,
			"schema": map[string]any{
				"type":                 "object",
				"additionalProperties": false,
				"required":             []string{"title", "description", "tags"},
				"properties": map[string]any{
					"title":       map[string]any{"type": "string"},
					"description": map[string]any{"type": "string"},
					"tags": map[string]any{
						"type":     "array",
						"items":    map[string]any{"type": "string"},
						"minItems": 5,
						"maxItems": 5,
					},
				},
			},
		},
	}

	return chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{
				Role: "user",
				Content: []chatContent{
					{Type: "text", Text: prompt},
					{Type: "image_url", ImageURL: &chatImagePart{URL: thumbnailDataURL}},
				},
			},
		},
		ResponseFormat: schema,
	}
}

func (c *Client) fallback(ctx context.Context, originalName, reason string) Result {
	if c.logg != nil {
		ctx = c.logg.WithField(ctx, "fallback_reason", reason)
		c.logg.Warn(ctx, "analysis.fallback")
	}
	return Result{
		Title:          TitleFromFilename(originalName),
		Description:    FallbackDescription,
		Tags:           []string{FallbackTag},
		Fallback:       true,
		FallbackReason: reason,
	}
}

// TitleFromFilename strips the extension from the original filename.
func TitleFromFilename(name string) string {
	base := filepath.Base(strings.TrimSpace(name))
	title := strings.TrimSuffix(base, filepath.Ext(base))
	if title == "" || title == "." {
		return "Untitled video"
	}
	return title
}
