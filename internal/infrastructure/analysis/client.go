// Package analysis integrates the external text-generation provider used to
// turn raw content into structured editorial material.
package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/philippehensmans/wikitips/internal/apperr"
	"github.com/philippehensmans/wikitips/internal/config"
	"github.com/philippehensmans/wikitips/internal/domain"
	"github.com/philippehensmans/wikitips/internal/ports"
)

const maxTokens = 4096

// Client calls the analysis provider. Generation is slow, so the HTTP
// client carries a two-minute timeout.
type Client struct {
	endpoint   string
	model      string
	apiKey     string
	version    string
	httpClient *http.Client
}

var _ ports.AnalysisClient = (*Client)(nil)

// NewClient builds a client from configuration.
func NewClient(cfg config.AnalysisConfig) *Client {
	return &Client{
		endpoint: cfg.Endpoint,
		model:    cfg.Model,
		apiKey:   cfg.APIKey,
		version:  cfg.Version,
		httpClient: &http.Client{
			Timeout: 2 * time.Minute,
		},
	}
}

// Analyze submits raw content and returns the structured result with its
// rendered HTML derivatives.
func (c *Client) Analyze(ctx context.Context, content, sourceURL string) (*domain.AnalysisResult, error) {
	if strings.TrimSpace(content) == "" {
		return nil, apperr.Validation("content is required")
	}

	text, err := c.complete(ctx, buildAnalysisPrompt(content, sourceURL))
	if err != nil {
		return nil, err
	}

	raw := stripFences(text)
	var result domain.AnalysisResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, apperr.Contract(raw, "parse analysis response: %v", err)
	}
	if result.Title == "" {
		return nil, apperr.Contract(raw, "analysis response is missing a title")
	}
	if result.Summary == "" {
		return nil, apperr.Contract(raw, "analysis response is missing a summary")
	}

	result.MainPointsHTML = renderMainPoints(result.MainPoints)
	result.RightsAnalysisHTML = renderRightsAnalysis(result.RightsAnalysis)
	return &result, nil
}

// GenerateReview asks for an editorial rewrite of an existing article and
// returns the parsed review with its HTML view and clipboard text.
func (c *Client) GenerateReview(ctx context.Context, article *domain.Article) (*domain.Review, error) {
	if article == nil || strings.TrimSpace(article.Title) == "" {
		return nil, apperr.Validation("article with a title is required")
	}

	text, err := c.complete(ctx, buildReviewPrompt(article))
	if err != nil {
		return nil, err
	}

	raw := stripFences(text)
	var review domain.Review
	if err := json.Unmarshal([]byte(raw), &review); err != nil {
		return nil, apperr.Contract(raw, "parse review response: %v", err)
	}
	if review.Title == "" || review.Lead == "" {
		return nil, apperr.Contract(raw, "review response is missing title or lead")
	}

	review.HTML = renderReview(&review)
	review.PlainText = reviewPlainText(&review)
	return &review, nil
}

// complete sends one user prompt and returns the first message content.
func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	if c.apiKey == "" || c.endpoint == "" || c.model == "" {
		return "", apperr.Validation("analysis client misconfigured")
	}

	body, err := json.Marshal(map[string]any{
		"model":      c.model,
		"max_tokens": maxTokens,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal analysis payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", c.version)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", apperr.Transport(err, "call analysis provider")
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", apperr.Transport(err, "read analysis response")
	}

	if resp.StatusCode != http.StatusOK {
		return "", apperr.Provider("analysis provider returned %d: %s", resp.StatusCode, providerMessage(payload))
	}

	var envelope struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return "", apperr.Contract(string(payload), "decode provider envelope: %v", err)
	}
	if len(envelope.Content) == 0 || envelope.Content[0].Text == "" {
		return "", apperr.Contract(string(payload), "provider response has no message content")
	}

	return envelope.Content[0].Text, nil
}

// providerMessage digs the human-readable message out of the provider's
// error envelope, falling back to the raw body.
func providerMessage(payload []byte) string {
	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(payload, &envelope); err == nil && envelope.Error.Message != "" {
		return envelope.Error.Message
	}
	return strings.TrimSpace(string(payload))
}

// stripFences removes the markdown code fences the model sometimes wraps
// its JSON in despite instructions.
func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	}
	return strings.TrimSpace(text)
}
