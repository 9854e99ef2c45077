// Package bluesky publishes article link cards over the AT Protocol.
package bluesky

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path"
	"sync"
	"time"

	"github.com/philippehensmans/wikitips/internal/apperr"
	"github.com/philippehensmans/wikitips/internal/config"
	"github.com/philippehensmans/wikitips/internal/domain"
	"github.com/philippehensmans/wikitips/internal/htmltext"
	"github.com/philippehensmans/wikitips/internal/ports"
)

const (
	postType = "app.bsky.feed.post"
	postLang = "fr"
	postTags = "\n\n#DroitsHumains #WikiTips"
	// summaries are truncated to this many visible characters in the
	// fallback post text
	fallbackSummaryLen = 200
	maxThumbnailBytes  = 1 << 20
)

// Publisher authenticates once per process lifetime and posts link cards.
type Publisher struct {
	serviceURL string
	identifier string
	password   string
	httpClient *http.Client

	mu        sync.Mutex
	accessJwt string
	did       string
}

var _ ports.SocialPublisher = (*Publisher)(nil)

// NewPublisher builds a publisher from configuration.
func NewPublisher(cfg config.BlueskyConfig) *Publisher {
	serviceURL := cfg.ServiceURL
	if serviceURL == "" {
		serviceURL = "https://bsky.social/xrpc"
	}
	return &Publisher{
		serviceURL: serviceURL,
		identifier: cfg.Identifier,
		password:   cfg.AppPassword,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Configured reports whether credentials are present.
func (p *Publisher) Configured() bool {
	return p.identifier != "" && p.password != ""
}

// CreatePost publishes the text with facet annotations and an optional
// link card, returning the public URL of the created post.
func (p *Publisher) CreatePost(ctx context.Context, post ports.SocialPost) (string, error) {
	if err := p.authenticate(ctx); err != nil {
		return "", err
	}

	record := postRecord{
		Type:      postType,
		Text:      post.Text,
		CreatedAt: time.Now().UTC().Format("2006-01-02T15:04:05Z"),
		Langs:     []string{postLang},
		Facets:    parseFacets(post.Text),
	}

	if post.URL != "" {
		embed := &embedExternal{
			Type: "app.bsky.embed.external",
			External: externalCard{
				URI:         post.URL,
				Title:       post.Title,
				Description: post.Description,
			},
		}
		if embed.External.Title == "" {
			embed.External.Title = post.URL
		}
		if post.ThumbnailURL != "" {
			thumb, err := p.uploadThumbnail(ctx, post.ThumbnailURL)
			if err != nil {
				return "", err
			}
			embed.External.Thumb = thumb
		}
		record.Embed = embed
	}

	var created struct {
		URI string `json:"uri"`
	}
	err := p.call(ctx, "com.atproto.repo.createRecord", map[string]any{
		"repo":       p.did,
		"collection": postType,
		"record":     record,
	}, true, &created)
	if err != nil {
		return "", err
	}
	if created.URI == "" {
		return "", apperr.Contract("", "create record response has no uri")
	}

	return fmt.Sprintf("https://bsky.app/profile/%s/post/%s", p.identifier, path.Base(created.URI)), nil
}

// FormatArticlePost builds the post text for an article: the pre-written
// promotional blurb when present, otherwise title plus a truncated
// plain-text summary, always followed by the two fixed hashtags.
func (p *Publisher) FormatArticlePost(article *domain.Article) string {
	text := article.SocialPost
	if text == "" {
		text = "📰 " + article.Title
		if summary := htmltext.Strip(article.Summary); summary != "" {
			text += "\n\n" + htmltext.Truncate(summary, fallbackSummaryLen)
		}
	}
	return text + postTags
}

// authenticate exchanges credentials for a bearer token on first use. The
// token is cached for the process lifetime with no refresh logic.
func (p *Publisher) authenticate(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.accessJwt != "" {
		return nil
	}
	if !p.Configured() {
		return apperr.Validation("bluesky credentials are not configured")
	}

	var session struct {
		AccessJwt string `json:"accessJwt"`
		Did       string `json:"did"`
	}
	err := p.call(ctx, "com.atproto.server.createSession", map[string]string{
		"identifier": p.identifier,
		"password":   p.password,
	}, false, &session)
	if err != nil {
		return err
	}
	if session.AccessJwt == "" || session.Did == "" {
		return apperr.Contract("", "session response is missing accessJwt or did")
	}

	p.accessJwt = session.AccessJwt
	p.did = session.Did
	return nil
}

// uploadThumbnail downloads the image, validates its size and type, and
// uploads it as a blob, returning the provider-side reference.
func (p *Publisher) uploadThumbnail(ctx context.Context, thumbnailURL string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, thumbnailURL, nil)
	if err != nil {
		return nil, fmt.Errorf("new thumbnail request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, apperr.Transport(err, "download thumbnail")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperr.Provider("thumbnail fetch returned %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxThumbnailBytes+1))
	if err != nil {
		return nil, apperr.Transport(err, "read thumbnail")
	}
	if len(data) > maxThumbnailBytes {
		return nil, apperr.Validation("thumbnail exceeds %d bytes", maxThumbnailBytes)
	}

	contentType := normalizeImageType(resp.Header.Get("Content-Type"), data)

	upReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.serviceURL+"/com.atproto.repo.uploadBlob", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("new upload request: %w", err)
	}
	upReq.Header.Set("Content-Type", contentType)
	upReq.Header.Set("Authorization", "Bearer "+p.accessJwt)

	upResp, err := p.httpClient.Do(upReq)
	if err != nil {
		return nil, apperr.Transport(err, "upload blob")
	}
	defer upResp.Body.Close()

	payload, err := io.ReadAll(upResp.Body)
	if err != nil {
		return nil, apperr.Transport(err, "read upload response")
	}
	if upResp.StatusCode != http.StatusOK {
		return nil, apperr.Provider("blob upload returned %d: %s", upResp.StatusCode, errorMessage(payload))
	}

	var uploaded struct {
		Blob json.RawMessage `json:"blob"`
	}
	if err := json.Unmarshal(payload, &uploaded); err != nil || len(uploaded.Blob) == 0 {
		return nil, apperr.Contract(string(payload), "upload response has no blob reference")
	}
	return uploaded.Blob, nil
}

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// normalizeImageType prefers the sniffed content type, then the response
// header, and falls back to JPEG when neither is on the allow-list.
func normalizeImageType(headerType string, data []byte) string {
	if sniffed := http.DetectContentType(data); allowedImageTypes[sniffed] {
		return sniffed
	}
	if allowedImageTypes[headerType] {
		return headerType
	}
	return "image/jpeg"
}

// call posts a JSON payload to one XRPC endpoint and decodes the response.
func (p *Publisher) call(ctx context.Context, endpoint string, payload any, authenticated bool, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", endpoint, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.serviceURL+"/"+endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if authenticated && p.accessJwt != "" {
		req.Header.Set("Authorization", "Bearer "+p.accessJwt)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return apperr.Transport(err, "call %s", endpoint)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperr.Transport(err, "read %s response", endpoint)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return apperr.Provider("%s returned %d: %s", endpoint, resp.StatusCode, errorMessage(respBody))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return apperr.Contract(string(respBody), "decode %s response: %v", endpoint, err)
	}
	return nil
}

// errorMessage extracts the provider's error envelope message.
func errorMessage(payload []byte) string {
	var envelope struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(payload, &envelope); err == nil {
		if envelope.Message != "" {
			return envelope.Message
		}
		if envelope.Error != "" {
			return envelope.Error
		}
	}
	return string(bytes.TrimSpace(payload))
}

type postRecord struct {
	Type      string         `json:"$type"`
	Text      string         `json:"text"`
	CreatedAt string         `json:"createdAt"`
	Langs     []string       `json:"langs"`
	Facets    []facet        `json:"facets,omitempty"`
	Embed     *embedExternal `json:"embed,omitempty"`
}

type embedExternal struct {
	Type     string       `json:"$type"`
	External externalCard `json:"external"`
}

type externalCard struct {
	URI         string          `json:"uri"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Thumb       json.RawMessage `json:"thumb,omitempty"`
}
