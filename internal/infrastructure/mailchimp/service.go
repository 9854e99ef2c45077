// Package mailchimp manages the mailing list and sends the weekly digest
// campaign.
package mailchimp

import (
	"bytes"
	"context"
	"crypto/md5"
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

// Service drives the campaign provider's REST API.
type Service struct {
	apiKey     string
	listID     string
	fromName   string
	siteName   string
	siteURL    string
	apiURL     string
	httpClient *http.Client
}

var _ ports.CampaignService = (*Service)(nil)

// NewService builds a service from configuration. The API datacenter is
// encoded in the key suffix after the last dash.
func NewService(cfg config.MailchimpConfig, site config.SiteConfig) *Service {
	var dc string
	if idx := strings.LastIndex(cfg.APIKey, "-"); idx >= 0 {
		dc = cfg.APIKey[idx+1:]
	}

	fromName := cfg.FromName
	if fromName == "" {
		fromName = site.Name
	}

	return &Service{
		apiKey:     cfg.APIKey,
		listID:     cfg.ListID,
		fromName:   fromName,
		siteName:   site.Name,
		siteURL:    site.URL,
		apiURL:     fmt.Sprintf("https://%s.api.mailchimp.com/3.0", dc),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Configured reports whether the provider credentials are present.
func (s *Service) Configured() bool {
	return s.apiKey != "" && s.listID != ""
}

// Subscribe upserts a member with double-opt-in semantics: a new address
// lands in pending until the confirmation email is acted on.
func (s *Service) Subscribe(ctx context.Context, email, firstName, lastName string) (domain.SubscriptionState, error) {
	if !s.Configured() {
		return "", apperr.Validation("mailchimp is not configured")
	}
	if strings.TrimSpace(email) == "" {
		return "", apperr.Validation("email is required")
	}

	mergeFields := map[string]string{}
	if firstName != "" {
		mergeFields["FNAME"] = firstName
	}
	if lastName != "" {
		mergeFields["LNAME"] = lastName
	}

	payload := map[string]any{
		"email_address": email,
		"status":        string(domain.SubscriptionPending),
		"merge_fields":  mergeFields,
	}

	var member struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	err := s.request(ctx, http.MethodPut, s.memberPath(email), payload, &member)
	if err != nil {
		return "", err
	}
	if member.ID == "" {
		return "", apperr.Contract("", "member upsert response has no id")
	}
	return domain.SubscriptionState(member.Status), nil
}

// Unsubscribe flips the member status to unsubscribed.
func (s *Service) Unsubscribe(ctx context.Context, email string) error {
	if !s.Configured() {
		return apperr.Validation("mailchimp is not configured")
	}
	if strings.TrimSpace(email) == "" {
		return apperr.Validation("email is required")
	}

	var member struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	payload := map[string]string{"status": string(domain.SubscriptionUnsubscribed)}
	if err := s.request(ctx, http.MethodPatch, s.memberPath(email), payload, &member); err != nil {
		return err
	}
	if member.Status != string(domain.SubscriptionUnsubscribed) {
		return apperr.Contract("", "member is still %s after unsubscribe", member.Status)
	}
	return nil
}

// ListStats fetches the audience statistics.
func (s *Service) ListStats(ctx context.Context) (*domain.ListStats, error) {
	if !s.Configured() {
		return nil, apperr.Validation("mailchimp is not configured")
	}

	var list struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Stats struct {
			MemberCount      int     `json:"member_count"`
			UnsubscribeCount int     `json:"unsubscribe_count"`
			OpenRate         float64 `json:"open_rate"`
			ClickRate        float64 `json:"click_rate"`
		} `json:"stats"`
	}
	if err := s.request(ctx, http.MethodGet, "lists/"+s.listID, nil, &list); err != nil {
		return nil, err
	}
	if list.ID == "" {
		return nil, apperr.Contract("", "list response has no id")
	}

	return &domain.ListStats{
		Name:             list.Name,
		MemberCount:      list.Stats.MemberCount,
		UnsubscribeCount: list.Stats.UnsubscribeCount,
		OpenRate:         list.Stats.OpenRate,
		ClickRate:        list.Stats.ClickRate,
	}, nil
}

// SendWeeklyNewsletter creates a campaign over the given articles, attaches
// the digest HTML and triggers the send, short-circuiting at the first
// failing step. It returns the campaign id.
func (s *Service) SendWeeklyNewsletter(ctx context.Context, articles []domain.Article) (string, error) {
	if !s.Configured() {
		return "", apperr.Validation("mailchimp is not configured")
	}
	if len(articles) == 0 {
		return "", apperr.Validation("no articles to send")
	}

	campaignID, err := s.createCampaign(ctx, len(articles))
	if err != nil {
		return "", err
	}

	if err := s.setCampaignContent(ctx, campaignID, s.BuildNewsletterHTML(articles)); err != nil {
		return campaignID, err
	}

	if err := s.sendCampaign(ctx, campaignID); err != nil {
		return campaignID, err
	}
	return campaignID, nil
}

func (s *Service) createCampaign(ctx context.Context, articleCount int) (string, error) {
	now := time.Now()
	subject := fmt.Sprintf("%s - %d article(s) cette semaine (%s - %s)",
		s.siteName, articleCount,
		now.AddDate(0, 0, -7).Format("02/01"), now.Format("02/01/2006"))

	payload := map[string]any{
		"type": "regular",
		"recipients": map[string]string{
			"list_id": s.listID,
		},
		"settings": map[string]string{
			"subject_line": subject,
			"from_name":    s.fromName,
			"reply_to":     s.listReplyTo(ctx),
			"title":        "Newsletter hebdomadaire - " + now.Format("02/01/2006"),
		},
	}

	var campaign struct {
		ID string `json:"id"`
	}
	if err := s.request(ctx, http.MethodPost, "campaigns", payload, &campaign); err != nil {
		return "", err
	}
	if campaign.ID == "" {
		return "", apperr.Contract("", "campaign create response has no id")
	}
	return campaign.ID, nil
}

func (s *Service) setCampaignContent(ctx context.Context, campaignID, html string) error {
	var content struct {
		HTML string `json:"html"`
	}
	err := s.request(ctx, http.MethodPut, "campaigns/"+campaignID+"/content", map[string]string{"html": html}, &content)
	if err != nil {
		return err
	}
	if content.HTML == "" {
		return apperr.Contract("", "campaign content was not accepted")
	}
	return nil
}

// sendCampaign triggers the send; the provider answers 204 with an empty
// body on success.
func (s *Service) sendCampaign(ctx context.Context, campaignID string) error {
	return s.request(ctx, http.MethodPost, "campaigns/"+campaignID+"/actions/send", nil, nil)
}

// listReplyTo reads the audience default sender, with a neutral fallback.
func (s *Service) listReplyTo(ctx context.Context) string {
	var list struct {
		CampaignDefaults struct {
			FromEmail string `json:"from_email"`
		} `json:"campaign_defaults"`
	}
	if err := s.request(ctx, http.MethodGet, "lists/"+s.listID, nil, &list); err != nil {
		return "noreply@example.com"
	}
	if list.CampaignDefaults.FromEmail == "" {
		return "noreply@example.com"
	}
	return list.CampaignDefaults.FromEmail
}

// memberPath addresses a member by the md5 hash of the lowercased email.
func (s *Service) memberPath(email string) string {
	hash := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(email))))
	return fmt.Sprintf("lists/%s/members/%x", s.listID, hash)
}

func (s *Service) request(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal %s payload: %w", path, err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.apiURL+"/"+path, body)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth("anystring", s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return apperr.Transport(err, "call %s", path)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperr.Transport(err, "read %s response", path)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return apperr.Provider("%s returned %d: %s", path, resp.StatusCode, detailMessage(respBody))
	}

	// 204 No Content signals success with an empty body.
	if out == nil || resp.StatusCode == http.StatusNoContent || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return apperr.Contract(string(respBody), "decode %s response: %v", path, err)
	}
	return nil
}

// detailMessage extracts the provider error envelope's detail or title.
func detailMessage(payload []byte) string {
	var envelope struct {
		Detail string `json:"detail"`
		Title  string `json:"title"`
	}
	if err := json.Unmarshal(payload, &envelope); err == nil {
		if envelope.Detail != "" {
			return envelope.Detail
		}
		if envelope.Title != "" {
			return envelope.Title
		}
	}
	return string(bytes.TrimSpace(payload))
}
