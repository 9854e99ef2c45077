package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/philippehensmans/wikitips/internal/apperr"
	"github.com/philippehensmans/wikitips/internal/domain"
	"github.com/philippehensmans/wikitips/internal/htmltext"
	"github.com/philippehensmans/wikitips/internal/ports"
)

// maxPostLength is the network's visible-character limit for post text;
// the article link lives in the embed and does not count.
const maxPostLength = 300

// PublishingDeps wires all driven adapters into the publishing workflows.
type PublishingDeps struct {
	Articles   ports.ArticleRepository
	Categories ports.CategoryRepository
	Analyzer   ports.AnalysisClient
	Social     ports.SocialPublisher
	Campaign   ports.CampaignService
	Log        ports.NewsletterLog
	SiteURL    string
	AutoShare  bool
	Logger     *slog.Logger
}

// Publishing implements the editorial workflows on top of the repositories
// and the three external clients.
type Publishing struct {
	articles   ports.ArticleRepository
	categories ports.CategoryRepository
	analyzer   ports.AnalysisClient
	social     ports.SocialPublisher
	campaign   ports.CampaignService
	log        ports.NewsletterLog
	siteURL    string
	autoShare  bool
	logger     *slog.Logger
}

// NewPublishing constructs the workflow component.
func NewPublishing(deps PublishingDeps) *Publishing {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Publishing{
		articles:   deps.Articles,
		categories: deps.Categories,
		analyzer:   deps.Analyzer,
		social:     deps.Social,
		campaign:   deps.Campaign,
		log:        deps.Log,
		siteURL:    deps.SiteURL,
		autoShare:  deps.AutoShare,
		logger:     logger,
	}
}

// AnalyzeOutcome reports the analysis plus the optionally created draft.
type AnalyzeOutcome struct {
	Result         *domain.AnalysisResult
	ArticleID      int64
	ArticleCreated bool
	ShareError     string
}

// AnalyzeContent runs the analysis and, when requested, persists the result
// as a draft with the suggested categories resolved to ids. Unknown slugs
// are dropped silently. A failing auto-share never rolls back the draft.
func (p *Publishing) AnalyzeContent(ctx context.Context, content, sourceURL string, createArticle bool) (*AnalyzeOutcome, error) {
	result, err := p.analyzer.Analyze(ctx, content, sourceURL)
	if err != nil {
		return nil, err
	}

	outcome := &AnalyzeOutcome{Result: result}
	if !createArticle {
		return outcome, nil
	}

	var categoryIDs []int64
	if len(result.SuggestedCategories) > 0 {
		matched, cErr := p.categories.GetBySlugs(ctx, result.SuggestedCategories)
		if cErr != nil {
			return nil, cErr
		}
		for _, cat := range matched {
			categoryIDs = append(categoryIDs, cat.ID)
		}
	}

	status := domain.StatusDraft
	id, err := p.articles.Create(ctx, domain.ArticleFields{
		Title:          &result.Title,
		SourceURL:      &sourceURL,
		SourceContent:  &content,
		Summary:        &result.Summary,
		SocialPost:     &result.SocialPost,
		MainPoints:     &result.MainPointsHTML,
		RightsAnalysis: &result.RightsAnalysisHTML,
		Status:         &status,
		CategoryIDs:    categoryIDs,
	})
	if err != nil {
		return nil, err
	}

	outcome.ArticleID = id
	outcome.ArticleCreated = true

	if p.autoShare && p.social != nil {
		if _, shareErr := p.ShareArticle(ctx, id, ""); shareErr != nil {
			// The draft is already saved; the failed share is reported,
			// not rolled back.
			p.logger.Warn("auto-share failed", "article_id", id, "error", shareErr)
			outcome.ShareError = shareErr.Error()
		}
	}

	return outcome, nil
}

// ShareArticle posts an article's link card and returns the public post
// URL. An empty textOverride falls back to the formatted article post.
func (p *Publishing) ShareArticle(ctx context.Context, id int64, textOverride string) (string, error) {
	article, err := p.articles.GetByID(ctx, id)
	if err != nil {
		return "", err
	}

	text := textOverride
	if text == "" {
		text = p.social.FormatArticlePost(article)
	}
	if utf8.RuneCountInString(text) > maxPostLength {
		return "", apperr.Validation("post text exceeds %d characters", maxPostLength)
	}

	return p.social.CreatePost(ctx, ports.SocialPost{
		Text:         text,
		URL:          p.articleURL(article.Slug),
		Title:        article.Title,
		Description:  shareDescription(article),
		ThumbnailURL: article.ThumbnailURL,
	})
}

// GenerateReview produces the editorial rewrite for an article and stores
// it back on the row.
func (p *Publishing) GenerateReview(ctx context.Context, id int64) (*domain.Review, error) {
	article, err := p.articles.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	review, err := p.analyzer.GenerateReview(ctx, article)
	if err != nil {
		return nil, err
	}

	stored, err := json.Marshal(review)
	if err != nil {
		return nil, fmt.Errorf("marshal review: %w", err)
	}
	storedStr := string(stored)
	if err := p.articles.Update(ctx, id, domain.ArticleFields{Review: &storedStr}); err != nil {
		return nil, err
	}

	return review, nil
}

// DigestOutcome reports one newsletter invocation.
type DigestOutcome struct {
	AlreadySent  bool
	ArticleCount int
	CampaignID   string
	Sent         bool
	PreviewHTML  string
	Articles     []domain.Article
}

// SendDigest assembles and sends the digest over the last `days` days of
// published articles. Every real invocation is recorded to the newsletter
// log; the recent-send guard is applied here, on behalf of the scheduled
// caller, unless force is set.
func (p *Publishing) SendDigest(ctx context.Context, days int, force, dryRun bool) (*DigestOutcome, error) {
	if days <= 0 {
		days = 7
	}

	if !force {
		recent, err := p.log.HasRecentSend(ctx, 7*24*time.Hour)
		if err != nil {
			return nil, err
		}
		if recent {
			return &DigestOutcome{AlreadySent: true}, nil
		}
	}

	since := time.Now().UTC().AddDate(0, 0, -days)
	articles, err := p.articles.PublishedSince(ctx, since)
	if err != nil {
		return nil, err
	}

	outcome := &DigestOutcome{ArticleCount: len(articles), Articles: articles}

	if len(articles) == 0 {
		if logErr := p.log.Record(ctx, domain.NewsletterLogEntry{Status: domain.NewsletterSkipped}); logErr != nil {
			return nil, logErr
		}
		return outcome, nil
	}

	if dryRun {
		outcome.PreviewHTML = p.campaign.BuildNewsletterHTML(articles)
		return outcome, nil
	}

	campaignID, err := p.campaign.SendWeeklyNewsletter(ctx, articles)
	outcome.CampaignID = campaignID
	if err != nil {
		if logErr := p.log.Record(ctx, domain.NewsletterLogEntry{
			ArticleCount: len(articles),
			Status:       domain.NewsletterError,
		}); logErr != nil {
			p.logger.Error("record newsletter error", "error", logErr)
		}
		return outcome, err
	}

	outcome.Sent = true
	if logErr := p.log.Record(ctx, domain.NewsletterLogEntry{
		CampaignID:   campaignID,
		ArticleCount: len(articles),
		Status:       domain.NewsletterSent,
	}); logErr != nil {
		return outcome, logErr
	}
	return outcome, nil
}

func (p *Publishing) articleURL(slug string) string {
	return p.siteURL + "/article/" + slug
}

// shareDescription reduces the summary to the link card's short plain-text
// description.
func shareDescription(article *domain.Article) string {
	return htmltext.Truncate(htmltext.Strip(article.Summary), 150)
}
