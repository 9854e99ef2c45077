package ports

import (
	"context"
	"time"

	"github.com/philippehensmans/wikitips/internal/domain"
)

// ArticleRepository owns article rows and their category associations.
type ArticleRepository interface {
	Create(ctx context.Context, fields domain.ArticleFields) (int64, error)
	Update(ctx context.Context, id int64, fields domain.ArticleFields) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*domain.Article, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Article, error)
	GetAll(ctx context.Context, status domain.Status, limit, offset int) ([]domain.Article, error)
	Search(ctx context.Context, query string) ([]domain.Article, error)
	PublishedSince(ctx context.Context, since time.Time) ([]domain.Article, error)
}

// CategoryRepository serves the fixed category reference data.
type CategoryRepository interface {
	GetAll(ctx context.Context) ([]domain.Category, error)
	GetByID(ctx context.Context, id int64) (*domain.Category, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Category, error)
	GetBySlugs(ctx context.Context, slugs []string) ([]domain.Category, error)
	Articles(ctx context.Context, categoryID int64, limit int) ([]domain.Article, error)
}

// NewsletterLog records digest invocations for audit and idempotency checks.
type NewsletterLog interface {
	Record(ctx context.Context, entry domain.NewsletterLogEntry) error
	HasRecentSend(ctx context.Context, window time.Duration) (bool, error)
}

// AnalysisClient turns raw content into structured editorial material.
type AnalysisClient interface {
	Analyze(ctx context.Context, content, sourceURL string) (*domain.AnalysisResult, error)
	GenerateReview(ctx context.Context, article *domain.Article) (*domain.Review, error)
}

// SocialPost carries everything needed to publish one post with its
// optional link card.
type SocialPost struct {
	Text         string
	URL          string
	Title        string
	Description  string
	ThumbnailURL string
}

// SocialPublisher posts link cards to the social network and returns the
// public URL of the created post.
type SocialPublisher interface {
	CreatePost(ctx context.Context, post SocialPost) (string, error)
	FormatArticlePost(article *domain.Article) string
}

// CampaignService manages the mailing list and sends the weekly digest.
type CampaignService interface {
	Subscribe(ctx context.Context, email, firstName, lastName string) (domain.SubscriptionState, error)
	Unsubscribe(ctx context.Context, email string) error
	ListStats(ctx context.Context) (*domain.ListStats, error)
	SendWeeklyNewsletter(ctx context.Context, articles []domain.Article) (string, error)
	BuildNewsletterHTML(articles []domain.Article) string
}
