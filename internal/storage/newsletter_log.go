package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/philippehensmans/wikitips/internal/domain"
	"github.com/philippehensmans/wikitips/internal/ports"
)

// NewsletterLogRepository appends digest outcomes; entries are never mutated.
type NewsletterLogRepository struct {
	db *sql.DB
}

var _ ports.NewsletterLog = (*NewsletterLogRepository)(nil)

// NewNewsletterLogRepository wires a sql.DB implementation.
func NewNewsletterLogRepository(db *sql.DB) *NewsletterLogRepository {
	return &NewsletterLogRepository{db: db}
}

// Record appends one invocation outcome.
func (r *NewsletterLogRepository) Record(ctx context.Context, entry domain.NewsletterLogEntry) error {
	sentAt := entry.SentAt
	if sentAt.IsZero() {
		sentAt = time.Now().UTC()
	}

	query, args, err := sq.Insert("newsletter_logs").
		Columns("campaign_id", "article_count", "sent_at", "status").
		Values(entry.CampaignID, entry.ArticleCount, sentAt, string(entry.Status)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build log insert: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert newsletter log: %w", err)
	}
	return nil
}

// HasRecentSend reports whether a digest was actually sent inside the
// window. Skipped and errored invocations do not count.
func (r *NewsletterLogRepository) HasRecentSend(ctx context.Context, window time.Duration) (bool, error) {
	cutoff := time.Now().UTC().Add(-window)
	query, args, err := sq.Select("COUNT(*)").From("newsletter_logs").
		Where(sq.Eq{"status": string(domain.NewsletterSent)}).
		Where(sq.Gt{"sent_at": cutoff}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build log check: %w", err)
	}

	var count int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return false, fmt.Errorf("count recent sends: %w", err)
	}
	return count > 0, nil
}
