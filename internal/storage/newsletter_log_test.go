package storage

import (
	"context"
	"testing"
	"time"

	"github.com/philippehensmans/wikitips/internal/domain"
)

func TestHasRecentSendCountsOnlySent(t *testing.T) {
	repo := NewNewsletterLogRepository(newTestDB(t))
	ctx := context.Background()

	recent, err := repo.HasRecentSend(ctx, 7*24*time.Hour)
	if err != nil {
		t.Fatalf("check empty log: %v", err)
	}
	if recent {
		t.Fatal("empty log reported a recent send")
	}

	// Skipped and errored invocations never block the next attempt.
	for _, status := range []domain.NewsletterStatus{domain.NewsletterSkipped, domain.NewsletterError} {
		if err := repo.Record(ctx, domain.NewsletterLogEntry{Status: status}); err != nil {
			t.Fatalf("record %s: %v", status, err)
		}
	}
	recent, err = repo.HasRecentSend(ctx, 7*24*time.Hour)
	if err != nil {
		t.Fatalf("check after skip/error: %v", err)
	}
	if recent {
		t.Fatal("non-sent entries counted as a recent send")
	}

	if err := repo.Record(ctx, domain.NewsletterLogEntry{
		CampaignID:   "abc123",
		ArticleCount: 3,
		Status:       domain.NewsletterSent,
	}); err != nil {
		t.Fatalf("record sent: %v", err)
	}
	recent, err = repo.HasRecentSend(ctx, 7*24*time.Hour)
	if err != nil {
		t.Fatalf("check after send: %v", err)
	}
	if !recent {
		t.Fatal("fresh send not detected")
	}
}

func TestHasRecentSendRespectsWindow(t *testing.T) {
	repo := NewNewsletterLogRepository(newTestDB(t))
	ctx := context.Background()

	if err := repo.Record(ctx, domain.NewsletterLogEntry{
		Status: domain.NewsletterSent,
		SentAt: time.Now().UTC().AddDate(0, 0, -10),
	}); err != nil {
		t.Fatalf("record old send: %v", err)
	}

	recent, err := repo.HasRecentSend(ctx, 7*24*time.Hour)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if recent {
		t.Fatal("send outside the window counted as recent")
	}
}
