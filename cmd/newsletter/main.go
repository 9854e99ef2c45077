// Command newsletter sends the weekly digest. It is meant to run from
// cron; --dry-run writes the campaign HTML to a file instead of sending.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/joho/godotenv"

	"github.com/philippehensmans/wikitips/internal/config"
	"github.com/philippehensmans/wikitips/internal/infrastructure/mailchimp"
	"github.com/philippehensmans/wikitips/internal/logging"
	"github.com/philippehensmans/wikitips/internal/storage"
	"github.com/philippehensmans/wikitips/internal/usecase"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "build the digest without sending it")
	days := flag.Int("days", 7, "look back this many days for published articles")
	force := flag.Bool("force", false, "ignore the recent-send guard")
	flag.Parse()

	_ = godotenv.Load()

	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level).With("component", "newsletter")

	db, err := storage.Open(cfg.Database.Path)
	if err != nil {
		logger.Error("open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	publishing := usecase.NewPublishing(usecase.PublishingDeps{
		Articles: storage.NewArticleRepository(db),
		Campaign: mailchimp.NewService(cfg.Mailchimp, cfg.Site),
		Log:      storage.NewNewsletterLogRepository(db),
		SiteURL:  cfg.Site.URL,
		Logger:   logger,
	})

	ctx := context.Background()
	outcome, err := publishing.SendDigest(ctx, *days, *force, *dryRun)
	if err != nil {
		logger.Error("digest failed", "error", err)
		os.Exit(1)
	}

	switch {
	case outcome.AlreadySent:
		logger.Info("digest already sent this week, skipping")
	case outcome.ArticleCount == 0:
		logger.Info("no published articles in window, nothing to send", "days", *days)
	case *dryRun:
		const previewPath = "newsletter-preview.html"
		if err := os.WriteFile(previewPath, []byte(outcome.PreviewHTML), 0o644); err != nil {
			logger.Error("write preview", "error", err)
			os.Exit(1)
		}
		logger.Info("dry run complete", "articles", outcome.ArticleCount, "preview", previewPath)
	default:
		logger.Info("digest sent", "articles", outcome.ArticleCount, "campaign", outcome.CampaignID)
	}
}
