package app

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"log/slog"

	"github.com/philippehensmans/wikitips/internal/api"
	"github.com/philippehensmans/wikitips/internal/config"
	"github.com/philippehensmans/wikitips/internal/infrastructure/analysis"
	"github.com/philippehensmans/wikitips/internal/infrastructure/bluesky"
	"github.com/philippehensmans/wikitips/internal/infrastructure/mailchimp"
	"github.com/philippehensmans/wikitips/internal/logging"
	"github.com/philippehensmans/wikitips/internal/storage"
	"github.com/philippehensmans/wikitips/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg    config.Config
	db     *sql.DB
	server *http.Server
	logger *slog.Logger
}

// New opens the store and assembles the repositories, the external
// clients, the workflows and the HTTP surface.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	db, err := storage.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	articles := storage.NewArticleRepository(db)
	categories := storage.NewCategoryRepository(db)
	newsletterLog := storage.NewNewsletterLogRepository(db)

	analyzer := analysis.NewClient(cfg.Analysis)
	social := bluesky.NewPublisher(cfg.Bluesky)
	campaign := mailchimp.NewService(cfg.Mailchimp, cfg.Site)

	publishing := usecase.NewPublishing(usecase.PublishingDeps{
		Articles:   articles,
		Categories: categories,
		Analyzer:   analyzer,
		Social:     social,
		Campaign:   campaign,
		Log:        newsletterLog,
		SiteURL:    cfg.Site.URL,
		AutoShare:  cfg.Bluesky.AutoShare,
		Logger:     baseLogger.With("component", "publishing"),
	})

	server := api.NewServer(api.ServerDeps{
		Articles:   articles,
		Categories: categories,
		Campaign:   campaign,
		Publishing: publishing,
		SecretKey:  cfg.API.SecretKey,
		Logger:     baseLogger.With("component", "api"),
	})

	return &Application{
		cfg: cfg,
		db:  db,
		server: &http.Server{
			Addr:    cfg.Server.Addr,
			Handler: server.Router(),
		},
		logger: baseLogger.With("component", "app"),
	}, nil
}

// Run serves the API until the context is cancelled, then shuts down
// gracefully and closes the store.
func (a *Application) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("listening", "addr", a.server.Addr)
		errCh <- a.server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		a.db.Close()
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	case <-ctx.Done():
		shutdownErr := a.server.Shutdown(context.Background())
		a.db.Close()
		return shutdownErr
	}
}
