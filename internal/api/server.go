// Package api exposes the JSON HTTP surface: article CRUD, categories,
// analysis, review generation, social sharing and newsletter subscription.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/philippehensmans/wikitips/internal/ports"
	"github.com/philippehensmans/wikitips/internal/usecase"
)

// defaultSecretKey is the development placeholder; while it is in effect
// the API-key check is not enforced.
const defaultSecretKey = "change_this_secret_key_in_production"

// Server holds the handler dependencies.
type Server struct {
	articles   ports.ArticleRepository
	categories ports.CategoryRepository
	campaign   ports.CampaignService
	publishing *usecase.Publishing
	secretKey  string
	logger     *slog.Logger
}

// ServerDeps wires the repositories and workflows into the HTTP surface.
type ServerDeps struct {
	Articles   ports.ArticleRepository
	Categories ports.CategoryRepository
	Campaign   ports.CampaignService
	Publishing *usecase.Publishing
	SecretKey  string
	Logger     *slog.Logger
}

// NewServer builds the handler set.
func NewServer(deps ServerDeps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		articles:   deps.Articles,
		categories: deps.Categories,
		campaign:   deps.Campaign,
		publishing: deps.Publishing,
		secretKey:  deps.SecretKey,
		logger:     logger,
	}
}

// Router assembles the chi route tree. The timeout is generous because
// analysis and review requests wait on slow generation.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RedirectSlashes)
	r.Use(middleware.Timeout(150 * time.Second))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		// The {id} segment also accepts a slug on reads.
		r.Get("/articles", s.handleListArticles)
		r.Get("/articles/{id}", s.handleGetArticle)

		r.Get("/categories", s.handleListCategories)
		r.Get("/categories/{id}", s.handleGetCategory)

		r.Post("/newsletter/subscribe", s.handleSubscribe)
		r.Post("/newsletter/unsubscribe", s.handleUnsubscribe)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAPIKey)

			r.Post("/articles", s.handleCreateArticle)
			r.Put("/articles/{id}", s.handleUpdateArticle)
			r.Delete("/articles/{id}", s.handleDeleteArticle)
			r.Post("/articles/{id}/review", s.handleGenerateReview)
			r.Post("/articles/{id}/share", s.handleShareArticle)

			r.Post("/analyze", s.handleAnalyze)

			r.Get("/newsletter/stats", s.handleListStats)
		})
	})

	return r
}

// requireAPIKey guards privileged endpoints with the shared secret header.
// The check is skipped while the development placeholder key is in effect.
func (s *Server) requireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.secretKey != defaultSecretKey && r.Header.Get("X-API-Key") != s.secretKey {
			respondMessage(w, http.StatusUnauthorized, "invalid API key")
			return
		}
		next.ServeHTTP(w, r)
	})
}
