package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/philippehensmans/wikitips/internal/apperr"
	"github.com/philippehensmans/wikitips/internal/domain"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleListArticles(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if query := r.URL.Query().Get("search"); query != "" {
		articles, err := s.articles.Search(ctx, query)
		if err != nil {
			s.respondError(w, err)
			return
		}
		respondData(w, http.StatusOK, articlesToJSON(articles))
		return
	}

	status := domain.Status(r.URL.Query().Get("status"))
	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)

	articles, err := s.articles.GetAll(ctx, status, limit, offset)
	if err != nil {
		s.respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, articlesToJSON(articles))
}

func (s *Server) handleGetArticle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	key := chi.URLParam(r, "id")

	var article *domain.Article
	var err error
	if id, pErr := strconv.ParseInt(key, 10, 64); pErr == nil {
		article, err = s.articles.GetByID(ctx, id)
	} else {
		article, err = s.articles.GetBySlug(ctx, key)
	}
	if err != nil {
		s.respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, articleToJSON(article))
}

func (s *Server) handleCreateArticle(w http.ResponseWriter, r *http.Request) {
	var req articleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	id, err := s.articles.Create(r.Context(), req.fields())
	if err != nil {
		s.respondError(w, err)
		return
	}

	article, err := s.articles.GetByID(r.Context(), id)
	if err != nil {
		s.respondError(w, err)
		return
	}
	respondData(w, http.StatusCreated, articleToJSON(article))
}

func (s *Server) handleUpdateArticle(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	// The repository update is a silent no-op on missing rows; the API
	// distinguishes 404 by checking existence first.
	if _, err := s.articles.GetByID(r.Context(), id); err != nil {
		s.respondError(w, err)
		return
	}

	var req articleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := s.articles.Update(r.Context(), id, req.fields()); err != nil {
		s.respondError(w, err)
		return
	}

	article, err := s.articles.GetByID(r.Context(), id)
	if err != nil {
		s.respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, articleToJSON(article))
}

func (s *Server) handleDeleteArticle(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.articles.Delete(r.Context(), id); err != nil {
		s.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true, "message": "article deleted"})
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.categories.GetAll(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, categoriesToJSON(categories))
}

func (s *Server) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	key := chi.URLParam(r, "id")

	var category *domain.Category
	var err error
	if id, pErr := strconv.ParseInt(key, 10, 64); pErr == nil {
		category, err = s.categories.GetByID(ctx, id)
	} else {
		category, err = s.categories.GetBySlug(ctx, key)
	}
	if err != nil {
		s.respondError(w, err)
		return
	}

	articles, err := s.categories.Articles(ctx, category.ID, 0)
	if err != nil {
		s.respondError(w, err)
		return
	}

	payload := categoryToJSON(*category)
	payload.Articles = articlesToJSON(articles)
	respondData(w, http.StatusOK, payload)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content       string `json:"content"`
		SourceURL     string `json:"source_url"`
		CreateArticle bool   `json:"create_article"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	outcome, err := s.publishing.AnalyzeContent(r.Context(), req.Content, req.SourceURL, req.CreateArticle)
	if err != nil {
		s.respondError(w, err)
		return
	}

	payload := map[string]any{
		"title":                 outcome.Result.Title,
		"summary":               outcome.Result.Summary,
		"bluesky_post":          outcome.Result.SocialPost,
		"main_points":           outcome.Result.MainPointsHTML,
		"main_points_raw":       outcome.Result.MainPoints,
		"human_rights_analysis": outcome.Result.RightsAnalysisHTML,
		"suggested_categories":  outcome.Result.SuggestedCategories,
	}
	if outcome.ArticleCreated {
		payload["article_id"] = outcome.ArticleID
		payload["article_created"] = true
	}
	if outcome.ShareError != "" {
		payload["share_error"] = outcome.ShareError
	}
	respondData(w, http.StatusOK, payload)
}

func (s *Server) handleGenerateReview(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	review, err := s.publishing.GenerateReview(r.Context(), id)
	if err != nil {
		s.respondError(w, err)
		return
	}

	respondData(w, http.StatusOK, map[string]any{
		"title":           review.Title,
		"lead":            review.Lead,
		"sections":        review.Sections,
		"hashtags":        review.Hashtags,
		"character_count": review.CharacterCount,
		"html":            review.HTML,
		"plain_text":      review.PlainText,
	})
}

func (s *Server) handleShareArticle(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req struct {
		Text string `json:"text"`
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondMessage(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
	}

	postURL, err := s.publishing.ShareArticle(r.Context(), id, req.Text)
	if err != nil {
		s.respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, map[string]string{"url": postURL})
}

func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email     string `json:"email"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	state, err := s.campaign.Subscribe(r.Context(), req.Email, req.FirstName, req.LastName)
	if err != nil {
		s.respondError(w, err)
		return
	}

	message := "Vous êtes inscrit à la newsletter."
	if state == domain.SubscriptionPending {
		message = "Un email de confirmation vous a été envoyé."
	}
	respondData(w, http.StatusOK, map[string]string{
		"status":  string(state),
		"message": message,
	})
}

func (s *Server) handleListStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.campaign.ListStats(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, map[string]any{
		"name":              stats.Name,
		"member_count":      stats.MemberCount,
		"unsubscribe_count": stats.UnsubscribeCount,
		"open_rate":         stats.OpenRate,
		"click_rate":        stats.ClickRate,
	})
}

func (s *Server) handleUnsubscribe(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := s.campaign.Unsubscribe(r.Context(), req.Email); err != nil {
		s.respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, map[string]string{"message": "Vous avez été désabonné."})
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "numeric id required")
		return 0, false
	}
	return id, true
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}

// respondError maps the error taxonomy onto HTTP statuses: validation 400,
// not-found 404, any provider-side failure 502, everything else 500.
func (s *Server) respondError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		status = http.StatusBadRequest
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindTransport, apperr.KindProvider, apperr.KindContract:
		status = http.StatusBadGateway
	}

	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	respondMessage(w, status, err.Error())
}

func respondData(w http.ResponseWriter, status int, data any) {
	respondJSON(w, status, map[string]any{"success": true, "data": data})
}

func respondMessage(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]any{"error": true, "message": message})
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
