package api

import (
	"time"

	"github.com/philippehensmans/wikitips/internal/domain"
)

// articleRequest is the writable article payload. Pointers distinguish
// "field absent" from "field set to empty" so partial updates work.
type articleRequest struct {
	Title          *string        `json:"title"`
	SourceURL      *string        `json:"source_url"`
	SourceContent  *string        `json:"source_content"`
	Summary        *string        `json:"summary"`
	SocialPost     *string        `json:"bluesky_post"`
	MainPoints     *string        `json:"main_points"`
	RightsAnalysis *string        `json:"human_rights_analysis"`
	Content        *string        `json:"content"`
	ThumbnailURL   *string        `json:"og_image"`
	Status         *domain.Status `json:"status"`
	CategoryIDs    []int64        `json:"category_ids"`
}

func (r articleRequest) fields() domain.ArticleFields {
	return domain.ArticleFields{
		Title:          r.Title,
		SourceURL:      r.SourceURL,
		SourceContent:  r.SourceContent,
		Summary:        r.Summary,
		SocialPost:     r.SocialPost,
		MainPoints:     r.MainPoints,
		RightsAnalysis: r.RightsAnalysis,
		Content:        r.Content,
		ThumbnailURL:   r.ThumbnailURL,
		Status:         r.Status,
		CategoryIDs:    r.CategoryIDs,
	}
}

type articleJSON struct {
	ID             int64          `json:"id"`
	Title          string         `json:"title"`
	Slug           string         `json:"slug"`
	SourceURL      string         `json:"source_url,omitempty"`
	Summary        string         `json:"summary,omitempty"`
	SocialPost     string         `json:"bluesky_post,omitempty"`
	MainPoints     string         `json:"main_points,omitempty"`
	RightsAnalysis string         `json:"human_rights_analysis,omitempty"`
	Content        string         `json:"content,omitempty"`
	ThumbnailURL   string         `json:"og_image,omitempty"`
	Review         string         `json:"review,omitempty"`
	Status         domain.Status  `json:"status"`
	CreatedAt      string         `json:"created_at"`
	UpdatedAt      string         `json:"updated_at"`
	Categories     []categoryJSON `json:"categories"`
}

type categoryJSON struct {
	ID          int64         `json:"id"`
	Name        string        `json:"name"`
	Slug        string        `json:"slug"`
	Description string        `json:"description,omitempty"`
	Articles    []articleJSON `json:"articles,omitempty"`
}

func articleToJSON(a *domain.Article) articleJSON {
	out := articleJSON{
		ID:             a.ID,
		Title:          a.Title,
		Slug:           a.Slug,
		SourceURL:      a.SourceURL,
		Summary:        a.Summary,
		SocialPost:     a.SocialPost,
		MainPoints:     a.MainPoints,
		RightsAnalysis: a.RightsAnalysis,
		Content:        a.Content,
		ThumbnailURL:   a.ThumbnailURL,
		Review:         a.Review,
		Status:         a.Status,
		CreatedAt:      a.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:      a.UpdatedAt.UTC().Format(time.RFC3339),
		Categories:     categoriesToJSON(a.Categories),
	}
	return out
}

func articlesToJSON(articles []domain.Article) []articleJSON {
	out := make([]articleJSON, 0, len(articles))
	for i := range articles {
		out = append(out, articleToJSON(&articles[i]))
	}
	return out
}

func categoryToJSON(c domain.Category) categoryJSON {
	return categoryJSON{
		ID:          c.ID,
		Name:        c.Name,
		Slug:        c.Slug,
		Description: c.Description,
	}
}

func categoriesToJSON(categories []domain.Category) []categoryJSON {
	out := make([]categoryJSON, 0, len(categories))
	for _, c := range categories {
		out = append(out, categoryToJSON(c))
	}
	return out
}
