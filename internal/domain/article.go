package domain

import "time"

// Status tracks the article lifecycle.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
)

// Article is the core entity persisted by the article repository.
// Categories are a many-to-many association resolved on read, never
// embedded in the row itself.
type Article struct {
	ID             int64
	Title          string
	Slug           string
	SourceURL      string
	SourceContent  string
	Summary        string
	SocialPost     string
	MainPoints     string
	RightsAnalysis string
	Content        string
	ThumbnailURL   string
	Review         string
	Status         Status
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Categories     []Category
}

// ArticleFields carries the writable subset of Article for create/update.
// A nil pointer means "leave the column untouched" on update; CategoryIDs
// nil means keep associations, non-nil (including empty) replaces them.
type ArticleFields struct {
	Title          *string
	SourceURL      *string
	SourceContent  *string
	Summary        *string
	SocialPost     *string
	MainPoints     *string
	RightsAnalysis *string
	Content        *string
	ThumbnailURL   *string
	Review         *string
	Status         *Status
	CategoryIDs    []int64
}

// Category is immutable reference data seeded at startup.
type Category struct {
	ID          int64
	Name        string
	Slug        string
	Description string
}
