package storage

import (
	"regexp"
	"strings"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// fallbackSlug is used when a title normalizes to nothing, so the UNIQUE
// NOT NULL slug column always receives a usable value.
const fallbackSlug = "article"

// Slugify lowercases the title, collapses every run of non-alphanumeric
// characters into a single hyphen and trims the edges. Uniqueness is the
// repository's concern, not this function's.
func Slugify(title string) string {
	slug := strings.ToLower(strings.TrimSpace(title))
	slug = nonAlnum.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		return fallbackSlug
	}
	return slug
}
