// Package htmltext reduces stored rich text to plain text suitable for
// social posts and email excerpts.
package htmltext

import (
	"html"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Strip removes markup and decodes entities, returning the visible text.
func Strip(fragment string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return strings.TrimSpace(html.UnescapeString(fragment))
	}
	return strings.TrimSpace(doc.Text())
}

// Truncate shortens s to at most max visible characters, appending an
// ellipsis when it cuts. Counting is rune-based so multi-byte characters
// are never split.
func Truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
