package analysis

import (
	"html"
	"strings"

	"github.com/philippehensmans/wikitips/internal/domain"
)

// renderMainPoints turns the point list into an unordered HTML list.
func renderMainPoints(points []string) string {
	var b strings.Builder
	b.WriteString("<ul>")
	for _, point := range points {
		b.WriteString("<li>")
		b.WriteString(html.EscapeString(point))
		b.WriteString("</li>")
	}
	b.WriteString("</ul>")
	return b.String()
}

// renderRightsAnalysis renders the section-by-section assessment. Only
// sub-domains flagged relevant appear.
func renderRightsAnalysis(analysis domain.RightsAnalysis) string {
	var b strings.Builder
	b.WriteString(`<div class="human-rights-analysis">`)

	writeSection(&b, "Droits civils et politiques", analysis.CivilPolitical)
	writeSection(&b, "Droits économiques, sociaux et culturels", analysis.EconomicSocial)
	writeSection(&b, "Droit international humanitaire", analysis.HumanitarianLaw)

	if analysis.OverallAssessment != "" {
		b.WriteString(`<div class="analysis-section overall"><h4>Évaluation globale</h4><p>`)
		b.WriteString(html.EscapeString(analysis.OverallAssessment))
		b.WriteString("</p></div>")
	}

	if len(analysis.Recommendations) > 0 {
		b.WriteString(`<div class="analysis-section recommendations"><h4>Recommandations</h4><ul>`)
		for _, rec := range analysis.Recommendations {
			b.WriteString("<li>")
			b.WriteString(html.EscapeString(rec))
			b.WriteString("</li>")
		}
		b.WriteString("</ul></div>")
	}

	b.WriteString("</div>")
	return b.String()
}

func writeSection(b *strings.Builder, heading string, section domain.RightsSection) {
	if !section.Relevant {
		return
	}

	b.WriteString(`<div class="analysis-section"><h4>`)
	b.WriteString(heading)
	b.WriteString("</h4>")

	if len(section.Points) > 0 {
		b.WriteString(`<div class="points"><strong>Points d'attention:</strong><ul>`)
		for _, point := range section.Points {
			b.WriteString("<li>")
			b.WriteString(html.EscapeString(point))
			b.WriteString("</li>")
		}
		b.WriteString("</ul></div>")
	}

	if len(section.Concerns) > 0 {
		b.WriteString(`<div class="concerns"><strong>Préoccupations:</strong><ul>`)
		for _, concern := range section.Concerns {
			b.WriteString(`<li class="concern">`)
			b.WriteString(html.EscapeString(concern))
			b.WriteString("</li>")
		}
		b.WriteString("</ul></div>")
	}

	b.WriteString("</div>")
}

// renderReview builds the HTML view of a generated review.
func renderReview(review *domain.Review) string {
	var b strings.Builder
	b.WriteString(`<article class="review">`)
	b.WriteString("<h2>")
	b.WriteString(html.EscapeString(review.Title))
	b.WriteString("</h2>")
	b.WriteString(`<p class="lead">`)
	b.WriteString(html.EscapeString(review.Lead))
	b.WriteString("</p>")
	for _, section := range review.Sections {
		b.WriteString("<h3>")
		b.WriteString(html.EscapeString(section.Subheading))
		b.WriteString("</h3><p>")
		b.WriteString(html.EscapeString(section.Content))
		b.WriteString("</p>")
	}
	if len(review.Hashtags) > 0 {
		b.WriteString(`<p class="hashtags">`)
		for i, tag := range review.Hashtags {
			if i > 0 {
				b.WriteString(" ")
			}
			b.WriteString("#")
			b.WriteString(html.EscapeString(tag))
		}
		b.WriteString("</p>")
	}
	b.WriteString("</article>")
	return b.String()
}

// reviewPlainText concatenates the review for clipboard export.
func reviewPlainText(review *domain.Review) string {
	var b strings.Builder
	b.WriteString(review.Title)
	b.WriteString("\n\n")
	b.WriteString(review.Lead)
	for _, section := range review.Sections {
		b.WriteString("\n\n")
		b.WriteString(section.Subheading)
		b.WriteString("\n\n")
		b.WriteString(section.Content)
	}
	if len(review.Hashtags) > 0 {
		b.WriteString("\n\n")
		for i, tag := range review.Hashtags {
			if i > 0 {
				b.WriteString(" ")
			}
			b.WriteString("#")
			b.WriteString(tag)
		}
	}
	return b.String()
}
