package mailchimp

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/philippehensmans/wikitips/internal/domain"
	"github.com/philippehensmans/wikitips/internal/htmltext"
)

const excerptLen = 250

// BuildNewsletterHTML renders the self-contained digest email. All styles
// are inline; the unsubscribe link is a provider merge tag.
func (s *Service) BuildNewsletterHTML(articles []domain.Article) string {
	now := time.Now()
	weekStart := now.AddDate(0, 0, -7).Format("02/01")
	weekEnd := now.Format("02/01/2006")

	var rows strings.Builder
	for _, article := range articles {
		rows.WriteString(articleRow(&article, s.siteURL))
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="fr">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>%[1]s - Newsletter</title>
</head>
<body style="margin: 0; padding: 0; background-color: #f6f6f6; font-family: Georgia, 'Times New Roman', serif;">
    <table role="presentation" width="100%%" cellpadding="0" cellspacing="0" style="background-color: #f6f6f6;">
        <tr>
            <td align="center" style="padding: 20px 10px;">
                <table role="presentation" width="600" cellpadding="0" cellspacing="0" style="background-color: #ffffff; border: 1px solid #e0e0e0; border-radius: 4px;">
                    <!-- Header -->
                    <tr>
                        <td style="background-color: #3366cc; padding: 25px 30px; border-radius: 4px 4px 0 0;">
                            <h1 style="margin: 0; color: #ffffff; font-size: 22px; font-weight: normal;">%[1]s</h1>
                            <p style="margin: 5px 0 0 0; color: rgba(255,255,255,0.85); font-size: 13px;">Veille et analyse sous l'angle des droits humains</p>
                        </td>
                    </tr>
                    <!-- Intro -->
                    <tr>
                        <td style="padding: 25px 30px 15px 30px;">
                            <p style="margin: 0; font-size: 15px; color: #333; line-height: 1.6;">Voici les <strong>%[2]d article(s)</strong> publiés entre le %[3]s et le %[4]s.</p>
                        </td>
                    </tr>
                    <!-- Articles -->
                    <tr>
                        <td style="padding: 0 30px;">
                            <table role="presentation" width="100%%" cellpadding="0" cellspacing="0">%[5]s</table>
                        </td>
                    </tr>
                    <!-- CTA -->
                    <tr>
                        <td style="padding: 25px 30px;" align="center">
                            <a href="%[6]s" style="display: inline-block; background-color: #3366cc; color: #ffffff; padding: 12px 30px; text-decoration: none; border-radius: 4px; font-size: 14px;">Voir tous les articles</a>
                        </td>
                    </tr>
                    <!-- Footer -->
                    <tr>
                        <td style="background-color: #f8f9fa; padding: 20px 30px; border-top: 1px solid #e0e0e0; border-radius: 0 0 4px 4px;">
                            <p style="margin: 0; font-size: 12px; color: #888; text-align: center;">%[1]s - Les analyses sont générées avec l'aide de l'IA et doivent être vérifiées.</p>
                            <p style="margin: 8px 0 0 0; font-size: 11px; color: #aaa; text-align: center;"><a href="*|UNSUB|*" style="color: #888;">Se désabonner</a></p>
                        </td>
                    </tr>
                </table>
            </td>
        </tr>
    </table>
</body>
</html>`, html.EscapeString(s.siteName), len(articles), weekStart, weekEnd, rows.String(), s.siteURL)
}

func articleRow(article *domain.Article, siteURL string) string {
	articleURL := siteURL + "/article/" + article.Slug

	excerpt := htmltext.Truncate(htmltext.Strip(article.Summary), excerptLen)

	var categories string
	if len(article.Categories) > 0 {
		names := make([]string, len(article.Categories))
		for i, cat := range article.Categories {
			names[i] = html.EscapeString(cat.Name)
		}
		categories = " | " + strings.Join(names, " | ")
	}

	return fmt.Sprintf(`
            <tr>
                <td style="padding: 20px 0; border-bottom: 1px solid #e0e0e0;">
                    <h3 style="margin: 0 0 8px 0; font-size: 18px;"><a href="%s" style="color: #3366cc; text-decoration: none;">%s</a></h3>
                    <p style="margin: 0 0 8px 0; color: #555; font-size: 14px; line-height: 1.5;">%s</p>
                    <p style="margin: 0; font-size: 12px; color: #888;">%s%s</p>
                </td>
            </tr>`,
		articleURL,
		html.EscapeString(article.Title),
		html.EscapeString(excerpt),
		article.CreatedAt.Format("02/01/2006"),
		categories,
	)
}
