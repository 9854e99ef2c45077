package analysis

import (
	"fmt"
	"strings"

	"github.com/philippehensmans/wikitips/internal/domain"
)

// availableCategories are the slugs the model may suggest; anything else is
// dropped when resolving categories.
const availableCategories = "droits-civils-politiques, droits-economiques-sociaux, droits-culturels, droit-humanitaire, droits-refugies, droits-enfants, droits-femmes, non-discrimination"

const reviewTargetLength = 4000

func buildAnalysisPrompt(content, sourceURL string) string {
	return fmt.Sprintf(`Tu es un expert en droits humains, droits civils et politiques, droits économiques, sociaux et culturels, ainsi qu'en droit international humanitaire. Analyse le contenu suivant et fournis une réponse structurée en JSON.

SOURCE: %s

CONTENU À ANALYSER:
%s

---

Réponds UNIQUEMENT avec un objet JSON valide (sans markdown, sans %s) contenant exactement cette structure:

{
    "title": "Titre proposé pour l'article (concis et informatif)",
    "summary": "Résumé du contenu en 2-3 paragraphes",
    "bluesky_post": "Texte court et accrocheur pour les réseaux sociaux (max 250 caractères)",
    "main_points": [
        "Point principal 1",
        "Point principal 2",
        "Point principal 3"
    ],
    "human_rights_analysis": {
        "civil_political_rights": {
            "relevant": true/false,
            "points": ["Point d'attention 1", "Point d'attention 2"],
            "concerns": ["Préoccupation éventuelle"]
        },
        "economic_social_cultural_rights": {
            "relevant": true/false,
            "points": ["Point d'attention 1"],
            "concerns": ["Préoccupation éventuelle"]
        },
        "international_humanitarian_law": {
            "relevant": true/false,
            "points": ["Point d'attention 1"],
            "concerns": ["Préoccupation éventuelle"]
        },
        "overall_assessment": "Évaluation globale sous l'angle des droits humains (2-3 phrases)",
        "recommendations": ["Recommandation 1", "Recommandation 2"]
    },
    "suggested_categories": ["droits-civils-politiques", "non-discrimination"]
}

Les catégories disponibles sont: %s

Assure-toi que le JSON est valide et complet.`, sourceURL, content, "```json", availableCategories)
}

func buildReviewPrompt(article *domain.Article) string {
	var source strings.Builder
	fmt.Fprintf(&source, "TITRE: %s\n\n", article.Title)
	if article.Summary != "" {
		fmt.Fprintf(&source, "RÉSUMÉ: %s\n\n", article.Summary)
	}
	if article.MainPoints != "" {
		fmt.Fprintf(&source, "POINTS PRINCIPAUX: %s\n\n", article.MainPoints)
	}
	if article.Content != "" {
		fmt.Fprintf(&source, "CONTENU: %s\n", article.Content)
	}

	return fmt.Sprintf(`Tu es un rédacteur en chef spécialisé dans les droits humains. Rédige une recension éditoriale complète de l'article suivant, destinée à une publication de veille.

%s

---

La recension doit compter environ %d caractères (espaces non compris), avec un ton analytique et accessible.

Réponds UNIQUEMENT avec un objet JSON valide (sans markdown, sans %s) contenant exactement cette structure:

{
    "title": "Titre de la recension",
    "lead": "Chapeau introductif d'un paragraphe",
    "sections": [
        {"subheading": "Intertitre 1", "content": "Texte de la section"},
        {"subheading": "Intertitre 2", "content": "Texte de la section"}
    ],
    "hashtags": ["DroitsHumains", "AutreHashtag"],
    "character_count": 4000
}

Le champ character_count doit indiquer le nombre de caractères du texte produit, espaces non compris. Assure-toi que le JSON est valide et complet.`, source.String(), reviewTargetLength, "```json")
}
