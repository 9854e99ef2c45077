package analysis

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/philippehensmans/wikitips/internal/apperr"
	"github.com/philippehensmans/wikitips/internal/config"
	"github.com/philippehensmans/wikitips/internal/domain"
)

func testArticle() *domain.Article {
	return &domain.Article{
		ID:      1,
		Title:   "Un article existant",
		Summary: "<p>Son résumé</p>",
		Content: "<p>Son contenu</p>",
	}
}

func testClient(url string) *Client {
	return NewClient(config.AnalysisConfig{
		Endpoint: url,
		Model:    "test-model",
		APIKey:   "test-key",
		Version:  "2023-06-01",
	})
}

func providerResponse(text string) string {
	payload, _ := json.Marshal(map[string]any{
		"content": []map[string]string{{"type": "text", "text": text}},
	})
	return string(payload)
}

func TestAnalyzeParsesFencedJSON(t *testing.T) {
	analysisJSON := `{
		"title": "Titre analysé",
		"summary": "<p>Résumé</p>",
		"bluesky_post": "Un post court",
		"main_points": ["Point un", "Point deux"],
		"human_rights_analysis": {
			"civil_political_rights": {"relevant": true, "points": ["Liberté d'expression menacée"], "concerns": ["Censure"]},
			"economic_social_cultural_rights": {"relevant": false, "points": [], "concerns": []},
			"overall_assessment": "Situation préoccupante",
			"recommendations": ["Suivre le dossier"]
		},
		"suggested_categories": ["droits-civils-politiques", "slug-inconnu"]
	}`

	var sawRequest struct {
		apiKey  string
		version string
		model   string
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawRequest.apiKey = r.Header.Get("x-api-key")
		sawRequest.version = r.Header.Get("anthropic-version")
		var body struct {
			Model string `json:"model"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		sawRequest.model = body.Model

		w.Write([]byte(providerResponse("```json\n" + analysisJSON + "\n```")))
	}))
	defer server.Close()

	result, err := testClient(server.URL).Analyze(context.Background(), "du contenu", "https://example.org/a")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}

	if sawRequest.apiKey != "test-key" || sawRequest.version != "2023-06-01" || sawRequest.model != "test-model" {
		t.Fatalf("unexpected request headers/model: %+v", sawRequest)
	}
	if result.Title != "Titre analysé" {
		t.Fatalf("wrong title: %q", result.Title)
	}
	if len(result.SuggestedCategories) != 2 {
		t.Fatalf("wrong suggested categories: %+v", result.SuggestedCategories)
	}
	if !strings.Contains(result.MainPointsHTML, "<li>Point un</li>") {
		t.Fatalf("main points not rendered: %q", result.MainPointsHTML)
	}
	if !strings.Contains(result.RightsAnalysisHTML, "Censure") {
		t.Fatalf("relevant section missing: %q", result.RightsAnalysisHTML)
	}
	if strings.Contains(result.RightsAnalysisHTML, "conomiques") {
		t.Fatalf("irrelevant section should be omitted: %q", result.RightsAnalysisHTML)
	}
}

func TestAnalyzeRejectsEmptyContent(t *testing.T) {
	_, err := testClient("http://unused").Analyze(context.Background(), "   ", "")
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAnalyzeMalformedJSONKeepsRawPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(providerResponse("voici l'analyse demandée, sans JSON")))
	}))
	defer server.Close()

	_, err := testClient(server.URL).Analyze(context.Background(), "du contenu", "")
	if apperr.KindOf(err) != apperr.KindContract {
		t.Fatalf("expected contract error, got %v", err)
	}
	if raw := apperr.RawOf(err); !strings.Contains(raw, "sans JSON") {
		t.Fatalf("raw payload not preserved: %q", raw)
	}
}

func TestAnalyzeMissingTitleIsContractError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(providerResponse(`{"summary": "seulement un résumé"}`)))
	}))
	defer server.Close()

	_, err := testClient(server.URL).Analyze(context.Background(), "du contenu", "")
	if apperr.KindOf(err) != apperr.KindContract {
		t.Fatalf("expected contract error, got %v", err)
	}
}

func TestAnalyzeProviderErrorEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error": {"type": "rate_limit_error", "message": "Too many requests"}}`))
	}))
	defer server.Close()

	_, err := testClient(server.URL).Analyze(context.Background(), "du contenu", "")
	if apperr.KindOf(err) != apperr.KindProvider {
		t.Fatalf("expected provider error, got %v", err)
	}
	if !strings.Contains(err.Error(), "Too many requests") {
		t.Fatalf("provider message not surfaced: %v", err)
	}
}

func TestAnalyzeEmptyEnvelopeIsContractError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"content": []}`))
	}))
	defer server.Close()

	_, err := testClient(server.URL).Analyze(context.Background(), "du contenu", "")
	if apperr.KindOf(err) != apperr.KindContract {
		t.Fatalf("expected contract error, got %v", err)
	}
}

func TestGenerateReviewParsesSections(t *testing.T) {
	reviewJSON := `{
		"title": "Le point hebdo",
		"lead": "L'essentiel de la semaine.",
		"sections": [
			{"subheading": "Contexte", "content": "Des faits."},
			{"subheading": "Analyse", "content": "Une lecture."}
		],
		"hashtags": ["DroitsHumains"],
		"character_count": 3900
	}`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(providerResponse(reviewJSON)))
	}))
	defer server.Close()

	review, err := testClient(server.URL).GenerateReview(context.Background(), testArticle())
	if err != nil {
		t.Fatalf("generate review: %v", err)
	}
	if review.Title != "Le point hebdo" || len(review.Sections) != 2 {
		t.Fatalf("unexpected review: %+v", review)
	}
	if !strings.Contains(review.HTML, "<h3>Contexte</h3>") {
		t.Fatalf("sections not rendered: %q", review.HTML)
	}
	if !strings.Contains(review.PlainText, "L'essentiel de la semaine.") {
		t.Fatalf("plain text missing lead: %q", review.PlainText)
	}
}

func TestGenerateReviewMissingLeadIsContractError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(providerResponse(`{"title": "Sans chapeau"}`)))
	}))
	defer server.Close()

	_, err := testClient(server.URL).GenerateReview(context.Background(), testArticle())
	if apperr.KindOf(err) != apperr.KindContract {
		t.Fatalf("expected contract error, got %v", err)
	}
}

func TestStripFences(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"{\"a\": 1}", "{\"a\": 1}"},
		{"```json\n{\"a\": 1}\n```", "{\"a\": 1}"},
		{"```\n{\"a\": 1}\n```", "{\"a\": 1}"},
		{"  {\"a\": 1}  ", "{\"a\": 1}"},
	}
	for _, tc := range cases {
		if got := stripFences(tc.in); got != tc.want {
			t.Errorf("stripFences(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
