package storage

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/philippehensmans/wikitips/internal/apperr"
	"github.com/philippehensmans/wikitips/internal/domain"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := OpenMemory()
	if err != nil {
		t.Fatalf("open memory db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func strPtr(s string) *string { return &s }

func statusPtr(s domain.Status) *domain.Status { return &s }

func createArticle(t *testing.T, repo *ArticleRepository, title string, fields domain.ArticleFields) int64 {
	t.Helper()
	fields.Title = &title
	id, err := repo.Create(context.Background(), fields)
	if err != nil {
		t.Fatalf("create %q: %v", title, err)
	}
	return id
}

func TestCreateRequiresTitle(t *testing.T) {
	repo := NewArticleRepository(newTestDB(t))

	_, err := repo.Create(context.Background(), domain.ArticleFields{})
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	_, err = repo.Create(context.Background(), domain.ArticleFields{Title: strPtr("   ")})
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected validation error for blank title, got %v", err)
	}
}

func TestSlugCollisionSequence(t *testing.T) {
	repo := NewArticleRepository(newTestDB(t))
	ctx := context.Background()

	ids := []int64{
		createArticle(t, repo, "Liberté de la presse", domain.ArticleFields{}),
		createArticle(t, repo, "Liberté de la presse", domain.ArticleFields{}),
		createArticle(t, repo, "Liberté de la presse!", domain.ArticleFields{}),
	}

	want := []string{"libert-de-la-presse", "libert-de-la-presse-1", "libert-de-la-presse-2"}
	for i, id := range ids {
		article, err := repo.GetByID(ctx, id)
		if err != nil {
			t.Fatalf("get %d: %v", id, err)
		}
		if article.Slug != want[i] {
			t.Fatalf("article %d: expected slug %q, got %q", i, want[i], article.Slug)
		}
	}
}

func TestSlugFallbackForSymbolOnlyTitle(t *testing.T) {
	repo := NewArticleRepository(newTestDB(t))
	ctx := context.Background()

	first := createArticle(t, repo, "!!!", domain.ArticleFields{})
	second := createArticle(t, repo, "???", domain.ArticleFields{})

	a, err := repo.GetByID(ctx, first)
	if err != nil {
		t.Fatalf("get first: %v", err)
	}
	if a.Slug != "article" {
		t.Fatalf("expected fallback slug, got %q", a.Slug)
	}

	b, err := repo.GetByID(ctx, second)
	if err != nil {
		t.Fatalf("get second: %v", err)
	}
	if b.Slug != "article-1" {
		t.Fatalf("expected suffixed fallback slug, got %q", b.Slug)
	}
}

func TestUpdateRenameKeepsOwnSlug(t *testing.T) {
	repo := NewArticleRepository(newTestDB(t))
	ctx := context.Background()

	id := createArticle(t, repo, "Rapport annuel", domain.ArticleFields{})

	// Re-saving the same title must not suffix the slug against itself.
	if err := repo.Update(ctx, id, domain.ArticleFields{Title: strPtr("Rapport annuel")}); err != nil {
		t.Fatalf("update: %v", err)
	}

	article, err := repo.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if article.Slug != "rapport-annuel" {
		t.Fatalf("expected slug to survive rename, got %q", article.Slug)
	}
}

func TestUpdatePartialFields(t *testing.T) {
	repo := NewArticleRepository(newTestDB(t))
	ctx := context.Background()

	id := createArticle(t, repo, "Titre initial", domain.ArticleFields{
		Summary: strPtr("résumé"),
		Content: strPtr("corps"),
	})

	if err := repo.Update(ctx, id, domain.ArticleFields{
		Summary: strPtr("nouveau résumé"),
		Status:  statusPtr(domain.StatusPublished),
	}); err != nil {
		t.Fatalf("update: %v", err)
	}

	article, err := repo.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if article.Title != "Titre initial" || article.Content != "corps" {
		t.Fatalf("untouched fields changed: %+v", article)
	}
	if article.Summary != "nouveau résumé" || article.Status != domain.StatusPublished {
		t.Fatalf("updated fields not applied: %+v", article)
	}
	if !article.UpdatedAt.After(article.CreatedAt) {
		t.Fatalf("expected updated_at to advance past created_at")
	}
}

func TestCategoryAssociationsReplacedWholesale(t *testing.T) {
	db := newTestDB(t)
	repo := NewArticleRepository(db)
	categories := NewCategoryRepository(db)
	ctx := context.Background()

	all, err := categories.GetAll(ctx)
	if err != nil {
		t.Fatalf("list categories: %v", err)
	}
	if len(all) != 8 {
		t.Fatalf("expected 8 seeded categories, got %d", len(all))
	}

	id := createArticle(t, repo, "Conflit armé", domain.ArticleFields{
		CategoryIDs: []int64{all[0].ID, all[1].ID},
	})

	article, err := repo.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(article.Categories) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(article.Categories))
	}

	if err := repo.Update(ctx, id, domain.ArticleFields{CategoryIDs: []int64{all[2].ID}}); err != nil {
		t.Fatalf("update: %v", err)
	}

	article, err = repo.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("get after update: %v", err)
	}
	if len(article.Categories) != 1 || article.Categories[0].ID != all[2].ID {
		t.Fatalf("expected associations replaced by the new set, got %+v", article.Categories)
	}

	// Nil means keep, empty means clear.
	if err := repo.Update(ctx, id, domain.ArticleFields{Summary: strPtr("x")}); err != nil {
		t.Fatalf("update without categories: %v", err)
	}
	article, _ = repo.GetByID(ctx, id)
	if len(article.Categories) != 1 {
		t.Fatalf("nil category set should keep associations, got %d", len(article.Categories))
	}

	if err := repo.Update(ctx, id, domain.ArticleFields{CategoryIDs: []int64{}}); err != nil {
		t.Fatalf("clear categories: %v", err)
	}
	article, _ = repo.GetByID(ctx, id)
	if len(article.Categories) != 0 {
		t.Fatalf("empty category set should clear associations, got %d", len(article.Categories))
	}
}

func TestDeleteCascadesAssociations(t *testing.T) {
	db := newTestDB(t)
	repo := NewArticleRepository(db)
	categories := NewCategoryRepository(db)
	ctx := context.Background()

	all, _ := categories.GetAll(ctx)
	id := createArticle(t, repo, "À supprimer", domain.ArticleFields{CategoryIDs: []int64{all[0].ID}})

	if err := repo.Delete(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, err := repo.GetByID(ctx, id); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("expected not-found after delete, got %v", err)
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM article_categories WHERE article_id = ?", id).Scan(&count); err != nil {
		t.Fatalf("count associations: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected association rows to cascade, found %d", count)
	}
}

func TestGetBySlugAndNotFound(t *testing.T) {
	repo := NewArticleRepository(newTestDB(t))
	ctx := context.Background()

	createArticle(t, repo, "Un article précis", domain.ArticleFields{})

	article, err := repo.GetBySlug(ctx, "un-article-prcis")
	if err != nil {
		t.Fatalf("get by slug: %v", err)
	}
	if article.Title != "Un article précis" {
		t.Fatalf("wrong article: %q", article.Title)
	}

	if _, err := repo.GetBySlug(ctx, "missing"); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("expected not-found, got %v", err)
	}
	if _, err := repo.GetByID(ctx, 9999); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestGetAllFilterAndPagination(t *testing.T) {
	repo := NewArticleRepository(newTestDB(t))
	ctx := context.Background()

	for i, title := range []string{"Premier", "Deuxième", "Troisième", "Quatrième"} {
		fields := domain.ArticleFields{}
		if i%2 == 0 {
			fields.Status = statusPtr(domain.StatusPublished)
		}
		createArticle(t, repo, title, fields)
	}

	published, err := repo.GetAll(ctx, domain.StatusPublished, 50, 0)
	if err != nil {
		t.Fatalf("get published: %v", err)
	}
	if len(published) != 2 {
		t.Fatalf("expected 2 published, got %d", len(published))
	}
	// Identical created_at values fall back to id DESC, so newest insert
	// comes first.
	if published[0].Title != "Troisième" || published[1].Title != "Premier" {
		t.Fatalf("unexpected order: %q, %q", published[0].Title, published[1].Title)
	}

	page, err := repo.GetAll(ctx, "", 2, 1)
	if err != nil {
		t.Fatalf("get page: %v", err)
	}
	if len(page) != 2 || page[0].Title != "Troisième" || page[1].Title != "Deuxième" {
		t.Fatalf("unexpected page: %+v", page)
	}
}

func TestSearchIsCaseInsensitive(t *testing.T) {
	repo := NewArticleRepository(newTestDB(t))
	ctx := context.Background()

	createArticle(t, repo, "Crise Climatique", domain.ArticleFields{})
	createArticle(t, repo, "Autre sujet", domain.ArticleFields{Summary: strPtr("Les impacts du CLIMAT")})
	createArticle(t, repo, "Hors sujet", domain.ArticleFields{})

	results, err := repo.Search(ctx, "climat")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(results))
	}
}

func TestPublishedSinceWindow(t *testing.T) {
	repo := NewArticleRepository(newTestDB(t))
	ctx := context.Background()

	recent := createArticle(t, repo, "Récent publié", domain.ArticleFields{Status: statusPtr(domain.StatusPublished)})
	createArticle(t, repo, "Brouillon récent", domain.ArticleFields{})
	old := createArticle(t, repo, "Ancien publié", domain.ArticleFields{Status: statusPtr(domain.StatusPublished)})

	// Backdate the old article past the window.
	if _, err := repo.db.Exec("UPDATE articles SET created_at = ? WHERE id = ?",
		time.Now().UTC().AddDate(0, 0, -30), old); err != nil {
		t.Fatalf("backdate: %v", err)
	}

	articles, err := repo.PublishedSince(ctx, time.Now().UTC().AddDate(0, 0, -7))
	if err != nil {
		t.Fatalf("published since: %v", err)
	}
	if len(articles) != 1 || articles[0].ID != recent {
		t.Fatalf("expected only the recent published article, got %+v", articles)
	}
}
