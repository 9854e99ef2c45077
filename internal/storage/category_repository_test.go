package storage

import (
	"context"
	"sort"
	"testing"

	"github.com/philippehensmans/wikitips/internal/apperr"
	"github.com/philippehensmans/wikitips/internal/domain"
)

func TestCategoriesSeededAndAlphabetical(t *testing.T) {
	repo := NewCategoryRepository(newTestDB(t))

	categories, err := repo.GetAll(context.Background())
	if err != nil {
		t.Fatalf("get all: %v", err)
	}
	if len(categories) != 8 {
		t.Fatalf("expected 8 seeded categories, got %d", len(categories))
	}
	if !sort.SliceIsSorted(categories, func(i, j int) bool {
		return categories[i].Name < categories[j].Name
	}) {
		t.Fatalf("categories not alphabetical: %+v", categories)
	}
}

func TestCategorySeedIsIdempotent(t *testing.T) {
	db := newTestDB(t)

	// A second schema pass must not duplicate the reference data.
	if err := initSchema(db); err != nil {
		t.Fatalf("re-init schema: %v", err)
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM categories").Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 8 {
		t.Fatalf("expected 8 categories after reseed, got %d", count)
	}
}

func TestGetBySlugsDropsUnknown(t *testing.T) {
	repo := NewCategoryRepository(newTestDB(t))
	ctx := context.Background()

	categories, err := repo.GetBySlugs(ctx, []string{"droits-femmes", "pas-une-categorie", "droit-humanitaire"})
	if err != nil {
		t.Fatalf("get by slugs: %v", err)
	}
	if len(categories) != 2 {
		t.Fatalf("expected the 2 known slugs, got %d", len(categories))
	}

	none, err := repo.GetBySlugs(ctx, nil)
	if err != nil {
		t.Fatalf("empty slug list: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("expected no categories for empty input, got %d", len(none))
	}
}

func TestCategoryLookupNotFound(t *testing.T) {
	repo := NewCategoryRepository(newTestDB(t))
	ctx := context.Background()

	if _, err := repo.GetBySlug(ctx, "inconnu"); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("expected not-found, got %v", err)
	}
	if _, err := repo.GetByID(ctx, 9999); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestCategoryArticlesPublishedOnly(t *testing.T) {
	db := newTestDB(t)
	categories := NewCategoryRepository(db)
	articles := NewArticleRepository(db)
	ctx := context.Background()

	cat, err := categories.GetBySlug(ctx, "droits-enfants")
	if err != nil {
		t.Fatalf("get category: %v", err)
	}

	createArticle(t, articles, "Publié dans la catégorie", domain.ArticleFields{
		Status:      statusPtr(domain.StatusPublished),
		CategoryIDs: []int64{cat.ID},
	})
	createArticle(t, articles, "Brouillon dans la catégorie", domain.ArticleFields{
		CategoryIDs: []int64{cat.ID},
	})
	createArticle(t, articles, "Publié ailleurs", domain.ArticleFields{
		Status: statusPtr(domain.StatusPublished),
	})

	got, err := categories.Articles(ctx, cat.ID, 0)
	if err != nil {
		t.Fatalf("category articles: %v", err)
	}
	if len(got) != 1 || got[0].Title != "Publié dans la catégorie" {
		t.Fatalf("expected only the published category member, got %+v", got)
	}
}
