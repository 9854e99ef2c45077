package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/philippehensmans/wikitips/internal/apperr"
	"github.com/philippehensmans/wikitips/internal/domain"
	"github.com/philippehensmans/wikitips/internal/ports"
)

const defaultCategoryPageSize = 50

// CategoryRepository reads the fixed category reference data.
type CategoryRepository struct {
	db *sql.DB
}

var _ ports.CategoryRepository = (*CategoryRepository)(nil)

// NewCategoryRepository wires a sql.DB implementation.
func NewCategoryRepository(db *sql.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// GetAll lists every category alphabetically.
func (r *CategoryRepository) GetAll(ctx context.Context) ([]domain.Category, error) {
	return r.selectMany(ctx, nil)
}

// GetByID fetches one category.
func (r *CategoryRepository) GetByID(ctx context.Context, id int64) (*domain.Category, error) {
	return r.getOne(ctx, sq.Eq{"id": id})
}

// GetBySlug fetches one category.
func (r *CategoryRepository) GetBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	return r.getOne(ctx, sq.Eq{"slug": slug})
}

// GetBySlugs resolves a slug list to categories. Unknown slugs are silently
// dropped; the analysis provider sometimes suggests slugs that do not exist.
func (r *CategoryRepository) GetBySlugs(ctx context.Context, slugs []string) ([]domain.Category, error) {
	if len(slugs) == 0 {
		return nil, nil
	}
	return r.selectMany(ctx, sq.Eq{"slug": slugs})
}

// Articles returns published articles of the category, newest first,
// capped at the default page size when limit is not positive.
func (r *CategoryRepository) Articles(ctx context.Context, categoryID int64, limit int) ([]domain.Article, error) {
	if limit <= 0 {
		limit = defaultCategoryPageSize
	}

	query, args, err := sq.Select(prefixed("a", articleColumns)...).
		From("articles a").
		Join("article_categories ac ON a.id = ac.article_id").
		Where(sq.Eq{"ac.category_id": categoryID, "a.status": string(domain.StatusPublished)}).
		OrderBy("a.created_at DESC", "a.id DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build category articles: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select category articles: %w", err)
	}
	defer rows.Close()

	var articles []domain.Article
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		articles = append(articles, *article)
	}
	return articles, rows.Err()
}

func (r *CategoryRepository) getOne(ctx context.Context, pred any) (*domain.Category, error) {
	query, args, err := sq.Select("id", "name", "slug", "description").
		From("categories").Where(pred).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var cat domain.Category
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&cat.ID, &cat.Name, &cat.Slug, &cat.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("category not found")
	}
	if err != nil {
		return nil, fmt.Errorf("select category: %w", err)
	}
	return &cat, nil
}

func (r *CategoryRepository) selectMany(ctx context.Context, pred any) ([]domain.Category, error) {
	builder := sq.Select("id", "name", "slug", "description").
		From("categories").OrderBy("name")
	if pred != nil {
		builder = builder.Where(pred)
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select categories: %w", err)
	}
	defer rows.Close()

	var categories []domain.Category
	for rows.Next() {
		var cat domain.Category
		if err := rows.Scan(&cat.ID, &cat.Name, &cat.Slug, &cat.Description); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, cat)
	}
	return categories, rows.Err()
}

func prefixed(alias string, columns []string) []string {
	out := make([]string, len(columns))
	for i, col := range columns {
		out[i] = alias + "." + col
	}
	return out
}
