package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/philippehensmans/wikitips/internal/apperr"
	"github.com/philippehensmans/wikitips/internal/domain"
	"github.com/philippehensmans/wikitips/internal/ports"
)

var articleColumns = []string{
	"id", "title", "slug", "source_url", "source_content", "summary",
	"bluesky_post", "main_points", "human_rights_analysis", "content",
	"og_image", "review", "status", "created_at", "updated_at",
}

// ArticleRepository persists articles and their category associations.
type ArticleRepository struct {
	db *sql.DB
}

var _ ports.ArticleRepository = (*ArticleRepository)(nil)

// NewArticleRepository wires a sql.DB implementation.
func NewArticleRepository(db *sql.DB) *ArticleRepository {
	return &ArticleRepository{db: db}
}

// Create inserts a new article with a generated unique slug and returns its
// id. A supplied category list replaces associations wholesale.
func (r *ArticleRepository) Create(ctx context.Context, fields domain.ArticleFields) (int64, error) {
	if fields.Title == nil || strings.TrimSpace(*fields.Title) == "" {
		return 0, apperr.Validation("title is required")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin create: %w", err)
	}
	defer tx.Rollback()

	slug, err := r.uniqueSlug(ctx, tx, Slugify(*fields.Title), 0)
	if err != nil {
		return 0, err
	}

	now := time.Now().UTC()
	values := map[string]any{
		"title":      *fields.Title,
		"slug":       slug,
		"status":     string(domain.StatusDraft),
		"created_at": now,
		"updated_at": now,
	}
	if fields.Status != nil {
		values["status"] = string(*fields.Status)
	}
	for column, value := range optionalColumns(fields) {
		values[column] = value
	}

	query, args, err := sq.Insert("articles").SetMap(values).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build insert: %w", err)
	}

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("insert article: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}

	if fields.CategoryIDs != nil {
		if err := replaceCategories(ctx, tx, id, fields.CategoryIDs); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit create: %w", err)
	}
	return id, nil
}

// Update writes only the supplied fields and bumps the update timestamp.
// A supplied title regenerates the slug, excluding this row from the
// uniqueness check. Updating a missing id is a no-op.
func (r *ArticleRepository) Update(ctx context.Context, id int64, fields domain.ArticleFields) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update: %w", err)
	}
	defer tx.Rollback()

	values := map[string]any{"updated_at": time.Now().UTC()}
	if fields.Title != nil {
		slug, sErr := r.uniqueSlug(ctx, tx, Slugify(*fields.Title), id)
		if sErr != nil {
			return sErr
		}
		values["title"] = *fields.Title
		values["slug"] = slug
	}
	if fields.Status != nil {
		values["status"] = string(*fields.Status)
	}
	for column, value := range optionalColumns(fields) {
		values[column] = value
	}

	query, args, err := sq.Update("articles").SetMap(values).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update article %d: %w", id, err)
	}

	if fields.CategoryIDs != nil {
		if err := replaceCategories(ctx, tx, id, fields.CategoryIDs); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update: %w", err)
	}
	return nil
}

// Delete removes the article; association rows cascade with it.
func (r *ArticleRepository) Delete(ctx context.Context, id int64) error {
	query, args, err := sq.Delete("articles").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete article %d: %w", id, err)
	}
	return nil
}

// GetByID returns the article with its resolved categories.
func (r *ArticleRepository) GetByID(ctx context.Context, id int64) (*domain.Article, error) {
	return r.getOne(ctx, sq.Eq{"id": id})
}

// GetBySlug returns the article with its resolved categories.
func (r *ArticleRepository) GetBySlug(ctx context.Context, slug string) (*domain.Article, error) {
	return r.getOne(ctx, sq.Eq{"slug": slug})
}

func (r *ArticleRepository) getOne(ctx context.Context, pred any) (*domain.Article, error) {
	query, args, err := sq.Select(articleColumns...).From("articles").Where(pred).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	article, err := scanArticle(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("article not found")
	}
	if err != nil {
		return nil, fmt.Errorf("select article: %w", err)
	}

	article.Categories, err = r.categoriesOf(ctx, article.ID)
	if err != nil {
		return nil, err
	}
	return article, nil
}

// GetAll returns a newest-first page, optionally filtered by status, with
// categories attached to every row.
func (r *ArticleRepository) GetAll(ctx context.Context, status domain.Status, limit, offset int) ([]domain.Article, error) {
	builder := sq.Select(articleColumns...).From("articles").
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(limit)).Offset(uint64(offset))
	if status != "" {
		builder = builder.Where(sq.Eq{"status": string(status)})
	}

	articles, err := r.selectMany(ctx, builder)
	if err != nil {
		return nil, err
	}
	for i := range articles {
		articles[i].Categories, err = r.categoriesOf(ctx, articles[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return articles, nil
}

// Search matches the query case-insensitively against title, summary and
// body, newest first. Results are unbounded and carry no category lists.
func (r *ArticleRepository) Search(ctx context.Context, query string) ([]domain.Article, error) {
	pattern := "%" + strings.ToLower(query) + "%"
	builder := sq.Select(articleColumns...).From("articles").
		Where(sq.Or{
			sq.Like{"lower(title)": pattern},
			sq.Like{"lower(summary)": pattern},
			sq.Like{"lower(content)": pattern},
		}).
		OrderBy("created_at DESC", "id DESC")
	return r.selectMany(ctx, builder)
}

// PublishedSince returns published articles created in the given window,
// newest first, with categories attached. Used to assemble the digest.
func (r *ArticleRepository) PublishedSince(ctx context.Context, since time.Time) ([]domain.Article, error) {
	builder := sq.Select(articleColumns...).From("articles").
		Where(sq.Eq{"status": string(domain.StatusPublished)}).
		Where(sq.GtOrEq{"created_at": since.UTC()}).
		OrderBy("created_at DESC", "id DESC")

	articles, err := r.selectMany(ctx, builder)
	if err != nil {
		return nil, err
	}
	for i := range articles {
		articles[i].Categories, err = r.categoriesOf(ctx, articles[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return articles, nil
}

func (r *ArticleRepository) selectMany(ctx context.Context, builder sq.SelectBuilder) ([]domain.Article, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select articles: %w", err)
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

func (r *ArticleRepository) categoriesOf(ctx context.Context, articleID int64) ([]domain.Category, error) {
	query, args, err := sq.Select("c.id", "c.name", "c.slug", "c.description").
		From("categories c").
		Join("article_categories ac ON c.id = ac.category_id").
		Where(sq.Eq{"ac.article_id": articleID}).
		OrderBy("c.name").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build category join: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select article categories: %w", err)
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

// uniqueSlug appends -1, -2, ... to the base until no other row claims the
// candidate. excludeID scopes the check away from the row being renamed so
// a no-op rename cannot collide with itself.
func (r *ArticleRepository) uniqueSlug(ctx context.Context, tx *sql.Tx, base string, excludeID int64) (string, error) {
	candidate := base
	for counter := 1; ; counter++ {
		exists, err := slugExists(ctx, tx, candidate, excludeID)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, counter)
	}
}

func slugExists(ctx context.Context, tx *sql.Tx, slug string, excludeID int64) (bool, error) {
	builder := sq.Select("COUNT(*)").From("articles").Where(sq.Eq{"slug": slug})
	if excludeID != 0 {
		builder = builder.Where(sq.NotEq{"id": excludeID})
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return false, fmt.Errorf("build slug check: %w", err)
	}

	var count int
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return false, fmt.Errorf("check slug %s: %w", slug, err)
	}
	return count > 0, nil
}

// replaceCategories deletes all association rows and re-inserts the given
// set inside the caller's transaction, so a crash mid-update cannot leave
// the article half-associated.
func replaceCategories(ctx context.Context, tx *sql.Tx, articleID int64, categoryIDs []int64) error {
	query, args, err := sq.Delete("article_categories").Where(sq.Eq{"article_id": articleID}).ToSql()
	if err != nil {
		return fmt.Errorf("build association delete: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("clear associations: %w", err)
	}

	if len(categoryIDs) == 0 {
		return nil
	}

	builder := sq.Insert("article_categories").Columns("article_id", "category_id")
	for _, catID := range categoryIDs {
		builder = builder.Values(articleID, catID)
	}
	query, args, err = builder.ToSql()
	if err != nil {
		return fmt.Errorf("build association insert: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert associations: %w", err)
	}
	return nil
}

func optionalColumns(fields domain.ArticleFields) map[string]any {
	values := map[string]any{}
	set := func(column string, value *string) {
		if value != nil {
			values[column] = *value
		}
	}
	set("source_url", fields.SourceURL)
	set("source_content", fields.SourceContent)
	set("summary", fields.Summary)
	set("bluesky_post", fields.SocialPost)
	set("main_points", fields.MainPoints)
	set("human_rights_analysis", fields.RightsAnalysis)
	set("content", fields.Content)
	set("og_image", fields.ThumbnailURL)
	set("review", fields.Review)
	return values
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArticle(row rowScanner) (*domain.Article, error) {
	var article domain.Article
	var status string
	err := row.Scan(
		&article.ID, &article.Title, &article.Slug, &article.SourceURL,
		&article.SourceContent, &article.Summary, &article.SocialPost,
		&article.MainPoints, &article.RightsAnalysis, &article.Content,
		&article.ThumbnailURL, &article.Review, &status,
		&article.CreatedAt, &article.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	article.Status = domain.Status(status)
	return &article, nil
}
