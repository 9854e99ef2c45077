package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Open creates the SQLite database (and its directory) if needed, enables
// foreign keys and initializes the schema with its reference data.
func Open(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Association rows cascade-delete with their article; the pragma is
	// off by default in SQLite.
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return db, nil
}

// OpenMemory opens a throwaway in-memory database, used by tests. The
// pool is pinned to one connection because every new connection to
// ":memory:" would see its own empty database.
func OpenMemory() (*sql.DB, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return db, nil
}

func initSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS articles (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			slug TEXT UNIQUE NOT NULL,
			source_url TEXT NOT NULL DEFAULT '',
			source_content TEXT NOT NULL DEFAULT '',
			summary TEXT NOT NULL DEFAULT '',
			bluesky_post TEXT NOT NULL DEFAULT '',
			main_points TEXT NOT NULL DEFAULT '',
			human_rights_analysis TEXT NOT NULL DEFAULT '',
			content TEXT NOT NULL DEFAULT '',
			og_image TEXT NOT NULL DEFAULT '',
			review TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'draft',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS categories (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT UNIQUE NOT NULL,
			slug TEXT UNIQUE NOT NULL,
			description TEXT NOT NULL DEFAULT ''
		);

		CREATE TABLE IF NOT EXISTS article_categories (
			article_id INTEGER NOT NULL,
			category_id INTEGER NOT NULL,
			PRIMARY KEY (article_id, category_id),
			FOREIGN KEY (article_id) REFERENCES articles(id) ON DELETE CASCADE,
			FOREIGN KEY (category_id) REFERENCES categories(id) ON DELETE CASCADE
		);

		CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT UNIQUE NOT NULL,
			email TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT 'editor',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			last_login TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS pages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			slug TEXT UNIQUE NOT NULL,
			title TEXT NOT NULL,
			content TEXT NOT NULL DEFAULT '',
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS newsletter_logs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			campaign_id TEXT NOT NULL DEFAULT '',
			article_count INTEGER NOT NULL DEFAULT 0,
			sent_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			status TEXT NOT NULL DEFAULT 'sent'
		);
	`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}

	return seedCategories(db)
}

// defaultCategories are the eight fixed human-rights domains the analysis
// prompt refers to by slug.
var defaultCategories = []struct {
	name, slug, description string
}{
	{"Droits civils et politiques", "droits-civils-politiques", "Libertés fondamentales, droit de vote, liberté d'expression..."},
	{"Droits économiques et sociaux", "droits-economiques-sociaux", "Droit au travail, à la santé, à l'éducation..."},
	{"Droits culturels", "droits-culturels", "Droit à la culture, aux pratiques culturelles..."},
	{"Droit international humanitaire", "droit-humanitaire", "Conventions de Genève, protection des civils..."},
	{"Droits des réfugiés", "droits-refugies", "Convention de 1951, protection internationale..."},
	{"Droits des enfants", "droits-enfants", "Convention des droits de l'enfant..."},
	{"Droits des femmes", "droits-femmes", "CEDAW, égalité des genres..."},
	{"Non-discrimination", "non-discrimination", "Égalité, lutte contre les discriminations..."},
}

func seedCategories(db *sql.DB) error {
	stmt, err := db.Prepare("INSERT OR IGNORE INTO categories (name, slug, description) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare category seed: %w", err)
	}
	defer stmt.Close()

	for _, cat := range defaultCategories {
		if _, err := stmt.Exec(cat.name, cat.slug, cat.description); err != nil {
			return fmt.Errorf("seed category %s: %w", cat.slug, err)
		}
	}
	return nil
}
