package database

import (
	"database/sql"
	"fmt"
	"log/slog"
)

// ArticleRepository handles database operations for fetched articles.
type ArticleRepository struct {
	db *DB
}

func NewArticleRepository(db *DB) *ArticleRepository {
	return &ArticleRepository{db: db}
}

// URLExists checks whether an article URL is already tracked.
func (r *ArticleRepository) URLExists(url string) (bool, error) {
	var one int
	err := r.db.QueryRow("SELECT 1 FROM articles WHERE url = ?", url).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check URL: %w", err)
	}
	return true, nil
}

// KnownURLs returns every article URL currently in the database.
func (r *ArticleRepository) KnownURLs() (map[string]struct{}, error) {
	rows, err := r.db.Query("SELECT url FROM articles")
	if err != nil {
		return nil, fmt.Errorf("failed to query known URLs: %w", err)
	}
	defer rows.Close()

	urls := make(map[string]struct{})
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, fmt.Errorf("failed to scan URL: %w", err)
		}
		urls[url] = struct{}{}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating URL rows: %w", err)
	}

	return urls, nil
}

// Insert stores an article, returning the existing row's id when the
// URL is already present (the insert is idempotent by URL).
func (r *ArticleRepository) Insert(url, title, source, pubDate string) (int64, error) {
	result, err := r.db.Exec(`
		INSERT INTO articles (url, title, source, pub_date)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(url) DO NOTHING
	`, url, title, source, pubDate)
	if err != nil {
		return 0, fmt.Errorf("failed to insert article: %w", err)
	}

	if affected, err := result.RowsAffected(); err == nil && affected > 0 {
		id, err := result.LastInsertId()
		if err != nil {
			return 0, fmt.Errorf("failed to get inserted id: %w", err)
		}
		slog.Debug("Inserted article", "url", url, "id", id)
		return id, nil
	}

	var id int64
	if err := r.db.QueryRow("SELECT id FROM articles WHERE url = ?", url).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to look up existing article: %w", err)
	}
	slog.Debug("Article already exists", "url", url, "id", id)
	return id, nil
}

// MarkProcessed flags an article as having gone through the pipeline.
func (r *ArticleRepository) MarkProcessed(id int64) error {
	if _, err := r.db.Exec("UPDATE articles SET processed = 1 WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to mark article processed: %w", err)
	}
	return nil
}
