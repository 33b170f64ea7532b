package database

import "fmt"

// SummaryRepository handles database operations for classification results.
type SummaryRepository struct {
	db *DB
}

func NewSummaryRepository(db *DB) *SummaryRepository {
	return &SummaryRepository{db: db}
}

// Insert records the classification verdict for an article.
func (r *SummaryRepository) Insert(articleID int64, interested bool, reasoning, summary, modelUsed, promptVersion string) error {
	_, err := r.db.Exec(`
		INSERT INTO summaries (article_id, interested, reasoning, summary, model_used, prompt_version)
		VALUES (?, ?, ?, ?, ?, ?)
	`, articleID, interested, reasoning, summary, modelUsed, promptVersion)
	if err != nil {
		return fmt.Errorf("failed to insert summary: %w", err)
	}
	return nil
}

// Interesting returns the most recently fetched interesting articles,
// newest first, up to limit.
func (r *SummaryRepository) Interesting(limit int) ([]InterestingArticle, error) {
	rows, err := r.db.Query(`
		SELECT a.title, a.url, a.source, a.pub_date, s.summary
		FROM articles a
		JOIN summaries s ON s.article_id = a.id
		WHERE s.interested = 1
		ORDER BY a.fetched_at DESC, a.id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query interesting articles: %w", err)
	}
	defer rows.Close()

	var articles []InterestingArticle
	for rows.Next() {
		var a InterestingArticle
		if err := rows.Scan(&a.Title, &a.URL, &a.Source, &a.PubDate, &a.Summary); err != nil {
			return nil, fmt.Errorf("failed to scan interesting article: %w", err)
		}
		articles = append(articles, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating summary rows: %w", err)
	}

	return articles, nil
}
