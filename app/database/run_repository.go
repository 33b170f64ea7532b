package database

import (
	"fmt"
	"time"
)

// RunRepository tracks pipeline run bookkeeping.
type RunRepository struct {
	db *DB
}

func NewRunRepository(db *DB) *RunRepository {
	return &RunRepository{db: db}
}

// Start opens a new run record and returns its id.
func (r *RunRepository) Start() (int64, error) {
	result, err := r.db.Exec(`
		INSERT INTO runs (started_at, status) VALUES (?, 'running')
	`, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("failed to start run: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run id: %w", err)
	}
	return id, nil
}

// Complete finalizes a run record with its counters. Status is
// "completed" when errMsg is empty, "failed" otherwise.
func (r *RunRepository) Complete(id int64, fetched, processed, interesting, errorCount int, errMsg string) error {
	status := "completed"
	if errMsg != "" {
		status = "failed"
	}

	_, err := r.db.Exec(`
		UPDATE runs
		SET completed_at = ?, articles_fetched = ?, articles_processed = ?,
		    articles_interesting = ?, errors = ?, status = ?, error_message = ?
		WHERE id = ?
	`, time.Now().UTC().Format(time.RFC3339), fetched, processed, interesting, errorCount, status, errMsg, id)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	return nil
}

// Stats returns aggregate counts across all runs.
func (r *RunRepository) Stats() (*Stats, error) {
	stats := &Stats{}

	err := r.db.QueryRow(`
		SELECT
			(SELECT COUNT(*) FROM articles),
			(SELECT COUNT(*) FROM articles WHERE processed = 1),
			(SELECT COUNT(*) FROM summaries WHERE interested = 1),
			(SELECT COUNT(*) FROM runs WHERE status = 'completed')
	`).Scan(&stats.TotalArticles, &stats.ProcessedArticles, &stats.InterestingArticles, &stats.CompletedRuns)
	if err != nil {
		return nil, fmt.Errorf("failed to query stats: %w", err)
	}

	return stats, nil
}
