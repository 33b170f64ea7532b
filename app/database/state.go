package database

import (
	"time"

	"github.com/apodacaa/news-agent/app/feed"
)

// State adapts the repositories to the pipeline's prior-state
// contract: known URLs for deduplication, interesting articles for
// carry-forward, and per-run bookkeeping.
type State struct {
	db        *DB
	articles  *ArticleRepository
	summaries *SummaryRepository
	runs      *RunRepository

	model         string
	promptVersion string
	runID         int64
}

func NewState(db *DB, model, promptVersion string) *State {
	return &State{
		db:            db,
		articles:      NewArticleRepository(db),
		summaries:     NewSummaryRepository(db),
		runs:          NewRunRepository(db),
		model:         model,
		promptVersion: promptVersion,
	}
}

func (s *State) KnownURLs() (map[string]struct{}, error) {
	return s.articles.KnownURLs()
}

// CarryForward returns previously accepted articles as feed items,
// newest first, up to limit.
func (s *State) CarryForward(limit int) ([]feed.Item, error) {
	interesting, err := s.summaries.Interesting(limit)
	if err != nil {
		return nil, err
	}

	items := make([]feed.Item, 0, len(interesting))
	for _, a := range interesting {
		items = append(items, feed.Item{
			Title:       a.Title,
			Link:        a.URL,
			Description: a.Summary,
			PubDate:     formatPubDate(a.PubDate),
			Source:      a.Source,
		})
	}
	return items, nil
}

// RecordArticle persists an article and its classification verdict.
func (s *State) RecordArticle(article feed.Article, interested bool, reasoning, summary string) error {
	pubDate := ""
	if !article.PublishedAt.IsZero() {
		pubDate = article.PublishedAt.UTC().Format(time.RFC3339)
	}

	id, err := s.articles.Insert(article.URL, article.Title, article.Source, pubDate)
	if err != nil {
		return err
	}

	if err := s.summaries.Insert(id, interested, reasoning, summary, s.model, s.promptVersion); err != nil {
		return err
	}

	return s.articles.MarkProcessed(id)
}

func (s *State) StartRun() error {
	id, err := s.runs.Start()
	if err != nil {
		return err
	}
	s.runID = id
	return nil
}

func (s *State) CompleteRun(fetched, processed, interesting, errorCount int, errMsg string) error {
	if s.runID == 0 {
		return nil
	}
	return s.runs.Complete(s.runID, fetched, processed, interesting, errorCount, errMsg)
}

func (s *State) Close() error {
	return s.db.Close()
}

// formatPubDate converts a stored ISO-8601 date to the RFC 1123
// format RSS wants. Unparseable dates are dropped rather than
// published malformed.
func formatPubDate(iso string) string {
	if iso == "" {
		return ""
	}
	t, err := time.Parse(time.RFC3339, iso)
	if err != nil {
		return ""
	}
	return t.Format(time.RFC1123Z)
}
