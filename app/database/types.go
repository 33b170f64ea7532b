package database

import "time"

type StoredArticle struct {
	ID        int64
	URL       string
	Title     string
	Source    string
	PubDate   string // ISO-8601
	FetchedAt time.Time
	Processed bool
}

type Summary struct {
	ID            int64
	ArticleID     int64
	Interested    bool
	Reasoning     string
	Summary       string
	ModelUsed     string
	PromptVersion string
	CreatedAt     time.Time
}

// InterestingArticle joins an interesting verdict with its article,
// ready for republishing.
type InterestingArticle struct {
	Title   string
	URL     string
	Source  string
	PubDate string // ISO-8601
	Summary string
}

type Stats struct {
	TotalArticles       int
	ProcessedArticles   int
	InterestingArticles int
	CompletedRuns       int
}
