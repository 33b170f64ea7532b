package agent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/apodacaa/news-agent/app/cfg"
	"github.com/apodacaa/news-agent/app/feed"
)

// PriorState is what a run needs to know about previous runs: which
// URLs were already seen, which accepted items to carry forward, and
// where to record this run's results. The file-derived and database
// backends both satisfy it.
type PriorState interface {
	KnownURLs() (map[string]struct{}, error)
	CarryForward(limit int) ([]feed.Item, error)
	RecordArticle(article feed.Article, interested bool, reasoning, summary string) error
	StartRun() error
	CompleteRun(fetched, processed, interesting, errorCount int, errMsg string) error
	Close() error
}

type Fetcher interface {
	FetchAll(ctx context.Context) []feed.Article
}

type Extractor interface {
	Extract(ctx context.Context, url string) (string, error)
}

type Classifier interface {
	CheckInterest(ctx context.Context, title, content, url string) (bool, string)
	Summarize(ctx context.Context, title, content, url string) (string, bool)
}

type Publisher interface {
	Write(path string, accepted []feed.Article, prior []feed.Item, maxItems int) (int, error)
}

type Stats struct {
	Fetched     int
	Processed   int
	Interesting int
	Errors      int
}

// Agent runs the full pipeline: fetch, dedupe, extract, classify,
// publish. One Run is one scheduled invocation.
type Agent struct {
	cfg        *cfg.Cfg
	fetcher    Fetcher
	extractor  Extractor
	classifier Classifier
	publisher  Publisher
	state      PriorState
	now        func() time.Time
}

func New(c *cfg.Cfg, fetcher Fetcher, extractor Extractor, classifier Classifier, publisher Publisher, state PriorState) *Agent {
	return &Agent{
		cfg:        c,
		fetcher:    fetcher,
		extractor:  extractor,
		classifier: classifier,
		publisher:  publisher,
		state:      state,
		now:        time.Now,
	}
}

// Run executes one pipeline pass under the configured runtime budget.
// The feed is always republished and the run always recorded, even
// when the budget expires mid-batch or a stage fails: a scheduled run
// must never leave a stale document behind.
func (a *Agent) Run(ctx context.Context) (*Stats, error) {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.MaxRuntime)
	defer cancel()

	started := a.now()
	stats := &Stats{}
	var runErr error

	if err := a.state.StartRun(); err != nil {
		slog.Error("Failed to record run start", "error", err)
		stats.Errors++
	}

	articles, err := a.fetchArticles(ctx)
	if err != nil {
		runErr = err
	}
	stats.Fetched = len(articles)

	var accepted []feed.Article
	for i, article := range articles {
		if ctx.Err() != nil {
			slog.Warn("Runtime budget expired, stopping batch",
				"processed", stats.Processed, "remaining", len(articles)-i)
			runErr = fmt.Errorf("runtime budget expired: %w", ctx.Err())
			break
		}

		slog.Info("Processing article",
			"index", i+1, "total", len(articles), "title", article.Title, "url", article.URL)

		result, err := a.processArticle(ctx, article)
		stats.Processed++
		if err != nil {
			slog.Error("Failed to process article", "url", article.URL, "error", err)
			stats.Errors++
			continue
		}
		if result != nil {
			accepted = append(accepted, *result)
			stats.Interesting++
		}
	}

	// Finalize regardless of how the batch went.
	if err := a.publish(accepted); err != nil {
		slog.Error("Failed to publish feed", "error", err)
		stats.Errors++
		if runErr == nil {
			runErr = err
		}
	}

	errMsg := ""
	if runErr != nil {
		errMsg = runErr.Error()
	}
	if err := a.state.CompleteRun(stats.Fetched, stats.Processed, stats.Interesting, stats.Errors, errMsg); err != nil {
		slog.Error("Failed to record run completion", "error", err)
	}

	slog.Info("Run finished",
		"fetched", stats.Fetched,
		"processed", stats.Processed,
		"interesting", stats.Interesting,
		"errors", stats.Errors,
		"duration", a.now().Sub(started).Round(time.Millisecond))

	return stats, runErr
}

// fetchArticles assembles this run's batch: fetch all whitelisted
// feeds, drop already-seen URLs, apply the age window, and cap the
// batch size. Input order is preserved throughout.
func (a *Agent) fetchArticles(ctx context.Context) ([]feed.Article, error) {
	articles := a.fetcher.FetchAll(ctx)

	known := map[string]struct{}{}
	if a.cfg.TestMode {
		slog.Info("Test mode: skipping dedup against prior state")
	} else {
		var err error
		known, err = a.state.KnownURLs()
		if err != nil {
			return nil, fmt.Errorf("failed to load known URLs: %w", err)
		}
	}

	articles = feed.Deduplicate(articles, known)
	articles = a.filterByAge(articles)

	limit := a.cfg.MaxArticlesPerRun
	if a.cfg.TestMode {
		limit = 1
	}
	if len(articles) > limit {
		slog.Info("Capping batch size", "limit", limit, "dropped", len(articles)-limit)
		articles = articles[:limit]
	}

	return articles, nil
}

// filterByAge drops articles older than the configured window. A zero
// window disables the filter; articles without a usable date are kept.
func (a *Agent) filterByAge(articles []feed.Article) []feed.Article {
	if a.cfg.MaxArticleAgeDays <= 0 {
		return articles
	}

	cutoff := a.now().AddDate(0, 0, -a.cfg.MaxArticleAgeDays)
	kept := make([]feed.Article, 0, len(articles))
	for _, article := range articles {
		if !article.PublishedAt.IsZero() && article.PublishedAt.Before(cutoff) {
			slog.Debug("Skipping old article", "url", article.URL, "published", article.PublishedAt)
			continue
		}
		kept = append(kept, article)
	}

	if dropped := len(articles) - len(kept); dropped > 0 {
		slog.Info("Filtered old articles", "count", dropped, "max_age_days", a.cfg.MaxArticleAgeDays)
	}
	return kept
}

// processArticle runs one article through extraction and
// classification. It returns the article, enriched with the model's
// summary, when it was judged interesting; nil when it was not. The
// verdict is recorded in prior state either way.
func (a *Agent) processArticle(ctx context.Context, article feed.Article) (*feed.Article, error) {
	content, err := a.extractor.Extract(ctx, article.URL)
	if err != nil {
		slog.Warn("Extraction failed, falling back to feed description", "url", article.URL, "error", err)
		content = article.Description
	}

	if len(content) < a.cfg.MinArticleLength {
		slog.Info("Skipping article with too little content", "url", article.URL, "length", len(content))
		if err := a.state.RecordArticle(article, false, "Insufficient content to evaluate", ""); err != nil {
			return nil, fmt.Errorf("failed to record article: %w", err)
		}
		return nil, nil
	}

	interested, reason := a.classifier.CheckInterest(ctx, article.Title, content, article.URL)

	summary := ""
	if interested {
		slog.Info("Article is interesting", "url", article.URL, "reason", reason)
		if s, ok := a.classifier.Summarize(ctx, article.Title, content, article.URL); ok {
			summary = s
		} else {
			slog.Warn("Summarization failed, publishing with feed description", "url", article.URL)
		}
	} else {
		slog.Debug("Article not interesting", "url", article.URL, "reason", reason)
	}

	if err := a.state.RecordArticle(article, interested, reason, summary); err != nil {
		return nil, fmt.Errorf("failed to record article: %w", err)
	}

	if !interested {
		return nil, nil
	}

	article.Summary = summary
	return &article, nil
}

// publish rewrites the feed document from this run's accepted articles
// plus the carried-forward prior items.
func (a *Agent) publish(accepted []feed.Article) error {
	prior, err := a.state.CarryForward(a.cfg.MaxItems)
	if err != nil {
		return fmt.Errorf("failed to load prior items: %w", err)
	}

	count, err := a.publisher.Write(a.cfg.FeedPath, accepted, prior, a.cfg.MaxItems)
	if err != nil {
		return err
	}

	slog.Info("Published feed", "path", a.cfg.FeedPath, "items", count, "new", len(accepted))
	return nil
}
