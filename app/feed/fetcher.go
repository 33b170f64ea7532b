package feed

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
)

// ErrNotWhitelisted is returned when a feed URL is not in the
// configured allow-list. The check happens before any network call.
var ErrNotWhitelisted = errors.New("feed not in whitelist")

type Fetcher struct {
	allowed    []string
	httpClient *http.Client
	parser     *gofeed.Parser
	timeout    time.Duration
	userAgent  string
	now        func() time.Time
}

func NewFetcher(allowed []string, timeout time.Duration, userAgent string) *Fetcher {
	return &Fetcher{
		allowed:    allowed,
		httpClient: &http.Client{},
		parser:     gofeed.NewParser(),
		timeout:    timeout,
		userAgent:  userAgent,
		now:        time.Now,
	}
}

func (f *Fetcher) isAllowed(feedURL string) bool {
	for _, allowed := range f.allowed {
		if feedURL == allowed {
			return true
		}
	}
	return false
}

// FetchFeed fetches and parses a single whitelisted feed into
// normalized articles. Entries without a link are dropped.
func (f *Fetcher) FetchFeed(ctx context.Context, feedURL string) ([]Article, error) {
	if !f.isAllowed(feedURL) {
		return nil, fmt.Errorf("%w: %s", ErrNotWhitelisted, feedURL)
	}

	slog.Info("Fetching feed", "url", feedURL)

	data, err := f.fetch(ctx, feedURL)
	if err != nil {
		return nil, err
	}

	parsed, err := f.parser.Parse(strings.NewReader(string(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	source := sourceName(feedURL)
	articles := make([]Article, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if item.Link == "" {
			slog.Debug("Skipping entry without URL", "title", item.Title)
			continue
		}

		articles = append(articles, Article{
			URL:         item.Link,
			Title:       cmp.Or(item.Title, "Untitled"),
			Source:      source,
			PublishedAt: f.entryDate(item),
			Description: StripHTML(item.Description),
		})
	}

	slog.Info("Fetched articles", "source", source, "count", len(articles))
	return articles, nil
}

// FetchAll iterates the whitelist. A single feed's failure is logged
// and skipped; it never aborts the batch.
func (f *Fetcher) FetchAll(ctx context.Context) []Article {
	var all []Article

	for _, feedURL := range f.allowed {
		articles, err := f.FetchFeed(ctx, feedURL)
		if err != nil {
			slog.Error("Failed to fetch feed", "url", feedURL, "error", err)
			continue
		}
		all = append(all, articles...)
	}

	slog.Info("Fetched all feeds", "articles", len(all), "feeds", len(f.allowed))
	return all
}

func (f *Fetcher) fetch(ctx context.Context, feedURL string) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}

// entryDate resolves an entry's timestamp, trying the published field
// first, then updated, falling back to the current wall-clock time.
// Other source date fields (dc:date, created) are folded into these
// two during parsing, so the chain ends at updated.
func (f *Fetcher) entryDate(item *gofeed.Item) time.Time {
	if item.PublishedParsed != nil {
		return *item.PublishedParsed
	}
	if item.UpdatedParsed != nil {
		return *item.UpdatedParsed
	}
	return f.now()
}

// Deduplicate returns the articles whose URL is not in knownURLs,
// preserving input order. The filter is pure and idempotent.
func Deduplicate(articles []Article, knownURLs map[string]struct{}) []Article {
	fresh := make([]Article, 0, len(articles))
	for _, article := range articles {
		if _, seen := knownURLs[article.URL]; !seen {
			fresh = append(fresh, article)
		}
	}

	if dropped := len(articles) - len(fresh); dropped > 0 {
		slog.Info("Filtered duplicate articles", "count", dropped)
	}

	return fresh
}

var whitespaceRe = regexp.MustCompile(`\s+`)

// StripHTML reduces feed-provided HTML to plain text with collapsed
// whitespace. Input that fails to parse is returned trimmed as-is.
func StripHTML(s string) string {
	if s == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.TrimSpace(s)
	}

	return strings.TrimSpace(whitespaceRe.ReplaceAllString(doc.Text(), " "))
}

func sourceName(feedURL string) string {
	parsed, err := url.Parse(feedURL)
	if err != nil {
		return feedURL
	}
	return strings.TrimPrefix(parsed.Hostname(), "www.")
}
