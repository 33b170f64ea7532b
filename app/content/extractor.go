package content

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/encoding/htmlindex"
)

// URLValidator guards every outbound page fetch.
type URLValidator interface {
	IsSafe(url string) bool
}

type Extractor struct {
	validator        URLValidator
	httpClient       *http.Client
	timeout          time.Duration
	maxResponseBytes int64
	minLength        int
	maxLength        int
	userAgent        string
}

type Options struct {
	Timeout          time.Duration
	MaxResponseBytes int64
	MinLength        int
	MaxLength        int
	UserAgent        string
}

func NewExtractor(validator URLValidator, opts Options) *Extractor {
	return &Extractor{
		validator:        validator,
		httpClient:       &http.Client{},
		timeout:          opts.Timeout,
		maxResponseBytes: opts.MaxResponseBytes,
		minLength:        opts.MinLength,
		maxLength:        opts.MaxLength,
		userAgent:        opts.UserAgent,
	}
}

// Ordered by specificity; the first matching container wins.
var contentSelectors = []string{
	"article",
	`[role="main"]`,
	".post-content",
	".article-content",
	".entry-content",
	"main",
}

// Extract fetches a page and returns its main-content text, sanitized
// and truncated. Any failure along the way (unsafe URL, oversized or
// failed fetch, too little text) is reported as an error; callers fall
// back to the feed-provided description.
func (e *Extractor) Extract(ctx context.Context, url string) (string, error) {
	if !e.validator.IsSafe(url) {
		return "", fmt.Errorf("unsafe URL rejected: %s", url)
	}

	html, err := e.fetch(ctx, url)
	if err != nil {
		return "", err
	}

	text, err := extractText(html)
	if err != nil {
		return "", err
	}

	if len(text) < e.minLength {
		return "", fmt.Errorf("extracted text too short: %d chars", len(text))
	}

	text = sanitize(text)
	text = truncate(text, e.maxLength)

	slog.Debug("Content extracted", "url", url, "length", len(text))
	return text, nil
}

// ExtractBatch processes URLs sequentially, mapping each URL to its
// extracted text; failed URLs map to the empty string.
func (e *Extractor) ExtractBatch(ctx context.Context, urls []string) map[string]string {
	results := make(map[string]string, len(urls))
	successCount := 0

	for i, url := range urls {
		slog.Info("Extracting content", "index", i+1, "total", len(urls), "url", url)

		text, err := e.Extract(ctx, url)
		if err != nil {
			slog.Warn("Failed to extract content", "url", url, "error", err)
			results[url] = ""
			continue
		}

		results[url] = text
		successCount++
	}

	slog.Info("Batch extraction finished", "success", successCount, "total", len(urls))
	return results
}

// fetch GETs the page with the response size capped. A declared
// Content-Length over the cap aborts before the body is read; without
// the header the body is read incrementally and abandoned the moment
// the cap is crossed.
func (e *Extractor) fetch(ctx context.Context, url string) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", e.userAgent)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	if header := resp.Header.Get("Content-Length"); header != "" {
		if declared, err := strconv.ParseInt(header, 10, 64); err == nil && declared > e.maxResponseBytes {
			return nil, fmt.Errorf("response too large: %d bytes declared", declared)
		}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, e.maxResponseBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(data)) > e.maxResponseBytes {
		return nil, fmt.Errorf("response exceeded size limit of %d bytes", e.maxResponseBytes)
	}

	return decodeCharset(data, resp.Header.Get("Content-Type"))
}

// decodeCharset converts the body to UTF-8 when the Content-Type
// declares a different encoding.
func decodeCharset(data []byte, contentType string) ([]byte, error) {
	if contentType == "" {
		return data, nil
	}

	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return data, nil
	}

	charset := strings.ToLower(params["charset"])
	if charset == "" || charset == "utf-8" {
		return data, nil
	}

	enc, err := htmlindex.Get(charset)
	if err != nil {
		slog.Debug("Unknown charset, assuming UTF-8", "charset", charset)
		return data, nil
	}

	decoded, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s body: %w", charset, err)
	}
	return decoded, nil
}

var whitespaceRe = regexp.MustCompile(`\s+`)

// extractText strips boilerplate elements, then walks the content
// selectors in priority order, falling back to the whole body.
func extractText(html []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find("script, style, nav, header, footer, aside").Remove()

	var text string
	for _, selector := range contentSelectors {
		if sel := doc.Find(selector).First(); sel.Length() > 0 {
			text = sel.Text()
			break
		}
	}

	if strings.TrimSpace(text) == "" {
		text = doc.Find("body").Text()
	}

	return strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " ")), nil
}

var newlineRunRe = regexp.MustCompile(`\n{3,}`)

// sanitize strips control characters (keeping newlines) and collapses
// newline runs, so page content can't smuggle instructions into a
// model prompt via odd encodings.
func sanitize(text string) string {
	text = newlineRunRe.ReplaceAllString(text, "\n\n")

	return strings.Map(func(r rune) rune {
		if r == '\n' || unicode.IsPrint(r) {
			return r
		}
		return -1
	}, text)
}

// truncate cuts at the last word boundary at or before max and appends
// an ellipsis marker. The byte cap is backed off to a rune boundary so
// a multi-byte character is never split.
func truncate(text string, max int) string {
	if len(text) <= max {
		return text
	}

	for max > 0 && !utf8.RuneStart(text[max]) {
		max--
	}

	cut := text[:max]
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		cut = cut[:idx]
	}
	return cut + "..."
}
