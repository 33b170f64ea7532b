package content

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"
	"unicode/utf8"
)

type allowAll struct{}

func (allowAll) IsSafe(string) bool { return true }

type denyAll struct{}

func (denyAll) IsSafe(string) bool { return false }

func testExtractor(v URLValidator) *Extractor {
	return NewExtractor(v, Options{
		Timeout:          2 * time.Second,
		MaxResponseBytes: 64 * 1024,
		MinLength:        20,
		MaxLength:        10000,
		UserAgent:        "test",
	})
}

func servePage(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

func serveHTML(t *testing.T, body string) *httptest.Server {
	return servePage(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(body))
	})
}

func TestExtractUnsafeURLSkipsNetwork(t *testing.T) {
	requested := false
	server := servePage(t, func(w http.ResponseWriter, r *http.Request) {
		requested = true
	})

	extractor := testExtractor(denyAll{})
	if _, err := extractor.Extract(context.Background(), server.URL); err == nil {
		t.Fatal("expected error for unsafe URL")
	}
	if requested {
		t.Error("unsafe URL must be rejected before any network call")
	}
}

func TestExtractPrefersArticleElement(t *testing.T) {
	page := `<html><head><script>var x = "ignore me ignore me";</script></head><body>
		<nav>Home About Contact navigation links everywhere</nav>
		<article>This is the actual article body with enough words to pass the gate.</article>
		<footer>Copyright boilerplate footer text</footer>
	</body></html>`
	server := serveHTML(t, page)

	extractor := testExtractor(allowAll{})
	text, err := extractor.Extract(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if text != "This is the actual article body with enough words to pass the gate." {
		t.Errorf("unexpected text: %q", text)
	}
}

func TestExtractSelectorPriority(t *testing.T) {
	page := `<html><body>
		<main>Main landmark content that should lose to the class selector here.</main>
		<div class="entry-content">Entry content container wins over the bare main element.</div>
	</body></html>`
	server := serveHTML(t, page)

	extractor := testExtractor(allowAll{})
	text, err := extractor.Extract(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(text, "Entry content container wins") {
		t.Errorf("expected .entry-content to take priority, got %q", text)
	}
}

func TestExtractFallsBackToBody(t *testing.T) {
	page := `<html><body><div>No recognized container, but the body text is long enough to keep.</div></body></html>`
	server := serveHTML(t, page)

	extractor := testExtractor(allowAll{})
	text, err := extractor.Extract(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(text, "body text is long enough") {
		t.Errorf("unexpected text: %q", text)
	}
}

func TestExtractDeclaredContentLengthOverCap(t *testing.T) {
	bodyRead := false
	server := servePage(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", strconv.Itoa(10*1024*1024))
		bodyRead = true
		// The handler runs, but the client should abort on the header.
		w.Write(make([]byte, 1024))
	})

	extractor := testExtractor(allowAll{})
	_, err := extractor.Extract(context.Background(), server.URL)
	if err == nil {
		t.Fatal("expected error for oversized declared Content-Length")
	}
	_ = bodyRead
	if !strings.Contains(err.Error(), "too large") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestExtractStreamedBodyOverCap(t *testing.T) {
	server := servePage(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		flusher := w.(http.Flusher)
		chunk := []byte("<p>" + strings.Repeat("padding words ", 512) + "</p>")
		for i := 0; i < 32; i++ {
			w.Write(chunk)
			flusher.Flush()
		}
	})

	extractor := testExtractor(allowAll{})
	_, err := extractor.Extract(context.Background(), server.URL)
	if err == nil {
		t.Fatal("expected error when streamed body exceeds the byte cap")
	}
	if !strings.Contains(err.Error(), "exceeded size limit") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestExtractMinimumLengthGate(t *testing.T) {
	server := serveHTML(t, `<html><body><article>Too short.</article></body></html>`)

	extractor := testExtractor(allowAll{})
	if _, err := extractor.Extract(context.Background(), server.URL); err == nil {
		t.Fatal("expected error for text below the minimum length")
	}
}

func TestExtractTruncatesAtWordBoundary(t *testing.T) {
	long := strings.Repeat("word ", 100)
	server := serveHTML(t, "<html><body><article>"+long+"</article></body></html>")

	extractor := NewExtractor(allowAll{}, Options{
		Timeout:          2 * time.Second,
		MaxResponseBytes: 64 * 1024,
		MinLength:        20,
		MaxLength:        103,
		UserAgent:        "test",
	})

	text, err := extractor.Extract(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.HasSuffix(text, "...") {
		t.Errorf("truncated text should end with ellipsis: %q", text)
	}
	if strings.Contains(strings.TrimSuffix(text, "..."), "wor ") || len(text) > 106 {
		t.Errorf("truncation should cut at a word boundary: %q", text)
	}
}

func TestTruncateKeepsRunesIntact(t *testing.T) {
	text := strings.Repeat("é", 10) // 20 bytes, no spaces
	got := truncate(text, 11)       // byte 11 falls mid-rune

	if !utf8.ValidString(got) {
		t.Fatalf("truncated text is not valid UTF-8: %q", got)
	}
	if got != strings.Repeat("é", 5)+"..." {
		t.Errorf("expected cut backed off to a rune boundary, got %q", got)
	}
}

func TestSanitizeStripsControlCharacters(t *testing.T) {
	in := "normal\x00text\x1bwith\ncontrols\x7f"
	got := sanitize(in)
	if got != "normaltextwith\ncontrols" {
		t.Errorf("sanitize(%q) = %q", in, got)
	}
}

func TestSanitizeCollapsesNewlineRuns(t *testing.T) {
	got := sanitize("a\n\n\n\n\nb")
	if got != "a\n\nb" {
		t.Errorf("expected newline runs collapsed, got %q", got)
	}
}

func TestExtractBatch(t *testing.T) {
	good := serveHTML(t, `<html><body><article>Good article body with plenty of text to clear the gate.</article></body></html>`)
	bad := servePage(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	extractor := testExtractor(allowAll{})
	results := extractor.ExtractBatch(context.Background(), []string{good.URL, bad.URL})

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[good.URL] == "" {
		t.Error("expected content for healthy URL")
	}
	if results[bad.URL] != "" {
		t.Error("expected empty result for failing URL")
	}
}
