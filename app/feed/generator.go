package feed

import (
	"bytes"
	"cmp"
	"encoding/xml"
	"fmt"
	"html"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/apodacaa/news-agent/app/config"
)

// Generator builds the published RSS 2.0 document. Newly accepted
// articles lead the feed, followed by carried-forward prior items,
// until maxItems is reached. Each guid appears at most once: a prior
// item whose link was already published from the accepted set this run
// is skipped, so state backends that surface same-run writes cannot
// duplicate an item.
type Generator struct {
	channel config.Channel
	version string
}

func NewGenerator(channel config.Channel, version string) *Generator {
	return &Generator{channel: channel, version: version}
}

// Write renders the feed and writes it to path, returning the item
// count. The parent directory is created if missing.
func (g *Generator) Write(path string, accepted []Article, prior []Item, maxItems int) (int, error) {
	document, count := g.Run(accepted, prior, maxItems)

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return 0, fmt.Errorf("failed to create feed directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(document), 0o644); err != nil {
		return 0, fmt.Errorf("failed to write feed: %w", err)
	}

	return count, nil
}

func (g *Generator) Run(accepted []Article, prior []Item, maxItems int) (string, int) {
	var buf bytes.Buffer

	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	buf.WriteString("\n")
	buf.WriteString(`<rss version="2.0">`)
	buf.WriteString("\n  <channel>\n")

	g.writeElement(&buf, "title", g.channel.Title, 4)
	g.writeElement(&buf, "link", g.channel.Link, 4)
	g.writeElement(&buf, "description", g.channel.Description, 4)
	g.writeElement(&buf, "language", g.channel.Language, 4)
	g.writeElement(&buf, "lastBuildDate", time.Now().UTC().Format(time.RFC1123Z), 4)
	g.writeElement(&buf, "generator", fmt.Sprintf("NewsAgent/%s", g.version), 4)

	count := 0
	written := make(map[string]struct{}, len(accepted))
	for _, article := range accepted {
		if count >= maxItems {
			break
		}
		g.writeItem(&buf, itemFromArticle(article))
		written[article.URL] = struct{}{}
		count++
	}

	duplicates := 0
	for _, item := range prior {
		if count >= maxItems {
			break
		}
		if _, dup := written[item.Link]; dup {
			duplicates++
			continue
		}
		g.writeItem(&buf, item)
		written[item.Link] = struct{}{}
		count++
	}

	buf.WriteString("  </channel>\n</rss>\n")

	if duplicates > 0 {
		slog.Debug("Skipped prior items already published this run", "count", duplicates)
	}
	if dropped := len(accepted) + len(prior) - duplicates - count; dropped > 0 {
		slog.Debug("Dropped items beyond feed cap", "count", dropped, "max", maxItems)
	}

	return buf.String(), count
}

// itemFromArticle converts a freshly accepted article into its
// published form. The generated summary, when present, takes the place
// of the feed-provided description.
func itemFromArticle(article Article) Item {
	var pubDate string
	if !article.PublishedAt.IsZero() {
		pubDate = article.PublishedAt.Format(time.RFC1123Z)
	}

	return Item{
		Title:       article.Title,
		Link:        article.URL,
		Description: cmp.Or(article.Summary, article.Description),
		PubDate:     pubDate,
		Source:      article.Source,
	}
}

func (g *Generator) writeItem(buf *bytes.Buffer, item Item) {
	buf.WriteString("    <item>\n")

	g.writeElement(buf, "title", item.Title, 6)
	g.writeElement(buf, "link", item.Link, 6)

	// CDATA tolerates embedded markup in descriptions.
	buf.WriteString("      <description><![CDATA[")
	buf.WriteString(item.Description)
	buf.WriteString("]]></description>\n")

	// Unrenderable dates omit the element rather than failing the item.
	if item.PubDate != "" {
		g.writeElement(buf, "pubDate", item.PubDate, 6)
	}

	if item.Source != "" {
		buf.WriteString(fmt.Sprintf("      <source url=\"%s\">", html.EscapeString("https://"+item.Source)))
		xml.EscapeText(buf, []byte(item.Source))
		buf.WriteString("</source>\n")
	}

	// The guid is the dedup key for future runs and must never change
	// for a given URL.
	buf.WriteString(`      <guid isPermaLink="true">`)
	xml.EscapeText(buf, []byte(item.Link))
	buf.WriteString("</guid>\n")

	buf.WriteString("    </item>\n")
}

func (g *Generator) writeElement(buf *bytes.Buffer, tag, content string, indent int) {
	if content == "" {
		return
	}

	for i := 0; i < indent; i++ {
		buf.WriteByte(' ')
	}

	buf.WriteString("<")
	buf.WriteString(tag)
	buf.WriteString(">")
	xml.EscapeText(buf, []byte(content))
	buf.WriteString("</")
	buf.WriteString(tag)
	buf.WriteString(">\n")
}
