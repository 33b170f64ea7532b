package feed

import (
	"cmp"
	"encoding/xml"
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// FileState derives prior state from the published feed document
// itself: the item guids (falling back to links) become the known-URL
// set, and the items are carried forward verbatim into the next run's
// output. No separate database is involved.
type FileState struct {
	knownURLs map[string]struct{}
	items     []Item
}

type stateDoc struct {
	Channel struct {
		Items []stateItem `xml:"item"`
	} `xml:"channel"`
}

type stateItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	PubDate     string `xml:"pubDate"`
	GUID        string `xml:"guid"`
	Source      string `xml:"source"`
}

// LoadFileState parses the currently published feed. A missing file
// yields an empty state, not an error.
func LoadFileState(path string) (*FileState, error) {
	state := &FileState{knownURLs: make(map[string]struct{})}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return state, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read feed state: %w", err)
	}

	var doc stateDoc
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse feed state: %w", err)
	}

	for _, it := range doc.Channel.Items {
		url := cmp.Or(strings.TrimSpace(it.GUID), strings.TrimSpace(it.Link))
		if url == "" {
			continue
		}

		state.knownURLs[url] = struct{}{}
		state.items = append(state.items, Item{
			Title:       strings.TrimSpace(it.Title),
			Link:        url,
			Description: strings.TrimSpace(it.Description),
			PubDate:     strings.TrimSpace(it.PubDate),
			Source:      strings.TrimSpace(it.Source),
		})
	}

	slog.Info("Loaded existing items from feed", "count", len(state.items), "path", path)
	return state, nil
}

func (s *FileState) KnownURLs() (map[string]struct{}, error) {
	return s.knownURLs, nil
}

// CarryForward returns the previously published items in document
// order, up to limit.
func (s *FileState) CarryForward(limit int) ([]Item, error) {
	if len(s.items) > limit {
		return s.items[:limit], nil
	}
	return s.items, nil
}

// RecordArticle is a no-op: the regenerated feed document is the state.
func (s *FileState) RecordArticle(Article, bool, string, string) error {
	return nil
}

// StartRun is a no-op for the file-derived backend.
func (s *FileState) StartRun() error {
	return nil
}

// CompleteRun is a no-op for the file-derived backend.
func (s *FileState) CompleteRun(fetched, processed, interesting, errorCount int, errMsg string) error {
	return nil
}

func (s *FileState) Close() error {
	return nil
}
