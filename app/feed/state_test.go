package feed

import (
	"os"
	"path/filepath"
	"testing"
)

const priorFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Prior Feed</title>
    <item>
      <title>With Guid</title>
      <link>https://example.com/link-a</link>
      <description><![CDATA[Desc A]]></description>
      <pubDate>Sat, 01 Jul 2023 12:00:00 +0000</pubDate>
      <source url="https://example.com">example.com</source>
      <guid isPermaLink="true">https://example.com/guid-a</guid>
    </item>
    <item>
      <title>Link Only</title>
      <link>https://example.com/link-b</link>
      <description>Desc B</description>
    </item>
    <item>
      <title>No Identity</title>
      <description>Skipped</description>
    </item>
  </channel>
</rss>`

func TestLoadFileState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feed.xml")
	if err := os.WriteFile(path, []byte(priorFeed), 0o644); err != nil {
		t.Fatal(err)
	}

	state, err := LoadFileState(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	items, err := state.CarryForward(10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items (identity-less item dropped), got %d", len(items))
	}

	// The guid wins over the link as identity.
	if items[0].Link != "https://example.com/guid-a" {
		t.Errorf("expected guid as identity, got %q", items[0].Link)
	}
	if items[0].PubDate != "Sat, 01 Jul 2023 12:00:00 +0000" {
		t.Errorf("pubDate not preserved: %q", items[0].PubDate)
	}
	if items[0].Source != "example.com" {
		t.Errorf("source not preserved: %q", items[0].Source)
	}

	// Without a guid, the link is the identity.
	if items[1].Link != "https://example.com/link-b" {
		t.Errorf("expected link fallback, got %q", items[1].Link)
	}

	known, err := state.KnownURLs()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(known) != 2 {
		t.Fatalf("expected 2 known URLs, got %d", len(known))
	}
	for _, url := range []string{"https://example.com/guid-a", "https://example.com/link-b"} {
		if _, ok := known[url]; !ok {
			t.Errorf("missing known URL %s", url)
		}
	}
}

func TestLoadFileStateMissingFile(t *testing.T) {
	state, err := LoadFileState(filepath.Join(t.TempDir(), "absent.xml"))
	if err != nil {
		t.Fatalf("missing file should yield empty state, got error: %v", err)
	}
	known, _ := state.KnownURLs()
	items, _ := state.CarryForward(10)
	if len(known) != 0 || len(items) != 0 {
		t.Error("expected empty state for missing file")
	}
}

func TestLoadFileStateMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feed.xml")
	if err := os.WriteFile(path, []byte("not xml at all <<<"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadFileState(path); err == nil {
		t.Error("expected error for malformed feed document")
	}
}
