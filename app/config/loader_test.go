package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeProfile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "profile.yml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadProfile(t *testing.T) {
	path := writeProfile(t, `
feeds:
  - https://example.com/rss.xml
  - http://blog.example.org/feed
interests:
  - distributed systems
  - compilers
channel:
  title: My Curated Feed
  link: https://me.example.com/feed.xml
`)

	profile, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(profile.Feeds) != 2 {
		t.Errorf("expected 2 feeds, got %d", len(profile.Feeds))
	}
	if len(profile.Interests) != 2 {
		t.Errorf("expected 2 interests, got %d", len(profile.Interests))
	}
	if profile.Channel.Title != "My Curated Feed" {
		t.Errorf("unexpected channel title %q", profile.Channel.Title)
	}

	// Unset channel fields get defaults.
	if profile.Channel.Language != "en-us" {
		t.Errorf("expected default language, got %q", profile.Channel.Language)
	}
	if profile.Channel.Description == "" {
		t.Error("expected default description")
	}
}

func TestLoadProfileDefaults(t *testing.T) {
	path := writeProfile(t, `
feeds:
  - https://example.com/rss.xml
interests:
  - golang
`)

	profile, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if profile.Channel.Title != "Curated News Feed" {
		t.Errorf("expected default title, got %q", profile.Channel.Title)
	}
}

func TestLoadProfileValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"no feeds", "interests:\n  - golang\n"},
		{"no interests", "feeds:\n  - https://example.com/rss.xml\n"},
		{"bad feed scheme", "feeds:\n  - ftp://example.com/rss.xml\ninterests:\n  - golang\n"},
		{"not yaml", "{{{{"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeProfile(t, tt.content)
			if _, err := Load(path); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadProfileMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yml")); err == nil {
		t.Error("expected error for missing profile")
	}
}
