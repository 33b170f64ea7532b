package config

import (
	"fmt"
	"net/url"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads and validates the curation profile from a YAML file.
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}

	var profile Profile
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("failed to parse profile YAML: %w", err)
	}

	setDefaults(&profile)

	if err := validate(&profile); err != nil {
		return nil, fmt.Errorf("invalid profile %s: %w", path, err)
	}

	return &profile, nil
}

func setDefaults(profile *Profile) {
	if profile.Channel.Title == "" {
		profile.Channel.Title = "Curated News Feed"
	}
	if profile.Channel.Description == "" {
		profile.Channel.Description = "AI-curated news matching a fixed set of interests"
	}
	if profile.Channel.Language == "" {
		profile.Channel.Language = "en-us"
	}
}

func validate(profile *Profile) error {
	if len(profile.Feeds) == 0 {
		return fmt.Errorf("at least one feed is required")
	}
	if len(profile.Interests) == 0 {
		return fmt.Errorf("at least one interest is required")
	}

	for i, feedURL := range profile.Feeds {
		parsed, err := url.Parse(feedURL)
		if err != nil {
			return fmt.Errorf("feed at index %d is not a valid URL: %w", i, err)
		}
		if parsed.Scheme != "http" && parsed.Scheme != "https" {
			return fmt.Errorf("feed at index %d must use http or https: %s", i, feedURL)
		}
	}

	return nil
}
