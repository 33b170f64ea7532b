package config

// Profile is the curation profile: which feeds to pull, which topics
// the reader cares about, and how the published channel presents itself.
type Profile struct {
	Feeds     []string `yaml:"feeds"`
	Interests []string `yaml:"interests"`
	Channel   Channel  `yaml:"channel"`
}

// Channel holds the metadata of the published RSS channel.
type Channel struct {
	Title       string `yaml:"title"`
	Link        string `yaml:"link"`
	Description string `yaml:"description"`
	Language    string `yaml:"language"`
}
