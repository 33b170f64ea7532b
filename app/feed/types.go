package feed

import "time"

// Article is one candidate item pulled from a source feed. Instances
// are created by the Fetcher and not mutated afterwards; the generated
// summary is attached to a copy by the pipeline.
type Article struct {
	URL         string
	Title       string
	Source      string // feed's domain name
	PublishedAt time.Time
	Description string // feed-provided text, HTML stripped

	// Set by the pipeline for accepted articles.
	Summary string
}

// Item is one previously published entry carried forward from the
// existing feed document. Fields are kept verbatim so republishing is
// byte-stable across runs.
type Item struct {
	Title       string
	Link        string // doubles as guid, the dedup key
	Description string
	PubDate     string // rendered RFC-822 string, may be empty
	Source      string
}
