package cfg

import "time"

type Cfg struct {
	// Paths
	ProfilePath string
	FeedPath    string
	DBPath      string
	PromptsDir  string

	// State backend: "file" reconstructs prior state from the published
	// feed, "database" tracks it in sqlite.
	StateBackend string

	// Resource limits
	MaxArticlesPerRun int
	MaxArticleAgeDays int
	MaxArticleLength  int
	MaxSummaryLength  int
	MinArticleLength  int
	MaxItems          int
	MaxResponseBytes  int64
	MaxRuntime        time.Duration

	// Network
	RequestTimeout time.Duration
	MaxRetries     int
	UserAgent      string

	// Language model service
	LLMEndpoint   string
	LLMModel      string
	LLMAPIKey     string
	LLMTimeout    time.Duration
	PromptVersion string
	SavePrompts   bool

	// Modes
	TestMode  bool
	ResetFeed bool
	Debug     bool

	Version string
}
