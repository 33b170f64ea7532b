package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Paths
	ProfilePath string `long:"profile" env:"PROFILE_PATH" default:"./profile.yml" description:"Curation profile file (feed allow-list, interests, channel metadata)"`
	FeedPath    string `long:"feed-path" env:"FEED_PATH" default:"./data/feed.xml" description:"Path of the published RSS feed"`
	DBPath      string `long:"db-path" env:"DB_PATH" default:"./data/articles.db" description:"SQLite database path (database backend only)"`
	PromptsDir  string `long:"prompts-dir" env:"PROMPTS_DIR" default:"./prompts" description:"Directory for prompt/response audit files"`

	StateBackend string `long:"state-backend" env:"STATE_BACKEND" default:"file" choice:"file" choice:"database" description:"Where prior-state is tracked between runs"`

	// Resource limits
	MaxArticlesPerRun int   `long:"max-articles" env:"MAX_ARTICLES_PER_RUN" default:"50" description:"Maximum articles processed per run"`
	MaxArticleAgeDays int   `long:"max-article-age-days" env:"MAX_ARTICLE_AGE_DAYS" default:"14" description:"Skip articles older than N days (0 = no limit)"`
	MaxArticleLength  int   `long:"max-article-length" env:"MAX_ARTICLE_LENGTH" default:"10000" description:"Extracted article text cap in characters"`
	MaxSummaryLength  int   `long:"max-summary-length" env:"MAX_SUMMARY_LENGTH" default:"500" description:"Generated summary cap in characters"`
	MinArticleLength  int   `long:"min-article-length" env:"MIN_ARTICLE_LENGTH" default:"200" description:"Minimum extracted text length to keep an article"`
	MaxItems          int   `long:"max-items" env:"MAX_FEED_ITEMS" default:"50" description:"Maximum items in the published feed"`
	MaxResponseBytes  int64 `long:"max-response-bytes" env:"MAX_RESPONSE_BYTES" default:"10485760" description:"Byte cap for fetched article pages"`
	MaxRuntimeSeconds int   `long:"max-runtime" env:"MAX_RUNTIME_SECONDS" default:"300" description:"Wall-clock budget for a whole run in seconds"`

	// Network
	RequestTimeout int    `long:"request-timeout" env:"REQUEST_TIMEOUT" default:"10" description:"HTTP request timeout in seconds"`
	MaxRetries     int    `long:"max-retries" env:"MAX_RETRIES" default:"2" description:"Retries for transient model-service failures"`
	UserAgent      string `long:"user-agent" env:"USER_AGENT" default:"NewsAgent/1.0" description:"User agent string for HTTP requests"`

	// Language model service
	LLMEndpoint   string `long:"llm-endpoint" env:"LLM_ENDPOINT" default:"http://localhost:11434/v1/chat/completions" description:"Chat-completions endpoint of the model service"`
	LLMModel      string `long:"llm-model" env:"LLM_MODEL" default:"llama3.2" description:"Model identifier"`
	LLMAPIKey     string `long:"llm-api-key" env:"LLM_API_KEY" description:"Model service API key"`
	LLMTimeout    int    `long:"llm-timeout" env:"LLM_TIMEOUT" default:"30" description:"Timeout per model call in seconds"`
	PromptVersion string `long:"prompt-version" env:"PROMPT_VERSION" default:"1.0" description:"Prompt version recorded with each verdict"`
	SavePrompts   bool   `long:"save-prompts" env:"SAVE_PROMPTS" description:"Persist every prompt and raw response for offline audit"`

	// Modes
	TestMode  bool `long:"test" description:"Test mode: process 1 article, skip the model service"`
	ResetFeed bool `long:"reset-feed" description:"Reset the published feed to an empty skeleton and exit"`
	Debug     bool `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

// Load parses command-line flags and environment variables into an
// explicit Cfg value. Returns (nil, nil) when help was requested.
func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		ProfilePath:       raw.ProfilePath,
		FeedPath:          raw.FeedPath,
		DBPath:            raw.DBPath,
		PromptsDir:        raw.PromptsDir,
		StateBackend:      raw.StateBackend,
		MaxArticlesPerRun: raw.MaxArticlesPerRun,
		MaxArticleAgeDays: raw.MaxArticleAgeDays,
		MaxArticleLength:  raw.MaxArticleLength,
		MaxSummaryLength:  raw.MaxSummaryLength,
		MinArticleLength:  raw.MinArticleLength,
		MaxItems:          raw.MaxItems,
		MaxResponseBytes:  raw.MaxResponseBytes,
		MaxRuntime:        time.Duration(raw.MaxRuntimeSeconds) * time.Second,
		RequestTimeout:    time.Duration(raw.RequestTimeout) * time.Second,
		MaxRetries:        raw.MaxRetries,
		UserAgent:         raw.UserAgent,
		LLMEndpoint:       raw.LLMEndpoint,
		LLMModel:          raw.LLMModel,
		LLMAPIKey:         raw.LLMAPIKey,
		LLMTimeout:        time.Duration(raw.LLMTimeout) * time.Second,
		PromptVersion:     raw.PromptVersion,
		SavePrompts:       raw.SavePrompts,
		TestMode:          raw.TestMode,
		ResetFeed:         raw.ResetFeed,
		Debug:             raw.Debug,
		Version:           GetVersion(),
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func validate(cfg *Cfg) error {
	if cfg.MaxArticlesPerRun <= 0 {
		return fmt.Errorf("max-articles must be positive")
	}
	if cfg.MaxItems <= 0 {
		return fmt.Errorf("max-items must be positive")
	}
	if cfg.MaxArticleAgeDays < 0 {
		return fmt.Errorf("max-article-age-days must be non-negative")
	}
	if cfg.MinArticleLength < 0 {
		return fmt.Errorf("min-article-length must be non-negative")
	}
	if cfg.MaxResponseBytes <= 0 {
		return fmt.Errorf("max-response-bytes must be positive")
	}
	if cfg.MaxRuntime <= 0 {
		return fmt.Errorf("max-runtime must be positive")
	}
	if !cfg.TestMode {
		if cfg.LLMEndpoint == "" {
			return fmt.Errorf("llm-endpoint is required")
		}
		if cfg.LLMModel == "" {
			return fmt.Errorf("llm-model is required")
		}
	}
	return nil
}
