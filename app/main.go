package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/apodacaa/news-agent/app/agent"
	"github.com/apodacaa/news-agent/app/cfg"
	"github.com/apodacaa/news-agent/app/config"
	"github.com/apodacaa/news-agent/app/content"
	"github.com/apodacaa/news-agent/app/database"
	"github.com/apodacaa/news-agent/app/feed"
	"github.com/apodacaa/news-agent/app/llm"
	"github.com/apodacaa/news-agent/app/safety"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	setupLogging(appCfg.Debug)

	slog.Info("Starting news agent", "version", appCfg.Version, "backend", appCfg.StateBackend)

	profile, err := config.Load(appCfg.ProfilePath)
	if err != nil {
		slog.Error("Failed to load curation profile", "path", appCfg.ProfilePath, "error", err)
		os.Exit(1)
	}
	slog.Info("Loaded curation profile",
		"feeds", len(profile.Feeds), "interests", len(profile.Interests))

	generator := feed.NewGenerator(profile.Channel, appCfg.Version)

	if appCfg.ResetFeed {
		if _, err := generator.Write(appCfg.FeedPath, nil, nil, appCfg.MaxItems); err != nil {
			slog.Error("Failed to reset feed", "error", err)
			os.Exit(1)
		}
		slog.Info("Feed reset to empty skeleton", "path", appCfg.FeedPath)
		return
	}

	state, err := openState(appCfg)
	if err != nil {
		slog.Error("Failed to open prior state", "error", err)
		os.Exit(1)
	}
	defer state.Close()

	fetcher := feed.NewFetcher(profile.Feeds, appCfg.RequestTimeout, appCfg.UserAgent)

	extractor := content.NewExtractor(safety.NewValidator(), content.Options{
		Timeout:          appCfg.RequestTimeout,
		MaxResponseBytes: appCfg.MaxResponseBytes,
		MinLength:        appCfg.MinArticleLength,
		MaxLength:        appCfg.MaxArticleLength,
		UserAgent:        appCfg.UserAgent,
	})

	pipeline := agent.New(appCfg, fetcher, extractor, buildClassifier(appCfg, profile), generator, state)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stats, err := pipeline.Run(ctx)
	if err != nil {
		if ctx.Err() != nil {
			slog.Warn("Run interrupted", "error", err)
			return
		}
		slog.Error("Run failed", "error", err, "errors", stats.Errors)
		os.Exit(1)
	}
}

func setupLogging(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// openState selects the prior-state backend: the published feed
// document itself, or a sqlite database.
func openState(appCfg *cfg.Cfg) (agent.PriorState, error) {
	if appCfg.StateBackend == "database" {
		db, err := database.NewConnection(appCfg.DBPath)
		if err != nil {
			return nil, err
		}

		version, dirty, err := database.RunMigrations(db)
		if err != nil {
			db.Close()
			return nil, err
		}
		slog.Info("Database ready", "path", appCfg.DBPath, "schema_version", version, "dirty", dirty)

		return database.NewState(db, appCfg.LLMModel, appCfg.PromptVersion), nil
	}

	return feed.LoadFileState(appCfg.FeedPath)
}

// buildClassifier wires the model-backed classifier, or a stub that
// accepts everything when running in test mode.
func buildClassifier(appCfg *cfg.Cfg, profile *config.Profile) agent.Classifier {
	if appCfg.TestMode {
		return testClassifier{}
	}

	var audit *llm.Audit
	if appCfg.SavePrompts {
		audit = llm.NewAudit(appCfg.PromptsDir, appCfg.LLMModel, appCfg.PromptVersion)
	}

	client := llm.NewClient(appCfg.LLMEndpoint, appCfg.LLMModel, appCfg.LLMAPIKey,
		appCfg.LLMTimeout, appCfg.MaxRetries)

	return llm.NewClassifier(client, profile.Interests, appCfg.MaxRetries, appCfg.MaxSummaryLength, audit)
}

// testClassifier short-circuits the model service so a test run
// exercises fetch, extraction, and publishing only.
type testClassifier struct{}

func (testClassifier) CheckInterest(_ context.Context, _, _, _ string) (bool, string) {
	return true, "Test mode: accepted without model call"
}

func (testClassifier) Summarize(_ context.Context, _, _, _ string) (string, bool) {
	return "", false
}
