package cfg

import (
	"testing"
	"time"
)

func validCfg() *Cfg {
	return &Cfg{
		MaxArticlesPerRun: 50,
		MaxArticleAgeDays: 14,
		MinArticleLength:  200,
		MaxItems:          50,
		MaxResponseBytes:  10 * 1024 * 1024,
		MaxRuntime:        5 * time.Minute,
		LLMEndpoint:       "http://localhost:11434/v1/chat/completions",
		LLMModel:          "llama3.2",
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Cfg)
		wantErr bool
	}{
		{"valid", func(c *Cfg) {}, false},
		{"zero max articles", func(c *Cfg) { c.MaxArticlesPerRun = 0 }, true},
		{"zero max items", func(c *Cfg) { c.MaxItems = 0 }, true},
		{"negative age", func(c *Cfg) { c.MaxArticleAgeDays = -1 }, true},
		{"zero age disables filter", func(c *Cfg) { c.MaxArticleAgeDays = 0 }, false},
		{"negative min length", func(c *Cfg) { c.MinArticleLength = -1 }, true},
		{"zero response cap", func(c *Cfg) { c.MaxResponseBytes = 0 }, true},
		{"zero runtime", func(c *Cfg) { c.MaxRuntime = 0 }, true},
		{"missing endpoint", func(c *Cfg) { c.LLMEndpoint = "" }, true},
		{"missing model", func(c *Cfg) { c.LLMModel = "" }, true},
		{"test mode skips model checks", func(c *Cfg) {
			c.TestMode = true
			c.LLMEndpoint = ""
			c.LLMModel = ""
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validCfg()
			tt.mutate(c)

			err := validate(c)
			if tt.wantErr && err == nil {
				t.Error("expected validation error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected validation error: %v", err)
			}
		})
	}
}

func TestGetVersion(t *testing.T) {
	if GetVersion() != "dev" {
		t.Errorf("expected default version dev, got %q", GetVersion())
	}
}
