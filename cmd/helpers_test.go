package main

import (
	"testing"

	"github.com/sells-group/leadwatch/internal/config"
)

// testConfig installs a runnable configuration as the global cfg.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	c := &config.Config{}
	c.Store.Driver = "sqlite"
	c.Chat.Provider = "openrouter"
	c.Chat.APIKey = "sk-or-test"
	c.Chat.BaseURL = "http://127.0.0.1:0"
	c.Chat.Model = "deepseek/deepseek-chat"
	c.Chat.MaxTokens = 150
	c.Chat.Temperature = 0.1
	c.Chat.JSONMode = true
	c.Feed.URL = "https://techcrunch.com/feed/"
	c.Pipeline.RelevantEventTypes = []string{"funding", "acquisition"}
	c.Pipeline.PaceDelayMs = 2000
	c.Pipeline.LockFile = t.TempDir() + "/leadwatch.lock"
	c.Retry.MaxAttempts = 3
	c.Anthropic.Model = "claude-haiku-4-5-20251001"

	orig := cfg
	cfg = c
	t.Cleanup(func() { cfg = orig })
	return c
}
