package main

import (
	"context"
	"time"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/leadwatch/internal/chat"
	"github.com/sells-group/leadwatch/internal/config"
	"github.com/sells-group/leadwatch/internal/cost"
	"github.com/sells-group/leadwatch/internal/enrich"
	"github.com/sells-group/leadwatch/internal/feed"
	"github.com/sells-group/leadwatch/internal/fetcher"
	"github.com/sells-group/leadwatch/internal/pipeline"
	"github.com/sells-group/leadwatch/internal/resilience"
	"github.com/sells-group/leadwatch/internal/store"
	anthropicpkg "github.com/sells-group/leadwatch/pkg/anthropic"
)

// initStore opens the configured lead store behind retry and a circuit
// breaker.
func initStore(ctx context.Context, c *config.Config) (store.LeadStore, error) {
	st, err := store.Open(ctx, store.Config{
		Driver:      c.Store.Driver,
		DatabaseURL: c.Store.DatabaseURL,
		Pool: store.PoolConfig{
			MaxConns: c.Store.MaxConns,
			MinConns: c.Store.MinConns,
		},
	})
	if err != nil {
		return nil, eris.Wrap(err, "open store")
	}

	breakerCfg := resilience.FromCircuitConfig(c.Circuit.FailureThreshold, c.Circuit.ResetTimeoutSecs)
	breakerCfg.OnStateChange = func(from, to resilience.CircuitState) {
		zap.L().Warn("store circuit breaker state change",
			zap.String("from", from.String()),
			zap.String("to", to.String()),
		)
	}
	return store.NewResilient(st, resilience.StoreRetryConfig(), store.NewBreaker(breakerCfg)), nil
}

// initCompleter builds the chat provider selected by chat.provider and
// throttles it to chat.requests_per_minute. It also returns the model name
// extraction requests should ask for.
func initCompleter(c *config.Config) (chat.Completer, string, error) {
	var (
		completer chat.Completer
		model     string
	)
	switch c.Chat.Provider {
	case "anthropic":
		model = c.Anthropic.Model
		completer = chat.NewAnthropic(anthropicpkg.NewClient(c.Anthropic.Key, option.WithMaxRetries(0)), model)
	case "openrouter", "":
		model = c.Chat.Model
		or, err := chat.NewOpenRouter(chat.OpenRouterConfig{
			APIKey:  c.Chat.APIKey,
			BaseURL: c.Chat.BaseURL,
			Model:   model,
			Referer: c.Chat.Referer,
			Title:   c.Chat.Title,
			Timeout: time.Duration(c.Chat.TimeoutSecs) * time.Second,
		})
		if err != nil {
			return nil, "", err
		}
		completer = or
	default:
		return nil, "", eris.Errorf("unsupported chat provider: %s", c.Chat.Provider)
	}

	var limiter *rate.Limiter
	if c.Chat.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(c.Chat.RequestsPerMinute)), 1)
	}
	return chat.WithRateLimit(completer, limiter), model, nil
}

// initEnricher wires the extraction service to the configured provider.
func initEnricher(c *config.Config) (*enrich.Service, error) {
	completer, model, err := initCompleter(c)
	if err != nil {
		return nil, eris.Wrap(err, "init chat provider")
	}
	return enrich.NewService(completer, enrich.Config{
		Model:            model,
		MaxTokens:        c.Chat.MaxTokens,
		Temperature:      c.Chat.Temperature,
		JSONMode:         c.Chat.JSONMode,
		MinFundingAmount: c.Pipeline.MinFundingAmount,
	}), nil
}

// initSource builds the feed source for feedURL, falling back to feed.url.
func initSource(c *config.Config, feedURL string) *feed.RSS {
	if feedURL == "" {
		feedURL = c.Feed.URL
	}
	f := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		UserAgent: c.Feed.UserAgent,
		Timeout:   time.Duration(c.Feed.TimeoutSecs) * time.Second,
	})
	return feed.NewRSS(feedURL, f)
}

// initCalculator merges configured pricing over the built-in rates.
func initCalculator(c *config.Config) *cost.Calculator {
	override := cost.Rates{Chat: make(map[string]cost.ModelRate, len(c.Pricing.Chat))}
	for model, p := range c.Pricing.Chat {
		override.Chat[model] = cost.ModelRate{Input: p.Input, Output: p.Output}
	}
	return cost.NewCalculator(cost.DefaultRates().Merge(override))
}

// pipelineConfig translates run settings into pipeline.Config.
func pipelineConfig(c *config.Config) pipeline.Config {
	pc := pipeline.DefaultConfig()
	if len(c.Pipeline.RelevantEventTypes) > 0 {
		pc.RelevantEventTypes = c.Pipeline.RelevantEventTypes
	}
	if c.Pipeline.PaceDelayMs >= 0 {
		pc.PaceDelay = time.Duration(c.Pipeline.PaceDelayMs) * time.Millisecond
	}
	if c.Retry.MaxAttempts > 0 {
		pc.Retry.MaxAttempts = c.Retry.MaxAttempts
	}
	pc.Retry.Backoff = resilience.FromClassBackoff(c.Retry.RateLimitStepMs, c.Retry.ServerErrorStepMs, c.Retry.OtherDelayMs)
	return pc
}
