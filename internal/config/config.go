// Package config loads leadwatch settings from config.yaml, the environment
// and the OS keychain, and installs the global logger.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/leadwatch/internal/secrets"
)

// Config is the top-level configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Chat      ChatConfig      `yaml:"chat" mapstructure:"chat"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Feed      FeedConfig      `yaml:"feed" mapstructure:"feed"`
	Pipeline  PipelineConfig  `yaml:"pipeline" mapstructure:"pipeline"`
	Retry     RetryConfig     `yaml:"retry" mapstructure:"retry"`
	Circuit   CircuitConfig   `yaml:"circuit" mapstructure:"circuit"`
	Pricing   PricingConfig   `yaml:"pricing" mapstructure:"pricing"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig selects the lead store.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// ChatConfig configures the chat-completion provider used for extraction.
type ChatConfig struct {
	Provider          string  `yaml:"provider" mapstructure:"provider"`
	APIKey            string  `yaml:"api_key" mapstructure:"api_key"`
	BaseURL           string  `yaml:"base_url" mapstructure:"base_url"`
	Model             string  `yaml:"model" mapstructure:"model"`
	MaxTokens         int     `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature       float64 `yaml:"temperature" mapstructure:"temperature"`
	JSONMode          bool    `yaml:"json_mode" mapstructure:"json_mode"`
	Referer           string  `yaml:"referer" mapstructure:"referer"`
	Title             string  `yaml:"title" mapstructure:"title"`
	TimeoutSecs       int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RequestsPerMinute int     `yaml:"requests_per_minute" mapstructure:"requests_per_minute"`
}

// AnthropicConfig holds Anthropic API settings, used when chat.provider is
// "anthropic".
type AnthropicConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// FeedConfig configures the feed source.
type FeedConfig struct {
	URL         string `yaml:"url" mapstructure:"url"`
	UserAgent   string `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// PipelineConfig tunes the run loop.
type PipelineConfig struct {
	RelevantEventTypes []string `yaml:"relevant_event_types" mapstructure:"relevant_event_types"`
	PaceDelayMs        int      `yaml:"pace_delay_ms" mapstructure:"pace_delay_ms"`
	MinFundingAmount   int64    `yaml:"min_funding_amount" mapstructure:"min_funding_amount"`
	LockFile           string   `yaml:"lock_file" mapstructure:"lock_file"`
}

// RetryConfig holds the enrichment retry schedule.
type RetryConfig struct {
	MaxAttempts       int `yaml:"max_attempts" mapstructure:"max_attempts"`
	RateLimitStepMs   int `yaml:"rate_limit_step_ms" mapstructure:"rate_limit_step_ms"`
	ServerErrorStepMs int `yaml:"server_error_step_ms" mapstructure:"server_error_step_ms"`
	OtherDelayMs      int `yaml:"other_delay_ms" mapstructure:"other_delay_ms"`
}

// CircuitConfig holds the store circuit breaker settings.
type CircuitConfig struct {
	FailureThreshold int `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	ResetTimeoutSecs int `yaml:"reset_timeout_secs" mapstructure:"reset_timeout_secs"`
}

// PricingConfig overrides per-model chat pricing.
type PricingConfig struct {
	Chat map[string]ModelPricing `yaml:"chat" mapstructure:"chat"`
}

// ModelPricing holds per-model token pricing (USD per million tokens).
type ModelPricing struct {
	Input  float64 `yaml:"input" mapstructure:"input"`
	Output float64 `yaml:"output" mapstructure:"output"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// secretLookup resolves credentials missing from file and environment.
var secretLookup = secrets.Get

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("LEADWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Unprefixed names accepted for compatibility with existing .env files.
	for key, names := range map[string][]string{
		"chat.api_key":       {"LEADWATCH_CHAT_API_KEY", "OPENROUTER_API_KEY"},
		"anthropic.key":      {"LEADWATCH_ANTHROPIC_KEY", "ANTHROPIC_API_KEY"},
		"store.database_url": {"LEADWATCH_STORE_DATABASE_URL", "DATABASE_URL"},
	} {
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return nil, eris.Wrapf(err, "config: bind env %s", key)
		}
	}

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "")
	v.SetDefault("chat.provider", "openrouter")
	v.SetDefault("chat.api_key", "")
	v.SetDefault("chat.base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("chat.model", "deepseek/deepseek-chat")
	v.SetDefault("chat.max_tokens", 150)
	v.SetDefault("chat.temperature", 0.1)
	v.SetDefault("chat.json_mode", true)
	v.SetDefault("chat.referer", "http://localhost:3000")
	v.SetDefault("chat.title", "LeadWatcher")
	v.SetDefault("chat.timeout_secs", 60)
	v.SetDefault("chat.requests_per_minute", 20)
	v.SetDefault("anthropic.key", "")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("feed.url", "https://techcrunch.com/feed/")
	v.SetDefault("feed.user_agent", "leadwatch/1.0")
	v.SetDefault("feed.timeout_secs", 30)
	v.SetDefault("pipeline.relevant_event_types", []string{"funding", "acquisition", "partnership", "hiring", "product_launch"})
	v.SetDefault("pipeline.pace_delay_ms", 2000)
	v.SetDefault("pipeline.min_funding_amount", 10000)
	v.SetDefault("pipeline.lock_file", "leadwatch.lock")
	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.rate_limit_step_ms", 5000)
	v.SetDefault("retry.server_error_step_ms", 2000)
	v.SetDefault("retry.other_delay_ms", 1000)
	v.SetDefault("circuit.failure_threshold", 5)
	v.SetDefault("circuit.reset_timeout_secs", 30)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	cfg.fillFromKeychain()
	return &cfg, nil
}

// fillFromKeychain fills empty credentials from the OS keychain.
func (c *Config) fillFromKeychain() {
	for name, field := range map[string]*string{
		secrets.OpenRouterAPIKey: &c.Chat.APIKey,
		secrets.AnthropicAPIKey:  &c.Anthropic.Key,
		secrets.DatabaseURL:      &c.Store.DatabaseURL,
	} {
		if *field != "" {
			continue
		}
		v, err := secretLookup(name)
		if err != nil {
			if !errors.Is(err, secrets.ErrNotFound) {
				zap.L().Debug("config: keychain lookup failed", zap.String("name", name), zap.Error(err))
			}
			continue
		}
		*field = v
	}
}

// Need names a group of settings a command depends on.
type Need int

const (
	// NeedStore requires a usable store configuration.
	NeedStore Need = iota
	// NeedChat requires credentials for the configured chat provider.
	NeedChat
	// NeedFeed requires a valid feed URL.
	NeedFeed
)

// Validate checks the settings required by needs. A failure is fatal for
// the calling command.
func (c *Config) Validate(needs ...Need) error {
	var problems []string
	for _, n := range needs {
		switch n {
		case NeedStore:
			problems = append(problems, c.validateStore()...)
		case NeedChat:
			problems = append(problems, c.validateChat()...)
		case NeedFeed:
			problems = append(problems, c.validateFeed()...)
		}
	}
	if c.Retry.MaxAttempts < 1 {
		problems = append(problems, "retry.max_attempts must be at least 1")
	}
	if len(problems) > 0 {
		return eris.New(fmt.Sprintf("config: validation failed: %s", strings.Join(problems, "; ")))
	}
	return nil
}

func (c *Config) validateStore() []string {
	switch c.Store.Driver {
	case "sqlite":
		return nil
	case "postgres":
		if c.Store.DatabaseURL == "" {
			return []string{"store.database_url is required for postgres (LEADWATCH_STORE_DATABASE_URL or DATABASE_URL)"}
		}
		return nil
	default:
		return []string{fmt.Sprintf("store.driver %q is not supported (sqlite, postgres)", c.Store.Driver)}
	}
}

func (c *Config) validateChat() []string {
	var problems []string
	switch c.Chat.Provider {
	case "openrouter":
		if c.Chat.APIKey == "" {
			problems = append(problems, "chat.api_key is required (OPENROUTER_API_KEY or keychain openrouter_api_key)")
		}
	case "anthropic":
		if c.Anthropic.Key == "" {
			problems = append(problems, "anthropic.key is required (ANTHROPIC_API_KEY or keychain anthropic_api_key)")
		}
	default:
		problems = append(problems, fmt.Sprintf("chat.provider %q is not supported (openrouter, anthropic)", c.Chat.Provider))
	}
	if c.Chat.MaxTokens <= 0 {
		problems = append(problems, "chat.max_tokens must be positive")
	}
	if c.Chat.Temperature < 0 || c.Chat.Temperature > 2 {
		problems = append(problems, "chat.temperature must be between 0 and 2")
	}
	return problems
}

func (c *Config) validateFeed() []string {
	u, err := url.Parse(c.Feed.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return []string{fmt.Sprintf("feed.url %q must be an http(s) URL", c.Feed.URL)}
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
