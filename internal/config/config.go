// Package config provides configuration loading and validation for the CLI and
// the HTTP service.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/jonathan/proposal-analyst/internal/llm"
	"github.com/jonathan/proposal-analyst/internal/logging"
	"github.com/jonathan/proposal-analyst/internal/server/ratelimit"
	"github.com/jonathan/proposal-analyst/internal/types"
)

// EnvPrefix namespaces environment overrides, e.g. PROPOSAL_LLM_PROVIDER.
const EnvPrefix = "PROPOSAL"

// Config is the application configuration.
type Config struct {
	Server         ServerConfig    `mapstructure:"server"`
	LLM            LLMConfig       `mapstructure:"llm"`
	Pipeline       PipelineConfig  `mapstructure:"pipeline"`
	Log            LogConfig       `mapstructure:"log"`
	RateLimit      RateLimitConfig `mapstructure:"rate_limit"`
	VocabularyFile string          `mapstructure:"vocabulary_file"`
}

type ServerConfig struct {
	Port        int      `mapstructure:"port"`
	CORSOrigins []string `mapstructure:"cors_origins"`
	// Debug exposes failure details in API error responses.
	Debug bool `mapstructure:"debug"`
}

type LLMConfig struct {
	Provider          string        `mapstructure:"provider"`
	APIKey            string        `mapstructure:"api_key"`
	Models            ModelsConfig  `mapstructure:"models"`
	BaseURL           string        `mapstructure:"base_url"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout"`
	MaxRetries        int           `mapstructure:"max_retries"`
	MaxConcurrent     int           `mapstructure:"max_concurrent"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
}

type ModelsConfig struct {
	Lite     string `mapstructure:"lite"`
	Standard string `mapstructure:"standard"`
	Advanced string `mapstructure:"advanced"`
}

type PipelineConfig struct {
	ItemTimeout      time.Duration `mapstructure:"item_timeout"`
	BatchConcurrency int           `mapstructure:"batch_concurrency"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type RateLimitConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	DefaultLimit    int           `mapstructure:"default_limit"`
	DefaultWindow   time.Duration `mapstructure:"default_window"`
	AnalyzeLimit    int           `mapstructure:"analyze_limit"`
	AnalyzeWindow   time.Duration `mapstructure:"analyze_window"`
	AnalyzeBurst    int           `mapstructure:"analyze_burst"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
	Whitelist       []string      `mapstructure:"whitelist"`
	Blacklist       []string      `mapstructure:"blacklist"`
}

// legacyEnv lists bare environment variables honoured alongside the prefixed ones.
var legacyEnv = map[string]string{
	"server.port":         "AI_SERVICE_PORT",
	"server.cors_origins": "CORS_ORIGINS",
	"server.debug":        "DEBUG",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 5001)
	v.SetDefault("server.cors_origins", []string{"http://localhost:3000", "http://localhost:3001"})
	v.SetDefault("server.debug", false)

	v.SetDefault("llm.provider", string(llm.ProviderGemini))
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.models.lite", "")
	v.SetDefault("llm.models.standard", "")
	v.SetDefault("llm.models.advanced", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.request_timeout", llm.DefaultRequestTimeout)
	v.SetDefault("llm.max_retries", llm.DefaultMaxRetries)
	v.SetDefault("llm.max_concurrent", llm.DefaultMaxConcurrent)
	v.SetDefault("llm.requests_per_second", 0.0)

	v.SetDefault("pipeline.item_timeout", 3*time.Minute)
	v.SetDefault("pipeline.batch_concurrency", 2)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", logging.FormatJSON)

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.default_limit", 1000)
	v.SetDefault("rate_limit.default_window", time.Minute)
	v.SetDefault("rate_limit.analyze_limit", 60)
	v.SetDefault("rate_limit.analyze_window", time.Hour)
	v.SetDefault("rate_limit.analyze_burst", 5)
	v.SetDefault("rate_limit.cleanup_interval", 5*time.Minute)
	v.SetDefault("rate_limit.whitelist", []string{})
	v.SetDefault("rate_limit.blacklist", []string{})

	v.SetDefault("vocabulary_file", "")
}

// Load reads configuration from defaults, an optional YAML file, and the
// environment, in increasing precedence. An empty path searches for config.yaml
// in . and ./configs; a missing file is not an error in that case.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	for key, env := range legacyEnv {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("error reading config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.LLM.Provider = strings.ToLower(strings.TrimSpace(cfg.LLM.Provider))
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = providerKeyFromEnv(llm.Provider(cfg.LLM.Provider))
	}
	cfg.Server.CORSOrigins = cleanList(cfg.Server.CORSOrigins)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// providerKeyFromEnv reads the provider's conventional API key variable.
func providerKeyFromEnv(provider llm.Provider) string {
	switch provider {
	case llm.ProviderOpenAI:
		return os.Getenv("OPENAI_API_KEY")
	default:
		return os.Getenv("GEMINI_API_KEY")
	}
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// Validate checks that the configuration has valid values. It does not require an
// API key; commands that call the model use RequireAPIKey.
func (c *Config) Validate() error {
	switch llm.Provider(c.LLM.Provider) {
	case llm.ProviderGemini, llm.ProviderOpenAI:
	default:
		return fmt.Errorf("config error: 'llm.provider' must be one of gemini, openai (got %q)", c.LLM.Provider)
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config error: 'server.port' must be between 1 and 65535")
	}
	if c.LLM.RequestTimeout <= 0 {
		return fmt.Errorf("config error: 'llm.request_timeout' must be positive")
	}
	if c.LLM.MaxRetries < 0 {
		return fmt.Errorf("config error: 'llm.max_retries' must be non-negative")
	}
	if c.LLM.MaxConcurrent < 1 {
		return fmt.Errorf("config error: 'llm.max_concurrent' must be at least 1")
	}
	if c.LLM.RequestsPerSecond < 0 {
		return fmt.Errorf("config error: 'llm.requests_per_second' must be non-negative")
	}
	if c.Pipeline.ItemTimeout <= 0 {
		return fmt.Errorf("config error: 'pipeline.item_timeout' must be positive")
	}
	if c.Pipeline.BatchConcurrency < 1 || c.Pipeline.BatchConcurrency > types.MaxBatchSize {
		return fmt.Errorf("config error: 'pipeline.batch_concurrency' must be between 1 and %d", types.MaxBatchSize)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("config error: 'log.level': %w", err)
	}
	if c.VocabularyFile != "" {
		if _, err := os.Stat(c.VocabularyFile); os.IsNotExist(err) {
			return fmt.Errorf("config error: vocabulary file not found: %s", c.VocabularyFile)
		}
	}
	return nil
}

// RequireAPIKey fails when no key is configured for the selected provider.
func (c *Config) RequireAPIKey() error {
	if c.LLM.APIKey != "" {
		return nil
	}
	env := "GEMINI_API_KEY"
	if llm.Provider(c.LLM.Provider) == llm.ProviderOpenAI {
		env = "OPENAI_API_KEY"
	}
	return fmt.Errorf("config error: no API key for provider %s (set %s or %s_LLM_API_KEY)", c.LLM.Provider, env, EnvPrefix)
}

// ModelConfig returns the llm configuration for the selected provider with any
// model or endpoint overrides applied.
func (c *Config) ModelConfig() *llm.Config {
	mc := llm.ConfigFor(llm.Provider(c.LLM.Provider))
	overrides := map[llm.ModelTier]string{
		llm.TierLite:     c.LLM.Models.Lite,
		llm.TierStandard: c.LLM.Models.Standard,
		llm.TierAdvanced: c.LLM.Models.Advanced,
	}
	for tier, model := range overrides {
		if model != "" {
			mc = mc.WithModel(tier, model)
		}
	}
	if c.LLM.BaseURL != "" {
		mc.BaseURL = c.LLM.BaseURL
	}
	mc.Timeout = c.LLM.RequestTimeout
	return mc
}

// GuardOptions returns the call limits for llm.NewGuarded.
func (c *Config) GuardOptions(logger *zap.Logger) llm.GuardOptions {
	retries := c.LLM.MaxRetries
	if retries == 0 {
		retries = -1
	}
	return llm.GuardOptions{
		MaxConcurrent:     int64(c.LLM.MaxConcurrent),
		RequestsPerSecond: c.LLM.RequestsPerSecond,
		MaxRetries:        retries,
		RequestTimeout:    c.LLM.RequestTimeout,
		Logger:            logger,
	}
}

// RequestDeadline bounds one HTTP analysis request. A full batch runs in waves
// of batch_concurrency items, each wave capped by item_timeout.
func (c *Config) RequestDeadline() time.Duration {
	concurrency := max(c.Pipeline.BatchConcurrency, 1)
	waves := (types.MaxBatchSize + concurrency - 1) / concurrency
	return time.Duration(waves) * c.Pipeline.ItemTimeout
}

// RateLimiterConfig converts the rate_limit section for the HTTP limiter.
func (c *Config) RateLimiterConfig() *ratelimit.Config {
	rl := c.RateLimit
	return &ratelimit.Config{
		Enabled:         rl.Enabled,
		DefaultLimit:    rl.DefaultLimit,
		DefaultWindow:   rl.DefaultWindow,
		CleanupInterval: rl.CleanupInterval,
		Whitelist:       toSet(rl.Whitelist),
		Blacklist:       toSet(rl.Blacklist),
		EndpointConfigs: ratelimit.AnalysisEndpointConfigs(rl.AnalyzeLimit, rl.AnalyzeWindow, rl.AnalyzeBurst),
	}
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range cleanList(items) {
		set[item] = true
	}
	return set
}
