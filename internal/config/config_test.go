package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/proposal-analyst/internal/llm"
)

// clearEnv blanks every variable Load consults so host settings do not leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"GEMINI_API_KEY", "OPENAI_API_KEY", "CORS_ORIGINS", "DEBUG", "AI_SERVICE_PORT",
		"PROPOSAL_LLM_PROVIDER", "PROPOSAL_LLM_API_KEY", "PROPOSAL_SERVER_PORT",
		"PROPOSAL_SERVER_DEBUG", "PROPOSAL_SERVER_CORS_ORIGINS", "PROPOSAL_LOG_LEVEL",
		"PROPOSAL_PIPELINE_BATCH_CONCURRENCY", "PROPOSAL_LLM_REQUEST_TIMEOUT",
	} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 5001, cfg.Server.Port)
	assert.Equal(t, []string{"http://localhost:3000", "http://localhost:3001"}, cfg.Server.CORSOrigins)
	assert.False(t, cfg.Server.Debug)
	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, 60*time.Second, cfg.LLM.RequestTimeout)
	assert.Equal(t, 2, cfg.LLM.MaxRetries)
	assert.Equal(t, 4, cfg.LLM.MaxConcurrent)
	assert.Equal(t, 2, cfg.Pipeline.BatchConcurrency)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.True(t, cfg.RateLimit.Enabled)
	assert.Empty(t, cfg.LLM.APIKey)
}

func TestLoad_FromFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
server:
  port: 8080
  debug: true
llm:
  provider: openai
  api_key: file-key
  request_timeout: 15s
  models:
    advanced: gpt-4.1
pipeline:
  batch_concurrency: 5
log:
  level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.True(t, cfg.Server.Debug)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "file-key", cfg.LLM.APIKey)
	assert.Equal(t, 15*time.Second, cfg.LLM.RequestTimeout)
	assert.Equal(t, 5, cfg.Pipeline.BatchConcurrency)

	mc := cfg.ModelConfig()
	assert.Equal(t, llm.ProviderOpenAI, mc.Provider)
	assert.Equal(t, "gpt-4.1", mc.GetModel(llm.TierAdvanced))
	assert.Equal(t, "gpt-4o-mini", mc.GetModel(llm.TierLite))
	assert.Equal(t, 15*time.Second, mc.Timeout)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PROPOSAL_LLM_PROVIDER", "OpenAI")
	t.Setenv("OPENAI_API_KEY", "env-key")
	t.Setenv("AI_SERVICE_PORT", "6001")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("DEBUG", "true")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "env-key", cfg.LLM.APIKey)
	assert.Equal(t, 6001, cfg.Server.Port)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
	assert.True(t, cfg.Server.Debug)
}

func TestLoad_PrefixedBeatsLegacy(t *testing.T) {
	clearEnv(t)
	t.Setenv("AI_SERVICE_PORT", "6001")
	t.Setenv("PROPOSAL_SERVER_PORT", "7001")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7001, cfg.Server.Port)
}

func TestLoad_GeminiKeyFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "gem-key")
	t.Setenv("OPENAI_API_KEY", "oa-key")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "gem-key", cfg.LLM.APIKey)
	assert.NoError(t, cfg.RequireAPIKey())
}

func TestLoad_FileNotFound(t *testing.T) {
	clearEnv(t)

	_, err := Load("/nonexistent/path/config.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoad_InvalidValues(t *testing.T) {
	clearEnv(t)

	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"unknown provider", "llm:\n  provider: anthropic\n", "llm.provider"},
		{"bad port", "server:\n  port: 70000\n", "server.port"},
		{"batch concurrency too high", "pipeline:\n  batch_concurrency: 11\n", "batch_concurrency"},
		{"zero concurrency", "llm:\n  max_concurrent: 0\n", "max_concurrent"},
		{"bad log level", "log:\n  level: chatty\n", "log.level"},
		{"missing vocabulary", "vocabulary_file: /nonexistent/vocab.yaml\n", "vocabulary file not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestRequireAPIKey(t *testing.T) {
	cfg := &Config{LLM: LLMConfig{Provider: "openai"}}
	err := cfg.RequireAPIKey()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")

	cfg.LLM.APIKey = "k"
	assert.NoError(t, cfg.RequireAPIKey())
}

func TestGuardOptions(t *testing.T) {
	cfg := &Config{LLM: LLMConfig{MaxConcurrent: 3, MaxRetries: 0, RequestTimeout: time.Second, RequestsPerSecond: 2}}

	opts := cfg.GuardOptions(nil)
	assert.Equal(t, int64(3), opts.MaxConcurrent)
	assert.Equal(t, -1, opts.MaxRetries)
	assert.Equal(t, time.Second, opts.RequestTimeout)
	assert.InDelta(t, 2.0, opts.RequestsPerSecond, 0.001)
}

func TestRateLimiterConfig(t *testing.T) {
	cfg := &Config{RateLimit: RateLimitConfig{
		Enabled:       true,
		DefaultLimit:  100,
		DefaultWindow: time.Minute,
		AnalyzeLimit:  10,
		AnalyzeWindow: time.Hour,
		AnalyzeBurst:  2,
		Whitelist:     []string{"10.0.0.1, 10.0.0.2"},
	}}

	rl := cfg.RateLimiterConfig()
	assert.True(t, rl.Enabled)
	assert.True(t, rl.Whitelist["10.0.0.2"])
	assert.Empty(t, rl.Blacklist)
	require.NotEmpty(t, rl.EndpointConfigs)
	assert.Equal(t, 10, rl.EndpointConfigs[0].Limit)
}

func TestRequestDeadline(t *testing.T) {
	cfg := &Config{Pipeline: PipelineConfig{ItemTimeout: 3 * time.Minute, BatchConcurrency: 2}}
	assert.Equal(t, 15*time.Minute, cfg.RequestDeadline())

	cfg.Pipeline.BatchConcurrency = 3
	assert.Equal(t, 12*time.Minute, cfg.RequestDeadline())

	cfg.Pipeline.BatchConcurrency = 10
	assert.Equal(t, 3*time.Minute, cfg.RequestDeadline())
}
