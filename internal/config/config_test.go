package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("MODE", "")
	t.Setenv("ENRICH_MIN_DELAY", "")
	t.Setenv("ENRICH_MAX_DELAY", "")
	t.Setenv("FEED_INTERVAL", "")
	t.Setenv("JOB_QUERIES", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "serve", cfg.App.Mode)
	assert.Equal(t, 3*time.Second, cfg.Agent.EnrichMinDelay)
	assert.Equal(t, 10*time.Second, cfg.Agent.EnrichMaxDelay)
	assert.Equal(t, 72*time.Hour, cfg.Scheduler.FeedInterval)
	assert.Equal(t, "0 0 * * 0", cfg.Scheduler.CleanupSpec)
	assert.Nil(t, cfg.Agent.Queries)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("ENRICH_MIN_DELAY", "1s")
	t.Setenv("ENRICH_MAX_DELAY", "2s")
	t.Setenv("ANALYSIS_MAX_CONCURRENCY", "8")
	t.Setenv("ENRICH_FAILURE_POLICY", "ABORT")
	t.Setenv("JOB_QUERIES", `"AI Engineer" AND (Python OR C#) | Go Developer ||`)
	t.Setenv("PW_HEADLESS", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, time.Second, cfg.Agent.EnrichMinDelay)
	assert.Equal(t, 2*time.Second, cfg.Agent.EnrichMaxDelay)
	assert.Equal(t, 8, cfg.Agent.MaxConcurrency)
	assert.Equal(t, "abort", cfg.Agent.EnrichPolicy)
	assert.Equal(t, []string{`"AI Engineer" AND (Python OR C#)`, "Go Developer"}, cfg.Agent.Queries)
	assert.False(t, cfg.Browser.Headless)
}

func TestValidate(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("LINKEDIN_MCP_URL", "http://localhost:8000/mcp")
	t.Setenv("DB_NAME", "jobs")

	cfg, err := Load()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	cfg.Agent.EnrichPolicy = "retry"
	assert.Error(t, cfg.Validate())

	cfg.Agent.EnrichPolicy = "isolate"
	cfg.Agent.EnrichMaxDelay = time.Second
	cfg.Agent.EnrichMinDelay = 5 * time.Second
	assert.Error(t, cfg.Validate())
}

func TestValidate_MissingKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("LINKEDIN_MCP_URL", "http://localhost:8000/mcp")
	t.Setenv("DB_NAME", "jobs")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Error(t, cfg.Validate())
}
