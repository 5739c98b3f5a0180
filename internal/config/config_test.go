package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, 10, cfg.Crawl.MaxPages)
	assert.Equal(t, 1000, cfg.Search.DelayMillis)
	assert.Equal(t, 15, cfg.Scrape.TimeoutSecs)
	assert.True(t, cfg.Verify.Enabled)
	assert.Equal(t, "traces", cfg.Trace.Dir)
	assert.Equal(t, 3, cfg.Engine.MaxRetries)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_EnvOverride(t *testing.T) {
	require.NoError(t, os.Setenv("ENRICH_CRAWL_MAX_PAGES", "25"))
	defer func() { _ = os.Unsetenv("ENRICH_CRAWL_MAX_PAGES") }()

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 25, cfg.Crawl.MaxPages)
}

func TestInitLogger_BadLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "nope", Format: "json"})
	assert.Error(t, err)
}

func TestInitLogger_Console(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	assert.NoError(t, err)
}
