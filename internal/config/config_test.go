package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppliesDefaultsForUnsetFields(t *testing.T) {
	path := writeConfig(t, `
sources:
  dexscreener:
    enabled: true
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.App.Env)
	assert.Equal(t, "info", cfg.App.LogLevel)
	assert.Equal(t, ":9991", cfg.App.HTTPAddr)
	assert.Equal(t, 10*time.Second, cfg.Feed.FetchInterval())
	assert.Equal(t, time.Hour, cfg.Feed.JanitorInterval())
	assert.Equal(t, 2*time.Second, cfg.Feed.MonitorTimeout())
	assert.Equal(t, 1000, cfg.History.MaxEntries)
	assert.Equal(t, 24*time.Hour, cfg.History.Retention())
	assert.Equal(t, 256, cfg.Broadcast.Buffer)
	assert.Equal(t, "https://api.dexscreener.com", cfg.Sources.DexScreener.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.Sources.DexScreener.Timeout())
}

func TestLoadKeepsExplicitValues(t *testing.T) {
	path := writeConfig(t, `
app:
  env: prod
  log_level: debug
  http_addr: ":8080"
  watchlist_path: /etc/feed/watchlist.yaml
feed:
  fetch_interval_sec: 5
  janitor_interval_min: 30
  monitor_timeout_ms: 500
history:
  max_entries: 50
  retention_hours: 6
broadcast:
  buffer: 16
sources:
  dexscreener:
    enabled: true
    base_url: http://localhost:9000
    timeout_sec: 3
  binance:
    enabled: true
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "prod", cfg.App.Env)
	assert.Equal(t, ":8080", cfg.App.HTTPAddr)
	assert.Equal(t, "/etc/feed/watchlist.yaml", cfg.App.WatchlistPath)
	assert.Equal(t, 5*time.Second, cfg.Feed.FetchInterval())
	assert.Equal(t, 30*time.Minute, cfg.Feed.JanitorInterval())
	assert.Equal(t, 500*time.Millisecond, cfg.Feed.MonitorTimeout())
	assert.Equal(t, 50, cfg.History.MaxEntries)
	assert.Equal(t, 6*time.Hour, cfg.History.Retention())
	assert.Equal(t, 16, cfg.Broadcast.Buffer)
	assert.Equal(t, "http://localhost:9000", cfg.Sources.DexScreener.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.Sources.DexScreener.Timeout())
	assert.True(t, cfg.Sources.Binance.Enabled)
}

func TestLoadRejectsInvalidLogLevel(t *testing.T) {
	path := writeConfig(t, `
app:
  log_level: verbose
sources:
  dexscreener:
    enabled: true
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log_level")
}

func TestLoadRejectsAllSourcesDisabled(t *testing.T) {
	path := writeConfig(t, `
app:
  log_level: info
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one source")
}

func TestLoadMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadEmptyPathFails(t *testing.T) {
	_, err := Load("")
	assert.Error(t, err)
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, validate(cfg))
	assert.True(t, cfg.Sources.DexScreener.Enabled)
	assert.True(t, cfg.Sources.Polymarket.Enabled)
	assert.False(t, cfg.Sources.Binance.Enabled)
}
