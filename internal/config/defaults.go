package config

import (
	"fmt"
	"strings"
)

const (
	defaultAppEnv             = "dev"
	defaultAppLogLevel        = "info"
	defaultAppHTTPAddr        = ":9991"
	defaultFetchIntervalSec   = 10
	defaultJanitorIntervalMin = 60
	defaultMonitorTimeoutMS   = 2000
	defaultMaxEntries         = 1000
	defaultRetentionHours     = 24
	defaultSourceTimeoutSec   = 10
	defaultBroadcastBuffer    = 256
	defaultDexScreenerBase    = "https://api.dexscreener.com"
	defaultPolymarketBase     = "https://gamma-api.polymarket.com"
)

func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = defaultAppEnv
	}
	if c.App.LogLevel == "" {
		c.App.LogLevel = defaultAppLogLevel
	}
	if c.App.HTTPAddr == "" {
		c.App.HTTPAddr = defaultAppHTTPAddr
	}
	if c.Feed.FetchIntervalSec <= 0 {
		c.Feed.FetchIntervalSec = defaultFetchIntervalSec
	}
	if c.Feed.JanitorIntervalMin <= 0 {
		c.Feed.JanitorIntervalMin = defaultJanitorIntervalMin
	}
	if c.Feed.MonitorTimeoutMS <= 0 {
		c.Feed.MonitorTimeoutMS = defaultMonitorTimeoutMS
	}
	if c.History.MaxEntries <= 0 {
		c.History.MaxEntries = defaultMaxEntries
	}
	if c.History.RetentionHours <= 0 {
		c.History.RetentionHours = defaultRetentionHours
	}
	if c.Broadcast.Buffer <= 0 {
		c.Broadcast.Buffer = defaultBroadcastBuffer
	}
	applySourceDefaults(&c.Sources.DexScreener, defaultDexScreenerBase)
	applySourceDefaults(&c.Sources.Polymarket, defaultPolymarketBase)
	applySourceDefaults(&c.Sources.Binance, "")
}

func applySourceDefaults(s *HTTPSourceConfig, baseURL string) {
	if s.BaseURL == "" {
		s.BaseURL = baseURL
	}
	if s.TimeoutSec <= 0 {
		s.TimeoutSec = defaultSourceTimeoutSec
	}
}

func validate(c *Config) error {
	switch strings.ToLower(c.App.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid app.log_level: %q", c.App.LogLevel)
	}
	if !c.Sources.DexScreener.Enabled && !c.Sources.Polymarket.Enabled && !c.Sources.Binance.Enabled {
		return fmt.Errorf("at least one source must be enabled")
	}
	if c.Feed.FetchIntervalSec < 1 {
		return fmt.Errorf("feed.fetch_interval_sec must be at least 1")
	}
	if c.History.RetentionHours < 1 {
		return fmt.Errorf("history.retention_hours must be at least 1")
	}
	return nil
}
