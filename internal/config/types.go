package config

import "time"

type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Feed      FeedConfig      `mapstructure:"feed"`
	History   HistoryConfig   `mapstructure:"history"`
	Sources   SourcesConfig   `mapstructure:"sources"`
	Broadcast BroadcastConfig `mapstructure:"broadcast"`
}

type AppConfig struct {
	Env           string `mapstructure:"env"`
	LogLevel      string `mapstructure:"log_level"`
	HTTPAddr      string `mapstructure:"http_addr"`
	WatchlistPath string `mapstructure:"watchlist_path"`
}

type FeedConfig struct {
	FetchIntervalSec   int `mapstructure:"fetch_interval_sec"`
	JanitorIntervalMin int `mapstructure:"janitor_interval_min"`
	MonitorTimeoutMS   int `mapstructure:"monitor_timeout_ms"`
}

func (f FeedConfig) FetchInterval() time.Duration {
	return time.Duration(f.FetchIntervalSec) * time.Second
}

func (f FeedConfig) JanitorInterval() time.Duration {
	return time.Duration(f.JanitorIntervalMin) * time.Minute
}

func (f FeedConfig) MonitorTimeout() time.Duration {
	return time.Duration(f.MonitorTimeoutMS) * time.Millisecond
}

type HistoryConfig struct {
	MaxEntries     int `mapstructure:"max_entries"`
	RetentionHours int `mapstructure:"retention_hours"`
}

func (h HistoryConfig) Retention() time.Duration {
	return time.Duration(h.RetentionHours) * time.Hour
}

type SourcesConfig struct {
	DexScreener HTTPSourceConfig `mapstructure:"dexscreener"`
	Polymarket  HTTPSourceConfig `mapstructure:"polymarket"`
	Binance     HTTPSourceConfig `mapstructure:"binance"`
}

type HTTPSourceConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	BaseURL    string `mapstructure:"base_url"`
	TimeoutSec int    `mapstructure:"timeout_sec"`
}

func (s HTTPSourceConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSec) * time.Second
}

type BroadcastConfig struct {
	Buffer int `mapstructure:"buffer"`
}
