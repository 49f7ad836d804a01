package app

import (
	"fmt"

	"github.com/caelum0x/immortal-bnb-sub004/internal/broadcast"
	appcfg "github.com/caelum0x/immortal-bnb-sub004/internal/config"
	"github.com/caelum0x/immortal-bnb-sub004/internal/feed"
	"github.com/caelum0x/immortal-bnb-sub004/internal/logger"
	"github.com/caelum0x/immortal-bnb-sub004/internal/market/history"
	"github.com/caelum0x/immortal-bnb-sub004/internal/pubsub"
	"github.com/caelum0x/immortal-bnb-sub004/internal/source"
	binancesrc "github.com/caelum0x/immortal-bnb-sub004/internal/source/binance"
	"github.com/caelum0x/immortal-bnb-sub004/internal/source/dexscreener"
	"github.com/caelum0x/immortal-bnb-sub004/internal/source/polymarket"
	markethttp "github.com/caelum0x/immortal-bnb-sub004/internal/transport/http"
	"github.com/caelum0x/immortal-bnb-sub004/internal/watchfile"
)

// AppBuilder assembles the component graph. Collaborators that live
// outside this module (the order monitor) are injected through options.
type AppBuilder struct {
	cfg *appcfg.Config

	monitor  feed.OrderMonitor
	caster   feed.Broadcaster
	registry *source.Registry
}

type BuilderOption func(*AppBuilder)

// WithOrderMonitor injects the order-monitoring collaborator's hook.
func WithOrderMonitor(m feed.OrderMonitor) BuilderOption {
	return func(b *AppBuilder) { b.monitor = m }
}

// WithBroadcaster overrides the default in-process hub, e.g. with a real
// client transport.
func WithBroadcaster(c feed.Broadcaster) BuilderOption {
	return func(b *AppBuilder) { b.caster = c }
}

// WithRegistry overrides the adapter registry, used by tests and replay
// harnesses.
func WithRegistry(r *source.Registry) BuilderOption {
	return func(b *AppBuilder) { b.registry = r }
}

func NewAppBuilder(cfg *appcfg.Config, opts ...BuilderOption) *AppBuilder {
	b := &AppBuilder{cfg: cfg}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

// Build constructs the graph: store, adapter registry in priority order,
// broadcast hub, feed, HTTP server, and the optional watchlist watcher.
func (b *AppBuilder) Build() (*App, error) {
	cfg := b.cfg

	store := history.NewStore(cfg.History.MaxEntries)
	registry := b.registry
	if registry == nil {
		registry = buildRegistry(cfg.Sources)
	}

	hub := broadcast.NewHub(cfg.Broadcast.Buffer)
	caster := b.caster
	if caster == nil {
		caster = hub
	}

	f := feed.New(feed.Config{
		FetchInterval:   cfg.Feed.FetchInterval(),
		JanitorInterval: cfg.Feed.JanitorInterval(),
		Retention:       cfg.History.Retention(),
		MonitorTimeout:  cfg.Feed.MonitorTimeout(),
	}, store, registry, b.monitor, caster, pubsub.New())

	srv, err := markethttp.NewServer(cfg.App.HTTPAddr, f)
	if err != nil {
		return nil, fmt.Errorf("building http server: %w", err)
	}

	var watcher *watchfile.Watcher
	if path := cfg.App.WatchlistPath; path != "" {
		watcher = watchfile.NewWatcher(path, f)
		if err := watcher.Seed(); err != nil {
			return nil, fmt.Errorf("seeding watchlist: %w", err)
		}
	} else {
		logger.Infof("app: no watchlist file configured, watchlist starts empty")
	}

	return &App{
		cfg:     cfg,
		feed:    f,
		hub:     hub,
		httpSrv: srv,
		watcher: watcher,
	}, nil
}

// buildRegistry sets the fixed priority order per instrument class: tokens
// try the DEX aggregator before the exchange ticker, prediction markets
// only have one source.
func buildRegistry(sources appcfg.SourcesConfig) *source.Registry {
	registry := source.NewRegistry()
	if sources.DexScreener.Enabled {
		registry.Register(source.ClassToken, dexscreener.New(dexscreener.Config{
			BaseURL: sources.DexScreener.BaseURL,
			Timeout: sources.DexScreener.Timeout(),
		}))
	}
	if sources.Binance.Enabled {
		registry.Register(source.ClassToken, binancesrc.New(binancesrc.Config{
			RESTBaseURL: sources.Binance.BaseURL,
			HTTPTimeout: sources.Binance.Timeout(),
		}))
	}
	if sources.Polymarket.Enabled {
		registry.Register(source.ClassPredictionMarket, polymarket.New(polymarket.Config{
			BaseURL: sources.Polymarket.BaseURL,
			Timeout: sources.Polymarket.Timeout(),
		}))
	}
	return registry
}
