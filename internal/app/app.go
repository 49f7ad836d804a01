// Package app wires the feed, its sources, and the HTTP surface into one
// runnable unit owned by the process composition root.
package app

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/caelum0x/immortal-bnb-sub004/internal/broadcast"
	appcfg "github.com/caelum0x/immortal-bnb-sub004/internal/config"
	"github.com/caelum0x/immortal-bnb-sub004/internal/feed"
	"github.com/caelum0x/immortal-bnb-sub004/internal/logger"
	markethttp "github.com/caelum0x/immortal-bnb-sub004/internal/transport/http"
	"github.com/caelum0x/immortal-bnb-sub004/internal/watchfile"
)

// App holds the constructed components. Build with NewApp, run with Run.
type App struct {
	cfg     *appcfg.Config
	feed    *feed.Feed
	hub     *broadcast.Hub
	httpSrv *markethttp.Server
	watcher *watchfile.Watcher
}

// NewApp builds the application from config without starting anything.
func NewApp(cfg *appcfg.Config, opts ...BuilderOption) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	logger.SetLevel(cfg.App.LogLevel)
	return buildAppWithWire(cfg, opts...)
}

// Feed exposes the engine instance for in-process collaborators.
func (a *App) Feed() *feed.Feed {
	if a == nil {
		return nil
	}
	return a.feed
}

// Hub exposes the broadcast hub so a transport layer can attach subscribers.
func (a *App) Hub() *broadcast.Hub {
	if a == nil {
		return nil
	}
	return a.hub
}

// Run starts the feed, the HTTP server, and the watchlist watcher, and
// blocks until ctx is done or a component fails.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.feed == nil {
		return fmt.Errorf("app not initialized")
	}
	group, ctx := errgroup.WithContext(ctx)

	a.feed.Start(ctx)
	group.Go(func() error {
		<-ctx.Done()
		a.feed.Stop()
		a.hub.Close()
		return nil
	})

	if a.httpSrv != nil {
		group.Go(func() error {
			logger.Infof("app: http listening on %s", a.httpSrv.Addr())
			if err := a.httpSrv.Start(ctx); err != nil {
				return fmt.Errorf("market http server error: %w", err)
			}
			return nil
		})
	}

	if a.watcher != nil {
		group.Go(func() error {
			return a.watcher.Run(ctx.Done())
		})
	}

	return group.Wait()
}
