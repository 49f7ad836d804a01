// Package dexscreener adapts the DexScreener token API into the canonical
// observation type. The payload shape stays inside this package.
package dexscreener

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"

	"github.com/caelum0x/immortal-bnb-sub004/internal/market"
	"github.com/caelum0x/immortal-bnb-sub004/internal/source"
)

const (
	defaultBaseURL = "https://api.dexscreener.com"
	defaultTimeout = 10 * time.Second
	maxBodyBytes   = 1 << 20
)

type Config struct {
	BaseURL string
	Timeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURL
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	return c
}

type Adapter struct {
	source.StatsTracker

	cfg    Config
	client *http.Client
	nowFn  func() time.Time
}

func New(cfg Config) *Adapter {
	final := cfg.withDefaults()
	return &Adapter{
		cfg:    final,
		client: &http.Client{Timeout: final.Timeout},
		nowFn:  time.Now,
	}
}

func (a *Adapter) Name() string { return string(market.SourceDexScreener) }

// Fetch resolves a token address against /latest/dex/tokens and keeps the
// deepest pool when the token trades in several pairs.
func (a *Adapter) Fetch(ctx context.Context, instrument string) (obs market.Observation, err error) {
	defer func() { a.Record(err) }()

	url := fmt.Sprintf("%s/latest/dex/tokens/%s", a.cfg.BaseURL, instrument)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return market.Observation{}, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := a.client.Do(req)
	if err != nil {
		return market.Observation{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return market.Observation{}, fmt.Errorf("dexscreener status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return market.Observation{}, err
	}

	pair := deepestPair(gjson.GetBytes(body, "pairs"))
	if !pair.Exists() {
		return market.Observation{}, source.ErrNoData
	}
	price, err := decimal.NewFromString(pair.Get("priceUsd").String())
	if err != nil {
		return market.Observation{}, fmt.Errorf("bad priceUsd: %w", err)
	}

	return market.Observation{
		Instrument:     instrument,
		Price:          price,
		Volume24h:      decimal.NewFromFloat(pair.Get("volume.h24").Float()),
		PriceChange24h: decimal.NewFromFloat(pair.Get("priceChange.h24").Float()),
		ObservedAt:     a.nowFn(),
		Source:         market.SourceDexScreener,
	}, nil
}

// deepestPair picks the pair with the highest USD liquidity; thin pools
// quote unreliable prices.
func deepestPair(pairs gjson.Result) gjson.Result {
	var best gjson.Result
	bestLiq := -1.0
	pairs.ForEach(func(_, p gjson.Result) bool {
		if p.Get("priceUsd").String() == "" {
			return true
		}
		liq := p.Get("liquidity.usd").Float()
		if liq > bestLiq {
			bestLiq = liq
			best = p
		}
		return true
	})
	return best
}
