// Package polymarket adapts the Polymarket Gamma markets API. Instruments
// are condition ids; the quoted price is the YES outcome.
package polymarket

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"

	"github.com/caelum0x/immortal-bnb-sub004/internal/market"
	"github.com/caelum0x/immortal-bnb-sub004/internal/source"
)

const (
	defaultBaseURL = "https://gamma-api.polymarket.com"
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

func (a *Adapter) Name() string { return string(market.SourcePolymarket) }

func (a *Adapter) Fetch(ctx context.Context, instrument string) (obs market.Observation, err error) {
	defer func() { a.Record(err) }()

	endpoint := fmt.Sprintf("%s/markets?condition_ids=%s", a.cfg.BaseURL, url.QueryEscape(instrument))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
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
		return market.Observation{}, fmt.Errorf("polymarket status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return market.Observation{}, err
	}

	m := gjson.GetBytes(body, "0")
	if !m.Exists() {
		return market.Observation{}, source.ErrNoData
	}
	// outcomePrices is a JSON array encoded as a string: "[\"0.45\", \"0.55\"]"
	yes := gjson.Parse(m.Get("outcomePrices").String()).Get("0").String()
	if yes == "" {
		return market.Observation{}, source.ErrNoData
	}
	price, err := decimal.NewFromString(yes)
	if err != nil {
		return market.Observation{}, fmt.Errorf("bad outcome price: %w", err)
	}

	return market.Observation{
		Instrument:     instrument,
		Price:          price,
		Volume24h:      decimal.NewFromFloat(m.Get("volume24hr").Float()),
		PriceChange24h: decimal.NewFromFloat(m.Get("oneDayPriceChange").Float()),
		ObservedAt:     a.nowFn(),
		Source:         market.SourcePolymarket,
	}, nil
}
