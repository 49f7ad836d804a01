// Package binance adapts the Binance spot 24h ticker via the go-binance
// SDK. Instruments that are not exchange symbols (contract addresses,
// condition ids) are reported as no data.
package binance

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/shopspring/decimal"

	"github.com/caelum0x/immortal-bnb-sub004/internal/market"
	"github.com/caelum0x/immortal-bnb-sub004/internal/source"
)

const defaultTimeout = 10 * time.Second

type Config struct {
	RESTBaseURL string
	HTTPTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.HTTPTimeout <= 0 {
		c.HTTPTimeout = defaultTimeout
	}
	return c
}

type Adapter struct {
	source.StatsTracker

	cfg    Config
	client *binance.Client
	nowFn  func() time.Time
}

func New(cfg Config) *Adapter {
	final := cfg.withDefaults()
	client := binance.NewClient("", "")
	if base := strings.TrimSpace(final.RESTBaseURL); base != "" {
		client.BaseURL = base
	}
	client.HTTPClient = &http.Client{Timeout: final.HTTPTimeout}
	return &Adapter{
		cfg:    final,
		client: client,
		nowFn:  time.Now,
	}
}

func (a *Adapter) Name() string { return string(market.SourceBinance) }

func (a *Adapter) Fetch(ctx context.Context, instrument string) (obs market.Observation, err error) {
	defer func() { a.Record(err) }()

	symbol := tickerSymbol(instrument)
	if symbol == "" {
		return market.Observation{}, source.ErrNoData
	}
	stats, err := a.client.NewListPriceChangeStatsService().Symbol(symbol).Do(ctx)
	if err != nil {
		return market.Observation{}, err
	}
	for _, st := range stats {
		if st == nil || !strings.EqualFold(st.Symbol, symbol) {
			continue
		}
		price, perr := decimal.NewFromString(st.LastPrice)
		if perr != nil {
			return market.Observation{}, fmt.Errorf("bad last price: %w", perr)
		}
		volume, _ := decimal.NewFromString(st.QuoteVolume)
		change, _ := decimal.NewFromString(st.PriceChangePercent)
		return market.Observation{
			Instrument:     instrument,
			Price:          price,
			Volume24h:      volume,
			PriceChange24h: change,
			ObservedAt:     a.nowFn(),
			Source:         market.SourceBinance,
		}, nil
	}
	return market.Observation{}, source.ErrNoData
}

// tickerSymbol maps an instrument id onto a Binance ticker symbol.
// Contract addresses have no listing; plain symbols pass through upper-cased.
func tickerSymbol(instrument string) string {
	id := strings.TrimSpace(instrument)
	if id == "" || strings.HasPrefix(strings.ToLower(id), "0x") {
		return ""
	}
	return strings.ToUpper(strings.ReplaceAll(id, "/", ""))
}
