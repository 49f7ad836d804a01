package market

import (
	"time"

	"github.com/shopspring/decimal"
)

// Source identifies the upstream that produced an observation.
type Source string

const (
	SourceDexScreener Source = "dexscreener"
	SourcePolymarket  Source = "polymarket"
	SourceBinance     Source = "binance"
)

// Observation is one price sample for an instrument at a point in time.
// Immutable once created; always passed by value.
type Observation struct {
	Instrument     string          `json:"instrument"`
	Price          decimal.Decimal `json:"price"`
	Volume24h      decimal.Decimal `json:"volume_24h"`
	PriceChange24h decimal.Decimal `json:"price_change_24h"`
	ObservedAt     time.Time       `json:"observed_at"`
	Source         Source          `json:"source"`
}

// HistoryEntry is the trimmed projection of an Observation kept in the
// per-instrument history sequence.
type HistoryEntry struct {
	Price      decimal.Decimal `json:"price"`
	Volume     decimal.Decimal `json:"volume"`
	ObservedAt time.Time       `json:"observed_at"`
}

// Entry projects an Observation down to its history form.
func (o Observation) Entry() HistoryEntry {
	return HistoryEntry{
		Price:      o.Price,
		Volume:     o.Volume24h,
		ObservedAt: o.ObservedAt,
	}
}
