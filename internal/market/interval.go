package market

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidInterval is returned when a caller asks for a candle interval
// outside the supported set.
var ErrInvalidInterval = errors.New("invalid candle interval")

// Interval is a candle bucket width. Only the enumerated values are valid.
type Interval string

const (
	Interval1m  Interval = "1m"
	Interval5m  Interval = "5m"
	Interval15m Interval = "15m"
	Interval1h  Interval = "1h"
	Interval4h  Interval = "4h"
	Interval1d  Interval = "1d"
)

var intervalWidths = map[Interval]time.Duration{
	Interval1m:  time.Minute,
	Interval5m:  5 * time.Minute,
	Interval15m: 15 * time.Minute,
	Interval1h:  time.Hour,
	Interval4h:  4 * time.Hour,
	Interval1d:  24 * time.Hour,
}

// ParseInterval normalizes and validates an interval string ("1m", "4h", ...).
func ParseInterval(s string) (Interval, error) {
	iv := Interval(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := intervalWidths[iv]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidInterval, s)
	}
	return iv, nil
}

// Duration returns the bucket width. Zero for unknown intervals.
func (iv Interval) Duration() time.Duration {
	return intervalWidths[iv]
}

func (iv Interval) Valid() bool {
	_, ok := intervalWidths[iv]
	return ok
}

func (iv Interval) String() string { return string(iv) }
