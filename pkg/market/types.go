package market

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// DefaultDays is the history length requested when the caller does not specify one.
const DefaultDays = 30

// MaxDays caps the history length any provider is asked for.
const MaxDays = 1000

// ClampDays maps days into [1, MaxDays], substituting DefaultDays for
// non-positive values.
func ClampDays(days int) int {
	switch {
	case days <= 0:
		return DefaultDays
	case days > MaxDays:
		return MaxDays
	default:
		return days
	}
}

// Candle is one UTC calendar day of price action.
type Candle struct {
	Timestamp int64 // Day open, epoch milliseconds UTC
	Open      float64
	High      float64
	Low       float64
	Close     float64
}

// MarshalJSON encodes the candle as [timestamp_ms, open, high, low, close].
func (c Candle) MarshalJSON() ([]byte, error) {
	return json.Marshal([5]float64{float64(c.Timestamp), c.Open, c.High, c.Low, c.Close})
}

// UnmarshalJSON decodes the [timestamp_ms, open, high, low, close] tuple form.
func (c *Candle) UnmarshalJSON(data []byte) error {
	var raw []float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("market: decode candle: %w", err)
	}
	if len(raw) < 5 {
		return fmt.Errorf("market: candle needs 5 fields, got %d", len(raw))
	}
	c.Timestamp = int64(raw[0])
	c.Open, c.High, c.Low, c.Close = raw[1], raw[2], raw[3], raw[4]
	return nil
}

// Snapshot is a point-in-time market read, independent of the candle series.
type Snapshot struct {
	CurrentPrice          float64 `json:"current_price"`
	High24h               float64 `json:"high_24h"`
	Low24h                float64 `json:"low_24h"`
	PriceChangePercent24h float64 `json:"price_change_percentage_24h"`
	MarketCap             float64 `json:"market_cap"`
	Volume24h             float64 `json:"volume_24h"`
	Source                string  `json:"source"`
}

// Envelope is the canonical, provider-agnostic collection result.
// Treat it as immutable once built.
type Envelope struct {
	AssetID       string    `json:"coin_id"`
	Candles       []Candle  `json:"ohlc"`
	Snapshot      Snapshot  `json:"market_data"`
	CollectedAt   time.Time `json:"timestamp"`
	TotalDays     int       `json:"total_days"`
	Source        string    `json:"source"`
	RequestedDays int       `json:"requested_days,omitempty"`
}

// NewEnvelope assembles an envelope and checks it is complete.
func NewEnvelope(asset string, candles []Candle, snap Snapshot, source string, requestedDays int, collectedAt time.Time) (*Envelope, error) {
	series := make([]Candle, len(candles))
	copy(series, candles)
	env := &Envelope{
		AssetID:       NormalizeAssetID(asset),
		Candles:       series,
		Snapshot:      snap,
		CollectedAt:   collectedAt.UTC(),
		TotalDays:     len(series),
		Source:        source,
		RequestedDays: requestedDays,
	}
	if err := env.Validate(); err != nil {
		return nil, err
	}
	return env, nil
}

// Validate reports whether every required field is populated and the candle
// series is strictly ascending.
func (e *Envelope) Validate() error {
	if e == nil {
		return errors.New("market: envelope is nil")
	}
	if strings.TrimSpace(e.AssetID) == "" {
		return errors.New("market: envelope missing coin_id")
	}
	if strings.TrimSpace(e.Source) == "" {
		return errors.New("market: envelope missing source")
	}
	if e.CollectedAt.IsZero() {
		return errors.New("market: envelope missing timestamp")
	}
	if len(e.Candles) == 0 {
		return errors.New("market: envelope has no candles")
	}
	for i := 1; i < len(e.Candles); i++ {
		if e.Candles[i].Timestamp <= e.Candles[i-1].Timestamp {
			return fmt.Errorf("market: candle timestamps not strictly increasing at index %d", i)
		}
	}
	if e.Snapshot.CurrentPrice <= 0 {
		return errors.New("market: snapshot current_price must be positive")
	}
	return nil
}

// Age returns how long ago the envelope was collected.
func (e *Envelope) Age(now time.Time) time.Duration {
	return now.Sub(e.CollectedAt)
}

// NormalizeAssetID returns the canonical lowercase form of an asset identifier.
func NormalizeAssetID(asset string) string {
	return strings.ToLower(strings.TrimSpace(asset))
}
