package coincap

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Decimal is a number CoinCap serialises as a string, or null when unknown.
type Decimal float64

// UnmarshalJSON accepts "1.5", 1.5 and null.
func (d *Decimal) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*d = 0
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s == "" {
			*d = 0
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("coincap: decimal %q: %w", s, err)
		}
		*d = Decimal(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("coincap: decimal: %w", err)
	}
	*d = Decimal(f)
	return nil
}

// Float returns d as a float64.
func (d Decimal) Float() float64 { return float64(d) }

// HistoryPoint is one /assets/{id}/history row.
type HistoryPoint struct {
	PriceUsd Decimal `json:"priceUsd"`
	Time     int64   `json:"time"`
}

// HistoryResponse wraps /assets/{id}/history.
type HistoryResponse struct {
	Data      []HistoryPoint `json:"data"`
	Timestamp int64          `json:"timestamp"`
}

// Asset is the /assets/{id} payload.
type Asset struct {
	ID                string  `json:"id"`
	Symbol            string  `json:"symbol"`
	PriceUsd          Decimal `json:"priceUsd"`
	ChangePercent24Hr Decimal `json:"changePercent24Hr"`
	MarketCapUsd      Decimal `json:"marketCapUsd"`
	VolumeUsd24Hr     Decimal `json:"volumeUsd24Hr"`
}

// AssetResponse wraps /assets/{id}.
type AssetResponse struct {
	Data      *Asset `json:"data"`
	Timestamp int64  `json:"timestamp"`
}
