package binance

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Kline is the prefix of a /klines row that the provider uses:
// [openTime, open, high, low, close, volume, closeTime, ...]. Prices arrive as strings.
type Kline struct {
	OpenTime int64
	Open     float64
	High     float64
	Low      float64
	Close    float64
	Volume   float64
}

// UnmarshalJSON decodes the positional array form.
func (k *Kline) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("binance: decode kline: %w", err)
	}
	if len(raw) < 6 {
		return fmt.Errorf("binance: kline has %d fields, want at least 6", len(raw))
	}
	if err := json.Unmarshal(raw[0], &k.OpenTime); err != nil {
		return fmt.Errorf("binance: kline open time: %w", err)
	}
	dst := []*float64{&k.Open, &k.High, &k.Low, &k.Close, &k.Volume}
	for i, ptr := range dst {
		v, err := decimal(raw[i+1])
		if err != nil {
			return fmt.Errorf("binance: kline field %d: %w", i+1, err)
		}
		*ptr = v
	}
	return nil
}

// decimal accepts both quoted and bare numbers.
func decimal(raw json.RawMessage) (float64, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strconv.ParseFloat(s, 64)
	}
	var f float64
	err := json.Unmarshal(raw, &f)
	return f, err
}

// TickerPrice is the /ticker/price payload.
type TickerPrice struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price,string"`
}

// Ticker24h is the subset of /ticker/24hr the provider reads.
type Ticker24h struct {
	Symbol             string  `json:"symbol"`
	PriceChangePercent float64 `json:"priceChangePercent,string"`
	HighPrice          float64 `json:"highPrice,string"`
	LowPrice           float64 `json:"lowPrice,string"`
	OpenPrice          float64 `json:"openPrice,string"`
	LastPrice          float64 `json:"lastPrice,string"`
	Volume             float64 `json:"volume,string"`
	QuoteVolume        float64 `json:"quoteVolume,string"`
}
