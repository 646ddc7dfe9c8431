package coingecko

// OHLCRow is one entry of /coins/{id}/ohlc: [timestamp_ms, open, high, low, close].
type OHLCRow []float64

// MarketEntry mirrors one element of /coins/markets.
type MarketEntry struct {
	ID                       string  `json:"id"`
	Symbol                   string  `json:"symbol"`
	CurrentPrice             float64 `json:"current_price"`
	High24h                  float64 `json:"high_24h"`
	Low24h                   float64 `json:"low_24h"`
	PriceChangePercentage24h float64 `json:"price_change_percentage_24h"`
	MarketCap                float64 `json:"market_cap"`
	TotalVolume              float64 `json:"total_volume"`
}
